// Package testdb provides isolated expense stores for tests.
//
// Every backend that implements service.ExpenseRepository can be obtained
// here. Memory and SQLite (":memory:") stores are always available; the
// PostgreSQL and SurrealDB stores need a running server and skip the test
// unless TEST_PG_DSN or TEST_SURREAL_HOST is set.
//
//	for _, b := range testdb.Backends(t) {
//	    t.Run(b.Name, func(t *testing.T) {
//	        repo := b.New(t)
//	        ...
//	    })
//	}
//
// # Isolation
//
// Memory and SQLite stores are created per call. PostgreSQL shares one
// database, so its table is emptied on setup; run those suites without
// -parallel across packages. SurrealDB gets a fresh namespace per call.
package testdb
