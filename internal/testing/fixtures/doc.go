// Package fixtures provides expense factories for tests.
//
// Each factory method creates an expense with sensible defaults while
// allowing customization via option functions, and stores it through any
// service.ExpenseRepository.
//
//	f := fixtures.New(repo)
//	rent := f.CreateExpense(t, fixtures.WithCategory("rent"), fixtures.WithStatus(true))
//	f.CreateInvoice(t, "100")
//	f.CreatePayment(t, "40")
//
// Build returns the same defaults without storing, for request bodies and
// mock return values.
package fixtures
