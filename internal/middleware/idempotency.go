package middleware

import (
	"bytes"
	"encoding/hex"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/forgo/expenses/internal/model"
	"golang.org/x/crypto/blake2b"
)

// IdempotencyKeyHeader names the client-chosen retry key
const IdempotencyKeyHeader = "Idempotency-Key"

// ReplayedHeader marks a response served from the idempotency store
const ReplayedHeader = "X-Idempotency-Replayed"

// Headers that belong to the transport or to the original request and are
// not replayed.
var unreplayedHeaders = map[string]bool{
	"Content-Encoding": true,
	"Content-Length":   true,
	"Vary":             true,
	"X-Request-Id":     true,
}

// IdempotencyStore remembers the responses to keyed POST requests
type IdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

type idempotencyEntry struct {
	status    int
	headers   http.Header
	body      []byte
	expiresAt time.Time
	inFlight  bool
	done      chan struct{}
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration // How long to keep responses (default 24h)
	Cleanup time.Duration // Sweep interval (default 1h)
}

// NewIdempotencyStore creates a store and starts its expiry sweeper.
// Call Stop to end the sweeper.
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = time.Hour
	}

	store := &IdempotencyStore{
		entries:  make(map[string]*idempotencyEntry),
		ttl:      cfg.TTL,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	go store.cleanupLoop(cfg.Cleanup)

	return store
}

// Stop stops the sweeper. It is safe to call more than once.
func (s *IdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *IdempotencyStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *IdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.entries {
		if !entry.inFlight && !entry.expiresAt.After(now) {
			delete(s.entries, key)
		}
	}
}

// acquire returns the completed entry for key, or claims key for the caller
// when there is none. A claimed entry must be released with finish. While
// another request holds the key, acquire waits for it. ok is false when the
// request context ends first.
func (s *IdempotencyStore) acquire(r *http.Request, key string) (entry *idempotencyEntry, owner, ok bool) {
	for {
		s.mu.Lock()
		existing, found := s.entries[key]
		if !found || (!existing.inFlight && !existing.expiresAt.After(s.now())) {
			entry = &idempotencyEntry{inFlight: true, done: make(chan struct{})}
			s.entries[key] = entry
			s.mu.Unlock()
			return entry, true, true
		}
		if !existing.inFlight {
			s.mu.Unlock()
			return existing, false, true
		}
		done := existing.done
		s.mu.Unlock()

		select {
		case <-done:
		case <-r.Context().Done():
			return nil, false, false
		}
	}
}

// finish records the captured response. Server errors are not kept so the
// client's retry runs again.
func (s *IdempotencyStore) finish(key string, entry *idempotencyEntry, w *idempotencyResponseWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.status >= http.StatusInternalServerError {
		delete(s.entries, key)
	} else {
		entry.status = w.status
		entry.headers = w.Header().Clone()
		entry.body = w.body.Bytes()
		entry.expiresAt = s.now().Add(s.ttl)
		entry.inFlight = false
	}
	close(entry.done)
}

// fingerprint derives the store key from the client address, the
// idempotency key and the request itself, so a reused key with a different
// body is treated as a new request.
func fingerprint(client, idempotencyKey, method, path string, body []byte) string {
	h, _ := blake2b.New256(nil)
	for _, part := range [][]byte{[]byte(client), []byte(idempotencyKey), []byte(method), []byte(path), body} {
		h.Write(part)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func clientHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// idempotencyResponseWriter captures the response for caching
type idempotencyResponseWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *idempotencyResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func replay(w http.ResponseWriter, entry *idempotencyEntry) {
	for k, v := range entry.headers {
		if unreplayedHeaders[k] {
			continue
		}
		w.Header()[k] = append([]string(nil), v...)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(entry.status)
	_, _ = w.Write(entry.body)
}

// Idempotency replays the stored response when a POST carrying an
// Idempotency-Key is retried with the same body. Requests without the
// header, and other methods, pass through.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			idempotencyKey := r.Header.Get(IdempotencyKeyHeader)
			if idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				model.NewBadRequestError("unreadable request body").WriteJSON(w)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := fingerprint(clientHost(r.RemoteAddr), idempotencyKey, r.Method, r.URL.Path, body)

			entry, owner, ok := store.acquire(r, key)
			if !ok {
				return
			}
			if !owner {
				slog.Debug("replaying idempotent response",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("path", r.URL.Path),
				)
				replay(w, entry)
				return
			}

			irw := &idempotencyResponseWriter{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				if p := recover(); p != nil {
					irw.status = http.StatusInternalServerError
					store.finish(key, entry, irw)
					panic(p)
				}
			}()

			next.ServeHTTP(irw, r)
			store.finish(key, entry, irw)
		})
	}
}
