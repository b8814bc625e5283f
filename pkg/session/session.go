// Package session provides cookie-identified HTTP sessions backed by Redis or
// process memory.
//
// Usage (middleware):
//
//	r.Use(session.Middleware(store, session.DefaultOptions()))
//
// Usage (handler):
//
//	sess := session.FromCtx(r)
//	sess.Set("user_id", 42)
//	sess.Flash("success", "Saved.")
//
// Changes are persisted automatically just before the response header is
// written.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

// ------------------- Options -------------------

// Options configures session behaviour.
type Options struct {
	CookieName string
	TTL        time.Duration
	HTTPOnly   bool
	Secure     bool
	SameSite   http.SameSite
	Path       string
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		CookieName: "stockroom_session",
		TTL:        2 * time.Hour,
		HTTPOnly:   true,
		Secure:     false, // set true behind TLS
		SameSite:   http.SameSiteLaxMode,
		Path:       "/",
	}
}

// ------------------- Session -------------------

type ctxKey struct{}

const flashKey = "_flashes"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Session is an in-request session handle.
type Session struct {
	mu      sync.Mutex
	id      string
	data    map[string]json.RawMessage
	changed bool
	oldID   string
	saved   bool
	store   Store
	opts    Options
}

// newID generates a cryptographically random 32-byte hex session ID.
func newID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("session: read random: %v", err))
	}
	return hex.EncodeToString(b)
}

// Set stores value under key. value must be JSON-encodable.
func (s *Session) Set(key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Warn("session: dropping unencodable value", "key", key, "error", err)
		return
	}
	s.mu.Lock()
	s.data[key] = raw
	s.changed = true
	s.mu.Unlock()
}

// Get decodes the value under key into dest. Returns false when absent or
// not decodable.
func (s *Session) Get(key string, dest interface{}) bool {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// GetString is a typed convenience getter.
func (s *Session) GetString(key string) (string, bool) {
	var v string
	ok := s.Get(key, &v)
	return v, ok
}

// GetUint is a typed convenience getter.
func (s *Session) GetUint(key string) (uint, bool) {
	var v uint
	ok := s.Get(key, &v)
	return v, ok
}

// Delete removes a key from the session.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	if _, ok := s.data[key]; ok {
		delete(s.data, key)
		s.changed = true
	}
	s.mu.Unlock()
}

// Flash queues a message for the next page render.
func (s *Session) Flash(category, message string) {
	var flashes []Flash
	s.Get(flashKey, &flashes)
	s.Set(flashKey, append(flashes, Flash{Category: category, Message: message}))
}

// Flashes returns and clears queued messages.
func (s *Session) Flashes() []Flash {
	var flashes []Flash
	if !s.Get(flashKey, &flashes) {
		return nil
	}
	s.Delete(flashKey)
	return flashes
}

// Regenerate moves the session data to a fresh ID. Call it on login.
func (s *Session) Regenerate() {
	s.mu.Lock()
	if s.oldID == "" {
		s.oldID = s.id
	}
	s.id = newID()
	s.changed = true
	s.mu.Unlock()
}

// Invalidate destroys the session (logout). Flashes set afterwards survive in
// a fresh session.
func (s *Session) Invalidate() {
	s.mu.Lock()
	if s.oldID == "" {
		s.oldID = s.id
	}
	s.id = newID()
	s.data = map[string]json.RawMessage{}
	s.changed = true
	s.mu.Unlock()
}

// ID returns the session ID.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// save persists changed data and writes the cookie. It runs at most once per
// request.
func (s *Session) save(ctx context.Context, w http.ResponseWriter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saved || !s.changed {
		return nil
	}
	s.saved = true

	if s.oldID != "" {
		if err := s.store.Delete(ctx, s.oldID); err != nil {
			logger.WithCtx(ctx).Warn("session: delete old id", "error", err)
		}
	}

	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.store.Save(ctx, s.id, raw, s.opts.TTL); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    s.id,
		Path:     s.opts.Path,
		MaxAge:   int(s.opts.TTL.Seconds()),
		HttpOnly: s.opts.HTTPOnly,
		Secure:   s.opts.Secure,
		SameSite: s.opts.SameSite,
	})
	return nil
}

// ------------------- Middleware -------------------

// saveWriter persists the session right before the first byte goes out.
type saveWriter struct {
	http.ResponseWriter
	sess *Session
	ctx  context.Context
}

func (w *saveWriter) flush() {
	if err := w.sess.save(w.ctx, w.ResponseWriter); err != nil {
		logger.WithCtx(w.ctx).Error("session: persist failed", "error", err)
	}
}

func (w *saveWriter) WriteHeader(code int) {
	w.flush()
	w.ResponseWriter.WriteHeader(code)
}

func (w *saveWriter) Write(b []byte) (int, error) {
	w.flush()
	return w.ResponseWriter.Write(b)
}

func (w *saveWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Middleware loads (or creates) the session for every request and injects it
// into the request context. Handlers call session.FromCtx(r) to access it.
func Middleware(store Store, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := &Session{store: store, opts: opts, data: map[string]json.RawMessage{}}

			if cookie, err := r.Cookie(opts.CookieName); err == nil && cookie.Value != "" {
				raw, err := store.Load(r.Context(), cookie.Value)
				switch {
				case err == nil:
					sess.id = cookie.Value
					if err := json.Unmarshal(raw, &sess.data); err != nil {
						sess.data = map[string]json.RawMessage{}
					}
				case err != ErrNotFound:
					logger.WithCtx(r.Context()).Warn("session: load failed", "error", err)
				}
			}
			if sess.id == "" {
				sess.id = newID()
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, sess)
			sw := &saveWriter{ResponseWriter: w, sess: sess, ctx: ctx}
			next.ServeHTTP(sw, r.WithContext(ctx))
			sw.flush()
		})
	}
}

// FromCtx retrieves the session from the request context.
// Returns a detached, never-persisted session if none is present.
func FromCtx(r *http.Request) *Session {
	if s, ok := r.Context().Value(ctxKey{}).(*Session); ok {
		return s
	}
	return &Session{id: newID(), data: map[string]json.RawMessage{}, store: NewMemoryStore(), opts: DefaultOptions()}
}
