package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/pkg/cache"
	"github.com/shashiranjanraj/stockroom/pkg/session"
)

// roundTrip runs h behind the middleware, replaying cookies from prev.
func roundTrip(t *testing.T, store session.Store, prev []*http.Cookie, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range prev {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	session.Middleware(store, session.DefaultOptions())(h).ServeHTTP(rec, req)
	return rec
}

func storesUnderTest(t *testing.T) map[string]session.Store {
	mr := miniredis.RunT(t)
	c, err := cache.Connect(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return map[string]session.Store{
		"memory": session.NewMemoryStore(),
		"redis":  session.NewRedisStore(c),
	}
}

func TestValuesPersistAcrossRequests(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			rec := roundTrip(t, store, nil, func(w http.ResponseWriter, r *http.Request) {
				session.FromCtx(r).Set("user_id", uint(42))
				w.WriteHeader(http.StatusSeeOther)
			})
			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, "stockroom_session", cookies[0].Name)

			var got uint
			roundTrip(t, store, cookies, func(w http.ResponseWriter, r *http.Request) {
				got, _ = session.FromCtx(r).GetUint("user_id")
			})
			assert.Equal(t, uint(42), got)
		})
	}
}

func TestFlashesAreConsumedOnce(t *testing.T) {
	store := session.NewMemoryStore()

	rec := roundTrip(t, store, nil, func(w http.ResponseWriter, r *http.Request) {
		s := session.FromCtx(r)
		s.Flash("success", "Supplier created.")
		s.Flash("warning", "Image skipped.")
		http.Redirect(w, r, "/suppliers", http.StatusSeeOther)
	})
	cookies := rec.Result().Cookies()

	var first, second []session.Flash
	roundTrip(t, store, cookies, func(w http.ResponseWriter, r *http.Request) {
		first = session.FromCtx(r).Flashes()
		_, _ = w.Write([]byte("page"))
	})
	roundTrip(t, store, cookies, func(w http.ResponseWriter, r *http.Request) {
		second = session.FromCtx(r).Flashes()
	})

	assert.Equal(t, []session.Flash{
		{Category: "success", Message: "Supplier created."},
		{Category: "warning", Message: "Image skipped."},
	}, first)
	assert.Empty(t, second)
}

func TestRegenerateDropsOldID(t *testing.T) {
	store := session.NewMemoryStore()

	rec := roundTrip(t, store, nil, func(w http.ResponseWriter, r *http.Request) {
		session.FromCtx(r).Set("k", "v")
	})
	oldCookies := rec.Result().Cookies()
	require.Len(t, oldCookies, 1)

	rec = roundTrip(t, store, oldCookies, func(w http.ResponseWriter, r *http.Request) {
		session.FromCtx(r).Regenerate()
	})
	newCookies := rec.Result().Cookies()
	require.Len(t, newCookies, 1)
	assert.NotEqual(t, oldCookies[0].Value, newCookies[0].Value)

	_, err := store.Load(context.Background(), oldCookies[0].Value)
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.Equal(t, 1, store.Len())
}

func TestInvalidateClearsData(t *testing.T) {
	store := session.NewMemoryStore()
	rec := roundTrip(t, store, nil, func(w http.ResponseWriter, r *http.Request) {
		session.FromCtx(r).Set("user_id", 1)
	})

	rec = roundTrip(t, store, rec.Result().Cookies(), func(w http.ResponseWriter, r *http.Request) {
		s := session.FromCtx(r)
		s.Invalidate()
		s.Flash("info", "You have been logged out.")
	})

	var uid uint
	var flashes []session.Flash
	roundTrip(t, store, rec.Result().Cookies(), func(w http.ResponseWriter, r *http.Request) {
		s := session.FromCtx(r)
		_ = s.Get("user_id", &uid)
		flashes = s.Flashes()
	})
	assert.Zero(t, uid)
	require.Len(t, flashes, 1)
	assert.Equal(t, "info", flashes[0].Category)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "a", []byte(`{}`), time.Nanosecond))
	time.Sleep(time.Millisecond)

	_, err := store.Load(ctx, "a")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestUnchangedSessionSetsNoCookie(t *testing.T) {
	rec := roundTrip(t, session.NewMemoryStore(), nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	assert.Empty(t, rec.Result().Cookies())
}
