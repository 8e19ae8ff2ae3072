package authgate_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantgate/pkg/authgate"
	"github.com/dmitrymomot/tenantgate/pkg/session"
	"github.com/dmitrymomot/tenantgate/pkg/tenantpool"
	"github.com/dmitrymomot/tenantgate/pkg/token"
)

const testSigningKey = "test-signing-key-at-least-32-bytes!!"

// fakePool is a stand-in tenant pool handle; the gate only passes it along.
type fakePool struct{ tenantpool.Pool }

// fakeResolver implements authgate.PoolResolver.
type fakeResolver struct {
	mu    sync.Mutex
	pools map[string]tenantpool.Pool
	calls int
}

func newFakeResolver(tenantIDs ...string) *fakeResolver {
	r := &fakeResolver{pools: make(map[string]tenantpool.Pool)}
	for _, id := range tenantIDs {
		r.pools[id] = &fakePool{}
	}
	return r
}

func (r *fakeResolver) Lookup(tenantID string) (tenantpool.Pool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	pool, ok := r.pools[tenantID]
	return pool, ok
}

func (r *fakeResolver) lookups() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// fakeSessions implements authgate.SessionChecker.
type fakeSessions struct {
	valid bool
	err   error
}

func (s *fakeSessions) IsValid(ctx context.Context, claims token.Claims, db session.Querier) (bool, error) {
	return s.valid, s.err
}

func newTestCodec(t *testing.T) *token.Service {
	t.Helper()
	svc, err := token.New([]byte(testSigningKey), time.Hour)
	require.NoError(t, err)
	return svc
}

func validToken(t *testing.T, codec *token.Service) string {
	t.Helper()
	tok, err := codec.Generate(token.Claims{
		User:         "alice",
		LoginSession: "0c8e3f74-9c60-4b3e-9a41-2ed51a0f1b6d",
		TenantID:     "acme",
	})
	require.NoError(t, err)
	return tok
}

// okHandler records whether it ran and asserts the gate's context guarantees.
type okHandler struct {
	called   bool
	hadPool  bool
	tenantID string
}

func (h *okHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	_, h.hadPool = authgate.PoolFromContext(r.Context())
	if claims, ok := authgate.ClaimsFromContext(r.Context()); ok {
		h.tenantID = claims.TenantID
	}
	w.WriteHeader(http.StatusOK)
}

const unauthorizedBody = `{"message":"Invalid token!","data":""}` + "\n"

func TestMiddleware_Bypass(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	t.Run("OPTIONS requests pass without header inspection", func(t *testing.T) {
		t.Parallel()

		handler := &okHandler{}
		mw := authgate.Middleware(codec, newFakeResolver(), &fakeSessions{})

		req := httptest.NewRequest(http.MethodOptions, "/api/address-book", nil)
		rec := httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, handler.called)
	})

	t.Run("bypass prefix passes without Authorization header", func(t *testing.T) {
		t.Parallel()

		handler := &okHandler{}
		mw := authgate.Middleware(codec, newFakeResolver(), &fakeSessions{},
			authgate.WithBypassPrefixes("/health", "/signup"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, handler.called)
	})

	t.Run("non-bypass path still requires a token", func(t *testing.T) {
		t.Parallel()

		handler := &okHandler{}
		mw := authgate.Middleware(codec, newFakeResolver(), &fakeSessions{},
			authgate.WithBypassPrefixes("/health"))

		req := httptest.NewRequest(http.MethodGet, "/api/address-book", nil)
		rec := httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, handler.called)
	})
}

func TestMiddleware_TokenExtraction(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic YWxpY2U6cGFzcw=="},
		{"bearer without token", "Bearer "},
		{"token without scheme", validTokenHeaderless},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			handler := &okHandler{}
			mw := authgate.Middleware(codec, newFakeResolver("acme"), &fakeSessions{valid: true})

			req := httptest.NewRequest(http.MethodGet, "/api/address-book", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			mw(handler).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, unauthorizedBody, rec.Body.String())
			assert.False(t, handler.called)
		})
	}

	t.Run("scheme match is case-insensitive", func(t *testing.T) {
		t.Parallel()

		handler := &okHandler{}
		mw := authgate.Middleware(codec, newFakeResolver("acme"), &fakeSessions{valid: true})

		req := httptest.NewRequest(http.MethodGet, "/api/address-book", nil)
		req.Header.Set("Authorization", "BEARER "+validToken(t, codec))
		rec := httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, handler.called)
	})
}

const validTokenHeaderless = "eyJ0eXAiOiJKV1QiLCJhbGciOiJIUzI1NiJ9.e30.sig"

func TestMiddleware_Rejections(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	t.Run("expired token yields the invariant 401 body", func(t *testing.T) {
		t.Parallel()

		expired, err := codec.Generate(token.Claims{
			User:         "alice",
			LoginSession: "0c8e3f74-9c60-4b3e-9a41-2ed51a0f1b6d",
			TenantID:     "acme",
			IssuedAt:     time.Now().Add(-2 * time.Hour).Unix(),
			ExpiresAt:    time.Now().Add(-time.Hour).Unix(),
		})
		require.NoError(t, err)

		handler := &okHandler{}
		mw := authgate.Middleware(codec, newFakeResolver("acme"), &fakeSessions{valid: true})

		req := httptest.NewRequest(http.MethodGet, "/api/address-book", nil)
		req.Header.Set("Authorization", "Bearer "+expired)
		rec := httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"message":"Invalid token!","data":""}`, rec.Body.String())
		assert.False(t, handler.called)
	})

	t.Run("garbage token", func(t *testing.T) {
		t.Parallel()

		handler := &okHandler{}
		mw := authgate.Middleware(codec, newFakeResolver("acme"), &fakeSessions{valid: true})

		req := httptest.NewRequest(http.MethodGet, "/api/address-book", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rec := httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, unauthorizedBody, rec.Body.String())
	})

	t.Run("unprovisioned tenant", func(t *testing.T) {
		t.Parallel()

		handler := &okHandler{}
		resolver := newFakeResolver() // no tenants provisioned
		mw := authgate.Middleware(codec, resolver, &fakeSessions{valid: true})

		req := httptest.NewRequest(http.MethodGet, "/api/address-book", nil)
		req.Header.Set("Authorization", "Bearer "+validToken(t, codec))
		rec := httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, unauthorizedBody, rec.Body.String())
		assert.Equal(t, 1, resolver.lookups())
		assert.False(t, handler.called)
	})

	t.Run("revoked session", func(t *testing.T) {
		t.Parallel()

		handler := &okHandler{}
		mw := authgate.Middleware(codec, newFakeResolver("acme"), &fakeSessions{valid: false})

		req := httptest.NewRequest(http.MethodGet, "/api/address-book", nil)
		req.Header.Set("Authorization", "Bearer "+validToken(t, codec))
		rec := httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, unauthorizedBody, rec.Body.String())
		assert.False(t, handler.called)
	})

	t.Run("all auth failures share one body", func(t *testing.T) {
		t.Parallel()

		mw := authgate.Middleware(codec, newFakeResolver(), &fakeSessions{})
		bodies := make(map[string]struct{})

		for _, header := range []string{"", "Bearer not.a.token", "Bearer " + validToken(t, codec)} {
			req := httptest.NewRequest(http.MethodGet, "/api/address-book", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			mw(&okHandler{}).ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			bodies[rec.Body.String()] = struct{}{}
		}

		assert.Len(t, bodies, 1, "rejection reason must not leak through the body")
	})
}

func TestMiddleware_InfrastructureFailure(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	t.Run("session query error returns 500, not 401", func(t *testing.T) {
		t.Parallel()

		handler := &okHandler{}
		mw := authgate.Middleware(codec, newFakeResolver("acme"),
			&fakeSessions{err: errors.New("connection reset by peer")})

		req := httptest.NewRequest(http.MethodGet, "/api/address-book", nil)
		req.Header.Set("Authorization", "Bearer "+validToken(t, codec))
		rec := httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.False(t, handler.called)
	})

	t.Run("session timeout returns 500, not 401", func(t *testing.T) {
		t.Parallel()

		handler := &okHandler{}
		mw := authgate.Middleware(codec, newFakeResolver("acme"),
			&fakeSessions{err: session.ErrTimeout})

		req := httptest.NewRequest(http.MethodGet, "/api/address-book", nil)
		req.Header.Set("Authorization", "Bearer "+validToken(t, codec))
		rec := httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestMiddleware_Authorized(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	handler := &okHandler{}
	mw := authgate.Middleware(codec, newFakeResolver("acme"), &fakeSessions{valid: true})

	req := httptest.NewRequest(http.MethodGet, "/api/address-book", nil)
	req.Header.Set("Authorization", "Bearer "+validToken(t, codec))
	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, handler.called)
	assert.True(t, handler.hadPool, "authorized requests must carry the tenant pool")
	assert.Equal(t, "acme", handler.tenantID)
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	t.Run("pool round-trip", func(t *testing.T) {
		t.Parallel()

		pool := &fakePool{}
		ctx := authgate.WithPool(context.Background(), pool)

		got, ok := authgate.PoolFromContext(ctx)
		require.True(t, ok)
		assert.Same(t, tenantpool.Pool(pool), got)
	})

	t.Run("MustPoolFromContext panics without a pool", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			authgate.MustPoolFromContext(context.Background())
		})
	})

	t.Run("claims round-trip", func(t *testing.T) {
		t.Parallel()

		claims := token.Claims{User: "alice", TenantID: "acme"}
		ctx := authgate.WithClaims(context.Background(), claims)

		got, ok := authgate.ClaimsFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, claims, got)
	})

	t.Run("logger extractor emits tenant id", func(t *testing.T) {
		t.Parallel()

		extract := authgate.LoggerExtractor()

		_, ok := extract(context.Background())
		assert.False(t, ok)

		ctx := authgate.WithClaims(context.Background(), token.Claims{TenantID: "acme"})
		attr, ok := extract(ctx)
		require.True(t, ok)
		assert.Equal(t, "tenant_id", attr.Key)
		assert.Equal(t, "acme", attr.Value.String())
	})
}
