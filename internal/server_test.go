package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ayooluwabami/Blogging-API/internal/auth"
	"github.com/Ayooluwabami/Blogging-API/internal/config"
	"github.com/Ayooluwabami/Blogging-API/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer builds a server without a db pool or redis; only routes that
// never reach the store can be exercised with it.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	tokenService, err := auth.NewTokenService("server-test-secret", auth.DefaultTTL)
	require.NoError(t, err)
	metricsManager, registry := metrics.NewTestManagerAndRegistry()

	return &Server{
		config: &config.Config{
			AllowedOrigins: []string{"http://allowed.example"},
		},
		tokenService:   tokenService,
		metricsManager: metricsManager,
		promRegistry:   registry,
		otelShutdown:   func() {},
	}
}

func TestServer_routerSetup_Routes(t *testing.T) {
	r := newTestServer(t).routerSetup()

	for _, route := range []struct {
		name   string
		path   string
		method string
	}{
		{name: "root", path: "/", method: "GET"},
		{name: "signup", path: "/api/users/signup", method: "POST"},
		{name: "signin", path: "/api/users/signin", method: "POST"},
		{name: "protected-route", path: "/api/users/protected-route", method: "GET"},
		{name: "list-blogs", path: "/api/blogs", method: "GET"},
		{name: "my-blogs", path: "/api/blogs/my-blogs", method: "GET"},
		{name: "get-blog", path: "/api/blogs/abc", method: "GET"},
		{name: "create-blog", path: "/api/blogs", method: "POST"},
		{name: "update-blog", path: "/api/blogs/abc", method: "PUT"},
		{name: "delete-blog", path: "/api/blogs/abc", method: "DELETE"},
	} {
		t.Run(route.name, func(t *testing.T) {
			req, err := http.NewRequest(route.method, route.path, nil)
			require.NoError(t, err)
			muxRoute := r.Get(route.name)
			require.NotNil(t, muxRoute)
			assert.True(t, muxRoute.Match(req, &mux.RouteMatch{}))
		})
	}
}

func TestServer_handler(t *testing.T) {
	h := newTestServer(t).handler()

	serve := func(method, path string, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	t.Run("hello world", func(t *testing.T) {
		rr := serve("GET", "/", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Hello, world!", rr.Body.String())
	})

	t.Run("unknown route", func(t *testing.T) {
		rr := serve("GET", "/api/nothing/here", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"message":"Not found"}`, rr.Body.String())
	})

	t.Run("gated route without token", func(t *testing.T) {
		rr := serve("GET", "/api/users/protected-route", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"message":"Authentication token required"}`, rr.Body.String())
	})

	t.Run("protected route with token", func(t *testing.T) {
		s := newTestServer(t)
		token, err := s.tokenService.Issue("6f1c3a52-8a1e-4c39-9d6e-0c8f5e4f2a11")
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/users/protected-route", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		s.handler().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"Access granted!"`)
	})

	t.Run("preflight from allowed origin", func(t *testing.T) {
		rr := serve("OPTIONS", "/api/blogs", map[string]string{"Origin": "http://allowed.example"})
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "http://allowed.example", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("foreign origin", func(t *testing.T) {
		rr := serve("GET", "/", map[string]string{"Origin": "http://evil.example"})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}
