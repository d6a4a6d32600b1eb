package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	iauth "github.com/nvoss/brewid/internal/auth"
	"github.com/nvoss/brewid/internal/database/testutil"
	"github.com/nvoss/brewid/internal/services"
	"github.com/nvoss/brewid/internal/store"
	"github.com/nvoss/brewid/pkg/crypto"
)

func newRouterEnv(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users, err := store.NewUserStore(testutil.MustOpenTestDB(t))
	require.NoError(t, err)

	hasher := crypto.NewHasher(bcrypt.MinCost)
	tokens, err := iauth.NewTokenService(iauth.JWTConfig{Secret: "router-test-secret"})
	require.NoError(t, err)

	registration, err := services.NewRegistrationService(users, hasher, nil)
	require.NoError(t, err)
	sessions, err := services.NewSessionService(users, hasher, tokens)
	require.NoError(t, err)
	accounts, err := services.NewUserService(users, hasher)
	require.NoError(t, err)

	router, err := NewRouter(Services{
		Users:        users,
		Tokens:       tokens,
		Registration: registration,
		Sessions:     sessions,
		Accounts:     accounts,
	})
	require.NoError(t, err)
	return router
}

func TestRouterPublicAndProtectedRoutes(t *testing.T) {
	router := newRouterEnv(t)

	// Health should be public
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Protected endpoints without auth should be 401
	protected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/users/me"},
		{http.MethodGet, "/api/users"},
		{http.MethodPost, "/api/auth/verify"},
		{http.MethodPost, "/api/auth/resend-verification"},
	}
	for _, route := range protected {
		w = httptest.NewRecorder()
		req = httptest.NewRequest(route.method, route.path, nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}

	// Signup is public and drives the full flow
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"email":"router@example.com","password":"espresso123"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newRouterEnv(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newRouterEnv(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterRequiresDependencies(t *testing.T) {
	_, err := NewRouter(Services{})
	require.Error(t, err)
}
