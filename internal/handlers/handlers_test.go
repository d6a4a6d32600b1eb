package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	iauth "github.com/nvoss/brewid/internal/auth"
	"github.com/nvoss/brewid/internal/database/testutil"
	"github.com/nvoss/brewid/internal/middleware"
	"github.com/nvoss/brewid/internal/models"
	"github.com/nvoss/brewid/internal/services"
	"github.com/nvoss/brewid/internal/store"
	"github.com/nvoss/brewid/pkg/crypto"
	"github.com/nvoss/brewid/pkg/mail"
	"github.com/nvoss/brewid/pkg/response"
)

var testCodePattern = regexp.MustCompile(`\b(\d{6})\b`)

type recordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *recordingMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.messages)
	match := testCodePattern.FindStringSubmatch(m.messages[len(m.messages)-1].Body)
	require.Len(t, match, 2)
	return match[1]
}

// testEnv wires the full handler stack over an in-memory database.
type testEnv struct {
	router *gin.Engine
	users  store.UserStore
	tokens *iauth.TokenService
	mailer *recordingMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userStore, err := store.NewUserStore(testutil.MustOpenTestDB(t))
	require.NoError(t, err)

	hasher := crypto.NewHasher(bcrypt.MinCost)
	tokens, err := iauth.NewTokenService(iauth.JWTConfig{Secret: "handler-test-secret"})
	require.NoError(t, err)

	mailer := &recordingMailer{}
	registration, err := services.NewRegistrationService(userStore, hasher, mailer)
	require.NoError(t, err)
	sessions, err := services.NewSessionService(userStore, hasher, tokens)
	require.NoError(t, err)
	userService, err := services.NewUserService(userStore, hasher)
	require.NoError(t, err)

	authHandler := NewAuthHandler(registration, sessions, 8)
	userHandler := NewUserHandler(userService)

	r := gin.New()
	requireAuth := middleware.Auth(tokens, userStore)

	api := r.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/verify", requireAuth, authHandler.Verify)
	auth.POST("/resend-verification", requireAuth, authHandler.ResendVerification)

	users := api.Group("/users")
	users.Use(requireAuth)
	users.GET("/me", userHandler.Me)
	admin := users.Group("")
	admin.Use(middleware.RequireAdmin())
	admin.GET("", userHandler.List)
	admin.GET("/:id", userHandler.Get)
	admin.PATCH("/:id", userHandler.Update)
	admin.DELETE("/:id", userHandler.Delete)
	admin.PATCH("/:id/role", userHandler.SetRole)

	return &testEnv{router: r, users: userStore, tokens: tokens, mailer: mailer}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var payload response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func (e *testEnv) seedAdmin(t *testing.T) (string, *models.User) {
	t.Helper()
	hashed, err := crypto.NewHasher(bcrypt.MinCost).Hash("admin-secret")
	require.NoError(t, err)
	admin := &models.User{
		Email:          "admin@example.com",
		HashedPassword: hashed,
		Role:           models.RoleAdmin,
		IsVerified:     true,
	}
	require.NoError(t, e.users.Insert(context.Background(), admin))

	token, err := e.tokens.IssueAccessToken(admin.ID)
	require.NoError(t, err)
	return token, admin
}

func (e *testEnv) signup(t *testing.T, email, password string) map[string]any {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/signup", gin.H{"email": email, "password": password}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	payload := decodeResponse(t, w)
	data, ok := payload.Data.(map[string]any)
	require.True(t, ok)
	return data
}
