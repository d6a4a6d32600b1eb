package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	iauth "github.com/nvoss/brewid/internal/auth"
	"github.com/nvoss/brewid/internal/handlers"
	"github.com/nvoss/brewid/internal/middleware"
	"github.com/nvoss/brewid/internal/services"
	"github.com/nvoss/brewid/internal/store"
)

// Services bundles the engines the router exposes.
type Services struct {
	Users        store.UserStore
	Tokens       *iauth.TokenService
	Registration *services.RegistrationService
	Sessions     *services.SessionService
	Accounts     *services.UserService

	PasswordMinLength int
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(svc Services) (*gin.Engine, error) {
	if svc.Users == nil {
		return nil, fmt.Errorf("user store must be provided")
	}
	if svc.Tokens == nil {
		return nil, fmt.Errorf("token service must be provided")
	}
	if svc.Registration == nil || svc.Sessions == nil || svc.Accounts == nil {
		return nil, fmt.Errorf("all services must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())

	// Health endpoint (public)
	r.GET("/health", handlers.Health())

	authHandler := handlers.NewAuthHandler(svc.Registration, svc.Sessions, svc.PasswordMinLength)
	userHandler := handlers.NewUserHandler(svc.Accounts)

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Protected routes
	requireAuth := middleware.Auth(svc.Tokens, svc.Users)

	api := r.Group("/api")
	api.Use(requireAuth)

	// Verification acts on the authenticated account, never on an email from
	// the request body.
	api.POST("/auth/verify", authHandler.Verify)
	api.POST("/auth/resend-verification", authHandler.ResendVerification)

	api.GET("/users/me", userHandler.Me)

	// Admin-only account management
	admin := api.Group("/users")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("", userHandler.List)
		admin.GET("/:id", userHandler.Get)
		admin.PATCH("/:id", userHandler.Update)
		admin.DELETE("/:id", userHandler.Delete)
		admin.PATCH("/:id/role", userHandler.SetRole)
	}

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Fallback for unknown routes
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
