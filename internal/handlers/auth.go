package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nvoss/brewid/internal/middleware"
	"github.com/nvoss/brewid/internal/services"
	"github.com/nvoss/brewid/pkg/errors"
	"github.com/nvoss/brewid/pkg/response"
)

const defaultPasswordMinLength = 8

// AuthHandler manages the signup, verification and session flows.
type AuthHandler struct {
	registration *services.RegistrationService
	sessions     *services.SessionService
	passwordMin  int
}

func NewAuthHandler(registration *services.RegistrationService, sessions *services.SessionService, passwordMin int) *AuthHandler {
	if passwordMin <= 0 {
		passwordMin = defaultPasswordMinLength
	}
	return &AuthHandler{registration: registration, sessions: sessions, passwordMin: passwordMin}
}

type signupRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required"`
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if len(req.Password) < h.passwordMin {
		response.Error(c, errors.NewBadRequest(fmt.Sprintf("password must be at least %d characters", h.passwordMin)))
		return
	}

	user, err := h.registration.Register(requestContext(c), services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// A fresh pair lets the client act immediately while verification is pending.
	pair, err := h.sessions.IssuePair(user.ID)
	if err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user":   user,
		"tokens": pair,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, pair, err := h.sessions.Login(requestContext(c), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":   user,
		"tokens": pair,
	})
}

type verifyRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// POST /api/auth/verify (authenticated)
func (h *AuthHandler) Verify(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req verifyRequest
	if !bindAndValidate(c, &req) {
		return
	}

	verified, err := h.registration.VerifyCode(requestContext(c), user, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Email verified successfully",
		"email":   verified.Email,
	})
}

// POST /api/auth/resend-verification (authenticated)
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	expiresAt, err := h.registration.ResendCode(requestContext(c), user)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":    "Verification code sent",
		"email":      user.Email,
		"expires_at": expiresAt,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		response.Error(c, errors.NewBadRequest("refresh token is required"))
		return
	}

	pair, err := h.sessions.Refresh(requestContext(c), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, pair)
}
