package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nvoss/brewid/internal/auth"
	"github.com/nvoss/brewid/internal/models"
	"github.com/nvoss/brewid/internal/store"
	"github.com/nvoss/brewid/pkg/crypto"
	apperrors "github.com/nvoss/brewid/pkg/errors"
	"github.com/nvoss/brewid/pkg/metrics"
)

// SessionService authenticates credentials and rotates token pairs.
type SessionService struct {
	users  store.UserStore
	hasher *crypto.Hasher
	tokens *auth.TokenService
}

// NewSessionService wires the session service.
func NewSessionService(users store.UserStore, hasher *crypto.Hasher, tokens *auth.TokenService) (*SessionService, error) {
	if users == nil {
		return nil, errors.New("session service: user store is required")
	}
	if hasher == nil {
		return nil, errors.New("session service: hasher is required")
	}
	if tokens == nil {
		return nil, errors.New("session service: token service is required")
	}
	return &SessionService{users: users, hasher: hasher, tokens: tokens}, nil
}

// Login checks the credentials and issues a fresh token pair. Unknown email
// and wrong password return the same error so the response never reveals
// whether an account exists.
func (s *SessionService) Login(ctx context.Context, email, password string) (*models.User, auth.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, auth.TokenPair{}, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("session service: find user: %w", err)
	}

	if !s.hasher.Verify(password, user.HashedPassword) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, auth.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("session service: issue tokens: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return user, pair, nil
}

// IssuePair mints a token pair for an already-authenticated account, as after
// a successful signup.
func (s *SessionService) IssuePair(userID uint) (auth.TokenPair, error) {
	return s.tokens.IssuePair(userID)
}

// Refresh validates a refresh token and rotates it into a new token pair.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	claims, err := s.tokens.DecodeRefresh(refreshToken)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return auth.TokenPair{}, apperrors.ErrInvalidToken
	}

	userID, err := claims.SubjectID()
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return auth.TokenPair{}, apperrors.ErrInvalidToken
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		if errors.Is(err, store.ErrNotFound) {
			return auth.TokenPair{}, ErrUserNotFound
		}
		return auth.TokenPair{}, fmt.Errorf("session service: find user: %w", err)
	}

	pair, err := s.tokens.IssuePair(userID)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return auth.TokenPair{}, fmt.Errorf("session service: issue tokens: %w", err)
	}

	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	return pair, nil
}
