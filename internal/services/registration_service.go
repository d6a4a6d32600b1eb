package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nvoss/brewid/internal/models"
	"github.com/nvoss/brewid/internal/store"
	"github.com/nvoss/brewid/pkg/crypto"
	"github.com/nvoss/brewid/pkg/logger"
	"github.com/nvoss/brewid/pkg/mail"
	"github.com/nvoss/brewid/pkg/metrics"
)

const defaultCodeTTL = 24 * time.Hour

// RegistrationOption customises the RegistrationService.
type RegistrationOption func(*RegistrationService)

// WithCodeTTL overrides the verification code lifetime.
func WithCodeTTL(d time.Duration) RegistrationOption {
	return func(s *RegistrationService) {
		if d > 0 {
			s.codeTTL = d
		}
	}
}

// WithRegistrationClock injects a custom time source.
func WithRegistrationClock(clock func() time.Time) RegistrationOption {
	return func(s *RegistrationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// RegistrationService handles account creation and the email verification flow.
type RegistrationService struct {
	users   store.UserStore
	hasher  *crypto.Hasher
	mailer  mail.Mailer
	codeTTL time.Duration
	now     func() time.Time
	log     *zap.Logger
}

// NewRegistrationService constructs a registration service with the provided dependencies.
func NewRegistrationService(users store.UserStore, hasher *crypto.Hasher, mailer mail.Mailer, opts ...RegistrationOption) (*RegistrationService, error) {
	if users == nil {
		return nil, errors.New("registration service: user store is required")
	}
	if hasher == nil {
		return nil, errors.New("registration service: hasher is required")
	}

	service := &RegistrationService{
		users:   users,
		hasher:  hasher,
		mailer:  mailer,
		codeTTL: defaultCodeTTL,
		now:     time.Now,
		log:     logger.WithModule("services.registration"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// RegisterInput carries the fields accepted at signup.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName *string
	LastName  *string
}

// Register creates an unverified account, issues a verification code and
// dispatches it by email. The caller is expected to have validated the input.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	// Emails are stored exactly as submitted; uniqueness is case-sensitive.
	email := input.Email

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		metrics.Signups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("registration service: hash password: %w", err)
	}

	code, err := crypto.NewVerificationCode()
	if err != nil {
		metrics.Signups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("registration service: generate code: %w", err)
	}
	codeHash, err := s.hasher.Hash(code)
	if err != nil {
		metrics.Signups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("registration service: hash code: %w", err)
	}

	expiresAt := s.now().Add(s.codeTTL)
	user := &models.User{
		Email:                     email,
		HashedPassword:            hashed,
		FirstName:                 input.FirstName,
		LastName:                  input.LastName,
		Role:                      models.RoleUser,
		VerificationCodeHash:      &codeHash,
		VerificationCodeExpiresAt: &expiresAt,
	}

	if err := s.users.Insert(ctx, user); err != nil {
		if isUniqueConstraintError(err) {
			metrics.Signups.WithLabelValues("duplicate").Inc()
			return nil, ErrDuplicateEmail
		}
		metrics.Signups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("registration service: create user: %w", err)
	}

	s.deliverCode(ctx, email, code)
	metrics.Signups.WithLabelValues("success").Inc()
	return user, nil
}

// VerifyCode confirms the given account using the submitted code. The caller
// authenticates the account first; the code never selects it.
// Check order matters: already-verified wins over a missing or stale code.
func (s *RegistrationService) VerifyCode(ctx context.Context, user *models.User, code string) (*models.User, error) {
	if user == nil {
		return nil, errors.New("registration service: user is required")
	}
	if user.IsVerified {
		return nil, ErrAlreadyVerified
	}
	if user.VerificationCodeHash == nil || user.VerificationCodeExpiresAt == nil {
		return nil, ErrNoCodeIssued
	}
	if user.VerificationCodeExpiresAt.Before(s.now()) {
		return nil, ErrCodeExpired
	}
	if !s.hasher.Verify(strings.TrimSpace(code), *user.VerificationCodeHash) {
		return nil, ErrInvalidCode
	}

	// Guard the transition so a concurrent verification cannot apply twice.
	affected, err := s.users.PatchWhere(ctx, user.ID, map[string]any{
		"is_verified":                  true,
		"verification_code_hash":       nil,
		"verification_code_expires_at": nil,
	}, "is_verified = ?", false)
	if err != nil {
		return nil, fmt.Errorf("registration service: mark verified: %w", err)
	}
	if affected == 0 {
		return nil, ErrAlreadyVerified
	}

	user.IsVerified = true
	user.VerificationCodeHash = nil
	user.VerificationCodeExpiresAt = nil
	return user, nil
}

// ResendCode replaces any outstanding verification code on the given account
// with a fresh one and returns the new expiry.
func (s *RegistrationService) ResendCode(ctx context.Context, user *models.User) (time.Time, error) {
	if user == nil {
		return time.Time{}, errors.New("registration service: user is required")
	}
	if user.IsVerified {
		return time.Time{}, ErrAlreadyVerified
	}

	code, err := crypto.NewVerificationCode()
	if err != nil {
		return time.Time{}, fmt.Errorf("registration service: generate code: %w", err)
	}
	codeHash, err := s.hasher.Hash(code)
	if err != nil {
		return time.Time{}, fmt.Errorf("registration service: hash code: %w", err)
	}

	expiresAt := s.now().Add(s.codeTTL)
	err = s.users.Patch(ctx, user.ID, map[string]any{
		"verification_code_hash":       codeHash,
		"verification_code_expires_at": expiresAt,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("registration service: store code: %w", err)
	}

	s.deliverCode(ctx, user.Email, code)
	return expiresAt, nil
}

// deliverCode sends the verification email. When SMTP is disabled the code is
// logged instead so local development keeps a way to complete the flow.
func (s *RegistrationService) deliverCode(ctx context.Context, email, code string) {
	if s.mailer == nil {
		s.log.Info("verification code issued (smtp disabled)",
			zap.String("email", email), zap.String("code", code))
		return
	}

	message := mail.Message{
		To:      []string{email},
		Subject: "Your BrewID verification code",
		Body: fmt.Sprintf("Welcome to BrewID!\n\nYour verification code is: %s\n\nThe code expires in %s. If you did not create an account, you can ignore this message.\n",
			code, s.codeTTL),
	}
	if err := s.mailer.Send(ctx, message); err != nil {
		if errors.Is(err, mail.ErrSMTPDisabled) {
			s.log.Info("verification code issued (smtp disabled)",
				zap.String("email", email), zap.String("code", code))
			return
		}
		// Delivery failures do not fail the signup; the code can be resent.
		s.log.Error("send verification email", zap.String("email", email), zap.Error(err))
	}
}
