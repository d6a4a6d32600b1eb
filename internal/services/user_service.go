package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nvoss/brewid/internal/models"
	"github.com/nvoss/brewid/internal/store"
	"github.com/nvoss/brewid/pkg/crypto"
	apperrors "github.com/nvoss/brewid/pkg/errors"
)

// UserService exposes the admin-facing account management operations.
type UserService struct {
	users  store.UserStore
	hasher *crypto.Hasher
}

// NewUserService wires the user service.
func NewUserService(users store.UserStore, hasher *crypto.Hasher) (*UserService, error) {
	if users == nil {
		return nil, errors.New("user service: user store is required")
	}
	if hasher == nil {
		return nil, errors.New("user service: hasher is required")
	}
	return &UserService{users: users, hasher: hasher}, nil
}

// List returns every account ordered by id.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("user service: list: %w", err)
	}
	return users, nil
}

// GetByID fetches a single account.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: find user: %w", err)
	}
	return user, nil
}

// UpdateInput carries the optional fields of a partial account update. Nil
// means "leave unchanged".
type UpdateInput struct {
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
}

func (in UpdateInput) empty() bool {
	return in.Email == nil && in.Password == nil && in.FirstName == nil && in.LastName == nil
}

// Update applies a partial update to the account. A patch with no fields is
// rejected, and a changed email must remain unique.
func (s *UserService) Update(ctx context.Context, id uint, input UpdateInput) (*models.User, error) {
	if input.empty() {
		return nil, ErrEmptyUpdate
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Email != nil {
		if *input.Email != user.Email {
			fields["email"] = *input.Email
		}
	}
	if input.Password != nil {
		hashed, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("user service: hash password: %w", err)
		}
		fields["hashed_password"] = hashed
	}
	if input.FirstName != nil {
		fields["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		fields["last_name"] = *input.LastName
	}

	if len(fields) > 0 {
		if err := s.users.Patch(ctx, id, fields); err != nil {
			if isUniqueConstraintError(err) {
				return nil, ErrDuplicateEmail
			}
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("user service: update: %w", err)
		}
	}

	return s.GetByID(ctx, id)
}

// Delete removes the account.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if _, err := s.users.DeleteByIDs(ctx, []uint{id}); err != nil {
		return fmt.Errorf("user service: delete: %w", err)
	}
	return nil
}

// SetRole changes the account's role.
func (s *UserService) SetRole(ctx context.Context, id uint, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewBadRequest("Invalid role")
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.users.Patch(ctx, id, map[string]any{"role": role}); err != nil {
		return nil, fmt.Errorf("user service: set role: %w", err)
	}
	return s.GetByID(ctx, id)
}
