package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/nvoss/brewid/internal/models"
)

// ErrNotFound indicates the requested account does not exist.
var ErrNotFound = errors.New("store: user not found")

// UserStore is the narrow read/write contract the engines need against the
// user table. Engines never touch gorm directly; they operate through this
// gateway so the persistence engine stays an external collaborator.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	Insert(ctx context.Context, user *models.User) error
	// Patch applies a partial field update to the account with the given id.
	// The optional conds narrow the update further (guarded transitions).
	Patch(ctx context.Context, id uint, fields map[string]any) error
	PatchWhere(ctx context.Context, id uint, fields map[string]any, query string, args ...any) (int64, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
	List(ctx context.Context) ([]models.User, error)
	FindUnverifiedBefore(ctx context.Context, cutoff time.Time) ([]models.User, error)
}

// GormUserStore implements UserStore on a gorm handle.
type GormUserStore struct {
	db *gorm.DB
}

// NewUserStore wraps the database handle in the gateway.
func NewUserStore(db *gorm.DB) (*GormUserStore, error) {
	if db == nil {
		return nil, errors.New("store: db is required")
	}
	return &GormUserStore{db: db}, nil
}

func (s *GormUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: find by email: %w", err)
	}
	return &user, nil
}

func (s *GormUserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: find by id: %w", err)
	}
	return &user, nil
}

func (s *GormUserStore) Insert(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("store: insert user: %w", err)
	}
	return nil
}

func (s *GormUserStore) Patch(ctx context.Context, id uint, fields map[string]any) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("store: patch user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormUserStore) PatchWhere(ctx context.Context, id uint, fields map[string]any, query string, args ...any) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Where(query, args...).
		Updates(fields)
	if result.Error != nil {
		return 0, fmt.Errorf("store: patch user: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormUserStore) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Delete(&models.User{}, "id IN ?", ids)
	if result.Error != nil {
		return 0, fmt.Errorf("store: delete users: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormUserStore) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("store: list users: %w", err)
	}
	return users, nil
}

func (s *GormUserStore) FindUnverifiedBefore(ctx context.Context, cutoff time.Time) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("is_verified = ? AND created_at < ?", false, cutoff).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("store: find unverified: %w", err)
	}
	return users, nil
}
