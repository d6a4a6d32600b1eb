package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nvoss/brewid/internal/database/testutil"
	"github.com/nvoss/brewid/internal/models"
)

func newTestStore(t *testing.T) *GormUserStore {
	t.Helper()
	db := testutil.MustOpenTestDB(t)
	s, err := NewUserStore(db)
	require.NoError(t, err)
	return s
}

func seedUser(t *testing.T, s *GormUserStore, email string, verified bool, createdAt time.Time) *models.User {
	t.Helper()
	user := &models.User{
		Email:          email,
		HashedPassword: "x",
		IsVerified:     verified,
	}
	require.NoError(t, s.Insert(context.Background(), user))
	if !createdAt.IsZero() {
		require.NoError(t, s.db.Model(user).Update("created_at", createdAt).Error)
	}
	return user
}

func TestUserStoreFindByEmail(t *testing.T) {
	s := newTestStore(t)
	seeded := seedUser(t, s, "barista@example.com", true, time.Time{})

	found, err := s.FindByEmail(context.Background(), "barista@example.com")
	require.NoError(t, err)
	require.Equal(t, seeded.ID, found.ID)

	_, err = s.FindByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserStoreFindByID(t *testing.T) {
	s := newTestStore(t)
	seeded := seedUser(t, s, "roaster@example.com", false, time.Time{})

	found, err := s.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, "roaster@example.com", found.Email)

	_, err = s.FindByID(context.Background(), seeded.ID+100)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserStorePatch(t *testing.T) {
	s := newTestStore(t)
	seeded := seedUser(t, s, "patch@example.com", false, time.Time{})

	err := s.Patch(context.Background(), seeded.ID, map[string]any{"first_name": "Ada"})
	require.NoError(t, err)

	found, err := s.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, found.FirstName)
	require.Equal(t, "Ada", *found.FirstName)

	err = s.Patch(context.Background(), seeded.ID+100, map[string]any{"first_name": "Ada"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserStorePatchWhereGuard(t *testing.T) {
	s := newTestStore(t)
	seeded := seedUser(t, s, "guard@example.com", false, time.Time{})

	// Guarded transition applies when the condition holds.
	affected, err := s.PatchWhere(context.Background(), seeded.ID,
		map[string]any{"is_verified": true}, "is_verified = ?", false)
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	// And is a no-op when it no longer does.
	affected, err = s.PatchWhere(context.Background(), seeded.ID,
		map[string]any{"is_verified": true}, "is_verified = ?", false)
	require.NoError(t, err)
	require.EqualValues(t, 0, affected)
}

func TestUserStoreDeleteByIDs(t *testing.T) {
	s := newTestStore(t)
	a := seedUser(t, s, "a@example.com", false, time.Time{})
	b := seedUser(t, s, "b@example.com", false, time.Time{})
	c := seedUser(t, s, "c@example.com", true, time.Time{})

	deleted, err := s.DeleteByIDs(context.Background(), []uint{a.ID, b.ID})
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	deleted, err = s.DeleteByIDs(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, deleted)

	remaining, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, c.ID, remaining[0].ID)
}

func TestUserStoreFindUnverifiedBefore(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()
	old := seedUser(t, s, "old@example.com", false, now.Add(-72*time.Hour))
	seedUser(t, s, "fresh@example.com", false, now.Add(-time.Hour))
	seedUser(t, s, "verified@example.com", true, now.Add(-72*time.Hour))

	stale, err := s.FindUnverifiedBefore(context.Background(), now.Add(-48*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	require.Equal(t, old.ID, stale[0].ID)
}
