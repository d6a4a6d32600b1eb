package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nvoss/brewid/internal/app"
)

func testConfig() *app.Config {
	return &app.Config{
		Server: app.ServerConfig{Port: 0, LogLevel: "error"},
		Database: app.DatabaseConfig{
			Driver: "sqlite",
			DSN:    "file::memory:?cache=shared&_foreign_keys=1",
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret:          "bootstrap-test-secret",
				AccessTokenTTL:  30 * time.Minute,
				RefreshTokenTTL: 168 * time.Hour,
			},
			Verification:      app.VerificationSettings{CodeTTL: 24 * time.Hour},
			PasswordMinLength: 8,
			BcryptCost:        4,
		},
		Cleanup: app.CleanupConfig{Enabled: true, RetentionDays: 2, Schedule: "0 3 * * *"},
	}
}

func TestBootstrapRuntime(t *testing.T) {
	cfg := testConfig()

	stack, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), zap.NewNop()) })

	require.NotNil(t, stack.DB)
	require.NotNil(t, stack.Users)
	require.NotNil(t, stack.Tokens)
	require.NotNil(t, stack.Cleaner)
	require.NotNil(t, stack.Router)
}

func TestBootstrapRuntimeCleanupDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Cleanup.Enabled = false

	stack, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), zap.NewNop()) })

	require.Nil(t, stack.Cleaner)
	require.NotNil(t, stack.Router)
}

func TestBootstrapRuntimeBadSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Cleanup.Schedule = "nonsense"

	_, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}

func TestLoadApplicationConfigMissingPath(t *testing.T) {
	_, err := loadApplicationConfig("/does/not/exist")
	require.Error(t, err)
}
