package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nvoss/brewid/internal/api"
	"github.com/nvoss/brewid/internal/app"
	"github.com/nvoss/brewid/internal/app/maintenance"
	iauth "github.com/nvoss/brewid/internal/auth"
	"github.com/nvoss/brewid/internal/database"
	"github.com/nvoss/brewid/internal/services"
	"github.com/nvoss/brewid/internal/store"
	"github.com/nvoss/brewid/pkg/crypto"
	"github.com/nvoss/brewid/pkg/mail"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB      *gorm.DB
	Users   store.UserStore
	Tokens  *iauth.TokenService
	Cleaner *maintenance.Cleaner
	Router  *gin.Engine
}

// bootstrapRuntime initialises the database, services, and the HTTP router.
func bootstrapRuntime(_ context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	stack.Users, err = store.NewUserStore(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise user store: %w", err)
	}

	stack.Tokens, err = iauth.NewTokenService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise token service: %w", err)
	}

	hasher := crypto.NewHasher(cfg.Auth.BcryptCost)

	var mailer mail.Mailer
	if cfg.Email.SMTP.Enabled {
		mailer, err = mail.NewSMTPMailer(cfg.Email.SMTPSettings())
		if err != nil {
			return nil, fmt.Errorf("initialise mailer: %w", err)
		}
		log.Info("smtp mailer enabled", zap.String("host", cfg.Email.SMTP.Host))
	} else {
		log.Info("smtp disabled; verification codes will be logged")
	}

	registration, err := services.NewRegistrationService(stack.Users, hasher, mailer,
		services.WithCodeTTL(cfg.Auth.Verification.CodeTTL))
	if err != nil {
		return nil, fmt.Errorf("initialise registration service: %w", err)
	}

	sessions, err := services.NewSessionService(stack.Users, hasher, stack.Tokens)
	if err != nil {
		return nil, fmt.Errorf("initialise session service: %w", err)
	}

	accounts, err := services.NewUserService(stack.Users, hasher)
	if err != nil {
		return nil, fmt.Errorf("initialise user service: %w", err)
	}

	if cfg.Cleanup.Enabled {
		stack.Cleaner, err = maintenance.NewCleaner(stack.Users,
			maintenance.WithRetentionDays(cfg.Cleanup.RetentionDays),
			maintenance.WithSchedule(cfg.Cleanup.Schedule))
		if err != nil {
			return nil, fmt.Errorf("initialise cleaner: %w", err)
		}
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Router, err = api.NewRouter(api.Services{
		Users:             stack.Users,
		Tokens:            stack.Tokens,
		Registration:      registration,
		Sessions:          sessions,
		Accounts:          accounts,
		PasswordMinLength: cfg.Auth.PasswordMinLength,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			ctx = stopCtx
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.Database.DatabaseSettings())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("database handle", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("database close", zap.Error(err))
	}
}
