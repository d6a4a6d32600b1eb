package services

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/nvoss/brewid/pkg/errors"
)

var (
	// ErrDuplicateEmail signals that the email address is already registered.
	ErrDuplicateEmail = apperrors.New("EMAIL_EXISTS", "Email already registered", 400)
	// ErrUserNotFound indicates the account does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", 404)
	// ErrAlreadyVerified signals the account has already completed verification.
	ErrAlreadyVerified = apperrors.New("ALREADY_VERIFIED", "Account is already verified", 400)
	// ErrNoCodeIssued indicates no verification code is outstanding for the account.
	ErrNoCodeIssued = apperrors.New("NO_CODE_ISSUED", "No verification code has been issued", 400)
	// ErrCodeExpired indicates the verification code is past its expiry.
	ErrCodeExpired = apperrors.New("CODE_EXPIRED", "Verification code has expired", 400)
	// ErrInvalidCode indicates the submitted code does not match the issued one.
	ErrInvalidCode = apperrors.New("INVALID_CODE", "Invalid verification code", 400)
	// ErrEmptyUpdate rejects a patch that carries no fields.
	ErrEmptyUpdate = apperrors.New("EMPTY_UPDATE", "No fields to update", 400)
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") ||
		strings.Contains(lower, "duplicate") ||
		strings.Contains(lower, "constraint")
}
