package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAccessTokenTTL defines the fallback validity period for access tokens.
	DefaultAccessTokenTTL = 30 * time.Minute
	// DefaultRefreshTokenTTL defines the fallback validity period for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	// TokenKindRefresh marks refresh tokens. Access tokens carry no kind claim.
	TokenKindRefresh = "refresh"
)

// ErrInvalidToken covers every decode failure: bad signature, malformed
// structure, expired claims, or a kind mismatch. Callers map it to an
// authentication failure without distinguishing the cause.
var ErrInvalidToken = errors.New("token: invalid or expired")

// JWTConfig bundles the configuration required to build a TokenService.
type JWTConfig struct {
	Secret          string
	Algorithm       string // HS256 (default), HS384 or HS512
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Clock           func() time.Time
}

// Claims represents the payload embedded in issued JWTs. The Kind claim
// distinguishes refresh tokens from access tokens; expiry alone never does.
type Claims struct {
	Kind string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// IsRefresh reports whether the claims belong to a refresh token.
func (c *Claims) IsRefresh() bool {
	return c.Kind == TokenKindRefresh
}

// SubjectID parses the numeric account id out of the subject claim.
func (c *Claims) SubjectID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, c.Subject)
	}
	return uint(id), nil
}

// TokenPair is the transient artifact handed to clients after signup, login
// and refresh. Old refresh tokens are not revoked on rotation; they stay
// cryptographically valid until natural expiry.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// TokenService issues and validates the signed bearer tokens.
type TokenService struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService constructs a TokenService from the provided configuration.
func NewTokenService(cfg JWTConfig) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token: secret must be provided")
	}

	alg := cfg.Algorithm
	if alg == "" {
		alg = "HS256"
	}
	method := jwt.GetSigningMethod(alg)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("token: unsupported signing algorithm %q", alg)
	}

	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &TokenService{
		secret:     []byte(cfg.Secret),
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        now,
	}, nil
}

// IssueAccessToken signs a short-lived token identifying the account.
func (s *TokenService) IssueAccessToken(userID uint) (string, error) {
	return s.issue(userID, "", s.accessTTL)
}

// IssueRefreshToken signs a long-lived token carrying the refresh kind marker.
func (s *TokenService) IssueRefreshToken(userID uint) (string, error) {
	return s.issue(userID, TokenKindRefresh, s.refreshTTL)
}

// IssuePair mints a fresh access/refresh token pair for the account.
func (s *TokenService) IssuePair(userID uint) (TokenPair, error) {
	access, err := s.IssueAccessToken(userID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.IssueRefreshToken(userID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

func (s *TokenService) issue(userID uint, kind string, ttl time.Duration) (string, error) {
	now := s.now().UTC()

	claims := &Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(s.method, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}

	return signed, nil
}

// Decode parses and validates a signed token, returning its claims. All
// failures collapse into ErrInvalidToken.
func (s *TokenService) Decode(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject claim", ErrInvalidToken)
	}

	return &claims, nil
}

// DecodeAccess validates an access token, rejecting refresh tokens presented
// where an access token is expected.
func (s *TokenService) DecodeAccess(tokenString string) (*Claims, error) {
	claims, err := s.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.IsRefresh() {
		return nil, fmt.Errorf("%w: refresh token used as access token", ErrInvalidToken)
	}
	return claims, nil
}

// DecodeRefresh validates a refresh token, rejecting any token without the
// refresh kind marker.
func (s *TokenService) DecodeRefresh(tokenString string) (*Claims, error) {
	claims, err := s.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefresh() {
		return nil, fmt.Errorf("%w: token is not a refresh token", ErrInvalidToken)
	}
	return claims, nil
}
