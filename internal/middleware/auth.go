package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/nvoss/brewid/internal/auth"
	"github.com/nvoss/brewid/internal/models"
	"github.com/nvoss/brewid/internal/services"
	"github.com/nvoss/brewid/internal/store"
	"github.com/nvoss/brewid/pkg/errors"
	"github.com/nvoss/brewid/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
	CtxUserKey   = "authUser"
)

// Auth enforces JWT authentication using the supplied token service. The
// subject is resolved against the user store so a token for a deleted
// account stops working immediately.
func Auth(tokens *iauth.TokenService, users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := tokens.DecodeAccess(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		userID, err := claims.SubjectID()
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, services.ErrUserNotFound)
			c.Abort()
			return
		}

		// Propagate identity into request context
		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, userID)
		c.Set(CtxUserKey, user)

		c.Next()
	}
}

// RequireAdmin allows only admin accounts past. It must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsAdmin() {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated account stored by Auth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(CtxUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
