package app

import (
	"github.com/nvoss/brewid/internal/auth"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the token service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	accessTTL := c.JWT.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = auth.DefaultAccessTokenTTL
	}

	refreshTTL := c.JWT.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = auth.DefaultRefreshTokenTTL
	}

	return auth.JWTConfig{
		Secret:          c.JWT.Secret,
		Algorithm:       c.JWT.Algorithm,
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,
	}
}
