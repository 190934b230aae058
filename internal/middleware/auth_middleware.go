package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/app/models/dto"
	"github.com/yigit/bojio/internal/app/services"
	"github.com/yigit/bojio/internal/pkg/apperrors"
	"github.com/yigit/bojio/internal/pkg/auth"
)

// Context keys set by the auth middleware
const (
	identityKey = "identity"
	userKey     = "currentUser"
)

// AuthMiddleware verifies the caller's identity token and loads the local user
type AuthMiddleware struct {
	verifier auth.TokenVerifier
	users    services.UserService
	logger   zerolog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier auth.TokenVerifier, users services.UserService, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		users:    users,
		logger:   logger,
	}
}

// RequireAuth rejects requests without a valid identity token. A caller who
// has not onboarded yet passes with an identity but no local user.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		// Swagger UI and browser WebSocket clients cannot always set headers
		if authHeader == "" {
			authHeader = c.Query("token")
		}

		if authHeader == "" {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			errorDetail = errorDetail.WithDetails("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			errorDetail = errorDetail.WithDetails("Invalid token format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		identity, err := m.verifier.Verify(c.Request.Context(), tokenString)
		if err != nil {
			errorCode := dto.ErrorCodeInvalidToken
			errorDetails := "Invalid token"
			if errors.Is(err, apperrors.ErrTokenExpired) {
				errorCode = dto.ErrorCodeExpiredToken
				errorDetails = "Token has expired"
			}

			m.logger.Debug().Err(err).Str("path", c.FullPath()).Msg("Token rejected")
			errorDetail := dto.NewErrorDetail(errorCode, "Authentication failed").WithDetails(errorDetails)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		user, err := m.users.FetchUser(c.Request.Context(), identity.ExternalID)
		if err != nil {
			m.logger.Error().Err(err).Str("externalId", identity.ExternalID).Msg("Failed to load caller")
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		c.Set(identityKey, identity)
		if user != nil {
			c.Set(userKey, user)
		}
		c.Next()
	}
}

// RequireUser must run after RequireAuth. It rejects callers who have not
// completed onboarding.
func (m *AuthMiddleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUser(c)
		if !ok || !user.Onboarded {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Onboarding required")
			errorDetail = errorDetail.WithDetails("Complete your profile before using this resource")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}
		c.Next()
	}
}

// GetIdentity returns the verified identity of the caller
func GetIdentity(c *gin.Context) (*auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*auth.Identity)
	return identity, ok
}

// GetUser returns the caller's local user, if they have onboarded
func GetUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// SetUser replaces the caller's local user, e.g. right after onboarding
func SetUser(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
}
