package auth

import (
	"context"
	"strings"

	"github.com/yigit/bojio/internal/pkg/apperrors"
)

// Identity is the caller described by a verified session token.
// ExternalID is the identity provider's subject and keys the local user.
type Identity struct {
	ExternalID string `json:"externalId"`
	Name       string `json:"name"`
	Image      string `json:"image"`
	Username   string `json:"username"`
}

// TokenVerifier checks a bearer token and resolves the caller's identity
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// ExtractBearerToken extracts the token from the Authorization header
func ExtractBearerToken(authHeader string) (string, error) {
	authHeader = strings.Trim(strings.TrimSpace(authHeader), "\"'")
	if authHeader == "" {
		return "", apperrors.ErrInvalidFormat
	}

	if strings.HasPrefix(authHeader, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return "", apperrors.ErrInvalidFormat
		}
		return token, nil
	}

	// Raw JWTs are accepted for Swagger UI convenience
	if strings.Count(authHeader, ".") == 2 {
		return authHeader, nil
	}

	return "", apperrors.ErrInvalidFormat
}
