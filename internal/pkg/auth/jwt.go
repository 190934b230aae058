package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yigit/bojio/internal/pkg/apperrors"
)

// JWTConfig defines JWT configuration settings
type JWTConfig struct {
	SecretKey   string
	TokenIssuer string
}

// Claims defines the session token content issued by the identity provider
type Claims struct {
	Name              string `json:"name,omitempty"`
	Picture           string `json:"picture,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HMAC-signed session tokens
type JWTVerifier struct {
	config JWTConfig
}

// NewJWTVerifier creates a new JWT verifier
func NewJWTVerifier(config JWTConfig) *JWTVerifier {
	return &JWTVerifier{config: config}
}

// Verify parses the token and maps its claims to an Identity
func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.config.TokenIssuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.TokenIssuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.config.SecretKey), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	return &Identity{
		ExternalID: claims.Subject,
		Name:       claims.Name,
		Image:      claims.Picture,
		Username:   claims.PreferredUsername,
	}, nil
}

// Sign issues a token for the identity. Used by tests and local tooling.
func (v *JWTVerifier) Sign(identity Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Name:              identity.Name,
		Picture:           identity.Image,
		PreferredUsername: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			Issuer:    v.config.TokenIssuer,
			Subject:   identity.ExternalID,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(v.config.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
