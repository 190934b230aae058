package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/yigit/bojio/internal/pkg/apperrors"
	"google.golang.org/api/option"
)

// FirebaseVerifier validates Firebase ID tokens
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier initializes a Firebase app for the project. An empty
// credentialsFile falls back to application default credentials.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (*FirebaseVerifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing auth client: %w", err)
	}

	return &FirebaseVerifier{client: client}, nil
}

// Verify checks the ID token with Firebase and maps its claims to an Identity
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	decoded, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		if fbauth.IsIDTokenExpired(err) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTokenInvalid, err)
	}

	identity := &Identity{ExternalID: decoded.UID}
	if name, ok := decoded.Claims["name"].(string); ok {
		identity.Name = name
	}
	if picture, ok := decoded.Claims["picture"].(string); ok {
		identity.Image = picture
	}
	if username, ok := decoded.Claims["preferred_username"].(string); ok {
		identity.Username = username
	}
	return identity, nil
}
