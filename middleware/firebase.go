package middleware

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"leaddesk/backend/logger"
	"leaddesk/backend/models"
)

// FirebaseOptions selects the service account used to verify ID tokens.
// CredentialsJSON wins over CredentialsBase64; with neither, application default
// credentials are used.
type FirebaseOptions struct {
	ProjectID         string
	CredentialsJSON   string
	CredentialsBase64 string
}

// tokenVerifier is the part of *auth.Client the provider needs.
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseProvider treats a verified Firebase ID token as a session. The employee role
// and name come from the token's custom claims.
type FirebaseProvider struct {
	verifier tokenVerifier
}

// NewFirebaseProvider initializes the Firebase Admin SDK.
func NewFirebaseProvider(ctx context.Context, opts FirebaseOptions) (*FirebaseProvider, error) {
	log := logger.For("auth")

	var clientOpts []option.ClientOption
	switch {
	case opts.CredentialsJSON != "":
		log.Info("Using JSON Firebase credentials from environment")
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(opts.CredentialsJSON)))
	case opts.CredentialsBase64 != "":
		log.Info("Using base64-encoded Firebase credentials from environment")
		credBytes, err := base64.StdEncoding.DecodeString(opts.CredentialsBase64)
		if err != nil {
			return nil, fmt.Errorf("error decoding base64 Firebase credentials: %w", err)
		}
		clientOpts = append(clientOpts, option.WithCredentialsJSON(credBytes))
	default:
		log.Info("No specific Firebase credentials found, using application default credentials")
	}

	var config *firebase.Config
	if opts.ProjectID != "" {
		config = &firebase.Config{ProjectID: opts.ProjectID}
	}

	app, err := firebase.NewApp(ctx, config, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	log.Info("Firebase Admin SDK initialized successfully")
	return &FirebaseProvider{verifier: client}, nil
}

// IsAuthenticated verifies the ID token with Firebase.
func (p *FirebaseProvider) IsAuthenticated(ctx context.Context, idToken string) (models.Session, bool) {
	session, err := p.verify(ctx, idToken)
	if err != nil {
		logger.For("auth").WithError(err).Debug("Error verifying token")
		return models.Session{}, false
	}
	return session, true
}

func (p *FirebaseProvider) verify(ctx context.Context, idToken string) (models.Session, error) {
	if p == nil || p.verifier == nil {
		return models.Session{}, errors.New("Firebase auth client not initialized")
	}

	token, err := p.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return models.Session{}, fmt.Errorf("error verifying ID token: %w", err)
	}

	role, _ := token.Claims["role"].(string)
	name, _ := token.Claims["name"].(string)
	if role == "" {
		return models.Session{}, fmt.Errorf("token for %s carries no role claim", token.UID)
	}

	return models.Session{
		ID:           token.UID,
		EmployeeID:   token.UID,
		EmployeeName: name,
		Role:         role,
		Token:        idToken,
		CreatedAt:    time.Unix(token.IssuedAt, 0).UTC(),
		ExpiresAt:    time.Unix(token.Expires, 0).UTC(),
	}, nil
}
