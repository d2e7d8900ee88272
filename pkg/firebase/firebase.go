// Package firebase builds the client that verifies Firebase ID tokens for
// /firebase-login.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-social/backend/pkg/logger"
	"google.golang.org/api/option"
)

var ErrNoCredentials = errors.New("firebase: no credentials file configured")

// NewAuthClient reads the service account file at credentialsPath.
func NewAuthClient(ctx context.Context, credentialsPath string) (*auth.Client, error) {
	if credentialsPath == "" {
		return nil, ErrNoCredentials
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("firebase: credentials file: %w", err)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("firebase: new app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: auth client: %w", err)
	}

	logger.WithSource("firebase").WithField("credentials", credentialsPath).Info("ID token verification enabled")
	return client, nil
}
