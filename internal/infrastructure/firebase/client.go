// Package firebase opens the Google Cloud clients used by the Firestore cart
// store and the Firebase identity provider.
package firebase

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	fb "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/sirupsen/logrus"
	"github.com/thesheunit/storefront/internal/config"
	"google.golang.org/api/option"
)

// Clients holds the lazily opened Google clients
type Clients struct {
	cfg    config.FirebaseConfig
	logger *logrus.Logger
	opts   []option.ClientOption

	firestore *firestore.Client
	auth      *firebaseauth.Client
}

// New prepares client options. Without a credentials file the Application
// Default Credentials are used.
func New(cfg config.FirebaseConfig, logger *logrus.Logger) *Clients {
	c := &Clients{cfg: cfg, logger: logger}
	if file := strings.TrimSpace(cfg.CredentialsFile); file != "" {
		c.opts = append(c.opts, option.WithCredentialsFile(file))
	}
	return c
}

// Firestore returns the Firestore client, opening it on first use
func (c *Clients) Firestore(ctx context.Context) (*firestore.Client, error) {
	if c.firestore != nil {
		return c.firestore, nil
	}
	client, err := firestore.NewClient(ctx, c.cfg.ProjectID, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient failed (project=%s): %w", c.cfg.ProjectID, err)
	}
	c.firestore = client
	c.logger.WithField("project", c.cfg.ProjectID).Info("Firestore connected")
	return client, nil
}

// Auth returns the Firebase Auth client, opening it on first use
func (c *Clients) Auth(ctx context.Context) (*firebaseauth.Client, error) {
	if c.auth != nil {
		return c.auth, nil
	}
	app, err := fb.NewApp(ctx, &fb.Config{ProjectID: c.cfg.ProjectID}, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app init failed: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth init failed: %w", err)
	}
	c.auth = client
	c.logger.Info("Firebase Auth initialized")
	return client, nil
}

// Close closes the opened clients
func (c *Clients) Close() error {
	if c.firestore != nil {
		return c.firestore.Close()
	}
	return nil
}
