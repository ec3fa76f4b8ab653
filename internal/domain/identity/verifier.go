package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/thesheunit/storefront/internal/domain/user"
	"github.com/thesheunit/storefront/internal/pkg/auth"
)

// ErrUnauthenticated is returned for a missing or rejected bearer token
var ErrUnauthenticated = errors.New("unauthenticated")

// Verifier turns a bearer token into an Identity
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// JWTVerifier accepts access tokens issued by this service
type JWTVerifier struct {
	jwt *auth.JWTManager
}

// NewJWTVerifier creates a verifier over the local token issuer
func NewJWTVerifier(jwt *auth.JWTManager) *JWTVerifier {
	return &JWTVerifier{jwt: jwt}
}

// Verify implements Verifier
func (v *JWTVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := v.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return &Identity{UserID: claims.UserID, Email: claims.Email, IsAdmin: claims.IsAdmin}, nil
}

// TokenVerifier is the subset of the Firebase auth client used here
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// Accounts maps a federated principal to a local account
type Accounts interface {
	FindOrCreateByEmail(ctx context.Context, email, displayName string) (*user.User, error)
}

// FirebaseVerifier accepts Firebase ID tokens and provisions a local
// account keyed by the verified email address.
type FirebaseVerifier struct {
	tokens   TokenVerifier
	accounts Accounts
}

// NewFirebaseVerifier creates a verifier over a Firebase auth client
func NewFirebaseVerifier(tokens TokenVerifier, accounts Accounts) *FirebaseVerifier {
	return &FirebaseVerifier{tokens: tokens, accounts: accounts}
}

// Verify implements Verifier
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	tok, err := v.tokens.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if strings.TrimSpace(tok.UID) == "" {
		return nil, fmt.Errorf("%w: token has no uid", ErrUnauthenticated)
	}

	email := claimString(tok.Claims, "email")
	if email == "" {
		return nil, fmt.Errorf("%w: token has no email", ErrUnauthenticated)
	}
	name := claimString(tok.Claims, "name")

	u, err := v.accounts.FindOrCreateByEmail(ctx, email, name)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	raw, ok := claims[key]
	if !ok {
		return ""
	}
	s, _ := raw.(string)
	return strings.TrimSpace(s)
}
