package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thesheunit/storefront/internal/config"
	"github.com/thesheunit/storefront/internal/domain/user"
	"github.com/thesheunit/storefront/internal/pkg/auth"
)

func TestSession_ResolveNotifiesSubscribers(t *testing.T) {
	s := NewSession()
	_, resolved := s.Current()
	assert.False(t, resolved)

	var events []Event
	unsubscribe := s.Subscribe(func(ev Event) { events = append(events, ev) })

	s.Resolve(&Identity{UserID: 7, Email: "u7@example.com"})
	s.Resolve(&Identity{UserID: 7, Email: "u7@example.com"})
	s.SignOut()

	require.Len(t, events, 3)
	assert.Equal(t, uint(7), events[0].Identity.UserID)
	assert.True(t, Same(events[0].Identity, events[1].Identity))
	assert.Nil(t, events[2].Identity)
	assert.True(t, events[2].Resolved)

	unsubscribe()
	unsubscribe()
	s.Resolve(&Identity{UserID: 8})
	assert.Len(t, events, 3, "unsubscribed listener must not be called")
}

func TestSession_CurrentReturnsCopy(t *testing.T) {
	s := NewSession()
	s.Resolve(&Identity{UserID: 1, IsAdmin: false})

	id, resolved := s.Current()
	require.True(t, resolved)
	id.IsAdmin = true

	again, _ := s.Current()
	assert.False(t, again.IsAdmin)
}

func TestSession_CloseDropsListeners(t *testing.T) {
	s := NewSession()
	called := false
	s.Subscribe(func(Event) { called = true })
	s.Close()
	s.Resolve(&Identity{UserID: 1})
	assert.False(t, called)
	assert.False(t, s.Resolved())
}

func TestSame(t *testing.T) {
	assert.True(t, Same(nil, nil))
	assert.False(t, Same(nil, &Identity{UserID: 1}))
	assert.True(t, Same(&Identity{UserID: 1, Email: "a"}, &Identity{UserID: 1, Email: "b"}))
}

func TestJWTVerifier(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
	cfg.JWT.AccessTokenExpiry = time.Hour
	cfg.JWT.RefreshTokenExpiry = time.Hour
	jwt := auth.NewJWTManager(cfg)
	v := NewJWTVerifier(jwt)

	token, err := jwt.GenerateAccessToken(3, "c@example.com", true)
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: 3, Email: "c@example.com", IsAdmin: true}, id)

	_, err = v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = v.Verify(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

type fakeTokens struct {
	token *firebaseauth.Token
	err   error
}

func (f fakeTokens) VerifyIDToken(context.Context, string) (*firebaseauth.Token, error) {
	return f.token, f.err
}

type fakeAccounts struct {
	gotEmail, gotName string
}

func (f *fakeAccounts) FindOrCreateByEmail(_ context.Context, email, name string) (*user.User, error) {
	f.gotEmail, f.gotName = email, name
	return &user.User{ID: 11, Email: email, IsAdmin: true}, nil
}

func TestFirebaseVerifier(t *testing.T) {
	accounts := &fakeAccounts{}
	v := NewFirebaseVerifier(fakeTokens{token: &firebaseauth.Token{
		UID:    "fb-uid",
		Claims: map[string]interface{}{"email": " Ada@Example.com ", "name": "Ada Lovelace"},
	}}, accounts)

	id, err := v.Verify(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, uint(11), id.UserID)
	assert.True(t, id.IsAdmin)
	assert.Equal(t, "Ada@Example.com", accounts.gotEmail)
	assert.Equal(t, "Ada Lovelace", accounts.gotName)

	noEmail := NewFirebaseVerifier(fakeTokens{token: &firebaseauth.Token{UID: "x", Claims: map[string]interface{}{}}}, accounts)
	_, err = noEmail.Verify(context.Background(), "id-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	rejected := NewFirebaseVerifier(fakeTokens{err: errors.New("expired")}, accounts)
	_, err = rejected.Verify(context.Background(), "id-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
