package user

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thesheunit/storefront/internal/config"
	"github.com/thesheunit/storefront/internal/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newService(t *testing.T, mutate func(*config.Config)) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))

	cfg := &config.Config{}
	cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
	cfg.JWT.AccessTokenExpiry = time.Hour
	cfg.JWT.RefreshTokenExpiry = 24 * time.Hour
	cfg.Security.BcryptCost = 4
	cfg.Identity.AutoProvision = true
	cfg.Identity.AdminEmails = []string{"root@example.com"}
	if mutate != nil {
		mutate(cfg)
	}
	return NewService(db, cfg, nil, logger.Discard()), db
}

func register(t *testing.T, s *Service, addr string) *AuthResponse {
	t.Helper()
	resp, err := s.Register(context.Background(), &RegisterRequest{
		Email:           addr,
		Password:        "Blue5kies",
		ConfirmPassword: "Blue5kies",
		FirstName:       " Ada ",
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	s, _ := newService(t, nil)
	ctx := context.Background()

	resp := register(t, s, " Ada@Example.com ")
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, "Ada", resp.User.FirstName)
	assert.NotEmpty(t, resp.AccessToken)

	_, err := s.Register(ctx, &RegisterRequest{
		Email: "ada@example.com", Password: "Blue5kies", ConfirmPassword: "Blue5kies", FirstName: "Ada",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = s.Register(ctx, &RegisterRequest{
		Email: "grace@example.com", Password: "Blue5kies", ConfirmPassword: "Red5kies", FirstName: "Grace",
	})
	assert.Error(t, err)

	login, err := s.Login(ctx, &LoginRequest{Email: "ADA@example.com", Password: "Blue5kies"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = s.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "Wrong5kies"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	refreshed, err := s.RefreshToken(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, refreshed.User.ID)
}

func TestAdminEmailsArePromoted(t *testing.T) {
	s, _ := newService(t, nil)
	assert.True(t, register(t, s, "root@example.com").User.IsAdmin)
	assert.False(t, register(t, s, "ada@example.com").User.IsAdmin)
}

func TestUpdateProfile(t *testing.T) {
	s, db := newService(t, nil)
	ctx := context.Background()
	u := register(t, s, "ada@example.com").User

	stored, err := s.UpdateProfile(ctx, u.ID, Profile{FirstName: " Augusta ", LastName: "King", Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, Profile{FirstName: "Augusta", LastName: "King", Phone: "555"}, ProfileOf(stored))

	_, err = s.UpdateProfile(ctx, 999, Profile{FirstName: "Nobody"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, db.Model(&User{}).Where("id = ?", u.ID).Update("is_active", false).Error)
	_, err = s.GetProfile(ctx, u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFindOrCreateByEmail(t *testing.T) {
	t.Run("provisions federated accounts once", func(t *testing.T) {
		s, db := newService(t, nil)
		ctx := context.Background()

		first, err := s.FindOrCreateByEmail(ctx, "Grace@Example.com", "Grace Hopper")
		require.NoError(t, err)
		assert.Equal(t, "grace@example.com", first.Email)
		assert.Equal(t, "Grace", first.FirstName)
		assert.Equal(t, "Hopper", first.LastName)
		assert.Equal(t, "firebase", first.Provider)

		again, err := s.FindOrCreateByEmail(ctx, "grace@example.com", "")
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)

		var count int64
		db.Model(&User{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("unknown accounts are refused without auto-provisioning", func(t *testing.T) {
		s, _ := newService(t, func(cfg *config.Config) { cfg.Identity.AutoProvision = false })
		_, err := s.FindOrCreateByEmail(context.Background(), "grace@example.com", "Grace")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("rejects tokens without email", func(t *testing.T) {
		s, _ := newService(t, nil)
		_, err := s.FindOrCreateByEmail(context.Background(), "  ", "Grace")
		assert.Error(t, err)
	})
}

func TestCreateAdmin(t *testing.T) {
	s, _ := newService(t, nil)
	ctx := context.Background()
	u := register(t, s, "ada@example.com").User
	require.False(t, u.IsAdmin)

	promoted, err := s.CreateAdmin(ctx, "ada@example.com", "N3wSecret", "Ada")
	require.NoError(t, err)
	assert.Equal(t, u.ID, promoted.ID)
	assert.True(t, promoted.IsAdmin)

	_, err = s.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "N3wSecret"})
	assert.NoError(t, err)
}
