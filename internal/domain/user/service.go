// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thesheunit/storefront/internal/config"
	"github.com/thesheunit/storefront/internal/pkg/auth"
	"github.com/thesheunit/storefront/internal/pkg/email"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when no active user matches
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering an address that already exists
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrInvalidCredentials hides which half of a login failed
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Service handles user business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
	emailService    *email.EmailService
	logger          *logrus.Logger
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config, emailService *email.EmailService, logger *logrus.Logger) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		passwordManager: auth.NewPasswordManager(cfg),
		jwtManager:      auth.NewJWTManager(cfg),
		emailService:    emailService,
		logger:          logger,
	}
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FirstName       string `json:"first_name" binding:"required"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone"`
}

// LoginRequest represents user login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User *User `json:"user"`
	*auth.TokenPair
}

// Register creates a new user account
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, fmt.Errorf("passwords do not match")
	}

	db := s.db.WithContext(ctx)
	addr := NormalizeEmail(req.Email)

	var count int64
	if err := db.Model(&User{}).Where("email = ?", addr).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := User{
		Email:       addr,
		Password:    hashedPassword,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Phone:       req.Phone,
		Provider:    "password",
		IsActive:    true,
		IsAdmin:     s.config.IsAdminEmail(addr),
		LastLoginAt: &now,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.emailService != nil {
		if err := s.emailService.SendWelcomeEmail(ctx, user.Email, user.GetDisplayName()); err != nil {
			s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to send welcome email")
		}
	}

	return s.issue(&user)
}

// Login authenticates a user
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	var user User
	err := s.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", NormalizeEmail(req.Email), true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.passwordManager.VerifyPassword(req.Password, user.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.touchLastLogin(ctx, user.ID)
	return s.issue(&user)
}

// RefreshToken generates new tokens using refresh token
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.GetProfile(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// GetProfile gets an active user by ID
func (s *Service) GetProfile(ctx context.Context, userID uint) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", userID, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// UpdateProfile writes the owner-editable fields and returns the stored row
func (s *Service) UpdateProfile(ctx context.Context, userID uint, profile Profile) (*User, error) {
	res := s.db.WithContext(ctx).Model(&User{}).
		Where("id = ? AND is_active = ?", userID, true).
		Updates(map[string]interface{}{
			"first_name": strings.TrimSpace(profile.FirstName),
			"last_name":  strings.TrimSpace(profile.LastName),
			"phone":      strings.TrimSpace(profile.Phone),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.GetProfile(ctx, userID)
}

// ChangePassword changes user password after verifying current password
func (s *Service) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.passwordManager.VerifyPassword(currentPassword, user.Password); err != nil {
		return fmt.Errorf("current password is incorrect")
	}

	hashedPassword, err := s.passwordManager.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(user).Update("password", hashedPassword).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// FindOrCreateByEmail resolves a federated sign-in to a local account,
// provisioning one on first sight.
func (s *Service) FindOrCreateByEmail(ctx context.Context, addr, displayName string) (*User, error) {
	addr = NormalizeEmail(addr)
	if addr == "" {
		return nil, fmt.Errorf("federated identity has no email")
	}

	first, last := splitName(displayName)
	user := User{
		Email:     addr,
		FirstName: first,
		LastName:  last,
		Provider:  "firebase",
		IsActive:  true,
		IsAdmin:   s.config.IsAdminEmail(addr),
	}

	query := s.db.WithContext(ctx).Where(User{Email: addr})
	var err error
	if s.config.Identity.AutoProvision {
		err = query.FirstOrCreate(&user).Error
	} else {
		err = query.First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve federated user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserNotFound
	}

	s.touchLastLogin(ctx, user.ID)
	return &user, nil
}

// CreateAdmin creates or promotes an administrator account
func (s *Service) CreateAdmin(ctx context.Context, addr, password, firstName string) (*User, error) {
	hashedPassword, err := s.passwordManager.HashPassword(password)
	if err != nil {
		return nil, err
	}

	addr = NormalizeEmail(addr)
	user := User{Email: addr}
	err = s.db.WithContext(ctx).
		Where(User{Email: addr}).
		Assign(map[string]interface{}{
			"password":   hashedPassword,
			"first_name": firstName,
			"is_admin":   true,
			"is_active":  true,
		}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("Admin account ready")
	return &user, nil
}

func (s *Service) issue(user *User) (*AuthResponse, error) {
	pair, err := s.jwtManager.IssuePair(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, TokenPair: pair}, nil
}

func (s *Service) touchLastLogin(ctx context.Context, userID uint) {
	err := s.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", userID).
		Update("last_login_at", time.Now().UTC()).Error
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to update last login")
	}
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	first, last, _ := strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}
