package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/eventplaza/eventplaza/internal/models"
	"github.com/eventplaza/eventplaza/pkg/crypto"
	apperrors "github.com/eventplaza/eventplaza/pkg/errors"
	"github.com/eventplaza/eventplaza/pkg/metrics"
)

const emailTokenBytes = 32

var (
	// ErrInvalidCredentials is the single failure for unknown email and bad
	// password alike, so login responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = apperrors.New("INVALID_CREDENTIALS",
		"Login unsuccessful, please check email and password", http.StatusUnauthorized)
	// ErrEmailTaken signals the email already belongs to another account.
	ErrEmailTaken = apperrors.New("EMAIL_TAKEN",
		"An account with that email already exists", http.StatusBadRequest)
	// ErrUserNotFound indicates the requested account does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND",
		"Account not found", http.StatusNotFound)
)

// SignupInput captures the details required to register a new account.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// UpdateProfileInput describes mutable profile fields. A changed email
// clears the verification state and invalidates the old email token.
type UpdateProfileInput struct {
	FirstName string
	LastName  string
	Email     string
	Avatar    string
}

// UserService owns account records: registration, credential checks, and
// profile updates.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// Signup registers a new account with a hashed password and a fresh email
// verification token. The account starts unconfirmed.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := normaliseEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, apperrors.NewBadRequest("email and password are required")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	token, err := crypto.GenerateHexToken(emailTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("user service: generate email token: %w", err)
	}

	user := &models.User{
		Email:      email,
		Password:   hashed,
		FirstName:  strings.TrimSpace(input.FirstName),
		LastName:   strings.TrimSpace(input.LastName),
		Avatar:     models.DefaultAvatar,
		EmailToken: token,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies an email/password pair. Both unknown accounts and
// wrong passwords produce the same generic failure.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	email = normaliseEmail(email)
	if email == "" || password == "" {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("user service: query user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &user, nil
}

// GetByID loads an account by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

// GetByEmail loads an account by its unique email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normaliseEmail(email)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

// UpdateProfile applies profile edits. Changing the email clears the
// confirmation flag and regenerates the verification token so the previous
// one can never be replayed against the new address.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)
	if user == nil {
		return nil, ErrUserNotFound
	}

	updates := map[string]any{}
	if name := strings.TrimSpace(input.FirstName); name != "" && name != user.FirstName {
		updates["first_name"] = name
	}
	if name := strings.TrimSpace(input.LastName); name != "" && name != user.LastName {
		updates["last_name"] = name
	}
	if avatar := strings.TrimSpace(input.Avatar); avatar != "" && avatar != user.Avatar {
		updates["avatar"] = avatar
	}

	if email := normaliseEmail(input.Email); email != "" && email != user.Email {
		token, err := crypto.GenerateHexToken(emailTokenBytes)
		if err != nil {
			return nil, fmt.Errorf("user service: generate email token: %w", err)
		}
		updates["email"] = email
		updates["is_confirmed"] = false
		updates["email_token"] = token
	}

	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("user service: update profile: %w", err)
	}

	var reloaded models.User
	if err := s.db.WithContext(ctx).Take(&reloaded, "id = ?", user.ID).Error; err != nil {
		return nil, fmt.Errorf("user service: reload user: %w", err)
	}

	return &reloaded, nil
}

// SetPassword re-hashes and stores a new password for the user.
func (s *UserService) SetPassword(ctx context.Context, userID, newPassword string) error {
	ctx = ensureContext(ctx)

	if newPassword == "" {
		return apperrors.NewBadRequest("password is required")
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password", hashed)
	if result.Error != nil {
		return fmt.Errorf("user service: update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
