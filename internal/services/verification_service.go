package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eventplaza/eventplaza/internal/models"
	"github.com/eventplaza/eventplaza/pkg/crypto"
	apperrors "github.com/eventplaza/eventplaza/pkg/errors"
	"github.com/eventplaza/eventplaza/pkg/logger"
	"github.com/eventplaza/eventplaza/pkg/mail"
	"github.com/eventplaza/eventplaza/pkg/metrics"
)

// ErrVerificationTokenInvalid rejects verification links whose token does
// not match any account.
var ErrVerificationTokenInvalid = apperrors.New("VERIFICATION_TOKEN_INVALID",
	"That is an invalid token. Please log in again to verify your email.", http.StatusBadRequest)

// VerificationService issues and confirms email verification tokens. Tokens
// are opaque, stored on the account row, and regenerated whenever the email
// changes so stale links cannot confirm a new address.
type VerificationService struct {
	db      *gorm.DB
	mailer  mail.Mailer
	baseURL string
	log     *zap.Logger
}

// NewVerificationService constructs a VerificationService instance. baseURL
// is the externally reachable origin used to build verification links.
func NewVerificationService(db *gorm.DB, mailer mail.Mailer, baseURL string) (*VerificationService, error) {
	if db == nil {
		return nil, errors.New("verification service: db is required")
	}
	if mailer == nil {
		return nil, errors.New("verification service: mailer is required")
	}
	return &VerificationService{
		db:      db,
		mailer:  mailer,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		log:     logger.WithModule("verification"),
	}, nil
}

// Send emails the user's current verification link. Delivery failures
// propagate to the caller; a deliberately disabled mailer is treated as
// success so local setups without SMTP still work.
func (s *VerificationService) Send(ctx context.Context, user *models.User) error {
	ctx = ensureContext(ctx)
	if user == nil || user.EmailToken == "" {
		return ErrUserNotFound
	}

	link := fmt.Sprintf("%s/verify/%s", s.baseURL, user.EmailToken)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Please confirm your email address by visiting the link below:</p><p><a href=%q>%s</a></p>",
		user.FullName(), link, link)

	err := s.mailer.Send(ctx, mail.Message{
		To:      []string{user.Email},
		Subject: "EventPlaza - Please Verify Your Email",
		Body:    body,
	})
	if err != nil {
		if errors.Is(err, mail.ErrSMTPDisabled) {
			return nil
		}
		s.log.Warn("verification mail delivery failed",
			zap.String("user_id", user.ID),
			zap.Error(err))
		return fmt.Errorf("verification service: send mail: %w", err)
	}

	metrics.EmailsSent.WithLabelValues("verification").Inc()
	return nil
}

// Reissue rotates the user's verification token and sends a fresh link.
// Used when a logged-in user asks for the mail again or corrects a typo in
// their address.
func (s *VerificationService) Reissue(ctx context.Context, user *models.User, newEmail string) (*models.User, error) {
	ctx = ensureContext(ctx)
	if user == nil {
		return nil, ErrUserNotFound
	}

	token, err := crypto.GenerateHexToken(emailTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("verification service: generate token: %w", err)
	}

	updates := map[string]any{"email_token": token, "is_confirmed": false}
	if email := normaliseEmail(newEmail); email != "" && email != user.Email {
		updates["email"] = email
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("verification service: rotate token: %w", err)
	}

	var reloaded models.User
	if err := s.db.WithContext(ctx).Take(&reloaded, "id = ?", user.ID).Error; err != nil {
		return nil, fmt.Errorf("verification service: reload user: %w", err)
	}

	if err := s.Send(ctx, &reloaded); err != nil {
		return nil, err
	}

	return &reloaded, nil
}

// Confirm marks the account behind a token as verified. Confirming an
// already verified account is a no-op success, so double-clicked links do
// not surface errors.
func (s *VerificationService) Confirm(ctx context.Context, token string) (*models.User, error) {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrVerificationTokenInvalid
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email_token = ?", token).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVerificationTokenInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("verification service: find token: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(user.EmailToken), []byte(token)) != 1 {
		return nil, ErrVerificationTokenInvalid
	}

	if user.IsConfirmed {
		return &user, nil
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("is_confirmed", true).Error; err != nil {
		return nil, fmt.Errorf("verification service: confirm user: %w", err)
	}
	user.IsConfirmed = true

	return &user, nil
}
