package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eventplaza/eventplaza/internal/auth"
	"github.com/eventplaza/eventplaza/internal/models"
	apperrors "github.com/eventplaza/eventplaza/pkg/errors"
	"github.com/eventplaza/eventplaza/pkg/logger"
	"github.com/eventplaza/eventplaza/pkg/mail"
	"github.com/eventplaza/eventplaza/pkg/metrics"
)

// ErrResetTokenInvalid rejects expired, tampered, or foreign reset links.
var ErrResetTokenInvalid = apperrors.New("RESET_TOKEN_INVALID",
	"That is an invalid or expired token", http.StatusBadRequest)

// PasswordResetService drives the forgot-password flow: mailing signed
// reset links and completing resets. Requests for unknown emails succeed
// silently so the flow cannot be used to enumerate accounts.
type PasswordResetService struct {
	db       *gorm.DB
	users    *UserService
	sessions *auth.SessionService
	tokens   *auth.ResetTokenService
	mailer   mail.Mailer
	baseURL  string
	log      *zap.Logger
}

// NewPasswordResetService constructs a PasswordResetService instance.
func NewPasswordResetService(
	db *gorm.DB,
	users *UserService,
	sessions *auth.SessionService,
	tokens *auth.ResetTokenService,
	mailer mail.Mailer,
	baseURL string,
) (*PasswordResetService, error) {
	if db == nil {
		return nil, errors.New("password reset service: db is required")
	}
	if users == nil || sessions == nil || tokens == nil {
		return nil, errors.New("password reset service: users, sessions, and tokens are required")
	}
	if mailer == nil {
		return nil, errors.New("password reset service: mailer is required")
	}
	return &PasswordResetService{
		db:       db,
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		mailer:   mailer,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		log:      logger.WithModule("password_reset"),
	}, nil
}

// RequestReset mails a signed reset link to the account behind the email.
// Unknown emails return success without sending anything; delivery failures
// for known accounts propagate to the caller.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normaliseEmail(email)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("password reset service: find user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return fmt.Errorf("password reset service: issue token: %w", err)
	}

	link := fmt.Sprintf("%s/reset_password/%s", s.baseURL, token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>To reset your password, visit the link below:</p><p><a href=%q>%s</a></p><p>If you did not make this request, simply ignore this email.</p>",
		user.FullName(), link, link)

	err = s.mailer.Send(ctx, mail.Message{
		To:      []string{user.Email},
		Subject: "EventPlaza - Password Reset Request",
		Body:    body,
	})
	if err != nil {
		if errors.Is(err, mail.ErrSMTPDisabled) {
			return nil
		}
		s.log.Warn("reset mail delivery failed",
			zap.String("user_id", user.ID),
			zap.Error(err))
		return fmt.Errorf("password reset service: send mail: %w", err)
	}

	metrics.EmailsSent.WithLabelValues("password_reset").Inc()
	return nil
}

// VerifyToken resolves a reset link to its account without consuming it, so
// the reset form can be shown only for live tokens.
func (s *PasswordResetService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	ctx = ensureContext(ctx)

	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrResetTokenInvalid
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrResetTokenInvalid
	}

	return user, nil
}

// Complete sets a new password for the account behind a live token and
// revokes every existing session so stolen cookies die with the old
// password.
func (s *PasswordResetService) Complete(ctx context.Context, token, newPassword string) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(newPassword) == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}

	if err := s.users.SetPassword(ctx, user.ID, newPassword); err != nil {
		return nil, err
	}

	if err := s.sessions.RevokeUserSessions(user.ID); err != nil {
		return nil, fmt.Errorf("password reset service: revoke sessions: %w", err)
	}

	return user, nil
}
