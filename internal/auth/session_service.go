package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/eventplaza/eventplaza/internal/models"
	"github.com/eventplaza/eventplaza/pkg/crypto"
	"github.com/eventplaza/eventplaza/pkg/metrics"
)

const (
	// DefaultSessionTTL is the lifetime of a plain login session.
	DefaultSessionTTL = 12 * time.Hour
	// DefaultRememberTTL is the lifetime when the user ticks "remember me".
	DefaultRememberTTL = 30 * 24 * time.Hour
)

// SessionConfig describes tunable behaviour for the SessionService.
type SessionConfig struct {
	SessionTTL  time.Duration
	RememberTTL time.Duration
	TokenLength int
	Clock       func() time.Time
}

// SessionMetadata captures contextual information about the client.
type SessionMetadata struct {
	IPAddress string
	UserAgent string
}

var (
	// ErrSessionNotFound indicates that no session matches the provided token.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrSessionRevoked marks a session that has been signed out.
	ErrSessionRevoked = errors.New("session: revoked")
	// ErrSessionExpired signals that a session token has reached its expiry.
	ErrSessionExpired = errors.New("session: expired")
	// ErrSessionInvalidToken is returned when the supplied token is malformed.
	ErrSessionInvalidToken = errors.New("session: invalid token")
)

// SessionService manages creation, resolution, and revocation of login
// sessions backed by opaque cookie tokens.
type SessionService struct {
	db          *gorm.DB
	sessionTTL  time.Duration
	rememberTTL time.Duration
	tokenLen    int
	now         func() time.Time
}

// NewSessionService constructs a session manager backed by the provided database.
func NewSessionService(db *gorm.DB, cfg SessionConfig) (*SessionService, error) {
	if db == nil {
		return nil, errors.New("session service: db is required")
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	remember := cfg.RememberTTL
	if remember <= 0 {
		remember = DefaultRememberTTL
	}

	length := cfg.TokenLength
	if length <= 0 {
		length = 48
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionService{
		db:          db,
		sessionTTL:  ttl,
		rememberTTL: remember,
		tokenLen:    length,
		now:         clock,
	}, nil
}

// RememberTTL exposes the extended lifetime so cookie max-age can match it.
func (s *SessionService) RememberTTL() time.Duration {
	return s.rememberTTL
}

// Create establishes a new session for the user and returns the opaque token.
func (s *SessionService) Create(userID string, remember bool, meta SessionMetadata) (string, *models.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return "", nil, errors.New("session service: user id is required")
	}

	token, err := crypto.GenerateToken(s.tokenLen)
	if err != nil {
		return "", nil, fmt.Errorf("session service: generate token: %w", err)
	}

	now := s.now()
	ttl := s.sessionTTL
	if remember {
		ttl = s.rememberTTL
	}

	session := &models.Session{
		UserID:     userID,
		Token:      token,
		Remember:   remember,
		IPAddress:  strings.TrimSpace(meta.IPAddress),
		UserAgent:  strings.TrimSpace(meta.UserAgent),
		ExpiresAt:  now.Add(ttl),
		LastUsedAt: now,
	}

	if err := s.db.Create(session).Error; err != nil {
		return "", nil, fmt.Errorf("session service: create session: %w", err)
	}

	metrics.ActiveSessions.Inc()

	return token, session, nil
}

// Resolve returns the session and its user for a cookie token, touching
// LastUsedAt. Revoked and expired sessions are rejected.
func (s *SessionService) Resolve(token string) (*models.Session, *models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, ErrSessionInvalidToken
	}

	var session models.Session
	err := s.db.Preload("User").Where("token = ?", token).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("session service: find session: %w", err)
	}

	now := s.now()

	if session.RevokedAt != nil {
		return nil, nil, ErrSessionRevoked
	}
	if session.ExpiresAt.Before(now) {
		return nil, nil, ErrSessionExpired
	}
	if session.User == nil {
		return nil, nil, ErrSessionNotFound
	}

	if err := s.db.Model(&session).Update("last_used_at", now).Error; err != nil {
		return nil, nil, fmt.Errorf("session service: touch session: %w", err)
	}
	session.LastUsedAt = now

	return &session, session.User, nil
}

// Revoke marks the session behind a cookie token as signed out.
func (s *SessionService) Revoke(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrSessionInvalidToken
	}

	now := s.now()
	result := s.db.Model(&models.Session{}).
		Where("token = ? AND revoked_at IS NULL", token).
		Update("revoked_at", now)

	if result.Error != nil {
		return fmt.Errorf("session service: revoke session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}

	metrics.ActiveSessions.Sub(float64(result.RowsAffected))

	return nil
}

// RevokeUserSessions revokes every active session belonging to a user, used
// after a password reset.
func (s *SessionService) RevokeUserSessions(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrSessionInvalidToken
	}

	result := s.db.Model(&models.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", s.now())
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		metrics.ActiveSessions.Sub(float64(result.RowsAffected))
	}

	return nil
}

// CleanupExpired deletes expired and revoked sessions.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	now := s.now()

	var activeExpired int64
	if err := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("expires_at < ? AND revoked_at IS NULL", now).
		Count(&activeExpired).Error; err != nil {
		return 0, fmt.Errorf("session service: count expired sessions: %w", err)
	}

	result := s.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Or("revoked_at IS NOT NULL").
		Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("session service: cleanup expired sessions: %w", result.Error)
	}

	if activeExpired > 0 {
		metrics.ActiveSessions.Sub(float64(activeExpired))
	}

	return result.RowsAffected, nil
}
