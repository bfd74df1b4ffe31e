package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultResetTokenTTL is the validity window for password reset tokens.
const DefaultResetTokenTTL = 30 * time.Minute

const resetPurpose = "password_reset"

// ErrResetTokenInvalid covers every verification failure: malformed token,
// bad signature, wrong purpose, or expiry. Callers must not distinguish.
var ErrResetTokenInvalid = errors.New("reset token: invalid or expired")

// ResetTokenConfig bundles the configuration for the ResetTokenService.
type ResetTokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Clock  func() time.Time
}

type resetClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// ResetTokenService issues and verifies stateless, self-contained password
// reset tokens. The token encodes the user id and issue time; expiry is
// enforced at verification, nothing is stored server-side.
type ResetTokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewResetTokenService constructs the service from configuration.
func NewResetTokenService(cfg ResetTokenConfig) (*ResetTokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("reset token: secret must be provided")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &ResetTokenService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    now,
	}, nil
}

// Issue signs a token bound to the given user.
func (s *ResetTokenService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("reset token: user id is required")
	}

	now := s.now()
	claims := &resetClaims{
		Purpose: resetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("reset token: sign: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a token, returning the user id it was issued
// for. It fails closed: any parse, signature, purpose, or expiry problem
// yields ErrResetTokenInvalid.
func (s *ResetTokenService) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrResetTokenInvalid
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	var claims resetClaims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", ErrResetTokenInvalid
	}

	if claims.Purpose != resetPurpose {
		return "", ErrResetTokenInvalid
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return "", ErrResetTokenInvalid
	}
	if claims.Subject == "" {
		return "", ErrResetTokenInvalid
	}

	return claims.Subject, nil
}
