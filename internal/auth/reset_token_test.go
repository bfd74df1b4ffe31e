package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResetTokenRoundTrip(t *testing.T) {
	current := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc, err := NewResetTokenService(ResetTokenConfig{
		Secret: "secret",
		Issuer: "eventplaza",
		Clock:  func() time.Time { return current },
	})
	require.NoError(t, err)

	token, err := svc.Issue("user-123")
	require.NoError(t, err)

	userID, err := svc.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", userID)
}

func TestResetTokenExpires(t *testing.T) {
	current := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc, err := NewResetTokenService(ResetTokenConfig{
		Secret: "secret",
		TTL:    30 * time.Minute,
		Clock:  func() time.Time { return current },
	})
	require.NoError(t, err)

	token, err := svc.Issue("user-123")
	require.NoError(t, err)

	// Still valid just inside the window.
	current = current.Add(29 * time.Minute)
	_, err = svc.Verify(token)
	require.NoError(t, err)

	// Rejected once the 30 minute window elapses.
	current = current.Add(2 * time.Minute)
	_, err = svc.Verify(token)
	require.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetTokenTamperFailsClosed(t *testing.T) {
	svc, err := NewResetTokenService(ResetTokenConfig{Secret: "secret"})
	require.NoError(t, err)

	token, err := svc.Issue("user-123")
	require.NoError(t, err)

	_, err = svc.Verify(token + "x")
	require.ErrorIs(t, err, ErrResetTokenInvalid)

	_, err = svc.Verify("not-a-jwt")
	require.ErrorIs(t, err, ErrResetTokenInvalid)

	_, err = svc.Verify("")
	require.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetTokenWrongSecretRejected(t *testing.T) {
	issuer, err := NewResetTokenService(ResetTokenConfig{Secret: "secret-a"})
	require.NoError(t, err)
	verifier, err := NewResetTokenService(ResetTokenConfig{Secret: "secret-b"})
	require.NoError(t, err)

	token, err := issuer.Issue("user-123")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetTokenRequiresSecret(t *testing.T) {
	_, err := NewResetTokenService(ResetTokenConfig{})
	require.Error(t, err)
}
