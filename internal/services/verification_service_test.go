package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eventplaza/eventplaza/internal/database/testutil"
	"github.com/eventplaza/eventplaza/pkg/mail"
)

func TestVerificationSendBuildsLink(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	users, err := NewUserService(db)
	require.NoError(t, err)

	mailer := &recordingMailer{}
	svc, err := NewVerificationService(db, mailer, "https://events.example.com/")
	require.NoError(t, err)

	user, err := users.Signup(context.Background(), SignupInput{
		FirstName: "Alice", LastName: "Doe", Email: "alice@example.com", Password: "pw",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Send(context.Background(), user))

	sent := mailer.sent()
	require.Len(t, sent, 1)
	require.Equal(t, []string{"alice@example.com"}, sent[0].To)
	require.Equal(t, "EventPlaza - Please Verify Your Email", sent[0].Subject)
	require.Contains(t, sent[0].Body, "https://events.example.com/verify/"+user.EmailToken)
}

func TestVerificationSendPropagatesMailFailure(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	users, err := NewUserService(db)
	require.NoError(t, err)

	delivery := errors.New("smtp: connection refused")
	mailer := &recordingMailer{err: delivery}
	svc, err := NewVerificationService(db, mailer, "https://events.example.com")
	require.NoError(t, err)

	user, err := users.Signup(context.Background(), SignupInput{
		FirstName: "Alice", LastName: "Doe", Email: "alice@example.com", Password: "pw",
	})
	require.NoError(t, err)

	err = svc.Send(context.Background(), user)
	require.ErrorIs(t, err, delivery)

	// A deliberately disabled mailer still counts as success.
	mailer.err = mail.ErrSMTPDisabled
	require.NoError(t, svc.Send(context.Background(), user))
}

func TestVerificationConfirm(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	users, err := NewUserService(db)
	require.NoError(t, err)

	svc, err := NewVerificationService(db, &recordingMailer{}, "https://events.example.com")
	require.NoError(t, err)

	user, err := users.Signup(context.Background(), SignupInput{
		FirstName: "Alice", LastName: "Doe", Email: "alice@example.com", Password: "pw",
	})
	require.NoError(t, err)

	confirmed, err := svc.Confirm(context.Background(), user.EmailToken)
	require.NoError(t, err)
	require.True(t, confirmed.IsConfirmed)

	// Re-visiting the link stays a success.
	again, err := svc.Confirm(context.Background(), user.EmailToken)
	require.NoError(t, err)
	require.True(t, again.IsConfirmed)

	_, err = svc.Confirm(context.Background(), "bogus-token")
	require.ErrorIs(t, err, ErrVerificationTokenInvalid)
	_, err = svc.Confirm(context.Background(), "")
	require.ErrorIs(t, err, ErrVerificationTokenInvalid)
}

func TestVerificationReissueRotatesToken(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	users, err := NewUserService(db)
	require.NoError(t, err)

	mailer := &recordingMailer{}
	svc, err := NewVerificationService(db, mailer, "https://events.example.com")
	require.NoError(t, err)

	user, err := users.Signup(context.Background(), SignupInput{
		FirstName: "Alice", LastName: "Doe", Email: "alice@example.com", Password: "pw",
	})
	require.NoError(t, err)
	oldToken := user.EmailToken

	reissued, err := svc.Reissue(context.Background(), user, "alice+new@example.com")
	require.NoError(t, err)

	require.Equal(t, "alice+new@example.com", reissued.Email)
	require.NotEqual(t, oldToken, reissued.EmailToken)
	require.False(t, reissued.IsConfirmed)

	// The old link is dead once the token rotates.
	_, err = svc.Confirm(context.Background(), oldToken)
	require.ErrorIs(t, err, ErrVerificationTokenInvalid)

	confirmed, err := svc.Confirm(context.Background(), reissued.EmailToken)
	require.NoError(t, err)
	require.True(t, confirmed.IsConfirmed)

	sent := mailer.sent()
	require.Len(t, sent, 1)
	require.Equal(t, []string{"alice+new@example.com"}, sent[0].To)
}
