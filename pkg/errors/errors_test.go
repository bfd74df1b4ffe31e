package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorUnwrap(t *testing.T) {
	inner := stderrors.New("boom")
	err := Wrap(inner, "something failed")

	require.ErrorIs(t, err, inner)
	require.Equal(t, "something failed: boom", err.Error())
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	appErr := New("EVENT_NOT_FOUND", "Event not found", http.StatusNotFound)
	require.Equal(t, appErr, FromError(appErr))

	generic := FromError(stderrors.New("db down"))
	require.Equal(t, ErrInternalServer.Code, generic.Code)
	require.Equal(t, http.StatusInternalServerError, generic.StatusCode)
}

func TestRecoverable(t *testing.T) {
	require.True(t, ErrForbidden.Recoverable())
	require.True(t, ErrNotFound.Recoverable())
	require.False(t, ErrInternalServer.Recoverable())

	var nilErr *AppError
	require.False(t, nilErr.Recoverable())
}
