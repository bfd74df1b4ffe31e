package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventplaza/eventplaza/internal/auth"
	"github.com/eventplaza/eventplaza/internal/flash"
	"github.com/eventplaza/eventplaza/internal/middleware"
	appErrors "github.com/eventplaza/eventplaza/pkg/errors"
	"github.com/eventplaza/eventplaza/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// failSoft surfaces an error the way a browser flow expects: recoverable
// failures become a flash notice plus a redirect back to fallback, anything
// else is an error response.
func failSoft(c *gin.Context, err error, fallback string) {
	appErr := appErrors.FromError(err)
	if appErr.Recoverable() {
		flash.Redirect(c, fallback, flash.LevelError, appErr.Message)
		return
	}
	response.Error(c, err)
}

// redirect issues a plain 302 without touching flash state.
func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

// loggedIn reports whether the request carries a live session cookie.
func loggedIn(c *gin.Context, sessions *auth.SessionService) bool {
	token, err := c.Cookie(middleware.SessionCookie)
	if err != nil || token == "" {
		return false
	}
	_, _, err = sessions.Resolve(token)
	return err == nil
}

// redirectIfLoggedIn bounces an authenticated browser off the
// unauthenticated-only pages (login, signup, password reset).
func redirectIfLoggedIn(c *gin.Context, sessions *auth.SessionService) bool {
	if !loggedIn(c, sessions) {
		return false
	}
	flash.Redirect(c, "/home", flash.LevelInfo, "You are already logged in")
	return true
}
