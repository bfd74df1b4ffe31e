package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/eventplaza/eventplaza/internal/auth"
	"github.com/eventplaza/eventplaza/internal/flash"
	"github.com/eventplaza/eventplaza/internal/models"
	apperrors "github.com/eventplaza/eventplaza/pkg/errors"
)

// SessionCookie carries the opaque session token between requests.
const SessionCookie = "ep_session"

const (
	userKey    = "auth.user"
	sessionKey = "auth.session"
)

// RequireUser resolves the session cookie and stores the user on the
// context. Unauthenticated requests are flashed and bounced to the login
// page with the original path preserved for the post-login redirect.
func RequireUser(sessions *auth.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			redirectToLogin(c)
			return
		}

		session, user, err := sessions.Resolve(token)
		if err != nil {
			c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
			redirectToLogin(c)
			return
		}

		c.Set(userKey, user)
		c.Set(sessionKey, session)
		c.Next()
	}
}

// RequireVerified bounces users with an unconfirmed email to the
// verification page. Must run after RequireUser.
func RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			redirectToLogin(c)
			return
		}
		if !user.IsConfirmed {
			c.Redirect(http.StatusFound, "/verify")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by RequireUser, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if value, ok := c.Get(userKey); ok {
		if user, ok := value.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentSession returns the resolved session set by RequireUser, or nil.
func CurrentSession(c *gin.Context) *models.Session {
	if value, ok := c.Get(sessionKey); ok {
		if session, ok := value.(*models.Session); ok {
			return session
		}
	}
	return nil
}

func redirectToLogin(c *gin.Context) {
	target := "/login"
	if next := c.Request.URL.Path; next != "" && next != "/" {
		target += "?next=" + url.QueryEscape(next)
	}
	flash.Redirect(c, target, flash.LevelError, apperrors.ErrUnauthorized.Message)
	c.Abort()
}
