package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/eventplaza/eventplaza/internal/auth"
	"github.com/eventplaza/eventplaza/internal/database/testutil"
	"github.com/eventplaza/eventplaza/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupAuthRouter(t *testing.T) (*gin.Engine, *auth.SessionService, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	sessions, err := auth.NewSessionService(db, auth.SessionConfig{})
	require.NoError(t, err)

	router := gin.New()
	authed := router.Group("", RequireUser(sessions))
	authed.GET("/me", func(c *gin.Context) {
		user := CurrentUser(c)
		require.NotNil(t, user)
		c.String(http.StatusOK, user.Email)
	})
	verified := authed.Group("", RequireVerified())
	verified.GET("/home", func(c *gin.Context) {
		c.String(http.StatusOK, "home")
	})

	return router, sessions, db
}

func createAuthUser(t *testing.T, db *gorm.DB, confirmed bool) *models.User {
	t.Helper()

	user := &models.User{
		Email:       "alice@example.com",
		Password:    "hash",
		FirstName:   "Alice",
		LastName:    "Doe",
		IsConfirmed: confirmed,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestRequireUserWithoutCookieRedirects(t *testing.T) {
	router, _, _ := setupAuthRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login?next=%2Fme", rec.Header().Get("Location"))
}

func TestRequireUserResolvesSession(t *testing.T) {
	router, sessions, db := setupAuthRouter(t)
	user := createAuthUser(t, db, true)

	token, _, err := sessions.Create(user.ID, false, auth.SessionMetadata{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice@example.com", rec.Body.String())
}

func TestRequireUserRevokedSessionRedirects(t *testing.T) {
	router, sessions, db := setupAuthRouter(t)
	user := createAuthUser(t, db, true)

	token, _, err := sessions.Create(user.ID, false, auth.SessionMetadata{})
	require.NoError(t, err)
	require.NoError(t, sessions.Revoke(token))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)

	// The dead cookie is also cleared.
	cleared := false
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == SessionCookie && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	require.True(t, cleared)
}

func TestRequireVerifiedBouncesUnconfirmed(t *testing.T) {
	router, sessions, db := setupAuthRouter(t)
	user := createAuthUser(t, db, false)

	token, _, err := sessions.Create(user.ID, false, auth.SessionMetadata{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/verify", rec.Header().Get("Location"))
}

func TestRequireVerifiedPassesConfirmed(t *testing.T) {
	router, sessions, db := setupAuthRouter(t)
	user := createAuthUser(t, db, true)

	token, _, err := sessions.Create(user.ID, false, auth.SessionMetadata{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "home", rec.Body.String())
}
