package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eventplaza/eventplaza/internal/auth"
	"github.com/eventplaza/eventplaza/internal/flash"
	"github.com/eventplaza/eventplaza/internal/middleware"
	"github.com/eventplaza/eventplaza/internal/services"
	"github.com/eventplaza/eventplaza/pkg/response"
)

// AuthHandler manages the signup, login, and signout flows.
type AuthHandler struct {
	users    *services.UserService
	sessions *auth.SessionService
	verifier *services.VerificationService
}

func NewAuthHandler(users *services.UserService, sessions *auth.SessionService, verifier *services.VerificationService) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, verifier: verifier}
}

type signupForm struct {
	FirstName       string `form:"first_name" validate:"required,max=60"`
	LastName        string `form:"last_name" validate:"required,max=60"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=8"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

type loginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	Remember bool   `form:"remember"`
	Next     string `form:"next"`
}

// GET /
func (h *AuthHandler) Landing(c *gin.Context) {
	if loggedIn(c, h.sessions) {
		redirect(c, "/home")
		return
	}
	response.Page(c, gin.H{"page": "landing"}, flash.Take(c))
}

// GET /signup
func (h *AuthHandler) SignupPage(c *gin.Context) {
	if redirectIfLoggedIn(c, h.sessions) {
		return
	}
	response.Page(c, gin.H{"page": "signup"}, flash.Take(c))
}

// POST /signup
func (h *AuthHandler) Signup(c *gin.Context) {
	if redirectIfLoggedIn(c, h.sessions) {
		return
	}

	var form signupForm
	if !bindAndValidate(c, &form) {
		return
	}

	user, err := h.users.Signup(requestContext(c), services.SignupInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
	})
	if err != nil {
		failSoft(c, err, "/signup")
		return
	}

	if err := h.verifier.Send(requestContext(c), user); err != nil {
		response.Error(c, err)
		return
	}

	flash.Redirect(c, "/login", flash.LevelSuccess,
		"Your account has been created! Please check your email to verify it.")
}

// GET /login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	if redirectIfLoggedIn(c, h.sessions) {
		return
	}
	response.Page(c, gin.H{"page": "login", "next": safeNext(c.Query("next"))}, flash.Take(c))
}

// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	if redirectIfLoggedIn(c, h.sessions) {
		return
	}

	var form loginForm
	if !bindAndValidate(c, &form) {
		return
	}

	user, err := h.users.Authenticate(requestContext(c), form.Email, form.Password)
	if err != nil {
		failSoft(c, err, "/login")
		return
	}

	token, _, err := h.sessions.Create(user.ID, form.Remember, auth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		failSoft(c, err, "/login")
		return
	}

	maxAge := 0
	if form.Remember {
		maxAge = int(h.sessions.RememberTTL().Seconds())
	}
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", false, true)

	target := safeNext(form.Next)
	if target == "" {
		target = "/home"
	}
	flash.Redirect(c, target, flash.LevelSuccess, "You are now logged in")
}

// GET /signout
func (h *AuthHandler) Signout(c *gin.Context) {
	if token, err := c.Cookie(middleware.SessionCookie); err == nil && token != "" {
		_ = h.sessions.Revoke(token)
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	flash.Redirect(c, "/", flash.LevelSuccess, "You have been signed out")
}

// safeNext only honours internal redirect targets so the login flow cannot
// bounce users to a foreign origin.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}
