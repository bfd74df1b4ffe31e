package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/eventplaza/eventplaza/internal/auth"
	"github.com/eventplaza/eventplaza/internal/flash"
	"github.com/eventplaza/eventplaza/internal/services"
	"github.com/eventplaza/eventplaza/pkg/response"
)

// PasswordHandler serves the forgot-password pages and actions. The whole
// flow is unauthenticated-only, so every route bounces logged-in browsers.
type PasswordHandler struct {
	resets   *services.PasswordResetService
	sessions *auth.SessionService
}

func NewPasswordHandler(resets *services.PasswordResetService, sessions *auth.SessionService) *PasswordHandler {
	return &PasswordHandler{resets: resets, sessions: sessions}
}

type requestResetForm struct {
	Email string `form:"email" validate:"required,email"`
}

type completeResetForm struct {
	Password        string `form:"password" validate:"required,min=8"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// GET /reset_password
func (h *PasswordHandler) RequestPage(c *gin.Context) {
	if redirectIfLoggedIn(c, h.sessions) {
		return
	}
	response.Page(c, gin.H{"page": "reset_password_request"}, flash.Take(c))
}

// POST /reset_password
func (h *PasswordHandler) Request(c *gin.Context) {
	if redirectIfLoggedIn(c, h.sessions) {
		return
	}

	var form requestResetForm
	if !bindAndValidate(c, &form) {
		return
	}

	if err := h.resets.RequestReset(requestContext(c), form.Email); err != nil {
		failSoft(c, err, "/reset_password")
		return
	}

	// The same notice goes out whether or not the account exists.
	flash.Redirect(c, "/login", flash.LevelSuccess,
		"An email has been sent with instructions to reset your password")
}

// GET /reset_password/:token
func (h *PasswordHandler) CompletePage(c *gin.Context) {
	if redirectIfLoggedIn(c, h.sessions) {
		return
	}

	token := c.Param("token")

	if _, err := h.resets.VerifyToken(requestContext(c), token); err != nil {
		failSoft(c, err, "/reset_password")
		return
	}

	response.Page(c, gin.H{"page": "reset_password", "token": token}, flash.Take(c))
}

// POST /reset_password/:token
func (h *PasswordHandler) Complete(c *gin.Context) {
	if redirectIfLoggedIn(c, h.sessions) {
		return
	}

	token := c.Param("token")

	var form completeResetForm
	if !bindAndValidate(c, &form) {
		return
	}

	if _, err := h.resets.Complete(requestContext(c), token, form.Password); err != nil {
		failSoft(c, err, "/reset_password")
		return
	}

	flash.Redirect(c, "/login", flash.LevelSuccess,
		"Your password has been updated! You are now able to log in")
}
