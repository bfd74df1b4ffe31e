package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/eventplaza/eventplaza/internal/flash"
	"github.com/eventplaza/eventplaza/internal/middleware"
	"github.com/eventplaza/eventplaza/internal/services"
	"github.com/eventplaza/eventplaza/pkg/response"
)

// VerifyHandler serves the email verification gate and confirmation links.
type VerifyHandler struct {
	verifier *services.VerificationService
}

func NewVerifyHandler(verifier *services.VerificationService) *VerifyHandler {
	return &VerifyHandler{verifier: verifier}
}

type resendForm struct {
	Email string `form:"email" validate:"omitempty,email"`
}

// GET /verify
func (h *VerifyHandler) Page(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user.IsConfirmed {
		redirect(c, "/home")
		return
	}

	response.Page(c, gin.H{
		"page":  "verify",
		"email": user.Email,
	}, flash.Take(c))
}

// POST /verify
func (h *VerifyHandler) Resend(c *gin.Context) {
	var form resendForm
	if !bindAndValidate(c, &form) {
		return
	}

	user := middleware.CurrentUser(c)
	if _, err := h.verifier.Reissue(requestContext(c), user, form.Email); err != nil {
		failSoft(c, err, "/verify")
		return
	}

	flash.Redirect(c, "/verify", flash.LevelSuccess,
		"A new verification email has been sent")
}

// GET /verify/:token
func (h *VerifyHandler) Confirm(c *gin.Context) {
	if _, err := h.verifier.Confirm(requestContext(c), c.Param("token")); err != nil {
		failSoft(c, err, "/login")
		return
	}

	flash.Redirect(c, "/login", flash.LevelSuccess, "Your email has been verified!")
}
