package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/eventplaza/eventplaza/internal/flash"
	"github.com/eventplaza/eventplaza/internal/middleware"
	"github.com/eventplaza/eventplaza/internal/services"
	"github.com/eventplaza/eventplaza/pkg/response"
)

// ProfileHandler serves the account page and profile edits.
type ProfileHandler struct {
	users    *services.UserService
	verifier *services.VerificationService
}

func NewProfileHandler(users *services.UserService, verifier *services.VerificationService) *ProfileHandler {
	return &ProfileHandler{users: users, verifier: verifier}
}

type profileForm struct {
	FirstName string `form:"first_name" validate:"required,max=60"`
	LastName  string `form:"last_name" validate:"required,max=60"`
	Email     string `form:"email" validate:"required,email"`
	Avatar    string `form:"avatar"`
}

// GET /profile
func (h *ProfileHandler) Page(c *gin.Context) {
	response.Page(c, gin.H{
		"page": "profile",
		"user": middleware.CurrentUser(c),
	}, flash.Take(c))
}

// POST /profile
func (h *ProfileHandler) Update(c *gin.Context) {
	var form profileForm
	if !bindAndValidate(c, &form) {
		return
	}

	user := middleware.CurrentUser(c)
	previousEmail := user.Email

	updated, err := h.users.UpdateProfile(requestContext(c), user, services.UpdateProfileInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Avatar:    form.Avatar,
	})
	if err != nil {
		failSoft(c, err, "/profile")
		return
	}

	if updated.Email != previousEmail {
		// The fresh token was minted during the update; mail the new address.
		if err := h.verifier.Send(requestContext(c), updated); err != nil {
			response.Error(c, err)
			return
		}
		flash.Redirect(c, "/profile", flash.LevelSuccess,
			"Your profile has been updated! Please verify your new email address.")
		return
	}

	flash.Redirect(c, "/profile", flash.LevelSuccess, "Your profile has been updated!")
}
