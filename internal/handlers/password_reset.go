package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/bcastudynepal/portal/internal/auth"
	appErrors "github.com/bcastudynepal/portal/pkg/errors"
	"github.com/bcastudynepal/portal/pkg/response"
)

// PasswordResetHandler drives the forgotten-password flow.
type PasswordResetHandler struct {
	resets *iauth.PasswordResetService
}

func NewPasswordResetHandler(resets *iauth.PasswordResetService) *PasswordResetHandler {
	return &PasswordResetHandler{resets: resets}
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /api/auth/password-reset
//
// The response is identical whether or not an account exists for the email,
// so the endpoint cannot be used to enumerate addresses.
func (h *PasswordResetHandler) Request(c *gin.Context) {
	var req passwordResetRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.resets.Request(requestContext(c), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload := gin.H{
		"status":  "sent",
		"message": "password reset instructions sent if the email exists",
	}
	if result.DebugToken != "" {
		payload["debug_token"] = result.DebugToken
	}

	response.Success(c, http.StatusOK, payload)
}

type passwordResetConfirmRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// POST /api/auth/password-reset/confirm
func (h *PasswordResetHandler) Confirm(c *gin.Context) {
	var req passwordResetConfirmRequest
	if !bindAndValidate(c, &req) {
		return
	}

	err := h.resets.Confirm(requestContext(c), req.Email, req.Token, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		response.Error(c, mapPasswordResetError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"status":  "reset",
		"message": "password updated",
	})
}

func mapPasswordResetError(err error) error {
	switch {
	case errors.Is(err, iauth.ErrPasswordMismatch):
		return appErrors.NewFieldError("confirm_password", "passwords do not match")
	case errors.Is(err, iauth.ErrPasswordTooWeak):
		return appErrors.NewFieldError("new_password", "password must be at least 8 characters and not entirely numeric")
	case errors.Is(err, iauth.ErrNoPendingReset),
		errors.Is(err, iauth.ErrResetTokenExpired),
		errors.Is(err, iauth.ErrResetTokenMismatch):
		// One message for every token failure so the endpoint leaks nothing
		// about which emails have resets in flight.
		return appErrors.NewBadRequest("invalid or expired reset token")
	default:
		return err
	}
}
