package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/bcastudynepal/portal/internal/auth"
	appErrors "github.com/bcastudynepal/portal/pkg/errors"
	"github.com/bcastudynepal/portal/pkg/response"
	appValidator "github.com/bcastudynepal/portal/pkg/validator"
)

// RegistrationHandler drives the OTP-verified sign-up flow.
type RegistrationHandler struct {
	registrations *iauth.RegistrationService
}

func NewRegistrationHandler(registrations *iauth.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// POST /api/auth/register
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req iauth.RegistrationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return
	}

	result, err := h.registrations.Begin(requestContext(c), req)
	if err != nil {
		response.Error(c, mapRegistrationError(err))
		return
	}

	payload := gin.H{
		"status":     "pending",
		"message":    "verification code sent to " + result.Email,
		"session_id": result.RegistrationID,
	}
	if !result.MailSent {
		payload["message"] = "could not send the verification email, use resend to retry"
		if result.DebugCode != "" {
			payload["debug_otp"] = result.DebugCode
		}
	}

	response.Success(c, http.StatusOK, payload)
}

type verifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

// POST /api/auth/register/verify
func (h *RegistrationHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.registrations.Verify(requestContext(c), req.Email, strings.TrimSpace(req.OTP))
	if err != nil {
		response.Error(c, mapRegistrationError(err))
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"status":  "verified",
		"message": "account created",
		"user": gin.H{
			"id":       result.User.ID,
			"username": result.User.Username,
			"email":    result.User.Email,
		},
		"access":  result.Tokens.AccessToken,
		"refresh": result.Tokens.RefreshToken,
	})
}

type registrationEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /api/auth/register/resend
func (h *RegistrationHandler) Resend(c *gin.Context) {
	var req registrationEmailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.registrations.Resend(requestContext(c), req.Email)
	if err != nil {
		response.Error(c, mapRegistrationError(err))
		return
	}

	payload := gin.H{
		"status":  "pending",
		"message": "verification code sent to " + result.Email,
	}
	if !result.MailSent {
		payload["message"] = "could not send the verification email, use resend to retry"
		if result.DebugCode != "" {
			payload["debug_otp"] = result.DebugCode
		}
	}

	response.Success(c, http.StatusOK, payload)
}

// POST /api/auth/register/cancel
func (h *RegistrationHandler) Cancel(c *gin.Context) {
	var req registrationEmailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.registrations.Cancel(requestContext(c), req.Email); err != nil {
		response.Error(c, mapRegistrationError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"status":  "cancelled",
		"message": "registration cancelled",
	})
}

func mapRegistrationError(err error) error {
	switch {
	case errors.Is(err, iauth.ErrUsernameTaken):
		return appErrors.NewFieldError("username", "a user with that username already exists")
	case errors.Is(err, iauth.ErrEmailTaken):
		return appErrors.NewFieldError("email", "a user with that email already exists")
	case errors.Is(err, iauth.ErrPasswordMismatch):
		return appErrors.NewFieldError("confirm_password", "passwords do not match")
	case errors.Is(err, iauth.ErrPasswordTooWeak):
		return appErrors.NewFieldError("password", "password must be at least 8 characters and not entirely numeric")
	case errors.Is(err, iauth.ErrNoPendingRegistration):
		return appErrors.NewBadRequest("no pending registration for that email")
	case errors.Is(err, iauth.ErrCodeExpired):
		return appErrors.NewBadRequest("verification code expired, register again")
	case errors.Is(err, iauth.ErrCodeMismatch):
		return appErrors.NewBadRequest("verification code does not match")
	default:
		var failures appValidator.ValidationErrors
		if errors.As(err, &failures) {
			return appErrors.NewBadRequest(formatValidationError(failures))
		}
		return err
	}
}
