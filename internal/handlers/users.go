package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bcastudynepal/portal/internal/services"
	appErrors "github.com/bcastudynepal/portal/pkg/errors"
	"github.com/bcastudynepal/portal/pkg/response"
)

// UserHandler exposes the current account and its profile.
type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	user, err := h.users.GetByID(requestContext(c), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}

type updateProfileRequest struct {
	FirstName   *string  `json:"first_name" validate:"omitempty,max=150"`
	LastName    *string  `json:"last_name" validate:"omitempty,max=150"`
	Avatar      *string  `json:"avatar"`
	PhoneNumber *string  `json:"phone_number" validate:"omitempty,max=20"`
	College     *string  `json:"college"`
	Semester    *int     `json:"semester" validate:"omitempty,min=1,max=8"`
	Bio         *string  `json:"bio" validate:"omitempty,max=500"`
	FacebookURL *string  `json:"facebook_url" validate:"omitempty,url"`
	TwitterURL  *string  `json:"twitter_url" validate:"omitempty,url"`
	LinkedinURL *string  `json:"linkedin_url" validate:"omitempty,url"`
	GithubURL   *string  `json:"github_url" validate:"omitempty,url"`
	Interests   []string `json:"interests"`
	Skills      []string `json:"skills"`
}

// PATCH /api/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	_, err := h.users.UpdateProfile(requestContext(c), userID, services.UpdateProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Avatar:      req.Avatar,
		PhoneNumber: req.PhoneNumber,
		College:     req.College,
		Semester:    req.Semester,
		Bio:         req.Bio,
		FacebookURL: req.FacebookURL,
		TwitterURL:  req.TwitterURL,
		LinkedinURL: req.LinkedinURL,
		GithubURL:   req.GithubURL,
		Interests:   req.Interests,
		Skills:      req.Skills,
	})
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.NewBadRequest(err.Error()))
		return
	}

	user, err := h.users.GetByID(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// POST /api/users/me/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	err := h.users.ChangePassword(requestContext(c), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, appErrors.ErrInvalidCredentials) {
			response.Error(c, appErrors.NewFieldError("current_password", "current password is incorrect"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"changed": true})
}
