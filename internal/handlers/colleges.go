package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bcastudynepal/portal/internal/services"
	appErrors "github.com/bcastudynepal/portal/pkg/errors"
	"github.com/bcastudynepal/portal/pkg/response"
)

// CollegeHandler exposes the institution directory.
type CollegeHandler struct {
	colleges *services.CollegeService
}

func NewCollegeHandler(colleges *services.CollegeService) *CollegeHandler {
	return &CollegeHandler{colleges: colleges}
}

// GET /api/colleges
func (h *CollegeHandler) List(c *gin.Context) {
	colleges, err := h.colleges.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, colleges)
}

// GET /api/colleges/:id
func (h *CollegeHandler) Get(c *gin.Context) {
	college, err := h.colleges.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, mapCollegeError(err))
		return
	}
	response.Success(c, http.StatusOK, college)
}

type collegeRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	Address         string `json:"address" validate:"omitempty,max=300"`
	Website         string `json:"website" validate:"omitempty,url"`
	Phone           string `json:"phone" validate:"omitempty,max=20"`
	Email           string `json:"email" validate:"omitempty,email"`
	Description     string `json:"description"`
	EstablishedYear *int   `json:"established_year" validate:"omitempty,min=1900"`
	LogoURL         string `json:"logo_url" validate:"omitempty,url"`
}

// POST /api/colleges
func (h *CollegeHandler) Create(c *gin.Context) {
	var req collegeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	college, err := h.colleges.Create(requestContext(c), services.CreateCollegeInput{
		Name:            req.Name,
		Address:         req.Address,
		Website:         req.Website,
		Phone:           req.Phone,
		Email:           req.Email,
		Description:     req.Description,
		EstablishedYear: req.EstablishedYear,
		LogoURL:         req.LogoURL,
		CreatedByID:     c.GetString("userID"),
	})
	if err != nil {
		response.Error(c, appErrors.NewBadRequest(err.Error()))
		return
	}
	response.Success(c, http.StatusCreated, college)
}

type collegeUpdateRequest struct {
	Name            *string `json:"name" validate:"omitempty,max=200"`
	Address         *string `json:"address" validate:"omitempty,max=300"`
	Website         *string `json:"website" validate:"omitempty,url"`
	Phone           *string `json:"phone" validate:"omitempty,max=20"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Description     *string `json:"description"`
	EstablishedYear *int    `json:"established_year" validate:"omitempty,min=1900"`
	LogoURL         *string `json:"logo_url" validate:"omitempty,url"`
}

// PATCH /api/colleges/:id
func (h *CollegeHandler) Update(c *gin.Context) {
	var req collegeUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	college, err := h.colleges.Update(requestContext(c), c.Param("id"), services.UpdateCollegeInput{
		Name:            req.Name,
		Address:         req.Address,
		Website:         req.Website,
		Phone:           req.Phone,
		Email:           req.Email,
		Description:     req.Description,
		EstablishedYear: req.EstablishedYear,
		LogoURL:         req.LogoURL,
		UpdatedByID:     c.GetString("userID"),
	})
	if err != nil {
		response.Error(c, mapCollegeError(err))
		return
	}
	response.Success(c, http.StatusOK, college)
}

// DELETE /api/colleges/:id
func (h *CollegeHandler) Delete(c *gin.Context) {
	if err := h.colleges.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapCollegeError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func mapCollegeError(err error) error {
	if errors.Is(err, services.ErrCollegeNotFound) {
		return appErrors.ErrNotFound
	}
	return err
}
