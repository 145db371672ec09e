package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bcastudynepal/portal/internal/services"
	appErrors "github.com/bcastudynepal/portal/pkg/errors"
	"github.com/bcastudynepal/portal/pkg/response"
)

// ResourceHandler exposes the curated resource directory, submissions and
// favourites.
type ResourceHandler struct {
	resources *services.ResourceService
}

func NewResourceHandler(resources *services.ResourceService) *ResourceHandler {
	return &ResourceHandler{resources: resources}
}

// GET /api/resources/categories
func (h *ResourceHandler) ListCategories(c *gin.Context) {
	categories, err := h.resources.ListCategories(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, categories)
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Icon        string `json:"icon" validate:"omitempty,max=100"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// POST /api/resources/categories
func (h *ResourceHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	category, err := h.resources.CreateCategory(requestContext(c), req.Name, req.Icon, req.Description, req.Order)
	if err != nil {
		response.Error(c, appErrors.NewBadRequest(err.Error()))
		return
	}
	response.Success(c, http.StatusCreated, category)
}

// GET /api/resources/tags
func (h *ResourceHandler) ListTags(c *gin.Context) {
	tags, err := h.resources.ListTags(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, tags)
}

// GET /api/resources
func (h *ResourceHandler) List(c *gin.Context) {
	resources, err := h.resources.ListResources(requestContext(c), services.ListResourcesOptions{
		CategorySlug: c.Query("category"),
		TagSlug:      c.Query("tag"),
		Search:       c.Query("search"),
		FeaturedOnly: c.Query("featured") == "true",
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, resources)
}

// GET /api/resources/:id
func (h *ResourceHandler) Get(c *gin.Context) {
	resource, err := h.resources.GetResource(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, mapResourceError(err))
		return
	}
	response.Success(c, http.StatusOK, resource)
}

type resourceRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"omitempty,max=500"`
	URL         string   `json:"url" validate:"required,url"`
	FaviconURL  string   `json:"favicon_url" validate:"omitempty,url"`
	CategoryID  string   `json:"category_id" validate:"required"`
	Tags        []string `json:"tags"`
	Featured    bool     `json:"featured"`
	Priority    int      `json:"priority"`
}

// POST /api/resources
func (h *ResourceHandler) Create(c *gin.Context) {
	var req resourceRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resource, err := h.resources.CreateResource(requestContext(c), services.CreateResourceInput{
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		FaviconURL:  req.FaviconURL,
		CategoryID:  req.CategoryID,
		TagNames:    req.Tags,
		Featured:    req.Featured,
		Priority:    req.Priority,
	})
	if err != nil {
		response.Error(c, mapResourceError(err))
		return
	}
	response.Success(c, http.StatusCreated, resource)
}

// POST /api/resources/:id/view
func (h *ResourceHandler) RecordView(c *gin.Context) {
	if err := h.resources.IncrementView(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapResourceError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"recorded": true})
}

// DELETE /api/resources/:id
func (h *ResourceHandler) Delete(c *gin.Context) {
	if err := h.resources.DeleteResource(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapResourceError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/resources/:id/favorite
func (h *ResourceHandler) ToggleFavorite(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	active, err := h.resources.ToggleFavorite(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, mapResourceError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"favorited": active})
}

// GET /api/resources/favorites
func (h *ResourceHandler) ListFavorites(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	favorites, err := h.resources.ListFavorites(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, favorites)
}

type submitResourceRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	URL         string `json:"url" validate:"required,url"`
	CategoryID  string `json:"category_id" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
}

// POST /api/resources/submissions
func (h *ResourceHandler) Submit(c *gin.Context) {
	var req submitResourceRequest
	if !bindAndValidate(c, &req) {
		return
	}

	submission, err := h.resources.Submit(requestContext(c), services.SubmitResourceInput{
		Title:          req.Title,
		Description:    req.Description,
		URL:            req.URL,
		CategoryID:     req.CategoryID,
		SubmittedByID:  c.GetString("userID"),
		SubmitterEmail: req.Email,
	})
	if err != nil {
		response.Error(c, mapResourceError(err))
		return
	}
	response.Success(c, http.StatusCreated, submission)
}

// GET /api/resources/submissions?status=PENDING
func (h *ResourceHandler) ListSubmissions(c *gin.Context) {
	submissions, err := h.resources.ListSubmissions(requestContext(c), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, submissions)
}

type reviewSubmissionRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes"`
}

// POST /api/resources/submissions/:id/review
func (h *ResourceHandler) ReviewSubmission(c *gin.Context) {
	var req reviewSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return
	}

	published, err := h.resources.Review(requestContext(c), c.Param("id"), c.GetString("userID"), req.Approve, req.Notes)
	if err != nil {
		if errors.Is(err, services.ErrSubmissionReviewed) {
			response.Error(c, appErrors.NewBadRequest("submission has already been reviewed"))
			return
		}
		response.Error(c, mapResourceError(err))
		return
	}

	payload := gin.H{"approved": req.Approve}
	if published != nil {
		payload["resource"] = published
	}
	response.Success(c, http.StatusOK, payload)
}

func mapResourceError(err error) error {
	switch {
	case errors.Is(err, services.ErrResourceNotFound),
		errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrSubmissionNotFound):
		return appErrors.ErrNotFound
	default:
		return err
	}
}
