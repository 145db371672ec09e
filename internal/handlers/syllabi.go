package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bcastudynepal/portal/internal/services"
	appErrors "github.com/bcastudynepal/portal/pkg/errors"
	"github.com/bcastudynepal/portal/pkg/response"
)

// SyllabusHandler exposes versioned curriculum documents.
type SyllabusHandler struct {
	syllabi *services.SyllabusService
}

func NewSyllabusHandler(syllabi *services.SyllabusService) *SyllabusHandler {
	return &SyllabusHandler{syllabi: syllabi}
}

// GET /api/syllabi
func (h *SyllabusHandler) List(c *gin.Context) {
	syllabi, err := h.syllabi.List(requestContext(c), services.ListSyllabiOptions{
		SubjectID:   c.Query("subject"),
		CurrentOnly: c.Query("current") == "true",
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, syllabi)
}

// GET /api/subjects/:id/syllabus
func (h *SyllabusHandler) CurrentForSubject(c *gin.Context) {
	syllabus, err := h.syllabi.Current(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, mapSyllabusError(err))
		return
	}
	response.Success(c, http.StatusOK, syllabus)
}

// GET /api/syllabi/:id
func (h *SyllabusHandler) Get(c *gin.Context) {
	syllabus, err := h.syllabi.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, mapSyllabusError(err))
		return
	}
	response.Success(c, http.StatusOK, syllabus)
}

type syllabusRequest struct {
	SubjectID   string `json:"subject_id" validate:"required"`
	FileURL     string `json:"file_url" validate:"required,url"`
	Version     string `json:"version" validate:"required,max=50"`
	Description string `json:"description"`
}

// POST /api/syllabi
func (h *SyllabusHandler) Create(c *gin.Context) {
	var req syllabusRequest
	if !bindAndValidate(c, &req) {
		return
	}

	syllabus, err := h.syllabi.Create(requestContext(c), services.CreateSyllabusInput{
		SubjectID:    req.SubjectID,
		FileURL:      req.FileURL,
		Version:      req.Version,
		Description:  req.Description,
		UploadedByID: c.GetString("userID"),
	})
	if err != nil {
		response.Error(c, mapSyllabusError(err))
		return
	}
	response.Success(c, http.StatusCreated, syllabus)
}

// POST /api/syllabi/:id/current
func (h *SyllabusHandler) SetCurrent(c *gin.Context) {
	syllabus, err := h.syllabi.SetCurrent(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, mapSyllabusError(err))
		return
	}
	response.Success(c, http.StatusOK, syllabus)
}

// POST /api/syllabi/:id/view
func (h *SyllabusHandler) RecordView(c *gin.Context) {
	if err := h.syllabi.IncrementView(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapSyllabusError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"recorded": true})
}

// POST /api/syllabi/:id/download
func (h *SyllabusHandler) RecordDownload(c *gin.Context) {
	if err := h.syllabi.IncrementDownload(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapSyllabusError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"recorded": true})
}

// DELETE /api/syllabi/:id
func (h *SyllabusHandler) Delete(c *gin.Context) {
	if err := h.syllabi.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapSyllabusError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func mapSyllabusError(err error) error {
	switch {
	case errors.Is(err, services.ErrSyllabusNotFound), errors.Is(err, services.ErrSubjectNotFound):
		return appErrors.ErrNotFound
	default:
		return err
	}
}
