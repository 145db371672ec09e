package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bcastudynepal/portal/internal/services"
	appErrors "github.com/bcastudynepal/portal/pkg/errors"
	"github.com/bcastudynepal/portal/pkg/response"
)

// NoteHandler exposes uploaded study notes.
type NoteHandler struct {
	notes *services.NoteService
}

func NewNoteHandler(notes *services.NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

// GET /api/notes
func (h *NoteHandler) List(c *gin.Context) {
	notes, err := h.notes.List(requestContext(c), services.ListNotesOptions{
		SubjectID: c.Query("subject"),
		Semester:  parseIntQuery(c, "semester", 0),
		Search:    c.Query("search"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, notes)
}

// GET /api/subjects/:id/notes
func (h *NoteHandler) BySubject(c *gin.Context) {
	notes, err := h.notes.BySubject(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, mapNoteError(err))
		return
	}
	response.Success(c, http.StatusOK, notes)
}

// GET /api/notes/:id
func (h *NoteHandler) Get(c *gin.Context) {
	note, err := h.notes.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, mapNoteError(err))
		return
	}
	response.Success(c, http.StatusOK, note)
}

type noteRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	SubjectID   string `json:"subject_id" validate:"required"`
	Semester    int    `json:"semester" validate:"required,min=1,max=8"`
	Description string `json:"description"`
	FileURL     string `json:"file_url" validate:"required,url"`
}

// POST /api/notes
func (h *NoteHandler) Create(c *gin.Context) {
	var req noteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	note, err := h.notes.Create(requestContext(c), services.CreateNoteInput{
		Title:        req.Title,
		SubjectID:    req.SubjectID,
		Semester:     req.Semester,
		Description:  req.Description,
		FileURL:      req.FileURL,
		UploadedByID: c.GetString("userID"),
	})
	if err != nil {
		response.Error(c, mapNoteError(err))
		return
	}
	response.Success(c, http.StatusCreated, note)
}

type noteVerifyRequest struct {
	Verified bool `json:"verified"`
}

// PATCH /api/notes/:id/verify
func (h *NoteHandler) SetVerified(c *gin.Context) {
	var req noteVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return
	}

	if err := h.notes.SetVerified(requestContext(c), c.Param("id"), req.Verified); err != nil {
		response.Error(c, mapNoteError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"verified": req.Verified})
}

// DELETE /api/notes/:id
func (h *NoteHandler) Delete(c *gin.Context) {
	if err := h.notes.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapNoteError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func mapNoteError(err error) error {
	switch {
	case errors.Is(err, services.ErrNoteNotFound), errors.Is(err, services.ErrSubjectNotFound):
		return appErrors.ErrNotFound
	default:
		return err
	}
}
