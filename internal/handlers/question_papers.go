package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bcastudynepal/portal/internal/services"
	appErrors "github.com/bcastudynepal/portal/pkg/errors"
	"github.com/bcastudynepal/portal/pkg/response"
)

// QuestionPaperHandler exposes exam papers and their review workflow.
type QuestionPaperHandler struct {
	papers *services.QuestionPaperService
}

func NewQuestionPaperHandler(papers *services.QuestionPaperService) *QuestionPaperHandler {
	return &QuestionPaperHandler{papers: papers}
}

// GET /api/question-papers
func (h *QuestionPaperHandler) List(c *gin.Context) {
	papers, err := h.papers.List(requestContext(c), services.ListPapersOptions{
		SubjectID: c.Query("subject"),
		Year:      parseIntQuery(c, "year", 0),
		Semester:  parseIntQuery(c, "semester", 0),
		Status:    c.Query("status"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, papers)
}

// GET /api/subjects/:id/question-papers?year=N
func (h *QuestionPaperHandler) BySubject(c *gin.Context) {
	papers, err := h.papers.BySubject(requestContext(c), c.Param("id"), parseIntQuery(c, "year", 0))
	if err != nil {
		response.Error(c, mapPaperError(err))
		return
	}
	response.Success(c, http.StatusOK, papers)
}

// GET /api/question-papers/:id
func (h *QuestionPaperHandler) Get(c *gin.Context) {
	paper, err := h.papers.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, mapPaperError(err))
		return
	}
	response.Success(c, http.StatusOK, paper)
}

type paperRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	Year      int    `json:"year" validate:"required,min=2000"`
	Semester  int    `json:"semester" validate:"required,min=1,max=8"`
	FileURL   string `json:"file_url" validate:"required,url"`
}

// POST /api/question-papers
func (h *QuestionPaperHandler) Create(c *gin.Context) {
	var req paperRequest
	if !bindAndValidate(c, &req) {
		return
	}

	paper, err := h.papers.Create(requestContext(c), services.CreatePaperInput{
		SubjectID:    req.SubjectID,
		Year:         req.Year,
		Semester:     req.Semester,
		FileURL:      req.FileURL,
		UploadedByID: c.GetString("userID"),
	})
	if err != nil {
		if errors.Is(err, services.ErrPaperExists) {
			response.Error(c, appErrors.NewFieldError("year", "a paper already exists for that subject, year and semester"))
			return
		}
		response.Error(c, mapPaperError(err))
		return
	}
	response.Success(c, http.StatusCreated, paper)
}

type paperStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// PATCH /api/question-papers/:id/status
func (h *QuestionPaperHandler) SetStatus(c *gin.Context) {
	var req paperStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}

	paper, err := h.papers.SetStatus(requestContext(c), c.Param("id"), req.Status, c.GetString("userID"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidPaperStatus) {
			response.Error(c, appErrors.NewFieldError("status", "status must be PENDING, VERIFIED or REJECTED"))
			return
		}
		response.Error(c, mapPaperError(err))
		return
	}
	response.Success(c, http.StatusOK, paper)
}

// POST /api/question-papers/:id/view
func (h *QuestionPaperHandler) RecordView(c *gin.Context) {
	if err := h.papers.IncrementView(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapPaperError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"recorded": true})
}

// POST /api/question-papers/:id/download
func (h *QuestionPaperHandler) RecordDownload(c *gin.Context) {
	if err := h.papers.IncrementDownload(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapPaperError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"recorded": true})
}

// DELETE /api/question-papers/:id
func (h *QuestionPaperHandler) Delete(c *gin.Context) {
	if err := h.papers.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapPaperError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func mapPaperError(err error) error {
	switch {
	case errors.Is(err, services.ErrPaperNotFound), errors.Is(err, services.ErrSubjectNotFound):
		return appErrors.ErrNotFound
	default:
		return err
	}
}
