package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bcastudynepal/portal/internal/services"
	appErrors "github.com/bcastudynepal/portal/pkg/errors"
	"github.com/bcastudynepal/portal/pkg/response"
)

// AcademicsHandler exposes programmes and their subjects.
type AcademicsHandler struct {
	programs *services.ProgramService
}

func NewAcademicsHandler(programs *services.ProgramService) *AcademicsHandler {
	return &AcademicsHandler{programs: programs}
}

// GET /api/programs
func (h *AcademicsHandler) ListPrograms(c *gin.Context) {
	programs, err := h.programs.ListPrograms(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, programs)
}

// GET /api/programs/:id
func (h *AcademicsHandler) GetProgram(c *gin.Context) {
	program, err := h.programs.GetProgram(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, mapAcademicsError(err))
		return
	}
	response.Success(c, http.StatusOK, program)
}

type programRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	Slug          string `json:"slug" validate:"omitempty,max=200"`
	Description   string `json:"description"`
	DurationYears int    `json:"duration_years" validate:"omitempty,min=1,max=10"`
}

// POST /api/programs
func (h *AcademicsHandler) CreateProgram(c *gin.Context) {
	var req programRequest
	if !bindAndValidate(c, &req) {
		return
	}

	program, err := h.programs.CreateProgram(requestContext(c), services.CreateProgramInput{
		Name:          req.Name,
		Slug:          req.Slug,
		Description:   req.Description,
		DurationYears: req.DurationYears,
	})
	if err != nil {
		response.Error(c, appErrors.NewBadRequest(err.Error()))
		return
	}
	response.Success(c, http.StatusCreated, program)
}

// DELETE /api/programs/:id
func (h *AcademicsHandler) DeleteProgram(c *gin.Context) {
	if err := h.programs.DeleteProgram(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapAcademicsError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/programs/:id/subjects?semester=N
func (h *AcademicsHandler) ListSubjects(c *gin.Context) {
	program, err := h.programs.GetProgram(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, mapAcademicsError(err))
		return
	}

	semester := parseIntQuery(c, "semester", 0)
	subjects, err := h.programs.ListSubjects(requestContext(c), program.ID, semester)
	if err != nil {
		response.Error(c, mapAcademicsError(err))
		return
	}
	response.Success(c, http.StatusOK, subjects)
}

// GET /api/programs/:id/semesters
func (h *AcademicsHandler) SubjectsBySemester(c *gin.Context) {
	program, err := h.programs.GetProgram(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, mapAcademicsError(err))
		return
	}

	grouped, err := h.programs.SubjectsBySemester(requestContext(c), program.ID)
	if err != nil {
		response.Error(c, mapAcademicsError(err))
		return
	}
	response.Success(c, http.StatusOK, grouped)
}

type subjectRequest struct {
	Code        string `json:"code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required,max=200"`
	ProgramID   string `json:"program_id" validate:"required"`
	Semester    int    `json:"semester" validate:"required,min=1,max=8"`
	CreditHours int    `json:"credit_hours" validate:"omitempty,min=1,max=10"`
}

// POST /api/subjects
func (h *AcademicsHandler) CreateSubject(c *gin.Context) {
	var req subjectRequest
	if !bindAndValidate(c, &req) {
		return
	}

	subject, err := h.programs.CreateSubject(requestContext(c), services.CreateSubjectInput{
		Code:        req.Code,
		Name:        req.Name,
		ProgramID:   req.ProgramID,
		Semester:    req.Semester,
		CreditHours: req.CreditHours,
	})
	if err != nil {
		if errors.Is(err, services.ErrSubjectExists) {
			response.Error(c, appErrors.NewFieldError("code", "subject already exists for that programme and semester"))
			return
		}
		response.Error(c, mapAcademicsError(err))
		return
	}
	response.Success(c, http.StatusCreated, subject)
}

// GET /api/subjects/:id
func (h *AcademicsHandler) GetSubject(c *gin.Context) {
	subject, err := h.programs.GetSubject(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, mapAcademicsError(err))
		return
	}
	response.Success(c, http.StatusOK, subject)
}

// DELETE /api/subjects/:id
func (h *AcademicsHandler) DeleteSubject(c *gin.Context) {
	if err := h.programs.DeleteSubject(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapAcademicsError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func mapAcademicsError(err error) error {
	switch {
	case errors.Is(err, services.ErrProgramNotFound), errors.Is(err, services.ErrSubjectNotFound):
		return appErrors.ErrNotFound
	default:
		return err
	}
}
