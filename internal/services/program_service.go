package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/bcastudynepal/portal/internal/models"
)

var (
	// ErrProgramNotFound indicates the requested programme does not exist.
	ErrProgramNotFound = errors.New("program service: programme not found")
	// ErrSubjectNotFound indicates the requested subject does not exist.
	ErrSubjectNotFound = errors.New("program service: subject not found")
	// ErrSubjectExists reports a duplicate subject code within a programme semester.
	ErrSubjectExists = errors.New("program service: subject already exists for programme and semester")
)

// ProgramService manages programmes and their subjects.
type ProgramService struct {
	db *gorm.DB
}

// NewProgramService constructs a programme service once a database handle is supplied.
func NewProgramService(db *gorm.DB) (*ProgramService, error) {
	if db == nil {
		return nil, errors.New("program service: db is required")
	}
	return &ProgramService{db: db}, nil
}

// CreateProgramInput captures the fields accepted when adding a programme.
type CreateProgramInput struct {
	Name          string
	Slug          string
	Description   string
	DurationYears int
}

// CreateSubjectInput captures the fields accepted when adding a subject.
type CreateSubjectInput struct {
	Code        string
	Name        string
	ProgramID   string
	Semester    int
	CreditHours int
}

// SemesterSubjects groups a semester's subjects for programme overviews.
type SemesterSubjects struct {
	Semester int              `json:"semester"`
	Subjects []models.Subject `json:"subjects"`
}

// ListPrograms returns active programmes ordered by name.
func (s *ProgramService) ListPrograms(ctx context.Context) ([]models.Program, error) {
	ctx = ensuredContext(ctx)

	var programs []models.Program
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&programs).Error; err != nil {
		return nil, fmt.Errorf("program service: list programmes: %w", err)
	}
	return programs, nil
}

// GetProgram fetches a programme by id or slug.
func (s *ProgramService) GetProgram(ctx context.Context, idOrSlug string) (*models.Program, error) {
	ctx = ensuredContext(ctx)
	idOrSlug = strings.TrimSpace(idOrSlug)

	var program models.Program
	err := s.db.WithContext(ctx).Take(&program, "id = ? OR slug = ?", idOrSlug, idOrSlug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProgramNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("program service: get programme: %w", err)
	}
	return &program, nil
}

// CreateProgram adds a programme, deriving the slug from the name when absent.
func (s *ProgramService) CreateProgram(ctx context.Context, input CreateProgramInput) (*models.Program, error) {
	ctx = ensuredContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("program service: name is required")
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = slugify(name)
	}

	duration := input.DurationYears
	if duration <= 0 {
		duration = 4
	}

	program := &models.Program{
		Name:          name,
		Slug:          slug,
		Description:   input.Description,
		DurationYears: duration,
		IsActive:      true,
	}

	if err := s.db.WithContext(ctx).Create(program).Error; err != nil {
		return nil, fmt.Errorf("program service: create programme: %w", err)
	}
	return program, nil
}

// DeleteProgram deactivates a programme rather than removing rows that
// subjects and papers still reference.
func (s *ProgramService) DeleteProgram(ctx context.Context, id string) error {
	ctx = ensuredContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.Program{}).
		Where("id = ?", strings.TrimSpace(id)).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("program service: delete programme: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProgramNotFound
	}
	return nil
}

// GetSubject fetches a subject by id.
func (s *ProgramService) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	ctx = ensuredContext(ctx)

	var subject models.Subject
	err := s.db.WithContext(ctx).Take(&subject, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("program service: get subject: %w", err)
	}
	return &subject, nil
}

// CreateSubject adds a subject to a programme semester.
func (s *ProgramService) CreateSubject(ctx context.Context, input CreateSubjectInput) (*models.Subject, error) {
	ctx = ensuredContext(ctx)

	code := strings.ToUpper(strings.TrimSpace(input.Code))
	name := strings.TrimSpace(input.Name)
	if code == "" || name == "" {
		return nil, errors.New("program service: subject code and name are required")
	}
	if input.Semester < 1 || input.Semester > 8 {
		return nil, errors.New("program service: semester must be between 1 and 8")
	}

	if _, err := s.GetProgram(ctx, input.ProgramID); err != nil {
		return nil, err
	}

	credits := input.CreditHours
	if credits <= 0 {
		credits = 3
	}

	subject := &models.Subject{
		Code:        code,
		Name:        name,
		ProgramID:   strings.TrimSpace(input.ProgramID),
		Semester:    input.Semester,
		CreditHours: credits,
		IsActive:    true,
	}

	if err := s.db.WithContext(ctx).Create(subject).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrSubjectExists
		}
		return nil, fmt.Errorf("program service: create subject: %w", err)
	}
	return subject, nil
}

// ListSubjects returns the active subjects of a programme, optionally limited
// to one semester.
func (s *ProgramService) ListSubjects(ctx context.Context, programID string, semester int) ([]models.Subject, error) {
	ctx = ensuredContext(ctx)

	if _, err := s.GetProgram(ctx, programID); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Where("program_id = ? AND is_active = ?", strings.TrimSpace(programID), true)
	if semester > 0 {
		query = query.Where("semester = ?", semester)
	}

	var subjects []models.Subject
	if err := query.Order("semester, code").Find(&subjects).Error; err != nil {
		return nil, fmt.Errorf("program service: list subjects: %w", err)
	}
	return subjects, nil
}

// SubjectsBySemester returns a programme's subjects grouped per semester in
// ascending order.
func (s *ProgramService) SubjectsBySemester(ctx context.Context, programID string) ([]SemesterSubjects, error) {
	subjects, err := s.ListSubjects(ctx, programID, 0)
	if err != nil {
		return nil, err
	}

	grouped := make(map[int][]models.Subject)
	for _, subject := range subjects {
		grouped[subject.Semester] = append(grouped[subject.Semester], subject)
	}

	semesters := make([]int, 0, len(grouped))
	for semester := range grouped {
		semesters = append(semesters, semester)
	}
	sort.Ints(semesters)

	out := make([]SemesterSubjects, 0, len(semesters))
	for _, semester := range semesters {
		out = append(out, SemesterSubjects{Semester: semester, Subjects: grouped[semester]})
	}
	return out, nil
}

// DeleteSubject deactivates a subject.
func (s *ProgramService) DeleteSubject(ctx context.Context, id string) error {
	ctx = ensuredContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.Subject{}).
		Where("id = ?", strings.TrimSpace(id)).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("program service: delete subject: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSubjectNotFound
	}
	return nil
}
