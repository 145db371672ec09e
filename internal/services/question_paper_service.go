package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/bcastudynepal/portal/internal/models"
)

var (
	// ErrPaperNotFound indicates the requested question paper does not exist.
	ErrPaperNotFound = errors.New("question paper service: paper not found")
	// ErrPaperExists reports a duplicate paper for a subject, year and semester.
	ErrPaperExists = errors.New("question paper service: paper already exists for subject, year and semester")
	// ErrInvalidPaperStatus rejects unknown verification states.
	ErrInvalidPaperStatus = errors.New("question paper service: invalid status")
)

// QuestionPaperService manages exam papers and their verification workflow.
type QuestionPaperService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewQuestionPaperService constructs a question paper service.
func NewQuestionPaperService(db *gorm.DB) (*QuestionPaperService, error) {
	if db == nil {
		return nil, errors.New("question paper service: db is required")
	}
	return &QuestionPaperService{db: db, now: time.Now}, nil
}

// CreatePaperInput captures the fields accepted when uploading a paper.
type CreatePaperInput struct {
	SubjectID    string
	Year         int
	Semester     int
	FileURL      string
	UploadedByID string
}

// ListPapersOptions filters the paper listing.
type ListPapersOptions struct {
	SubjectID string
	Year      int
	Semester  int
	Status    string
}

// List returns papers newest-year first.
func (s *QuestionPaperService) List(ctx context.Context, opts ListPapersOptions) ([]models.QuestionPaper, error) {
	ctx = ensuredContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.QuestionPaper{}).Preload("Subject")
	if subjectID := strings.TrimSpace(opts.SubjectID); subjectID != "" {
		query = query.Where("subject_id = ?", subjectID)
	}
	if opts.Year > 0 {
		query = query.Where("year = ?", opts.Year)
	}
	if opts.Semester > 0 {
		query = query.Where("semester = ?", opts.Semester)
	}
	if status := strings.ToUpper(strings.TrimSpace(opts.Status)); status != "" {
		query = query.Where("status = ?", status)
	}

	var papers []models.QuestionPaper
	if err := query.Order("year DESC, semester").Find(&papers).Error; err != nil {
		return nil, fmt.Errorf("question paper service: list: %w", err)
	}
	return papers, nil
}

// BySubject returns the papers of one subject, optionally limited to a year.
// An unknown subject is reported as such rather than as an empty result.
func (s *QuestionPaperService) BySubject(ctx context.Context, subjectID string, year int) ([]models.QuestionPaper, error) {
	ctx = ensuredContext(ctx)

	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, errors.New("question paper service: subject id is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Subject{}).Where("id = ?", subjectID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("question paper service: check subject: %w", err)
	}
	if count == 0 {
		return nil, ErrSubjectNotFound
	}

	return s.List(ctx, ListPapersOptions{SubjectID: subjectID, Year: year})
}

// Get fetches a paper by id.
func (s *QuestionPaperService) Get(ctx context.Context, id string) (*models.QuestionPaper, error) {
	ctx = ensuredContext(ctx)

	var paper models.QuestionPaper
	err := s.db.WithContext(ctx).Preload("Subject").Take(&paper, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaperNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("question paper service: get: %w", err)
	}
	return &paper, nil
}

// Create uploads a paper in the pending state.
func (s *QuestionPaperService) Create(ctx context.Context, input CreatePaperInput) (*models.QuestionPaper, error) {
	ctx = ensuredContext(ctx)

	if input.Year < 2000 {
		return nil, errors.New("question paper service: year must be 2000 or later")
	}
	if input.Semester < 1 || input.Semester > 8 {
		return nil, errors.New("question paper service: semester must be between 1 and 8")
	}
	fileURL := strings.TrimSpace(input.FileURL)
	if fileURL == "" {
		return nil, errors.New("question paper service: file url is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Subject{}).Where("id = ?", strings.TrimSpace(input.SubjectID)).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("question paper service: check subject: %w", err)
	}
	if count == 0 {
		return nil, ErrSubjectNotFound
	}

	paper := &models.QuestionPaper{
		SubjectID: strings.TrimSpace(input.SubjectID),
		Year:      input.Year,
		Semester:  input.Semester,
		FileURL:   fileURL,
		Status:    models.PaperStatusPending,
	}
	if uploader := strings.TrimSpace(input.UploadedByID); uploader != "" {
		paper.UploadedByID = &uploader
	}

	if err := s.db.WithContext(ctx).Create(paper).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrPaperExists
		}
		return nil, fmt.Errorf("question paper service: create: %w", err)
	}
	return paper, nil
}

// SetStatus moves a paper through the review workflow. Verifying a paper
// records who verified it and when; when no verifier is supplied the uploader
// is credited, matching the original review shortcut.
func (s *QuestionPaperService) SetStatus(ctx context.Context, id, status, verifierID string) (*models.QuestionPaper, error) {
	ctx = ensuredContext(ctx)

	status = strings.ToUpper(strings.TrimSpace(status))
	switch status {
	case models.PaperStatusPending, models.PaperStatusVerified, models.PaperStatusRejected:
	default:
		return nil, ErrInvalidPaperStatus
	}

	paper, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"status": status}
	if status == models.PaperStatusVerified {
		verifier := strings.TrimSpace(verifierID)
		if verifier == "" && paper.UploadedByID != nil {
			verifier = *paper.UploadedByID
		}
		if verifier != "" {
			updates["verified_by_id"] = verifier
		}
		updates["verified_date"] = s.now()
	}

	if err := s.db.WithContext(ctx).Model(paper).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("question paper service: set status: %w", err)
	}
	return paper, nil
}

// IncrementView bumps the view counter atomically.
func (s *QuestionPaperService) IncrementView(ctx context.Context, id string) error {
	return s.incrementCounter(ctx, id, "view_count")
}

// IncrementDownload bumps the download counter atomically.
func (s *QuestionPaperService) IncrementDownload(ctx context.Context, id string) error {
	return s.incrementCounter(ctx, id, "download_count")
}

func (s *QuestionPaperService) incrementCounter(ctx context.Context, id, column string) error {
	ctx = ensuredContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.QuestionPaper{}).
		Where("id = ?", strings.TrimSpace(id)).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if result.Error != nil {
		return fmt.Errorf("question paper service: increment %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPaperNotFound
	}
	return nil
}

// Delete removes a paper.
func (s *QuestionPaperService) Delete(ctx context.Context, id string) error {
	ctx = ensuredContext(ctx)

	result := s.db.WithContext(ctx).Delete(&models.QuestionPaper{}, "id = ?", strings.TrimSpace(id))
	if result.Error != nil {
		return fmt.Errorf("question paper service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPaperNotFound
	}
	return nil
}
