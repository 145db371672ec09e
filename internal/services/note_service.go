package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/bcastudynepal/portal/internal/models"
)

// ErrNoteNotFound indicates the requested note does not exist.
var ErrNoteNotFound = errors.New("note service: note not found")

// NoteService manages uploaded study notes.
type NoteService struct {
	db *gorm.DB
}

// NewNoteService constructs a note service.
func NewNoteService(db *gorm.DB) (*NoteService, error) {
	if db == nil {
		return nil, errors.New("note service: db is required")
	}
	return &NoteService{db: db}, nil
}

// CreateNoteInput captures the fields accepted when uploading a note.
type CreateNoteInput struct {
	Title        string
	SubjectID    string
	Semester     int
	Description  string
	FileURL      string
	UploadedByID string
}

// ListNotesOptions filters the note listing.
type ListNotesOptions struct {
	SubjectID string
	Semester  int
	Search    string
}

// List returns notes newest first.
func (s *NoteService) List(ctx context.Context, opts ListNotesOptions) ([]models.Note, error) {
	ctx = ensuredContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.Note{}).Preload("Subject")
	if subjectID := strings.TrimSpace(opts.SubjectID); subjectID != "" {
		query = query.Where("subject_id = ?", subjectID)
	}
	if opts.Semester > 0 {
		query = query.Where("semester = ?", opts.Semester)
	}
	if search := strings.TrimSpace(opts.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var notes []models.Note
	if err := query.Order("created_at DESC").Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("note service: list: %w", err)
	}
	return notes, nil
}

// BySubject returns the notes of one subject. An unknown subject is reported
// as such rather than as an empty result.
func (s *NoteService) BySubject(ctx context.Context, subjectID string) ([]models.Note, error) {
	ctx = ensuredContext(ctx)

	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, errors.New("note service: subject id is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Subject{}).Where("id = ?", subjectID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("note service: check subject: %w", err)
	}
	if count == 0 {
		return nil, ErrSubjectNotFound
	}

	return s.List(ctx, ListNotesOptions{SubjectID: subjectID})
}

// Get fetches a note by id.
func (s *NoteService) Get(ctx context.Context, id string) (*models.Note, error) {
	ctx = ensuredContext(ctx)

	var note models.Note
	err := s.db.WithContext(ctx).Preload("Subject").Take(&note, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("note service: get: %w", err)
	}
	return &note, nil
}

// Create uploads a note.
func (s *NoteService) Create(ctx context.Context, input CreateNoteInput) (*models.Note, error) {
	ctx = ensuredContext(ctx)

	title := strings.TrimSpace(input.Title)
	fileURL := strings.TrimSpace(input.FileURL)
	uploader := strings.TrimSpace(input.UploadedByID)
	if title == "" || fileURL == "" {
		return nil, errors.New("note service: title and file url are required")
	}
	if uploader == "" {
		return nil, errors.New("note service: uploader is required")
	}
	if input.Semester < 1 || input.Semester > 8 {
		return nil, errors.New("note service: semester must be between 1 and 8")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Subject{}).Where("id = ?", strings.TrimSpace(input.SubjectID)).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("note service: check subject: %w", err)
	}
	if count == 0 {
		return nil, ErrSubjectNotFound
	}

	note := &models.Note{
		Title:        title,
		SubjectID:    strings.TrimSpace(input.SubjectID),
		Semester:     input.Semester,
		Description:  input.Description,
		FileURL:      fileURL,
		UploadedByID: uploader,
	}

	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		return nil, fmt.Errorf("note service: create: %w", err)
	}
	return note, nil
}

// SetVerified marks or unmarks a note as reviewed.
func (s *NoteService) SetVerified(ctx context.Context, id string, verified bool) error {
	ctx = ensuredContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.Note{}).
		Where("id = ?", strings.TrimSpace(id)).
		Update("is_verified", verified)
	if result.Error != nil {
		return fmt.Errorf("note service: set verified: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// Delete removes a note.
func (s *NoteService) Delete(ctx context.Context, id string) error {
	ctx = ensuredContext(ctx)

	result := s.db.WithContext(ctx).Delete(&models.Note{}, "id = ?", strings.TrimSpace(id))
	if result.Error != nil {
		return fmt.Errorf("note service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNoteNotFound
	}
	return nil
}
