package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/bcastudynepal/portal/internal/models"
)

// ErrSyllabusNotFound indicates the requested syllabus does not exist.
var ErrSyllabusNotFound = errors.New("syllabus service: syllabus not found")

// SyllabusService manages versioned curriculum documents.
type SyllabusService struct {
	db *gorm.DB
}

// NewSyllabusService constructs a syllabus service.
func NewSyllabusService(db *gorm.DB) (*SyllabusService, error) {
	if db == nil {
		return nil, errors.New("syllabus service: db is required")
	}
	return &SyllabusService{db: db}, nil
}

// CreateSyllabusInput captures the fields accepted when uploading a syllabus.
type CreateSyllabusInput struct {
	SubjectID    string
	FileURL      string
	Version      string
	Description  string
	UploadedByID string
}

// ListSyllabiOptions filters the syllabus listing.
type ListSyllabiOptions struct {
	SubjectID   string
	CurrentOnly bool
}

// List returns active syllabi, current versions first.
func (s *SyllabusService) List(ctx context.Context, opts ListSyllabiOptions) ([]models.Syllabus, error) {
	ctx = ensuredContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.Syllabus{}).
		Preload("Subject").
		Where("is_active = ?", true)
	if subjectID := strings.TrimSpace(opts.SubjectID); subjectID != "" {
		query = query.Where("subject_id = ?", subjectID)
	}
	if opts.CurrentOnly {
		query = query.Where("is_current = ?", true)
	}

	var syllabi []models.Syllabus
	if err := query.Order("is_current DESC, created_at DESC").Find(&syllabi).Error; err != nil {
		return nil, fmt.Errorf("syllabus service: list: %w", err)
	}
	return syllabi, nil
}

// Current returns the current syllabus of a subject.
func (s *SyllabusService) Current(ctx context.Context, subjectID string) (*models.Syllabus, error) {
	ctx = ensuredContext(ctx)

	var syllabus models.Syllabus
	err := s.db.WithContext(ctx).Preload("Subject").
		Take(&syllabus, "subject_id = ? AND is_current = ? AND is_active = ?", strings.TrimSpace(subjectID), true, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSyllabusNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("syllabus service: current: %w", err)
	}
	return &syllabus, nil
}

// Get fetches a syllabus by id.
func (s *SyllabusService) Get(ctx context.Context, id string) (*models.Syllabus, error) {
	ctx = ensuredContext(ctx)

	var syllabus models.Syllabus
	err := s.db.WithContext(ctx).Preload("Subject").Take(&syllabus, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSyllabusNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("syllabus service: get: %w", err)
	}
	return &syllabus, nil
}

// Create uploads a syllabus version. The new version becomes current and any
// earlier current version of the subject is demoted in the same transaction.
func (s *SyllabusService) Create(ctx context.Context, input CreateSyllabusInput) (*models.Syllabus, error) {
	ctx = ensuredContext(ctx)

	subjectID := strings.TrimSpace(input.SubjectID)
	fileURL := strings.TrimSpace(input.FileURL)
	version := strings.TrimSpace(input.Version)
	if subjectID == "" || fileURL == "" || version == "" {
		return nil, errors.New("syllabus service: subject, file url and version are required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Subject{}).Where("id = ?", subjectID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("syllabus service: check subject: %w", err)
	}
	if count == 0 {
		return nil, ErrSubjectNotFound
	}

	syllabus := &models.Syllabus{
		SubjectID:   subjectID,
		FileURL:     fileURL,
		Version:     version,
		Description: input.Description,
		IsCurrent:   true,
		IsActive:    true,
	}
	if uploader := strings.TrimSpace(input.UploadedByID); uploader != "" {
		syllabus.UploadedByID = &uploader
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Syllabus{}).
			Where("subject_id = ? AND is_current = ?", subjectID, true).
			Update("is_current", false).Error; err != nil {
			return err
		}
		return tx.Create(syllabus).Error
	})
	if err != nil {
		return nil, fmt.Errorf("syllabus service: create: %w", err)
	}
	return syllabus, nil
}

// SetCurrent promotes one version and demotes the subject's other versions.
func (s *SyllabusService) SetCurrent(ctx context.Context, id string) (*models.Syllabus, error) {
	ctx = ensuredContext(ctx)

	syllabus, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Syllabus{}).
			Where("subject_id = ? AND id <> ?", syllabus.SubjectID, syllabus.ID).
			Update("is_current", false).Error; err != nil {
			return err
		}
		return tx.Model(syllabus).Update("is_current", true).Error
	})
	if err != nil {
		return nil, fmt.Errorf("syllabus service: set current: %w", err)
	}
	return syllabus, nil
}

// IncrementView bumps the view counter atomically.
func (s *SyllabusService) IncrementView(ctx context.Context, id string) error {
	return s.incrementCounter(ctx, id, "view_count")
}

// IncrementDownload bumps the download counter atomically.
func (s *SyllabusService) IncrementDownload(ctx context.Context, id string) error {
	return s.incrementCounter(ctx, id, "download_count")
}

func (s *SyllabusService) incrementCounter(ctx context.Context, id, column string) error {
	ctx = ensuredContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.Syllabus{}).
		Where("id = ?", strings.TrimSpace(id)).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if result.Error != nil {
		return fmt.Errorf("syllabus service: increment %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSyllabusNotFound
	}
	return nil
}

// Delete deactivates a syllabus version.
func (s *SyllabusService) Delete(ctx context.Context, id string) error {
	ctx = ensuredContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.Syllabus{}).
		Where("id = ?", strings.TrimSpace(id)).
		Updates(map[string]any{"is_active": false, "is_current": false})
	if result.Error != nil {
		return fmt.Errorf("syllabus service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSyllabusNotFound
	}
	return nil
}
