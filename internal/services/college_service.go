package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/bcastudynepal/portal/internal/models"
)

var (
	// ErrCollegeNotFound indicates the requested college does not exist.
	ErrCollegeNotFound = errors.New("college service: college not found")
)

// CollegeService manages the institution directory.
type CollegeService struct {
	db *gorm.DB
}

// NewCollegeService constructs a college service once a database handle is supplied.
func NewCollegeService(db *gorm.DB) (*CollegeService, error) {
	if db == nil {
		return nil, errors.New("college service: db is required")
	}
	return &CollegeService{db: db}, nil
}

// CreateCollegeInput captures the fields accepted when adding a college.
type CreateCollegeInput struct {
	Name            string
	Address         string
	Website         string
	Phone           string
	Email           string
	Description     string
	EstablishedYear *int
	LogoURL         string
	CreatedByID     string
}

// UpdateCollegeInput describes mutable college fields. A nil pointer means no change.
type UpdateCollegeInput struct {
	Name            *string
	Address         *string
	Website         *string
	Phone           *string
	Email           *string
	Description     *string
	EstablishedYear *int
	LogoURL         *string
	UpdatedByID     string
}

// List returns every college ordered by name.
func (s *CollegeService) List(ctx context.Context) ([]models.College, error) {
	ctx = ensuredContext(ctx)

	var colleges []models.College
	if err := s.db.WithContext(ctx).Order("name").Find(&colleges).Error; err != nil {
		return nil, fmt.Errorf("college service: list: %w", err)
	}
	return colleges, nil
}

// Get fetches a single college by id.
func (s *CollegeService) Get(ctx context.Context, id string) (*models.College, error) {
	ctx = ensuredContext(ctx)

	var college models.College
	err := s.db.WithContext(ctx).Take(&college, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCollegeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("college service: get: %w", err)
	}
	return &college, nil
}

// Create adds a college to the directory.
func (s *CollegeService) Create(ctx context.Context, input CreateCollegeInput) (*models.College, error) {
	ctx = ensuredContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("college service: name is required")
	}

	college := &models.College{
		Name:            name,
		Address:         strings.TrimSpace(input.Address),
		Website:         strings.TrimSpace(input.Website),
		Phone:           strings.TrimSpace(input.Phone),
		Email:           strings.TrimSpace(input.Email),
		Description:     input.Description,
		EstablishedYear: input.EstablishedYear,
		LogoURL:         strings.TrimSpace(input.LogoURL),
	}
	if creator := strings.TrimSpace(input.CreatedByID); creator != "" {
		college.CreatedByID = &creator
	}

	if err := s.db.WithContext(ctx).Create(college).Error; err != nil {
		return nil, fmt.Errorf("college service: create: %w", err)
	}
	return college, nil
}

// Update applies the supplied changes to a college.
func (s *CollegeService) Update(ctx context.Context, id string, input UpdateCollegeInput) (*models.College, error) {
	ctx = ensuredContext(ctx)

	college, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		updates["address"] = strings.TrimSpace(*input.Address)
	}
	if input.Website != nil {
		updates["website"] = strings.TrimSpace(*input.Website)
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Email != nil {
		updates["email"] = strings.TrimSpace(*input.Email)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.EstablishedYear != nil {
		updates["established_year"] = *input.EstablishedYear
	}
	if input.LogoURL != nil {
		updates["logo_url"] = strings.TrimSpace(*input.LogoURL)
	}
	if updater := strings.TrimSpace(input.UpdatedByID); updater != "" {
		updates["updated_by_id"] = updater
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(college).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("college service: update: %w", err)
		}
	}
	return college, nil
}

// Delete removes a college.
func (s *CollegeService) Delete(ctx context.Context, id string) error {
	ctx = ensuredContext(ctx)

	result := s.db.WithContext(ctx).Delete(&models.College{}, "id = ?", strings.TrimSpace(id))
	if result.Error != nil {
		return fmt.Errorf("college service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCollegeNotFound
	}
	return nil
}
