package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/bcastudynepal/portal/internal/models"
)

var (
	// ErrResourceNotFound indicates the requested resource does not exist.
	ErrResourceNotFound = errors.New("resource service: resource not found")
	// ErrCategoryNotFound indicates the requested category does not exist.
	ErrCategoryNotFound = errors.New("resource service: category not found")
	// ErrSubmissionNotFound indicates the requested submission does not exist.
	ErrSubmissionNotFound = errors.New("resource service: submission not found")
	// ErrSubmissionReviewed rejects a second review of the same submission.
	ErrSubmissionReviewed = errors.New("resource service: submission already reviewed")
)

// ResourceService manages the curated resource directory, user submissions
// and per-user favourites.
type ResourceService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewResourceService constructs a resource service.
func NewResourceService(db *gorm.DB) (*ResourceService, error) {
	if db == nil {
		return nil, errors.New("resource service: db is required")
	}
	return &ResourceService{db: db, now: time.Now}, nil
}

// CategorySummary is a category together with its live resource count.
type CategorySummary struct {
	models.Category
	ResourceCount int64 `json:"resource_count"`
}

// CreateResourceInput captures the fields accepted when adding a resource.
type CreateResourceInput struct {
	Title       string
	Description string
	URL         string
	FaviconURL  string
	CategoryID  string
	TagNames    []string
	Featured    bool
	Priority    int
}

// ListResourcesOptions filters the resource listing.
type ListResourcesOptions struct {
	CategorySlug string
	TagSlug      string
	Search       string
	FeaturedOnly bool
}

// SubmitResourceInput captures a user-suggested resource.
type SubmitResourceInput struct {
	Title          string
	Description    string
	URL            string
	CategoryID     string
	SubmittedByID  string
	SubmitterEmail string
}

// ListCategories returns categories with their live resource counts, ordered
// by the configured display order.
func (s *ResourceService) ListCategories(ctx context.Context) ([]CategorySummary, error) {
	ctx = ensuredContext(ctx)

	var categories []models.Category
	if err := s.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("\"order\", name").
		Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("resource service: list categories: %w", err)
	}

	out := make([]CategorySummary, 0, len(categories))
	for _, category := range categories {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.Resource{}).
			Where("category_id = ? AND is_active = ? AND is_deleted = ?", category.ID, true, false).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("resource service: count category resources: %w", err)
		}
		out = append(out, CategorySummary{Category: category, ResourceCount: count})
	}
	return out, nil
}

// CreateCategory adds a category, deriving the slug from the name when absent.
func (s *ResourceService) CreateCategory(ctx context.Context, name, icon, description string, order int) (*models.Category, error) {
	ctx = ensuredContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("resource service: category name is required")
	}

	category := &models.Category{
		Name:        name,
		Slug:        slugify(name),
		Icon:        strings.TrimSpace(icon),
		Description: description,
		Order:       order,
	}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, fmt.Errorf("resource service: create category: %w", err)
	}
	return category, nil
}

// ListTags returns all tags ordered by name.
func (s *ResourceService) ListTags(ctx context.Context) ([]models.Tag, error) {
	ctx = ensuredContext(ctx)

	var tags []models.Tag
	if err := s.db.WithContext(ctx).Where("is_deleted = ?", false).Order("name").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("resource service: list tags: %w", err)
	}
	return tags, nil
}

// ListResources returns active resources, featured entries first, then by
// priority and recency.
func (s *ResourceService) ListResources(ctx context.Context, opts ListResourcesOptions) ([]models.Resource, error) {
	ctx = ensuredContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.Resource{}).
		Preload("Category").Preload("Tags").
		Where("resources.is_active = ? AND resources.is_deleted = ?", true, false)

	if slug := strings.TrimSpace(opts.CategorySlug); slug != "" {
		query = query.Joins("JOIN categories ON categories.id = resources.category_id").
			Where("categories.slug = ?", slug)
	}
	if slug := strings.TrimSpace(opts.TagSlug); slug != "" {
		query = query.Joins("JOIN resource_tags ON resource_tags.resource_id = resources.id").
			Joins("JOIN tags ON tags.id = resource_tags.tag_id").
			Where("tags.slug = ?", slug)
	}
	if search := strings.TrimSpace(opts.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(resources.title) LIKE ? OR LOWER(resources.description) LIKE ? OR LOWER(resources.url) LIKE ?",
			pattern, pattern, pattern)
	}
	if opts.FeaturedOnly {
		query = query.Where("resources.featured = ?", true)
	}

	var resources []models.Resource
	if err := query.Order("resources.featured DESC, resources.priority, resources.created_at DESC").
		Find(&resources).Error; err != nil {
		return nil, fmt.Errorf("resource service: list resources: %w", err)
	}
	return resources, nil
}

// GetResource fetches a resource by id or slug.
func (s *ResourceService) GetResource(ctx context.Context, idOrSlug string) (*models.Resource, error) {
	ctx = ensuredContext(ctx)
	idOrSlug = strings.TrimSpace(idOrSlug)

	var resource models.Resource
	err := s.db.WithContext(ctx).Preload("Category").Preload("Tags").
		Take(&resource, "(id = ? OR slug = ?) AND is_deleted = ?", idOrSlug, idOrSlug, false).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resource service: get resource: %w", err)
	}
	return &resource, nil
}

// CreateResource adds a resource. The slug is derived from the title and
// suffixed until unique; a missing favicon falls back to the site's own.
func (s *ResourceService) CreateResource(ctx context.Context, input CreateResourceInput) (*models.Resource, error) {
	ctx = ensuredContext(ctx)

	title := strings.TrimSpace(input.Title)
	rawURL := strings.TrimSpace(input.URL)
	if title == "" || rawURL == "" {
		return nil, errors.New("resource service: title and url are required")
	}

	var categoryCount int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).
		Where("id = ? AND is_deleted = ?", strings.TrimSpace(input.CategoryID), false).
		Count(&categoryCount).Error; err != nil {
		return nil, fmt.Errorf("resource service: check category: %w", err)
	}
	if categoryCount == 0 {
		return nil, ErrCategoryNotFound
	}

	slug, err := s.uniqueResourceSlug(ctx, slugify(title))
	if err != nil {
		return nil, err
	}

	favicon := strings.TrimSpace(input.FaviconURL)
	if favicon == "" {
		favicon = defaultFavicon(rawURL)
	}

	tags, err := s.resolveTags(ctx, input.TagNames)
	if err != nil {
		return nil, err
	}

	resource := &models.Resource{
		Title:       title,
		Slug:        slug,
		Description: input.Description,
		URL:         rawURL,
		FaviconURL:  favicon,
		CategoryID:  strings.TrimSpace(input.CategoryID),
		Tags:        tags,
		Featured:    input.Featured,
		Priority:    input.Priority,
		IsActive:    true,
	}

	if err := s.db.WithContext(ctx).Create(resource).Error; err != nil {
		return nil, fmt.Errorf("resource service: create resource: %w", err)
	}
	return resource, nil
}

// IncrementView bumps a resource's view counter atomically.
func (s *ResourceService) IncrementView(ctx context.Context, id string) error {
	ctx = ensuredContext(ctx)

	result := s.db.WithContext(ctx).Model(&models.Resource{}).
		Where("id = ? AND is_deleted = ?", strings.TrimSpace(id), false).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("resource service: increment view: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrResourceNotFound
	}
	return nil
}

// DeleteResource soft-deletes a resource so existing favourites keep their
// reference.
func (s *ResourceService) DeleteResource(ctx context.Context, id string) error {
	ctx = ensuredContext(ctx)

	result := s.db.WithContext(ctx).Model(&models.Resource{}).
		Where("id = ? AND is_deleted = ?", strings.TrimSpace(id), false).
		Updates(map[string]any{"is_deleted": true, "is_active": false})
	if result.Error != nil {
		return fmt.Errorf("resource service: delete resource: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrResourceNotFound
	}
	return nil
}

// ToggleFavorite flips a user's bookmark on a resource and reports the new
// state. A previously removed favourite is re-activated rather than recreated.
func (s *ResourceService) ToggleFavorite(ctx context.Context, userID, resourceID string) (bool, error) {
	ctx = ensuredContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, errors.New("resource service: user id is required")
	}

	resource, err := s.GetResource(ctx, resourceID)
	if err != nil {
		return false, err
	}

	var favorite models.Favorite
	err = s.db.WithContext(ctx).
		Take(&favorite, "user_id = ? AND resource_id = ?", userID, resource.ID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		favorite = models.Favorite{UserID: userID, ResourceID: resource.ID}
		if err := s.db.WithContext(ctx).Create(&favorite).Error; err != nil {
			return false, fmt.Errorf("resource service: create favourite: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("resource service: find favourite: %w", err)
	}

	active := favorite.IsDeleted
	if err := s.db.WithContext(ctx).Model(&favorite).Update("is_deleted", !active).Error; err != nil {
		return false, fmt.Errorf("resource service: toggle favourite: %w", err)
	}
	return active, nil
}

// ListFavorites returns a user's active favourites with their resources.
func (s *ResourceService) ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	ctx = ensuredContext(ctx)

	var favorites []models.Favorite
	err := s.db.WithContext(ctx).
		Preload("Resource").Preload("Resource.Category").
		Where("user_id = ? AND is_deleted = ?", strings.TrimSpace(userID), false).
		Order("created_at DESC").
		Find(&favorites).Error
	if err != nil {
		return nil, fmt.Errorf("resource service: list favourites: %w", err)
	}

	// Resources deleted after being favourited stay hidden.
	out := favorites[:0]
	for _, favorite := range favorites {
		if favorite.Resource != nil && favorite.Resource.IsDeleted {
			continue
		}
		out = append(out, favorite)
	}
	return out, nil
}

// Submit records a user-suggested resource for review.
func (s *ResourceService) Submit(ctx context.Context, input SubmitResourceInput) (*models.ResourceSubmission, error) {
	ctx = ensuredContext(ctx)

	title := strings.TrimSpace(input.Title)
	rawURL := strings.TrimSpace(input.URL)
	if title == "" || rawURL == "" {
		return nil, errors.New("resource service: title and url are required")
	}

	var categoryCount int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).
		Where("id = ? AND is_deleted = ?", strings.TrimSpace(input.CategoryID), false).
		Count(&categoryCount).Error; err != nil {
		return nil, fmt.Errorf("resource service: check category: %w", err)
	}
	if categoryCount == 0 {
		return nil, ErrCategoryNotFound
	}

	submission := &models.ResourceSubmission{
		Title:          title,
		Description:    input.Description,
		URL:            rawURL,
		CategoryID:     strings.TrimSpace(input.CategoryID),
		SubmitterEmail: strings.TrimSpace(input.SubmitterEmail),
		Status:         models.SubmissionStatusPending,
	}
	if submitter := strings.TrimSpace(input.SubmittedByID); submitter != "" {
		submission.SubmittedByID = &submitter
	}

	if err := s.db.WithContext(ctx).Create(submission).Error; err != nil {
		return nil, fmt.Errorf("resource service: submit: %w", err)
	}
	return submission, nil
}

// ListSubmissions returns submissions, optionally limited to one status.
func (s *ResourceService) ListSubmissions(ctx context.Context, status string) ([]models.ResourceSubmission, error) {
	ctx = ensuredContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.ResourceSubmission{}).Preload("Category")
	if status = strings.ToUpper(strings.TrimSpace(status)); status != "" {
		query = query.Where("status = ?", status)
	}

	var submissions []models.ResourceSubmission
	if err := query.Order("created_at").Find(&submissions).Error; err != nil {
		return nil, fmt.Errorf("resource service: list submissions: %w", err)
	}
	return submissions, nil
}

// Review settles a pending submission. Approval publishes the submission as a
// resource; rejection only records the decision. Either way the reviewer and
// notes are kept.
func (s *ResourceService) Review(ctx context.Context, submissionID, reviewerID string, approve bool, notes string) (*models.Resource, error) {
	ctx = ensuredContext(ctx)

	var submission models.ResourceSubmission
	err := s.db.WithContext(ctx).Take(&submission, "id = ?", strings.TrimSpace(submissionID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resource service: get submission: %w", err)
	}
	if submission.Status != models.SubmissionStatusPending {
		return nil, ErrSubmissionReviewed
	}

	status := models.SubmissionStatusRejected
	if approve {
		status = models.SubmissionStatusApproved
	}

	var published *models.Resource
	if approve {
		published, err = s.CreateResource(ctx, CreateResourceInput{
			Title:       submission.Title,
			Description: submission.Description,
			URL:         submission.URL,
			CategoryID:  submission.CategoryID,
		})
		if err != nil {
			return nil, err
		}
	}

	reviewedAt := s.now()
	updates := map[string]any{
		"status":       status,
		"review_notes": notes,
		"reviewed_at":  reviewedAt,
	}
	if reviewer := strings.TrimSpace(reviewerID); reviewer != "" {
		updates["reviewed_by"] = reviewer
	}
	if err := s.db.WithContext(ctx).Model(&submission).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("resource service: review: %w", err)
	}
	return published, nil
}

// resolveTags finds or creates tags by name.
func (s *ResourceService) resolveTags(ctx context.Context, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var tag models.Tag
		err := s.db.WithContext(ctx).
			Where(models.Tag{Slug: slugify(name)}).
			Attrs(models.Tag{Name: name}).
			FirstOrCreate(&tag).Error
		if err != nil {
			return nil, fmt.Errorf("resource service: resolve tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// uniqueResourceSlug appends a numeric suffix until the slug is free.
func (s *ResourceService) uniqueResourceSlug(ctx context.Context, base string) (string, error) {
	if base == "" {
		base = "resource"
	}
	slug := base
	for i := 2; ; i++ {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Resource{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", fmt.Errorf("resource service: check slug: %w", err)
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// defaultFavicon points at the site's own favicon when none was supplied.
func defaultFavicon(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host + "/favicon.ico"
}
