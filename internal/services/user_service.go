package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/bcastudynepal/portal/internal/models"
	"github.com/bcastudynepal/portal/pkg/crypto"
	apperrors "github.com/bcastudynepal/portal/pkg/errors"
	"github.com/bcastudynepal/portal/pkg/metrics"
)

var (
	// ErrUserNotFound indicates the requested account does not exist.
	ErrUserNotFound = errors.New("user service: user not found")
	// ErrAccountDisabled rejects logins for deactivated accounts.
	ErrAccountDisabled = errors.New("user service: account disabled")
)

// UserService manages accounts and credential checks.
type UserService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewUserService constructs a user service.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, now: time.Now}, nil
}

// UpdateProfileInput describes mutable profile fields. A nil pointer means no
// change.
type UpdateProfileInput struct {
	FirstName   *string
	LastName    *string
	Avatar      *string
	PhoneNumber *string
	College     *string
	Semester    *int
	Bio         *string
	FacebookURL *string
	TwitterURL  *string
	LinkedinURL *string
	GithubURL   *string
	Interests   []string
	Skills      []string
}

// GetByID fetches an account by id.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensuredContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get: %w", err)
	}
	return &user, nil
}

// Authenticate verifies a username-or-email and password pair. A successful
// login records the time and origin address.
func (s *UserService) Authenticate(ctx context.Context, identifier, password, clientIP string) (*models.User, error) {
	ctx = ensuredContext(ctx)

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Take(&user, "username = ? OR email = ?", identifier, strings.ToLower(identifier)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("user service: authenticate: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrAccountDisabled
	}

	loginAt := s.now()
	updates := map[string]any{"last_login_at": loginAt}
	if clientIP = strings.TrimSpace(clientIP); clientIP != "" {
		updates["last_login_ip"] = clientIP
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("user service: record login: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &user, nil
}

// UpdateProfile applies the supplied profile changes.
func (s *UserService) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensuredContext(ctx)

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	setString := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	setString("first_name", input.FirstName)
	setString("last_name", input.LastName)
	setString("avatar", input.Avatar)
	setString("phone_number", input.PhoneNumber)
	setString("college", input.College)
	setString("bio", input.Bio)
	setString("facebook_url", input.FacebookURL)
	setString("twitter_url", input.TwitterURL)
	setString("linkedin_url", input.LinkedinURL)
	setString("github_url", input.GithubURL)
	if input.Semester != nil {
		if *input.Semester < 1 || *input.Semester > 8 {
			return nil, errors.New("user service: semester must be between 1 and 8")
		}
		updates["semester"] = *input.Semester
	}
	if input.Interests != nil {
		blob, err := stringListJSON(input.Interests)
		if err != nil {
			return nil, fmt.Errorf("user service: encode interests: %w", err)
		}
		updates["interests"] = blob
	}
	if input.Skills != nil {
		blob, err := stringListJSON(input.Skills)
		if err != nil {
			return nil, fmt.Errorf("user service: encode skills: %w", err)
		}
		updates["skills"] = blob
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("user service: update profile: %w", err)
		}
	}
	return user, nil
}

// ChangePassword replaces the account password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) error {
	ctx = ensuredContext(ctx)

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !crypto.VerifyPassword(user.Password, current) {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := crypto.HashPassword(next)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password", hash).Error; err != nil {
		return fmt.Errorf("user service: change password: %w", err)
	}
	return nil
}

// Deactivate disables an account without removing its rows.
func (s *UserService) Deactivate(ctx context.Context, id string) error {
	ctx = ensuredContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", strings.TrimSpace(id)).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("user service: deactivate: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func stringListJSON(values []string) (datatypes.JSON, error) {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			cleaned = append(cleaned, value)
		}
	}
	blob, err := json.Marshal(cleaned)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(blob), nil
}
