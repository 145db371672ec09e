package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bcastudynepal/portal/internal/models"
	"github.com/bcastudynepal/portal/pkg/crypto"
	"github.com/bcastudynepal/portal/pkg/logger"
	"github.com/bcastudynepal/portal/pkg/mail"
	"github.com/bcastudynepal/portal/pkg/metrics"
	"github.com/bcastudynepal/portal/pkg/validator"
)

// Registration flow errors surfaced to handlers.
var (
	ErrUsernameTaken         = errors.New("registration: username already taken")
	ErrEmailTaken            = errors.New("registration: email already registered")
	ErrPasswordMismatch      = errors.New("registration: passwords do not match")
	ErrPasswordTooWeak       = errors.New("registration: password does not meet requirements")
	ErrNoPendingRegistration = errors.New("registration: no pending registration for email")
	ErrCodeExpired           = errors.New("registration: verification code expired")
	ErrCodeMismatch          = errors.New("registration: verification code does not match")
)

const verificationCodeDigits = 6

// RegistrationConfig carries tunables for the registration flow.
type RegistrationConfig struct {
	From    string
	AppName string
	// Debug exposes the verification code in responses when mail delivery
	// fails, so local setups without a mail provider stay usable.
	Debug bool
}

// RegistrationInput is the payload accepted when starting a registration.
type RegistrationInput struct {
	Username        string `json:"username" validate:"required,min=3,max=150"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	FirstName       string `json:"first_name" validate:"omitempty,max=150"`
	LastName        string `json:"last_name" validate:"omitempty,max=150"`
}

// BeginResult reports the outcome of starting or re-sending a registration.
type BeginResult struct {
	RegistrationID string
	Email          string
	MailSent       bool
	DebugCode      string
}

// VerifyResult carries the created account and its first session tokens.
type VerifyResult struct {
	User   *models.User
	Tokens TokenPair
}

// RegistrationService drives the OTP-verified sign-up flow: submitted details
// are parked in the RegistrationStore and the account is only created once the
// emailed code is confirmed.
type RegistrationService struct {
	db       *gorm.DB
	store    *RegistrationStore
	mailer   mail.Mailer
	sessions *SessionService
	cfg      RegistrationConfig
	log      *zap.Logger
}

// NewRegistrationService wires the registration flow dependencies.
func NewRegistrationService(db *gorm.DB, store *RegistrationStore, mailer mail.Mailer, sessions *SessionService, cfg RegistrationConfig) (*RegistrationService, error) {
	if db == nil {
		return nil, errors.New("registration service: db is required")
	}
	if store == nil {
		return nil, errors.New("registration service: store is required")
	}
	if sessions == nil {
		return nil, errors.New("registration service: session service is required")
	}

	if cfg.AppName == "" {
		cfg.AppName = "BCA Study Nepal"
	}

	return &RegistrationService{
		db:       db,
		store:    store,
		mailer:   mailer,
		sessions: sessions,
		cfg:      cfg,
		log:      logger.WithModule("registration"),
	}, nil
}

// Begin validates the submitted details, parks them as a pending registration
// and emails a verification code. Uniqueness is checked against existing
// accounts before field validation so the caller sees the specific conflict
// first. A mail failure does not discard the pending registration.
func (s *RegistrationService) Begin(ctx context.Context, input RegistrationInput) (BeginResult, error) {
	ctx = ensuredContext(ctx)

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	if input.Username != "" {
		taken, err := s.columnTaken(ctx, "username", input.Username)
		if err != nil {
			return BeginResult{}, err
		}
		if taken {
			metrics.RegistrationEvents.WithLabelValues("begin", "failure").Inc()
			return BeginResult{}, ErrUsernameTaken
		}
	}

	if input.Email != "" {
		taken, err := s.columnTaken(ctx, "email", input.Email)
		if err != nil {
			return BeginResult{}, err
		}
		if taken {
			metrics.RegistrationEvents.WithLabelValues("begin", "failure").Inc()
			return BeginResult{}, ErrEmailTaken
		}
	}

	if err := validator.ValidateStruct(input); err != nil {
		metrics.RegistrationEvents.WithLabelValues("begin", "failure").Inc()
		return BeginResult{}, err
	}

	if input.Password != input.ConfirmPassword {
		metrics.RegistrationEvents.WithLabelValues("begin", "failure").Inc()
		return BeginResult{}, ErrPasswordMismatch
	}
	if err := checkPasswordPolicy(input.Password); err != nil {
		metrics.RegistrationEvents.WithLabelValues("begin", "failure").Inc()
		return BeginResult{}, err
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return BeginResult{}, fmt.Errorf("registration service: hash password: %w", err)
	}

	code, err := crypto.GenerateNumericCode(verificationCodeDigits)
	if err != nil {
		return BeginResult{}, fmt.Errorf("registration service: generate code: %w", err)
	}

	reg := PendingRegistration{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
	}
	s.store.Put(reg, code)

	result := BeginResult{RegistrationID: reg.ID, Email: reg.Email, MailSent: true}
	if err := s.sendCode(ctx, reg.Email, code); err != nil {
		s.log.Warn("verification mail failed", zap.String("email", reg.Email), zap.Error(err))
		metrics.MailDeliveries.WithLabelValues("failed").Inc()
		result.MailSent = false
		if s.cfg.Debug {
			result.DebugCode = code
		}
	} else {
		metrics.MailDeliveries.WithLabelValues("sent").Inc()
	}

	metrics.RegistrationEvents.WithLabelValues("begin", "success").Inc()
	return result, nil
}

// Verify consumes the emailed code and creates the account. The code matches
// at most once: a replay after success reports no pending registration, and an
// expired code discards the pending details entirely.
func (s *RegistrationService) Verify(ctx context.Context, email, code string) (VerifyResult, error) {
	ctx = ensuredContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)

	reg, outcome := s.store.Consume(email, code)
	switch outcome {
	case ConsumeNoPending:
		metrics.RegistrationEvents.WithLabelValues("verify", "failure").Inc()
		return VerifyResult{}, ErrNoPendingRegistration
	case ConsumeExpired:
		metrics.RegistrationEvents.WithLabelValues("verify", "failure").Inc()
		return VerifyResult{}, ErrCodeExpired
	case ConsumeMismatch:
		metrics.RegistrationEvents.WithLabelValues("verify", "failure").Inc()
		return VerifyResult{}, ErrCodeMismatch
	}

	user := &models.User{
		Username:   reg.Username,
		Email:      reg.Email,
		Password:   reg.PasswordHash,
		FirstName:  reg.FirstName,
		LastName:   reg.LastName,
		IsActive:   true,
		IsVerified: true,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		metrics.RegistrationEvents.WithLabelValues("verify", "failure").Inc()
		return VerifyResult{}, fmt.Errorf("registration service: create user: %w", err)
	}

	tokens, _, err := s.sessions.CreateSession(user.ID, SessionMetadata{})
	if err != nil {
		return VerifyResult{}, fmt.Errorf("registration service: create session: %w", err)
	}

	s.log.Info("account created", zap.String("user_id", user.ID), zap.String("username", user.Username))
	metrics.RegistrationEvents.WithLabelValues("verify", "success").Inc()

	return VerifyResult{User: user, Tokens: tokens}, nil
}

// Resend replaces the pending verification code with a fresh one and emails
// it. Only one code is ever valid per pending registration.
func (s *RegistrationService) Resend(ctx context.Context, email string) (BeginResult, error) {
	ctx = ensuredContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	reg, ok := s.store.Get(email)
	if !ok {
		metrics.RegistrationEvents.WithLabelValues("resend", "failure").Inc()
		return BeginResult{}, ErrNoPendingRegistration
	}

	code, err := crypto.GenerateNumericCode(verificationCodeDigits)
	if err != nil {
		return BeginResult{}, fmt.Errorf("registration service: generate code: %w", err)
	}

	if !s.store.ReplaceCode(email, code) {
		metrics.RegistrationEvents.WithLabelValues("resend", "failure").Inc()
		return BeginResult{}, ErrNoPendingRegistration
	}

	result := BeginResult{RegistrationID: reg.ID, Email: email, MailSent: true}
	if err := s.sendCode(ctx, email, code); err != nil {
		s.log.Warn("verification mail failed", zap.String("email", email), zap.Error(err))
		metrics.MailDeliveries.WithLabelValues("failed").Inc()
		result.MailSent = false
		if s.cfg.Debug {
			result.DebugCode = code
		}
	} else {
		metrics.MailDeliveries.WithLabelValues("sent").Inc()
	}

	metrics.RegistrationEvents.WithLabelValues("resend", "success").Inc()
	return result, nil
}

// Cancel discards any pending registration for the email. Cancelling when
// nothing is pending succeeds as well.
func (s *RegistrationService) Cancel(ctx context.Context, email string) error {
	s.store.Delete(email)
	metrics.RegistrationEvents.WithLabelValues("cancel", "success").Inc()
	return nil
}

// SweepExpired removes stale pending registrations.
func (s *RegistrationService) SweepExpired(ctx context.Context) (int, error) {
	return s.store.SweepExpired(), nil
}

func (s *RegistrationService) columnTaken(ctx context.Context, column, value string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where(fmt.Sprintf("%s = ?", column), value).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("registration service: check %s: %w", column, err)
	}
	return count > 0, nil
}

func (s *RegistrationService) sendCode(ctx context.Context, email, code string) error {
	if s.mailer == nil {
		return errors.New("registration service: no mailer configured")
	}

	minutes := int(s.store.TTL() / time.Minute)
	subject := fmt.Sprintf("%s verification code", s.cfg.AppName)
	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes)
	html := fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>", code, minutes)

	return s.mailer.Send(ctx, mail.Message{
		From:     s.cfg.From,
		To:       []string{email},
		Subject:  subject,
		Body:     body,
		HTMLBody: html,
	})
}

func checkPasswordPolicy(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooWeak
	}

	allDigits := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return ErrPasswordTooWeak
	}
	return nil
}

func ensuredContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
