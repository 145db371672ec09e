package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bcastudynepal/portal/internal/models"
	"github.com/bcastudynepal/portal/pkg/crypto"
	"github.com/bcastudynepal/portal/pkg/logger"
	"github.com/bcastudynepal/portal/pkg/mail"
	"github.com/bcastudynepal/portal/pkg/metrics"
)

// Password reset errors surfaced to handlers.
var (
	ErrNoPendingReset     = errors.New("password reset: no reset requested for email")
	ErrResetTokenExpired  = errors.New("password reset: token expired")
	ErrResetTokenMismatch = errors.New("password reset: token does not match")
)

const resetTokenBytes = 24

// PasswordResetConfig carries tunables for the reset flow.
type PasswordResetConfig struct {
	From    string
	AppName string
	// Debug exposes the reset token in responses when mail delivery fails,
	// so local setups without a mail provider stay usable.
	Debug bool
}

// ResetRequestResult reports the outcome of requesting a reset. MailSent is
// false both when delivery failed and when no account matched the email; the
// caller's response must not distinguish the two.
type ResetRequestResult struct {
	MailSent   bool
	DebugToken string
}

// PasswordResetService drives the forgotten-password flow: a single-use token
// is mailed to the account's address and exchanged for a new password.
type PasswordResetService struct {
	db     *gorm.DB
	store  *PasswordResetStore
	mailer mail.Mailer
	cfg    PasswordResetConfig
	log    *zap.Logger
}

// NewPasswordResetService wires the reset flow dependencies.
func NewPasswordResetService(db *gorm.DB, store *PasswordResetStore, mailer mail.Mailer, cfg PasswordResetConfig) (*PasswordResetService, error) {
	if db == nil {
		return nil, errors.New("password reset service: db is required")
	}
	if store == nil {
		return nil, errors.New("password reset service: store is required")
	}

	if cfg.AppName == "" {
		cfg.AppName = "BCA Study Nepal"
	}

	return &PasswordResetService{
		db:     db,
		store:  store,
		mailer: mailer,
		cfg:    cfg,
		log:    logger.WithModule("password-reset"),
	}, nil
}

// Request issues a reset token for the account behind the email and mails it.
// An unknown email succeeds without sending anything so the endpoint does not
// reveal which addresses have accounts.
func (s *PasswordResetService) Request(ctx context.Context, email string) (ResetRequestResult, error) {
	ctx = ensuredContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.PasswordResets.WithLabelValues("request", "unknown_email").Inc()
		return ResetRequestResult{}, nil
	}
	if err != nil {
		return ResetRequestResult{}, fmt.Errorf("password reset service: lookup user: %w", err)
	}

	token, err := crypto.GenerateToken(resetTokenBytes)
	if err != nil {
		return ResetRequestResult{}, fmt.Errorf("password reset service: generate token: %w", err)
	}
	s.store.Put(email, user.ID, token)

	result := ResetRequestResult{MailSent: true}
	if err := s.sendToken(ctx, email, token); err != nil {
		s.log.Warn("reset mail failed", zap.String("email", email), zap.Error(err))
		metrics.MailDeliveries.WithLabelValues("failed").Inc()
		result.MailSent = false
		if s.cfg.Debug {
			result.DebugToken = token
		}
	} else {
		metrics.MailDeliveries.WithLabelValues("sent").Inc()
	}

	metrics.PasswordResets.WithLabelValues("request", "success").Inc()
	return result, nil
}

// Confirm exchanges a valid token for a new password. The token matches at
// most once; an expired token discards the pending reset entirely.
func (s *PasswordResetService) Confirm(ctx context.Context, email, token, password, confirmPassword string) error {
	ctx = ensuredContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	if password != confirmPassword {
		metrics.PasswordResets.WithLabelValues("confirm", "failure").Inc()
		return ErrPasswordMismatch
	}
	if err := checkPasswordPolicy(password); err != nil {
		metrics.PasswordResets.WithLabelValues("confirm", "failure").Inc()
		return err
	}

	userID, outcome := s.store.Consume(email, token)
	switch outcome {
	case ConsumeNoPending:
		metrics.PasswordResets.WithLabelValues("confirm", "failure").Inc()
		return ErrNoPendingReset
	case ConsumeExpired:
		metrics.PasswordResets.WithLabelValues("confirm", "failure").Inc()
		return ErrResetTokenExpired
	case ConsumeMismatch:
		metrics.PasswordResets.WithLabelValues("confirm", "failure").Inc()
		return ErrResetTokenMismatch
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("password reset service: hash password: %w", err)
	}

	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("password", hash)
	if result.Error != nil {
		return fmt.Errorf("password reset service: update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		metrics.PasswordResets.WithLabelValues("confirm", "failure").Inc()
		return ErrNoPendingReset
	}

	s.log.Info("password reset", zap.String("user_id", userID))
	metrics.PasswordResets.WithLabelValues("confirm", "success").Inc()
	return nil
}

// SweepExpired removes stale reset tokens.
func (s *PasswordResetService) SweepExpired(ctx context.Context) (int, error) {
	return s.store.SweepExpired(), nil
}

func (s *PasswordResetService) sendToken(ctx context.Context, email, token string) error {
	if s.mailer == nil {
		return errors.New("password reset service: no mailer configured")
	}

	minutes := int(s.store.TTL() / time.Minute)
	subject := fmt.Sprintf("%s password reset", s.cfg.AppName)
	body := fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.", token, minutes)
	html := fmt.Sprintf("<p>Your password reset code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>", token, minutes)

	return s.mailer.Send(ctx, mail.Message{
		From:     s.cfg.From,
		To:       []string{email},
		Subject:  subject,
		Body:     body,
		HTMLBody: html,
	})
}
