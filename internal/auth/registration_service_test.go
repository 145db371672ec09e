package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bcastudynepal/portal/internal/database/testutil"
	"github.com/bcastudynepal/portal/internal/models"
	"github.com/bcastudynepal/portal/pkg/crypto"
	"github.com/bcastudynepal/portal/pkg/mail"
	"github.com/bcastudynepal/portal/pkg/validator"
)

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent, "expected a verification mail to be sent")
	body := f.sent[len(f.sent)-1].Body
	require.GreaterOrEqual(t, len(body), 32)
	// "Your verification code is NNNNNN..."
	return body[26:32]
}

func setupRegistrationService(t *testing.T, mailer mail.Mailer, cfg RegistrationConfig) (*gorm.DB, *RegistrationService, *RegistrationStore, *testClock) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	clock := &testClock{current: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	jwtService, err := NewJWTService(JWTConfig{
		Secret:         "registration-secret",
		AccessTokenTTL: time.Hour,
		Clock:          clock.Now,
	})
	require.NoError(t, err)

	sessions, err := NewSessionService(db, jwtService, SessionConfig{Clock: clock.Now})
	require.NoError(t, err)

	store := NewRegistrationStore(RegistrationStoreConfig{CodeTTL: 10 * time.Minute, Clock: clock.Now})

	svc, err := NewRegistrationService(db, store, mailer, sessions, cfg)
	require.NoError(t, err)

	return db, svc, store, clock
}

func validInput(username, email string) RegistrationInput {
	return RegistrationInput{
		Username:        username,
		Email:           email,
		Password:        "correct-horse-9",
		ConfirmPassword: "correct-horse-9",
		FirstName:       "Asha",
	}
}

func TestRegistrationBeginVerifyCreatesUser(t *testing.T) {
	mailer := &fakeMailer{}
	db, svc, store, _ := setupRegistrationService(t, mailer, RegistrationConfig{})
	ctx := context.Background()

	result, err := svc.Begin(ctx, validInput("asha", "Asha@Example.com"))
	require.NoError(t, err)
	require.True(t, result.MailSent)
	require.NotEmpty(t, result.RegistrationID)
	require.Equal(t, "asha@example.com", result.Email)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.Zero(t, count, "no account may exist before verification")

	verify, err := svc.Verify(ctx, "asha@example.com", mailer.lastCode(t))
	require.NoError(t, err)
	require.NotEmpty(t, verify.Tokens.AccessToken)
	require.NotEmpty(t, verify.Tokens.RefreshToken)
	require.True(t, verify.User.IsActive)
	require.True(t, verify.User.IsVerified)
	require.True(t, crypto.VerifyPassword(verify.User.Password, "correct-horse-9"))

	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count, "exactly one account per successful verification")
	require.Equal(t, 0, store.Len(), "pending entry must be consumed")
}

func TestRegistrationVerifyReplayFails(t *testing.T) {
	mailer := &fakeMailer{}
	_, svc, _, _ := setupRegistrationService(t, mailer, RegistrationConfig{})
	ctx := context.Background()

	_, err := svc.Begin(ctx, validInput("replay", "replay@example.com"))
	require.NoError(t, err)
	code := mailer.lastCode(t)

	_, err = svc.Verify(ctx, "replay@example.com", code)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "replay@example.com", code)
	require.ErrorIs(t, err, ErrNoPendingRegistration)
}

func TestRegistrationVerifyExpiredCodeDiscardsPending(t *testing.T) {
	mailer := &fakeMailer{}
	_, svc, store, clock := setupRegistrationService(t, mailer, RegistrationConfig{})
	ctx := context.Background()

	_, err := svc.Begin(ctx, validInput("late", "late@example.com"))
	require.NoError(t, err)
	code := mailer.lastCode(t)

	clock.Advance(11 * time.Minute)

	_, err = svc.Verify(ctx, "late@example.com", code)
	require.ErrorIs(t, err, ErrCodeExpired)
	require.Equal(t, 0, store.Len(), "expired registration must be discarded")

	_, err = svc.Verify(ctx, "late@example.com", code)
	require.ErrorIs(t, err, ErrNoPendingRegistration)
}

func TestRegistrationVerifyMismatchKeepsPending(t *testing.T) {
	mailer := &fakeMailer{}
	_, svc, _, _ := setupRegistrationService(t, mailer, RegistrationConfig{})
	ctx := context.Background()

	_, err := svc.Begin(ctx, validInput("typo", "typo@example.com"))
	require.NoError(t, err)
	code := mailer.lastCode(t)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	_, err = svc.Verify(ctx, "typo@example.com", wrong)
	require.ErrorIs(t, err, ErrCodeMismatch)

	_, err = svc.Verify(ctx, "typo@example.com", code)
	require.NoError(t, err, "correct code must still work after a mismatch")
}

func TestRegistrationResendReplacesCode(t *testing.T) {
	mailer := &fakeMailer{}
	_, svc, _, _ := setupRegistrationService(t, mailer, RegistrationConfig{})
	ctx := context.Background()

	begin, err := svc.Begin(ctx, validInput("resend", "resend@example.com"))
	require.NoError(t, err)
	first := mailer.lastCode(t)

	resend, err := svc.Resend(ctx, "resend@example.com")
	require.NoError(t, err)
	require.Equal(t, begin.RegistrationID, resend.RegistrationID)
	second := mailer.lastCode(t)

	if first != second {
		_, err = svc.Verify(ctx, "resend@example.com", first)
		require.ErrorIs(t, err, ErrCodeMismatch, "superseded code must be rejected")
	}

	_, err = svc.Verify(ctx, "resend@example.com", second)
	require.NoError(t, err)
}

func TestRegistrationResendWithoutPending(t *testing.T) {
	mailer := &fakeMailer{}
	_, svc, _, _ := setupRegistrationService(t, mailer, RegistrationConfig{})

	_, err := svc.Resend(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, ErrNoPendingRegistration)
}

func TestRegistrationCancelIsIdempotent(t *testing.T) {
	mailer := &fakeMailer{}
	_, svc, store, _ := setupRegistrationService(t, mailer, RegistrationConfig{})
	ctx := context.Background()

	_, err := svc.Begin(ctx, validInput("cancel", "cancel@example.com"))
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, "cancel@example.com"))
	require.NoError(t, svc.Cancel(ctx, "cancel@example.com"))
	require.Equal(t, 0, store.Len())

	_, err = svc.Verify(ctx, "cancel@example.com", "123456")
	require.ErrorIs(t, err, ErrNoPendingRegistration)
}

func TestRegistrationBeginUniquenessBeforeValidation(t *testing.T) {
	mailer := &fakeMailer{}
	db, svc, _, _ := setupRegistrationService(t, mailer, RegistrationConfig{})
	ctx := context.Background()

	existing := &models.User{Username: "taken", Email: "taken@example.com", Password: "x"}
	require.NoError(t, db.Create(existing).Error)

	// Invalid email and short password, but the username conflict must win.
	_, err := svc.Begin(ctx, RegistrationInput{
		Username:        "taken",
		Email:           "not-an-email",
		Password:        "123",
		ConfirmPassword: "123",
	})
	require.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Begin(ctx, RegistrationInput{
		Username:        "fresh",
		Email:           "taken@example.com",
		Password:        "123",
		ConfirmPassword: "123",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegistrationBeginValidation(t *testing.T) {
	mailer := &fakeMailer{}
	_, svc, _, _ := setupRegistrationService(t, mailer, RegistrationConfig{})
	ctx := context.Background()

	_, err := svc.Begin(ctx, RegistrationInput{
		Username:        "valid",
		Email:           "broken-address",
		Password:        "correct-horse-9",
		ConfirmPassword: "correct-horse-9",
	})
	var fieldErrs validator.ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Equal(t, "email", fieldErrs[0].Field)

	_, err = svc.Begin(ctx, RegistrationInput{
		Username:        "valid",
		Email:           "valid@example.com",
		Password:        "correct-horse-9",
		ConfirmPassword: "different",
	})
	require.ErrorIs(t, err, ErrPasswordMismatch)

	_, err = svc.Begin(ctx, RegistrationInput{
		Username:        "valid",
		Email:           "valid@example.com",
		Password:        "12345678",
		ConfirmPassword: "12345678",
	})
	require.ErrorIs(t, err, ErrPasswordTooWeak, "all-digit passwords are rejected")

	_, err = svc.Begin(ctx, RegistrationInput{
		Username:        "valid",
		Email:           "valid@example.com",
		Password:        "short",
		ConfirmPassword: "short",
	})
	require.ErrorIs(t, err, ErrPasswordTooWeak)
}

func TestRegistrationBeginMailFailureKeepsPending(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp unreachable")}
	_, svc, store, _ := setupRegistrationService(t, mailer, RegistrationConfig{Debug: true})
	ctx := context.Background()

	result, err := svc.Begin(ctx, validInput("offline", "offline@example.com"))
	require.NoError(t, err, "mail failure must not abort the registration")
	require.False(t, result.MailSent)
	require.Len(t, result.DebugCode, 6, "debug mode exposes the code when mail fails")
	require.Equal(t, 1, store.Len())

	verify, err := svc.Verify(ctx, "offline@example.com", result.DebugCode)
	require.NoError(t, err)
	require.True(t, verify.User.IsVerified)
}

func TestRegistrationBeginMailFailureWithoutDebugHidesCode(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp unreachable")}
	_, svc, _, _ := setupRegistrationService(t, mailer, RegistrationConfig{})

	result, err := svc.Begin(context.Background(), validInput("hidden", "hidden@example.com"))
	require.NoError(t, err)
	require.False(t, result.MailSent)
	require.Empty(t, result.DebugCode)
}
