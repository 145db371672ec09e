package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bcastudynepal/portal/internal/database/testutil"
	apperrors "github.com/bcastudynepal/portal/pkg/errors"
)

func TestUserAuthenticateByUsernameOrEmail(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	user := seedUser(t, db, "ramesh")

	svc, err := NewUserService(db)
	require.NoError(t, err)
	loginAt := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return loginAt }

	byUsername, err := svc.Authenticate(context.Background(), "ramesh", "initial-password", "203.0.113.7")
	require.NoError(t, err)
	require.Equal(t, user.ID, byUsername.ID)

	byEmail, err := svc.Authenticate(context.Background(), "ramesh@example.com", "initial-password", "")
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)

	reloaded, err := svc.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)
	require.Equal(t, "203.0.113.7", reloaded.LastLoginIP)
}

func TestUserAuthenticateRejectsBadCredentials(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	seedUser(t, db, "ramesh")

	svc, err := NewUserService(db)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "ramesh", "wrong-password", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody", "initial-password", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "", "", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestUserAuthenticateRejectsDisabledAccount(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	user := seedUser(t, db, "ramesh")

	svc, err := NewUserService(db)
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), user.ID))

	_, err = svc.Authenticate(context.Background(), "ramesh", "initial-password", "")
	require.ErrorIs(t, err, ErrAccountDisabled)
}

func TestUserUpdateProfile(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	user := seedUser(t, db, "ramesh")

	svc, err := NewUserService(db)
	require.NoError(t, err)

	firstName := "Ramesh"
	bio := "Third semester student"
	semester := 3
	_, err = svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{
		FirstName: &firstName,
		Bio:       &bio,
		Semester:  &semester,
		Interests: []string{"databases", " networking ", ""},
		Skills:    []string{"go", "sql"},
	})
	require.NoError(t, err)

	reloaded, err := svc.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, "Ramesh", reloaded.FirstName)
	require.NotNil(t, reloaded.Semester)
	require.Equal(t, 3, *reloaded.Semester)

	var interests []string
	require.NoError(t, json.Unmarshal(reloaded.Interests, &interests))
	require.Equal(t, []string{"databases", "networking"}, interests, "blank entries are dropped")

	badSemester := 9
	_, err = svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{Semester: &badSemester})
	require.Error(t, err)
}

func TestUserChangePassword(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	user := seedUser(t, db, "ramesh")

	svc, err := NewUserService(db)
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), user.ID, "wrong-password", "new-password-1")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(context.Background(), user.ID, "initial-password", "new-password-1"))

	_, err = svc.Authenticate(context.Background(), "ramesh", "new-password-1", "")
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), "ramesh", "initial-password", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}
