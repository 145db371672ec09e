package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bcastudynepal/portal/internal/database/testutil"
	"github.com/bcastudynepal/portal/internal/models"
)

func newPaperFixture(t *testing.T) (*QuestionPaperService, *models.Subject, *models.User) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	program := seedProgram(t, db, "BCA")
	subject := seedSubject(t, db, program.ID, "CACS101", 1)
	user := seedUser(t, db, "uploader")

	svc, err := NewQuestionPaperService(db)
	require.NoError(t, err)
	return svc, subject, user
}

func TestQuestionPaperCreateStartsPending(t *testing.T) {
	svc, subject, user := newPaperFixture(t)

	paper, err := svc.Create(context.Background(), CreatePaperInput{
		SubjectID:    subject.ID,
		Year:         2023,
		Semester:     1,
		FileURL:      "https://files.example.com/papers/cacs101-2023.pdf",
		UploadedByID: user.ID,
	})
	require.NoError(t, err)
	require.Equal(t, models.PaperStatusPending, paper.Status)
	require.False(t, paper.IsVerified())
}

func TestQuestionPaperCreateRejectsDuplicate(t *testing.T) {
	svc, subject, _ := newPaperFixture(t)

	input := CreatePaperInput{
		SubjectID: subject.ID,
		Year:      2023,
		Semester:  1,
		FileURL:   "https://files.example.com/p.pdf",
	}
	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), input)
	require.ErrorIs(t, err, ErrPaperExists)

	// A different year is a different paper.
	input.Year = 2024
	_, err = svc.Create(context.Background(), input)
	require.NoError(t, err)
}

func TestQuestionPaperCreateUnknownSubject(t *testing.T) {
	svc, _, _ := newPaperFixture(t)

	_, err := svc.Create(context.Background(), CreatePaperInput{
		SubjectID: "no-such-subject",
		Year:      2023,
		Semester:  1,
		FileURL:   "https://files.example.com/p.pdf",
	})
	require.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestQuestionPaperBySubject(t *testing.T) {
	svc, subject, _ := newPaperFixture(t)

	for _, year := range []int{2021, 2023, 2022} {
		_, err := svc.Create(context.Background(), CreatePaperInput{
			SubjectID: subject.ID,
			Year:      year,
			Semester:  1,
			FileURL:   "https://files.example.com/p.pdf",
		})
		require.NoError(t, err)
	}

	papers, err := svc.BySubject(context.Background(), subject.ID, 0)
	require.NoError(t, err)
	require.Len(t, papers, 3)
	require.Equal(t, 2023, papers[0].Year, "newest year first")

	only2022, err := svc.BySubject(context.Background(), subject.ID, 2022)
	require.NoError(t, err)
	require.Len(t, only2022, 1)

	_, err = svc.BySubject(context.Background(), "no-such-subject", 0)
	require.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestQuestionPaperSetStatusVerifiedCreditsUploader(t *testing.T) {
	svc, subject, user := newPaperFixture(t)
	verifiedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return verifiedAt }

	paper, err := svc.Create(context.Background(), CreatePaperInput{
		SubjectID:    subject.ID,
		Year:         2023,
		Semester:     1,
		FileURL:      "https://files.example.com/p.pdf",
		UploadedByID: user.ID,
	})
	require.NoError(t, err)

	// No explicit verifier: the uploader is credited.
	_, err = svc.SetStatus(context.Background(), paper.ID, "verified", "")
	require.NoError(t, err)

	reloaded, err := svc.Get(context.Background(), paper.ID)
	require.NoError(t, err)
	require.True(t, reloaded.IsVerified())
	require.NotNil(t, reloaded.VerifiedByID)
	require.Equal(t, user.ID, *reloaded.VerifiedByID)
	require.NotNil(t, reloaded.VerifiedDate)
	require.Equal(t, verifiedAt, reloaded.VerifiedDate.UTC())
}

func TestQuestionPaperSetStatusRejectsUnknownState(t *testing.T) {
	svc, subject, _ := newPaperFixture(t)

	paper, err := svc.Create(context.Background(), CreatePaperInput{
		SubjectID: subject.ID,
		Year:      2023,
		Semester:  1,
		FileURL:   "https://files.example.com/p.pdf",
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(context.Background(), paper.ID, "ARCHIVED", "")
	require.ErrorIs(t, err, ErrInvalidPaperStatus)
}

func TestQuestionPaperCounters(t *testing.T) {
	svc, subject, _ := newPaperFixture(t)

	paper, err := svc.Create(context.Background(), CreatePaperInput{
		SubjectID: subject.ID,
		Year:      2023,
		Semester:  1,
		FileURL:   "https://files.example.com/p.pdf",
	})
	require.NoError(t, err)

	require.NoError(t, svc.IncrementView(context.Background(), paper.ID))
	require.NoError(t, svc.IncrementView(context.Background(), paper.ID))
	require.NoError(t, svc.IncrementDownload(context.Background(), paper.ID))

	reloaded, err := svc.Get(context.Background(), paper.ID)
	require.NoError(t, err)
	require.Equal(t, 2, reloaded.ViewCount)
	require.Equal(t, 1, reloaded.DownloadCount)

	require.ErrorIs(t, svc.IncrementView(context.Background(), "no-such-paper"), ErrPaperNotFound)
}
