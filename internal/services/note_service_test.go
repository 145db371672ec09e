package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bcastudynepal/portal/internal/database/testutil"
	"github.com/bcastudynepal/portal/internal/models"
)

func newNoteFixture(t *testing.T) (*NoteService, *models.Subject, *models.User) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	program := seedProgram(t, db, "BCA")
	subject := seedSubject(t, db, program.ID, "CACS101", 1)
	user := seedUser(t, db, "note-uploader")

	svc, err := NewNoteService(db)
	require.NoError(t, err)
	return svc, subject, user
}

func TestNoteCreateAndGet(t *testing.T) {
	svc, subject, user := newNoteFixture(t)

	note, err := svc.Create(context.Background(), CreateNoteInput{
		Title:        "  Pointers in C  ",
		SubjectID:    subject.ID,
		Semester:     1,
		Description:  "Chapter 7 summary",
		FileURL:      "https://files.example.com/notes/pointers.pdf",
		UploadedByID: user.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "Pointers in C", note.Title)
	require.False(t, note.IsVerified)

	got, err := svc.Get(context.Background(), note.ID)
	require.NoError(t, err)
	require.Equal(t, note.ID, got.ID)
	require.NotNil(t, got.Subject)
	require.Equal(t, "CACS101", got.Subject.Code)
}

func TestNoteCreateValidation(t *testing.T) {
	svc, subject, user := newNoteFixture(t)

	_, err := svc.Create(context.Background(), CreateNoteInput{
		SubjectID:    subject.ID,
		Semester:     1,
		FileURL:      "https://files.example.com/n.pdf",
		UploadedByID: user.ID,
	})
	require.Error(t, err, "title is required")

	_, err = svc.Create(context.Background(), CreateNoteInput{
		Title:        "Arrays",
		SubjectID:    "no-such-subject",
		Semester:     1,
		FileURL:      "https://files.example.com/n.pdf",
		UploadedByID: user.ID,
	})
	require.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestNoteListSearchesTitleAndDescription(t *testing.T) {
	svc, subject, user := newNoteFixture(t)

	for _, entry := range []struct{ title, description string }{
		{"Pointers in C", "memory addressing"},
		{"Arrays", "contiguous storage and pointer arithmetic"},
		{"Sorting", "bubble and merge sort"},
	} {
		_, err := svc.Create(context.Background(), CreateNoteInput{
			Title:        entry.title,
			SubjectID:    subject.ID,
			Semester:     1,
			Description:  entry.description,
			FileURL:      "https://files.example.com/n.pdf",
			UploadedByID: user.ID,
		})
		require.NoError(t, err)
	}

	matches, err := svc.List(context.Background(), ListNotesOptions{Search: "pointer"})
	require.NoError(t, err)
	require.Len(t, matches, 2, "search covers title and description")

	bySemester, err := svc.List(context.Background(), ListNotesOptions{Semester: 2})
	require.NoError(t, err)
	require.Empty(t, bySemester)
}

func TestNoteBySubjectRequiresSubject(t *testing.T) {
	svc, subject, user := newNoteFixture(t)

	_, err := svc.Create(context.Background(), CreateNoteInput{
		Title:        "Arrays",
		SubjectID:    subject.ID,
		Semester:     1,
		FileURL:      "https://files.example.com/n.pdf",
		UploadedByID: user.ID,
	})
	require.NoError(t, err)

	notes, err := svc.BySubject(context.Background(), subject.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	_, err = svc.BySubject(context.Background(), "no-such-subject")
	require.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestNoteSetVerifiedAndDelete(t *testing.T) {
	svc, subject, user := newNoteFixture(t)

	note, err := svc.Create(context.Background(), CreateNoteInput{
		Title:        "Arrays",
		SubjectID:    subject.ID,
		Semester:     1,
		FileURL:      "https://files.example.com/n.pdf",
		UploadedByID: user.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetVerified(context.Background(), note.ID, true))
	got, err := svc.Get(context.Background(), note.ID)
	require.NoError(t, err)
	require.True(t, got.IsVerified)

	require.NoError(t, svc.Delete(context.Background(), note.ID))
	_, err = svc.Get(context.Background(), note.ID)
	require.ErrorIs(t, err, ErrNoteNotFound)

	require.ErrorIs(t, svc.Delete(context.Background(), note.ID), ErrNoteNotFound)
}
