package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bcastudynepal/portal/internal/handlers/testutil"
	"github.com/bcastudynepal/portal/internal/models"
)

func TestAdminRoutesRequireAdminAccount(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("Sup3r-secret!")
	login := env.Login(user.Username, "Sup3r-secret!")

	payload := map[string]any{"name": "Patan College"}

	w := env.Request(http.MethodPost, "/api/colleges", payload, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.Request(http.MethodPost, "/api/colleges", payload, login.Tokens.AccessToken)
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
}

func TestAdminCreatesCollegeAndPublicReadsIt(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateAdmin("Sup3r-secret!")
	login := env.Login(admin.Username, "Sup3r-secret!")

	w := env.Request(http.MethodPost, "/api/colleges", map[string]any{
		"name":    "Patan College",
		"address": "Lalitpur",
		"website": "https://patan.example.edu",
	}, login.Tokens.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	var created models.College
	testutil.DecodeInto(t, resp.Data, &created)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Patan College", created.Name)

	// The listing is public.
	w = env.Request(http.MethodGet, "/api/colleges", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp = testutil.DecodeResponse(t, w)
	var colleges []models.College
	testutil.DecodeInto(t, resp.Data, &colleges)
	require.Len(t, colleges, 1)
}

func TestNoteUploadAndModeration(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateAdmin("Sup3r-secret!")
	user := env.CreateUser("Sup3r-secret!")
	adminLogin := env.Login(admin.Username, "Sup3r-secret!")
	userLogin := env.Login(user.Username, "Sup3r-secret!")

	// Seed data ships the BCA program; attach a subject to it.
	var program models.Program
	require.NoError(t, env.DB.First(&program, "slug = ?", "bca").Error)

	w := env.Request(http.MethodPost, "/api/subjects", map[string]any{
		"program_id": program.ID,
		"name":         "Data Structures",
		"code":         "CSC-201",
		"semester":     3,
		"credit_hours": 3,
	}, adminLogin.Tokens.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	var subject models.Subject
	testutil.DecodeInto(t, resp.Data, &subject)

	// Any signed-in user can contribute a note.
	w = env.Request(http.MethodPost, "/api/notes", map[string]any{
		"subject_id": subject.ID,
		"title":      "Linked lists summary",
		"semester":   3,
		"file_url":   "https://files.example.com/notes/linked-lists.pdf",
	}, userLogin.Tokens.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp = testutil.DecodeResponse(t, w)
	var note models.Note
	testutil.DecodeInto(t, resp.Data, &note)
	require.Equal(t, user.ID, note.UploadedByID)
	require.False(t, note.IsVerified)

	// Moderation is admin-only.
	w = env.Request(http.MethodPatch, "/api/notes/"+note.ID+"/verify", map[string]any{
		"verified": true,
	}, userLogin.Tokens.AccessToken)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.Request(http.MethodPatch, "/api/notes/"+note.ID+"/verify", map[string]any{
		"verified": true,
	}, adminLogin.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.Note
	require.NoError(t, env.DB.First(&stored, "id = ?", note.ID).Error)
	require.True(t, stored.IsVerified)
}

func TestQuestionPaperCountersArePublic(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateAdmin("Sup3r-secret!")
	adminLogin := env.Login(admin.Username, "Sup3r-secret!")

	var program models.Program
	require.NoError(t, env.DB.First(&program, "slug = ?", "bca").Error)

	w := env.Request(http.MethodPost, "/api/subjects", map[string]any{
		"program_id": program.ID,
		"name":         "Operating Systems",
		"code":         "CSC-301",
		"semester":     5,
		"credit_hours": 3,
	}, adminLogin.Tokens.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	var subject models.Subject
	testutil.DecodeInto(t, resp.Data, &subject)

	w = env.Request(http.MethodPost, "/api/question-papers", map[string]any{
		"subject_id": subject.ID,
		"year":       2023,
		"semester":   5,
		"file_url":   "https://files.example.com/papers/os-2023.pdf",
	}, adminLogin.Tokens.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp = testutil.DecodeResponse(t, w)
	var paper models.QuestionPaper
	testutil.DecodeInto(t, resp.Data, &paper)

	// Anonymous visitors bump the counters.
	w = env.Request(http.MethodPost, "/api/question-papers/"+paper.ID+"/view", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.Request(http.MethodPost, "/api/question-papers/"+paper.ID+"/download", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.QuestionPaper
	require.NoError(t, env.DB.First(&stored, "id = ?", paper.ID).Error)
	require.Equal(t, 1, stored.ViewCount)
	require.Equal(t, 1, stored.DownloadCount)
}
