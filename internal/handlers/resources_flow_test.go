package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bcastudynepal/portal/internal/handlers/testutil"
	"github.com/bcastudynepal/portal/internal/models"
)

func seededCategory(t *testing.T, env *testutil.Env) models.Category {
	t.Helper()
	var category models.Category
	require.NoError(t, env.DB.First(&category, "slug = ?", "programming").Error)
	return category
}

func TestResourceFavoritesOverHTTP(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateAdmin("Sup3r-secret!")
	user := env.CreateUser("Sup3r-secret!")
	adminLogin := env.Login(admin.Username, "Sup3r-secret!")
	userLogin := env.Login(user.Username, "Sup3r-secret!")

	category := seededCategory(t, env)

	w := env.Request(http.MethodPost, "/api/resources", map[string]any{
		"title":       "Go by Example",
		"url":         "https://gobyexample.com",
		"category_id": category.ID,
		"tags":        []string{"Go", "Tutorials"},
	}, adminLogin.Tokens.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	var resource models.Resource
	testutil.DecodeInto(t, resp.Data, &resource)
	require.Equal(t, "go-by-example", resource.Slug)

	// Favourite, list, unfavourite.
	w = env.Request(http.MethodPost, "/api/resources/"+resource.ID+"/favorite", nil, userLogin.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = testutil.DecodeResponse(t, w)
	var toggle struct {
		Favorited bool `json:"favorited"`
	}
	testutil.DecodeInto(t, resp.Data, &toggle)
	require.True(t, toggle.Favorited)

	w = env.Request(http.MethodGet, "/api/resources/favorites", nil, userLogin.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	resp = testutil.DecodeResponse(t, w)
	var favorites []models.Favorite
	testutil.DecodeInto(t, resp.Data, &favorites)
	require.Len(t, favorites, 1)

	w = env.Request(http.MethodPost, "/api/resources/"+resource.ID+"/favorite", nil, userLogin.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	resp = testutil.DecodeResponse(t, w)
	testutil.DecodeInto(t, resp.Data, &toggle)
	require.False(t, toggle.Favorited)
}

func TestSubmissionReviewPublishesResource(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateAdmin("Sup3r-secret!")
	user := env.CreateUser("Sup3r-secret!")
	adminLogin := env.Login(admin.Username, "Sup3r-secret!")
	userLogin := env.Login(user.Username, "Sup3r-secret!")

	category := seededCategory(t, env)

	w := env.Request(http.MethodPost, "/api/resources/submissions", map[string]any{
		"title":       "The Go Blog",
		"url":         "https://go.dev/blog",
		"category_id": category.ID,
	}, userLogin.Tokens.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	var submission models.ResourceSubmission
	testutil.DecodeInto(t, resp.Data, &submission)

	// Listing submissions is admin-only.
	w = env.Request(http.MethodGet, "/api/resources/submissions?status=PENDING", nil, userLogin.Tokens.AccessToken)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.Request(http.MethodGet, "/api/resources/submissions?status=PENDING", nil, adminLogin.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Request(http.MethodPost, "/api/resources/submissions/"+submission.ID+"/review", map[string]any{
		"approve": true,
		"notes":   "looks good",
	}, adminLogin.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp = testutil.DecodeResponse(t, w)
	var review struct {
		Approved bool             `json:"approved"`
		Resource *models.Resource `json:"resource"`
	}
	testutil.DecodeInto(t, resp.Data, &review)
	require.True(t, review.Approved)
	require.NotNil(t, review.Resource)

	// The approved submission is now publicly readable.
	w = env.Request(http.MethodGet, "/api/resources/"+review.Resource.Slug, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// A second review attempt is rejected.
	w = env.Request(http.MethodPost, "/api/resources/submissions/"+submission.ID+"/review", map[string]any{
		"approve": false,
	}, adminLogin.Tokens.AccessToken)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
