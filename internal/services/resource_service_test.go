package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bcastudynepal/portal/internal/database/testutil"
	"github.com/bcastudynepal/portal/internal/models"
)

func newResourceFixture(t *testing.T) (*gorm.DB, *ResourceService, *models.Category) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	category := seedCategory(t, db, "Programming", 1)

	svc, err := NewResourceService(db)
	require.NoError(t, err)
	return db, svc, category
}

func TestResourceCreateDerivesSlugAndFavicon(t *testing.T) {
	_, svc, category := newResourceFixture(t)

	resource, err := svc.CreateResource(context.Background(), CreateResourceInput{
		Title:      "Go by Example",
		URL:        "https://gobyexample.com/slices",
		CategoryID: category.ID,
		TagNames:   []string{"Go", "Tutorials"},
	})
	require.NoError(t, err)
	require.Equal(t, "go-by-example", resource.Slug)
	require.Equal(t, "https://gobyexample.com/favicon.ico", resource.FaviconURL)
	require.Len(t, resource.Tags, 2)

	// A second resource with the same title gets a suffixed slug.
	again, err := svc.CreateResource(context.Background(), CreateResourceInput{
		Title:      "Go by Example",
		URL:        "https://example.com/mirror",
		CategoryID: category.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "go-by-example-2", again.Slug)
}

func TestResourceCreateRequiresCategory(t *testing.T) {
	_, svc, _ := newResourceFixture(t)

	_, err := svc.CreateResource(context.Background(), CreateResourceInput{
		Title:      "Go by Example",
		URL:        "https://gobyexample.com",
		CategoryID: "no-such-category",
	})
	require.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestResourceListOrdering(t *testing.T) {
	_, svc, category := newResourceFixture(t)

	_, err := svc.CreateResource(context.Background(), CreateResourceInput{
		Title: "Ordinary", URL: "https://a.example.com", CategoryID: category.ID,
	})
	require.NoError(t, err)

	featured, err := svc.CreateResource(context.Background(), CreateResourceInput{
		Title: "Featured Pick", URL: "https://b.example.com", CategoryID: category.ID,
		Featured: true, Priority: 1,
	})
	require.NoError(t, err)

	resources, err := svc.ListResources(context.Background(), ListResourcesOptions{})
	require.NoError(t, err)
	require.Len(t, resources, 2)
	require.Equal(t, featured.ID, resources[0].ID, "featured entries lead the listing")

	featuredOnly, err := svc.ListResources(context.Background(), ListResourcesOptions{FeaturedOnly: true})
	require.NoError(t, err)
	require.Len(t, featuredOnly, 1)
}

func TestResourceListFilters(t *testing.T) {
	db, svc, category := newResourceFixture(t)
	other := seedCategory(t, db, "Databases", 2)

	_, err := svc.CreateResource(context.Background(), CreateResourceInput{
		Title: "Go by Example", URL: "https://gobyexample.com", CategoryID: category.ID,
		TagNames: []string{"Go"},
	})
	require.NoError(t, err)

	_, err = svc.CreateResource(context.Background(), CreateResourceInput{
		Title: "Use The Index, Luke", URL: "https://use-the-index-luke.com", CategoryID: other.ID,
		TagNames: []string{"SQL"},
	})
	require.NoError(t, err)

	byCategory, err := svc.ListResources(context.Background(), ListResourcesOptions{CategorySlug: "databases"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	require.Equal(t, "Use The Index, Luke", byCategory[0].Title)

	byTag, err := svc.ListResources(context.Background(), ListResourcesOptions{TagSlug: "go"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)

	bySearch, err := svc.ListResources(context.Background(), ListResourcesOptions{Search: "index"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
}

func TestResourceViewCounterAndSoftDelete(t *testing.T) {
	_, svc, category := newResourceFixture(t)

	resource, err := svc.CreateResource(context.Background(), CreateResourceInput{
		Title: "Go by Example", URL: "https://gobyexample.com", CategoryID: category.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.IncrementView(context.Background(), resource.ID))
	got, err := svc.GetResource(context.Background(), "go-by-example")
	require.NoError(t, err)
	require.Equal(t, 1, got.ViewCount)

	require.NoError(t, svc.DeleteResource(context.Background(), resource.ID))

	_, err = svc.GetResource(context.Background(), resource.ID)
	require.ErrorIs(t, err, ErrResourceNotFound)
	require.ErrorIs(t, svc.IncrementView(context.Background(), resource.ID), ErrResourceNotFound)

	listed, err := svc.ListResources(context.Background(), ListResourcesOptions{})
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestResourceToggleFavoriteReactivates(t *testing.T) {
	db, svc, category := newResourceFixture(t)
	user := seedUser(t, db, "bookworm")

	resource, err := svc.CreateResource(context.Background(), CreateResourceInput{
		Title: "Go by Example", URL: "https://gobyexample.com", CategoryID: category.ID,
	})
	require.NoError(t, err)

	active, err := svc.ToggleFavorite(context.Background(), user.ID, resource.ID)
	require.NoError(t, err)
	require.True(t, active)

	active, err = svc.ToggleFavorite(context.Background(), user.ID, resource.ID)
	require.NoError(t, err)
	require.False(t, active)

	// Toggling back must re-activate the existing row, not insert a second one.
	active, err = svc.ToggleFavorite(context.Background(), user.ID, resource.ID)
	require.NoError(t, err)
	require.True(t, active)

	var rows int64
	require.NoError(t, db.Model(&models.Favorite{}).
		Where("user_id = ? AND resource_id = ?", user.ID, resource.ID).
		Count(&rows).Error)
	require.EqualValues(t, 1, rows)

	favorites, err := svc.ListFavorites(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
}

func TestResourceCategorySummaryCounts(t *testing.T) {
	_, svc, category := newResourceFixture(t)

	resource, err := svc.CreateResource(context.Background(), CreateResourceInput{
		Title: "Go by Example", URL: "https://gobyexample.com", CategoryID: category.ID,
	})
	require.NoError(t, err)
	_, err = svc.CreateResource(context.Background(), CreateResourceInput{
		Title: "Tour of Go", URL: "https://go.dev/tour", CategoryID: category.ID,
	})
	require.NoError(t, err)

	summaries, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.EqualValues(t, 2, summaries[0].ResourceCount)

	// Deleted resources leave the count.
	require.NoError(t, svc.DeleteResource(context.Background(), resource.ID))
	summaries, err = svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, summaries[0].ResourceCount)
}

func TestResourceSubmissionReviewApprovePublishes(t *testing.T) {
	db, svc, category := newResourceFixture(t)
	reviewer := seedUser(t, db, "moderator")

	submission, err := svc.Submit(context.Background(), SubmitResourceInput{
		Title:          "Learn SQL",
		URL:            "https://sqlbolt.com",
		CategoryID:     category.ID,
		SubmitterEmail: "someone@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusPending, submission.Status)

	published, err := svc.Review(context.Background(), submission.ID, reviewer.ID, true, "looks good")
	require.NoError(t, err)
	require.NotNil(t, published)
	require.Equal(t, "learn-sql", published.Slug)

	pending, err := svc.ListSubmissions(context.Background(), models.SubmissionStatusPending)
	require.NoError(t, err)
	require.Empty(t, pending)

	// A settled submission cannot be reviewed again.
	_, err = svc.Review(context.Background(), submission.ID, reviewer.ID, false, "")
	require.ErrorIs(t, err, ErrSubmissionReviewed)
}

func TestResourceSubmissionReviewReject(t *testing.T) {
	db, svc, category := newResourceFixture(t)
	reviewer := seedUser(t, db, "moderator")

	submission, err := svc.Submit(context.Background(), SubmitResourceInput{
		Title:      "Spammy Link",
		URL:        "https://spam.example.com",
		CategoryID: category.ID,
	})
	require.NoError(t, err)

	published, err := svc.Review(context.Background(), submission.ID, reviewer.ID, false, "not relevant")
	require.NoError(t, err)
	require.Nil(t, published)

	rejected, err := svc.ListSubmissions(context.Background(), models.SubmissionStatusRejected)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	require.Equal(t, "not relevant", rejected[0].ReviewNotes)
	require.NotNil(t, rejected[0].ReviewedAt)

	resources, err := svc.ListResources(context.Background(), ListResourcesOptions{})
	require.NoError(t, err)
	require.Empty(t, resources, "rejected submissions are not published")
}
