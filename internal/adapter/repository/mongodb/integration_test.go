package mongodb

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/ElHadji11/farmconnect-backend/internal/domain"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	testClient *mongo.Client
	testDB     *mongo.Database
	postRepo   *PostRepository
	userRepo   *UserRepository
)

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	testLogger := logger.NewLogger()

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "6.0",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start MongoDB resource: %s", err)
	}

	mongoURI := fmt.Sprintf("mongodb://%s", resource.GetHostPort("27017/tcp"))
	if err := pool.Retry(func() error {
		var errRetry error
		testClient, errRetry = mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
		if errRetry != nil {
			return errRetry
		}
		return testClient.Ping(context.Background(), nil)
	}); err != nil {
		log.Fatalf("Could not connect to MongoDB: %s", err)
	}

	testDB = testClient.Database("farmconnect_test")
	postRepo, err = NewPostRepository(testDB, testLogger)
	if err != nil {
		log.Fatalf("Could not create post repository: %s", err)
	}
	userRepo, err = NewUserRepository(testDB, testLogger)
	if err != nil {
		log.Fatalf("Could not create user repository: %s", err)
	}

	code := m.Run()

	if err := pool.Purge(resource); err != nil {
		log.Printf("Could not purge MongoDB resource: %s", err)
	}
	os.Exit(code)
}

func cleanCollections(t *testing.T) {
	t.Helper()
	_, err := testDB.Collection(postCollectionName).DeleteMany(context.Background(), bson.M{})
	require.NoError(t, err)
	_, err = testDB.Collection(userCollectionName).DeleteMany(context.Background(), bson.M{})
	require.NoError(t, err)
}

func seedPost(t *testing.T, status domain.PostStatus) *domain.Post {
	t.Helper()
	post := &domain.Post{
		UserID:           "seller1",
		Product:          "Tomatoes",
		ActivityType:     domain.ActivityAgriculture,
		Quantity:         100,
		Price:            2.5,
		Unit:             domain.UnitKg,
		AvailabilityDate: time.Now().Add(24 * time.Hour).UTC(),
		Region:           "Thies",
		Photos:           []string{"https://cdn/photo1.jpg"},
		Status:           status,
	}
	require.NoError(t, postRepo.Create(context.Background(), post))
	return post
}

func TestPostRepository_CreateAndFind(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cleanCollections(t)
	ctx := context.Background()

	post := seedPost(t, domain.StatusActive)
	require.NotEmpty(t, post.ID)
	assert.Equal(t, int64(1), post.Version)

	found, err := postRepo.FindActiveByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tomatoes", found.Product)
	assert.Equal(t, domain.StatusActive, found.Status)
	assert.NotNil(t, found.Reviews)
}

func TestPostRepository_ArchivedHiddenFromActiveReads(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cleanCollections(t)
	ctx := context.Background()

	post := seedPost(t, domain.StatusArchived)

	_, err := postRepo.FindActiveByID(ctx, post.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	// Status-blind read still sees it.
	found, err := postRepo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusArchived, found.Status)

	active, err := postRepo.FindActive(ctx, domain.PostFilter{})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestPostRepository_MalformedIDIsNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	_, err := postRepo.FindByID(context.Background(), "not-a-hex-id")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPostRepository_OptimisticLock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cleanCollections(t)
	ctx := context.Background()

	post := seedPost(t, domain.StatusActive)

	first, err := postRepo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	second, err := postRepo.FindByID(ctx, post.ID)
	require.NoError(t, err)

	first.Price = 3.0
	require.NoError(t, postRepo.Update(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.Price = 4.0
	err = postRepo.Update(ctx, second)
	assert.True(t, errors.Is(err, domain.ErrOptimisticLock))
}

func TestPostRepository_ReviewAndAggregateCommitTogether(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cleanCollections(t)
	ctx := context.Background()

	post := seedPost(t, domain.StatusActive)
	post.Reviews = append(post.Reviews, domain.Review{UserID: "buyer1", Comment: "Good", Rating: 4, CreatedAt: time.Now().UTC()})
	post.RecomputeRating()
	require.NoError(t, postRepo.Update(ctx, post))

	found, err := postRepo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), found.ReviewCount)
	assert.Equal(t, 4.0, found.AverageRating)
	require.Len(t, found.Reviews, 1)
	assert.Equal(t, "buyer1", found.Reviews[0].UserID)
}

func TestPostRepository_FilterQuery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cleanCollections(t)
	ctx := context.Background()

	tomato := seedPost(t, domain.StatusActive)
	onion := &domain.Post{
		UserID:           "seller2",
		Product:          "Onions",
		ActivityType:     domain.ActivityBreeder,
		Quantity:         50,
		Price:            10,
		Unit:             domain.UnitSack,
		AvailabilityDate: time.Now().Add(-24 * time.Hour).UTC(),
		Region:           "Dakar",
		Status:           domain.StatusActive,
	}
	require.NoError(t, postRepo.Create(ctx, onion))

	byQuery, err := postRepo.FindActive(ctx, domain.PostFilter{Query: "toma"})
	require.NoError(t, err)
	require.Len(t, byQuery, 1)
	assert.Equal(t, tomato.ID, byQuery[0].ID)

	byRegion, err := postRepo.FindActive(ctx, domain.PostFilter{Region: "Dakar"})
	require.NoError(t, err)
	require.Len(t, byRegion, 1)
	assert.Equal(t, onion.ID, byRegion[0].ID)

	byPrice, err := postRepo.FindActive(ctx, domain.PostFilter{MinPrice: 5})
	require.NoError(t, err)
	require.Len(t, byPrice, 1)
	assert.Equal(t, onion.ID, byPrice[0].ID)

	available, err := postRepo.FindActive(ctx, domain.PostFilter{Availability: domain.AvailabilityNow})
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, onion.ID, available[0].ID)
}

func TestUserRepository_UpsertIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cleanCollections(t)
	ctx := context.Background()

	first, err := userRepo.UpsertByExternalID(ctx, &domain.User{ExternalID: "ext_u1", Email: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, first.Role)
	assert.NotNil(t, first.Favorites)

	// Promote, then re-sync: role and favorites must survive.
	first.Role = domain.RoleSeller
	require.NoError(t, userRepo.Update(ctx, first))
	require.NoError(t, userRepo.AddFavorite(ctx, first.ID, "post1"))

	second, err := userRepo.UpsertByExternalID(ctx, &domain.User{ExternalID: "ext_u1", Email: "b@example.com"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "b@example.com", second.Email)
	assert.Equal(t, domain.RoleSeller, second.Role)
	assert.Equal(t, []string{"post1"}, second.Favorites)
}

func TestUserRepository_FavoriteSetSemantics(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cleanCollections(t)
	ctx := context.Background()

	user, err := userRepo.UpsertByExternalID(ctx, &domain.User{ExternalID: "ext_u1"})
	require.NoError(t, err)

	require.NoError(t, userRepo.AddFavorite(ctx, user.ID, "post1"))

	err = userRepo.AddFavorite(ctx, user.ID, "post1")
	assert.True(t, errors.Is(err, domain.ErrConflict))

	require.NoError(t, userRepo.RemoveFavorite(ctx, user.ID, "post1"))

	err = userRepo.RemoveFavorite(ctx, user.ID, "post1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUserRepository_AddFavoriteMissingUserIsNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cleanCollections(t)

	err := userRepo.AddFavorite(context.Background(), primitive.NewObjectID().Hex(), "post1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.False(t, errors.Is(err, domain.ErrConflict))
}

func TestUserRepository_CompanyNameUnique(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cleanCollections(t)
	ctx := context.Background()

	first, err := userRepo.UpsertByExternalID(ctx, &domain.User{ExternalID: "ext_u1"})
	require.NoError(t, err)
	second, err := userRepo.UpsertByExternalID(ctx, &domain.User{ExternalID: "ext_u2"})
	require.NoError(t, err)

	first.CompanyName = "Green Fields"
	require.NoError(t, userRepo.Update(ctx, first))

	second.CompanyName = "Green Fields"
	err = userRepo.Update(ctx, second)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	found, err := userRepo.FindByCompanyName(ctx, "Green Fields")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestUserRepository_UpdateWithoutCompanyNameNeverCollides(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cleanCollections(t)
	ctx := context.Background()

	first, err := userRepo.UpsertByExternalID(ctx, &domain.User{ExternalID: "ext_u1"})
	require.NoError(t, err)
	second, err := userRepo.UpsertByExternalID(ctx, &domain.User{ExternalID: "ext_u2"})
	require.NoError(t, err)

	// Neither user has a company name; profile edits must not trip the
	// unique company_name index on an empty value.
	first.Bio = "Looking for fresh produce"
	require.NoError(t, userRepo.Update(ctx, first))

	second.Bio = "Weekly market shopper"
	require.NoError(t, userRepo.Update(ctx, second))

	// A seller clearing unrelated fields keeps their name reserved.
	third, err := userRepo.UpsertByExternalID(ctx, &domain.User{ExternalID: "ext_u3"})
	require.NoError(t, err)
	third.CompanyName = "Green Fields"
	require.NoError(t, userRepo.Update(ctx, third))

	found, err := userRepo.FindByCompanyName(ctx, "Green Fields")
	require.NoError(t, err)
	assert.Equal(t, third.ID, found.ID)
}
