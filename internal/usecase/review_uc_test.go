package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/ElHadji11/farmconnect-backend/internal/domain"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newReviewUsecaseForTest() (*ReviewUsecase, *MockPostRepository, *MockUserRepository, *MockPostCache, *MockEventPublisher) {
	posts := new(MockPostRepository)
	users := new(MockUserRepository)
	postCache := new(MockPostCache)
	events := new(MockEventPublisher)
	uc := NewReviewUsecase(posts, users, postCache, events, logger.NewLogger())
	return uc, posts, users, postCache, events
}

func reviewerForTest() *domain.User {
	return &domain.User{ID: "buyer1", ExternalID: "ext_buyer1", Role: domain.RoleUser}
}

func TestAddReview_AggregatesRunningAverage(t *testing.T) {
	uc, posts, users, postCache, events := newReviewUsecaseForTest()
	ctx := context.Background()
	reviewer := reviewerForTest()
	post := &domain.Post{
		ID:      "post1",
		UserID:  "seller1",
		Status:  domain.StatusActive,
		Version: 1,
		Reviews: []domain.Review{{UserID: "other", Rating: 4}},
	}
	post.RecomputeRating()

	users.On("FindByExternalID", ctx, "ext_buyer1").Return(reviewer, nil).Once()
	posts.On("FindByID", ctx, "post1").Return(post, nil).Once()
	posts.On("Update", ctx, post).Return(nil).Once()
	postCache.On("Delete", ctx, "post1").Return(nil).Once()
	events.On("Publish", ctx, SubjectReviewAdded, mock.Anything).Return(nil).Once()

	updated, err := uc.AddReview(ctx, "ext_buyer1", "post1", "Good produce", 2)

	assert.NoError(t, err)
	assert.Equal(t, int32(2), updated.ReviewCount)
	assert.Equal(t, 3.0, updated.AverageRating)
	posts.AssertExpectations(t)
}

func TestAddReview_ValidatesInput(t *testing.T) {
	uc, posts, users, _, _ := newReviewUsecaseForTest()
	ctx := context.Background()

	_, err := uc.AddReview(ctx, "ext_buyer1", "post1", "fine", 0)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = uc.AddReview(ctx, "ext_buyer1", "post1", "fine", 6)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = uc.AddReview(ctx, "ext_buyer1", "post1", "   ", 3)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	users.AssertNotCalled(t, "FindByExternalID", mock.Anything, mock.Anything)
	posts.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestAddReview_DuplicateIsConflict(t *testing.T) {
	uc, posts, users, _, _ := newReviewUsecaseForTest()
	ctx := context.Background()
	reviewer := reviewerForTest()
	post := &domain.Post{
		ID:      "post1",
		UserID:  "seller1",
		Version: 1,
		Reviews: []domain.Review{{UserID: "buyer1", Rating: 5}},
	}

	users.On("FindByExternalID", ctx, "ext_buyer1").Return(reviewer, nil).Once()
	posts.On("FindByID", ctx, "post1").Return(post, nil).Once()

	_, err := uc.AddReview(ctx, "ext_buyer1", "post1", "again", 4)

	assert.True(t, errors.Is(err, domain.ErrConflict))
	posts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAddReview_SelfReviewForbidden(t *testing.T) {
	uc, posts, users, _, _ := newReviewUsecaseForTest()
	ctx := context.Background()
	owner := &domain.User{ID: "seller1", ExternalID: "ext_seller1", Role: domain.RoleSeller}
	post := &domain.Post{ID: "post1", UserID: "seller1", Version: 1}

	users.On("FindByExternalID", ctx, "ext_seller1").Return(owner, nil).Once()
	posts.On("FindByID", ctx, "post1").Return(post, nil).Once()

	_, err := uc.AddReview(ctx, "ext_seller1", "post1", "my own post is great", 5)

	assert.True(t, errors.Is(err, domain.ErrForbidden))
	posts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAddReview_RetriesOnOptimisticLock(t *testing.T) {
	uc, posts, users, postCache, events := newReviewUsecaseForTest()
	ctx := context.Background()
	reviewer := reviewerForTest()

	users.On("FindByExternalID", ctx, "ext_buyer1").Return(reviewer, nil).Once()
	// First read commits against a stale version, second read succeeds.
	posts.On("FindByID", ctx, "post1").Return(&domain.Post{ID: "post1", UserID: "seller1", Version: 1}, nil).Once()
	posts.On("Update", ctx, mock.AnythingOfType("*domain.Post")).Return(domain.ErrOptimisticLock).Once()
	posts.On("FindByID", ctx, "post1").Return(&domain.Post{ID: "post1", UserID: "seller1", Version: 2}, nil).Once()
	posts.On("Update", ctx, mock.AnythingOfType("*domain.Post")).Return(nil).Once()
	postCache.On("Delete", ctx, "post1").Return(nil).Once()
	events.On("Publish", ctx, SubjectReviewAdded, mock.Anything).Return(nil).Once()

	updated, err := uc.AddReview(ctx, "ext_buyer1", "post1", "Good", 4)

	assert.NoError(t, err)
	assert.Equal(t, int32(1), updated.ReviewCount)
	posts.AssertExpectations(t)
}

func TestAddReview_ExhaustedRetries(t *testing.T) {
	uc, posts, users, _, _ := newReviewUsecaseForTest()
	ctx := context.Background()
	reviewer := reviewerForTest()

	users.On("FindByExternalID", ctx, "ext_buyer1").Return(reviewer, nil).Once()
	posts.On("FindByID", ctx, "post1").Return(&domain.Post{ID: "post1", UserID: "seller1", Version: 1}, nil).Times(maxReviewRetries)
	posts.On("Update", ctx, mock.AnythingOfType("*domain.Post")).Return(domain.ErrOptimisticLock).Times(maxReviewRetries)

	_, err := uc.AddReview(ctx, "ext_buyer1", "post1", "Good", 4)

	assert.True(t, errors.Is(err, domain.ErrOptimisticLock))
	posts.AssertExpectations(t)
}

func TestAddReview_UnknownPost(t *testing.T) {
	uc, posts, users, _, _ := newReviewUsecaseForTest()
	ctx := context.Background()
	reviewer := reviewerForTest()

	users.On("FindByExternalID", ctx, "ext_buyer1").Return(reviewer, nil).Once()
	posts.On("FindByID", ctx, "missing").Return(nil, domain.ErrNotFound).Once()

	_, err := uc.AddReview(ctx, "ext_buyer1", "missing", "Good", 4)

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
