package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ElHadji11/farmconnect-backend/internal/domain"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"go.uber.org/zap"
)

const SubjectReviewAdded = "post.review.added"

// Retries for the optimistic read-modify-write when two reviewers race on
// the same post.
const maxReviewRetries = 3

const (
	minRating = 1
	maxRating = 5
)

// ReviewUsecase appends reviews to posts and keeps the aggregate rating
// consistent. The review, the recomputed average and the count commit in a
// single version-guarded write.
type ReviewUsecase struct {
	posts  domain.PostRepository
	users  domain.UserRepository
	cache  PostCache
	events domain.EventPublisher
	logger *logger.Logger
}

func NewReviewUsecase(posts domain.PostRepository, users domain.UserRepository, cache PostCache, events domain.EventPublisher, log *logger.Logger) *ReviewUsecase {
	return &ReviewUsecase{
		posts:  posts,
		users:  users,
		cache:  cache,
		events: events,
		logger: log.Named("ReviewUsecase"),
	}
}

// AddReview appends one review from the caller to the post. One review per
// user per post; owners cannot review their own posts.
func (uc *ReviewUsecase) AddReview(ctx context.Context, externalID, postID, comment string, rating int32) (*domain.Post, error) {
	if rating < minRating || rating > maxRating {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", domain.ErrValidation, minRating, maxRating)
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, fmt.Errorf("%w: comment is required", domain.ErrValidation)
	}

	actor, err := uc.users.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxReviewRetries; attempt++ {
		post, err := uc.posts.FindByID(ctx, postID)
		if err != nil {
			return nil, err
		}

		if err := domain.Authorize(domain.ActionReviewPost, actor, post); err != nil {
			return nil, err
		}
		if post.HasReviewBy(actor.ID) {
			return nil, fmt.Errorf("%w: you already reviewed this post", domain.ErrConflict)
		}

		post.Reviews = append(post.Reviews, domain.Review{
			UserID:    actor.ID,
			Comment:   comment,
			Rating:    rating,
			CreatedAt: time.Now().UTC(),
		})
		post.RecomputeRating()

		err = uc.posts.Update(ctx, post)
		if err == nil {
			uc.invalidate(ctx, postID)
			uc.publishAdded(ctx, post, actor)
			uc.logger.Info("Review added",
				zap.String("post_id", postID),
				zap.String("reviewer_id", actor.ID),
				zap.Int32("rating", rating),
				zap.Float64("average_rating", post.AverageRating))
			return post, nil
		}
		if !errors.Is(err, domain.ErrOptimisticLock) {
			return nil, err
		}

		// Someone else committed first; re-read and re-check everything.
		uc.logger.Debug("Review commit lost the race, retrying", zap.String("post_id", postID), zap.Int("attempt", attempt+1))
		lastErr = err
	}
	return nil, lastErr
}

func (uc *ReviewUsecase) invalidate(ctx context.Context, postID string) {
	if err := uc.cache.Delete(ctx, postID); err != nil {
		uc.logger.Warn("Post cache invalidation failed", zap.String("post_id", postID), zap.Error(err))
	}
}

func (uc *ReviewUsecase) publishAdded(ctx context.Context, post *domain.Post, actor *domain.User) {
	payload := map[string]interface{}{
		"post_id":        post.ID,
		"reviewer_id":    actor.ID,
		"average_rating": post.AverageRating,
		"review_count":   post.ReviewCount,
	}
	if err := uc.events.Publish(ctx, SubjectReviewAdded, payload); err != nil {
		uc.logger.Warn("Failed to publish event", zap.String("subject", SubjectReviewAdded), zap.Error(err))
	}
}
