package usecase

import (
	"context"
	"fmt"

	"github.com/ElHadji11/farmconnect-backend/internal/domain"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"go.uber.org/zap"
)

const (
	SubjectFavoriteAdded   = "user.favorite.added"
	SubjectFavoriteRemoved = "user.favorite.removed"
)

// FavoriteUsecase maintains each user's favorite set. Membership changes
// are delegated to guarded single-document writes in the repository, so
// concurrent requests resolve without read-modify-write races.
type FavoriteUsecase struct {
	posts  domain.PostRepository
	users  domain.UserRepository
	events domain.EventPublisher
	logger *logger.Logger
}

func NewFavoriteUsecase(posts domain.PostRepository, users domain.UserRepository, events domain.EventPublisher, log *logger.Logger) *FavoriteUsecase {
	return &FavoriteUsecase{
		posts:  posts,
		users:  users,
		events: events,
		logger: log.Named("FavoriteUsecase"),
	}
}

// AddFavorite adds the post to the caller's favorites. The post must exist
// in the store; a duplicate add is a conflict.
func (uc *FavoriteUsecase) AddFavorite(ctx context.Context, externalID, postID string) error {
	actor, err := uc.users.FindByExternalID(ctx, externalID)
	if err != nil {
		return err
	}

	if _, err := uc.posts.FindByID(ctx, postID); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: post %s", domain.ErrNotFound, postID)
		}
		return err
	}

	if err := uc.users.AddFavorite(ctx, actor.ID, postID); err != nil {
		return err
	}

	uc.publish(ctx, SubjectFavoriteAdded, actor.ID, postID)
	uc.logger.Info("Favorite added", zap.String("user_id", actor.ID), zap.String("post_id", postID))
	return nil
}

// RemoveFavorite removes the post from the caller's favorites. Removing an
// id that is not a favorite reports absence.
func (uc *FavoriteUsecase) RemoveFavorite(ctx context.Context, externalID, postID string) error {
	actor, err := uc.users.FindByExternalID(ctx, externalID)
	if err != nil {
		return err
	}

	if err := uc.users.RemoveFavorite(ctx, actor.ID, postID); err != nil {
		return err
	}

	uc.publish(ctx, SubjectFavoriteRemoved, actor.ID, postID)
	uc.logger.Info("Favorite removed", zap.String("user_id", actor.ID), zap.String("post_id", postID))
	return nil
}

// ListFavorites returns the caller's favorited posts in the order they were
// favorited. Archived or deleted posts drop out silently; the stale ids
// stay in the set and simply stop rendering.
func (uc *FavoriteUsecase) ListFavorites(ctx context.Context, externalID string) ([]*domain.PostWithOwner, error) {
	actor, err := uc.users.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	posts, err := uc.posts.FindActiveByIDs(ctx, actor.Favorites)
	if err != nil {
		return nil, err
	}

	// Re-order to the stored favorite order; the $in query has none.
	byID := make(map[string]*domain.Post, len(posts))
	for _, post := range posts {
		byID[post.ID] = post
	}
	ordered := make([]*domain.Post, 0, len(posts))
	for _, id := range actor.Favorites {
		if post, ok := byID[id]; ok {
			ordered = append(ordered, post)
		}
	}

	return uc.expandOwners(ctx, ordered)
}

func (uc *FavoriteUsecase) expandOwners(ctx context.Context, posts []*domain.Post) ([]*domain.PostWithOwner, error) {
	ids := make([]string, 0, len(posts))
	seen := make(map[string]bool, len(posts))
	for _, post := range posts {
		if !seen[post.UserID] {
			seen[post.UserID] = true
			ids = append(ids, post.UserID)
		}
	}

	owners, err := uc.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.User, len(owners))
	for _, owner := range owners {
		byID[owner.ID] = owner
	}

	result := make([]*domain.PostWithOwner, 0, len(posts))
	for _, post := range posts {
		result = append(result, &domain.PostWithOwner{Post: post, Owner: byID[post.UserID]})
	}
	return result, nil
}

func (uc *FavoriteUsecase) publish(ctx context.Context, subject, userID, postID string) {
	payload := map[string]string{"user_id": userID, "post_id": postID}
	if err := uc.events.Publish(ctx, subject, payload); err != nil {
		uc.logger.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
