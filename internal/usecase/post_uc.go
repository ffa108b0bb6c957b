package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ElHadji11/farmconnect-backend/internal/domain"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"go.uber.org/zap"
)

// PostCache caches single-post lookups. Get returns (nil, nil) on miss.
type PostCache interface {
	Get(ctx context.Context, id string) (*domain.Post, error)
	Set(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id string) error
}

// Event subjects emitted by the post flows.
const (
	SubjectPostCreated  = "post.created"
	SubjectPostUpdated  = "post.updated"
	SubjectPostArchived = "post.archived"
	SubjectPostDeleted  = "post.deleted"
)

const (
	minPhotos = 1
	maxPhotos = 3
)

// PhotoUpload is one photo received with a create request.
type PhotoUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// CreatePostInput carries the fields a seller submits for a new post.
type CreatePostInput struct {
	Product          string
	Quantity         float64
	Price            float64
	Unit             domain.Unit
	AvailabilityDate time.Time
	Description      string
	Region           string
	Photos           []PhotoUpload
}

// PostUsecase owns the post lifecycle: create with photo upload, partial
// update, archive, delete, and the read projections.
type PostUsecase struct {
	posts   domain.PostRepository
	users   domain.UserRepository
	storage domain.MediaStorage
	cache   PostCache
	events  domain.EventPublisher
	logger  *logger.Logger
}

func NewPostUsecase(posts domain.PostRepository, users domain.UserRepository, storage domain.MediaStorage, cache PostCache, events domain.EventPublisher, log *logger.Logger) *PostUsecase {
	return &PostUsecase{
		posts:   posts,
		users:   users,
		storage: storage,
		cache:   cache,
		events:  events,
		logger:  log.Named("PostUsecase"),
	}
}

// CreatePost validates the input, uploads the photos and persists the post.
// The post's activity type is stamped from the seller's profile, never from
// the request.
func (uc *PostUsecase) CreatePost(ctx context.Context, externalID string, input CreatePostInput) (*domain.Post, error) {
	actor, err := uc.users.FindByExternalID(ctx, externalID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: no profile for caller", domain.ErrForbidden)
		}
		return nil, err
	}

	if err := domain.Authorize(domain.ActionCreatePost, actor, nil); err != nil {
		return nil, err
	}
	if err := validateCreateInput(actor, input); err != nil {
		return nil, err
	}

	// Uploads are synchronous per file. A failure aborts the whole create;
	// already-uploaded objects are left behind (no compensating delete).
	photoURLs := make([]string, 0, len(input.Photos))
	for _, photo := range input.Photos {
		url, uploadErr := uc.storage.Upload(ctx, photo.FileName, photo.ContentType, photo.Data)
		if uploadErr != nil {
			uc.logger.Error("Photo upload failed, aborting post creation",
				zap.String("file_name", photo.FileName), zap.Error(uploadErr))
			return nil, fmt.Errorf("%w: %s", domain.ErrUpload, photo.FileName)
		}
		photoURLs = append(photoURLs, url)
	}

	post := &domain.Post{
		UserID:           actor.ID,
		Product:          strings.TrimSpace(input.Product),
		ActivityType:     actor.ActivityType,
		Quantity:         input.Quantity,
		Price:            input.Price,
		Unit:             input.Unit,
		AvailabilityDate: input.AvailabilityDate.UTC(),
		Description:      strings.TrimSpace(input.Description),
		Region:           input.Region,
		Photos:           photoURLs,
		Status:           domain.StatusActive,
		Reviews:          []domain.Review{},
	}

	if err := uc.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	uc.publish(ctx, SubjectPostCreated, map[string]string{"post_id": post.ID, "user_id": actor.ID})
	uc.logger.Info("Post created", zap.String("post_id", post.ID), zap.String("user_id", actor.ID))
	return post, nil
}

func validateCreateInput(actor *domain.User, input CreatePostInput) error {
	if strings.TrimSpace(input.Product) == "" {
		return fmt.Errorf("%w: product is required", domain.ErrValidation)
	}
	if input.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}
	if input.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", domain.ErrValidation)
	}
	if !input.Unit.IsValid() {
		return fmt.Errorf("%w: unknown unit %q", domain.ErrValidation, input.Unit)
	}
	if input.AvailabilityDate.IsZero() {
		return fmt.Errorf("%w: availability date is required", domain.ErrValidation)
	}
	if strings.TrimSpace(input.Region) == "" {
		return fmt.Errorf("%w: region is required", domain.ErrValidation)
	}
	if !actor.ActivityType.IsValid() {
		return fmt.Errorf("%w: seller profile has no activity type", domain.ErrValidation)
	}
	if len(input.Photos) < minPhotos || len(input.Photos) > maxPhotos {
		return fmt.Errorf("%w: between %d and %d photos required", domain.ErrValidation, minPhotos, maxPhotos)
	}
	return nil
}

// UpdatePost applies a partial update to an owned post. The patch type
// cannot express owner or activity type, so those survive any request.
func (uc *PostUsecase) UpdatePost(ctx context.Context, externalID, postID string, patch domain.PostPatch) (*domain.Post, error) {
	actor, err := uc.users.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	post, err := uc.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := domain.Authorize(domain.ActionUpdatePost, actor, post); err != nil {
		return nil, err
	}
	if err := applyPostPatch(post, patch); err != nil {
		return nil, err
	}

	if err := uc.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	uc.invalidate(ctx, postID)
	uc.publish(ctx, SubjectPostUpdated, map[string]string{"post_id": post.ID})
	return post, nil
}

func applyPostPatch(post *domain.Post, patch domain.PostPatch) error {
	if patch.Product != nil {
		if strings.TrimSpace(*patch.Product) == "" {
			return fmt.Errorf("%w: product cannot be empty", domain.ErrValidation)
		}
		post.Product = strings.TrimSpace(*patch.Product)
	}
	if patch.Quantity != nil {
		if *patch.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
		}
		post.Quantity = *patch.Quantity
	}
	if patch.Price != nil {
		if *patch.Price <= 0 {
			return fmt.Errorf("%w: price must be positive", domain.ErrValidation)
		}
		post.Price = *patch.Price
	}
	if patch.Unit != nil {
		if !patch.Unit.IsValid() {
			return fmt.Errorf("%w: unknown unit %q", domain.ErrValidation, *patch.Unit)
		}
		post.Unit = *patch.Unit
	}
	if patch.AvailabilityDate != nil {
		post.AvailabilityDate = patch.AvailabilityDate.UTC()
	}
	if patch.Description != nil {
		post.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Region != nil {
		post.Region = *patch.Region
	}
	return nil
}

// ArchivePost flips an owned post to archived. Archiving an already
// archived post is a no-op success.
func (uc *PostUsecase) ArchivePost(ctx context.Context, externalID, postID string) error {
	actor, err := uc.users.FindByExternalID(ctx, externalID)
	if err != nil {
		return err
	}

	post, err := uc.posts.FindByID(ctx, postID)
	if err != nil {
		return err
	}

	if err := domain.Authorize(domain.ActionArchivePost, actor, post); err != nil {
		return err
	}
	if post.Status == domain.StatusArchived {
		return nil
	}

	post.Status = domain.StatusArchived
	if err := uc.posts.Update(ctx, post); err != nil {
		return err
	}

	uc.invalidate(ctx, postID)
	uc.publish(ctx, SubjectPostArchived, map[string]string{"post_id": post.ID})
	uc.logger.Info("Post archived", zap.String("post_id", postID))
	return nil
}

// DeletePost permanently removes an owned post. Photos stay in the object
// store.
func (uc *PostUsecase) DeletePost(ctx context.Context, externalID, postID string) error {
	actor, err := uc.users.FindByExternalID(ctx, externalID)
	if err != nil {
		return err
	}

	post, err := uc.posts.FindByID(ctx, postID)
	if err != nil {
		return err
	}

	if err := domain.Authorize(domain.ActionDeletePost, actor, post); err != nil {
		return err
	}

	if err := uc.posts.Delete(ctx, postID); err != nil {
		return err
	}

	uc.invalidate(ctx, postID)
	uc.publish(ctx, SubjectPostDeleted, map[string]string{"post_id": postID})
	uc.logger.Info("Post deleted", zap.String("post_id", postID))
	return nil
}

// GetPost returns an active post with its owner attached. Archived posts
// are indistinguishable from absent ones.
func (uc *PostUsecase) GetPost(ctx context.Context, postID string) (*domain.PostWithOwner, error) {
	if cached, err := uc.cache.Get(ctx, postID); err == nil && cached != nil {
		if cached.Status == domain.StatusActive {
			return uc.withOwner(ctx, cached), nil
		}
	} else if err != nil {
		uc.logger.Warn("Post cache read failed", zap.String("post_id", postID), zap.Error(err))
	}

	post, err := uc.posts.FindActiveByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := uc.cache.Set(ctx, post); err != nil {
		uc.logger.Warn("Post cache write failed", zap.String("post_id", postID), zap.Error(err))
	}
	return uc.withOwner(ctx, post), nil
}

// ListPosts returns all active posts, newest first.
func (uc *PostUsecase) ListPosts(ctx context.Context) ([]*domain.PostWithOwner, error) {
	posts, err := uc.posts.FindActive(ctx, domain.PostFilter{})
	if err != nil {
		return nil, err
	}
	return uc.expandOwners(ctx, posts)
}

// SearchPosts returns active posts matching the filter, capped at the
// search page size.
func (uc *PostUsecase) SearchPosts(ctx context.Context, filter domain.PostFilter) ([]*domain.PostWithOwner, error) {
	filter.Limit = domain.SearchPageSize
	posts, err := uc.posts.FindActive(ctx, filter)
	if err != nil {
		return nil, err
	}
	return uc.expandOwners(ctx, posts)
}

// HomepagePosts returns the newest active posts for the landing page.
func (uc *PostUsecase) HomepagePosts(ctx context.Context) ([]*domain.PostWithOwner, error) {
	posts, err := uc.posts.FindActive(ctx, domain.PostFilter{Limit: domain.HomepagePageSize})
	if err != nil {
		return nil, err
	}
	return uc.expandOwners(ctx, posts)
}

// CompanyPosts returns a company's active posts by its unique name. An
// existing company with no active posts yields an empty list, not an error.
func (uc *PostUsecase) CompanyPosts(ctx context.Context, companyName string) ([]*domain.PostWithOwner, error) {
	owner, err := uc.users.FindByCompanyName(ctx, companyName)
	if err != nil {
		return nil, err
	}

	posts, err := uc.posts.FindActiveByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.PostWithOwner, 0, len(posts))
	for _, post := range posts {
		result = append(result, &domain.PostWithOwner{Post: post, Owner: owner})
	}
	return result, nil
}

func (uc *PostUsecase) withOwner(ctx context.Context, post *domain.Post) *domain.PostWithOwner {
	owner, err := uc.users.FindByID(ctx, post.UserID)
	if err != nil {
		// A post whose owner vanished still renders, without owner data.
		uc.logger.Warn("Failed to load post owner", zap.String("post_id", post.ID), zap.String("user_id", post.UserID), zap.Error(err))
		return &domain.PostWithOwner{Post: post}
	}
	return &domain.PostWithOwner{Post: post, Owner: owner}
}

// expandOwners batch-loads the owners for a page of posts.
func (uc *PostUsecase) expandOwners(ctx context.Context, posts []*domain.Post) ([]*domain.PostWithOwner, error) {
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

func (uc *PostUsecase) invalidate(ctx context.Context, postID string) {
	if err := uc.cache.Delete(ctx, postID); err != nil {
		uc.logger.Warn("Post cache invalidation failed", zap.String("post_id", postID), zap.Error(err))
	}
}

// publish is fire-and-forget: event failures never fail the operation.
func (uc *PostUsecase) publish(ctx context.Context, subject string, payload interface{}) {
	if err := uc.events.Publish(ctx, subject, payload); err != nil {
		uc.logger.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
