package domain

import "context"

// PostRepository defines persistence for posts. Implementations enforce the
// archived-posts-are-hidden invariant: every FindActive* method filters on
// StatusActive at the query level, so no read path above this boundary has
// to remember it.
type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	// FindByID returns the post regardless of status. Used by owner-gated
	// mutations and by the review/favorite flows.
	FindByID(ctx context.Context, id string) (*Post, error)
	// FindActiveByID returns ErrNotFound for absent AND archived posts.
	FindActiveByID(ctx context.Context, id string) (*Post, error)
	// FindActiveByIDs returns the active subset of the given ids, in no
	// particular order.
	FindActiveByIDs(ctx context.Context, ids []string) ([]*Post, error)
	// Update persists the whole document guarded by post.Version. A stale
	// version surfaces as ErrOptimisticLock; on success the version is
	// bumped both in the store and on the passed entity.
	Update(ctx context.Context, post *Post) error
	Delete(ctx context.Context, id string) error
	// FindActive returns active posts matching the filter, newest first.
	FindActive(ctx context.Context, filter PostFilter) ([]*Post, error)
	// FindActiveByOwner returns the owner's active posts, newest first.
	FindActiveByOwner(ctx context.Context, userID string) ([]*Post, error)
}

// UserRepository defines persistence for the user directory.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByIDs(ctx context.Context, ids []string) ([]*User, error)
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	FindByCompanyName(ctx context.Context, companyName string) (*User, error)
	Update(ctx context.Context, user *User) error
	// UpsertByExternalID creates the user on first sync and refreshes the
	// identity-mirrored fields on every later one. Idempotent.
	UpsertByExternalID(ctx context.Context, user *User) (*User, error)
	// AddFavorite atomically adds postID to the user's favorite set.
	// Returns ErrConflict when the id is already present and ErrNotFound
	// when the user does not exist.
	AddFavorite(ctx context.Context, userID, postID string) error
	// RemoveFavorite atomically removes postID from the favorite set.
	// Returns ErrNotFound when the id is not currently a favorite.
	RemoveFavorite(ctx context.Context, userID, postID string) error
}
