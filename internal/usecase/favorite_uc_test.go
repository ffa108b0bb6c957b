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

func newFavoriteUsecaseForTest() (*FavoriteUsecase, *MockPostRepository, *MockUserRepository, *MockEventPublisher) {
	posts := new(MockPostRepository)
	users := new(MockUserRepository)
	events := new(MockEventPublisher)
	uc := NewFavoriteUsecase(posts, users, events, logger.NewLogger())
	return uc, posts, users, events
}

func TestAddFavorite_Success(t *testing.T) {
	uc, posts, users, events := newFavoriteUsecaseForTest()
	ctx := context.Background()
	user := &domain.User{ID: "u1", ExternalID: "ext_u1"}

	users.On("FindByExternalID", ctx, "ext_u1").Return(user, nil).Once()
	posts.On("FindByID", ctx, "post1").Return(&domain.Post{ID: "post1"}, nil).Once()
	users.On("AddFavorite", ctx, "u1", "post1").Return(nil).Once()
	events.On("Publish", ctx, SubjectFavoriteAdded, mock.Anything).Return(nil).Once()

	err := uc.AddFavorite(ctx, "ext_u1", "post1")

	assert.NoError(t, err)
	users.AssertExpectations(t)
}

func TestAddFavorite_DuplicateIsConflict(t *testing.T) {
	uc, posts, users, _ := newFavoriteUsecaseForTest()
	ctx := context.Background()
	user := &domain.User{ID: "u1", ExternalID: "ext_u1", Favorites: []string{"post1"}}

	users.On("FindByExternalID", ctx, "ext_u1").Return(user, nil).Once()
	posts.On("FindByID", ctx, "post1").Return(&domain.Post{ID: "post1"}, nil).Once()
	users.On("AddFavorite", ctx, "u1", "post1").Return(domain.ErrConflict).Once()

	err := uc.AddFavorite(ctx, "ext_u1", "post1")

	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestAddFavorite_UnknownPost(t *testing.T) {
	uc, posts, users, _ := newFavoriteUsecaseForTest()
	ctx := context.Background()
	user := &domain.User{ID: "u1", ExternalID: "ext_u1"}

	users.On("FindByExternalID", ctx, "ext_u1").Return(user, nil).Once()
	posts.On("FindByID", ctx, "missing").Return(nil, domain.ErrNotFound).Once()

	err := uc.AddFavorite(ctx, "ext_u1", "missing")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
	users.AssertNotCalled(t, "AddFavorite", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveFavorite_AbsentIsNotFound(t *testing.T) {
	uc, _, users, _ := newFavoriteUsecaseForTest()
	ctx := context.Background()
	user := &domain.User{ID: "u1", ExternalID: "ext_u1"}

	users.On("FindByExternalID", ctx, "ext_u1").Return(user, nil).Once()
	users.On("RemoveFavorite", ctx, "u1", "post1").Return(domain.ErrNotFound).Once()

	err := uc.RemoveFavorite(ctx, "ext_u1", "post1")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRemoveFavorite_Success(t *testing.T) {
	uc, _, users, events := newFavoriteUsecaseForTest()
	ctx := context.Background()
	user := &domain.User{ID: "u1", ExternalID: "ext_u1", Favorites: []string{"post1"}}

	users.On("FindByExternalID", ctx, "ext_u1").Return(user, nil).Once()
	users.On("RemoveFavorite", ctx, "u1", "post1").Return(nil).Once()
	events.On("Publish", ctx, SubjectFavoriteRemoved, mock.Anything).Return(nil).Once()

	err := uc.RemoveFavorite(ctx, "ext_u1", "post1")

	assert.NoError(t, err)
	users.AssertExpectations(t)
}

func TestListFavorites_KeepsStoredOrderAndDropsArchived(t *testing.T) {
	uc, posts, users, _ := newFavoriteUsecaseForTest()
	ctx := context.Background()
	user := &domain.User{ID: "u1", ExternalID: "ext_u1", Favorites: []string{"p3", "p1", "p2"}}

	// p1 is archived, so the store only hands back p2 and p3 (any order).
	users.On("FindByExternalID", ctx, "ext_u1").Return(user, nil).Once()
	posts.On("FindActiveByIDs", ctx, []string{"p3", "p1", "p2"}).Return([]*domain.Post{
		{ID: "p2", UserID: "s1", Status: domain.StatusActive},
		{ID: "p3", UserID: "s1", Status: domain.StatusActive},
	}, nil).Once()
	users.On("FindByIDs", ctx, []string{"s1"}).Return([]*domain.User{{ID: "s1"}}, nil).Once()

	items, err := uc.ListFavorites(ctx, "ext_u1")

	assert.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "p3", items[0].Post.ID)
	assert.Equal(t, "p2", items[1].Post.ID)
	assert.NotNil(t, items[0].Owner)
}

func TestListFavorites_EmptySet(t *testing.T) {
	uc, posts, users, _ := newFavoriteUsecaseForTest()
	ctx := context.Background()
	user := &domain.User{ID: "u1", ExternalID: "ext_u1", Favorites: []string{}}

	users.On("FindByExternalID", ctx, "ext_u1").Return(user, nil).Once()
	posts.On("FindActiveByIDs", ctx, []string{}).Return([]*domain.Post{}, nil).Once()
	users.On("FindByIDs", ctx, mock.Anything).Return([]*domain.User{}, nil).Once()

	items, err := uc.ListFavorites(ctx, "ext_u1")

	assert.NoError(t, err)
	assert.Empty(t, items)
}
