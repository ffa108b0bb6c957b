package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize_CreatePost(t *testing.T) {
	seller := &User{ID: "u1", Role: RoleSeller}
	buyer := &User{ID: "u2", Role: RoleUser}

	assert.NoError(t, Authorize(ActionCreatePost, seller, nil))

	err := Authorize(ActionCreatePost, buyer, nil)
	assert.True(t, errors.Is(err, ErrForbidden))

	err = Authorize(ActionCreatePost, nil, nil)
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestAuthorize_OwnerOnlyActions(t *testing.T) {
	owner := &User{ID: "u1", Role: RoleSeller}
	other := &User{ID: "u2", Role: RoleSeller}
	post := &Post{ID: "p1", UserID: "u1"}

	for _, action := range []Action{ActionUpdatePost, ActionArchivePost, ActionDeletePost} {
		assert.NoError(t, Authorize(action, owner, post), string(action))
		assert.True(t, errors.Is(Authorize(action, other, post), ErrForbidden), string(action))
		assert.True(t, errors.Is(Authorize(action, owner, nil), ErrForbidden), string(action))
	}
}

func TestAuthorize_ReviewPost(t *testing.T) {
	owner := &User{ID: "u1", Role: RoleSeller}
	reviewer := &User{ID: "u2", Role: RoleUser}
	post := &Post{ID: "p1", UserID: "u1"}

	assert.NoError(t, Authorize(ActionReviewPost, reviewer, post))

	err := Authorize(ActionReviewPost, owner, post)
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestAuthorize_UnknownAction(t *testing.T) {
	actor := &User{ID: "u1", Role: RoleAdmin}
	err := Authorize(Action("post.publish"), actor, nil)
	assert.True(t, errors.Is(err, ErrForbidden))
}
