package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecomputeRating(t *testing.T) {
	post := &Post{}

	post.RecomputeRating()
	assert.Equal(t, int32(0), post.ReviewCount)
	assert.Equal(t, float64(0), post.AverageRating)

	post.Reviews = []Review{{UserID: "u1", Rating: 4}}
	post.RecomputeRating()
	assert.Equal(t, int32(1), post.ReviewCount)
	assert.Equal(t, 4.0, post.AverageRating)

	post.Reviews = append(post.Reviews, Review{UserID: "u2", Rating: 2})
	post.RecomputeRating()
	assert.Equal(t, int32(2), post.ReviewCount)
	assert.Equal(t, 3.0, post.AverageRating)

	post.Reviews = append(post.Reviews, Review{UserID: "u3", Rating: 5})
	post.RecomputeRating()
	assert.Equal(t, int32(3), post.ReviewCount)
	assert.InDelta(t, 11.0/3.0, post.AverageRating, 1e-9)
}

func TestHasReviewBy(t *testing.T) {
	post := &Post{Reviews: []Review{{UserID: "u1", Rating: 5}}}

	assert.True(t, post.HasReviewBy("u1"))
	assert.False(t, post.HasReviewBy("u2"))
}

func TestActivityTypeIsValid(t *testing.T) {
	assert.True(t, ActivityAgriculture.IsValid())
	assert.True(t, ActivityBreeder.IsValid())
	assert.True(t, ActivityProcessor.IsValid())
	assert.False(t, ActivityType("fishing").IsValid())
	assert.False(t, ActivityType("").IsValid())
}

func TestUnitIsValid(t *testing.T) {
	for _, u := range []Unit{UnitKg, UnitTonne, UnitPiece, UnitSack, UnitLitre, UnitMl, UnitGram} {
		assert.True(t, u.IsValid(), string(u))
	}
	assert.False(t, Unit("barrel").IsValid())
}

func TestHasFavorite(t *testing.T) {
	user := &User{Favorites: []string{"p1", "p2"}}

	assert.True(t, user.HasFavorite("p1"))
	assert.False(t, user.HasFavorite("p3"))
}
