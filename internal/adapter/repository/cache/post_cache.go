package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ElHadji11/farmconnect-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

const postKeyPrefix = "post:"
const postTTL = 1 * time.Hour

// PostCache is a Redis read-through cache for single-post lookups.
type PostCache struct {
	client *redis.Client
}

func NewPostCache(addr string) (*PostCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &PostCache{client: client}, nil
}

// Get returns (nil, nil) on a cache miss.
func (c *PostCache) Get(ctx context.Context, id string) (*domain.Post, error) {
	data, err := c.client.Get(ctx, postKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var post domain.Post
	if err := json.Unmarshal(data, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *PostCache) Set(ctx context.Context, post *domain.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, postKeyPrefix+post.ID, data, postTTL).Err()
}

func (c *PostCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, postKeyPrefix+id).Err()
}
