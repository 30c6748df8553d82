package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/redis/go-redis/v9"
)

var _ domain.PageRepository = (*RedisPageRepository)(nil)

const (
	pageKeyPrefix = "page:"
	pathsKey      = "pages:paths"
)

// RedisPageRepository implements domain.PageRepository on Redis so several
// server instances can share generated pages. Keys never expire: a stale
// page must stay servable while it is regenerated.
type RedisPageRepository struct {
	client *redis.Client
}

func NewRedisPageRepository(client *redis.Client) *RedisPageRepository {
	return &RedisPageRepository{client: client}
}

func pageKey(path string) string {
	return pageKeyPrefix + path
}

// SavePage stores the page and records its path
func (r *RedisPageRepository) SavePage(ctx context.Context, p *domain.Page) error {
	if p == nil {
		return fmt.Errorf("page cannot be nil")
	}

	if p.Path == "" {
		return fmt.Errorf("page path cannot be empty")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode page %s: %w", p.Path, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, pageKey(p.Path), data, 0)
		pipe.SAdd(ctx, pathsKey, p.Path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store page %s: %w", p.Path, err)
	}

	return nil
}

// GetPage retrieves the page stored at path
func (r *RedisPageRepository) GetPage(ctx context.Context, path string) (*domain.Page, error) {
	data, err := r.client.Get(ctx, pageKey(path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: page %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page %s: %w", path, err)
	}

	var page domain.Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to decode page %s: %w", path, err)
	}

	return &page, nil
}

// DeletePage removes the page stored at path
func (r *RedisPageRepository) DeletePage(ctx context.Context, path string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, pageKey(path))
		pipe.SRem(ctx, pathsKey, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete page %s: %w", path, err)
	}

	return nil
}

// ListPaths returns every stored page path in lexical order
func (r *RedisPageRepository) ListPaths(ctx context.Context) ([]string, error) {
	paths, err := r.client.SMembers(ctx, pathsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// Ping checks if Redis is available
func (r *RedisPageRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
