package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisSnapshotRepository struct {
	client *redis.Client
	key    string
}

// NewRedisSnapshotRepository stores the snapshot under a single Redis key without expiry.
func NewRedisSnapshotRepository(client *redis.Client, key string) SnapshotRepository {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &redisSnapshotRepository{client: client, key: key}
}

func (r *redisSnapshotRepository) Read(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("read snapshot from redis: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrSnapshotNotFound
	}
	return data, nil
}

func (r *redisSnapshotRepository) Write(ctx context.Context, payload []byte) error {
	if err := r.client.Set(ctx, r.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("write snapshot to redis: %w", err)
	}
	return nil
}
