package placement

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/matthetz/scrim/pkg/errors"
)

// redisKey is the key the snapshot document is stored under.
const redisKey = "scrim:placements"

// RedisBackend stores the snapshot document as a single JSON value. The SET
// is atomic on the server, matching the file backend's crash guarantee.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to the redis instance at url
// (redis://host:port/db) and verifies the connection.
func NewRedisBackend(ctx context.Context, url string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse redis URL")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "redis ping")
	}
	return &RedisBackend{client: client}, nil
}

func (b *RedisBackend) Load(ctx context.Context) (*Document, error) {
	data, err := b.client.Get(ctx, redisKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "redis get")
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSnapshotBad, err, "parse redis snapshot")
	}
	if doc.Version != Version {
		return nil, errors.New(errors.ErrCodeSnapshotBad,
			"redis snapshot has version %d, want %d", doc.Version, Version)
	}
	if doc.Groups == nil {
		doc.Groups = make(map[string]map[string]*Entry)
	}
	return &doc, nil
}

func (b *RedisBackend) Store(ctx context.Context, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "marshal snapshot")
	}
	if err := b.client.Set(ctx, redisKey, data, 0).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "redis set")
	}
	return nil
}

func (b *RedisBackend) Reset(ctx context.Context) error {
	if err := b.client.Del(ctx, redisKey).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "redis del")
	}
	return nil
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}

var _ Backend = (*RedisBackend)(nil)
