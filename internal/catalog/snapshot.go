package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotStore persists the last successfully merged catalog so a process
// restart does not lose the remote state between fetches. All operations are
// best-effort; callers log and ignore failures.
type SnapshotStore interface {
	Load(ctx context.Context) ([]ModelDescriptor, time.Time, error)
	Save(ctx context.Context, models []ModelDescriptor, fetchedAt time.Time) error
}

const snapshotKey = "wrappr:catalog:snapshot"

type snapshotPayload struct {
	Models    []ModelDescriptor `json:"models"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// RedisSnapshot stores the catalog snapshot in Redis.
type RedisSnapshot struct {
	cli *redis.Client
	ttl time.Duration
}

// NewRedisSnapshot dials Redis and verifies connectivity. The snapshot
// expires after ttl so a long-dead backend cannot feed stale catalogs
// forever.
func NewRedisSnapshot(addr string, ttl time.Duration) (*RedisSnapshot, error) {
	cli := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSnapshot{cli: cli, ttl: ttl}, nil
}

func (r *RedisSnapshot) Load(ctx context.Context) ([]ModelDescriptor, time.Time, error) {
	data, err := r.cli.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		return nil, time.Time{}, err
	}
	var p snapshotPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, time.Time{}, err
	}
	return p.Models, p.FetchedAt, nil
}

func (r *RedisSnapshot) Save(ctx context.Context, models []ModelDescriptor, fetchedAt time.Time) error {
	data, err := json.Marshal(snapshotPayload{Models: models, FetchedAt: fetchedAt})
	if err != nil {
		return err
	}
	return r.cli.Set(ctx, snapshotKey, data, r.ttl).Err()
}
