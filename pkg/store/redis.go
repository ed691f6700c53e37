package store

import (
	"context"
	stderrors "errors"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/digraph/pkg/errors"
)

// RedisKeyPrefix namespaces document keys in a shared Redis database.
const RedisKeyPrefix = "digraph:doc:"

// Redis stores documents as Redis strings.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the Redis server named by a redis:// or rediss://
// URL and checks the connection, retrying transient failures.
func NewRedis(ctx context.Context, rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse redis URL")
	}
	client := redis.NewClient(opts)

	err = RetryWithBackoff(ctx, func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			return Retryable(err)
		}
		return nil
	})
	if err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to redis at %s", opts.Addr)
	}
	return &Redis{client: client}, nil
}

// Get reads the string stored under key.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := errors.ValidateKey(key); err != nil {
		return nil, false, err
	}
	data, err := r.client.Get(ctx, RedisKeyPrefix+key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storeErr(err, "get", key)
	}
	return data, true, nil
}

// Set stores data under key without expiry.
func (r *Redis) Set(ctx context.Context, key string, data []byte) error {
	if err := errors.ValidateKey(key); err != nil {
		return err
	}
	if err := r.client.Set(ctx, RedisKeyPrefix+key, data, 0).Err(); err != nil {
		return storeErr(err, "set", key)
	}
	return nil
}

// Delete removes key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := errors.ValidateKey(key); err != nil {
		return err
	}
	if err := r.client.Del(ctx, RedisKeyPrefix+key).Err(); err != nil {
		return storeErr(err, "delete", key)
	}
	return nil
}

// Close closes the client's connection pool.
func (r *Redis) Close() error { return r.client.Close() }

var _ Store = (*Redis)(nil)
