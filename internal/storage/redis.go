package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps blobs as binary values under a key prefix. It serves the
// same interface as the local store for deployments where ticket files must
// outlive a single host.
type RedisStore struct {
	client        *redis.Client
	prefix        string
	publicBaseURL string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix, publicBaseURL string) *RedisStore {
	if prefix == "" {
		prefix = "helpdesk:blob:"
	}
	return &RedisStore{
		client:        client,
		prefix:        prefix,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

// Exists reports whether the blob key is present.
func (s *RedisStore) Exists(ctx context.Context, name string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(name)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Put stores the blob bytes without expiry.
func (s *RedisStore) Put(ctx context.Context, name string, data []byte) error {
	return s.client.Set(ctx, s.key(name), data, 0).Err()
}

// Get reads the blob bytes.
func (s *RedisStore) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

// Delete removes the blob key.
func (s *RedisStore) Delete(ctx context.Context, name string) error {
	n, err := s.client.Del(ctx, s.key(name)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PublicURL is only available when a base URL is configured.
func (s *RedisStore) PublicURL(name string) (string, bool) {
	if s.publicBaseURL == "" {
		return "", false
	}
	return s.publicBaseURL + "/" + name, true
}
