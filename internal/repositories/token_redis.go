package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/shared"
	"github.com/redis/go-redis/v9"
)

// RedisTokenRepository implements [TokenStore] with one JSON value per account.
//
// Keys are <prefix>:token:<email>; <prefix>:token:latest names the last account saved.
type RedisTokenRepository struct {
	redis  *redis.Client
	prefix string
}

// NewRedisTokenRepository creates a RedisTokenRepository. An empty prefix uses "tubelist".
func NewRedisTokenRepository(client *redis.Client, prefix string) *RedisTokenRepository {
	if prefix == "" {
		prefix = "tubelist"
	}
	return &RedisTokenRepository{redis: client, prefix: prefix}
}

// NewRedisClient parses a redis:// URL and verifies the server is reachable.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: redis url: %w", shared.ErrInvalidConfig, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis: %w", shared.ErrServiceUnavailable, err)
	}
	return client, nil
}

func (r *RedisTokenRepository) Name() string { return "redis" }

func (r *RedisTokenRepository) key(email string) string {
	return r.prefix + ":token:" + email
}

func (r *RedisTokenRepository) latestKey() string {
	return r.prefix + ":token:latest"
}

// Save stores rec under email and records email as the latest account.
func (r *RedisTokenRepository) Save(ctx context.Context, email string, rec models.TokenRecord) error {
	if email == "" {
		return fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}

	encoded, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(email), encoded, 0)
		pipe.Set(ctx, r.latestKey(), email, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: redis save token: %w", shared.ErrServiceUnavailable, err)
	}
	return nil
}

// Get returns the record stored for email.
func (r *RedisTokenRepository) Get(ctx context.Context, email string) (models.TokenRecord, error) {
	data, err := r.redis.Get(ctx, r.key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.TokenRecord{}, fmt.Errorf("%w: token for %s", shared.ErrNotFound, email)
	}
	if err != nil {
		return models.TokenRecord{}, fmt.Errorf("%w: redis get token: %w", shared.ErrServiceUnavailable, err)
	}

	var rec models.TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.TokenRecord{}, fmt.Errorf("failed to decode token: %w", err)
	}
	return rec, nil
}

// Latest returns the record of the last account saved.
func (r *RedisTokenRepository) Latest(ctx context.Context) (string, models.TokenRecord, error) {
	email, err := r.redis.Get(ctx, r.latestKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", models.TokenRecord{}, fmt.Errorf("%w: no stored token", shared.ErrNotFound)
	}
	if err != nil {
		return "", models.TokenRecord{}, fmt.Errorf("%w: redis get latest: %w", shared.ErrServiceUnavailable, err)
	}

	rec, err := r.Get(ctx, email)
	if err != nil {
		return "", models.TokenRecord{}, err
	}
	return email, rec, nil
}

// Delete removes the record for email and clears the latest marker when it points at email.
func (r *RedisTokenRepository) Delete(ctx context.Context, email string) error {
	latest, err := r.redis.Get(ctx, r.latestKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: redis get latest: %w", shared.ErrServiceUnavailable, err)
	}

	keys := []string{r.key(email)}
	if latest == email {
		keys = append(keys, r.latestKey())
	}

	if err := r.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: redis delete token: %w", shared.ErrServiceUnavailable, err)
	}
	return nil
}
