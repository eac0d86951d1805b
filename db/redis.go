// db/redis.go
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	platform_errors "github.com/apipatb/earning-sub014/errors"
	logger "github.com/apipatb/earning-sub014/logging"
	"github.com/apipatb/earning-sub014/model"
)

var RedisClient *redis.Client

func InitRedis() error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         viper.GetString("redis.addr"),
		Password:     viper.GetString("redis.password"),
		DB:           viper.GetInt("redis.db"),
		DialTimeout:  viper.GetDuration("redis.dialTimeout"),
		ReadTimeout:  viper.GetDuration("redis.readTimeout"),
		WriteTimeout: viper.GetDuration("redis.writeTimeout"),
		PoolSize:     viper.GetInt("redis.poolSize"),
		PoolTimeout:  viper.GetDuration("redis.poolTimeout"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Successfully connected to Redis")
	return nil
}

func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}
}

// RedisCounterStore exposes the atomic counter primitives the rate limiter is
// built on. Every call carries a bounded timeout; any transport or server
// error is surfaced wrapping ErrStoreUnavailable, never as a zero count.
type RedisCounterStore struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisCounterStore(client *redis.Client, timeout time.Duration) *RedisCounterStore {
	return &RedisCounterStore{client: client, timeout: timeout}
}

func (s *RedisCounterStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Increment atomically adds 1 to key and returns the post-increment value.
func (s *RedisCounterStore) Increment(ctx context.Context, key string) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to increment %q: %v", platform_errors.ErrStoreUnavailable, key, err)
	}
	return count, nil
}

// SetExpiryIfAbsent arms an expiry on key only if none is set, and reports
// whether it took effect. Calling it twice never extends the first TTL.
func (s *RedisCounterStore) SetExpiryIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	armed, err := s.client.ExpireNX(ctx, key, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: failed to set expiry on %q: %v", platform_errors.ErrStoreUnavailable, key, err)
	}
	return armed, nil
}

// Get returns the current count for key and whether the key exists.
func (s *RedisCounterStore) Get(ctx context.Context, key string) (int64, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	count, err := s.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, false, nil
	} else if err != nil {
		return 0, false, fmt.Errorf("%w: failed to read %q: %v", platform_errors.ErrStoreUnavailable, key, err)
	}
	return count, true, nil
}

// TTL returns the remaining lifetime of key and whether an expiry is armed.
func (s *RedisCounterStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, fmt.Errorf("%w: failed to read TTL of %q: %v", platform_errors.ErrStoreUnavailable, key, err)
	}
	// go-redis reports -2 for a missing key and -1 for a key without expiry.
	if ttl < 0 {
		return 0, false, nil
	}
	return ttl, true, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *RedisCounterStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: failed to delete %q: %v", platform_errors.ErrStoreUnavailable, key, err)
	}
	return nil
}

// Grant cache. Advisory only: a miss always falls through to the grant store,
// and grant/revoke invalidate eagerly.

func grantCacheKey(subjectID, resource, action string) string {
	return fmt.Sprintf("grant:%s:%s:%s", subjectID, resource, action)
}

func CacheGrant(ctx context.Context, grant *model.PermissionGrant) error {
	grantJSON, err := json.Marshal(grant)
	if err != nil {
		return fmt.Errorf("failed to marshal grant: %w", err)
	}

	key := grantCacheKey(grant.SubjectID, grant.Resource, grant.Action)
	ttl := viper.GetDuration("authz.grantCacheTTL")
	err = RedisClient.Set(ctx, key, grantJSON, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache grant: %w", err)
	}

	logger.Debug("Grant cached successfully", zap.String("key", key))
	return nil
}

func GetCachedGrant(ctx context.Context, subjectID, resource, action string) (*model.PermissionGrant, error) {
	key := grantCacheKey(subjectID, resource, action)
	grantJSON, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Grant not found in cache", zap.String("key", key))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get grant from cache: %w", err)
	}

	var grant model.PermissionGrant
	err = json.Unmarshal([]byte(grantJSON), &grant)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal grant: %w", err)
	}

	logger.Debug("Grant retrieved from cache", zap.String("key", key))
	return &grant, nil
}

func DeleteCachedGrant(ctx context.Context, subjectID, resource, action string) error {
	key := grantCacheKey(subjectID, resource, action)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete grant from cache: %w", err)
	}
	logger.Debug("Grant deleted from cache", zap.String("key", key))
	return nil
}
