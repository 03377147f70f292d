package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "staybook:lock:"

// Deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisStore keeps leases as SET NX PX keys; Redis expiry reclaims crashed holders.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) TryAcquire(ctx context.Context, key, roomID, token string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, redisKeyPrefix+key, token, ttl).Result()
}

func (s *RedisStore) Release(ctx context.Context, key, token string) error {
	deleted, err := releaseScript.Run(ctx, s.client, []string{redisKeyPrefix + key}, token).Int()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotOwner
	}
	return nil
}
