package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRemote：基于 go-redis 的共享缓存层
type RedisRemote struct {
	rc *redis.Client
}

func NewRedisRemote(rc *redis.Client) *RedisRemote { return &RedisRemote{rc: rc} }

func (r *RedisRemote) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rc.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set：ttl 为 0 时不过期
func (r *RedisRemote) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	return r.rc.Set(ctx, key, body, ttl).Err()
}

// DeletePrefix：SCAN 分批删除前缀下的键，避免 KEYS 阻塞服务端
func (r *RedisRemote) DeletePrefix(ctx context.Context, prefix string) error {
	const batch = 500
	iter := r.rc.Scan(ctx, 0, prefix+"*", batch).Iterator()
	keys := make([]string, 0, batch)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= batch {
			if err := r.rc.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return r.rc.Del(ctx, keys...).Err()
	}
	return nil
}
