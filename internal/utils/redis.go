// 包 utils：数据库、Redis 与 TLS 连接工具，统一环境变量读取
package utils

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"geodata/internal/logger"
)

// OpenRedis：按地址、密码与库号打开客户端；地址为空返回 nil，调用方据此跳过共享缓存层
func OpenRedis(addr, pass string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}

// OpenRedisFromEnv：REDIS_URL 优先；否则由 REDIS_HOST/REDIS_PORT/REDIS_PASS/REDIS_DB 拼接
// 约束：REDIS_DB 解析失败或为负时回退到 0；REDIS_URL 无法解析时返回错误
func OpenRedisFromEnv() (*redis.Client, error) {
	if raw := os.Getenv("REDIS_URL"); raw != "" {
		opt, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("redis: parse REDIS_URL: %w", err)
		}
		logger.L().Debug("redis_env", "addr", opt.Addr, "db", opt.DB)
		return redis.NewClient(opt), nil
	}
	addr := net.JoinHostPort(envOr("REDIS_HOST", "127.0.0.1"), envOr("REDIS_PORT", "6379"))
	db := 0
	if n, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil && n >= 0 {
		db = n
	}
	logger.L().Debug("redis_env", "addr", addr, "db", db)
	return OpenRedis(addr, os.Getenv("REDIS_PASS"), db), nil
}

// PingRedis：启动期探活；失败时调用方应放弃共享缓存层而非退出
func PingRedis(ctx context.Context, c *redis.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Ping(ctx).Err()
}
