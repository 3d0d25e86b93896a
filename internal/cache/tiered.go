package cache

import (
	"context"
	"time"

	"geodata/internal/logger"
	"geodata/internal/metrics"
)

// Remote：共享二级缓存的最小读写契约（Redis 实现见 redis.go）
type Remote interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// 文档注释：两级缓存（进程内 → 共享远端）
// 背景：多进程部署时共享已加载文档，减少重复的文件/网络读取；远端命中后回填进程内缓存。
// 约束：只共享文档本体，不共享“确认缺失”标记；远端故障降级为未命中并记录日志，不向上抛出。
type Tiered struct {
	mem    *Memory
	remote Remote
	prefix string
	ttl    time.Duration
}

func NewTiered(mem *Memory, remote Remote, prefix string, ttl time.Duration) *Tiered {
	if mem == nil {
		mem = NewMemory()
	}
	if prefix == "" {
		prefix = "geo:doc:"
	}
	return &Tiered{mem: mem, remote: remote, prefix: prefix, ttl: ttl}
}

func (t *Tiered) Get(ctx context.Context, key string) (Entry, bool) {
	if e, ok := t.mem.Get(ctx, key); ok {
		return e, true
	}
	if t.remote == nil {
		return Entry{}, false
	}
	b, ok, err := t.remote.Get(ctx, t.prefix+key)
	if err != nil {
		logger.L().Warn("redis_get_error", "key", key, "err", err)
		return Entry{}, false
	}
	if !ok {
		metrics.RedisMissesTotal.Inc()
		return Entry{}, false
	}
	metrics.RedisHitsTotal.Inc()
	e := Entry{Body: b, Source: "redis"}
	t.mem.Set(ctx, key, e)
	return e, true
}

func (t *Tiered) Set(ctx context.Context, key string, e Entry) {
	t.mem.Set(ctx, key, e)
	if t.remote == nil || e.Absent || e.Source == "redis" {
		return
	}
	if err := t.remote.Set(ctx, t.prefix+key, e.Body, t.ttl); err != nil {
		logger.L().Warn("redis_set_error", "key", key, "err", err)
	}
}

func (t *Tiered) Clear(ctx context.Context) {
	t.mem.Clear(ctx)
	if t.remote == nil {
		return
	}
	if err := t.remote.DeletePrefix(ctx, t.prefix); err != nil {
		logger.L().Warn("redis_clear_error", "prefix", t.prefix, "err", err)
	}
}
