package middleware

import (
	"net/http"
	"sync"
	"time"

	"geodata/internal/logger"
	"geodata/internal/metrics"
)

// 文档注释：令牌桶限流中间件（每秒）
// 背景：城市列表类接口单次响应较大，峰值时对入口限速，避免远端源站与数据库被放大的回源压垮。
// 约束：简化实现，不做队列排队，仅丢弃并返回 429；qps<=0 时不启用。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	mu       sync.Mutex
	now      func() time.Time
}

func NewTokenBucket(qps int) *TokenBucket {
	return &TokenBucket{capacity: qps, tokens: qps, lastSec: time.Now().Unix(), now: time.Now}
}

func (tb *TokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := tb.now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimit：包装处理器；被拒绝的请求计入 geo_rate_limited_total
func RateLimit(next http.Handler, qps int) http.Handler {
	if qps <= 0 {
		return next
	}
	tb := NewTokenBucket(qps)
	logger.L().Info("rate_limit_enabled", "qps", qps)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !tb.allow() {
			metrics.RateLimitedTotal.Inc()
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
