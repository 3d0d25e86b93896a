package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000}

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geodata_http_requests_total",
		Help: "Total number of API requests by status code",
	}, []string{"code"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geodata_http_request_duration_ms",
		Help:    "API request duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"code"})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geodata_http_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	})
	DocLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geodata_doc_attempts_total",
		Help: "Document resolution attempts by strategy and outcome",
	}, []string{"strategy", "outcome"})
	DocLoadDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geodata_doc_attempt_duration_ms",
		Help:    "Document resolution attempt duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"strategy"})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geodata_cache_hits_total",
		Help: "Total result cache hits (including confirmed-absent entries)",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geodata_cache_misses_total",
		Help: "Total result cache misses",
	})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geodata_redis_hits_total",
		Help: "Total shared redis tier hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geodata_redis_misses_total",
		Help: "Total shared redis tier misses",
	})
	SegmentTablesBuiltTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geodata_segment_tables_built_total",
		Help: "Total segment tables enumerated",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(RateLimitedTotal)
	prometheus.MustRegister(DocLoadsTotal)
	prometheus.MustRegister(DocLoadDurationMs)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(RedisHitsTotal)
	prometheus.MustRegister(RedisMissesTotal)
	prometheus.MustRegister(SegmentTablesBuiltTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
