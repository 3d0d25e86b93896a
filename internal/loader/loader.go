// 包 loader：文档加载器，按宿主可用的有序策略列表解析逻辑路径，首个成功即返回并写入结果缓存
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"geodata/internal/cache"
	"geodata/internal/docpath"
	"geodata/internal/logger"
	"geodata/internal/metrics"
)

var errMalformed = errors.New("malformed JSON")

// Document：已解析（校验为合法 JSON）的文档
type Document struct {
	Key      string
	Source   string
	Location string
	Body     json.RawMessage
}

// Decode：解码为具体类型；结构不符时返回 *ParseError
func (d *Document) Decode(v any) error {
	if err := json.Unmarshal(d.Body, v); err != nil {
		return &ParseError{Key: d.Key, Strategy: d.Source, Location: d.Location, Err: err}
	}
	return nil
}

// Config：加载器依赖注入
type Config struct {
	Host       Host
	Cache      cache.Cache
	Layout     docpath.Layout
	Strategies []Strategy
}

// Stats：加载计数，用于测试与诊断
type Stats struct {
	Loads       int64
	CacheHits   int64
	CacheMisses int64
	NotFound    int64
	Failures    int64
	// Attempts：按策略名统计实际执行的 Fetch 次数（不含能力不足被跳过的）
	Attempts map[string]int64
}

// 文档注释：文档加载器
// 背景：策略严格按序尝试，首个成功即提交结果，不再尝试其余策略；全部确认缺失时返回 NotFound
// 并缓存“确认缺失”；某候选不可用时继续后续候选，若最终无结果返回 *UnavailableError 且不缓存；
// 超时与解析错误直接返回，不在后续候选上重试。
// 约束：同一键的并发加载合并为一次（singleflight）；合并加载脱离调用方取消运行，
// 各调用方只在自己的 ctx 结束时提前返回。
type Loader struct {
	host       Host
	cache      cache.Cache
	layout     docpath.Layout
	strategies []Strategy
	group      singleflight.Group

	loads, hits, misses, notFound, failures atomic.Int64

	amu      sync.Mutex
	attempts map[string]int64
}

func New(cfg Config) *Loader {
	l := &Loader{host: cfg.Host, cache: cfg.Cache, layout: cfg.Layout, attempts: make(map[string]int64)}
	if l.host == nil {
		l.host = FileSystemHost()
	}
	if l.cache == nil {
		l.cache = cache.NewMemory()
	}
	if l.layout == (docpath.Layout{}) {
		l.layout = docpath.DefaultLayout()
	}
	for _, s := range cfg.Strategies {
		if s != nil {
			l.strategies = append(l.strategies, s)
		}
	}
	return l
}

func (l *Loader) Host() Host             { return l.host }
func (l *Loader) Layout() docpath.Layout { return l.layout }

// StrategyNames：按尝试顺序返回策略名称
func (l *Loader) StrategyNames() []string {
	out := make([]string, len(l.strategies))
	for i, s := range l.strategies {
		out[i] = s.Name()
	}
	return out
}

// Load：解析逻辑路径并返回文档；错误为 NotFound / Unavailable / Timeout / Parse 之一（或调用方取消）
func (l *Loader) Load(ctx context.Context, p docpath.Path) (*Document, error) {
	key, err := l.layout.File(p)
	if err != nil {
		return nil, err
	}
	if e, ok := l.cache.Get(ctx, key); ok {
		l.hits.Add(1)
		metrics.CacheHitsTotal.Inc()
		if e.Absent {
			return nil, &NotFoundError{Key: key, Host: l.host.Name(), Cached: true}
		}
		return &Document{Key: key, Source: e.Source, Body: e.Body}, nil
	}
	l.misses.Add(1)
	metrics.CacheMissesTotal.Inc()
	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (any, error) {
		// 前一轮合并加载可能刚刚提交结果
		if e, ok := l.cache.Get(shared, key); ok && !e.Absent {
			return &Document{Key: key, Source: e.Source, Body: e.Body}, nil
		}
		return l.resolve(shared, key)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Document), nil
	}
}

func (l *Loader) resolve(ctx context.Context, key string) (*Document, error) {
	l.loads.Add(1)
	attempts := make([]Attempt, 0, len(l.strategies))
	var down *UnavailableError
	for _, s := range l.strategies {
		if !l.host.Can(s.Requires()) {
			err := fmt.Errorf("%w: host %s lacks %s", ErrEnvironmentMismatch, l.host.Name(), s.Requires())
			attempts = append(attempts, Attempt{Strategy: s.Name(), Err: err})
			metrics.DocLoadsTotal.WithLabelValues(s.Name(), "skipped").Inc()
			continue
		}
		l.countAttempt(s.Name())
		t0 := time.Now()
		body, loc, err := s.Fetch(ctx, key)
		metrics.DocLoadDurationMs.WithLabelValues(s.Name()).Observe(float64(time.Since(t0).Milliseconds()))
		if err != nil {
			if errors.Is(err, ErrMiss) {
				attempts = append(attempts, Attempt{Strategy: s.Name(), Location: loc, Err: err})
				metrics.DocLoadsTotal.WithLabelValues(s.Name(), "miss").Inc()
				logger.L().Debug("doc_candidate_miss", "key", key, "strategy", s.Name(), "location", loc, "err", err)
				continue
			}
			var ue *UnavailableError
			if errors.As(err, &ue) {
				attempts = append(attempts, Attempt{Strategy: s.Name(), Location: loc, Err: err})
				metrics.DocLoadsTotal.WithLabelValues(s.Name(), "unavailable").Inc()
				logger.L().Warn("doc_candidate_unavailable", "key", key, "strategy", s.Name(), "location", loc, "err", err)
				if down == nil {
					down = ue
				}
				continue
			}
			l.failures.Add(1)
			outcome := "error"
			if errors.Is(err, ErrTimeout) {
				outcome = "timeout"
			}
			metrics.DocLoadsTotal.WithLabelValues(s.Name(), outcome).Inc()
			logger.L().Warn("doc_load_error", "key", key, "strategy", s.Name(), "location", loc, "err", err)
			return nil, err
		}
		if !json.Valid(body) {
			l.failures.Add(1)
			metrics.DocLoadsTotal.WithLabelValues(s.Name(), "parse_error").Inc()
			logger.L().Warn("doc_parse_error", "key", key, "strategy", s.Name(), "location", loc)
			return nil, &ParseError{Key: key, Strategy: s.Name(), Location: loc, Err: errMalformed}
		}
		metrics.DocLoadsTotal.WithLabelValues(s.Name(), "hit").Inc()
		logger.L().Debug("doc_load_hit", "key", key, "strategy", s.Name(), "location", loc, "bytes", len(body))
		l.cache.Set(ctx, key, cache.Entry{Body: body, Source: s.Name()})
		return &Document{Key: key, Source: s.Name(), Location: loc, Body: body}, nil
	}
	if down != nil {
		l.failures.Add(1)
		return nil, &UnavailableError{Key: key, Host: l.host.Name(), Strategy: down.Strategy, Location: down.Location, Err: down.Err, Attempts: attempts}
	}
	l.notFound.Add(1)
	nf := &NotFoundError{Key: key, Host: l.host.Name(), Attempts: attempts}
	if nf.Mismatched() {
		logger.L().Warn("doc_no_viable_strategy", "key", key, "host", l.host.Name())
	} else {
		logger.L().Debug("doc_not_found", "key", key, "attempts", len(attempts))
	}
	l.cache.Set(ctx, key, cache.Entry{Absent: true})
	return nil, nf
}

// Clear：清空结果缓存，下次加载重新执行策略列表
func (l *Loader) Clear(ctx context.Context) {
	l.cache.Clear(ctx)
	logger.L().Info("doc_cache_cleared")
}

func (l *Loader) countAttempt(name string) {
	l.amu.Lock()
	l.attempts[name]++
	l.amu.Unlock()
}

func (l *Loader) Stats() Stats {
	l.amu.Lock()
	attempts := make(map[string]int64, len(l.attempts))
	for k, v := range l.attempts {
		attempts[k] = v
	}
	l.amu.Unlock()
	return Stats{
		Attempts:    attempts,
		Loads:       l.loads.Load(),
		CacheHits:   l.hits.Load(),
		CacheMisses: l.misses.Load(),
		NotFound:    l.notFound.Load(),
		Failures:    l.failures.Load(),
	}
}
