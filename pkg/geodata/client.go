// 包 geodata：国家 / 州省 / 城市 / 时区分层参考数据的按需加载访问层
//
// 调用方按代码请求实体，客户端先把代码解析为文档段名，再按有序策略加载对应文档并缓存。
// 不存在的实体返回 nil 或空切片；超时与解析错误原样返回。
package geodata

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"geodata/internal/cache"
	"geodata/internal/docpath"
	"geodata/internal/geoip"
	"geodata/internal/loader"
	"geodata/internal/logger"
	"geodata/internal/segment"
)

// Client：并发安全；缓存与段表归实例所有
type Client struct {
	cfg      Config
	loader   *loader.Loader
	segments *segment.Resolver
	geo      CountryLookup
	closers  []io.Closer
}

// 文档注释：构造客户端
// 背景：宿主能力在此选定一次；策略顺序为文件类候选 → http → postgres。
// 约束：WithGeoIP 指定的文件打不开时返回错误；其余依赖均为可选。
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	o := &options{}
	for _, fn := range opts {
		fn(o)
	}
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}
	if o.execDir == "" {
		if exe, err := os.Executable(); err == nil {
			o.execDir = filepath.Dir(exe)
		}
	}
	if cfg.WorkDir == "" {
		if wd, err := os.Getwd(); err == nil {
			cfg.WorkDir = wd
		}
	}

	fileStrategies := loader.FileStrategies(o.fs, loader.FileRoots{
		DataDir:     cfg.DataDir,
		ExecDir:     o.execDir,
		InstallRoot: cfg.InstallRoot,
		WorkDir:     cfg.WorkDir,
	})
	roots := make([]string, 0, len(fileStrategies))
	for _, s := range fileStrategies {
		roots = append(roots, s.(*loader.FileStrategy).Root())
	}
	strategies := append([]loader.Strategy{}, fileStrategies...)
	if cfg.BaseURL != "" {
		strategies = append(strategies, loader.NewHTTPStrategy(cfg.BaseURL, cfg.Headers, cfg.Timeout, o.httpClient))
	}
	if o.store != nil {
		strategies = append(strategies, loader.NewStoreStrategy("postgres", o.store, cfg.Timeout))
	}

	var c cache.Cache
	switch {
	case cfg.DisableCache:
		c = cache.Nop{}
	case o.redis != nil:
		c = cache.NewTiered(cache.NewMemory(), cache.NewRedisRemote(o.redis), "", o.redisTTL)
	default:
		c = cache.NewMemory()
	}

	host := loader.SelectHost(cfg.Host, o.fs, roots)
	cl := &Client{cfg: cfg, geo: o.geo}
	cl.loader = loader.New(loader.Config{Host: host, Cache: c, Layout: cfg.Layout, Strategies: strategies})
	cl.segments = segment.New(cl.enumerate)

	if o.geoipPath != "" && cl.geo == nil {
		r, err := geoip.Open(o.geoipPath)
		if err != nil {
			return nil, err
		}
		cl.geo = r
		cl.closers = append(cl.closers, r)
	}
	logger.L().Info("geodata_client_ready",
		"host", host.Name(),
		"strategies", strings.Join(cl.loader.StrategyNames(), ","),
		"cache", !cfg.DisableCache,
		"redis", o.redis != nil,
	)
	return cl, nil
}

// Close：释放 GeoIP 等外部句柄；Redis 与数据库连接由调用方管理
func (c *Client) Close() error {
	var errs []error
	for _, cl := range c.closers {
		errs = append(errs, cl.Close())
	}
	return errors.Join(errs...)
}

// ClearCache：清空文档缓存与段表，下次访问重新解析
func (c *Client) ClearCache(ctx context.Context) {
	c.loader.Clear(ctx)
	c.segments.Reset()
}

// Stats：加载器与段解析器计数
type Stats struct {
	Host          string           `json:"host"`
	Strategies    []string         `json:"strategies"`
	Loads         int64            `json:"loads"`
	CacheHits     int64            `json:"cache_hits"`
	CacheMisses   int64            `json:"cache_misses"`
	NotFound      int64            `json:"not_found"`
	Failures      int64            `json:"failures"`
	Attempts      map[string]int64 `json:"attempts"`
	SegmentTables int64            `json:"segment_tables"`
}

func (c *Client) Stats() Stats {
	s := c.loader.Stats()
	return Stats{
		Host:          c.loader.Host().Name(),
		Strategies:    c.loader.StrategyNames(),
		Loads:         s.Loads,
		CacheHits:     s.CacheHits,
		CacheMisses:   s.CacheMisses,
		NotFound:      s.NotFound,
		Failures:      s.Failures,
		Attempts:      s.Attempts,
		SegmentTables: c.segments.Builds(),
	}
}

// load：加载并解码；文档不存在时 found=false 且 err 为 nil
func load[T any](ctx context.Context, c *Client, p docpath.Path) (v T, found bool, err error) {
	doc, err := c.loader.Load(ctx, p)
	if err != nil {
		if isNotFound(err) {
			return v, false, nil
		}
		return v, false, err
	}
	if err := doc.Decode(&v); err != nil {
		return v, false, err
	}
	return v, true, nil
}

// enumerate：段名来自作用域的列表文档，两种宿主下行为一致
// scope 为空表示国家层；否则为某国家段名，列出其州省
func (c *Client) enumerate(ctx context.Context, scope string) ([]string, error) {
	if scope == "" {
		countries, _, err := load[[]Country](ctx, c, docpath.Countries())
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(countries))
		for _, co := range countries {
			if co.ISO2 != "" {
				names = append(names, docpath.SegmentName(co.Name, co.ISO2))
			}
		}
		return names, nil
	}
	states, _, err := load[[]State](ctx, c, docpath.Children(scope))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(states))
	for _, st := range states {
		if st.ISO2 != "" {
			names = append(names, docpath.SegmentName(st.Name, st.ISO2))
		}
	}
	return names, nil
}

func (c *Client) countrySegment(ctx context.Context, cc string) (string, bool, error) {
	if strings.TrimSpace(cc) == "" {
		return "", false, nil
	}
	return c.segments.Resolve(ctx, "", cc)
}

func (c *Client) stateSegments(ctx context.Context, cc, sc string) (cseg, sseg string, ok bool, err error) {
	cseg, ok, err = c.countrySegment(ctx, cc)
	if err != nil || !ok {
		return "", "", false, err
	}
	if strings.TrimSpace(sc) == "" {
		return cseg, "", false, nil
	}
	sseg, ok, err = c.segments.Resolve(ctx, cseg, sc)
	if err != nil || !ok {
		return cseg, "", false, err
	}
	return cseg, sseg, true, nil
}
