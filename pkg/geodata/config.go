package geodata

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	"geodata/internal/docpath"
	"geodata/internal/loader"
)

const (
	DefaultDataDir        = "data/geo"
	DefaultTimeout        = 5 * time.Second
	DefaultMaxConcurrency = 8
)

// 文档注释：客户端配置
// 背景：所有输入由调用方注入，包内不读取环境变量；两个不同配置的客户端可在同一进程内并存。
// 约束：DataDir 为相对路径时依次在可执行文件目录、其上一级、安装根目录与工作目录下查找；
// 为绝对路径时只在该目录查找。BaseURL 非空时追加 HTTP 策略。
type Config struct {
	DataDir     string
	InstallRoot string
	WorkDir     string
	BaseURL     string
	Headers     map[string]string
	// Timeout：网络类策略单次请求的截止时间
	Timeout        time.Duration
	DisableCache   bool
	MaxConcurrency int
	// Host：auto | fs | network
	Host   string
	Layout docpath.Layout
}

func (c Config) withDefaults() Config {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.Layout == (docpath.Layout{}) {
		c.Layout = docpath.DefaultLayout()
	}
	return c
}

// DocumentStore：按文档键读取的外部存储（如 PostgreSQL 镜像）
type DocumentStore = loader.DocumentStore

// CountryLookup：IP → ISO2 国家代码
type CountryLookup interface {
	CountryCode(ip string) (string, error)
}

type options struct {
	fs         afero.Fs
	httpClient *http.Client
	redis      *redis.Client
	redisTTL   time.Duration
	store      DocumentStore
	geoipPath  string
	geo        CountryLookup
	execDir    string
}

type Option func(*options)

// WithFs：替换文件系统实现（测试使用 afero.NewMemMapFs）
func WithFs(fs afero.Fs) Option { return func(o *options) { o.fs = fs } }

func WithHTTPClient(c *http.Client) Option { return func(o *options) { o.httpClient = c } }

// WithRedis：在内存缓存之后加入 Redis 共享层；ttl 为 0 时不过期
func WithRedis(rc *redis.Client, ttl time.Duration) Option {
	return func(o *options) { o.redis, o.redisTTL = rc, ttl }
}

// WithDocumentStore：追加数据库策略，位于 HTTP 策略之后
func WithDocumentStore(s DocumentStore) Option { return func(o *options) { o.store = s } }

// WithGeoIP：在 New 时打开 mmdb 文件，供 CountryByIP 使用
func WithGeoIP(path string) Option { return func(o *options) { o.geoipPath = path } }

func WithCountryLookup(l CountryLookup) Option { return func(o *options) { o.geo = l } }

// WithExecutableDir：覆盖可执行文件目录（默认取 os.Executable 所在目录）
func WithExecutableDir(dir string) Option { return func(o *options) { o.execDir = dir } }
