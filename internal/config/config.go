// 包 config：集中读取 .env 与环境变量，所有默认值在此内联给出
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"geodata/pkg/geodata"
)

// App：服务进程配置；Geo 直接传给 geodata.New
type App struct {
	Geo geodata.Config

	Addr       string
	APIBase    string
	AdminToken string

	RateLimitQPS int

	DBEnable    bool
	RedisEnable bool
	RedisTTL    time.Duration
	GeoIPPath   string

	TLSEnable   bool
	TLSCertPath string
	TLSKeyPath  string
}

// LoadDotEnv：依次加载 .env 与 data/env/.env；已存在的环境变量不被覆盖
func LoadDotEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// 文档注释：从环境变量构建配置
// 约束：解析失败的数值回退到默认值，不报错；布尔值只认 "true"/"false"（大小写不敏感）。
func FromEnv() App {
	a := App{
		Geo: geodata.Config{
			DataDir:        env("GEO_DATA_DIR", geodata.DefaultDataDir),
			InstallRoot:    installRoot(),
			BaseURL:        strings.TrimSpace(os.Getenv("GEO_BASE_URL")),
			Headers:        ParseHeaders(os.Getenv("GEO_HEADERS")),
			Timeout:        time.Duration(envInt("GEO_TIMEOUT_MS", 5000)) * time.Millisecond,
			DisableCache:   !envBool("GEO_CACHE", true),
			MaxConcurrency: envInt("GEO_MAX_CONCURRENCY", geodata.DefaultMaxConcurrency),
			Host:           env("GEO_HOST", "auto"),
		},
		Addr:         env("ADDR", ":8080"),
		APIBase:      strings.TrimRight(env("API_BASE", "/api"), "/"),
		AdminToken:   os.Getenv("ADMIN_TOKEN"),
		DBEnable:     envBool("GEO_DB_ENABLE", false),
		RedisEnable:  envBool("REDIS_ENABLE", false),
		RedisTTL:     time.Duration(envInt("GEO_REDIS_TTL_S", 0)) * time.Second,
		GeoIPPath:    os.Getenv("GEOIP_PATH"),
		TLSEnable:    envBool("TLS_ENABLE", false),
		TLSCertPath:  env("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt")),
		TLSKeyPath:   env("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key")),
		RateLimitQPS: 0,
	}
	if envBool("RATE_LIMIT_ENABLED", false) {
		a.RateLimitQPS = envInt("RATE_LIMIT_QPS", 200)
	}
	return a
}

// installRoot：GEO_INSTALL_ROOT 优先，其次无服务器运行时注入的 LAMBDA_TASK_ROOT
func installRoot() string {
	if v := os.Getenv("GEO_INSTALL_ROOT"); v != "" {
		return v
	}
	return env("LAMBDA_TASK_ROOT", "/var/task")
}

// ParseHeaders：解析 "K=V;K2=V2"；空键与缺少 = 的片段忽略
func ParseHeaders(s string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(part, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, e := strconv.Atoi(strings.TrimSpace(s)); e == nil && n >= 0 {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true":
		return true
	case "false":
		return false
	}
	return def
}
