// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"geodata/internal/api"
	"geodata/internal/config"
	"geodata/internal/logger"
	"geodata/internal/metrics"
	"geodata/internal/middleware"
	"geodata/internal/migrate"
	"geodata/internal/store"
	"geodata/internal/utils"
	"geodata/pkg/geodata"
)

func main() {
	config.LoadDotEnv()
	l := logger.Setup()
	l.Debug("log_init_ok")
	cfg := config.FromEnv()
	l.Debug("config_loaded",
		"data_dir", cfg.Geo.DataDir,
		"install_root", cfg.Geo.InstallRoot,
		"base_url", cfg.Geo.BaseURL,
		"host", cfg.Geo.Host,
		"api_base", cfg.APIBase,
	)

	var opts []geodata.Option
	// 数据库策略：网络宿主无法访问源站时从镜像表读取
	if cfg.DBEnable {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			l.Error("db_ping_error", "err", err)
		} else {
			l.Info("db_ping_ok")
		}
		if err := migrate.EnsureSchema(db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
		opts = append(opts, geodata.WithDocumentStore(store.AttachDB(db)))
	} else {
		l.Info("db_disabled")
	}

	// 共享缓存层：探活失败时退回纯内存缓存
	if cfg.RedisEnable {
		rc, err := utils.OpenRedisFromEnv()
		if err != nil {
			l.Error("redis_config_error", "err", err)
		} else if err := utils.PingRedis(context.Background(), rc, 2*time.Second); err != nil {
			l.Error("redis_ping_error", "err", err)
			_ = rc.Close()
		} else {
			l.Info("redis_ping_ok", "ttl", cfg.RedisTTL)
			defer rc.Close()
			opts = append(opts, geodata.WithRedis(rc, cfg.RedisTTL))
		}
	} else {
		l.Info("redis_disabled")
	}

	if cfg.GeoIPPath != "" {
		opts = append(opts, geodata.WithGeoIP(cfg.GeoIPPath))
	}
	if cfg.Geo.BaseURL != "" {
		// 聚合接口会并发回源，空闲连接数与并发上限对齐
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.MaxIdleConnsPerHost = cfg.Geo.MaxConcurrency
		opts = append(opts, geodata.WithHTTPClient(&http.Client{Transport: tr}))
	}

	gc, err := geodata.New(cfg.Geo, opts...)
	if err != nil {
		l.Error("geodata_init_error", "err", err)
		os.Exit(1)
	}
	defer gc.Close()

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(gc, api.Options{AdminToken: cfg.AdminToken})
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiMux))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.RateLimit(handler, cfg.RateLimitQPS)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		var err error
		if cfg.TLSEnable {
			if err := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "geodata.local"); err != nil {
				l.Error("tls_cert_error", "err", err)
				os.Exit(1)
			}
			l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
			err = s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			l.Info("listening", "addr", cfg.Addr, "base", strings.TrimSuffix(cfg.APIBase, "/"))
			err = s.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("server_error", "err", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	l.Info("shutdown_begin")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		l.Error("shutdown_error", "err", err)
	}
	l.Info("shutdown_done")
}
