package utils

import (
	"database/sql"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
)

// OpenPostgres：使用默认连接池参数打开连接；不做探活
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	configurePool(db, 20, 10)
	return db, nil
}

// BuildPostgresDSNFromEnv：由 PG_* 变量拼接 DSN，用户名与密码做 URL 转义
func BuildPostgresDSNFromEnv() string {
	user := envOr("PG_USER", "postgres")
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(envOr("PG_HOST", "localhost"), envOr("PG_PORT", "5432")),
		Path:     "/" + envOr("PG_DB", "geodata"),
		RawQuery: "sslmode=" + envOr("PG_SSLMODE", "disable"),
	}
	if pass := os.Getenv("PG_PASSWORD"); pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	return u.String()
}

// OpenPostgresFromEnv：文档表只读查询为主，连接池默认小于写密集场景；可由 PG_MAX_* 覆盖
func OpenPostgresFromEnv() (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSNFromEnv())
	if err != nil {
		return nil, err
	}
	configurePool(db, envIntOr("PG_MAX_OPEN_CONNS", 20), envIntOr("PG_MAX_IDLE_CONNS", 10))
	return db, nil
}

func configurePool(db *sql.DB, maxOpen, maxIdle int) {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxIdleTime(5 * time.Minute)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, e := strconv.Atoi(v); e == nil && n > 0 {
			return n
		}
	}
	return def
}
