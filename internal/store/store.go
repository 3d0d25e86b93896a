// 包 store: 提供与 PostgreSQL 的数据访问层，按文档键存取地理文档
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"geodata/internal/logger"
)

// Store: 数据库访问入口，持有连接池并提供文档读写接口
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Open: 使用 DSN 打开数据库连接并配置连接池参数
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	return &Store{db: db}, nil
}

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Document: 按文档键读取正文；不存在返回 ok=false 而非错误
func (s *Store) Document(ctx context.Context, key string) ([]byte, bool, error) {
	var body []byte
	row := s.db.QueryRowContext(ctx, "SELECT body FROM _geo_documents WHERE path=$1", key)
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.L().Debug("db_doc_miss", "path", key)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: read %s: %w", key, err)
	}
	logger.L().Debug("db_doc_hit", "path", key, "bytes", len(body))
	return body, true, nil
}

// 文档注释：写入或覆盖一份文档
// 背景：镜像工具把文件树逐个写入数据库，供无法访问源站的网络宿主解析。
// 约束：正文必须是合法 JSON（JSONB 列），覆盖时刷新 updated_at。
func (s *Store) UpsertDocument(ctx context.Context, key string, body []byte) error {
	if !json.Valid(body) {
		return fmt.Errorf("store: %s is not valid JSON", key)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO _geo_documents(path, body, updated_at) VALUES($1, $2, now())
		ON CONFLICT (path) DO UPDATE SET body=EXCLUDED.body, updated_at=now()`, key, body)
	if err != nil {
		return fmt.Errorf("store: upsert %s: %w", key, err)
	}
	return nil
}

// DeleteMissing: 删除不在 keep 中的文档，返回删除数量
func (s *Store) DeleteMissing(ctx context.Context, keep []string) (int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path FROM _geo_documents")
	if err != nil {
		return 0, err
	}
	keepSet := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		keepSet[k] = struct{}{}
	}
	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, err
		}
		if _, ok := keepSet[p]; !ok {
			stale = append(stale, p)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	var n int64
	for _, p := range stale {
		res, err := s.db.ExecContext(ctx, "DELETE FROM _geo_documents WHERE path=$1", p)
		if err != nil {
			return n, fmt.Errorf("store: delete %s: %w", p, err)
		}
		c, _ := res.RowsAffected()
		n += c
	}
	logger.L().Debug("db_doc_prune", "deleted", n)
	return n, nil
}

// CountDocuments: 文档总数，用于同步工具汇报
func (s *Store) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM _geo_documents").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
