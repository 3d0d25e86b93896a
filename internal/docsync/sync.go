// 包 docsync：把本地文档树镜像到文档存储（PostgreSQL），供数据库策略读取
package docsync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"geodata/internal/logger"
)

// Writer：镜像目标
type Writer interface {
	UpsertDocument(ctx context.Context, key string, body []byte) error
	DeleteMissing(ctx context.Context, keep []string) (int64, error)
}

type Options struct {
	// Concurrency：并发写入数，<=0 时为 4
	Concurrency int
	DryRun      bool
	// Prune：删除存储中已不在文档树里的键
	Prune bool
}

type Result struct {
	Scanned int
	Written int64
	Pruned  int64
	Invalid []string
}

// Collect：遍历 root 下全部 .json 文件，返回以 / 分隔的相对键（已排序）
func Collect(fs afero.Fs, root string) ([]string, error) {
	var keys []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".json") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("docsync: walk %s: %w", root, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// 文档注释：执行一次镜像
// 背景：文档键与文件布局一致，数据库策略因此可直接复用加载器的文件键。
// 约束：非法 JSON 记录在 Invalid 中并跳过，不中止整体同步；写入错误中止并返回。
func Sync(ctx context.Context, fs afero.Fs, root string, w Writer, opts Options) (Result, error) {
	var res Result
	keys, err := Collect(fs, root)
	if err != nil {
		return res, err
	}
	res.Scanned = len(keys)
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 4
	}
	invalid := make([]bool, len(keys))
	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, key := range keys {
		g.Go(func() error {
			b, err := afero.ReadFile(fs, filepath.Join(root, filepath.FromSlash(key)))
			if err != nil {
				return fmt.Errorf("docsync: read %s: %w", key, err)
			}
			if !json.Valid(b) {
				invalid[i] = true
				logger.L().Warn("docsync_invalid_json", "key", key)
				return nil
			}
			if opts.DryRun {
				return nil
			}
			if err := w.UpsertDocument(gctx, key, b); err != nil {
				return err
			}
			written.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	res.Written = written.Load()
	keep := make([]string, 0, len(keys))
	for i, key := range keys {
		if invalid[i] {
			res.Invalid = append(res.Invalid, key)
			continue
		}
		keep = append(keep, key)
	}
	if opts.Prune && !opts.DryRun {
		n, err := w.DeleteMissing(ctx, keep)
		if err != nil {
			return res, err
		}
		res.Pruned = n
	}
	logger.L().Info("docsync_done", "scanned", res.Scanned, "written", res.Written, "pruned", res.Pruned, "invalid", len(res.Invalid))
	return res, nil
}
