// 包 segment：短代码 → 段名（Label-CODE）解析器，每个父级作用域只枚举一次并记忆
package segment

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"geodata/internal/docpath"
	"geodata/internal/logger"
	"geodata/internal/metrics"
)

// Enumerator：列出某父级作用域下全部可用段名
// 约束：作用域文档缺失时返回 (nil, nil)，视为空表；其他错误原样返回且不被记忆
type Enumerator func(ctx context.Context, scope string) ([]string, error)

// 文档注释：段解析器
// 背景：首次访问某作用域时枚举段名并按后缀代码建表，之后仅做 O(1) 查表。
// 约束：并发首次访问可能重复枚举；枚举是纯函数，后写覆盖先写得到的表完全相同。
type Resolver struct {
	enum   Enumerator
	mu     sync.RWMutex
	tables map[string]map[string]string
	builds atomic.Int64
}

func New(enum Enumerator) *Resolver {
	return &Resolver{enum: enum, tables: make(map[string]map[string]string)}
}

// Resolve：返回 code 在 scope 下的段名；不存在时 found 为 false 而非错误
func (r *Resolver) Resolve(ctx context.Context, scope, code string) (string, bool, error) {
	t, err := r.table(ctx, scope)
	if err != nil {
		return "", false, err
	}
	name, ok := t[normalize(code)]
	return name, ok, nil
}

// Segments：返回 scope 下全部段名的副本
func (r *Resolver) Segments(ctx context.Context, scope string) ([]string, error) {
	t, err := r.table(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(t))
	for _, name := range t {
		out = append(out, name)
	}
	return out, nil
}

func (r *Resolver) table(ctx context.Context, scope string) (map[string]string, error) {
	r.mu.RLock()
	t, ok := r.tables[scope]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}
	names, err := r.enum(ctx, scope)
	if err != nil {
		return nil, err
	}
	t = make(map[string]string, len(names))
	for _, name := range names {
		code := docpath.CodeOf(name)
		if code == "" {
			continue
		}
		t[normalize(code)] = name
	}
	r.mu.Lock()
	r.tables[scope] = t
	r.mu.Unlock()
	r.builds.Add(1)
	metrics.SegmentTablesBuiltTotal.Inc()
	logger.L().Debug("segment_table_built", "scope", scope, "entries", len(t))
	return t, nil
}

// Reset：丢弃全部已记忆的表，下次访问重新枚举
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.tables = make(map[string]map[string]string)
	r.mu.Unlock()
}

// Builds：累计枚举次数
func (r *Resolver) Builds() int64 { return r.builds.Load() }

func normalize(code string) string { return strings.ToUpper(strings.TrimSpace(code)) }
