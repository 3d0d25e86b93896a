// 包 cache：结果缓存，按完整解析后的逻辑路径记忆已加载文档与“确认缺失”标记
package cache

import (
	"context"
	"encoding/json"
	"sync"
)

// Entry：缓存条目（不可变值，只整体替换）
// 约束：Absent 为 true 时 Body 为空，表示所有候选位置均已确认缺失
type Entry struct {
	Body   json.RawMessage
	Source string
	Absent bool
}

// Cache：结果缓存契约
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool)
	Set(ctx context.Context, key string, e Entry)
	Clear(ctx context.Context)
}

// 文档注释：进程内缓存
// 背景：参考数据在进程生命周期内不可变，因此不设 TTL、不设容量、不淘汰；仅由 Clear 显式清空。
// 约束：并发写同一键产生相同结果，后写覆盖先写即可。
type Memory struct {
	mu sync.RWMutex
	m  map[string]Entry
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string]Entry)}
}

func (c *Memory) Get(_ context.Context, key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.m[key]
	return e, ok
}

func (c *Memory) Set(_ context.Context, key string, e Entry) {
	c.mu.Lock()
	c.m[key] = e
	c.mu.Unlock()
}

func (c *Memory) Clear(_ context.Context) {
	c.mu.Lock()
	c.m = make(map[string]Entry)
	c.mu.Unlock()
}

func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// Nop：关闭缓存时使用，每次加载都重新执行全部解析策略
type Nop struct{}

func (Nop) Get(context.Context, string) (Entry, bool) { return Entry{}, false }
func (Nop) Set(context.Context, string, Entry)        {}
func (Nop) Clear(context.Context)                     {}
