package loader

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
)

// 文档注释：解析策略（候选位置）
// 约束：Fetch 仅在确认缺失时返回包装 ErrMiss 的错误；读取故障返回 *UnavailableError；
// 超时返回 *TimeoutError；location 仅用于诊断。
type Strategy interface {
	Name() string
	Requires() Capability
	Fetch(ctx context.Context, key string) (body []byte, location string, err error)
}

// FileStrategy：以某根目录为基准读取文档
type FileStrategy struct {
	name string
	fs   afero.Fs
	root string
}

func NewFileStrategy(name string, fs afero.Fs, root string) *FileStrategy {
	return &FileStrategy{name: name, fs: fs, root: root}
}

func (s *FileStrategy) Name() string         { return s.name }
func (s *FileStrategy) Requires() Capability { return CapFileSystem }
func (s *FileStrategy) Root() string         { return s.root }

// Fetch：文件读取不支持取消；路径不存在视为未命中，权限或目录类错误视为不可用
func (s *FileStrategy) Fetch(_ context.Context, key string) ([]byte, string, error) {
	loc := filepath.Join(s.root, filepath.FromSlash(key))
	b, err := afero.ReadFile(s.fs, loc)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return nil, loc, miss(err)
		}
		return nil, loc, unavailable(key, s.name, loc, err)
	}
	return b, loc, nil
}

// FileRoots：描述文件类候选的根目录
type FileRoots struct {
	DataDir     string
	ExecDir     string
	InstallRoot string
	WorkDir     string
}

// FileStrategies：按固定顺序生成文件类候选
// 顺序：local（可执行文件目录）→ parent（上一级目录，兼容另一种打包布局）→
// install（安装根目录，如无服务器环境的 /var/task）→ workdir（当前工作目录）。
// DataDir 为绝对路径时只生成单一 absolute 候选。重复根目录只保留首个。
func FileStrategies(fs afero.Fs, r FileRoots) []Strategy {
	if r.DataDir == "" {
		return nil
	}
	if filepath.IsAbs(r.DataDir) {
		return []Strategy{NewFileStrategy("absolute", fs, filepath.Clean(r.DataDir))}
	}
	type cand struct{ name, base string }
	cands := []cand{
		{"local", r.ExecDir},
		{"parent", parentDir(r.ExecDir)},
		{"install", r.InstallRoot},
		{"workdir", r.WorkDir},
	}
	seen := make(map[string]bool)
	var out []Strategy
	for _, c := range cands {
		if c.base == "" {
			continue
		}
		root := filepath.Join(c.base, r.DataDir)
		if seen[root] {
			continue
		}
		seen[root] = true
		out = append(out, NewFileStrategy(c.name, fs, root))
	}
	return out
}

func parentDir(dir string) string {
	if dir == "" {
		return ""
	}
	return filepath.Dir(filepath.Clean(dir))
}
