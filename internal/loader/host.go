package loader

import (
	"strings"

	"github.com/spf13/afero"
)

// Capability：解析策略依赖的宿主能力
type Capability uint8

const (
	CapFileSystem Capability = 1 << iota
	CapNetwork
)

func (c Capability) String() string {
	var parts []string
	if c&CapFileSystem != 0 {
		parts = append(parts, "filesystem")
	}
	if c&CapNetwork != 0 {
		parts = append(parts, "network")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// 文档注释：宿主环境
// 背景：把“能否访问文件系统/网络”收敛为一个小接口，在构造时选定一次，
// 加载器只询问能力而不在各处嗅探运行时类型。
type Host interface {
	Name() string
	Can(c Capability) bool
}

type host struct {
	name string
	caps Capability
}

func (h host) Name() string          { return h.name }
func (h host) Can(c Capability) bool { return h.caps&c == c }

// FileSystemHost：可读本地文件系统，亦可访问网络
func FileSystemHost() Host { return host{name: "filesystem", caps: CapFileSystem | CapNetwork} }

// NetworkHost：仅可访问网络（如边缘运行时）
func NetworkHost() Host { return host{name: "network", caps: CapNetwork} }

// SelectHost：按配置选择宿主；auto 时若任一数据根目录存在则视为文件系统宿主
func SelectHost(mode string, fs afero.Fs, roots []string) Host {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "fs", "filesystem":
		return FileSystemHost()
	case "network", "net":
		return NetworkHost()
	}
	if fs == nil {
		return NetworkHost()
	}
	for _, r := range roots {
		if ok, _ := afero.DirExists(fs, r); ok {
			return FileSystemHost()
		}
	}
	return NetworkHost()
}
