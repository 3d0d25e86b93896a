// 包 docpath：文档树的逻辑路径、文档种类与文件布局
package docpath

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Kind：逻辑路径终结的文档种类
type Kind string

const (
	KindList     Kind = "list"
	KindMeta     Kind = "meta"
	KindChildren Kind = "children"
)

// Dataset：并列的数据集（地理层级 / 时区）
type Dataset string

const (
	DatasetGeo       Dataset = ""
	DatasetTimezones Dataset = "timezones"
)

// Separator：段名中标签与代码之间的分隔符，代码取最后一个分隔符之后的后缀
const Separator = "-"

var ErrInvalidPath = errors.New("docpath: invalid logical path")

// Path：逻辑路径（段序列 + 文档种类），用于定位一份文档
type Path struct {
	Dataset  Dataset
	Segments []string
	Kind     Kind
}

// Countries：根列表文档
func Countries() Path { return Path{Kind: KindList} }

// Timezones：时区数据集根列表
func Timezones() Path { return Path{Dataset: DatasetTimezones, Kind: KindList} }

// Meta：某实体的完整记录文档
func Meta(segments ...string) Path { return Path{Segments: segments, Kind: KindMeta} }

// Children：某父级的直接子记录文档
func Children(segments ...string) Path { return Path{Segments: segments, Kind: KindChildren} }

func (p Path) String() string {
	if len(p.Segments) == 0 {
		return string(p.Kind)
	}
	return strings.Join(p.Segments, "/") + "#" + string(p.Kind)
}

// Layout：逻辑路径到文件名的映射
// 约束：由上游产出方保证命名一致；此处只做拼接与校验
type Layout struct {
	Countries string
	Timezones string
	Meta      string
	States    string
	Cities    string
}

func DefaultLayout() Layout {
	return Layout{
		Countries: "countries.json",
		Timezones: "timezones.json",
		Meta:      "meta.json",
		States:    "states.json",
		Cities:    "cities.json",
	}
}

// File：返回逻辑路径对应的相对文件键（以 / 分隔），同时作为缓存键
func (l Layout) File(p Path) (string, error) {
	for _, s := range p.Segments {
		if !validSegment(s) {
			return "", fmt.Errorf("%w: segment %q", ErrInvalidPath, s)
		}
	}
	n := len(p.Segments)
	switch p.Kind {
	case KindList:
		if n != 0 {
			break
		}
		if p.Dataset == DatasetTimezones {
			return l.Timezones, nil
		}
		return l.Countries, nil
	case KindMeta:
		if n == 0 || p.Dataset != DatasetGeo {
			break
		}
		return path.Join(append(append([]string{}, p.Segments...), l.Meta)...), nil
	case KindChildren:
		if p.Dataset != DatasetGeo {
			break
		}
		switch n {
		case 1:
			return path.Join(p.Segments[0], l.States), nil
		case 2:
			return path.Join(p.Segments[0], p.Segments[1], l.Cities), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidPath, p)
}

func validSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\")
}

// SegmentName：按 {Label}-{Code} 约定生成段名，标签中的空格替换为下划线
func SegmentName(label, code string) string {
	return strings.ReplaceAll(strings.TrimSpace(label), " ", "_") + Separator + strings.TrimSpace(code)
}

// CodeOf：取段名最后一个分隔符之后的代码；无分隔符或代码为空时返回空串
func CodeOf(segment string) string {
	i := strings.LastIndex(segment, Separator)
	if i < 0 {
		return ""
	}
	return segment[i+len(Separator):]
}
