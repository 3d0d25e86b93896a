package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound：所有候选位置都未能提供文档（文件缺失与候选耗尽合并为同一结果）
	ErrNotFound = errors.New("document not found")
	// ErrTimeout：网络类策略超过配置的截止时间
	ErrTimeout = errors.New("document fetch timed out")
	// ErrParse：已定位的文档无法解析为合法结构
	ErrParse = errors.New("document parse failed")
	// ErrEnvironmentMismatch：策略所需能力当前宿主不具备，跳过而非尝试
	ErrEnvironmentMismatch = errors.New("environment mismatch")
	// ErrMiss：策略在其候选位置确认文档不存在；加载器据此继续尝试下一个策略
	ErrMiss = errors.New("candidate missing")
	// ErrUnavailable：候选位置暂时无法给出答复（5xx、连接失败、权限、数据库错误），结果不缓存
	ErrUnavailable = errors.New("document source unavailable")
	// ErrTooLarge：远端文档超过大小上限
	ErrTooLarge = errors.New("document exceeds size limit")
)

// Attempt：一次候选尝试的诊断记录
type Attempt struct {
	Strategy string
	Location string
	Err      error
}

// NotFoundError：携带宿主与每次尝试的诊断信息
type NotFoundError struct {
	Key      string
	Host     string
	Attempts []Attempt
	Cached   bool
}

func (e *NotFoundError) Error() string {
	if e.Cached {
		return fmt.Sprintf("%s: %s (cached)", ErrNotFound, e.Key)
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Strategy, a.Err))
	}
	return fmt.Sprintf("%s: %s (host %s; %s)", ErrNotFound, e.Key, e.Host, strings.Join(parts, "; "))
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Mismatched：是否所有尝试都因宿主能力不足被跳过
func (e *NotFoundError) Mismatched() bool {
	if len(e.Attempts) == 0 {
		return false
	}
	for _, a := range e.Attempts {
		if !errors.Is(a.Err, ErrEnvironmentMismatch) {
			return false
		}
	}
	return true
}

// TimeoutError：网络策略超时，与 NotFound 区分以便调用方决定是否重试
type TimeoutError struct {
	Key      string
	Strategy string
	Location string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %s via %s (%s) after %s", ErrTimeout, e.Key, e.Strategy, e.Location, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// ParseError：文档格式错误，不在其他候选位置重试
type ParseError struct {
	Key      string
	Strategy string
	Location string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s via %s (%s): %v", ErrParse, e.Key, e.Strategy, e.Location, e.Err)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }

// UnavailableError：单个候选的故障；加载器汇总时 Attempts 携带全部尝试
type UnavailableError struct {
	Key      string
	Host     string
	Strategy string
	Location string
	Err      error
	Attempts []Attempt
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("%s: %s via %s (%s): %v", ErrUnavailable, e.Key, e.Strategy, e.Location, e.Err)
	if len(e.Attempts) == 0 {
		return msg
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Strategy, a.Err))
	}
	return fmt.Sprintf("%s (host %s; %s)", msg, e.Host, strings.Join(parts, "; "))
}

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

func (e *UnavailableError) Unwrap() error { return e.Err }

func unavailable(key, strategy, loc string, err error) error {
	return &UnavailableError{Key: key, Strategy: strategy, Location: loc, Err: err}
}

func miss(reason error) error {
	if reason == nil {
		return ErrMiss
	}
	return fmt.Errorf("%w: %v", ErrMiss, reason)
}
