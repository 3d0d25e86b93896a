package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxDocumentBytes 限制单个远端文档大小，城市列表最大约数 MB
const maxDocumentBytes = 64 << 20

// 文档注释：HTTP 拉取策略
// 背景：网络宿主无法访问文件系统，通过配置的源站按相同相对路径拉取文档。
// 约束：每次请求独立超时（context.WithTimeout）；超时返回 *TimeoutError 且不转换为未命中；
// 仅 404/410 视为候选未命中；其他状态与连接失败返回 *UnavailableError，不缓存。
type HTTPStrategy struct {
	base    string
	headers map[string]string
	timeout time.Duration
	client  *http.Client
	limit   int64
}

func NewHTTPStrategy(base string, headers map[string]string, timeout time.Duration, client *http.Client) *HTTPStrategy {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPStrategy{base: strings.TrimRight(base, "/"), headers: headers, timeout: timeout, client: client, limit: maxDocumentBytes}
}

func (s *HTTPStrategy) Name() string         { return "http" }
func (s *HTTPStrategy) Requires() Capability { return CapNetwork }

func (s *HTTPStrategy) url(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.base + "/" + strings.Join(parts, "/")
}

func (s *HTTPStrategy) Fetch(ctx context.Context, key string) ([]byte, string, error) {
	u := s.url(key)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, u, unavailable(key, s.Name(), u, err)
	}
	req.Header.Set("accept", "application/json")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, u, s.classify(ctx, key, u, err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, u, miss(fmt.Errorf("status %d", resp.StatusCode))
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, u, unavailable(key, s.Name(), u, fmt.Errorf("status %d", resp.StatusCode))
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, s.limit+1))
	if err != nil {
		return nil, u, s.classify(ctx, key, u, err)
	}
	if int64(len(b)) > s.limit {
		return nil, u, fmt.Errorf("%w: %s over %d bytes", ErrTooLarge, u, s.limit)
	}
	return b, u, nil
}

// classify：区分超时、调用方取消与普通传输失败
func (s *HTTPStrategy) classify(ctx context.Context, key, u string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Key: key, Strategy: s.Name(), Location: u, Timeout: s.timeout}
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return &TimeoutError{Key: key, Strategy: s.Name(), Location: u, Timeout: s.timeout}
	}
	return unavailable(key, s.Name(), u, err)
}
