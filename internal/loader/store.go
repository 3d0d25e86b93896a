package loader

import (
	"context"
	"errors"
	"time"
)

// DocumentStore：按文档键读取的存储（PostgreSQL 实现见 internal/store）
type DocumentStore interface {
	Document(ctx context.Context, key string) ([]byte, bool, error)
}

// StoreStrategy：把文档存储包装为解析策略，网络宿主同样可用
type StoreStrategy struct {
	name    string
	store   DocumentStore
	timeout time.Duration
}

func NewStoreStrategy(name string, store DocumentStore, timeout time.Duration) *StoreStrategy {
	return &StoreStrategy{name: name, store: store, timeout: timeout}
}

func (s *StoreStrategy) Name() string         { return s.name }
func (s *StoreStrategy) Requires() Capability { return CapNetwork }

func (s *StoreStrategy) Fetch(ctx context.Context, key string) ([]byte, string, error) {
	loc := s.name + ":" + key
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	b, ok, err := s.store.Document(ctx, key)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, loc, &TimeoutError{Key: key, Strategy: s.name, Location: loc, Timeout: s.timeout}
		}
		if errors.Is(err, context.Canceled) {
			return nil, loc, err
		}
		return nil, loc, unavailable(key, s.name, loc, err)
	}
	if !ok {
		return nil, loc, ErrMiss
	}
	return b, loc, nil
}
