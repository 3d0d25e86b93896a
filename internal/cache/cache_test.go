package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"geodata/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

func TestMemoryGetSetClear(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	if _, ok := c.Get(ctx, "countries.json"); ok {
		t.Fatal("Get on empty cache reported a hit")
	}
	want := Entry{Body: json.RawMessage(`[1]`), Source: "local"}
	c.Set(ctx, "countries.json", want)
	c.Set(ctx, "ZZ/meta.json", Entry{Absent: true})

	got, ok := c.Get(ctx, "countries.json")
	if !ok {
		t.Fatal("Get after Set missed")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
	if e, ok := c.Get(ctx, "ZZ/meta.json"); !ok || !e.Absent {
		t.Errorf("absent entry = %+v, %v", e, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	c.Clear(ctx)
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
}

func TestMemoryConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Set(ctx, "k", Entry{Body: json.RawMessage(`{"a":1}`)})
			c.Get(ctx, "k")
		}()
	}
	wg.Wait()
	e, ok := c.Get(ctx, "k")
	if !ok || string(e.Body) != `{"a":1}` {
		t.Errorf("Get = %s, %v", e.Body, ok)
	}
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Nop{}
	c.Set(ctx, "k", Entry{Body: json.RawMessage(`1`)})
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Nop cache returned a hit")
	}
	c.Clear(ctx)
}

type fakeRemote struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
	sets    int
}

func newFakeRemote() *fakeRemote { return &fakeRemote{data: map[string][]byte{}} }

func (f *fakeRemote) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return nil, false, errors.New("connection refused")
	}
	b, ok := f.data[key]
	return b, ok, nil
}

func (f *fakeRemote) Set(_ context.Context, key string, body []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.data[key] = body
	return nil
}

func (f *fakeRemote) DeletePrefix(_ context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			delete(f.data, k)
		}
	}
	return nil
}

func TestTieredSharesDocumentsOnly(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	c := NewTiered(nil, remote, "", 0)

	c.Set(ctx, "countries.json", Entry{Body: json.RawMessage(`[]`), Source: "local"})
	c.Set(ctx, "ZZ/meta.json", Entry{Absent: true})

	if _, ok := remote.data["geo:doc:countries.json"]; !ok {
		t.Error("document not written to remote tier")
	}
	if _, ok := remote.data["geo:doc:ZZ/meta.json"]; ok {
		t.Error("absent sentinel must not be shared")
	}
}

func TestTieredPromotesRemoteHits(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.data["p:United_States-US/meta.json"] = []byte(`{"iso2":"US"}`)
	mem := NewMemory()
	c := NewTiered(mem, remote, "p:", time.Hour)

	e, ok := c.Get(ctx, "United_States-US/meta.json")
	if !ok {
		t.Fatal("remote hit not returned")
	}
	if e.Source != "redis" || string(e.Body) != `{"iso2":"US"}` {
		t.Errorf("entry = %+v", e)
	}
	if mem.Len() != 1 {
		t.Errorf("memory tier not populated, Len = %d", mem.Len())
	}
	c.Set(ctx, "United_States-US/meta.json", e)
	if remote.sets != 0 {
		t.Errorf("redis-sourced entry written back %d times", remote.sets)
	}
}

func TestTieredRemoteFailureDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.failGet = true
	c := NewTiered(nil, remote, "", 0)
	if _, ok := c.Get(ctx, "countries.json"); ok {
		t.Error("failing remote produced a hit")
	}
}

func TestTieredClear(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.data["other:key"] = []byte("1")
	c := NewTiered(nil, remote, "", 0)
	c.Set(ctx, "countries.json", Entry{Body: json.RawMessage(`[]`)})
	c.Clear(ctx)
	if _, ok := c.Get(ctx, "countries.json"); ok {
		t.Error("entry survived Clear")
	}
	if _, ok := remote.data["other:key"]; !ok {
		t.Error("Clear removed keys outside the prefix")
	}
}

func TestRedisRemote(t *testing.T) {
	addr := os.Getenv("GEO_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GEO_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rc := redis.NewClient(&redis.Options{Addr: addr})
	defer rc.Close()
	r := NewRedisRemote(rc)
	prefix := "geo:test:" + time.Now().Format("150405.000000") + ":"

	if _, ok, err := r.Get(ctx, prefix+"missing"); err != nil || ok {
		t.Fatalf("Get(missing) = %v, %v", ok, err)
	}
	if err := r.Set(ctx, prefix+"a", []byte(`[1]`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	b, ok, err := r.Get(ctx, prefix+"a")
	if err != nil || !ok || string(b) != `[1]` {
		t.Fatalf("Get = %s, %v, %v", b, ok, err)
	}
	if err := r.DeletePrefix(ctx, prefix); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if _, ok, _ := r.Get(ctx, prefix+"a"); ok {
		t.Error("key survived DeletePrefix")
	}
}
