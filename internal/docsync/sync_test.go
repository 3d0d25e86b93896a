package docsync

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"geodata/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

type memWriter struct {
	mu   sync.Mutex
	docs map[string]string
	fail string
}

func (w *memWriter) UpsertDocument(_ context.Context, key string, body []byte) error {
	if key == w.fail {
		return errors.New("boom")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.docs[key] = string(body)
	return nil
}

func (w *memWriter) DeleteMissing(_ context.Context, keep []string) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	set := map[string]bool{}
	for _, k := range keep {
		set[k] = true
	}
	var n int64
	for k := range w.docs {
		if !set[k] {
			delete(w.docs, k)
			n++
		}
	}
	return n, nil
}

func (w *memWriter) keys() []string {
	var out []string
	for k := range w.docs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func fixtureFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/data/geo/countries.json":                             `[]`,
		"/data/geo/timezones.json":                             `[]`,
		"/data/geo/United_States-US/meta.json":                 `{}`,
		"/data/geo/United_States-US/states.json":               `[]`,
		"/data/geo/United_States-US/California-CA/cities.json": `[]`,
		"/data/geo/Broken-BR/meta.json":                        `{"name":`,
		"/data/geo/README.md":                                  `not a document`,
	}
	for name, body := range files {
		if err := afero.WriteFile(fs, name, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func TestCollect(t *testing.T) {
	keys, err := Collect(fixtureFs(t), "/data/geo")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"Broken-BR/meta.json",
		"United_States-US/California-CA/cities.json",
		"United_States-US/meta.json",
		"United_States-US/states.json",
		"countries.json",
		"timezones.json",
	}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncWritesAndPrunes(t *testing.T) {
	w := &memWriter{docs: map[string]string{"Gone-GN/meta.json": `{}`}}
	res, err := Sync(context.Background(), fixtureFs(t), "/data/geo", w, Options{Concurrency: 2, Prune: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Scanned != 6 || res.Written != 5 || res.Pruned != 1 {
		t.Errorf("result = %+v", res)
	}
	if diff := cmp.Diff([]string{"Broken-BR/meta.json"}, res.Invalid); diff != "" {
		t.Errorf("invalid mismatch (-want +got):\n%s", diff)
	}
	want := []string{
		"United_States-US/California-CA/cities.json",
		"United_States-US/meta.json",
		"United_States-US/states.json",
		"countries.json",
		"timezones.json",
	}
	if diff := cmp.Diff(want, w.keys()); diff != "" {
		t.Errorf("stored keys mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncDryRun(t *testing.T) {
	w := &memWriter{docs: map[string]string{"Gone-GN/meta.json": `{}`}}
	res, err := Sync(context.Background(), fixtureFs(t), "/data/geo", w, Options{DryRun: true, Prune: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Written != 0 || res.Pruned != 0 || len(w.docs) != 1 {
		t.Errorf("dry run wrote: %+v, %v", res, w.docs)
	}
}

func TestSyncWriteError(t *testing.T) {
	w := &memWriter{docs: map[string]string{}, fail: "countries.json"}
	if _, err := Sync(context.Background(), fixtureFs(t), "/data/geo", w, Options{}); err == nil {
		t.Fatal("expected write error")
	}
}

func TestCollectMissingRoot(t *testing.T) {
	if _, err := Collect(afero.NewMemMapFs(), "/nope"); err == nil {
		t.Fatal("expected error for missing root")
	}
}
