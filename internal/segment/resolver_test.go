package segment

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"geodata/internal/docpath"
	"geodata/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

func fixedEnum(calls *atomic.Int64, tables map[string][]string) Enumerator {
	return func(_ context.Context, scope string) ([]string, error) {
		calls.Add(1)
		return tables[scope], nil
	}
}

func TestResolve(t *testing.T) {
	var calls atomic.Int64
	r := New(fixedEnum(&calls, map[string][]string{
		"": {"United_States-US", "Guinea-Bissau-GW", "Germany-DE"},
	}))
	ctx := context.Background()

	tests := []struct {
		code  string
		want  string
		found bool
	}{
		{"US", "United_States-US", true},
		{"us", "United_States-US", true},
		{"GW", "Guinea-Bissau-GW", true},
		{"ZZ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, found, err := r.Resolve(ctx, "", tt.code)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", tt.code, err)
		}
		if got != tt.want || found != tt.found {
			t.Errorf("Resolve(%q) = %q, %v; want %q, %v", tt.code, got, found, tt.want, tt.found)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("enumerator called %d times, want 1", n)
	}
	if r.Builds() != 1 {
		t.Errorf("Builds = %d, want 1", r.Builds())
	}
}

func TestResolveKeyMatchesSegmentCode(t *testing.T) {
	var calls atomic.Int64
	names := []string{"California-CA", "Texas-TX", "New_York-NY", "Baden-Württemberg-BW"}
	r := New(fixedEnum(&calls, map[string][]string{"United_States-US": names}))
	ctx := context.Background()
	for _, n := range names {
		got, ok, err := r.Resolve(ctx, "United_States-US", docpath.CodeOf(n))
		if err != nil || !ok || got != n {
			t.Errorf("Resolve(%s) = %q, %v, %v", docpath.CodeOf(n), got, ok, err)
		}
	}
}

func TestResolveScopesAreIndependent(t *testing.T) {
	var calls atomic.Int64
	r := New(fixedEnum(&calls, map[string][]string{
		"United_States-US": {"California-CA"},
		"Canada-CA":        {"Ontario-ON"},
	}))
	ctx := context.Background()
	if _, ok, _ := r.Resolve(ctx, "Canada-CA", "CA"); ok {
		t.Error("code leaked across scopes")
	}
	if _, ok, _ := r.Resolve(ctx, "United_States-US", "CA"); !ok {
		t.Error("CA missing in United_States-US")
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("enumerator called %d times, want 2", n)
	}
}

func TestAbsentScopeIsEmptyAndMemoized(t *testing.T) {
	var calls atomic.Int64
	r := New(fixedEnum(&calls, nil))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, ok, err := r.Resolve(ctx, "Nowhere-ZZ", "AA"); ok || err != nil {
			t.Fatalf("Resolve = %v, %v", ok, err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("enumerator called %d times, want 1", n)
	}
}

func TestEnumeratorErrorNotMemoized(t *testing.T) {
	boom := errors.New("timeout")
	var calls atomic.Int64
	r := New(func(_ context.Context, _ string) ([]string, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return []string{"United_States-US"}, nil
	})
	ctx := context.Background()
	if _, _, err := r.Resolve(ctx, "", "US"); !errors.Is(err, boom) {
		t.Fatalf("first Resolve error = %v, want %v", err, boom)
	}
	got, ok, err := r.Resolve(ctx, "", "US")
	if err != nil || !ok || got != "United_States-US" {
		t.Errorf("second Resolve = %q, %v, %v", got, ok, err)
	}
}

func TestReset(t *testing.T) {
	var calls atomic.Int64
	r := New(fixedEnum(&calls, map[string][]string{"": {"United_States-US"}}))
	ctx := context.Background()
	r.Resolve(ctx, "", "US")
	r.Reset()
	r.Resolve(ctx, "", "US")
	if n := calls.Load(); n != 2 {
		t.Errorf("enumerator called %d times after Reset, want 2", n)
	}
}

func TestSegments(t *testing.T) {
	var calls atomic.Int64
	r := New(fixedEnum(&calls, map[string][]string{"": {"Germany-DE", "United_States-US", "bogus"}}))
	got, err := r.Segments(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(got)
	if diff := cmp.Diff([]string{"Germany-DE", "United_States-US"}, got); diff != "" {
		t.Errorf("Segments mismatch (-want +got):\n%s", diff)
	}
}

func TestConcurrentFirstCalls(t *testing.T) {
	var calls atomic.Int64
	r := New(fixedEnum(&calls, map[string][]string{"": {"United_States-US", "Germany-DE"}}))
	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, ok, err := r.Resolve(ctx, "", "DE")
			if err != nil || !ok || got != "Germany-DE" {
				errs <- got
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Errorf("concurrent Resolve returned %q", e)
	}
}
