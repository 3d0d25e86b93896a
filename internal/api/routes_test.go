package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"geodata/internal/geoip"
	"geodata/internal/logger"
	"geodata/pkg/geodata"
)

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

type fakeLookup struct{}

func (fakeLookup) CountryCode(ip string) (string, error) {
	switch ip {
	case "203.0.113.7":
		return "DE", nil
	case "not-an-ip":
		return "", geoip.ErrBadIP
	}
	return "", geoip.ErrNoRecord
}

func newServer(t *testing.T, opts ...geodata.Option) *httptest.Server {
	t.Helper()
	dir, err := filepath.Abs(filepath.Join("..", "..", "pkg", "geodata", "testdata", "geo"))
	if err != nil {
		t.Fatal(err)
	}
	gc, err := geodata.New(geodata.Config{DataDir: dir, Host: "fs"}, opts...)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(BuildRoutes(gc, Options{AdminToken: "s3cret"}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestRouteStatusCodes(t *testing.T) {
	srv := newServer(t)
	tests := []struct {
		path string
		want int
	}{
		{"/countries", 200},
		{"/countries/US", 200},
		{"/countries/ZZ", 404},
		{"/countries/MF", 502},
		{"/countries/US/states", 200},
		{"/countries/ZZ/states", 200},
		{"/countries/US/states/CA", 200},
		{"/countries/US/states/ZZ", 404},
		{"/countries/US/states/CA/cities", 200},
		{"/countries/US/states/CA/cities/122795", 200},
		{"/countries/US/states/CA/cities/1", 404},
		{"/countries/US/states/CA/cities/abc", 400},
		{"/countries/US/states/CA/nearby?lat=34&lng=-118&radius_km=50", 200},
		{"/countries/US/states/CA/nearby?lat=north", 400},
		{"/countries/US/states/CA/nearby?lat=95&lng=0", 400},
		{"/countries/US/cities", 200},
		{"/countries/US/timezones", 200},
		{"/timezones", 200},
		{"/timezones/America/Los_Angeles", 200},
		{"/timezones/Mars/Olympus", 404},
		{"/ip?ip=8.8.8.8", 503},
		{"/stats", 200},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := get(t, srv.URL+tt.path, nil); got != tt.want {
				t.Errorf("GET %s = %d, want %d", tt.path, got, tt.want)
			}
		})
	}
}

func TestCountryAndSearch(t *testing.T) {
	srv := newServer(t)
	var co geodata.Country
	if code := get(t, srv.URL+"/countries/us", &co); code != 200 {
		t.Fatalf("status %d", code)
	}
	if co.Name != "United States" || co.ISO2 != "US" {
		t.Errorf("country = %+v", co)
	}

	var found []geodata.Country
	get(t, srv.URL+"/countries?q=germ", &found)
	if len(found) != 1 || found[0].ISO2 != "DE" {
		t.Errorf("search = %+v", found)
	}

	var states []geodata.State
	get(t, srv.URL+"/countries/ZZ/states", &states)
	if states == nil || len(states) != 0 {
		t.Errorf("unknown country states = %#v", states)
	}

	var matches []geodata.CityMatch
	get(t, srv.URL+"/countries/US/states/CA/cities?q=Los+Angelos&fuzzy=2", &matches)
	if len(matches) != 1 || matches[0].City.Name != "Los Angeles" {
		t.Errorf("fuzzy = %+v", matches)
	}

	var zone geodata.Timezone
	get(t, srv.URL+"/timezones/Europe/Berlin", &zone)
	if zone.GMTOffsetName != "UTC+01:00" {
		t.Errorf("zone = %+v", zone)
	}
}

func TestUnavailableOriginStatus(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusBadGateway)
	}))
	defer origin.Close()
	gc, err := geodata.New(geodata.Config{Host: "network", BaseURL: origin.URL, Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(BuildRoutes(gc, Options{}))
	defer srv.Close()
	for _, path := range []string{"/countries", "/countries/US", "/timezones"} {
		if got := get(t, srv.URL+path, nil); got != http.StatusServiceUnavailable {
			t.Errorf("GET %s = %d, want 503", path, got)
		}
	}
}

func TestIPRoute(t *testing.T) {
	srv := newServer(t, geodata.WithCountryLookup(fakeLookup{}))
	var co geodata.Country
	if code := get(t, srv.URL+"/ip?ip=203.0.113.7", &co); code != 200 || co.ISO2 != "DE" {
		t.Errorf("GET /ip = %d, %+v", code, co)
	}
	if code := get(t, srv.URL+"/ip?ip=not-an-ip", nil); code != 400 {
		t.Errorf("bad ip status = %d", code)
	}
	if code := get(t, srv.URL+"/ip?ip=192.0.2.1", nil); code != 404 {
		t.Errorf("unknown ip status = %d", code)
	}
}

func TestClearCacheRequiresToken(t *testing.T) {
	srv := newServer(t)
	get(t, srv.URL+"/countries/US", nil)

	post := func(token string) int {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/cache/clear", nil)
		if token != "" {
			req.Header.Set("x-admin-token", token)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}
	if code := post(""); code != http.StatusForbidden {
		t.Errorf("no token = %d", code)
	}
	if code := post("wrong"); code != http.StatusForbidden {
		t.Errorf("wrong token = %d", code)
	}
	if code := post("s3cret"); code != http.StatusNoContent {
		t.Errorf("valid token = %d", code)
	}

	var st geodata.Stats
	get(t, srv.URL+"/stats", &st)
	if st.Host != "filesystem" || st.Loads == 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header map[string]string
		remote string
		want   string
	}{
		{"query", "/ip?ip=1.2.3.4", nil, "9.9.9.9:1234", "1.2.3.4"},
		{"xff", "/ip", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.1"}, "9.9.9.9:1234", "5.6.7.8"},
		{"real ip", "/ip", map[string]string{"X-Real-IP": "7.7.7.7"}, "9.9.9.9:1234", "7.7.7.7"},
		{"forwarded", "/ip", map[string]string{"Forwarded": `for="[2001:db8::1]";proto=https`}, "9.9.9.9:1234", "2001:db8::1"},
		{"remote", "/ip", nil, "9.9.9.9:1234", "9.9.9.9"},
	}
	var got []string
	var want []string
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, tt.target, nil)
		for k, v := range tt.header {
			r.Header.Set(k, v)
		}
		r.RemoteAddr = tt.remote
		got = append(got, getClientIP(r))
		want = append(want, tt.want)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("getClientIP mismatch (-want +got):\n%s", diff)
	}
}
