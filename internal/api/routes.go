// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"geodata/internal/geoip"
	"geodata/internal/logger"
	"geodata/pkg/geodata"
)

// Options：路由依赖的运行期配置
type Options struct {
	// AdminToken：POST /cache/clear 需携带 x-admin-token；为空时该接口一律 403
	AdminToken string
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 /api 前缀
func BuildRoutes(gc *geodata.Client, opts Options) *http.ServeMux {
	h := &handlers{gc: gc, opts: opts}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /countries", h.countries)
	mux.HandleFunc("GET /countries/{cc}", h.country)
	mux.HandleFunc("GET /countries/{cc}/states", h.states)
	mux.HandleFunc("GET /countries/{cc}/states/{sc}", h.state)
	mux.HandleFunc("GET /countries/{cc}/states/{sc}/cities", h.cities)
	mux.HandleFunc("GET /countries/{cc}/states/{sc}/cities/{id}", h.city)
	mux.HandleFunc("GET /countries/{cc}/states/{sc}/nearby", h.nearby)
	mux.HandleFunc("GET /countries/{cc}/cities", h.citiesOfCountry)
	mux.HandleFunc("GET /countries/{cc}/timezones", h.countryTimezones)
	mux.HandleFunc("GET /timezones", h.timezones)
	mux.HandleFunc("GET /timezones/{zone...}", h.timezone)
	mux.HandleFunc("GET /ip", h.ip)
	mux.HandleFunc("POST /cache/clear", h.clearCache)
	mux.HandleFunc("GET /stats", h.stats)
	return mux
}

type handlers struct {
	gc   *geodata.Client
	opts Options
}

// countries：?q= 子串搜索，?region= 区域过滤，?phone= 按区号
func (h *handlers) countries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Has("q"):
		v, err := h.gc.SearchCountries(r.Context(), q.Get("q"))
		writeList(w, r, v, err)
	case q.Has("region"):
		v, err := h.gc.GetCountriesByRegion(r.Context(), q.Get("region"))
		writeList(w, r, v, err)
	case q.Has("phone"):
		v, err := h.gc.GetCountryByPhoneCode(r.Context(), q.Get("phone"))
		writeList(w, r, v, err)
	default:
		v, err := h.gc.GetCountries(r.Context())
		writeList(w, r, v, err)
	}
}

func (h *handlers) country(w http.ResponseWriter, r *http.Request) {
	v, err := h.gc.GetCountry(r.Context(), r.PathValue("cc"))
	writeEntity(w, r, v, err)
}

func (h *handlers) states(w http.ResponseWriter, r *http.Request) {
	cc := r.PathValue("cc")
	if q := r.URL.Query(); q.Has("q") {
		v, err := h.gc.SearchStates(r.Context(), cc, q.Get("q"))
		writeList(w, r, v, err)
		return
	}
	v, err := h.gc.GetStatesOfCountry(r.Context(), cc)
	writeList(w, r, v, err)
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	v, err := h.gc.GetState(r.Context(), r.PathValue("cc"), r.PathValue("sc"))
	writeEntity(w, r, v, err)
}

// cities：?q= 子串搜索；同时给出 ?fuzzy=n 时按编辑距离匹配
func (h *handlers) cities(w http.ResponseWriter, r *http.Request) {
	cc, sc := r.PathValue("cc"), r.PathValue("sc")
	q := r.URL.Query()
	if s := q.Get("fuzzy"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "fuzzy must be an integer")
			return
		}
		v, err := h.gc.FuzzySearchCities(r.Context(), cc, sc, q.Get("q"), n)
		writeList(w, r, v, err)
		return
	}
	if q.Has("q") {
		v, err := h.gc.SearchCities(r.Context(), cc, sc, q.Get("q"))
		writeList(w, r, v, err)
		return
	}
	v, err := h.gc.GetCitiesOfState(r.Context(), cc, sc)
	writeList(w, r, v, err)
}

func (h *handlers) city(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "id must be an integer")
		return
	}
	v, err := h.gc.GetCity(r.Context(), r.PathValue("cc"), r.PathValue("sc"), id)
	writeEntity(w, r, v, err)
}

func (h *handlers) nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(q.Get("lng"), 64)
	if err1 != nil || err2 != nil {
		writeMessage(w, http.StatusBadRequest, "lat and lng are required")
		return
	}
	radius := 0.0
	if s := q.Get("radius_km"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "radius_km must be a number")
			return
		}
		radius = v
	}
	v, err := h.gc.NearbyCities(r.Context(), r.PathValue("cc"), r.PathValue("sc"), lat, lng, radius)
	if errors.Is(err, geodata.ErrInvalidCoordinate) {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	writeList(w, r, v, err)
}

func (h *handlers) citiesOfCountry(w http.ResponseWriter, r *http.Request) {
	v, err := h.gc.GetCitiesOfCountry(r.Context(), r.PathValue("cc"))
	writeList(w, r, v, err)
}

func (h *handlers) countryTimezones(w http.ResponseWriter, r *http.Request) {
	v, err := h.gc.GetTimezonesOfCountry(r.Context(), r.PathValue("cc"))
	writeList(w, r, v, err)
}

func (h *handlers) timezones(w http.ResponseWriter, r *http.Request) {
	v, err := h.gc.GetTimezones(r.Context())
	writeList(w, r, v, err)
}

func (h *handlers) timezone(w http.ResponseWriter, r *http.Request) {
	v, err := h.gc.GetTimezone(r.Context(), r.PathValue("zone"))
	writeEntity(w, r, v, err)
}

func (h *handlers) ip(w http.ResponseWriter, r *http.Request) {
	ip := getClientIP(r)
	v, err := h.gc.CountryByIP(r.Context(), ip)
	if errors.Is(err, geodata.ErrGeoIPUnavailable) {
		writeMessage(w, http.StatusServiceUnavailable, "geoip database not configured")
		return
	}
	if errors.Is(err, geoip.ErrBadIP) {
		logger.L().Debug("ip_lookup_rejected", "ip", ip)
		writeMessage(w, http.StatusBadRequest, "invalid ip")
		return
	}
	writeEntity(w, r, v, err)
}

func (h *handlers) clearCache(w http.ResponseWriter, r *http.Request) {
	t := r.Header.Get("x-admin-token")
	if h.opts.AdminToken == "" || subtle.ConstantTimeCompare([]byte(t), []byte(h.opts.AdminToken)) != 1 {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	h.gc.ClearCache(r.Context())
	logger.L().Info("cache_cleared_by_admin", "remote", strings.TrimSpace(r.RemoteAddr))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("cache-control", "no-store")
	writeJSON(w, http.StatusOK, h.gc.Stats())
}
