package api

import (
	"encoding/json"
	"net/http"

	"geodata/internal/logger"
	"geodata/pkg/geodata"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeError：超时 → 504，文档损坏 → 502，其余 → 500
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case geodata.IsTimeout(err):
		code = http.StatusGatewayTimeout
	case geodata.IsParse(err):
		code = http.StatusBadGateway
	case geodata.IsUnavailable(err):
		code = http.StatusServiceUnavailable
	}
	logger.L().Error("api_error", "path", r.URL.Path, "code", code, "err", err)
	writeMessage(w, code, http.StatusText(code))
}

// writeEntity：nil 指针返回 404
func writeEntity[T any](w http.ResponseWriter, r *http.Request, v *T, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	if v == nil {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func writeList[T any](w http.ResponseWriter, r *http.Request, v []T, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
