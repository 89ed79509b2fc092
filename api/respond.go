package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/cron"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writeJSON: encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// decodeBody reads a JSON request body of at most maxBodyBytes into v and
// writes the error response itself when it fails.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeErr maps lanes sentinels to HTTP status codes.
func (a *API) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, lanes.ErrJobNotFound),
		errors.Is(err, lanes.ErrWorkerNotFound),
		errors.Is(err, cron.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, lanes.ErrEmptyJobType),
		errors.Is(err, lanes.ErrNoHandler),
		errors.Is(err, lanes.ErrInvalidPriority),
		errors.Is(err, lanes.ErrInvalidOption),
		errors.Is(err, lanes.ErrDependencyNotFound),
		errors.Is(err, lanes.ErrInvalidWorker):
		return http.StatusBadRequest
	case errors.Is(err, lanes.ErrNotDead):
		return http.StatusConflict
	case errors.Is(err, lanes.ErrShuttingDown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// page parses limit and offset query parameters. Missing values are zero.
func page(r *http.Request) (limit, offset int, ok bool) {
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &limit}, {"offset", &offset}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		*p.dst = n
	}
	return limit, offset, true
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
