package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps storage and validation failures onto the wire.
// Write failures surface as a generic retryable 500; nothing partial
// persisted.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrWriteFailed):
		slog.ErrorContext(r.Context(), "Atomic write failed", "error", err, "url", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "write failed")
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrEmptyEmail,
		core.ErrInvalidAmount,
		core.ErrEmptyCategory,
		core.ErrEmptyDescription,
		core.ErrInvalidDate,
		core.ErrInvalidLimit,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// emailQuery returns the normalized user key from the query string,
// empty if absent.
func emailQuery(q url.Values) string {
	return core.NormalizeEmail(q.Get("email"))
}

// parsePagination applies the documented leniency: non-numeric or
// out-of-range values silently fall back to page 1 / size 20 instead of
// erroring.
func parsePagination(q url.Values) (page, limit int) {
	page = 1
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		page = v
	}
	limit = defaultPageSize
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= maxPageSize {
		limit = v
	}
	return page, limit
}

// parseDateRange reads the optional from/to bounds. Malformed dates are a
// validation error, absent ones stay zero.
func parseDateRange(q url.Values) (from, to core.Date, err error) {
	if v := q.Get("from"); v != "" {
		from, err = core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, err
		}
	}
	if v := q.Get("to"); v != "" {
		to, err = core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, err
		}
	}
	return from, to, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
