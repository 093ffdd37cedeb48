// Package handlers implements the JSON endpoints of the HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/diane/internal/api/middleware"
	"github.com/dvloznov/diane/internal/domain"
)

const maxBodyBytes = 1 << 20

// okResponse is the body of mutations that return no resource.
var okResponse = map[string]bool{"ok": true}

// writeStoreError maps domain errors to status codes. Anything else is a 500
// with a generic message; the cause is only logged.
func writeStoreError(w http.ResponseWriter, log zerolog.Logger, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, clientMessage(err, domain.ErrNotFound))
	case errors.Is(err, domain.ErrInvalid):
		middleware.WriteError(w, http.StatusBadRequest, clientMessage(err, domain.ErrInvalid))
	default:
		log.Error().Err(err).Msg(msg)
		middleware.WriteError(w, http.StatusInternalServerError, msg)
	}
}

// clientMessage returns the detail that follows the sentinel in err's text,
// e.g. "conta já existe" for "invalid operation: conta já existe".
func clientMessage(err, sentinel error) string {
	text := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(text, prefix); i >= 0 {
		return text[i+len(prefix):]
	}
	return sentinel.Error()
}

// decodeBody decodes a JSON request body into v and writes a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// pathID parses a positive integer URL parameter and writes a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name))
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter within [lo, hi].
// A missing parameter yields def.
func queryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", name, lo, hi)
	}
	return v, nil
}
