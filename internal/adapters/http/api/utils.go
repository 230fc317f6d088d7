package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/adapters/source"
	"github.com/okian/podium/internal/domain/schema"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps an upstream error to a status and code.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, repository.ErrNoSnapshot):
		writeError(w, http.StatusServiceUnavailable, "not_ready", WrapKind(op, ErrNotReady, err))
	case errors.Is(err, schema.ErrUnresolved):
		writeError(w, http.StatusUnprocessableEntity, "schema_unresolved", WrapKind(op, ErrUnprocessable, err))
	case errors.Is(err, source.ErrFetch), errors.Is(err, source.ErrDecode),
		errors.Is(err, source.ErrUnsupportedFormat), errors.Is(err, source.ErrEmptyLocation):
		writeError(w, http.StatusBadGateway, "upstream_error", WrapKind(op, ErrUpstream, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
