package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"risklo/internal/domain"
	"risklo/internal/sheets"
	"risklo/internal/storage"
)

type errorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeErr maps engine, sheet and storage errors to HTTP statuses.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *domain.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: invalid.Message, Field: invalid.Field})
	case errors.Is(err, sheets.ErrSheetNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "sheet not found", Message: err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "analysis not found")
	case errors.Is(err, sheets.ErrUpstreamUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "sheet source unavailable", Message: err.Error()})
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusRequestTimeout, "request cancelled")
	default:
		s.logger.Error().Err(err).Str("request_id", RequestID(r.Context())).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Message: err.Error()})
	}
}

// decodeBody reads a size-limited JSON body into v.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return &domain.InvalidInputError{Field: "body", Message: fmt.Sprintf("request body exceeds %d bytes", tooBig.Limit)}
		}
		return fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &domain.InvalidInputError{Field: "body", Message: "request body is required"}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &domain.InvalidInputError{Field: "body", Message: "malformed JSON: " + err.Error()}
	}
	return nil
}

// number accepts JSON numbers and numeric strings. Empty strings and null
// decode as absent.
type number struct {
	value float64
	set   bool
}

func (n *number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*n = number{}
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
		if s == "" {
			*n = number{}
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*n = number{value: v, set: true}
	return nil
}

// option treats zero as absent, so blank form fields do not count as inputs.
func (n number) option() domain.Option[float64] {
	if !n.set || n.value == 0 {
		return domain.None[float64]()
	}
	return domain.Some(n.value)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
