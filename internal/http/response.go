// Package http provides the JSON API over the chart of accounts and the
// reconciled income and expense reports.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"cuentas/internal/core"
)

// envelope is the uniform response shape. Report payloads additionally carry
// dailyStats and summary next to data.
type envelope struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	DailyStats any    `json:"dailyStats,omitempty"`
	Summary    any    `json:"summary,omitempty"`
	Error      string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// writeError maps domain errors onto status codes: caller mistakes become
// 4xx, anything else a single opaque 500. Store errors never leak details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		writeJSON(w, http.StatusUnprocessableEntity, envelope{Error: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, envelope{Error: "not found"})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, envelope{Error: "internal server error"})
	}
}
