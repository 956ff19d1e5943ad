// Package response writes JSON bodies and API errors.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yepcord/server-sub002/internal/logger"
	"github.com/yepcord/server-sub002/internal/model"
)

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NoContent writes 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error maps err to a client-facing body. API errors keep their status,
// model.ErrNotFound becomes 404 and everything else is logged and hidden
// behind a 500.
func Error(w http.ResponseWriter, log *logger.Logger, err error) {
	var apiErr *model.APIError
	switch {
	case errors.As(err, &apiErr):
		JSON(w, apiErr.Status, apiErr)
	case errors.Is(err, model.ErrNotFound):
		JSON(w, http.StatusNotFound, model.ErrNotFoundRoute)
	default:
		log.Error("API: request failed", "error", err)
		JSON(w, http.StatusInternalServerError, model.ErrInternal)
	}
}
