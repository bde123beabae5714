package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Spok95/factory/internal/domain/errs"
)

// statusOf переводит вид ошибки в HTTP-код.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrCapacityExceeded):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError отдаёт {"detail": ...}. Текст ошибок хранилища наружу не
// попадает, только в лог.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := statusOf(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed", "err", err)
		detail = "internal storage error"
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}
