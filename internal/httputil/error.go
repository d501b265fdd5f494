package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/bracket-engine/internal/service"
)

type errorBody struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// conflicts are rejections caused by the current state rather than the request.
var conflicts = map[string]bool{
	"match_completed":    true,
	"match_disputed":     true,
	"match_not_ready":    true,
	"game_completed":     true,
	"game_disputed":      true,
	"series_in_progress": true,
	"round_not_closed":   true,
	"already_generated":  true,
	"not_started":        true,
}

var malformed = map[string]bool{
	"invalid_format":  true,
	"invalid_best_of": true,
	"invalid":         true,
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, reason, msg string) {
	JSON(w, status, errorBody{Reason: reason, Message: msg})
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "internal", "Internal Server Error")
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	writeError(w, http.StatusBadRequest, "bad_request", msg)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	writeError(w, http.StatusNotFound, "not_found", msg)
}

// ServiceError writes the response for an error returned by the engine.
// Validation errors keep their reason code.
func ServiceError(w http.ResponseWriter, msg string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		status := http.StatusUnprocessableEntity
		if conflicts[verr.Reason] {
			status = http.StatusConflict
		} else if malformed[verr.Reason] {
			status = http.StatusBadRequest
		}
		slog.Warn("request rejected", "message", msg, "reason", verr.Reason)
		writeError(w, status, verr.Reason, verr.Err.Error())
	case errors.Is(err, service.ErrNotFound):
		NotFound(w, msg, err)
	default:
		InternalServerError(w, msg, err)
	}
}
