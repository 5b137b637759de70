package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/LeventeLantos/sms-automation/internal/automation"
)

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// writeStartError maps automation validation errors to 400 and a running
// automation to 409.
func writeStartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, automation.ErrInvalidPhoneNumber):
		writeError(w, http.StatusBadRequest, "INVALID_PHONE_NUMBER", err.Error())
	case errors.Is(err, automation.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "EMPTY_MESSAGE", err.Error())
	case errors.Is(err, automation.ErrMessageTooLong):
		writeError(w, http.StatusBadRequest, "MESSAGE_TOO_LONG", err.Error())
	case errors.Is(err, automation.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, "INVALID_INTERVAL", err.Error())
	case errors.Is(err, automation.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, "ALREADY_RUNNING", err.Error())
	default:
		slog.Error("start automation", "err", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to start automation")
	}
}
