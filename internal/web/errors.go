package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/pai-predict/internal/activity"
	"github.com/p-n-ai/pai-predict/internal/documents"
	"github.com/p-n-ai/pai-predict/internal/selection"
	"github.com/p-n-ai/pai-predict/internal/topics"
)

// Error codes returned in the "error" field of failed API calls.
const (
	codeNoModeSelected  = "no_mode_selected"
	codePredictInFlight = "predict_in_flight"
	codeSessionBusy     = "session_busy"
	codeSessionNotFound = "session_not_found"
	codeSubjectNotFound = "subject_not_found"
	codeFetchFailed     = "fetch_failed"
	codeInvalidOption   = "invalid_option"
	codeInvalidRequest  = "invalid_request"
	codeNoResult        = "no_result"
	codeNotFound        = "not_found"
	codeInternal        = "internal"
)

// apiError is the body of every failed API call. Log carries the activity
// log when the failure happened during a prediction.
type apiError struct {
	Error   string           `json:"error"`
	Message string           `json:"message"`
	Log     []activity.Entry `json:"log,omitempty"`
}

// classify maps a domain error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, selection.ErrSessionNotFound):
		return http.StatusNotFound, codeSessionNotFound
	case errors.Is(err, selection.ErrNoModeSelected):
		return http.StatusConflict, codeNoModeSelected
	case errors.Is(err, selection.ErrPredictInFlight):
		return http.StatusConflict, codePredictInFlight
	case errors.Is(err, selection.ErrSessionBusy):
		return http.StatusConflict, codeSessionBusy
	case errors.Is(err, selection.ErrUnknownOption):
		return http.StatusBadRequest, codeInvalidOption
	case errors.Is(err, topics.ErrSubjectNotFound):
		return http.StatusNotFound, codeSubjectNotFound
	case errors.Is(err, documents.ErrFetchFailed):
		return http.StatusBadGateway, codeFetchFailed
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func writeError(w http.ResponseWriter, err error, log []activity.Entry) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, apiError{Error: code, Message: msg, Log: log})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, apiError{Error: codeInvalidRequest, Message: msg})
}
