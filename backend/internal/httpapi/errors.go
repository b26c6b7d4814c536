package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jacky-htg/warm-transfer/backend/internal/factory"
	"github.com/jacky-htg/warm-transfer/backend/internal/transfer"
	lktoken "github.com/jacky-htg/warm-transfer/libs/livekit"
	"github.com/jacky-htg/warm-transfer/libs/vendors/livekit"
)

// Error is an error with the HTTP status it should be reported with.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func badRequest(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Detail: fmt.Sprintf(format, args...)}
}

func internal(format string, args ...any) *Error {
	return &Error{Status: http.StatusInternalServerError, Detail: fmt.Sprintf(format, args...)}
}

type errorBody struct {
	Detail string `json:"detail"`
}

// roomsError maps a room-service failure for the create/list endpoints.
// action is used in the generic message, e.g. "create room".
func roomsError(err error, action string) *Error {
	if livekit.IsAPIError(err) {
		return badRequest("LiveKit API error: %s", livekit.APIErrorMessage(err))
	}
	return internal("Failed to %s: %v", action, err)
}

// summaryError maps a summarizer failure for the generate-summary endpoint.
func summaryError(err error) *Error {
	return internal("Failed to generate summary: %v", err)
}

// transferError maps a transfer failure following the error taxonomy:
// caller mistakes and control-plane rejections are 400, configuration
// problems and everything else are 500.
func transferError(err error) *Error {
	var roomErr *transfer.RoomError
	switch {
	case errors.Is(err, transfer.ErrMissingFields), errors.Is(err, transfer.ErrNoSummarySource):
		return badRequest("%s", err.Error())
	case errors.As(err, &roomErr):
		return badRequest("%s", roomErr.Error())
	case errors.Is(err, factory.ErrLiveKitNotConfigured), errors.Is(err, lktoken.ErrCredentialsMissing):
		return internal("%s", factory.ErrLiveKitNotConfigured.Error())
	default:
		return internal("Failed to execute transfer: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, e *Error) {
	writeJSON(w, e.Status, errorBody{Detail: e.Detail})
}
