package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avollmer/agentgate/internal/google"
	"github.com/avollmer/agentgate/internal/store"
)

// Error codes returned in the JSON error envelope. Callers branch on the
// code, not the message.
const (
	codeNotConnected   = "not_connected"
	codeReauthRequired = "reauth_required"
	codeExchangeFailed = "exchange_failed"
	codeRefreshFailed  = "refresh_failed"
	codeNotFound       = "not_found"
	codeInvalidRequest = "invalid_request"
	codeInternal       = "internal_error"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates a credential lifecycle or store error into the
// matching HTTP status and error code.
func writeError(w http.ResponseWriter, err error) {
	status, code := classifyError(err)
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    code,
		Message: err.Error(),
	}})
}

// writeBadRequest reports a malformed request with an invalid_request code.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorBody{
		Code:    codeInvalidRequest,
		Message: message,
	}})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, google.ErrNotConnected):
		return http.StatusUnauthorized, codeNotConnected
	case errors.Is(err, google.ErrReauthRequired):
		return http.StatusUnauthorized, codeReauthRequired
	case errors.Is(err, google.ErrExchangeFailed):
		return http.StatusBadRequest, codeExchangeFailed
	case errors.Is(err, google.ErrRefreshFailed):
		return http.StatusBadGateway, codeRefreshFailed
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
