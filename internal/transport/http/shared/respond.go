// Package shared centralizes JSON response and error envelope handling so
// every feature handler renders errors the same way.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "porchlight/pkg/domain-errors"
)

// ErrorEnvelope is the wire shape for failed requests.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON renders a payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError translates a coded domain error into its HTTP envelope. Uncoded
// errors render as an opaque 500 so internals never leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	var ge dErrors.GatewayError
	if !errors.As(err, &ge) {
		WriteJSON(w, http.StatusInternalServerError, ErrorEnvelope{Error: string(dErrors.CodeInternal)})
		return
	}
	WriteJSON(w, dErrors.ToHTTPStatus(ge.Code), ErrorEnvelope{
		Error:   string(ge.Code),
		Message: ge.Message,
	})
}
