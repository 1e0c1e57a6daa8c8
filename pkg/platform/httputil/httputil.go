// Package httputil centralizes the JSON response envelope so every handler
// answers in the same shape: {"success":true,"data":...} on the happy path,
// {"success":false,"message":...} on failure.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "tutorhub/pkg/domain-errors"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Total   *int   `json:"total,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a success envelope.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	write(w, status, envelope{Success: true, Data: data})
}

// WriteList writes a success envelope carrying a collection and its size.
func WriteList(w http.ResponseWriter, status int, data any, total int) {
	write(w, status, envelope{Success: true, Data: data, Total: &total})
}

// WriteError translates a domain error into a failure envelope. Internal
// errors deliberately hide the message so store details never leak to
// callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := "internal server error"
	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) {
		message = de.Message
	}
	write(w, dErrors.ToHTTPStatus(code), envelope{Success: false, Message: message})
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
