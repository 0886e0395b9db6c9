package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorBody is the error payload every endpoint returns.
type ErrorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders an error response.
func JSONError(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorBody{Error: message, Code: code})
}

// WriteError maps err to a response. Anything that is not an AppError is a
// 500; in production the message of a 500 is replaced.
func WriteError(w http.ResponseWriter, err error, production bool) {
	status := http.StatusInternalServerError
	body := ErrorBody{Error: "internal error", Code: "INTERNAL"}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPStatus != 0 {
			status = appErr.HTTPStatus
		}
		if appErr.Code != "" {
			body.Code = appErr.Code
		}
		if appErr.Message != "" {
			body.Error = appErr.Message
		}
		body.Details = appErr.Details
	} else if err != nil {
		body.Error = err.Error()
	}

	if production && status >= http.StatusInternalServerError {
		body.Error = "Internal server error"
		body.Details = nil
	}
	JSON(w, status, body)
}
