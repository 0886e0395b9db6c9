package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

var errPayload = NewAppError("BAD_REQUEST", "invalid request payload", http.StatusBadRequest, nil)

// DecodeJSON reads exactly one JSON value from r's body into dst. Empty
// bodies, malformed JSON and trailing data are all a 400.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errPayload
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return &AppError{Code: errPayload.Code, Message: errPayload.Message, HTTPStatus: errPayload.HTTPStatus, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errPayload
	}
	return nil
}
