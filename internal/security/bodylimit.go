package security

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/noah-isme/roller-shop/internal/common"
)

// BodyLimit caps request bodies at Max bytes. The body is buffered so
// handlers see either the whole payload or a 413, never a truncated read.
// With RequireJSON, requests that carry a body must declare
// application/json.
type BodyLimit struct {
	Max         int64
	RequireJSON bool
}

// Middleware wraps next.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if b.Max > 0 && r.ContentLength > b.Max {
			tooLarge(w)
			return
		}

		var buf []byte
		var err error
		if b.Max > 0 {
			buf, err = io.ReadAll(http.MaxBytesReader(w, r.Body, b.Max))
		} else {
			buf, err = io.ReadAll(r.Body)
		}
		_ = r.Body.Close()
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				tooLarge(w)
				return
			}
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
			return
		}

		if b.RequireJSON && len(buf) > 0 && !isJSON(r.Header.Get("Content-Type")) {
			common.JSONError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json")
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(buf))
		r.ContentLength = int64(len(buf))
		next.ServeHTTP(w, r)
	})
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}

func tooLarge(w http.ResponseWriter) {
	common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
}
