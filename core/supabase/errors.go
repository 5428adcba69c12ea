package supabase

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// UpstreamError is a non-2xx answer from GoTrue or PostgREST, with the
// original message preserved for diagnostics.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// newUpstreamError extracts the human-readable message from an upstream
// error body. PostgREST uses "message", GoTrue uses "error_description"
// or "msg" depending on the endpoint.
func newUpstreamError(status int, body []byte) *UpstreamError {
	var decoded struct {
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
	}
	json.Unmarshal(body, &decoded)

	message := decoded.Message
	if message == "" {
		message = decoded.ErrorDescription
	}
	if message == "" {
		message = decoded.Msg
	}
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &UpstreamError{StatusCode: status, Message: message}
}
