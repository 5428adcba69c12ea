package backend

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/sisgemec/sisgemec/core/logger"
)

// Error is a request-terminal failure with the HTTP status it maps to.
// The detail preserves the original upstream message for diagnostics.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return e.Detail
}

func unauthorized(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusUnauthorized, Detail: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusNotFound, Detail: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusBadRequest, Detail: fmt.Sprintf(format, args...)}
}

func internal(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusInternalServerError, Detail: fmt.Sprintf(format, args...)}
}

type errorBody struct {
	Detail string `json:"detail"`
}

// writeError answers the request with the structured JSON error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := err.(*Error)
	if !ok {
		e = internal("%s", err)
	}
	rlog := logger.FromContext(r.Context())
	if e.Status >= http.StatusInternalServerError {
		rlog.Errorln(r.Method, r.URL.Path, e.Status, e.Detail)
	} else {
		rlog.Debugln(r.Method, r.URL.Path, e.Status, e.Detail)
	}
	writeJSON(w, e.Status, errorBody{Detail: e.Detail})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
