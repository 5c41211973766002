package apierr

import (
	"fmt"
	"net/http"
)

// Error is a failure that maps directly onto an HTTP response. Services
// return these for anything a client can act on; everything else falls
// through to a generic 500 at the handler boundary.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// TooLarge is distinct from Validation so oversized uploads never surface as
// a generic failure.
func TooLarge(maxBytes int64) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("file too large, maximum size is %d MB", maxBytes/(1024*1024)),
	}
}

func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

func Storage(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message}
}
