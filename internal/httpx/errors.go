package httpx

import (
	"net/http"

	"github.com/sundayezeilo/linkstore/internal/errx"
)

// ErrorKindToStatus maps errx.Kind to HTTP status codes.
func ErrorKindToStatus(kind errx.Kind) int {
	switch kind {
	case errx.NotFound:
		return http.StatusNotFound
	case errx.Invalid:
		return http.StatusBadRequest
	case errx.PreconditionRequired:
		return http.StatusPreconditionRequired
	case errx.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorKindToCode maps errx.Kind to error codes for JSON responses.
func ErrorKindToCode(kind errx.Kind) string {
	switch kind {
	case errx.NotFound:
		return "not_found"
	case errx.Invalid:
		return "invalid_request"
	case errx.PreconditionRequired:
		return "precondition_required"
	case errx.Unavailable:
		return "unavailable"
	default:
		return "internal_error"
	}
}
