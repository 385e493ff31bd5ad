// Package httperr turns service errors into what a client may see.
package httperr

import (
	"errors"
	"net/http"

	"github.com/gfdmit/tierboard/internal/log"
	"github.com/gfdmit/tierboard/internal/service"
)

// Status maps err to an HTTP status and a client-safe message. Store
// failures are logged here and never described to the client.
func Status(err error) (int, string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, service.ErrNotFound.Error()
	case errors.Is(err, service.ErrForbidden):
		log.Info.Printf("[HTTPSERVER] %v", err)
		return http.StatusForbidden, service.ErrForbidden.Error()
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrNoTransition):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrStoreFailure):
		log.Error.Printf("[HTTPSERVER] %v", err)
		return http.StatusServiceUnavailable, "temporarily unavailable, try again"
	default:
		log.Error.Printf("[HTTPSERVER] unexpected error: %v", err)
		return http.StatusInternalServerError, "internal server error"
	}
}

// Message is Status without the code.
func Message(err error) string {
	_, msg := Status(err)
	return msg
}
