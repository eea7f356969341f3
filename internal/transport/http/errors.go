package http

import (
	"errors"
	"log"
	"net/http"

	"pickem-service/internal/domain"
)

const internalMessage = "Our fault! Please try again."

// statusFor maps service errors to HTTP status codes. Unknown errors are server errors.
func statusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrChapterClosed):
		return http.StatusLocked
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrChapterNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusLocked:
		msg = "This chapter is closed"
	case http.StatusInternalServerError:
		log.Printf("request %s %s [%s]: %v", r.Method, r.URL.Path, requestID(r.Context()), err)
		msg = internalMessage
	}
	writeJSON(w, status, messageResponse{Message: msg})
}
