package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/panchi64/attendance-tracker/internal/service"
)

// HandleServiceError maps service errors onto HTTP responses. Expected
// outcomes keep their message; anything unrecognized is logged server-side
// and surfaced as an opaque internal error.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		ErrorResponse(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrInvalidCode):
		ErrorResponse(c, http.StatusBadRequest, "invalid_code", err.Error())
	case errors.Is(err, service.ErrExpiredCode):
		ErrorResponse(c, http.StatusBadRequest, "expired_code", err.Error())
	case errors.Is(err, service.ErrDeviceConflict), errors.Is(err, service.ErrStudentConflict):
		ErrorResponse(c, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, service.ErrBadInput):
		ErrorResponse(c, http.StatusBadRequest, "bad_request", err.Error())
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "internal_error", "An unexpected error occurred.")
	}
}
