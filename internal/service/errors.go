package service

import "errors"

// Business errors returned by the services. All of these except
// ErrInternalServer are expected, user-facing outcomes; the HTTP layer maps
// them to client-error responses with a stable machine-readable code.
var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrInvalidCode     = errors.New("invalid confirmation code")
	ErrExpiredCode     = errors.New("confirmation code has expired")
	ErrDeviceConflict  = errors.New("this device has already been used to mark attendance for this course today")
	ErrStudentConflict = errors.New("attendance already recorded for today")
	ErrBadInput        = errors.New("invalid input")
	ErrInternalServer  = errors.New("internal server error")
)
