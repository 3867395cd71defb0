// Package dto holds the request, response and websocket payload shapes
// exchanged with clients.
package dto

import "time"

// AttendanceSubmission is a student's attendance claim. All fields are
// required; the client IP is taken from the connection, never from the body.
type AttendanceSubmission struct {
	CourseID         string `json:"course_id" binding:"required,uuid"`
	StudentName      string `json:"student_name" binding:"required,max=191"`
	StudentID        string `json:"student_id" binding:"required,max=64"`
	ConfirmationCode string `json:"confirmation_code" binding:"required,len=6"`
}

// SubmissionResponse acknowledges a successful submission.
type SubmissionResponse struct {
	Message     string `json:"message"`
	StudentName string `json:"student_name"`
}

// AttendanceUpdate is pushed to every dashboard connected for a course, once
// on join and once per successful submission.
type AttendanceUpdate struct {
	Type         string `json:"type"` // always "attendance_update"
	PresentCount int64  `json:"present_count"`
}

// CodeStatusResponse is the dashboard view of the current confirmation code.
type CodeStatusResponse struct {
	Code            string    `json:"code"`
	ExpiresAt       time.Time `json:"expires_at"`
	IsValid         bool      `json:"is_valid"`
	ProgressPercent float64   `json:"progress_percent"`
}

// PresentCountResponse answers the present-count poll endpoint.
type PresentCountResponse struct {
	CourseID     string `json:"course_id"`
	PresentCount int64  `json:"present_count"`
}
