package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/panchi64/attendance-tracker/internal/dto"
	"github.com/panchi64/attendance-tracker/internal/service"
)

// AttendanceHandler exposes the submission pipeline and the present-count
// poll endpoint.
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
}

func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	if attendanceService == nil {
		panic("AttendanceService cannot be nil for AttendanceHandler")
	}
	return &AttendanceHandler{attendanceService: attendanceService}
}

// Submit handles POST /api/attendance.
func (h *AttendanceHandler) Submit(c *gin.Context) {
	var sub dto.AttendanceSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		logrus.WithError(err).Warn("Handler.Submit: invalid submission payload")
		ErrorResponse(c, http.StatusBadRequest, "bad_request", "Invalid submission: course_id, student_name, student_id and confirmation_code are required.")
		return
	}

	// The dedup gate keys on the address the connection arrived from, never
	// on anything the client claims about itself.
	record, err := h.attendanceService.Submit(c.Request.Context(), sub, c.ClientIP())
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, dto.SubmissionResponse{
		Message:     "Attendance recorded successfully",
		StudentName: record.StudentName,
	})
}

// CountToday handles GET /api/courses/:courseId/attendance/today.
func (h *AttendanceHandler) CountToday(c *gin.Context) {
	courseID := c.Param("courseId")

	count, err := h.attendanceService.CountToday(c.Request.Context(), courseID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, dto.PresentCountResponse{
		CourseID:     courseID,
		PresentCount: count,
	})
}
