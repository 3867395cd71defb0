package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/panchi64/attendance-tracker/internal/dto"
	"github.com/panchi64/attendance-tracker/internal/service"
)

// CodeHandler exposes the instructor-facing confirmation code endpoints.
type CodeHandler struct {
	codeService *service.CodeService
}

func NewCodeHandler(codeService *service.CodeService) *CodeHandler {
	if codeService == nil {
		panic("CodeService cannot be nil for CodeHandler")
	}
	return &CodeHandler{codeService: codeService}
}

// GetCurrent handles GET /api/host/courses/:courseId/confirmation-code. When
// no valid code exists yet, one is generated on the spot so the dashboard
// always has something to display.
func (h *CodeHandler) GetCurrent(c *gin.Context) {
	courseID := c.Param("courseId")

	status, err := h.codeService.CurrentCode(c.Request.Context(), courseID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, dto.CodeStatusResponse{
		Code:            status.Code,
		ExpiresAt:       status.ExpiresAt,
		IsValid:         status.IsValid,
		ProgressPercent: status.ProgressPercent,
	})
}

// Regenerate handles POST /api/host/courses/:courseId/confirmation-code: an
// immediate manual rotation for one course, outside the background cadence.
func (h *CodeHandler) Regenerate(c *gin.Context) {
	courseID := c.Param("courseId")

	active, err := h.codeService.GenerateAndStore(c.Request.Context(), courseID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	logrus.WithField("course_id", courseID).Info("Confirmation code regenerated on request")

	SuccessResponse(c, http.StatusOK, dto.CodeStatusResponse{
		Code:            active.Code,
		ExpiresAt:       active.ExpiresAt,
		IsValid:         true,
		ProgressPercent: 100,
	})
}
