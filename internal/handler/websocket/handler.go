package websocket

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	httphandler "github.com/panchi64/attendance-tracker/internal/handler/http"
	"github.com/panchi64/attendance-tracker/internal/hub"
	"github.com/panchi64/attendance-tracker/internal/repository"
)

// WebSocketHandler upgrades dashboard connections and hands them to the hub.
type WebSocketHandler struct {
	hub        *hub.Hub
	courseRepo repository.CourseRepository
	upgrader   websocket.Upgrader
}

func NewWebSocketHandler(h *hub.Hub, courseRepo repository.CourseRepository) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if courseRepo == nil {
		panic("CourseRepository cannot be nil for WebSocketHandler")
	}
	return &WebSocketHandler{
		hub:        h,
		courseRepo: courseRepo,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is served from the same host; the route is
			// already gated to local requests before the upgrade.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleConnection handles GET /ws/courses/:courseId. The course must exist
// before the upgrade; after it the connection speaks websocket only, so
// errors are logged rather than returned.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	courseID := c.Param("courseId")

	if _, err := h.courseRepo.FindByID(c.Request.Context(), courseID); err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			httphandler.ErrorResponse(c, http.StatusNotFound, "not_found", "Course not found")
			return
		}
		logrus.WithError(err).WithField("course_id", courseID).Error("Failed to look up course for websocket join")
		httphandler.ErrorResponse(c, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := hub.NewClient(h.hub, conn, courseID)
	if !h.hub.Register(client) {
		logrus.WithField("course_id", courseID).Warn("Hub queue full, dropping websocket connection")
		conn.Close()
		return
	}

	logrus.WithFields(logrus.Fields{
		"course_id":  courseID,
		"session_id": client.SessionID(),
	}).Info("Dashboard connected")

	client.Run()
}
