package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/seojun-park/mockterview/backend/internal/middleware"
	"github.com/seojun-park/mockterview/backend/internal/models"
	"github.com/seojun-park/mockterview/backend/internal/services"
	"github.com/seojun-park/mockterview/backend/pkg/response"
	"gorm.io/gorm"
)

// SSEHandler streams pipeline notifications to the browser over server-sent
// events. Each connection is tagged with the caller's user uuid so per-user
// topics reach only their owner.
type SSEHandler struct {
	db  *gorm.DB
	hub *services.Hub
}

func NewSSEHandler(db *gorm.DB, hub *services.Hub) *SSEHandler {
	return &SSEHandler{db: db, hub: hub}
}

// Stream handles GET /api/events
func (h *SSEHandler) Stream(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		response.Unauthorized(c, "unknown user")
		return
	}

	clientID := uuid.New().String()
	ch := h.hub.Subscribe(clientID, user.UserUUID)
	defer h.hub.Unsubscribe(clientID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(event.Topic, event.Payload)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
