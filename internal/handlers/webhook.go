package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/seojun-park/mockterview/backend/internal/services"
	"github.com/seojun-park/mockterview/backend/pkg/logger"
	"github.com/seojun-park/mockterview/backend/pkg/response"
)

// WebhookHandler receives recording lifecycle events from the recording
// service. The endpoint always acks with 200: the recorder retries on non-2xx
// and a broken event will never become processable.
type WebhookHandler struct {
	service *services.RecordingWebhookService
}

func NewWebhookHandler(service *services.RecordingWebhookService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// HandleRecordingEvent handles POST /webhook/recording
func (h *WebhookHandler) HandleRecordingEvent(c *gin.Context) {
	var event services.RecordingEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		logger.Warnf("[Webhook] Malformed payload from %s: %v", c.ClientIP(), err)
		response.Success(c, nil)
		return
	}

	if err := h.service.ProcessRecordingEvent(&event); err != nil {
		logger.Errorf("[Webhook] Event processing failed: %v", err)
	}
	response.Success(c, nil)
}
