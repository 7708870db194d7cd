package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/seojun-park/mockterview/backend/internal/identity"
	"github.com/seojun-park/mockterview/backend/pkg/logger"
	"gorm.io/gorm"
)

// Notification topics. Per-user topics carry the owner's uuid; the bare topic
// is the broadcast fallback when no owner can be determined.
const (
	topicAnalysisResults   = "analysis-results"
	topicTranscriptResults = "transcript-results"
)

// NotificationEvent is one message pushed to subscribed clients.
type NotificationEvent struct {
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
}

type hubClient struct {
	userUUID string
	ch       chan NotificationEvent
}

// Hub fans events out to connected SSE clients. Publishing never blocks: a
// client whose buffer is full misses the event.
type Hub struct {
	clients map[string]hubClient
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]hubClient)}
}

// Subscribe registers a client owned by userUUID and returns its event channel.
func (h *Hub) Subscribe(clientID, userUUID string) chan NotificationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan NotificationEvent, 16)
	h.clients[clientID] = hubClient{userUUID: userUUID, ch: ch}
	logger.Infof("[Hub] Client %s subscribed (user=%s), total: %d", clientID, userUUID, len(h.clients))
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (h *Hub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[clientID]; ok {
		close(client.ch)
		delete(h.clients, clientID)
		logger.Infof("[Hub] Client %s unsubscribed, total: %d", clientID, len(h.clients))
	}
}

// PublishToUser delivers the event to every client owned by userUUID.
func (h *Hub) PublishToUser(userUUID string, event NotificationEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for clientID, client := range h.clients {
		if client.userUUID != userUUID {
			continue
		}
		select {
		case client.ch <- event:
		default:
			logger.Warnf("[Hub] Client %s buffer full, event dropped", clientID)
		}
	}
}

// Broadcast delivers the event to every connected client.
func (h *Hub) Broadcast(event NotificationEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for clientID, client := range h.clients {
		select {
		case client.ch <- event:
		default:
			logger.Warnf("[Hub] Client %s buffer full, event dropped", clientID)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NotificationService routes pipeline results to their owner's topic, falling
// back to broadcast when the owner cannot be determined. Each message is
// delivered exactly once: either addressed or broadcast, never both.
type NotificationService struct {
	db  *gorm.DB
	hub *Hub
}

func NewNotificationService(db *gorm.DB, hub *Hub) *NotificationService {
	return &NotificationService{db: db, hub: hub}
}

// SendAnalysisResult pushes a completed analysis result to its owner, or to
// everyone when the recording id cannot be traced to a user.
func (s *NotificationService) SendAnalysisResult(result *AnalysisResult) {
	s.send(topicAnalysisResults, result.RecordingID, result)
}

// SendTranscript pushes a partial transcript to its owner, or to everyone
// when the recording id cannot be traced to a user.
func (s *NotificationService) SendTranscript(msg *TranscriptMessage) {
	s.send(topicTranscriptResults, msg.AnswerAttemptUUID, msg)
}

func (s *NotificationService) send(topic, recordingID string, payload interface{}) {
	if owner, err := s.resolveOwner(recordingID); err == nil {
		s.hub.PublishToUser(owner, NotificationEvent{
			Topic:   fmt.Sprintf("users/%s/%s", owner, topic),
			Payload: payload,
		})
		return
	} else if !errors.Is(err, ErrAttemptNotFound) && !errors.Is(err, identity.ErrEmptyRecordingID) {
		logger.Warnf("[Notification] Owner lookup failed for %s: %v, broadcasting", recordingID, err)
	}

	s.hub.Broadcast(NotificationEvent{Topic: topic, Payload: payload})
}

func (s *NotificationService) resolveOwner(recordingID string) (string, error) {
	id, err := identity.ParseRecordingID(recordingID)
	if err != nil {
		return "", err
	}

	attempts := NewAttemptService(s.db)
	ref, err := attempts.Resolve(id)
	if err != nil {
		return "", err
	}
	return attempts.OwnerUUID(ref)
}
