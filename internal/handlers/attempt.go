package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/seojun-park/mockterview/backend/internal/identity"
	"github.com/seojun-park/mockterview/backend/internal/middleware"
	"github.com/seojun-park/mockterview/backend/internal/models"
	"github.com/seojun-park/mockterview/backend/internal/services"
	"github.com/seojun-park/mockterview/backend/pkg/response"
	"gorm.io/gorm"
)

// AttemptHandler exposes the attempt read/create API. Creation appends a new
// PENDING attempt for a question or presentation round; reads return the
// attempt with its feedback once analysis has completed.
type AttemptHandler struct {
	db       *gorm.DB
	attempts *services.AttemptService
}

func NewAttemptHandler(db *gorm.DB) *AttemptHandler {
	return &AttemptHandler{
		db:       db,
		attempts: services.NewAttemptService(db),
	}
}

type createAttemptRequest struct {
	RootUUID string `json:"root_uuid" binding:"required"`
}

type attemptResponse struct {
	RootUUID      string           `json:"root_uuid"`
	AttemptNumber int              `json:"attempt_number"`
	RecordingID   string           `json:"recording_id"`
	Kind          string           `json:"kind"`
	Status        string           `json:"status"`
	VideoPath     string           `json:"video_path,omitempty"`
	ElapsedTime   float64          `json:"elapsed_time,omitempty"`
	Whiteboard    string           `json:"whiteboard,omitempty"`
	Feedback      *models.Feedback `json:"feedback,omitempty"`
}

func newAttemptResponse(ref *services.AttemptRef) attemptResponse {
	id := ref.Identity()
	resp := attemptResponse{
		RootUUID:      id.RootUUID,
		AttemptNumber: id.AttemptNumber,
		RecordingID:   id.RecordingID(),
		Kind:          ref.Kind,
		Status:        string(ref.Status()),
	}
	switch ref.Kind {
	case services.KindPresentation:
		resp.VideoPath = ref.Presentation.VideoPath
		resp.Whiteboard = ref.Presentation.Whiteboard
	default:
		resp.VideoPath = ref.Standard.VideoPath
		resp.ElapsedTime = ref.Standard.ElapsedTime
	}
	return resp
}

// Create handles POST /api/attempts
func (h *AttemptHandler) Create(c *gin.Context) {
	var req createAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "root_uuid is required")
		return
	}

	ref, err := h.attempts.CreateAttempt(req.RootUUID)
	if err != nil {
		if errors.Is(err, services.ErrRootNotFound) {
			response.NotFound(c, "no question or presentation matches the given uuid")
			return
		}
		response.Error(c, err)
		return
	}

	response.Created(c, newAttemptResponse(ref))
}

// Get handles GET /api/attempts/:root/:number
func (h *AttemptHandler) Get(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		response.BadRequest(c, "attempt number must be a positive integer")
		return
	}

	ref, err := h.attempts.Resolve(identity.AttemptIdentity{
		RootUUID:      c.Param("root"),
		AttemptNumber: number,
	})
	if err != nil {
		if errors.Is(err, services.ErrAttemptNotFound) {
			response.NotFound(c, "attempt not found")
			return
		}
		response.Error(c, err)
		return
	}

	if !h.callerOwns(c, ref) {
		response.Forbidden(c, "attempt belongs to another user")
		return
	}

	resp := newAttemptResponse(ref)
	if feedback, err := h.attempts.Feedback(ref); err == nil {
		resp.Feedback = feedback
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

func (h *AttemptHandler) callerOwns(c *gin.Context, ref *services.AttemptRef) bool {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return false
	}

	ownerUUID, err := h.attempts.OwnerUUID(ref)
	if err != nil {
		return false
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return false
	}
	return user.UserUUID == ownerUUID
}
