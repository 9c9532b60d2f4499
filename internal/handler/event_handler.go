package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vanity-bot/internal/dto"
	"github.com/noah-isme/vanity-bot/internal/models"
	appErrors "github.com/noah-isme/vanity-bot/pkg/errors"
	"github.com/noah-isme/vanity-bot/pkg/response"
)

type eventIntake interface {
	HandleStatusChange(ctx context.Context, event models.StatusChange) error
	HandleProfileChange(ctx context.Context, event models.ProfileChange) (int, error)
}

// EventHandler ingests signal changes from transports other than the gateway.
type EventHandler struct {
	intake eventIntake
}

// NewEventHandler builds a new handler.
func NewEventHandler(intake eventIntake) *EventHandler {
	return &EventHandler{intake: intake}
}

// Status godoc
// @Summary Ingest a status change
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.StatusEventRequest true "Status change"
// @Success 202 {object} response.Envelope
// @Router /v1/events/status [post]
func (h *EventHandler) Status(c *gin.Context) {
	var req dto.StatusEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status event"))
		return
	}
	event := models.StatusChange{
		CommunityID: req.CommunityID,
		UserID:      req.UserID,
		Status:      req.Status,
		Offline:     req.Offline,
		At:          eventTime(req.At),
	}
	if err := h.intake.HandleStatusChange(c.Request.Context(), event); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, gin.H{"community_id": req.CommunityID, "user_id": req.UserID})
}

// Profile godoc
// @Summary Ingest a profile change
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.ProfileEventRequest true "Profile change"
// @Success 202 {object} response.Envelope
// @Router /v1/events/profile [post]
func (h *EventHandler) Profile(c *gin.Context) {
	var req dto.ProfileEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile event"))
		return
	}
	scheduled, err := h.intake.HandleProfileChange(c.Request.Context(), models.ProfileChange{
		UserID:  req.UserID,
		Profile: models.Profile{Bio: req.Bio, Pronouns: req.Pronouns},
		At:      eventTime(req.At),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.ProfileEventResponse{UserID: req.UserID, Scheduled: scheduled})
}

func eventTime(at *time.Time) time.Time {
	if at == nil || at.IsZero() {
		return time.Now().UTC()
	}
	return at.UTC()
}
