package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vanity-bot/internal/dto"
	"github.com/noah-isme/vanity-bot/internal/models"
	"github.com/noah-isme/vanity-bot/internal/service"
	appErrors "github.com/noah-isme/vanity-bot/pkg/errors"
	"github.com/noah-isme/vanity-bot/pkg/export"
	"github.com/noah-isme/vanity-bot/pkg/response"
)

type communityConfigService interface {
	Get(ctx context.Context, communityID string) (*models.CommunityConfig, error)
	SetRole(ctx context.Context, communityID, roleID, actor string) (*models.CommunityConfig, error)
	SetChannel(ctx context.Context, communityID, channelID, actor string) (*models.CommunityConfig, error)
	SetAnnounceText(ctx context.Context, communityID, text, actor string) (*models.CommunityConfig, error)
}

type ledgerService interface {
	List(ctx context.Context, communityID string) ([]models.LedgerEntry, error)
	Reset(ctx context.Context, communityID string) (int64, error)
}

type reconciler interface {
	Reconcile(ctx context.Context, req models.EvaluationRequest) (*service.ReconcileResult, error)
}

type evaluationScheduler interface {
	RequestEvaluation(ctx context.Context, req models.EvaluationRequest) error
}

// CommunityHandler exposes the admin surface of a community.
type CommunityHandler struct {
	configs communityConfigService
	ledger  ledgerService
	engine  reconciler
	queue   evaluationScheduler
}

// NewCommunityHandler builds a new handler.
func NewCommunityHandler(configs communityConfigService, ledger ledgerService, engine reconciler, queue evaluationScheduler) *CommunityHandler {
	return &CommunityHandler{configs: configs, ledger: ledger, engine: engine, queue: queue}
}

// GetConfig godoc
// @Summary Get community configuration
// @Tags Communities
// @Produce json
// @Param id path string true "Community ID"
// @Success 200 {object} response.Envelope
// @Router /v1/communities/{id}/config [get]
func (h *CommunityHandler) GetConfig(c *gin.Context) {
	cfg, err := h.configs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, map[string]interface{}{"configured": cfg.Configured()})
}

// SetRole godoc
// @Summary Set the vanity role
// @Tags Communities
// @Accept json
// @Produce json
// @Param id path string true "Community ID"
// @Param payload body dto.SetRoleRequest true "Role payload"
// @Success 200 {object} response.Envelope
// @Router /v1/communities/{id}/config/role [put]
func (h *CommunityHandler) SetRole(c *gin.Context) {
	var req dto.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid role payload"))
		return
	}
	cfg, err := h.configs.SetRole(c.Request.Context(), c.Param("id"), req.RoleID, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg)
}

// SetChannel godoc
// @Summary Set the announcement channel
// @Tags Communities
// @Accept json
// @Produce json
// @Param id path string true "Community ID"
// @Param payload body dto.SetChannelRequest true "Channel payload"
// @Success 200 {object} response.Envelope
// @Router /v1/communities/{id}/config/channel [put]
func (h *CommunityHandler) SetChannel(c *gin.Context) {
	var req dto.SetChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid channel payload"))
		return
	}
	cfg, err := h.configs.SetChannel(c.Request.Context(), c.Param("id"), req.ChannelID, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg)
}

// SetMessage godoc
// @Summary Set the announcement body
// @Tags Communities
// @Accept json
// @Produce json
// @Param id path string true "Community ID"
// @Param payload body dto.SetMessageRequest true "Message payload"
// @Success 200 {object} response.Envelope
// @Router /v1/communities/{id}/config/message [put]
func (h *CommunityHandler) SetMessage(c *gin.Context) {
	var req dto.SetMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid message payload"))
		return
	}
	cfg, err := h.configs.SetAnnounceText(c.Request.Context(), c.Param("id"), req.Text, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg)
}

// ListLedger godoc
// @Summary List announced members
// @Tags Ledger
// @Produce json,text/csv
// @Param id path string true "Community ID"
// @Param format query string false "json (default) or csv"
// @Success 200 {object} response.Envelope
// @Router /v1/communities/{id}/ledger [get]
func (h *CommunityHandler) ListLedger(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "csv" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be json or csv"))
		return
	}
	entries, err := h.ledger.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if format == "csv" {
		body, err := export.LedgerCSV(entries)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=ledger-%s.csv", c.Param("id")))
		c.Data(http.StatusOK, "text/csv", body)
		return
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}
	response.JSON(c, http.StatusOK, entries, map[string]interface{}{"total": len(entries)})
}

// ResetLedger godoc
// @Summary Forget every announcement of a community
// @Tags Ledger
// @Produce json
// @Param id path string true "Community ID"
// @Success 200 {object} response.Envelope
// @Router /v1/communities/{id}/ledger [delete]
func (h *CommunityHandler) ResetLedger(c *gin.Context) {
	communityID := c.Param("id")
	removed, err := h.ledger.Reset(c.Request.Context(), communityID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.LedgerResetResponse{CommunityID: communityID, Removed: removed})
}

// Evaluate godoc
// @Summary Reconcile one member now
// @Tags Communities
// @Produce json
// @Param id path string true "Community ID"
// @Param userId path string true "User ID"
// @Param async query bool false "queue the evaluation instead of waiting for it"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /v1/communities/{id}/members/{userId}/evaluate [post]
func (h *CommunityHandler) Evaluate(c *gin.Context) {
	req := models.EvaluationRequest{
		CommunityID: c.Param("id"),
		UserID:      c.Param("userId"),
		Trigger:     models.TriggerManual,
	}
	if c.Query("async") == "true" && h.queue != nil {
		if err := h.queue.RequestEvaluation(c.Request.Context(), req); err != nil {
			response.Error(c, err)
			return
		}
		response.Accepted(c, req)
		return
	}
	result, err := h.engine.Reconcile(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
