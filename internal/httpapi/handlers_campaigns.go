package httpapi

import (
	"net/http"

	"voiceagent-platform/internal/campaign"
	"voiceagent-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ListCampaigns handles GET /api/campaigns.
func (h Handlers) ListCampaigns(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	page, err := h.Campaigns.List(c.Request.Context(), userID, campaign.ListFilter{
		Status: campaign.Status(c.Query("status")),
		Search: c.Query("search"),
		Page:   intQuery(c, "page"),
		Limit:  intQuery(c, "limit"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateCampaign handles POST /api/campaigns.
func (h Handlers) CreateCampaign(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	var req campaign.CreateParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	camp, err := h.Campaigns.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, camp)
}

// GetCampaign handles GET /api/campaigns/:id: the campaign with its contact
// roster and calls.
func (h Handlers) GetCampaign(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	detail, err := h.Campaigns.GetDetail(c.Request.Context(), userID, c.Param("id"), h.Calls)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type controlRequest struct {
	Action string `json:"action"`
}

// ControlCampaign handles POST /api/campaigns/:id/control. A start or resume
// triggers an immediate dispatch pass so the response reports how many calls
// actually went out instead of waiting for the next poll.
func (h Handlers) ControlCampaign(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}
	var req controlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	action := campaign.Action(req.Action)
	switch action {
	case campaign.ActionStart, campaign.ActionPause, campaign.ActionResume, campaign.ActionCancel:
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "unknown action"})
		return
	}

	camp, err := h.Campaigns.Control(c.Request.Context(), userID, c.Param("id"), action)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.Audit != nil {
		if err := h.Audit.LogCampaignControl(c.Request.Context(), userID, userID, role,
			c.ClientIP(), camp.ID, string(action)); err != nil {
			logger.From(c.Request.Context()).Warn("audit write failed", "err", err)
		}
	}

	resp := gin.H{
		"message": "campaign " + string(camp.Status),
		"status":  camp.Status,
	}
	if (action == campaign.ActionStart || action == campaign.ActionResume) && h.Runner != nil {
		initiated, failed, err := h.Runner.DispatchPass(c.Request.Context(), userID, camp.ID)
		if err != nil {
			// The status change committed; dispatch continues on the poll
			// loop, so report the transition instead of failing the request.
			logger.From(c.Request.Context()).Error("immediate dispatch pass failed",
				"campaign_id", camp.ID, "err", err)
		} else {
			resp["callDetails"] = gin.H{"initiated": initiated, "failed": failed}
		}
	}
	c.JSON(http.StatusOK, resp)
}
