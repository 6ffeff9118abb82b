package httpapi

import (
	"net/http"

	"voiceagent-platform/internal/agent"
	"voiceagent-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ListAgents handles GET /api/agents.
func (h Handlers) ListAgents(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	agents, err := h.Agents.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

// CreateAgent handles POST /api/agents.
func (h Handlers) CreateAgent(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	var req agent.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	ag, err := h.Agents.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ag)
}

// GetAgent handles GET /api/agents/:id.
func (h Handlers) GetAgent(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	ag, err := h.Agents.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ag)
}

type patchAgentRequest struct {
	Disabled *bool `json:"disabled"`
}

// PatchAgent handles PATCH /api/agents/:id. Only the disabled flag is
// mutable; agent configuration lives with the provider.
func (h Handlers) PatchAgent(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}
	var req patchAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	if req.Disabled == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "disabled required"})
		return
	}

	ag, err := h.Agents.SetDisabled(c.Request.Context(), userID, c.Param("id"), *req.Disabled)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.Audit != nil {
		if err := h.Audit.LogAgentDisabled(c.Request.Context(), userID, userID, role,
			c.ClientIP(), ag.ID, *req.Disabled); err != nil {
			logger.From(c.Request.Context()).Warn("audit write failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, ag)
}
