package httpapi

import (
	"net/http"
	"time"

	"voiceagent-platform/internal/agent"
	"voiceagent-platform/internal/audit"
	"voiceagent-platform/internal/auth"
	"voiceagent-platform/internal/call"
	"voiceagent-platform/internal/campaign"
	"voiceagent-platform/internal/contact"
	"voiceagent-platform/internal/dispatch"
	"voiceagent-platform/internal/ingest"
	"voiceagent-platform/internal/reporting"
	"voiceagent-platform/internal/voice"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth *auth.Manager

	Calls      *call.Service
	Contacts   *contact.Service
	Agents     *agent.Service
	Campaigns  *campaign.Service
	Runner     *campaign.Runner
	Dispatcher *dispatch.Dispatcher
	Importer   *ingest.Importer
	Stats      *reporting.Service
	Audit      *audit.Service
	Provider   voice.Provider
}

type loginRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: Credential validation is delegated to the identity provider sitting
// in front of this service; this endpoint only exchanges a verified identity
// for API tokens.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "userId and role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": pair.AccessToken, "refreshToken": pair.RefreshToken})
}

// Me echoes the authenticated identity, mostly for smoke checks.
func (h Handlers) Me(c *gin.Context) {
	uid, _ := auth.UserID(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"userId": uid, "role": role})
}

func identity(c *gin.Context) (userID, role string, ok bool) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil || userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return "", "", false
	}
	role, _ = auth.Role(c.Request.Context())
	return userID, role, true
}
