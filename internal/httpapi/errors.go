package httpapi

import (
	"errors"
	"net/http"

	"voiceagent-platform/internal/agent"
	"voiceagent-platform/internal/call"
	"voiceagent-platform/internal/campaign"
	"voiceagent-platform/internal/contact"
	"voiceagent-platform/internal/ingest"
	"voiceagent-platform/internal/reporting"
	"voiceagent-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to the API contract: 400 for rejected
// input, 404 for unknown resources, 409 for illegal lifecycle actions, 500
// for everything else. Bodies are always {"message": "..."}.
func respondError(c *gin.Context, err error) {
	var illegal *campaign.ErrIllegalTransition
	if errors.As(err, &illegal) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": illegal.Error()})
		return
	}

	switch {
	case errors.Is(err, contact.ErrDuplicatePhone):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": err.Error()})

	case errors.Is(err, call.ErrNotFound),
		errors.Is(err, contact.ErrNotFound),
		errors.Is(err, agent.ErrNotFound),
		errors.Is(err, campaign.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": err.Error()})

	case errors.Is(err, call.ErrInvalidPhone),
		errors.Is(err, call.ErrInvalidArgument),
		errors.Is(err, contact.ErrInvalidArgument),
		errors.Is(err, agent.ErrInvalidArgument),
		errors.Is(err, agent.ErrAgentDisabled),
		errors.Is(err, campaign.ErrInvalidArgument),
		errors.Is(err, campaign.ErrUnknownContacts),
		errors.Is(err, ingest.ErrEmptyFile),
		errors.Is(err, ingest.ErrMissingColumns),
		errors.Is(err, reporting.ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})

	default:
		logger.From(c.Request.Context()).Error("request failed",
			"path", c.FullPath(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}
