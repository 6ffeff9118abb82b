package httpapi

import (
	"net/http"
	"time"

	"voiceagent-platform/internal/reporting"

	"github.com/gin-gonic/gin"
)

// GetStats handles GET /api/stats. Default range is the trailing 30 days;
// from/to query params (RFC3339 or YYYY-MM-DD) narrow it.
func (h Handlers) GetStats(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}

	to := dateQuery(c, "to")
	if to.IsZero() {
		to = time.Now().UTC()
	}
	from := dateQuery(c, "from")
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}

	campaignID := c.Query("campaignId")
	if campaignID != "" {
		sum, err := h.Stats.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{
			UserID:     userID,
			Range:      reporting.TimeRange{From: from, To: to},
			CampaignID: campaignID,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sum)
		return
	}

	stats, err := h.Stats.Dashboard(c.Request.Context(), userID, reporting.TimeRange{From: from, To: to})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
