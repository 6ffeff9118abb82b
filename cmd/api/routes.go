package main

import (
	"database/sql"
	"net/http"
	"time"

	"voiceagent-platform/internal/httpapi"
	"voiceagent-platform/internal/rbac"
	"voiceagent-platform/internal/voice"
	"voiceagent-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic; handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc, webhook voice.WebhookHandler, db *sql.DB) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Provider status callbacks, authenticated by HMAC signature.
	r.POST("/webhooks/voice/events", webhook.HandleStatusEvent)

	api := r.Group("/api")
	api.POST("/auth/login", h.Login)

	protected := api.Group("")
	protected.Use(authMW)
	protected.Use(rbac.RequireUser())
	{
		protected.GET("/me", h.Me)
		protected.GET("/stats", h.GetStats)
		protected.GET("/audio/:conversationId", h.GetAudio)

		calls := protected.Group("/calls")
		{
			calls.GET("", h.ListCalls)
			calls.POST("", h.PlaceCall)
			calls.PUT("", h.ImportContacts)
			calls.POST("/batch", h.PlaceBatch)
			calls.GET("/:id", h.GetCall)
		}

		contacts := protected.Group("/contacts")
		{
			contacts.GET("", h.ListContacts)
			contacts.POST("", h.CreateContact)
			contacts.DELETE("/batch", h.DeleteContactsBatch)
			contacts.GET("/:id", h.GetContact)
			contacts.PATCH("/:id", h.UpdateContact)
			contacts.DELETE("/:id", h.DeleteContact)
		}

		campaigns := protected.Group("/campaigns")
		{
			campaigns.GET("", h.ListCampaigns)
			campaigns.POST("", h.CreateCampaign)
			campaigns.GET("/:id", h.GetCampaign)
			campaigns.POST("/:id/control", h.ControlCampaign)
		}

		agents := protected.Group("/agents")
		agents.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleSuperAdmin))
		{
			agents.GET("", h.ListAgents)
			agents.POST("", h.CreateAgent)
			agents.GET("/:id", h.GetAgent)
			agents.PATCH("/:id", h.PatchAgent)
		}
	}
}
