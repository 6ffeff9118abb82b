package httpapi

import (
	"net/http"

	"voiceagent-platform/internal/contact"
	"voiceagent-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ListContacts handles GET /api/contacts.
func (h Handlers) ListContacts(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	page, err := h.Contacts.List(c.Request.Context(), userID, contact.ListFilter{
		Search: c.Query("search"),
		Tag:    c.Query("tag"),
		Page:   intQuery(c, "page"),
		Limit:  intQuery(c, "limit"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateContact handles POST /api/contacts.
func (h Handlers) CreateContact(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	var req contact.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	ct, err := h.Contacts.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ct)
}

// GetContact handles GET /api/contacts/:id.
func (h Handlers) GetContact(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	ct, err := h.Contacts.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}

// UpdateContact handles PATCH /api/contacts/:id with partial fields.
func (h Handlers) UpdateContact(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	var req contact.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	ct, err := h.Contacts.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}

// DeleteContact handles DELETE /api/contacts/:id.
func (h Handlers) DeleteContact(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	if err := h.Contacts.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "contact deleted"})
}

type batchDeleteRequest struct {
	ContactIDs []string `json:"contactIds"`
}

// DeleteContactsBatch handles DELETE /api/contacts/batch. Unknown ids are
// ignored; deletedCount reports what actually went away.
func (h Handlers) DeleteContactsBatch(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}
	var req batchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	if len(req.ContactIDs) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "contactIds required"})
		return
	}

	deleted, err := h.Contacts.DeleteBatch(c.Request.Context(), userID, req.ContactIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.Audit != nil && deleted > 0 {
		if err := h.Audit.LogContactsDeleted(c.Request.Context(), userID, userID, role,
			c.ClientIP(), deleted); err != nil {
			logger.From(c.Request.Context()).Warn("audit write failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"deletedCount": deleted})
}
