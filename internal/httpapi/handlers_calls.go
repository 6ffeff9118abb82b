package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"voiceagent-platform/internal/call"
	"voiceagent-platform/internal/contact"
	"voiceagent-platform/internal/dispatch"
	"voiceagent-platform/internal/voice"
	"voiceagent-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// maxImportSize caps the CSV upload body at 5 MB.
const maxImportSize = 5 << 20

func intQuery(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

func dateQuery(c *gin.Context, key string) time.Time {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	return time.Time{}
}

// ListCalls handles GET /api/calls.
func (h Handlers) ListCalls(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}

	page, err := h.Calls.List(c.Request.Context(), userID, call.ListFilter{
		Search:     c.Query("search"),
		Status:     call.Status(c.Query("status")),
		CampaignID: c.Query("campaignId"),
		StartDate:  dateQuery(c, "startDate"),
		EndDate:    dateQuery(c, "endDate"),
		Page:       intQuery(c, "page"),
		Limit:      intQuery(c, "limit"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetCall handles GET /api/calls/:id.
func (h Handlers) GetCall(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	rec, err := h.Calls.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type placeCallRequest struct {
	AgentID       string `json:"agentId"`
	PhoneNumber   string `json:"phoneNumber"`
	ContactName   string `json:"contactName"`
	ContactID     string `json:"contactId"`
	CustomMessage string `json:"customMessage"`
}

// PlaceCall handles POST /api/calls: a single immediate outbound call.
func (h Handlers) PlaceCall(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	var req placeCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}

	rec, err := h.Dispatcher.PlaceCall(c.Request.Context(), dispatch.PlaceCallRequest{
		UserID:        userID,
		AgentID:       req.AgentID,
		PhoneNumber:   req.PhoneNumber,
		ContactName:   req.ContactName,
		ContactID:     req.ContactID,
		CustomMessage: req.CustomMessage,
		Origin:        "direct",
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"callId": rec.ID, "status": rec.Status})
}

type batchCallRequest struct {
	AgentID string `json:"agentId"`
	// Contacts carries full contact objects; only their ids are used to
	// resolve the caller's own records. ContactIDs is the bare-id shape
	// and stays accepted for older clients.
	Contacts   []batchContactRef `json:"contacts"`
	ContactIDs []string          `json:"contactIds"`
}

type batchContactRef struct {
	ID string `json:"id"`
}

// contactIDList merges both accepted body shapes, preserving order.
func (r batchCallRequest) contactIDList() []string {
	ids := make([]string, 0, len(r.Contacts)+len(r.ContactIDs))
	for _, ref := range r.Contacts {
		if ref.ID != "" {
			ids = append(ids, ref.ID)
		}
	}
	ids = append(ids, r.ContactIDs...)
	return ids
}

// PlaceBatch handles POST /api/calls/batch. Every contact id is attempted
// exactly once; unknown ids count as failed rather than aborting the batch.
func (h Handlers) PlaceBatch(c *gin.Context) {
	userID, _, ok := identity(c)
	if !ok {
		return
	}
	var req batchCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	contactIDs := req.contactIDList()
	if req.AgentID == "" || len(contactIDs) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "agentId and contacts required"})
		return
	}

	var targets []contact.Contact
	missing := 0
	for _, id := range contactIDs {
		ct, err := h.Contacts.Get(c.Request.Context(), userID, id)
		if errors.Is(err, contact.ErrNotFound) {
			missing++
			continue
		}
		if err != nil {
			respondError(c, err)
			return
		}
		targets = append(targets, ct)
	}

	res, err := h.Dispatcher.PlaceBatch(c.Request.Context(), userID, req.AgentID, targets)
	if err != nil {
		respondError(c, err)
		return
	}
	res.Failed += missing
	c.JSON(http.StatusOK, res)
}

// ImportContacts handles PUT /api/calls: multipart CSV upload. With
// deferCalling=false (the default is true) the created contacts are dialed
// immediately and the response carries callDetails.
func (h Handlers) ImportContacts(c *gin.Context) {
	userID, role, ok := identity(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "file required"})
		return
	}
	if fileHeader.Size > maxImportSize {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"message": "file too large"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	sum, err := h.Importer.ImportCSV(c.Request.Context(), userID, io.LimitReader(f, maxImportSize))
	if err != nil {
		respondError(c, err)
		return
	}

	if h.Audit != nil {
		if err := h.Audit.LogContactsImport(c.Request.Context(), userID, userID, role,
			c.ClientIP(), sum.Created, sum.Skipped, sum.Failed); err != nil {
			logger.From(c.Request.Context()).Warn("audit write failed", "err", err)
		}
	}

	resp := gin.H{
		"results": gin.H{
			"created": sum.Created,
			"skipped": sum.Skipped,
			"failed":  sum.Failed,
		},
		"rows":             sum.Results,
		"uploadedContacts": sum.Contacts,
	}

	deferCalling := c.DefaultPostForm("deferCalling", "true") != "false"
	if !deferCalling {
		agentID := c.PostForm("agentId")
		if agentID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "agentId required when deferCalling is false"})
			return
		}
		details, err := h.Dispatcher.PlaceBatch(c.Request.Context(), userID, agentID, sum.Contacts)
		if err != nil {
			respondError(c, err)
			return
		}
		resp["callDetails"] = details
	}

	c.JSON(http.StatusOK, resp)
}

// GetAudio handles GET /api/audio/:conversationId by streaming the recording
// straight from the provider.
func (h Handlers) GetAudio(c *gin.Context) {
	if _, _, ok := identity(c); !ok {
		return
	}
	conversationID := c.Param("conversationId")
	if conversationID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "conversationId required"})
		return
	}

	body, contentType, err := h.Provider.FetchRecording(c.Request.Context(), conversationID)
	if errors.Is(err, voice.ErrRecordingNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "recording not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		logger.From(c.Request.Context()).Warn("audio stream interrupted",
			"conversation_id", conversationID, "err", err)
	}
}
