package voice

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"voiceagent-platform/internal/call"
	"voiceagent-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

const signatureHeader = "X-Voice-Signature"

// EventApplier is the lifecycle sink for provider events.
// Implemented by call.Service.
type EventApplier interface {
	ApplyEvent(ctx context.Context, ev call.Event) (call.Call, bool, error)
}

// WebhookHandler converts provider status callbacks to internal call events.
//
// No business logic here: signature check, parse, map, delegate.
// Duplicate deliveries are acknowledged with 200 so the provider stops
// retrying; the applier is the idempotency authority.
type WebhookHandler struct {
	Secret  string
	Applier EventApplier
}

// MapStatus converts the provider status vocabulary to the internal one.
func MapStatus(s string) (call.Status, bool) {
	switch s {
	case "initiated", "ringing":
		return call.StatusInitiated, true
	case "in-progress", "answered":
		return call.StatusInProgress, true
	case "completed", "done":
		return call.StatusCompleted, true
	case "failed", "error", "busy":
		return call.StatusFailed, true
	case "no-answer", "unanswered", "voicemail":
		return call.StatusNoAnswer, true
	default:
		return "", false
	}
}

// VerifySignature checks the hex HMAC-SHA256 of the raw body.
func VerifySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (h WebhookHandler) HandleStatusEvent(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Applier == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "event applier not configured"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "unreadable body"})
		return
	}

	// Secret may be empty outside production; then the check is skipped.
	if h.Secret != "" && !VerifySignature(h.Secret, body, c.GetHeader(signatureHeader)) {
		log.Warn("voice webhook signature mismatch")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "bad signature"})
		return
	}

	var ev StatusEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}
	if ev.ConversationID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "conversation_id required"})
		return
	}

	status, ok := MapStatus(ev.Status)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "unknown status"})
		return
	}

	_, applied, err := h.Applier.ApplyEvent(c.Request.Context(), call.Event{
		ConversationID:  ev.ConversationID,
		Status:          status,
		Timestamp:       ev.Timestamp,
		DurationSeconds: ev.DurationSeconds,
		Transcription:   ev.Transcription,
		Summary:         ev.Summary,
		Outcome:         ev.Outcome,
	})
	if err != nil {
		if errors.Is(err, call.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "unknown conversation"})
			return
		}
		log.Error("voice event apply failed", "conversation_id", ev.ConversationID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "event apply failed"})
		return
	}

	if !applied {
		log.Debug("duplicate or stale voice event", "conversation_id", ev.ConversationID, "status", ev.Status)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
