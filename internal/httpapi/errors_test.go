package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"voiceagent-platform/internal/agent"
	"voiceagent-platform/internal/call"
	"voiceagent-platform/internal/campaign"
	"voiceagent-platform/internal/contact"
	"voiceagent-platform/internal/ingest"

	"github.com/gin-gonic/gin"
)

func respondWith(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) { respondError(c, err) })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRespondError_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"call not found", call.ErrNotFound, http.StatusNotFound},
		{"contact not found", contact.ErrNotFound, http.StatusNotFound},
		{"campaign not found", campaign.ErrNotFound, http.StatusNotFound},
		{"agent not found", agent.ErrNotFound, http.StatusNotFound},
		{"invalid phone", call.ErrInvalidPhone, http.StatusBadRequest},
		{"agent disabled", agent.ErrAgentDisabled, http.StatusBadRequest},
		{"unknown contacts", campaign.ErrUnknownContacts, http.StatusBadRequest},
		{"empty csv", ingest.ErrEmptyFile, http.StatusBadRequest},
		{"illegal transition", &campaign.ErrIllegalTransition{From: campaign.StatusCompleted, Action: campaign.ActionStart}, http.StatusConflict},
		{"unknown error", errors.New("kaboom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := respondWith(t, tc.err)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}

			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not json: %v", err)
			}
			if body["message"] == "" {
				t.Fatalf("body must carry a message: %s", w.Body.String())
			}
		})
	}
}

func TestRespondError_InternalErrorsAreOpaque(t *testing.T) {
	w := respondWith(t, errors.New("pq: connection refused to db-prod-3"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["message"] != "internal error" {
		t.Fatalf("internal details must not leak: %q", body["message"])
	}
}

func TestRespondError_IllegalTransitionMessage(t *testing.T) {
	w := respondWith(t, &campaign.ErrIllegalTransition{
		From: campaign.StatusCancelled, Action: campaign.ActionResume,
	})
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["message"] != `cannot resume a campaign in status "cancelled"` {
		t.Fatalf("unexpected message: %q", body["message"])
	}
}
