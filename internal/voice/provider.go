package voice

import (
	"context"
	"io"
	"time"
)

// Provider defines the provider-agnostic interface used by business logic.
//
// Rules:
// - No provider SDK/HTTP calls outside voice adapters.
// - Requests must carry the internal call id so webhook events can be
//   correlated even before a conversation id exists.
// - Keep request/response types provider-agnostic; raw payloads stay in the
//   adapter.
type Provider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	// StartCall asks the provider to begin an outbound conversational call.
	// A returned error means the call was NOT accepted for dispatch.
	StartCall(ctx context.Context, req StartCallRequest) (StartCallResult, error)

	// FetchRecording streams the audio recording for a conversation.
	// The caller owns closing the reader.
	FetchRecording(ctx context.Context, conversationID string) (io.ReadCloser, string, error)
}

type StartCallRequest struct {
	// CallID is the internal call identifier, echoed back in webhook events.
	CallID string `json:"call_id"`

	AgentID     string `json:"agent_id"`
	VoiceID     string `json:"voice_id,omitempty"`
	PhoneNumber string `json:"phone_number"`
	ContactName string `json:"contact_name,omitempty"`

	// FirstMessage overrides the agent's configured opener; CustomMessage is
	// the campaign-level override and wins when both are set.
	FirstMessage  string `json:"first_message,omitempty"`
	CustomMessage string `json:"custom_message,omitempty"`
}

type StartCallResult struct {
	// ConversationID is the provider-side id for this call.
	ConversationID string `json:"conversation_id"`

	// AcceptedAt is the provider's acceptance time, when reported.
	AcceptedAt time.Time `json:"accepted_at,omitempty"`
}

// StatusEvent is a provider lifecycle callback, already verified and parsed.
type StatusEvent struct {
	ConversationID string `json:"conversation_id"`
	CallID         string `json:"call_id,omitempty"`

	// Status uses the provider's vocabulary; MapStatus converts it.
	Status string `json:"status"`

	Timestamp       time.Time `json:"timestamp"`
	DurationSeconds int       `json:"duration_secs,omitempty"`
	Transcription   string    `json:"transcription,omitempty"`
	Summary         string    `json:"summary,omitempty"`
	Outcome         string    `json:"outcome,omitempty"`
}
