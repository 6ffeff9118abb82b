package audit

import "time"

// Event is an immutable, append-only audit record.
//
// Invariants:
// - Events are never updated or deleted.
// - user_id is required: every record is scoped to the account it concerns.
// - Audit writes are best-effort; callers never fail a business flow on an
//   audit error.
type Event struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"userId" db:"user_id"`

	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event. It differs
	// from UserID when a super_admin acts on another account.
	ActorUserID string `json:"actorUserId,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actorRole,omitempty" db:"actor_role"`

	IPAddress string `json:"ipAddress,omitempty" db:"ip_address"`

	// Target identifiers, set depending on the event type.
	CampaignID string `json:"campaignId,omitempty" db:"campaign_id"`
	AgentID    string `json:"agentId,omitempty" db:"agent_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON with full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type EventType string

const (
	EventTypeCampaignControl EventType = "campaign_control"
	EventTypeContactsDeleted EventType = "contacts_deleted"
	EventTypeContactsImport  EventType = "contacts_import"
	EventTypeAgentDisabled   EventType = "agent_disabled"
)
