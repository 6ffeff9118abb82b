package call

import "time"

// Call represents one outbound voice-agent call, owned by a user.
//
// Status is a closed set with a central transition table (transitions.go).
// Call sites must never compare/assign raw strings outside this package's
// constants, and must route every status change through Service.ApplyEvent
// so monotonicity is enforced in one place.
//
// JSON field names follow the dashboard wire contract (camelCase).
type Call struct {
	ID         string `json:"id" db:"id"`
	UserID     string `json:"userId" db:"user_id"`
	AgentID    string `json:"agentId" db:"agent_id"`
	CampaignID string `json:"campaignId,omitempty" db:"campaign_id"`
	ContactID  string `json:"contactId,omitempty" db:"contact_id"`

	ContactName string `json:"contactName" db:"contact_name"`
	PhoneNumber string `json:"phoneNumber" db:"phone_number"`

	Status Status `json:"status" db:"status"`

	StartTime *time.Time `json:"startTime,omitempty" db:"start_time"`
	EndTime   *time.Time `json:"endTime,omitempty" db:"end_time"`

	// DurationSeconds is populated only when the call completes.
	DurationSeconds int `json:"duration,omitempty" db:"duration_seconds"`

	// CostMinor is the rated cost in minor units (see internal/rating).
	CostMinor int64  `json:"costMinor,omitempty" db:"cost_minor"`
	Currency  string `json:"currency,omitempty" db:"currency"`

	Transcription string `json:"transcription,omitempty" db:"transcription"`
	Summary       string `json:"summary,omitempty" db:"summary"`
	Outcome       string `json:"outcome,omitempty" db:"outcome"`

	// ConversationID is the provider-side id; it keys recording playback.
	ConversationID string `json:"conversationId,omitempty" db:"conversation_id"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type Status string

// Wire values are the hyphenated strings the dashboard renders.
const (
	StatusQueued     Status = "queued"
	StatusInitiated  Status = "initiated"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusNoAnswer   Status = "no-answer"
)

// ListFilter narrows List queries. Zero values mean "no filter".
type ListFilter struct {
	Search     string // matches contact name or phone number
	Status     Status
	CampaignID string
	StartDate  time.Time
	EndDate    time.Time

	Page  int
	Limit int
}

// Page is the paginated list envelope the dashboard expects.
type Page struct {
	Calls      []Call     `json:"calls"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	Pages int `json:"pages"`
	Page  int `json:"page"`
	Total int `json:"total"`
}
