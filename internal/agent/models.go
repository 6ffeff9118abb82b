package agent

import "time"

// Agent is a configured AI voice persona. Read-mostly: the dashboard lists
// agents and toggles disabled; usage_minutes is rolled up by call settlement.
//
// JSON shape follows the provider-style snake_case the dashboard consumes
// (conversation_config nesting included).
type Agent struct {
	ID     string `json:"agent_id" db:"id"`
	UserID string `json:"-" db:"user_id"`

	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
	Disabled    bool   `json:"disabled" db:"disabled"`

	ConversationConfig ConversationConfig `json:"conversation_config"`

	VoiceID      string `json:"voice_id" db:"voice_id"`
	UsageMinutes int    `json:"usage_minutes,omitempty" db:"usage_minutes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type ConversationConfig struct {
	FirstMessage string `json:"first_message,omitempty" db:"first_message"`
}
