package campaign

import "time"

// Campaign is a scheduled, paced batch of calls against a fixed contact set.
//
// TotalContacts is fixed at creation; CompletedCalls only ever grows, bumped
// by call settlement, and never exceeds TotalContacts.
//
// Pacing state (NextDispatchAt, CallsSincePause) is persisted on the row, not
// held in memory, so the control loop survives process restarts.
type Campaign struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"userId" db:"user_id"`

	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`

	AgentID       string `json:"agentId" db:"agent_id"`
	CustomMessage string `json:"customMessage,omitempty" db:"custom_message"`

	TotalContacts  int `json:"totalContacts" db:"total_contacts"`
	CompletedCalls int `json:"completedCalls" db:"completed_calls"`

	Status Status `json:"status" db:"status"`

	ScheduledStartTime *time.Time `json:"scheduledStartTime,omitempty" db:"scheduled_start_time"`

	// Daily calling window, "HH:MM" wall-clock strings. Empty means unbounded
	// on that side. The window gates NEW placements only.
	DailyStartTime string `json:"dailyStartTime,omitempty" db:"daily_start_time"`
	DailyEndTime   string `json:"dailyEndTime,omitempty" db:"daily_end_time"`

	MaxConcurrentCalls int `json:"maxConcurrentCalls" db:"max_concurrent_calls"`

	// After every CallsBetweenPause placements, dispatching rests for
	// PauseDurationMinutes. Zero disables the rest.
	CallsBetweenPause    int `json:"callsBetweenPause,omitempty" db:"calls_between_pause"`
	PauseDurationMinutes int `json:"pauseDuration,omitempty" db:"pause_duration_minutes"`

	NextDispatchAt  *time.Time `json:"-" db:"next_dispatch_at"`
	CallsSincePause int        `json:"-" db:"calls_since_pause"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type Status string

const (
	StatusDraft      Status = "draft"
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in-progress"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Action is a user-triggered control verb.
type Action string

const (
	ActionStart  Action = "start"
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionCancel Action = "cancel"
)
