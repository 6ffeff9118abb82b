package campaign

import (
	"fmt"
	"time"
)

// transitions is the single source of truth for user-triggered status moves.
// Automatic moves (scheduled start time reached, all contacts processed) are
// applied by the runner and call settlement, not through this table.
var transitions = map[Status]map[Action]Status{
	StatusDraft: {
		ActionStart: StatusInProgress,
	},
	StatusScheduled: {
		ActionStart:  StatusInProgress, // manual start ahead of schedule
		ActionCancel: StatusCancelled,
	},
	StatusInProgress: {
		ActionPause:  StatusPaused,
		ActionCancel: StatusCancelled,
	},
	StatusPaused: {
		ActionResume: StatusInProgress,
		ActionCancel: StatusCancelled,
	},
}

// ErrIllegalTransition carries enough context for a useful 4xx message.
type ErrIllegalTransition struct {
	From   Status
	Action Action
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("cannot %s a campaign in status %q", e.Action, e.From)
}

// NextStatus resolves a control action against the transition table.
// The UI only renders legal actions, but its view can be stale; this is the
// defensive re-validation the server owes every caller.
func NextStatus(from Status, action Action) (Status, error) {
	if m, ok := transitions[from]; ok {
		if to, ok := m[action]; ok {
			return to, nil
		}
	}
	return "", &ErrIllegalTransition{From: from, Action: action}
}

// withinDailyWindow reports whether now's wall-clock time falls inside the
// [start, end) window. Empty strings leave that side unbounded. An end before
// start means an overnight window (e.g. 20:00-06:00).
func withinDailyWindow(now time.Time, start, end string) bool {
	if start == "" && end == "" {
		return true
	}

	minutes := now.Hour()*60 + now.Minute()

	parse := func(s string) (int, bool) {
		t, err := time.Parse("15:04", s)
		if err != nil {
			return 0, false
		}
		return t.Hour()*60 + t.Minute(), true
	}

	startMin, haveStart := 0, false
	endMin, haveEnd := 0, false
	if start != "" {
		startMin, haveStart = parse(start)
	}
	if end != "" {
		endMin, haveEnd = parse(end)
	}

	switch {
	case haveStart && haveEnd:
		if startMin <= endMin {
			return minutes >= startMin && minutes < endMin
		}
		// overnight
		return minutes >= startMin || minutes < endMin
	case haveStart:
		return minutes >= startMin
	case haveEnd:
		return minutes < endMin
	default:
		// unparseable window strings never block dispatch; creation validates
		// them, so this only happens with hand-edited rows
		return true
	}
}
