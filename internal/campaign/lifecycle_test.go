package campaign

import (
	"errors"
	"testing"
	"time"
)

func TestNextStatus_LegalTransitions(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
		want   Status
	}{
		{StatusDraft, ActionStart, StatusInProgress},
		{StatusScheduled, ActionStart, StatusInProgress},
		{StatusScheduled, ActionCancel, StatusCancelled},
		{StatusInProgress, ActionPause, StatusPaused},
		{StatusInProgress, ActionCancel, StatusCancelled},
		{StatusPaused, ActionResume, StatusInProgress},
		{StatusPaused, ActionCancel, StatusCancelled},
	}
	for _, tc := range cases {
		got, err := NextStatus(tc.from, tc.action)
		if err != nil {
			t.Fatalf("NextStatus(%s, %s): %v", tc.from, tc.action, err)
		}
		if got != tc.want {
			t.Fatalf("NextStatus(%s, %s) = %s, want %s", tc.from, tc.action, got, tc.want)
		}
	}
}

func TestNextStatus_IllegalTransitionsRejected(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
	}{
		{StatusDraft, ActionPause},
		{StatusDraft, ActionResume},
		{StatusDraft, ActionCancel},
		{StatusInProgress, ActionStart},
		{StatusInProgress, ActionResume},
		{StatusPaused, ActionStart},
		{StatusPaused, ActionPause},
		{StatusCompleted, ActionStart},
		{StatusCompleted, ActionCancel},
		{StatusCancelled, ActionResume},
		{StatusCancelled, ActionCancel},
	}
	for _, tc := range cases {
		_, err := NextStatus(tc.from, tc.action)
		if err == nil {
			t.Fatalf("NextStatus(%s, %s): expected error", tc.from, tc.action)
		}
		var illegal *ErrIllegalTransition
		if !errors.As(err, &illegal) {
			t.Fatalf("expected ErrIllegalTransition, got %T", err)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	if !StatusCompleted.IsTerminal() || !StatusCancelled.IsTerminal() {
		t.Fatalf("completed and cancelled must be terminal")
	}
	for _, s := range []Status{StatusDraft, StatusScheduled, StatusInProgress, StatusPaused} {
		if s.IsTerminal() {
			t.Fatalf("%s must not be terminal", s)
		}
	}
}

func TestWithinDailyWindow(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
	}

	cases := []struct {
		now        time.Time
		start, end string
		want       bool
	}{
		{at(10, 0), "", "", true},
		{at(10, 0), "09:00", "17:00", true},
		{at(8, 59), "09:00", "17:00", false},
		{at(17, 0), "09:00", "17:00", false}, // end is exclusive
		{at(23, 0), "20:00", "06:00", true},  // overnight window
		{at(3, 0), "20:00", "06:00", true},
		{at(12, 0), "20:00", "06:00", false},
		{at(5, 0), "09:00", "", false},
		{at(9, 0), "09:00", "", true},
		{at(5, 0), "", "06:00", true},
		{at(7, 0), "", "06:00", false},
	}
	for _, tc := range cases {
		if got := withinDailyWindow(tc.now, tc.start, tc.end); got != tc.want {
			t.Fatalf("withinDailyWindow(%s, %q, %q) = %v, want %v",
				tc.now.Format("15:04"), tc.start, tc.end, got, tc.want)
		}
	}
}
