package call

import "testing"

func TestCanTransition_ForwardOnly(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusQueued, StatusInitiated, true},
		{StatusQueued, StatusInProgress, true}, // out-of-order provider events skip ahead
		{StatusQueued, StatusFailed, true},
		{StatusInitiated, StatusInProgress, true},
		{StatusInitiated, StatusNoAnswer, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusQueued, false},
		{StatusInProgress, StatusInitiated, false},
		{StatusInProgress, StatusInProgress, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanTransition_TerminalAbsorbs(t *testing.T) {
	terminals := []Status{StatusCompleted, StatusFailed, StatusNoAnswer}
	all := []Status{StatusQueued, StatusInitiated, StatusInProgress, StatusCompleted, StatusFailed, StatusNoAnswer}
	for _, from := range terminals {
		if !from.IsTerminal() {
			t.Fatalf("expected %s terminal", from)
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Fatalf("terminal %s must not transition to %s", from, to)
			}
		}
	}
}

func TestStatus_IsValid(t *testing.T) {
	if Status("ringing").IsValid() {
		t.Fatalf("unknown status accepted")
	}
	if !StatusNoAnswer.IsValid() {
		t.Fatalf("known status rejected")
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	valid := []string{"+14155550123", "4155550123", "+919876543210"}
	for _, n := range valid {
		if err := ValidatePhoneNumber(n); err != nil {
			t.Fatalf("expected %q valid: %v", n, err)
		}
	}
	invalid := []string{"", "abc", "+1 415 555", "555-0123", "+123456789012345678"}
	for _, n := range invalid {
		if err := ValidatePhoneNumber(n); err == nil {
			t.Fatalf("expected %q invalid", n)
		}
	}
}
