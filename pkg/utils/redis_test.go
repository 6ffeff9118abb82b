package utils

import (
	"context"
	"testing"
	"time"
)

func TestCallSlotScriptsDefined(t *testing.T) {
	if callSlotAcquireScript == nil || callSlotReleaseScript == nil {
		t.Fatalf("call slot scripts must be initialized")
	}
}

func TestCampaignSlotKey(t *testing.T) {
	if got := CampaignSlotKey("camp-1"); got != "campaign:slots:camp-1" {
		t.Fatalf("CampaignSlotKey = %q", got)
	}
}

// The argument checks run before any Redis round-trip, so a nil client is
// safe for every case here.
func TestAcquireCallSlotRejectsBadArguments(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name  string
		key   string
		limit int
		ttl   time.Duration
	}{
		{"empty key", "", 1, time.Minute},
		{"zero limit", "campaign:slots:c1", 0, time.Minute},
		{"negative limit", "campaign:slots:c1", -1, time.Minute},
		{"zero ttl", "campaign:slots:c1", 1, 0},
	}
	for _, tc := range cases {
		if _, err := AcquireCallSlot(ctx, nil, tc.key, tc.limit, tc.ttl); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}

	if _, err := AcquireCallSlot(ctx, nil, "campaign:slots:c1", 1, time.Minute); err == nil {
		t.Fatalf("nil client: expected error")
	}
}

func TestReleaseCallSlotRejectsBadArguments(t *testing.T) {
	ctx := context.Background()

	if err := ReleaseCallSlot(ctx, nil, "campaign:slots:c1"); err == nil {
		t.Fatalf("nil client: expected error")
	}
}
