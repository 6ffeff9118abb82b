package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"voiceagent-platform/internal/call"
)

var testNow = time.Unix(1700000000, 0).UTC()

func seedRepo() *MemoryRepo {
	repo := NewMemoryRepo()
	mk := func(status call.Status, dur int, cost int64, campaignID string) call.Call {
		return call.Call{
			UserID:          "u1",
			CampaignID:      campaignID,
			Status:          status,
			DurationSeconds: dur,
			CostMinor:       cost,
			Currency:        "USD",
			CreatedAt:       testNow,
		}
	}
	repo.Calls = []call.Call{
		mk(call.StatusCompleted, 120, 60, "camp-1"),
		mk(call.StatusCompleted, 60, 30, "camp-1"),
		mk(call.StatusFailed, 0, 0, "camp-1"),
		mk(call.StatusNoAnswer, 0, 0, ""),
		mk(call.StatusInProgress, 0, 0, ""),
		mk(call.StatusQueued, 0, 0, ""),
		{UserID: "other", Status: call.StatusCompleted, CreatedAt: testNow},
	}
	repo.ContactCount = 42
	repo.AgentCount = 3
	repo.ActiveCount = 2
	return repo
}

func window() TimeRange {
	return TimeRange{From: testNow.Add(-time.Hour), To: testNow.Add(time.Hour)}
}

func TestCallsSummary(t *testing.T) {
	svc := NewService(seedRepo())

	sum, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		UserID: "u1", Range: window(),
	})
	if err != nil {
		t.Fatalf("CallsSummary: %v", err)
	}

	if sum.TotalCalls != 6 {
		t.Fatalf("total = %d, want 6 (other users excluded)", sum.TotalCalls)
	}
	if sum.CompletedCalls != 2 || sum.FailedCalls != 1 || sum.NoAnswerCalls != 1 {
		t.Fatalf("unexpected terminal counts: %+v", sum)
	}
	if sum.InProgressCalls != 1 || sum.PendingCalls != 1 {
		t.Fatalf("unexpected live counts: %+v", sum)
	}
	if sum.TotalDurationSeconds != 180 || sum.AverageDurationSeconds != 30 {
		t.Fatalf("unexpected durations: %+v", sum)
	}
	if sum.TotalCostMinor != 90 || sum.Currency != "USD" {
		t.Fatalf("unexpected cost: %+v", sum)
	}
	if want := 2.0 / 4.0; sum.SuccessRate != want {
		t.Fatalf("success rate = %v, want %v", sum.SuccessRate, want)
	}
}

func TestCallsSummary_CampaignFilter(t *testing.T) {
	svc := NewService(seedRepo())

	sum, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		UserID: "u1", Range: window(), CampaignID: "camp-1",
	})
	if err != nil {
		t.Fatalf("CallsSummary: %v", err)
	}
	if sum.TotalCalls != 3 || sum.CompletedCalls != 2 || sum.FailedCalls != 1 {
		t.Fatalf("unexpected campaign summary: %+v", sum)
	}
}

func TestCallsSummary_Validation(t *testing.T) {
	svc := NewService(seedRepo())

	if _, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{Range: window()}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("missing user: got %v", err)
	}
	bad := CallsSummaryRequest{UserID: "u1", Range: TimeRange{From: testNow, To: testNow}}
	if _, err := svc.CallsSummary(context.Background(), bad); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("empty range: got %v", err)
	}
}

func TestDashboard(t *testing.T) {
	svc := NewService(seedRepo())

	stats, err := svc.Dashboard(context.Background(), "u1", window())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if stats.TotalContacts != 42 || stats.TotalAgents != 3 || stats.ActiveCampaigns != 2 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.Calls.TotalCalls != 6 {
		t.Fatalf("dashboard must embed the calls summary: %+v", stats.Calls)
	}
}
