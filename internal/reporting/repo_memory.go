package reporting

import (
	"context"
	"sync"
	"time"

	"voiceagent-platform/internal/call"
)

// MemoryRepo is an in-memory reporting repository for tests.
type MemoryRepo struct {
	mu    sync.Mutex
	Calls []call.Call

	ContactCount int
	AgentCount   int
	ActiveCount  int
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListCalls(_ context.Context, userID string, from, to time.Time, campaignID string) ([]call.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []call.Call
	for _, c := range r.Calls {
		if c.UserID != userID {
			continue
		}
		if campaignID != "" && c.CampaignID != campaignID {
			continue
		}
		if c.CreatedAt.Before(from) || !c.CreatedAt.Before(to) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *MemoryRepo) Counts(_ context.Context, _ string) (int, int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ContactCount, r.AgentCount, r.ActiveCount, nil
}
