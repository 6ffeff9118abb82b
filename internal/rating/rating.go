package rating

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNoRate = errors.New("no rate configured")

// Rate prices voice minutes for one agent. Zero AgentID means the user's
// default rate.
type Rate struct {
	UserID  string
	AgentID string

	// PerMinuteMinor is the price of one connected minute in the currency's
	// minor unit (cents). Partial minutes round up.
	PerMinuteMinor int64
	Currency       string

	EffectiveFrom time.Time
}

// Repository resolves the rate in force for a call.
type Repository interface {
	// Resolve returns the most specific rate effective at the given time:
	// agent-specific first, then the user default.
	Resolve(ctx context.Context, userID, agentID string, at time.Time) (Rate, error)
}

// MemoryRepo holds rates in memory. Rates change rarely enough that they are
// loaded once at startup; a SQL-backed repository can replace this without
// touching the service.
type MemoryRepo struct {
	mu    sync.RWMutex
	rates []Rate
}

func NewMemoryRepo(rates ...Rate) *MemoryRepo {
	return &MemoryRepo{rates: rates}
}

func (r *MemoryRepo) Put(rate Rate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rates = append(r.rates, rate)
}

func (r *MemoryRepo) Resolve(_ context.Context, userID, agentID string, at time.Time) (Rate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best Rate
	found := false
	pick := func(wantAgent string) {
		for _, rate := range r.rates {
			if rate.UserID != userID || rate.AgentID != wantAgent {
				continue
			}
			if rate.EffectiveFrom.After(at) {
				continue
			}
			if !found || rate.EffectiveFrom.After(best.EffectiveFrom) {
				best = rate
				found = true
			}
		}
	}

	pick(agentID)
	if !found {
		pick("")
	}
	if !found {
		return Rate{}, ErrNoRate
	}
	return best, nil
}

// Service computes call costs. It implements call.Rater.
type Service struct {
	repo Repository

	// fallback applies when the repository has nothing for the user.
	// A zero fallback means unrated calls settle with no cost.
	fallback Rate
}

func NewService(repo Repository, fallback Rate) *Service {
	return &Service{repo: repo, fallback: fallback}
}

// RateCall prices a completed call. Duration rounds up to whole minutes, the
// same rounding used for agent usage accounting.
func (s *Service) RateCall(ctx context.Context, userID, agentID string, durationSeconds int, at time.Time) (int64, string, error) {
	if durationSeconds <= 0 {
		return 0, "", nil
	}

	rate, err := s.repo.Resolve(ctx, userID, agentID, at)
	if errors.Is(err, ErrNoRate) {
		if s.fallback.PerMinuteMinor == 0 {
			return 0, "", nil
		}
		rate = s.fallback
	} else if err != nil {
		return 0, "", err
	}

	minutes := int64((durationSeconds + 59) / 60)
	return minutes * rate.PerMinuteMinor, rate.Currency, nil
}
