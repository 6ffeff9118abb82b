package reporting

import (
	"context"
	"errors"
	"time"

	"voiceagent-platform/internal/call"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts read access for reporting. Implementations must
// filter by user: reporting never crosses account boundaries.
type Repository interface {
	ListCalls(ctx context.Context, userID string, from, to time.Time, campaignID string) ([]call.Call, error)
	Counts(ctx context.Context, userID string) (contacts, agents, activeCampaigns int, err error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if req.UserID == "" {
		return CallsSummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return CallsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListCalls(ctx, req.UserID, req.Range.From, req.Range.To, req.CampaignID)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{UserID: req.UserID, CampaignID: req.CampaignID}
	terminal := 0
	for _, c := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += c.DurationSeconds
		out.TotalCostMinor += c.CostMinor
		if out.Currency == "" && c.Currency != "" {
			out.Currency = c.Currency
		}
		switch c.Status {
		case call.StatusCompleted:
			out.CompletedCalls++
			terminal++
		case call.StatusFailed:
			out.FailedCalls++
			terminal++
		case call.StatusNoAnswer:
			out.NoAnswerCalls++
			terminal++
		case call.StatusInProgress:
			out.InProgressCalls++
		case call.StatusQueued, call.StatusInitiated:
			out.PendingCalls++
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	if terminal > 0 {
		out.SuccessRate = float64(out.CompletedCalls) / float64(terminal)
	}
	return out, nil
}

// Dashboard builds the home-page aggregate for one user.
func (s *Service) Dashboard(ctx context.Context, userID string, rng TimeRange) (DashboardStats, error) {
	summary, err := s.CallsSummary(ctx, CallsSummaryRequest{UserID: userID, Range: rng})
	if err != nil {
		return DashboardStats{}, err
	}

	contacts, agents, active, err := s.repo.Counts(ctx, userID)
	if err != nil {
		return DashboardStats{}, err
	}
	return DashboardStats{
		Calls:           summary,
		TotalContacts:   contacts,
		TotalAgents:     agents,
		ActiveCampaigns: active,
	}, nil
}
