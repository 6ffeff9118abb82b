package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"voiceagent-platform/internal/agent"
	"voiceagent-platform/internal/call"
	"voiceagent-platform/internal/config"
	"voiceagent-platform/internal/contact"
	"voiceagent-platform/internal/metrics"
	"voiceagent-platform/internal/voice"
	"voiceagent-platform/pkg/logger"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// CallStore is the slice of call.Service the dispatcher needs.
type CallStore interface {
	Create(ctx context.Context, c call.Call) (call.Call, error)
	ApplyEvent(ctx context.Context, ev call.Event) (call.Call, bool, error)
}

// AgentDirectory resolves agents and rejects disabled ones.
type AgentDirectory interface {
	GetEnabled(ctx context.Context, userID, agentID string) (agent.Agent, error)
}

var (
	ErrInvalidArgument = errors.New("invalid argument")
)

// Dispatcher places calls through the voice provider.
//
// Failure semantics:
// - validation failures (unknown/disabled agent, bad phone) reject fast and
//   create no call row;
// - provider failures AFTER the row exists settle the call as failed and are
//   not an error to the caller; the request to dispatch succeeded.
type Dispatcher struct {
	calls    CallStore
	agents   AgentDirectory
	provider voice.Provider

	pool *ants.Pool
}

func New(calls CallStore, agents AgentDirectory, provider voice.Provider, cfg config.DispatchConfig) (*Dispatcher, error) {
	if calls == nil || agents == nil || provider == nil {
		return nil, errors.New("dispatch: nil dependency")
	}

	pool, err := ants.NewPool(cfg.PoolSize,
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(cfg.QueueSize),
		ants.WithPanicHandler(func(p any) {
			logger.From(context.Background()).Error("panic in dispatch worker", "panic", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dispatch: create worker pool: %w", err)
	}

	return &Dispatcher{calls: calls, agents: agents, provider: provider, pool: pool}, nil
}

// Release tears down the worker pool. In-flight placements finish first.
func (d *Dispatcher) Release() {
	if d.pool != nil {
		d.pool.Release()
	}
}

type PlaceCallRequest struct {
	UserID  string
	AgentID string

	PhoneNumber string
	ContactName string
	ContactID   string

	// CampaignID ties the call to a campaign; the campaign runner is the only
	// caller that sets it, after acquiring a concurrency slot.
	CampaignID string

	CustomMessage string

	// Origin labels metrics: direct, batch or campaign.
	Origin string
}

// PlaceCall validates, persists a queued call and hands it to the provider.
//
// On provider failure the returned call has status failed and err is nil.
// When an error is returned after the row was created (a storage failure
// while recording the outcome), the partial row is returned alongside it so
// callers can tell a rejection (err != nil, empty ID) from a call that
// exists in an unsettled state (err != nil, non-empty ID).
func (d *Dispatcher) PlaceCall(ctx context.Context, req PlaceCallRequest) (call.Call, error) {
	if req.UserID == "" || req.AgentID == "" {
		return call.Call{}, ErrInvalidArgument
	}
	if err := call.ValidatePhoneNumber(req.PhoneNumber); err != nil {
		metrics.DispatchRejected("invalid_phone")
		return call.Call{}, err
	}

	ag, err := d.agents.GetEnabled(ctx, req.UserID, req.AgentID)
	if err != nil {
		metrics.DispatchRejected("agent")
		return call.Call{}, err
	}

	rec, err := d.calls.Create(ctx, call.Call{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		AgentID:     req.AgentID,
		CampaignID:  req.CampaignID,
		ContactID:   req.ContactID,
		ContactName: req.ContactName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return call.Call{}, err
	}

	res, err := d.provider.StartCall(ctx, voice.StartCallRequest{
		CallID:        rec.ID,
		AgentID:       ag.ID,
		VoiceID:       ag.VoiceID,
		PhoneNumber:   req.PhoneNumber,
		ContactName:   req.ContactName,
		FirstMessage:  ag.ConversationConfig.FirstMessage,
		CustomMessage: req.CustomMessage,
	})
	if err != nil {
		logger.From(ctx).Warn("provider start-call failed",
			"call_id", rec.ID, "agent_id", ag.ID, "err", err)
		failed, _, applyErr := d.calls.ApplyEvent(ctx, call.Event{
			CallID: rec.ID,
			UserID: req.UserID,
			Status: call.StatusFailed,
		})
		if applyErr != nil {
			return rec, applyErr
		}
		return failed, nil
	}

	initiated, _, err := d.calls.ApplyEvent(ctx, call.Event{
		CallID:         rec.ID,
		UserID:         req.UserID,
		Status:         call.StatusInitiated,
		ConversationID: res.ConversationID,
		Timestamp:      res.AcceptedAt,
	})
	if err != nil {
		return rec, err
	}

	origin := req.Origin
	if origin == "" {
		origin = "direct"
	}
	metrics.CallPlaced(origin)
	return initiated, nil
}

// BatchResult aggregates independent per-contact attempts.
// Initiated+Failed always equals the input size.
type BatchResult struct {
	Initiated int `json:"initiated"`
	Failed    int `json:"failed"`
}

// PlaceBatch attempts a call for every contact on the worker pool.
// Each contact is attempted exactly once; failures are counted, never
// retried, and never abort the rest of the batch.
func (d *Dispatcher) PlaceBatch(ctx context.Context, userID, agentID string, contacts []contact.Contact) (BatchResult, error) {
	if userID == "" || agentID == "" {
		return BatchResult{}, ErrInvalidArgument
	}
	if len(contacts) == 0 {
		return BatchResult{}, nil
	}

	// One upfront agent check so an unknown/disabled agent rejects the batch
	// as a whole instead of producing N identical failures.
	if _, err := d.agents.GetEnabled(ctx, userID, agentID); err != nil {
		return BatchResult{}, err
	}

	var initiated, failed atomic.Int64
	var wg sync.WaitGroup

	for _, ct := range contacts {
		ct := ct
		wg.Add(1)
		submitErr := d.pool.Submit(func() {
			defer wg.Done()
			placed, err := d.PlaceCall(ctx, PlaceCallRequest{
				UserID:      userID,
				AgentID:     agentID,
				PhoneNumber: ct.PhoneNumber,
				ContactName: ct.Name,
				ContactID:   ct.ID,
				Origin:      "batch",
			})
			if err != nil || placed.Status == call.StatusFailed {
				failed.Add(1)
				return
			}
			initiated.Add(1)
		})
		if submitErr != nil {
			wg.Done()
			failed.Add(1)
		}
	}
	wg.Wait()

	return BatchResult{
		Initiated: int(initiated.Load()),
		Failed:    int(failed.Load()),
	}, nil
}
