package campaign

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"voiceagent-platform/internal/agent"
	"voiceagent-platform/internal/call"
	"voiceagent-platform/internal/config"
	"voiceagent-platform/internal/dispatch"
	"voiceagent-platform/internal/metrics"
	"voiceagent-platform/pkg/logger"
	"voiceagent-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// staleClaimAge is how long a contact may sit in 'placing' before the runner
// assumes the claiming process died and requeues it. Claims normally resolve
// within one provider round-trip.
const staleClaimAge = 5 * time.Minute

// CallPlacer is the slice of dispatch.Dispatcher the runner needs.
type CallPlacer interface {
	PlaceCall(ctx context.Context, req dispatch.PlaceCallRequest) (call.Call, error)
}

// isRejection reports whether a placement error means the contact itself is
// undialable, as opposed to an infrastructure failure worth retrying.
func isRejection(err error) bool {
	return errors.Is(err, call.ErrInvalidPhone) ||
		errors.Is(err, call.ErrInvalidArgument) ||
		errors.Is(err, agent.ErrNotFound) ||
		errors.Is(err, agent.ErrAgentDisabled) ||
		errors.Is(err, dispatch.ErrInvalidArgument)
}

// Runner is the poll-driven campaign control loop.
//
// All scheduling state lives in Postgres (status, next_dispatch_at,
// calls_since_pause) and Redis (concurrency slots), never in memory, so a
// restarted process picks up exactly where the old one stopped. The loop
// re-reads each campaign before every placement, which is how a cancel or
// pause lands mid-batch: in-flight calls finish, new placements stop.
type Runner struct {
	db     *sql.DB
	rdb    *redis.Client
	placer CallPlacer
	cfg    config.RunnerConfig
	clock  func() time.Time

	stop chan struct{}
	done sync.WaitGroup
}

func NewRunner(db *sql.DB, rdb *redis.Client, placer CallPlacer, cfg config.RunnerConfig) *Runner {
	return &Runner{
		db:     db,
		rdb:    rdb,
		placer: placer,
		cfg:    cfg,
		clock:  time.Now,
		stop:   make(chan struct{}),
	}
}

// Start launches the poll loop. Stop waits for an in-flight tick to finish.
func (r *Runner) Start(ctx context.Context) {
	r.done.Add(1)
	go func() {
		defer r.done.Done()
		ticker := time.NewTicker(r.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
				r.tick(ctx)
			}
		}
	}()
}

func (r *Runner) Stop() {
	close(r.stop)
	r.done.Wait()
}

func (r *Runner) tick(ctx context.Context) {
	started := r.clock()
	defer func() {
		metrics.ObserveRunnerTick(r.clock().Sub(started).Seconds())
	}()

	log := logger.From(ctx)
	now := r.clock().UTC()

	if n, err := requeueStaleClaims(ctx, r.db, now.Add(-staleClaimAge)); err != nil {
		log.Error("requeue stale claims failed", "err", err)
	} else if n > 0 {
		log.Warn("requeued stale campaign contacts", "count", n)
	}

	if n, err := promoteScheduled(ctx, r.db, now); err != nil {
		log.Error("promote scheduled campaigns failed", "err", err)
	} else if n > 0 {
		log.Info("scheduled campaigns started", "count", n)
	}

	due, err := listDueCampaigns(ctx, r.db, now)
	if err != nil {
		log.Error("list due campaigns failed", "err", err)
		return
	}

	for _, c := range due {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		default:
		}
		initiated, failed, err := r.DispatchPass(ctx, c.UserID, c.ID)
		if err != nil {
			log.Error("campaign dispatch pass failed", "campaign_id", c.ID, "err", err)
			continue
		}
		if initiated+failed > 0 {
			log.Info("campaign dispatch pass",
				"campaign_id", c.ID, "initiated", initiated, "failed", failed)
		}
	}
}

// DispatchPass places calls for one campaign until a stop condition: cap
// reached, window closed, pacing rest due, no pending contacts, or the
// campaign left in-progress. Also run directly after a start/resume control
// so the caller gets immediate counts instead of waiting a poll interval.
func (r *Runner) DispatchPass(ctx context.Context, userID, campaignID string) (initiated, failed int, err error) {
	for {
		placed, outcome, err := r.placeOne(ctx, userID, campaignID)
		if err != nil {
			return initiated, failed, err
		}
		switch outcome {
		case outcomeInitiated:
			initiated++
		case outcomeFailed:
			failed++
		}
		if !placed {
			return initiated, failed, nil
		}
	}
}

type placeOutcome int

const (
	outcomeNone placeOutcome = iota
	outcomeInitiated
	outcomeFailed
)

// placeOne attempts a single placement. Returns placed=false when the pass
// should stop; a placement may still have been counted (the pacing rest
// kicks in after a successful placement).
func (r *Runner) placeOne(ctx context.Context, userID, campaignID string) (placed bool, outcome placeOutcome, err error) {
	now := r.clock().UTC()

	// Fresh read every iteration so pause/cancel takes effect mid-pass.
	c, err := getCampaign(ctx, r.db, userID, campaignID)
	if err != nil {
		return false, outcomeNone, err
	}
	if c.Status != StatusInProgress {
		return false, outcomeNone, nil
	}
	if !withinDailyWindow(now, c.DailyStartTime, c.DailyEndTime) {
		return false, outcomeNone, nil
	}
	if c.NextDispatchAt != nil && c.NextDispatchAt.After(now) {
		return false, outcomeNone, nil
	}

	key := utils.CampaignSlotKey(c.ID)
	ok, err := utils.AcquireCallSlot(ctx, r.rdb, key, c.MaxConcurrentCalls, r.cfg.SlotTTL)
	if err != nil {
		return false, outcomeNone, err
	}
	if !ok {
		// At the concurrency cap; settlement frees a slot and the next tick
		// picks the campaign up again.
		return false, outcomeNone, nil
	}

	var target pendingContact
	claimErr := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		target, err = claimNextPendingContact(ctx, tx, c.ID, now)
		return err
	})
	if claimErr != nil {
		releaseSlot(ctx, r.rdb, key, c.ID)
		if errors.Is(claimErr, sql.ErrNoRows) {
			// Nothing pending. Completion is settlement's job, not ours:
			// dispatched contacts may still have calls in flight.
			return false, outcomeNone, nil
		}
		return false, outcomeNone, claimErr
	}

	rec, placeErr := r.placer.PlaceCall(ctx, dispatch.PlaceCallRequest{
		UserID:        userID,
		AgentID:       c.AgentID,
		PhoneNumber:   target.PhoneNumber,
		ContactName:   target.Name,
		ContactID:     target.ContactID,
		CampaignID:    c.ID,
		CustomMessage: c.CustomMessage,
		Origin:        "campaign",
	})
	switch {
	case placeErr != nil && rec.ID != "":
		// The call row exists but its outcome was not recorded (storage
		// failure after provider acceptance). A live provider call may be in
		// flight, so the contact must not settle failed here. Record the
		// dispatch, keep the slot for the in-flight call and surface the
		// error; the webhook or slot TTL resolves the rest.
		if mErr := markDispatched(ctx, r.db, c.ID, target.ContactID); mErr != nil {
			logger.From(ctx).Error("mark contact dispatched failed",
				"campaign_id", c.ID, "contact_id", target.ContactID, "err", mErr)
		}
		return false, outcomeNone, placeErr
	case placeErr != nil && isRejection(placeErr):
		// Rejected before a call row existed (bad phone, disabled agent).
		// The contact settles failed here; the slot never made it into use.
		err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
			return markContactFailed(ctx, tx, userID, c.ID, target.ContactID, now)
		})
		releaseSlot(ctx, r.rdb, key, c.ID)
		if err != nil {
			return false, outcomeNone, err
		}
		outcome = outcomeFailed
	case placeErr != nil:
		// Infrastructure failure before any row existed (storage down).
		// Leave the contact in 'placing'; the stale-claim sweep returns it
		// to 'pending' once the claim window passes.
		releaseSlot(ctx, r.rdb, key, c.ID)
		return false, outcomeNone, placeErr
	case rec.Status == call.StatusFailed:
		// Provider refused: the call row settled failed, which already
		// closed the contact and released the slot.
		outcome = outcomeFailed
	default:
		if err := markDispatched(ctx, r.db, c.ID, target.ContactID); err != nil {
			logger.From(ctx).Error("mark contact dispatched failed",
				"campaign_id", c.ID, "contact_id", target.ContactID, "err", err)
		}
		outcome = outcomeInitiated
	}

	// Pacing: count the placement and schedule the rest if the batch is full.
	calls := c.CallsSincePause + 1
	var next *time.Time
	if c.CallsBetweenPause > 0 && calls >= c.CallsBetweenPause {
		t := now.Add(time.Duration(c.PauseDurationMinutes) * time.Minute)
		next = &t
		calls = 0
	}
	if err := updatePacing(ctx, r.db, userID, c.ID, next, calls, now); err != nil {
		return false, outcome, err
	}
	if next != nil {
		return false, outcome, nil
	}
	return true, outcome, nil
}

func releaseSlot(ctx context.Context, rdb *redis.Client, key, campaignID string) {
	if err := utils.ReleaseCallSlot(ctx, rdb, key); err != nil {
		logger.From(ctx).Warn("call slot release failed", "campaign_id", campaignID, "err", err)
	}
}
