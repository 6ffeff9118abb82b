package call

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"time"

	"voiceagent-platform/internal/metrics"
	"voiceagent-platform/pkg/logger"
	"voiceagent-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotFound        = errors.New("call not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidPhone    = errors.New("invalid phone number")
)

// phonePattern is a loose E.164 check: optional +, 7-15 digits.
// Providers do the authoritative validation; this only rejects garbage early
// so a bad number never creates a call row.
var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// ValidatePhoneNumber rejects obviously malformed numbers.
func ValidatePhoneNumber(n string) error {
	if !phonePattern.MatchString(n) {
		return ErrInvalidPhone
	}
	return nil
}

// Rater computes the cost of a completed call.
// Implemented by internal/rating; nil means calls settle with zero cost.
type Rater interface {
	RateCall(ctx context.Context, userID, agentID string, durationSeconds int, at time.Time) (costMinor int64, currency string, err error)
}

// Service owns call rows and their status lifecycle.
//
// Lifecycle invariants enforced here, not at call sites:
// - transitions are monotonic (CanTransition)
// - terminal states absorb duplicate/out-of-order events
// - campaign counters are bumped exactly once per call, inside the same tx
//   as the status transition that justifies them
type Service struct {
	db    *sql.DB
	rdb   *redis.Client
	rater Rater
	clock func() time.Time
}

func NewService(db *sql.DB, rdb *redis.Client, rater Rater) *Service {
	return &Service{db: db, rdb: rdb, rater: rater, clock: time.Now}
}

// Create inserts a new call row in queued status.
// The caller (dispatcher) has already validated agent and phone number;
// this re-checks the basics so no path can create an orphan-invalid row.
func (s *Service) Create(ctx context.Context, c Call) (Call, error) {
	if c.ID == "" || c.UserID == "" || c.AgentID == "" {
		return Call{}, ErrInvalidArgument
	}
	if err := ValidatePhoneNumber(c.PhoneNumber); err != nil {
		return Call{}, err
	}

	now := s.clock().UTC()
	c.Status = StatusQueued
	c.CreatedAt = now
	c.UpdatedAt = now

	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		return insertCall(ctx, tx, c)
	})
	if err != nil {
		return Call{}, err
	}
	return c, nil
}

// Event is a lifecycle update, either produced internally by the dispatcher
// (queued -> initiated / failed) or delivered by the provider webhook.
type Event struct {
	// One of CallID or ConversationID must identify the call.
	CallID string
	UserID string // required with CallID

	ConversationID string

	Status Status

	Timestamp       time.Time
	DurationSeconds int
	Transcription   string
	Summary         string
	Outcome         string
}

// ApplyEvent applies a lifecycle event to a call.
//
// Returns the call after the event and whether the event changed anything.
// A duplicate or out-of-order event is NOT an error: it returns
// applied=false with the call unchanged, so webhook retries can be
// acknowledged without re-counting.
func (s *Service) ApplyEvent(ctx context.Context, ev Event) (Call, bool, error) {
	if !ev.Status.IsValid() {
		return Call{}, false, ErrInvalidArgument
	}
	if ev.CallID == "" && ev.ConversationID == "" {
		return Call{}, false, ErrInvalidArgument
	}

	now := s.clock().UTC()
	var out Call
	var applied bool
	var releaseSlot string

	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		var c Call
		var err error
		if ev.CallID != "" {
			if ev.UserID == "" {
				return ErrInvalidArgument
			}
			c, err = lockCall(ctx, tx, ev.UserID, ev.CallID)
		} else {
			c, err = lockCallByConversation(ctx, tx, ev.ConversationID)
		}
		if err != nil {
			return err
		}

		if !CanTransition(c.Status, ev.Status) {
			// Stale or duplicate. The locked row is the idempotency record:
			// nothing moves, nothing is counted twice.
			out = c
			applied = false
			return nil
		}

		c.Status = ev.Status
		c.UpdatedAt = now
		if ev.ConversationID != "" {
			c.ConversationID = ev.ConversationID
		}

		at := ev.Timestamp
		if at.IsZero() {
			at = now
		}
		switch ev.Status {
		case StatusInProgress:
			if c.StartTime == nil {
				t := at
				c.StartTime = &t
			}
		case StatusCompleted:
			if c.StartTime == nil {
				t := at.Add(-time.Duration(ev.DurationSeconds) * time.Second)
				c.StartTime = &t
			}
			t := at
			c.EndTime = &t
			c.DurationSeconds = ev.DurationSeconds
			c.Transcription = ev.Transcription
			c.Summary = ev.Summary
			c.Outcome = ev.Outcome

			if s.rater != nil && ev.DurationSeconds > 0 {
				cost, currency, err := s.rater.RateCall(ctx, c.UserID, c.AgentID, ev.DurationSeconds, at)
				if err != nil {
					// Rating must not lose the completion; settle unrated.
					logger.From(ctx).Warn("call rating failed", "call_id", c.ID, "err", err)
				} else {
					c.CostMinor = cost
					c.Currency = currency
				}
			}
		}

		if err := updateCall(ctx, tx, c); err != nil {
			return err
		}

		if ev.Status.IsTerminal() {
			if c.CampaignID != "" {
				if err := settleCampaignCall(ctx, tx, c, now); err != nil {
					return err
				}
				releaseSlot = c.CampaignID
			}
			if c.ContactID != "" && ev.Status == StatusCompleted {
				if err := touchContactLastContacted(ctx, tx, c.UserID, c.ContactID, now); err != nil {
					return err
				}
			}
			if ev.Status == StatusCompleted && c.DurationSeconds > 0 {
				minutes := (c.DurationSeconds + 59) / 60
				if err := addAgentUsage(ctx, tx, c.UserID, c.AgentID, minutes, now); err != nil {
					return err
				}
			}
		}

		out = c
		applied = true
		return nil
	})
	if err != nil {
		return Call{}, false, err
	}

	if applied {
		metrics.CallSettled(string(ev.Status))
	}

	// The slot release is outside the tx on purpose: a crash between commit
	// and release is healed by the slot TTL.
	if releaseSlot != "" && s.rdb != nil {
		if err := utils.ReleaseCallSlot(ctx, s.rdb, utils.CampaignSlotKey(releaseSlot)); err != nil {
			logger.From(ctx).Warn("call slot release failed", "campaign_id", releaseSlot, "err", err)
		}
	}
	return out, applied, nil
}

// Get returns a single call scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, callID string) (Call, error) {
	if userID == "" || callID == "" {
		return Call{}, ErrInvalidArgument
	}
	return getCall(ctx, s.db, userID, callID)
}

// List returns a page of calls matching the filter.
func (s *Service) List(ctx context.Context, userID string, f ListFilter) (Page, error) {
	if userID == "" {
		return Page{}, ErrInvalidArgument
	}
	rows, total, err := listCalls(ctx, s.db, userID, f)
	if err != nil {
		return Page{}, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	pages := (total + limit - 1) / limit
	if pages == 0 {
		pages = 1
	}
	return Page{
		Calls:      rows,
		Pagination: Pagination{Pages: pages, Page: page, Total: total},
	}, nil
}
