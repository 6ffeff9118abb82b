package campaign

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"voiceagent-platform/internal/call"
	"voiceagent-platform/internal/metrics"
	"voiceagent-platform/pkg/utils"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("campaign not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownContacts = errors.New("one or more contacts do not exist")
)

// Service owns campaign rows and user-triggered lifecycle control.
// Dispatching is the Runner's job; the two share this package's store.
type Service struct {
	db    *sql.DB
	clock func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, clock: time.Now}
}

// CreateParams carries everything a new campaign needs. ContactIDs fixes the
// contact set: TotalContacts never changes after creation.
type CreateParams struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	AgentID       string   `json:"agentId"`
	CustomMessage string   `json:"customMessage"`
	ContactIDs    []string `json:"contacts"`

	ScheduledStartTime *time.Time `json:"scheduledStartTime"`

	DailyStartTime string `json:"dailyStartTime"`
	DailyEndTime   string `json:"dailyEndTime"`

	MaxConcurrentCalls   int `json:"maxConcurrentCalls"`
	CallsBetweenPause    int `json:"callsBetweenPause"`
	PauseDurationMinutes int `json:"pauseDuration"`
}

func validateWindowEdge(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return ErrInvalidArgument
	}
	return nil
}

// Create inserts a campaign in draft, or scheduled when a start time is set.
// A start time in the past is allowed; the next runner tick promotes it.
func (s *Service) Create(ctx context.Context, userID string, p CreateParams) (Campaign, error) {
	if userID == "" || p.Name == "" || p.AgentID == "" {
		return Campaign{}, ErrInvalidArgument
	}
	if len(p.ContactIDs) == 0 {
		return Campaign{}, ErrInvalidArgument
	}
	if err := validateWindowEdge(p.DailyStartTime); err != nil {
		return Campaign{}, err
	}
	if err := validateWindowEdge(p.DailyEndTime); err != nil {
		return Campaign{}, err
	}
	if p.MaxConcurrentCalls < 0 || p.CallsBetweenPause < 0 || p.PauseDurationMinutes < 0 {
		return Campaign{}, ErrInvalidArgument
	}
	if p.MaxConcurrentCalls == 0 {
		p.MaxConcurrentCalls = 1
	}

	ids := dedupe(p.ContactIDs)

	now := s.clock().UTC()
	c := Campaign{
		ID:                   uuid.NewString(),
		UserID:               userID,
		Name:                 p.Name,
		Description:          p.Description,
		AgentID:              p.AgentID,
		CustomMessage:        p.CustomMessage,
		TotalContacts:        len(ids),
		Status:               StatusDraft,
		ScheduledStartTime:   p.ScheduledStartTime,
		DailyStartTime:       p.DailyStartTime,
		DailyEndTime:         p.DailyEndTime,
		MaxConcurrentCalls:   p.MaxConcurrentCalls,
		CallsBetweenPause:    p.CallsBetweenPause,
		PauseDurationMinutes: p.PauseDurationMinutes,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if p.ScheduledStartTime != nil {
		c.Status = StatusScheduled
	}

	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if err := insertCampaign(ctx, tx, c); err != nil {
			return err
		}
		attached, err := attachContacts(ctx, tx, c.ID, userID, ids)
		if err != nil {
			return err
		}
		if attached != len(ids) {
			// Rolls back the whole campaign: a partial contact set would
			// silently shrink totalContacts under the caller.
			return ErrUnknownContacts
		}
		return nil
	})
	if err != nil {
		return Campaign{}, err
	}
	return c, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Control applies a user action through the transition table.
// An illegal action returns ErrIllegalTransition without touching the row;
// the campaign is re-read under lock so two racing controls serialize.
func (s *Service) Control(ctx context.Context, userID, id string, action Action) (Campaign, error) {
	if userID == "" || id == "" {
		return Campaign{}, ErrInvalidArgument
	}

	now := s.clock().UTC()
	var out Campaign
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		c, err := lockCampaign(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		next, err := NextStatus(c.Status, action)
		if err != nil {
			return err
		}

		c.Status = next
		c.UpdatedAt = now
		switch action {
		case ActionStart, ActionResume:
			// Dispatch immediately; any pause rest is forgotten on resume.
			c.NextDispatchAt = nil
			c.CallsSincePause = 0
		}

		if err := setCampaignStatus(ctx, tx, c, now); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return Campaign{}, err
	}

	metrics.CampaignTransition(string(action))
	return out, nil
}

type ListFilter struct {
	Status Status
	Search string
	Page   int
	Limit  int
}

type Pagination struct {
	Pages int `json:"pages"`
	Page  int `json:"page"`
	Total int `json:"total"`
}

type Page struct {
	Campaigns  []Campaign `json:"campaigns"`
	Pagination Pagination `json:"pagination"`
}

func (s *Service) Get(ctx context.Context, userID, id string) (Campaign, error) {
	if userID == "" || id == "" {
		return Campaign{}, ErrInvalidArgument
	}
	return getCampaign(ctx, s.db, userID, id)
}

func (s *Service) List(ctx context.Context, userID string, f ListFilter) (Page, error) {
	if userID == "" {
		return Page{}, ErrInvalidArgument
	}
	rows, total, err := listCampaigns(ctx, s.db, userID, f)
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
		Campaigns:  rows,
		Pagination: Pagination{Pages: pages, Page: page, Total: total},
	}, nil
}

// Detail is the campaign with its contact roster and calls, as the campaign
// page renders it.
type Detail struct {
	Campaign Campaign     `json:"campaign"`
	Contacts []ContactRow `json:"contacts"`
	Calls    []call.Call  `json:"calls"`
}

// CallLister is the slice of call.Service GetDetail needs.
type CallLister interface {
	List(ctx context.Context, userID string, f call.ListFilter) (call.Page, error)
}

func (s *Service) GetDetail(ctx context.Context, userID, id string, calls CallLister) (Detail, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return Detail{}, err
	}
	contacts, err := listCampaignContacts(ctx, s.db, c.ID)
	if err != nil {
		return Detail{}, err
	}
	d := Detail{Campaign: c, Contacts: contacts}
	if calls != nil {
		page, err := calls.List(ctx, userID, call.ListFilter{CampaignID: c.ID, Limit: 100})
		if err != nil {
			return Detail{}, err
		}
		d.Calls = page.Calls
	}
	return d, nil
}
