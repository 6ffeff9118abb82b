package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It MUST be append-only: no Update or Delete methods exist.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

var ErrInvalidEvent = errors.New("audit: invalid event")

// Service records internal audit information. These records are for
// operators, not tenant users.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.UserID == "" || e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogCampaignControl records a lifecycle action against a campaign.
func (s *Service) LogCampaignControl(ctx context.Context, userID, actorUserID, actorRole, ip, campaignID, action string) error {
	return s.Append(ctx, Event{
		UserID:      userID,
		Type:        EventTypeCampaignControl,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		CampaignID:  campaignID,
		Message:     fmt.Sprintf("campaign %s", action),
	})
}

// LogContactsDeleted records a bulk contact deletion.
func (s *Service) LogContactsDeleted(ctx context.Context, userID, actorUserID, actorRole, ip string, count int64) error {
	return s.Append(ctx, Event{
		UserID:      userID,
		Type:        EventTypeContactsDeleted,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		Message:     fmt.Sprintf("deleted %d contacts", count),
	})
}

// LogContactsImport records the outcome of a CSV import.
func (s *Service) LogContactsImport(ctx context.Context, userID, actorUserID, actorRole, ip string, created, skipped, failed int) error {
	return s.Append(ctx, Event{
		UserID:      userID,
		Type:        EventTypeContactsImport,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		Message:     fmt.Sprintf("imported contacts: %d created, %d skipped, %d failed", created, skipped, failed),
	})
}

// LogAgentDisabled records an agent being disabled or re-enabled.
func (s *Service) LogAgentDisabled(ctx context.Context, userID, actorUserID, actorRole, ip, agentID string, disabled bool) error {
	msg := "agent enabled"
	if disabled {
		msg = "agent disabled"
	}
	return s.Append(ctx, Event{
		UserID:      userID,
		Type:        EventTypeAgentDisabled,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		AgentID:     agentID,
		Message:     msg,
	})
}
