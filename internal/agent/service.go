package agent

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"voiceagent-platform/pkg/utils"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("agent not found")
	ErrAgentDisabled   = errors.New("agent is disabled")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Service owns the agent registry. All queries are scoped by user_id.
type Service struct {
	db    *sql.DB
	clock func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, clock: time.Now}
}

type CreateRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	VoiceID      string `json:"voice_id" binding:"required"`
	FirstMessage string `json:"first_message"`
}

func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (Agent, error) {
	if userID == "" || strings.TrimSpace(req.Name) == "" || req.VoiceID == "" {
		return Agent{}, ErrInvalidArgument
	}

	now := s.clock().UTC()
	a := Agent{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		VoiceID:     req.VoiceID,
		ConversationConfig: ConversationConfig{
			FirstMessage: req.FirstMessage,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		return insertAgent(ctx, tx, a)
	})
	if err != nil {
		return Agent{}, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, userID, agentID string) (Agent, error) {
	if userID == "" || agentID == "" {
		return Agent{}, ErrInvalidArgument
	}
	return getAgent(ctx, s.db, userID, agentID)
}

// GetEnabled resolves an agent and fails fast when it is disabled.
// The dispatcher calls this before creating any call row.
func (s *Service) GetEnabled(ctx context.Context, userID, agentID string) (Agent, error) {
	a, err := s.Get(ctx, userID, agentID)
	if err != nil {
		return Agent{}, err
	}
	if a.Disabled {
		return Agent{}, ErrAgentDisabled
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Agent, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	return listAgents(ctx, s.db, userID)
}

// SetDisabled toggles an agent. Disabling does not touch in-flight calls;
// it only stops new placements.
func (s *Service) SetDisabled(ctx context.Context, userID, agentID string, disabled bool) (Agent, error) {
	if userID == "" || agentID == "" {
		return Agent{}, ErrInvalidArgument
	}
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		n, err := setAgentDisabled(ctx, tx, userID, agentID, disabled)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return Agent{}, err
	}
	return s.Get(ctx, userID, agentID)
}
