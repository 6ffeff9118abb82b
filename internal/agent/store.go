package agent

import (
	"context"
	"database/sql"
	"errors"
)

// NOTE: This store assumes the agents table from migrations/001_init.sql.

const agentSelectColumns = `
SELECT id, user_id, name, COALESCE(description, ''), disabled,
	COALESCE(first_message, ''), voice_id, usage_minutes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (Agent, error) {
	var a Agent
	if err := row.Scan(
		&a.ID, &a.UserID, &a.Name, &a.Description, &a.Disabled,
		&a.ConversationConfig.FirstMessage, &a.VoiceID, &a.UsageMinutes,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Agent{}, ErrNotFound
		}
		return Agent{}, err
	}
	return a, nil
}

func insertAgent(ctx context.Context, tx *sql.Tx, a Agent) error {
	const q = `
INSERT INTO agents (
	id, user_id, name, description, disabled, first_message, voice_id, usage_minutes, created_at, updated_at
) VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), $7, $8, $9, $10)
`
	_, err := tx.ExecContext(ctx, q,
		a.ID, a.UserID, a.Name, a.Description, a.Disabled,
		a.ConversationConfig.FirstMessage, a.VoiceID, a.UsageMinutes, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func getAgent(ctx context.Context, db *sql.DB, userID, agentID string) (Agent, error) {
	const q = agentSelectColumns + `
FROM agents
WHERE user_id = $1 AND id = $2
`
	return scanAgent(db.QueryRowContext(ctx, q, userID, agentID))
}

func listAgents(ctx context.Context, db *sql.DB, userID string) ([]Agent, error) {
	const q = agentSelectColumns + `
FROM agents
WHERE user_id = $1
ORDER BY created_at
`
	rows, err := db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func setAgentDisabled(ctx context.Context, tx *sql.Tx, userID, agentID string, disabled bool) (int64, error) {
	const q = `UPDATE agents SET disabled = $3, updated_at = now() WHERE user_id = $1 AND id = $2`
	res, err := tx.ExecContext(ctx, q, userID, agentID, disabled)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
