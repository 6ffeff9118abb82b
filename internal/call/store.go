package call

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NOTE: This store assumes the tables from migrations/001_init.sql:
// - calls
// - campaigns (completed_calls counter lives there)
// - campaign_contacts (per-contact dispatch bookkeeping)
// - contacts (last_contacted_at side effect)
// - agents (usage_minutes rollup)
//
// Settlement touches several tables; every write path here is designed to be
// called inside utils.WithTx.

func insertCall(ctx context.Context, tx *sql.Tx, c Call) error {
	const q = `
INSERT INTO calls (
	id, user_id, agent_id, campaign_id, contact_id, contact_name, phone_number,
	status, conversation_id, created_at, updated_at
) VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, NULLIF($9, ''), $10, $11)
`
	_, err := tx.ExecContext(ctx, q,
		c.ID, c.UserID, c.AgentID, c.CampaignID, c.ContactID, c.ContactName, c.PhoneNumber,
		c.Status, c.ConversationID, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func lockCall(ctx context.Context, tx *sql.Tx, userID, callID string) (Call, error) {
	// Lock the call row to serialize concurrent webhook deliveries per call.
	const q = callSelectColumns + `
FROM calls
WHERE user_id = $1 AND id = $2
FOR UPDATE
`
	return scanCall(tx.QueryRowContext(ctx, q, userID, callID))
}

func lockCallByConversation(ctx context.Context, tx *sql.Tx, conversationID string) (Call, error) {
	const q = callSelectColumns + `
FROM calls
WHERE conversation_id = $1
FOR UPDATE
`
	return scanCall(tx.QueryRowContext(ctx, q, conversationID))
}

const callSelectColumns = `
SELECT id, user_id, agent_id, COALESCE(campaign_id, ''), COALESCE(contact_id, ''),
	contact_name, phone_number, status, start_time, end_time,
	COALESCE(duration_seconds, 0), COALESCE(cost_minor, 0), COALESCE(currency, ''),
	COALESCE(transcription, ''), COALESCE(summary, ''), COALESCE(outcome, ''),
	COALESCE(conversation_id, ''), created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(row rowScanner) (Call, error) {
	var c Call
	if err := row.Scan(
		&c.ID, &c.UserID, &c.AgentID, &c.CampaignID, &c.ContactID,
		&c.ContactName, &c.PhoneNumber, &c.Status, &c.StartTime, &c.EndTime,
		&c.DurationSeconds, &c.CostMinor, &c.Currency,
		&c.Transcription, &c.Summary, &c.Outcome,
		&c.ConversationID, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, err
	}
	return c, nil
}

func updateCall(ctx context.Context, tx *sql.Tx, c Call) error {
	const q = `
UPDATE calls SET
	status = $3,
	start_time = $4,
	end_time = $5,
	duration_seconds = $6,
	cost_minor = $7,
	currency = NULLIF($8, ''),
	transcription = NULLIF($9, ''),
	summary = NULLIF($10, ''),
	outcome = NULLIF($11, ''),
	conversation_id = NULLIF($12, ''),
	updated_at = $13
WHERE user_id = $1 AND id = $2
`
	_, err := tx.ExecContext(ctx, q,
		c.UserID, c.ID, c.Status, c.StartTime, c.EndTime,
		c.DurationSeconds, c.CostMinor, c.Currency,
		c.Transcription, c.Summary, c.Outcome, c.ConversationID, c.UpdatedAt,
	)
	return err
}

// settleCampaignCall bumps completed_calls once per call and closes the
// campaign_contacts row. The caller guarantees the call row transition was
// legal, which is the idempotency gate for this increment.
func settleCampaignCall(ctx context.Context, tx *sql.Tx, c Call, now time.Time) error {
	const bump = `
UPDATE campaigns
SET completed_calls = completed_calls + 1, updated_at = $3
WHERE user_id = $1 AND id = $2 AND completed_calls < total_contacts
`
	if _, err := tx.ExecContext(ctx, bump, c.UserID, c.CampaignID, now); err != nil {
		return fmt.Errorf("bump completed_calls: %w", err)
	}

	if c.ContactID != "" {
		const done = `
UPDATE campaign_contacts
SET dispatch_status = 'done'
WHERE campaign_id = $1 AND contact_id = $2
`
		if _, err := tx.ExecContext(ctx, done, c.CampaignID, c.ContactID); err != nil {
			return fmt.Errorf("close campaign contact: %w", err)
		}
	}

	// Auto-complete: last settled call flips the campaign, but only from
	// in-progress (a cancelled campaign must stay cancelled).
	const complete = `
UPDATE campaigns
SET status = 'completed', updated_at = $3
WHERE user_id = $1 AND id = $2 AND status = 'in-progress' AND completed_calls >= total_contacts
`
	if _, err := tx.ExecContext(ctx, complete, c.UserID, c.CampaignID, now); err != nil {
		return fmt.Errorf("auto-complete campaign: %w", err)
	}
	return nil
}

func touchContactLastContacted(ctx context.Context, tx *sql.Tx, userID, contactID string, at time.Time) error {
	const q = `
UPDATE contacts SET last_contacted_at = $3, updated_at = $3
WHERE user_id = $1 AND id = $2
`
	_, err := tx.ExecContext(ctx, q, userID, contactID, at)
	return err
}

func addAgentUsage(ctx context.Context, tx *sql.Tx, userID, agentID string, minutes int, at time.Time) error {
	const q = `
UPDATE agents SET usage_minutes = usage_minutes + $3, updated_at = $4
WHERE user_id = $1 AND id = $2
`
	_, err := tx.ExecContext(ctx, q, userID, agentID, minutes, at)
	return err
}

func getCall(ctx context.Context, db *sql.DB, userID, callID string) (Call, error) {
	const q = callSelectColumns + `
FROM calls
WHERE user_id = $1 AND id = $2
`
	return scanCall(db.QueryRowContext(ctx, q, userID, callID))
}

func listCalls(ctx context.Context, db *sql.DB, userID string, f ListFilter) ([]Call, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}

	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if f.Search != "" {
		args = append(args, f.Search)
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(contact_name ILIKE '%%' || $%d || '%%' OR phone_number ILIKE '%%' || $%d || '%%')", n, n))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.CampaignID != "" {
		add("campaign_id = $%d", f.CampaignID)
	}
	if !f.StartDate.IsZero() {
		add("created_at >= $%d", f.StartDate)
	}
	if !f.EndDate.IsZero() {
		add("created_at < $%d", f.EndDate)
	}

	cond := strings.Join(where, " AND ")

	var total int
	countQ := "SELECT COUNT(*) FROM calls WHERE " + cond
	if err := db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	listQ := fmt.Sprintf("%s FROM calls WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		callSelectColumns, cond, limit, offset)

	rows, err := db.QueryContext(ctx, listQ, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Call, 0, limit)
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}
