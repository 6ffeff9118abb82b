package campaign

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NOTE: This store assumes the tables from migrations/001_init.sql:
// - campaigns
// - campaign_contacts (one row per attached contact, dispatch bookkeeping)
// - contacts (joined for dispatch and detail views)
//
// completed_calls on campaigns is written by call settlement, not here; this
// store only bumps it for contacts that never produced a call row.

// textArray renders a Postgres text[] literal for ids passed through a
// $n::text[] cast. Ids are uuids, but quote anyway so a malformed one cannot
// break the literal.
func textArray(vals []string) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v))
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}

const campaignSelectColumns = `
SELECT id, user_id, name, COALESCE(description, ''), agent_id,
	COALESCE(custom_message, ''), total_contacts, completed_calls, status,
	scheduled_start_time, COALESCE(daily_start_time, ''), COALESCE(daily_end_time, ''),
	max_concurrent_calls, calls_between_pause, pause_duration_minutes,
	next_dispatch_at, calls_since_pause, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (Campaign, error) {
	var c Campaign
	if err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Description, &c.AgentID,
		&c.CustomMessage, &c.TotalContacts, &c.CompletedCalls, &c.Status,
		&c.ScheduledStartTime, &c.DailyStartTime, &c.DailyEndTime,
		&c.MaxConcurrentCalls, &c.CallsBetweenPause, &c.PauseDurationMinutes,
		&c.NextDispatchAt, &c.CallsSincePause, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		return Campaign{}, err
	}
	return c, nil
}

func insertCampaign(ctx context.Context, tx *sql.Tx, c Campaign) error {
	const q = `
INSERT INTO campaigns (
	id, user_id, name, description, agent_id, custom_message,
	total_contacts, completed_calls, status, scheduled_start_time,
	daily_start_time, daily_end_time, max_concurrent_calls,
	calls_between_pause, pause_duration_minutes, created_at, updated_at
) VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''),
	$7, 0, $8, $9, NULLIF($10, ''), NULLIF($11, ''), $12, $13, $14, $15, $15)
`
	_, err := tx.ExecContext(ctx, q,
		c.ID, c.UserID, c.Name, c.Description, c.AgentID, c.CustomMessage,
		c.TotalContacts, c.Status, c.ScheduledStartTime,
		c.DailyStartTime, c.DailyEndTime, c.MaxConcurrentCalls,
		c.CallsBetweenPause, c.PauseDurationMinutes, c.CreatedAt,
	)
	return err
}

// attachContacts links contacts to a campaign, validating ownership via the
// join: a contact id that does not belong to the user simply does not insert.
// Returns how many rows were attached so the caller can reject mismatches.
func attachContacts(ctx context.Context, tx *sql.Tx, campaignID, userID string, contactIDs []string) (int, error) {
	const q = `
INSERT INTO campaign_contacts (campaign_id, contact_id, position, dispatch_status)
SELECT $1, c.id, ord.n, 'pending'
FROM contacts c
JOIN unnest($3::text[]) WITH ORDINALITY AS ord(id, n) ON ord.id = c.id
WHERE c.user_id = $2
`
	res, err := tx.ExecContext(ctx, q, campaignID, userID, textArray(contactIDs))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func lockCampaign(ctx context.Context, tx *sql.Tx, userID, id string) (Campaign, error) {
	const q = campaignSelectColumns + `
FROM campaigns
WHERE user_id = $1 AND id = $2
FOR UPDATE
`
	return scanCampaign(tx.QueryRowContext(ctx, q, userID, id))
}

func getCampaign(ctx context.Context, db *sql.DB, userID, id string) (Campaign, error) {
	const q = campaignSelectColumns + `
FROM campaigns
WHERE user_id = $1 AND id = $2
`
	return scanCampaign(db.QueryRowContext(ctx, q, userID, id))
}

func listCampaigns(ctx context.Context, db *sql.DB, userID string, f ListFilter) ([]Campaign, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}

	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, f.Search)
		where = append(where, fmt.Sprintf("name ILIKE '%%' || $%d || '%%'", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM campaigns WHERE "+cond, args...).Scan(&total); err != nil {
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
	q := fmt.Sprintf("%s FROM campaigns WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		campaignSelectColumns, cond, limit, (page-1)*limit)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Campaign, 0, limit)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func setCampaignStatus(ctx context.Context, tx *sql.Tx, c Campaign, now time.Time) error {
	const q = `
UPDATE campaigns SET
	status = $3,
	next_dispatch_at = $4,
	calls_since_pause = $5,
	updated_at = $6
WHERE user_id = $1 AND id = $2
`
	_, err := tx.ExecContext(ctx, q,
		c.UserID, c.ID, c.Status, c.NextDispatchAt, c.CallsSincePause, now)
	return err
}

func updatePacing(ctx context.Context, db *sql.DB, userID, id string, nextDispatchAt *time.Time, callsSincePause int, now time.Time) error {
	const q = `
UPDATE campaigns SET next_dispatch_at = $3, calls_since_pause = $4, updated_at = $5
WHERE user_id = $1 AND id = $2
`
	_, err := db.ExecContext(ctx, q, userID, id, nextDispatchAt, callsSincePause, now)
	return err
}

// promoteScheduled flips every scheduled campaign whose start time has
// arrived. Runs across users: the runner is a singleton per deployment.
func promoteScheduled(ctx context.Context, db *sql.DB, now time.Time) (int, error) {
	const q = `
UPDATE campaigns
SET status = 'in-progress', updated_at = $1
WHERE status = 'scheduled' AND scheduled_start_time <= $1
`
	res, err := db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func listDueCampaigns(ctx context.Context, db *sql.DB, now time.Time) ([]Campaign, error) {
	const q = campaignSelectColumns + `
FROM campaigns
WHERE status = 'in-progress'
	AND (next_dispatch_at IS NULL OR next_dispatch_at <= $1)
ORDER BY created_at
`
	rows, err := db.QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// pendingContact is a claimed campaign_contacts row joined with the contact
// details the dispatcher needs.
type pendingContact struct {
	ContactID   string
	Name        string
	PhoneNumber string
}

// claimNextPendingContact moves the next pending contact to 'placing' and
// returns it. SKIP LOCKED lets concurrent claims (immediate dispatch from a
// control action racing the poll loop) pick distinct rows instead of
// blocking. sql.ErrNoRows means the campaign has nothing left to place.
func claimNextPendingContact(ctx context.Context, tx *sql.Tx, campaignID string, now time.Time) (pendingContact, error) {
	const q = `
UPDATE campaign_contacts cc
SET dispatch_status = 'placing', claimed_at = $2
FROM (
	SELECT campaign_id, contact_id
	FROM campaign_contacts
	WHERE campaign_id = $1 AND dispatch_status = 'pending'
	ORDER BY position
	LIMIT 1
	FOR UPDATE SKIP LOCKED
) next
JOIN contacts c ON c.id = next.contact_id
WHERE cc.campaign_id = next.campaign_id AND cc.contact_id = next.contact_id
RETURNING cc.contact_id, c.name, c.phone_number
`
	var p pendingContact
	err := tx.QueryRowContext(ctx, q, campaignID, now).Scan(&p.ContactID, &p.Name, &p.PhoneNumber)
	return p, err
}

// markDispatched records that a call row now exists for the contact.
// Settlement flips it to 'done' when the call terminates. The status guard
// keeps a fast terminal webhook from being overwritten back to 'dispatched'
// when settlement lands before the dispatch loop gets here.
func markDispatched(ctx context.Context, db *sql.DB, campaignID, contactID string) error {
	const q = `
UPDATE campaign_contacts SET dispatch_status = 'dispatched'
WHERE campaign_id = $1 AND contact_id = $2 AND dispatch_status = 'placing'
`
	_, err := db.ExecContext(ctx, q, campaignID, contactID)
	return err
}

// markContactFailed settles a contact that was rejected before any call row
// existed. It counts toward progress like a failed call would, with the same
// counter guard and auto-complete check as call settlement.
func markContactFailed(ctx context.Context, tx *sql.Tx, userID, campaignID, contactID string, now time.Time) error {
	const fail = `
UPDATE campaign_contacts SET dispatch_status = 'failed'
WHERE campaign_id = $1 AND contact_id = $2
`
	if _, err := tx.ExecContext(ctx, fail, campaignID, contactID); err != nil {
		return err
	}

	const bump = `
UPDATE campaigns
SET completed_calls = completed_calls + 1, updated_at = $3
WHERE user_id = $1 AND id = $2 AND completed_calls < total_contacts
`
	if _, err := tx.ExecContext(ctx, bump, userID, campaignID, now); err != nil {
		return err
	}

	const complete = `
UPDATE campaigns
SET status = 'completed', updated_at = $3
WHERE user_id = $1 AND id = $2 AND status = 'in-progress' AND completed_calls >= total_contacts
`
	_, err := tx.ExecContext(ctx, complete, userID, campaignID, now)
	return err
}

// requeueStaleClaims returns 'placing' rows older than the threshold to
// 'pending'. A claim only stays in 'placing' for the claim-to-place window;
// anything older means the process died in between.
func requeueStaleClaims(ctx context.Context, db *sql.DB, olderThan time.Time) (int, error) {
	const q = `
UPDATE campaign_contacts SET dispatch_status = 'pending', claimed_at = NULL
WHERE dispatch_status = 'placing' AND claimed_at < $1
`
	res, err := db.ExecContext(ctx, q, olderThan)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ContactRow is a campaign contact with its dispatch outcome, for the
// campaign detail view.
type ContactRow struct {
	ContactID      string `json:"contactId"`
	Name           string `json:"name"`
	PhoneNumber    string `json:"phoneNumber"`
	DispatchStatus string `json:"dispatchStatus"`
}

func listCampaignContacts(ctx context.Context, db *sql.DB, campaignID string) ([]ContactRow, error) {
	const q = `
SELECT cc.contact_id, c.name, c.phone_number, cc.dispatch_status
FROM campaign_contacts cc
JOIN contacts c ON c.id = cc.contact_id
WHERE cc.campaign_id = $1
ORDER BY cc.position
`
	rows, err := db.QueryContext(ctx, q, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ContactRow
	for rows.Next() {
		var r ContactRow
		if err := rows.Scan(&r.ContactID, &r.Name, &r.PhoneNumber, &r.DispatchStatus); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
