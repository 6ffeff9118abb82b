package reporting

import (
	"context"
	"database/sql"
	"time"

	"voiceagent-platform/internal/call"
)

// SQLRepo reads reporting data straight from the primary tables. Aggregation
// volumes here are per-user and small; no separate analytics store needed.
type SQLRepo struct {
	db *sql.DB
}

func NewSQLRepo(db *sql.DB) *SQLRepo { return &SQLRepo{db: db} }

func (r *SQLRepo) ListCalls(ctx context.Context, userID string, from, to time.Time, campaignID string) ([]call.Call, error) {
	const q = `
SELECT id, status, COALESCE(duration_seconds, 0), COALESCE(cost_minor, 0), COALESCE(currency, '')
FROM calls
WHERE user_id = $1
	AND created_at >= $2 AND created_at < $3
	AND ($4 = '' OR campaign_id = $4)
`
	rows, err := r.db.QueryContext(ctx, q, userID, from, to, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []call.Call
	for rows.Next() {
		var c call.Call
		if err := rows.Scan(&c.ID, &c.Status, &c.DurationSeconds, &c.CostMinor, &c.Currency); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLRepo) Counts(ctx context.Context, userID string) (contacts, agents, activeCampaigns int, err error) {
	const q = `
SELECT
	(SELECT COUNT(*) FROM contacts WHERE user_id = $1),
	(SELECT COUNT(*) FROM agents WHERE user_id = $1),
	(SELECT COUNT(*) FROM campaigns WHERE user_id = $1 AND status IN ('scheduled', 'in-progress', 'paused'))
`
	err = r.db.QueryRowContext(ctx, q, userID).Scan(&contacts, &agents, &activeCampaigns)
	return contacts, agents, activeCampaigns, err
}
