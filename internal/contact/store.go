package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// NOTE: This store assumes the contacts table from migrations/001_init.sql.
// Tags are stored as a Postgres text[] column; pq-style array literals are
// built by hand since the pgx stdlib driver accepts them as text.

const contactSelectColumns = `
SELECT id, user_id, name, phone_number, COALESCE(email, ''), COALESCE(company, ''),
	COALESCE(notes, ''), COALESCE(tags, '{}'), last_contacted_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (Contact, error) {
	var c Contact
	var tags string
	if err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.PhoneNumber, &c.Email, &c.Company,
		&c.Notes, &tags, &c.LastContactedAt, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, err
	}
	c.Tags = parseTextArray(tags)
	return c, nil
}

func insertContact(ctx context.Context, tx *sql.Tx, c Contact) error {
	const q = `
INSERT INTO contacts (
	id, user_id, name, phone_number, email, company, notes, tags, created_at, updated_at
) VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10)
`
	_, err := tx.ExecContext(ctx, q,
		c.ID, c.UserID, c.Name, c.PhoneNumber, c.Email, c.Company, c.Notes,
		buildTextArray(c.Tags), c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func getContact(ctx context.Context, db *sql.DB, userID, contactID string) (Contact, error) {
	const q = contactSelectColumns + `
FROM contacts
WHERE user_id = $1 AND id = $2
`
	return scanContact(db.QueryRowContext(ctx, q, userID, contactID))
}

func phoneExists(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, userID, phone string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM contacts WHERE user_id = $1 AND phone_number = $2)`
	var exists bool
	if err := q.QueryRowContext(ctx, query, userID, phone).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func updateContact(ctx context.Context, tx *sql.Tx, c Contact) error {
	const q = `
UPDATE contacts SET
	name = $3,
	phone_number = $4,
	email = NULLIF($5, ''),
	company = NULLIF($6, ''),
	notes = NULLIF($7, ''),
	tags = $8,
	updated_at = $9
WHERE user_id = $1 AND id = $2
`
	_, err := tx.ExecContext(ctx, q,
		c.UserID, c.ID, c.Name, c.PhoneNumber, c.Email, c.Company, c.Notes,
		buildTextArray(c.Tags), c.UpdatedAt,
	)
	return err
}

func deleteContact(ctx context.Context, tx *sql.Tx, userID, contactID string) (int64, error) {
	const q = `DELETE FROM contacts WHERE user_id = $1 AND id = $2`
	res, err := tx.ExecContext(ctx, q, userID, contactID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func deleteContacts(ctx context.Context, tx *sql.Tx, userID string, contactIDs []string) (int64, error) {
	const q = `DELETE FROM contacts WHERE user_id = $1 AND id = ANY($2)`
	res, err := tx.ExecContext(ctx, q, userID, buildTextArray(contactIDs))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func listContacts(ctx context.Context, db *sql.DB, userID string, f ListFilter) ([]Contact, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}

	if f.Search != "" {
		args = append(args, f.Search)
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(name ILIKE '%%' || $%d || '%%' OR phone_number ILIKE '%%' || $%d || '%%' OR company ILIKE '%%' || $%d || '%%')", n, n, n))
	}
	if f.Tag != "" {
		args = append(args, f.Tag)
		where = append(where, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contacts WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	q := fmt.Sprintf("%s FROM contacts WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		contactSelectColumns, cond, limit, offset)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Contact, 0, limit)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// buildTextArray renders a Postgres array literal: {"a","b"}.
func buildTextArray(vals []string) string {
	if len(vals) == 0 {
		return "{}"
	}
	quoted := make([]string, len(vals))
	for i, v := range vals {
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `"`, `\"`)
		quoted[i] = `"` + v + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}

// parseTextArray parses the common case of a Postgres array literal.
// Values written by buildTextArray round-trip; exotic literals do not occur
// because this column is only written by this package.
func parseTextArray(s string) []string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil
	}
	inner := s[1 : len(s)-1]
	if inner == "" {
		return []string{}
	}

	var out []string
	var cur strings.Builder
	inQuotes := false
	escaped := false
	for _, r := range inner {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	out = append(out, cur.String())
	return out
}
