package campaign

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestMarkDispatchedOnlyFlipsPlacingRows(t *testing.T) {
	db, mock := newMockDB(t)

	// A contact whose terminal webhook already settled the roster row is no
	// longer 'placing'. The update must match zero rows and leave it alone.
	mock.ExpectExec(`UPDATE campaign_contacts SET dispatch_status = 'dispatched' WHERE campaign_id = $1 AND contact_id = $2 AND dispatch_status = 'placing'`).
		WithArgs("camp-1", "contact-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := markDispatched(context.Background(), db, "camp-1", "contact-1"); err != nil {
		t.Fatalf("markDispatched: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkContactFailedBumpsProgressWithGuard(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Unix(1700000000, 0).UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE campaign_contacts SET dispatch_status = 'failed' WHERE campaign_id = $1 AND contact_id = $2`).
		WithArgs("camp-1", "contact-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE campaigns SET completed_calls = completed_calls + 1, updated_at = $3 WHERE user_id = $1 AND id = $2 AND completed_calls < total_contacts`).
		WithArgs("user-1", "camp-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE campaigns SET status = 'completed', updated_at = $3 WHERE user_id = $1 AND id = $2 AND status = 'in-progress' AND completed_calls >= total_contacts`).
		WithArgs("user-1", "camp-1", now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := markContactFailed(context.Background(), tx, "user-1", "camp-1", "contact-1", now); err != nil {
		t.Fatalf("markContactFailed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRequeueStaleClaimsReportsCount(t *testing.T) {
	db, mock := newMockDB(t)
	cutoff := time.Unix(1700000000, 0).UTC()

	mock.ExpectExec(`UPDATE campaign_contacts SET dispatch_status = 'pending', claimed_at = NULL WHERE dispatch_status = 'placing' AND claimed_at < $1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := requeueStaleClaims(context.Background(), db, cutoff)
	if err != nil {
		t.Fatalf("requeueStaleClaims: %v", err)
	}
	if n != 3 {
		t.Fatalf("requeued = %d, want 3", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
