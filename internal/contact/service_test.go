package contact

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"voiceagent-platform/internal/call"
)

// The store is Postgres-specific (text[] columns, FOR UPDATE); end-to-end
// behavior is covered by integration tests against Postgres. What can be
// unit-tested safely without a DB is the input validation layer.

func TestCreate_RejectsInvalidArgs(t *testing.T) {
	svc := NewService((*sql.DB)(nil))

	if _, err := svc.Create(context.Background(), "", CreateRequest{Name: "a", PhoneNumber: "+14155550123"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "u", CreateRequest{Name: "  ", PhoneNumber: "+14155550123"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "u", CreateRequest{Name: "a", PhoneNumber: "nope"}); !errors.Is(err, call.ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
}

func TestUpdate_RejectsInvalidPatch(t *testing.T) {
	svc := NewService((*sql.DB)(nil))

	bad := "not-a-number"
	if _, err := svc.Update(context.Background(), "u", "c", UpdateRequest{PhoneNumber: &bad}); !errors.Is(err, call.ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}

	blank := "   "
	if _, err := svc.Update(context.Background(), "u", "c", UpdateRequest{Name: &blank}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestDeleteBatch_RejectsEmptyInput(t *testing.T) {
	svc := NewService((*sql.DB)(nil))
	if _, err := svc.DeleteBatch(context.Background(), "u", nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
