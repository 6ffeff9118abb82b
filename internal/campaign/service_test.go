package campaign

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

// Validation paths return before any query runs, so a nil *sql.DB is safe
// here; the storage-backed paths are covered by integration tests.

func validParams() CreateParams {
	return CreateParams{
		Name:       "Q3 outreach",
		AgentID:    "agent-1",
		ContactIDs: []string{"c1", "c2"},
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		userID string
		mutate func(*CreateParams)
	}{
		{"missing user", "", func(p *CreateParams) {}},
		{"missing name", "u1", func(p *CreateParams) { p.Name = "" }},
		{"missing agent", "u1", func(p *CreateParams) { p.AgentID = "" }},
		{"no contacts", "u1", func(p *CreateParams) { p.ContactIDs = nil }},
		{"bad daily start", "u1", func(p *CreateParams) { p.DailyStartTime = "9am" }},
		{"bad daily end", "u1", func(p *CreateParams) { p.DailyEndTime = "25:00" }},
		{"negative concurrency", "u1", func(p *CreateParams) { p.MaxConcurrentCalls = -1 }},
		{"negative pacing", "u1", func(p *CreateParams) { p.CallsBetweenPause = -5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			if _, err := svc.Create(ctx, tc.userID, p); !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestControl_Validation(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()

	if _, err := svc.Control(ctx, "", "camp-1", ActionStart); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty user, got %v", err)
	}
	if _, err := svc.Control(ctx, "u1", "", ActionPause); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty id, got %v", err)
	}
}

func TestList_Validation(t *testing.T) {
	svc := NewService(nil)
	if _, err := svc.List(context.Background(), "", ListFilter{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("dedupe = %v, want %v", got, want)
	}
}

func TestValidateWindowEdge(t *testing.T) {
	for _, ok := range []string{"", "00:00", "09:30", "23:59"} {
		if err := validateWindowEdge(ok); err != nil {
			t.Fatalf("validateWindowEdge(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"24:00", "9:3x", "oops"} {
		if err := validateWindowEdge(bad); err == nil {
			t.Fatalf("validateWindowEdge(%q): expected error", bad)
		}
	}
}

func TestTextArrayQuoting(t *testing.T) {
	got := textArray([]string{"a", `b"c`, `d\e`})
	want := `{"a","b\"c","d\\e"}`
	if got != want {
		t.Fatalf("textArray = %s, want %s", got, want)
	}
	if textArray(nil) != "{}" {
		t.Fatalf("empty array must render {}")
	}
}

func TestCreateParamsBindsContactsField(t *testing.T) {
	body := `{"name":"Q3 outreach","agentId":"agent-1","contacts":["c1","c2","c3"]}`

	var p CreateParams
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if want := []string{"c1", "c2", "c3"}; !reflect.DeepEqual(p.ContactIDs, want) {
		t.Fatalf("ContactIDs = %v, want %v", p.ContactIDs, want)
	}
}
