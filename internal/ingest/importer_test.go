package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"voiceagent-platform/internal/call"
	"voiceagent-platform/internal/contact"

	"github.com/google/uuid"
)

// fakeCreator mimics CreateIfNewPhone's dedup-by-phone semantics in memory.
type fakeCreator struct {
	phones map[string]bool
	err    error
}

func newFakeCreator() *fakeCreator {
	return &fakeCreator{phones: map[string]bool{}}
}

func (f *fakeCreator) CreateIfNewPhone(_ context.Context, userID string, req contact.CreateRequest) (contact.Contact, bool, error) {
	if f.err != nil {
		return contact.Contact{}, false, f.err
	}
	if err := call.ValidatePhoneNumber(req.PhoneNumber); err != nil {
		return contact.Contact{}, false, err
	}
	if f.phones[req.PhoneNumber] {
		return contact.Contact{}, false, nil
	}
	f.phones[req.PhoneNumber] = true
	return contact.Contact{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Tags:        req.Tags,
	}, true, nil
}

func TestImportCSV_MixedOutcomes(t *testing.T) {
	creator := newFakeCreator()
	creator.phones["+15550000002"] = true // pre-existing contact

	csvData := strings.Join([]string{
		"name,phone,email,company,notes,tags",
		"Ada Lovelace,+15550000001,ada@example.com,Analytical,first,vip;lead",
		"Grace Hopper,+15550000002,,,,",    // duplicate of existing contact
		"Alan Turing,+15550000003,,,,",
		"Rosalind Franklin,+15550000004,,,,",
		"Margaret Hamilton,+15550000005,,,,",
		"Katherine Johnson,+15550000001,,,,", // duplicate within the file
		"Bad Phone,not-a-number,,,,",
		"Edsger Dijkstra,+15550000006,,,,",
		"Barbara Liskov,+15550000007,,,,",
		"Donald Knuth,+15550000008,,,,",
	}, "\n")

	sum, err := NewImporter(creator).ImportCSV(context.Background(), "u1", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}

	if sum.Created != 7 || sum.Skipped != 2 || sum.Failed != 1 {
		t.Fatalf("got created=%d skipped=%d failed=%d, want 7/2/1",
			sum.Created, sum.Skipped, sum.Failed)
	}
	if total := sum.Created + sum.Skipped + sum.Failed; total != 10 {
		t.Fatalf("outcomes must cover every row: got %d, want 10", total)
	}
	if len(sum.Results) != 10 {
		t.Fatalf("expected 10 row results, got %d", len(sum.Results))
	}
	if len(sum.Contacts) != sum.Created {
		t.Fatalf("uploadedContacts length %d != created %d", len(sum.Contacts), sum.Created)
	}

	first := sum.Results[0]
	if first.Status != RowCreated || first.Name != "Ada Lovelace" {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if got := sum.Contacts[0].Tags; len(got) != 2 || got[0] != "vip" || got[1] != "lead" {
		t.Fatalf("tags not parsed: %v", got)
	}
	if r := sum.Results[1]; r.Status != RowSkipped || r.Reason == "" {
		t.Fatalf("duplicate row should skip with reason: %+v", r)
	}
	if r := sum.Results[6]; r.Status != RowFailed || r.Reason != "invalid phone number" {
		t.Fatalf("bad phone row should fail: %+v", r)
	}
}

func TestImportCSV_MissingFields(t *testing.T) {
	csvData := "name,phone\n,+15550000001\nNo Phone,\n"
	sum, err := NewImporter(newFakeCreator()).ImportCSV(context.Background(), "u1", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if sum.Failed != 2 || sum.Created != 0 {
		t.Fatalf("got created=%d failed=%d, want 0/2", sum.Created, sum.Failed)
	}
	if sum.Results[0].Reason != "missing name" || sum.Results[1].Reason != "missing phone number" {
		t.Fatalf("unexpected reasons: %+v", sum.Results)
	}
}

func TestImportCSV_HeaderVariants(t *testing.T) {
	csvData := "Contact_Name,PhoneNumber\nAda,+15550000001\n"
	sum, err := NewImporter(newFakeCreator()).ImportCSV(context.Background(), "u1", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if sum.Created != 1 {
		t.Fatalf("expected 1 created, got %+v", sum)
	}
}

func TestImportCSV_BadInputs(t *testing.T) {
	im := NewImporter(newFakeCreator())

	if _, err := im.ImportCSV(context.Background(), "u1", strings.NewReader("")); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("empty file: got %v", err)
	}
	if _, err := im.ImportCSV(context.Background(), "u1", strings.NewReader("email,company\n")); !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("missing columns: got %v", err)
	}
}

func TestImportCSV_StorageErrorAborts(t *testing.T) {
	creator := newFakeCreator()
	creator.err = errors.New("connection reset")

	_, err := NewImporter(creator).ImportCSV(context.Background(), "u1",
		strings.NewReader("name,phone\nAda,+15550000001\n"))
	if err == nil {
		t.Fatal("expected storage error to abort the import")
	}
}
