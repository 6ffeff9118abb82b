package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"voiceagent-platform/internal/call"
	"voiceagent-platform/internal/contact"
	"voiceagent-platform/pkg/logger"
)

var (
	ErrEmptyFile      = errors.New("csv file is empty")
	ErrMissingColumns = errors.New("csv header must include name and phone columns")
)

// ContactCreator is the slice of contact.Service the importer needs.
type ContactCreator interface {
	CreateIfNewPhone(ctx context.Context, userID string, req contact.CreateRequest) (contact.Contact, bool, error)
}

// RowStatus is the per-row outcome of an import.
type RowStatus string

const (
	RowCreated RowStatus = "created"
	RowSkipped RowStatus = "skipped"
	RowFailed  RowStatus = "failed"
)

// RowResult reports what happened to one CSV data row. Row numbering starts
// at 1 for the first data row, excluding the header.
type RowResult struct {
	Row         int       `json:"row"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phoneNumber"`
	Status      RowStatus `json:"status"`
	Reason      string    `json:"reason,omitempty"`
}

// Summary aggregates an import. Created+Skipped+Failed always equals the
// number of data rows in the file.
type Summary struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`

	Results  []RowResult       `json:"results"`
	Contacts []contact.Contact `json:"uploadedContacts"`
}

// Importer turns an uploaded CSV into contacts, one row at a time.
type Importer struct {
	contacts ContactCreator
}

func NewImporter(contacts ContactCreator) *Importer {
	return &Importer{contacts: contacts}
}

// columnIndex maps known header names to their position. Matching is
// case-insensitive and tolerates the usual spelling variants.
type columnIndex struct {
	name, phone, email, company, notes, tags int
}

func indexColumns(header []string) (columnIndex, error) {
	idx := columnIndex{name: -1, phone: -1, email: -1, company: -1, notes: -1, tags: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name", "contact_name", "contactname":
			idx.name = i
		case "phone", "phone_number", "phonenumber":
			idx.phone = i
		case "email":
			idx.email = i
		case "company":
			idx.company = i
		case "notes":
			idx.notes = i
		case "tags":
			idx.tags = i
		}
	}
	if idx.name < 0 || idx.phone < 0 {
		return idx, ErrMissingColumns
	}
	return idx, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// ImportCSV reads the whole file and attempts every data row independently.
// Rows are processed in order, so a phone number appearing twice in one file
// creates the first and skips the second. Row-level problems (missing
// fields, bad phone, duplicate) never abort the import; only unreadable CSV
// or storage failures do.
func (im *Importer) ImportCSV(ctx context.Context, userID string, r io.Reader) (Summary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows fail per-row, not per-file
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Summary{}, ErrEmptyFile
		}
		return Summary{}, fmt.Errorf("read csv header: %w", err)
	}
	idx, err := indexColumns(header)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	row := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			sum.Failed++
			sum.Results = append(sum.Results, RowResult{
				Row: row, Status: RowFailed, Reason: "malformed csv row",
			})
			continue
		}

		res := RowResult{
			Row:         row,
			Name:        field(record, idx.name),
			PhoneNumber: field(record, idx.phone),
		}

		switch {
		case res.Name == "":
			res.Status, res.Reason = RowFailed, "missing name"
		case res.PhoneNumber == "":
			res.Status, res.Reason = RowFailed, "missing phone number"
		default:
			req := contact.CreateRequest{
				Name:        res.Name,
				PhoneNumber: res.PhoneNumber,
				Email:       field(record, idx.email),
				Company:     field(record, idx.company),
				Notes:       field(record, idx.notes),
			}
			if tags := field(record, idx.tags); tags != "" {
				req.Tags = splitTags(tags)
			}

			created, ok, err := im.contacts.CreateIfNewPhone(ctx, userID, req)
			switch {
			case errors.Is(err, call.ErrInvalidPhone):
				res.Status, res.Reason = RowFailed, "invalid phone number"
			case errors.Is(err, contact.ErrInvalidArgument):
				res.Status, res.Reason = RowFailed, "invalid contact"
			case err != nil:
				// Storage failure: nothing row-specific about it, abort so
				// the caller does not get a half-imported file reported as
				// row failures.
				return Summary{}, fmt.Errorf("import row %d: %w", row, err)
			case !ok:
				res.Status, res.Reason = RowSkipped, "phone number already exists"
			default:
				res.Status = RowCreated
				sum.Contacts = append(sum.Contacts, created)
			}
		}

		switch res.Status {
		case RowCreated:
			sum.Created++
		case RowSkipped:
			sum.Skipped++
		case RowFailed:
			sum.Failed++
		}
		sum.Results = append(sum.Results, res)
	}

	logger.From(ctx).Info("contact import finished",
		"rows", row, "created", sum.Created, "skipped", sum.Skipped, "failed", sum.Failed)
	return sum, nil
}

// splitTags accepts either semicolons or commas as separators; commas only
// survive inside a quoted CSV field, but both show up in real exports.
func splitTags(s string) []string {
	sep := ";"
	if !strings.Contains(s, ";") {
		sep = ","
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
