package contact

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"voiceagent-platform/internal/call"
	"voiceagent-platform/pkg/utils"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("contact not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDuplicatePhone  = errors.New("contact with this phone number already exists")
)

// Service owns contact records. All queries are scoped by user_id.
type Service struct {
	db    *sql.DB
	clock func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, clock: time.Now}
}

type CreateRequest struct {
	Name        string   `json:"name" binding:"required"`
	PhoneNumber string   `json:"phoneNumber" binding:"required"`
	Email       string   `json:"email"`
	Company     string   `json:"company"`
	Notes       string   `json:"notes"`
	Tags        []string `json:"tags"`
}

func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (Contact, error) {
	if userID == "" || strings.TrimSpace(req.Name) == "" {
		return Contact{}, ErrInvalidArgument
	}
	if err := call.ValidatePhoneNumber(req.PhoneNumber); err != nil {
		return Contact{}, err
	}

	now := s.clock().UTC()
	c := Contact{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		PhoneNumber: req.PhoneNumber,
		Email:       strings.TrimSpace(req.Email),
		Company:     strings.TrimSpace(req.Company),
		Notes:       req.Notes,
		Tags:        req.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}

	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		exists, err := phoneExists(ctx, tx, userID, c.PhoneNumber)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicatePhone
		}
		return insertContact(ctx, tx, c)
	})
	if err != nil {
		return Contact{}, err
	}
	return c, nil
}

// CreateIfNewPhone persists a contact only when the user has no contact with
// the same phone number yet. Returns created=false for duplicates.
// This is the dedup primitive batch import builds on.
func (s *Service) CreateIfNewPhone(ctx context.Context, userID string, req CreateRequest) (Contact, bool, error) {
	if userID == "" || strings.TrimSpace(req.Name) == "" {
		return Contact{}, false, ErrInvalidArgument
	}
	if err := call.ValidatePhoneNumber(req.PhoneNumber); err != nil {
		return Contact{}, false, err
	}

	now := s.clock().UTC()
	c := Contact{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		PhoneNumber: req.PhoneNumber,
		Email:       strings.TrimSpace(req.Email),
		Company:     strings.TrimSpace(req.Company),
		Notes:       req.Notes,
		Tags:        req.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}

	created := false
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		exists, err := phoneExists(ctx, tx, userID, c.PhoneNumber)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		if err := insertContact(ctx, tx, c); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return Contact{}, false, err
	}
	if !created {
		return Contact{}, false, nil
	}
	return c, true, nil
}

func (s *Service) Get(ctx context.Context, userID, contactID string) (Contact, error) {
	if userID == "" || contactID == "" {
		return Contact{}, ErrInvalidArgument
	}
	return getContact(ctx, s.db, userID, contactID)
}

func (s *Service) List(ctx context.Context, userID string, f ListFilter) (Page, error) {
	if userID == "" {
		return Page{}, ErrInvalidArgument
	}
	rows, total, err := listContacts(ctx, s.db, userID, f)
	if err != nil {
		return Page{}, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	pages := (total + limit - 1) / limit
	if pages == 0 {
		pages = 1
	}
	return Page{
		Contacts:   rows,
		Pagination: Pagination{Pages: pages, Page: page, Total: total},
	}, nil
}

func (s *Service) Update(ctx context.Context, userID, contactID string, req UpdateRequest) (Contact, error) {
	if userID == "" || contactID == "" {
		return Contact{}, ErrInvalidArgument
	}
	if req.PhoneNumber != nil {
		if err := call.ValidatePhoneNumber(*req.PhoneNumber); err != nil {
			return Contact{}, err
		}
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return Contact{}, ErrInvalidArgument
	}

	now := s.clock().UTC()
	var out Contact

	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const q = contactSelectColumns + `
FROM contacts
WHERE user_id = $1 AND id = $2
FOR UPDATE
`
		c, err := scanContact(tx.QueryRowContext(ctx, q, userID, contactID))
		if err != nil {
			return err
		}

		if req.Name != nil {
			c.Name = strings.TrimSpace(*req.Name)
		}
		if req.PhoneNumber != nil && *req.PhoneNumber != c.PhoneNumber {
			exists, err := phoneExists(ctx, tx, userID, *req.PhoneNumber)
			if err != nil {
				return err
			}
			if exists {
				return ErrDuplicatePhone
			}
			c.PhoneNumber = *req.PhoneNumber
		}
		if req.Email != nil {
			c.Email = strings.TrimSpace(*req.Email)
		}
		if req.Company != nil {
			c.Company = strings.TrimSpace(*req.Company)
		}
		if req.Notes != nil {
			c.Notes = *req.Notes
		}
		if req.Tags != nil {
			c.Tags = *req.Tags
			if c.Tags == nil {
				c.Tags = []string{}
			}
		}
		c.UpdatedAt = now

		if err := updateContact(ctx, tx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return Contact{}, err
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, userID, contactID string) error {
	if userID == "" || contactID == "" {
		return ErrInvalidArgument
	}
	return utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		n, err := deleteContact(ctx, tx, userID, contactID)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteBatch removes the given contacts and reports how many rows went away.
// Unknown ids are not an error; the count tells the caller.
func (s *Service) DeleteBatch(ctx context.Context, userID string, contactIDs []string) (int64, error) {
	if userID == "" || len(contactIDs) == 0 {
		return 0, ErrInvalidArgument
	}
	var deleted int64
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		n, err := deleteContacts(ctx, tx, userID, contactIDs)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	return deleted, err
}
