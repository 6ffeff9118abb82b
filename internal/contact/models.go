package contact

import "time"

// Contact is a reusable callable record owned by a user.
//
// Identity (ID) is immutable once created. Duplicate phone numbers are
// permitted at the store level; only batch import dedups by phone within a
// user's contact set. LastContactedAt is written solely by call settlement.
type Contact struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"userId" db:"user_id"`

	Name        string `json:"name" db:"name"`
	PhoneNumber string `json:"phoneNumber" db:"phone_number"`

	Email   string   `json:"email,omitempty" db:"email"`
	Company string   `json:"company,omitempty" db:"company"`
	Notes   string   `json:"notes,omitempty" db:"notes"`
	Tags    []string `json:"tags" db:"tags"`

	LastContactedAt *time.Time `json:"lastContactedAt,omitempty" db:"last_contacted_at"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ListFilter narrows List queries. Zero values mean "no filter".
type ListFilter struct {
	Search string // matches name, phone number or company
	Tag    string

	Page  int
	Limit int
}

type Page struct {
	Contacts   []Contact  `json:"contacts"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	Pages int `json:"pages"`
	Page  int `json:"page"`
	Total int `json:"total"`
}

// UpdateRequest carries partial updates; nil fields are left unchanged.
type UpdateRequest struct {
	Name        *string   `json:"name"`
	PhoneNumber *string   `json:"phoneNumber"`
	Email       *string   `json:"email"`
	Company     *string   `json:"company"`
	Notes       *string   `json:"notes"`
	Tags        *[]string `json:"tags"`
}
