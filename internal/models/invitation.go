package models

import "time"

// InvitationGuest is a person on the pre-event invitation list
type InvitationGuest struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	NameKm        string    `json:"name_km,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	GroupCategory string    `json:"group_category,omitempty"`
	Note          string    `json:"note,omitempty"`
	IsImported    bool      `json:"is_imported"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// InvitationGuestDraft is the write shape for invitation guests
type InvitationGuestDraft struct {
	Name          string `json:"name" validate:"required"`
	NameKm        string `json:"name_km"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	GroupCategory string `json:"group_category"`
	Note          string `json:"note"`
}

// InvitationFilter narrows GetInvitationGuests. Zero value matches everything.
type InvitationFilter struct {
	Search        string
	GroupCategory string
	IsImported    *bool
}

// InvitationStats summarises the invitation list
type InvitationStats struct {
	Total       int64 `json:"total"`
	Imported    int64 `json:"imported"`
	NotImported int64 `json:"not_imported"`
	TotalGroups int64 `json:"total_groups"`
}

// RowError records a single failed row of a bulk insert. Row is 1-based.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// BulkResult is the outcome of a bulk invitation insert. A non-zero
// ErrorCount means the import partially failed.
type BulkResult struct {
	SuccessCount int        `json:"success_count"`
	ErrorCount   int        `json:"error_count"`
	Errors       []RowError `json:"errors,omitempty"`
}
