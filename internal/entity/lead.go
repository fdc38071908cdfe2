package entity

import (
	"time"

	"github.com/google/uuid"
)

// Pipeline statuses. The set is open: any non-empty status is accepted.
const (
	StatusNew          = "new"
	StatusNoAnswer     = "no-answer"
	StatusCallBack     = "call-back"
	StatusNotInterest  = "not-interested"
	StatusQualified    = "qualified"
	StatusWrongNumber  = "wrong-number"
	StatusDeposited    = "deposited"
	StatusNeverAnswer  = "never-answer"
	StatusReassignable = "reassignable"
)

// Contact holds the identifying fields copied across Lead, Customer and
// Depositor.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Country string `json:"country,omitempty"`
}

type Lead struct {
	ID string `json:"id"`
	Contact
	Status       string       `json:"status"`
	AssignedTo   string       `json:"assignedTo,omitempty"`
	CustomFields CustomFields `json:"customFields"`
	LeadListID   string       `json:"leadList,omitempty"`
	Notes        Notes        `json:"notes"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func NewLead(contact Contact, listID string, fields CustomFields) *Lead {
	now := time.Now()
	if fields == nil {
		fields = CustomFields{}
	}
	return &Lead{
		ID:           uuid.New().String(),
		Contact:      contact,
		Status:       StatusNew,
		CustomFields: fields,
		LeadListID:   listID,
		Notes:        Notes{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (l *Lead) IsOwned() bool { return l.AssignedTo != "" }

func (l *Lead) Clone() *Lead {
	out := *l
	out.CustomFields = l.CustomFields.Clone()
	out.Notes = l.Notes.Clone()
	return &out
}
