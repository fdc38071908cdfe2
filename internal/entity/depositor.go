package entity

import (
	"time"

	"github.com/google/uuid"
)

// Depositor is an escalated Customer. It never co-exists with the Customer
// it was created from.
type Depositor struct {
	ID string `json:"id"`
	Contact
	Status           string       `json:"status"`
	CustomFields     CustomFields `json:"customFields"`
	Agent            string       `json:"agent"`
	OriginalLead     string       `json:"originalLead,omitempty"`
	OriginalCustomer string       `json:"originalCustomer,omitempty"`
	ListSnapshot
	Notes     Notes     `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (d *Depositor) Clone() *Depositor {
	out := *d
	out.CustomFields = d.CustomFields.Clone()
	out.ListSnapshot = d.ListSnapshot.Clone()
	out.Notes = d.Notes.Clone()
	return &out
}

// ToCustomer is the inverse of Customer.ToDepositor.
func (d *Depositor) ToCustomer() *Customer {
	now := time.Now()
	return &Customer{
		ID:           uuid.New().String(),
		Contact:      d.Contact,
		Status:       d.Status,
		CustomFields: d.CustomFields.Clone(),
		Agent:        d.Agent,
		OriginalLead: d.OriginalLead,
		ListSnapshot: d.ListSnapshot.Clone(),
		Notes:        d.Notes.Clone(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
