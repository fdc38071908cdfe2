package entity

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the agent-facing working copy of an owned Lead.
type Customer struct {
	ID string `json:"id"`
	Contact
	Status       string       `json:"status"`
	CustomFields CustomFields `json:"customFields"`
	Agent        string       `json:"agent"`
	OriginalLead string       `json:"originalLead,omitempty"`
	ListSnapshot
	Notes Notes `json:"notes"`

	// ReleasedAt is set when the Lead was returned to the pool from the lead
	// side. A released Customer is detached: not live, and reclaimed by the
	// next claim of the same Lead.
	ReleasedAt *time.Time `json:"releasedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewCustomerFromLead snapshots lead for agent. list may be nil when the
// Lead has no list.
func NewCustomerFromLead(lead *Lead, list *LeadList, agent string) *Customer {
	now := time.Now()
	c := &Customer{
		ID:           uuid.New().String(),
		Contact:      lead.Contact,
		Status:       lead.Status,
		CustomFields: lead.CustomFields.Clone(),
		Agent:        agent,
		OriginalLead: lead.ID,
		ListSnapshot: ListSnapshot{ListID: lead.LeadListID, Labels: []Label{}},
		Notes:        lead.Notes.Clone(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if list != nil {
		c.ListSnapshot = list.Snapshot()
	}
	return c
}

// Resnapshot rebuilds c from the current state of lead and list for agent,
// keeping its id, notes and creation time. It is used when a detached
// Customer is reclaimed.
func (c *Customer) Resnapshot(lead *Lead, list *LeadList, agent string) *Customer {
	fresh := NewCustomerFromLead(lead, list, agent)
	fresh.ID = c.ID
	fresh.Notes = c.Notes.Clone()
	fresh.CreatedAt = c.CreatedAt
	return fresh
}

func (c *Customer) IsLive() bool { return c.ReleasedAt == nil }

func (c *Customer) Clone() *Customer {
	out := *c
	out.CustomFields = c.CustomFields.Clone()
	out.ListSnapshot = c.ListSnapshot.Clone()
	out.Notes = c.Notes.Clone()
	if c.ReleasedAt != nil {
		t := *c.ReleasedAt
		out.ReleasedAt = &t
	}
	return &out
}

// ToDepositor copies the Customer verbatim into a new Depositor.
func (c *Customer) ToDepositor() *Depositor {
	now := time.Now()
	return &Depositor{
		ID:               uuid.New().String(),
		Contact:          c.Contact,
		Status:           c.Status,
		CustomFields:     c.CustomFields.Clone(),
		Agent:            c.Agent,
		OriginalLead:     c.OriginalLead,
		OriginalCustomer: c.ID,
		ListSnapshot:     c.ListSnapshot.Clone(),
		Notes:            c.Notes.Clone(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ToLead synthesizes a fresh unowned Lead when the original one is gone.
func (c *Customer) ToLead(listID string) *Lead {
	lead := NewLead(c.Contact, listID, c.CustomFields.Clone())
	lead.Status = c.Status
	lead.Notes = c.Notes.Clone()
	return lead
}
