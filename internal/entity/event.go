package entity

import "time"

type EventType string

const (
	EventLeadOwned         EventType = "lead.owned"
	EventLeadReleased      EventType = "lead.released"
	EventLeadTakenOver     EventType = "lead.taken_over"
	EventLeadTransferred   EventType = "lead.transferred"
	EventCustomerReleased  EventType = "customer.released"
	EventCustomerEscalated EventType = "customer.escalated"
	EventDepositorReleased EventType = "depositor.released"
	EventClaimReconciled   EventType = "lead.claim_reconciled"
)

// LifecycleEvent describes a completed transition.
type LifecycleEvent struct {
	Type          EventType `json:"type"`
	LeadID        string    `json:"leadId,omitempty"`
	CustomerID    string    `json:"customerId,omitempty"`
	DepositorID   string    `json:"depositorId,omitempty"`
	ListID        string    `json:"listId,omitempty"`
	ContactName   string    `json:"contactName,omitempty"`
	Agent         string    `json:"agent,omitempty"`
	PreviousAgent string    `json:"previousAgent,omitempty"`
	Actor         string    `json:"actor"`
	OccurredAt    time.Time `json:"occurredAt"`
}
