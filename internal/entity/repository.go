package entity

import (
	"context"
	"time"
)

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	// FindByLists returns the leads of the given lists. A nil slice means all leads.
	FindByLists(ctx context.Context, listIDs []string) ([]*Lead, error)
	// Update writes contact, status, custom fields and list. Ownership and
	// notes have their own operations.
	Update(ctx context.Context, lead *Lead) error
	Patch(ctx context.Context, id string, p RecordPatch) error
	Delete(ctx context.Context, id string) error
	DeleteByList(ctx context.Context, listID string) (int64, error)
	// MoveToList changes the list of a lead only while it has no owner.
	MoveToList(ctx context.Context, id, listID string) error

	// Claim sets assignedTo only if the lead has no owner.
	Claim(ctx context.Context, id, agent string) error
	// Reassign moves the lead from one owner to another only if from still owns it.
	Reassign(ctx context.Context, id, from, to string) error
	// Unassign clears assignedTo only if from still owns it.
	Unassign(ctx context.Context, id, from string) error

	AppendNotes(ctx context.Context, id string, notes ...Note) error

	// FindOrphanedClaims returns owned leads with no live Customer or
	// Depositor whose last write is not after olderThan.
	FindOrphanedClaims(ctx context.Context, olderThan time.Time) ([]*Lead, error)
}

type CustomerRepositoryInterface interface {
	Create(ctx context.Context, c *Customer) error
	FindByID(ctx context.Context, id string) (*Customer, error)
	// FindByOriginalLead returns the Customer of a lead, live or detached.
	FindByOriginalLead(ctx context.Context, leadID string) (*Customer, error)
	// FindByAgent lists live customers; an empty agent lists all of them.
	FindByAgent(ctx context.Context, agent string) ([]*Customer, error)
	// Update writes contact, status, custom fields, agent, list snapshot and
	// releasedAt.
	Update(ctx context.Context, c *Customer) error
	Patch(ctx context.Context, id string, p RecordPatch) error
	AppendNotes(ctx context.Context, id string, notes ...Note) error
	Delete(ctx context.Context, id string) error

	// FindMismatched returns live customers whose lead is not assigned to
	// the customer's agent.
	FindMismatched(ctx context.Context) ([]*Customer, error)
}

type DepositorRepositoryInterface interface {
	Create(ctx context.Context, d *Depositor) error
	FindByID(ctx context.Context, id string) (*Depositor, error)
	FindByOriginalLead(ctx context.Context, leadID string) (*Depositor, error)
	FindByAgent(ctx context.Context, agent string) ([]*Depositor, error)
	Update(ctx context.Context, d *Depositor) error
	Patch(ctx context.Context, id string, p RecordPatch) error
	AppendNotes(ctx context.Context, id string, notes ...Note) error
	Delete(ctx context.Context, id string) error
}

type LeadListRepositoryInterface interface {
	Create(ctx context.Context, l *LeadList) error
	FindByID(ctx context.Context, id string) (*LeadList, error)
	FindAll(ctx context.Context, includeInactive bool) ([]*LeadList, error)
	Update(ctx context.Context, l *LeadList) error
	Delete(ctx context.Context, id string) error
	// EnsureSystem returns the system list called name, creating it if needed.
	// Concurrent callers get the same list.
	EnsureSystem(ctx context.Context, name string) (*LeadList, error)
}
