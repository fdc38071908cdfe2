package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// ReleaseLead returns an owned lead to the pool. id may name the lead or its
// Customer. The Customer is detached, not deleted.
func (lc *LifecycleController) ReleaseLead(ctx context.Context, caller entity.Caller, id string) (*ReleaseLeadOutput, error) {
	lead, err := lc.Leads.FindByID(ctx, id)
	if errors.Is(err, entity.ErrLeadNotFound) {
		c, cerr := lc.Customers.FindByID(ctx, id)
		if cerr != nil {
			return nil, classify("find lead", err)
		}
		lead, err = lc.Leads.FindByID(ctx, c.OriginalLead)
	}
	if err != nil {
		return nil, classify("find lead", err)
	}
	if !lead.IsOwned() {
		return nil, conflict("LEAD_NOT_OWNED", "Lead is not owned")
	}
	if err := requireOwnerOrAdmin(caller, lead.AssignedTo, "release this lead"); err != nil {
		return nil, err
	}
	dep, err := lc.depositorOfLead(ctx, lead.ID)
	if err != nil {
		return nil, err
	}
	if dep != nil {
		return nil, conflict("CONTACT_IS_DEPOSITOR", "This contact is a depositor, release the depositor first")
	}
	customer, err := lc.customerOfLead(ctx, lead.ID)
	if err != nil {
		return nil, err
	}

	owner := lead.AssignedTo
	var customerNotes entity.Notes
	if customer != nil {
		customerNotes = customer.Notes
	}
	note := lc.nextNote(fmt.Sprintf("Lead released to the pool by %s", caller.ID), caller.ID, lead.Notes, customerNotes)

	tx := NewTransaction("release lead")
	tx.AddOperation("unassign_lead",
		func(ctx context.Context) error { return lc.Leads.Unassign(ctx, lead.ID, owner) },
		func(ctx context.Context) error { return lc.Leads.Claim(ctx, lead.ID, owner) },
	)
	if customer != nil && customer.IsLive() {
		detached := customer.Clone()
		releasedAt := note.CreatedAt
		detached.ReleasedAt = &releasedAt
		lc.addCustomerRewrite(tx, "detach_customer", customer, detached)
	}
	tx.AddOperation("append_lead_note", lc.Ledger.appendOp(LeadRef(lead.ID), note), nil)
	if customer != nil {
		tx.AddOperation("append_customer_note", lc.Ledger.appendOp(CustomerRef(customer.ID), note), nil)
	}

	if err := lc.commit(ctx, tx, "release lead"); err != nil {
		return nil, err
	}

	lead, err = lc.Leads.FindByID(ctx, lead.ID)
	if err != nil {
		return nil, classify("reload lead", err)
	}

	log.Printf("[lifecycle] lead %s released by %s (owner was %s)", lead.ID, caller.ID, owner)
	ev := entity.LifecycleEvent{
		Type:          entity.EventLeadReleased,
		LeadID:        lead.ID,
		ListID:        lead.LeadListID,
		PreviousAgent: owner,
		Actor:         caller.ID,
	}
	if customer != nil {
		ev.CustomerID = customer.ID
	}
	lc.publish(ctx, ev)

	return &ReleaseLeadOutput{Lead: lead, Message: "Lead released successfully"}, nil
}
