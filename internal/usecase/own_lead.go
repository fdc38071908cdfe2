package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// Own claims an unowned lead for the calling agent and creates its Customer
// working copy. The claim is a conditional write, so of two concurrent calls
// only one can succeed.
func (lc *LifecycleController) Own(ctx context.Context, caller entity.Caller, leadID string) (*OwnLeadOutput, error) {
	if !caller.IsAgent() {
		return nil, forbidden("Only agents can own leads")
	}

	lead, err := lc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, classify("find lead", err)
	}
	if lead.AssignedTo == caller.ID {
		return nil, conflict("ALREADY_OWNED_BY_YOU", "You already own this lead")
	}
	if lead.IsOwned() {
		return nil, conflict("LEAD_ALREADY_OWNED", "Lead is already owned by another agent")
	}
	if err := lc.requireVisible(ctx, caller, lead); err != nil {
		return nil, err
	}
	dep, err := lc.depositorOfLead(ctx, lead.ID)
	if err != nil {
		return nil, err
	}
	if dep != nil {
		return nil, conflict("CONTACT_IS_DEPOSITOR", "This contact is already a depositor")
	}
	list, err := lc.Registry.FindList(ctx, lead.LeadListID)
	if err != nil {
		return nil, err
	}
	// a Customer detached by a lead-side release is taken back instead of
	// creating a second one for the same lead
	existing, err := lc.customerOfLead(ctx, lead.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.IsLive() {
		return nil, conflict("CUSTOMER_EXISTS", "This lead still has an active customer")
	}

	var customerNotes entity.Notes
	if existing != nil {
		customerNotes = existing.Notes
	}
	claimNote := lc.nextNote(fmt.Sprintf("Lead claimed by agent %s", caller.ID), caller.ID, lead.Notes, customerNotes)

	tx := NewTransaction("own")
	tx.AddOperation("claim_lead",
		func(ctx context.Context) error { return lc.Leads.Claim(ctx, lead.ID, caller.ID) },
		func(ctx context.Context) error { return lc.Leads.Unassign(ctx, lead.ID, caller.ID) },
	)

	var customerID string
	if existing != nil {
		customerID = existing.ID
		lc.addCustomerRewrite(tx, "reclaim_customer", existing, existing.Resnapshot(lead, list, caller.ID))
	} else {
		customer := entity.NewCustomerFromLead(lead, list, caller.ID)
		customer.Notes = append(customer.Notes, claimNote)
		customerID = customer.ID
		lc.addCustomerCreate(tx, customer)
	}
	tx.AddOperation("append_claim_note", lc.Ledger.appendOp(LeadRef(lead.ID), claimNote), nil)
	if existing != nil {
		src := append(lead.Notes.Clone(), claimNote)
		tx.AddOperation("merge_customer_notes", lc.Ledger.mergeOp(src, CustomerRef(existing.ID), time.Time{}), nil)
	}

	if err := lc.commit(ctx, tx, "own lead"); err != nil {
		return nil, err
	}

	lead, err = lc.Leads.FindByID(ctx, lead.ID)
	if err != nil {
		return nil, classify("reload lead", err)
	}
	customer, err := lc.Customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, classify("reload customer", err)
	}

	log.Printf("[lifecycle] lead %s owned by %s (customer %s)", lead.ID, caller.ID, customer.ID)
	lc.publish(ctx, entity.LifecycleEvent{
		Type:       entity.EventLeadOwned,
		LeadID:     lead.ID,
		CustomerID: customer.ID,
		ListID:     lead.LeadListID,
		Agent:      caller.ID,
		Actor:      caller.ID,
	})

	return &OwnLeadOutput{Lead: lead, Customer: customer, Message: "Lead claimed successfully"}, nil
}
