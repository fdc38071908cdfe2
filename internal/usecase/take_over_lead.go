package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// TakeOver moves a lead owned by another agent to the caller. The lead's
// Customer is handed over when it exists, otherwise a new one is created.
func (lc *LifecycleController) TakeOver(ctx context.Context, caller entity.Caller, leadID string) (*TakeOverOutput, error) {
	if !caller.IsAgent() {
		return nil, forbidden("Only agents can take over leads")
	}

	lead, err := lc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, classify("find lead", err)
	}
	if !lead.IsOwned() {
		return nil, conflict("LEAD_NOT_OWNED", "Lead is not owned, claim it instead")
	}
	if lead.AssignedTo == caller.ID {
		return nil, conflict("ALREADY_OWNED_BY_YOU", "You already own this lead")
	}
	if err := lc.requireVisible(ctx, caller, lead); err != nil {
		return nil, err
	}
	dep, err := lc.depositorOfLead(ctx, lead.ID)
	if err != nil {
		return nil, err
	}
	if dep != nil {
		return nil, conflict("CONTACT_IS_DEPOSITOR", "This contact is a depositor and cannot be taken over")
	}
	existing, err := lc.customerOfLead(ctx, lead.ID)
	if err != nil {
		return nil, err
	}
	var list *entity.LeadList
	if existing == nil || !existing.IsLive() {
		if list, err = lc.Registry.FindList(ctx, lead.LeadListID); err != nil {
			return nil, err
		}
	}

	previous := lead.AssignedTo
	var customerNotes entity.Notes
	if existing != nil {
		customerNotes = existing.Notes
	}
	note := lc.nextNote(fmt.Sprintf("Lead taken over from %s by %s", previous, caller.ID), caller.ID, lead.Notes, customerNotes)

	tx := NewTransaction("take over")
	tx.AddOperation("reassign_lead",
		func(ctx context.Context) error { return lc.Leads.Reassign(ctx, lead.ID, previous, caller.ID) },
		func(ctx context.Context) error { return lc.Leads.Reassign(ctx, lead.ID, caller.ID, previous) },
	)

	var customerID string
	switch {
	case existing != nil && existing.IsLive():
		customerID = existing.ID
		lc.addCustomerReassign(tx, existing, caller.ID)
	case existing != nil:
		customerID = existing.ID
		lc.addCustomerRewrite(tx, "reclaim_customer", existing, existing.Resnapshot(lead, list, caller.ID))
	default:
		customer := entity.NewCustomerFromLead(lead, list, caller.ID)
		customer.Notes = append(customer.Notes, note)
		customerID = customer.ID
		lc.addCustomerCreate(tx, customer)
	}
	tx.AddOperation("append_lead_note", lc.Ledger.appendOp(LeadRef(lead.ID), note), nil)
	if existing != nil {
		src := append(lead.Notes.Clone(), note)
		tx.AddOperation("merge_customer_notes", lc.Ledger.mergeOp(src, CustomerRef(existing.ID), time.Time{}), nil)
	}

	if err := lc.commit(ctx, tx, "take over lead"); err != nil {
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

	log.Printf("[lifecycle] lead %s taken over from %s by %s", lead.ID, previous, caller.ID)
	lc.publish(ctx, entity.LifecycleEvent{
		Type:          entity.EventLeadTakenOver,
		LeadID:        lead.ID,
		CustomerID:    customer.ID,
		ListID:        lead.LeadListID,
		ContactName:   lead.Name,
		Agent:         caller.ID,
		PreviousAgent: previous,
		Actor:         caller.ID,
	})
	if lc.Notifier != nil {
		notice := TakeOverNotice{LeadID: lead.ID, ContactName: lead.Name, PreviousAgent: previous, NewAgent: caller.ID}
		if err := lc.Notifier.NotifyTakeOver(ctx, notice); err != nil {
			log.Printf("[lifecycle] take-over notice for lead %s not sent: %v", lead.ID, err)
		}
	}

	return &TakeOverOutput{Lead: lead, Customer: customer, Message: "Lead taken over successfully"}, nil
}
