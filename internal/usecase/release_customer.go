package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// ReleaseCustomer deletes a Customer and returns its contact to the pool as
// an unowned lead, in the origin list when still active or in the fallback
// list otherwise. The original lead is reused when it still exists.
func (lc *LifecycleController) ReleaseCustomer(ctx context.Context, caller entity.Caller, customerID string) (*ReleaseCustomerOutput, error) {
	customer, err := lc.Customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, classify("find customer", err)
	}
	if err := requireOwnerOrAdmin(caller, customer.Agent, "release this customer"); err != nil {
		return nil, err
	}
	target, err := lc.Registry.ReleaseTarget(ctx, customer.ListID)
	if err != nil {
		return nil, err
	}

	var lead *entity.Lead
	if customer.OriginalLead != "" {
		lead, err = lc.Leads.FindByID(ctx, customer.OriginalLead)
		if errors.Is(err, entity.ErrLeadNotFound) {
			lead = nil
		} else if err != nil {
			return nil, classify("find lead", err)
		}
	}

	content := fmt.Sprintf("Customer released by %s back to list %s", caller.ID, target.Name)
	tx := NewTransaction("release customer")
	var leadID string

	if lead != nil {
		leadID = lead.ID
		note := lc.nextNote(content, caller.ID, lead.Notes, customer.Notes)
		prev := lead.Clone()
		restored := lead.Clone()
		restored.Contact = customer.Contact
		restored.Status = customer.Status
		restored.CustomFields = customer.CustomFields.Clone()
		restored.LeadListID = target.ID

		tx.AddOperation("restore_lead",
			func(ctx context.Context) error { return lc.Leads.Update(ctx, restored) },
			func(ctx context.Context) error { return lc.Leads.Update(ctx, prev) },
		)
		switch lead.AssignedTo {
		case "":
		case customer.Agent:
			owner := lead.AssignedTo
			tx.AddOperation("unassign_lead",
				func(ctx context.Context) error { return lc.Leads.Unassign(ctx, lead.ID, owner) },
				func(ctx context.Context) error { return lc.Leads.Claim(ctx, lead.ID, owner) },
			)
		default:
			log.Printf("[lifecycle] customer %s released but lead %s is held by %s, leaving the claim", customer.ID, lead.ID, lead.AssignedTo)
		}
		src := append(customer.Notes.Clone(), note)
		tx.AddOperation("merge_lead_notes", lc.Ledger.mergeOp(src, LeadRef(lead.ID), time.Time{}), nil)
	} else {
		synthesized := customer.ToLead(target.ID)
		synthesized.Notes = append(synthesized.Notes, lc.nextNote(content, caller.ID, customer.Notes))
		leadID = synthesized.ID
		tx.AddOperation("create_lead",
			func(ctx context.Context) error { return lc.Leads.Create(ctx, synthesized) },
			func(ctx context.Context) error { return lc.Leads.Delete(ctx, synthesized.ID) },
		)
	}
	tx.AddOperation("delete_customer", func(ctx context.Context) error {
		return lc.Customers.Delete(ctx, customer.ID)
	}, nil)

	if err := lc.commit(ctx, tx, "release customer"); err != nil {
		return nil, err
	}

	lead, err = lc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, classify("reload lead", err)
	}

	log.Printf("[lifecycle] customer %s released by %s into list %s as lead %s", customer.ID, caller.ID, target.ID, lead.ID)
	lc.publish(ctx, entity.LifecycleEvent{
		Type:          entity.EventCustomerReleased,
		LeadID:        lead.ID,
		CustomerID:    customer.ID,
		ListID:        target.ID,
		PreviousAgent: customer.Agent,
		Actor:         caller.ID,
	})

	return &ReleaseCustomerOutput{
		Lead:       lead,
		TargetList: target,
		Message:    "Customer released to " + target.Name,
	}, nil
}
