package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// MoveToDepositors escalates a live Customer: the Depositor is an exact copy
// plus an escalation note, and the Customer is deleted.
func (lc *LifecycleController) MoveToDepositors(ctx context.Context, caller entity.Caller, customerID string) (*MoveToDepositorsOutput, error) {
	customer, err := lc.Customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, classify("find customer", err)
	}
	if err := requireOwnerOrAdmin(caller, customer.Agent, "move this customer to depositors"); err != nil {
		return nil, err
	}
	if !customer.IsLive() {
		return nil, conflict("CUSTOMER_RELEASED", "Customer was released and cannot be escalated")
	}

	depositor := customer.ToDepositor()
	note := lc.nextNote(fmt.Sprintf("Moved to depositors by %s", caller.ID), caller.ID, customer.Notes)
	depositor.Notes = append(depositor.Notes, note)

	tx := NewTransaction("move to depositors")
	tx.AddOperation("create_depositor",
		func(ctx context.Context) error { return lc.Depositors.Create(ctx, depositor) },
		func(ctx context.Context) error { return lc.Depositors.Delete(ctx, depositor.ID) },
	)
	tx.AddOperation("delete_customer", func(ctx context.Context) error {
		return lc.Customers.Delete(ctx, customer.ID)
	}, nil)

	if err := lc.commit(ctx, tx, "move to depositors"); err != nil {
		return nil, err
	}
	lc.mirrorToLead(ctx, customer.OriginalLead, note)

	log.Printf("[lifecycle] customer %s moved to depositors as %s by %s", customer.ID, depositor.ID, caller.ID)
	lc.publish(ctx, entity.LifecycleEvent{
		Type:        entity.EventCustomerEscalated,
		LeadID:      customer.OriginalLead,
		CustomerID:  customer.ID,
		DepositorID: depositor.ID,
		Agent:       depositor.Agent,
		Actor:       caller.ID,
	})

	return &MoveToDepositorsOutput{Depositor: depositor, Message: "Customer moved to depositors"}, nil
}

// ReleaseDepositorToCustomer is the inverse of MoveToDepositors.
func (lc *LifecycleController) ReleaseDepositorToCustomer(ctx context.Context, caller entity.Caller, depositorID string) (*ReleaseDepositorOutput, error) {
	depositor, err := lc.Depositors.FindByID(ctx, depositorID)
	if err != nil {
		return nil, classify("find depositor", err)
	}
	if err := requireOwnerOrAdmin(caller, depositor.Agent, "release this depositor"); err != nil {
		return nil, err
	}

	customer := depositor.ToCustomer()
	note := lc.nextNote(fmt.Sprintf("Returned to customers by %s", caller.ID), caller.ID, depositor.Notes)
	customer.Notes = append(customer.Notes, note)

	tx := NewTransaction("release depositor")
	tx.AddOperation("create_customer",
		func(ctx context.Context) error { return lc.Customers.Create(ctx, customer) },
		func(ctx context.Context) error { return lc.Customers.Delete(ctx, customer.ID) },
	)
	tx.AddOperation("delete_depositor", func(ctx context.Context) error {
		return lc.Depositors.Delete(ctx, depositor.ID)
	}, nil)

	if err := lc.commit(ctx, tx, "release depositor"); err != nil {
		return nil, err
	}
	lc.mirrorToLead(ctx, depositor.OriginalLead, note)

	log.Printf("[lifecycle] depositor %s returned to customers as %s by %s", depositor.ID, customer.ID, caller.ID)
	lc.publish(ctx, entity.LifecycleEvent{
		Type:        entity.EventDepositorReleased,
		LeadID:      depositor.OriginalLead,
		CustomerID:  customer.ID,
		DepositorID: depositor.ID,
		Agent:       customer.Agent,
		Actor:       caller.ID,
	})

	return &ReleaseDepositorOutput{Customer: customer, Message: "Depositor returned to customers"}, nil
}

// mirrorToLead copies a note onto the durable lead record. The transition
// is already committed, so a failure is only logged.
func (lc *LifecycleController) mirrorToLead(ctx context.Context, leadID string, note entity.Note) {
	if leadID == "" {
		return
	}
	_, err := lc.Ledger.MergeNotes(ctx, entity.Notes{note}, LeadRef(leadID), time.Time{})
	if err != nil && !errors.Is(err, entity.ErrLeadNotFound) {
		log.Printf("[lifecycle] note %s not mirrored to lead %s: %v", note.ID, leadID, err)
	}
}
