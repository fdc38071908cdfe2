package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// LifecycleController moves contacts between Lead, Customer and Depositor.
// Every operation checks all preconditions before its first write and runs
// multi-record writes through a compensating Transaction.
type LifecycleController struct {
	Leads      entity.LeadRepositoryInterface
	Customers  entity.CustomerRepositoryInterface
	Depositors entity.DepositorRepositoryInterface
	Registry   *ListRegistry
	Visibility *VisibilityFilter
	Ledger     *NoteLedger
	Events     EventPublisher
	Notifier   Notifier
	Now        func() time.Time
}

func NewLifecycleController(
	leads entity.LeadRepositoryInterface,
	customers entity.CustomerRepositoryInterface,
	depositors entity.DepositorRepositoryInterface,
	registry *ListRegistry,
	visibility *VisibilityFilter,
	ledger *NoteLedger,
	events EventPublisher,
	notifier Notifier,
) *LifecycleController {
	return &LifecycleController{
		Leads:      leads,
		Customers:  customers,
		Depositors: depositors,
		Registry:   registry,
		Visibility: visibility,
		Ledger:     ledger,
		Events:     events,
		Notifier:   notifier,
		Now:        time.Now,
	}
}

func (lc *LifecycleController) now() time.Time {
	if lc.Now == nil {
		return time.Now()
	}
	return lc.Now()
}

// nextNote builds a note whose timestamp is after every note in sets, so one
// note can be appended to several copies of the same contact.
func (lc *LifecycleController) nextNote(content, author string, sets ...entity.Notes) entity.Note {
	var all entity.Notes
	for _, s := range sets {
		all = append(all, s...)
	}
	return all.Next(content, author, lc.now())
}

// commit executes tx and converts its failure for the caller.
func (lc *LifecycleController) commit(ctx context.Context, tx *Transaction, op string) error {
	err := tx.Execute(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrReconciliationNeeded) {
		log.Printf("[lifecycle] CRITICAL: %s left records inconsistent: %v", op, err)
		return &TechnicalError{Code: "RECONCILIATION_NEEDED", Message: op + " failed and left records inconsistent", Err: err}
	}
	log.Printf("[lifecycle] %s rolled back: %v", op, err)
	return classify(op, err)
}

func (lc *LifecycleController) publish(ctx context.Context, ev entity.LifecycleEvent) {
	if lc.Events == nil {
		return
	}
	ev.OccurredAt = lc.now()
	if err := lc.Events.PublishLifecycle(ctx, ev); err != nil {
		log.Printf("[lifecycle] event %s for lead %s committed but not published: %v", ev.Type, ev.LeadID, err)
	}
}

// customerOfLead returns the Customer referencing leadID, or nil.
func (lc *LifecycleController) customerOfLead(ctx context.Context, leadID string) (*entity.Customer, error) {
	c, err := lc.Customers.FindByOriginalLead(ctx, leadID)
	if errors.Is(err, entity.ErrCustomerNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("find customer", err)
	}
	return c, nil
}

// depositorOfLead returns the Depositor referencing leadID, or nil.
func (lc *LifecycleController) depositorOfLead(ctx context.Context, leadID string) (*entity.Depositor, error) {
	d, err := lc.Depositors.FindByOriginalLead(ctx, leadID)
	if errors.Is(err, entity.ErrDepositorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("find depositor", err)
	}
	return d, nil
}

func requireOwnerOrAdmin(caller entity.Caller, owner, what string) error {
	if caller.IsAdmin() || (caller.IsAgent() && caller.ID == owner) {
		return nil
	}
	return forbidden("Only the owning agent or an admin can " + what)
}

// addCustomerReassign registers the update that hands c to agent and makes
// it live again, with a compensation restoring the previous row.
func (lc *LifecycleController) addCustomerReassign(tx *Transaction, c *entity.Customer, agent string) {
	next := c.Clone()
	next.Agent = agent
	next.ReleasedAt = nil
	lc.addCustomerRewrite(tx, "reassign_customer", c, next)
}

// addCustomerRewrite registers a full rewrite of prev as next; the
// compensation writes prev back.
func (lc *LifecycleController) addCustomerRewrite(tx *Transaction, name string, prev, next *entity.Customer) {
	prev = prev.Clone()
	tx.AddOperation(name,
		func(ctx context.Context) error { return lc.Customers.Update(ctx, next) },
		func(ctx context.Context) error { return lc.Customers.Update(ctx, prev) },
	)
}

// requireVisible rejects a claim on a lead the caller cannot see.
func (lc *LifecycleController) requireVisible(ctx context.Context, caller entity.Caller, lead *entity.Lead) error {
	ok, err := lc.Visibility.CanSeeLead(ctx, caller, lead)
	if err != nil {
		return err
	}
	if !ok {
		return forbidden("You cannot see this lead")
	}
	return nil
}

func (lc *LifecycleController) addCustomerCreate(tx *Transaction, c *entity.Customer) {
	tx.AddOperation("create_customer",
		func(ctx context.Context) error { return lc.Customers.Create(ctx, c) },
		func(ctx context.Context) error { return lc.Customers.Delete(ctx, c.ID) },
	)
}
