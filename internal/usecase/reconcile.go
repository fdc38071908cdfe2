package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// SystemAuthor signs notes written by background jobs.
const SystemAuthor = "system"

type ReconciliationReport struct {
	OrphanedClaims     []string  `json:"orphanedClaims"`
	MismatchedCustomer []string  `json:"mismatchedCustomers"`
	Repaired           []string  `json:"repaired"`
	CheckedAt          time.Time `json:"checkedAt"`
}

func (r ReconciliationReport) Empty() bool {
	return len(r.OrphanedClaims) == 0 && len(r.MismatchedCustomer) == 0
}

// Reconciler finds the records a failed two-step transition left behind:
// owned leads with no live Customer or Depositor, and live customers whose
// lead belongs to someone else.
type Reconciler struct {
	Leads      entity.LeadRepositoryInterface
	Customers  entity.CustomerRepositoryInterface
	Ledger     *NoteLedger
	Events     EventPublisher
	Notifier   Notifier
	AutoRepair bool
	// Grace is how long a claim must go unwritten before it counts as
	// orphaned. It covers the gap between a claim and its Customer write.
	Grace time.Duration
	Now   func() time.Time
}

func NewReconciler(leads entity.LeadRepositoryInterface, customers entity.CustomerRepositoryInterface, ledger *NoteLedger, events EventPublisher, notifier Notifier, autoRepair bool) *Reconciler {
	return &Reconciler{
		Leads:      leads,
		Customers:  customers,
		Ledger:     ledger,
		Events:     events,
		Notifier:   notifier,
		AutoRepair: autoRepair,
		Now:        time.Now,
	}
}

// Sweep runs one reconciliation pass. With AutoRepair, orphaned claims are
// returned to the pool; mismatched customers are only reported.
func (r *Reconciler) Sweep(ctx context.Context) (*ReconciliationReport, error) {
	report := &ReconciliationReport{
		OrphanedClaims:     []string{},
		MismatchedCustomer: []string{},
		Repaired:           []string{},
		CheckedAt:          r.now(),
	}

	orphans, err := r.Leads.FindOrphanedClaims(ctx, report.CheckedAt.Add(-r.Grace))
	if err != nil {
		return nil, fmt.Errorf("find orphaned claims: %w", err)
	}
	for _, lead := range orphans {
		report.OrphanedClaims = append(report.OrphanedClaims, lead.ID)
		log.Printf("[reconcile] lead %s owned by %s has no customer record", lead.ID, lead.AssignedTo)
		if !r.AutoRepair {
			continue
		}
		if err := r.releaseOrphan(ctx, lead); err != nil {
			log.Printf("[reconcile] lead %s not repaired: %v", lead.ID, err)
			continue
		}
		report.Repaired = append(report.Repaired, lead.ID)
	}

	mismatched, err := r.Customers.FindMismatched(ctx)
	if err != nil {
		return nil, fmt.Errorf("find mismatched customers: %w", err)
	}
	for _, c := range mismatched {
		report.MismatchedCustomer = append(report.MismatchedCustomer, c.ID)
		log.Printf("[reconcile] customer %s of agent %s points at lead %s owned by someone else", c.ID, c.Agent, c.OriginalLead)
	}

	if !report.Empty() && r.Notifier != nil {
		if err := r.Notifier.NotifyReconciliation(ctx, *report); err != nil {
			log.Printf("[reconcile] report not sent: %v", err)
		}
	}
	return report, nil
}

func (r *Reconciler) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Reconciler) releaseOrphan(ctx context.Context, lead *entity.Lead) error {
	owner := lead.AssignedTo
	if err := r.Leads.Unassign(ctx, lead.ID, owner); err != nil {
		return err
	}
	note := lead.Notes.Next(fmt.Sprintf("Claim of %s released by reconciliation: no customer record", owner), SystemAuthor, r.now())
	if err := r.Ledger.Append(ctx, LeadRef(lead.ID), note); err != nil {
		log.Printf("[reconcile] lead %s released but note not stored: %v", lead.ID, err)
	}
	if r.Events != nil {
		ev := entity.LifecycleEvent{
			Type:          entity.EventClaimReconciled,
			LeadID:        lead.ID,
			ListID:        lead.LeadListID,
			PreviousAgent: owner,
			Actor:         SystemAuthor,
			OccurredAt:    r.now(),
		}
		if err := r.Events.PublishLifecycle(ctx, ev); err != nil {
			log.Printf("[reconcile] event for lead %s not published: %v", lead.ID, err)
		}
	}
	return nil
}
