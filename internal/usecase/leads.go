package usecase

import (
	"context"
	"log"
	"strings"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// CreateLead adds an unowned lead to an active list.
func (lc *LifecycleController) CreateLead(ctx context.Context, caller entity.Caller, listID string, in CreateLeadInput) (*entity.Lead, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("Only admins can create leads")
	}
	list, err := lc.Registry.FindList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if list == nil || !list.IsActive {
		return nil, notFound("LIST_NOT_FOUND", "Lead list not found")
	}
	if strings.TrimSpace(in.Name) == "" && strings.TrimSpace(in.Phone) == "" && strings.TrimSpace(in.Email) == "" {
		return nil, invalid("CONTACT_REQUIRED", "A lead needs a name, phone or email")
	}
	if errs := ValidateCustomFields(list.Labels, in.CustomFields); len(errs) > 0 {
		return nil, validationFailure(errs)
	}

	lead := entity.NewLead(in.Contact, list.ID, in.CustomFields.Clone())
	if in.Status != "" {
		lead.Status = in.Status
	}
	if err := lc.Leads.Create(ctx, lead); err != nil {
		return nil, classify("create lead", err)
	}
	return lead, nil
}

// DeleteLead removes an unowned lead together with the Customer a
// lead-side release left detached from it.
func (lc *LifecycleController) DeleteLead(ctx context.Context, caller entity.Caller, leadID string) (*MessageOutput, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("Only admins can delete leads")
	}
	lead, err := lc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, classify("find lead", err)
	}
	if lead.IsOwned() {
		return nil, conflict("LEAD_OWNED", "Owned leads cannot be deleted")
	}
	detached, err := lc.customerOfLead(ctx, lead.ID)
	if err != nil {
		return nil, err
	}
	if detached != nil && detached.IsLive() {
		return nil, conflict("CUSTOMER_EXISTS", "This lead still has an active customer")
	}

	tx := NewTransaction("delete lead")
	tx.AddOperation("delete_lead",
		func(ctx context.Context) error { return lc.Leads.Delete(ctx, lead.ID) },
		func(ctx context.Context) error { return lc.Leads.Create(ctx, lead) },
	)
	if detached != nil {
		tx.AddOperation("delete_detached_customer", func(ctx context.Context) error {
			return lc.Customers.Delete(ctx, detached.ID)
		}, nil)
	}
	if err := lc.commit(ctx, tx, "delete lead"); err != nil {
		return nil, err
	}

	if detached != nil {
		log.Printf("[lifecycle] lead %s and detached customer %s deleted by %s", lead.ID, detached.ID, caller.ID)
	} else {
		log.Printf("[lifecycle] lead %s deleted by %s", lead.ID, caller.ID)
	}
	return &MessageOutput{Message: "Lead deleted"}, nil
}

// ListLeads returns the leads visible to the caller, optionally within one list.
func (lc *LifecycleController) ListLeads(ctx context.Context, caller entity.Caller, listID string) ([]*entity.Lead, error) {
	return lc.Visibility.VisibleLeads(ctx, caller, listID)
}

// ListCustomers returns the caller's live customers; admins get all of them.
func (lc *LifecycleController) ListCustomers(ctx context.Context, caller entity.Caller) ([]*entity.Customer, error) {
	agent := caller.ID
	if caller.IsAdmin() {
		agent = ""
	}
	out, err := lc.Customers.FindByAgent(ctx, agent)
	if err != nil {
		return nil, classify("list customers", err)
	}
	return out, nil
}

func (lc *LifecycleController) ListDepositors(ctx context.Context, caller entity.Caller) ([]*entity.Depositor, error) {
	agent := caller.ID
	if caller.IsAdmin() {
		agent = ""
	}
	out, err := lc.Depositors.FindByAgent(ctx, agent)
	if err != nil {
		return nil, classify("list depositors", err)
	}
	return out, nil
}
