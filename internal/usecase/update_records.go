package usecase

import (
	"context"
	"strings"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// UpdateLead applies an optional status, note and custom-field patch to a
// lead. A status-only update appends no note. The note is mirrored onto the
// lead's live Customer.
func (lc *LifecycleController) UpdateLead(ctx context.Context, caller entity.Caller, leadID string, in UpdateRecordInput) (*entity.Lead, error) {
	if in.empty() {
		return nil, invalid("NOTHING_TO_UPDATE", "Provide a status, a note or custom fields")
	}
	lead, err := lc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, classify("find lead", err)
	}
	if lead.IsOwned() {
		if err := requireOwnerOrAdmin(caller, lead.AssignedTo, "update this lead"); err != nil {
			return nil, err
		}
	} else {
		ok, err := lc.Visibility.CanSeeLead(ctx, caller, lead)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, forbidden("You cannot see this lead")
		}
	}

	var patch entity.RecordPatch
	if len(in.CustomFields) > 0 {
		list, err := lc.Registry.FindList(ctx, lead.LeadListID)
		if err != nil {
			return nil, err
		}
		if list != nil {
			if errs := ValidateCustomFields(list.Labels, lead.CustomFields.Merge(in.CustomFields)); len(errs) > 0 {
				return nil, validationFailure(errs)
			}
		}
		patch.CustomFields = in.CustomFields
	}
	if in.Status != nil {
		patch.Status = *in.Status
	}
	if !patch.Empty() {
		if err := lc.Leads.Patch(ctx, lead.ID, patch); err != nil {
			return nil, classify("update lead", err)
		}
	}

	if note := strings.TrimSpace(in.Note); note != "" {
		var mirrors []EntityRef
		if lead.IsOwned() {
			c, err := lc.customerOfLead(ctx, lead.ID)
			if err != nil {
				return nil, err
			}
			if c != nil && c.IsLive() {
				mirrors = append(mirrors, CustomerRef(c.ID))
			}
		}
		if _, err := lc.Ledger.AppendNote(ctx, LeadRef(lead.ID), note, caller.ID, mirrors...); err != nil {
			return nil, classify("append note", err)
		}
	}

	lead, err = lc.Leads.FindByID(ctx, lead.ID)
	if err != nil {
		return nil, classify("reload lead", err)
	}
	return lead, nil
}

// UpdateCustomer applies an optional status, note and custom-field patch.
// Custom fields are validated against the frozen list labels. The note is
// mirrored onto the original lead when it still exists.
func (lc *LifecycleController) UpdateCustomer(ctx context.Context, caller entity.Caller, customerID string, in UpdateRecordInput) (*entity.Customer, error) {
	if in.empty() {
		return nil, invalid("NOTHING_TO_UPDATE", "Provide a status, a note or custom fields")
	}
	customer, err := lc.Customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, classify("find customer", err)
	}
	if err := requireOwnerOrAdmin(caller, customer.Agent, "update this customer"); err != nil {
		return nil, err
	}

	var patch entity.RecordPatch
	if len(in.CustomFields) > 0 {
		if errs := ValidateCustomFields(customer.Labels, customer.CustomFields.Merge(in.CustomFields)); len(errs) > 0 {
			return nil, validationFailure(errs)
		}
		patch.CustomFields = in.CustomFields
	}
	if in.Status != nil {
		patch.Status = *in.Status
	}
	if !patch.Empty() {
		if err := lc.Customers.Patch(ctx, customer.ID, patch); err != nil {
			return nil, classify("update customer", err)
		}
	}

	if note := strings.TrimSpace(in.Note); note != "" {
		var mirrors []EntityRef
		if customer.OriginalLead != "" {
			mirrors = append(mirrors, LeadRef(customer.OriginalLead))
		}
		if _, err := lc.Ledger.AppendNote(ctx, CustomerRef(customer.ID), note, caller.ID, mirrors...); err != nil {
			return nil, classify("append note", err)
		}
	}

	customer, err = lc.Customers.FindByID(ctx, customer.ID)
	if err != nil {
		return nil, classify("reload customer", err)
	}
	return customer, nil
}

// UpdateDepositor mirrors UpdateCustomer for depositors.
func (lc *LifecycleController) UpdateDepositor(ctx context.Context, caller entity.Caller, depositorID string, in UpdateRecordInput) (*entity.Depositor, error) {
	if in.empty() {
		return nil, invalid("NOTHING_TO_UPDATE", "Provide a status, a note or custom fields")
	}
	depositor, err := lc.Depositors.FindByID(ctx, depositorID)
	if err != nil {
		return nil, classify("find depositor", err)
	}
	if err := requireOwnerOrAdmin(caller, depositor.Agent, "update this depositor"); err != nil {
		return nil, err
	}

	var patch entity.RecordPatch
	if len(in.CustomFields) > 0 {
		if errs := ValidateCustomFields(depositor.Labels, depositor.CustomFields.Merge(in.CustomFields)); len(errs) > 0 {
			return nil, validationFailure(errs)
		}
		patch.CustomFields = in.CustomFields
	}
	if in.Status != nil {
		patch.Status = *in.Status
	}
	if !patch.Empty() {
		if err := lc.Depositors.Patch(ctx, depositor.ID, patch); err != nil {
			return nil, classify("update depositor", err)
		}
	}

	if note := strings.TrimSpace(in.Note); note != "" {
		var mirrors []EntityRef
		if depositor.OriginalLead != "" {
			mirrors = append(mirrors, LeadRef(depositor.OriginalLead))
		}
		if _, err := lc.Ledger.AppendNote(ctx, DepositorRef(depositor.ID), note, caller.ID, mirrors...); err != nil {
			return nil, classify("append note", err)
		}
	}

	depositor, err = lc.Depositors.FindByID(ctx, depositor.ID)
	if err != nil {
		return nil, classify("reload depositor", err)
	}
	return depositor, nil
}
