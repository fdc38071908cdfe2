package usecase

import (
	"context"
	"errors"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// VisibilityFilter decides which lists and leads a caller may see.
type VisibilityFilter struct {
	Lists entity.LeadListRepositoryInterface
	Leads entity.LeadRepositoryInterface
}

func NewVisibilityFilter(lists entity.LeadListRepositoryInterface, leads entity.LeadRepositoryInterface) *VisibilityFilter {
	return &VisibilityFilter{Lists: lists, Leads: leads}
}

// VisibleLists returns the active lists the caller may see.
func (v *VisibilityFilter) VisibleLists(ctx context.Context, caller entity.Caller) ([]*entity.LeadList, error) {
	all, err := v.Lists.FindAll(ctx, false)
	if err != nil {
		return nil, classify("list lists", err)
	}
	out := make([]*entity.LeadList, 0, len(all))
	for _, l := range all {
		if l.VisibleTo(caller) {
			out = append(out, l)
		}
	}
	return out, nil
}

// CanSeeLead reports whether an agent may see lead; admins see every lead.
// Leads without a list are visible to their owner only.
func (v *VisibilityFilter) CanSeeLead(ctx context.Context, caller entity.Caller, lead *entity.Lead) (bool, error) {
	if caller.IsAdmin() || lead.AssignedTo == caller.ID {
		return true, nil
	}
	if lead.LeadListID == "" {
		return false, nil
	}
	list, err := v.Lists.FindByID(ctx, lead.LeadListID)
	if errors.Is(err, entity.ErrListNotFound) {
		return false, nil
	}
	if err != nil {
		return false, classify("find list", err)
	}
	return list.VisibleTo(caller), nil
}

// VisibleLeads returns the leads of listID, or with an empty listID every
// lead of an active, visible, non-customer list. Admins without a list
// filter see all leads.
func (v *VisibilityFilter) VisibleLeads(ctx context.Context, caller entity.Caller, listID string) ([]*entity.Lead, error) {
	if listID != "" {
		list, err := v.Lists.FindByID(ctx, listID)
		if err != nil {
			return nil, classify("find list", err)
		}
		if !list.VisibleTo(caller) {
			return nil, forbidden("You cannot see this list")
		}
		leads, err := v.Leads.FindByLists(ctx, []string{listID})
		if err != nil {
			return nil, classify("list leads", err)
		}
		return leads, nil
	}

	if caller.IsAdmin() {
		leads, err := v.Leads.FindByLists(ctx, nil)
		if err != nil {
			return nil, classify("list leads", err)
		}
		return leads, nil
	}

	lists, err := v.VisibleLists(ctx, caller)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(lists))
	for _, l := range lists {
		if !l.IsCustomerList {
			ids = append(ids, l.ID)
		}
	}
	if len(ids) == 0 {
		return []*entity.Lead{}, nil
	}
	leads, err := v.Leads.FindByLists(ctx, ids)
	if err != nil {
		return nil, classify("list leads", err)
	}
	return leads, nil
}
