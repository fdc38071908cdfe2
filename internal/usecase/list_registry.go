package usecase

import (
	"context"
	"errors"
	"log"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// ListRegistry owns LeadList definitions and the fallback pool list.
type ListRegistry struct {
	Lists        entity.LeadListRepositoryInterface
	Leads        entity.LeadRepositoryInterface
	FallbackName string
}

func NewListRegistry(lists entity.LeadListRepositoryInterface, leads entity.LeadRepositoryInterface, fallbackName string) *ListRegistry {
	if fallbackName == "" {
		fallbackName = entity.DefaultFallbackListName
	}
	return &ListRegistry{Lists: lists, Leads: leads, FallbackName: fallbackName}
}

func (r *ListRegistry) CreateList(ctx context.Context, caller entity.Caller, in CreateListInput) (*entity.LeadList, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("Only admins can create lists")
	}
	list, err := entity.NewLeadList(in.Name, in.Description, in.Labels, caller.ID)
	if err != nil {
		return nil, invalid("INVALID_LIST", err.Error())
	}
	list.IsVisibleToUsers = in.IsVisibleToUsers
	list.VisibleToSpecificAgents = in.VisibleToSpecificAgents
	list.IsCustomerList = in.IsCustomerList
	if err := r.Lists.Create(ctx, list); err != nil {
		return nil, classify("create list", err)
	}
	log.Printf("[lists] list %s (%s) created by %s", list.ID, list.Name, caller.ID)
	return list, nil
}

// UpdateList applies patch. Snapshots already frozen on customers and
// depositors are not touched.
func (r *ListRegistry) UpdateList(ctx context.Context, caller entity.Caller, id string, patch entity.LeadListPatch) (*entity.LeadList, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("Only admins can edit lists")
	}
	list, err := r.Lists.FindByID(ctx, id)
	if err != nil {
		return nil, classify("find list", err)
	}
	if err := list.Apply(patch); err != nil {
		return nil, invalid("INVALID_LIST", err.Error())
	}
	if err := r.Lists.Update(ctx, list); err != nil {
		return nil, classify("update list", err)
	}
	return list, nil
}

// DeleteList deactivates the list; hard also deletes it and all its leads.
func (r *ListRegistry) DeleteList(ctx context.Context, caller entity.Caller, id string, hard bool) (*DeleteListOutput, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("Only admins can delete lists")
	}
	list, err := r.Lists.FindByID(ctx, id)
	if err != nil {
		return nil, classify("find list", err)
	}
	if list.IsSystem {
		return nil, classify("delete list", entity.ErrSystemList)
	}

	if !hard {
		list.IsActive = false
		if err := r.Lists.Update(ctx, list); err != nil {
			return nil, classify("deactivate list", err)
		}
		return &DeleteListOutput{Message: "List deactivated"}, nil
	}

	n, err := r.Leads.DeleteByList(ctx, id)
	if err != nil {
		return nil, classify("delete list leads", err)
	}
	if err := r.Lists.Delete(ctx, id); err != nil {
		log.Printf("[lists] CRITICAL: %d leads of list %s deleted but the list was not: %v", n, id, err)
		return nil, classify("delete list", err)
	}
	log.Printf("[lists] list %s deleted with %d leads by %s", id, n, caller.ID)
	return &DeleteListOutput{Message: "List and its leads deleted", DeletedLeads: n}, nil
}

// FindList returns nil without error when the list does not exist.
func (r *ListRegistry) FindList(ctx context.Context, id string) (*entity.LeadList, error) {
	if id == "" {
		return nil, nil
	}
	list, err := r.Lists.FindByID(ctx, id)
	if errors.Is(err, entity.ErrListNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("find list", err)
	}
	return list, nil
}

// EnsureFallbackList returns the system pool list, creating it on first use.
func (r *ListRegistry) EnsureFallbackList(ctx context.Context) (*entity.LeadList, error) {
	list, err := r.Lists.EnsureSystem(ctx, r.FallbackName)
	if err != nil {
		return nil, classify("ensure fallback list", err)
	}
	return list, nil
}

// ReleaseTarget picks the list a released contact lands in: its origin list
// when still active, otherwise the fallback pool.
func (r *ListRegistry) ReleaseTarget(ctx context.Context, originListID string) (*entity.LeadList, error) {
	origin, err := r.FindList(ctx, originListID)
	if err != nil {
		return nil, err
	}
	if origin != nil && origin.IsActive {
		return origin, nil
	}
	return r.EnsureFallbackList(ctx)
}
