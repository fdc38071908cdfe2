package memory

import (
	"context"
	"sort"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type LeadListRepository struct{ s *Store }

func cloneList(l *entity.LeadList) *entity.LeadList {
	out := *l
	out.Labels = l.Snapshot().Labels
	out.VisibleToSpecificAgents = append([]string(nil), l.VisibleToSpecificAgents...)
	return &out
}

func (r *LeadListRepository) Create(_ context.Context, l *entity.LeadList) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.lists[l.ID] = cloneList(l)
	return nil
}

func (r *LeadListRepository) FindByID(_ context.Context, id string) (*entity.LeadList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lists[id]
	if !ok {
		return nil, entity.ErrListNotFound
	}
	return cloneList(l), nil
}

func (r *LeadListRepository) FindAll(_ context.Context, includeInactive bool) ([]*entity.LeadList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.LeadList{}
	for _, l := range r.s.lists {
		if !includeInactive && !l.IsActive {
			continue
		}
		out = append(out, cloneList(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *LeadListRepository) Update(_ context.Context, l *entity.LeadList) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.lists[l.ID]; !ok {
		return entity.ErrListNotFound
	}
	r.s.lists[l.ID] = cloneList(l)
	return nil
}

func (r *LeadListRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lists[id]
	if !ok {
		return entity.ErrListNotFound
	}
	if l.IsSystem {
		return entity.ErrSystemList
	}
	delete(r.s.lists, id)
	return nil
}

func (r *LeadListRepository) EnsureSystem(_ context.Context, name string) (*entity.LeadList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.lists {
		if l.IsSystem && l.Name == name {
			return cloneList(l), nil
		}
	}
	l := entity.NewSystemList(name)
	r.s.lists[l.ID] = l
	return cloneList(l), nil
}
