// Package memory provides an in-process implementation of the entity
// repositories used by tests and by the memory storage driver.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

var (
	_ entity.LeadRepositoryInterface      = (*LeadRepository)(nil)
	_ entity.CustomerRepositoryInterface  = (*CustomerRepository)(nil)
	_ entity.DepositorRepositoryInterface = (*DepositorRepository)(nil)
	_ entity.LeadListRepositoryInterface  = (*LeadListRepository)(nil)
)

// Store keeps every record behind one mutex so conditional writes are atomic.
// Records are cloned on the way in and out.
type Store struct {
	mu         sync.Mutex
	leads      map[string]*entity.Lead
	customers  map[string]*entity.Customer
	depositors map[string]*entity.Depositor
	lists      map[string]*entity.LeadList
}

func NewStore() *Store {
	return &Store{
		leads:      make(map[string]*entity.Lead),
		customers:  make(map[string]*entity.Customer),
		depositors: make(map[string]*entity.Depositor),
		lists:      make(map[string]*entity.LeadList),
	}
}

func (s *Store) Leads() *LeadRepository           { return &LeadRepository{s: s} }
func (s *Store) Customers() *CustomerRepository   { return &CustomerRepository{s: s} }
func (s *Store) Depositors() *DepositorRepository { return &DepositorRepository{s: s} }
func (s *Store) Lists() *LeadListRepository       { return &LeadListRepository{s: s} }

// Ping always succeeds; it lets the store stand in for a database in health checks.
func (s *Store) Ping(context.Context) error { return nil }

type LeadRepository struct{ s *Store }

func (r *LeadRepository) Create(_ context.Context, lead *entity.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.leads[lead.ID] = lead.Clone()
	return nil
}

func (r *LeadRepository) FindByID(_ context.Context, id string) (*entity.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	return l.Clone(), nil
}

func (r *LeadRepository) FindByLists(_ context.Context, listIDs []string) ([]*entity.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var want map[string]bool
	if listIDs != nil {
		want = make(map[string]bool, len(listIDs))
		for _, id := range listIDs {
			want[id] = true
		}
	}
	out := []*entity.Lead{}
	for _, l := range r.s.leads {
		if want != nil && !want[l.LeadListID] {
			continue
		}
		out = append(out, l.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *LeadRepository) Update(_ context.Context, lead *entity.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.leads[lead.ID]
	if !ok {
		return entity.ErrLeadNotFound
	}
	cur.Contact = lead.Contact
	cur.Status = lead.Status
	cur.CustomFields = lead.CustomFields.Clone()
	cur.LeadListID = lead.LeadListID
	cur.UpdatedAt = time.Now()
	return nil
}

func (r *LeadRepository) Patch(_ context.Context, id string, p entity.RecordPatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.leads[id]
	if !ok {
		return entity.ErrLeadNotFound
	}
	if p.Status != "" {
		cur.Status = p.Status
	}
	cur.CustomFields = cur.CustomFields.Merge(p.CustomFields)
	cur.UpdatedAt = time.Now()
	return nil
}

func (r *LeadRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.leads[id]; !ok {
		return entity.ErrLeadNotFound
	}
	delete(r.s.leads, id)
	return nil
}

func (r *LeadRepository) DeleteByList(_ context.Context, listID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, l := range r.s.leads {
		if l.LeadListID == listID {
			delete(r.s.leads, id)
			n++
		}
	}
	return n, nil
}

func (r *LeadRepository) MoveToList(_ context.Context, id, listID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.leads[id]
	if !ok {
		return entity.ErrLeadNotFound
	}
	if l.IsOwned() {
		return entity.ErrLeadAlreadyOwned
	}
	l.LeadListID = listID
	l.UpdatedAt = time.Now()
	return nil
}

func (r *LeadRepository) Claim(_ context.Context, id, agent string) error {
	return r.swapOwner(id, "", agent, entity.ErrLeadAlreadyOwned)
}

func (r *LeadRepository) Reassign(_ context.Context, id, from, to string) error {
	return r.swapOwner(id, from, to, entity.ErrOwnershipChanged)
}

func (r *LeadRepository) Unassign(_ context.Context, id, from string) error {
	return r.swapOwner(id, from, "", entity.ErrOwnershipChanged)
}

func (r *LeadRepository) swapOwner(id, expected, next string, mismatch error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.leads[id]
	if !ok {
		return entity.ErrLeadNotFound
	}
	if l.AssignedTo != expected {
		return mismatch
	}
	l.AssignedTo = next
	l.UpdatedAt = time.Now()
	return nil
}

func (r *LeadRepository) AppendNotes(_ context.Context, id string, notes ...entity.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.leads[id]
	if !ok {
		return entity.ErrLeadNotFound
	}
	l.Notes = append(l.Notes, notes...)
	l.UpdatedAt = time.Now()
	return nil
}

func (r *LeadRepository) FindOrphanedClaims(_ context.Context, olderThan time.Time) ([]*entity.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	backed := make(map[string]bool)
	for _, c := range r.s.customers {
		if c.IsLive() {
			backed[c.OriginalLead] = true
		}
	}
	for _, d := range r.s.depositors {
		backed[d.OriginalLead] = true
	}
	out := []*entity.Lead{}
	for _, l := range r.s.leads {
		if l.IsOwned() && !backed[l.ID] && !l.UpdatedAt.After(olderThan) {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}
