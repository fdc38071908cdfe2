package memory

import (
	"context"
	"sort"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type CustomerRepository struct{ s *Store }

func (r *CustomerRepository) Create(_ context.Context, c *entity.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.OriginalLead != "" {
		for _, other := range r.s.customers {
			if other.OriginalLead == c.OriginalLead {
				return entity.ErrCustomerExists
			}
		}
	}
	r.s.customers[c.ID] = c.Clone()
	return nil
}

func (r *CustomerRepository) FindByID(_ context.Context, id string) (*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, entity.ErrCustomerNotFound
	}
	return c.Clone(), nil
}

func (r *CustomerRepository) FindByOriginalLead(_ context.Context, leadID string) (*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.customers {
		if c.OriginalLead == leadID {
			return c.Clone(), nil
		}
	}
	return nil, entity.ErrCustomerNotFound
}

func (r *CustomerRepository) FindByAgent(_ context.Context, agent string) ([]*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.Customer{}
	for _, c := range r.s.customers {
		if !c.IsLive() || (agent != "" && c.Agent != agent) {
			continue
		}
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *CustomerRepository) Update(_ context.Context, c *entity.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.customers[c.ID]
	if !ok {
		return entity.ErrCustomerNotFound
	}
	next := c.Clone()
	cur.Contact = next.Contact
	cur.Status = next.Status
	cur.CustomFields = next.CustomFields
	cur.Agent = next.Agent
	cur.ListSnapshot = next.ListSnapshot
	cur.ReleasedAt = next.ReleasedAt
	cur.UpdatedAt = time.Now()
	return nil
}

func (r *CustomerRepository) Patch(_ context.Context, id string, p entity.RecordPatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.customers[id]
	if !ok {
		return entity.ErrCustomerNotFound
	}
	if p.Status != "" {
		cur.Status = p.Status
	}
	cur.CustomFields = cur.CustomFields.Merge(p.CustomFields)
	cur.UpdatedAt = time.Now()
	return nil
}

func (r *CustomerRepository) AppendNotes(_ context.Context, id string, notes ...entity.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[id]
	if !ok {
		return entity.ErrCustomerNotFound
	}
	c.Notes = append(c.Notes, notes...)
	return nil
}

func (r *CustomerRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.customers[id]; !ok {
		return entity.ErrCustomerNotFound
	}
	delete(r.s.customers, id)
	return nil
}

func (r *CustomerRepository) FindMismatched(_ context.Context) ([]*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.Customer{}
	for _, c := range r.s.customers {
		if !c.IsLive() {
			continue
		}
		lead, ok := r.s.leads[c.OriginalLead]
		if !ok {
			continue
		}
		if lead.AssignedTo != c.Agent {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

type DepositorRepository struct{ s *Store }

func (r *DepositorRepository) Create(_ context.Context, d *entity.Depositor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.depositors[d.ID] = d.Clone()
	return nil
}

func (r *DepositorRepository) FindByID(_ context.Context, id string) (*entity.Depositor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.depositors[id]
	if !ok {
		return nil, entity.ErrDepositorNotFound
	}
	return d.Clone(), nil
}

func (r *DepositorRepository) FindByOriginalLead(_ context.Context, leadID string) (*entity.Depositor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.depositors {
		if d.OriginalLead == leadID {
			return d.Clone(), nil
		}
	}
	return nil, entity.ErrDepositorNotFound
}

func (r *DepositorRepository) FindByAgent(_ context.Context, agent string) ([]*entity.Depositor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entity.Depositor{}
	for _, d := range r.s.depositors {
		if agent != "" && d.Agent != agent {
			continue
		}
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *DepositorRepository) Update(_ context.Context, d *entity.Depositor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.depositors[d.ID]
	if !ok {
		return entity.ErrDepositorNotFound
	}
	cur.Status = d.Status
	cur.CustomFields = d.CustomFields.Clone()
	cur.Agent = d.Agent
	cur.UpdatedAt = time.Now()
	return nil
}

func (r *DepositorRepository) Patch(_ context.Context, id string, p entity.RecordPatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.depositors[id]
	if !ok {
		return entity.ErrDepositorNotFound
	}
	if p.Status != "" {
		cur.Status = p.Status
	}
	cur.CustomFields = cur.CustomFields.Merge(p.CustomFields)
	cur.UpdatedAt = time.Now()
	return nil
}

func (r *DepositorRepository) AppendNotes(_ context.Context, id string, notes ...entity.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.depositors[id]
	if !ok {
		return entity.ErrDepositorNotFound
	}
	d.Notes = append(d.Notes, notes...)
	return nil
}

func (r *DepositorRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.depositors[id]; !ok {
		return entity.ErrDepositorNotFound
	}
	delete(r.s.depositors, id)
	return nil
}
