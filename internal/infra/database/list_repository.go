package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/xavierca1/ligue-leads/internal/entity"
)

var _ entity.LeadListRepositoryInterface = (*LeadListRepository)(nil)

type LeadListRepository struct {
	DB *sql.DB
}

func NewLeadListRepository(db *sql.DB) *LeadListRepository {
	return &LeadListRepository{DB: db}
}

const listColumns = `id, name, description, labels, is_visible_to_users, visible_to_specific_agents,
	is_system, is_active, is_customer_list, created_by, created_at, updated_at`

func scanList(row rowScanner) (*entity.LeadList, error) {
	var (
		l      entity.LeadList
		labels []byte
		agents pq.StringArray
	)
	err := row.Scan(
		&l.ID, &l.Name, &l.Description, &labels, &l.IsVisibleToUsers, &agents,
		&l.IsSystem, &l.IsActive, &l.IsCustomerList, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Labels = []entity.Label{}
	if err := fromJSON(labels, &l.Labels); err != nil {
		return nil, err
	}
	l.VisibleToSpecificAgents = []string(agents)
	return &l, nil
}

func (r *LeadListRepository) Create(ctx context.Context, l *entity.LeadList) error {
	labels, err := toJSON(l.Labels)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO lead_lists (id, name, description, labels, is_visible_to_users, visible_to_specific_agents,
			is_system, is_active, is_customer_list, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		l.ID, l.Name, l.Description, labels, l.IsVisibleToUsers, pq.Array(agentsOrEmpty(l.VisibleToSpecificAgents)),
		l.IsSystem, l.IsActive, l.IsCustomerList, l.CreatedBy, l.CreatedAt, l.UpdatedAt,
	)
	return err
}

func (r *LeadListRepository) FindByID(ctx context.Context, id string) (*entity.LeadList, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+listColumns+` FROM lead_lists WHERE id = $1`, id)
	l, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrListNotFound
	}
	return l, err
}

func (r *LeadListRepository) FindAll(ctx context.Context, includeInactive bool) ([]*entity.LeadList, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+listColumns+` FROM lead_lists WHERE $1 OR is_active ORDER BY created_at`,
		includeInactive,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*entity.LeadList{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LeadListRepository) Update(ctx context.Context, l *entity.LeadList) error {
	labels, err := toJSON(l.Labels)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE lead_lists
		SET name = $2, description = $3, labels = $4, is_visible_to_users = $5, visible_to_specific_agents = $6,
		    is_active = $7, is_customer_list = $8, updated_at = NOW()
		WHERE id = $1
	`,
		l.ID, l.Name, l.Description, labels, l.IsVisibleToUsers, pq.Array(agentsOrEmpty(l.VisibleToSpecificAgents)),
		l.IsActive, l.IsCustomerList,
	)
	return affected(res, err, entity.ErrListNotFound)
}

func (r *LeadListRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM lead_lists WHERE id = $1 AND NOT is_system`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	l, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if l.IsSystem {
		return entity.ErrSystemList
	}
	return entity.ErrListNotFound
}

// EnsureSystem returns the system list called name, creating it if needed.
// The partial unique index on system names makes concurrent calls converge
// on one row.
func (r *LeadListRepository) EnsureSystem(ctx context.Context, name string) (*entity.LeadList, error) {
	fresh := entity.NewSystemList(name)
	labels, err := toJSON(fresh.Labels)
	if err != nil {
		return nil, err
	}
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO lead_lists (id, name, description, labels, is_visible_to_users, visible_to_specific_agents,
			is_system, is_active, is_customer_list, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, '{}', TRUE, TRUE, FALSE, '', $6, $6)
		ON CONFLICT (name) WHERE is_system DO NOTHING
	`, fresh.ID, fresh.Name, fresh.Description, labels, fresh.IsVisibleToUsers, fresh.CreatedAt)
	if err != nil {
		return nil, err
	}

	row := r.DB.QueryRowContext(ctx, `SELECT `+listColumns+` FROM lead_lists WHERE is_system AND name = $1`, name)
	return scanList(row)
}

func agentsOrEmpty(agents []string) []string {
	if agents == nil {
		return []string{}
	}
	return agents
}
