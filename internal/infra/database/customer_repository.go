package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"
	"github.com/xavierca1/ligue-leads/internal/entity"
)

var _ entity.CustomerRepositoryInterface = (*CustomerRepository)(nil)

type CustomerRepository struct {
	DB *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

const customerColumns = `id, name, email, phone, country, status, custom_fields, agent, original_lead_id,
	original_list_id, original_list_name, original_list_labels, notes, released_at, created_at, updated_at`

func scanCustomer(row rowScanner) (*entity.Customer, error) {
	var (
		c          entity.Customer
		leadID     sql.NullString
		fields     []byte
		labels     []byte
		notes      []byte
		releasedAt sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Country, &c.Status, &fields, &c.Agent, &leadID,
		&c.ListID, &c.ListName, &labels, &notes, &releasedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.OriginalLead = leadID.String
	if releasedAt.Valid {
		t := releasedAt.Time
		c.ReleasedAt = &t
	}
	c.CustomFields = entity.CustomFields{}
	c.Labels = []entity.Label{}
	c.Notes = entity.Notes{}
	for _, col := range []struct {
		raw []byte
		dst any
	}{{fields, &c.CustomFields}, {labels, &c.Labels}, {notes, &c.Notes}} {
		if err := fromJSON(col.raw, col.dst); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *entity.Customer) error {
	fields, err := toJSON(c.CustomFields.Clone())
	if err != nil {
		return err
	}
	labels, err := snapshotLabels(c.ListSnapshot)
	if err != nil {
		return err
	}
	notes, err := toJSON(c.Notes.Clone())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO customers (id, name, email, phone, country, status, custom_fields, agent, original_lead_id,
			original_list_id, original_list_name, original_list_labels, notes, released_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = r.DB.ExecContext(ctx, query,
		c.ID, c.Name, c.Email, c.Phone, c.Country, c.Status, fields, c.Agent, nullString(c.OriginalLead),
		c.ListID, c.ListName, labels, notes, nullTime(c.ReleasedAt), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return entity.ErrCustomerExists
		}
		log.Printf("[database] insert customer %s: %v", c.ID, err)
		return err
	}
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*entity.Customer, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrCustomerNotFound
	}
	return c, err
}

func (r *CustomerRepository) FindByOriginalLead(ctx context.Context, leadID string) (*entity.Customer, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE original_lead_id = $1`, leadID)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrCustomerNotFound
	}
	return c, err
}

// FindByAgent returns live customers of agent, or of everyone when agent is empty.
func (r *CustomerRepository) FindByAgent(ctx context.Context, agent string) ([]*entity.Customer, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE released_at IS NULL AND ($1 = '' OR agent = $1)
		ORDER BY updated_at DESC
	`, agent)
	if err != nil {
		return nil, err
	}
	return collectCustomers(rows)
}

func collectCustomers(rows *sql.Rows) ([]*entity.Customer, error) {
	defer rows.Close()
	out := []*entity.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update rewrites the mutable columns, including the list snapshot, which
// changes when a detached customer is reclaimed.
func (r *CustomerRepository) Update(ctx context.Context, c *entity.Customer) error {
	fields, err := toJSON(c.CustomFields.Clone())
	if err != nil {
		return err
	}
	labels, err := snapshotLabels(c.ListSnapshot)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE customers
		SET name = $2, email = $3, phone = $4, country = $5, status = $6, custom_fields = $7, agent = $8,
		    original_list_id = $9, original_list_name = $10, original_list_labels = $11,
		    released_at = $12, updated_at = NOW()
		WHERE id = $1
	`, c.ID, c.Name, c.Email, c.Phone, c.Country, c.Status, fields, c.Agent,
		c.ListID, c.ListName, labels, nullTime(c.ReleasedAt))
	return affected(res, err, entity.ErrCustomerNotFound)
}

func (r *CustomerRepository) Patch(ctx context.Context, id string, p entity.RecordPatch) error {
	status, set, removed, err := patchArgs(p)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE customers SET `+patchSet+` WHERE id = $1`, id, status, set, removed)
	return affected(res, err, entity.ErrCustomerNotFound)
}

func (r *CustomerRepository) AppendNotes(ctx context.Context, id string, notes ...entity.Note) error {
	if len(notes) == 0 {
		return nil
	}
	payload, err := toJSON(notes)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE customers SET notes = notes || $2::jsonb, updated_at = NOW() WHERE id = $1`,
		id, payload,
	)
	return affected(res, err, entity.ErrCustomerNotFound)
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	return affected(res, err, entity.ErrCustomerNotFound)
}

// FindMismatched returns live customers whose lead is held by another agent
// or by nobody.
func (r *CustomerRepository) FindMismatched(ctx context.Context) ([]*entity.Customer, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+qualified("c", customerColumns)+`
		FROM customers c
		JOIN leads l ON l.id = c.original_lead_id
		WHERE c.released_at IS NULL
		  AND l.assigned_to IS DISTINCT FROM c.agent
		ORDER BY c.updated_at
	`)
	if err != nil {
		return nil, fmt.Errorf("query mismatched customers: %w", err)
	}
	return collectCustomers(rows)
}
