package database

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

var _ entity.DepositorRepositoryInterface = (*DepositorRepository)(nil)

type DepositorRepository struct {
	DB *sql.DB
}

func NewDepositorRepository(db *sql.DB) *DepositorRepository {
	return &DepositorRepository{DB: db}
}

const depositorColumns = `id, name, email, phone, country, status, custom_fields, agent, original_lead_id, original_customer_id,
	original_list_id, original_list_name, original_list_labels, notes, created_at, updated_at`

func scanDepositor(row rowScanner) (*entity.Depositor, error) {
	var (
		d      entity.Depositor
		leadID sql.NullString
		fields []byte
		labels []byte
		notes  []byte
	)
	err := row.Scan(
		&d.ID, &d.Name, &d.Email, &d.Phone, &d.Country, &d.Status, &fields, &d.Agent, &leadID, &d.OriginalCustomer,
		&d.ListID, &d.ListName, &labels, &notes, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.OriginalLead = leadID.String
	d.CustomFields = entity.CustomFields{}
	d.Labels = []entity.Label{}
	d.Notes = entity.Notes{}
	if err := fromJSON(fields, &d.CustomFields); err != nil {
		return nil, err
	}
	if err := fromJSON(labels, &d.Labels); err != nil {
		return nil, err
	}
	if err := fromJSON(notes, &d.Notes); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DepositorRepository) Create(ctx context.Context, d *entity.Depositor) error {
	fields, err := toJSON(d.CustomFields.Clone())
	if err != nil {
		return err
	}
	labels, err := snapshotLabels(d.ListSnapshot)
	if err != nil {
		return err
	}
	notes, err := toJSON(d.Notes.Clone())
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO depositors (id, name, email, phone, country, status, custom_fields, agent, original_lead_id, original_customer_id,
			original_list_id, original_list_name, original_list_labels, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		d.ID, d.Name, d.Email, d.Phone, d.Country, d.Status, fields, d.Agent, nullString(d.OriginalLead), d.OriginalCustomer,
		d.ListID, d.ListName, labels, notes, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		log.Printf("[database] insert depositor %s: %v", d.ID, err)
		return err
	}
	return nil
}

func (r *DepositorRepository) FindByID(ctx context.Context, id string) (*entity.Depositor, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+depositorColumns+` FROM depositors WHERE id = $1`, id)
	d, err := scanDepositor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrDepositorNotFound
	}
	return d, err
}

func (r *DepositorRepository) FindByOriginalLead(ctx context.Context, leadID string) (*entity.Depositor, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+depositorColumns+` FROM depositors WHERE original_lead_id = $1 ORDER BY created_at DESC LIMIT 1`,
		leadID,
	)
	d, err := scanDepositor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrDepositorNotFound
	}
	return d, err
}

func (r *DepositorRepository) FindByAgent(ctx context.Context, agent string) ([]*entity.Depositor, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+depositorColumns+`
		FROM depositors
		WHERE $1 = '' OR agent = $1
		ORDER BY updated_at DESC
	`, agent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*entity.Depositor{}
	for rows.Next() {
		d, err := scanDepositor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DepositorRepository) Update(ctx context.Context, d *entity.Depositor) error {
	fields, err := toJSON(d.CustomFields.Clone())
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE depositors SET status = $2, custom_fields = $3, agent = $4, updated_at = NOW() WHERE id = $1`,
		d.ID, d.Status, fields, d.Agent,
	)
	return affected(res, err, entity.ErrDepositorNotFound)
}

func (r *DepositorRepository) Patch(ctx context.Context, id string, p entity.RecordPatch) error {
	status, set, removed, err := patchArgs(p)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE depositors SET `+patchSet+` WHERE id = $1`, id, status, set, removed)
	return affected(res, err, entity.ErrDepositorNotFound)
}

func (r *DepositorRepository) AppendNotes(ctx context.Context, id string, notes ...entity.Note) error {
	if len(notes) == 0 {
		return nil
	}
	payload, err := toJSON(notes)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE depositors SET notes = notes || $2::jsonb, updated_at = NOW() WHERE id = $1`,
		id, payload,
	)
	return affected(res, err, entity.ErrDepositorNotFound)
}

func (r *DepositorRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM depositors WHERE id = $1`, id)
	return affected(res, err, entity.ErrDepositorNotFound)
}
