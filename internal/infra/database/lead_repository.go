package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/xavierca1/ligue-leads/internal/entity"
)

var _ entity.LeadRepositoryInterface = (*LeadRepository)(nil)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `id, name, email, phone, country, status, assigned_to, custom_fields, lead_list_id, notes, created_at, updated_at`

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		l          entity.Lead
		assignedTo sql.NullString
		listID     sql.NullString
		fields     []byte
		notes      []byte
	)
	err := row.Scan(
		&l.ID, &l.Name, &l.Email, &l.Phone, &l.Country, &l.Status,
		&assignedTo, &fields, &listID, &notes, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.AssignedTo = assignedTo.String
	l.LeadListID = listID.String
	l.CustomFields = entity.CustomFields{}
	l.Notes = entity.Notes{}
	if err := fromJSON(fields, &l.CustomFields); err != nil {
		return nil, err
	}
	if err := fromJSON(notes, &l.Notes); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	fields, err := toJSON(lead.CustomFields.Clone())
	if err != nil {
		return err
	}
	notes, err := toJSON(lead.Notes.Clone())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO leads (id, name, email, phone, country, status, assigned_to, custom_fields, lead_list_id, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.DB.ExecContext(ctx, query,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.Country, lead.Status,
		nullString(lead.AssignedTo), fields, nullString(lead.LeadListID), notes,
		lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		log.Printf("[database] insert lead %s: %v", lead.ID, err)
		return err
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	return lead, err
}

// FindByLists returns leads of the given lists, newest first. A nil slice
// means every lead.
func (r *LeadRepository) FindByLists(ctx context.Context, listIDs []string) ([]*entity.Lead, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if listIDs == nil {
		rows, err = r.DB.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC`)
	} else {
		rows, err = r.DB.QueryContext(ctx,
			`SELECT `+leadColumns+` FROM leads WHERE lead_list_id = ANY($1) ORDER BY created_at DESC`,
			pq.Array(listIDs),
		)
	}
	if err != nil {
		return nil, err
	}
	return collectLeads(rows)
}

func collectLeads(rows *sql.Rows) ([]*entity.Lead, error) {
	defer rows.Close()
	out := []*entity.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	return out, rows.Err()
}

// Update writes contact, status, custom fields and list. Ownership and notes
// have their own conditional writes.
func (r *LeadRepository) Update(ctx context.Context, lead *entity.Lead) error {
	fields, err := toJSON(lead.CustomFields.Clone())
	if err != nil {
		return err
	}
	query := `
		UPDATE leads
		SET name = $2, email = $3, phone = $4, country = $5, status = $6,
		    custom_fields = $7, lead_list_id = $8, updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.Country, lead.Status,
		fields, nullString(lead.LeadListID),
	)
	return affected(res, err, entity.ErrLeadNotFound)
}

func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	return affected(res, err, entity.ErrLeadNotFound)
}

func (r *LeadRepository) DeleteByList(ctx context.Context, listID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE lead_list_id = $1`, listID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MoveToList changes the list only while the lead has no owner, so a claim
// racing a transfer cannot end with an owned lead in the new list.
func (r *LeadRepository) MoveToList(ctx context.Context, id, listID string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE leads SET lead_list_id = $2, updated_at = NOW() WHERE id = $1 AND assigned_to IS NULL`,
		id, listID,
	)
	return r.swapped(ctx, id, res, err, entity.ErrLeadAlreadyOwned)
}

// Claim sets the owner only while the lead has none. The condition is part
// of the UPDATE, so concurrent claims serialize on the row lock.
func (r *LeadRepository) Claim(ctx context.Context, id, agent string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE leads SET assigned_to = $2, updated_at = NOW() WHERE id = $1 AND assigned_to IS NULL`,
		id, agent,
	)
	return r.swapped(ctx, id, res, err, entity.ErrLeadAlreadyOwned)
}

func (r *LeadRepository) Reassign(ctx context.Context, id, from, to string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE leads SET assigned_to = $3, updated_at = NOW() WHERE id = $1 AND assigned_to = $2`,
		id, from, to,
	)
	return r.swapped(ctx, id, res, err, entity.ErrOwnershipChanged)
}

func (r *LeadRepository) Unassign(ctx context.Context, id, from string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE leads SET assigned_to = NULL, updated_at = NOW() WHERE id = $1 AND assigned_to = $2`,
		id, from,
	)
	return r.swapped(ctx, id, res, err, entity.ErrOwnershipChanged)
}

// swapped tells a missing lead apart from a failed ownership condition.
func (r *LeadRepository) swapped(ctx context.Context, id string, res sql.Result, err error, mismatch error) error {
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
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM leads WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return entity.ErrLeadNotFound
	}
	return mismatch
}

// Patch writes only the patched status and custom-field keys, so concurrent
// edits of different fields do not overwrite each other.
func (r *LeadRepository) Patch(ctx context.Context, id string, p entity.RecordPatch) error {
	status, set, removed, err := patchArgs(p)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE leads SET `+patchSet+` WHERE id = $1`, id, status, set, removed)
	return affected(res, err, entity.ErrLeadNotFound)
}

func (r *LeadRepository) AppendNotes(ctx context.Context, id string, notes ...entity.Note) error {
	if len(notes) == 0 {
		return nil
	}
	payload, err := toJSON(notes)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE leads SET notes = notes || $2::jsonb, updated_at = NOW() WHERE id = $1`,
		id, payload,
	)
	return affected(res, err, entity.ErrLeadNotFound)
}

// FindOrphanedClaims returns owned leads backed by neither a live customer
// nor a depositor and not written since olderThan.
func (r *LeadRepository) FindOrphanedClaims(ctx context.Context, olderThan time.Time) ([]*entity.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads l
		WHERE l.assigned_to IS NOT NULL
		  AND l.updated_at <= $1
		  AND NOT EXISTS (SELECT 1 FROM customers c WHERE c.original_lead_id = l.id AND c.released_at IS NULL)
		  AND NOT EXISTS (SELECT 1 FROM depositors d WHERE d.original_lead_id = l.id)
		ORDER BY l.updated_at
	`
	rows, err := r.DB.QueryContext(ctx, query, olderThan)
	if err != nil {
		return nil, fmt.Errorf("query orphaned claims: %w", err)
	}
	return collectLeads(rows)
}

// affected maps an UPDATE/DELETE that touched no row to notFound.
func affected(res sql.Result, err error, notFound error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
