package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/xavierca1/ligue-leads/internal/entity"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return b, nil
}

func fromJSON(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}

// snapshotLabels encodes the frozen labels of a customer or depositor.
func snapshotLabels(s entity.ListSnapshot) ([]byte, error) {
	labels := s.Labels
	if labels == nil {
		labels = []entity.Label{}
	}
	return toJSON(labels)
}

// patchArgs encodes a RecordPatch for patchSet: the status, the keys to set
// as a jsonb object and the keys to drop.
func patchArgs(p entity.RecordPatch) (string, []byte, any, error) {
	set, removed := p.CustomFields.Split()
	payload, err := toJSON(set)
	if err != nil {
		return "", nil, nil, err
	}
	return p.Status, payload, pq.Array(removed), nil
}

// patchSet is the SET clause shared by the Patch writes. An empty status
// keeps the stored one.
const patchSet = `status = COALESCE(NULLIF($2, ''), status),
		custom_fields = (custom_fields || $3::jsonb) - $4::text[],
		updated_at = NOW()`

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// qualified prefixes every column of a comma separated list with alias.
func qualified(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
