package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xavierca1/ligue-leads/internal/entity"
)

func TestValidateCustomFields(t *testing.T) {
	labels := []entity.Label{
		{Name: "budget", Type: entity.LabelNumber},
		{Name: "contact_email", Type: entity.LabelEmail},
		{Name: "mobile", Type: entity.LabelPhone},
		{Name: "source", Type: entity.LabelSelect, Options: []string{"ads", "referral"}},
		{Name: "company", Type: entity.LabelText, Required: true},
	}

	tests := []struct {
		name   string
		fields entity.CustomFields
		failed []string
	}{
		{
			name:   "valid",
			fields: entity.CustomFields{"budget": 10.5, "contact_email": "ana@example.com", "mobile": "+55 (11) 99999-0000", "source": "ads", "company": "ACME"},
		},
		{
			name:   "numeric string",
			fields: entity.CustomFields{"budget": " 42 ", "company": "ACME"},
		},
		{
			name:   "missing required",
			fields: entity.CustomFields{"budget": 1},
			failed: []string{"company"},
		},
		{
			name:   "blank required",
			fields: entity.CustomFields{"company": "   "},
			failed: []string{"company"},
		},
		{
			name:   "wrong types",
			fields: entity.CustomFields{"budget": "lots", "contact_email": "nope", "mobile": "12", "source": "tv", "company": 3},
			failed: []string{"budget", "contact_email", "mobile", "source", "company"},
		},
		{
			name:   "unknown keys pass",
			fields: entity.CustomFields{"company": "ACME", "legacy_id": 99},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateCustomFields(labels, tt.fields)
			var got []string
			for _, e := range errs {
				got = append(got, e.Field)
			}
			assert.Equal(t, tt.failed, got)
		})
	}
}

func TestValidationFailureMessage(t *testing.T) {
	err := validationFailure([]ValidationError{{"budget", "must be a number"}, {"company", "is required"}})
	assert.Equal(t, KindInvalidInput, err.Kind)
	assert.Equal(t, "validation failed: budget: must be a number, company: is required", err.Message)
}
