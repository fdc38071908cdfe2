package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerResnapshotKeepsIdentityAndNotes(t *testing.T) {
	lead := NewLead(Contact{Name: "Ana"}, "l1", CustomFields{"budget": 100})
	first, err := NewLeadList("Campaign A", "", []Label{{Name: "budget", DisplayLabel: "Budget", Type: LabelNumber}}, "admin")
	require.NoError(t, err)
	first.ID = "l1"
	c := NewCustomerFromLead(lead, first, "a1")
	c.Notes = Notes{{ID: "n1", Content: "hello", CreatedAt: time.Now()}}
	released := time.Now()
	c.ReleasedAt = &released

	second, err := NewLeadList("Campaign B", "", nil, "admin")
	require.NoError(t, err)
	second.ID = "l2"
	lead.LeadListID = "l2"
	lead.Status = StatusQualified
	lead.Name = "Ana Souza"
	lead.CustomFields = CustomFields{}

	next := c.Resnapshot(lead, second, "a2")
	assert.Equal(t, c.ID, next.ID)
	assert.Equal(t, c.CreatedAt, next.CreatedAt)
	assert.Equal(t, c.Notes, next.Notes)
	assert.True(t, next.IsLive())
	assert.Equal(t, "a2", next.Agent)
	assert.Equal(t, "l2", next.ListID)
	assert.Equal(t, "Campaign B", next.ListName)
	assert.Empty(t, next.Labels)
	assert.Equal(t, StatusQualified, next.Status)
	assert.Equal(t, "Ana Souza", next.Name)
	assert.Empty(t, next.CustomFields)

	assert.Equal(t, "l1", c.ListID, "the receiver is not modified")
}

func TestCustomFieldsSplit(t *testing.T) {
	set, removed := CustomFields{"budget": 10, "source": nil}.Split()
	assert.Equal(t, CustomFields{"budget": 10}, set)
	assert.Equal(t, []string{"source"}, removed)
}
