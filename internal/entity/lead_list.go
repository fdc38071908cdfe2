package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultFallbackListName is the system list that receives released contacts
// whose origin list is gone.
const DefaultFallbackListName = "Released Contacts"

type LabelType string

const (
	LabelText     LabelType = "text"
	LabelNumber   LabelType = "number"
	LabelEmail    LabelType = "email"
	LabelPhone    LabelType = "phone"
	LabelSelect   LabelType = "select"
	LabelTextarea LabelType = "textarea"
)

func (t LabelType) Valid() bool {
	switch t {
	case LabelText, LabelNumber, LabelEmail, LabelPhone, LabelSelect, LabelTextarea:
		return true
	}
	return false
}

// Label defines one custom field of a list.
type Label struct {
	Name         string    `json:"name"`
	DisplayLabel string    `json:"displayLabel"`
	Type         LabelType `json:"type"`
	Options      []string  `json:"options,omitempty"`
	Required     bool      `json:"required"`
}

type LeadList struct {
	ID                      string    `json:"id"`
	Name                    string    `json:"name"`
	Description             string    `json:"description"`
	Labels                  []Label   `json:"labels"`
	IsVisibleToUsers        bool      `json:"isVisibleToUsers"`
	VisibleToSpecificAgents []string  `json:"visibleToSpecificAgents"`
	IsSystem                bool      `json:"isSystem"`
	IsActive                bool      `json:"isActive"`
	IsCustomerList          bool      `json:"isCustomerList"`
	CreatedBy               string    `json:"createdBy,omitempty"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

// NewLeadList builds an active, non-system list owned by createdBy.
func NewLeadList(name, description string, labels []Label, createdBy string) (*LeadList, error) {
	now := time.Now()
	l := &LeadList{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(name),
		Description: description,
		Labels:      labels,
		IsActive:    true,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// NewSystemList builds the fallback pool list.
func NewSystemList(name string) *LeadList {
	now := time.Now()
	return &LeadList{
		ID:               uuid.New().String(),
		Name:             name,
		Description:      "Contacts returned to the pool after their origin list was removed",
		Labels:           []Label{},
		IsVisibleToUsers: true,
		IsSystem:         true,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (l *LeadList) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return errors.New("name is required")
	}
	if !l.IsSystem && l.CreatedBy == "" {
		return errors.New("createdBy is required for non-system lists")
	}
	seen := make(map[string]bool, len(l.Labels))
	for _, lb := range l.Labels {
		if strings.TrimSpace(lb.Name) == "" {
			return errors.New("label name is required")
		}
		if seen[lb.Name] {
			return errors.New("duplicate label " + lb.Name)
		}
		seen[lb.Name] = true
		if !lb.Type.Valid() {
			return errors.New("label " + lb.Name + " has invalid type " + string(lb.Type))
		}
		if lb.Type == LabelSelect && len(lb.Options) == 0 {
			return errors.New("select label " + lb.Name + " needs options")
		}
	}
	return nil
}

// VisibleTo reports whether c may see the list. System lists are always visible.
func (l *LeadList) VisibleTo(c Caller) bool {
	if !l.IsActive {
		return false
	}
	if c.IsAdmin() || l.IsSystem || l.IsVisibleToUsers {
		return true
	}
	for _, id := range l.VisibleToSpecificAgents {
		if id == c.ID {
			return true
		}
	}
	return false
}

// Snapshot freezes the list identity and labels for a Customer or Depositor.
func (l *LeadList) Snapshot() ListSnapshot {
	labels := make([]Label, len(l.Labels))
	for i, lb := range l.Labels {
		lb.Options = append([]string(nil), lb.Options...)
		labels[i] = lb
	}
	return ListSnapshot{ListID: l.ID, ListName: l.Name, Labels: labels}
}

// ListSnapshot is a point-in-time copy of a list, never refreshed from the
// live list.
type ListSnapshot struct {
	ListID   string  `json:"originalLeadList,omitempty"`
	ListName string  `json:"originalListName,omitempty"`
	Labels   []Label `json:"originalListLabels"`
}

func (s ListSnapshot) Clone() ListSnapshot {
	out := ListSnapshot{ListID: s.ListID, ListName: s.ListName, Labels: make([]Label, len(s.Labels))}
	for i, lb := range s.Labels {
		lb.Options = append([]string(nil), lb.Options...)
		out.Labels[i] = lb
	}
	return out
}

// LeadListPatch carries the fields of an updateList call; nil means untouched.
type LeadListPatch struct {
	Name                    *string   `json:"name,omitempty"`
	Description             *string   `json:"description,omitempty"`
	Labels                  *[]Label  `json:"labels,omitempty"`
	IsVisibleToUsers        *bool     `json:"isVisibleToUsers,omitempty"`
	VisibleToSpecificAgents *[]string `json:"visibleToSpecificAgents,omitempty"`
	IsCustomerList          *bool     `json:"isCustomerList,omitempty"`
}

func (l *LeadList) Apply(p LeadListPatch) error {
	next := *l
	if p.Name != nil {
		next.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Labels != nil {
		next.Labels = *p.Labels
	}
	if p.IsVisibleToUsers != nil {
		next.IsVisibleToUsers = *p.IsVisibleToUsers
	}
	if p.VisibleToSpecificAgents != nil {
		next.VisibleToSpecificAgents = *p.VisibleToSpecificAgents
	}
	if p.IsCustomerList != nil {
		next.IsCustomerList = *p.IsCustomerList
	}
	if err := next.Validate(); err != nil {
		return err
	}
	next.UpdatedAt = time.Now()
	*l = next
	return nil
}
