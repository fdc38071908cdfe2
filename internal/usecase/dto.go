package usecase

import "github.com/xavierca1/ligue-leads/internal/entity"

type OwnLeadOutput struct {
	Lead     *entity.Lead     `json:"lead"`
	Customer *entity.Customer `json:"customer"`
	Message  string           `json:"message"`
}

type ReleaseLeadOutput struct {
	Lead    *entity.Lead `json:"lead"`
	Message string       `json:"message"`
}

type TakeOverOutput struct {
	Lead     *entity.Lead     `json:"lead"`
	Customer *entity.Customer `json:"customer,omitempty"`
	Message  string           `json:"message"`
}

type TransferLeadInput struct {
	TargetListID string `json:"targetListId"`
}

type MessageOutput struct {
	Message string `json:"message"`
}

// UpdateRecordInput is the body of the /notes endpoints. Every field is
// optional but at least one must be set.
type UpdateRecordInput struct {
	Status       *string             `json:"status,omitempty"`
	Note         string              `json:"note,omitempty"`
	CustomFields entity.CustomFields `json:"customFields,omitempty"`
}

func (in UpdateRecordInput) empty() bool {
	return (in.Status == nil || *in.Status == "") && in.Note == "" && len(in.CustomFields) == 0
}

type ReleaseCustomerOutput struct {
	Lead       *entity.Lead     `json:"lead"`
	TargetList *entity.LeadList `json:"targetList"`
	Message    string           `json:"message"`
}

type MoveToDepositorsOutput struct {
	Depositor *entity.Depositor `json:"depositor"`
	Message   string            `json:"message"`
}

type ReleaseDepositorOutput struct {
	Customer *entity.Customer `json:"customer"`
	Message  string           `json:"message"`
}

type CreateLeadInput struct {
	entity.Contact
	CustomFields entity.CustomFields `json:"customFields"`
	Status       string              `json:"status,omitempty"`
}

type CreateListInput struct {
	Name                    string         `json:"name"`
	Description             string         `json:"description"`
	Labels                  []entity.Label `json:"labels"`
	IsVisibleToUsers        bool           `json:"isVisibleToUsers"`
	VisibleToSpecificAgents []string       `json:"visibleToSpecificAgents"`
	IsCustomerList          bool           `json:"isCustomerList"`
}

type DeleteListOutput struct {
	Message      string `json:"message"`
	DeletedLeads int64  `json:"deletedLeads"`
}
