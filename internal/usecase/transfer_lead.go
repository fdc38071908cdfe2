package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// Transfer moves an unowned lead to another list.
func (lc *LifecycleController) Transfer(ctx context.Context, caller entity.Caller, leadID string, in TransferLeadInput) (*MessageOutput, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("Only admins can transfer leads")
	}
	target := strings.TrimSpace(in.TargetListID)
	if target == "" {
		return nil, invalid("TARGET_LIST_REQUIRED", "Target list is required")
	}

	lead, err := lc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, classify("find lead", err)
	}
	list, err := lc.Registry.FindList(ctx, target)
	if err != nil {
		return nil, err
	}
	if list == nil || !list.IsActive {
		return nil, notFound("LIST_NOT_FOUND", "Target list not found")
	}
	if lead.LeadListID == list.ID {
		return nil, invalid("SAME_LIST", "Lead is already in this list")
	}
	if lead.IsOwned() {
		return nil, conflict("LEAD_OWNED", "Owned leads cannot be transferred, release the lead first")
	}

	from := lead.LeadListID
	err = lc.Leads.MoveToList(ctx, lead.ID, list.ID)
	if errors.Is(err, entity.ErrLeadAlreadyOwned) {
		return nil, conflict("LEAD_OWNED", "Owned leads cannot be transferred, release the lead first")
	}
	if err != nil {
		return nil, classify("transfer lead", err)
	}
	content := fmt.Sprintf("Lead transferred to list %s by %s", list.Name, caller.ID)
	if _, err := lc.Ledger.AppendNote(ctx, LeadRef(lead.ID), content, caller.ID); err != nil {
		log.Printf("[lifecycle] lead %s transferred but transfer note not stored: %v", lead.ID, err)
		return nil, classify("append transfer note", err)
	}

	log.Printf("[lifecycle] lead %s transferred from list %q to %s by %s", lead.ID, from, list.ID, caller.ID)
	lc.publish(ctx, entity.LifecycleEvent{
		Type:   entity.EventLeadTransferred,
		LeadID: lead.ID,
		ListID: list.ID,
		Actor:  caller.ID,
	})

	return &MessageOutput{Message: "Lead transferred to " + list.Name}, nil
}
