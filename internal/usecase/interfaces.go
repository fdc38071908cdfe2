package usecase

import (
	"context"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type EventPublisher interface {
	PublishLifecycle(ctx context.Context, ev entity.LifecycleEvent) error
}

// Notifier alerts supervisors about ownership changes and broken records.
type Notifier interface {
	NotifyTakeOver(ctx context.Context, notice TakeOverNotice) error
	NotifyReconciliation(ctx context.Context, report ReconciliationReport) error
}

type TakeOverNotice struct {
	LeadID        string
	ContactName   string
	PreviousAgent string
	NewAgent      string
}
