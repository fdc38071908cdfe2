package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Transaction runs dependent writes in order and undoes the completed ones,
// newest first, when a later write fails. It stands in for a database
// transaction across records that are persisted independently.
type Transaction struct {
	name  string
	steps []step
}

type step struct {
	Name       string
	Fn         func(context.Context) error
	Compensate func(context.Context) error
}

func NewTransaction(name string) *Transaction {
	return &Transaction{name: name}
}

// AddOperation registers a write. compensate may be nil for the last,
// append-only or otherwise irreversible writes.
func (t *Transaction) AddOperation(name string, fn, compensate func(context.Context) error) {
	t.steps = append(t.steps, step{Name: name, Fn: fn, Compensate: compensate})
}

// Execute runs every operation. On failure it returns the operation's error
// wrapped; if a compensation also fails the result wraps
// ErrReconciliationNeeded as well.
func (t *Transaction) Execute(ctx context.Context) error {
	for i, op := range t.steps {
		if err := op.Fn(ctx); err != nil {
			if rbErr := t.rollback(ctx, i); rbErr != nil {
				return errors.Join(
					fmt.Errorf("operation '%s' failed: %w", op.Name, err),
					rbErr,
				)
			}
			return fmt.Errorf("operation '%s' failed: %w (rolled back %d operations)", op.Name, err, i)
		}
	}
	return nil
}

func (t *Transaction) rollback(ctx context.Context, failedAtIndex int) error {
	var failed []string
	for i := failedAtIndex - 1; i >= 0; i-- {
		comp := t.steps[i]
		if comp.Compensate == nil {
			continue
		}
		// compensations must run even when the request context is gone
		if err := comp.Compensate(context.WithoutCancel(ctx)); err != nil {
			log.Printf("[lifecycle] CRITICAL: %s: compensation of '%s' failed: %v", t.name, comp.Name, err)
			failed = append(failed, comp.Name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%s: compensations %v failed: %w", t.name, failed, ErrReconciliationNeeded)
	}
	return nil
}
