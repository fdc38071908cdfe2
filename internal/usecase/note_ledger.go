package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type EntityKind string

const (
	KindLead      EntityKind = "lead"
	KindCustomer  EntityKind = "customer"
	KindDepositor EntityKind = "depositor"
)

type EntityRef struct {
	Kind EntityKind
	ID   string
}

func LeadRef(id string) EntityRef      { return EntityRef{Kind: KindLead, ID: id} }
func CustomerRef(id string) EntityRef  { return EntityRef{Kind: KindCustomer, ID: id} }
func DepositorRef(id string) EntityRef { return EntityRef{Kind: KindDepositor, ID: id} }

// NoteLedger appends notes to any entity and copies note sequences between
// entities. Notes keep their id, author and timestamp when copied; a note
// already present on the target (same id) is never appended twice.
type NoteLedger struct {
	Leads      entity.LeadRepositoryInterface
	Customers  entity.CustomerRepositoryInterface
	Depositors entity.DepositorRepositoryInterface
	Now        func() time.Time
}

func NewNoteLedger(leads entity.LeadRepositoryInterface, customers entity.CustomerRepositoryInterface, depositors entity.DepositorRepositoryInterface) *NoteLedger {
	return &NoteLedger{Leads: leads, Customers: customers, Depositors: depositors, Now: time.Now}
}

// AppendNote adds a new note authored by author to the entity and copies it
// to every mirror. The timestamp is after the notes of all of them so each
// copy stays ordered. A missing mirror is skipped; a failed mirror write is
// logged and does not fail the call.
func (l *NoteLedger) AppendNote(ctx context.Context, ref EntityRef, content, author string, mirrors ...EntityRef) (entity.Note, error) {
	notes, err := l.notesOf(ctx, ref)
	if err != nil {
		return entity.Note{}, err
	}
	all := notes.Clone()
	live := make([]EntityRef, 0, len(mirrors))
	for _, m := range mirrors {
		have, err := l.notesOf(ctx, m)
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return entity.Note{}, err
		}
		all = append(all, have...)
		live = append(live, m)
	}

	note := all.Next(content, author, l.now())
	if err := l.Append(ctx, ref, note); err != nil {
		return entity.Note{}, err
	}
	for _, m := range live {
		if _, err := l.MergeNotes(ctx, entity.Notes{note}, m, time.Time{}); err != nil {
			log.Printf("[lifecycle] note %s stored on %s %s but not on %s %s: %v", note.ID, ref.Kind, ref.ID, m.Kind, m.ID, err)
		}
	}
	return note, nil
}

// MergeNotes copies the notes of src created at or after since (zero: all)
// that target does not have yet. It returns the copied notes.
func (l *NoteLedger) MergeNotes(ctx context.Context, src entity.Notes, target EntityRef, since time.Time) (entity.Notes, error) {
	have, err := l.notesOf(ctx, target)
	if err != nil {
		return nil, err
	}
	missing := have.Missing(src, since)
	if len(missing) == 0 {
		return nil, nil
	}
	if err := l.Append(ctx, target, missing...); err != nil {
		return nil, err
	}
	return missing, nil
}

// Append stores already-built notes on the entity.
func (l *NoteLedger) Append(ctx context.Context, ref EntityRef, notes ...entity.Note) error {
	if len(notes) == 0 {
		return nil
	}
	switch ref.Kind {
	case KindLead:
		return l.Leads.AppendNotes(ctx, ref.ID, notes...)
	case KindCustomer:
		return l.Customers.AppendNotes(ctx, ref.ID, notes...)
	case KindDepositor:
		return l.Depositors.AppendNotes(ctx, ref.ID, notes...)
	}
	return fmt.Errorf("unknown entity kind %q", ref.Kind)
}

// mergeOp adapts MergeNotes to a Transaction operation. The target is read
// when the operation runs, so notes written by earlier steps are not copied
// twice.
func (l *NoteLedger) mergeOp(src entity.Notes, target EntityRef, since time.Time) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := l.MergeNotes(ctx, src, target, since)
		return err
	}
}

// appendOp adapts Append to a Transaction operation.
func (l *NoteLedger) appendOp(ref EntityRef, notes ...entity.Note) func(context.Context) error {
	return func(ctx context.Context) error {
		return l.Append(ctx, ref, notes...)
	}
}

func (l *NoteLedger) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

func isNotFound(err error) bool {
	return errors.Is(err, entity.ErrLeadNotFound) ||
		errors.Is(err, entity.ErrCustomerNotFound) ||
		errors.Is(err, entity.ErrDepositorNotFound)
}

func (l *NoteLedger) notesOf(ctx context.Context, ref EntityRef) (entity.Notes, error) {
	switch ref.Kind {
	case KindLead:
		e, err := l.Leads.FindByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return e.Notes, nil
	case KindCustomer:
		e, err := l.Customers.FindByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return e.Notes, nil
	case KindDepositor:
		e, err := l.Depositors.FindByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return e.Notes, nil
	}
	return nil, fmt.Errorf("unknown entity kind %q", ref.Kind)
}
