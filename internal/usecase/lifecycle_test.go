package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/memory"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

var (
	agentA = entity.Caller{ID: "agent-a", Role: entity.RoleAgent}
	agentB = entity.Caller{ID: "agent-b", Role: entity.RoleAgent}
	admin  = entity.Caller{ID: "admin-1", Role: entity.RoleAdmin}
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyTakeOver(ctx context.Context, notice usecase.TakeOverNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

func (m *MockNotifier) NotifyReconciliation(ctx context.Context, report usecase.ReconciliationReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.LifecycleEvent
}

func (p *recordingPublisher) PublishLifecycle(_ context.Context, ev entity.LifecycleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []entity.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]entity.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store      *memory.Store
	lc         *usecase.LifecycleController
	registry   *usecase.ListRegistry
	events     *recordingPublisher
	notifier   *MockNotifier
	list       *entity.LeadList
	lead       *entity.Lead
	customers  entity.CustomerRepositoryInterface
	depositors entity.DepositorRepositoryInterface
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	return newFixtureWith(t, store, store.Leads(), store.Customers())
}

func newFixtureWith(t *testing.T, store *memory.Store, leads entity.LeadRepositoryInterface, customers entity.CustomerRepositoryInterface) *fixture {
	t.Helper()
	ctx := context.Background()

	registry := usecase.NewListRegistry(store.Lists(), leads, "")
	visibility := usecase.NewVisibilityFilter(store.Lists(), leads)
	ledger := usecase.NewNoteLedger(leads, customers, store.Depositors())
	events := &recordingPublisher{}
	notifier := new(MockNotifier)
	notifier.On("NotifyTakeOver", mock.Anything, mock.Anything).Return(nil).Maybe()

	lc := usecase.NewLifecycleController(leads, customers, store.Depositors(), registry, visibility, ledger, events, notifier)

	list, err := registry.CreateList(ctx, admin, usecase.CreateListInput{
		Name:             "Campaign A",
		Labels:           []entity.Label{{Name: "budget", DisplayLabel: "Budget", Type: entity.LabelNumber}},
		IsVisibleToUsers: true,
	})
	require.NoError(t, err)

	lead, err := lc.CreateLead(ctx, admin, list.ID, usecase.CreateLeadInput{
		Contact:      entity.Contact{Name: "Ana", Phone: "+5511999990000"},
		CustomFields: entity.CustomFields{"budget": 500},
	})
	require.NoError(t, err)

	return &fixture{
		store:      store,
		lc:         lc,
		registry:   registry,
		events:     events,
		notifier:   notifier,
		list:       list,
		lead:       lead,
		customers:  customers,
		depositors: store.Depositors(),
	}
}

func domainKind(t *testing.T, err error) usecase.ErrorKind {
	t.Helper()
	var de *usecase.DomainError
	require.True(t, errors.As(err, &de), "expected a domain error, got %v", err)
	return de.Kind
}

func TestOwnLead(t *testing.T) {
	ctx := context.Background()

	t.Run("creates customer with frozen list snapshot", func(t *testing.T) {
		f := newFixture(t)

		out, err := f.lc.Own(ctx, agentA, f.lead.ID)
		require.NoError(t, err)

		assert.Equal(t, "Lead claimed successfully", out.Message)
		assert.Equal(t, agentA.ID, out.Lead.AssignedTo)
		assert.Equal(t, agentA.ID, out.Customer.Agent)
		assert.Equal(t, f.lead.ID, out.Customer.OriginalLead)
		assert.Equal(t, f.list.ID, out.Customer.ListID)
		assert.Equal(t, "Campaign A", out.Customer.ListName)
		assert.Len(t, out.Customer.Labels, 1)
		assert.Len(t, out.Lead.Notes, 1)
		assert.Equal(t, out.Lead.Notes[0].ID, out.Customer.Notes[len(out.Customer.Notes)-1].ID)
		assert.Equal(t, []entity.EventType{entity.EventLeadOwned}, f.events.types())
	})

	t.Run("rejects second claim", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.lc.Own(ctx, agentA, f.lead.ID)
		require.NoError(t, err)

		_, err = f.lc.Own(ctx, agentB, f.lead.ID)
		assert.Equal(t, usecase.KindConflict, domainKind(t, err))
		assert.Equal(t, "Lead is already owned by another agent", err.Error())

		_, err = f.lc.Own(ctx, agentA, f.lead.ID)
		assert.Equal(t, usecase.KindConflict, domainKind(t, err))
	})

	t.Run("admins cannot own", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.lc.Own(ctx, admin, f.lead.ID)
		assert.Equal(t, usecase.KindForbidden, domainKind(t, err))
	})

	t.Run("unknown lead", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.lc.Own(ctx, agentA, "missing")
		assert.Equal(t, usecase.KindNotFound, domainKind(t, err))
	})

	t.Run("concurrent claims have one winner", func(t *testing.T) {
		f := newFixture(t)
		const n = 20

		var wg sync.WaitGroup
		results := make(chan error, n)
		for i := 0; i < n; i++ {
			caller := entity.Caller{ID: "agent-" + string(rune('a'+i)), Role: entity.RoleAgent}
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.lc.Own(ctx, caller, f.lead.ID)
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		wins := 0
		for err := range results {
			if err == nil {
				wins++
				continue
			}
			assert.Equal(t, usecase.KindConflict, domainKind(t, err))
		}
		assert.Equal(t, 1, wins)

		all, err := f.customers.FindByAgent(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestTakeOverLead(t *testing.T) {
	ctx := context.Background()

	t.Run("hands the customer to the new agent", func(t *testing.T) {
		f := newFixture(t)
		owned, err := f.lc.Own(ctx, agentA, f.lead.ID)
		require.NoError(t, err)

		out, err := f.lc.TakeOver(ctx, agentB, f.lead.ID)
		require.NoError(t, err)

		assert.Equal(t, "Lead taken over successfully", out.Message)
		assert.Equal(t, agentB.ID, out.Lead.AssignedTo)
		assert.Equal(t, owned.Customer.ID, out.Customer.ID)
		assert.Equal(t, agentB.ID, out.Customer.Agent)

		mine, err := f.customers.FindByAgent(ctx, agentA.ID)
		require.NoError(t, err)
		assert.Empty(t, mine)

		f.notifier.AssertCalled(t, "NotifyTakeOver", mock.Anything, usecase.TakeOverNotice{
			LeadID:        f.lead.ID,
			ContactName:   "Ana",
			PreviousAgent: agentA.ID,
			NewAgent:      agentB.ID,
		})
	})

	t.Run("unowned lead must be claimed", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.lc.TakeOver(ctx, agentB, f.lead.ID)
		assert.Equal(t, usecase.KindConflict, domainKind(t, err))
	})

	t.Run("own lead", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.lc.Own(ctx, agentA, f.lead.ID)
		require.NoError(t, err)
		_, err = f.lc.TakeOver(ctx, agentA, f.lead.ID)
		assert.Equal(t, usecase.KindConflict, domainKind(t, err))
	})
}

func TestReleaseLead(t *testing.T) {
	ctx := context.Background()

	t.Run("detaches the customer and reuses it on the next claim", func(t *testing.T) {
		f := newFixture(t)
		owned, err := f.lc.Own(ctx, agentA, f.lead.ID)
		require.NoError(t, err)

		out, err := f.lc.ReleaseLead(ctx, agentA, owned.Customer.ID)
		require.NoError(t, err)
		assert.Equal(t, "Lead released successfully", out.Message)
		assert.Empty(t, out.Lead.AssignedTo)

		detached, err := f.customers.FindByID(ctx, owned.Customer.ID)
		require.NoError(t, err)
		assert.False(t, detached.IsLive())

		live, err := f.customers.FindByAgent(ctx, agentA.ID)
		require.NoError(t, err)
		assert.Empty(t, live)

		again, err := f.lc.Own(ctx, agentB, f.lead.ID)
		require.NoError(t, err)
		assert.Equal(t, owned.Customer.ID, again.Customer.ID)
		assert.True(t, again.Customer.IsLive())
		assert.Equal(t, agentB.ID, again.Customer.Agent)
	})

	t.Run("only owner or admin", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.lc.Own(ctx, agentA, f.lead.ID)
		require.NoError(t, err)

		_, err = f.lc.ReleaseLead(ctx, agentB, f.lead.ID)
		assert.Equal(t, usecase.KindForbidden, domainKind(t, err))

		_, err = f.lc.ReleaseLead(ctx, admin, f.lead.ID)
		assert.NoError(t, err)
	})

	t.Run("unowned lead", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.lc.ReleaseLead(ctx, agentA, f.lead.ID)
		assert.Equal(t, usecase.KindConflict, domainKind(t, err))
	})
}

func TestReleaseCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the contact to its list with all notes", func(t *testing.T) {
		f := newFixture(t)
		owned, err := f.lc.Own(ctx, agentA, f.lead.ID)
		require.NoError(t, err)

		status := entity.StatusCallBack
		_, err = f.lc.UpdateCustomer(ctx, agentA, owned.Customer.ID, usecase.UpdateRecordInput{
			Status: &status,
			Note:   "call again on monday",
		})
		require.NoError(t, err)

		out, err := f.lc.ReleaseCustomer(ctx, agentA, owned.Customer.ID)
		require.NoError(t, err)

		assert.Equal(t, "Customer released to Campaign A", out.Message)
		assert.Equal(t, f.lead.ID, out.Lead.ID)
		assert.Empty(t, out.Lead.AssignedTo)
		assert.Equal(t, entity.StatusCallBack, out.Lead.Status)
		assert.Equal(t, f.list.ID, out.Lead.LeadListID)

		contents := make([]string, 0, len(out.Lead.Notes))
		ids := map[string]bool{}
		for _, n := range out.Lead.Notes {
			contents = append(contents, n.Content)
			assert.False(t, ids[n.ID], "duplicate note %s", n.ID)
			ids[n.ID] = true
		}
		assert.Contains(t, contents, "call again on monday")
		assert.Len(t, out.Lead.Notes, 3)

		_, err = f.customers.FindByID(ctx, owned.Customer.ID)
		assert.ErrorIs(t, err, entity.ErrCustomerNotFound)
	})

	t.Run("falls back to the system list when origin is inactive", func(t *testing.T) {
		f := newFixture(t)
		owned, err := f.lc.Own(ctx, agentA, f.lead.ID)
		require.NoError(t, err)

		_, err = f.registry.DeleteList(ctx, admin, f.list.ID, false)
		require.NoError(t, err)

		out, err := f.lc.ReleaseCustomer(ctx, agentA, owned.Customer.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.DefaultFallbackListName, out.TargetList.Name)
		assert.True(t, out.TargetList.IsSystem)
		assert.Equal(t, out.TargetList.ID, out.Lead.LeadListID)
	})

	t.Run("synthesizes a lead when the original is gone", func(t *testing.T) {
		f := newFixture(t)
		owned, err := f.lc.Own(ctx, agentA, f.lead.ID)
		require.NoError(t, err)
		require.NoError(t, f.store.Leads().Delete(ctx, f.lead.ID))

		out, err := f.lc.ReleaseCustomer(ctx, agentA, owned.Customer.ID)
		require.NoError(t, err)
		assert.NotEqual(t, f.lead.ID, out.Lead.ID)
		assert.Equal(t, "Ana", out.Lead.Name)
		assert.Empty(t, out.Lead.AssignedTo)
	})

	t.Run("other agents are refused", func(t *testing.T) {
		f := newFixture(t)
		owned, err := f.lc.Own(ctx, agentA, f.lead.ID)
		require.NoError(t, err)
		_, err = f.lc.ReleaseCustomer(ctx, agentB, owned.Customer.ID)
		assert.Equal(t, usecase.KindForbidden, domainKind(t, err))
	})
}

func TestDepositorRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	owned, err := f.lc.Own(ctx, agentA, f.lead.ID)
	require.NoError(t, err)

	moved, err := f.lc.MoveToDepositors(ctx, agentA, owned.Customer.ID)
	require.NoError(t, err)
	assert.Equal(t, owned.Customer.ID, moved.Depositor.OriginalCustomer)
	assert.Equal(t, agentA.ID, moved.Depositor.Agent)
	assert.Equal(t, "Campaign A", moved.Depositor.ListName)

	_, err = f.customers.FindByID(ctx, owned.Customer.ID)
	assert.ErrorIs(t, err, entity.ErrCustomerNotFound)

	lead, err := f.store.Leads().FindByID(ctx, f.lead.ID)
	require.NoError(t, err)
	assert.Equal(t, agentA.ID, lead.AssignedTo)

	_, err = f.lc.Own(ctx, agentB, f.lead.ID)
	assert.Equal(t, usecase.KindConflict, domainKind(t, err))
	_, err = f.lc.ReleaseLead(ctx, agentA, f.lead.ID)
	assert.Equal(t, usecase.KindConflict, domainKind(t, err))

	back, err := f.lc.ReleaseDepositorToCustomer(ctx, agentA, moved.Depositor.ID)
	require.NoError(t, err)
	assert.Equal(t, f.lead.ID, back.Customer.OriginalLead)
	assert.Equal(t, agentA.ID, back.Customer.Agent)
	assert.Len(t, back.Customer.Notes, len(moved.Depositor.Notes)+1)

	_, err = f.depositors.FindByID(ctx, moved.Depositor.ID)
	assert.ErrorIs(t, err, entity.ErrDepositorNotFound)

	assert.Equal(t, []entity.EventType{
		entity.EventLeadOwned,
		entity.EventCustomerEscalated,
		entity.EventDepositorReleased,
	}, f.events.types())
}

func TestTransferLead(t *testing.T) {
	ctx := context.Background()

	t.Run("moves an unowned lead", func(t *testing.T) {
		f := newFixture(t)
		other, err := f.registry.CreateList(ctx, admin, usecase.CreateListInput{Name: "Campaign B"})
		require.NoError(t, err)

		out, err := f.lc.Transfer(ctx, admin, f.lead.ID, usecase.TransferLeadInput{TargetListID: other.ID})
		require.NoError(t, err)
		assert.Equal(t, "Lead transferred to Campaign B", out.Message)

		lead, err := f.store.Leads().FindByID(ctx, f.lead.ID)
		require.NoError(t, err)
		assert.Equal(t, other.ID, lead.LeadListID)
		assert.Len(t, lead.Notes, 1)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.lc.Transfer(ctx, agentA, f.lead.ID, usecase.TransferLeadInput{TargetListID: f.list.ID})
		assert.Equal(t, usecase.KindForbidden, domainKind(t, err))

		_, err = f.lc.Transfer(ctx, admin, f.lead.ID, usecase.TransferLeadInput{})
		assert.Equal(t, usecase.KindInvalidInput, domainKind(t, err))

		_, err = f.lc.Transfer(ctx, admin, f.lead.ID, usecase.TransferLeadInput{TargetListID: f.list.ID})
		assert.Equal(t, usecase.KindInvalidInput, domainKind(t, err))

		_, err = f.lc.Transfer(ctx, admin, f.lead.ID, usecase.TransferLeadInput{TargetListID: "missing"})
		assert.Equal(t, usecase.KindNotFound, domainKind(t, err))
	})

	t.Run("owned lead", func(t *testing.T) {
		f := newFixture(t)
		other, err := f.registry.CreateList(ctx, admin, usecase.CreateListInput{Name: "Campaign B"})
		require.NoError(t, err)
		_, err = f.lc.Own(ctx, agentA, f.lead.ID)
		require.NoError(t, err)

		_, err = f.lc.Transfer(ctx, admin, f.lead.ID, usecase.TransferLeadInput{TargetListID: other.ID})
		assert.Equal(t, usecase.KindConflict, domainKind(t, err))
	})
}

func TestUpdateLead(t *testing.T) {
	ctx := context.Background()

	t.Run("status only adds no note", func(t *testing.T) {
		f := newFixture(t)
		status := entity.StatusNoAnswer
		lead, err := f.lc.UpdateLead(ctx, agentA, f.lead.ID, usecase.UpdateRecordInput{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, entity.StatusNoAnswer, lead.Status)
		assert.Empty(t, lead.Notes)
	})

	t.Run("note is mirrored on the live customer", func(t *testing.T) {
		f := newFixture(t)
		owned, err := f.lc.Own(ctx, agentA, f.lead.ID)
		require.NoError(t, err)

		lead, err := f.lc.UpdateLead(ctx, agentA, f.lead.ID, usecase.UpdateRecordInput{Note: "left a voicemail"})
		require.NoError(t, err)

		c, err := f.customers.FindByID(ctx, owned.Customer.ID)
		require.NoError(t, err)
		last := lead.Notes[len(lead.Notes)-1]
		assert.Equal(t, "left a voicemail", last.Content)
		assert.Equal(t, last.ID, c.Notes[len(c.Notes)-1].ID)
	})

	t.Run("custom fields are validated against the list", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.lc.UpdateLead(ctx, agentA, f.lead.ID, usecase.UpdateRecordInput{
			CustomFields: entity.CustomFields{"budget": "a lot"},
		})
		assert.Equal(t, usecase.KindInvalidInput, domainKind(t, err))
	})

	t.Run("empty update", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.lc.UpdateLead(ctx, agentA, f.lead.ID, usecase.UpdateRecordInput{})
		assert.Equal(t, usecase.KindInvalidInput, domainKind(t, err))
	})

	t.Run("owned by someone else", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.lc.Own(ctx, agentA, f.lead.ID)
		require.NoError(t, err)
		_, err = f.lc.UpdateLead(ctx, agentB, f.lead.ID, usecase.UpdateRecordInput{Note: "hi"})
		assert.Equal(t, usecase.KindForbidden, domainKind(t, err))
	})
}

func TestCustomerLabelsStayFrozen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	owned, err := f.lc.Own(ctx, agentA, f.lead.ID)
	require.NoError(t, err)

	labels := []entity.Label{{Name: "budget", DisplayLabel: "Monthly budget", Type: entity.LabelText}}
	_, err = f.registry.UpdateList(ctx, admin, f.list.ID, entity.LeadListPatch{Labels: &labels})
	require.NoError(t, err)

	c, err := f.customers.FindByID(ctx, owned.Customer.ID)
	require.NoError(t, err)
	require.Len(t, c.Labels, 1)
	assert.Equal(t, "Budget", c.Labels[0].DisplayLabel)
	assert.Equal(t, entity.LabelNumber, c.Labels[0].Type)

	_, err = f.lc.UpdateCustomer(ctx, agentA, c.ID, usecase.UpdateRecordInput{
		CustomFields: entity.CustomFields{"budget": "plenty"},
	})
	assert.Equal(t, usecase.KindInvalidInput, domainKind(t, err))
}

func TestCreateAndDeleteLead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.lc.CreateLead(ctx, agentA, f.list.ID, usecase.CreateLeadInput{Contact: entity.Contact{Name: "Bob"}})
	assert.Equal(t, usecase.KindForbidden, domainKind(t, err))

	_, err = f.lc.CreateLead(ctx, admin, f.list.ID, usecase.CreateLeadInput{})
	assert.Equal(t, usecase.KindInvalidInput, domainKind(t, err))

	_, err = f.lc.Own(ctx, agentA, f.lead.ID)
	require.NoError(t, err)
	_, err = f.lc.DeleteLead(ctx, admin, f.lead.ID)
	assert.Equal(t, usecase.KindConflict, domainKind(t, err))

	bob, err := f.lc.CreateLead(ctx, admin, f.list.ID, usecase.CreateLeadInput{Contact: entity.Contact{Name: "Bob"}})
	require.NoError(t, err)
	out, err := f.lc.DeleteLead(ctx, admin, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lead deleted", out.Message)
}

func TestDeleteLeadRemovesDetachedCustomer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	owned, err := f.lc.Own(ctx, agentA, f.lead.ID)
	require.NoError(t, err)
	_, err = f.lc.ReleaseLead(ctx, agentA, f.lead.ID)
	require.NoError(t, err)

	_, err = f.lc.DeleteLead(ctx, admin, f.lead.ID)
	require.NoError(t, err)

	_, err = f.customers.FindByID(ctx, owned.Customer.ID)
	assert.ErrorIs(t, err, entity.ErrCustomerNotFound)
	_, err = f.store.Leads().FindByID(ctx, f.lead.ID)
	assert.ErrorIs(t, err, entity.ErrLeadNotFound)
}

func TestDeleteLeadRefusesLiveCustomer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.customers.Create(ctx, entity.NewCustomerFromLead(f.lead, f.list, agentA.ID)))

	_, err := f.lc.DeleteLead(ctx, admin, f.lead.ID)
	assert.Equal(t, usecase.KindConflict, domainKind(t, err))

	_, err = f.store.Leads().FindByID(ctx, f.lead.ID)
	assert.NoError(t, err)
}

func TestListCustomers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.lc.Own(ctx, agentA, f.lead.ID)
	require.NoError(t, err)

	mine, err := f.lc.ListCustomers(ctx, agentA)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.lc.ListCustomers(ctx, agentB)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	all, err := f.lc.ListCustomers(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// failingCustomers fails Create so the claim has to be compensated.
type failingCustomers struct {
	entity.CustomerRepositoryInterface
}

func (failingCustomers) Create(context.Context, *entity.Customer) error {
	return errors.New("disk full")
}

func TestOwnRollsBackClaimWhenCustomerFails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	f := newFixtureWith(t, store, store.Leads(), failingCustomers{store.Customers()})

	_, err := f.lc.Own(ctx, agentA, f.lead.ID)
	require.Error(t, err)
	assert.True(t, usecase.IsTechnicalError(err))
	assert.False(t, errors.Is(err, usecase.ErrReconciliationNeeded))

	lead, err := store.Leads().FindByID(ctx, f.lead.ID)
	require.NoError(t, err)
	assert.Empty(t, lead.AssignedTo)
	assert.Empty(t, lead.Notes)
	assert.Empty(t, f.events.types())
}

// stuckLeads refuses to unassign, so compensation cannot undo a claim.
type stuckLeads struct {
	entity.LeadRepositoryInterface
}

func (stuckLeads) Unassign(context.Context, string, string) error {
	return errors.New("connection reset")
}

func TestOwnReportsInconsistencyWhenRollbackFails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	f := newFixtureWith(t, store, stuckLeads{store.Leads()}, failingCustomers{store.Customers()})

	_, err := f.lc.Own(ctx, agentA, f.lead.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, usecase.ErrReconciliationNeeded)

	var te *usecase.TechnicalError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "RECONCILIATION_NEEDED", te.Code)

	orphans, err := store.Leads().FindOrphanedClaims(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, f.lead.ID, orphans[0].ID)
}

func TestNotesStayOrderedAcrossTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f.lc.Now = func() time.Time { return fixed }
	f.lc.Ledger.Now = func() time.Time { return fixed }

	owned, err := f.lc.Own(ctx, agentA, f.lead.ID)
	require.NoError(t, err)
	_, err = f.lc.UpdateCustomer(ctx, agentA, owned.Customer.ID, usecase.UpdateRecordInput{Note: "first"})
	require.NoError(t, err)
	_, err = f.lc.UpdateCustomer(ctx, agentA, owned.Customer.ID, usecase.UpdateRecordInput{Note: "second"})
	require.NoError(t, err)

	c, err := f.customers.FindByID(ctx, owned.Customer.ID)
	require.NoError(t, err)
	for i := 1; i < len(c.Notes); i++ {
		assert.True(t, c.Notes[i].CreatedAt.After(c.Notes[i-1].CreatedAt))
	}
}

func TestReclaimedCustomerFollowsTheLead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	other, err := f.registry.CreateList(ctx, admin, usecase.CreateListInput{Name: "Campaign B", IsVisibleToUsers: true})
	require.NoError(t, err)

	owned, err := f.lc.Own(ctx, agentA, f.lead.ID)
	require.NoError(t, err)
	_, err = f.lc.ReleaseLead(ctx, agentA, f.lead.ID)
	require.NoError(t, err)

	_, err = f.lc.Transfer(ctx, admin, f.lead.ID, usecase.TransferLeadInput{TargetListID: other.ID})
	require.NoError(t, err)
	status := entity.StatusQualified
	_, err = f.lc.UpdateLead(ctx, admin, f.lead.ID, usecase.UpdateRecordInput{Status: &status})
	require.NoError(t, err)

	again, err := f.lc.Own(ctx, agentB, f.lead.ID)
	require.NoError(t, err)
	assert.Equal(t, owned.Customer.ID, again.Customer.ID)
	assert.Equal(t, other.ID, again.Customer.ListID)
	assert.Equal(t, "Campaign B", again.Customer.ListName)
	assert.Empty(t, again.Customer.Labels)
	assert.Equal(t, entity.StatusQualified, again.Customer.Status)

	ids := map[string]bool{}
	for _, n := range again.Customer.Notes {
		assert.False(t, ids[n.ID], "duplicate note %s", n.ID)
		ids[n.ID] = true
	}
	for _, n := range again.Lead.Notes {
		assert.True(t, ids[n.ID], "lead note %s missing on customer", n.ID)
	}

	released, err := f.lc.ReleaseCustomer(ctx, agentB, again.Customer.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, released.Lead.LeadListID)
	assert.Equal(t, entity.StatusQualified, released.Lead.Status)
}

func TestOwnRefusesLeadWithLiveCustomer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stray := entity.NewCustomerFromLead(f.lead, f.list, agentA.ID)
	require.NoError(t, f.customers.Create(ctx, stray))

	_, err := f.lc.Own(ctx, agentB, f.lead.ID)
	assert.Equal(t, usecase.KindConflict, domainKind(t, err))
	assert.Equal(t, "This lead still has an active customer", err.Error())

	lead, err := f.store.Leads().FindByID(ctx, f.lead.ID)
	require.NoError(t, err)
	assert.Empty(t, lead.AssignedTo)
	c, err := f.customers.FindByID(ctx, stray.ID)
	require.NoError(t, err)
	assert.Equal(t, agentA.ID, c.Agent)
}

func TestClaimsRespectListVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	hidden, err := f.registry.CreateList(ctx, admin, usecase.CreateListInput{
		Name:                    "VIP",
		VisibleToSpecificAgents: []string{agentB.ID},
	})
	require.NoError(t, err)
	lead, err := f.lc.CreateLead(ctx, admin, hidden.ID, usecase.CreateLeadInput{Contact: entity.Contact{Name: "Carla"}})
	require.NoError(t, err)

	_, err = f.lc.Own(ctx, agentA, lead.ID)
	assert.Equal(t, usecase.KindForbidden, domainKind(t, err))

	_, err = f.lc.Own(ctx, agentB, lead.ID)
	require.NoError(t, err)

	_, err = f.lc.TakeOver(ctx, agentA, lead.ID)
	assert.Equal(t, usecase.KindForbidden, domainKind(t, err))

	stored, err := f.store.Leads().FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, agentB.ID, stored.AssignedTo)
}

// claimingLeads lets an agent claim the lead right after it was read, the
// way a concurrent own call would.
type claimingLeads struct {
	entity.LeadRepositoryInterface
	agent string
	once  sync.Once
}

func (r *claimingLeads) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	lead, err := r.LeadRepositoryInterface.FindByID(ctx, id)
	if err == nil {
		r.once.Do(func() { _ = r.LeadRepositoryInterface.Claim(ctx, id, r.agent) })
	}
	return lead, err
}

func TestTransferLosesToConcurrentClaim(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	leads := &claimingLeads{LeadRepositoryInterface: store.Leads(), agent: agentA.ID}
	f := newFixtureWith(t, store, leads, store.Customers())
	other, err := f.registry.CreateList(ctx, admin, usecase.CreateListInput{Name: "Campaign B"})
	require.NoError(t, err)

	_, err = f.lc.Transfer(ctx, admin, f.lead.ID, usecase.TransferLeadInput{TargetListID: other.ID})
	assert.Equal(t, usecase.KindConflict, domainKind(t, err))

	lead, err := store.Leads().FindByID(ctx, f.lead.ID)
	require.NoError(t, err)
	assert.Equal(t, f.list.ID, lead.LeadListID)
	assert.Equal(t, agentA.ID, lead.AssignedTo)
}

// editingLeads changes the status right after the lead was read.
type editingLeads struct {
	entity.LeadRepositoryInterface
	status string
	once   sync.Once
}

func (r *editingLeads) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	lead, err := r.LeadRepositoryInterface.FindByID(ctx, id)
	if err == nil {
		r.once.Do(func() {
			_ = r.LeadRepositoryInterface.Patch(ctx, id, entity.RecordPatch{Status: r.status})
		})
	}
	return lead, err
}

func TestUpdateLeadKeepsConcurrentStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	leads := &editingLeads{LeadRepositoryInterface: store.Leads(), status: entity.StatusCallBack}
	f := newFixtureWith(t, store, leads, store.Customers())

	lead, err := f.lc.UpdateLead(ctx, agentA, f.lead.ID, usecase.UpdateRecordInput{
		CustomFields: entity.CustomFields{"budget": 900},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCallBack, lead.Status)
	assert.Equal(t, 900, lead.CustomFields["budget"])
}
