package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/ligue-leads/internal/infra/lock"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) Sweep(ctx context.Context) (*usecase.ReconciliationReport, error) {
	args := m.Called(ctx)
	report, _ := args.Get(0).(*usecase.ReconciliationReport)
	return report, args.Error(1)
}

type brokenLock struct{}

func (brokenLock) Acquire(context.Context) (bool, error) { return false, errors.New("redis down") }
func (brokenLock) Release(context.Context) error         { return nil }

func TestReconciliationWorkerRunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("sweeps while holding the lock", func(t *testing.T) {
		sweeper := new(MockSweeper)
		sweeper.On("Sweep", mock.Anything).Return(&usecase.ReconciliationReport{OrphanedClaims: []string{"l1"}}, nil).Once()
		l := &lock.LocalLock{}

		w := NewReconciliationWorker(sweeper, l, time.Minute)
		assert.True(t, w.RunOnce(ctx))
		sweeper.AssertExpectations(t)

		ok, _ := l.Acquire(ctx)
		assert.True(t, ok, "lock must be released after the sweep")
	})

	t.Run("skips when another replica holds the lock", func(t *testing.T) {
		sweeper := new(MockSweeper)
		l := &lock.LocalLock{}
		_, _ = l.Acquire(ctx)

		w := NewReconciliationWorker(sweeper, l, time.Minute)
		assert.False(t, w.RunOnce(ctx))
		sweeper.AssertNotCalled(t, "Sweep", mock.Anything)
	})

	t.Run("lock errors skip the sweep", func(t *testing.T) {
		sweeper := new(MockSweeper)
		w := NewReconciliationWorker(sweeper, brokenLock{}, time.Minute)
		assert.False(t, w.RunOnce(ctx))
		sweeper.AssertNotCalled(t, "Sweep", mock.Anything)
	})

	t.Run("sweep failures still release the lock", func(t *testing.T) {
		sweeper := new(MockSweeper)
		sweeper.On("Sweep", mock.Anything).Return(nil, errors.New("db down")).Once()
		l := &lock.LocalLock{}

		w := NewReconciliationWorker(sweeper, l, time.Minute)
		assert.True(t, w.RunOnce(ctx))

		ok, _ := l.Acquire(ctx)
		assert.True(t, ok)
	})
}

func TestReconciliationWorkerStopsWithContext(t *testing.T) {
	swept := make(chan struct{}, 1)
	sweeper := new(MockSweeper)
	sweeper.On("Sweep", mock.Anything).Return(&usecase.ReconciliationReport{}, nil).Run(func(mock.Arguments) {
		select {
		case swept <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewReconciliationWorker(sweeper, &lock.LocalLock{}, time.Hour).Start(ctx)
		close(done)
	}()

	select {
	case <-swept:
	case <-time.After(time.Second):
		t.Fatal("worker did not sweep on start")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
