package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KOFI-GYIMAH/github-wrapped/internal/models"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/atomic"
)

type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) RefreshAverages(ctx context.Context) (models.AverageStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.AverageStats), args.Error(1)
}

func (m *MockRefresher) Outcomes() service.OutcomeCounts {
	return service.OutcomeCounts{}
}

func TestStatsWorker_RefreshesUntilCancelled(t *testing.T) {
	refresher := new(MockRefresher)
	calls := atomic.NewInt32(0)
	refresher.On("RefreshAverages", mock.Anything).
		Return(models.AverageStats{UserCount: 3}, nil).
		Run(func(mock.Arguments) { calls.Inc() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	w := NewStatsWorker(refresher, 10*time.Millisecond)
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestStatsWorker_ErrorDoesNotStopLoop(t *testing.T) {
	refresher := new(MockRefresher)
	calls := atomic.NewInt32(0)
	refresher.On("RefreshAverages", mock.Anything).
		Return(models.AverageStats{}, errors.New("db down")).
		Run(func(mock.Arguments) { calls.Inc() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewStatsWorker(refresher, 10*time.Millisecond)
	go w.Run(ctx)

	assert.Eventually(t, func() bool {
		return calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestNewStatsWorker_DefaultInterval(t *testing.T) {
	w := NewStatsWorker(new(MockRefresher), 0)
	assert.Equal(t, DefaultInterval, w.interval)
}
