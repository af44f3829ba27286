package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/logic"
	"github.com/Prorickey/ftcmetrics-v2-sub000/internal/models"
)

// MockRankingsService implements logic.RankingsService for testing.
type MockRankingsService struct {
	RefreshFunc func(ctx context.Context) (*models.RankingsSnapshot, error)
}

func (m *MockRankingsService) Refresh(ctx context.Context) (*models.RankingsSnapshot, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx)
	}
	return &models.RankingsSnapshot{}, nil
}

func (m *MockRankingsService) TeamRankings(ctx context.Context, teamNumber int) (*models.TeamRankDetail, error) {
	return nil, logic.ErrSnapshotNotReady
}

func (m *MockRankingsService) ScopedRankings(ctx context.Context, req models.ScopedRankingsRequest) (*models.ScopedRankings, error) {
	return nil, logic.ErrSnapshotNotReady
}

func newTestRefresher(svc logic.RankingsService, schedule string) *Refresher {
	return New(Config{
		Rankings: svc,
		Schedule: schedule,
		Timeout:  time.Minute,
		Logger:   zap.NewNop().Sugar(),
	})
}

func TestRunOnce(t *testing.T) {
	var gotDeadline bool
	svc := &MockRankingsService{
		RefreshFunc: func(ctx context.Context) (*models.RankingsSnapshot, error) {
			_, gotDeadline = ctx.Deadline()
			return &models.RankingsSnapshot{Season: 2024, EventsUsed: 3}, nil
		},
	}
	r := newTestRefresher(svc, "")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := r.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !gotDeadline {
		t.Error("refresh should run under a deadline")
	}
}

func TestRunOnceFailure(t *testing.T) {
	wantErr := errors.New("upstream down")
	svc := &MockRankingsService{
		RefreshFunc: func(ctx context.Context) (*models.RankingsSnapshot, error) {
			return nil, wantErr
		},
	}
	r := newTestRefresher(svc, "")

	if err := r.RunOnce(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("RunOnce error = %v, want %v", err, wantErr)
	}
}

func TestRunOnceReportsInFlightRun(t *testing.T) {
	svc := &MockRankingsService{
		RefreshFunc: func(ctx context.Context) (*models.RankingsSnapshot, error) {
			return nil, logic.ErrRefreshRunning
		},
	}
	r := newTestRefresher(svc, "")

	if err := r.RunOnce(context.Background()); !errors.Is(err, logic.ErrRefreshRunning) {
		t.Fatalf("RunOnce error = %v, want ErrRefreshRunning", err)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	r := newTestRefresher(&MockRankingsService{}, "every six hours")

	if err := r.Start(); err == nil {
		r.Stop()
		t.Fatal("Start should reject an unparseable schedule")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	r := newTestRefresher(&MockRankingsService{}, "@every 1h")

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}
