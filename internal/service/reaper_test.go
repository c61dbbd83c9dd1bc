package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/stevenleohash/fortune-flow-end/config"
	"github.com/stevenleohash/fortune-flow-end/internal/core"
	"github.com/stevenleohash/fortune-flow-end/internal/mocks"
)

func newTestReaper(t *testing.T) (*ReaperService, *mocks.MockReaperRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockReaperRepository(ctrl)

	reaper := NewReaperService(ReaperServiceOptions{
		Config: config.ReaperConfig{
			Interval:        time.Minute,
			RunningGrace:    5 * time.Minute,
			CompletedMaxAge: 7 * 24 * time.Hour,
			FailedMaxAge:    7 * 24 * time.Hour,
			BatchSize:       500,
		},
		Executor: config.ExecutorConfig{DispatchTimeout: 30 * time.Minute},
		Repo:     repo,
	})
	return reaper, repo
}

func TestReaperService_Sweep(t *testing.T) {
	reaper, repo := newTestReaper(t)
	ctx := context.Background()

	// Stale cutoff is the dispatch timeout plus the grace period.
	repo.EXPECT().
		FailStaleRunningExecutions(ctx, 35*time.Minute, 500).
		Return(int64(2), nil)
	repo.EXPECT().
		ResetOrphanedRunningJobs(ctx).
		Return(int64(1), nil)
	repo.EXPECT().
		DeleteOldExecutions(ctx, core.DeleteOldExecutionsParams{
			Status:    "completed",
			MaxAge:    7 * 24 * time.Hour,
			BatchSize: 500,
		}).
		Return(int64(10), nil)
	repo.EXPECT().
		DeleteOldExecutions(ctx, core.DeleteOldExecutionsParams{
			Status:    "failed",
			MaxAge:    7 * 24 * time.Hour,
			BatchSize: 500,
		}).
		Return(int64(3), nil)

	reaper.Sweep(ctx)
}

func TestReaperService_Sweep_StepFailureDoesNotStopOthers(t *testing.T) {
	reaper, repo := newTestReaper(t)
	ctx := context.Background()

	repo.EXPECT().
		FailStaleRunningExecutions(ctx, gomock.Any(), gomock.Any()).
		Return(int64(0), errors.New("deadlock detected"))
	repo.EXPECT().ResetOrphanedRunningJobs(ctx).Return(int64(0), nil)
	repo.EXPECT().DeleteOldExecutions(ctx, gomock.Any()).Return(int64(0), nil).Times(2)

	reaper.Sweep(ctx)
}

func TestReaperService_Run_SweepsOnStartAndStopsOnCancel(t *testing.T) {
	reaper, repo := newTestReaper(t)
	reaper.cfg.SweepOnStart = true

	repo.EXPECT().FailStaleRunningExecutions(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), nil)
	repo.EXPECT().ResetOrphanedRunningJobs(gomock.Any()).Return(int64(0), nil)
	repo.EXPECT().DeleteOldExecutions(gomock.Any(), gomock.Any()).Return(int64(0), nil).Times(2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reaper.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected run error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after cancel")
	}
}
