// Package mocks provides mock implementations for testing the fortune-flow coordinator.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the core
// interfaces. The mocks are generated using go:generate directives and provide a fluent
// API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockStore := mocks.NewMockJobStore(ctrl)
//	mockStore.EXPECT().FindJob(gomock.Any(), "job-1").Return(job, nil)
package mocks

// Generate mock for JobStore interface from internal/core package.
// This creates MockJobStore with methods for all JobStore interface methods:
// ListEnabledJobs, FindJob, UpdateJob, CreateExecution, UpdateExecution, AppendExecutionLog, FindRunningConflict
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_store_mock.go github.com/stevenleohash/fortune-flow-end/internal/core JobStore

// Generate mock for JobExecutor interface from internal/core package.
// This creates MockJobExecutor with methods for all JobExecutor interface methods:
// Execute, ExecuteNow
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_executor_mock.go github.com/stevenleohash/fortune-flow-end/internal/core JobExecutor

// Generate mock for ReaperRepository interface from internal/core package.
// This creates MockReaperRepository with methods for all ReaperRepository interface methods:
// FailStaleRunningExecutions, ResetOrphanedRunningJobs, DeleteOldExecutions
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=reaper_repository_mock.go github.com/stevenleohash/fortune-flow-end/internal/core ReaperRepository
