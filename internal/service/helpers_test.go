package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stevenleohash/fortune-flow-end/config"
	"github.com/stevenleohash/fortune-flow-end/internal/domain/model"
	apperrors "github.com/stevenleohash/fortune-flow-end/internal/errors"
)

func testPlanner() *CronPlanner {
	planner, err := NewCronPlanner(config.SchedulerConfig{
		Timezone:        "UTC",
		NextRunFallback: time.Hour,
	})
	if err != nil {
		panic(err)
	}
	return planner
}

func testJob(id string) *model.ScheduledJob {
	return &model.ScheduledJob{
		ID:             id,
		ShopID:         "shop-1",
		Type:           model.JobTypeAutoFlow,
		CronExpression: "*/5 * * * *",
		Enabled:        true,
		Status:         model.JobStatusPending,
	}
}

// fakeJobStore is a stateful in-memory store double. It applies updates the
// way the real repo does so tests can assert on resulting counters.
type fakeJobStore struct {
	mu sync.Mutex

	jobs       map[string]*model.ScheduledJob
	executions map[string]*model.Execution
	logs       map[string][]model.ExecutionLogEntry

	// conflictResults is consumed one per FindRunningConflict call; exhausted
	// calls report no conflict.
	conflictResults []bool

	createExecutionErr error
	updateJobErr       error
}

func newFakeJobStore(jobs ...*model.ScheduledJob) *fakeJobStore {
	s := &fakeJobStore{
		jobs:       make(map[string]*model.ScheduledJob),
		executions: make(map[string]*model.Execution),
		logs:       make(map[string][]model.ExecutionLogEntry),
	}
	for _, j := range jobs {
		copied := *j
		s.jobs[j.ID] = &copied
	}
	return s
}

func (s *fakeJobStore) ListEnabledJobs(_ context.Context) ([]model.ScheduledJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ScheduledJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		if j.Enabled {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (s *fakeJobStore) FindJob(_ context.Context, id string) (*model.ScheduledJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *j
	return &copied, nil
}

func (s *fakeJobStore) UpdateJob(_ context.Context, id string, upd model.JobUpdate) (*model.ScheduledJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateJobErr != nil {
		return nil, s.updateJobErr
	}
	j, ok := s.jobs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if upd.Status != nil {
		j.Status = *upd.Status
	}
	if upd.NextRunAt != nil {
		j.NextRunAt = upd.NextRunAt
	}
	if upd.LastRunAt != nil {
		j.LastRunAt = upd.LastRunAt
	}
	j.RunCount += upd.RunCountDelta
	j.SuccessCount += upd.SuccessCountDelta
	j.FailureCount += upd.FailureCountDelta
	copied := *j
	return &copied, nil
}

func (s *fakeJobStore) CreateExecution(_ context.Context, exec *model.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createExecutionErr != nil {
		return s.createExecutionErr
	}
	copied := *exec
	s.executions[exec.ID] = &copied
	return nil
}

func (s *fakeJobStore) UpdateExecution(_ context.Context, id string, upd model.ExecutionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exec, ok := s.executions[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if upd.Status != nil {
		exec.Status = *upd.Status
	}
	if upd.CompletedAt != nil {
		exec.CompletedAt = upd.CompletedAt
	}
	if upd.DurationMs != nil {
		exec.DurationMs = upd.DurationMs
	}
	if upd.Result != nil {
		exec.Result = upd.Result
	}
	if upd.Error != nil {
		exec.Error = upd.Error
	}
	return nil
}

func (s *fakeJobStore) AppendExecutionLog(_ context.Context, executionID string, entry model.ExecutionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[executionID] = append(s.logs[executionID], entry)
	return nil
}

func (s *fakeJobStore) FindRunningConflict(_ context.Context, _ string, _ model.JobType, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.conflictResults) == 0 {
		return false, nil
	}
	result := s.conflictResults[0]
	s.conflictResults = s.conflictResults[1:]
	return result, nil
}

func (s *fakeJobStore) job(id string) model.ScheduledJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.jobs[id]
}

func (s *fakeJobStore) executionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.executions)
}

func (s *fakeJobStore) singleExecution() (model.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.executions) != 1 {
		return model.Execution{}, fmt.Errorf("expected 1 execution, have %d", len(s.executions))
	}
	for _, exec := range s.executions {
		return *exec, nil
	}
	return model.Execution{}, errors.New("unreachable")
}

// fakeChannel is a worker channel double. An onDispatch hook lets tests inject
// a worker result after the dispatch lands.
type fakeChannel struct {
	mu          sync.Mutex
	connections int
	dispatchErr error
	dispatched  []model.TaskExecuteData
	broadcasts  []string
	onDispatch  func(taskID string, data model.TaskExecuteData)
}

func (c *fakeChannel) ConnectionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connections
}

func (c *fakeChannel) Dispatch(taskID string, data model.TaskExecuteData) (int, error) {
	c.mu.Lock()
	if c.dispatchErr != nil {
		err := c.dispatchErr
		c.mu.Unlock()
		return 0, err
	}
	c.dispatched = append(c.dispatched, data)
	sent := c.connections
	hook := c.onDispatch
	c.mu.Unlock()

	if hook != nil {
		hook(taskID, data)
	}
	return sent, nil
}

func (c *fakeChannel) Broadcast(msgType string, _ any) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broadcasts = append(c.broadcasts, msgType)
	return c.connections
}

func (c *fakeChannel) dispatchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.dispatched)
}

// fakePublisher records every status update in order.
type fakePublisher struct {
	mu      sync.Mutex
	updates []model.StatusUpdateData
}

func (p *fakePublisher) PublishStatus(_ context.Context, upd model.StatusUpdateData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, upd)
}

func (p *fakePublisher) all() []model.StatusUpdateData {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.StatusUpdateData, len(p.updates))
	copy(out, p.updates)
	return out
}

// fakeShops serves a fixed payload for every shop.
type fakeShops struct {
	data json.RawMessage
	err  error
}

func (s *fakeShops) GetShopData(_ context.Context, _ string) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}
