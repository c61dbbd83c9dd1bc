package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevenleohash/fortune-flow-end/config"
	"github.com/stevenleohash/fortune-flow-end/internal/domain/model"
	apperrors "github.com/stevenleohash/fortune-flow-end/internal/errors"
)

type executorFixture struct {
	executor  *ExecutorService
	store     *fakeJobStore
	channel   *fakeChannel
	publisher *fakePublisher
}

func newExecutorFixture(cfg config.ExecutorConfig, jobs ...*model.ScheduledJob) *executorFixture {
	store := newFakeJobStore(jobs...)
	channel := &fakeChannel{connections: 1}
	publisher := &fakePublisher{}

	executor := NewExecutorService(ExecutorServiceOptions{
		Config:    cfg,
		Store:     store,
		Shops:     &fakeShops{data: json.RawMessage(`{"name":"shop one"}`)},
		Channel:   channel,
		Publisher: publisher,
		Planner:   testPlanner(),
	})

	return &executorFixture{
		executor:  executor,
		store:     store,
		channel:   channel,
		publisher: publisher,
	}
}

func fastExecutorConfig() config.ExecutorConfig {
	return config.ExecutorConfig{
		MaxConcurrent:       3,
		AdmissionsPerSecond: 100,
		DispatchTimeout:     time.Second,
	}
}

func TestExecutorService_Execute_SuccessFlow(t *testing.T) {
	fx := newExecutorFixture(fastExecutorConfig(), testJob("job-1"))
	fx.channel.onDispatch = func(taskID string, _ model.TaskExecuteData) {
		fx.executor.HandleResult(model.TaskResultData{
			TaskID: taskID,
			Result: model.WorkerResult{Code: 200, Data: json.RawMessage(`{"ok":true}`)},
		})
	}

	require.NoError(t, fx.executor.Execute(context.Background(), testJob("job-1")))
	fx.executor.Drain()

	job := fx.store.job("job-1")
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, 1, job.RunCount)
	assert.Equal(t, 1, job.SuccessCount)
	assert.Equal(t, 0, job.FailureCount)
	assert.NotNil(t, job.LastRunAt)
	require.NotNil(t, job.NextRunAt)

	exec, err := fx.store.singleExecution()
	require.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusCompleted, exec.Status)
	assert.NotNil(t, exec.CompletedAt)
	assert.NotNil(t, exec.DurationMs)
	assert.NotEmpty(t, exec.Result)
	assert.Nil(t, exec.Error)

	updates := fx.publisher.all()
	require.Len(t, updates, 2)
	assert.Equal(t, string(model.JobStatusRunning), updates[0].Status)

	final := updates[1]
	assert.Equal(t, "job-1", final.TaskID)
	assert.Equal(t, string(model.JobStatusCompleted), final.Status)
	assert.Equal(t, 1, final.SuccessCount)
	assert.NotNil(t, final.NextRunAt)

	assert.Equal(t, 0, fx.executor.PendingCorrelations())
}

func TestExecutorService_Execute_ConflictCreatesNoRecord(t *testing.T) {
	fx := newExecutorFixture(fastExecutorConfig(), testJob("job-1"))
	fx.store.conflictResults = []bool{true}

	err := fx.executor.Execute(context.Background(), testJob("job-1"))

	require.Error(t, err)
	assert.True(t, apperrors.IsConcurrentExecution(err))
	assert.Equal(t, 0, fx.store.executionCount())
	assert.Empty(t, fx.publisher.all())
	assert.Equal(t, 0, fx.store.job("job-1").RunCount)
}

func TestExecutorService_Execute_ConflictAfterAdmission(t *testing.T) {
	fx := newExecutorFixture(fastExecutorConfig(), testJob("job-1"))
	// First check passes, the recheck after admission finds a conflict.
	fx.store.conflictResults = []bool{false, true}

	require.NoError(t, fx.executor.Execute(context.Background(), testJob("job-1")))
	fx.executor.Drain()

	assert.Equal(t, 0, fx.channel.dispatchCount())

	exec, err := fx.store.singleExecution()
	require.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusFailed, exec.Status)
	require.NotNil(t, exec.Error)
	assert.Contains(t, *exec.Error, "already has a running")

	job := fx.store.job("job-1")
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.FailureCount)
	assert.NotNil(t, job.NextRunAt)
}

func TestExecutorService_Execute_NoWorkerFailsFast(t *testing.T) {
	fx := newExecutorFixture(fastExecutorConfig(), testJob("job-1"))
	fx.channel.connections = 0

	start := time.Now()
	require.NoError(t, fx.executor.Execute(context.Background(), testJob("job-1")))
	fx.executor.Drain()

	// Fails without waiting for the dispatch timeout.
	assert.Less(t, time.Since(start), fastExecutorConfig().DispatchTimeout)
	assert.Equal(t, 0, fx.channel.dispatchCount())

	exec, err := fx.store.singleExecution()
	require.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusFailed, exec.Status)
	require.NotNil(t, exec.Error)
	assert.Contains(t, *exec.Error, "no worker available")

	job := fx.store.job("job-1")
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.FailureCount)
}

func TestExecutorService_Execute_TimeoutReconcilesOnce(t *testing.T) {
	cfg := fastExecutorConfig()
	cfg.DispatchTimeout = 50 * time.Millisecond
	fx := newExecutorFixture(cfg, testJob("job-1"))

	require.NoError(t, fx.executor.Execute(context.Background(), testJob("job-1")))
	fx.executor.Drain()

	exec, err := fx.store.singleExecution()
	require.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusFailed, exec.Status)
	require.NotNil(t, exec.Error)
	assert.Contains(t, *exec.Error, "timed out")
	assert.Equal(t, 0, fx.executor.PendingCorrelations())

	// A late result after the timeout path claimed the correlation is dropped.
	fx.executor.HandleResult(model.TaskResultData{
		TaskID: "job-1",
		Result: model.WorkerResult{Code: 200},
	})

	job := fx.store.job("job-1")
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Equal(t, 0, job.SuccessCount)
	assert.Equal(t, 1, job.FailureCount)
}

func TestExecutorService_Execute_WorkerFailureCode(t *testing.T) {
	fx := newExecutorFixture(fastExecutorConfig(), testJob("job-1"))
	fx.channel.onDispatch = func(taskID string, _ model.TaskExecuteData) {
		fx.executor.HandleResult(model.TaskResultData{
			TaskID: taskID,
			Result: model.WorkerResult{Code: 500, Message: "login expired"},
		})
	}

	require.NoError(t, fx.executor.Execute(context.Background(), testJob("job-1")))
	fx.executor.Drain()

	exec, err := fx.store.singleExecution()
	require.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusFailed, exec.Status)
	require.NotNil(t, exec.Error)
	assert.Contains(t, *exec.Error, "code=500")
	assert.Contains(t, *exec.Error, "login expired")

	job := fx.store.job("job-1")
	assert.Equal(t, 1, job.FailureCount)
	assert.Equal(t, 0, job.SuccessCount)
}

func TestExecutorService_Execute_DispatchPayload(t *testing.T) {
	fx := newExecutorFixture(fastExecutorConfig(), testJob("job-1"))
	fx.channel.onDispatch = func(taskID string, _ model.TaskExecuteData) {
		fx.executor.HandleResult(model.TaskResultData{
			TaskID: taskID,
			Result: model.WorkerResult{Code: 200},
		})
	}

	require.NoError(t, fx.executor.Execute(context.Background(), testJob("job-1")))
	fx.executor.Drain()

	require.Equal(t, 1, fx.channel.dispatchCount())
	payload := fx.channel.dispatched[0]
	assert.Equal(t, "job-1", payload.TaskID)
	assert.Equal(t, model.JobTypeAutoFlow, payload.TaskType)
	assert.JSONEq(t, `{"name":"shop one"}`, string(payload.ShopData))
	assert.NotZero(t, payload.Timestamp)
}

func TestExecutorService_ConcurrencyCeiling(t *testing.T) {
	cfg := fastExecutorConfig()
	cfg.MaxConcurrent = 2

	jobs := []*model.ScheduledJob{testJob("job-1"), testJob("job-2"), testJob("job-3")}
	for i, j := range jobs {
		j.ShopID = "shop-" + string(rune('a'+i))
	}

	fx := newExecutorFixture(cfg, jobs...)

	var current, peak int64
	fx.channel.onDispatch = func(taskID string, _ model.TaskExecuteData) {
		n := atomic.AddInt64(&current, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt64(&current, -1)

		fx.executor.HandleResult(model.TaskResultData{
			TaskID: taskID,
			Result: model.WorkerResult{Code: 200},
		})
	}

	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(job *model.ScheduledJob) {
			defer wg.Done()
			assert.NoError(t, fx.executor.Execute(context.Background(), job))
		}(j)
	}
	wg.Wait()
	fx.executor.Drain()

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
	assert.Equal(t, 3, fx.channel.dispatchCount())
	for _, j := range jobs {
		assert.Equal(t, model.JobStatusCompleted, fx.store.job(j.ID).Status)
	}
}

func TestExecutorService_ExecuteNow_UnknownJob(t *testing.T) {
	fx := newExecutorFixture(fastExecutorConfig())

	err := fx.executor.ExecuteNow(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestExecutorService_HandleResult_Unmatched(t *testing.T) {
	fx := newExecutorFixture(fastExecutorConfig())

	// Must not panic or block.
	fx.executor.HandleResult(model.TaskResultData{
		TaskID: "nobody-waiting",
		Result: model.WorkerResult{Code: 200},
	})

	assert.Equal(t, 0, fx.executor.PendingCorrelations())
}
