package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevenleohash/fortune-flow-end/internal/domain/model"
)

func TestCorrelationTable_ResolveDeliversToWaiter(t *testing.T) {
	table := newCorrelationTable()
	ch := table.Register("job-1")

	ok := table.Resolve("job-1", model.WorkerResult{Code: 200})

	require.True(t, ok)
	select {
	case result := <-ch:
		assert.Equal(t, 200, result.Code)
	default:
		t.Fatal("expected a buffered result")
	}
	assert.Equal(t, 0, table.Len())
}

func TestCorrelationTable_ResolveWithoutWaiter(t *testing.T) {
	table := newCorrelationTable()

	assert.False(t, table.Resolve("job-1", model.WorkerResult{Code: 200}))
}

func TestCorrelationTable_DuplicateResolveDropped(t *testing.T) {
	table := newCorrelationTable()
	table.Register("job-1")

	require.True(t, table.Resolve("job-1", model.WorkerResult{Code: 200}))
	assert.False(t, table.Resolve("job-1", model.WorkerResult{Code: 200}))
}

func TestCorrelationTable_RemoveClearsEntry(t *testing.T) {
	table := newCorrelationTable()
	table.Register("job-1")
	table.Register("job-2")

	table.Remove("job-1")

	assert.Equal(t, 1, table.Len())
	assert.False(t, table.Resolve("job-1", model.WorkerResult{Code: 200}))
	assert.True(t, table.Resolve("job-2", model.WorkerResult{Code: 200}))
}
