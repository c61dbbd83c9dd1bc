// Package metrics provides standardised metric emission helpers for the coordinator.
package metrics

import (
	"time"

	obserrors "github.com/stevenleohash/fortune-flow-end/internal/observability/errors"
	"github.com/stevenleohash/fortune-flow-end/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultTimeout = "timeout"
	ResultNoop    = "noop"
)

// ExecutionMetric captures details about an execution lifecycle event for metric emission.
type ExecutionMetric struct {
	JobType    string
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitExecutionLifecycle emits standardised execution lifecycle metrics.
func EmitExecutionLifecycle(sink statsd.Sink, in ExecutionMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"job_type":   in.JobType,
		"transition": in.Transition,
		"result":     in.Result,
	}

	if in.Err != nil && in.Result != ResultSuccess {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("execution.transition", 1, tags)

	if in.Duration > 0 {
		sink.Timing("execution.duration", in.Duration, CloneTags(tags))
	}
}

// EmitWorkerConnections records the current worker connection count.
func EmitWorkerConnections(sink statsd.Sink, count int) {
	if sink == nil {
		return
	}
	sink.Gauge("hub.connections", float64(count), nil)
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
