package model

import (
	"encoding/json"
	"time"
)

// Message types exchanged with remote automation workers. Every frame is a
// JSON envelope of the form {type, data}.
const (
	// MsgServerConnected is sent once to a worker after a successful handshake.
	MsgServerConnected = "server:connected"
	// MsgTaskExecute pushes a job's work payload to connected workers.
	MsgTaskExecute = "task:execute"
	// MsgTaskStatusUpdate fans out job/execution state transitions to observers.
	MsgTaskStatusUpdate = "task:status-update"
	// MsgClientReady is sent by a worker when it is ready to accept tasks.
	MsgClientReady = "client:ready"
	// MsgTaskResult carries a worker's result for a dispatched task.
	MsgTaskResult = "task:result"
)

// Envelope is the wire frame for every hub message.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// TaskExecuteData is the payload of a task:execute message. TaskID doubles as
// the correlation id: workers echo it back in task:result.
type TaskExecuteData struct {
	TaskID    string          `json:"taskId"`
	ShopData  json.RawMessage `json:"shopData"`
	TaskType  JobType         `json:"taskType"`
	Config    map[string]any  `json:"config,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// TaskResultData is the payload of an inbound task:result message.
type TaskResultData struct {
	TaskID string       `json:"taskId"`
	Result WorkerResult `json:"result"`
}

// StatusUpdateData is the payload of a task:status-update broadcast. It carries
// the job's updated counters and next run time alongside the transition itself.
type StatusUpdateData struct {
	TaskID       string     `json:"taskId"`
	ExecutionID  string     `json:"executionId,omitempty"`
	Status       string     `json:"status"`
	Error        string     `json:"error,omitempty"`
	DurationMs   *int64     `json:"durationMs,omitempty"`
	RunCount     int        `json:"runCount"`
	SuccessCount int        `json:"successCount"`
	FailureCount int        `json:"failureCount"`
	NextRunAt    *time.Time `json:"nextRunAt,omitempty"`
	Timestamp    int64      `json:"timestamp"`
}

// NewEnvelope marshals data into a wire envelope. A marshal failure returns an
// envelope with empty data; callers treat the payload as opaque.
func NewEnvelope(msgType string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{Type: msgType}, err
	}
	return Envelope{Type: msgType, Data: raw}, nil
}
