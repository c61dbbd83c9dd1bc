package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/stevenleohash/fortune-flow-end/internal/core"
	"github.com/stevenleohash/fortune-flow-end/internal/domain/model"
)

// HubStatusPublisherOptions holds the dependencies for creating a HubStatusPublisher.
type HubStatusPublisherOptions struct {
	Channel core.WorkerChannel
	Logger  *slog.Logger
}

// HubStatusPublisher fans out job state transitions over the worker channel as
// task:status-update broadcasts. Publishing is best effort; observers that
// miss an update catch up from persisted state.
type HubStatusPublisher struct {
	channel core.WorkerChannel
	logger  *slog.Logger
}

// NewHubStatusPublisher creates a HubStatusPublisher with the given options.
func NewHubStatusPublisher(opts HubStatusPublisherOptions) *HubStatusPublisher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HubStatusPublisher{
		channel: opts.Channel,
		logger:  logger.With("component", "status_publisher"),
	}
}

// PublishStatus broadcasts one status update. Send failures never affect the
// executing job.
func (p *HubStatusPublisher) PublishStatus(ctx context.Context, upd model.StatusUpdateData) {
	if upd.Timestamp == 0 {
		upd.Timestamp = time.Now().UnixMilli()
	}

	sent := p.channel.Broadcast(model.MsgTaskStatusUpdate, upd)
	p.logger.DebugContext(ctx, "status published",
		"task_id", upd.TaskID,
		"status", upd.Status,
		"recipients", sent,
	)
}
