package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeScheduler runs the job scheduler (timers + executor).
	ServiceModeScheduler ServiceMode = "scheduler"
	// ServiceModeHub runs the worker hub websocket endpoint.
	ServiceModeHub ServiceMode = "hub"
	// ServiceModeReaper runs the execution reaper for cleanup.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeScheduler,
		ServiceModeHub,
		ServiceModeReaper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeScheduler, ServiceModeHub, ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: scheduler, hub, reaper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// SchedulerConfig contains scheduler service configuration.
type SchedulerConfig struct {
	// Timezone is the IANA location in which every cron expression is evaluated.
	Timezone string `env:"SCHEDULER_TIMEZONE" envDefault:"Asia/Shanghai"`

	// NextRunFallback is the delay applied when a cron expression cannot be
	// parsed while computing the next run time. The job is pushed out by this
	// amount instead of failing the caller.
	NextRunFallback time.Duration `env:"SCHEDULER_NEXT_RUN_FALLBACK" envDefault:"1h"`
}

// Sanitize applies guardrails to scheduler configuration values.
func (s *SchedulerConfig) Sanitize() {
	if strings.TrimSpace(s.Timezone) == "" {
		s.Timezone = "Asia/Shanghai"
	}
	if s.NextRunFallback <= 0 {
		s.NextRunFallback = time.Hour
	}
}

// ExecutorConfig contains executor admission-control configuration.
type ExecutorConfig struct {
	// MaxConcurrent is the ceiling on in-flight dispatch-and-wait operations.
	MaxConcurrent int `env:"EXECUTOR_MAX_CONCURRENT" envDefault:"3"`

	// AdmissionsPerSecond limits how many dispatches are admitted per second.
	AdmissionsPerSecond int `env:"EXECUTOR_ADMISSIONS_PER_SECOND" envDefault:"5"`

	// DispatchTimeout is how long a dispatched job may wait for a worker result
	// before it is failed with a timeout error.
	DispatchTimeout time.Duration `env:"EXECUTOR_DISPATCH_TIMEOUT" envDefault:"30m"`
}

// Sanitize applies guardrails to executor configuration values.
func (e *ExecutorConfig) Sanitize() {
	if e.MaxConcurrent < 1 {
		e.MaxConcurrent = 1
	}
	if e.AdmissionsPerSecond < 1 {
		e.AdmissionsPerSecond = 1
	}
	if e.DispatchTimeout < time.Second {
		e.DispatchTimeout = 30 * time.Minute
	}
}

// ReaperConfig contains execution reaper service configuration.
type ReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"5m"`

	// RunningGrace is added to the executor dispatch timeout when deciding that
	// a running execution is stale. Executions running longer than
	// DispatchTimeout + RunningGrace were orphaned by a crash or restart.
	RunningGrace time.Duration `env:"REAPER_RUNNING_GRACE" envDefault:"5m"`

	// CompletedMaxAge is the maximum age for completed executions before deletion.
	CompletedMaxAge time.Duration `env:"REAPER_COMPLETED_MAX_AGE" envDefault:"168h"` // 7 days

	// FailedMaxAge is the maximum age for failed executions before deletion.
	FailedMaxAge time.Duration `env:"REAPER_FAILED_MAX_AGE" envDefault:"168h"` // 7 days

	// BatchSize is the maximum number of rows to process per operation.
	// Batching prevents long locks and I/O spikes on large tables.
	BatchSize int `env:"REAPER_BATCH_SIZE" envDefault:"1000"`

	// SweepOnStart marks executions orphaned by a previous process as failed
	// before the periodic loop begins.
	SweepOnStart bool `env:"REAPER_SWEEP_ON_START" envDefault:"true"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	if r.Interval < time.Minute {
		r.Interval = time.Minute
	}
	if r.RunningGrace < time.Minute {
		r.RunningGrace = time.Minute
	}
	if r.CompletedMaxAge < time.Hour {
		r.CompletedMaxAge = time.Hour
	}
	if r.FailedMaxAge < time.Hour {
		r.FailedMaxAge = time.Hour
	}
	if r.BatchSize < 1 {
		r.BatchSize = 1
	}
	if r.BatchSize > 10000 {
		r.BatchSize = 10000
	}
}
