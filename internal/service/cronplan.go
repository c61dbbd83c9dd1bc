// Package service contains the scheduling, execution, and maintenance services
// of the fortune-flow coordinator.
package service

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stevenleohash/fortune-flow-end/config"
)

// CronPlanner evaluates cron expressions in a fixed timezone. It is shared by
// the scheduler (timer installation) and the executor (next-run recomputation
// at reconciliation), so both agree on what "next run" means.
type CronPlanner struct {
	parser   cron.Parser
	location *time.Location
	fallback time.Duration
}

// NewCronPlanner builds a planner for the configured timezone. Expressions use
// the standard five fields with an optional leading seconds field.
func NewCronPlanner(cfg config.SchedulerConfig) (*CronPlanner, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	return &CronPlanner{
		parser: cron.NewParser(
			cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		),
		location: loc,
		fallback: cfg.NextRunFallback,
	}, nil
}

// Parse validates and compiles a cron expression.
func (p *CronPlanner) Parse(expression string) (cron.Schedule, error) {
	return p.parser.Parse(expression)
}

// Location returns the timezone every expression is evaluated in.
func (p *CronPlanner) Location() *time.Location {
	return p.location
}

// Next returns the next fire time strictly after from, evaluated in the
// planner's timezone. A parse failure falls back to from plus a fixed delay
// instead of failing the caller.
func (p *CronPlanner) Next(expression string, from time.Time) time.Time {
	sched, err := p.parser.Parse(expression)
	if err != nil {
		return from.Add(p.fallback)
	}
	return sched.Next(from.In(p.location))
}
