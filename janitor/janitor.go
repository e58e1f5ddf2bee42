// Package janitor runs the periodic hygiene tasks around the claims
// surfaces: sweeping stale cached views and expiring dead staged uploads.
package janitor

import (
	"fmt"
	"sync"

	rcron "github.com/robfig/cron/v3"

	claims "github.com/goliatone/go-claims"
)

// Task is one named periodic job.
type Task func() error

// Janitor schedules recurring hygiene tasks over a cron runner.
type Janitor struct {
	mu      sync.Mutex
	cron    *rcron.Cron
	logger  claims.Logger
	started bool
}

// Option customizes the janitor.
type Option func(*Janitor)

// WithLogger sets the janitor logger.
func WithLogger(logger claims.Logger) Option {
	return func(j *Janitor) {
		j.logger = claims.NormalizeLogger(logger)
	}
}

// New builds a stopped janitor. Schedules use the standard five-field cron
// syntax plus the @every descriptors.
func New(opts ...Option) *Janitor {
	j := &Janitor{logger: claims.NormalizeLogger(nil)}
	for _, opt := range opts {
		if opt != nil {
			opt(j)
		}
	}
	j.cron = rcron.New()
	return j
}

// Every registers a named task on the given cron expression. Panics and
// errors are contained per run; a failing task stays scheduled.
func (j *Janitor) Every(expression, name string, task Task) error {
	if expression == "" {
		return fmt.Errorf("cron expression cannot be empty")
	}
	if task == nil {
		return fmt.Errorf("task %q cannot be nil", name)
	}

	job := rcron.FuncJob(func() {
		defer func() {
			if r := recover(); r != nil {
				j.logger.Error("janitor task %s panicked: %v", name, r)
			}
		}()
		if err := task(); err != nil {
			j.logger.Error("janitor task %s failed: %v", name, err)
			return
		}
		j.logger.Debug("janitor task %s completed", name)
	})

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.cron.AddJob(expression, job); err != nil {
		return fmt.Errorf("failed to schedule %q: %w", name, err)
	}
	return nil
}

// Start begins executing registered tasks. Idempotent.
func (j *Janitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.started {
		return
	}
	j.started = true
	j.cron.Start()
}

// Stop halts scheduling and waits for any running task to finish.
func (j *Janitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.started {
		return
	}
	j.started = false
	<-j.cron.Stop().Done()
}
