package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"ticket-desk/config"
	"ticket-desk/core/utils"
)

// JobFunc runs on the scheduler's context; it is cancelled on stop.
type JobFunc func(ctx context.Context)

// Scheduler runs named jobs on cron specs.
type Scheduler struct {
	cfg    config.SchedulerConfig
	cron   *cron.Cron
	logger *utils.Logger

	mu      sync.Mutex
	jobs    map[string]cron.EntryID
	runCtx  context.Context
	cancel  context.CancelFunc
	running bool
}

func New(cfg config.SchedulerConfig, logger *utils.Logger) *Scheduler {
	opts := []cron.Option{}
	if logger != nil {
		cl := cron.PrintfLogger(logger)
		opts = append(opts, cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	} else {
		opts = append(opts, cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)))
	}
	return &Scheduler{
		cfg:    cfg,
		cron:   cron.New(opts...),
		logger: logger,
		jobs:   map[string]cron.EntryID{},
		runCtx: context.Background(),
	}
}

// AddJob registers fn under name. An empty spec leaves the job disabled.
func (s *Scheduler) AddJob(name, spec string, fn JobFunc) error {
	if spec == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("scheduler: job %q already registered", name)
	}
	id, err := s.cron.AddFunc(spec, func() {
		s.mu.Lock()
		ctx := s.runCtx
		s.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		if s.logger != nil {
			s.logger.Debugf("scheduler: running %s", name)
		}
		fn(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q for %s: %w", spec, name, err)
	}
	s.jobs[name] = id
	if s.logger != nil {
		s.logger.Printf("scheduler: %s registered (%s)", name, spec)
	}
	return nil
}

func (s *Scheduler) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Scheduler) StartWithContext(ctx context.Context) {
	if s == nil || !s.cfg.Enabled {
		return
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.runCtx = runCtx
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()
	s.cron.Start()
}

// StopWithContext stops firing new runs and waits for running jobs, bounded
// by ctx.
func (s *Scheduler) StopWithContext(ctx context.Context) error {
	if s == nil || !s.cfg.Enabled {
		return nil
	}
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	wasRunning := s.running
	s.mu.Unlock()
	if !wasRunning || cancel == nil {
		return nil
	}
	cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
