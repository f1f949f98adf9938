package appbootstrap

import (
	"context"
	"fmt"

	"ticket-desk/api"
	"ticket-desk/config"
	"ticket-desk/core/mailer"
	"ticket-desk/core/rbac"
	"ticket-desk/core/scheduler"
	"ticket-desk/core/store"
	"ticket-desk/core/tickets"
	"ticket-desk/core/utils"
)

type runtimeComposition struct {
	serverDeps api.ServerDeps
	tickets    *tickets.Service
	persister  store.Persister
	workers    []api.BackgroundWorker
}

func composeRuntime(ctx context.Context, cfg *config.AppConfig, logger *utils.Logger) (*runtimeComposition, error) {
	policy, err := rbac.NewPolicy(rbac.DefaultRoles())
	if err != nil {
		return nil, err
	}
	persister, err := store.Open(ctx, cfg.Storage, logger.With("component", "store"))
	if err != nil {
		return nil, err
	}
	mailLogger := logger.With("component", "mailer")
	notifier := mailer.NewNotifier(cfg.Mail, mailer.NewSender(cfg.Mail, mailLogger), mailLogger)
	svc, err := tickets.Open(ctx, tickets.Deps{
		Store:    persister,
		Policy:   policy,
		Notifier: notifier,
		Logger:   logger,
		Clock:    utils.NowUTC,
	})
	if err != nil {
		_ = persister.Close()
		return nil, err
	}
	sched, err := newScheduler(cfg.Scheduler, svc, notifier, logger.With("component", "scheduler"))
	if err != nil {
		_ = persister.Close()
		return nil, err
	}
	return &runtimeComposition{
		serverDeps: api.ServerDeps{Tickets: svc, Policy: policy},
		tickets:    svc,
		persister:  persister,
		workers:    []api.BackgroundWorker{sched},
	}, nil
}

func newScheduler(cfg config.SchedulerConfig, svc *tickets.Service, notifier *mailer.Notifier, logger *utils.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(cfg, logger)
	if err := sched.AddJob("snapshot", cfg.SnapshotSpec, func(ctx context.Context) {
		if err := svc.Flush(ctx); err != nil && logger != nil {
			logger.Errorf("scheduler: snapshot failed: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("snapshot job: %w", err)
	}
	if err := sched.AddJob("overdue-digest", cfg.OverdueDigestSpec, func(ctx context.Context) {
		today := svc.Today()
		if err := notifier.OverdueDigest(ctx, svc.Overdue(today), today); err != nil && logger != nil {
			logger.Errorf("scheduler: overdue digest failed: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("overdue digest job: %w", err)
	}
	return sched, nil
}
