package appbootstrap

import (
	"context"
	"time"

	"ticket-desk/api"
	"ticket-desk/config"
	"ticket-desk/core/utils"
)

const shutdownTimeout = 10 * time.Second

// Run serves until ctx is cancelled or the listener fails, then stops the
// workers and writes a final snapshot.
func Run(ctx context.Context, cfg *config.AppConfig, logger *utils.Logger) error {
	comp, err := composeRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer comp.persister.Close()

	srv := api.NewServer(cfg, comp.serverDeps, logger)
	for _, w := range comp.workers {
		w.StartWithContext(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		if logger != nil {
			logger.Printf("shutting down")
		}
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && logger != nil {
		logger.Errorf("http shutdown: %v", err)
	}
	for _, w := range comp.workers {
		if err := w.StopWithContext(shutdownCtx); err != nil && logger != nil {
			logger.Errorf("worker stop: %v", err)
		}
	}
	if err := comp.tickets.Flush(shutdownCtx); err != nil && logger != nil {
		logger.Errorf("final snapshot: %v", err)
	}
	return serveErr
}
