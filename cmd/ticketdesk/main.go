package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ticket-desk/config"
	"ticket-desk/core/appbootstrap"
	"ticket-desk/core/utils"
)

func main() {
	configPath := flag.String("config", os.Getenv("TICKETDESK_CONFIG"), "path to YAML config (environment variables override it)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := utils.NewLoggerWithOptions(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := appbootstrap.Run(ctx, cfg, logger); err != nil {
		logger.Errorf("ticketdesk: %v", err)
		os.Exit(1)
	}
}
