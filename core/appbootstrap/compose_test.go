package appbootstrap

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ticket-desk/config"
	"ticket-desk/core/rbac"
	"ticket-desk/core/tickets"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	return &config.AppConfig{
		ListenAddr: "127.0.0.1:0",
		Storage:    config.StorageConfig{Driver: config.DriverJSON, DataDir: t.TempDir(), File: "tickets.json"},
		Mail:       config.MailConfig{Port: 587},
		Scheduler:  config.SchedulerConfig{Enabled: true, SnapshotSpec: "@every 1h", OverdueDigestSpec: "@daily"},
	}
}

func TestComposeRuntimeWiresService(t *testing.T) {
	cfg := testConfig(t)
	comp, err := composeRuntime(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	defer comp.persister.Close()
	if comp.serverDeps.Tickets == nil || comp.serverDeps.Policy == nil {
		t.Fatalf("server deps not wired")
	}
	if len(comp.workers) != 1 {
		t.Fatalf("expected scheduler worker, got %d", len(comp.workers))
	}
	if _, err := comp.tickets.Create(context.Background(), rbac.RoleAdmin, tickets.TicketInput{ItemName: "A"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := os.Stat(cfg.Storage.TicketsFile()); err != nil {
		t.Fatalf("create should write the tickets file: %v", err)
	}
}

func TestComposeRuntimeRejectsBadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scheduler.SnapshotSpec = "every now and then"
	if _, err := composeRuntime(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected invalid schedule error")
	}
}

func TestComposeRuntimeSQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = config.DriverSQLite
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "tickets.db")
	comp, err := composeRuntime(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	defer comp.persister.Close()
	if _, err := comp.tickets.Create(context.Background(), rbac.RoleAdmin, tickets.TicketInput{ItemName: "A"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	all := comp.tickets.All()
	if len(all) != 1 {
		t.Fatalf("expected one ticket, got %d", len(all))
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestRunServesAndShutsDown(t *testing.T) {
	cfg := testConfig(t)
	cfg.ListenAddr = freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, nil) }()

	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + cfg.ListenAddr + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		cancel()
		t.Fatalf("server never came up: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", resp.StatusCode)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
	if _, err := os.Stat(cfg.Storage.TicketsFile()); err != nil {
		t.Fatalf("final snapshot should exist: %v", err)
	}
}
