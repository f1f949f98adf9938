package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ticket-desk/config"
)

func openSQLiteStore(t *testing.T) Persister {
	t.Helper()
	cfg := config.StorageConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "tickets.db")}
	p, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func assertSnapshotRoundTrip(t *testing.T, p Persister) {
	t.Helper()
	ctx := context.Background()
	empty, err := p.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(empty.Tickets) != 0 || empty.NextID != 1 {
		t.Fatalf("expected empty snapshot, got %+v", empty)
	}
	if err := p.Save(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap, err := p.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.NextID != 5 || len(snap.Tickets) != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	mon := snap.Tickets[0]
	if mon.ID != 1 || mon.DueDate == nil || mon.DueDate.String() != "2024-04-10" {
		t.Fatalf("unexpected first ticket %+v", mon)
	}
	if mon.Handshake.State != HandshakeReplied || mon.Handshake.Request == nil || mon.Handshake.Request.Message != "serial?" {
		t.Fatalf("handshake lost: %+v", mon.Handshake)
	}
	if len(mon.AdminNotes) != 1 || !mon.AdminNotes[0].Time.Equal(sampleSnapshot().Tickets[1].AdminNotes[0].Time) {
		t.Fatalf("admin notes lost: %+v", mon.AdminNotes)
	}

	reduced := sampleSnapshot()
	reduced.Tickets = reduced.Tickets[:1]
	if err := p.Save(ctx, reduced); err != nil {
		t.Fatalf("save reduced: %v", err)
	}
	snap, err = p.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(snap.Tickets) != 1 || snap.Tickets[0].ID != 2 {
		t.Fatalf("save should replace prior contents, got %+v", snap.Tickets)
	}
	if snap.NextID != 5 {
		t.Fatalf("next id must survive deletes, got %d", snap.NextID)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	assertSnapshotRoundTrip(t, openSQLiteStore(t))
}

func TestSQLiteMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.db")
	cfg := config.StorageConfig{Driver: config.DriverSQLite, SQLitePath: path}
	for i := 0; i < 2; i++ {
		p, err := Open(context.Background(), cfg, nil)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		_ = p.Close()
	}
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	url := os.Getenv("TICKETDESK_TEST_PG_URL")
	if url == "" {
		t.Skip("TICKETDESK_TEST_PG_URL not set")
	}
	p, err := Open(context.Background(), config.StorageConfig{Driver: config.DriverPostgres, DBURL: url}, nil)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer p.Close()
	if err := p.Save(context.Background(), Snapshot{}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	assertSnapshotRoundTrip(t, p)
}

func TestRebindPostgres(t *testing.T) {
	s := &SQLStore{postgres: true}
	if got := s.rebind("VALUES(?, ?, ?)"); got != "VALUES($1, $2, $3)" {
		t.Fatalf("unexpected rebind %q", got)
	}
	if got := (&SQLStore{}).rebind("a = ?"); got != "a = ?" {
		t.Fatalf("sqlite query should be unchanged, got %q", got)
	}
}

func TestOpenDefaultsToJSON(t *testing.T) {
	p, err := Open(context.Background(), config.StorageConfig{DataDir: t.TempDir(), File: "t.json"}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := p.(*JSONFileStore); !ok {
		t.Fatalf("expected json store, got %T", p)
	}
}

func TestSQLStorePendingRequestKeepsReply(t *testing.T) {
	p := openSQLiteStore(t)
	ctx := context.Background()
	at := time.Date(2024, 4, 2, 12, 0, 0, 0, time.UTC)
	h := Handshake{}.WithRequest("Which browser?", at).WithReply("Chrome 124", at.Add(time.Hour)).WithRequest("OS too?", at.Add(2*time.Hour))
	snap := Snapshot{NextID: 2, Tickets: []Ticket{{ID: 1, ItemName: "Portal", Status: StatusNew, Priority: PriorityMedium, Group: GroupDefault,
		CreatedAt: at, UpdatedAt: at, AdminNotes: []AdminNote{}, Handshake: h}}}
	if err := p.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	back, err := p.Load(ctx)
	if err != nil || len(back.Tickets) != 1 {
		t.Fatalf("load: %v %+v", err, back)
	}
	got := back.Tickets[0].Handshake
	if !got.Requested() || got.Request.Message != "OS too?" {
		t.Fatalf("pending request lost: %+v", got)
	}
	if got.Reply == nil || got.Reply.Text != "Chrome 124" || !got.Reply.At.Equal(at.Add(time.Hour)) {
		t.Fatalf("reply lost: %+v", got.Reply)
	}
}
