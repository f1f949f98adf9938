package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ticket-desk/config"
)

// SQLStore persists snapshots into the tickets, ticket_admin_notes and
// ticket_meta tables. Save rewrites all three inside one transaction.
type SQLStore struct {
	db       *sql.DB
	postgres bool
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, postgres: driver == config.DriverPostgres}
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Load(ctx context.Context) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_name, status, owner, owner_email, due_date, priority, note, group_name,
			handshake_state, info_request_message, info_request_sent_at, info_reply, info_reply_at,
			created_at, updated_at
		FROM tickets ORDER BY id`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("tickets: query: %w", err)
	}
	defer rows.Close()
	var items []Ticket
	index := map[int64]int{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return Snapshot{}, err
		}
		index[t.ID] = len(items)
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("tickets: rows: %w", err)
	}
	rows.Close()

	noteRows, err := s.db.QueryContext(ctx, `SELECT ticket_id, noted_at, text FROM ticket_admin_notes ORDER BY ticket_id, position`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("admin notes: query: %w", err)
	}
	defer noteRows.Close()
	for noteRows.Next() {
		var id int64
		var at, text string
		if err := noteRows.Scan(&id, &at, &text); err != nil {
			return Snapshot{}, fmt.Errorf("admin notes: scan: %w", err)
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		items[i].AdminNotes = append(items[i].AdminNotes, AdminNote{Time: parseStoredTime(at), Text: text})
	}
	if err := noteRows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("admin notes: rows: %w", err)
	}

	var nextID int64
	err = s.db.QueryRowContext(ctx, `SELECT next_id FROM ticket_meta WHERE id = 1`).Scan(&nextID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("ticket meta: %w", err)
	}
	return Snapshot{NextID: nextID, Tickets: items}.normalize(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (Ticket, error) {
	var (
		t                   Ticket
		status, prio, group string
		dueDate, state      string
		createdAt, updated  string
		reqMsg, reqAt       sql.NullString
		reply, replyAt      sql.NullString
	)
	if err := row.Scan(&t.ID, &t.ItemName, &status, &t.Owner, &t.OwnerEmail, &dueDate, &prio, &t.Note, &group,
		&state, &reqMsg, &reqAt, &reply, &replyAt, &createdAt, &updated); err != nil {
		return Ticket{}, fmt.Errorf("tickets: scan: %w", err)
	}
	t.Status = Status(status)
	t.Priority = Priority(prio)
	t.Group = Group(group)
	if d, err := ParseDate(dueDate); err == nil && !d.IsZero() {
		t.DueDate = &d
	}
	t.CreatedAt = parseStoredTime(createdAt)
	t.UpdatedAt = parseStoredTime(updated)
	t.AdminNotes = []AdminNote{}
	var req *InfoRequest
	if reqAt.Valid {
		req = &InfoRequest{Message: reqMsg.String, SentAt: parseStoredTime(reqAt.String)}
	}
	var rep *InfoReply
	if replyAt.Valid {
		rep = &InfoReply{Text: reply.String, At: parseStoredTime(replyAt.String)}
	}
	t.Handshake = RestoreHandshake(HandshakeState(state) == HandshakeAwaitingReply, req, rep)
	return t, nil
}

func (s *SQLStore) Save(ctx context.Context, snap Snapshot) error {
	snap = snap.normalize()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("tickets: begin: %w", err)
	}
	defer tx.Rollback()
	for _, stmt := range []string{`DELETE FROM ticket_admin_notes`, `DELETE FROM tickets`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("tickets: clear: %w", err)
		}
	}
	insertTicket := s.rebind(`
		INSERT INTO tickets(id, item_name, status, owner, owner_email, due_date, priority, note, group_name,
			handshake_state, info_request_message, info_request_sent_at, info_reply, info_reply_at,
			created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	insertNote := s.rebind(`INSERT INTO ticket_admin_notes(ticket_id, position, noted_at, text) VALUES(?, ?, ?, ?)`)
	for _, t := range snap.Tickets {
		var due string
		if t.DueDate != nil {
			due = t.DueDate.String()
		}
		var reqMsg, reqAt, reply, replyAt sql.NullString
		if req := t.Handshake.Request; req != nil {
			reqMsg = sql.NullString{String: req.Message, Valid: true}
			reqAt = sql.NullString{String: formatStoredTime(req.SentAt), Valid: true}
		}
		if rep := t.Handshake.Reply; rep != nil {
			reply = sql.NullString{String: rep.Text, Valid: true}
			replyAt = sql.NullString{String: formatStoredTime(rep.At), Valid: true}
		}
		state := t.Handshake.State
		if state == "" {
			state = HandshakeIdle
		}
		if _, err := tx.ExecContext(ctx, insertTicket,
			t.ID, t.ItemName, string(t.Status), t.Owner, t.OwnerEmail, due, string(t.Priority), t.Note, string(t.Group),
			string(state), reqMsg, reqAt, reply, replyAt,
			formatStoredTime(t.CreatedAt), formatStoredTime(t.UpdatedAt)); err != nil {
			return fmt.Errorf("tickets: insert %d: %w", t.ID, err)
		}
		for i, n := range t.AdminNotes {
			if _, err := tx.ExecContext(ctx, insertNote, t.ID, i, formatStoredTime(n.Time), n.Text); err != nil {
				return fmt.Errorf("admin notes: insert %d/%d: %w", t.ID, i, err)
			}
		}
	}
	upsertMeta := s.rebind(`
		INSERT INTO ticket_meta(id, next_id) VALUES(1, ?)
		ON CONFLICT (id) DO UPDATE SET next_id = excluded.next_id`)
	if _, err := tx.ExecContext(ctx, upsertMeta, snap.NextID); err != nil {
		return fmt.Errorf("ticket meta: upsert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tickets: commit: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func formatStoredTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseStoredTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return t
}
