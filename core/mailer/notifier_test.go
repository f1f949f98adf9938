package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ticket-desk/config"
	"ticket-desk/core/store"
)

type captureSender struct {
	sent []Message
	err  error
	ctx  context.Context
}

func (c *captureSender) Send(ctx context.Context, msg Message) error {
	c.ctx = ctx
	c.sent = append(c.sent, msg)
	return c.err
}

func testTicket() store.Ticket {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return store.Ticket{ID: 4, ItemName: "Laptop", OwnerEmail: "ann@example.com", Handshake: store.Handshake{}.WithRequest("Which model?", at)}
}

func TestInfoRequestedMail(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(config.MailConfig{User: "bot@example.com", TimeoutSec: 5}, sender, nil)
	if err := n.InfoRequested(context.Background(), testTicket()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.From != "bot@example.com" || msg.To != "ann@example.com" {
		t.Fatalf("unexpected envelope %+v", msg)
	}
	if msg.Subject != "Information request for ticket: Laptop" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, `ticket "Laptop"`) || !strings.HasSuffix(msg.Body, "Message from admin:\nWhich model?") {
		t.Fatalf("unexpected body %q", msg.Body)
	}
	if _, ok := sender.ctx.Deadline(); !ok {
		t.Fatalf("send should be bounded by a deadline")
	}
}

func TestInfoRequestedSkipsWithoutOwnerEmail(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(config.MailConfig{}, sender, nil)
	tk := testTicket()
	tk.OwnerEmail = ""
	if err := n.InfoRequested(context.Background(), tk); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("no mail expected without owner email")
	}
}

func TestInfoRepliedMail(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(config.MailConfig{From: "desk@example.com", AdminEmail: "admin@example.com"}, sender, nil)
	tk := testTicket()
	tk.Handshake = tk.Handshake.WithReply("X1 Carbon", time.Now())
	if err := n.InfoReplied(context.Background(), tk); err != nil {
		t.Fatalf("notify: %v", err)
	}
	msg := sender.sent[0]
	if msg.To != "admin@example.com" || msg.From != "desk@example.com" {
		t.Fatalf("unexpected envelope %+v", msg)
	}
	if msg.Subject != "Reply to information request for ticket: Laptop" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if !strings.HasSuffix(msg.Body, ":\n\nX1 Carbon") {
		t.Fatalf("unexpected body %q", msg.Body)
	}
}

func TestInfoRepliedSkipsWithoutAdminEmail(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(config.MailConfig{}, sender, nil)
	if err := n.InfoReplied(context.Background(), testTicket()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("no mail expected without admin email")
	}
}

func TestSenderErrorIsWrapped(t *testing.T) {
	sender := &captureSender{err: errors.New("connection refused")}
	n := NewNotifier(config.MailConfig{}, sender, nil)
	err := n.InfoRequested(context.Background(), testTicket())
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected wrapped sender error, got %v", err)
	}
}

func TestOverdueDigest(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(config.MailConfig{AdminEmail: "admin@example.com"}, sender, nil)
	today := store.NewDate(2024, 5, 10)
	if err := n.OverdueDigest(context.Background(), nil, today); err != nil || len(sender.sent) != 0 {
		t.Fatalf("empty digest should not send: %v", err)
	}
	due := store.NewDate(2024, 5, 1)
	items := []store.Ticket{{ID: 1, ItemName: "Desk", Owner: "Bob", DueDate: &due, Status: store.StatusStuck, Priority: store.PriorityHigh}}
	if err := n.OverdueDigest(context.Background(), items, today); err != nil {
		t.Fatalf("digest: %v", err)
	}
	msg := sender.sent[0]
	if msg.Subject != "Overdue tickets: 1" || !strings.Contains(msg.Body, "#1 Desk (owner Bob, due 2024-05-01, Stuck, High)") {
		t.Fatalf("unexpected digest %+v", msg)
	}
}

func TestNewSenderFallsBackToNop(t *testing.T) {
	if _, ok := NewSender(config.MailConfig{Host: "smtp.example.com"}, nil).(*NopSender); !ok {
		t.Fatalf("incomplete smtp config should yield a nop sender")
	}
	s, ok := NewSender(config.MailConfig{Host: "smtp.example.com", Port: 465, User: "u", Password: "p"}, nil).(*SMTPSender)
	if !ok {
		t.Fatalf("complete smtp config should yield an smtp sender")
	}
	if !s.ssl {
		t.Fatalf("port 465 should enable implicit tls")
	}
}

func TestSMTPSenderRejectsMissingRecipient(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{Host: "localhost", Port: 2525})
	if err := s.Send(context.Background(), Message{From: "a@example.com"}); err == nil {
		t.Fatalf("expected error for missing recipient")
	}
}
