package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ticket-desk/config"
	"ticket-desk/core/store"
	"ticket-desk/core/utils"
)

// Notifier turns ticket events into mail. A missing recipient is not an
// error: the message is skipped.
type Notifier struct {
	sender     Sender
	from       string
	adminEmail string
	timeout    time.Duration
	logger     *utils.Logger
}

func NewNotifier(cfg config.MailConfig, sender Sender, logger *utils.Logger) *Notifier {
	return &Notifier{
		sender:     sender,
		from:       cfg.EffectiveFrom(),
		adminEmail: strings.TrimSpace(cfg.AdminEmail),
		timeout:    cfg.Timeout(),
		logger:     logger,
	}
}

func (n *Notifier) InfoRequested(ctx context.Context, t store.Ticket) error {
	to := strings.TrimSpace(t.OwnerEmail)
	if to == "" {
		if n.logger != nil {
			n.logger.Debugf("ticket #%d has no owner email, info request mail skipped", t.ID)
		}
		return nil
	}
	var message string
	if t.Handshake.Request != nil {
		message = t.Handshake.Request.Message
	}
	return n.send(ctx, Message{
		From:    n.from,
		To:      to,
		Subject: "Information request for ticket: " + t.ItemName,
		Body:    fmt.Sprintf("An information request was created for ticket \"%s\".\n\nMessage from admin:\n%s", t.ItemName, message),
	})
}

func (n *Notifier) InfoReplied(ctx context.Context, t store.Ticket) error {
	if n.adminEmail == "" {
		if n.logger != nil {
			n.logger.Debugf("admin email not configured, reply mail for ticket #%d skipped", t.ID)
		}
		return nil
	}
	var reply string
	if t.Handshake.Reply != nil {
		reply = t.Handshake.Reply.Text
	}
	return n.send(ctx, Message{
		From:    n.from,
		To:      n.adminEmail,
		Subject: "Reply to information request for ticket: " + t.ItemName,
		Body:    fmt.Sprintf("The ticket owner replied to the information request for ticket \"%s\":\n\n%s", t.ItemName, reply),
	})
}

// OverdueDigest mails the admin one summary of overdue tickets. Nothing is
// sent when the list is empty.
func (n *Notifier) OverdueDigest(ctx context.Context, items []store.Ticket, today store.Date) error {
	if n.adminEmail == "" || len(items) == 0 {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d ticket(s) are overdue as of %s:\n\n", len(items), today)
	for _, t := range items {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.String()
		}
		owner := t.Owner
		if owner == "" {
			owner = "-"
		}
		fmt.Fprintf(&b, "#%d %s (owner %s, due %s, %s, %s)\n", t.ID, t.ItemName, owner, due, t.Status, t.Priority)
	}
	return n.send(ctx, Message{
		From:    n.from,
		To:      n.adminEmail,
		Subject: fmt.Sprintf("Overdue tickets: %d", len(items)),
		Body:    b.String(),
	})
}

func (n *Notifier) send(ctx context.Context, msg Message) error {
	if n.sender == nil {
		return nil
	}
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %q to %s: %w", msg.Subject, msg.To, err)
	}
	if n.logger != nil {
		n.logger.Printf("mail sent: %q to %s", msg.Subject, msg.To)
	}
	return nil
}
