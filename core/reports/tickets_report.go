package reports

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"ticket-desk/core/store"
	"ticket-desk/core/tickets"
)

// Row is one line of the tickets report.
type Row struct {
	ID         int64             `json:"id"`
	ItemName   string            `json:"itemName"`
	Owner      string            `json:"owner"`
	DueDate    string            `json:"dueDate"`
	Priority   store.Priority    `json:"priority"`
	Group      store.Group       `json:"group"`
	Status     store.Status      `json:"status"`
	Overdue    bool              `json:"overdue"`
	AdminNotes []store.AdminNote `json:"adminNotes"`
}

// Build keeps the tickets matching f, in input order.
func Build(items []store.Ticket, f tickets.Filter, today store.Date) []Row {
	matched := tickets.Apply(items, f)
	out := make([]Row, 0, len(matched))
	for _, t := range matched {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.String()
		}
		out = append(out, Row{
			ID:         t.ID,
			ItemName:   t.ItemName,
			Owner:      t.Owner,
			DueDate:    due,
			Priority:   t.Priority,
			Group:      t.Group,
			Status:     t.Status,
			Overdue:    tickets.IsOverdue(t, today),
			AdminNotes: append([]store.AdminNote{}, t.AdminNotes...),
		})
	}
	return out
}

var csvHeader = []string{"Item name", "Owner", "Due date", "Priority", "Group", "Status", "Admin notes"}

// WriteCSV writes rows with admin notes folded into one cell, one note per line.
func WriteCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		notes := make([]string, 0, len(r.AdminNotes))
		for _, n := range r.AdminNotes {
			notes = append(notes, n.Time.UTC().Format(time.RFC3339)+" "+n.Text)
		}
		if err := writer.Write([]string{
			r.ItemName,
			r.Owner,
			r.DueDate,
			string(r.Priority),
			string(r.Group),
			string(r.Status),
			strings.Join(notes, "\n"),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
