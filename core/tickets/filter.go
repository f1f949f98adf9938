package tickets

import (
	"encoding/json"
	"strings"

	"ticket-desk/core/store"
)

// Filter narrows the collection. Zero-valued fields do not constrain.
type Filter struct {
	Status   store.Status
	Priority store.Priority
	Group    store.Group
	// Term is a case-insensitive substring over name, status, owner,
	// priority, group and note.
	Term string
	// Owner is a case-insensitive substring over the owner only.
	Owner string
}

// ParseFilter builds a filter from raw query values. Values that do not name
// a known enum are kept verbatim so they simply match nothing.
func ParseFilter(status, priority, group, term, owner string) Filter {
	f := Filter{Term: strings.TrimSpace(term), Owner: strings.TrimSpace(owner)}
	if v := strings.TrimSpace(status); v != "" {
		if s, ok := store.ParseStatus(v); ok {
			f.Status = s
		} else {
			f.Status = store.Status(v)
		}
	}
	if v := strings.TrimSpace(priority); v != "" {
		if p, ok := store.ParsePriority(v); ok {
			f.Priority = p
		} else {
			f.Priority = store.Priority(v)
		}
	}
	if v := strings.TrimSpace(group); v != "" {
		if g, ok := store.ParseGroup(v); ok {
			f.Group = g
		} else {
			f.Group = store.Group(v)
		}
	}
	return f
}

func (f Filter) Match(t store.Ticket) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Group != "" && t.Group != f.Group {
		return false
	}
	if f.Owner != "" && !strings.Contains(strings.ToLower(t.Owner), strings.ToLower(f.Owner)) {
		return false
	}
	if f.Term != "" {
		haystack := strings.ToLower(strings.Join([]string{
			t.ItemName, string(t.Status), t.Owner, string(t.Priority), string(t.Group), t.Note,
		}, " "))
		if !strings.Contains(haystack, strings.ToLower(f.Term)) {
			return false
		}
	}
	return true
}

// Apply keeps the input order.
func Apply(items []store.Ticket, f Filter) []store.Ticket {
	out := make([]store.Ticket, 0, len(items))
	for _, t := range items {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// IsOverdue is true when the ticket has a due date strictly before today and
// is not Done.
func IsOverdue(t store.Ticket, today store.Date) bool {
	if t.DueDate == nil || t.DueDate.IsZero() {
		return false
	}
	if t.Status == store.StatusDone {
		return false
	}
	return t.DueDate.Before(today)
}

func IsHighPriority(t store.Ticket) bool {
	return t.Priority == store.PriorityHigh
}

// View is a ticket plus the flags a listing highlights.
type View struct {
	Ticket       store.Ticket
	Overdue      bool
	HighPriority bool
}

func NewView(t store.Ticket, today store.Date) View {
	return View{Ticket: t, Overdue: IsOverdue(t, today), HighPriority: IsHighPriority(t)}
}

func Views(items []store.Ticket, today store.Date) []View {
	out := make([]View, 0, len(items))
	for _, t := range items {
		out = append(out, NewView(t, today))
	}
	return out
}

func (v View) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		store.TicketJSON
		Overdue      bool `json:"overdue"`
		HighPriority bool `json:"highPriority"`
	}{v.Ticket.ToJSON(), v.Overdue, v.HighPriority})
}
