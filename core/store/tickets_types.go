package store

import (
	"encoding/json"
	"strings"
	"time"
)

type Status string

const (
	StatusNew        Status = "New"
	StatusInProgress Status = "In Progress"
	StatusStuck      Status = "Stuck"
	StatusDone       Status = "Done"
)

var Statuses = []Status{StatusNew, StatusInProgress, StatusStuck, StatusDone}

type Group string

const (
	// GroupDefault is the legacy bucket; older documents carry it and a blank
	// group normalizes to it.
	GroupDefault          Group = "Default"
	GroupNewRequest       Group = "New request"
	GroupUnderDevelopment Group = "Under development"
	GroupCompleted        Group = "Completed"
)

var Groups = []Group{GroupNewRequest, GroupUnderDevelopment, GroupCompleted, GroupDefault}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func enumKey(raw string) string {
	r := strings.NewReplacer(" ", "", "_", "", "-", "")
	return r.Replace(strings.ToLower(strings.TrimSpace(raw)))
}

// ParseStatus matches wire values case-insensitively and ignores spacing, so
// "in_progress" and "In Progress" are the same status.
func ParseStatus(raw string) (Status, bool) {
	key := enumKey(raw)
	for _, s := range Statuses {
		if enumKey(string(s)) == key {
			return s, true
		}
	}
	return "", false
}

// ParseGroup maps a blank value to GroupDefault.
func ParseGroup(raw string) (Group, bool) {
	if strings.TrimSpace(raw) == "" {
		return GroupDefault, true
	}
	key := enumKey(raw)
	for _, g := range Groups {
		if enumKey(string(g)) == key {
			return g, true
		}
	}
	return "", false
}

func ParsePriority(raw string) (Priority, bool) {
	key := enumKey(raw)
	for _, p := range Priorities {
		if enumKey(string(p)) == key {
			return p, true
		}
	}
	return "", false
}

type AdminNote struct {
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

type Ticket struct {
	ID         int64
	ItemName   string
	Status     Status
	Owner      string
	OwnerEmail string
	DueDate    *Date
	Priority   Priority
	Note       string
	Group      Group
	CreatedAt  time.Time
	UpdatedAt  time.Time
	AdminNotes []AdminNote
	Handshake  Handshake
}

// Clone returns a copy that shares no mutable state with t.
func (t Ticket) Clone() Ticket {
	out := t
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	out.AdminNotes = append([]AdminNote(nil), t.AdminNotes...)
	out.Handshake = t.Handshake.clone()
	return out
}

// TicketJSON is the flat wire shape of a ticket shared by the HTTP API and
// the JSON document store.
type TicketJSON struct {
	ID                 int64       `json:"id"`
	ItemName           string      `json:"itemName"`
	Status             Status      `json:"status"`
	Owner              string      `json:"owner"`
	OwnerEmail         string      `json:"ownerEmail"`
	DueDate            *string     `json:"dueDate"`
	Priority           Priority    `json:"priority"`
	Note               string      `json:"note"`
	Group              Group       `json:"group"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
	AdminNotes         []AdminNote `json:"adminNotes"`
	InfoRequested      bool        `json:"infoRequested"`
	InfoRequestMessage string      `json:"infoRequestMessage"`
	InfoRequestSentAt  *time.Time  `json:"infoRequestSentAt"`
	InfoReply          string      `json:"infoReply"`
	InfoReplyAt        *time.Time  `json:"infoReplyAt"`
}

func (t Ticket) ToJSON() TicketJSON {
	out := TicketJSON{
		ID:            t.ID,
		ItemName:      t.ItemName,
		Status:        t.Status,
		Owner:         t.Owner,
		OwnerEmail:    t.OwnerEmail,
		Priority:      t.Priority,
		Note:          t.Note,
		Group:         t.Group,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		AdminNotes:    append([]AdminNote{}, t.AdminNotes...),
		InfoRequested: t.Handshake.Requested(),
	}
	if t.DueDate != nil && !t.DueDate.IsZero() {
		s := t.DueDate.String()
		out.DueDate = &s
	}
	if req := t.Handshake.Request; req != nil {
		at := req.SentAt
		out.InfoRequestMessage = req.Message
		out.InfoRequestSentAt = &at
	}
	if rep := t.Handshake.Reply; rep != nil {
		at := rep.At
		out.InfoReply = rep.Text
		out.InfoReplyAt = &at
	}
	return out
}

// FromJSON is lenient: unparseable due dates are dropped and the handshake
// state is rebuilt from whichever request/reply fields are present.
func (w TicketJSON) FromJSON() Ticket {
	t := Ticket{
		ID:         w.ID,
		ItemName:   w.ItemName,
		Status:     w.Status,
		Owner:      w.Owner,
		OwnerEmail: w.OwnerEmail,
		Priority:   w.Priority,
		Note:       w.Note,
		Group:      w.Group,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
		AdminNotes: append([]AdminNote{}, w.AdminNotes...),
	}
	if w.DueDate != nil {
		if d, err := ParseDate(*w.DueDate); err == nil && !d.IsZero() {
			t.DueDate = &d
		}
	}
	var req *InfoRequest
	if w.InfoRequestSentAt != nil || w.InfoRequestMessage != "" {
		req = &InfoRequest{Message: w.InfoRequestMessage}
		if w.InfoRequestSentAt != nil {
			req.SentAt = *w.InfoRequestSentAt
		}
	}
	var rep *InfoReply
	if w.InfoReplyAt != nil || w.InfoReply != "" {
		rep = &InfoReply{Text: w.InfoReply}
		if w.InfoReplyAt != nil {
			rep.At = *w.InfoReplyAt
		}
	}
	t.Handshake = RestoreHandshake(w.InfoRequested, req, rep)
	return t
}

func (t Ticket) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.ToJSON())
}

func (t *Ticket) UnmarshalJSON(data []byte) error {
	var w TicketJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = w.FromJSON()
	return nil
}
