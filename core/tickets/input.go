package tickets

import (
	"net/mail"
	"strings"

	"ticket-desk/core/rbac"
	"ticket-desk/core/store"
)

// TicketInput is the payload of Create. Blank status, priority and group take
// the defaults New, Medium and Default.
type TicketInput struct {
	ItemName   string `json:"itemName"`
	Status     string `json:"status"`
	Owner      string `json:"owner"`
	OwnerEmail string `json:"ownerEmail"`
	DueDate    string `json:"dueDate"`
	Priority   string `json:"priority"`
	Note       string `json:"note"`
	Group      string `json:"group"`
}

func (in TicketInput) build() (store.Ticket, error) {
	t := store.Ticket{
		ItemName:   strings.TrimSpace(in.ItemName),
		Owner:      strings.TrimSpace(in.Owner),
		OwnerEmail: strings.TrimSpace(in.OwnerEmail),
		Note:       in.Note,
		Status:     store.StatusNew,
		Priority:   store.PriorityMedium,
		Group:      store.GroupDefault,
	}
	if t.ItemName == "" {
		return store.Ticket{}, invalid("itemName", "required")
	}
	if err := validateEmail(t.OwnerEmail); err != nil {
		return store.Ticket{}, err
	}
	if strings.TrimSpace(in.Status) != "" {
		s, ok := store.ParseStatus(in.Status)
		if !ok {
			return store.Ticket{}, invalid("status", "unknown value "+quote(in.Status))
		}
		t.Status = s
	}
	if strings.TrimSpace(in.Priority) != "" {
		p, ok := store.ParsePriority(in.Priority)
		if !ok {
			return store.Ticket{}, invalid("priority", "unknown value "+quote(in.Priority))
		}
		t.Priority = p
	}
	g, ok := store.ParseGroup(in.Group)
	if !ok {
		return store.Ticket{}, invalid("group", "unknown value "+quote(in.Group))
	}
	t.Group = g
	due, err := store.ParseDate(in.DueDate)
	if err != nil {
		return store.Ticket{}, invalid("dueDate", err.Error())
	}
	if !due.IsZero() {
		t.DueDate = &due
	}
	if t.Status == store.StatusDone {
		t.Group = store.GroupCompleted
	}
	return t, nil
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	ItemName   *string `json:"itemName"`
	Status     *string `json:"status"`
	Owner      *string `json:"owner"`
	OwnerEmail *string `json:"ownerEmail"`
	DueDate    *string `json:"dueDate"`
	Priority   *string `json:"priority"`
	Note       *string `json:"note"`
	Group      *string `json:"group"`
}

type patchField struct {
	name  string
	perm  rbac.Permission
	value *string
}

func (p Patch) fields() []patchField {
	return []patchField{
		{"itemName", rbac.PermTicketsEditDetails, p.ItemName},
		{"status", rbac.PermTicketsEditStatus, p.Status},
		{"owner", rbac.PermTicketsEditOwner, p.Owner},
		{"ownerEmail", rbac.PermTicketsEditOwner, p.OwnerEmail},
		{"dueDate", rbac.PermTicketsEditDetails, p.DueDate},
		{"priority", rbac.PermTicketsEditPriority, p.Priority},
		{"note", rbac.PermTicketsEditDetails, p.Note},
		{"group", rbac.PermTicketsEditGroup, p.Group},
	}
}

// Empty reports whether the patch carries no fields.
func (p Patch) Empty() bool {
	for _, f := range p.fields() {
		if f.value != nil {
			return false
		}
	}
	return true
}

// apply validates every present field before mutating t. A patch naming no
// field is rejected.
func (p Patch) apply(t *store.Ticket) error {
	if p.Empty() {
		return invalid("", "patch names no fields")
	}
	next := t.Clone()
	if p.ItemName != nil {
		name := strings.TrimSpace(*p.ItemName)
		if name == "" {
			return invalid("itemName", "must not be empty")
		}
		next.ItemName = name
	}
	if p.Owner != nil {
		next.Owner = strings.TrimSpace(*p.Owner)
	}
	if p.OwnerEmail != nil {
		email := strings.TrimSpace(*p.OwnerEmail)
		if err := validateEmail(email); err != nil {
			return err
		}
		next.OwnerEmail = email
	}
	if p.Note != nil {
		next.Note = *p.Note
	}
	if p.Priority != nil {
		pr, ok := store.ParsePriority(*p.Priority)
		if !ok {
			return invalid("priority", "unknown value "+quote(*p.Priority))
		}
		next.Priority = pr
	}
	if p.Group != nil {
		g, ok := store.ParseGroup(*p.Group)
		if !ok {
			return invalid("group", "unknown value "+quote(*p.Group))
		}
		next.Group = g
	}
	if p.DueDate != nil {
		due, err := store.ParseDate(*p.DueDate)
		if err != nil {
			return invalid("dueDate", err.Error())
		}
		if due.IsZero() {
			next.DueDate = nil
		} else {
			next.DueDate = &due
		}
	}
	if p.Status != nil {
		s, ok := store.ParseStatus(*p.Status)
		if !ok {
			return invalid("status", "unknown value "+quote(*p.Status))
		}
		next.Status = s
		if s == store.StatusDone {
			next.Group = store.GroupCompleted
		}
	}
	*t = next
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("ownerEmail", "not a valid address")
	}
	return nil
}

func quote(s string) string {
	return `"` + s + `"`
}
