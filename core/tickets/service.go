package tickets

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ticket-desk/core/rbac"
	"ticket-desk/core/store"
	"ticket-desk/core/utils"
)

// Notifier receives best-effort signals after handshake changes. Errors are
// logged by the service and never reach the caller.
type Notifier interface {
	InfoRequested(ctx context.Context, t store.Ticket) error
	InfoReplied(ctx context.Context, t store.Ticket) error
}

type Deps struct {
	Store    store.Persister
	Policy   *rbac.Policy
	Notifier Notifier
	Logger   *utils.Logger
	Clock    utils.Clock
}

// Service owns the ticket collection. Every mutation and the persistence
// flush that follows it run under one lock, so callers observe operations in
// a single serial order.
type Service struct {
	mu       sync.Mutex
	items    map[int64]store.Ticket
	nextID   int64
	store    store.Persister
	policy   *rbac.Policy
	notifier Notifier
	logger   *utils.Logger
	clock    utils.Clock
}

// Open loads the persisted snapshot and returns a ready service.
func Open(ctx context.Context, deps Deps) (*Service, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("tickets: store is required")
	}
	if deps.Policy == nil {
		return nil, fmt.Errorf("tickets: policy is required")
	}
	snap, err := deps.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("tickets: load: %w", err)
	}
	s := &Service{
		items:    make(map[int64]store.Ticket, len(snap.Tickets)),
		nextID:   1,
		store:    deps.Store,
		policy:   deps.Policy,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		clock:    deps.Clock,
	}
	for _, t := range snap.Tickets {
		if t.AdminNotes == nil {
			t.AdminNotes = []store.AdminNote{}
		}
		s.items[t.ID] = t.Clone()
		if t.ID >= s.nextID {
			s.nextID = t.ID + 1
		}
	}
	if snap.NextID > s.nextID {
		s.nextID = snap.NextID
	}
	if s.logger != nil {
		s.logger.Printf("tickets loaded: %d (next id %d)", len(s.items), s.nextID)
	}
	return s, nil
}

func (s *Service) Policy() *rbac.Policy {
	return s.policy
}

func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// Today is the current calendar day according to the service clock.
func (s *Service) Today() store.Date {
	return store.DateOf(s.clock.Now())
}

func (s *Service) authorize(role rbac.Role, perm rbac.Permission) error {
	if !s.policy.Allowed(role, perm) {
		return &ForbiddenError{Role: role, Permission: perm}
	}
	return nil
}

// All returns every ticket ordered by id.
func (s *Service) All() []store.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

func (s *Service) sortedLocked() []store.Ticket {
	out := make([]store.Ticket, 0, len(s.items))
	for _, t := range s.items {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Service) List(role rbac.Role, f Filter) ([]store.Ticket, error) {
	if err := s.authorize(role, rbac.PermTicketsView); err != nil {
		return nil, err
	}
	return Apply(s.All(), f), nil
}

func (s *Service) Get(role rbac.Role, id int64) (store.Ticket, error) {
	if err := s.authorize(role, rbac.PermTicketsView); err != nil {
		return store.Ticket{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok {
		return store.Ticket{}, ErrNotFound
	}
	return t.Clone(), nil
}

func (s *Service) Create(ctx context.Context, role rbac.Role, in TicketInput) (store.Ticket, error) {
	if err := s.authorize(role, rbac.PermTicketsCreate); err != nil {
		return store.Ticket{}, err
	}
	t, err := in.build()
	if err != nil {
		return store.Ticket{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	t.ID = s.nextID
	s.nextID++
	t.CreatedAt = now
	t.UpdatedAt = now
	t.AdminNotes = []store.AdminNote{}
	t.Handshake = store.RestoreHandshake(false, nil, nil)
	s.items[t.ID] = t
	s.flushLocked(ctx)
	return t.Clone(), nil
}

// Update applies a shallow patch. A field the role may not edit rejects the
// whole patch with a ForbiddenError naming every refused field.
func (s *Service) Update(ctx context.Context, role rbac.Role, id int64, p Patch) (store.Ticket, error) {
	if err := s.authorize(role, rbac.PermTicketsUpdate); err != nil {
		return store.Ticket{}, err
	}
	var denied []string
	for _, f := range p.fields() {
		if f.value != nil && !s.policy.Allowed(role, f.perm) {
			denied = append(denied, f.name)
		}
	}
	if len(denied) > 0 {
		return store.Ticket{}, &ForbiddenError{Role: role, Permission: rbac.PermTicketsUpdate, Fields: denied}
	}
	return s.mutate(ctx, id, p.apply)
}

func (s *Service) Delete(ctx context.Context, role rbac.Role, id int64) error {
	if err := s.authorize(role, rbac.PermTicketsDelete); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	s.flushLocked(ctx)
	return nil
}

// AppendAdminNote adds a timestamped entry to the ticket's append-only log.
// Blank text is rejected; otherwise the text is stored as submitted.
func (s *Service) AppendAdminNote(ctx context.Context, role rbac.Role, id int64, text string) (store.Ticket, error) {
	if err := s.authorize(role, rbac.PermNotesAppend); err != nil {
		return store.Ticket{}, err
	}
	if strings.TrimSpace(text) == "" {
		return store.Ticket{}, invalid("text", "must not be empty")
	}
	return s.mutate(ctx, id, func(t *store.Ticket) error {
		t.AdminNotes = append(t.AdminNotes, store.AdminNote{Time: s.clock.Now(), Text: text})
		return nil
	})
}

// SendInfoRequest opens (or overwrites) the pending request and then notifies
// the owner. Notification failure does not undo the request.
func (s *Service) SendInfoRequest(ctx context.Context, role rbac.Role, id int64, message string) (store.Ticket, error) {
	if err := s.authorize(role, rbac.PermInfoRequest); err != nil {
		return store.Ticket{}, err
	}
	if strings.TrimSpace(message) == "" {
		return store.Ticket{}, invalid("message", "must not be empty")
	}
	t, err := s.mutate(ctx, id, func(t *store.Ticket) error {
		t.Handshake = t.Handshake.WithRequest(message, s.clock.Now())
		return nil
	})
	if err != nil {
		return store.Ticket{}, err
	}
	if s.notifier != nil {
		if err := s.notifier.InfoRequested(ctx, t); err != nil && s.logger != nil {
			s.logger.Errorf("tickets: info request mail for #%d failed: %v", t.ID, err)
		}
	}
	return t, nil
}

// ReplyToInfoRequest records the owner's reply. It is accepted whether or not
// a request is pending.
func (s *Service) ReplyToInfoRequest(ctx context.Context, role rbac.Role, id int64, reply string) (store.Ticket, error) {
	if err := s.authorize(role, rbac.PermInfoReply); err != nil {
		return store.Ticket{}, err
	}
	if strings.TrimSpace(reply) == "" {
		return store.Ticket{}, invalid("reply", "must not be empty")
	}
	t, err := s.mutate(ctx, id, func(t *store.Ticket) error {
		t.Handshake = t.Handshake.WithReply(reply, s.clock.Now())
		return nil
	})
	if err != nil {
		return store.Ticket{}, err
	}
	if s.notifier != nil {
		if err := s.notifier.InfoReplied(ctx, t); err != nil && s.logger != nil {
			s.logger.Errorf("tickets: info reply mail for #%d failed: %v", t.ID, err)
		}
	}
	return t, nil
}

// Overdue lists tickets that are past due on today.
func (s *Service) Overdue(today store.Date) []store.Ticket {
	var out []store.Ticket
	for _, t := range s.All() {
		if IsOverdue(t, today) {
			out = append(out, t)
		}
	}
	return out
}

// Flush writes the current snapshot and reports the persistence error, if any.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Save(ctx, s.snapshotLocked())
}

func (s *Service) mutate(ctx context.Context, id int64, fn func(t *store.Ticket) error) (store.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[id]
	if !ok {
		return store.Ticket{}, ErrNotFound
	}
	next := cur.Clone()
	if err := fn(&next); err != nil {
		return store.Ticket{}, err
	}
	next.UpdatedAt = s.clock.Now()
	s.items[id] = next
	s.flushLocked(ctx)
	return next.Clone(), nil
}

func (s *Service) snapshotLocked() store.Snapshot {
	return store.Snapshot{NextID: s.nextID, Tickets: s.sortedLocked()}
}

// flushLocked persists after a mutation. A failed write is logged and the
// in-memory change stands.
func (s *Service) flushLocked(ctx context.Context) {
	if err := s.store.Save(ctx, s.snapshotLocked()); err != nil && s.logger != nil {
		s.logger.Errorf("tickets: persist failed: %v", err)
	}
}
