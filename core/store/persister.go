package store

import (
	"context"
	"sort"
)

// Snapshot is the full in-memory state handed to and from a Persister.
type Snapshot struct {
	NextID  int64
	Tickets []Ticket
}

// Persister stores whole snapshots. Save replaces everything previously saved.
type Persister interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

// normalize orders tickets by id and makes NextID strictly greater than every
// stored id.
func (s Snapshot) normalize() Snapshot {
	out := Snapshot{NextID: s.NextID, Tickets: make([]Ticket, 0, len(s.Tickets))}
	for _, t := range s.Tickets {
		out.Tickets = append(out.Tickets, t.Clone())
	}
	sort.SliceStable(out.Tickets, func(i, j int) bool { return out.Tickets[i].ID < out.Tickets[j].ID })
	var maxID int64
	for _, t := range out.Tickets {
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	if out.NextID <= maxID {
		out.NextID = maxID + 1
	}
	if out.NextID < 1 {
		out.NextID = 1
	}
	return out
}
