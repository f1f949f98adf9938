package store

import "time"

type HandshakeState string

const (
	HandshakeIdle          HandshakeState = "idle"
	HandshakeAwaitingReply HandshakeState = "awaiting_reply"
	HandshakeReplied       HandshakeState = "replied"
)

type InfoRequest struct {
	Message string
	SentAt  time.Time
}

type InfoReply struct {
	Text string
	At   time.Time
}

// Handshake is the single-slot information exchange between an admin and the
// ticket owner. Only the latest request and the latest reply are kept.
type Handshake struct {
	State   HandshakeState
	Request *InfoRequest
	Reply   *InfoReply
}

// RestoreHandshake rebuilds a handshake from persisted columns. A pending flag
// without a stored request yields an empty pending request.
func RestoreHandshake(requested bool, req *InfoRequest, reply *InfoReply) Handshake {
	h := Handshake{State: HandshakeIdle, Request: req, Reply: reply}
	switch {
	case requested:
		h.State = HandshakeAwaitingReply
		if h.Request == nil {
			h.Request = &InfoRequest{}
		}
	case reply != nil:
		h.State = HandshakeReplied
	}
	return h
}

// Requested reports whether a request is waiting for a reply.
func (h Handshake) Requested() bool {
	return h.State == HandshakeAwaitingReply
}

// WithRequest overwrites the request slot and marks it pending. The last
// reply stays until the owner replies again.
func (h Handshake) WithRequest(message string, at time.Time) Handshake {
	out := Handshake{
		State:   HandshakeAwaitingReply,
		Request: &InfoRequest{Message: message, SentAt: at},
	}
	if h.Reply != nil {
		rep := *h.Reply
		out.Reply = &rep
	}
	return out
}

// WithReply records the reply and clears the pending flag. The last request is
// kept for context. A reply is accepted even when nothing is pending.
func (h Handshake) WithReply(text string, at time.Time) Handshake {
	out := Handshake{State: HandshakeReplied, Reply: &InfoReply{Text: text, At: at}}
	if h.Request != nil {
		req := *h.Request
		out.Request = &req
	}
	return out
}

func (h Handshake) clone() Handshake {
	out := Handshake{State: h.State}
	if out.State == "" {
		out.State = HandshakeIdle
	}
	if h.Request != nil {
		req := *h.Request
		out.Request = &req
	}
	if h.Reply != nil {
		rep := *h.Reply
		out.Reply = &rep
	}
	return out
}
