package observer

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"botarena.ai/internal/protocol"
	"botarena.ai/internal/sim/match"
)

// Hub fans match frames out to observer sessions. Slow sessions lose frames;
// the match never waits for them.
type Hub struct {
	mu       sync.RWMutex
	boot     protocol.BootstrapResponse
	last     *match.Frame
	sessions map[uint64]*session

	nextID  atomic.Uint64
	dropped atomic.Uint64
}

type session struct {
	id  uint64
	out chan []byte

	mu  sync.Mutex
	sub protocol.SubscribeMsg
}

func (s *session) subscription() protocol.SubscribeMsg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub
}

func (s *session) setSubscription(sub protocol.SubscribeMsg) {
	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
}

func NewHub(boot protocol.BootstrapResponse) *Hub {
	return &Hub{boot: boot, sessions: map[uint64]*session{}}
}

// Bootstrap returns the match description updated to the latest frame.
func (h *Hub) Bootstrap() protocol.BootstrapResponse {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b := h.boot
	b.Roster = append([]protocol.RosterEntry(nil), h.boot.Roster...)
	return b
}

// Run consumes frames until the channel closes or ctx is done.
func (h *Hub) Run(ctx context.Context, frames <-chan match.Frame) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			h.Publish(f)
		}
	}
}

// Publish records f as the latest frame and sends it to every session.
func (h *Hub) Publish(f match.Frame) {
	h.mu.Lock()
	h.last = &f
	h.boot.Turn = f.Turn
	h.boot.Outcome = outcomeMsg(f.Outcome)
	targets := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	for _, s := range targets {
		h.send(s, f)
	}
}

func (h *Hub) send(s *session, f match.Frame) {
	b, err := json.Marshal(TurnFromFrame(f, s.subscription()))
	if err != nil {
		return
	}
	select {
	case s.out <- b:
	default:
		h.dropped.Add(1)
	}
}

// join registers a session and immediately sends it the latest frame.
func (h *Hub) join(sub protocol.SubscribeMsg, buf int) *session {
	s := &session{id: h.nextID.Add(1), out: make(chan []byte, buf), sub: sub}
	h.mu.Lock()
	h.sessions[s.id] = s
	last := h.last
	h.mu.Unlock()
	if last != nil {
		h.send(s, *last)
	}
	return s
}

func (h *Hub) leave(s *session) {
	h.mu.Lock()
	delete(h.sessions, s.id)
	h.mu.Unlock()
}

// Latest returns the most recent frame, if any was published.
func (h *Hub) Latest() (match.Frame, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return match.Frame{}, false
	}
	return *h.last, true
}

func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Dropped counts frames lost to slow sessions.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }
