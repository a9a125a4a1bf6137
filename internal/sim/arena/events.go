package arena

// EventKind classifies an entry of the per-turn event buffer.
type EventKind string

const (
	EventMove    EventKind = "MOVE"
	EventHit     EventKind = "HIT"
	EventDestroy EventKind = "DESTROY"
	EventMiss    EventKind = "MISS"
	EventSignal  EventKind = "SIGNAL"
	EventDraw    EventKind = "DRAW"
	EventWin     EventKind = "WIN"
)

// Event is one notable thing that happened during a turn.
type Event struct {
	Kind   EventKind `json:"kind"`
	Actor  int       `json:"actor"`
	Target int       `json:"target"`
	X      int       `json:"x"`
	Y      int       `json:"y"`
	Value  int       `json:"value,omitempty"`
	Text   string    `json:"text"`
}

func (e Event) String() string { return e.Text }

// narrated reports whether the event goes to the human-readable log.
func (e Event) narrated() bool { return e.Kind != EventSignal }

func (a *Arena) record(e Event) {
	a.events = append(a.events, e)
	if a.log != nil && e.narrated() {
		a.log(e.Text)
	}
}

// Announce records a match-level event (draw, win) raised by the caller.
func (a *Arena) Announce(kind EventKind, actor int, text string) {
	a.record(Event{Kind: kind, Actor: actor, Target: -1, Text: text})
}

// Events returns the events recorded since the last StartTurn.
func (a *Arena) Events() []Event {
	out := make([]Event, len(a.events))
	copy(out, a.events)
	return out
}
