package protocol

// SUBSCRIBE (client -> server). First message on the observer connection;
// may be re-sent to change what the stream carries.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// Events enables per-turn event lists in TURN frames.
	Events bool `json:"events,omitempty"`
	// Narrative keeps the human-readable text of each event.
	Narrative bool `json:"narrative,omitempty"`
}

// HTTP response for GET /v1/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string        `json:"protocol_version"`
	MatchID         string        `json:"match_id"`
	Turn            int           `json:"turn"`
	Board           BoardParams   `json:"board"`
	Roster          []RosterEntry `json:"roster"`
	Outcome         OutcomeMsg    `json:"outcome"`
}

type BoardParams struct {
	Width      int   `json:"width"`
	Height     int   `json:"height"`
	MaxTurns   int   `json:"max_turns"`
	StartHP    int   `json:"start_hp"`
	TurnRateHz int   `json:"turn_rate_hz"`
	Seed       int64 `json:"seed"`
}

type RosterEntry struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Glyph      string `json:"glyph"`
	Cost       int    `json:"cost"`
	OverBudget bool   `json:"over_budget,omitempty"`
}

// TURN (server -> client). Sent after every turn.
type TurnMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	MatchID         string       `json:"match_id"`
	Turn            int          `json:"turn"`
	State           string       `json:"state"`
	Digest          string       `json:"digest"`
	Agents          []AgentState `json:"agents"`
	Events          []EventMsg   `json:"events,omitempty"`
	Outcome         OutcomeMsg   `json:"outcome"`
}

type AgentState struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Glyph    string `json:"glyph"`
	Pos      [2]int `json:"pos"`
	Facing   string `json:"facing"`
	HP       int    `json:"hp"`
	Alive    bool   `json:"alive"`
	Cooldown int    `json:"cooldown"`
	Damaged  bool   `json:"damaged,omitempty"`
}

type EventMsg struct {
	Kind   string `json:"kind"`
	Actor  int    `json:"actor"`
	Target int    `json:"target"`
	Pos    [2]int `json:"pos"`
	Value  int    `json:"value,omitempty"`
	Text   string `json:"text,omitempty"`
}

type OutcomeMsg struct {
	Status     string `json:"status"`
	Winner     int    `json:"winner"`
	WinnerName string `json:"winner_name,omitempty"`
}

// ERROR (server -> client). Sent before closing a rejected connection.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(code, message string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: message}
}
