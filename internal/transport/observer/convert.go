package observer

import (
	"botarena.ai/internal/protocol"
	"botarena.ai/internal/sim/arena"
	"botarena.ai/internal/sim/match"
)

// TurnFromFrame renders a frame for one subscriber.
func TurnFromFrame(f match.Frame, sub protocol.SubscribeMsg) protocol.TurnMsg {
	msg := protocol.TurnMsg{
		Type:            protocol.TypeTurn,
		ProtocolVersion: protocol.Version,
		MatchID:         f.MatchID,
		Turn:            f.Turn,
		State:           f.State,
		Digest:          f.Digest,
		Agents:          make([]protocol.AgentState, 0, len(f.Agents)),
		Outcome:         outcomeMsg(f.Outcome),
	}
	for i, a := range f.Agents {
		msg.Agents = append(msg.Agents, agentState(i, a))
	}
	if sub.Events {
		for _, e := range f.Events {
			em := protocol.EventMsg{
				Kind:   string(e.Kind),
				Actor:  e.Actor,
				Target: e.Target,
				Pos:    [2]int{e.X, e.Y},
				Value:  e.Value,
			}
			if sub.Narrative {
				em.Text = e.Text
			}
			msg.Events = append(msg.Events, em)
		}
	}
	return msg
}

func agentState(id int, a arena.Agent) protocol.AgentState {
	return protocol.AgentState{
		ID:       id,
		Name:     a.Name,
		Glyph:    string(a.Glyph),
		Pos:      [2]int{a.X, a.Y},
		Facing:   a.Facing.String(),
		HP:       a.HP,
		Alive:    a.Alive,
		Cooldown: a.Cooldown,
		Damaged:  a.Damaged,
	}
}

func outcomeMsg(o match.Outcome) protocol.OutcomeMsg {
	return protocol.OutcomeMsg{Status: o.Status.String(), Winner: o.Winner, WinnerName: o.WinnerName}
}

// NewBootstrap describes a freshly initialized match. Call it from the
// goroutine that owns the controller.
func NewBootstrap(c *match.Controller) protocol.BootstrapResponse {
	cfg := c.Config()
	t := cfg.Tuning
	resp := protocol.BootstrapResponse{
		ProtocolVersion: protocol.Version,
		MatchID:         cfg.MatchID,
		Turn:            c.Turn(),
		Board: protocol.BoardParams{
			Width:      t.BoardWidth,
			Height:     t.BoardHeight,
			MaxTurns:   t.MaxTurns,
			StartHP:    t.StartHP,
			TurnRateHz: t.TurnRateHz,
			Seed:       cfg.Seed,
		},
		Roster:  []protocol.RosterEntry{},
		Outcome: outcomeMsg(c.QueryOutcome()),
	}
	agents := c.Agents()
	for i, p := range c.Programs() {
		e := protocol.RosterEntry{
			ID:         i,
			Name:       p.Name(),
			Cost:       p.Cost(),
			OverBudget: p.OverBudget(t.MaxScriptCost),
		}
		if i < len(agents) {
			e.Glyph = string(agents[i].Glyph)
		}
		resp.Roster = append(resp.Roster, e)
	}
	return resp
}
