package match

import (
	"errors"

	"botarena.ai/internal/sim/arena"
)

type TurnLogger interface {
	WriteTurn(entry TurnLogEntry) error
}

// TurnLogEntry records one completed turn. State and Digest are taken after
// the turn, so a replay can check itself against them.
type TurnLogEntry struct {
	MatchID string        `json:"match_id"`
	Turn    int           `json:"turn"`
	Alive   int           `json:"alive"`
	Outcome string        `json:"outcome"`
	Events  []arena.Event `json:"events,omitempty"`
	State   string        `json:"state"`
	Digest  string        `json:"digest"`
}

// TurnLoggers fans one entry out to several loggers. Every logger is called;
// the errors are joined.
type TurnLoggers []TurnLogger

func (ls TurnLoggers) WriteTurn(entry TurnLogEntry) error {
	var errs []error
	for _, l := range ls {
		if l == nil {
			continue
		}
		if err := l.WriteTurn(entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
