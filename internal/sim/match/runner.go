package match

import (
	"context"
	"time"

	"botarena.ai/internal/persistence/snapshot"
	"botarena.ai/internal/sim/arena"
)

// Frame is an immutable view of the match after a turn, safe to hand to
// other goroutines.
type Frame struct {
	MatchID string
	Turn    int
	State   string
	Digest  string
	Agents  []arena.Agent
	Events  []arena.Event
	Outcome Outcome
}

// Frame builds the current view. It must be called from the goroutine
// driving the controller.
func (c *Controller) Frame() Frame {
	return Frame{
		MatchID: c.cfg.MatchID,
		Turn:    c.turn,
		State:   c.Serialize(),
		Digest:  c.Digest(),
		Agents:  c.Agents(),
		Events:  c.Events(),
		Outcome: c.outcome,
	}
}

// Runner paces a controller at the configured turn rate. The controller is
// only touched from the Run goroutine.
type Runner struct {
	c *Controller

	frames        chan<- Frame
	snapshotSink  chan<- snapshot.MatchV1
	snapshotEvery int

	stop chan struct{}
}

func NewRunner(c *Controller) *Runner {
	return &Runner{c: c, snapshotEvery: c.cfg.Tuning.SnapshotEveryTurns, stop: make(chan struct{})}
}

// SetFrameSink receives a Frame after every turn. Sends never block: a full
// channel drops the frame.
func (r *Runner) SetFrameSink(ch chan<- Frame) { r.frames = ch }

// SetSnapshotSink receives a snapshot every snapshot_every_turns turns
// (dropped under backpressure) and always once when the match ends.
func (r *Runner) SetSnapshotSink(ch chan<- snapshot.MatchV1) { r.snapshotSink = ch }

func (r *Runner) Stop() { close(r.stop) }

// Run advances the match until it ends, Stop is called or ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	if r.c.Phase() == PhaseSetup {
		return ErrNotInitialized
	}
	rate := r.c.cfg.Tuning.TurnRateHz
	if rate <= 0 {
		rate = 1
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	r.publish()
	for r.c.Phase() == PhaseRunning {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stop:
			return nil
		case <-ticker.C:
			r.c.AdvanceTurn()
			r.publish()
			if r.c.Phase() == PhaseRunning && r.snapshotEvery > 0 && r.c.Turn()%r.snapshotEvery == 0 {
				r.trySnapshot()
			}
		}
	}
	return r.finalSnapshot(ctx)
}

func (r *Runner) publish() {
	if r.frames == nil {
		return
	}
	select {
	case r.frames <- r.c.Frame():
	default:
	}
}

func (r *Runner) trySnapshot() {
	if r.snapshotSink == nil {
		return
	}
	snap, err := r.c.ExportSnapshot()
	if err != nil {
		return
	}
	select {
	case r.snapshotSink <- snap:
	default:
	}
}

func (r *Runner) finalSnapshot(ctx context.Context) error {
	if r.snapshotSink == nil {
		return nil
	}
	snap, err := r.c.ExportSnapshot()
	if err != nil {
		return err
	}
	select {
	case r.snapshotSink <- snap:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
