package main

import (
	"strings"
	"testing"

	"botarena.ai/internal/script"
	"botarena.ai/internal/sim/match"
	"botarena.ai/internal/sim/tuning"
	"botarena.ai/internal/transport/observer"
)

func TestWriteMetrics(t *testing.T) {
	progs, err := script.LoadRoster("", "pusher,shy")
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	c := match.New(match.Config{MatchID: "m1", Tuning: tuning.Defaults(), Seed: 3})
	if err := c.Initialize(progs); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	hub := observer.NewHub(observer.NewBootstrap(c))

	var before strings.Builder
	writeMetrics(&before, "m1", hub, nil)
	if !strings.Contains(before.String(), `botarena_match_agents_alive{match="m1"} 0`) {
		t.Fatalf("metrics before first frame:\n%s", before.String())
	}
	if strings.Contains(before.String(), "botarena_index_queue_depth") {
		t.Fatalf("index metrics without an index:\n%s", before.String())
	}

	c.AdvanceTurn()
	hub.Publish(c.Frame())
	var after strings.Builder
	writeMetrics(&after, "m1", hub, nil)
	for _, want := range []string{
		`botarena_match_turn{match="m1"} 1`,
		`botarena_match_agents_alive{match="m1"} 2`,
		`botarena_match_ended{match="m1"} 0`,
		`botarena_observer_sessions{match="m1"} 0`,
	} {
		if !strings.Contains(after.String(), want) {
			t.Fatalf("missing %q in:\n%s", want, after.String())
		}
	}
}
