package main

import (
	"fmt"
	"io"
	"net/http"

	"botarena.ai/internal/persistence/indexdb"
	"botarena.ai/internal/sim/match"
	"botarena.ai/internal/transport/observer"
)

func metricsHandler(matchID string, hub *observer.Hub, idx *indexdb.SQLiteIndex) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, matchID, hub, idx)
	}
}

// writeMetrics renders the minimal Prometheus exposition format. Everything
// is read from the hub's latest frame, never from the controller.
func writeMetrics(w io.Writer, matchID string, hub *observer.Hub, idx *indexdb.SQLiteIndex) {
	turn, alive, ended := 0, 0, 0
	if f, ok := hub.Latest(); ok {
		turn = f.Turn
		for _, a := range f.Agents {
			if a.Alive {
				alive++
			}
		}
		if f.Outcome.Status != match.Ongoing {
			ended = 1
		}
	}

	fmt.Fprintf(w, "# HELP botarena_match_turn Current match turn.\n")
	fmt.Fprintf(w, "# TYPE botarena_match_turn gauge\n")
	fmt.Fprintf(w, "botarena_match_turn{match=%q} %d\n", matchID, turn)

	fmt.Fprintf(w, "# HELP botarena_match_agents_alive Agents still alive.\n")
	fmt.Fprintf(w, "# TYPE botarena_match_agents_alive gauge\n")
	fmt.Fprintf(w, "botarena_match_agents_alive{match=%q} %d\n", matchID, alive)

	fmt.Fprintf(w, "# HELP botarena_match_ended 1 once the match has an outcome.\n")
	fmt.Fprintf(w, "# TYPE botarena_match_ended gauge\n")
	fmt.Fprintf(w, "botarena_match_ended{match=%q} %d\n", matchID, ended)

	fmt.Fprintf(w, "# HELP botarena_observer_sessions Connected observer sessions.\n")
	fmt.Fprintf(w, "# TYPE botarena_observer_sessions gauge\n")
	fmt.Fprintf(w, "botarena_observer_sessions{match=%q} %d\n", matchID, hub.Sessions())

	fmt.Fprintf(w, "# HELP botarena_observer_dropped_total Frames dropped for slow observers.\n")
	fmt.Fprintf(w, "# TYPE botarena_observer_dropped_total counter\n")
	fmt.Fprintf(w, "botarena_observer_dropped_total{match=%q} %d\n", matchID, hub.Dropped())

	if idx == nil {
		return
	}
	st := idx.Stats()
	fmt.Fprintf(w, "# HELP botarena_index_queue_depth Index writer backlog.\n")
	fmt.Fprintf(w, "# TYPE botarena_index_queue_depth gauge\n")
	fmt.Fprintf(w, "botarena_index_queue_depth{match=%q} %d\n", matchID, st.QueueDepth)

	fmt.Fprintf(w, "# HELP botarena_index_dropped_total Index writes dropped on a full queue.\n")
	fmt.Fprintf(w, "# TYPE botarena_index_dropped_total counter\n")
	fmt.Fprintf(w, "botarena_index_dropped_total{match=%q,kind=%q} %d\n", matchID, "match", st.DropMatchTotal)
	fmt.Fprintf(w, "botarena_index_dropped_total{match=%q,kind=%q} %d\n", matchID, "turn", st.DropTurnTotal)
	fmt.Fprintf(w, "botarena_index_dropped_total{match=%q,kind=%q} %d\n", matchID, "snapshot", st.DropSnapshotTotal)
	fmt.Fprintf(w, "botarena_index_dropped_total{match=%q,kind=%q} %d\n", matchID, "result", st.DropResultTotal)
}
