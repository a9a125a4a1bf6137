package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"botarena.ai/internal/persistence/archive"
	"botarena.ai/internal/persistence/indexdb"
	persistlog "botarena.ai/internal/persistence/log"
	"botarena.ai/internal/persistence/snapshot"
	"botarena.ai/internal/script"
	"botarena.ai/internal/sim/match"
	"botarena.ai/internal/sim/tuning"
	"botarena.ai/internal/transport/observer"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address (empty to run headless)")
		matchFlag  = flag.String("match", "", "match id (default: random uuid, or the snapshot's id)")
		seed       = flag.Int64("seed", 1337, "match seed (used only when starting a fresh match)")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		scriptsDir = flag.String("scripts", "", "bot script directory (default: <configs>/scripts)")
		bots       = flag.String("bots", "", "comma separated built-in bots, e.g. pusher,hunter (overrides -scripts)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index (turns, events, snapshots, results)")
		snapPath   = flag.String("snapshot", "", "path to snapshot to resume (optional)")
		rateHz     = flag.Int("rate_hz", 0, "turns per second (0: use tuning)")
		linger     = flag.Bool("linger", false, "keep serving observers after the match ends, until interrupted")
		quiet      = flag.Bool("quiet", false, "do not echo match narrative to stdout")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[arena] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	sd := strings.TrimSpace(*scriptsDir)
	if sd == "" {
		sd = filepath.Join(*configDir, "scripts")
	}

	var resume *snapshot.MatchV1
	if p := strings.TrimSpace(*snapPath); p != "" {
		snap, err := snapshot.ReadSnapshot(p)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		resume = &snap
	}

	// Tuning is required for a fresh match; a resume carries its own rules.
	tune, tuneErr := tuning.Load(tp)
	if tuneErr != nil {
		if resume == nil || !os.IsNotExist(tuneErr) {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if *rateHz > 0 {
		tune.TurnRateHz = *rateHz
	}

	matchID := strings.TrimSpace(*matchFlag)
	if resume != nil {
		if matchID != "" && matchID != resume.Header.MatchID {
			logger.Fatalf("snapshot match id mismatch: flag=%s snap=%s", matchID, resume.Header.MatchID)
		}
		matchID = resume.Header.MatchID
	}
	if matchID == "" {
		matchID = uuid.NewString()
	}

	c := match.New(match.Config{MatchID: matchID, Tuning: tune, Seed: *seed})
	narrative := persistlog.NewNarrativeLogger(*dataDir, matchID)
	defer narrative.Close()
	echo := !*quiet
	c.SetLogger(func(line string) {
		narrative.Line(line)
		if echo {
			logger.Print(line)
		}
	})

	if resume != nil {
		if err := c.ImportSnapshot(*resume); err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		logger.Printf("resumed match=%s from snapshot=%s turn=%d", matchID, filepath.Base(*snapPath), c.Turn())
	} else {
		progs, err := script.LoadRoster(sd, *bots)
		if err != nil {
			logger.Fatalf("load roster: %v", err)
		}
		if err := c.Initialize(progs); err != nil {
			logger.Fatalf("initialize: %v", err)
		}
		logger.Printf("match=%s seed=%d roster=%s", matchID, *seed, strings.Join(script.Names(progs), ","))
	}

	// Optional read model; does not affect the match.
	idx, err := openRuntimeIndex(*dataDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if resume == nil {
			idx.RecordMatchStart(indexdb.MatchInfo{
				ID:     matchID,
				Seed:   c.Config().Seed,
				Roster: script.Names(c.Programs()),
				Tuning: c.Config().Tuning,
			})
		}
	}

	turnLog := persistlog.NewTurnLogger(*dataDir, matchID)
	defer turnLog.Close()
	sinks := match.TurnLoggers{turnLog}
	if idx != nil {
		sinks = append(sinks, idx)
	}
	c.SetTurnLogger(sinks)

	ctx, cancel := signalContext()
	defer cancel()

	hub := observer.NewHub(observer.NewBootstrap(c))
	frames := make(chan match.Frame, 16)
	go hub.Run(ctx, frames)

	// Snapshot writer. It drains until the channel is closed so the final
	// snapshot always lands.
	snapCh := make(chan snapshot.MatchV1, 2)
	snapDone := make(chan writtenSnapshot, 1)
	go func() {
		var last writtenSnapshot
		for snap := range snapCh {
			path := snapshot.PathFor(filepath.Join(*dataDir, "snapshots"), snap.Header.MatchID, snap.Header.Turn)
			if err := snapshot.WriteSnapshot(path, snap); err != nil {
				logger.Printf("snapshot write: %v", err)
				continue
			}
			idx.RecordSnapshot(path, snap)
			last = writtenSnapshot{path: path, snap: snap, ok: true}
		}
		snapDone <- last
	}()

	var srv *http.Server
	if strings.TrimSpace(*addr) != "" {
		srv = newHTTPServer(*addr, matchID, hub, idx, logger)
		go func() {
			logger.Printf("listening on %s", *addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("ListenAndServe: %v", err)
				cancel()
			}
		}()
	}

	runner := match.NewRunner(c)
	runner.SetFrameSink(frames)
	runner.SetSnapshotSink(snapCh)
	runErr := runner.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Printf("runner stopped: %v", runErr)
	}
	if runErr != nil {
		// Interrupted: keep a resumable image of where the match stopped.
		if snap, err := c.ExportSnapshot(); err == nil {
			snapCh <- snap
		}
	}
	close(snapCh)
	close(frames)
	last := <-snapDone

	if err := turnLog.Close(); err != nil {
		logger.Printf("turn log close: %v", err)
	}
	o := c.QueryOutcome()
	idx.RecordResult(matchID, c.Turn(), o)
	logger.Printf("match=%s turn=%d outcome=%s winner=%s", matchID, c.Turn(), o.Status, o.WinnerName)

	if last.ok {
		turnsPath := persistlog.TurnsPath(*dataDir, matchID)
		if _, err := os.Stat(turnsPath); err != nil {
			turnsPath = ""
		}
		if dir, ok, err := archive.ArchiveMatch(*dataDir, last.path, turnsPath, last.snap); err != nil {
			logger.Printf("archive match: %v", err)
		} else if ok {
			logger.Printf("archived match=%s to %s", matchID, dir)
		}
	}

	if srv == nil {
		return
	}
	if *linger && ctx.Err() == nil {
		logger.Printf("match over; serving observers until interrupted")
		<-ctx.Done()
	}
	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
}

type writtenSnapshot struct {
	path string
	snap snapshot.MatchV1
	ok   bool
}

func newHTTPServer(addr, matchID string, hub *observer.Hub, idx *indexdb.SQLiteIndex, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", metricsHandler(matchID, hub, idx))

	obsSrv := observer.NewServer(hub, logger)
	mux.HandleFunc("/v1/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/v1/ws", obsSrv.WSHandler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
