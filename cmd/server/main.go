package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"cogsarena.ai/internal/persistence/archive"
	persistlog "cogsarena.ai/internal/persistence/log"
	"cogsarena.ai/internal/persistence/snapshot"
	"cogsarena.ai/internal/sim/arena"
	"cogsarena.ai/internal/sim/tuning"
	"cogsarena.ai/internal/transport/observer"
	"cogsarena.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		arenaID    = flag.String("arena", "arena_1", "arena id")
		seed       = flag.Int64("seed", 1337, "arena seed (used only when starting a fresh arena)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable indexing (ticks, rewards, matches, snapshot metadata)")
		maxAgents  = flag.Int("max_agents", arena.DefaultMaxAgents, "maximum connected agents")
		logLevel   = flag.String("log_level", "info", "log level (debug, info, warn, error)")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "server", ReportTimestamp: true, TimeFormat: time.StampMicro})
	if lvl, err := log.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(lvl)
	}

	arenaDir := filepath.Join(*dataDir, "arenas", *arenaID)
	_ = os.MkdirAll(arenaDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}

	// Optional: read-model index backend (does not affect sim determinism).
	idx, err := openRuntimeIndex(arenaDir, *arenaID, *disableDB, logger)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(arenaDir)
	}

	// Tuning is required for a fresh arena; a snapshot carries its own.
	tune, tuneErr := tuning.Load(tp)
	if tuneErr != nil {
		if snapshotToLoad == "" || !os.IsNotExist(tuneErr) {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if idx != nil {
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index backend: upsert tuning: %v", err)
		}
	}

	var w *arena.World
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.ArenaID != "" && snap.Header.ArenaID != *arenaID {
			logger.Fatalf("snapshot arena id mismatch: flag=%s snap=%s", *arenaID, snap.Header.ArenaID)
		}
		cfg, err := arena.ConfigFromSnapshot(snap)
		if err != nil {
			logger.Fatalf("snapshot config: %v", err)
		}
		cfg.MaxAgents = *maxAgents
		w, err = arena.New(cfg)
		if err != nil {
			logger.Fatalf("arena: %v", err)
		}
		if err := w.ImportSnapshot(snap); err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		// Restored agents have no connection; they leave on the first tick
		// so the log records it.
		go func(agents []snapshot.AgentV1) {
			for _, a := range agents {
				w.Leave() <- a.ID
			}
		}(snap.Agents)
		logger.Printf("resumed from snapshot=%s tick=%d match=%d", filepath.Base(snapshotToLoad), w.CurrentTick(), snap.Header.Match)
	} else {
		cfg, err := arena.ConfigFromTuning(*arenaID, *seed, tune)
		if err != nil {
			logger.Fatalf("arena config: %v", err)
		}
		cfg.MaxAgents = *maxAgents
		w, err = arena.New(cfg)
		if err != nil {
			logger.Fatalf("arena: %v", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(arenaDir)
	rewardLog := persistlog.NewRewardLogger(arenaDir)
	defer tickLog.Close()
	defer rewardLog.Close()
	loggers := multiTickLogger{tickLog, rewardLog, matchLogger{logger}}
	if idx != nil {
		loggers = append(loggers, idx)
	}
	w.SetTickLogger(loggers)

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(arenaDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
				if match, archivedPath, ok, err := archive.ArchiveMatchSnapshot(arenaDir, path, snap); err != nil {
					logger.Printf("archive match snapshot: %v", err)
				} else if ok {
					logger.Debug("match archived", "match", match, "path", archivedPath)
				}
			}
		}
	}()

	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("arena stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeArenaMetrics(rw, *arenaID, w.CurrentTick(), w.Metrics())
		if idx != nil {
			writeIndexMetrics(rw, *arenaID, idx)
		}
	})

	if envBool("ARENA_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()) {
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				ArenaID string        `json:"arena_id"`
				Tick    uint64        `json:"tick"`
				Metrics arena.Metrics `json:"metrics"`
			}{
				ArenaID: *arenaID,
				Tick:    w.CurrentTick(),
				Metrics: w.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		obs := observer.NewServer(w, logger.WithPrefix("observer"))
		mux.HandleFunc("/admin/v1/observer/bootstrap", obs.BootstrapHandler())
		mux.HandleFunc("/admin/v1/observer/ws", obs.WSHandler())
	} else {
		logger.Printf("admin endpoints disabled (ARENA_ENABLE_ADMIN_HTTP=false)")
	}
	if envBool("ARENA_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger.WithPrefix("ws")).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s arena=%s tick_rate=%dHz", *addr, *arenaID, w.Config().TickRateHz)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
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

func latestSnapshot(arenaDir string) string {
	dir := filepath.Join(arenaDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

type multiTickLogger []arena.TickLogger

func (m multiTickLogger) WriteTick(entry arena.TickLogEntry) error {
	for _, l := range m {
		if l != nil {
			_ = l.WriteTick(entry)
		}
	}
	return nil
}

// matchLogger reports match results on the server log.
type matchLogger struct{ log *log.Logger }

func (m matchLogger) WriteTick(entry arena.TickLogEntry) error {
	if r := entry.MatchEnd; r != nil {
		m.log.Info("match ended", "match", r.Match, "tick", r.EndTick, "score", fmt.Sprintf("%d:%d", r.Score[0], r.Score[1]), "winner", r.Winner)
	}
	for _, j := range entry.Joins {
		m.log.Debug("agent spawned", "agent", j.AgentID, "team", j.Team, "tick", entry.Tick)
	}
	return nil
}
