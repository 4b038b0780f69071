package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"cogsarena.ai/internal/persistence/indexdb"
	"cogsarena.ai/internal/persistence/snapshot"
	"cogsarena.ai/internal/sim/arena"
	"cogsarena.ai/internal/sim/tuning"
)

type runtimeIndex interface {
	arena.TickLogger
	Close() error
	UpsertTuning(tune tuning.Tuning) error
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
}

// httpIndex adapts the ingest sink, which keeps no tuning table.
type httpIndex struct{ *indexdb.HTTPIngest }

func (httpIndex) UpsertTuning(tuning.Tuning) error { return nil }

func openRuntimeIndex(arenaDir, arenaID string, disableDB bool, logger *log.Logger) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("ARENA_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(arenaDir, "index", "arena.sqlite"))
	case "http":
		endpoint := strings.TrimSpace(os.Getenv("ARENA_INGEST_URL"))
		if endpoint == "" {
			return nil, fmt.Errorf("ARENA_INDEX_BACKEND=http but ARENA_INGEST_URL is empty")
		}
		idx, err := indexdb.OpenHTTPIngest(indexdb.IngestConfig{
			Endpoint:      endpoint,
			Token:         strings.TrimSpace(os.Getenv("ARENA_INGEST_TOKEN")),
			ArenaID:       arenaID,
			BatchSize:     envInt("ARENA_INGEST_BATCH_SIZE", 128),
			FlushInterval: time.Duration(envInt("ARENA_INGEST_FLUSH_MS", 500)) * time.Millisecond,
			Logger:        logger.WithPrefix("ingest"),
		})
		if err != nil {
			return nil, err
		}
		return httpIndex{idx}, nil
	default:
		return nil, fmt.Errorf("unsupported ARENA_INDEX_BACKEND: %s", backend)
	}
}
