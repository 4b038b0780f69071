package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"cogsarena.ai/internal/persistence/snapshot"
	"cogsarena.ai/internal/sim/arena"
	"cogsarena.ai/internal/sim/tuning"
)

// SQLiteIndex is a queryable read model of the tick log. Writes are queued
// and applied by one goroutine; when the queue is full entries are dropped
// and counted, since the JSONL logs remain the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick     atomic.Uint64
	dropSnapshot atomic.Uint64
	writeErrors  atomic.Uint64
}

type Stats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	DropTickTotal     uint64 `json:"drop_tick_total"`
	DropSnapshotTotal uint64 `json:"drop_snapshot_total"`
	WriteErrorTotal   uint64 `json:"write_error_total"`
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqSnapshot
)

type req struct {
	kind reqKind

	tick     arena.TickLogEntry
	snapshot snapshotRow
}

type snapshotRow struct {
	Tick    uint64
	Match   int
	Path    string
	Seed    int64
	Agents  int
	Targets int
	Score   [2]int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS configs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			match INTEGER NOT NULL,
			digest TEXT NOT NULL,
			joins INTEGER NOT NULL,
			leaves INTEGER NOT NULL,
			actions INTEGER NOT NULL,
			events INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS joins (
			tick INTEGER NOT NULL,
			agent_id TEXT NOT NULL,
			name TEXT NOT NULL,
			team INTEGER NOT NULL,
			PRIMARY KEY (tick, agent_id)
		);`,
		`CREATE TABLE IF NOT EXISTS leaves (
			tick INTEGER NOT NULL,
			agent_id TEXT NOT NULL,
			PRIMARY KEY (tick, agent_id)
		);`,
		`CREATE TABLE IF NOT EXISTS actions (
			tick INTEGER NOT NULL,
			agent_id TEXT NOT NULL,
			forward INTEGER NOT NULL,
			rotate INTEGER NOT NULL,
			shoot INTEGER NOT NULL,
			seek_target INTEGER NOT NULL,
			seek_base INTEGER NOT NULL,
			PRIMARY KEY (tick, agent_id)
		);`,
		`CREATE TABLE IF NOT EXISTS rewards (
			tick INTEGER NOT NULL,
			agent_id TEXT NOT NULL,
			match INTEGER NOT NULL,
			delta REAL NOT NULL,
			total REAL NOT NULL,
			PRIMARY KEY (tick, agent_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rewards_agent_tick ON rewards(agent_id, tick);`,
		`CREATE TABLE IF NOT EXISTS events (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			agent_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			other TEXT,
			team INTEGER NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_kind_tick ON events(kind, tick);`,
		`CREATE TABLE IF NOT EXISTS matches (
			match INTEGER PRIMARY KEY,
			end_tick INTEGER NOT NULL,
			score_team1 INTEGER NOT NULL,
			score_team2 INTEGER NOT NULL,
			winner INTEGER NOT NULL,
			rewards_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			match INTEGER NOT NULL,
			path TEXT NOT NULL,
			seed INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			targets INTEGER NOT NULL,
			score_team1 INTEGER NOT NULL,
			score_team2 INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		if s.db != nil {
			err = s.db.Close()
		}
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropTickTotal:     s.dropTick.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
		WriteErrorTotal:   s.writeErrors.Load(),
	}
}

func (s *SQLiteIndex) WriteTick(entry arena.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		s.dropTick.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:    snap.Header.Tick,
		Match:   snap.Header.Match,
		Path:    path,
		Seed:    snap.Seed,
		Agents:  len(snap.Agents),
		Targets: len(snap.Targets),
		Score:   snap.Score,
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

// UpsertTuning stores the tuning values the arena actually runs with.
func (s *SQLiteIndex) UpsertTuning(tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO configs(name,digest,json,updated_at) VALUES(?,?,?,?)`,
		"tuning", hex.EncodeToString(sum[:]), string(b), now); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.writeErrors.Add(1)
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
		s.writeErrors.Add(1)
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		var n int
		var err error
		switch r.kind {
		case reqTick:
			n, err = writeTick(tx, r.tick)
		case reqSnapshot:
			n, err = writeSnapshot(tx, r.snapshot)
		}
		if err != nil {
			rollback()
			continue
		}
		opCount += n
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}

func writeTick(tx *sql.Tx, e arena.TickLogEntry) (int, error) {
	raw, _ := json.Marshal(e)
	ops := 0
	if _, err := tx.Exec(`INSERT OR REPLACE INTO ticks(tick,match,digest,joins,leaves,actions,events,raw_json) VALUES(?,?,?,?,?,?,?,?)`,
		int64(e.Tick), e.Match, e.Digest, len(e.Joins), len(e.Leaves), len(e.Actions), len(e.Events), string(raw)); err != nil {
		return ops, err
	}
	ops++
	for _, j := range e.Joins {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO joins(tick,agent_id,name,team) VALUES(?,?,?,?)`,
			int64(e.Tick), j.AgentID, j.Name, j.Team); err != nil {
			return ops, err
		}
		ops++
	}
	for _, id := range e.Leaves {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO leaves(tick,agent_id) VALUES(?,?)`, int64(e.Tick), id); err != nil {
			return ops, err
		}
		ops++
	}
	for _, a := range e.Actions {
		v := a.Action
		if _, err := tx.Exec(`INSERT OR REPLACE INTO actions(tick,agent_id,forward,rotate,shoot,seek_target,seek_base) VALUES(?,?,?,?,?,?,?)`,
			int64(e.Tick), a.AgentID, v[0], v[1], v[2], v[3], v[4]); err != nil {
			return ops, err
		}
		ops++
	}
	for _, r := range e.Rewards {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO rewards(tick,agent_id,match,delta,total) VALUES(?,?,?,?,?)`,
			int64(e.Tick), r.AgentID, e.Match, r.Delta, r.Total); err != nil {
			return ops, err
		}
		ops++
	}
	for i, ev := range e.Events {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO events(tick,seq,agent_id,kind,other,team,count) VALUES(?,?,?,?,?,?,?)`,
			int64(e.Tick), i, ev.AgentID, ev.Kind, ev.Other, ev.Team, ev.Count); err != nil {
			return ops, err
		}
		ops++
	}
	if m := e.MatchEnd; m != nil {
		rj, _ := json.Marshal(m.Rewards)
		if _, err := tx.Exec(`INSERT OR REPLACE INTO matches(match,end_tick,score_team1,score_team2,winner,rewards_json) VALUES(?,?,?,?,?,?)`,
			m.Match, int64(m.EndTick), m.Score[0], m.Score[1], m.Winner, string(rj)); err != nil {
			return ops, err
		}
		ops++
	}
	return ops, nil
}

func writeSnapshot(tx *sql.Tx, sn snapshotRow) (int, error) {
	if _, err := tx.Exec(`INSERT OR REPLACE INTO snapshots(tick,match,path,seed,agents,targets,score_team1,score_team2) VALUES(?,?,?,?,?,?,?,?)`,
		int64(sn.Tick), sn.Match, sn.Path, sn.Seed, sn.Agents, sn.Targets, sn.Score[0], sn.Score[1]); err != nil {
		return 0, err
	}
	return 1, nil
}
