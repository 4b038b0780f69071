package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"cogsarena.ai/internal/sim/arena"
)

// JSONLZstdWriter appends JSON lines to hourly zstd files named
// <prefix>-YYYY-MM-DD-HH.jsonl.zst.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err1
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// TickLogger writes one JSONL entry per tick (compressed).
type TickLogger struct{ w *JSONLZstdWriter }

func NewTickLogger(arenaDir string) *TickLogger {
	return &TickLogger{w: NewJSONLZstdWriter(filepath.Join(arenaDir, "ticks"), "ticks")}
}

func (l *TickLogger) WriteTick(v arena.TickLogEntry) error { return l.w.Write(v) }
func (l *TickLogger) Close() error                         { return l.w.Close() }

// RewardEntry is one agent's reward movement in one tick.
type RewardEntry struct {
	Tick    uint64  `json:"tick"`
	Match   int     `json:"match"`
	AgentID string  `json:"agent_id"`
	Delta   float64 `json:"delta"`
	Total   float64 `json:"total"`
}

// RewardLogger keeps the reward stream apart from the tick log so trainers
// can tail it without decoding actions. Match results go to the same
// directory under the "matches" prefix.
type RewardLogger struct {
	rewards *JSONLZstdWriter
	matches *JSONLZstdWriter
}

func NewRewardLogger(arenaDir string) *RewardLogger {
	dir := filepath.Join(arenaDir, "rewards")
	return &RewardLogger{
		rewards: NewJSONLZstdWriter(dir, "rewards"),
		matches: NewJSONLZstdWriter(dir, "matches"),
	}
}

func (l *RewardLogger) WriteTick(e arena.TickLogEntry) error {
	for _, r := range e.Rewards {
		if err := l.rewards.Write(RewardEntry{Tick: e.Tick, Match: e.Match, AgentID: r.AgentID, Delta: r.Delta, Total: r.Total}); err != nil {
			return err
		}
	}
	if e.MatchEnd != nil {
		return l.matches.Write(e.MatchEnd)
	}
	return nil
}

func (l *RewardLogger) Close() error {
	err1 := l.rewards.Close()
	err2 := l.matches.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
