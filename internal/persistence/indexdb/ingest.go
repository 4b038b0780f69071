package indexdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"cogsarena.ai/internal/persistence/snapshot"
	"cogsarena.ai/internal/sim/arena"
)

// IngestConfig configures the HTTP batch sink that ships episode data to a
// remote trainer or collector.
type IngestConfig struct {
	Endpoint      string
	Token         string
	ArenaID       string
	BatchSize     int
	FlushInterval time.Duration
	HTTPTimeout   time.Duration
	// MaxRetained caps how many undelivered events are kept across failed
	// flushes. Older events are dropped first.
	MaxRetained int
	Logger      *log.Logger
}

type HTTPIngest struct {
	cfg        IngestConfig
	httpClient *http.Client

	ch   chan ingestEvent
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	queueDropped atomic.Uint64
	flushFail    atomic.Uint64
	retainDrop   atomic.Uint64
	sent         atomic.Uint64
}

type IngestStats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	QueueDroppedTotal uint64 `json:"queue_dropped_total"`
	FlushFailTotal    uint64 `json:"flush_fail_total"`
	RetainDropTotal   uint64 `json:"retain_drop_total"`
	SentTotal         uint64 `json:"sent_total"`
}

type ingestEvent struct {
	Kind    string `json:"kind"`
	ArenaID string `json:"arena_id"`
	Payload any    `json:"payload"`
}

type ingestTransition struct {
	Tick    uint64                 `json:"tick"`
	Match   int                    `json:"match"`
	Digest  string                 `json:"digest"`
	Actions []arena.RecordedAction `json:"actions,omitempty"`
	Rewards []arena.RecordedReward `json:"rewards,omitempty"`
	Events  []arena.RecordedEvent  `json:"events,omitempty"`
}

type ingestSnapshot struct {
	Tick    uint64 `json:"tick"`
	Match   int    `json:"match"`
	Path    string `json:"path"`
	Seed    int64  `json:"seed"`
	Agents  int    `json:"agents"`
	Targets int    `json:"targets"`
	Score   [2]int `json:"score"`
}

func OpenHTTPIngest(cfg IngestConfig) (*HTTPIngest, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	cfg.ArenaID = strings.TrimSpace(cfg.ArenaID)
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("empty ingest endpoint")
	}
	if cfg.ArenaID == "" {
		return nil, fmt.Errorf("empty arena id")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 128
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.MaxRetained <= 0 {
		cfg.MaxRetained = 8 * cfg.BatchSize
	}

	h := &HTTPIngest{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		ch:         make(chan ingestEvent, 32768),
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.loop()
	}()
	return h, nil
}

func (h *HTTPIngest) Close() error {
	if h == nil {
		return nil
	}
	h.once.Do(func() {
		h.closed.Store(true)
		close(h.ch)
		h.wg.Wait()
	})
	return nil
}

func (h *HTTPIngest) Stats() IngestStats {
	if h == nil {
		return IngestStats{}
	}
	return IngestStats{
		QueueDepth:        len(h.ch),
		QueueCapacity:     cap(h.ch),
		QueueDroppedTotal: h.queueDropped.Load(),
		FlushFailTotal:    h.flushFail.Load(),
		RetainDropTotal:   h.retainDrop.Load(),
		SentTotal:         h.sent.Load(),
	}
}

// WriteTick ships ticks that carry learning signal. Idle ticks with no
// actions and no rewards are skipped.
func (h *HTTPIngest) WriteTick(entry arena.TickLogEntry) error {
	if h == nil || h.closed.Load() {
		return nil
	}
	if len(entry.Actions) > 0 || len(entry.Rewards) > 0 || len(entry.Events) > 0 {
		h.enqueue(ingestEvent{Kind: "transition", ArenaID: h.cfg.ArenaID, Payload: ingestTransition{
			Tick:    entry.Tick,
			Match:   entry.Match,
			Digest:  entry.Digest,
			Actions: entry.Actions,
			Rewards: entry.Rewards,
			Events:  entry.Events,
		}})
	}
	if entry.MatchEnd != nil {
		h.enqueue(ingestEvent{Kind: "match_end", ArenaID: h.cfg.ArenaID, Payload: *entry.MatchEnd})
	}
	return nil
}

func (h *HTTPIngest) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if h == nil || h.closed.Load() {
		return
	}
	h.enqueue(ingestEvent{Kind: "snapshot", ArenaID: h.cfg.ArenaID, Payload: ingestSnapshot{
		Tick:    snap.Header.Tick,
		Match:   snap.Header.Match,
		Path:    path,
		Seed:    snap.Seed,
		Agents:  len(snap.Agents),
		Targets: len(snap.Targets),
		Score:   snap.Score,
	}})
}

func (h *HTTPIngest) enqueue(ev ingestEvent) {
	select {
	case h.ch <- ev:
	default:
		h.queueDropped.Add(1)
		h.warn("ingest queue full; drop", "kind", ev.Kind, "arena", ev.ArenaID)
	}
}

func (h *HTTPIngest) loop() {
	ticker := time.NewTicker(h.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]ingestEvent, 0, h.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := h.sendBatch(batch); err != nil {
			h.flushFail.Add(1)
			h.warn("ingest flush failed", "batch", len(batch), "err", err)
			if over := len(batch) - h.cfg.MaxRetained; over > 0 {
				h.retainDrop.Add(uint64(over))
				batch = append(batch[:0], batch[over:]...)
			}
			return
		}
		h.sent.Add(uint64(len(batch)))
		batch = batch[:0]
	}

	for {
		select {
		case ev, ok := <-h.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, ev)
			if len(batch) >= h.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (h *HTTPIngest) sendBatch(events []ingestEvent) error {
	body := struct {
		Events []ingestEvent `json:"events"`
	}{Events: events}
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequest(http.MethodPost, h.cfg.Endpoint, bytes.NewReader(buf))
		if err != nil {
			return err
		}
		req.Header.Set("content-type", "application/json")
		if h.cfg.Token != "" {
			req.Header.Set("x-arena-ingest-token", h.cfg.Token)
		}

		resp, err := h.httpClient.Do(req)
		if err == nil {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
			_ = resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			err = fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		lastErr = err
		time.Sleep(time.Duration(100*(1<<attempt)) * time.Millisecond)
	}
	return lastErr
}

func (h *HTTPIngest) warn(msg string, kv ...any) {
	if h.cfg.Logger != nil {
		h.cfg.Logger.Warn(msg, kv...)
	}
}
