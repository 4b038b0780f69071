package arena

// Metrics is a thread-safe read-only view of key arena runtime signals.
// It is updated from the arena loop goroutine and read from HTTP handlers/tests.
type Metrics struct {
	Tick         uint64 `json:"tick"`
	Match        int    `json:"match"`
	MatchTick    int    `json:"match_tick"`
	Agents       int    `json:"agents"`
	Clients      int    `json:"clients"`
	Observers    int    `json:"observers"`
	Score        [2]int `json:"score"`
	MatchesTotal uint64 `json:"matches_total"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

func (w *World) Metrics() Metrics {
	if w == nil {
		return Metrics{}
	}
	m, ok := w.metrics.Load().(Metrics)
	if !ok {
		return Metrics{}
	}
	return m
}
