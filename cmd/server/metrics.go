package main

import (
	"fmt"
	"io"

	"cogsarena.ai/internal/persistence/indexdb"
	"cogsarena.ai/internal/sim/arena"
)

// writeArenaMetrics renders the Prometheus text exposition format.
func writeArenaMetrics(out io.Writer, arenaID string, tick uint64, m arena.Metrics) {
	if m.Tick != 0 {
		tick = m.Tick
	}

	fmt.Fprintf(out, "# HELP cogsarena_tick Current arena tick.\n")
	fmt.Fprintf(out, "# TYPE cogsarena_tick gauge\n")
	fmt.Fprintf(out, "cogsarena_tick{arena=%q} %d\n", arenaID, tick)

	fmt.Fprintf(out, "# HELP cogsarena_match Current match number.\n")
	fmt.Fprintf(out, "# TYPE cogsarena_match gauge\n")
	fmt.Fprintf(out, "cogsarena_match{arena=%q} %d\n", arenaID, m.Match)

	fmt.Fprintf(out, "# HELP cogsarena_match_tick Ticks elapsed in the current match.\n")
	fmt.Fprintf(out, "# TYPE cogsarena_match_tick gauge\n")
	fmt.Fprintf(out, "cogsarena_match_tick{arena=%q} %d\n", arenaID, m.MatchTick)

	fmt.Fprintf(out, "# HELP cogsarena_matches_total Matches finished since start.\n")
	fmt.Fprintf(out, "# TYPE cogsarena_matches_total counter\n")
	fmt.Fprintf(out, "cogsarena_matches_total{arena=%q} %d\n", arenaID, m.MatchesTotal)

	fmt.Fprintf(out, "# HELP cogsarena_agents Current number of agents in the arena.\n")
	fmt.Fprintf(out, "# TYPE cogsarena_agents gauge\n")
	fmt.Fprintf(out, "cogsarena_agents{arena=%q} %d\n", arenaID, m.Agents)

	fmt.Fprintf(out, "# HELP cogsarena_clients Current number of connected clients.\n")
	fmt.Fprintf(out, "# TYPE cogsarena_clients gauge\n")
	fmt.Fprintf(out, "cogsarena_clients{arena=%q} %d\n", arenaID, m.Clients)

	fmt.Fprintf(out, "# HELP cogsarena_observers Current number of spectator streams.\n")
	fmt.Fprintf(out, "# TYPE cogsarena_observers gauge\n")
	fmt.Fprintf(out, "cogsarena_observers{arena=%q} %d\n", arenaID, m.Observers)

	fmt.Fprintf(out, "# HELP cogsarena_score Targets resting in each team's base.\n")
	fmt.Fprintf(out, "# TYPE cogsarena_score gauge\n")
	fmt.Fprintf(out, "cogsarena_score{arena=%q,team=\"1\"} %d\n", arenaID, m.Score[0])
	fmt.Fprintf(out, "cogsarena_score{arena=%q,team=\"2\"} %d\n", arenaID, m.Score[1])

	fmt.Fprintf(out, "# HELP cogsarena_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(out, "# TYPE cogsarena_queue_depth gauge\n")
	fmt.Fprintf(out, "cogsarena_queue_depth{arena=%q,queue=%q} %d\n", arenaID, "inbox", m.QueueDepths.Inbox)
	fmt.Fprintf(out, "cogsarena_queue_depth{arena=%q,queue=%q} %d\n", arenaID, "join", m.QueueDepths.Join)
	fmt.Fprintf(out, "cogsarena_queue_depth{arena=%q,queue=%q} %d\n", arenaID, "leave", m.QueueDepths.Leave)

	fmt.Fprintf(out, "# HELP cogsarena_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(out, "# TYPE cogsarena_step_ms gauge\n")
	fmt.Fprintf(out, "cogsarena_step_ms{arena=%q} %.3f\n", arenaID, m.StepMS)
}

func writeIndexMetrics(out io.Writer, arenaID string, idx runtimeIndex) {
	switch v := idx.(type) {
	case *indexdb.SQLiteIndex:
		s := v.Stats()
		fmt.Fprintf(out, "# HELP cogsarena_index_queue_depth Index writer queue depth.\n")
		fmt.Fprintf(out, "# TYPE cogsarena_index_queue_depth gauge\n")
		fmt.Fprintf(out, "cogsarena_index_queue_depth{arena=%q} %d\n", arenaID, s.QueueDepth)
		fmt.Fprintf(out, "# HELP cogsarena_index_dropped_total Index writes dropped because the queue was full.\n")
		fmt.Fprintf(out, "# TYPE cogsarena_index_dropped_total counter\n")
		fmt.Fprintf(out, "cogsarena_index_dropped_total{arena=%q,kind=%q} %d\n", arenaID, "tick", s.DropTickTotal)
		fmt.Fprintf(out, "cogsarena_index_dropped_total{arena=%q,kind=%q} %d\n", arenaID, "snapshot", s.DropSnapshotTotal)
		fmt.Fprintf(out, "# HELP cogsarena_index_write_errors_total Failed index transactions.\n")
		fmt.Fprintf(out, "# TYPE cogsarena_index_write_errors_total counter\n")
		fmt.Fprintf(out, "cogsarena_index_write_errors_total{arena=%q} %d\n", arenaID, s.WriteErrorTotal)
	case httpIndex:
		s := v.Stats()
		fmt.Fprintf(out, "# HELP cogsarena_ingest_queue_depth Ingest queue depth.\n")
		fmt.Fprintf(out, "# TYPE cogsarena_ingest_queue_depth gauge\n")
		fmt.Fprintf(out, "cogsarena_ingest_queue_depth{arena=%q} %d\n", arenaID, s.QueueDepth)
		fmt.Fprintf(out, "# HELP cogsarena_ingest_sent_total Events delivered to the ingest endpoint.\n")
		fmt.Fprintf(out, "# TYPE cogsarena_ingest_sent_total counter\n")
		fmt.Fprintf(out, "cogsarena_ingest_sent_total{arena=%q} %d\n", arenaID, s.SentTotal)
		fmt.Fprintf(out, "# HELP cogsarena_ingest_dropped_total Events dropped before delivery.\n")
		fmt.Fprintf(out, "# TYPE cogsarena_ingest_dropped_total counter\n")
		fmt.Fprintf(out, "cogsarena_ingest_dropped_total{arena=%q,reason=%q} %d\n", arenaID, "queue_full", s.QueueDroppedTotal)
		fmt.Fprintf(out, "cogsarena_ingest_dropped_total{arena=%q,reason=%q} %d\n", arenaID, "retain_cap", s.RetainDropTotal)
		fmt.Fprintf(out, "# HELP cogsarena_ingest_flush_fail_total Failed batch flushes.\n")
		fmt.Fprintf(out, "# TYPE cogsarena_ingest_flush_fail_total counter\n")
		fmt.Fprintf(out, "cogsarena_ingest_flush_fail_total{arena=%q} %d\n", arenaID, s.FlushFailTotal)
	}
}
