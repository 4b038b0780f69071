package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"

	"cogsarena.ai/internal/persistence/snapshot"
	"cogsarena.ai/internal/sim/arena"
	"cogsarena.ai/internal/sim/tuning"
)

func main() {
	var (
		snapPath   = flag.String("snapshot", "", "path to .snap.zst (empty: start fresh from -tuning/-seed)")
		ticksDir   = flag.String("ticks", "", "dir containing ticks-*.jsonl.zst")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "tuning used by the original run (fresh start only)")
		arenaID    = flag.String("arena", "arena_1", "arena id (fresh start only)")
		seed       = flag.Int64("seed", 1337, "arena seed (fresh start only)")
		fromTick   = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	var w *arena.World
	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fail("read snapshot", err)
		}
		fmt.Printf("snapshot v%d arena=%s tick=%s match=%d seed=%d agents=%d targets=%d score=%d:%d\n",
			snap.Header.Version, snap.Header.ArenaID, humanize.Comma(int64(snap.Header.Tick)), snap.Header.Match,
			snap.Seed, len(snap.Agents), len(snap.Targets), snap.Score[0], snap.Score[1])
		if *ticksDir == "" {
			return
		}
		cfg, err := arena.ConfigFromSnapshot(snap)
		if err != nil {
			fail("snapshot config", err)
		}
		if w, err = arena.New(cfg); err != nil {
			fail("arena", err)
		}
		if err := w.ImportSnapshot(snap); err != nil {
			fail("import snapshot", err)
		}
	} else {
		if *ticksDir == "" {
			fmt.Fprintln(os.Stderr, "missing -snapshot or -ticks")
			os.Exit(2)
		}
		tune, err := tuning.Load(*tuningPath)
		if err != nil {
			fail("load tuning", err)
		}
		cfg, err := arena.ConfigFromTuning(*arenaID, *seed, tune)
		if err != nil {
			fail("arena config", err)
		}
		if w, err = arena.New(cfg); err != nil {
			fail("arena", err)
		}
	}

	res, err := replay(w, *ticksDir, *fromTick, *toTick)
	if err != nil {
		fail("replay", err)
	}
	printResult(res)
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}

func printResult(res result) {
	fmt.Printf("replay ok: checked=%s ticks from tick=%s\n", humanize.Comma(int64(res.Checked)), humanize.Comma(int64(res.StartTick)))
	for _, m := range res.Matches {
		fmt.Printf("match %d ended tick=%s score=%d:%d winner=%d\n", m.Match, humanize.Comma(int64(m.EndTick)), m.Score[0], m.Score[1], m.Winner)
	}
	ids := make([]string, 0, len(res.Rewards))
	for id := range res.Rewards {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		t := res.Rewards[id]
		fmt.Printf("%-6s events=%-6s reward=%s\n", id, humanize.Comma(int64(t.Events)), humanize.FormatFloat("#,###.###", t.Sum))
	}
}
