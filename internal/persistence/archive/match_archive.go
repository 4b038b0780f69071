package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cogsarena.ai/internal/persistence/snapshot"
)

type MatchArchiveMeta struct {
	Match      int                `json:"match"`
	EndTick    uint64             `json:"end_tick"`
	Seed       int64              `json:"seed"`
	Score      [2]int             `json:"score"`
	Winner     int                `json:"winner"`
	Rewards    map[string]float64 `json:"rewards"`
	Snapshot   string             `json:"snapshot"`
	CreatedAt  string             `json:"created_at"`
	MatchTicks int                `json:"match_ticks"`
}

// ArchiveMatchSnapshot copies a match-boundary snapshot into
// `arenaDir/archives/match_<NNNN>/` next to a meta.json with the result.
// It returns (match, archivedPath, archived=true) when snap was taken on
// the tick a match ended.
func ArchiveMatchSnapshot(arenaDir, snapshotPath string, snap snapshot.SnapshotV1) (match int, archivedPath string, archived bool, err error) {
	r := snap.LastResult
	if r == nil || snap.MatchTick != 0 || r.EndTick != snap.Header.Tick {
		return 0, "", false, nil
	}

	archiveDir := filepath.Join(arenaDir, "archives", fmt.Sprintf("match_%04d", r.Match))
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return 0, "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return 0, "", false, err
	}

	meta := MatchArchiveMeta{
		Match:      r.Match,
		EndTick:    r.EndTick,
		Seed:       snap.Seed,
		Score:      r.Score,
		Winner:     r.Winner,
		Rewards:    r.Rewards,
		Snapshot:   filepath.Base(dst),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
		MatchTicks: snap.MatchTicks,
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}

	return r.Match, dst, true, nil
}

// ReadMeta loads the meta.json of one archived match.
func ReadMeta(archiveDir string) (MatchArchiveMeta, error) {
	var m MatchArchiveMeta
	b, err := os.ReadFile(filepath.Join(archiveDir, "meta.json"))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("%s: %w", archiveDir, err)
	}
	return m, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
