package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	ArenaID string `json:"arena_id"`
	Tick    uint64 `json:"tick"`
	Match   int    `json:"match"`
}

// SnapshotV1 is everything needed to resume an arena at a tick boundary.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed     int64 `json:"seed"`
	TickRate int   `json:"tick_rate_hz"`

	// Operational parameters (captured for deterministic replay/resume).
	MatchTicks         int                `json:"match_ticks"`
	SnapshotEveryTicks int                `json:"snapshot_every_ticks,omitempty"`
	HalfSize           float64            `json:"half_size"`
	BaseHalfSize       float64            `json:"base_half_size"`
	TargetCount        int                `json:"target_count"`
	MoveSpeed          float64            `json:"move_speed"`
	TurnSpeedDeg       float64            `json:"turn_speed_deg"`
	PickupRadius       float64            `json:"pickup_radius"`
	LaserRange         float64            `json:"laser_range"`
	LaserConeDeg       float64            `json:"laser_cone_deg"`
	FreezeTicks        int                `json:"freeze_ticks"`
	Rewards            map[string]float64 `json:"rewards"`

	MatchTick    int    `json:"match_tick"`
	Score        [2]int `json:"score"`
	NextAgentNum uint64 `json:"next_agent_num"`

	// LastResult is the most recently finished match, if any.
	LastResult *MatchResultV1 `json:"last_result,omitempty"`

	Agents  []AgentV1  `json:"agents"`
	Targets []TargetV1 `json:"targets"`
}

type AgentV1 struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Team        int        `json:"team"`
	Pos         [3]float64 `json:"pos"`
	YawDeg      float64    `json:"yaw_deg"`
	Vel         [3]float64 `json:"vel"`
	FrozenTicks int        `json:"frozen_ticks"`
	Carrying    int        `json:"carrying"`
	Laser       bool       `json:"laser"`
	Cumulative  float64    `json:"cumulative"`

	// Edge memory: frozen flag seen by the controller, the base zone the
	// agent stands in and the targets currently touched.
	WasFrozen bool     `json:"was_frozen"`
	Zone      int      `json:"zone"`
	Touching  []string `json:"touching,omitempty"`

	AnimActive []string `json:"anim_active,omitempty"`
}

type MatchResultV1 struct {
	Match   int                `json:"match"`
	EndTick uint64             `json:"end_tick"`
	Score   [2]int             `json:"score"`
	Winner  int                `json:"winner"`
	Rewards map[string]float64 `json:"rewards"`
}

type TargetV1 struct {
	ID      string     `json:"id"`
	Pos     [3]float64 `json:"pos"`
	Carried int        `json:"carried"`
	Carrier string     `json:"carrier,omitempty"`
	InBase  int        `json:"in_base"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

// ReadHeader decodes only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Header line is informational; gob carries it again.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("snapshot version %d: unsupported", snap.Header.Version)
	}
	return snap, nil
}
