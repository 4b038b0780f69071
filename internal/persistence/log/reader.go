package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"cogsarena.ai/internal/sim/arena"
)

// ListFiles returns <prefix>-*.jsonl.zst files in dir in chronological
// (lexical) order.
func ListFiles(dir, prefix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix+"-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ScanFile calls fn for every line of a zstd JSONL file. Returning a
// non-nil error from fn stops the scan; ErrStop stops it cleanly.
func ScanFile(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		if err := fn(sc.Bytes()); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return sc.Err()
}

var ErrStop = errors.New("stop scan")

// ScanTicks decodes every tick entry under dir in file order.
func ScanTicks(dir string, fn func(arena.TickLogEntry) error) error {
	files, err := ListFiles(dir, "ticks")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no tick logs in %s", dir)
	}
	for _, path := range files {
		stopped := false
		err := ScanFile(path, func(line []byte) error {
			var e arena.TickLogEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
			}
			if err := fn(e); err != nil {
				if errors.Is(err, ErrStop) {
					stopped = true
				}
				return err
			}
			return nil
		})
		if err != nil {
			return err
		}
		if stopped {
			return nil
		}
	}
	return nil
}
