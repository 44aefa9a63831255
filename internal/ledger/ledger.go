// Package ledger records identifiers of items that completed a full
// transfer, tag and publish cycle.
//
// The ledger is a pure audit/history store: the download flow only
// writes to it and never consults it to skip work. Idempotent re-runs
// rely on the on-disk existence check in the transfer layer instead.
package ledger

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Ledger is an append-only, concurrent-safe set of completed item
// identifiers backed by a line-per-identifier file.
type Ledger struct {
	mu   sync.Mutex
	path string
	seen map[string]struct{}
}

// Open loads (or creates) the ledger file at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	l := &Ledger{path: path, seen: make(map[string]struct{})}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if id := strings.TrimSpace(scanner.Text()); id != "" {
			l.seen[id] = struct{}{}
		}
	}
	return l, scanner.Err()
}

// Record marks an identifier as fully processed. Recording the same
// identifier twice is a no-op. Safe for concurrent use by multiple
// workers.
func (l *Ledger) Record(id string) error {
	if id == "" {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[id]; ok {
		return nil
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(id + "\n"); err != nil {
		return err
	}
	l.seen[id] = struct{}{}
	return nil
}

// Len reports how many identifiers the ledger holds.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}
