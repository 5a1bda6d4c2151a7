package feed

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"chainalytics/internal/errors"
)

// FileProvider reads snapshot files from a directory. Each underlying has
// one JSON file named <SYMBOL>.json containing a Snapshot. Useful for the
// CLI and for replaying recorded snapshots without a live feed.
type FileProvider struct {
	dir string
}

// NewFileProvider creates a file-based snapshot provider.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

// Snapshot loads the snapshot file for the given symbol.
func (p *FileProvider) Snapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	path := filepath.Join(p.dir, symbol+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewDataError("snapshot", symbol, "no snapshot file", errors.ErrNoData)
		}
		return nil, errors.NewDataError("snapshot", symbol, "reading snapshot file", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.NewDataError("snapshot", symbol, "decoding snapshot file", err)
	}

	if snap.Symbol == "" {
		snap.Symbol = symbol
	}
	return &snap, nil
}

// StaticProvider serves a fixed set of snapshots from memory. Used in tests
// and wherever the caller already holds the batch.
type StaticProvider struct {
	snapshots map[string]*Snapshot
}

// NewStaticProvider creates a provider over the given snapshots, keyed by
// upper-cased symbol.
func NewStaticProvider(snaps ...*Snapshot) *StaticProvider {
	m := make(map[string]*Snapshot, len(snaps))
	for _, s := range snaps {
		m[strings.ToUpper(s.Symbol)] = s
	}
	return &StaticProvider{snapshots: m}
}

// Snapshot returns the stored snapshot for the symbol.
func (p *StaticProvider) Snapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, ok := p.snapshots[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return nil, errors.NewDataError("snapshot", symbol, "symbol not loaded", errors.ErrNoData)
	}
	return snap, nil
}
