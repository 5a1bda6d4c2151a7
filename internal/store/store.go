// Package store persists derived chain analytics so historical snapshots can
// be reviewed after the live chain has moved on.
package store

import (
	"context"
	"time"
)

// SnapshotRecord is one persisted row of chain-level analytics.
type SnapshotRecord struct {
	ID           int64     `json:"id"`
	Symbol       string    `json:"symbol"`
	TakenAt      time.Time `json:"taken_at"`
	SpotPrice    float64   `json:"spot_price"`
	MaxPain      float64   `json:"max_pain"`
	PutCallRatio float64   `json:"put_call_ratio"`
	ATMIV        float64   `json:"atm_iv"`
	Contracts    int       `json:"contracts"`
}

// AnalyticsStore persists and retrieves analytics snapshots.
type AnalyticsStore interface {
	SaveSnapshot(ctx context.Context, rec *SnapshotRecord) error
	History(ctx context.Context, symbol string, limit int) ([]SnapshotRecord, error)
	Close() error
}
