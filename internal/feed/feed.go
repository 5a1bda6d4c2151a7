// Package feed defines the boundary between the external market-data feed
// and the analytics core. Raw records are parsed and validated exactly once
// here; malformed records are rejected at the boundary instead of leaking
// loosely-typed data into the engine.
package feed

import (
	"context"
	"strings"
	"time"

	"chainalytics/internal/errors"
	"chainalytics/internal/models"
)

// RawContract mirrors one contract record as the feed delivers it.
type RawContract struct {
	Symbol       string  `json:"symbol"`
	Strike       float64 `json:"strike"`
	Expiry       string  `json:"expiry"` // YYYY-MM-DD
	Type         string  `json:"type"`   // CALL or PUT
	LastPrice    float64 `json:"last_price"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	BidSize      int64   `json:"bid_size"`
	AskSize      int64   `json:"ask_size"`
	Volume       int64   `json:"volume"`
	OpenInterest int64   `json:"open_interest"`
	IV           float64 `json:"iv"`
}

// Snapshot is one batch of contracts for an underlying, as delivered by the
// feed collaborator.
type Snapshot struct {
	Symbol    string        `json:"symbol"`
	SpotPrice float64       `json:"spot_price"`
	TakenAt   time.Time     `json:"taken_at"`
	Contracts []RawContract `json:"contracts"`
}

// Provider supplies contract snapshots for an underlying.
type Provider interface {
	Snapshot(ctx context.Context, symbol string) (*Snapshot, error)
}

// ParseContract converts one raw feed record into an immutable
// OptionContract, rejecting malformed records.
func ParseContract(raw RawContract) (models.OptionContract, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw.Symbol))
	if symbol == "" {
		return models.OptionContract{}, errors.NewValidationError("symbol", raw.Symbol, "must not be empty")
	}
	if raw.Strike <= 0 {
		return models.OptionContract{}, errors.Wrapf(errors.ErrInvalidStrike, "contract %s", symbol)
	}
	if raw.IV < 0 {
		return models.OptionContract{}, errors.NewValidationError("iv", raw.IV, "must not be negative")
	}

	expiry, err := time.Parse(models.ExpiryFormat, raw.Expiry)
	if err != nil {
		return models.OptionContract{}, errors.Wrapf(errors.ErrInvalidExpiry, "contract %s expiry %q", symbol, raw.Expiry)
	}

	var optType models.OptionType
	switch strings.ToUpper(strings.TrimSpace(raw.Type)) {
	case "CALL", "CE", "C":
		optType = models.Call
	case "PUT", "PE", "P":
		optType = models.Put
	default:
		return models.OptionContract{}, errors.NewValidationError("type", raw.Type, "must be CALL or PUT")
	}

	return models.OptionContract{
		Symbol:       symbol,
		Strike:       raw.Strike,
		Expiry:       expiry,
		Type:         optType,
		LastPrice:    raw.LastPrice,
		Bid:          raw.Bid,
		Ask:          raw.Ask,
		BidSize:      raw.BidSize,
		AskSize:      raw.AskSize,
		Volume:       raw.Volume,
		OpenInterest: raw.OpenInterest,
		IV:           raw.IV,
	}, nil
}

// ParseSnapshot converts every record in a snapshot, failing on the first
// malformed one.
func ParseSnapshot(snap *Snapshot) ([]models.OptionContract, error) {
	if snap == nil || len(snap.Contracts) == 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "snapshot for %s", snapshotSymbol(snap))
	}

	contracts := make([]models.OptionContract, 0, len(snap.Contracts))
	for i, raw := range snap.Contracts {
		c, err := ParseContract(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "record %d", i)
		}
		contracts = append(contracts, c)
	}
	return contracts, nil
}

func snapshotSymbol(snap *Snapshot) string {
	if snap == nil {
		return "<nil>"
	}
	return snap.Symbol
}
