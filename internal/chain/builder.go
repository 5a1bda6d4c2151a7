// Package chain assembles raw option contracts into an indexed OptionsChain.
package chain

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"chainalytics/internal/errors"
	"chainalytics/internal/logging"
	"chainalytics/internal/models"
	"chainalytics/internal/pricing"
)

// Builder assembles snapshots into chains and back-fills missing Greeks.
type Builder struct {
	riskFreeRate float64
	defaultIV    float64
	logger       zerolog.Logger
}

// NewBuilder creates a chain builder. defaultIV substitutes for contracts
// whose feed IV is zero or missing when Greeks have to be computed.
func NewBuilder(riskFreeRate, defaultIV float64, logger zerolog.Logger) *Builder {
	return &Builder{
		riskFreeRate: riskFreeRate,
		defaultIV:    defaultIV,
		logger:       logger,
	}
}

// Build assembles the contracts for one underlying into an OptionsChain.
//
// Contracts whose expiry is before now are dropped silently: the feed treats
// them as already expired, so downstream consumers never see their strikes
// or expiries. A mismatched underlying symbol is an error, not a drop.
func (b *Builder) Build(symbol string, spot float64, contracts []models.OptionContract, now time.Time) (*models.OptionsChain, error) {
	if spot <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidSpot, "building chain for %s", symbol)
	}

	oc := &models.OptionsChain{
		Symbol:       symbol,
		SpotPrice:    spot,
		SnapshotTime: now,
		Calls:        make(map[models.ContractKey]*models.OptionContract),
		Puts:         make(map[models.ContractKey]*models.OptionContract),
	}

	strikeSet := make(map[float64]struct{})
	expirySet := make(map[string]time.Time)

	dropped := 0
	for i := range contracts {
		c := contracts[i]
		if c.Symbol != symbol {
			return nil, errors.Wrapf(errors.ErrSymbolMismatch, "got %s, chain is %s", c.Symbol, symbol)
		}
		if c.Expiry.Before(now.Truncate(24 * time.Hour)) {
			dropped++
			continue
		}

		if err := b.fillGreeks(&c, spot, now); err != nil {
			return nil, errors.Wrapf(err, "computing greeks for %s %g %s", c.Type, c.Strike, c.Expiry.Format(models.ExpiryFormat))
		}

		key := models.NewContractKey(c.Strike, c.Expiry)
		if c.Type == models.Call {
			oc.Calls[key] = &c
		} else {
			oc.Puts[key] = &c
		}
		strikeSet[c.Strike] = struct{}{}
		expirySet[key.Expiry] = c.Expiry
	}

	if dropped > 0 {
		b.logger.Debug().
			Str("symbol", symbol).
			Int("dropped", dropped).
			Msg("Dropped expired contracts")
	}

	if len(oc.Calls)+len(oc.Puts) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyChain, "symbol %s", symbol)
	}

	oc.Strikes = make([]float64, 0, len(strikeSet))
	for k := range strikeSet {
		oc.Strikes = append(oc.Strikes, k)
	}
	sort.Float64s(oc.Strikes)

	oc.Expiries = make([]time.Time, 0, len(expirySet))
	for _, e := range expirySet {
		oc.Expiries = append(oc.Expiries, e)
	}
	sort.Slice(oc.Expiries, func(i, j int) bool { return oc.Expiries[i].Before(oc.Expiries[j]) })

	return oc, nil
}

// FilterExpiry returns a copy of the chain restricted to a single expiry.
// Derived fields are not carried over; the caller re-enriches the copy.
func FilterExpiry(oc *models.OptionsChain, expiry time.Time) (*models.OptionsChain, error) {
	key := expiry.Format(models.ExpiryFormat)
	found := false
	for _, e := range oc.Expiries {
		if e.Format(models.ExpiryFormat) == key {
			found = true
			break
		}
	}
	if !found {
		return nil, errors.Wrapf(errors.ErrInvalidExpiry, "%s not in chain for %s", key, oc.Symbol)
	}

	out := &models.OptionsChain{
		Symbol:       oc.Symbol,
		SpotPrice:    oc.SpotPrice,
		SnapshotTime: oc.SnapshotTime,
		Expiries:     []time.Time{expiry},
		Calls:        make(map[models.ContractKey]*models.OptionContract),
		Puts:         make(map[models.ContractKey]*models.OptionContract),
	}

	strikeSet := make(map[float64]struct{})
	for k, c := range oc.Calls {
		if k.Expiry == key {
			out.Calls[k] = c
			strikeSet[k.Strike] = struct{}{}
		}
	}
	for k, p := range oc.Puts {
		if k.Expiry == key {
			out.Puts[k] = p
			strikeSet[k.Strike] = struct{}{}
		}
	}

	out.Strikes = make([]float64, 0, len(strikeSet))
	for k := range strikeSet {
		out.Strikes = append(out.Strikes, k)
	}
	sort.Float64s(out.Strikes)

	return out, nil
}

// fillGreeks computes Greeks for a contract whose delta is exactly zero
// (the "not yet computed" marker). A zero IV is floored to the builder's
// default, and the substitution is logged.
func (b *Builder) fillGreeks(c *models.OptionContract, spot float64, now time.Time) error {
	if c.HasGreeks() {
		return nil
	}

	iv := c.IV
	if iv <= 0 {
		logging.LogSubstitution(b.logger, "iv", iv, b.defaultIV)
		iv = b.defaultIV
	}

	tte := pricing.TimeToExpiryYears(c.Expiry, now)
	greeks, err := pricing.BlackScholesGreeks(spot, c.Strike, b.riskFreeRate, tte, iv, c.Type)
	if err != nil {
		return err
	}
	c.Greeks = greeks
	return nil
}
