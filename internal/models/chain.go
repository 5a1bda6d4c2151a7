package models

import (
	"math"
	"time"
)

// ExpiryFormat is the canonical date layout for expiry map keys.
const ExpiryFormat = "2006-01-02"

// ContractKey identifies a contract slot in the chain maps. Expiry is stored
// as a formatted date so the key stays comparable regardless of wall-clock
// precision in the feed.
type ContractKey struct {
	Strike float64
	Expiry string
}

// NewContractKey builds a ContractKey from a strike and expiry time.
func NewContractKey(strike float64, expiry time.Time) ContractKey {
	return ContractKey{Strike: strike, Expiry: expiry.Format(ExpiryFormat)}
}

// SkewPoint is one point of the volatility skew curve.
type SkewPoint struct {
	Strike float64
	CallIV float64
	PutIV  float64
	Skew   float64 // PutIV - CallIV
}

// AggregateGreeks is the open-interest-weighted sum of Greeks across every
// live contract in the chain.
type AggregateGreeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
}

// OptionsChain is the full analytics surface for one underlying at a point
// in time. The builder populates the contract maps and the ordered
// strike/expiry sets; the analytics calculator fills the derived fields in a
// single enrichment pass, after which the chain is read-only and safe for
// concurrent readers.
type OptionsChain struct {
	Symbol       string
	SpotPrice    float64
	SnapshotTime time.Time

	Expiries []time.Time // ascending
	Strikes  []float64   // ascending
	Calls    map[ContractKey]*OptionContract
	Puts     map[ContractKey]*OptionContract

	// Derived fields, populated by the analytics calculator.
	MaxPain          float64
	PutCallRatio     float64
	ATMIV            float64
	SkewCurve        []SkewPoint
	AggregateGreeks  AggregateGreeks
	SupportLevels    []float64
	ResistanceLevels []float64
}

// Call returns the call contract at (strike, expiry), if present.
func (oc *OptionsChain) Call(strike float64, expiry time.Time) (*OptionContract, bool) {
	c, ok := oc.Calls[NewContractKey(strike, expiry)]
	return c, ok
}

// Put returns the put contract at (strike, expiry), if present.
func (oc *OptionsChain) Put(strike float64, expiry time.Time) (*OptionContract, bool) {
	p, ok := oc.Puts[NewContractKey(strike, expiry)]
	return p, ok
}

// NearestExpiry returns the chronologically first expiry in the chain.
func (oc *OptionsChain) NearestExpiry() (time.Time, bool) {
	if len(oc.Expiries) == 0 {
		return time.Time{}, false
	}
	return oc.Expiries[0], true
}

// ATMStrike returns the strike closest to the spot price.
func (oc *OptionsChain) ATMStrike() (float64, bool) {
	if len(oc.Strikes) == 0 {
		return 0, false
	}
	best := oc.Strikes[0]
	bestDist := math.Abs(best - oc.SpotPrice)
	for _, k := range oc.Strikes[1:] {
		if d := math.Abs(k - oc.SpotPrice); d < bestDist {
			best = k
			bestDist = d
		}
	}
	return best, true
}

// StrikeAbove returns the lowest strike strictly greater than price.
func (oc *OptionsChain) StrikeAbove(price float64) (float64, bool) {
	for _, k := range oc.Strikes {
		if k > price {
			return k, true
		}
	}
	return 0, false
}

// StrikeBelow returns the highest strike strictly less than price.
func (oc *OptionsChain) StrikeBelow(price float64) (float64, bool) {
	for i := len(oc.Strikes) - 1; i >= 0; i-- {
		if oc.Strikes[i] < price {
			return oc.Strikes[i], true
		}
	}
	return 0, false
}

// Contracts returns every contract in the chain, calls first then puts,
// each side in ascending (strike, expiry) order. Iteration order is
// deterministic so derived metrics are reproducible.
func (oc *OptionsChain) Contracts() []*OptionContract {
	out := make([]*OptionContract, 0, len(oc.Calls)+len(oc.Puts))
	for _, expiry := range oc.Expiries {
		for _, strike := range oc.Strikes {
			if c, ok := oc.Call(strike, expiry); ok {
				out = append(out, c)
			}
		}
	}
	for _, expiry := range oc.Expiries {
		for _, strike := range oc.Strikes {
			if p, ok := oc.Put(strike, expiry); ok {
				out = append(out, p)
			}
		}
	}
	return out
}
