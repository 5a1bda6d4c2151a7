// Package analytics derives chain-wide metrics from an assembled options
// chain: max pain, put/call ratio, ATM implied volatility, volatility skew,
// aggregate Greeks exposure, and support/resistance levels.
//
// Enrich is a pure function of the chain's contracts. It runs once, as a
// single-writer phase, right after the builder finishes; afterwards the
// chain is read-only and safe for concurrent readers.
package analytics

import (
	"math"

	"chainalytics/internal/errors"
	"chainalytics/internal/models"
)

// Enrich populates every derived field on the chain in one pass.
func Enrich(oc *models.OptionsChain) error {
	if len(oc.Calls)+len(oc.Puts) == 0 {
		return errors.Wrapf(errors.ErrEmptyChain, "enriching %s", oc.Symbol)
	}

	oc.MaxPain = MaxPain(oc)
	oc.PutCallRatio = PutCallRatio(oc)
	oc.ATMIV = ATMImpliedVolatility(oc)
	oc.SkewCurve = SkewCurve(oc)
	oc.AggregateGreeks = AggregateGreeks(oc)
	oc.SupportLevels, oc.ResistanceLevels = SupportResistance(oc)
	return nil
}

// MaxPain returns the strike at which option writers collectively lose the
// least if the underlying settled there. For each candidate settlement S the
// pain is the open-interest-weighted intrinsic value across every contract:
// calls pay max(0, S-K)*OI, puts pay max(0, K-S)*OI. Ties break toward the
// first (lowest) strike so the result is reproducible.
func MaxPain(oc *models.OptionsChain) float64 {
	if len(oc.Strikes) == 0 {
		return 0
	}

	best := oc.Strikes[0]
	bestPain := math.Inf(1)
	for _, settle := range oc.Strikes {
		pain := painAt(oc, settle)
		if pain < bestPain {
			best = settle
			bestPain = pain
		}
	}
	return best
}

func painAt(oc *models.OptionsChain, settle float64) float64 {
	var pain float64
	for _, c := range oc.Contracts() {
		if c.OpenInterest == 0 {
			continue
		}
		pain += c.IntrinsicValue(settle) * float64(c.OpenInterest)
	}
	return pain
}

// PutCallRatio returns total put open interest over total call open
// interest. When call OI is zero the ratio is reported as 0, never
// Inf or NaN, so nothing non-finite propagates downstream.
func PutCallRatio(oc *models.OptionsChain) float64 {
	var callOI, putOI int64
	for _, c := range oc.Calls {
		callOI += c.OpenInterest
	}
	for _, p := range oc.Puts {
		putOI += p.OpenInterest
	}
	if callOI == 0 {
		return 0
	}
	return float64(putOI) / float64(callOI)
}

// ATMImpliedVolatility returns the IV at the strike closest to spot for the
// nearest expiry. When both sides exist their IVs are averaged.
func ATMImpliedVolatility(oc *models.OptionsChain) float64 {
	expiry, ok := oc.NearestExpiry()
	if !ok {
		return 0
	}
	strike, ok := oc.ATMStrike()
	if !ok {
		return 0
	}

	call, hasCall := oc.Call(strike, expiry)
	put, hasPut := oc.Put(strike, expiry)
	switch {
	case hasCall && hasPut:
		return (call.IV + put.IV) / 2
	case hasCall:
		return call.IV
	case hasPut:
		return put.IV
	}

	// Closest strike has no contract at the nearest expiry; fall back to
	// the nearest strike that does.
	bestDist := math.Inf(1)
	var bestIV float64
	for _, k := range oc.Strikes {
		d := math.Abs(k - oc.SpotPrice)
		if d >= bestDist {
			continue
		}
		if c, ok := oc.Call(k, expiry); ok {
			bestIV = c.IV
			bestDist = d
		} else if p, ok := oc.Put(k, expiry); ok {
			bestIV = p.IV
			bestDist = d
		}
	}
	return bestIV
}

// SkewCurve returns one point per strike where both a call and a put exist
// at the nearest expiry, ascending by strike.
func SkewCurve(oc *models.OptionsChain) []models.SkewPoint {
	expiry, ok := oc.NearestExpiry()
	if !ok {
		return nil
	}

	var curve []models.SkewPoint
	for _, strike := range oc.Strikes {
		call, hasCall := oc.Call(strike, expiry)
		put, hasPut := oc.Put(strike, expiry)
		if !hasCall || !hasPut {
			continue
		}
		curve = append(curve, models.SkewPoint{
			Strike: strike,
			CallIV: call.IV,
			PutIV:  put.IV,
			Skew:   put.IV - call.IV,
		})
	}
	return curve
}

// AggregateGreeks sums delta, gamma, theta and vega across every live
// contract weighted by open interest: the market maker's aggregate exposure.
func AggregateGreeks(oc *models.OptionsChain) models.AggregateGreeks {
	var agg models.AggregateGreeks
	for _, c := range oc.Contracts() {
		w := float64(c.OpenInterest)
		agg.Delta += c.Greeks.Delta * w
		agg.Gamma += c.Greeks.Gamma * w
		agg.Theta += c.Greeks.Theta * w
		agg.Vega += c.Greeks.Vega * w
	}
	return agg
}

// SupportResistance returns strikes whose total open interest exceeds both
// neighbors' in the sorted strike sequence: local maxima below spot are
// support, above spot resistance. Edge strikes have only one neighbor and
// never qualify.
func SupportResistance(oc *models.OptionsChain) (support, resistance []float64) {
	if len(oc.Strikes) < 3 {
		return nil, nil
	}

	oi := make([]float64, len(oc.Strikes))
	for i, strike := range oc.Strikes {
		oi[i] = totalOIAtStrike(oc, strike)
	}

	for i := 1; i < len(oc.Strikes)-1; i++ {
		if oi[i] <= oi[i-1] || oi[i] <= oi[i+1] {
			continue
		}
		strike := oc.Strikes[i]
		if strike < oc.SpotPrice {
			support = append(support, strike)
		} else if strike > oc.SpotPrice {
			resistance = append(resistance, strike)
		}
	}
	return support, resistance
}

func totalOIAtStrike(oc *models.OptionsChain, strike float64) float64 {
	var total float64
	for _, expiry := range oc.Expiries {
		if c, ok := oc.Call(strike, expiry); ok {
			total += float64(c.OpenInterest)
		}
		if p, ok := oc.Put(strike, expiry); ok {
			total += float64(p.OpenInterest)
		}
	}
	return total
}
