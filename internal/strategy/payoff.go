package strategy

import (
	"math"
	"sort"

	"chainalytics/internal/models"
	"chainalytics/internal/pricing"
)

// payoffCurve samples total strategy P&L across a price range of
// spot*(1-width) to spot*(1+width) at evenly spaced points. Each leg
// contributes its intrinsic value at the sample price net of premium,
// sign-adjusted for BUY vs SELL and scaled by quantity.
func payoffCurve(spot, width float64, samples int, legs []models.StrategyLeg) []models.PayoffPoint {
	lo := spot * (1 - width)
	hi := spot * (1 + width)
	step := (hi - lo) / float64(samples-1)

	curve := make([]models.PayoffPoint, samples)
	for i := 0; i < samples; i++ {
		price := lo + step*float64(i)
		curve[i] = models.PayoffPoint{Price: price, PnL: payoffAt(price, legs)}
	}
	return curve
}

func payoffAt(price float64, legs []models.StrategyLeg) float64 {
	var pnl float64
	for _, leg := range legs {
		intrinsic := leg.Contract.IntrinsicValue(price)
		premium := leg.Contract.Premium()
		qty := float64(leg.Quantity)
		if leg.Action == models.Buy {
			pnl += (intrinsic - premium) * qty
		} else {
			pnl += (premium - intrinsic) * qty
		}
	}
	return pnl
}

// profitRegion describes where a strategy is profitable relative to its
// breakevens.
type profitRegion int

const (
	profitAbove   profitRegion = iota // profits when price > breakeven
	profitBelow                       // profits when price < breakeven
	profitOutside                     // profits beyond either of two breakevens
	profitBetween                     // profits between two breakevens
)

// probabilityOfProfit estimates the chance the underlying finishes in the
// profitable region at expiry. It applies the normal CDF to the log-distance
// between spot and each breakeven, scaled by the assumed annualized
// volatility and time to expiry. This is a lognormal approximation, not a
// guarantee; the assumed volatility is configurable rather than taken from
// each contract's own IV.
func probabilityOfProfit(spot, assumedVol, timeYears float64, region profitRegion, breakevens []float64) float64 {
	if spot <= 0 || assumedVol <= 0 || len(breakevens) == 0 {
		return 0
	}
	if timeYears < pricing.MinTimeToExpiry {
		timeYears = pricing.MinTimeToExpiry
	}

	scale := assumedVol * math.Sqrt(timeYears)
	z := func(breakeven float64) float64 {
		// A lognormal terminal price is always positive, so a breakeven
		// at or below zero sits below every possible outcome. NormalCDF
		// folds -Inf to exactly 0, keeping every region finite.
		if breakeven <= 0 {
			return math.Inf(-1)
		}
		return math.Log(breakeven/spot) / scale
	}

	sorted := append([]float64(nil), breakevens...)
	sort.Float64s(sorted)

	switch region {
	case profitAbove:
		return 1 - pricing.NormalCDF(z(sorted[0]))
	case profitBelow:
		return pricing.NormalCDF(z(sorted[len(sorted)-1]))
	case profitOutside:
		lower, upper := sorted[0], sorted[len(sorted)-1]
		return pricing.NormalCDF(z(lower)) + (1 - pricing.NormalCDF(z(upper)))
	case profitBetween:
		lower, upper := sorted[0], sorted[len(sorted)-1]
		p := pricing.NormalCDF(z(upper)) - pricing.NormalCDF(z(lower))
		if p < 0 {
			return 0
		}
		return p
	}
	return 0
}

// riskReward returns MaxProfit/MaxLoss, with unbounded profit or a zero
// loss both mapping to +Inf.
func riskReward(maxProfit, maxLoss float64) float64 {
	if math.IsInf(maxProfit, 1) || maxLoss <= 0 {
		return math.Inf(1)
	}
	return maxProfit / maxLoss
}
