package models

import (
	"fmt"
	"math"
	"strings"
)

// MarketOutlook is the caller's directional view on the underlying.
type MarketOutlook string

const (
	Bullish MarketOutlook = "BULLISH"
	Bearish MarketOutlook = "BEARISH"
	Neutral MarketOutlook = "NEUTRAL"
)

// RiskTolerance gates which strategies the recommender will attempt.
type RiskTolerance string

const (
	RiskLow    RiskTolerance = "LOW"
	RiskMedium RiskTolerance = "MEDIUM"
	RiskHigh   RiskTolerance = "HIGH"
)

// ParseOutlook converts user input into a MarketOutlook.
func ParseOutlook(s string) (MarketOutlook, error) {
	switch MarketOutlook(strings.ToUpper(strings.TrimSpace(s))) {
	case Bullish:
		return Bullish, nil
	case Bearish:
		return Bearish, nil
	case Neutral:
		return Neutral, nil
	}
	return "", fmt.Errorf("unknown outlook %q: want bullish, bearish, or neutral", s)
}

// ParseRisk converts user input into a RiskTolerance.
func ParseRisk(s string) (RiskTolerance, error) {
	switch RiskTolerance(strings.ToUpper(strings.TrimSpace(s))) {
	case RiskLow:
		return RiskLow, nil
	case RiskMedium:
		return RiskMedium, nil
	case RiskHigh:
		return RiskHigh, nil
	}
	return "", fmt.Errorf("unknown risk tolerance %q: want low, medium, or high", s)
}

// LegAction is the direction of a strategy leg.
type LegAction string

const (
	Buy  LegAction = "BUY"
	Sell LegAction = "SELL"
)

// ComplexityTier classifies a strategy by its structural complexity.
type ComplexityTier string

const (
	TierBasic        ComplexityTier = "BASIC"        // single leg
	TierIntermediate ComplexityTier = "INTERMEDIATE" // two legs or covered
	TierAdvanced     ComplexityTier = "ADVANCED"     // three or more legs
)

// StrategyLeg is one constituent option position within a strategy.
type StrategyLeg struct {
	Action   LegAction
	Contract *OptionContract
	Quantity int
}

// PayoffPoint is one (underlying price, P&L) sample of a payoff curve.
type PayoffPoint struct {
	Price float64
	PnL   float64
}

// OptionStrategy is a fully specified, evaluated combination of option legs.
// Catalog constructors return it as an immutable result value; the
// recommender only reads and sorts these.
type OptionStrategy struct {
	Name       string
	Bias       MarketOutlook
	Complexity ComplexityTier
	Legs       []StrategyLeg

	MaxProfit           float64 // math.Inf(1) when unbounded
	MaxLoss             float64 // always bounded and non-negative
	Breakevens          []float64
	ProbabilityOfProfit float64
	MarginRequired      float64
	RiskReward          float64 // MaxProfit / MaxLoss
	Payoff              []PayoffPoint
}

// HasUnboundedProfit reports whether the strategy's profit is theoretically
// unlimited.
func (s *OptionStrategy) HasUnboundedProfit() bool {
	return math.IsInf(s.MaxProfit, 1)
}

// NetPremium returns the signed premium across legs: positive when the
// strategy is a net debit (premium paid), negative when a net credit.
func (s *OptionStrategy) NetPremium() float64 {
	var net float64
	for _, leg := range s.Legs {
		premium := leg.Contract.Premium() * float64(leg.Quantity)
		if leg.Action == Buy {
			net += premium
		} else {
			net -= premium
		}
	}
	return net
}
