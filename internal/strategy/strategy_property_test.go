package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"chainalytics/internal/analytics"
	"chainalytics/internal/chain"
	"chainalytics/internal/models"
)

// propChain builds an enriched chain without a testing.T, for use inside
// gopter properties.
func propChain(spot float64, quotes []quote) (*models.OptionsChain, time.Time, error) {
	expiry := testNow.AddDate(0, 0, 30)
	contracts := make([]models.OptionContract, 0, len(quotes))
	for _, q := range quotes {
		contracts = append(contracts, models.OptionContract{
			Symbol:       "XYZ",
			Strike:       q.strike,
			Expiry:       expiry,
			Type:         q.typ,
			LastPrice:    q.premium,
			OpenInterest: q.oi,
			IV:           q.iv,
		})
	}
	oc, err := chain.NewBuilder(0.05, 0.20, zerolog.Nop()).Build("XYZ", spot, contracts, testNow)
	if err != nil {
		return nil, time.Time{}, err
	}
	if err := analytics.Enrich(oc); err != nil {
		return nil, time.Time{}, err
	}
	return oc, expiry, nil
}

func TestStrategyProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	catalog := NewCatalog(DefaultParams())

	properties.Property("long call never loses more than the premium", prop.ForAll(
		func(spot, strikeOffset, premium float64) bool {
			strike := spot + strikeOffset
			oc, expiry, err := propChain(spot, []quote{{strike, models.Call, premium, 0.25, 100}})
			if err != nil {
				return false
			}
			s, err := catalog.LongCall(oc, strike, expiry)
			if err != nil {
				return false
			}
			if s.MaxLoss != premium {
				return false
			}
			for _, p := range s.Payoff {
				if p.PnL < -s.MaxLoss-1e-9 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(50, 500),
		gen.Float64Range(-20, 20),
		gen.Float64Range(0.5, 30),
	))

	properties.Property("payoff crosses zero at the breakeven", prop.ForAll(
		func(spot, premium float64) bool {
			strike := spot
			oc, expiry, err := propChain(spot, []quote{{strike, models.Call, premium, 0.25, 100}})
			if err != nil {
				return false
			}
			s, err := catalog.LongCall(oc, strike, expiry)
			if err != nil {
				return false
			}
			// Evaluate the analytic payoff, not the sampled curve, so the
			// tolerance is purely numeric.
			return math.Abs(payoffAt(s.Breakevens[0], s.Legs)) < 1e-9
		},
		gen.Float64Range(50, 500),
		gen.Float64Range(0.5, 10),
	))

	properties.Property("bull call spread payoff stays within its bounds", prop.ForAll(
		func(spot, lowerPrem, extra float64) bool {
			k1, k2 := spot, spot+5
			upperPrem := lowerPrem * 0.4
			oc, expiry, err := propChain(spot, []quote{
				{k1, models.Call, lowerPrem + extra, 0.25, 100},
				{k2, models.Call, upperPrem, 0.25, 100},
			})
			if err != nil {
				return false
			}
			s, err := catalog.BullCallSpread(oc, k1, k2, expiry)
			if err != nil {
				return false
			}
			if s.MaxLoss < 0 {
				return false
			}
			for _, p := range s.Payoff {
				if p.PnL > s.MaxProfit+1e-9 || p.PnL < -s.MaxLoss-1e-9 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(80, 300),
		gen.Float64Range(1, 4),
		gen.Float64Range(0.1, 1),
	))

	properties.Property("straddle breakevens straddle the strike symmetrically", prop.ForAll(
		func(spot, callPrem, putPrem float64) bool {
			oc, expiry, err := propChain(spot, []quote{
				{spot, models.Call, callPrem, 0.22, 100},
				{spot, models.Put, putPrem, 0.24, 100},
			})
			if err != nil {
				return false
			}
			s, err := catalog.Straddle(oc, spot, expiry)
			if err != nil {
				return false
			}
			total := callPrem + putPrem
			return len(s.Breakevens) == 2 &&
				math.Abs(s.Breakevens[0]-(spot-total)) < 1e-9 &&
				math.Abs(s.Breakevens[1]-(spot+total)) < 1e-9 &&
				s.MaxLoss == total
		},
		gen.Float64Range(80, 300),
		gen.Float64Range(0.5, 10),
		gen.Float64Range(0.5, 10),
	))

	properties.Property("probability of profit is a probability", prop.ForAll(
		func(spot, premium float64) bool {
			oc, expiry, err := propChain(spot, []quote{{spot, models.Call, premium, 0.25, 100}})
			if err != nil {
				return false
			}
			s, err := catalog.LongCall(oc, spot, expiry)
			if err != nil {
				return false
			}
			return s.ProbabilityOfProfit >= 0 && s.ProbabilityOfProfit <= 1
		},
		gen.Float64Range(50, 500),
		gen.Float64Range(0.5, 30),
	))

	properties.TestingRun(t)
}
