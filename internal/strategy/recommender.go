package strategy

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"chainalytics/internal/errors"
	"chainalytics/internal/models"
)

// Recommendation is the result of one recommendation call. Attempted minus
// Returned tells the caller how many constructors were skipped because the
// chain lacked a required contract.
type Recommendation struct {
	Strategies []*models.OptionStrategy
	Attempted  int
	Returned   int
}

// Recommender selects applicable catalog constructors for a market outlook
// and risk tolerance, invokes them against the chain, and ranks the results.
type Recommender struct {
	catalog *Catalog
	logger  zerolog.Logger
}

// NewRecommender creates a recommender over the given catalog.
func NewRecommender(catalog *Catalog, logger zerolog.Logger) *Recommender {
	return &Recommender{catalog: catalog, logger: logger}
}

type attempt struct {
	name string
	run  func() (*models.OptionStrategy, error)
}

// Recommend builds every strategy applicable to the outlook and risk
// tolerance, using near-the-money strikes from the chain's nearest expiry,
// and returns them sorted descending by risk/reward with unbounded-profit
// strategies first. A constructor failing because a contract is missing
// skips that one strategy; it never aborts the call.
func (r *Recommender) Recommend(oc *models.OptionsChain, outlook models.MarketOutlook, risk models.RiskTolerance) (*Recommendation, error) {
	expiry, ok := oc.NearestExpiry()
	if !ok {
		return nil, errors.Wrapf(errors.ErrEmptyChain, "recommending for %s", oc.Symbol)
	}
	atm, ok := oc.ATMStrike()
	if !ok {
		return nil, errors.Wrapf(errors.ErrEmptyChain, "recommending for %s", oc.Symbol)
	}

	attempts := r.plan(oc, outlook, risk, atm, expiry)

	rec := &Recommendation{Attempted: len(attempts)}
	for _, a := range attempts {
		s, err := a.run()
		if err != nil {
			r.logger.Debug().
				Str("symbol", oc.Symbol).
				Str("strategy", a.name).
				Err(err).
				Msg("Strategy skipped")
			continue
		}
		rec.Strategies = append(rec.Strategies, s)
	}
	rec.Returned = len(rec.Strategies)

	sort.SliceStable(rec.Strategies, func(i, j int) bool {
		a, b := rec.Strategies[i], rec.Strategies[j]
		if a.HasUnboundedProfit() != b.HasUnboundedProfit() {
			return a.HasUnboundedProfit()
		}
		return a.RiskReward > b.RiskReward
	})

	return rec, nil
}

// plan maps (outlook, risk) to the constructor invocations to attempt.
// Bullish: long call and bull call spread, plus a cash-secured put for
// high-risk callers. Bearish mirrors with puts and a covered call. Neutral:
// iron condor, straddle, butterfly.
func (r *Recommender) plan(oc *models.OptionsChain, outlook models.MarketOutlook, risk models.RiskTolerance, atm float64, expiry time.Time) []attempt {
	c := r.catalog

	otmAbove, hasAbove := oc.StrikeAbove(atm)
	otmBelow, hasBelow := oc.StrikeBelow(atm)

	var attempts []attempt
	add := func(name string, run func() (*models.OptionStrategy, error)) {
		attempts = append(attempts, attempt{name: name, run: run})
	}

	switch outlook {
	case models.Bullish:
		add("long call", func() (*models.OptionStrategy, error) {
			return c.LongCall(oc, atm, expiry)
		})
		if hasAbove {
			add("bull call spread", func() (*models.OptionStrategy, error) {
				return c.BullCallSpread(oc, atm, otmAbove, expiry)
			})
		}
		if risk == models.RiskHigh {
			add("cash-secured put", func() (*models.OptionStrategy, error) {
				return c.CashSecuredPut(oc, atm, expiry)
			})
		}

	case models.Bearish:
		add("long put", func() (*models.OptionStrategy, error) {
			return c.LongPut(oc, atm, expiry)
		})
		if hasBelow {
			add("bear put spread", func() (*models.OptionStrategy, error) {
				return c.BearPutSpread(oc, otmBelow, atm, expiry)
			})
		}
		if risk == models.RiskHigh && hasAbove {
			add("covered call", func() (*models.OptionStrategy, error) {
				return c.CoveredCall(oc, otmAbove, expiry)
			})
		}

	case models.Neutral:
		if hasAbove && hasBelow {
			farBelow, hasFarBelow := oc.StrikeBelow(otmBelow)
			farAbove, hasFarAbove := oc.StrikeAbove(otmAbove)
			if hasFarBelow && hasFarAbove {
				add("iron condor", func() (*models.OptionStrategy, error) {
					return c.IronCondor(oc, farBelow, otmBelow, otmAbove, farAbove, expiry)
				})
			}
			add("butterfly", func() (*models.OptionStrategy, error) {
				return c.Butterfly(oc, otmBelow, atm, otmAbove, expiry)
			})
		}
		add("straddle", func() (*models.OptionStrategy, error) {
			return c.Straddle(oc, atm, expiry)
		})
	}

	return attempts
}
