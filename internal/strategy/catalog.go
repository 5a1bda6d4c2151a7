// Package strategy constructs and ranks multi-leg option strategies against
// an enriched options chain.
package strategy

import (
	"math"
	"time"

	"chainalytics/internal/errors"
	"chainalytics/internal/models"
	"chainalytics/internal/pricing"
)

// Params holds the numeric knobs shared by every strategy constructor.
type Params struct {
	// AssumedVolatility drives the probability-of-profit estimate.
	AssumedVolatility float64
	// PayoffWidth is the payoff curve range as a fraction of spot.
	PayoffWidth float64
	// PayoffSamples is the number of points on the payoff curve.
	PayoffSamples int
}

// DefaultParams returns the standard constructor parameters.
func DefaultParams() Params {
	return Params{
		AssumedVolatility: 0.20,
		PayoffWidth:       0.40,
		PayoffSamples:     50,
	}
}

// Catalog is the set of named strategy constructors. Each constructor is a
// pure function from (enriched chain, strike selection, expiry) to a fully
// computed OptionStrategy; it only reads the chain and never mutates
// contracts.
type Catalog struct {
	params Params
}

// NewCatalog creates a strategy catalog. Zero-valued params fall back to
// DefaultParams.
func NewCatalog(p Params) *Catalog {
	def := DefaultParams()
	if p.AssumedVolatility <= 0 {
		p.AssumedVolatility = def.AssumedVolatility
	}
	if p.PayoffWidth <= 0 {
		p.PayoffWidth = def.PayoffWidth
	}
	if p.PayoffSamples < 2 {
		p.PayoffSamples = def.PayoffSamples
	}
	return &Catalog{params: p}
}

func (c *Catalog) call(oc *models.OptionsChain, strike float64, expiry time.Time) (*models.OptionContract, error) {
	if contract, ok := oc.Call(strike, expiry); ok {
		return contract, nil
	}
	return nil, errors.Wrapf(errors.ErrMissingContract, "call %g %s", strike, expiry.Format(models.ExpiryFormat))
}

func (c *Catalog) put(oc *models.OptionsChain, strike float64, expiry time.Time) (*models.OptionContract, error) {
	if contract, ok := oc.Put(strike, expiry); ok {
		return contract, nil
	}
	return nil, errors.Wrapf(errors.ErrMissingContract, "put %g %s", strike, expiry.Format(models.ExpiryFormat))
}

// assemble finalizes a strategy: payoff curve, probability of profit and
// risk/reward. maxLoss must come out non-negative or the selection is
// rejected rather than returned with a broken invariant.
func (c *Catalog) assemble(
	oc *models.OptionsChain,
	expiry time.Time,
	name string,
	bias models.MarketOutlook,
	tier models.ComplexityTier,
	legs []models.StrategyLeg,
	maxProfit, maxLoss, margin float64,
	region profitRegion,
	breakevens []float64,
	curve []models.PayoffPoint,
) (*models.OptionStrategy, error) {
	if len(legs) == 0 {
		return nil, errors.NewValidationError("legs", 0, "strategy requires at least one leg")
	}
	if maxLoss < 0 {
		return nil, errors.NewValidationError("maxLoss", maxLoss, "selection prices to a negative loss; rejecting")
	}

	tte := pricing.TimeToExpiryYears(expiry, oc.SnapshotTime)
	return &models.OptionStrategy{
		Name:                name,
		Bias:                bias,
		Complexity:          tier,
		Legs:                legs,
		MaxProfit:           maxProfit,
		MaxLoss:             maxLoss,
		Breakevens:          breakevens,
		ProbabilityOfProfit: probabilityOfProfit(oc.SpotPrice, c.params.AssumedVolatility, tte, region, breakevens),
		MarginRequired:      margin,
		RiskReward:          riskReward(maxProfit, maxLoss),
		Payoff:              curve,
	}, nil
}

func (c *Catalog) curve(oc *models.OptionsChain, legs []models.StrategyLeg) []models.PayoffPoint {
	return payoffCurve(oc.SpotPrice, c.params.PayoffWidth, c.params.PayoffSamples, legs)
}

// LongCall buys a single call. Loss is capped at the premium paid; profit is
// unbounded above the breakeven.
func (c *Catalog) LongCall(oc *models.OptionsChain, strike float64, expiry time.Time) (*models.OptionStrategy, error) {
	contract, err := c.call(oc, strike, expiry)
	if err != nil {
		return nil, err
	}

	premium := contract.Premium()
	legs := []models.StrategyLeg{{Action: models.Buy, Contract: contract, Quantity: 1}}
	return c.assemble(oc, expiry, "Long Call", models.Bullish, models.TierBasic, legs,
		math.Inf(1), premium, premium,
		profitAbove, []float64{strike + premium}, c.curve(oc, legs))
}

// LongPut buys a single put. Profit is capped by the underlying flooring at
// zero: strike minus premium.
func (c *Catalog) LongPut(oc *models.OptionsChain, strike float64, expiry time.Time) (*models.OptionStrategy, error) {
	contract, err := c.put(oc, strike, expiry)
	if err != nil {
		return nil, err
	}

	premium := contract.Premium()
	if premium >= strike {
		return nil, errors.NewValidationError("premium", premium, "put quoted at or above its strike; rejecting")
	}
	legs := []models.StrategyLeg{{Action: models.Buy, Contract: contract, Quantity: 1}}
	return c.assemble(oc, expiry, "Long Put", models.Bearish, models.TierBasic, legs,
		strike-premium, premium, premium,
		profitBelow, []float64{strike - premium}, c.curve(oc, legs))
}

// BullCallSpread buys the lower-strike call and sells the higher-strike call
// at the same expiry.
func (c *Catalog) BullCallSpread(oc *models.OptionsChain, lowerStrike, upperStrike float64, expiry time.Time) (*models.OptionStrategy, error) {
	if lowerStrike >= upperStrike {
		return nil, errors.NewValidationError("strikes", lowerStrike, "lower strike must be below upper strike")
	}
	long, err := c.call(oc, lowerStrike, expiry)
	if err != nil {
		return nil, err
	}
	short, err := c.call(oc, upperStrike, expiry)
	if err != nil {
		return nil, err
	}

	net := long.Premium() - short.Premium()
	if net <= 0 {
		return nil, errors.NewValidationError("netPremium", net, "spread prices to a non-positive debit")
	}

	legs := []models.StrategyLeg{
		{Action: models.Buy, Contract: long, Quantity: 1},
		{Action: models.Sell, Contract: short, Quantity: 1},
	}
	return c.assemble(oc, expiry, "Bull Call Spread", models.Bullish, models.TierIntermediate, legs,
		(upperStrike-lowerStrike)-net, net, net,
		profitAbove, []float64{lowerStrike + net}, c.curve(oc, legs))
}

// BearPutSpread buys the higher-strike put and sells the lower-strike put at
// the same expiry.
func (c *Catalog) BearPutSpread(oc *models.OptionsChain, lowerStrike, upperStrike float64, expiry time.Time) (*models.OptionStrategy, error) {
	if lowerStrike >= upperStrike {
		return nil, errors.NewValidationError("strikes", lowerStrike, "lower strike must be below upper strike")
	}
	long, err := c.put(oc, upperStrike, expiry)
	if err != nil {
		return nil, err
	}
	short, err := c.put(oc, lowerStrike, expiry)
	if err != nil {
		return nil, err
	}

	net := long.Premium() - short.Premium()
	if net <= 0 {
		return nil, errors.NewValidationError("netPremium", net, "spread prices to a non-positive debit")
	}

	legs := []models.StrategyLeg{
		{Action: models.Buy, Contract: long, Quantity: 1},
		{Action: models.Sell, Contract: short, Quantity: 1},
	}
	return c.assemble(oc, expiry, "Bear Put Spread", models.Bearish, models.TierIntermediate, legs,
		(upperStrike-lowerStrike)-net, net, net,
		profitBelow, []float64{upperStrike - net}, c.curve(oc, legs))
}

// CashSecuredPut sells a put backed by cash collateral equal to the strike.
// The collateral is not a chain leg; it is recorded as the margin
// requirement.
func (c *Catalog) CashSecuredPut(oc *models.OptionsChain, strike float64, expiry time.Time) (*models.OptionStrategy, error) {
	contract, err := c.put(oc, strike, expiry)
	if err != nil {
		return nil, err
	}

	premium := contract.Premium()
	legs := []models.StrategyLeg{{Action: models.Sell, Contract: contract, Quantity: 1}}
	return c.assemble(oc, expiry, "Cash-Secured Put", models.Bullish, models.TierIntermediate, legs,
		premium, strike-premium, strike,
		profitAbove, []float64{strike - premium}, c.curve(oc, legs))
}

// CoveredCall sells a call against an assumed holding of the underlying.
// The holding is not a chain leg; it is recorded as margin (the spot value
// tied up) and folded into the payoff curve and bounds. It is an income
// position with capped upside, profitable anywhere above spot minus the
// premium, so it carries a neutral bias rather than inheriting the outlook
// it was requested under.
func (c *Catalog) CoveredCall(oc *models.OptionsChain, strike float64, expiry time.Time) (*models.OptionStrategy, error) {
	contract, err := c.call(oc, strike, expiry)
	if err != nil {
		return nil, err
	}
	if strike < oc.SpotPrice {
		return nil, errors.NewValidationError("strike", strike, "covered call strike must be at or above spot")
	}

	premium := contract.Premium()
	spot := oc.SpotPrice
	legs := []models.StrategyLeg{{Action: models.Sell, Contract: contract, Quantity: 1}}

	curve := c.curve(oc, legs)
	for i := range curve {
		curve[i].PnL += curve[i].Price - spot
	}

	return c.assemble(oc, expiry, "Covered Call", models.Neutral, models.TierIntermediate, legs,
		(strike-spot)+premium, spot-premium, spot,
		profitAbove, []float64{spot - premium}, curve)
}

// Straddle buys a call and a put at the same strike and expiry. Profit is
// unbounded on either side beyond the two breakevens.
func (c *Catalog) Straddle(oc *models.OptionsChain, strike float64, expiry time.Time) (*models.OptionStrategy, error) {
	call, err := c.call(oc, strike, expiry)
	if err != nil {
		return nil, err
	}
	put, err := c.put(oc, strike, expiry)
	if err != nil {
		return nil, err
	}

	total := call.Premium() + put.Premium()
	legs := []models.StrategyLeg{
		{Action: models.Buy, Contract: call, Quantity: 1},
		{Action: models.Buy, Contract: put, Quantity: 1},
	}
	return c.assemble(oc, expiry, "Long Straddle", models.Neutral, models.TierIntermediate, legs,
		math.Inf(1), total, total,
		profitOutside, []float64{strike - total, strike + total}, c.curve(oc, legs))
}

// IronCondor sells an OTM put spread and an OTM call spread for a net
// credit. Both profit and loss are bounded.
func (c *Catalog) IronCondor(oc *models.OptionsChain, putLong, putShort, callShort, callLong float64, expiry time.Time) (*models.OptionStrategy, error) {
	if !(putLong < putShort && putShort < callShort && callShort < callLong) {
		return nil, errors.NewValidationError("strikes", putLong, "condor strikes must be strictly ascending")
	}

	longPut, err := c.put(oc, putLong, expiry)
	if err != nil {
		return nil, err
	}
	shortPut, err := c.put(oc, putShort, expiry)
	if err != nil {
		return nil, err
	}
	shortCall, err := c.call(oc, callShort, expiry)
	if err != nil {
		return nil, err
	}
	longCall, err := c.call(oc, callLong, expiry)
	if err != nil {
		return nil, err
	}

	credit := (shortPut.Premium() - longPut.Premium()) + (shortCall.Premium() - longCall.Premium())
	if credit <= 0 {
		return nil, errors.NewValidationError("netCredit", credit, "condor prices to a non-positive credit")
	}

	width := math.Min(putShort-putLong, callLong-callShort)
	legs := []models.StrategyLeg{
		{Action: models.Buy, Contract: longPut, Quantity: 1},
		{Action: models.Sell, Contract: shortPut, Quantity: 1},
		{Action: models.Sell, Contract: shortCall, Quantity: 1},
		{Action: models.Buy, Contract: longCall, Quantity: 1},
	}
	return c.assemble(oc, expiry, "Iron Condor", models.Neutral, models.TierAdvanced, legs,
		credit, width-credit, width-credit,
		profitBetween, []float64{putShort - credit, callShort + credit}, c.curve(oc, legs))
}

// Butterfly buys one call below, sells two at the middle strike, and buys
// one above, all at the same expiry.
func (c *Catalog) Butterfly(oc *models.OptionsChain, lowStrike, midStrike, highStrike float64, expiry time.Time) (*models.OptionStrategy, error) {
	if !(lowStrike < midStrike && midStrike < highStrike) {
		return nil, errors.NewValidationError("strikes", midStrike, "butterfly strikes must be strictly ascending")
	}

	low, err := c.call(oc, lowStrike, expiry)
	if err != nil {
		return nil, err
	}
	mid, err := c.call(oc, midStrike, expiry)
	if err != nil {
		return nil, err
	}
	high, err := c.call(oc, highStrike, expiry)
	if err != nil {
		return nil, err
	}

	debit := low.Premium() - 2*mid.Premium() + high.Premium()
	if debit <= 0 {
		return nil, errors.NewValidationError("netPremium", debit, "butterfly prices to a non-positive debit")
	}

	legs := []models.StrategyLeg{
		{Action: models.Buy, Contract: low, Quantity: 1},
		{Action: models.Sell, Contract: mid, Quantity: 2},
		{Action: models.Buy, Contract: high, Quantity: 1},
	}
	return c.assemble(oc, expiry, "Long Butterfly", models.Neutral, models.TierAdvanced, legs,
		(midStrike-lowStrike)-debit, debit, debit,
		profitBetween, []float64{lowStrike + debit, highStrike - debit}, c.curve(oc, legs))
}
