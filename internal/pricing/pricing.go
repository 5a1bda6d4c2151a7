// Package pricing provides stateless numerical primitives for option
// analytics: the standard normal distribution and Black-Scholes Greeks.
package pricing

import (
	"math"
	"time"

	"chainalytics/internal/errors"
	"chainalytics/internal/models"
)

const (
	// MinTimeToExpiry floors time-to-expiry at one day to avoid division
	// by zero for same-day expiries.
	MinTimeToExpiry = 1.0 / 365.0

	daysPerYear = 365.0
)

// Abramowitz-Stegun 7.1.26 coefficients for the error function.
const (
	asA1 = 0.254829592
	asA2 = -0.284496736
	asA3 = 1.421413741
	asA4 = -1.453152027
	asA5 = 1.061405429
	asP  = 0.3275911
)

// NormalCDF returns the standard normal cumulative distribution at x, using
// the Abramowitz-Stegun five-term polynomial approximation of erf. Accurate
// to about 1.5e-7, which is plenty for Greeks.
func NormalCDF(x float64) float64 {
	sign := 1.0
	z := x / math.Sqrt2
	if z < 0 {
		sign = -1.0
		z = -z
	}

	t := 1.0 / (1.0 + asP*z)
	poly := t * (asA1 + t*(asA2+t*(asA3+t*(asA4+t*asA5))))
	erf := 1.0 - poly*math.Exp(-z*z)

	return 0.5 * (1.0 + sign*erf)
}

// NormalPDF returns the standard Gaussian density at x.
func NormalPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

// TimeToExpiryYears returns the year fraction between now and expiry,
// floored at MinTimeToExpiry.
func TimeToExpiryYears(expiry, now time.Time) float64 {
	years := expiry.Sub(now).Hours() / 24.0 / daysPerYear
	if years < MinTimeToExpiry {
		return MinTimeToExpiry
	}
	return years
}

// BlackScholesGreeks computes the five Black-Scholes partials for one
// contract. Theta is per-day decay; vega and rho are scaled per 1% move in
// volatility and rate respectively.
//
// Preconditions: spot > 0, strike > 0, iv > 0. Callers substitute a default
// IV before calling when the feed supplies none; a zero IV here is an error,
// never a silent NaN. Time-to-expiry is floored at MinTimeToExpiry.
func BlackScholesGreeks(spot, strike, riskFreeRate, timeYears, iv float64, optType models.OptionType) (models.Greeks, error) {
	if spot <= 0 {
		return models.Greeks{}, errors.NewValidationError("spot", spot, "must be positive")
	}
	if strike <= 0 {
		return models.Greeks{}, errors.NewValidationError("strike", strike, "must be positive")
	}
	if iv <= 0 {
		return models.Greeks{}, errors.NewValidationError("impliedVolatility", iv, "must be positive")
	}
	if optType != models.Call && optType != models.Put {
		return models.Greeks{}, errors.NewValidationError("optionType", optType, "must be CALL or PUT")
	}

	if timeYears < MinTimeToExpiry {
		timeYears = MinTimeToExpiry
	}

	sqrtT := math.Sqrt(timeYears)
	d1 := (math.Log(spot/strike) + (riskFreeRate+0.5*iv*iv)*timeYears) / (iv * sqrtT)
	d2 := d1 - iv*sqrtT

	nd1 := NormalPDF(d1)
	discount := math.Exp(-riskFreeRate * timeYears)

	g := models.Greeks{
		Gamma: nd1 / (spot * iv * sqrtT),
		Vega:  spot * nd1 * sqrtT / 100,
	}

	if optType == models.Call {
		g.Delta = NormalCDF(d1)
		g.Theta = (-spot*nd1*iv/(2*sqrtT) - riskFreeRate*strike*discount*NormalCDF(d2)) / daysPerYear
		g.Rho = strike * timeYears * discount * NormalCDF(d2) / 100
	} else {
		g.Delta = NormalCDF(d1) - 1
		g.Theta = (-spot*nd1*iv/(2*sqrtT) + riskFreeRate*strike*discount*NormalCDF(-d2)) / daysPerYear
		g.Rho = -strike * timeYears * discount * NormalCDF(-d2) / 100
	}

	return g, nil
}
