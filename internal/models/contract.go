// Package models defines the core data types for the options analytics engine.
package models

import "time"

// OptionType identifies the side of an option contract.
type OptionType string

const (
	// Call is a call option.
	Call OptionType = "CALL"
	// Put is a put option.
	Put OptionType = "PUT"
)

// Greeks holds the five Black-Scholes sensitivities of a contract.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// OptionContract represents one tradable option instrument.
//
// A contract is constructed fresh for every snapshot and treated as a value
// object: once the chain builder has attached Greeks, nothing mutates it.
type OptionContract struct {
	Symbol       string
	Strike       float64
	Expiry       time.Time
	Type         OptionType
	LastPrice    float64
	Bid          float64
	Ask          float64
	BidSize      int64
	AskSize      int64
	Volume       int64
	OpenInterest int64
	IV           float64 // fractional, 0.20 = 20%
	Greeks       Greeks
}

// IsCall reports whether the contract is a call.
func (c *OptionContract) IsCall() bool {
	return c.Type == Call
}

// MidPrice returns the bid/ask midpoint, falling back to the last traded
// price when the book is one-sided or empty.
func (c *OptionContract) MidPrice() float64 {
	if c.Bid > 0 && c.Ask > 0 {
		return (c.Bid + c.Ask) / 2
	}
	return c.LastPrice
}

// Premium returns the price used for strategy P&L: last traded price when
// available, otherwise the midpoint.
func (c *OptionContract) Premium() float64 {
	if c.LastPrice > 0 {
		return c.LastPrice
	}
	return c.MidPrice()
}

// IntrinsicValue returns the exercise value of the contract at the given
// underlying price.
func (c *OptionContract) IntrinsicValue(underlying float64) float64 {
	if c.Type == Call {
		if underlying > c.Strike {
			return underlying - c.Strike
		}
		return 0
	}
	if c.Strike > underlying {
		return c.Strike - underlying
	}
	return 0
}

// HasGreeks reports whether Greeks have been computed for the contract.
// A delta of exactly zero means "not yet computed".
func (c *OptionContract) HasGreeks() bool {
	return c.Greeks.Delta != 0
}
