package strategy

import (
	"math"
	"testing"

	"chainalytics/internal/models"
)

func TestProbabilityOfProfitNonPositiveBreakeven(t *testing.T) {
	// The underlying can never finish at or below zero, so a non-positive
	// breakeven collapses to a certainty on one side, never NaN.
	cases := []struct {
		name       string
		region     profitRegion
		breakevens []float64
		want       float64
	}{
		{"below negative breakeven is impossible", profitBelow, []float64{-105}, 0},
		{"below zero breakeven is impossible", profitBelow, []float64{0}, 0},
		{"above negative breakeven is certain", profitAbove, []float64{-105}, 1},
		{"outside with one degenerate side", profitOutside, []float64{-105, 120}, 0}, // checked as finite in-range below
	}
	for _, c := range cases {
		got := probabilityOfProfit(100, 0.20, 1.0, c.region, c.breakevens)
		if math.IsNaN(got) {
			t.Errorf("%s: pop is NaN", c.name)
			continue
		}
		if c.region == profitOutside {
			// The degenerate lower tail contributes exactly 0; only the
			// upper tail remains, which must be a plain finite probability.
			if got <= 0 || got >= 1 {
				t.Errorf("%s: pop = %v, want in (0,1)", c.name, got)
			}
			continue
		}
		if got != c.want {
			t.Errorf("%s: pop = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestProbabilityOfProfitAlwaysFinite(t *testing.T) {
	regions := []profitRegion{profitAbove, profitBelow, profitOutside, profitBetween}
	breakevens := [][]float64{{-50}, {0}, {-50, 150}, {0, 0}}
	for _, region := range regions {
		for _, bes := range breakevens {
			got := probabilityOfProfit(100, 0.20, 0.1, region, bes)
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Errorf("region %d breakevens %v: pop = %v, must be finite", region, bes, got)
			}
			if got < 0 || got > 1 {
				t.Errorf("region %d breakevens %v: pop = %v, outside [0,1]", region, bes, got)
			}
		}
	}
}

func TestLongPutRejectsPremiumAboveStrike(t *testing.T) {
	// A put quoted above its own strike would price to a negative max
	// profit and a negative breakeven; the constructor rejects it instead
	// of emitting NaN downstream.
	oc, expiry := testChain(t, 100, []quote{
		{95, models.Put, 200, 0.28, 800},
	})
	s, err := NewCatalog(DefaultParams()).LongPut(oc, 95, expiry)
	if err == nil {
		t.Fatalf("long put accepted premium 200 at strike 95: %+v", s)
	}
}

func TestLongPutAtStrikePremiumBoundary(t *testing.T) {
	oc, expiry := testChain(t, 100, []quote{
		{95, models.Put, 95, 0.28, 800},
	})
	if _, err := NewCatalog(DefaultParams()).LongPut(oc, 95, expiry); err == nil {
		t.Fatal("long put accepted premium equal to strike")
	}
}
