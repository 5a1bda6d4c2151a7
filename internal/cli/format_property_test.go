package cli

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// FormatPrice must group digits in threes, keep exactly two decimals, and
// parse back to the value it was given.
func TestFormatPriceProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatPrice round-trips through ParseFloat", prop.ForAll(
		func(value float64) bool {
			formatted := FormatPrice(value)

			parts := strings.Split(formatted, ".")
			if len(parts) != 2 || len(parts[1]) != 2 {
				return false
			}

			bare := strings.ReplaceAll(formatted, ",", "")
			parsed, err := strconv.ParseFloat(bare, 64)
			if err != nil {
				return false
			}
			return math.Abs(parsed-value) < 0.005+math.Abs(value)*1e-12
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.Property("FormatPrice groups digits in threes", prop.ForAll(
		func(value float64) bool {
			formatted := FormatPrice(value)
			intPart := strings.Split(strings.TrimPrefix(formatted, "-"), ".")[0]

			groups := strings.Split(intPart, ",")
			if len(groups[0]) < 1 || len(groups[0]) > 3 {
				return false
			}
			for _, g := range groups[1:] {
				if len(g) != 3 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(0, 1e12),
	))

	properties.TestingRun(t)
}

func TestFormatProfitUnlimited(t *testing.T) {
	if got := FormatProfit(math.Inf(1)); got != "Unlimited" {
		t.Errorf("FormatProfit(+Inf) = %q, want Unlimited", got)
	}
	if got := FormatProfit(1234.5); got != "1,234.50" {
		t.Errorf("FormatProfit(1234.5) = %q", got)
	}
}

func TestFormatOI(t *testing.T) {
	cases := []struct {
		oi   int64
		want string
	}{
		{0, "0"},
		{950, "950"},
		{1500, "1.5K"},
		{2_300_000, "2.3M"},
	}
	for _, c := range cases {
		if got := FormatOI(c.oi); got != c.want {
			t.Errorf("FormatOI(%d) = %q, want %q", c.oi, got, c.want)
		}
	}
}
