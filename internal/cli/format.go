package cli

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FormatPrice formats a price with two decimals and thousands separators.
func FormatPrice(value float64) string {
	negative := value < 0
	if negative {
		value = -value
	}

	str := fmt.Sprintf("%.2f", value)
	parts := strings.Split(str, ".")

	result := groupThousands(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

// groupThousands inserts commas every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatProfit renders a bounded amount as a price and an unbounded one as
// "Unlimited".
func FormatProfit(value float64) string {
	if math.IsInf(value, 1) {
		return "Unlimited"
	}
	return FormatPrice(value)
}

// FormatRatio renders a risk/reward ratio; unbounded ratios show as an
// infinity sign since they carry no ordering information beyond "unlimited".
func FormatRatio(value float64) string {
	if math.IsInf(value, 1) {
		return "∞"
	}
	return fmt.Sprintf("%.2f", value)
}

// FormatIV renders an implied volatility fraction as a percentage.
func FormatIV(iv float64) string {
	return fmt.Sprintf("%.1f%%", iv*100)
}

// FormatPercent formats a fraction as a percentage with one decimal.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", value*100)
}

// FormatOI formats open interest compactly: 12.5K, 3.2M.
func FormatOI(oi int64) string {
	switch {
	case oi >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(oi)/1_000_000)
	case oi >= 1_000:
		return fmt.Sprintf("%.1fK", float64(oi)/1_000)
	}
	return fmt.Sprintf("%d", oi)
}

// FormatDate formats a date for display.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02-Jan-2006")
}

// FormatStrikes renders a strike list like "95, 100, 105".
func FormatStrikes(strikes []float64) string {
	if len(strikes) == 0 {
		return "-"
	}
	parts := make([]string, len(strikes))
	for i, s := range strikes {
		parts[i] = fmt.Sprintf("%g", s)
	}
	return strings.Join(parts, ", ")
}
