package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chainalytics/internal/models"
)

func newChainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain <symbol>",
		Short: "Display the enriched option chain",
		Long: `Display the option chain for a symbol.

Shows calls and puts side by side with premiums, open interest, IV and
delta, plus the chain-level analytics: max pain, put/call ratio, ATM IV,
and open-interest support/resistance levels.`,
		Example: `  chainalytics chain XYZ
  chainalytics chain XYZ --expiry 2026-10-01
  chainalytics chain XYZ --strikes 5 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			expiryStr, _ := cmd.Flags().GetString("expiry")
			strikes, _ := cmd.Flags().GetInt("strikes")
			refresh, _ := cmd.Flags().GetBool("refresh")

			var expiry time.Time
			if expiryStr != "" {
				var err error
				expiry, err = time.Parse(models.ExpiryFormat, expiryStr)
				if err != nil {
					output.Error("Invalid expiry format. Use YYYY-MM-DD")
					return err
				}
			}

			if refresh {
				app.Engine.Refresh(symbol)
			}

			oc, err := app.Engine.GetOptionsChain(ctx, symbol, expiry)
			if err != nil {
				output.Error("Failed to get option chain: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(chainView(oc))
			}
			displayChain(output, oc, strikes)
			return nil
		},
	}

	cmd.Flags().String("expiry", "", "Expiry date (YYYY-MM-DD)")
	cmd.Flags().Int("strikes", 10, "Number of strikes to show around ATM")
	cmd.Flags().Bool("refresh", false, "Bypass the snapshot cache")

	return cmd
}

func displayChain(output *Output, oc *models.OptionsChain, strikes int) {
	output.Bold("Option Chain - %s", oc.Symbol)
	output.Printf("  Spot: %s  Snapshot: %s\n", FormatPrice(oc.SpotPrice), oc.SnapshotTime.Format("02-Jan-2006 15:04"))
	output.Println()

	displayAnalytics(output, oc)
	output.Println()

	expiry, ok := oc.NearestExpiry()
	if !ok {
		output.Warning("Chain has no expiries")
		return
	}
	output.Info("Nearest expiry: %s", FormatDate(expiry))

	atm, _ := oc.ATMStrike()

	table := NewTable(output,
		"Call Prem", "Call OI", "Call IV", "Call Δ",
		"Strike",
		"Put Δ", "Put IV", "Put OI", "Put Prem")

	shown := 0
	for _, strike := range oc.Strikes {
		if strikes > 0 && distanceInStrikes(oc.Strikes, strike, atm) > strikes {
			continue
		}

		callPrem, callOI, callIV, callDelta := "-", "-", "-", "-"
		if c, ok := oc.Call(strike, expiry); ok {
			callPrem = FormatPrice(c.Premium())
			callOI = FormatOI(c.OpenInterest)
			callIV = FormatIV(c.IV)
			callDelta = FormatRatio(c.Greeks.Delta)
		}

		putPrem, putOI, putIV, putDelta := "-", "-", "-", "-"
		if p, ok := oc.Put(strike, expiry); ok {
			putPrem = FormatPrice(p.Premium())
			putOI = FormatOI(p.OpenInterest)
			putIV = FormatIV(p.IV)
			putDelta = FormatRatio(p.Greeks.Delta)
		}

		strikeStr := FormatPrice(strike)
		if strike == atm {
			strikeStr = output.BoldText(strikeStr)
		}

		table.AddRow(callPrem, callOI, callIV, callDelta, strikeStr, putDelta, putIV, putOI, putPrem)
		shown++
	}
	table.Render()

	if shown < len(oc.Strikes) {
		output.Dim("Showing %d of %d strikes. Use --strikes to widen.", shown, len(oc.Strikes))
	}
}

func displayAnalytics(output *Output, oc *models.OptionsChain) {
	output.Bold("Analytics")
	output.Printf("  Max Pain:       %s\n", FormatPrice(oc.MaxPain))
	output.Printf("  Put/Call Ratio: %.2f\n", oc.PutCallRatio)
	output.Printf("  ATM IV:         %s\n", FormatIV(oc.ATMIV))
	output.Printf("  Support:        %s\n", FormatStrikes(oc.SupportLevels))
	output.Printf("  Resistance:     %s\n", FormatStrikes(oc.ResistanceLevels))
	output.Printf("  Agg Delta:      %.1f  Agg Gamma: %.3f\n", oc.AggregateGreeks.Delta, oc.AggregateGreeks.Gamma)
}

// distanceInStrikes counts how many listed strikes sit between strike and
// atm, so the display window adapts to irregular strike spacing.
func distanceInStrikes(strikes []float64, strike, atm float64) int {
	lo, hi := strike, atm
	if lo > hi {
		lo, hi = hi, lo
	}
	n := 0
	for _, s := range strikes {
		if s > lo && s <= hi {
			n++
		}
	}
	return n
}

// chainView shapes an OptionsChain for JSON output: maps keyed by struct
// keys do not marshal, so contracts are flattened into a list.
type contractView struct {
	Strike       float64       `json:"strike"`
	Expiry       string        `json:"expiry"`
	Type         string        `json:"type"`
	Premium      float64       `json:"premium"`
	OpenInterest int64         `json:"open_interest"`
	Volume       int64         `json:"volume"`
	IV           float64       `json:"iv"`
	Greeks       models.Greeks `json:"greeks"`
}

type chainJSON struct {
	Symbol           string             `json:"symbol"`
	SpotPrice        float64            `json:"spot_price"`
	SnapshotTime     time.Time          `json:"snapshot_time"`
	MaxPain          float64            `json:"max_pain"`
	PutCallRatio     float64            `json:"put_call_ratio"`
	ATMIV            float64            `json:"atm_iv"`
	SupportLevels    []float64          `json:"support_levels"`
	ResistanceLevels []float64          `json:"resistance_levels"`
	SkewCurve        []models.SkewPoint `json:"skew_curve"`
	Contracts        []contractView     `json:"contracts"`
}

func chainView(oc *models.OptionsChain) chainJSON {
	contracts := make([]contractView, 0, len(oc.Calls)+len(oc.Puts))
	for _, c := range oc.Contracts() {
		contracts = append(contracts, contractView{
			Strike:       c.Strike,
			Expiry:       c.Expiry.Format(models.ExpiryFormat),
			Type:         string(c.Type),
			Premium:      c.Premium(),
			OpenInterest: c.OpenInterest,
			Volume:       c.Volume,
			IV:           c.IV,
			Greeks:       c.Greeks,
		})
	}
	return chainJSON{
		Symbol:           oc.Symbol,
		SpotPrice:        oc.SpotPrice,
		SnapshotTime:     oc.SnapshotTime,
		MaxPain:          oc.MaxPain,
		PutCallRatio:     oc.PutCallRatio,
		ATMIV:            oc.ATMIV,
		SupportLevels:    oc.SupportLevels,
		ResistanceLevels: oc.ResistanceLevels,
		SkewCurve:        oc.SkewCurve,
		Contracts:        contracts,
	}
}
