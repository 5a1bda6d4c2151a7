package cli

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chainalytics/internal/models"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Recommend option strategies for a market outlook",
		Long: `Analyze the option chain and recommend strategies.

Given a directional outlook (bullish, bearish, neutral) and a risk
tolerance (low, medium, high), builds every applicable strategy from the
catalog against near-the-money contracts and ranks them by risk/reward,
with unlimited-profit strategies first.`,
		Example: `  chainalytics analyze XYZ --outlook bullish
  chainalytics analyze XYZ --outlook neutral --risk high
  chainalytics analyze XYZ --outlook bearish --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			outlookStr, _ := cmd.Flags().GetString("outlook")
			riskStr, _ := cmd.Flags().GetString("risk")

			outlook, err := models.ParseOutlook(outlookStr)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			risk, err := models.ParseRisk(riskStr)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			rec, err := app.Engine.AnalyzeOptionStrategies(ctx, symbol, outlook, risk)
			if err != nil {
				output.Error("Failed to analyze strategies: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(recommendationView(rec.Strategies, rec.Attempted))
			}
			displayRecommendation(output, symbol, outlook, rec.Strategies, rec.Attempted)
			return nil
		},
	}

	cmd.Flags().String("outlook", "", "Market outlook: bullish, bearish, or neutral (required)")
	cmd.Flags().String("risk", "medium", "Risk tolerance: low, medium, or high")
	cmd.MarkFlagRequired("outlook")

	return cmd
}

func displayRecommendation(output *Output, symbol string, outlook models.MarketOutlook, strategies []*models.OptionStrategy, attempted int) {
	output.Bold("Strategy Recommendations - %s (%s)", symbol, outlook)
	output.Println()

	if len(strategies) == 0 {
		output.Warning("No applicable strategies could be built from this chain")
		output.Dim("Attempted %d; the chain may be missing required contracts.", attempted)
		return
	}

	for i, s := range strategies {
		biasColor := output.BiasColor(string(s.Bias))
		output.Printf("%d. %s %s\n",
			i+1,
			output.BoldText(s.Name),
			output.ColoredString(biasColor, "["+string(s.Bias)+"]"))
		output.Printf("   Complexity: %s\n", strings.ToLower(string(s.Complexity)))

		for _, leg := range s.Legs {
			action := output.Green(string(leg.Action))
			if leg.Action == models.Sell {
				action = output.Red(string(leg.Action))
			}
			output.Printf("   %s %dx %s %s @ %s\n",
				action,
				leg.Quantity,
				FormatPrice(leg.Contract.Strike),
				leg.Contract.Type,
				FormatPrice(leg.Contract.Premium()))
		}

		output.Printf("   Max Profit: %s   Max Loss: %s   R/R: %s\n",
			output.Green(FormatProfit(s.MaxProfit)),
			output.Red(FormatPrice(s.MaxLoss)),
			FormatRatio(s.RiskReward))
		output.Printf("   Breakevens: %s   P(profit): %s", FormatStrikes(s.Breakevens), FormatPercent(s.ProbabilityOfProfit))
		if s.MarginRequired > 0 {
			output.Printf("   Margin: %s", FormatPrice(s.MarginRequired))
		}
		output.Println()
		output.Println()
	}

	if skipped := attempted - len(strategies); skipped > 0 {
		output.Dim("%d strategy candidate(s) skipped: required contracts not in the chain.", skipped)
	}
}

// Strategy JSON mirrors the display: Inf cannot be marshaled, so unbounded
// profit is flagged instead.
type legView struct {
	Action   string  `json:"action"`
	Type     string  `json:"type"`
	Strike   float64 `json:"strike"`
	Expiry   string  `json:"expiry"`
	Premium  float64 `json:"premium"`
	Quantity int     `json:"quantity"`
}

type strategyView struct {
	Name                string               `json:"name"`
	Bias                string               `json:"bias"`
	Complexity          string               `json:"complexity"`
	Legs                []legView            `json:"legs"`
	MaxProfit           *float64             `json:"max_profit"` // null when unlimited
	UnlimitedProfit     bool                 `json:"unlimited_profit"`
	MaxLoss             float64              `json:"max_loss"`
	Breakevens          []float64            `json:"breakevens"`
	ProbabilityOfProfit float64              `json:"probability_of_profit"`
	MarginRequired      float64              `json:"margin_required"`
	RiskReward          *float64             `json:"risk_reward"` // null when unbounded
	Payoff              []models.PayoffPoint `json:"payoff"`
}

type recommendationJSON struct {
	Attempted  int            `json:"attempted"`
	Returned   int            `json:"returned"`
	Strategies []strategyView `json:"strategies"`
}

func recommendationView(strategies []*models.OptionStrategy, attempted int) recommendationJSON {
	views := make([]strategyView, 0, len(strategies))
	for _, s := range strategies {
		legs := make([]legView, 0, len(s.Legs))
		for _, leg := range s.Legs {
			legs = append(legs, legView{
				Action:   string(leg.Action),
				Type:     string(leg.Contract.Type),
				Strike:   leg.Contract.Strike,
				Expiry:   leg.Contract.Expiry.Format(models.ExpiryFormat),
				Premium:  leg.Contract.Premium(),
				Quantity: leg.Quantity,
			})
		}

		view := strategyView{
			Name:                s.Name,
			Bias:                string(s.Bias),
			Complexity:          string(s.Complexity),
			Legs:                legs,
			UnlimitedProfit:     s.HasUnboundedProfit(),
			MaxLoss:             s.MaxLoss,
			Breakevens:          s.Breakevens,
			ProbabilityOfProfit: s.ProbabilityOfProfit,
			MarginRequired:      s.MarginRequired,
			Payoff:              s.Payoff,
		}
		if !s.HasUnboundedProfit() {
			p := s.MaxProfit
			view.MaxProfit = &p
		}
		if !math.IsInf(s.RiskReward, 1) {
			rr := s.RiskReward
			view.RiskReward = &rr
		}
		views = append(views, view)
	}
	return recommendationJSON{
		Attempted:  attempted,
		Returned:   len(views),
		Strategies: views,
	}
}
