package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <symbol>",
		Short: "Show persisted analytics snapshots",
		Long: `Show the persisted analytics history for a symbol.

Every chain request stores its derived metrics (max pain, put/call ratio,
ATM IV) so their evolution can be reviewed over time.`,
		Example: `  chainalytics history XYZ
  chainalytics history XYZ --limit 5 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if app.Store == nil {
				output.Error("Analytics store is not available")
				return fmt.Errorf("store not initialized")
			}

			symbol := strings.ToUpper(args[0])
			limit, _ := cmd.Flags().GetInt("limit")

			records, err := app.Store.History(ctx, symbol, limit)
			if err != nil {
				output.Error("Failed to load history: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(records)
			}

			if len(records) == 0 {
				output.Warning("No history for %s yet. Run 'chainalytics chain %s' first.", symbol, symbol)
				return nil
			}

			output.Bold("Analytics History - %s", symbol)
			output.Println()

			table := NewTable(output, "Taken At", "Spot", "Max Pain", "P/C Ratio", "ATM IV", "Contracts")
			for _, r := range records {
				table.AddRow(
					r.TakenAt.Format("02-Jan-2006 15:04"),
					FormatPrice(r.SpotPrice),
					FormatPrice(r.MaxPain),
					fmt.Sprintf("%.2f", r.PutCallRatio),
					FormatIV(r.ATMIV),
					fmt.Sprintf("%d", r.Contracts),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of snapshots to show")

	return cmd
}
