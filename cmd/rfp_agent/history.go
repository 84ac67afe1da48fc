package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jonathan/rfp-agent/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past bids",
	}
	cmd.AddCommand(newHistoryInsightsCmd(g), newHistoryForecastCmd(g), newHistoryForgetCmd(g))
	return cmd
}

func newHistoryInsightsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Show win rates and vendor performance from past bids",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.history.Records(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Overall win rate: %.1f%% over %d bids\n\n", history.OverallWinRate(records), len(records))

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VENDOR\tBIDS\tWON\tWIN RATE\tAVG PRICE\tAVG MATCH")
			for _, p := range history.Performance(records) {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\t$%.2f\t%.1f%%\n",
					p.Vendor, p.TotalBids, p.Won, p.WinRate, p.AvgPrice, p.AvgMatchScore)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if insights := history.Insights(records); len(insights) > 0 {
				fmt.Fprintln(out)
				for _, in := range insights {
					fmt.Fprintf(out, "- [%s] %s\n", in.Type, in.Message)
				}
			}
			return printMemoryStats(cmd, a)
		},
	}
}

func newHistoryForgetCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Clear the learning memory of past runs",
		Long:  "Clear the learning memory of past runs. Bid history is kept.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.memory.Statistics(ctx)
			if err != nil {
				return err
			}
			if err := a.memory.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot %d remembered RFPs\n", stats.TotalRFPs)
			return nil
		},
	}
}

// printMemoryStats reports the learning memory when it holds anything.
func printMemoryStats(cmd *cobra.Command, a *app) error {
	stats, err := a.memory.Statistics(cmd.Context())
	if err != nil {
		return err
	}
	if stats.TotalRFPs == 0 {
		return nil
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nRemembered RFPs: %d (avg match %d%%, avg win probability %d%%)\n",
		stats.TotalRFPs, stats.AvgMatchScore, stats.AvgWinProbability)
	if stats.TopVendor != "" {
		fmt.Fprintf(out, "Most selected vendor: %s (%d times)\n", stats.TopVendor, stats.TopVendorCount)
	}
	return nil
}

func newHistoryForecastCmd(g *globalFlags) *cobra.Command {
	var (
		area   float64
		vendor string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast the bid price for an area from past bids",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if area <= 0 {
				return errors.New("--area must be greater than zero")
			}
			ctx := cmd.Context()
			a, err := setup(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.history.Records(ctx)
			if err != nil {
				return err
			}
			fc := history.PriceForecast(records, area, vendor)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(fc)
			}
			printForecast(cmd.OutOrStdout(), area, fc)
			return nil
		},
	}
	cmd.Flags().Float64Var(&area, "area", 0, "Total area in sq ft")
	cmd.Flags().StringVar(&vendor, "vendor", "", "Restrict the forecast to one vendor")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the forecast as JSON")
	_ = cmd.MarkFlagRequired("area")
	return cmd
}

//nolint:errcheck // writing to stdout
func printForecast(out io.Writer, area float64, fc history.Forecast) {
	if !fc.Available {
		fmt.Fprintf(out, "No forecast: %s\n", fc.Message)
		return
	}
	fmt.Fprintf(out, "Forecast for %.0f sq ft: $%.2f\n", area, fc.Forecast)
	fmt.Fprintf(out, "  base $%.2f, trend adjustment $%.2f (%s)\n", fc.BasePrice, fc.TrendAdjustment, fc.Trend)
	fmt.Fprintf(out, "  $%.4f per sq ft from %d bids, %s confidence\n", fc.AvgPricePerSqFt, fc.DataPoints, fc.Confidence)
}
