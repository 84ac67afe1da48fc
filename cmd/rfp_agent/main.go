// Package main provides the rfp_agent CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	catalog    string
	dbURL      string
	redisAddr  string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "rfp_agent",
		Short: "RFP response pipeline for paint supply bids",
		Long: "rfp_agent extracts requirements from paint and coatings RFPs, matches them against a vendor " +
			"catalog, prices and selects a vendor, and estimates the chance of winning the bid.",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML config file (default $RFP_CONFIG)")
	pf.StringVar(&g.catalog, "catalog", "", "Product catalog JSON (default: built-in catalog)")
	pf.StringVar(&g.dbURL, "db-url", "", "PostgreSQL URL for run, audit and history storage")
	pf.StringVar(&g.redisAddr, "redis-addr", "", "Redis address for history and learning memory")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newRunCmd(g),
		newExtractCmd(g),
		newServeCmd(g),
		newHistoryCmd(g),
		newRunsCmd(g),
	)
	return root
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
