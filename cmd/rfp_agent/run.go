package main

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/rfp-agent/internal/observability"
	"github.com/jonathan/rfp-agent/internal/pipeline"
	"github.com/jonathan/rfp-agent/internal/types"
	"github.com/spf13/cobra"
)

func newRunCmd(g *globalFlags) *cobra.Command {
	var (
		doc      documentFlags
		title    string
		asJSON   bool
		progress bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full RFP pipeline on one document",
		Long: "Extract requirements, match products, price every vendor, select a vendor and " +
			"estimate the win probability for a single RFP.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := doc.validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := setup(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			text, meta, err := doc.load(ctx, a.log)
			if err != nil {
				return err
			}
			if title == "" {
				title = meta.Title
			}

			opts := pipeline.RunOptions{Title: title, Text: text}
			if progress {
				opts.OnProgress = func(e pipeline.ProgressEvent) {
					fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", e.Step, e.Message)
				}
			}
			res := a.orch.Run(ctx, opts)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return fmt.Errorf("failed to encode result: %w", err)
				}
			} else {
				observability.NewPrinter(out).PrintResult(res)
			}

			if res.Status != types.RunCompleted {
				return fmt.Errorf("run %s %s: %s", res.RunID, res.Status, res.Error)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&doc.path, "rfp", "", "Path to the RFP text file")
	f.StringVar(&doc.url, "url", "", "URL of a tender notice page")
	f.BoolVar(&doc.useBrowser, "use-browser", false, "Render the tender page in headless Chrome when it has too little text")
	f.StringVar(&title, "title", "", "Run title (default: document title)")
	f.BoolVar(&asJSON, "json", false, "Print the run result as JSON")
	f.BoolVar(&progress, "progress", false, "Print stage progress to stderr")
	return cmd
}
