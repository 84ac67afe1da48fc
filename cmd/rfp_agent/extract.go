package main

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/rfp-agent/internal/ingestion"
	"github.com/jonathan/rfp-agent/internal/observability"
	"github.com/spf13/cobra"
)

func newExtractCmd(g *globalFlags) *cobra.Command {
	var (
		doc    documentFlags
		outDir string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract structured requirements from an RFP",
		Long:  "Clean an RFP document and print the requirements, deadline and certifications found in it.",
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
			if outDir != "" {
				if err := ingestion.WriteOutput(outDir, text, meta); err != nil {
					return err
				}
			}

			rfp := a.orch.Extractor().Extract(ctx, text, nil)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(rfp); err != nil {
					return fmt.Errorf("failed to encode requirements: %w", err)
				}
				return nil
			}
			observability.NewPrinter(out).PrintRFP(&rfp)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&doc.path, "rfp", "", "Path to the RFP text file")
	f.StringVar(&doc.url, "url", "", "URL of a tender notice page")
	f.BoolVar(&doc.useBrowser, "use-browser", false, "Render the tender page in headless Chrome when it has too little text")
	f.StringVar(&outDir, "out", "", "Write rfp.cleaned.txt and rfp.meta.json to this directory")
	f.BoolVar(&asJSON, "json", false, "Print the requirements as JSON")
	return cmd
}
