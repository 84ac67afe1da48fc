package main

import (
	"context"
	"errors"

	"github.com/jonathan/rfp-agent/internal/fetch"
	"github.com/jonathan/rfp-agent/internal/ingestion"
	"github.com/jonathan/rfp-agent/internal/logger"
)

// documentFlags select where an RFP is read from.
type documentFlags struct {
	path       string
	url        string
	useBrowser bool
}

func (f *documentFlags) validate() error {
	if f.path == "" && f.url == "" {
		return errors.New("either --rfp or --url must be provided")
	}
	if f.path != "" && f.url != "" {
		return errors.New("only one of --rfp or --url may be provided")
	}
	return nil
}

// load reads and cleans the selected document.
func (f *documentFlags) load(ctx context.Context, log logger.Logger) (string, *ingestion.Metadata, error) {
	if f.path != "" {
		return ingestion.IngestFromFile(f.path)
	}
	return ingestion.IngestFromURL(ctx, f.url, ingestion.URLOptions{
		UseBrowser: f.useBrowser,
		Fetch:      fetch.DefaultOptions(),
		Browser:    fetch.DefaultBrowserOptions(),
		Log:        log,
	})
}
