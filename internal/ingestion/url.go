package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/rfp-agent/internal/fetch"
	"github.com/jonathan/rfp-agent/internal/logger"
)

var (
	// ErrHTTPRequestFailed is returned when the page could not be fetched.
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrContentExtractionFailed is returned when no text could be pulled from the page.
	ErrContentExtractionFailed = errors.New("content extraction failed")
)

// RenderFunc renders a page with a headless browser.
type RenderFunc func(ctx context.Context, url string, opts fetch.BrowserOptions) (string, error)

// URLOptions configures IngestFromURL.
type URLOptions struct {
	// UseBrowser enables headless rendering when the HTTP response holds
	// too little text, as on portals that build the notice in JavaScript.
	UseBrowser bool
	Fetch      *fetch.Options
	Browser    fetch.BrowserOptions
	Render     RenderFunc
	Log        logger.Logger
}

// IngestFromURL fetches a tender notice page and returns its cleaned text.
func IngestFromURL(ctx context.Context, urlStr string, opts URLOptions) (string, *Metadata, error) {
	log := opts.Log
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"url": urlStr})

	result, err := fetch.URL(ctx, urlStr, opts.Fetch)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}
	log.Debug("fetched page", map[string]interface{}{"bytes": len(result.HTML)})

	text, err := fetch.ExtractMainText(result.HTML, fetch.TenderSelectors(), fetch.TenderNoiseSelectors()...)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
	}

	if opts.UseBrowser && fetch.ShouldUseBrowser(text) {
		render := opts.Render
		if render == nil {
			render = fetch.Render
		}
		bopts := opts.Browser
		if bopts.Log == nil {
			bopts.Log = log
		}
		log.Info("content too short, rendering with browser", map[string]interface{}{
			"chars": len(text),
			"min":   fetch.MinContentLength,
		})
		// On failure the HTTP text is kept.
		if html, rerr := render(ctx, urlStr, bopts); rerr != nil {
			log.WithError(rerr).Warn("browser rendering failed, using HTTP content", nil)
		} else if rendered, xerr := fetch.ExtractMainText(html, fetch.TenderSelectors(), fetch.TenderNoiseSelectors()...); xerr == nil {
			text = rendered
			if t := fetch.PageTitle(html); t != "" && result.Title == "" {
				result.Title = t
			}
		}
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return "", nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, ErrEmptyDocument)
	}

	meta := NewMetadata(cleaned, SourceURL)
	meta.URL = urlStr
	meta.Title = result.Title
	log.Debug("ingested page", map[string]interface{}{"chars": meta.Chars})
	return cleaned, meta, nil
}
