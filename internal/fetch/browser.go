package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/rfp-agent/internal/logger"
)

// MinContentLength is the shortest extracted text accepted from a plain
// HTTP fetch. Shorter pages are assumed to be rendered client side.
const MinContentLength = 500

// ShouldUseBrowser reports whether extracted text is too short to be a
// real tender notice.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// BrowserOptions configures headless rendering.
type BrowserOptions struct {
	Timeout time.Duration
	// Settle is how long to wait after body is ready for scripts to fill in content.
	Settle time.Duration
	Log    logger.Logger
}

// DefaultBrowserOptions returns a 30s timeout with a 3s settle delay.
func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{Timeout: 30 * time.Second, Settle: 3 * time.Second}
}

// Render loads url in headless Chrome and returns the rendered HTML.
// Chrome or Chromium must be installed.
func Render(ctx context.Context, url string, opts BrowserOptions) (string, error) {
	if err := ValidateURL(url); err != nil {
		return "", err
	}
	log := opts.Log
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultBrowserOptions().Timeout
	}
	log.Debug("rendering page in headless browser", map[string]interface{}{"url": url})

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	browserCtx, cancel = context.WithTimeout(browserCtx, opts.Timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(opts.Settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	log.Debug("rendered page", map[string]interface{}{"url": url, "bytes": len(html)})
	return html, nil
}
