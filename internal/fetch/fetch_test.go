package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head><title> Depot Repaint </title></head><body><h1>Tender</h1></body></html>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "<h1>Tender</h1>")
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "Depot Repaint", result.Title)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestURL_CustomHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en", r.Header.Get("Accept-Language"))
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.Headers = map[string]string{"Accept-Language": "en"}
	_, err := URL(context.Background(), server.URL, opts)
	require.NoError(t, err)
}

func TestURL_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "not-a-valid-url", "ftp://example.com/x", "http://"} {
		_, err := URL(context.Background(), raw, nil)
		require.Error(t, err, raw)

		var fetchErr *Error
		assert.ErrorAs(t, err, &fetchErr)
		assert.Contains(t, err.Error(), "invalid URL")
	}
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "404")
}

func TestURL_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := URL(ctx, server.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractMainText_WithMainElement(t *testing.T) {
	html := `
	<html>
		<body>
			<nav>Navigation</nav>
			<main>
				<h1>Bridge Repaint</h1>
				<p>Exterior area 12,000 sq ft.</p>
			</main>
			<footer>Footer</footer>
		</body>
	</html>`

	text, err := ExtractMainText(html, DefaultTextSelectors())
	require.NoError(t, err)
	assert.Contains(t, text, "Bridge Repaint")
	assert.Contains(t, text, "12,000 sq ft")
	assert.NotContains(t, text, "Navigation")
	assert.NotContains(t, text, "Footer")
}

func TestExtractMainText_FallbackToBody(t *testing.T) {
	html := `<html><body><div>Some content here.</div></body></html>`

	text, err := ExtractMainText(html, DefaultTextSelectors())
	require.NoError(t, err)
	assert.Equal(t, "Some content here.", text)
}

func TestExtractMainText_TenderSelectors(t *testing.T) {
	html := `
	<html>
		<body>
			<div class="related-tenders">Other tender</div>
			<div class="tender-details">
				<h2>Scope</h2>
				<table><tr><td>Interior</td><td>8,000 sq ft</td></tr></table>
			</div>
		</body>
	</html>`

	text, err := ExtractMainText(html, TenderSelectors(), TenderNoiseSelectors()...)
	require.NoError(t, err)
	assert.Contains(t, text, "Scope")
	assert.Contains(t, text, "Interior\n8,000 sq ft")
	assert.NotContains(t, text, "Other tender")
}

func TestTenderSelectors_IncludeDefaults(t *testing.T) {
	selectors := TenderSelectors()
	assert.Equal(t, ".tender-details", selectors[0])
	assert.Contains(t, selectors, "main")
	assert.Contains(t, selectors, "article")
}

func TestPageTitle_FallsBackToHeading(t *testing.T) {
	assert.Equal(t, "Notice 42", PageTitle("<html><body><h1> Notice 42 </h1></body></html>"))
	assert.Empty(t, PageTitle("<html><body></body></html>"))
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser("   short   "))
	long := make([]byte, MinContentLength)
	for i := range long {
		long[i] = 'a'
	}
	assert.False(t, ShouldUseBrowser(string(long)))
}

func TestRender_RejectsInvalidURL(t *testing.T) {
	_, err := Render(context.Background(), "javascript:alert(1)", DefaultBrowserOptions())
	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
}
