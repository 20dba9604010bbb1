package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// TextFetcher pulls raw text from a source webpage. Implementations do not
// retry internally; retry is an orchestrator concern.
type TextFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FirecrawlClient extracts page text through the hosted Firecrawl scrape API,
// requesting markdown output.
type FirecrawlClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	timeout    time.Duration
}

// firecrawlRequest is the scrape request payload.
type firecrawlRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
	Stealth bool     `json:"stealth,omitempty"`
	Timeout int      `json:"timeout,omitempty"` // milliseconds
}

// firecrawlResponse is the subset of the scrape response we consume.
type firecrawlResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
		HTML     string `json:"html"`
		Metadata struct {
			Title      string `json:"title"`
			SourceURL  string `json:"sourceURL"`
			StatusCode int    `json:"statusCode"`
		} `json:"metadata"`
	} `json:"data"`
	Error string `json:"error"`
}

// NewFirecrawlClient creates a client for the hosted scrape API.
func NewFirecrawlClient(apiKey string) *FirecrawlClient {
	return &FirecrawlClient{
		httpClient: &http.Client{Timeout: 45 * time.Second},
		baseURL:    "https://api.firecrawl.dev/v2/scrape",
		apiKey:     apiKey,
		timeout:    30 * time.Second,
	}
}

// Fetch requests markdown for url. Non-success responses and empty content
// return an ExtractionError.
func (f *FirecrawlClient) Fetch(ctx context.Context, url string) (string, error) {
	payload := firecrawlRequest{
		URL:     url,
		Formats: []string{"markdown", "html"},
		Stealth: true,
		Timeout: int(f.timeout.Milliseconds()),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &ExtractionError{URL: url, Message: "failed to encode scrape request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", &ExtractionError{URL: url, Message: "failed to create scrape request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", &ExtractionError{URL: url, Message: "scrape request failed", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ExtractionError{URL: url, Message: "failed to read scrape response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &ExtractionError{
			URL:     url,
			Message: fmt.Sprintf("scrape API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200)),
		}
	}

	var parsed firecrawlResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &ExtractionError{URL: url, Message: "invalid scrape response JSON", Cause: err}
	}
	if !parsed.Success {
		return "", &ExtractionError{URL: url, Message: fmt.Sprintf("scrape API reported failure: %s", parsed.Error)}
	}
	if strings.TrimSpace(parsed.Data.Markdown) == "" {
		return "", &ExtractionError{URL: url, Message: "scrape API returned empty markdown"}
	}

	return parsed.Data.Markdown, nil
}

var (
	scriptBlockPattern = regexp.MustCompile(`(?is)<script.*?</script>`)
	styleBlockPattern  = regexp.MustCompile(`(?is)<style.*?</style>`)
	htmlCommentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)
	htmlTagPattern     = regexp.MustCompile(`<[^>]+>`)
	blankRunPattern    = regexp.MustCompile(`\n{2,}`)
	inlineSpacePattern = regexp.MustCompile(`[ \t]+`)
)

// DirectFetcher is the fallback strategy: a plain HTTP GET with tag
// stripping. Output quality is lower than the hosted API but keeps the
// pipeline alive when the API is down.
type DirectFetcher struct {
	httpClient *http.Client
	userAgent  string
}

// NewDirectFetcher creates the fallback fetcher.
func NewDirectFetcher() *DirectFetcher {
	return &DirectFetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// Fetch GETs the page and reduces the HTML to one line per content block.
func (d *DirectFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &ExtractionError{URL: url, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", &ExtractionError{URL: url, Message: "direct fetch failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &ExtractionError{URL: url, Message: fmt.Sprintf("direct fetch returned status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ExtractionError{URL: url, Message: "failed to read page body", Cause: err}
	}

	return StripHTML(string(body)), nil
}

// StripHTML removes script/style/comment blocks and remaining tags,
// collapsing whitespace into one normalized line per content block.
func StripHTML(html string) string {
	text := scriptBlockPattern.ReplaceAllString(html, " ")
	text = styleBlockPattern.ReplaceAllString(text, " ")
	text = htmlCommentPattern.ReplaceAllString(text, " ")
	text = htmlTagPattern.ReplaceAllString(text, "\n")

	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&#8217;", "'")
	text = strings.ReplaceAll(text, "&quot;", "\"")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(inlineSpacePattern.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return blankRunPattern.ReplaceAllString(strings.Join(lines, "\n"), "\n")
}

// FallbackFetcher tries the primary strategy and falls back to the secondary
// on any failure. When both fail the error aggregates both messages.
type FallbackFetcher struct {
	Primary  TextFetcher
	Fallback TextFetcher
}

// NewFallbackFetcher wires the standard primary/fallback pair.
func NewFallbackFetcher(primary, fallback TextFetcher) *FallbackFetcher {
	return &FallbackFetcher{Primary: primary, Fallback: fallback}
}

// Fetch runs the primary strategy first, then the fallback.
func (c *FallbackFetcher) Fetch(ctx context.Context, url string) (string, error) {
	text, primaryErr := c.Primary.Fetch(ctx, url)
	if primaryErr == nil {
		return text, nil
	}
	log.Printf("[EXTRACT] primary strategy failed for %s, trying fallback: %v", url, primaryErr)

	text, fallbackErr := c.Fallback.Fetch(ctx, url)
	if fallbackErr == nil {
		return text, nil
	}

	return "", &ExtractionError{
		URL:     url,
		Message: fmt.Sprintf("all strategies failed (primary: %v; fallback: %v)", primaryErr, fallbackErr),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
