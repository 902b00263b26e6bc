package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/david/campus-events/internal/upstream"
)

const DefaultFirecrawlURL = "https://api.firecrawl.dev"

// SourceAwareFetcher is implemented by fetchers whose request options vary
// per source.
type SourceAwareFetcher interface {
	ForSource(src SourceConfig) Fetcher
}

// FirecrawlFetcher renders a page to markdown through the Firecrawl scrape
// API.
type FirecrawlFetcher struct {
	APIKey          string
	BaseURL         string
	WaitMS          int
	OnlyMainContent bool
	Client          *upstream.Client
}

func NewFirecrawlFetcher(apiKey, baseURL string, waitMS int, timeout time.Duration, maxRetries int) *FirecrawlFetcher {
	if baseURL == "" {
		baseURL = DefaultFirecrawlURL
	}
	return &FirecrawlFetcher{
		APIKey:          apiKey,
		BaseURL:         strings.TrimSuffix(baseURL, "/"),
		WaitMS:          waitMS,
		OnlyMainContent: true,
		Client:          upstream.New(timeout, maxRetries),
	}
}

// ForSource returns a copy carrying the source's render options.
func (f *FirecrawlFetcher) ForSource(src SourceConfig) Fetcher {
	c := *f
	if src.Fetch.WaitMS > 0 {
		c.WaitMS = src.Fetch.WaitMS
	}
	if src.Fetch.OnlyMainContent != nil {
		c.OnlyMainContent = *src.Fetch.OnlyMainContent
	}
	return &c
}

type firecrawlRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	WaitFor         int      `json:"waitFor"`
}

type firecrawlResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Markdown string `json:"markdown,omitempty"`
	Data     struct {
		Markdown string `json:"markdown"`
	} `json:"data"`
}

func (f *FirecrawlFetcher) Fetch(ctx context.Context, url string) (*FetchedDocument, error) {
	payload, err := json.Marshal(firecrawlRequest{
		URL:             url,
		Formats:         []string{"markdown"},
		OnlyMainContent: f.OnlyMainContent,
		WaitFor:         f.WaitMS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode scrape request: %w", err)
	}

	resp, err := f.Client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+"/v1/scrape", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("firecrawl scrape %s: %w", url, err)
	}
	defer resp.Body.Close()

	var out firecrawlResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("firecrawl scrape %s: decode response: %w", url, err)
	}

	// An empty page is a valid answer; parsers yield nothing from it.
	markdown := out.Data.Markdown
	if markdown == "" {
		markdown = out.Markdown
	}

	return &FetchedDocument{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: "text/markdown",
		Body:        io.NopCloser(strings.NewReader(markdown)),
		FetchedAt:   time.Now(),
	}, nil
}
