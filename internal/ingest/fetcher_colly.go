package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

// Listing markup styles understood by renderListingMarkdown.
const (
	StyleImageCard = "image_card" // [![alt](img)line\\\nline](link)
	StyleBoldTitle = "bold_title" // [**Title**\\\nline](link)
)

// styleForParser picks the markdown idiom each site parser expects.
var styleForParser = map[string]string{
	"knowafest": StyleImageCard,
	"unstop":    StyleBoldTitle,
}

// CollyFetcher fetches listing HTML directly, without the extraction
// service, and renders its link cards into the markdown idiom the site
// parsers read.
type CollyFetcher struct {
	UserAgent            string
	MaxRetries           int
	RequestTimeout       time.Duration
	MaxBodySize          int
	IgnoreRobotsTxt      bool
	AllowPrivateNetworks bool
	Style                string
	BaseURL              string
	Log                  logrus.FieldLogger
}

func NewCollyFetcher(log logrus.FieldLogger) *CollyFetcher {
	return &CollyFetcher{
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		MaxRetries:      1,
		RequestTimeout:  30 * time.Second,
		MaxBodySize:     10 * 1024 * 1024,
		IgnoreRobotsTxt: true,
		Style:           StyleImageCard,
		Log:             log,
	}
}

func (f *CollyFetcher) ForSource(src SourceConfig) Fetcher {
	c := *f
	if style, ok := styleForParser[src.Parser]; ok {
		c.Style = style
	}
	c.BaseURL = src.BaseURL
	return &c
}

func (f *CollyFetcher) buildCollector(allowedDomains []string) *colly.Collector {
	opts := []colly.CollectorOption{
		colly.UserAgent(f.UserAgent),
		colly.MaxBodySize(f.MaxBodySize),
		colly.AllowURLRevisit(),
		colly.DetectCharset(),
	}
	if len(allowedDomains) > 0 {
		opts = append(opts, colly.AllowedDomains(allowedDomains...))
	}
	if f.IgnoreRobotsTxt {
		opts = append(opts, colly.IgnoreRobotsTxt())
	}

	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(f.RequestTimeout)

	if !f.AllowPrivateNetworks {
		c.WithTransport(&http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           safeDialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		})
		c.SetRedirectHandler(safeCheckRedirect)
	}
	return c
}

func (f *CollyFetcher) Fetch(ctx context.Context, targetURL string) (*FetchedDocument, error) {
	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	c := f.buildCollector([]string{parsedURL.Hostname()})

	var body []byte
	var status int
	var contentType string
	var fetchErr error

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		status = r.StatusCode
		contentType = r.Headers.Get("Content-Type")
	})

	c.OnError(func(r *colly.Response, err error) {
		retries, _ := r.Request.Ctx.GetAny("retries").(int)
		if retries < f.MaxRetries && ctx.Err() == nil && (r.StatusCode == 0 || r.StatusCode == 429 || r.StatusCode >= 500) {
			r.Request.Ctx.Put("retries", retries+1)
			if f.Log != nil {
				f.Log.WithFields(logrus.Fields{"url": r.Request.URL.String(), "attempt": retries + 1}).Warn("retrying listing fetch")
			}
			if retryErr := r.Request.Retry(); retryErr == nil {
				return
			}
		}
		fetchErr = fmt.Errorf("fetch %s: %w", targetURL, err)
	})

	if err := c.Visit(targetURL); err != nil && fetchErr == nil {
		fetchErr = fmt.Errorf("visit failed: %w", err)
	}
	c.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	if body == nil {
		return nil, fmt.Errorf("no response received for %s", targetURL)
	}

	base := f.BaseURL
	if base == "" {
		base = parsedURL.Scheme + "://" + parsedURL.Host
	}
	markdown, err := renderListingMarkdown(bytes.NewReader(body), f.Style, base)
	if err != nil {
		return nil, err
	}

	return &FetchedDocument{
		URL:         targetURL,
		StatusCode:  status,
		ContentType: contentType,
		Body:        io.NopCloser(strings.NewReader(markdown)),
		FetchedAt:   time.Now(),
	}, nil
}

var skipElements = map[string]bool{"script": true, "style": true, "noscript": true, "img": true, "svg": true}

// collectText appends each visible text node under s, in document order.
func collectText(s *goquery.Selection, out *[]string) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		if name == "#text" {
			if t := markdownSafe(c.Text()); t != "" {
				*out = append(*out, t)
			}
			return
		}
		if !skipElements[name] {
			collectText(c, out)
		}
	})
}

// markdownSafe strips the characters that delimit listing blocks.
func markdownSafe(s string) string {
	return cleanText(strings.NewReplacer("[", "", "]", "", "*", "", "(", " ", ")", " ").Replace(s))
}

const hardBreak = "\\\n\\\n"

// renderListingMarkdown turns every link card on a listing page into one
// markdown block in the given style. Links without card content are dropped.
func renderListingMarkdown(r io.Reader, style, baseURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse listing html: %w", err)
	}

	var blocks []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := absolutizeURL(baseURL, a.AttrOr("href", ""))
		if href == "" {
			return
		}
		var lines []string
		collectText(a, &lines)

		switch style {
		case StyleBoldTitle:
			title := markdownSafe(a.Find("h1, h2, h3, h4, strong, b").First().Text())
			if title == "" {
				return
			}
			rest := make([]string, 0, len(lines))
			dropped := false
			for _, l := range lines {
				if !dropped && l == title {
					dropped = true
					continue
				}
				rest = append(rest, l)
			}
			blocks = append(blocks, "[**"+title+"**"+hardBreak+strings.Join(rest, hardBreak)+"]("+href+")")
		default:
			img := a.Find("img").First()
			if img.Length() == 0 || len(lines) == 0 {
				return
			}
			src := img.AttrOr("src", img.AttrOr("data-src", ""))
			alt := markdownSafe(img.AttrOr("alt", ""))
			blocks = append(blocks, "[!["+alt+"]("+absolutizeURL(baseURL, src)+")"+strings.Join(lines, hardBreak)+"]("+href+")")
		}
	})

	return strings.Join(blocks, "\n\n"), nil
}
