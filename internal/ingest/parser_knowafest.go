package ingest

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/david/campus-events/internal/models"
)

var (
	// [![alt](image)inner](link)
	knowafestBlock    = regexp.MustCompile(`\[!\[([^\]]*)\]\(([^)]*)\)([^\]]*)\]\(([^)]*)\)`)
	knowafestDate     = regexp.MustCompile(`(?i)\d{1,2}\w*\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`)
	knowafestAltTrail = regexp.MustCompile(`(?i)\s*venue\s*Poster\s*$`)
)

const minTitleLen = 3

// KnowafestParser reads the fest listing grid. Each card's inner text is
// category, city, date and title, separated by hard breaks.
type KnowafestParser struct {
	source SourceConfig
	now    func() time.Time
}

func NewKnowafestParser(src SourceConfig, now func() time.Time) *KnowafestParser {
	if now == nil {
		now = time.Now
	}
	return &KnowafestParser{source: src, now: now}
}

func (p *KnowafestParser) Parse(ctx context.Context, r io.Reader) ([]CandidateEvent, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("knowafest: read markdown: %w", err)
	}
	now := p.now()

	var events []CandidateEvent
	for _, m := range knowafestBlock.FindAllStringSubmatch(string(data), -1) {
		if ctx.Err() != nil {
			return events, ctx.Err()
		}
		if ev, ok := p.parseBlock(m[1], m[2], m[3], m[4], now); ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

func (p *KnowafestParser) parseBlock(alt, image, inner, link string, now time.Time) (CandidateEvent, bool) {
	parts := splitSegments(inner)
	if len(parts) < 3 {
		return CandidateEvent{}, false
	}

	city := parts[1]
	var dateStr string
	for _, part := range parts {
		if knowafestDate.MatchString(part) {
			dateStr = part
		}
	}

	title := plainText(parts[len(parts)-1])
	if title == "" {
		title = plainText(knowafestAltTrail.ReplaceAllString(alt, ""))
	}
	if len(title) < minTitleLen {
		return CandidateEvent{}, false
	}

	if dateStr == "" {
		return CandidateEvent{}, false
	}
	date, ok := withYear(dateStr, now)
	if !ok || IsPast(date, now) {
		return CandidateEvent{}, false
	}

	return CandidateEvent{
		Title:            title,
		Date:             date,
		Location:         city,
		Category:         Classify(title),
		ImageURL:         absolutizeURL(p.source.BaseURL, image),
		RegistrationLink: absolutizeURL(p.source.BaseURL, link),
		SourceName:       p.source.Name,
		SourceURL:        p.source.BaseURL,
		ExternalID:       externalID(p.source.ID, title),
		Mode:             models.ModeOffline,
		Price:            0,
	}, true
}
