package ingest

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	"github.com/david/campus-events/internal/models"
)

var (
	// [**Title**body](link)
	unstopBlock       = regexp.MustCompile(`\[\*\*([^*]+)\*\*([^\]]*)\]\(([^)]*)\)`)
	unstopNavTitle    = regexp.MustCompile(`(?i)^(filter|sort|search|login|sign)`)
	unstopInstitution = regexp.MustCompile(`(?i)institute|university|college|iit|nit|iiit|bits|vit|society|school|academy`)
	unstopFee         = regexp.MustCompile(`(?i)^(\d+)\s*Fee`)
	unstopIndia       = regexp.MustCompile(`India\s*$`)
	unstopOnline      = regexp.MustCompile(`(?i)Online`)
	unstopImage       = regexp.MustCompile(`!\[.*?\]\(([^)]+)\)`)
	unstopDaysLeft    = regexp.MustCompile(`(?i)(\d+)\s*days?\s*left`)
	unstopHoursLeft   = regexp.MustCompile(`(?i)(\d+)\s*hours?\s*left`)
)

// UnstopParser reads the hackathon listing. Cards carry no absolute date,
// only a "N days left" countdown.
type UnstopParser struct {
	source SourceConfig
	now    func() time.Time
}

func NewUnstopParser(src SourceConfig, now func() time.Time) *UnstopParser {
	if now == nil {
		now = time.Now
	}
	return &UnstopParser{source: src, now: now}
}

func (p *UnstopParser) Parse(ctx context.Context, r io.Reader) ([]CandidateEvent, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unstop: read markdown: %w", err)
	}
	now := p.now()

	var events []CandidateEvent
	for _, m := range unstopBlock.FindAllStringSubmatch(string(data), -1) {
		if ctx.Err() != nil {
			return events, ctx.Err()
		}
		if ev, ok := p.parseBlock(plainText(m[1]), m[2], m[3], now); ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

func (p *UnstopParser) parseBlock(title, body, link string, now time.Time) (CandidateEvent, bool) {
	if len(title) < minTitleLen || unstopNavTitle.MatchString(title) {
		return CandidateEvent{}, false
	}

	var organizer, location, imageURL string
	mode := models.ModeOffline
	fee, daysLeft := 0, 0

	for _, part := range splitSegments(body) {
		if organizer == "" && unstopInstitution.MatchString(part) {
			organizer = part
		}
		if m := unstopFee.FindStringSubmatch(part); m != nil {
			fee = parseFee(m[1])
		}
		if unstopIndia.MatchString(part) || unstopOnline.MatchString(part) {
			location = part
			if unstopOnline.MatchString(part) {
				mode = models.ModeOnline
			}
		}
		if m := unstopImage.FindStringSubmatch(part); m != nil {
			imageURL = m[1]
		}
		if m := unstopDaysLeft.FindStringSubmatch(part); m != nil {
			daysLeft, _ = strconv.Atoi(m[1])
		}
		// Under a day left rounds up to tomorrow, never the scrape day.
		if unstopHoursLeft.MatchString(part) {
			daysLeft = 1
		}
	}

	if daysLeft <= 0 {
		return CandidateEvent{}, false
	}
	date := DaysLeftDate(daysLeft, now)
	if location == "" && mode == models.ModeOnline {
		location = "Online"
	}

	return CandidateEvent{
		Title:            title,
		Date:             date,
		Location:         location,
		College:          organizer,
		Category:         Classify(title),
		ImageURL:         absolutizeURL(p.source.BaseURL, imageURL),
		RegistrationLink: absolutizeURL(p.source.BaseURL, link),
		SourceName:       p.source.Name,
		SourceURL:        p.source.BaseURL,
		ExternalID:       externalID(p.source.ID, title),
		Mode:             mode,
		Price:            fee,
	}, true
}

// parseFee reads a listed fee. Anything that does not fit the stored
// integer column is treated as free.
func parseFee(s string) int {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0
	}
	return int(v)
}
