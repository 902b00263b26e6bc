package ingest

import (
	"context"
	"io"
	"time"

	"github.com/david/campus-events/internal/models"
)

// CandidateEvent is one parsed, not yet persisted event listing.
type CandidateEvent struct {
	Title            string          `json:"title"`
	Date             string          `json:"date"` // YYYY-MM-DD, never before the parse day
	Location         string          `json:"location"`
	College          string          `json:"college"`
	Category         models.Category `json:"category"`
	Description      string          `json:"description"`
	ImageURL         string          `json:"image_url"`
	RegistrationLink string          `json:"registration_link"`
	SourceName       string          `json:"source_name"`
	SourceURL        string          `json:"source_url"`
	ExternalID       string          `json:"external_id"`
	Mode             models.Mode     `json:"mode"`
	Price            int             `json:"price"`
}

// ToEvent attributes the candidate to the scraper identity and marks it
// platform-verified.
func (c CandidateEvent) ToEvent() models.Event {
	return models.Event{
		Title:            c.Title,
		Date:             c.Date,
		Location:         c.Location,
		College:          c.College,
		Category:         c.Category,
		Description:      c.Description,
		ImageURL:         c.ImageURL,
		RegistrationLink: c.RegistrationLink,
		SourceName:       c.SourceName,
		SourceURL:        c.SourceURL,
		ExternalID:       c.ExternalID,
		Mode:             c.Mode,
		Price:            c.Price,
		OrganizerID:      models.ScraperID,
		IsVerified:       true,
	}
}

// FetchedDocument represents the raw result of a fetch operation. Body is
// the page rendered as markdown.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	FetchedAt   time.Time
}

// Fetcher retrieves the rendered content of a listing page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}

// Parser extracts candidate events from one site's markdown. Blocks that do
// not yield a title and a current date are skipped, never fatal.
type Parser interface {
	Parse(ctx context.Context, r io.Reader) ([]CandidateEvent, error)
}
