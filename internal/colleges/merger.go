package colleges

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/david/campus-events/internal/logging"
	"github.com/david/campus-events/internal/metrics"
	"github.com/david/campus-events/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var ErrQueryTooShort = errors.New("query must be at least 2 characters")

const (
	MinQueryLen = 2
	LocalLimit  = 20
	ExternalCap = 30
)

type LocalStore interface {
	SearchColleges(ctx context.Context, query, country string, limit int) ([]models.College, error)
}

type Directory interface {
	Search(ctx context.Context, name, country string) ([]University, error)
}

// Result is one college-like row. Local rows carry their id and rating
// aggregates; external rows have a nil id and zero aggregates.
type Result struct {
	ID                    *uuid.UUID `json:"id"`
	Name                  string     `json:"name"`
	Country               string     `json:"country"`
	StateProvince         *string    `json:"state_province"`
	City                  *string    `json:"city"`
	Website               string     `json:"website"`
	Domains               []string   `json:"domains"`
	AlphaTwoCode          string     `json:"alpha_two_code"`
	ReputationScore       float64    `json:"reputation_score"`
	AvgOrganizationRating float64    `json:"avg_organization_rating"`
	AvgDifficultyRating   float64    `json:"avg_difficulty_rating"`
	AvgWorthRating        float64    `json:"avg_worth_rating"`
	TotalEvents           int        `json:"total_events"`
	TotalReviews          int        `json:"total_reviews"`
	IsExternal            bool       `json:"is_external"`
}

type Merger struct {
	Local     LocalStore
	Directory Directory
	Metrics   *metrics.Metrics
	Log       logrus.FieldLogger
}

func NewMerger(local LocalStore, directory Directory, log logrus.FieldLogger) *Merger {
	if log == nil {
		log = logging.Discard()
	}
	return &Merger{Local: local, Directory: directory, Log: log}
}

// Search queries the local store and the directory concurrently. Local rows
// come first and win any case-insensitive name clash; directory rows fill in
// behind them, capped at ExternalCap. A failure of either side fails the
// whole search.
func (m *Merger) Search(ctx context.Context, query, country string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLen {
		return nil, ErrQueryTooShort
	}
	country = strings.TrimSpace(country)
	start := time.Now()

	var local []models.College
	var external []University
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		local, err = m.Local.SearchColleges(gctx, query, country, LocalLimit)
		if err != nil {
			return fmt.Errorf("local college search: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		external, err = m.Directory.Search(gctx, query, country)
		return err
	})
	if err := g.Wait(); err != nil {
		m.Log.WithFields(logrus.Fields{"op": "search-colleges", "query": query}).WithError(err).Error("college search failed")
		return nil, err
	}

	results := mergeResults(local, external)
	m.Metrics.CollegeSearch(time.Since(start), len(local), len(results)-len(local))
	return results, nil
}

func mergeResults(local []models.College, external []University) []Result {
	seen := make(map[string]struct{}, len(local)+len(external))
	results := make([]Result, 0, len(local)+ExternalCap)

	for _, c := range local {
		seen[strings.ToLower(strings.TrimSpace(c.Name))] = struct{}{}
		results = append(results, fromCollege(c))
	}

	added := 0
	for _, u := range external {
		if added >= ExternalCap {
			break
		}
		key := strings.ToLower(strings.TrimSpace(u.Name))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		results = append(results, fromUniversity(u))
		added++
	}
	return results
}

func fromCollege(c models.College) Result {
	id := c.ID
	r := Result{
		ID:                    &id,
		Name:                  c.Name,
		Country:               c.Country,
		Website:               c.Website,
		Domains:               c.Domains,
		AlphaTwoCode:          c.AlphaTwoCode,
		ReputationScore:       c.ReputationScore,
		AvgOrganizationRating: c.AvgOrganizationRating,
		AvgDifficultyRating:   c.AvgDifficultyRating,
		AvgWorthRating:        c.AvgWorthRating,
		TotalEvents:           c.TotalEvents,
		TotalReviews:          c.TotalReviews,
	}
	if c.StateProvince != "" {
		r.StateProvince = &c.StateProvince
	}
	if c.City != "" {
		r.City = &c.City
	}
	if r.Domains == nil {
		r.Domains = []string{}
	}
	return r
}

func fromUniversity(u University) Result {
	r := Result{
		Name:          u.Name,
		Country:       u.Country,
		StateProvince: u.StateProvince,
		Domains:       u.Domains,
		AlphaTwoCode:  u.AlphaTwoCode,
		IsExternal:    true,
	}
	if len(u.WebPages) > 0 {
		r.Website = u.WebPages[0]
	}
	if r.Domains == nil {
		r.Domains = []string{}
	}
	return r
}
