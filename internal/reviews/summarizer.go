package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/david/campus-events/internal/ai"
	"github.com/david/campus-events/internal/logging"
	"github.com/david/campus-events/internal/metrics"
	"github.com/david/campus-events/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrEventIDRequired = errors.New("event_id is required")
	ErrNoRatings       = errors.New("no reviews found for this event")
)

const placeholderSummary = "No written reviews yet."

// Variant records which path produced a summary.
type Variant string

const (
	VariantAnalyzed  Variant = "analyzed"
	VariantHeuristic Variant = "heuristic"
	VariantFailed    Variant = "failed"
)

type Store interface {
	ListRatings(ctx context.Context, eventID uuid.UUID) ([]models.Rating, error)
	UpsertReviewSummary(ctx context.Context, rs models.ReviewSummary) (models.ReviewSummary, error)
}

type Analyzer interface {
	AnalyzeReviews(ctx context.Context, reviews []string, rc ai.RatingContext) (*ai.ReviewAnalysis, error)
}

type Result struct {
	models.ReviewSummary
	Variant Variant `json:"variant"`
}

type Summarizer struct {
	Store    Store
	Analyzer Analyzer
	Metrics  *metrics.Metrics
	Log      logrus.FieldLogger
	Now      func() time.Time
}

func NewSummarizer(store Store, analyzer Analyzer, log logrus.FieldLogger) *Summarizer {
	if log == nil {
		log = logging.Discard()
	}
	return &Summarizer{Store: store, Analyzer: analyzer, Log: log, Now: time.Now}
}

// Summarize recomputes the digest for one event from all of its ratings and
// overwrites the stored summary. Events without ratings return ErrNoRatings
// and nothing is written.
func (s *Summarizer) Summarize(ctx context.Context, eventID uuid.UUID) (*Result, error) {
	if eventID == uuid.Nil {
		return nil, ErrEventIDRequired
	}
	log := s.Log.WithFields(logrus.Fields{"op": "summarize-reviews", "event_id": eventID})

	ratings, err := s.Store.ListRatings(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(ratings) == 0 {
		return nil, ErrNoRatings
	}

	rs := models.ReviewSummary{
		EventID:        eventID,
		Summary:        placeholderSummary,
		SentimentLabel: models.SentimentNeutral,
		Pros:           []string{},
		Cons:           []string{},
		CommonFeedback: []string{},
		TotalReviews:   len(ratings),
	}
	rs.AvgOrganization, rs.AvgDifficulty, rs.AvgWorth = averages(ratings)

	var variant Variant
	written := writtenReviews(ratings)
	if len(written) == 0 {
		variant = VariantHeuristic
		applyHeuristic(&rs)
	} else {
		variant = VariantFailed
		analysis, err := s.analyze(ctx, written, rs)
		if err != nil {
			log.WithError(err).Warn("review analysis unavailable, storing placeholder summary")
		} else {
			variant = VariantAnalyzed
			rs.Summary = analysis.Summary
			rs.SentimentScore = analysis.SentimentScore
			rs.SentimentLabel = models.SentimentLabel(analysis.SentimentLabel)
			rs.Pros = analysis.Pros
			rs.Cons = analysis.Cons
			rs.CommonFeedback = analysis.CommonFeedback
		}
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	rs.GeneratedAt = now().UTC()

	saved, err := s.Store.UpsertReviewSummary(ctx, rs)
	if err != nil {
		return nil, fmt.Errorf("save review summary: %w", err)
	}
	s.Metrics.Summary(string(variant))
	log.WithFields(logrus.Fields{"variant": variant, "total_reviews": rs.TotalReviews}).Info("review summary generated")

	return &Result{ReviewSummary: saved, Variant: variant}, nil
}

func (s *Summarizer) analyze(ctx context.Context, written []string, rs models.ReviewSummary) (*ai.ReviewAnalysis, error) {
	if s.Analyzer == nil {
		return nil, ai.ErrNotConfigured
	}
	analysis, err := s.Analyzer.AnalyzeReviews(ctx, written, ai.RatingContext{
		AvgOrganization: rs.AvgOrganization,
		AvgDifficulty:   rs.AvgDifficulty,
		AvgWorth:        rs.AvgWorth,
	})
	if err != nil {
		return nil, err
	}
	if !ai.ValidScore(analysis.SentimentScore) {
		return nil, fmt.Errorf("%w: %v", ai.ErrScoreOutOfRange, analysis.SentimentScore)
	}
	return analysis, nil
}

func averages(ratings []models.Rating) (org, diff, worth float64) {
	for _, r := range ratings {
		org += float64(r.OrganizationRating)
		diff += float64(r.DifficultyRating)
		worth += float64(r.WorthRating)
	}
	n := float64(len(ratings))
	return org / n, diff / n, worth / n
}

func writtenReviews(ratings []models.Rating) []string {
	var out []string
	for _, r := range ratings {
		if strings.TrimSpace(r.Review) != "" {
			out = append(out, r.Review)
		}
	}
	return out
}

// applyHeuristic maps the overall average from [0,5] onto [-1,1] around 2.5.
func applyHeuristic(rs *models.ReviewSummary) {
	overall := (rs.AvgOrganization + rs.AvgDifficulty + rs.AvgWorth) / 3
	rs.SentimentScore = (overall - 2.5) / 2.5
	rs.SentimentLabel = labelFor(rs.SentimentScore)
	rs.Summary = fmt.Sprintf("Based on %d rating(s), participants gave this event an average of %.1f/5.", rs.TotalReviews, overall)
}

func labelFor(score float64) models.SentimentLabel {
	switch {
	case score > 0.2:
		return models.SentimentPositive
	case score < -0.2:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}
