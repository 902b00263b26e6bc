package reviews

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/david/campus-events/internal/ai"
	"github.com/david/campus-events/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	ratings []models.Rating
	listErr error
	saved   []models.ReviewSummary
}

func (f *fakeStore) ListRatings(_ context.Context, _ uuid.UUID) ([]models.Rating, error) {
	return f.ratings, f.listErr
}

func (f *fakeStore) UpsertReviewSummary(_ context.Context, rs models.ReviewSummary) (models.ReviewSummary, error) {
	f.saved = append(f.saved, rs)
	rs.ID = uuid.New()
	return rs, nil
}

type fakeAnalyzer struct {
	out   *ai.ReviewAnalysis
	err   error
	got   []string
	rc    ai.RatingContext
	calls int
}

func (f *fakeAnalyzer) AnalyzeReviews(_ context.Context, reviews []string, rc ai.RatingContext) (*ai.ReviewAnalysis, error) {
	f.calls++
	f.got = reviews
	f.rc = rc
	return f.out, f.err
}

func scoredAnalyzer(score float64, label string) *fakeAnalyzer {
	return &fakeAnalyzer{out: &ai.ReviewAnalysis{
		Summary:        "Mixed feelings.",
		SentimentScore: score,
		SentimentLabel: label,
		Pros:           []string{},
		Cons:           []string{},
		CommonFeedback: []string{},
	}}
}

var generatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestSummarizer(store Store, analyzer Analyzer) *Summarizer {
	s := NewSummarizer(store, analyzer, nil)
	s.Now = func() time.Time { return generatedAt }
	return s
}

func rating(org, diff, worth int, review string) models.Rating {
	return models.Rating{OrganizationRating: org, DifficultyRating: diff, WorthRating: worth, Review: review}
}

func TestSummarizeRequiresEventID(t *testing.T) {
	s := newTestSummarizer(&fakeStore{}, nil)
	_, err := s.Summarize(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, ErrEventIDRequired)
}

func TestSummarizeNoRatingsWritesNothing(t *testing.T) {
	store := &fakeStore{}
	s := newTestSummarizer(store, &fakeAnalyzer{})

	_, err := s.Summarize(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoRatings)
	assert.Empty(t, store.saved)
}

func TestSummarizeHeuristic(t *testing.T) {
	tests := []struct {
		name      string
		ratings   []models.Rating
		wantScore float64
		wantLabel models.SentimentLabel
		wantText  string
	}{
		{
			name:      "positive",
			ratings:   []models.Rating{rating(5, 4, 5, ""), rating(4, 4, 5, "  ")},
			wantScore: (4.5 - 2.5) / 2.5,
			wantLabel: models.SentimentPositive,
			wantText:  "Based on 2 rating(s), participants gave this event an average of 4.5/5.",
		},
		{
			name:      "neutral at threshold",
			ratings:   []models.Rating{rating(3, 3, 3, "")},
			wantScore: 0.2,
			wantLabel: models.SentimentNeutral,
			wantText:  "Based on 1 rating(s), participants gave this event an average of 3.0/5.",
		},
		{
			name:      "negative with missing scores",
			ratings:   []models.Rating{rating(1, 0, 2, "")},
			wantScore: (1.0 - 2.5) / 2.5,
			wantLabel: models.SentimentNegative,
			wantText:  "Based on 1 rating(s), participants gave this event an average of 1.0/5.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{ratings: tt.ratings}
			analyzer := &fakeAnalyzer{}
			s := newTestSummarizer(store, analyzer)

			got, err := s.Summarize(context.Background(), uuid.New())
			require.NoError(t, err)

			assert.Equal(t, VariantHeuristic, got.Variant)
			assert.InDelta(t, tt.wantScore, got.SentimentScore, 1e-9)
			assert.Equal(t, tt.wantLabel, got.SentimentLabel)
			assert.Equal(t, tt.wantText, got.Summary)
			assert.Empty(t, got.Pros)
			assert.NotNil(t, got.Pros)
			assert.Zero(t, analyzer.calls)
			require.Len(t, store.saved, 1)
			assert.Equal(t, generatedAt, store.saved[0].GeneratedAt)
		})
	}
}

func TestSummarizeAnalyzed(t *testing.T) {
	store := &fakeStore{ratings: []models.Rating{
		rating(5, 3, 4, "Great mentors"),
		rating(3, 3, 2, ""),
		rating(4, 3, 3, "Venue was crowded"),
	}}
	analyzer := &fakeAnalyzer{out: &ai.ReviewAnalysis{
		Summary:        "Participants liked the mentors but found the venue cramped.",
		SentimentScore: 0.4,
		SentimentLabel: "positive",
		Pros:           []string{"mentors"},
		Cons:           []string{"venue"},
		CommonFeedback: []string{"mentors", "space"},
	}}
	s := newTestSummarizer(store, analyzer)

	got, err := s.Summarize(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, VariantAnalyzed, got.Variant)
	assert.Equal(t, []string{"Great mentors", "Venue was crowded"}, analyzer.got)
	assert.InDelta(t, 4.0, analyzer.rc.AvgOrganization, 1e-9)
	assert.InDelta(t, 3.0, analyzer.rc.AvgWorth, 1e-9)
	assert.Equal(t, "Participants liked the mentors but found the venue cramped.", got.Summary)
	assert.Equal(t, models.SentimentPositive, got.SentimentLabel)
	assert.Equal(t, []string{"venue"}, got.Cons)
	assert.Equal(t, 3, got.TotalReviews)
}

func TestSummarizeAnalysisFailureDegrades(t *testing.T) {
	for name, analyzer := range map[string]Analyzer{
		"upstream error":    &fakeAnalyzer{err: errors.New("503")},
		"no tool call":      &fakeAnalyzer{err: ai.ErrNoToolCall},
		"no analyzer":       nil,
		"score above range": scoredAnalyzer(1.7, "positive"),
		"score below range": scoredAnalyzer(-3, "negative"),
	} {
		t.Run(name, func(t *testing.T) {
			store := &fakeStore{ratings: []models.Rating{rating(5, 5, 5, "Amazing")}}
			s := newTestSummarizer(store, analyzer)

			got, err := s.Summarize(context.Background(), uuid.New())
			require.NoError(t, err)

			assert.Equal(t, VariantFailed, got.Variant)
			assert.Equal(t, placeholderSummary, got.Summary)
			assert.Zero(t, got.SentimentScore)
			assert.Equal(t, models.SentimentNeutral, got.SentimentLabel)
			assert.InDelta(t, 5.0, got.AvgWorth, 1e-9)
			require.Len(t, store.saved, 1)
		})
	}
}

func TestSummarizeStoreError(t *testing.T) {
	boom := errors.New("connection refused")
	s := newTestSummarizer(&fakeStore{listErr: boom}, nil)
	_, err := s.Summarize(context.Background(), uuid.New())
	assert.ErrorIs(t, err, boom)
}
