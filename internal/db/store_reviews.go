package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/david/campus-events/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListRatings returns every rating for an event, oldest first. Missing
// numeric scores come back as 0.
func (s *Store) ListRatings(ctx context.Context, eventID uuid.UUID) ([]models.Rating, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, event_id, user_id, organization_rating, difficulty_rating, worth_rating, review, created_at
		FROM event_ratings
		WHERE event_id = $1
		ORDER BY created_at ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list ratings failed: %w", err)
	}
	defer rows.Close()

	var ratings []models.Rating
	for rows.Next() {
		var r models.Rating
		var org, diff, worth *int16
		var review *string
		if err := rows.Scan(&r.ID, &r.EventID, &r.UserID, &org, &diff, &worth, &review, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		r.OrganizationRating = intOrZero(org)
		r.DifficultyRating = intOrZero(diff)
		r.WorthRating = intOrZero(worth)
		r.Review = deref(review)
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ratings failed: %w", err)
	}
	return ratings, nil
}

func intOrZero(v *int16) int {
	if v == nil {
		return 0
	}
	return int(*v)
}

func (s *Store) InsertRating(ctx context.Context, r models.Rating) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO event_ratings (event_id, user_id, organization_rating, difficulty_rating, worth_rating, review)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		r.EventID, r.UserID, r.OrganizationRating, r.DifficultyRating, r.WorthRating, nullIfEmpty(r.Review))
	if err != nil {
		return fmt.Errorf("insert rating for %s: %w", r.EventID, err)
	}
	return nil
}

const summaryCols = `id, event_id, summary, sentiment_score, sentiment_label, pros, cons, common_feedback,
	total_reviews, avg_organization, avg_difficulty, avg_worth, generated_at`

func scanSummary(scan func(dest ...interface{}) error) (models.ReviewSummary, error) {
	var rs models.ReviewSummary
	var label string
	err := scan(
		&rs.ID, &rs.EventID, &rs.Summary, &rs.SentimentScore, &label, &rs.Pros, &rs.Cons, &rs.CommonFeedback,
		&rs.TotalReviews, &rs.AvgOrganization, &rs.AvgDifficulty, &rs.AvgWorth, &rs.GeneratedAt,
	)
	rs.SentimentLabel = models.SentimentLabel(label)
	return rs, err
}

// UpsertReviewSummary writes the one summary row for the event, overwriting
// every field of an existing row.
func (s *Store) UpsertReviewSummary(ctx context.Context, rs models.ReviewSummary) (models.ReviewSummary, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO review_summaries (
			event_id, summary, sentiment_score, sentiment_label, pros, cons, common_feedback,
			total_reviews, avg_organization, avg_difficulty, avg_worth, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (event_id) DO UPDATE SET
			summary = EXCLUDED.summary,
			sentiment_score = EXCLUDED.sentiment_score,
			sentiment_label = EXCLUDED.sentiment_label,
			pros = EXCLUDED.pros,
			cons = EXCLUDED.cons,
			common_feedback = EXCLUDED.common_feedback,
			total_reviews = EXCLUDED.total_reviews,
			avg_organization = EXCLUDED.avg_organization,
			avg_difficulty = EXCLUDED.avg_difficulty,
			avg_worth = EXCLUDED.avg_worth,
			generated_at = EXCLUDED.generated_at
		RETURNING %s`, summaryCols),
		rs.EventID, rs.Summary, rs.SentimentScore, string(rs.SentimentLabel),
		nonNilStrings(rs.Pros), nonNilStrings(rs.Cons), nonNilStrings(rs.CommonFeedback),
		rs.TotalReviews, rs.AvgOrganization, rs.AvgDifficulty, rs.AvgWorth, rs.GeneratedAt,
	)
	out, err := scanSummary(row.Scan)
	if err != nil {
		return models.ReviewSummary{}, fmt.Errorf("upsert review summary for %s: %w", rs.EventID, err)
	}
	return out, nil
}

func (s *Store) GetReviewSummary(ctx context.Context, eventID uuid.UUID) (*models.ReviewSummary, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM review_summaries WHERE event_id = $1", summaryCols), eventID)
	rs, err := scanSummary(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get review summary: %w", err)
	}
	return &rs, nil
}

func (s *Store) CountReviewSummaries(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM review_summaries WHERE event_id = $1", eventID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count review summaries: %w", err)
	}
	return n, nil
}
