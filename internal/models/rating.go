package models

import (
	"time"

	"github.com/google/uuid"
)

type Rating struct {
	ID                 uuid.UUID `json:"id"`
	EventID            uuid.UUID `json:"event_id"`
	UserID             uuid.UUID `json:"user_id"`
	OrganizationRating int       `json:"organization_rating"`
	DifficultyRating   int       `json:"difficulty_rating"`
	WorthRating        int       `json:"worth_rating"`
	Review             string    `json:"review"`
	CreatedAt          time.Time `json:"created_at"`
}

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// ReviewSummary is the derived, per-event digest of all ratings. There is at
// most one row per event; regeneration overwrites it.
type ReviewSummary struct {
	ID              uuid.UUID      `json:"id"`
	EventID         uuid.UUID      `json:"event_id"`
	Summary         string         `json:"summary"`
	SentimentScore  float64        `json:"sentiment_score"`
	SentimentLabel  SentimentLabel `json:"sentiment_label"`
	Pros            []string       `json:"pros"`
	Cons            []string       `json:"cons"`
	CommonFeedback  []string       `json:"common_feedback"`
	TotalReviews    int            `json:"total_reviews"`
	AvgOrganization float64        `json:"avg_organization"`
	AvgDifficulty   float64        `json:"avg_difficulty"`
	AvgWorth        float64        `json:"avg_worth"`
	GeneratedAt     time.Time      `json:"generated_at"`
}
