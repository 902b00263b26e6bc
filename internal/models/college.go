package models

import (
	"time"

	"github.com/google/uuid"
)

// College is the locally curated institution record. It carries the reputation
// aggregates that the public university directory lacks.
type College struct {
	ID                    uuid.UUID `json:"id"`
	Name                  string    `json:"name"`
	City                  string    `json:"city"`
	StateProvince         string    `json:"state_province"`
	Country               string    `json:"country"`
	AlphaTwoCode          string    `json:"alpha_two_code"`
	Website               string    `json:"website"`
	Domains               []string  `json:"domains"`
	ReputationScore       float64   `json:"reputation_score"`
	AvgOrganizationRating float64   `json:"avg_organization_rating"`
	AvgDifficultyRating   float64   `json:"avg_difficulty_rating"`
	AvgWorthRating        float64   `json:"avg_worth_rating"`
	TotalEvents           int       `json:"total_events"`
	TotalReviews          int       `json:"total_reviews"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
