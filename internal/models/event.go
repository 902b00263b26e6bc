package models

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryTechnology Category = "Technology"
	CategoryBusiness   Category = "Business"
	CategoryDesign     Category = "Design"
	CategoryCultural   Category = "Cultural"
	CategorySports     Category = "Sports"
	CategoryCareer     Category = "Career"
	CategoryHealth     Category = "Health"
)

// Categories lists every category in classification order.
var Categories = []Category{
	CategoryTechnology,
	CategoryBusiness,
	CategoryDesign,
	CategoryCultural,
	CategorySports,
	CategoryCareer,
	CategoryHealth,
}

type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
	ModeHybrid  Mode = "hybrid"
)

// ScraperID is the reserved organizer identity attached to every scraped event.
var ScraperID = uuid.Nil

// AgendaItem is one slot of an event agenda.
type AgendaItem struct {
	Time  string `json:"time"`
	Title string `json:"title"`
}

type Speaker struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type Event struct {
	ID               uuid.UUID    `json:"id"`
	Title            string       `json:"title"`
	Date             string       `json:"date"` // YYYY-MM-DD
	EndDate          string       `json:"end_date,omitempty"`
	Time             string       `json:"time,omitempty"`
	Location         string       `json:"location"`
	College          string       `json:"college"`
	CollegeID        *uuid.UUID   `json:"college_id"`
	Category         Category     `json:"category"`
	Description      string       `json:"description"`
	ImageURL         string       `json:"image_url"`
	RegistrationLink string       `json:"registration_link"`
	SourceName       string       `json:"source_name"`
	SourceURL        string       `json:"source_url"`
	ExternalID       string       `json:"external_id"`
	Mode             Mode         `json:"mode"`
	Price            int          `json:"price"`
	OrganizerID      uuid.UUID    `json:"organizer_id"`
	IsVerified       bool         `json:"is_verified"`
	IsCompleted      bool         `json:"is_completed"`
	CurrentAttendees int          `json:"current_attendees"`
	MaxAttendees     *int         `json:"max_attendees"`
	ViewCount        int          `json:"view_count"`
	Agenda           []AgendaItem `json:"agenda"`
	Speakers         []Speaker    `json:"speakers"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}
