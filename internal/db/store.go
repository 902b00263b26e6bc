package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/david/campus-events/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

const dateLayout = "2006-01-02"

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// eventCols is the column list shared by every event query.
const eventCols = `id, title, date, end_date, time, location, college, college_id, category,
	description, image_url, registration_link, source_name, source_url, external_id,
	mode, price, organizer_id, is_verified, is_completed, current_attendees, max_attendees,
	view_count, agenda, speakers, created_at, updated_at`

func scanEvent(scan func(dest ...interface{}) error) (models.Event, error) {
	var e models.Event
	var date time.Time
	var endDate *time.Time
	var eventTime, location, college, description, imageURL, regLink *string
	var sourceName, sourceURL, externalID *string
	var category, mode string
	var agendaRaw, speakersRaw []byte

	err := scan(
		&e.ID, &e.Title, &date, &endDate, &eventTime, &location, &college, &e.CollegeID, &category,
		&description, &imageURL, &regLink, &sourceName, &sourceURL, &externalID,
		&mode, &e.Price, &e.OrganizerID, &e.IsVerified, &e.IsCompleted, &e.CurrentAttendees, &e.MaxAttendees,
		&e.ViewCount, &agendaRaw, &speakersRaw, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return e, err
	}

	e.Date = date.Format(dateLayout)
	if endDate != nil {
		e.EndDate = endDate.Format(dateLayout)
	}
	e.Category = models.Category(category)
	e.Mode = models.Mode(mode)
	e.Time = deref(eventTime)
	e.Location = deref(location)
	e.College = deref(college)
	e.Description = deref(description)
	e.ImageURL = deref(imageURL)
	e.RegistrationLink = deref(regLink)
	e.SourceName = deref(sourceName)
	e.SourceURL = deref(sourceURL)
	e.ExternalID = deref(externalID)

	if len(agendaRaw) > 0 {
		_ = json.Unmarshal(agendaRaw, &e.Agenda)
	}
	if len(speakersRaw) > 0 {
		_ = json.Unmarshal(speakersRaw, &e.Speakers)
	}

	return e, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullIfEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// jsonList encodes a slice for a JSONB column, writing [] instead of null.
func jsonList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

// UpsertEvent inserts the event or, when its external_id already exists,
// overwrites every scraped field in place. is_completed is never touched
// here so the completed flag stays monotonic. inserted reports which branch
// ran.
func (s *Store) UpsertEvent(ctx context.Context, e models.Event) (inserted bool, err error) {
	if strings.TrimSpace(e.ExternalID) == "" {
		return false, fmt.Errorf("upsert event %q: empty external_id", e.Title)
	}
	date, err := time.Parse(dateLayout, e.Date)
	if err != nil {
		return false, fmt.Errorf("upsert event %q: invalid date %q: %w", e.Title, e.Date, err)
	}
	agenda, err := jsonList(e.Agenda)
	if err != nil {
		return false, fmt.Errorf("upsert event %q: encode agenda: %w", e.Title, err)
	}
	speakers, err := jsonList(e.Speakers)
	if err != nil {
		return false, fmt.Errorf("upsert event %q: encode speakers: %w", e.Title, err)
	}
	mode := e.Mode
	if mode == "" {
		mode = models.ModeOffline
	}

	sql := `
		INSERT INTO events (
			title, date, location, college, category, description, image_url,
			registration_link, source_name, source_url, external_id, mode, price,
			organizer_id, is_verified, agenda, speakers, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW())
		ON CONFLICT (external_id) DO UPDATE SET
			title = EXCLUDED.title,
			date = EXCLUDED.date,
			location = EXCLUDED.location,
			college = EXCLUDED.college,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			registration_link = EXCLUDED.registration_link,
			source_name = EXCLUDED.source_name,
			source_url = EXCLUDED.source_url,
			mode = EXCLUDED.mode,
			price = EXCLUDED.price,
			organizer_id = EXCLUDED.organizer_id,
			is_verified = EXCLUDED.is_verified,
			agenda = EXCLUDED.agenda,
			speakers = EXCLUDED.speakers,
			updated_at = NOW()
		RETURNING (xmax = 0)
	`

	err = s.pool.QueryRow(ctx, sql,
		e.Title, date, nullIfEmpty(e.Location), nullIfEmpty(e.College), string(e.Category),
		nullIfEmpty(e.Description), nullIfEmpty(e.ImageURL), nullIfEmpty(e.RegistrationLink),
		nullIfEmpty(e.SourceName), nullIfEmpty(e.SourceURL), e.ExternalID, string(mode), e.Price,
		e.OrganizerID, e.IsVerified, agenda, speakers,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert event %q: %w", e.ExternalID, err)
	}
	return inserted, nil
}

// MarkPastEventsCompleted flips every event dated strictly before today to
// completed. Already-completed rows are not matched.
func (s *Store) MarkPastEventsCompleted(ctx context.Context, today time.Time) (int64, error) {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	tag, err := s.pool.Exec(ctx,
		`UPDATE events SET is_completed = TRUE, updated_at = NOW()
		 WHERE date < $1 AND is_completed = FALSE`, day)
	if err != nil {
		return 0, fmt.Errorf("completed sweep failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM events WHERE id = $1", eventCols), id)
	return scanOneEvent(row)
}

func (s *Store) GetEventByExternalID(ctx context.Context, externalID string) (*models.Event, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM events WHERE external_id = $1", eventCols), externalID)
	return scanOneEvent(row)
}

func scanOneEvent(row pgx.Row) (*models.Event, error) {
	e, err := scanEvent(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	return &e, nil
}

func (s *Store) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM events").Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
