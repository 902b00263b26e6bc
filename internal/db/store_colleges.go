package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/david/campus-events/internal/models"
)

const collegeCols = `id, name, city, state_province, country, alpha_two_code, website, domains,
	reputation_score, avg_organization_rating, avg_difficulty_rating, avg_worth_rating,
	total_events, total_reviews, created_at, updated_at`

func scanCollege(scan func(dest ...interface{}) error) (models.College, error) {
	var c models.College
	var city, state, country, alpha, website *string

	err := scan(
		&c.ID, &c.Name, &city, &state, &country, &alpha, &website, &c.Domains,
		&c.ReputationScore, &c.AvgOrganizationRating, &c.AvgDifficultyRating, &c.AvgWorthRating,
		&c.TotalEvents, &c.TotalReviews, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return c, err
	}
	c.City = deref(city)
	c.StateProvince = deref(state)
	c.Country = deref(country)
	c.AlphaTwoCode = deref(alpha)
	c.Website = deref(website)
	if c.Domains == nil {
		c.Domains = []string{}
	}
	return c, nil
}

// escapeLike makes user input match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// buildCollegeSearch returns a case-insensitive substring search on name,
// optionally restricted to one country, best reputation first.
func buildCollegeSearch(query, country string, limit int) (string, []interface{}) {
	where := "WHERE name ILIKE '%' || $1 || '%'"
	args := []interface{}{escapeLike(strings.TrimSpace(query))}
	argIdx := 2

	if c := strings.TrimSpace(country); c != "" {
		where += fmt.Sprintf(" AND LOWER(country) = LOWER($%d)", argIdx)
		args = append(args, c)
		argIdx++
	}

	if limit <= 0 {
		limit = 20
	}
	sql := fmt.Sprintf("SELECT %s FROM colleges %s ORDER BY reputation_score DESC, name ASC LIMIT $%d", collegeCols, where, argIdx)
	args = append(args, limit)
	return sql, args
}

func (s *Store) SearchColleges(ctx context.Context, query, country string, limit int) ([]models.College, error) {
	sql, args := buildCollegeSearch(query, country, limit)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("college search failed: %w", err)
	}
	defer rows.Close()

	colleges := []models.College{}
	for rows.Next() {
		c, err := scanCollege(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan college: %w", err)
		}
		colleges = append(colleges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("college search failed: %w", err)
	}
	return colleges, nil
}

// InsertCollege is used by operators and integration tests to seed the
// authoritative college list.
func (s *Store) InsertCollege(ctx context.Context, c models.College) (models.College, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO colleges (name, city, state_province, country, alpha_two_code, website, domains, reputation_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, collegeCols),
		c.Name, nullIfEmpty(c.City), nullIfEmpty(c.StateProvince), nullIfEmpty(c.Country),
		nullIfEmpty(c.AlphaTwoCode), nullIfEmpty(c.Website), nonNilStrings(c.Domains), c.ReputationScore,
	)
	out, err := scanCollege(row.Scan)
	if err != nil {
		return models.College{}, fmt.Errorf("insert college %q: %w", c.Name, err)
	}
	return out, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
