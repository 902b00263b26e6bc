package db

import (
	"strings"
	"testing"
)

func TestBuildCollegeSearch_NameOnly(t *testing.T) {
	sql, args := buildCollegeSearch("  iit ", "", 0)

	mustContain := []string{
		"FROM colleges",
		"name ILIKE '%' || $1 || '%'",
		"ORDER BY reputation_score DESC, name ASC",
		"LIMIT $2",
	}
	for _, token := range mustContain {
		if !strings.Contains(sql, token) {
			t.Fatalf("college search missing token %q: %s", token, sql)
		}
	}
	if strings.Contains(sql, "LOWER(country)") {
		t.Fatalf("country filter must be omitted when empty: %s", sql)
	}
	if len(args) != 2 || args[0] != "iit" || args[1] != 20 {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestBuildCollegeSearch_WithCountry(t *testing.T) {
	sql, args := buildCollegeSearch("delhi", "India", 5)

	if !strings.Contains(sql, "LOWER(country) = LOWER($2)") {
		t.Fatalf("country filter missing: %s", sql)
	}
	if !strings.Contains(sql, "LIMIT $3") {
		t.Fatalf("limit placeholder should follow country: %s", sql)
	}
	if len(args) != 3 || args[1] != "India" || args[2] != 5 {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"plain":     "plain",
		"100%":      `100\%`,
		"a_b":       `a\_b`,
		`back\sl`:   `back\\sl`,
		"%_mixed_%": `\%\_mixed\_\%`,
	}
	for in, want := range cases {
		if got := escapeLike(in); got != want {
			t.Fatalf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMigrationFiles_Ordered(t *testing.T) {
	files, err := migrationFiles()
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	if len(files) == 0 || files[0] != "0001_init.sql" {
		t.Fatalf("expected 0001_init.sql first, got %v", files)
	}
}

func TestInitMigration_UniqueKeys(t *testing.T) {
	content, err := migrationsFS.ReadFile("migrations/0001_init.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sql := string(content)

	mustContain := []string{
		"external_id TEXT UNIQUE",
		"event_id UUID NOT NULL UNIQUE REFERENCES events(id)",
		"CREATE TABLE IF NOT EXISTS ingest_runs",
	}
	for _, token := range mustContain {
		if !strings.Contains(sql, token) {
			t.Fatalf("init migration missing %q", token)
		}
	}
}
