package ingest

import (
	"context"
	"os"
	"testing"

	"github.com/david/campus-events/internal/db"
	"github.com/david/campus-events/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_CoordinatorAgainstPostgres(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, dbURL)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, db.ApplyMigrations(ctx, pool, logging.Discard()))

	store := db.NewStore(pool)
	reg, err := LoadRegistry("")
	require.NoError(t, err)

	c := NewCoordinator(store, reg, newFixtureFetcher(t), logging.Discard())
	c.Journal = store
	// Parse relative to the real clock so the store accepts the dates; the
	// fixtures still resolve to future days.
	first, err := c.Run(ctx)
	require.NoError(t, err)

	before, err := store.CountEvents(ctx)
	require.NoError(t, err)

	second, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, first.TotalScraped, second.Updated+second.Skipped)

	after, err := store.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.NotEmpty(t, runs)
	assert.Equal(t, second.RunID, runs[0].ID)
}
