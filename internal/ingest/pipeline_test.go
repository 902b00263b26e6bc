package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/david/campus-events/internal/db"
	"github.com/david/campus-events/internal/logging"
	"github.com/david/campus-events/internal/metrics"
	"github.com/david/campus-events/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu       sync.Mutex
	events   map[string]models.Event
	failIDs  map[string]bool
	sweepErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{events: map[string]models.Event{}, failIDs: map[string]bool{}}
}

func (s *fakeStore) UpsertEvent(_ context.Context, e models.Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIDs[e.ExternalID] {
		return false, fmt.Errorf("constraint violation on %s", e.ExternalID)
	}
	existing, ok := s.events[e.ExternalID]
	if ok {
		e.IsCompleted = existing.IsCompleted
	}
	s.events[e.ExternalID] = e
	return !ok, nil
}

func (s *fakeStore) MarkPastEventsCompleted(_ context.Context, today time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sweepErr != nil {
		return 0, s.sweepErr
	}
	var n int64
	for id, e := range s.events {
		if !e.IsCompleted && IsPast(e.Date, today) {
			e.IsCompleted = true
			s.events[id] = e
			n++
		}
	}
	return n, nil
}

type fakeJournal struct {
	finished []db.RunRecord
}

func (j *fakeJournal) StartRun(context.Context) (uuid.UUID, error) { return uuid.New(), nil }

func (j *fakeJournal) FinishRun(_ context.Context, run db.RunRecord) error {
	j.finished = append(j.finished, run)
	return nil
}

// fixtureFetcher serves testdata markdown keyed by listing URL.
type fixtureFetcher struct {
	pages map[string]string
	fail  map[string]bool
}

func (f *fixtureFetcher) Fetch(_ context.Context, url string) (*FetchedDocument, error) {
	if f.fail[url] {
		return nil, errors.New("connection reset")
	}
	return &FetchedDocument{URL: url, Body: io.NopCloser(strings.NewReader(f.pages[url]))}, nil
}

func newFixtureFetcher(t *testing.T) *fixtureFetcher {
	t.Helper()
	read := func(name string) string {
		b, err := os.ReadFile(filepath.Join("testdata", name))
		require.NoError(t, err)
		return string(b)
	}
	return &fixtureFetcher{
		pages: map[string]string{
			"https://www.knowafest.com/":    read("knowafest.md"),
			"https://unstop.com/hackathons": read("unstop.md"),
		},
		fail: map[string]bool{},
	}
}

func newTestCoordinator(t *testing.T, store *fakeStore, fetcher Fetcher) (*Coordinator, *fakeJournal) {
	t.Helper()
	reg, err := LoadRegistry("")
	require.NoError(t, err)

	c := NewCoordinator(store, reg, fetcher, logging.Discard())
	c.Now = fixedClock
	c.Metrics = metrics.New()
	journal := &fakeJournal{}
	c.Journal = journal
	return c, journal
}

func TestCoordinator_RunIsIdempotent(t *testing.T) {
	store := newFakeStore()
	c, journal := newTestCoordinator(t, store, newFixtureFetcher(t))

	first, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, first.TotalScraped)
	assert.Equal(t, 5, first.Inserted)
	assert.Equal(t, 0, first.Updated)
	assert.Equal(t, map[string]int{"knowafest": 2, "unstop": 3}, first.Sources)
	assert.Equal(t, RunCompleted, first.Status)

	second, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 5, second.Updated)
	assert.Len(t, store.events, 5)

	require.Len(t, journal.finished, 2)
	assert.Equal(t, RunCompleted, journal.finished[1].Status)
}

func TestCoordinator_ScrapedEventsAreAttributedToScraper(t *testing.T) {
	store := newFakeStore()
	c, _ := newTestCoordinator(t, store, newFixtureFetcher(t))

	_, err := c.Run(context.Background())
	require.NoError(t, err)

	ev := store.events["unstop_smart_india_hackathon"]
	assert.Equal(t, models.ScraperID, ev.OrganizerID)
	assert.True(t, ev.IsVerified)
	assert.Equal(t, "2026-03-06", ev.Date)
}

func TestCoordinator_OneSourceFailing(t *testing.T) {
	store := newFakeStore()
	fetcher := newFixtureFetcher(t)
	fetcher.fail["https://unstop.com/hackathons"] = true
	c, journal := newTestCoordinator(t, store, fetcher)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalScraped)
	assert.Equal(t, map[string]int{"knowafest": 2}, res.Sources)
	assert.Contains(t, res.SourceErrors["unstop"], "connection reset")
	assert.Equal(t, RunPartial, res.Status)
	assert.Equal(t, RunPartial, journal.finished[0].Status)
}

func TestCoordinator_AllSourcesFailing(t *testing.T) {
	store := newFakeStore()
	fetcher := newFixtureFetcher(t)
	fetcher.fail["https://unstop.com/hackathons"] = true
	fetcher.fail["https://www.knowafest.com/"] = true
	c, journal := newTestCoordinator(t, store, fetcher)

	res, err := c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllSourcesFailed))
	assert.Equal(t, RunFailed, res.Status)
	assert.Empty(t, store.events)
	assert.Equal(t, RunFailed, journal.finished[0].Status)
}

func TestCoordinator_UpsertFailureIsSkipped(t *testing.T) {
	store := newFakeStore()
	store.failIDs["knowafest_techfest_2026"] = true
	c, _ := newTestCoordinator(t, store, newFixtureFetcher(t))

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 4, res.Inserted)
	assert.Equal(t, RunPartial, res.Status)
}

func TestCoordinator_MarkupOnlyTitlesAreNotSkips(t *testing.T) {
	store := newFakeStore()
	fetcher := newFixtureFetcher(t)
	fetcher.pages["https://www.knowafest.com/"] += "\n[![ venue Poster](/x.png)Tech\\\n\\\nDelhi\\\n\\\n\\- 10th Apr 2026\\\n\\\n<span></span>](/x)\n"
	c, _ := newTestCoordinator(t, store, fetcher)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalScraped)
	assert.Zero(t, res.Skipped)
	assert.Equal(t, RunCompleted, res.Status)
}

func TestCoordinator_SweepMarksOnlyPastEvents(t *testing.T) {
	store := newFakeStore()
	store.events["old"] = models.Event{ExternalID: "old", Date: "2026-02-01"}
	store.events["done"] = models.Event{ExternalID: "done", Date: "2026-01-01", IsCompleted: true}
	store.events["today"] = models.Event{ExternalID: "today", Date: "2026-03-01"}
	c, _ := newTestCoordinator(t, store, newFixtureFetcher(t))

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Completed)
	assert.True(t, store.events["old"].IsCompleted)
	assert.True(t, store.events["done"].IsCompleted)
	assert.False(t, store.events["today"].IsCompleted)
}

func TestCoordinator_SweepFailureIsNotFatal(t *testing.T) {
	store := newFakeStore()
	store.sweepErr = errors.New("statement timeout")
	c, _ := newTestCoordinator(t, store, newFixtureFetcher(t))

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Inserted)
	assert.Zero(t, res.Completed)
}

func TestCoordinator_SweepOnly(t *testing.T) {
	store := newFakeStore()
	store.events["old"] = models.Event{ExternalID: "old", Date: "2026-02-27"}
	c, _ := newTestCoordinator(t, store, newFixtureFetcher(t))

	n, err := c.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
