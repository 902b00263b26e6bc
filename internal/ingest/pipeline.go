package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/david/campus-events/internal/db"
	"github.com/david/campus-events/internal/logging"
	"github.com/david/campus-events/internal/metrics"
	"github.com/david/campus-events/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrAllSourcesFailed means no configured source produced a page, so the
// run has nothing to reconcile.
var ErrAllSourcesFailed = errors.New("all sources failed")

// EventStore is the persistence the coordinator writes through.
type EventStore interface {
	UpsertEvent(ctx context.Context, e models.Event) (inserted bool, err error)
	MarkPastEventsCompleted(ctx context.Context, today time.Time) (int64, error)
}

// RunJournal records each coordinator run. Journal failures never fail a run.
type RunJournal interface {
	StartRun(ctx context.Context) (uuid.UUID, error)
	FinishRun(ctx context.Context, run db.RunRecord) error
}

// RunResult is what a caller sees after one ingestion pass.
type RunResult struct {
	RunID        uuid.UUID         `json:"run_id,omitempty"`
	Status       string            `json:"status"`
	TotalScraped int               `json:"total_scraped"`
	Inserted     int               `json:"inserted"`
	Updated      int               `json:"updated"`
	Skipped      int               `json:"skipped"`
	Completed    int64             `json:"completed"`
	Sources      map[string]int    `json:"sources"`
	SourceErrors map[string]string `json:"source_errors,omitempty"`
}

const (
	RunCompleted = "completed"
	RunPartial   = "partial"
	RunFailed    = "failed"
)

type Coordinator struct {
	Store    EventStore
	Journal  RunJournal
	Registry *Registry
	Parsers  *ParserFactory
	Fetcher  Fetcher
	Metrics  *metrics.Metrics
	Log      logrus.FieldLogger
	Now      func() time.Time
}

func NewCoordinator(store EventStore, registry *Registry, fetcher Fetcher, log logrus.FieldLogger) *Coordinator {
	if log == nil {
		log = logging.Discard()
	}
	return &Coordinator{
		Store:    store,
		Registry: registry,
		Parsers:  DefaultParsers,
		Fetcher:  fetcher,
		Log:      log,
		Now:      time.Now,
	}
}

type sourceResult struct {
	source     SourceConfig
	candidates []CandidateEvent
	err        error
}

// Run fetches and parses every enabled source concurrently, upserts all
// candidates by external_id, then sweeps past events to completed.
func (c *Coordinator) Run(ctx context.Context) (*RunResult, error) {
	now := c.Now()
	sources := c.Registry.Enabled()
	if len(sources) == 0 {
		return nil, fmt.Errorf("no enabled sources in registry")
	}

	log := c.Log.WithField("op", "scrape-events")
	result := &RunResult{
		Sources:      make(map[string]int, len(sources)),
		SourceErrors: map[string]string{},
	}

	if c.Journal != nil {
		runID, err := c.Journal.StartRun(ctx)
		if err != nil {
			log.WithError(err).Warn("failed to create ingest run")
		} else {
			result.RunID = runID
			log = log.WithField("run_id", runID)
		}
	}

	// Branches share nothing; each writes only its own slot.
	results := make([]sourceResult, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.scrapeSource(ctx, src, now)
		}()
	}
	wg.Wait()

	var all []sourceTagged
	var failures []string
	for _, r := range results {
		srcLog := log.WithField("source", r.source.ID)
		if r.err != nil {
			c.Metrics.FetchFailed(r.source.ID)
			result.SourceErrors[r.source.ID] = r.err.Error()
			failures = append(failures, fmt.Sprintf("%s: %v", r.source.ID, r.err))
			srcLog.WithError(r.err).Error("source failed")
			continue
		}
		result.Sources[r.source.ID] = len(r.candidates)
		c.Metrics.Candidates(r.source.ID, len(r.candidates))
		srcLog.WithField("candidates", len(r.candidates)).Info("source parsed")
		for _, cand := range r.candidates {
			all = append(all, sourceTagged{source: r.source.ID, event: cand})
		}
	}

	if len(failures) == len(sources) {
		result.Status = RunFailed
		c.finish(ctx, log, result)
		return result, fmt.Errorf("%w: %s", ErrAllSourcesFailed, strings.Join(failures, "; "))
	}

	result.TotalScraped = len(all)
	for _, item := range all {
		if err := ctx.Err(); err != nil {
			result.Status = RunFailed
			c.finish(ctx, log, result)
			return result, err
		}
		c.upsert(ctx, log, item, result)
	}

	completed, err := c.Store.MarkPastEventsCompleted(ctx, now)
	if err != nil {
		log.WithError(err).Error("completed sweep failed")
	} else {
		result.Completed = completed
		c.Metrics.Completed(completed)
	}

	result.Status = RunCompleted
	if len(failures) > 0 || result.Skipped > 0 {
		result.Status = RunPartial
	}
	c.finish(ctx, log, result)

	log.WithFields(logrus.Fields{
		"total_scraped": result.TotalScraped,
		"inserted":      result.Inserted,
		"updated":       result.Updated,
		"skipped":       result.Skipped,
		"completed":     result.Completed,
	}).Info("ingestion complete")
	return result, nil
}

type sourceTagged struct {
	source string
	event  CandidateEvent
}

func (c *Coordinator) scrapeSource(ctx context.Context, src SourceConfig, now time.Time) sourceResult {
	res := sourceResult{source: src}

	parser, err := c.Parsers.Build(src, func() time.Time { return now })
	if err != nil {
		res.err = err
		return res
	}

	fetcher := c.Fetcher
	if sf, ok := fetcher.(SourceAwareFetcher); ok {
		fetcher = sf.ForSource(src)
	}

	doc, err := fetcher.Fetch(ctx, src.ListingURL)
	if err != nil {
		res.err = fmt.Errorf("fetch error: %w", err)
		return res
	}
	defer doc.Body.Close()

	candidates, err := parser.Parse(ctx, doc.Body)
	if err != nil {
		res.err = fmt.Errorf("parse error: %w", err)
		return res
	}
	res.candidates = candidates
	return res
}

func (c *Coordinator) upsert(ctx context.Context, log logrus.FieldLogger, item sourceTagged, result *RunResult) {
	cand := item.event
	NormalizeCandidate(&cand)
	elog := log.WithFields(logrus.Fields{"source": item.source, "external_id": cand.ExternalID})

	if cand.Title == "" || cand.ExternalID == "" {
		result.Skipped++
		c.Metrics.Upsert(item.source, "skipped")
		elog.Warn("candidate missing title or external_id")
		return
	}

	inserted, err := c.Store.UpsertEvent(ctx, cand.ToEvent())
	switch {
	case err != nil:
		result.Skipped++
		c.Metrics.Upsert(item.source, "skipped")
		elog.WithError(err).Error("upsert failed")
	case inserted:
		result.Inserted++
		c.Metrics.Upsert(item.source, "inserted")
	default:
		result.Updated++
		c.Metrics.Upsert(item.source, "updated")
	}
}

func (c *Coordinator) finish(ctx context.Context, log logrus.FieldLogger, result *RunResult) {
	if c.Journal == nil || result.RunID == uuid.Nil {
		return
	}
	// The run context may already be cancelled; the journal write should
	// still land.
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := c.Journal.FinishRun(jctx, db.RunRecord{
		ID:           result.RunID,
		Status:       result.Status,
		TotalScraped: result.TotalScraped,
		Inserted:     result.Inserted,
		Updated:      result.Updated,
		Skipped:      result.Skipped,
		Completed:    result.Completed,
		Sources:      result.Sources,
		Errors:       result.SourceErrors,
	})
	if err != nil {
		log.WithError(err).Warn("failed to update ingest run")
	}
}

// Sweep runs only the completed-event maintenance step.
func (c *Coordinator) Sweep(ctx context.Context) (int64, error) {
	n, err := c.Store.MarkPastEventsCompleted(ctx, c.Now())
	if err != nil {
		return 0, err
	}
	c.Metrics.Completed(n)
	c.Log.WithFields(logrus.Fields{"op": "sweep", "completed": n}).Info("completed sweep finished")
	return n, nil
}
