package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/david/campus-events/internal/auth"
	"github.com/david/campus-events/internal/colleges"
	"github.com/david/campus-events/internal/config"
	"github.com/david/campus-events/internal/ingest"
	"github.com/david/campus-events/internal/logging"
	"github.com/david/campus-events/internal/metrics"
	"github.com/david/campus-events/internal/reviews"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

type Scraper interface {
	Run(ctx context.Context) (*ingest.RunResult, error)
}

type CollegeSearcher interface {
	Search(ctx context.Context, query, country string) ([]colleges.Result, error)
}

type ReviewSummarizer interface {
	Summarize(ctx context.Context, eventID uuid.UUID) (*reviews.Result, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators behind each function. Any of them may be nil;
// the matching route then answers 500.
type Deps struct {
	Scraper    Scraper
	Colleges   CollegeSearcher
	Summarizer ReviewSummarizer
	DB         Pinger
	Metrics    *metrics.Metrics
}

type Server struct {
	Echo   *echo.Echo
	Config *config.Config
	Deps   Deps
	Log    logrus.FieldLogger

	jobMu      sync.Mutex
	runningJob *scrapeJob
}

type scrapeJob struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"` // running, completed, failed
	StartedAt time.Time          `json:"started_at"`
	EndedAt   time.Time          `json:"ended_at,omitempty"`
	Result    *ingest.RunResult  `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	Cancel    context.CancelFunc `json:"-"`
}

var corsAllowHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

func NewServer(cfg *config.Config, deps Deps, log logrus.FieldLogger) *Server {
	log = logging.OrDiscard(log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newValidator()
	e.HTTPErrorHandler = errorHandler(log)

	e.Use(middleware.Recover())
	e.Use(requestLogger(log))

	origins := cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: corsAllowHeaders,
	}))

	s := &Server{
		Echo:   e,
		Config: cfg,
		Deps:   deps,
		Log:    log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	s.Echo.GET("/metrics", echo.WrapHandler(s.Deps.Metrics.Handler()))

	fn := s.Echo.Group("/functions/v1")
	requireService := auth.RequireRole(s.Config.Auth.JWTSecret, auth.RoleServiceRole)

	fn.POST("/scrape-events", s.handleScrapeEvents, requireService)
	fn.GET("/scrape-events/jobs/:id", s.handleScrapeJob, requireService)
	fn.POST("/search-colleges", s.handleSearchColleges)
	fn.POST("/summarize-reviews", s.handleSummarizeReviews)

	for _, path := range []string{"/scrape-events", "/search-colleges", "/summarize-reviews"} {
		fn.OPTIONS(path, s.handlePreflight)
	}
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.jobMu.Lock()
	if s.runningJob != nil && s.runningJob.Cancel != nil {
		s.runningJob.Cancel()
	}
	s.jobMu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Echo.Shutdown(shutdownCtx)
}

func (s *Server) handlePreflight(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleHealth(c echo.Context) error {
	if s.Deps.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := s.Deps.DB.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
