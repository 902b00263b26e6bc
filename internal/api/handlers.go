package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/david/campus-events/internal/colleges"
	"github.com/david/campus-events/internal/ingest"
	"github.com/david/campus-events/internal/reviews"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	msgQueryTooShort   = "Query must be at least 2 characters"
	msgEventIDRequired = "event_id is required"
	msgEventIDInvalid  = "event_id must be a valid UUID"
	msgNoReviews       = "No reviews found for this event"
	msgInvalidBody     = "Invalid request body"
)

type scrapeResponse struct {
	Success bool `json:"success"`
	*ingest.RunResult
}

func (s *Server) handleScrapeEvents(c echo.Context) error {
	if err := s.Config.RequireScraper(); err != nil {
		return failure(c, http.StatusInternalServerError, err.Error())
	}
	if s.Deps.Scraper == nil {
		return failure(c, http.StatusInternalServerError, "scraper not configured")
	}
	if c.QueryParam("async") == "true" {
		return s.startScrapeJob(c)
	}

	result, err := s.Deps.Scraper.Run(c.Request().Context())
	if err != nil {
		s.Log.WithField("op", "scrape-events").WithError(err).Error("scrape failed")
		return failure(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, scrapeResponse{Success: true, RunResult: result})
}

func (s *Server) startScrapeJob(c echo.Context) error {
	s.jobMu.Lock()
	if s.runningJob != nil && s.runningJob.Status == "running" {
		job := s.runningJob
		s.jobMu.Unlock()
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"success": false,
			"error":   "A scrape job is already running",
			"job_id":  job.ID,
		})
	}

	jobCtx, jobCancel := context.WithTimeout(
		context.WithoutCancel(c.Request().Context()), 15*time.Minute,
	)
	job := &scrapeJob{
		ID:        uuid.New().String()[:8],
		Status:    "running",
		StartedAt: time.Now(),
		Cancel:    jobCancel,
	}
	s.runningJob = job
	s.jobMu.Unlock()

	log := s.Log.WithFields(logrus.Fields{"op": "scrape-events", "job_id": job.ID})
	go func() {
		defer jobCancel()
		result, err := s.Deps.Scraper.Run(jobCtx)

		s.jobMu.Lock()
		defer s.jobMu.Unlock()
		job.EndedAt = time.Now()
		job.Result = result
		if err != nil {
			job.Status = "failed"
			job.Error = err.Error()
			log.WithError(err).Error("scrape job failed")
			return
		}
		job.Status = "completed"
		log.WithField("inserted", result.Inserted).Info("scrape job completed")
	}()

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"success": true,
		"job_id":  job.ID,
		"poll":    fmt.Sprintf("/functions/v1/scrape-events/jobs/%s", job.ID),
	})
}

func (s *Server) handleScrapeJob(c echo.Context) error {
	queried := c.Param("id")

	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	job := s.runningJob
	if job == nil || job.ID != queried {
		return failure(c, http.StatusNotFound, "job not found")
	}

	resp := map[string]interface{}{
		"success":    true,
		"id":         job.ID,
		"status":     job.Status,
		"started_at": job.StartedAt,
	}
	if !job.EndedAt.IsZero() {
		resp["ended_at"] = job.EndedAt
		resp["duration"] = job.EndedAt.Sub(job.StartedAt).String()
	}
	if job.Result != nil {
		resp["result"] = job.Result
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}
	return c.JSON(http.StatusOK, resp)
}

type searchCollegesRequest struct {
	Query   string `json:"query" validate:"required,min=2"`
	Country string `json:"country"`
}

type searchCollegesResponse struct {
	Success bool              `json:"success"`
	Data    []colleges.Result `json:"data"`
	Total   int               `json:"total"`
}

func (s *Server) handleSearchColleges(c echo.Context) error {
	var req searchCollegesRequest
	if err := c.Bind(&req); err != nil {
		return failure(c, http.StatusBadRequest, msgInvalidBody)
	}
	if err := c.Validate(&req); err != nil {
		return failure(c, http.StatusBadRequest, msgQueryTooShort)
	}
	if s.Deps.Colleges == nil {
		return failure(c, http.StatusInternalServerError, "college search not configured")
	}

	results, err := s.Deps.Colleges.Search(c.Request().Context(), req.Query, req.Country)
	if errors.Is(err, colleges.ErrQueryTooShort) {
		return failure(c, http.StatusBadRequest, msgQueryTooShort)
	}
	if err != nil {
		return failure(c, http.StatusInternalServerError, err.Error())
	}
	if results == nil {
		results = []colleges.Result{}
	}
	return c.JSON(http.StatusOK, searchCollegesResponse{Success: true, Data: results, Total: len(results)})
}

type summarizeReviewsRequest struct {
	EventID string `json:"event_id" validate:"required,uuid"`
}

type summarizeReviewsResponse struct {
	Success bool            `json:"success"`
	Data    *reviews.Result `json:"data"`
}

func (s *Server) handleSummarizeReviews(c echo.Context) error {
	var req summarizeReviewsRequest
	if err := c.Bind(&req); err != nil {
		return failure(c, http.StatusBadRequest, msgInvalidBody)
	}
	if err := c.Validate(&req); err != nil {
		if _, tag := failedField(err); tag == "required" {
			return failure(c, http.StatusBadRequest, msgEventIDRequired)
		}
		return failure(c, http.StatusBadRequest, msgEventIDInvalid)
	}
	if s.Deps.Summarizer == nil {
		return failure(c, http.StatusInternalServerError, "review summarizer not configured")
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return failure(c, http.StatusBadRequest, msgEventIDInvalid)
	}
	result, err := s.Deps.Summarizer.Summarize(c.Request().Context(), eventID)
	switch {
	case errors.Is(err, reviews.ErrEventIDRequired):
		return failure(c, http.StatusBadRequest, msgEventIDRequired)
	case errors.Is(err, reviews.ErrNoRatings):
		return failure(c, http.StatusNotFound, msgNoReviews)
	case err != nil:
		s.Log.WithFields(logrus.Fields{"op": "summarize-reviews", "event_id": eventID}).WithError(err).Error("summarize failed")
		return failure(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, summarizeReviewsResponse{Success: true, Data: result})
}
