package httpapi

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schedcheck/schedcheck/internal/output"
)

// healthHandler reports liveness; no auth required.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// submitRunHandler implements POST /runs (§6): accepts a YAML workload
// document, checks the run cache for a byte-identical prior submission
// (W-S3), and otherwise starts analysis in a background goroutine.
func (s *Server) submitRunHandler(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "empty workload body"})
		return
	}
	dig := digest(body)

	if s.cache != nil {
		if runID, ok, err := s.cache.Get(c.Request.Context(), dig); err == nil && ok {
			c.JSON(http.StatusOK, submitResponse{RunID: runID, Status: RunQueued, Cached: true})
			return
		}
	}

	runID := newRunID()
	naive := c.Query("naive") == "true"
	var limit time.Duration
	if v := c.Query("timeLimit"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			limit = d
		}
	}

	rs := &RunState{RunID: runID, Status: RunQueued, SubmittedAt: time.Now()}
	s.setRunState(rs)
	if s.cache != nil {
		_ = s.cache.Set(c.Request.Context(), dig, runID, s.cfg.Redis.CacheTTL)
	}

	go s.runInBackground(runID, body, analyzeParams{naive: naive, timeLimit: limit})

	c.JSON(http.StatusAccepted, submitResponse{RunID: runID, Status: RunQueued, Cached: false})
}

// runInBackground drives one submission to completion, updating the run
// index and persisting to the store, and publishing progress events over
// the cache's pub/sub relay for W4's websocket stream.
func (s *Server) runInBackground(runID string, body []byte, p analyzeParams) {
	ctx := context.Background()
	submitted := time.Now()
	if prev, ok := s.getRunState(runID); ok {
		submitted = prev.SubmittedAt
	}
	s.publish(runID, progressEvent{RunID: runID, Status: RunRunning})
	s.setRunState(&RunState{RunID: runID, Status: RunRunning, SubmittedAt: submitted})

	e, err := analyze(ctx, body, p, s.logger)
	if err != nil {
		s.setRunState(&RunState{RunID: runID, Status: RunFailed, SubmittedAt: submitted, Error: err.Error()})
		s.publish(runID, progressEvent{RunID: runID, Status: RunFailed, Detail: err.Error()})
		return
	}
	s.setRunEngine(runID, e)

	summary := e.Summary()
	completed := time.Now()
	s.setRunState(&RunState{
		RunID:       runID,
		Status:      RunCompleted,
		SubmittedAt: submitted,
		CompletedAt: &completed,
		Summary:     &summary,
	})
	s.publish(runID, progressEvent{RunID: runID, Status: RunCompleted})

	if s.store != nil {
		rec, rows := runRecord(runID, string(body), submitted, e)
		if err := s.store.SaveRun(ctx, rec, rows); err != nil {
			s.logger.Error("persist run", "runId", runID, "error", err)
		}
	}
}

func (s *Server) publish(runID string, ev progressEvent) {
	if s.cache == nil {
		return
	}
	_ = s.cache.PublishProgress(context.Background(), runID, ev.marshal())
}

// getRunHandler implements GET /runs/:id.
func (s *Server) getRunHandler(c *gin.Context) {
	runID := c.Param("id")
	rs, ok := s.getRunState(runID)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "not_found", Message: "unknown run id"})
		return
	}
	c.JSON(http.StatusOK, rs)
}

// getRunCSVHandler implements GET /runs/:id/csv.
func (s *Server) getRunCSVHandler(c *gin.Context) {
	e, ok := s.getRunEngine(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "not_found", Message: "run not completed or unknown"})
		return
	}
	c.Header("Content-Type", "text/csv")
	if err := output.WriteCSV(c.Writer, e.Jobs(), e.ResponseTimes()); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal", Message: err.Error()})
	}
}

// getRunDOTHandler implements GET /runs/:id/dot.
func (s *Server) getRunDOTHandler(c *gin.Context) {
	e, ok := s.getRunEngine(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "not_found", Message: "run not completed or unknown"})
		return
	}
	c.Header("Content-Type", "text/vnd.graphviz")
	if err := output.WriteDOT(c.Writer, e); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal", Message: err.Error()})
	}
}
