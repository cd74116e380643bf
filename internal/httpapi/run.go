package httpapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/schedcheck/schedcheck/internal/engine"
	"github.com/schedcheck/schedcheck/internal/policy"
	"github.com/schedcheck/schedcheck/internal/store"
	"github.com/schedcheck/schedcheck/internal/workload"
)

// digest returns the stable content digest used as the W-S3 run-cache key.
func digest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// analyzeParams are the per-submission knobs a caller may override via
// POST /runs query parameters, mirroring the CLI's --time-limit/--naive.
type analyzeParams struct {
	naive     bool
	timeLimit time.Duration
}

// analyze loads and expands a workload document and runs it to completion
// or timeout, returning the engine so callers can still pull a DOT export.
func analyze(ctx context.Context, body []byte, p analyzeParams, logger *slog.Logger) (*engine.Engine, error) {
	w, err := workload.Load(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("httpapi: load workload: %w", err)
	}
	jobs, groups, spec, hyperperiod, err := workload.Expand(w)
	if err != nil {
		return nil, fmt.Errorf("httpapi: expand workload: %w", err)
	}
	cfg := engine.Config{
		Naive:       p.naive,
		RetainGraph: true, // /runs/:id/dot needs the interior nodes GC would otherwise evict
		TimeLimit:   p.timeLimit,
		BucketWidth: hyperperiod / 64,
	}
	if cfg.BucketWidth == 0 {
		cfg.BucketWidth = 1
	}
	e := engine.New(jobs, groups, policy.EDF{}, cfg, spec, hyperperiod, logger)
	if err := e.Run(ctx); err != nil {
		return nil, fmt.Errorf("httpapi: run engine: %w", err)
	}
	return e, nil
}

// runRecord converts a completed run into the persisted store.RunRecord
// plus its response-time rows.
func runRecord(runID string, workloadText string, submittedAt time.Time, e *engine.Engine) (store.RunRecord, []store.ResponseTimeRow) {
	summary := e.Summary()
	completedAt := time.Now()
	rec := store.RunRecord{
		RunID:       runID,
		SubmittedAt: submittedAt,
		CompletedAt: &completedAt,
		Workload:    workloadText,
		Schedulable: summary.Schedulable,
		TimedOut:    summary.TimedOut,
		NumStates:   summary.NumStates,
		CPUSeconds:  summary.CPUSeconds,
		RAMMiB:      summary.RAMMiB,
		NumGroups:   summary.NumGroups,
	}
	responseTimes := e.ResponseTimes()
	rows := make([]store.ResponseTimeRow, 0, len(responseTimes))
	for _, jb := range e.Jobs() {
		ft, ok := responseTimes[jb.ID]
		if !ok {
			continue
		}
		rows = append(rows, store.ResponseTimeRow{
			RunID:               runID,
			TaskID:              jb.ID.TaskID,
			JobIndex:            jb.ID.JobIndex,
			BestCaseCompletion:  ft.Lo,
			WorstCaseCompletion: ft.Hi,
			BestCaseResponse:    ft.Lo - jb.Arrival.Lo,
			WorstCaseResponse:   ft.Hi - jb.Arrival.Hi,
		})
	}
	return rec, rows
}

// newRunID mints a run identifier the way the teacher mints client/request
// ids elsewhere (pkg/api/websocket.go uses uuid for client IDs).
func newRunID() string { return uuid.NewString() }

// progressEvent is the JSON payload published to the run's progress
// channel and forwarded to websocket subscribers.
type progressEvent struct {
	RunID  string    `json:"runId"`
	Status RunStatus `json:"status"`
	Detail string    `json:"detail,omitempty"`
}

func (e progressEvent) marshal() []byte {
	b, _ := json.Marshal(e)
	return b
}
