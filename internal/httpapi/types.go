// Package httpapi implements the W4 HTTP control plane: submitting
// workloads for analysis, polling run status, and streaming progress over
// a websocket, fronted by JWT bearer auth, CORS, and per-token rate
// limiting.
//
// Grounded on pkg/api/server.go's Server/setupRouter structure and
// pkg/api/middleware.go's middleware set, trimmed to the single-resource
// (run) surface SPEC_FULL.md §6 describes.
package httpapi

import (
	"time"

	"github.com/schedcheck/schedcheck/internal/engine"
)

// RunStatus is the lifecycle state of a submitted run.
type RunStatus string

const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunState is the in-memory record of one submitted run, indexed by RunID
// in the server's run index while the run is in flight or recently
// completed. Once persisted, internal/store.RunRecord is authoritative.
type RunState struct {
	RunID       string         `json:"runId"`
	Status      RunStatus      `json:"status"`
	SubmittedAt time.Time      `json:"submittedAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	Summary     *engine.Summary `json:"summary,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// submitResponse is returned by POST /runs.
type submitResponse struct {
	RunID  string    `json:"runId"`
	Status RunStatus `json:"status"`
	Cached bool      `json:"cached"`
}

// errorResponse is the JSON body for every non-2xx response.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
