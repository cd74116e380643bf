// Package store implements the W5 persistence layer: a Postgres-backed
// run/result store and a Redis-backed workload-digest cache and progress
// pub/sub relay.
//
// Grounded on pkg/database/manager.go's DatabaseManager (connection setup,
// pooling, health checks) and pkg/loadbalancer's interface+mock pattern for
// the cache abstraction used in tests.
package store

import "time"

// RunRecord is the persisted form of one engine run, matching SPEC_FULL.md
// §3's expanded run types.
type RunRecord struct {
	RunID       string     `db:"run_id" json:"runId"`
	SubmittedAt time.Time  `db:"submitted_at" json:"submittedAt"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	Workload    string     `db:"workload" json:"workload"`
	Schedulable bool       `db:"schedulable" json:"schedulable"`
	TimedOut    bool       `db:"timed_out" json:"timedOut"`
	NumStates   int        `db:"num_states" json:"numStates"`
	CPUSeconds  float64    `db:"cpu_seconds" json:"cpuSeconds"`
	RAMMiB      float64    `db:"ram_mib" json:"ramMiB"`
	NumGroups   int        `db:"num_groups" json:"numGroups"`
}

// ResponseTimeRow is the persisted form of one job's CSV row.
type ResponseTimeRow struct {
	RunID               string `db:"run_id" json:"runId"`
	TaskID              uint64 `db:"task_id" json:"taskId"`
	JobIndex            uint64 `db:"job_index" json:"jobIndex"`
	BestCaseCompletion  int64  `db:"best_case_completion" json:"bestCaseCompletion"`
	WorstCaseCompletion int64  `db:"worst_case_completion" json:"worstCaseCompletion"`
	BestCaseResponse    int64  `db:"best_case_response" json:"bestCaseResponse"`
	WorstCaseResponse   int64  `db:"worst_case_response" json:"worstCaseResponse"`
}

// schema is the Postgres DDL that New applies on connect (CREATE TABLE IF
// NOT EXISTS); it is the shape SaveRun/GetRun rely on.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	submitted_at  TIMESTAMPTZ NOT NULL,
	completed_at  TIMESTAMPTZ,
	workload      TEXT NOT NULL,
	schedulable   BOOLEAN NOT NULL,
	timed_out     BOOLEAN NOT NULL,
	num_states    INTEGER NOT NULL,
	cpu_seconds   DOUBLE PRECISION NOT NULL,
	ram_mib       DOUBLE PRECISION NOT NULL,
	num_groups    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS response_times (
	run_id                 TEXT NOT NULL REFERENCES runs(run_id),
	task_id                BIGINT NOT NULL,
	job_index              BIGINT NOT NULL,
	best_case_completion   BIGINT NOT NULL,
	worst_case_completion  BIGINT NOT NULL,
	best_case_response     BIGINT NOT NULL,
	worst_case_response    BIGINT NOT NULL,
	PRIMARY KEY (run_id, task_id, job_index)
);
`
