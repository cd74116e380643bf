// Package engine implements the reachability engine (C9): the exploration
// loop that orchestrates leaf selection, ready-queue enumeration, resource
// combination enumeration, dispatch/time transitions, state merging,
// peek-ahead, and termination.
//
// Grounded on original_source/include/transitionSystem.hpp.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strconv"
	"time"

	"github.com/schedcheck/schedcheck/internal/graph"
	"github.com/schedcheck/schedcheck/internal/interval"
	"github.com/schedcheck/schedcheck/internal/job"
	"github.com/schedcheck/schedcheck/internal/lookup"
	"github.com/schedcheck/schedcheck/internal/policy"
	"github.com/schedcheck/schedcheck/internal/queue"
	"github.com/schedcheck/schedcheck/internal/state"
	"github.com/schedcheck/schedcheck/internal/timemodel"
)

// Group is the minimal processor-group shape the engine needs: a name (for
// the oracle's resource-counts map) and a core count.
type Group struct {
	Name  string
	Cores uint32
}

// EventSpec mirrors the workload's declared event model: which times are
// considered "interesting" besides job dispatch itself.
//
// Grounded on original_source/include/models/events.hpp.
type EventSpec struct {
	AllTicks         bool
	ArrivalEvents    bool
	CompletionEvents bool
	ExplicitTimes    []timemodel.Time
}

// ComputeInitialEventTimes builds the sorted, deduplicated, strictly
// positive set of event times seeded into the initial state, per
// transitionSystem.hpp's makeInitialStates.
func ComputeInitialEventTimes(jobs []job.Job, spec EventSpec, hyperperiod timemodel.Time) []timemodel.Time {
	seen := make(map[timemodel.Time]struct{})
	var out []timemodel.Time
	add := func(t timemodel.Time) {
		if t == 0 {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if spec.AllTicks {
		for t := timemodel.Time(1); t <= hyperperiod; t++ {
			add(t)
		}
	} else {
		if spec.ArrivalEvents {
			for _, j := range jobs {
				add(j.Arrival.Lo)
				add(j.Arrival.Hi)
			}
		}
		for _, t := range spec.ExplicitTimes {
			add(t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Config controls the exploration strategy and resource limits.
type Config struct {
	Naive          bool          // disable merging and peek-ahead
	ResourceAccess bool          // enable per-group resource-combination enumeration
	RetainGraph    bool          // disable interior-node garbage collection (for post-hoc DOT emission)
	TimeLimit      time.Duration // 0 disables the timeout
	BucketWidth    timemodel.Time
}

// Summary is the §6 summary-output row.
type Summary struct {
	Schedulable bool
	NumStates   int
	CPUSeconds  float64
	RAMMiB      float64
	TimedOut    bool
	NumGroups   int
}

// Engine orchestrates the reachability exploration for one workload.
type Engine struct {
	jobs          []job.Job
	indexByID     map[job.ID]job.Index
	groups        []Group
	table         *lookup.Table
	oracle        policy.Oracle
	cfg           Config
	completionEvt bool
	logger        *slog.Logger

	graph *graph.Graph
	pool  map[state.ID]*state.State

	nextStateID   uint64
	responseTimes map[job.ID]interval.Interval

	aborted   bool
	completed bool
	timedOut  bool

	startedAt time.Time
}

// New constructs an Engine for the given immutable job table and processor
// groups. The initial state's events are ComputeInitialEventTimes(jobs,
// spec, hyperperiod).
func New(jobs []job.Job, groups []Group, oracle policy.Oracle, cfg Config, spec EventSpec, hyperperiod timemodel.Time, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BucketWidth <= 0 {
		cfg.BucketWidth = 1
	}

	maxDeadline := timemodel.Time(0)
	for _, j := range jobs {
		if j.Deadline > maxDeadline {
			maxDeadline = j.Deadline
		}
	}

	indexByID := make(map[job.ID]job.Index, len(jobs))
	for i, j := range jobs {
		indexByID[j.ID] = job.Index(i)
	}

	e := &Engine{
		jobs:          jobs,
		indexByID:     indexByID,
		groups:        groups,
		table:         lookup.Build(jobs, 0, maxDeadline, cfg.BucketWidth),
		oracle:        oracle,
		cfg:           cfg,
		completionEvt: spec.CompletionEvents,
		logger:        logger,
		graph:         graph.New(),
		pool:          make(map[state.ID]*state.State),
		responseTimes: make(map[job.ID]interval.Interval),
	}

	coresPerGroup := make([]uint32, len(groups))
	for i, g := range groups {
		coresPerGroup[i] = g.Cores
	}

	initialEvents := ComputeInitialEventTimes(jobs, spec, hyperperiod)
	root := state.NewInitial(state.ID(e.allocID()), coresPerGroup, initialEvents)
	e.pool[root.ID] = root
	e.graph.AddNode(graph.NoParent, uint64(root.ID), int64(root.Timestamp), root.Label(jobs), "", "")

	return e
}

func (e *Engine) allocID() uint64 {
	id := e.nextStateID
	e.nextStateID++
	return id
}

// Run executes the main exploration loop until completion, deadline-miss
// abort, or timeout. ctx only threads a logger/deadline through; the loop
// itself is polled, never asynchronously cancelled (§5).
func (e *Engine) Run(ctx context.Context) error {
	e.startedAt = time.Now()
	for {
		leafIDs := e.graph.Leaves()
		e.evictNonLeaves(leafIDs)
		if !e.cfg.RetainGraph {
			e.graph.FreeMemory()
		}

		unfinished := e.filterUnfinished(leafIDs)
		if len(unfinished) == 0 {
			e.completed = true
			break
		}

		sort.SliceStable(unfinished, func(i, j int) bool {
			si, sj := e.pool[unfinished[i]], e.pool[unfinished[j]]
			if si.Timestamp != sj.Timestamp {
				return si.Timestamp < sj.Timestamp
			}
			return si.Dispatched.Len() < sj.Dispatched.Len()
		})
		chosen := e.pool[unfinished[0]]

		if e.checkTimeout() {
			e.aborted = true
			e.timedOut = true
			break
		}
		if e.aborted {
			break
		}

		if err := e.exploreState(ctx, chosen); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) evictNonLeaves(leafIDs []uint64) {
	leafSet := make(map[state.ID]struct{}, len(leafIDs))
	for _, id := range leafIDs {
		leafSet[state.ID(id)] = struct{}{}
	}
	for id := range e.pool {
		if _, ok := leafSet[id]; !ok {
			delete(e.pool, id)
		}
	}
}

func (e *Engine) filterUnfinished(leafIDs []uint64) []state.ID {
	out := make([]state.ID, 0, len(leafIDs))
	for _, id := range leafIDs {
		s, ok := e.pool[state.ID(id)]
		if !ok {
			continue
		}
		if s.Dispatched.Len() != len(e.jobs) {
			out = append(out, s.ID)
		}
	}
	return out
}

func (e *Engine) checkTimeout() bool {
	if e.cfg.TimeLimit <= 0 {
		return false
	}
	return time.Since(e.startedAt) > e.cfg.TimeLimit
}

// Summary returns the §6 summary row for the run so far (or the final run,
// once Run has returned).
func (e *Engine) Summary() Summary {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return Summary{
		Schedulable: e.completed && !e.aborted,
		NumStates:   int(e.nextStateID),
		CPUSeconds:  time.Since(e.startedAt).Seconds(),
		RAMMiB:      float64(mem.Sys) / (1024 * 1024),
		TimedOut:    e.timedOut,
		NumGroups:   len(e.groups),
	}
}

// ResponseTimes returns the per-job response-time accumulator, as widened
// across every reachable dispatch of that job.
func (e *Engine) ResponseTimes() map[job.ID]interval.Interval {
	return e.responseTimes
}

// Graph exposes the transition graph for DOT rendering (W3). Only
// meaningful when Config.RetainGraph was set, otherwise it reflects only
// the current frontier.
func (e *Engine) Graph() *graph.Graph { return e.graph }

// Jobs exposes the immutable job table, e.g. for CSV rendering (W3).
func (e *Engine) Jobs() []job.Job { return e.jobs }

func (e *Engine) recordResponseTime(jb job.Job, ftimes interval.Interval) {
	if cur, ok := e.responseTimes[jb.ID]; ok {
		cur.WidenInto(ftimes)
		e.responseTimes[jb.ID] = cur
	} else {
		e.responseTimes[jb.ID] = ftimes
	}
	if jb.ExceedsDeadline(ftimes.Hi) {
		e.aborted = true
		e.logger.Warn("deadline miss", "job", jb.ID.String(), "worstCaseCompletion", ftimes.Hi, "deadline", jb.Deadline)
	}
}

// exploreState builds every plausible ready queue at s, and for each one
// and every plausible resource vector, asks the oracle what to do. Every
// selected job yields a dispatch transition. If the oracle declined
// (ok=false) for any (queue, resources) pair, a time transition to the next
// interesting time is added as well; all declines share one edge label, so
// one transition covers them. EDF and FixedPriority decline only for the
// empty ready queue, which enumerateQueues keeps, so a state in which a job
// is only possibly startable branches into both "start it now" and "wait".
func (e *Engine) exploreState(ctx context.Context, s *state.State) error {
	readyQueues := e.buildReadyQueues(s)
	declined := false
	for _, q := range readyQueues {
		queueLabel := queueAnnotation(q)
		for _, rv := range e.buildResourceVectors(s, q) {
			jobID, ok := e.oracle.Select(q, rv, s.Timestamp)
			if !ok {
				declined = true
				continue
			}
			label := jobID.String()
			if e.graph.HasEdge(uint64(s.ID), label, queueLabel) {
				continue
			}
			if err := e.dispatchTransition(s, jobID, label); err != nil {
				return err
			}
		}
	}
	if !declined {
		return nil
	}

	newTime := e.nextTransitionTime(s)
	if newTime == s.Timestamp {
		return nil // terminal: no further events remain from here
	}
	label := strconv.FormatInt(int64(newTime-s.Timestamp), 10)
	queueLabel := queueAnnotation(queue.ReadyQueue{})
	if e.graph.HasEdge(uint64(s.ID), label, queueLabel) {
		return nil
	}
	return e.timeTransition(s, newTime, label)
}

func queueAnnotation(q queue.ReadyQueue) string {
	ids := q.IDs()
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id.String()
	}
	return out
}

func (e *Engine) nextTransitionTime(s *state.State) timemodel.Time {
	if e.cfg.Naive {
		return e.nextEventTime(s)
	}
	return e.peekAhead(s)
}

// nextEventTime returns the smallest pending event strictly after the
// state's timestamp. If none remain, it returns the state's own timestamp
// as a defensive no-op sentinel (callers must check for this).
func (e *Engine) nextEventTime(s *state.State) timemodel.Time {
	if len(s.Events) == 0 {
		return s.Timestamp
	}
	return s.Events[0]
}

func (e *Engine) dispatchTransition(parent *state.State, jobID job.ID, label string) error {
	idx, ok := e.indexByID[jobID]
	if !ok {
		return fmt.Errorf("engine: oracle selected unknown job %s", jobID)
	}
	jb := e.jobs[idx]
	ftimes := interval.Shift(jb.Cost, parent.Timestamp)

	succ := state.NextDispatch(state.ID(e.allocID()), parent, idx, jb, ftimes, e.completionEvt)
	e.insertOrMerge(parent, succ, label)
	e.recordResponseTime(jb, ftimes)
	return nil
}

func (e *Engine) timeTransition(parent *state.State, newTime timemodel.Time, label string) error {
	succ, err := state.AdvanceTime(state.ID(e.allocID()), parent, newTime)
	if err != nil {
		return err
	}
	e.insertOrMerge(parent, succ, label)
	return nil
}

// insertOrMerge attempts (in non-naive mode) to fold succ into an existing
// leaf; otherwise it inserts succ as a brand-new child of parent.
func (e *Engine) insertOrMerge(parent, succ *state.State, label string) {
	if !e.cfg.Naive {
		for _, leafID := range e.graph.Leaves() {
			leaf, ok := e.pool[state.ID(leafID)]
			if !ok || leaf.ID == parent.ID {
				continue
			}
			if leaf.TryMerge(succ) {
				e.graph.UpdateNodeLabel(uint64(leaf.ID), leaf.Label(e.jobs))
				e.graph.AddEdge(uint64(parent.ID), uint64(leaf.ID), label)
				return
			}
		}
	}
	e.pool[succ.ID] = succ
	e.graph.AddNode(int64(parent.ID), uint64(succ.ID), int64(succ.Timestamp), succ.Label(e.jobs), label, "")
}
