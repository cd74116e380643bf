// Package policy defines the pluggable scheduling-policy oracle (C6): a
// pure function (queue, available resources, now) -> selected job or none.
//
// Grounded on original_source/include/models/scheduler.hpp and on the
// small-interface-plus-default-implementation shape of
// pkg/loadbalancer.LoadBalancer in the teacher codebase.
package policy

import (
	"github.com/schedcheck/schedcheck/internal/job"
	"github.com/schedcheck/schedcheck/internal/queue"
	"github.com/schedcheck/schedcheck/internal/timemodel"
)

// ResourceCounts maps a processor group name to the number of cores the
// oracle may assume are available this instant.
type ResourceCounts map[string]uint32

// Oracle selects which job, if any, a ready queue should dispatch right
// now. Returning ok=false means "do nothing this instant, advance time".
// Implementations must be pure and deterministic: the same (queue,
// available, now) must always yield the same decision.
type Oracle interface {
	Select(q queue.ReadyQueue, available ResourceCounts, now timemodel.Time) (job.ID, bool)
}

// EDF is the default oracle: it sorts the queue by absolute deadline and
// dispatches the head, ignoring the supplied resource counts (the engine
// only ever asks with resources it already knows can fit at least one
// queued job). Grounded on models/scheduler.hpp's default callScheduler.
type EDF struct{}

// Select implements Oracle.
func (EDF) Select(q queue.ReadyQueue, available ResourceCounts, now timemodel.Time) (job.ID, bool) {
	if q.Empty() {
		return job.ID{}, false
	}
	q.Sort(queue.Deadline, now)
	return q.Jobs[q.Front()].ID, true
}

// FixedPriority dispatches the queue's highest-priority job (lowest
// Priority value wins), a common alternative oracle named by the queue's
// own Priority sort key.
type FixedPriority struct{}

// Select implements Oracle.
func (FixedPriority) Select(q queue.ReadyQueue, available ResourceCounts, now timemodel.Time) (job.ID, bool) {
	if q.Empty() {
		return job.ID{}, false
	}
	q.Sort(queue.Priority, now)
	return q.Jobs[q.Front()].ID, true
}
