// Package queue implements the ready-queue view (C5): an ordered projection
// of job indices under a chosen sort key, with a deterministic tiebreak.
//
// Grounded on original_source/include/queue.hpp.
package queue

import (
	"sort"

	"github.com/schedcheck/schedcheck/internal/job"
	"github.com/schedcheck/schedcheck/internal/timemodel"
)

// SortKey selects the primary ordering of a ReadyQueue.
type SortKey int

const (
	ArrivalMin SortKey = iota
	ArrivalMax
	CostMin
	CostMax
	Deadline
	Priority
	Period
	Laxity
)

// ReadyQueue is an ordered sequence of job indices, paired with the job
// table it indexes into so sort keys can look up field values.
type ReadyQueue struct {
	Jobs     []job.Job
	Elements []job.Index
}

// New builds a ReadyQueue over the given indices, in the order given.
func New(jobs []job.Job, indices []job.Index) ReadyQueue {
	elements := make([]job.Index, len(indices))
	copy(elements, indices)
	return ReadyQueue{Jobs: jobs, Elements: elements}
}

// Len returns the number of elements in the queue.
func (q ReadyQueue) Len() int { return len(q.Elements) }

// Empty reports whether the queue has no elements.
func (q ReadyQueue) Empty() bool { return len(q.Elements) == 0 }

// At returns the job index at position i.
func (q ReadyQueue) At(i int) job.Index { return q.Elements[i] }

// Front returns the first element; callers must check Empty first.
func (q ReadyQueue) Front() job.Index { return q.Elements[0] }

// Sort reorders Elements in place under key, breaking ties by
// (taskId, jobIndex) ascending. now is only consulted for Laxity.
func (q ReadyQueue) Sort(key SortKey, now timemodel.Time) {
	sort.SliceStable(q.Elements, func(i, j int) bool {
		a := q.Jobs[q.Elements[i]]
		b := q.Jobs[q.Elements[j]]
		pa, pb := primaryKey(a, b, key, now)
		if pa != pb {
			return pa < pb
		}
		return lessID(a, b)
	})
}

func lessID(a, b job.Job) bool {
	return jobLess(a.ID, b.ID)
}

func jobLess(a, b job.ID) bool {
	return job.Less(a, b)
}

// primaryKey returns a pair of comparable values for the chosen sort key so
// Sort can compare them without a type switch in the hot path.
func primaryKey(a, b job.Job, key SortKey, now timemodel.Time) (int64, int64) {
	switch key {
	case ArrivalMin:
		return a.Arrival.Lo, b.Arrival.Lo
	case ArrivalMax:
		return a.Arrival.Hi, b.Arrival.Hi
	case CostMin:
		return a.Cost.Lo, b.Cost.Lo
	case CostMax:
		return a.Cost.Hi, b.Cost.Hi
	case Deadline:
		return a.Deadline, b.Deadline
	case Priority:
		return a.Priority, b.Priority
	case Period:
		return a.TaskPeriod, b.TaskPeriod
	case Laxity:
		return a.Deadline - now - a.Cost.Hi, b.Deadline - now - b.Cost.Hi
	default:
		return a.Deadline, b.Deadline
	}
}

// IDs returns the ids of every job in the queue, in current order.
func (q ReadyQueue) IDs() []job.ID {
	out := make([]job.ID, len(q.Elements))
	for i, idx := range q.Elements {
		out[i] = q.Jobs[idx].ID
	}
	return out
}
