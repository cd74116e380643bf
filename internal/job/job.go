// Package job implements the immutable workload record (C3): arrival
// interval, cost interval, deadline, priority, period, assigned processor
// group, and a stable hash used to build a state's merge key.
//
// Grounded on original_source/include/job.hpp.
package job

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/schedcheck/schedcheck/internal/interval"
	"github.com/schedcheck/schedcheck/internal/timemodel"
)

// ID identifies a job by the task it originates from and its position
// within that task's expansion. Two jobs with equal ID are equal.
type ID struct {
	TaskID   uint64 `yaml:"taskId" json:"taskId"`
	JobIndex uint64 `yaml:"jobIndex" json:"jobIndex"`
}

// String renders the id the way the original renders jobID::string(), used
// for DOT/CSV labels and as the edge label of a dispatch transition.
func (id ID) String() string {
	return fmt.Sprintf("T%dS%d", id.TaskID, id.JobIndex)
}

// Less orders ids by TaskID then JobIndex, matching jobID::operator<.
func Less(a, b ID) bool {
	if a.TaskID != b.TaskID {
		return a.TaskID < b.TaskID
	}
	return a.JobIndex < b.JobIndex
}

// Index is the position of a Job within the workload's immutable job table.
// The engine refers to jobs by Index everywhere except in output and edge
// labels, where the textual ID is used instead.
type Index int

// Job is an immutable workload record.
type Job struct {
	TaskName               string
	Name                   string
	ID                     ID
	Arrival                interval.Interval
	Cost                   interval.Interval
	Deadline               timemodel.Time
	Priority               timemodel.Time
	TaskPeriod             timemodel.Time
	AssignedProcessorGroup uint32
	Hash                   uint64
}

// New builds a Job and precomputes its stable hash. Every field that feeds
// the hash is immutable for the lifetime of the Job, so Hash is
// path-independent: it never reflects anything about a State.
func New(taskName, name string, id ID, arrival, cost interval.Interval, deadline, priority, taskPeriod timemodel.Time, group uint32) Job {
	j := Job{
		TaskName:               taskName,
		Name:                   name,
		ID:                     id,
		Arrival:                arrival,
		Cost:                   cost,
		Deadline:               deadline,
		Priority:               priority,
		TaskPeriod:             taskPeriod,
		AssignedProcessorGroup: group,
	}
	j.Hash = computeHash(j)
	return j
}

// computeHash folds (taskId, jobIndex, arrival.lo, arrival.hi, cost.lo,
// cost.hi, deadline) into a 64-bit digest via blake2b, truncated to its low
// 64 bits. See SPEC_FULL.md §4.6 for why blake2b replaces the source's
// shift-and-xor recipe.
func computeHash(j Job) uint64 {
	var buf [56]byte
	binary.LittleEndian.PutUint64(buf[0:8], j.ID.TaskID)
	binary.LittleEndian.PutUint64(buf[8:16], j.ID.JobIndex)
	binary.LittleEndian.PutUint64(buf[16:24], uint64(j.Arrival.Lo))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(j.Arrival.Hi))
	binary.LittleEndian.PutUint64(buf[32:40], uint64(j.Cost.Lo))
	binary.LittleEndian.PutUint64(buf[40:48], uint64(j.Cost.Hi))
	binary.LittleEndian.PutUint64(buf[48:56], uint64(j.Deadline))

	sum := blake2b.Sum256(buf[:])
	return binary.LittleEndian.Uint64(sum[:8])
}

// SchedulingWindow returns [arrival.lo, deadline-epsilon], the range during
// which the job could be both ready and not yet tardy. Used to insert the
// job into the interval lookup table (C4).
func (j Job) SchedulingWindow() interval.Interval {
	return interval.New(j.Arrival.Lo, j.Deadline-timemodel.Epsilon)
}

// ExceedsDeadline reports whether completing at t is a genuine deadline
// miss, honoring the configured tolerance.
func (j Job) ExceedsDeadline(t timemodel.Time) bool {
	return timemodel.ExceedsDeadline(t, j.Deadline)
}
