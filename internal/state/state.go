// Package state implements the symbolic reachability node (C7): timestamp,
// dispatched job set, per-job finish-time intervals, per-processor-group
// core-availability interval vectors, pending event times, and a
// merge key that makes state equivalence a cheap key comparison.
//
// Grounded on original_source/include/state.hpp.
package state

import (
	"fmt"
	"sort"
	"strings"

	"github.com/schedcheck/schedcheck/internal/indexset"
	"github.com/schedcheck/schedcheck/internal/interval"
	"github.com/schedcheck/schedcheck/internal/job"
	"github.com/schedcheck/schedcheck/internal/timemodel"
)

// ID uniquely identifies a State in creation order.
type ID uint64

// initialMergeKey is a fixed sentinel (never zero) used for the empty
// dispatched set, so "no jobs dispatched yet" stays distinguishable from a
// zero-valued merge key that might otherwise arise by coincidence.
const initialMergeKey uint64 = 0x9a9a9a9a9a9a9a9a

// State is a symbolic scheduling snapshot: one node of the reachability
// graph.
type State struct {
	ID               ID
	Timestamp        timemodel.Time
	Dispatched       indexset.IndexSet
	FinishTimes      map[job.ID]interval.Interval
	CoreAvailability [][]interval.Interval // [group][core], non-decreasing by Lo and by Hi
	Events           []timemodel.Time       // strictly increasing, every entry > Timestamp
	MergeKey         uint64
}

// NewInitial builds the root state: timestamp 0, nothing dispatched, every
// core available from time 0, and the given event times (already expected
// to be sorted, unique, and > 0).
func NewInitial(id ID, coresPerGroup []uint32, eventTimes []timemodel.Time) *State {
	coreAvail := make([][]interval.Interval, len(coresPerGroup))
	for g, cores := range coresPerGroup {
		row := make([]interval.Interval, cores)
		for i := range row {
			row[i] = interval.New(0, 0)
		}
		coreAvail[g] = row
	}
	events := make([]timemodel.Time, len(eventTimes))
	copy(events, eventTimes)
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	return &State{
		ID:               id,
		Timestamp:        0,
		Dispatched:       indexset.New(),
		FinishTimes:      make(map[job.ID]interval.Interval),
		CoreAvailability: coreAvail,
		Events:           events,
		MergeKey:         initialMergeKey,
	}
}

func cloneFinishTimes(src map[job.ID]interval.Interval) map[job.ID]interval.Interval {
	out := make(map[job.ID]interval.Interval, len(src)+1)
	for k, v := range src {
		out[k] = v
	}
	return out
}

func cloneCoreAvailability(src [][]interval.Interval) [][]interval.Interval {
	out := make([][]interval.Interval, len(src))
	for g, row := range src {
		clone := make([]interval.Interval, len(row))
		copy(clone, row)
		out[g] = clone
	}
	return out
}

// resortGroup implements the "pop first, push new, re-sort by lo and by hi
// independently, pair elementwise" recipe from SPEC_FULL.md §4.6: it drops
// the slot the dispatched job just consumed, adds ftimes as the new
// occupant, and restores the non-decreasing-by-lo-and-by-hi invariant over
// the group's anonymous cores.
func resortGroup(group []interval.Interval, ftimes interval.Interval) []interval.Interval {
	los := make([]int64, 0, len(group))
	his := make([]int64, 0, len(group))
	los = append(los, ftimes.Lo)
	his = append(his, ftimes.Hi)
	for i := 1; i < len(group); i++ {
		los = append(los, group[i].Lo)
		his = append(his, group[i].Hi)
	}
	sort.Slice(los, func(i, j int) bool { return los[i] < los[j] })
	sort.Slice(his, func(i, j int) bool { return his[i] < his[j] })
	out := make([]interval.Interval, len(los))
	for i := range los {
		out[i] = interval.Interval{Lo: los[i], Hi: his[i]}
	}
	return out
}

func insertSortedUnique(events []timemodel.Time, vals ...timemodel.Time) []timemodel.Time {
	out := append([]timemodel.Time{}, events...)
	for _, v := range vals {
		found := false
		for _, e := range out {
			if e == v {
				found = true
				break
			}
		}
		if !found {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func dropAtOrBefore(events []timemodel.Time, threshold timemodel.Time) []timemodel.Time {
	out := make([]timemodel.Time, 0, len(events))
	for _, e := range events {
		if e > threshold {
			out = append(out, e)
		}
	}
	return out
}

// NextDispatch builds the dispatch successor of parent for job idx/jb,
// finishing in the interval ftimes = parent.Timestamp + jb.Cost.
func NextDispatch(id ID, parent *State, idx job.Index, jb job.Job, ftimes interval.Interval, completionEventsEnabled bool) *State {
	dispatched := parent.Dispatched.WithAdded(int(idx))
	finishTimes := cloneFinishTimes(parent.FinishTimes)
	finishTimes[jb.ID] = ftimes

	coreAvail := cloneCoreAvailability(parent.CoreAvailability)
	coreAvail[jb.AssignedProcessorGroup] = resortGroup(parent.CoreAvailability[jb.AssignedProcessorGroup], ftimes)

	events := parent.Events
	if completionEventsEnabled {
		events = insertSortedUnique(events, ftimes.Lo, ftimes.Hi)
	} else {
		events = append([]timemodel.Time{}, events...)
	}

	return &State{
		ID:               id,
		Timestamp:        parent.Timestamp,
		Dispatched:       dispatched,
		FinishTimes:      finishTimes,
		CoreAvailability: coreAvail,
		Events:           events,
		MergeKey:         parent.MergeKey ^ jb.Hash,
	}
}

// AdvanceTime builds the time-advance successor of parent, requiring
// newTime > parent.Timestamp. Every event <= newTime is dropped.
func AdvanceTime(id ID, parent *State, newTime timemodel.Time) (*State, error) {
	if newTime <= parent.Timestamp {
		return nil, fmt.Errorf("state: AdvanceTime requires newTime > timestamp, got %d <= %d", newTime, parent.Timestamp)
	}
	return &State{
		ID:               id,
		Timestamp:        newTime,
		Dispatched:       parent.Dispatched,
		FinishTimes:      cloneFinishTimes(parent.FinishTimes),
		CoreAvailability: cloneCoreAvailability(parent.CoreAvailability),
		Events:           dropAtOrBefore(parent.Events, newTime),
		MergeKey:         parent.MergeKey,
	}, nil
}

// CanMergeWith reports whether a and b are merge-candidates: same merge
// key, same timestamp, same dispatched set.
func CanMergeWith(a, b *State) bool {
	return a.MergeKey == b.MergeKey &&
		a.Timestamp == b.Timestamp &&
		indexset.Equal(a.Dispatched, b.Dispatched)
}

// TryMerge absorbs other into s in place: every FinishTimes entry and every
// CoreAvailability interval is widened to the convex hull of both, and
// other's events not already present are added. Returns false (s
// unchanged) if s and other are not merge-candidates.
//
// Grounded on original_source/include/state.hpp's tryToMerge, which mutates
// the receiver (the existing leaf) rather than allocating a third state.
func (s *State) TryMerge(other *State) bool {
	if !CanMergeWith(s, other) {
		return false
	}
	for id, iv := range other.FinishTimes {
		if existing, ok := s.FinishTimes[id]; ok {
			existing.WidenInto(iv)
			s.FinishTimes[id] = existing
		} else {
			s.FinishTimes[id] = iv
		}
	}
	for g := range s.CoreAvailability {
		for i := range s.CoreAvailability[g] {
			s.CoreAvailability[g][i].WidenInto(other.CoreAvailability[g][i])
		}
	}
	s.Events = insertSortedUnique(s.Events, other.Events...)
	return true
}

// Label renders the multi-line DOT node label: state id, timestamp,
// dispatched job ids, and per-group core-availability intervals.
func (s *State) Label(jobs []job.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "State %d: \\n TS: %d, \\n S^D: [", s.ID, s.Timestamp)
	first := true
	for _, idx := range s.Dispatched.Indices() {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(jobs[idx].ID.String())
	}
	b.WriteString("], \\n A: [")
	for g, row := range s.CoreAvailability {
		if g > 0 {
			b.WriteString(", ")
		}
		b.WriteString("{")
		for i, iv := range row {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "%s", iv)
		}
		b.WriteString("}")
	}
	b.WriteString("], \\n")
	return b.String()
}
