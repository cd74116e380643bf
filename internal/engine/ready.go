package engine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/schedcheck/schedcheck/internal/job"
	"github.com/schedcheck/schedcheck/internal/policy"
	"github.com/schedcheck/schedcheck/internal/queue"
	"github.com/schedcheck/schedcheck/internal/state"
	"github.com/schedcheck/schedcheck/internal/timemodel"
)

// buildReadyQueues implements SPEC_FULL.md §4.8.1: classify every
// not-yet-dispatched job in s's lookup-table bucket into certainly-ready,
// certainly-released-but-resource-uncertain, or possibly-ready, then
// enumerate the powerset abstraction over the possibly-ready set.
func (e *Engine) buildReadyQueues(s *state.State) []queue.ReadyQueue {
	t := s.Timestamp
	bucket := e.table.Lookup(t)

	var certainlyReady, certainlyReleasedUncertain, possiblyReady []job.Index
	for _, idx := range bucket {
		if s.Dispatched.Contains(int(idx)) {
			continue
		}
		jb := e.jobs[idx]

		if t+jb.Cost.Hi > jb.Deadline+timemodel.DeadlineMissTolerance {
			e.aborted = true
			// Deliberately no continue: the job still participates in the
			// classification below, per SPEC_FULL.md §4.8.1.
		}

		eaR, laR := jb.Arrival.Lo, jb.Arrival.Hi
		g := jb.AssignedProcessorGroup
		eaP, laP := s.CoreAvailability[g][0].Lo, s.CoreAvailability[g][0].Hi

		if t < eaR || t < eaP {
			continue // not considered: not yet possibly released, or no core possibly free
		}

		switch {
		case t >= laR && t >= laP:
			certainlyReady = append(certainlyReady, idx)
		case t >= laR && t < laP:
			certainlyReleasedUncertain = append(certainlyReleasedUncertain, idx)
		default:
			possiblyReady = append(possiblyReady, idx)
		}
	}

	return e.enumerateQueues(certainlyReady, certainlyReleasedUncertain, possiblyReady)
}

// enumerateQueues builds every subset of possiblyReady, unions each with
// certainlyReady, and for every such base queue also emits a variant with
// certainlyReleasedUncertain unioned in wholesale (never independently
// subset), per SPEC_FULL.md §4.8.1 item 2. The certainlyReady-plus-empty-
// subset queue is always emitted, even when that leaves it empty: an empty
// ready queue is what tells the oracle nothing is dispatchable yet and
// drives a time transition alongside the dispatches chosen from the other
// queues. Only the certainly-released-augmented
// variant is ever skipped, and only because it can't be empty by
// construction, not because emptiness is filtered in general. Duplicates
// (by job-index-set content) are suppressed.
func (e *Engine) enumerateQueues(certainlyReady, certainlyReleasedUncertain, possiblyReady []job.Index) []queue.ReadyQueue {
	n := len(possiblyReady)
	if n > 20 {
		e.logger.Warn("ready-queue powerset is large", "possiblyReady", n)
	}

	seen := make(map[string]struct{})
	var out []queue.ReadyQueue

	addIfNew := func(indices []job.Index) {
		key := setKey(indices)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, queue.New(e.jobs, indices))
	}

	addIfNew(certainlyReady)

	total := 1 << uint(n)
	for mask := 0; mask < total; mask++ {
		subset := make([]job.Index, 0, n)
		for bit := 0; bit < n; bit++ {
			if mask&(1<<uint(bit)) != 0 {
				subset = append(subset, possiblyReady[bit])
			}
		}
		base := unionIndices(certainlyReady, subset)
		addIfNew(base)
		if len(certainlyReleasedUncertain) > 0 {
			addIfNew(unionIndices(base, certainlyReleasedUncertain))
		}
	}

	return out
}

func unionIndices(a, b []job.Index) []job.Index {
	seen := make(map[job.Index]struct{}, len(a)+len(b))
	out := make([]job.Index, 0, len(a)+len(b))
	for _, x := range a {
		if _, ok := seen[x]; !ok {
			seen[x] = struct{}{}
			out = append(out, x)
		}
	}
	for _, x := range b {
		if _, ok := seen[x]; !ok {
			seen[x] = struct{}{}
			out = append(out, x)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func setKey(indices []job.Index) string {
	sorted := append([]job.Index{}, indices...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var b strings.Builder
	for _, idx := range sorted {
		b.WriteString(strconv.Itoa(int(idx)))
		b.WriteByte(',')
	}
	return b.String()
}

// buildResourceVectors implements SPEC_FULL.md §4.8.2. With resource
// modeling disabled, it returns a single empty map, matching the engine's
// behavior when RESOURCE_ACCESS is not compiled in.
func (e *Engine) buildResourceVectors(s *state.State, q queue.ReadyQueue) []policy.ResourceCounts {
	if !e.cfg.ResourceAccess {
		return []policy.ResourceCounts{{}}
	}

	targeted := make(map[uint32]bool)
	for _, idx := range q.Elements {
		targeted[e.jobs[idx].AssignedProcessorGroup] = true
	}

	type bound struct{ lo, hi uint32 }
	bounds := make([]bound, len(e.groups))
	for g, row := range s.CoreAvailability {
		var certain, possible uint32
		for _, iv := range row {
			if iv.Hi <= s.Timestamp {
				certain++
			}
			if iv.Lo <= s.Timestamp {
				possible++
			}
		}
		if targeted[uint32(g)] && certain < possible {
			certain++
		}
		bounds[g] = bound{lo: certain, hi: possible}
	}

	var combos []policy.ResourceCounts
	var build func(g int, acc policy.ResourceCounts)
	build = func(g int, acc policy.ResourceCounts) {
		if g == len(bounds) {
			clone := make(policy.ResourceCounts, len(acc))
			for k, v := range acc {
				clone[k] = v
			}
			combos = append(combos, clone)
			return
		}
		for c := bounds[g].lo; c <= bounds[g].hi; c++ {
			acc[e.groups[g].Name] = c
			build(g+1, acc)
		}
	}
	build(0, policy.ResourceCounts{})
	if len(combos) == 0 {
		return []policy.ResourceCounts{{}}
	}
	return combos
}
