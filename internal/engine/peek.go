package engine

import (
	"github.com/schedcheck/schedcheck/internal/job"
	"github.com/schedcheck/schedcheck/internal/queue"
	"github.com/schedcheck/schedcheck/internal/state"
	"github.com/schedcheck/schedcheck/internal/timemodel"
)

// peekAheadLocalID is used only for hypothetical states built while peeking;
// such states are never inserted into the pool or the graph, so the id
// never needs to be unique.
const peekAheadLocalID state.ID = 0

// peekAhead implements SPEC_FULL.md §4.8.5: it abstracts over a run of idle
// events that would not change the scheduler's eventual decision, returning
// the first point of actual divergence. The recursive formulation in the
// source is expressed here as an explicit loop over a local, never
// persisted copy of the state, to bound stack depth by a constant.
func (e *Engine) peekAhead(s *state.State) timemodel.Time {
	q0 := e.buildReadyQueues(s)
	qSet0 := queueContentSet(q0)
	d0 := e.dispatchSet(q0, s, s.Timestamp)

	cur := s
	for {
		nt := e.nextEventTime(cur)
		if nt == cur.Timestamp {
			return cur.Timestamp
		}
		advanced, err := state.AdvanceTime(peekAheadLocalID, cur, nt)
		if err != nil {
			// nt came from nextEventTime(cur), which already guarantees
			// nt > cur.Timestamp above; this would only fire on a broken
			// event list, which buildReadyQueues's caller has already
			// validated, so treat cur as the divergence point.
			return cur.Timestamp
		}

		qp := e.buildReadyQueues(advanced)
		qSetP := queueContentSet(qp)
		// Ready queues are classified at the advanced timestamp (readiness
		// is time-dependent), but the oracle is still asked "what would you
		// dispatch right now" using the ORIGINAL timestamp s.Timestamp, per
		// SPEC_FULL.md §4.8.5.
		dp := e.dispatchSet(qp, advanced, s.Timestamp)

		if !sameStringSet(qSetP, qSet0) || !sameJobIDSet(dp, d0) {
			return advanced.Timestamp
		}
		cur = advanced
	}
}

// dispatchSet computes the set of job ids the oracle would dispatch across
// every (queue, resource-vector) pair, evaluated at evalNow.
func (e *Engine) dispatchSet(queues []queue.ReadyQueue, s *state.State, evalNow timemodel.Time) map[job.ID]struct{} {
	out := make(map[job.ID]struct{})
	for _, q := range queues {
		for _, rv := range e.buildResourceVectors(s, q) {
			if jid, ok := e.oracle.Select(q, rv, evalNow); ok {
				out[jid] = struct{}{}
			}
		}
	}
	return out
}

func queueContentSet(queues []queue.ReadyQueue) map[string]struct{} {
	out := make(map[string]struct{}, len(queues))
	for _, q := range queues {
		out[setKey(q.Elements)] = struct{}{}
	}
	return out
}

func sameStringSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func sameJobIDSet(a, b map[job.ID]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
