package workload

import "fmt"

// Validate rejects a workload document whose processor groups overlap or
// leave gaps, whose intervals are malformed, or whose task/job group
// references point outside the processor-group vector. This is the W1
// load-time check called out in SPEC_FULL.md §7 ("malformed workload").
func Validate(w *Workload) error {
	seen := make(map[uint32]bool, len(w.ProcessorGroups))
	for _, g := range w.ProcessorGroups {
		if seen[g.Index] {
			return &ValidationError{Msg: fmt.Sprintf("duplicate processor group index %d", g.Index)}
		}
		seen[g.Index] = true
		if g.Cores == 0 {
			return &ValidationError{Msg: fmt.Sprintf("processor group %q has zero cores", g.Name)}
		}
	}
	for i := uint32(0); i < uint32(len(w.ProcessorGroups)); i++ {
		if !seen[i] {
			return &ValidationError{Msg: fmt.Sprintf("processor group index %d is missing (indices must be contiguous from 0)", i)}
		}
	}

	numGroups := uint32(len(w.ProcessorGroups))
	for _, t := range w.Tasks {
		if t.Group >= numGroups {
			return &ValidationError{Msg: fmt.Sprintf("task %q references unknown processor group %d", t.Name, t.Group)}
		}
		if t.Period <= 0 {
			return &ValidationError{Msg: fmt.Sprintf("task %q has non-positive period %d", t.Name, t.Period)}
		}
		if t.Jitter < 0 {
			return &ValidationError{Msg: fmt.Sprintf("task %q has negative jitter %d", t.Name, t.Jitter)}
		}
		if t.Cost.Lo < 0 || t.Cost.Hi < t.Cost.Lo {
			return &ValidationError{Msg: fmt.Sprintf("task %q has invalid cost interval %s", t.Name, t.Cost)}
		}
		if t.Deadline <= 0 {
			return &ValidationError{Msg: fmt.Sprintf("task %q has non-positive deadline %d", t.Name, t.Deadline)}
		}
	}

	for _, j := range w.StandaloneJobs {
		if j.Group >= numGroups {
			return &ValidationError{Msg: fmt.Sprintf("job %q references unknown processor group %d", j.Name, j.Group)}
		}
		if j.Arrival.Lo < 0 || j.Arrival.Hi < j.Arrival.Lo {
			return &ValidationError{Msg: fmt.Sprintf("job %q has invalid arrival interval %s", j.Name, j.Arrival)}
		}
		if j.Cost.Lo < 0 || j.Cost.Hi < j.Cost.Lo {
			return &ValidationError{Msg: fmt.Sprintf("job %q has invalid cost interval %s", j.Name, j.Cost)}
		}
		if j.Deadline <= j.Arrival.Hi {
			return &ValidationError{Msg: fmt.Sprintf("job %q has deadline not after its latest arrival", j.Name)}
		}
	}

	if _, err := hyperperiod(w.Tasks); err != nil {
		return err
	}

	return nil
}
