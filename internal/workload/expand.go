package workload

import (
	"fmt"

	"github.com/schedcheck/schedcheck/internal/engine"
	"github.com/schedcheck/schedcheck/internal/interval"
	"github.com/schedcheck/schedcheck/internal/job"
	"github.com/schedcheck/schedcheck/internal/timemodel"
)

func gcd(a, b timemodel.Time) timemodel.Time {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// hyperperiod computes the LCM of every task's period, per SPEC_FULL.md §6:
// "the observation window is the LCM of task periods". A workload with no
// periodic tasks has a degenerate hyperperiod of 1.
func hyperperiod(tasks []TaskSpec) (timemodel.Time, error) {
	hp := timemodel.Time(1)
	for _, t := range tasks {
		g := gcd(hp, t.Period)
		next := hp / g
		if next != 0 && t.Period != 0 && (next*t.Period)/t.Period != next {
			return 0, &ValidationError{Msg: fmt.Sprintf("hyperperiod overflow expanding task %q (period %d)", t.Name, t.Period)}
		}
		hp = next * t.Period
	}
	return hp, nil
}

// Expand turns a validated Workload into the engine's inputs: the immutable
// job table (C3), the processor-group vector, the engine-level event spec,
// and the hyperperiod used both as the expansion window and as the
// AllTicks horizon. Periodic tasks are expanded per
// original_source/include/tools.hpp's generateSegments: task i's k-th
// instance arrives in [k*period, k*period+jitter] with absolute deadline
// k*period + task.Deadline.
func Expand(w *Workload) ([]job.Job, []engine.Group, engine.EventSpec, timemodel.Time, error) {
	hp, err := hyperperiod(w.Tasks)
	if err != nil {
		return nil, nil, engine.EventSpec{}, 0, err
	}

	groups := make([]engine.Group, len(w.ProcessorGroups))
	for _, g := range w.ProcessorGroups {
		groups[g.Index] = engine.Group{Name: g.Name, Cores: g.Cores}
	}

	var jobs []job.Job
	for _, t := range w.Tasks {
		instances := hp / t.Period
		for i := timemodel.Time(0); i < instances; i++ {
			base := i * t.Period
			arrival := interval.New(base, base+t.Jitter)
			deadline := base + t.Deadline
			id := job.ID{TaskID: t.TaskID, JobIndex: uint64(i)}
			jobs = append(jobs, job.New(t.Name, t.Name, id, arrival, t.Cost, deadline, t.Priority, t.Period, t.Group))
		}
	}
	for _, j := range w.StandaloneJobs {
		jobs = append(jobs, job.New(j.Name, j.Name, j.ID, j.Arrival, j.Cost, j.Deadline, j.Priority, 0, j.Group))
	}

	spec := engine.EventSpec{
		AllTicks:         w.Events.AllTicks,
		ArrivalEvents:    w.Events.ArrivalEvents,
		CompletionEvents: w.Events.CompletionEvents,
		ExplicitTimes:    w.Events.ExplicitTimes,
	}

	return jobs, groups, spec, hp, nil
}
