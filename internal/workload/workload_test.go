package workload_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedcheck/schedcheck/internal/interval"
	"github.com/schedcheck/schedcheck/internal/workload"
)

func baseWorkload() *workload.Workload {
	return &workload.Workload{
		ProcessorGroups: []workload.ProcessorGroupSpec{{Name: "cpu", Index: 0, Cores: 1}},
	}
}

// W-S1 — hyperperiod expansion: periods 4 and 6 (LCM 12) expand to 3 and 2
// job instances respectively, with arrivals at the expected multiples.
func TestHyperperiodExpansion(t *testing.T) {
	w := baseWorkload()
	w.Tasks = []workload.TaskSpec{
		{Name: "A", TaskID: 1, Period: 4, Cost: interval.New(1, 1), Deadline: 4, Group: 0},
		{Name: "B", TaskID: 2, Period: 6, Cost: interval.New(1, 1), Deadline: 6, Group: 0},
	}

	require.NoError(t, workload.Validate(w))
	jobs, groups, _, hp, err := workload.Expand(w)
	require.NoError(t, err)

	assert.Equal(t, int64(12), hp)
	assert.Len(t, groups, 1)

	var aCount, bCount int
	for _, j := range jobs {
		switch j.ID.TaskID {
		case 1:
			aCount++
		case 2:
			bCount++
		}
	}
	assert.Equal(t, 3, aCount)
	assert.Equal(t, 2, bCount)

	for _, j := range jobs {
		if j.ID.TaskID == 1 {
			assert.Equal(t, j.ID.JobIndex*4, uint64(j.Arrival.Lo))
		}
	}
}

func TestLoadValidYAML(t *testing.T) {
	doc := `
processorGroups:
  - name: cpu
    index: 0
    cores: 1
tasks:
  - name: A
    taskId: 1
    period: 10
    deadline: 10
    group: 0
    cost:
      lo: 1
      hi: 2
events:
  arrivalEvents: true
`
	w, err := workload.Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Len(t, w.Tasks, 1)
	assert.True(t, w.Events.ArrivalEvents)
}

func TestValidateRejectsUnknownGroup(t *testing.T) {
	w := baseWorkload()
	w.Tasks = []workload.TaskSpec{{Name: "A", Period: 1, Deadline: 1, Group: 5}}
	err := workload.Validate(w)
	require.Error(t, err)
	var verr *workload.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestValidateRejectsDuplicateGroupIndex(t *testing.T) {
	w := &workload.Workload{ProcessorGroups: []workload.ProcessorGroupSpec{
		{Name: "a", Index: 0, Cores: 1},
		{Name: "b", Index: 0, Cores: 1},
	}}
	require.Error(t, workload.Validate(w))
}

func TestValidateRejectsBadCostInterval(t *testing.T) {
	w := baseWorkload()
	w.StandaloneJobs = []workload.StandaloneJobSpec{
		{Name: "J", Arrival: interval.New(0, 0), Cost: interval.Interval{Lo: 5, Hi: 1}, Deadline: 10, Group: 0},
	}
	require.Error(t, workload.Validate(w))
}
