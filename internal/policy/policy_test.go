package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedcheck/schedcheck/internal/interval"
	"github.com/schedcheck/schedcheck/internal/job"
	"github.com/schedcheck/schedcheck/internal/policy"
	"github.com/schedcheck/schedcheck/internal/queue"
)

func TestEDFSelectsEarliestDeadline(t *testing.T) {
	jobs := []job.Job{
		job.New("A", "A", job.ID{TaskID: 1, JobIndex: 0}, interval.New(0, 0), interval.New(1, 1), 9, 0, 9, 0),
		job.New("B", "B", job.ID{TaskID: 2, JobIndex: 0}, interval.New(0, 0), interval.New(1, 1), 5, 0, 5, 0),
	}
	q := queue.New(jobs, []job.Index{0, 1})

	var oracle policy.EDF
	selected, ok := oracle.Select(q, nil, 0)
	require.True(t, ok)
	assert.Equal(t, jobs[1].ID, selected)
}

func TestEDFOnEmptyQueueReturnsNone(t *testing.T) {
	var oracle policy.EDF
	_, ok := oracle.Select(queue.New(nil, nil), nil, 0)
	assert.False(t, ok)
}
