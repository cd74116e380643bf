package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedcheck/schedcheck/internal/engine"
	"github.com/schedcheck/schedcheck/internal/interval"
	"github.com/schedcheck/schedcheck/internal/job"
	"github.com/schedcheck/schedcheck/internal/policy"
)

func mkJob(taskID, idx uint64, arrival, cost interval.Interval, deadline int64, group uint32) job.Job {
	return job.New("T", "T", job.ID{TaskID: taskID, JobIndex: idx}, arrival, cost, deadline, 0, deadline, group)
}

func oneCoreGroup() []engine.Group {
	return []engine.Group{{Name: "g0", Cores: 1}}
}

// S1 — single job, one core.
func TestScenarioS1SingleJob(t *testing.T) {
	jobs := []job.Job{mkJob(1, 0, interval.New(0, 0), interval.New(3, 5), 10, 0)}

	e := engine.New(jobs, oneCoreGroup(), policy.EDF{}, engine.Config{}, engine.EventSpec{ArrivalEvents: true}, 10, nil)
	require.NoError(t, e.Run(context.Background()))

	summary := e.Summary()
	assert.True(t, summary.Schedulable)
	assert.LessOrEqual(t, summary.NumStates, 4)
	assert.Equal(t, interval.New(3, 5), e.ResponseTimes()[jobs[0].ID])
}

// S2 — two jobs, EDF, one core.
func TestScenarioS2TwoJobsEDF(t *testing.T) {
	jobs := []job.Job{
		mkJob(1, 0, interval.New(0, 0), interval.New(2, 3), 5, 0),
		mkJob(2, 0, interval.New(0, 0), interval.New(2, 3), 9, 0),
	}

	e := engine.New(jobs, oneCoreGroup(), policy.EDF{}, engine.Config{}, engine.EventSpec{ArrivalEvents: true, CompletionEvents: true}, 9, nil)
	require.NoError(t, e.Run(context.Background()))

	summary := e.Summary()
	assert.True(t, summary.Schedulable)
	assert.Equal(t, interval.New(2, 3), e.ResponseTimes()[jobs[0].ID])
	assert.Equal(t, interval.New(4, 6), e.ResponseTimes()[jobs[1].ID])
}

// S3 — deadline miss.
func TestScenarioS3DeadlineMiss(t *testing.T) {
	jobs := []job.Job{mkJob(1, 0, interval.New(0, 0), interval.New(6, 8), 5, 0)}

	e := engine.New(jobs, oneCoreGroup(), policy.EDF{}, engine.Config{}, engine.EventSpec{ArrivalEvents: true}, 5, nil)
	require.NoError(t, e.Run(context.Background()))

	assert.False(t, e.Summary().Schedulable)
}

// S4 — arrival uncertainty triggers branching.
func TestScenarioS4ArrivalUncertainty(t *testing.T) {
	jobs := []job.Job{
		mkJob(1, 0, interval.New(0, 2), interval.New(1, 1), 4, 0),
		mkJob(2, 0, interval.New(0, 0), interval.New(1, 1), 3, 0),
	}

	e := engine.New(jobs, oneCoreGroup(), policy.EDF{}, engine.Config{}, engine.EventSpec{ArrivalEvents: true}, 4, nil)
	require.NoError(t, e.Run(context.Background()))

	summary := e.Summary()
	assert.True(t, summary.Schedulable)
	assert.Equal(t, interval.New(1, 1), e.ResponseTimes()[jobs[1].ID])

	rt0 := e.ResponseTimes()[jobs[0].ID]
	assert.GreaterOrEqual(t, rt0.Lo, int64(1))
	assert.LessOrEqual(t, rt0.Hi, int64(3))
}

// S6 — multi-group: both jobs dispatch with no resource contention, each
// response equals its own cost interval.
func TestScenarioS6MultiGroup(t *testing.T) {
	jobs := []job.Job{
		mkJob(1, 0, interval.New(0, 0), interval.New(2, 2), 10, 0),
		mkJob(2, 0, interval.New(0, 0), interval.New(3, 3), 10, 1),
	}
	groups := []engine.Group{{Name: "g0", Cores: 1}, {Name: "g1", Cores: 1}}

	e := engine.New(jobs, groups, policy.EDF{}, engine.Config{}, engine.EventSpec{ArrivalEvents: true}, 10, nil)
	require.NoError(t, e.Run(context.Background()))

	summary := e.Summary()
	assert.True(t, summary.Schedulable)
	assert.Equal(t, interval.New(2, 2), e.ResponseTimes()[jobs[0].ID])
	assert.Equal(t, interval.New(3, 3), e.ResponseTimes()[jobs[1].ID])
}

// S5 — merge effectiveness: two periodic tasks over one hyperperiod produce
// strictly fewer states with merging enabled than with --naive.
func TestScenarioS5MergeReducesStateCount(t *testing.T) {
	jobs := []job.Job{
		mkJob(1, 0, interval.New(0, 0), interval.New(1, 2), 10, 0),
		mkJob(1, 1, interval.New(10, 10), interval.New(1, 2), 20, 0),
		mkJob(2, 0, interval.New(0, 0), interval.New(1, 2), 10, 0),
		mkJob(2, 1, interval.New(10, 10), interval.New(1, 2), 20, 0),
	}

	merged := engine.New(jobs, oneCoreGroup(), policy.EDF{}, engine.Config{}, engine.EventSpec{ArrivalEvents: true, CompletionEvents: true}, 20, nil)
	require.NoError(t, merged.Run(context.Background()))

	naive := engine.New(jobs, oneCoreGroup(), policy.EDF{}, engine.Config{Naive: true}, engine.EventSpec{ArrivalEvents: true, CompletionEvents: true}, 20, nil)
	require.NoError(t, naive.Run(context.Background()))

	assert.Less(t, merged.Summary().NumStates, naive.Summary().NumStates)
}
