package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedcheck/schedcheck/internal/interval"
	"github.com/schedcheck/schedcheck/internal/job"
	"github.com/schedcheck/schedcheck/internal/state"
)

func TestNewInitialHasSentinelMergeKey(t *testing.T) {
	s := state.NewInitial(0, []uint32{1}, nil)
	assert.NotZero(t, s.MergeKey)
	assert.Equal(t, 0, s.Dispatched.Len())
	assert.Equal(t, interval.New(0, 0), s.CoreAvailability[0][0])
}

func TestDispatchCommutativityOfMergeKey(t *testing.T) {
	a := job.New("A", "A", job.ID{TaskID: 1, JobIndex: 0}, interval.New(0, 0), interval.New(1, 2), 10, 0, 10, 0)
	b := job.New("B", "B", job.ID{TaskID: 2, JobIndex: 0}, interval.New(0, 0), interval.New(1, 2), 10, 0, 10, 0)

	jobs := []job.Job{a, b}

	s0 := state.NewInitial(0, []uint32{1}, nil)

	ab := state.NextDispatch(1, s0, 0, jobs[0], interval.New(1, 2), false)
	ab = state.NextDispatch(2, ab, 1, jobs[1], interval.New(2, 4), false)

	ba := state.NextDispatch(1, s0, 1, jobs[1], interval.New(1, 2), false)
	ba = state.NextDispatch(2, ba, 0, jobs[0], interval.New(2, 4), false)

	assert.Equal(t, ab.MergeKey, ba.MergeKey)
}

func TestDispatchResortsCoreAvailability(t *testing.T) {
	s0 := state.NewInitial(0, []uint32{2}, nil)
	j := job.New("A", "A", job.ID{TaskID: 1, JobIndex: 0}, interval.New(0, 0), interval.New(3, 5), 10, 0, 10, 0)

	s1 := state.NextDispatch(1, s0, 0, j, interval.New(3, 5), false)

	row := s1.CoreAvailability[0]
	require.Len(t, row, 2)
	for i := 1; i < len(row); i++ {
		assert.LessOrEqual(t, row[i-1].Lo, row[i].Lo)
		assert.LessOrEqual(t, row[i-1].Hi, row[i].Hi)
	}
}

func TestAdvanceTimeDropsPastEvents(t *testing.T) {
	s0 := state.NewInitial(0, []uint32{1}, []int64{3, 7, 12})
	s1, err := state.AdvanceTime(1, s0, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 12}, s1.Events)
	assert.Equal(t, int64(5), s1.Timestamp)
}

func TestAdvanceTimeRequiresForwardProgress(t *testing.T) {
	s0 := state.NewInitial(0, []uint32{1}, nil)
	_, err := state.AdvanceTime(1, s0, 0)
	assert.Error(t, err)
}

func TestMergeWidensAndUnions(t *testing.T) {
	s0 := state.NewInitial(0, []uint32{1}, nil)
	j := job.New("A", "A", job.ID{TaskID: 1, JobIndex: 0}, interval.New(0, 0), interval.New(1, 2), 10, 0, 10, 0)

	a := state.NextDispatch(1, s0, 0, j, interval.New(1, 2), true)
	b := state.NextDispatch(2, s0, 0, j, interval.New(3, 4), true)

	require.True(t, state.CanMergeWith(a, b))
	ok := a.TryMerge(b)
	require.True(t, ok)

	assert.Equal(t, interval.New(1, 4), a.FinishTimes[j.ID])
	assert.Equal(t, interval.New(1, 4), a.CoreAvailability[0][0])
	assert.Equal(t, []int64{1, 2, 3, 4}, a.Events)
}

func TestMergeRejectsNonCandidates(t *testing.T) {
	s0 := state.NewInitial(0, []uint32{1}, nil)
	j := job.New("A", "A", job.ID{TaskID: 1, JobIndex: 0}, interval.New(0, 0), interval.New(1, 2), 10, 0, 10, 0)
	other := job.New("B", "B", job.ID{TaskID: 2, JobIndex: 0}, interval.New(0, 0), interval.New(1, 2), 10, 0, 10, 0)

	a := state.NextDispatch(1, s0, 0, j, interval.New(1, 2), false)
	b := state.NextDispatch(2, s0, 1, other, interval.New(1, 2), false)

	assert.False(t, a.TryMerge(b))
}
