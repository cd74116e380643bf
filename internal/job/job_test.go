package job_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schedcheck/schedcheck/internal/interval"
	"github.com/schedcheck/schedcheck/internal/job"
)

func TestHashIsStableAndPathIndependent(t *testing.T) {
	j1 := job.New("T1", "T1S0", job.ID{TaskID: 1, JobIndex: 0}, interval.New(0, 0), interval.New(2, 3), 5, 0, 5, 0)
	j2 := job.New("T1", "T1S0", job.ID{TaskID: 1, JobIndex: 0}, interval.New(0, 0), interval.New(2, 3), 5, 0, 5, 0)
	assert.Equal(t, j1.Hash, j2.Hash)
}

func TestHashDiffersOnDeadline(t *testing.T) {
	base := job.New("T1", "T1S0", job.ID{TaskID: 1, JobIndex: 0}, interval.New(0, 0), interval.New(2, 3), 5, 0, 5, 0)
	changedDeadline := job.New("T1", "T1S0", job.ID{TaskID: 1, JobIndex: 0}, interval.New(0, 0), interval.New(2, 3), 6, 0, 5, 0)
	assert.NotEqual(t, base.Hash, changedDeadline.Hash)
}

func TestSchedulingWindow(t *testing.T) {
	j := job.New("T1", "T1S0", job.ID{TaskID: 1, JobIndex: 0}, interval.New(2, 4), interval.New(1, 1), 10, 0, 10, 0)
	assert.Equal(t, interval.New(2, 9), j.SchedulingWindow())
}

func TestExceedsDeadline(t *testing.T) {
	j := job.New("T1", "T1S0", job.ID{TaskID: 1, JobIndex: 0}, interval.New(0, 0), interval.New(1, 1), 5, 0, 5, 0)
	assert.False(t, j.ExceedsDeadline(5))
	assert.True(t, j.ExceedsDeadline(6))
}

func TestIDString(t *testing.T) {
	id := job.ID{TaskID: 2, JobIndex: 3}
	assert.Equal(t, "T2S3", id.String())
}

func TestLessOrdersByTaskThenJob(t *testing.T) {
	a := job.ID{TaskID: 1, JobIndex: 5}
	b := job.ID{TaskID: 2, JobIndex: 0}
	assert.True(t, job.Less(a, b))
	assert.False(t, job.Less(b, a))
}
