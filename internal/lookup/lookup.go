// Package lookup implements the bucketed interval lookup table (C4): a time
// point maps to the jobs whose scheduling window overlaps the point's bucket.
// Buckets are immutable after workload load.
//
// Grounded on original_source/include/interval.hpp's IntervalLookupTable.
package lookup

import (
	"github.com/schedcheck/schedcheck/internal/interval"
	"github.com/schedcheck/schedcheck/internal/job"
	"github.com/schedcheck/schedcheck/internal/timemodel"
)

// Table buckets job.Index values by the time range their scheduling window
// overlaps.
type Table struct {
	rangeLo, rangeHi timemodel.Time
	bucketWidth      timemodel.Time
	numBuckets       int
	buckets          [][]job.Index
}

// Build constructs a Table over [rangeLo,rangeHi] with the given bucket
// width, inserting every job's scheduling window.
func Build(jobs []job.Job, rangeLo, rangeHi timemodel.Time, bucketWidth timemodel.Time) *Table {
	if bucketWidth < 1 {
		bucketWidth = 1
	}
	span := rangeHi - rangeLo
	numBuckets := 1
	if n := int(span / bucketWidth); n > numBuckets {
		numBuckets = n
	}
	t := &Table{
		rangeLo:     rangeLo,
		rangeHi:     rangeHi,
		bucketWidth: bucketWidth,
		numBuckets:  numBuckets,
		buckets:     make([][]job.Index, numBuckets),
	}
	for i, j := range jobs {
		t.insert(job.Index(i), j.SchedulingWindow())
	}
	return t
}

func (t *Table) bucketOf(point timemodel.Time) int {
	if point <= t.rangeLo {
		return 0
	}
	b := int((point - t.rangeLo) / t.bucketWidth)
	if b >= t.numBuckets {
		return t.numBuckets - 1
	}
	if b < 0 {
		return 0
	}
	return b
}

func (t *Table) insert(idx job.Index, window interval.Interval) {
	from := t.bucketOf(window.Lo)
	until := t.bucketOf(window.Hi)
	for b := from; b <= until; b++ {
		t.buckets[b] = append(t.buckets[b], idx)
	}
}

// Lookup returns the job indices whose scheduling window overlaps the bucket
// containing point. With a bucket width above 1 this can include jobs whose
// window does not contain point itself.
func (t *Table) Lookup(point timemodel.Time) []job.Index {
	return t.buckets[t.bucketOf(point)]
}
