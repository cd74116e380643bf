package interval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedcheck/schedcheck/internal/interval"
)

func TestNewNormalizesOrder(t *testing.T) {
	iv := interval.New(5, 2)
	require.Equal(t, int64(2), iv.Lo)
	require.Equal(t, int64(5), iv.Hi)
}

func TestContains(t *testing.T) {
	iv := interval.New(2, 5)
	assert.True(t, iv.Contains(2))
	assert.True(t, iv.Contains(5))
	assert.True(t, iv.Contains(3))
	assert.False(t, iv.Contains(1))
	assert.False(t, iv.Contains(6))
}

func TestDisjointAndIntersects(t *testing.T) {
	tests := []struct {
		name     string
		a, b     interval.Interval
		disjoint bool
	}{
		{"touching at a point is not disjoint", interval.New(0, 3), interval.New(3, 5), false},
		{"gap is disjoint", interval.New(0, 2), interval.New(3, 5), true},
		{"overlapping", interval.New(0, 4), interval.New(2, 6), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.disjoint, interval.Disjoint(tt.a, tt.b))
			assert.Equal(t, !tt.disjoint, interval.Intersects(tt.a, tt.b))
		})
	}
}

func TestWiden(t *testing.T) {
	got := interval.Widen(interval.New(2, 4), interval.New(1, 3))
	assert.Equal(t, interval.New(1, 4), got)

	got = interval.Widen(interval.New(10, 20), interval.New(0, 5))
	assert.Equal(t, interval.New(0, 20), got)
}

func TestWidenIntoMutates(t *testing.T) {
	iv := interval.New(2, 4)
	iv.WidenInto(interval.New(0, 3))
	assert.Equal(t, interval.New(0, 4), iv)
}

func TestAdd(t *testing.T) {
	got := interval.Add(interval.New(1, 2), interval.New(3, 5))
	assert.Equal(t, interval.New(4, 7), got)
}

func TestShift(t *testing.T) {
	got := interval.Shift(interval.New(1, 2), 10)
	assert.Equal(t, interval.New(11, 12), got)
}

func TestLength(t *testing.T) {
	assert.Equal(t, int64(3), interval.New(2, 5).Length())
}
