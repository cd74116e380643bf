package indexset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schedcheck/schedcheck/internal/indexset"
)

func TestAddContains(t *testing.T) {
	s := indexset.New()
	s.Add(3)
	s.Add(130)
	assert.True(t, s.Contains(3))
	assert.True(t, s.Contains(130))
	assert.False(t, s.Contains(4))
	assert.Equal(t, 2, s.Len())
}

func TestWithAddedIsImmutable(t *testing.T) {
	a := indexset.New()
	a.Add(1)
	b := a.WithAdded(2)
	assert.True(t, b.Contains(1))
	assert.True(t, b.Contains(2))
	assert.False(t, a.Contains(2))
}

func TestEqualIsOrderIndependent(t *testing.T) {
	a := indexset.New()
	a.Add(1)
	a.Add(5)

	b := indexset.New()
	b.Add(5)
	b.Add(1)

	assert.True(t, indexset.Equal(a, b))
}

func TestEqualDistinguishesHighIndex(t *testing.T) {
	a := indexset.New()
	a.Add(1)

	b := indexset.New()
	b.Add(1)
	b.Add(200)
	b2 := b.WithAdded(1) // re-adding a member; b itself is left unchanged
	_ = b2

	assert.False(t, indexset.Equal(a, b))
}

func TestUnionAndIntersect(t *testing.T) {
	a := indexset.New()
	a.Add(1)
	a.Add(2)

	b := indexset.New()
	b.Add(2)
	b.Add(3)

	u := indexset.Union(a, b)
	assert.True(t, u.Contains(1))
	assert.True(t, u.Contains(2))
	assert.True(t, u.Contains(3))

	i := indexset.Intersect(a, b)
	assert.False(t, i.Contains(1))
	assert.True(t, i.Contains(2))
	assert.False(t, i.Contains(3))
}

func TestIsSubsetOf(t *testing.T) {
	a := indexset.New()
	a.Add(1)

	b := indexset.New()
	b.Add(1)
	b.Add(2)

	assert.True(t, a.IsSubsetOf(b))
	assert.False(t, b.IsSubsetOf(a))
}

func TestIndicesSorted(t *testing.T) {
	s := indexset.New()
	s.Add(5)
	s.Add(1)
	s.Add(64)
	assert.Equal(t, []int{1, 5, 64}, s.Indices())
}
