package render_queue

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestSortKeyFieldsRoundTrip(t *testing.T) {
	k := NewSortKey(-12, 3, true, 500, -7, 0xBEEF)

	assert.Equal(t, -12, k.Priority())
	assert.Equal(t, 3, k.Pass())
	assert.True(t, k.Blended())
	assert.Equal(t, uint32(DistanceLevels-511), k.Distance())
	assert.Equal(t, -7, k.Precedence())
	assert.Equal(t, uint32(0xBEEF), k.TextureID())
}

func TestSortKeyClampsSilently(t *testing.T) {
	k := NewSortKey(9000, 99, false, -50, 1000, 1<<40)

	assert.Equal(t, 250, k.Priority())
	assert.Equal(t, MaxPasses-1, k.Pass())
	assert.Equal(t, uint32(0), k.Distance())
	assert.Equal(t, 127, k.Precedence())
	assert.Equal(t, uint32(0xFFFFFFFF), k.TextureID())

	low := NewSortKey(-9000, -1, false, 0, -1000, 0)
	assert.Equal(t, -250, low.Priority())
	assert.Equal(t, 0, low.Pass())
	assert.Equal(t, -128, low.Precedence())
}

func TestQuantizeDistance(t *testing.T) {
	assert.Equal(t, uint32(0), QuantizeDistance(0, DistanceRange, false))
	assert.Equal(t, uint32(511), QuantizeDistance(500, DistanceRange, false))
	assert.Equal(t, uint32(DistanceLevels), QuantizeDistance(1000, DistanceRange, false))
	assert.Equal(t, uint32(DistanceLevels), QuantizeDistance(5000, DistanceRange, false))
	assert.Equal(t, uint32(0), QuantizeDistance(-3, DistanceRange, false))
	assert.Equal(t, uint32(0), QuantizeDistance(math32.NaN(), DistanceRange, false))

	assert.Equal(t, uint32(DistanceLevels), QuantizeDistance(0, DistanceRange, true))
	assert.Equal(t, uint32(0), QuantizeDistance(1000, DistanceRange, true))
	assert.Equal(t, uint32(DistanceLevels-5), QuantizeDistance(5, DistanceRange, true))
}

func TestSortKeyOrdering(t *testing.T) {
	less := func(a, b SortKey) { assert.Less(t, uint64(a), uint64(b), "%s < %s", a, b) }

	// priority dominates everything below it
	less(NewSortKey(0, 15, true, 999, 127, 1<<31), NewSortKey(1, 0, false, 0, -128, 0))
	// pass dominates blend and distance
	less(NewSortKey(0, 0, true, 999, 0, 0), NewSortKey(0, 1, false, 0, 0, 0))
	// opaque before blended within a pass
	less(NewSortKey(0, 0, false, 999, 0, 0), NewSortKey(0, 0, true, 999, 0, 0))
	// opaque near before far
	less(NewSortKey(0, 0, false, 1, 0, 0), NewSortKey(0, 0, false, 9, 0, 0))
	// blended far before near
	less(NewSortKey(0, 0, true, 9, 0, 0), NewSortKey(0, 0, true, 1, 0, 0))
	// precedence before texture
	less(NewSortKey(0, 0, false, 5, -1, 900), NewSortKey(0, 0, false, 5, 0, 1))
	// texture clusters last
	less(NewSortKey(0, 0, false, 5, 0, 1), NewSortKey(0, 0, false, 5, 0, 2))
}

func TestPackWithCustomRange(t *testing.T) {
	k := SortKeyFields{Distance: 50}.Pack(100)
	assert.Equal(t, uint32(511), k.Distance())
}

func TestSortKeyString(t *testing.T) {
	assert.Equal(t, "key(prio=0 pass=1 blended=false dist=0 prec=0 tex=4)", NewSortKey(0, 1, false, 0, 0, 4).String())
}
