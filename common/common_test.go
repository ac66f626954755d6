package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextPowerOfTwo(t *testing.T) {
	assert.Equal(t, 1, NextPowerOfTwo(0))
	assert.Equal(t, 1, NextPowerOfTwo(1))
	assert.Equal(t, 1024, NextPowerOfTwo(900))
	assert.Equal(t, 1024, NextPowerOfTwo(1024))
	assert.Equal(t, 2048, NextPowerOfTwo(1025))
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, 0, AlignUp(0, 4))
	assert.Equal(t, 4, AlignUp(1, 4))
	assert.Equal(t, 8, AlignUp(8, 4))
	assert.Equal(t, 12, AlignUp(9, 4))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, -250, Clamp(-900, -250, 250))
	assert.Equal(t, 250, Clamp(900, -250, 250))
	assert.Equal(t, 7, Clamp(7, -250, 250))
	assert.Equal(t, float32(0), Clamp(float32(-3), 0, 1000))
}

func TestFanToList(t *testing.T) {
	assert.Nil(t, FanToList(0, 2))
	assert.Equal(t, []uint32{4, 5, 6, 4, 6, 7}, FanToList(4, 4))
}

func TestVectorHelpers(t *testing.T) {
	assert.Equal(t, float32(5), Length3([3]float32{3, 4, 0}))
	assert.Equal(t, [3]float32{0, 0, 1}, Cross3([3]float32{1, 0, 0}, [3]float32{0, 1, 0}))
	assert.Equal(t, [3]float32{}, Normalize3([3]float32{}))
	assert.InDelta(t, 1.0, Length3(Normalize3([3]float32{2, -3, 6})), 1e-6)
	assert.Equal(t, float32(7), Distance3([3]float32{1, 1, 1}, [3]float32{3, -2, 7}))
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	var view [16]float32
	LookAt(view[:], [3]float32{0, 0, 10}, [3]float32{0, 0, 0}, [3]float32{0, 1, 0})

	// eye transformed by the view matrix lands on the origin
	x := view[0]*0 + view[4]*0 + view[8]*10 + view[12]
	y := view[1]*0 + view[5]*0 + view[9]*10 + view[13]
	z := view[2]*0 + view[6]*0 + view[10]*10 + view[14]
	assert.InDelta(t, 0, x, 1e-5)
	assert.InDelta(t, 0, y, 1e-5)
	assert.InDelta(t, 0, z, 1e-5)
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
}
