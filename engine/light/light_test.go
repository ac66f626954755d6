package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffects(t *testing.T) {
	sun := NewLight(LightTypeDirectional)
	bulb := NewLight(LightTypePoint, WithPosition(0, 0, 0), WithRange(5))
	off := NewLight(LightTypePoint, WithEnabled(false))

	far := [3]float32{100, 0, 0}
	near := [3]float32{3, 4, 0}

	assert.True(t, sun.Affects(far))
	assert.True(t, bulb.Affects(near))
	assert.False(t, bulb.Affects(far))
	assert.False(t, off.Affects([3]float32{}))
}

func TestMarshalLightBuffer(t *testing.T) {
	lights := []Light{
		NewLight(LightTypePoint, WithColor(1, 0, 0), WithIntensity(2)),
		NewLight(LightTypePoint, WithEnabled(false)),
		nil,
		NewLight(LightTypeSpot, WithSpotCone(10, 20)),
	}

	buf := MarshalLightBuffer(lights, [3]float32{0.1, 0.2, 0.3})
	require.Len(t, buf, LightBlockSize)

	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(buf[12:16]))
	assert.Equal(t, float32(0.1), math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])))

	first := buf[16:80]
	assert.Equal(t, uint32(LightTypePoint), binary.LittleEndian.Uint32(first[12:16]))
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(first[28:32])))

	second := buf[80:144]
	assert.Equal(t, uint32(LightTypeSpot), binary.LittleEndian.Uint32(second[12:16]))

	assert.Equal(t, make([]byte, 64), buf[144:208])
}

func TestMarshalLightBufferCapsAtMaxPerDraw(t *testing.T) {
	lights := make([]Light, MaxPerDraw+3)
	for i := range lights {
		lights[i] = NewLight(LightTypeDirectional)
	}
	buf := MarshalLightBuffer(lights, [3]float32{})
	assert.Equal(t, uint32(MaxPerDraw), binary.LittleEndian.Uint32(buf[12:16]))
}

func TestGPULightSize(t *testing.T) {
	assert.Equal(t, 64, (&GPULight{}).Size())
	assert.Equal(t, 16, (&GPULightHeader{}).Size())
}
