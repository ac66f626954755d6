package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
)

func TestMemoryDeviceWriteRead(t *testing.T) {
	d := NewMemoryDevice()
	buf, err := d.CreateBuffer("vbo", 16, UsageVertex|UsageCopyDst)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), buf.Size())
	assert.Equal(t, "vbo", buf.Label())

	require.NoError(t, d.WriteBuffer(buf, 4, []byte{1, 2, 3}))
	got, err := d.ReadBuffer(buf, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	assert.ErrorIs(t, d.WriteBuffer(buf, 14, []byte{1, 2, 3}), ErrOutOfRange)
	_, err = d.ReadBuffer(buf, 10, 7)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestMemoryDeviceCounts(t *testing.T) {
	d := NewMemoryDevice()
	a, _ := d.CreateBuffer("a", 8, UsageVertex)
	_, _ = d.CreateBuffer("b", 8, UsageIndex)
	assert.Equal(t, 2, d.Allocations())
	assert.Equal(t, 2, d.Live())
	assert.Equal(t, uint64(16), d.BytesLive())

	d.DestroyBuffer(a)
	d.DestroyBuffer(a)
	assert.Equal(t, 2, d.Allocations())
	assert.Equal(t, 1, d.Live())
	assert.ErrorIs(t, d.WriteBuffer(a, 0, []byte{1}), ErrBufferDestroyed)
}

func TestMemoryDeviceRejectsForeignBuffers(t *testing.T) {
	a := NewMemoryDevice()
	b := NewMemoryDevice()
	buf, _ := a.CreateBuffer("a", 4, UsageVertex)
	assert.ErrorIs(t, b.WriteBuffer(buf, 0, []byte{1}), ErrForeignBuffer)
}

func TestRecordingBinder(t *testing.T) {
	d := NewMemoryDevice()
	buf, _ := d.CreateBuffer("a", 64, UsageVertex|UsageIndex)
	r := &RecordingBinder{}
	r.SetVertexBuffer(0, buf, 0, 32)
	r.SetIndexBuffer(buf, geometry.IndexWidthUint16, 32, 12)

	require.Len(t, r.Calls, 2)
	assert.False(t, r.Calls[0].Index)
	assert.True(t, r.Calls[1].Index)
	assert.Equal(t, uint64(32), r.Calls[1].Offset)

	r.Reset()
	assert.Empty(t, r.Calls)
}

func TestUsageString(t *testing.T) {
	assert.Equal(t, "vertex|copy-dst", (UsageVertex | UsageCopyDst).String())
}
