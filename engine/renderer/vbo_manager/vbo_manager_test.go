package vbo_manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/device"
)

var positionFormat = geometry.VertexFormat{Attributes: geometry.AttributePosition}

// newSmallPool returns a pool with 1KB and 2KB classes over 8KB buffers, so the
// 1KB bucket holds 8 slots per driver buffer.
func newSmallPool(t *testing.T, options ...VBOManagerBuilderOption) (VBOManager, *device.MemoryDevice) {
	t.Helper()
	dev := device.NewMemoryDevice()
	opts := append([]VBOManagerBuilderOption{
		WithSizeClasses(1024, 2048),
		WithUnderlyingBufferSize(8192),
	}, options...)
	return NewVBOManager(dev, opts...), dev
}

func bucketStats(t *testing.T, st Stats, format string, slotSize int) BucketStats {
	t.Helper()
	for _, b := range st.Buckets {
		if b.Format == format && b.SlotSize == slotSize {
			return b
		}
	}
	t.Fatalf("no bucket %s/%d", format, slotSize)
	return BucketStats{}
}

func TestSeventeenSlotsGrowThreeBuffers(t *testing.T) {
	m, dev := newSmallPool(t)

	seen := map[int]bool{}
	for i := 0; i < 17; i++ {
		s, err := m.AllocateSlot(VertexDescriptor(positionFormat), 900)
		require.NoError(t, err)
		assert.False(t, seen[s.ID], "slot %d handed out twice", s.ID)
		seen[s.ID] = true
		assert.Equal(t, 1024, m.SlotSizeInBytes(s))
	}

	assert.Equal(t, 3, dev.Allocations())
	st := m.Stats()
	assert.Equal(t, 3, st.DriverAllocations)
	b := bucketStats(t, st, "vertex/position", 1024)
	assert.Equal(t, 3, b.Buffers)
	assert.Equal(t, 24, b.Slots)
	assert.Equal(t, 7, b.Free)
	assert.Equal(t, 17, b.Allocated)
}

func TestReleasedSlotReusedBeforeGrowth(t *testing.T) {
	m, dev := newSmallPool(t)

	var slots []Slot
	for i := 0; i < 8; i++ {
		s, err := m.AllocateSlot(VertexDescriptor(positionFormat), 1000)
		require.NoError(t, err)
		slots = append(slots, s)
	}
	require.Equal(t, 1, dev.Allocations())

	m.ReleaseSlot(slots[3])
	s, err := m.AllocateSlot(VertexDescriptor(positionFormat), 512)
	require.NoError(t, err)
	assert.Equal(t, slots[3].ID, s.ID)
	assert.Equal(t, 1, dev.Allocations())

	s, err = m.AllocateSlot(VertexDescriptor(positionFormat), 512)
	require.NoError(t, err)
	assert.Equal(t, 8, s.ID)
	assert.Equal(t, 2, dev.Allocations())
}

func TestFreeListIsFIFO(t *testing.T) {
	m, _ := newSmallPool(t)

	var slots []Slot
	for i := 0; i < 8; i++ {
		s, err := m.AllocateSlot(IndexDescriptor(geometry.IndexWidthUint16), 64)
		require.NoError(t, err)
		slots = append(slots, s)
	}
	m.ReleaseSlot(slots[2])
	m.ReleaseSlot(slots[5])

	a, err := m.AllocateSlot(IndexDescriptor(geometry.IndexWidthUint16), 64)
	require.NoError(t, err)
	b, err := m.AllocateSlot(IndexDescriptor(geometry.IndexWidthUint16), 64)
	require.NoError(t, err)
	assert.Equal(t, 2, a.ID)
	assert.Equal(t, 5, b.ID)
}

func TestFormatsGetSeparateBuckets(t *testing.T) {
	m, _ := newSmallPool(t)

	a, _ := m.AllocateSlot(VertexDescriptor(positionFormat), 100)
	b, _ := m.AllocateSlot(VertexDescriptor(geometry.VertexFormat{Attributes: geometry.AttributePosition | geometry.AttributeUV}), 100)
	c, _ := m.AllocateSlot(IndexDescriptor(geometry.IndexWidthUint16), 100)
	d, _ := m.AllocateSlot(IndexDescriptor(geometry.IndexWidthUint32), 100)
	e, _ := m.AllocateSlot(VertexDescriptor(positionFormat), 1500)

	buckets := map[int]bool{a.Bucket: true, b.Bucket: true, c.Bucket: true, d.Bucket: true, e.Bucket: true}
	assert.Len(t, buckets, 5)
	assert.Equal(t, 2048, m.SlotSizeInBytes(e))
	assert.Len(t, m.Stats().Buckets, 5)
}

func TestUploadRoundTrip(t *testing.T) {
	m, dev := newSmallPool(t)

	var s Slot
	for i := 0; i < 10; i++ {
		var err error
		s, err = m.AllocateSlot(VertexDescriptor(positionFormat), 900)
		require.NoError(t, err)
	}
	require.Equal(t, 9, s.ID)
	assert.Equal(t, uint64(1024), m.SlotOffset(s))

	data := make([]byte, 901)
	for i := range data {
		data[i] = byte(i * 7)
	}
	require.NoError(t, m.Upload(s, data))

	got, err := m.ReadBack(s, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	raw, err := dev.ReadBuffer(s.Buffer, 1024, uint64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, data, raw)
}

func TestUploadLargerThanSlotPanics(t *testing.T) {
	m, _ := newSmallPool(t)
	s, err := m.AllocateSlot(VertexDescriptor(positionFormat), 1000)
	require.NoError(t, err)

	assert.Panics(t, func() { _ = m.Upload(s, make([]byte, 1025)) })
	assert.ErrorIs(t, m.Upload(Slot{}, []byte{1}), ErrNoSlot)
}

func TestOversizedGetsDedicatedBuffer(t *testing.T) {
	m, dev := newSmallPool(t)

	s, err := m.AllocateSlot(VertexDescriptor(positionFormat), 5001)
	require.NoError(t, err)
	assert.True(t, s.Dedicated())
	assert.Equal(t, 5004, m.SlotSizeInBytes(s))
	assert.Equal(t, uint64(0), m.SlotOffset(s))

	st := m.Stats()
	assert.Equal(t, 1, st.DedicatedBuffers)
	assert.Equal(t, 5004, st.DedicatedBytes)
	assert.Empty(t, st.Buckets)

	m.ReleaseSlot(s)
	assert.Equal(t, 0, dev.Live())
	assert.Equal(t, 0, m.Stats().DedicatedBuffers)
}

func TestOversizedRejectedWhenConfigured(t *testing.T) {
	m, dev := newSmallPool(t, WithRejectOversized(true))

	_, err := m.AllocateSlot(VertexDescriptor(positionFormat), 5000)
	assert.ErrorIs(t, err, ErrOversized)
	assert.Equal(t, 0, dev.Allocations())

	desc := VertexDescriptor(positionFormat)
	desc.Dedicated = true
	s, err := m.AllocateSlot(desc, 5000)
	require.NoError(t, err)
	assert.True(t, s.Dedicated())
}

func TestDedicatedHintSkipsPool(t *testing.T) {
	m, _ := newSmallPool(t)
	desc := IndexDescriptor(geometry.IndexWidthUint32)
	desc.Dedicated = true

	s, err := m.AllocateSlot(desc, 100)
	require.NoError(t, err)
	assert.True(t, s.Dedicated())
	assert.Equal(t, 100, m.SlotSizeInBytes(s))
}

func TestProgrammerErrorsPanic(t *testing.T) {
	m, dev := newSmallPool(t)
	stray, _ := dev.CreateBuffer("stray", 16, device.UsageVertex)

	assert.Panics(t, func() { m.ReleaseSlot(Slot{Bucket: 4, ID: 0, Buffer: stray}) })

	s, err := m.AllocateSlot(VertexDescriptor(positionFormat), 10)
	require.NoError(t, err)
	m.ReleaseSlot(s)
	assert.Panics(t, func() { m.ReleaseSlot(s) })

	assert.Panics(t, func() { NewVBOManager(dev, WithSizeClasses(1000)) })
	assert.Panics(t, func() { NewVBOManager(nil) })
}

func TestDestroyReleasesEverything(t *testing.T) {
	m, dev := newSmallPool(t)
	for i := 0; i < 9; i++ {
		_, err := m.AllocateSlot(VertexDescriptor(positionFormat), 900)
		require.NoError(t, err)
	}
	_, err := m.AllocateSlot(VertexDescriptor(positionFormat), 9000)
	require.NoError(t, err)
	require.Equal(t, 3, dev.Live())

	m.Destroy()
	assert.Equal(t, 0, dev.Live())

	_, err = m.AllocateSlot(VertexDescriptor(positionFormat), 10)
	assert.ErrorIs(t, err, ErrDestroyed)
}

type writeOnlyDevice struct {
	device.Device
}

func TestReadBackNeedsReader(t *testing.T) {
	m := NewVBOManager(writeOnlyDevice{device.NewMemoryDevice()})
	s, err := m.AllocateSlot(VertexDescriptor(positionFormat), 10)
	require.NoError(t, err)

	_, err = m.ReadBack(s, 10)
	assert.ErrorIs(t, err, ErrNoReader)
}

func TestDefaultLadder(t *testing.T) {
	m := NewVBOManager(device.NewMemoryDevice())
	cfg := m.Config()
	assert.Equal(t, DefaultUnderlyingBufferSize, cfg.UnderlyingBufferSize)
	assert.Len(t, cfg.SizeClasses, 10)
	assert.Equal(t, 512*1024, cfg.LargestClass())

	s, err := m.AllocateSlot(VertexDescriptor(positionFormat), 3000)
	require.NoError(t, err)
	assert.Equal(t, 4096, m.SlotSizeInBytes(s))
}
