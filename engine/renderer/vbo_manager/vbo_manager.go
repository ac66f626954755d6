package vbo_manager

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
	"github.com/Carmen-Shannon/oxy-render/engine/renderable"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/device"
)

var (
	// ErrOversized is returned by AllocateSlot when a request exceeds the largest
	// size class and the pool is configured to reject such requests.
	ErrOversized = errors.New("vbo_manager: request exceeds largest size class")
	// ErrNoSlot is returned when an operation is given a slot that holds no memory.
	ErrNoSlot = errors.New("vbo_manager: slot is not allocated")
	// ErrDestroyed is returned by allocations after Destroy.
	ErrDestroyed = errors.New("vbo_manager: manager destroyed")
	// ErrNoReader is returned by ReadBack when the device cannot read buffers back.
	ErrNoReader = errors.New("vbo_manager: device does not support read back")
	// ErrReleasedGeometry is returned by FindBuffer and Prepare for a geometry that
	// has already been released.
	ErrReleasedGeometry = errors.New("vbo_manager: geometry has been released")
)

// vboManager is the implementation of the VBOManager interface.
type vboManager struct {
	mu *sync.Mutex

	device device.Device
	config Config

	buckets     []*bufferGroup
	bucketIndex map[bucketKey]int

	dedicated     map[int]*dedicatedBuffer
	nextDedicated int

	bindings map[uint64]*GPUBuffer

	driverAllocations int
	destroyed         bool
}

// VBOManager is a size-bucketed slot allocator over a small number of large GPU
// buffers, plus the per-geometry bindings that pair a vertex slot with an index slot.
//
// Requests are rounded up to a power-of-two size class. Each (size class, format)
// pair has at most one shared buffer group; when its free list runs dry one more
// driver buffer is created and split into equal slots. Slots are recycled and never
// returned to the driver before Destroy. Requests larger than the largest class, or
// flagged dedicated, get a private buffer that is destroyed when the slot is released.
//
// The manager is meant to be driven from the render thread but is internally locked.
type VBOManager interface {
	// AllocateSlot hands out a free slot large enough for requiredBytes.
	//
	// Parameters:
	//   - desc: what the slot will hold
	//   - requiredBytes: the number of bytes the caller needs
	//
	// Returns:
	//   - Slot: the allocated slot
	//   - error: ErrOversized when rejected by configuration, ErrDestroyed after
	//     Destroy, or a wrapped driver error
	AllocateSlot(desc FormatDescriptor, requiredBytes int) (Slot, error)

	// ReleaseSlot returns a slot to its bucket's free list, or destroys its buffer
	// if it is dedicated. Releasing an invalid slot is a no-op.
	//
	// Parameters:
	//   - s: the slot to release
	ReleaseSlot(s Slot)

	// Upload writes data at the start of the slot. Panics if data is larger than
	// the slot; callers must compare against SlotSizeInBytes first.
	//
	// Parameters:
	//   - s: the destination slot
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: ErrNoSlot for an invalid slot, or a wrapped driver error
	Upload(s Slot, data []byte) error

	// SlotSizeInBytes returns the capacity of a slot.
	//
	// Parameters:
	//   - s: the slot
	//
	// Returns:
	//   - int: the slot capacity in bytes, 0 for an invalid slot
	SlotSizeInBytes(s Slot) int

	// SlotOffset returns the byte offset of a slot within its driver buffer.
	//
	// Parameters:
	//   - s: the slot
	//
	// Returns:
	//   - uint64: the byte offset
	SlotOffset(s Slot) uint64

	// ReadBack reads the first n bytes of a slot. Requires a device implementing
	// device.Reader.
	//
	// Parameters:
	//   - s: the slot
	//   - n: the number of bytes to read
	//
	// Returns:
	//   - []byte: a copy of the bytes
	//   - error: ErrNoReader, ErrNoSlot, or a device error
	ReadBack(s Slot, n int) ([]byte, error)

	// FindBuffer fetches or creates the binding for a geometry. Any side whose data
	// has outgrown its slot, or whose format changed, is released and reallocated
	// and the binding is flagged for upload.
	//
	// Parameters:
	//   - g: the geometry
	//
	// Returns:
	//   - *GPUBuffer: the binding
	//   - error: allocation failure
	FindBuffer(g *geometry.Geometry) (*GPUBuffer, error)

	// ReleaseBuffer releases the binding for a geometry id and both of its slots.
	// Unknown ids are ignored.
	//
	// Parameters:
	//   - id: the geometry id
	ReleaseBuffer(id uint64)

	// Prepare finds the binding for the drawable's geometry, uploads its data when
	// the binding is new, reallocated, or the geometry is dirty, and binds it.
	//
	// Parameters:
	//   - r: the drawable
	//   - b: the binder for the current draw
	//   - now: timestamp recorded on upload
	//
	// Returns:
	//   - *GPUBuffer: the binding, nil if the drawable has no geometry
	//   - error: allocation or upload failure
	Prepare(r *renderable.Renderable, b device.Binder, now time.Time) (*GPUBuffer, error)

	// Stats returns a snapshot of pool usage.
	//
	// Returns:
	//   - Stats: the snapshot
	Stats() Stats

	// Config returns the configuration the pool was built with.
	//
	// Returns:
	//   - Config: the configuration
	Config() Config

	// Destroy releases every driver buffer. The manager cannot allocate afterwards.
	Destroy()
}

var (
	_ VBOManager        = &vboManager{}
	_ geometry.Releaser = &vboManager{}
)

// NewVBOManager creates a pool that allocates through dev. Panics if dev is nil or
// the resulting configuration is invalid.
//
// Parameters:
//   - dev: the device buffers are created on
//   - options: variadic list of VBOManagerBuilderOption functions
//
// Returns:
//   - VBOManager: the pool
func NewVBOManager(dev device.Device, options ...VBOManagerBuilderOption) VBOManager {
	if dev == nil {
		panic("vbo_manager: NewVBOManager requires a non-nil Device")
	}
	m := &vboManager{
		mu:          &sync.Mutex{},
		device:      dev,
		config:      DefaultConfig(),
		bucketIndex: make(map[bucketKey]int),
		dedicated:   make(map[int]*dedicatedBuffer),
		bindings:    make(map[uint64]*GPUBuffer),
	}
	for _, opt := range options {
		opt(m)
	}
	m.config = m.config.withDefaults()
	if err := m.config.Validate(); err != nil {
		panic(err.Error())
	}
	return m
}

func (m *vboManager) AllocateSlot(desc FormatDescriptor, requiredBytes int) (Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocateSlot(desc, requiredBytes)
}

func (m *vboManager) ReleaseSlot(s Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseSlot(s)
}

func (m *vboManager) Upload(s Slot, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upload(s, data)
}

func (m *vboManager) SlotSizeInBytes(s Slot) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slotSize(s)
}

func (m *vboManager) SlotOffset(s Slot) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slotOffset(s)
}

func (m *vboManager) ReadBack(s Slot, n int) ([]byte, error) {
	reader, ok := m.device.(device.Reader)
	if !ok {
		return nil, ErrNoReader
	}
	if !s.Valid() {
		return nil, ErrNoSlot
	}
	m.mu.Lock()
	offset := m.slotOffset(s)
	size := m.slotSize(s)
	m.mu.Unlock()
	if n > size {
		return nil, fmt.Errorf("vbo_manager: read of %d bytes exceeds slot size %d: %w", n, size, device.ErrOutOfRange)
	}
	return reader.ReadBuffer(s.Buffer, offset, uint64(n))
}

func (m *vboManager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Stats{
		DriverAllocations: m.driverAllocations,
		DedicatedBuffers:  len(m.dedicated),
		Bindings:          len(m.bindings),
	}
	for i, g := range m.buckets {
		st.Buckets = append(st.Buckets, BucketStats{
			Bucket:    i,
			Format:    g.desc.String(),
			SlotSize:  g.slotSize,
			Buffers:   len(g.buffers),
			Slots:     len(g.buffers) * g.slotsPerBuffer,
			Free:      len(g.free),
			Allocated: len(g.allocated),
		})
	}
	for _, d := range m.dedicated {
		st.DedicatedBytes += d.size
	}
	return st
}

func (m *vboManager) Config() Config {
	return m.config
}

func (m *vboManager) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return
	}
	for _, g := range m.buckets {
		g.destroy(m.device)
	}
	ids := make([]int, 0, len(m.dedicated))
	for id := range m.dedicated {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		m.device.DestroyBuffer(m.dedicated[id].buffer)
	}
	m.dedicated = make(map[int]*dedicatedBuffer)
	m.bindings = make(map[uint64]*GPUBuffer)
	m.destroyed = true
	m.logf("destroyed pool after %d driver allocations", m.driverAllocations)
}

// allocateSlot must be called with mu held.
func (m *vboManager) allocateSlot(desc FormatDescriptor, requiredBytes int) (Slot, error) {
	if m.destroyed {
		return Slot{}, ErrDestroyed
	}
	if requiredBytes < 0 {
		panic(fmt.Sprintf("vbo_manager: negative slot request %d", requiredBytes))
	}

	class, ok := m.sizeClassFor(requiredBytes)
	if desc.Dedicated || !ok {
		if !ok && !desc.Dedicated && m.config.RejectOversized {
			return Slot{}, fmt.Errorf("%w: %d bytes > %d", ErrOversized, requiredBytes, m.config.LargestClass())
		}
		return m.allocateDedicated(desc, requiredBytes)
	}

	key := newBucketKey(class, desc)
	idx, ok := m.bucketIndex[key]
	if !ok {
		idx = len(m.buckets)
		m.buckets = append(m.buckets, newBufferGroup(key, desc, m.config.UnderlyingBufferSize))
		m.bucketIndex[key] = idx
	}
	g := m.buckets[idx]
	if len(g.free) == 0 {
		if err := g.grow(m.device, m.config.Label); err != nil {
			return Slot{}, err
		}
		m.driverAllocations++
		m.logf("bucket %s/%d grew to %d buffers (%d slots)", desc, class, len(g.buffers), len(g.buffers)*g.slotsPerBuffer)
	}
	id := g.pop()
	return Slot{Bucket: idx, ID: id, Buffer: g.bufferFor(id)}, nil
}

// allocateDedicated must be called with mu held.
func (m *vboManager) allocateDedicated(desc FormatDescriptor, requiredBytes int) (Slot, error) {
	size := common.AlignUp(max(requiredBytes, 4), 4)
	id := m.nextDedicated
	label := fmt.Sprintf("%s/%s/dedicated#%d", m.config.Label, desc, id)
	buf, err := m.device.CreateBuffer(label, uint64(size), desc.usage())
	if err != nil {
		return Slot{}, fmt.Errorf("failed to allocate dedicated buffer of %d bytes: %w", size, err)
	}
	m.nextDedicated++
	m.driverAllocations++
	m.dedicated[id] = &dedicatedBuffer{desc: desc, buffer: buf, size: size}
	m.logf("dedicated buffer %d for %s (%d bytes)", id, desc, size)
	return Slot{Bucket: DedicatedBucket, ID: id, Buffer: buf}, nil
}

// releaseSlot must be called with mu held.
func (m *vboManager) releaseSlot(s Slot) {
	if !s.Valid() || m.destroyed {
		return
	}
	if s.Dedicated() {
		d, ok := m.dedicated[s.ID]
		if !ok {
			panic(fmt.Sprintf("vbo_manager: unknown dedicated slot %d", s.ID))
		}
		m.device.DestroyBuffer(d.buffer)
		delete(m.dedicated, s.ID)
		return
	}
	m.group(s).push(s.ID)
}

// upload must be called with mu held.
func (m *vboManager) upload(s Slot, data []byte) error {
	if !s.Valid() {
		return ErrNoSlot
	}
	size := m.slotSize(s)
	if len(data) > size {
		panic(fmt.Sprintf("vbo_manager: upload of %d bytes into %s of %d bytes", len(data), s, size))
	}
	// Buffer writes must be a multiple of 4 bytes.
	if pad := common.AlignUp(len(data), 4); pad != len(data) {
		padded := make([]byte, pad)
		copy(padded, data)
		data = padded
	}
	if err := m.device.WriteBuffer(s.Buffer, m.slotOffset(s), data); err != nil {
		return fmt.Errorf("failed to upload %s: %w", s, err)
	}
	return nil
}

// slotSize must be called with mu held.
func (m *vboManager) slotSize(s Slot) int {
	if !s.Valid() {
		return 0
	}
	if s.Dedicated() {
		if d, ok := m.dedicated[s.ID]; ok {
			return d.size
		}
		panic(fmt.Sprintf("vbo_manager: unknown dedicated slot %d", s.ID))
	}
	return m.group(s).slotSize
}

// slotOffset must be called with mu held.
func (m *vboManager) slotOffset(s Slot) uint64 {
	if !s.Valid() || s.Dedicated() {
		return 0
	}
	return m.group(s).offsetOf(s.ID)
}

// group must be called with mu held.
func (m *vboManager) group(s Slot) *bufferGroup {
	if s.Bucket < 0 || s.Bucket >= len(m.buckets) {
		panic(fmt.Sprintf("vbo_manager: unregistered bucket %d", s.Bucket))
	}
	return m.buckets[s.Bucket]
}

// sizeClassFor returns the smallest configured class that holds n bytes, or false
// when n exceeds the largest class.
func (m *vboManager) sizeClassFor(n int) (int, bool) {
	want := common.NextPowerOfTwo(n)
	for _, class := range m.config.SizeClasses {
		if class >= want {
			return class, true
		}
	}
	return 0, false
}

func (m *vboManager) logf(format string, args ...any) {
	if !m.config.Verbose {
		return
	}
	log.Printf("[VBOManager] "+format, args...)
}
