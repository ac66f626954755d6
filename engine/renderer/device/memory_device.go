package device

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
)

type memoryBuffer struct {
	owner     *MemoryDevice
	label     string
	usage     Usage
	data      []byte
	destroyed bool
}

func (b *memoryBuffer) Size() uint64 {
	return uint64(len(b.data))
}

func (b *memoryBuffer) Label() string {
	return b.label
}

// MemoryDevice is a Device and Reader that keeps buffers in host memory. It counts
// driver-level allocations so pool growth can be observed without a GPU.
type MemoryDevice struct {
	mu *sync.Mutex

	allocations int
	live        int
	bytesLive   uint64
	writes      int
}

var (
	_ Device = &MemoryDevice{}
	_ Reader = &MemoryDevice{}
)

// NewMemoryDevice creates an empty host-memory device.
//
// Returns:
//   - *MemoryDevice: the device
func NewMemoryDevice() *MemoryDevice {
	return &MemoryDevice{mu: &sync.Mutex{}}
}

func (d *MemoryDevice) CreateBuffer(label string, size uint64, usage Usage) (Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allocations++
	d.live++
	d.bytesLive += size
	return &memoryBuffer{owner: d, label: label, usage: usage, data: make([]byte, size)}, nil
}

func (d *MemoryDevice) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	b, err := d.own(buf)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if b.destroyed {
		return ErrBufferDestroyed
	}
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return ErrOutOfRange
	}
	copy(b.data[offset:], data)
	d.writes++
	return nil
}

func (d *MemoryDevice) DestroyBuffer(buf Buffer) {
	b, err := d.own(buf)
	if err != nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if b.destroyed {
		return
	}
	b.destroyed = true
	d.live--
	d.bytesLive -= uint64(len(b.data))
}

func (d *MemoryDevice) ReadBuffer(buf Buffer, offset, size uint64) ([]byte, error) {
	b, err := d.own(buf)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if b.destroyed {
		return nil, ErrBufferDestroyed
	}
	if offset+size > uint64(len(b.data)) {
		return nil, ErrOutOfRange
	}
	return append([]byte(nil), b.data[offset:offset+size]...), nil
}

// Allocations returns how many buffers have ever been created.
func (d *MemoryDevice) Allocations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allocations
}

// Live returns how many buffers exist and have not been destroyed.
func (d *MemoryDevice) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

// BytesLive returns the total size of live buffers.
func (d *MemoryDevice) BytesLive() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bytesLive
}

// Writes returns how many successful writes have been made.
func (d *MemoryDevice) Writes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

func (d *MemoryDevice) own(buf Buffer) (*memoryBuffer, error) {
	b, ok := buf.(*memoryBuffer)
	if !ok || b.owner != d {
		return nil, ErrForeignBuffer
	}
	return b, nil
}

// BindCall is one recorded bind.
type BindCall struct {
	Index  bool
	Slot   uint32
	Buffer Buffer
	Width  geometry.IndexWidth
	Offset uint64
	Size   uint64
}

// RecordingBinder is a Binder that records every bind it receives.
type RecordingBinder struct {
	Calls []BindCall
}

var _ Binder = &RecordingBinder{}

func (r *RecordingBinder) SetVertexBuffer(slot uint32, buf Buffer, offset, size uint64) {
	r.Calls = append(r.Calls, BindCall{Slot: slot, Buffer: buf, Offset: offset, Size: size})
}

func (r *RecordingBinder) SetIndexBuffer(buf Buffer, width geometry.IndexWidth, offset, size uint64) {
	r.Calls = append(r.Calls, BindCall{Index: true, Buffer: buf, Width: width, Offset: offset, Size: size})
}

// Reset forgets all recorded calls.
func (r *RecordingBinder) Reset() {
	r.Calls = r.Calls[:0]
}
