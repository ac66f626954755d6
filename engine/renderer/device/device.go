// Package device abstracts the small slice of the GPU API the submission core
// needs: creating, writing and destroying buffers, and binding buffer ranges
// for a draw. A wgpu implementation backs real rendering and a host-memory
// implementation backs headless runs and tests.
package device

import (
	"errors"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
)

// Usage is a bit set describing how a buffer will be used.
type Usage uint32

const (
	// UsageVertex marks a buffer bindable as a vertex buffer.
	UsageVertex Usage = 1 << iota
	// UsageIndex marks a buffer bindable as an index buffer.
	UsageIndex
	// UsageUniform marks a buffer bindable as a uniform buffer.
	UsageUniform
	// UsageCopyDst marks a buffer writable from the host.
	UsageCopyDst
)

func (u Usage) String() string {
	var parts []string
	if u&UsageVertex != 0 {
		parts = append(parts, "vertex")
	}
	if u&UsageIndex != 0 {
		parts = append(parts, "index")
	}
	if u&UsageUniform != 0 {
		parts = append(parts, "uniform")
	}
	if u&UsageCopyDst != 0 {
		parts = append(parts, "copy-dst")
	}
	return strings.Join(parts, "|")
}

var (
	// ErrBufferDestroyed is returned when writing to or reading from a destroyed buffer.
	ErrBufferDestroyed = errors.New("device: buffer destroyed")
	// ErrOutOfRange is returned when a write or read falls outside the buffer.
	ErrOutOfRange = errors.New("device: range out of bounds")
	// ErrForeignBuffer is returned when a buffer created by a different device is passed in.
	ErrForeignBuffer = errors.New("device: buffer belongs to a different device")
)

// Buffer is an opaque handle to device memory.
type Buffer interface {
	// Size returns the buffer size in bytes.
	Size() uint64

	// Label returns the debug label the buffer was created with.
	Label() string
}

// Device creates and writes GPU buffers.
type Device interface {
	// CreateBuffer allocates a buffer from the driver.
	//
	// Parameters:
	//   - label: debug label
	//   - size: size in bytes
	//   - usage: intended usage
	//
	// Returns:
	//   - Buffer: the new buffer
	//   - error: driver failure
	CreateBuffer(label string, size uint64, usage Usage) (Buffer, error)

	// WriteBuffer copies data into buf at offset.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - offset: byte offset in buf
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: driver failure or an out-of-range write
	WriteBuffer(buf Buffer, offset uint64, data []byte) error

	// DestroyBuffer returns the buffer's memory to the driver.
	//
	// Parameters:
	//   - buf: the buffer to destroy
	DestroyBuffer(buf Buffer)
}

// Reader is implemented by devices that can read buffer contents back to the host.
type Reader interface {
	// ReadBuffer copies size bytes starting at offset out of buf.
	//
	// Parameters:
	//   - buf: the source buffer
	//   - offset: byte offset in buf
	//   - size: number of bytes to read
	//
	// Returns:
	//   - []byte: a copy of the bytes
	//   - error: if the range is invalid or the buffer is destroyed
	ReadBuffer(buf Buffer, offset, size uint64) ([]byte, error)
}

// Binder binds buffer ranges for the next draw.
type Binder interface {
	// SetVertexBuffer binds a vertex buffer range to a vertex input slot.
	//
	// Parameters:
	//   - slot: the vertex input slot
	//   - buf: the buffer
	//   - offset: byte offset of the range
	//   - size: byte size of the range
	SetVertexBuffer(slot uint32, buf Buffer, offset, size uint64)

	// SetIndexBuffer binds an index buffer range.
	//
	// Parameters:
	//   - buf: the buffer
	//   - width: the index width
	//   - offset: byte offset of the range
	//   - size: byte size of the range
	SetIndexBuffer(buf Buffer, width geometry.IndexWidth, offset, size uint64)
}
