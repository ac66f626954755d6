package device

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
)

type wgpuBuffer struct {
	buf   *wgpu.Buffer
	size  uint64
	label string
}

func (b *wgpuBuffer) Size() uint64 {
	return b.size
}

func (b *wgpuBuffer) Label() string {
	return b.label
}

// wgpuDevice is the implementation of Device backed by a wgpu device and queue.
type wgpuDevice struct {
	device *wgpu.Device
	queue  *wgpu.Queue
}

var _ Device = &wgpuDevice{}

// NewWGPUDevice wraps a wgpu device and its queue.
//
// Parameters:
//   - d: the wgpu device
//   - q: the device queue used for buffer writes
//
// Returns:
//   - Device: the device
func NewWGPUDevice(d *wgpu.Device, q *wgpu.Queue) Device {
	if d == nil || q == nil {
		panic("device: NewWGPUDevice requires a non-nil device and queue")
	}
	return &wgpuDevice{device: d, queue: q}
}

func (d *wgpuDevice) CreateBuffer(label string, size uint64, usage Usage) (Buffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: toWGPUUsage(usage),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %s: %w", label, err)
	}
	return &wgpuBuffer{buf: buf, size: size, label: label}, nil
}

func (d *wgpuDevice) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	b, ok := buf.(*wgpuBuffer)
	if !ok {
		return ErrForeignBuffer
	}
	if b.buf == nil {
		return ErrBufferDestroyed
	}
	if offset+uint64(len(data)) > b.size {
		return ErrOutOfRange
	}
	if err := d.queue.WriteBuffer(b.buf, offset, data); err != nil {
		return fmt.Errorf("failed to write buffer %s: %w", b.label, err)
	}
	return nil
}

func (d *wgpuDevice) DestroyBuffer(buf Buffer) {
	b, ok := buf.(*wgpuBuffer)
	if !ok || b.buf == nil {
		return
	}
	b.buf.Release()
	b.buf = nil
}

// RawBuffer returns the wgpu buffer behind a Buffer created by a wgpu device, or nil.
//
// Parameters:
//   - buf: a buffer created by NewWGPUDevice
//
// Returns:
//   - *wgpu.Buffer: the native buffer
func RawBuffer(buf Buffer) *wgpu.Buffer {
	if b, ok := buf.(*wgpuBuffer); ok {
		return b.buf
	}
	return nil
}

// wgpuBinder is the implementation of Binder that records binds into a render pass.
type wgpuBinder struct {
	pass *wgpu.RenderPassEncoder
}

var _ Binder = &wgpuBinder{}

// NewWGPUBinder binds into an open render pass.
//
// Parameters:
//   - pass: the render pass encoder
//
// Returns:
//   - Binder: the binder
func NewWGPUBinder(pass *wgpu.RenderPassEncoder) Binder {
	return &wgpuBinder{pass: pass}
}

func (b *wgpuBinder) SetVertexBuffer(slot uint32, buf Buffer, offset, size uint64) {
	raw := RawBuffer(buf)
	if raw == nil {
		return
	}
	b.pass.SetVertexBuffer(slot, raw, offset, size)
}

func (b *wgpuBinder) SetIndexBuffer(buf Buffer, width geometry.IndexWidth, offset, size uint64) {
	raw := RawBuffer(buf)
	if raw == nil {
		return
	}
	format := wgpu.IndexFormatUint32
	if width == geometry.IndexWidthUint16 {
		format = wgpu.IndexFormatUint16
	}
	b.pass.SetIndexBuffer(raw, format, offset, size)
}

func toWGPUUsage(u Usage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u&UsageVertex != 0 {
		out |= wgpu.BufferUsageVertex
	}
	if u&UsageIndex != 0 {
		out |= wgpu.BufferUsageIndex
	}
	if u&UsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if u&UsageCopyDst != 0 {
		out |= wgpu.BufferUsageCopyDst
	}
	return out
}
