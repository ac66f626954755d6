package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string
	// stride is the byte distance between the ranges addressed by consecutive bind groups.
	stride uint64

	// The following fields are GPU allocated resources and must be released when no longer needed.
	// They are populated by the Renderer during initialization, not by user-creation.

	bindGroups      []*wgpu.BindGroup
	bindGroupLayout *wgpu.BindGroupLayout
	// buffers holds the GPU buffers created for this provider, keyed by binding index.
	buffers map[int]*wgpu.Buffer
}

// BindGroupProvider owns the uniform buffers and bind groups for one bind group slot of the
// frame layout. A provider holds either a single bind group over whole buffers, or a ring of
// bind groups that each address one stride-sized range of the same buffer so consecutive
// draws in a frame read distinct uniform data.
//
// Usage pattern:
//  1. The renderer creates a provider with a label and optional stride
//  2. The renderer creates the layout, buffers and bind groups and stores them on the provider
//  3. Per-frame data is queued as BufferWrite values against a binding and offset
//  4. Draw calls set BindGroup(i) on the render pass
type BindGroupProvider interface {
	// Release releases any GPU resources held by this provider.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Stride returns the byte distance between consecutive ring entries, or 0 for a single group.
	//
	// Returns:
	//   - uint64: the ring stride
	Stride() uint64

	// BindGroup returns the bind group at ring index i, or nil if out of range.
	//
	// Parameters:
	//   - i: the ring index (0 for single-group providers)
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup(i int) *wgpu.BindGroup

	// BindGroupCount returns the number of bind groups held.
	BindGroupCount() int

	// BindGroupLayout returns the created bind group layout for this provider.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the bind group layout or nil
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer at a binding index, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// SetBindGroups stores the created bind groups.
	//
	// Parameters:
	//   - groups: the bind groups in ring order
	SetBindGroups(groups []*wgpu.BindGroup)

	// SetBindGroupLayout sets the bind group layout after GPU initialization.
	//
	// Parameters:
	//   - bgl: the created bind group layout
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// SetBuffer sets the buffer for a binding after GPU initialization.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	SetBuffer(binding int, buf *wgpu.Buffer)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:   label,
		buffers: make(map[int]*wgpu.Buffer),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Stride() uint64 {
	return p.stride
}

func (p *bindGroupProvider) BindGroup(i int) *wgpu.BindGroup {
	if i < 0 || i >= len(p.bindGroups) {
		return nil
	}
	return p.bindGroups[i]
}

func (p *bindGroupProvider) BindGroupCount() int {
	return len(p.bindGroups)
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) SetBindGroups(groups []*wgpu.BindGroup) {
	p.bindGroups = groups
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	if p.buffers == nil {
		p.buffers = make(map[int]*wgpu.Buffer)
	}
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) Release() {
	for _, bg := range p.bindGroups {
		if bg != nil {
			bg.Release()
		}
	}
	p.bindGroups = nil

	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}

	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
}
