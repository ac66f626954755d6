package vbo_manager

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
	"github.com/Carmen-Shannon/oxy-render/engine/renderable"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/device"
)

// GPUBuffer pairs the vertex slot and index slot backing one geometry. It is keyed
// by the geometry id and revalidated every time the geometry is prepared.
type GPUBuffer struct {
	manager *vboManager
	id      uint64

	vertex       Slot
	vertexFormat geometry.VertexFormat
	vertexBytes  int

	index       Slot
	indexWidth  geometry.IndexWidth
	indexBytes  int
	needsUpload bool
	lastUpdated time.Time
}

// ID returns the geometry id the binding belongs to.
func (b *GPUBuffer) ID() uint64 {
	return b.id
}

// VertexSlot returns the slot holding vertex data.
func (b *GPUBuffer) VertexSlot() Slot {
	return b.vertex
}

// IndexSlot returns the slot holding index data. It is invalid for non-indexed geometry.
func (b *GPUBuffer) IndexSlot() Slot {
	return b.index
}

// NeedsUpload reports whether a slot was (re)allocated since the last upload.
func (b *GPUBuffer) NeedsUpload() bool {
	return b.needsUpload
}

// LastUpdated returns the timestamp of the last successful upload.
func (b *GPUBuffer) LastUpdated() time.Time {
	return b.lastUpdated
}

// SyncDataFromRenderable uploads the drawable's vertex and index data into the
// binding's slots, stamps the upload time, and clears the geometry's dirty flag.
//
// Parameters:
//   - r: the drawable whose geometry the binding belongs to
//   - now: the timestamp to record
//
// Returns:
//   - error: a wrapped upload failure
func (b *GPUBuffer) SyncDataFromRenderable(r *renderable.Renderable, now time.Time) error {
	g := r.Geometry
	if g == nil {
		return nil
	}
	if g.ID() != b.id {
		panic(fmt.Sprintf("vbo_manager: binding %d synced from geometry %d", b.id, g.ID()))
	}

	vertices := g.Vertices()
	indices := g.Indices()

	b.manager.mu.Lock()
	defer b.manager.mu.Unlock()

	if len(vertices.Data) > 0 {
		if err := b.manager.upload(b.vertex, vertices.Data); err != nil {
			return fmt.Errorf("failed to sync vertices of geometry %d: %w", b.id, err)
		}
	}
	if len(indices.Data) > 0 {
		if err := b.manager.upload(b.index, indices.Data); err != nil {
			return fmt.Errorf("failed to sync indices of geometry %d: %w", b.id, err)
		}
	}
	b.vertexBytes = len(vertices.Data)
	b.indexBytes = len(indices.Data)
	b.needsUpload = false
	b.lastUpdated = now
	g.ClearDirty()
	return nil
}

// BindVBOs binds the vertex slot to vertex input 0 and the index slot, if any.
//
// Parameters:
//   - binder: the binder for the current draw
func (b *GPUBuffer) BindVBOs(binder device.Binder) {
	b.manager.mu.Lock()
	defer b.manager.mu.Unlock()

	if b.vertex.Valid() && b.vertexBytes > 0 {
		binder.SetVertexBuffer(0, b.vertex.Buffer, b.manager.slotOffset(b.vertex), uint64(common.AlignUp(b.vertexBytes, 4)))
	}
	if b.index.Valid() && b.indexBytes > 0 {
		binder.SetIndexBuffer(b.index.Buffer, b.indexWidth, b.manager.slotOffset(b.index), uint64(common.AlignUp(b.indexBytes, 4)))
	}
}

func (m *vboManager) FindBuffer(g *geometry.Geometry) (*GPUBuffer, error) {
	if g == nil {
		panic("vbo_manager: FindBuffer requires a non-nil Geometry")
	}
	if g.Released() {
		return nil, fmt.Errorf("geometry %d: %w", g.ID(), ErrReleasedGeometry)
	}
	vertices := g.Vertices()
	indices := g.Indices()
	dedicated := g.Dedicated()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return nil, ErrDestroyed
	}

	b, ok := m.bindings[g.ID()]
	if !ok {
		b = &GPUBuffer{manager: m, id: g.ID(), needsUpload: true}
		m.bindings[g.ID()] = b
	}

	vdesc := VertexDescriptor(vertices.Format)
	vdesc.Dedicated = dedicated
	vfits := b.vertexFormat == vertices.Format
	if err := m.ensureSlot(&b.vertex, vdesc, len(vertices.Data), vfits && b.vertex.Dedicated() == dedicated, b); err != nil {
		return nil, fmt.Errorf("failed to bind vertices of geometry %d: %w", g.ID(), err)
	}
	b.vertexFormat = vertices.Format

	idesc := IndexDescriptor(indices.Width)
	idesc.Dedicated = dedicated
	ifits := b.indexWidth == indices.Width
	if err := m.ensureSlot(&b.index, idesc, len(indices.Data), ifits && b.index.Dedicated() == dedicated, b); err != nil {
		return nil, fmt.Errorf("failed to bind indices of geometry %d: %w", g.ID(), err)
	}
	b.indexWidth = indices.Width
	return b, nil
}

// ensureSlot keeps *slot if it still holds required bytes of a compatible format,
// otherwise releases it and allocates a replacement. Must be called with mu held.
func (m *vboManager) ensureSlot(slot *Slot, desc FormatDescriptor, required int, compatible bool, b *GPUBuffer) error {
	if required == 0 {
		if slot.Valid() {
			m.releaseSlot(*slot)
			*slot = Slot{}
		}
		return nil
	}
	if slot.Valid() && compatible && required <= m.slotSize(*slot) {
		return nil
	}
	if slot.Valid() {
		m.releaseSlot(*slot)
		*slot = Slot{}
	}
	s, err := m.allocateSlot(desc, required)
	if err != nil {
		return err
	}
	*slot = s
	b.needsUpload = true
	return nil
}

func (m *vboManager) ReleaseBuffer(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bindings[id]
	if !ok {
		return
	}
	m.releaseSlot(b.vertex)
	m.releaseSlot(b.index)
	b.vertex = Slot{}
	b.index = Slot{}
	delete(m.bindings, id)
}

func (m *vboManager) Prepare(r *renderable.Renderable, binder device.Binder, now time.Time) (*GPUBuffer, error) {
	if r.Geometry == nil {
		return nil, nil
	}
	b, err := m.FindBuffer(r.Geometry)
	if err != nil {
		return nil, err
	}
	if b.NeedsUpload() || r.Geometry.Dirty() {
		if err := b.SyncDataFromRenderable(r, now); err != nil {
			return nil, err
		}
	}
	if binder != nil {
		b.BindVBOs(binder)
	}
	return b, nil
}
