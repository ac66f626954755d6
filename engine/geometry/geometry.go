package geometry

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-render/common"
)

// IDSource hands out stable geometry identities. Each renderer context owns one;
// there is no package-level counter.
type IDSource struct {
	next atomic.Uint64
}

// Next returns a new identity. Identities start at 1 so the zero value never
// names a geometry.
func (s *IDSource) Next() uint64 {
	return s.next.Add(1)
}

// Releaser is implemented by whatever holds GPU resources bound to a geometry.
// The GPU buffer pool implements it so a geometry can hand back its slots before
// it is discarded.
type Releaser interface {
	ReleaseBuffer(id uint64)
}

// VertexData is CPU-side interleaved vertex bytes in a given format.
type VertexData struct {
	Format VertexFormat
	Data   []byte
	Count  int
}

// IndexData is CPU-side index bytes of a given width.
type IndexData struct {
	Width IndexWidth
	Data  []byte
	Count int
}

// VertexRange is one contiguous run of vertices drawn without indices.
type VertexRange struct {
	First int
	Count int
}

// Geometry owns the vertex and index data a drawable references. It is owned by
// the asset side of the engine and outlives any single frame; drawables only hold
// a pointer to it.
type Geometry struct {
	mu *sync.Mutex

	id        uint64
	vertices  VertexData
	indices   IndexData
	ranges    []VertexRange
	dedicated bool

	dirty    bool
	version  uint64
	released bool
}

// NewGeometry creates a new Geometry with an identity taken from ids and applies
// the provided options. New geometry starts dirty so its first preparation uploads it.
//
// Parameters:
//   - ids: the identity source for this renderer context
//   - options: variadic list of GeometryBuilderOption functions
//
// Returns:
//   - *Geometry: the new geometry
func NewGeometry(ids *IDSource, options ...GeometryBuilderOption) *Geometry {
	if ids == nil {
		panic("geometry: NewGeometry requires a non-nil IDSource")
	}
	g := &Geometry{
		mu:    &sync.Mutex{},
		id:    ids.Next(),
		dirty: true,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// ID returns the stable identity of the geometry.
func (g *Geometry) ID() uint64 {
	return g.id
}

// Vertices returns the current vertex data.
func (g *Geometry) Vertices() VertexData {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.vertices
}

// Indices returns the current index data.
func (g *Geometry) Indices() IndexData {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.indices
}

// Ranges returns the non-indexed vertex ranges.
func (g *Geometry) Ranges() []VertexRange {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ranges
}

// VertexBytes returns the byte size of the vertex data.
func (g *Geometry) VertexBytes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.vertices.Data)
}

// IndexBytes returns the byte size of the index data.
func (g *Geometry) IndexBytes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.indices.Data)
}

// Dedicated reports whether the geometry asks for private GPU buffers instead of
// pooled slots.
func (g *Geometry) Dedicated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dedicated
}

// Dirty reports whether the CPU data changed since the last upload.
func (g *Geometry) Dirty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dirty
}

// Version returns a counter bumped on every data change.
func (g *Geometry) Version() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.version
}

// Released reports whether Release has been called.
func (g *Geometry) Released() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.released
}

// MarkDirty flags the geometry for re-upload.
func (g *Geometry) MarkDirty() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.markDirty()
}

// ClearDirty marks the current data as uploaded.
func (g *Geometry) ClearDirty() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dirty = false
}

// SetVertices replaces the vertex data and marks the geometry dirty.
//
// Parameters:
//   - v: the new vertex data
func (g *Geometry) SetVertices(v VertexData) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vertices = v
	g.markDirty()
}

// SetIndices replaces the index data and marks the geometry dirty.
//
// Parameters:
//   - i: the new index data
func (g *Geometry) SetIndices(i IndexData) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.indices = i
	g.markDirty()
}

// SetRanges replaces the non-indexed vertex ranges.
//
// Parameters:
//   - ranges: the new ranges
func (g *Geometry) SetRanges(ranges []VertexRange) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ranges = ranges
}

// Release hands the geometry's GPU binding back to r. It must be called before the
// geometry is dropped; calling it more than once is a no-op.
//
// Parameters:
//   - r: the holder of the geometry's GPU resources (nil skips the hand-back)
func (g *Geometry) Release(r Releaser) {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		return
	}
	g.released = true
	g.mu.Unlock()

	if r != nil {
		r.ReleaseBuffer(g.id)
	}
}

// markDirty must be called with mu held.
func (g *Geometry) markDirty() {
	g.dirty = true
	g.version++
}

// NewVertexData interleaved from float32 components. The data is copied.
//
// Parameters:
//   - format: the vertex format the components are laid out in
//   - components: interleaved float32 vertex components
//
// Returns:
//   - VertexData: the vertex data with Count derived from the format stride
func NewVertexData(format VertexFormat, components []float32) VertexData {
	data := append([]byte(nil), common.SliceToBytes(components)...)
	count := 0
	if stride := format.Stride(); stride > 0 {
		count = len(data) / stride
	}
	return VertexData{Format: format, Data: data, Count: count}
}

// NewIndexData16 builds 16-bit index data. The data is copied.
//
// Parameters:
//   - indices: the index values
//
// Returns:
//   - IndexData: the index data
func NewIndexData16(indices []uint16) IndexData {
	return IndexData{
		Width: IndexWidthUint16,
		Data:  append([]byte(nil), common.SliceToBytes(indices)...),
		Count: len(indices),
	}
}

// NewIndexData32 builds 32-bit index data. The data is copied.
//
// Parameters:
//   - indices: the index values
//
// Returns:
//   - IndexData: the index data
func NewIndexData32(indices []uint32) IndexData {
	return IndexData{
		Width: IndexWidthUint32,
		Data:  append([]byte(nil), common.SliceToBytes(indices)...),
		Count: len(indices),
	}
}

// FanIndices expands triangle-fan vertex ranges into 32-bit triangle-list indices.
// Fans are drawn through these indices on APIs with no fan topology.
//
// Parameters:
//   - ranges: the fans, each hubbed at its first vertex
//
// Returns:
//   - IndexData: the triangle-list indices
func FanIndices(ranges ...VertexRange) IndexData {
	var indices []uint32
	for _, r := range ranges {
		indices = append(indices, common.FanToList(uint32(r.First), uint32(r.Count))...)
	}
	return NewIndexData32(indices)
}
