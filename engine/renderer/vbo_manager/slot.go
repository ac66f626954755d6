package vbo_manager

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/device"
)

// BufferKind separates vertex buckets from index buckets.
type BufferKind int

const (
	// BufferKindVertex holds interleaved vertex data.
	BufferKindVertex BufferKind = iota
	// BufferKindIndex holds index data.
	BufferKindIndex
)

func (k BufferKind) String() string {
	if k == BufferKindIndex {
		return "index"
	}
	return "vertex"
}

// FormatDescriptor names what a slot will hold. Slots are only shared between
// requests with equal descriptors.
type FormatDescriptor struct {
	Kind   BufferKind
	Vertex geometry.VertexFormat
	Index  geometry.IndexWidth

	// Dedicated requests a private buffer regardless of size.
	Dedicated bool
}

// VertexDescriptor describes a vertex slot of the given format.
func VertexDescriptor(format geometry.VertexFormat) FormatDescriptor {
	return FormatDescriptor{Kind: BufferKindVertex, Vertex: format}
}

// IndexDescriptor describes an index slot of the given width.
func IndexDescriptor(width geometry.IndexWidth) FormatDescriptor {
	return FormatDescriptor{Kind: BufferKindIndex, Index: width}
}

func (d FormatDescriptor) String() string {
	if d.Kind == BufferKindIndex {
		return "index/" + d.Index.String()
	}
	return "vertex/" + d.Vertex.String()
}

func (d FormatDescriptor) usage() device.Usage {
	if d.Kind == BufferKindIndex {
		return device.UsageIndex | device.UsageCopyDst
	}
	return device.UsageVertex | device.UsageCopyDst
}

// bucketKey identifies one shared buffer group. The dedicated flag is not part of it.
type bucketKey struct {
	class  int
	kind   BufferKind
	vertex geometry.VertexFormat
	index  geometry.IndexWidth
}

func newBucketKey(class int, d FormatDescriptor) bucketKey {
	k := bucketKey{class: class, kind: d.Kind}
	if d.Kind == BufferKindIndex {
		k.index = d.Index
	} else {
		k.vertex = d.Vertex
	}
	return k
}

// DedicatedBucket is the Bucket value of slots backed by a dedicated buffer.
const DedicatedBucket = -1

// Slot is a fixed-size region of GPU memory handed out by the pool. A slot is
// identified by its bucket and its id within that bucket; Buffer is the driver
// buffer the region lives in.
type Slot struct {
	Bucket int
	ID     int
	Buffer device.Buffer
}

// Valid reports whether the slot refers to allocated memory.
func (s Slot) Valid() bool {
	return s.Buffer != nil
}

// Dedicated reports whether the slot owns a whole private buffer.
func (s Slot) Dedicated() bool {
	return s.Bucket == DedicatedBucket
}

func (s Slot) String() string {
	if !s.Valid() {
		return "slot(none)"
	}
	if s.Dedicated() {
		return fmt.Sprintf("slot(dedicated:%d)", s.ID)
	}
	return fmt.Sprintf("slot(%d:%d)", s.Bucket, s.ID)
}
