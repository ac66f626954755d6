// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// Arrangement describes how a drawable's vertices are assembled into primitives.
type Arrangement int

const (
	// ArrangementTriangleList draws every three vertices as an independent triangle.
	ArrangementTriangleList Arrangement = iota
	// ArrangementTriangleStrip draws a connected strip where each vertex after the second forms a triangle.
	ArrangementTriangleStrip
	// ArrangementTriangleFan draws triangles that all share the first vertex.
	ArrangementTriangleFan
	// ArrangementLineList draws every two vertices as an independent line segment.
	ArrangementLineList
	// ArrangementLineStrip draws a connected polyline.
	ArrangementLineStrip
	// ArrangementPointList draws each vertex as a point.
	ArrangementPointList
)

// String returns the name of the arrangement.
func (a Arrangement) String() string {
	switch a {
	case ArrangementTriangleList:
		return "TriangleList"
	case ArrangementTriangleStrip:
		return "TriangleStrip"
	case ArrangementTriangleFan:
		return "TriangleFan"
	case ArrangementLineList:
		return "LineList"
	case ArrangementLineStrip:
		return "LineStrip"
	case ArrangementPointList:
		return "PointList"
	default:
		return "Unknown"
	}
}

// FanToList expands triangle-fan vertex indices into an equivalent triangle list.
// Backends without native fan support draw fans through this index order.
//
// Parameters:
//   - first: index of the fan's hub vertex
//   - count: number of vertices in the fan
//
// Returns:
//   - []uint32: triangle-list indices, three per triangle (empty when count < 3)
func FanToList(first, count uint32) []uint32 {
	if count < 3 {
		return nil
	}
	out := make([]uint32, 0, (count-2)*3)
	for i := uint32(1); i+1 < count; i++ {
		out = append(out, first, first+i, first+i+1)
	}
	return out
}
