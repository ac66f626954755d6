package geometry

// GeometryBuilderOption is a function that configures a Geometry during construction.
type GeometryBuilderOption func(*Geometry)

// WithVertices sets the initial vertex data.
//
// Parameters:
//   - v: the vertex data
//
// Returns:
//   - GeometryBuilderOption: a function that applies the vertex data to a Geometry
func WithVertices(v VertexData) GeometryBuilderOption {
	return func(g *Geometry) {
		g.vertices = v
	}
}

// WithIndices sets the initial index data.
//
// Parameters:
//   - i: the index data
//
// Returns:
//   - GeometryBuilderOption: a function that applies the index data to a Geometry
func WithIndices(i IndexData) GeometryBuilderOption {
	return func(g *Geometry) {
		g.indices = i
	}
}

// WithRanges sets the non-indexed vertex ranges.
//
// Parameters:
//   - ranges: the vertex ranges
//
// Returns:
//   - GeometryBuilderOption: a function that applies the ranges to a Geometry
func WithRanges(ranges ...VertexRange) GeometryBuilderOption {
	return func(g *Geometry) {
		g.ranges = ranges
	}
}

// WithDedicated asks for private GPU buffers instead of pooled slots. Use it for
// geometry that is resized often or is too large to share a pooled buffer.
//
// Parameters:
//   - dedicated: true to request private buffers
//
// Returns:
//   - GeometryBuilderOption: a function that applies the hint to a Geometry
func WithDedicated(dedicated bool) GeometryBuilderOption {
	return func(g *Geometry) {
		g.dedicated = dedicated
	}
}
