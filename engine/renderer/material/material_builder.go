package material

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the albedo/diffuse RGBA color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithPass is an option builder that appends a pass to the material. The pass
// index is its position in the order passes are added. A pass defaults to opaque,
// depth-writing, and drawing once.
//
// Parameters:
//   - options: variadic list of PassBuilderOption functions to configure the pass
//
// Returns:
//   - MaterialBuilderOption: a function that appends the pass to a material
func WithPass(options ...PassBuilderOption) MaterialBuilderOption {
	return func(m *material) {
		p := &pass{
			index:          len(m.passes),
			iteration:      IterationOnce,
			iterationCount: 1,
			depthWrite:     true,
		}
		for _, opt := range options {
			opt(p)
		}
		m.passes = append(m.passes, p)
	}
}
