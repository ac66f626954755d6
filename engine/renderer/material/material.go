package material

// material is the implementation of the Material interface.
type material struct {
	name      string
	baseColor [4]float32
	passes    []Pass
}

// Material defines the interface for a render material: surface parameters plus
// the ordered list of passes a drawable using it is rendered with.
//
// A drawable with an N-pass material produces N render queue entries, one per pass.
// A material with no passes is valid and produces no entries.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the albedo/diffuse RGBA color of the material.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// Passes retrieves the material passes in index order.
	//
	// Returns:
	//   - []Pass: the passes
	Passes() []Pass

	// PassCount retrieves the number of passes.
	//
	// Returns:
	//   - int: the pass count
	PassCount() int
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor: [4]float32{1, 1, 1, 1},
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) Passes() []Pass {
	return m.passes
}

func (m *material) PassCount() int {
	return len(m.passes)
}
