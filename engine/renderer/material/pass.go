package material

// IterationType declares how many times a pass draws each drawable.
type IterationType int

const (
	// IterationOnce draws the drawable a single time with all of its lights applied together.
	IterationOnce IterationType = iota
	// IterationOncePerLight draws the drawable once for every light affecting it,
	// applying one light per draw.
	IterationOncePerLight
	// IterationFixed draws the drawable a fixed number of times.
	IterationFixed
)

func (t IterationType) String() string {
	switch t {
	case IterationOnce:
		return "once"
	case IterationOncePerLight:
		return "once-per-light"
	case IterationFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// BlendMode selects how a pass composites onto the target.
type BlendMode int

const (
	// BlendOpaque writes color and depth with no blending.
	BlendOpaque BlendMode = iota
	// BlendAlpha composites with source-alpha over blending.
	BlendAlpha
	// BlendAdditive adds source color onto the target.
	BlendAdditive
)

// pass is the implementation of the Pass interface.
type pass struct {
	index          int
	name           string
	pipelineKey    string
	blend          BlendMode
	textureID      uint64
	iteration      IterationType
	iterationCount int
	depthWrite     bool
}

// Pass defines one configured rendering stage of a material. Passes are immutable
// once their material is built; the render queue compares passes by identity to
// detect pass changes during traversal.
type Pass interface {
	// Index returns the pass position within its material.
	//
	// Returns:
	//   - int: the zero-based pass index
	Index() int

	// Name returns the pass label.
	//
	// Returns:
	//   - string: the pass name
	Name() string

	// PipelineKey returns the key of the render pipeline the pass draws with.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// Blend returns the blend mode of the pass.
	//
	// Returns:
	//   - BlendMode: the blend mode
	Blend() BlendMode

	// Blended reports whether the pass composites with the target rather than
	// overwriting it. Blended passes are drawn back-to-front.
	//
	// Returns:
	//   - bool: true for any blend mode other than BlendOpaque
	Blended() bool

	// TextureID returns the identity of the texture the pass samples, or 0 for none.
	// Used to cluster same-texture draws.
	//
	// Returns:
	//   - uint64: the texture identity
	TextureID() uint64

	// Iteration returns how the pass iterates per drawable.
	//
	// Returns:
	//   - IterationType: the iteration type
	Iteration() IterationType

	// IterationCount returns the fixed draw count used with IterationFixed.
	//
	// Returns:
	//   - int: the fixed count
	IterationCount() int

	// DepthWrite reports whether the pass writes depth.
	//
	// Returns:
	//   - bool: true if depth writes are enabled
	DepthWrite() bool
}

var _ Pass = &pass{}

func (p *pass) Index() int {
	return p.index
}

func (p *pass) Name() string {
	return p.name
}

func (p *pass) PipelineKey() string {
	return p.pipelineKey
}

func (p *pass) Blend() BlendMode {
	return p.blend
}

func (p *pass) Blended() bool {
	return p.blend != BlendOpaque
}

func (p *pass) TextureID() uint64 {
	return p.textureID
}

func (p *pass) Iteration() IterationType {
	return p.iteration
}

func (p *pass) IterationCount() int {
	return p.iterationCount
}

func (p *pass) DepthWrite() bool {
	return p.depthWrite
}
