package material

// PassBuilderOption is a function that configures a pass during construction.
type PassBuilderOption func(*pass)

// WithPassName is an option builder that sets the pass label.
//
// Parameters:
//   - name: the pass name
//
// Returns:
//   - PassBuilderOption: a function that applies the name option to a pass
func WithPassName(name string) PassBuilderOption {
	return func(p *pass) {
		p.name = name
	}
}

// WithPipelineKey is an option builder that sets the render pipeline the pass draws with.
//
// Parameters:
//   - key: the pipeline key
//
// Returns:
//   - PassBuilderOption: a function that applies the pipeline key option to a pass
func WithPipelineKey(key string) PassBuilderOption {
	return func(p *pass) {
		p.pipelineKey = key
	}
}

// WithBlend is an option builder that sets the blend mode. Blended passes stop
// writing depth unless WithDepthWrite is applied afterwards.
//
// Parameters:
//   - blend: the blend mode
//
// Returns:
//   - PassBuilderOption: a function that applies the blend option to a pass
func WithBlend(blend BlendMode) PassBuilderOption {
	return func(p *pass) {
		p.blend = blend
		p.depthWrite = blend == BlendOpaque
	}
}

// WithTextureID is an option builder that sets the texture the pass samples.
//
// Parameters:
//   - id: the texture identity (0 for none)
//
// Returns:
//   - PassBuilderOption: a function that applies the texture option to a pass
func WithTextureID(id uint64) PassBuilderOption {
	return func(p *pass) {
		p.textureID = id
	}
}

// WithOncePerLight is an option builder that makes the pass draw once per light.
//
// Returns:
//   - PassBuilderOption: a function that applies the iteration option to a pass
func WithOncePerLight() PassBuilderOption {
	return func(p *pass) {
		p.iteration = IterationOncePerLight
	}
}

// WithFixedIterations is an option builder that makes the pass draw a fixed number of times.
//
// Parameters:
//   - n: the number of draws per drawable (negative values are treated as 0)
//
// Returns:
//   - PassBuilderOption: a function that applies the iteration option to a pass
func WithFixedIterations(n int) PassBuilderOption {
	return func(p *pass) {
		p.iteration = IterationFixed
		p.iterationCount = max(n, 0)
	}
}

// WithDepthWrite is an option builder that overrides whether the pass writes depth.
//
// Parameters:
//   - enabled: true to write depth
//
// Returns:
//   - PassBuilderOption: a function that applies the depth write option to a pass
func WithDepthWrite(enabled bool) PassBuilderOption {
	return func(p *pass) {
		p.depthWrite = enabled
	}
}
