package renderer

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count for the renderer.
// When not specified, the default is MSAA4x. Use MSAAOff to disable MSAA entirely.
// Higher values (MSAA8x, MSAA16x) are adapter-dependent and may not be supported
// by all hardware.
//
// Parameters:
//   - count: the MSAASampleCount to use (MSAAOff, MSAA4x, MSAA8x, or MSAA16x)
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingMSAA = &count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithMaxDrawsPerFrame sets how many draws fit in one frame. Visits past this count are dropped
// and reported in VisitorStats.Dropped.
//
// Parameters:
//   - n: the draw uniform ring capacity, ignored when not positive
//
// Returns:
//   - RendererBuilderOption: a function that applies the capacity to a renderer
func WithMaxDrawsPerFrame(n int) RendererBuilderOption {
	return func(r *renderer) {
		if n > 0 {
			r.maxDrawsPerFrame = n
		}
	}
}

// WithClearColor sets the color the main render pass clears to.
//
// Parameters:
//   - color: RGBA clear color
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color to a renderer
func WithClearColor(color [4]float64) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingClearColor = &color
	}
}

// WithDistanceRange sets the camera distance the renderer's group factory maps to the farthest
// quantization level.
//
// Parameters:
//   - distanceRange: the distance range, ignored when not positive
//
// Returns:
//   - RendererBuilderOption: a function that applies the distance range to a renderer
func WithDistanceRange(distanceRange float32) RendererBuilderOption {
	return func(r *renderer) {
		if distanceRange > 0 {
			r.distanceRange = distanceRange
		}
	}
}
