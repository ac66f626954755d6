package renderer

import (
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/render_queue"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/vbo_manager"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
)

// DefaultMaxDrawsPerFrame is the draw uniform ring capacity used when none is configured.
const DefaultMaxDrawsPerFrame = 1024

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline
	textures      *textureBindings
	factory       render_queue.RenderGroupFactory

	backendType RendererBackendType
	backend     RendererBackend
	device      device.Device

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	pendingClearColor    *[4]float64
	maxDrawsPerFrame     int
	distanceRange        float32
}

// Renderer defines the interface for the rendering system.
//
// The Renderer owns the GPU device, the pipeline cache and the frame's render pass. Drawing goes
// through a render queue traversal: BeginFrame opens the pass, a DrawVisitor from NewVisitor turns
// the sorted draw stream into draw calls, and EndFrame plus Present submit and display the frame.
type Renderer interface {
	// BufferDevice returns the buffer device backing vertex and index storage, suitable for a
	// vbo_manager.VBOManager.
	//
	// Returns:
	//   - device.Device: the buffer device
	BufferDevice() device.Device

	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves a copy of the cache of Pipelines.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines creates the GPU render pipelines via the backend, then caches them by
	// PipelineKey. Pipelines whose keys are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize configures the underlying backend to handle a new surface size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode. Takes effect on the next Resize.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// RenderGroupFactory returns the factory that keys drawables against the bound pass textures.
	//
	// Returns:
	//   - render_queue.RenderGroupFactory: the factory
	RenderGroupFactory() render_queue.RenderGroupFactory

	// BindPassTexture records the texture bound for a material pass, used for sort key clustering.
	//
	// Parameters:
	//   - pass: the material pass
	//   - textureID: the texture identity
	BindPassTexture(pass material.Pass, textureID uint64)

	// UnbindPassTexture removes the texture binding of a material pass.
	//
	// Parameters:
	//   - pass: the material pass
	UnbindPassTexture(pass material.Pass)

	// NewVisitor creates a DrawVisitor that draws into the renderer's open frame.
	//
	// Parameters:
	//   - pool: the VBOManager holding the drawables' GPU buffers
	//   - options: visitor options
	//
	// Returns:
	//   - DrawVisitor: the visitor
	NewVisitor(pool vbo_manager.VBOManager, options ...VisitorBuilderOption) DrawVisitor

	// BeginFrame writes the camera uniform, acquires the swapchain texture and begins the main
	// render pass. Must be paired with EndFrame.
	//
	// Parameters:
	//   - cam: the frame camera
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame(cam camera.Camera) error

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	// Does not present the surface; call Present after EndFrame to display the frame.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain texture.
	Present()

	// Release releases the renderer's pipelines and GPU resources.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type and window.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - window: the window whose surface the renderer draws to
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: an error if the frame bindings could not be created
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:               &sync.Mutex{},
		pipelineCache:    make(map[string]pipeline.Pipeline),
		textures:         newTextureBindings(),
		backendType:      backendType,
		maxDrawsPerFrame: DefaultMaxDrawsPerFrame,
		distanceRange:    render_queue.DistanceRange,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	msaa := MSAA4x // default
	if r.pendingMSAA != nil {
		if r.pendingMSAA.Valid() {
			msaa = *r.pendingMSAA
		} else {
			log.Printf("[Renderer] unsupported MSAA sample count %d, using %d", *r.pendingMSAA, msaa)
		}
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	}
	r.device = device.NewWGPUDevice(r.backend.Device(), r.backend.Queue())
	r.factory = NewTextureRenderGroupFactory(r.textures, r.distanceRange)

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	r.backend.ConfigureSurface(window.Width(), window.Height())
	if r.pendingClearColor != nil {
		r.backend.SetClearColor(*r.pendingClearColor)
	}

	if err := r.backend.InitFrameBindings(r.maxDrawsPerFrame); err != nil {
		r.backend.Release()
		return nil, fmt.Errorf("failed to initialize frame bindings: %w", err)
	}
	return r, nil
}

func (r *renderer) BufferDevice() device.Device {
	return r.device
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, p := range r.pipelineCache {
		out[k] = p
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("failed to register pipeline %q: %w", key, err)
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) RenderGroupFactory() render_queue.RenderGroupFactory {
	return r.factory
}

func (r *renderer) BindPassTexture(pass material.Pass, textureID uint64) {
	r.textures.bind(pass, textureID)
}

func (r *renderer) UnbindPassTexture(pass material.Pass) {
	r.textures.unbind(pass)
}

func (r *renderer) NewVisitor(pool vbo_manager.VBOManager, options ...VisitorBuilderOption) DrawVisitor {
	return newDrawVisitor(pool, r.Pipeline, r.backend.DrawEncoder, options...)
}

func (r *renderer) BeginFrame(cam camera.Camera) error {
	return r.backend.BeginFrame(cam)
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.mu.Unlock()
	r.backend.Release()
}
