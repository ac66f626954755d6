package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// cameraUniformSize is the byte size of camera.GPUCameraUniform.
const cameraUniformSize = 80

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	msaaTexture          *wgpu.Texture
	msaaTextureView      *wgpu.TextureView
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor
	clearColor           wgpu.Color

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	sampleCount MSAASampleCount  // MSAA sample count for the main render pass

	// Frame bindings shared by every pipeline: group 0 is the camera, group 1 is a ring of
	// per-draw uniforms addressed by draw slot.
	cameraBindings bind_group_provider.BindGroupProvider
	drawBindings   bind_group_provider.BindGroupProvider
	pipelineLayout *wgpu.PipelineLayout

	// Frame state for batched rendering across multiple draw calls
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	frameDraws   *wgpuDrawEncoder
}

type wgpuRendererBackend interface {
	Device() *wgpu.Device
	Queue() *wgpu.Queue

	// ConfigureSurface is a wrapper for boilerplate logic required when calling ConfigureSurface on a surface.
	// This is required when the surface size changes, such as when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color the main render pass clears to.
	//
	// Parameters:
	//   - color: RGBA clear color
	SetClearColor(color [4]float64)

	// InitFrameBindings creates the camera and per-draw bind groups and the pipeline layout every
	// registered pipeline shares.
	//
	// Parameters:
	//   - maxDraws: the number of draw uniforms the per-frame ring holds
	//
	// Returns:
	//   - error: an error if a buffer, layout or bind group could not be created
	InitFrameBindings(maxDraws int) error

	// RegisterRenderPipeline creates the shader module and render pipeline for p using the shared
	// frame layout and stores the result on p.
	//
	// Parameters:
	//   - p: the pipeline to create
	//
	// Returns:
	//   - error: an error if the pipeline could not be created, otherwise nil
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the next swapchain texture, writes the camera uniform, creates a command
	// encoder and begins the main render pass. Must be paired with EndFrame.
	//
	// Parameters:
	//   - cam: the frame camera
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame(cam camera.Camera) error

	// DrawEncoder returns the open frame's draw encoder, or nil between frames.
	DrawEncoder() drawEncoder

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	// Does not present the surface; call Present after EndFrame to display the frame.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain texture.
	// Must be called once per frame after EndFrame.
	Present()

	// Release releases every GPU resource the backend created.
	Release()
}

var _ wgpuRendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount) wgpuRendererBackend {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		sampleCount: sampleCount,
		clearColor:  wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	b.releaseAttachments()

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	if msaaEnabled {
		// The render pass draws into the MSAA texture and resolves into the swapchain view.
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(err)
		}
		b.msaaTexture = msaaTexture
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			panic(err)
		}
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthTexture = depthTexture
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	// With MSAA, View is the MSAA texture and ResolveTarget is set per frame to the swapchain
	// view. Without it, View is set per frame and ResolveTarget stays nil.
	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          b.msaaTextureView,
				ResolveTarget: nil,
				LoadOp:        wgpu.LoadOpClear,
				StoreOp:       storeOp,
				ClearValue:    b.clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) SetClearColor(color [4]float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.clearColor = wgpu.Color{R: color[0], G: color[1], B: color[2], A: color[3]}
	if b.renderPassDescriptor != nil {
		b.renderPassDescriptor.ColorAttachments[0].ClearValue = b.clearColor
	}
}

func (b *wgpuRendererBackendImpl) InitFrameBindings(maxDraws int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if maxDraws <= 0 {
		return errors.New("renderer: the draw uniform ring needs at least one slot")
	}

	cameraBindings := bind_group_provider.NewBindGroupProvider("Camera")
	if err := b.initUniformBindings(cameraBindings, cameraUniformSize, cameraUniformSize, 1); err != nil {
		cameraBindings.Release()
		return err
	}

	drawBindings := bind_group_provider.NewBindGroupProvider("Draw", bind_group_provider.WithStride(DrawUniformStride))
	if err := b.initUniformBindings(drawBindings, drawRingBytes(maxDraws), DrawUniformSize, maxDraws); err != nil {
		cameraBindings.Release()
		drawBindings.Release()
		return err
	}

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Frame Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{cameraBindings.BindGroupLayout(), drawBindings.BindGroupLayout()},
	})
	if err != nil {
		cameraBindings.Release()
		drawBindings.Release()
		return fmt.Errorf("failed to create frame pipeline layout: %w", err)
	}

	b.cameraBindings = cameraBindings
	b.drawBindings = drawBindings
	b.pipelineLayout = layout
	return nil
}

// initUniformBindings creates one uniform buffer of bufferSize bytes and count bind groups over
// it, each addressing bindingSize bytes at i*provider.Stride().
func (b *wgpuRendererBackendImpl) initUniformBindings(provider bind_group_provider.BindGroupProvider, bufferSize, bindingSize uint64, count int) error {
	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: provider.Label() + " Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: bindingSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create %s bind group layout: %w", provider.Label(), err)
	}
	provider.SetBindGroupLayout(layout)

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: provider.Label() + " Uniform Buffer",
		Size:  bufferSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create %s uniform buffer: %w", provider.Label(), err)
	}
	provider.SetBuffer(0, buf)

	groups := make([]*wgpu.BindGroup, 0, count)
	for i := range count {
		bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  provider.Label() + " Bind Group",
			Layout: layout,
			Entries: []wgpu.BindGroupEntry{
				{
					Binding: 0,
					Buffer:  buf,
					Offset:  uint64(i) * provider.Stride(),
					Size:    bindingSize,
				},
			},
		})
		if err != nil {
			provider.SetBindGroups(groups)
			return fmt.Errorf("failed to create %s bind group %d: %w", provider.Label(), i, err)
		}
		groups = append(groups, bg)
	}
	provider.SetBindGroups(groups)
	return nil
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	if p.Source() == "" {
		return fmt.Errorf("pipeline %q has no shader source", p.PipelineKey())
	}
	if b.pipelineLayout == nil {
		return errors.New("frame bindings must be initialized before registering pipelines")
	}

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: p.PipelineKey(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: p.Source(),
		},
	})
	if err != nil {
		return err
	}
	defer module.Release()

	colorTarget := wgpu.ColorTargetState{
		Format:    *b.surfaceFormat,
		WriteMask: p.WriteMask(),
		Blend:     p.BlendState(),
	}

	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: b.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: p.VertexEntryPoint(),
			Buffers:    []wgpu.VertexBufferLayout{p.VertexBufferLayout()},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: p.FragmentEntryPoint(),
			Targets:    []wgpu.ColorTargetState{colorTarget},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return err
	}

	p.SetRenderPipeline(created)
	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeBuffers(writes)
}

func (b *wgpuRendererBackendImpl) writeBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame(cam camera.Camera) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A held surface texture means the previous frame was never presented.
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}
	if b.cameraBindings == nil {
		return errors.New("frame bindings not initialized")
	}

	if cam != nil {
		uniform := camera.NewGPUCameraUniform(cam)
		b.writeBuffers([]bind_group_provider.BufferWrite{
			{Provider: b.cameraBindings, Binding: 0, Data: uniform.Marshal()},
		})
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)
	pass.SetBindGroup(0, b.cameraBindings.BindGroup(0), nil)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view
	b.frameDraws = &wgpuDrawEncoder{
		Binder:  device.NewWGPUBinder(pass),
		pass:    pass,
		queue:   b.queue,
		camera:  b.cameraBindings,
		draws:   b.drawBindings,
		backend: b,
	}

	return nil
}

func (b *wgpuRendererBackendImpl) DrawEncoder() drawEncoder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frameDraws == nil {
		return nil
	}
	return b.frameDraws
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}

	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil
	b.frameDraws = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameEncoder = nil
		b.frameSurface = nil
		b.frameView = nil
		return
	}

	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cameraBindings != nil {
		b.cameraBindings.Release()
		b.cameraBindings = nil
	}
	if b.drawBindings != nil {
		b.drawBindings.Release()
		b.drawBindings = nil
	}
	if b.pipelineLayout != nil {
		b.pipelineLayout.Release()
		b.pipelineLayout = nil
	}
	b.releaseAttachments()
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// releaseAttachments must be called with mu held.
func (b *wgpuRendererBackendImpl) releaseAttachments() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

// wgpuDrawEncoder drives the open render pass for a draw visitor.
type wgpuDrawEncoder struct {
	device.Binder

	pass    *wgpu.RenderPassEncoder
	queue   *wgpu.Queue
	camera  bind_group_provider.BindGroupProvider
	draws   bind_group_provider.BindGroupProvider
	backend *wgpuRendererBackendImpl
}

var _ drawEncoder = &wgpuDrawEncoder{}

func (e *wgpuDrawEncoder) SetPipeline(p pipeline.Pipeline) {
	rp := p.RenderPipeline()
	if rp == nil {
		return
	}
	e.pass.SetPipeline(rp)
	e.pass.SetBindGroup(0, e.camera.BindGroup(0), nil)
}

func (e *wgpuDrawEncoder) DrawSlots() int {
	return e.draws.BindGroupCount()
}

func (e *wgpuDrawEncoder) SetDrawData(slot int, data []byte) error {
	bg := e.draws.BindGroup(slot)
	if bg == nil {
		return fmt.Errorf("draw slot %d out of range", slot)
	}
	e.backend.WriteBuffers([]bind_group_provider.BufferWrite{
		bind_group_provider.RingWrite(e.draws, 0, slot, data),
	})
	e.pass.SetBindGroup(1, bg, nil)
	return nil
}

func (e *wgpuDrawEncoder) Draw(vertexCount, firstVertex uint32) {
	e.pass.Draw(vertexCount, 1, firstVertex, 0)
}

func (e *wgpuDrawEncoder) DrawIndexed(indexCount, firstIndex uint32) {
	e.pass.DrawIndexed(indexCount, 1, firstIndex, 0, 0)
}
