package pipeline

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
// It holds the shader source, the fixed-function state and the created GPU pipeline.
type pipeline struct {
	// pipelineKey is the unique identifier material passes refer to.
	pipelineKey string

	source        string
	vertexEntry   string
	fragmentEntry string

	// vertexFormat describes the interleaved vertex buffer bound at slot 0.
	vertexFormat geometry.VertexFormat
	arrangement  common.Arrangement

	// renderPipeline is nil until the pipeline is registered with a Renderer.
	renderPipeline *wgpu.RenderPipeline

	depthTestEnabled  bool
	depthWriteEnabled bool
	blend             material.BlendMode
	cullMode          wgpu.CullMode
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
}

// Pipeline describes a render pipeline: one WGSL module with a vertex and fragment entry point,
// the vertex format it consumes, the primitive arrangement it draws, and its depth and blend state.
type Pipeline interface {
	// PipelineKey returns the unique key material passes use to select this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Source returns the WGSL source of the shader module.
	//
	// Returns:
	//   - string: the WGSL source
	Source() string

	// VertexEntryPoint returns the vertex stage entry point.
	VertexEntryPoint() string

	// FragmentEntryPoint returns the fragment stage entry point.
	FragmentEntryPoint() string

	// VertexFormat returns the vertex format the pipeline consumes.
	//
	// Returns:
	//   - geometry.VertexFormat: the interleaved vertex format
	VertexFormat() geometry.VertexFormat

	// VertexBufferLayout converts the vertex format into a wgpu vertex buffer layout. Attribute
	// shader locations follow geometry.VertexFormat.Each.
	//
	// Returns:
	//   - wgpu.VertexBufferLayout: the layout for vertex buffer slot 0
	VertexBufferLayout() wgpu.VertexBufferLayout

	// Arrangement returns the primitive arrangement the pipeline draws.
	Arrangement() common.Arrangement

	// Topology returns the wgpu primitive topology for the arrangement. Triangle fans have no
	// wgpu topology and are drawn as triangle lists through geometry.FanIndices.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology for this pipeline
	Topology() wgpu.PrimitiveTopology

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	DepthWriteEnabled() bool

	// Blend returns the blend mode of the pipeline.
	Blend() material.BlendMode

	// BlendState returns the wgpu blend state for the blend mode, or nil when opaque.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state, or nil
	BlendState() *wgpu.BlendState

	// CullMode returns the cull mode configured for this pipeline.
	CullMode() wgpu.CullMode

	// FrontFace returns the front face winding order configured for this pipeline.
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	WriteMask() wgpu.ColorWriteMask

	// RenderPipeline returns the created GPU pipeline, or nil before registration.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the GPU pipeline or nil
	RenderPipeline() *wgpu.RenderPipeline

	// SetRenderPipeline stores the created GPU pipeline.
	//
	// Parameters:
	//   - p: the WebGPU render pipeline to set
	SetRenderPipeline(p *wgpu.RenderPipeline)

	// Release releases the GPU pipeline if one was created.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline. The defaults draw opaque,
// depth-tested triangle lists of position+color vertices using vs_main and fs_main.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		vertexEntry:       "vs_main",
		fragmentEntry:     "fs_main",
		vertexFormat:      geometry.VertexFormat{Attributes: geometry.AttributePosition | geometry.AttributeColor},
		arrangement:       common.ArrangementTriangleList,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		blend:             material.BlendOpaque,
		cullMode:          wgpu.CullModeNone,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Source() string {
	return p.source
}

func (p *pipeline) VertexEntryPoint() string {
	return p.vertexEntry
}

func (p *pipeline) FragmentEntryPoint() string {
	return p.fragmentEntry
}

func (p *pipeline) VertexFormat() geometry.VertexFormat {
	return p.vertexFormat
}

func (p *pipeline) VertexBufferLayout() wgpu.VertexBufferLayout {
	attrs := make([]wgpu.VertexAttribute, 0, 4)
	p.vertexFormat.Each(func(a geometry.Attribute, location uint32, offset int) {
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         vertexFormatFor(a),
			Offset:         uint64(offset),
			ShaderLocation: location,
		})
	})
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(p.vertexFormat.Stride()),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

func (p *pipeline) Arrangement() common.Arrangement {
	return p.arrangement
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	switch p.arrangement {
	case common.ArrangementTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case common.ArrangementLineList:
		return wgpu.PrimitiveTopologyLineList
	case common.ArrangementLineStrip:
		return wgpu.PrimitiveTopologyLineStrip
	case common.ArrangementPointList:
		return wgpu.PrimitiveTopologyPointList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) Blend() material.BlendMode {
	return p.blend
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	switch p.blend {
	case material.BlendAlpha:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	case material.BlendAdditive:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	default:
		return nil
	}
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
}

func vertexFormatFor(a geometry.Attribute) wgpu.VertexFormat {
	switch a {
	case geometry.AttributeUV:
		return wgpu.VertexFormatFloat32x2
	case geometry.AttributeColor:
		return wgpu.VertexFormatFloat32x4
	default:
		return wgpu.VertexFormatFloat32x3
	}
}
