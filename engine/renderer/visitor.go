package renderer

import (
	"log"
	"time"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderable"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/render_queue"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/vbo_manager"
)

// drawEncoder is the part of an open render pass the visitor drives.
type drawEncoder interface {
	device.Binder

	// SetPipeline sets the render pipeline for following draws.
	SetPipeline(p pipeline.Pipeline)

	// DrawSlots returns how many draw uniforms fit in the frame.
	DrawSlots() int

	// SetDrawData writes the draw uniform for a slot and binds it for following draws.
	SetDrawData(slot int, data []byte) error

	// Draw issues a non-indexed draw.
	Draw(vertexCount, firstVertex uint32)

	// DrawIndexed issues an indexed draw.
	DrawIndexed(indexCount, firstIndex uint32)
}

// VisitorStats counts what a visitor did during the last traversal.
type VisitorStats struct {
	FrameID         uint64
	PipelineChanges int
	Draws           int
	DrawCalls       int
	// Skipped counts visits with no pipeline, no geometry, a primitive arrangement the
	// pipeline cannot draw, or a failed upload.
	Skipped int
	// Dropped counts visits past the frame's draw uniform capacity.
	Dropped int
}

// DrawVisitor is a render queue visitor that turns the sorted draw stream into draw calls.
type DrawVisitor interface {
	render_queue.Visitor

	// Stats returns the counts for the last traversal.
	//
	// Returns:
	//   - VisitorStats: the traversal counts
	Stats() VisitorStats
}

// drawVisitor is the implementation of the DrawVisitor interface.
type drawVisitor struct {
	pool    vbo_manager.VBOManager
	lookup  func(key string) pipeline.Pipeline
	encoder func() drawEncoder
	now     func() time.Time
	ambient [3]float32

	enc           drawEncoder
	current       pipeline.Pipeline
	pipelineDirty bool
	lights        []light.Light
	lightsOwner   *renderable.Renderable
	slot          int
	warned        map[string]bool
	stats         VisitorStats
}

var _ DrawVisitor = &drawVisitor{}

func newDrawVisitor(pool vbo_manager.VBOManager, lookup func(string) pipeline.Pipeline, encoder func() drawEncoder, options ...VisitorBuilderOption) *drawVisitor {
	if pool == nil {
		panic("renderer: a draw visitor requires a VBOManager")
	}
	v := &drawVisitor{
		pool:    pool,
		lookup:  lookup,
		encoder: encoder,
		now:     time.Now,
		ambient: [3]float32{0.15, 0.15, 0.15},
		warned:  make(map[string]bool),
	}
	for _, opt := range options {
		opt(v)
	}
	return v
}

func (v *drawVisitor) StartTraversal(frameID uint64) {
	v.enc = v.encoder()
	v.current = nil
	v.pipelineDirty = true
	v.lights = v.lights[:0]
	v.lightsOwner = nil
	v.slot = 0
	v.stats = VisitorStats{FrameID: frameID}
}

func (v *drawVisitor) ChangeRenderGroup(prev, next render_queue.RenderGroup) {
	v.pipelineDirty = true
}

func (v *drawVisitor) ChangeMaterialPass(prev, next material.Pass) {
	if v.current == nil || v.current.PipelineKey() != next.PipelineKey() {
		v.pipelineDirty = true
	}
}

func (v *drawVisitor) ApplyLights(lights []light.Light) {
	v.lights = append(v.lights[:0], lights...)
	v.lightsOwner = nil
}

func (v *drawVisitor) Visit(r *renderable.Renderable, pass material.Pass, iteration int) {
	// Lights are applied right before the first visit of the drawable they belong to.
	if v.lightsOwner == nil {
		v.lightsOwner = r
	} else if v.lightsOwner != r {
		v.lights = v.lights[:0]
		v.lightsOwner = r
	}

	if v.enc == nil || r.Geometry == nil {
		v.stats.Skipped++
		return
	}
	if !v.bindPipeline(pass.PipelineKey()) {
		v.stats.Skipped++
		return
	}
	if !drawsArrangement(v.current, r.Arrangement) {
		v.warnOnce("arrangement:"+pass.PipelineKey()+":"+r.Arrangement.String(),
			"[Renderer] pipeline %q draws %s, skipping %s geometry %d",
			pass.PipelineKey(), v.current.Arrangement(), r.Arrangement, r.Geometry.ID())
		v.stats.Skipped++
		return
	}
	if v.slot >= v.enc.DrawSlots() {
		v.stats.Dropped++
		return
	}

	if _, err := v.pool.Prepare(r, v.enc, v.now()); err != nil {
		v.warnOnce("prepare:"+err.Error(), "[Renderer] skipping geometry %d: %v", r.Geometry.ID(), err)
		v.stats.Skipped++
		return
	}

	uniform := GPUDrawUniform{
		Model:   r.Transform,
		Lights:  v.lights,
		Ambient: v.ambient,
	}
	uniform.Material.BaseColor = r.Material.BaseColor()
	if err := v.enc.SetDrawData(v.slot, uniform.Marshal()); err != nil {
		v.warnOnce("uniform", "[Renderer] failed to write draw uniform: %v", err)
		v.stats.Skipped++
		return
	}
	v.slot++

	v.issueDraws(r)
	v.stats.Draws++
}

func (v *drawVisitor) EndTraversal() {
	v.enc = nil
}

func (v *drawVisitor) Stats() VisitorStats {
	return v.stats
}

func (v *drawVisitor) bindPipeline(key string) bool {
	if !v.pipelineDirty && v.current != nil && v.current.PipelineKey() == key {
		return true
	}
	p := v.lookup(key)
	if p == nil {
		v.warnOnce("pipeline:"+key, "[Renderer] no pipeline registered for key %q", key)
		return false
	}
	if v.current != p {
		v.enc.SetPipeline(p)
		v.stats.PipelineChanges++
	}
	v.current = p
	v.pipelineDirty = false
	return true
}

// drawsArrangement reports whether p's topology assembles primitives the way a drawable
// with arrangement a expects. Fans reach the GPU as triangle lists through FanIndices.
func drawsArrangement(p pipeline.Pipeline, a common.Arrangement) bool {
	return listForm(p.Arrangement()) == listForm(a)
}

func listForm(a common.Arrangement) common.Arrangement {
	if a == common.ArrangementTriangleFan {
		return common.ArrangementTriangleList
	}
	return a
}

// issueDraws draws indexed geometry through its index slot, vertex ranges one call per
// range, and plain vertices in one call.
func (v *drawVisitor) issueDraws(r *renderable.Renderable) {
	g := r.Geometry
	indices := g.Indices()
	ranges := g.Ranges()

	switch {
	case indices.Count > 0:
		count := indices.Count
		if r.IndexCount > 0 {
			count = min(count, r.IndexCount)
		}
		v.enc.DrawIndexed(uint32(count), 0)
		v.stats.DrawCalls++
	case r.Arrangement == common.ArrangementTriangleFan:
		v.warnOnce("fan", "[Renderer] triangle fans need geometry.FanIndices; geometry %d has no indices", g.ID())
	case len(ranges) > 0:
		for _, rng := range ranges {
			if rng.Count <= 0 {
				continue
			}
			v.enc.Draw(uint32(rng.Count), uint32(rng.First))
			v.stats.DrawCalls++
		}
	default:
		count := g.Vertices().Count
		if r.VertexCount > 0 {
			count = min(count, r.VertexCount)
		}
		if count > 0 {
			v.enc.Draw(uint32(count), 0)
			v.stats.DrawCalls++
		}
	}
}

func (v *drawVisitor) warnOnce(key, format string, args ...any) {
	if v.warned[key] {
		return
	}
	v.warned[key] = true
	log.Printf(format, args...)
}
