package render_queue

import (
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderable"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// Visitor receives the ordered draw stream from Traverse. Implementations issue
// the backend draw calls and only pay for the state changes they are told about.
//
// Per traversal the call order is StartTraversal, then for every entry in key
// order: ChangeRenderGroup if the group differs from the previous entry,
// ChangeMaterialPass if the pass differs, then ApplyLights and Visit per the
// pass iteration type, and finally EndTraversal.
type Visitor interface {
	// StartTraversal begins a frame.
	//
	// Parameters:
	//   - frameID: the frame being drawn
	StartTraversal(frameID uint64)

	// ChangeRenderGroup switches GPU state between groups.
	//
	// Parameters:
	//   - prev: the previous group, nil for the first entry
	//   - next: the new group
	ChangeRenderGroup(prev, next RenderGroup)

	// ChangeMaterialPass switches the active pass.
	//
	// Parameters:
	//   - prev: the previous pass, nil for the first entry
	//   - next: the new pass
	ChangeMaterialPass(prev, next material.Pass)

	// ApplyLights sets the lights used by the following Visit calls.
	//
	// Parameters:
	//   - lights: the lights to apply
	ApplyLights(lights []light.Light)

	// Visit draws one iteration of a drawable.
	//
	// Parameters:
	//   - r: the drawable
	//   - pass: the active pass
	//   - iteration: the zero-based iteration index
	Visit(r *renderable.Renderable, pass material.Pass, iteration int)

	// EndTraversal finishes a frame.
	EndTraversal()
}

// BaseVisitor implements Visitor with no-ops. Embed it to override only the
// callbacks a visitor cares about.
type BaseVisitor struct{}

var _ Visitor = BaseVisitor{}

func (BaseVisitor) StartTraversal(uint64) {}
func (BaseVisitor) ChangeRenderGroup(RenderGroup, RenderGroup) {}
func (BaseVisitor) ChangeMaterialPass(material.Pass, material.Pass) {}
func (BaseVisitor) ApplyLights([]light.Light) {}
func (BaseVisitor) Visit(*renderable.Renderable, material.Pass, int) {}
func (BaseVisitor) EndTraversal() {}
