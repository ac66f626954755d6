package render_queue

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/renderable"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// RenderGroup is an equivalence class of drawables that share enough GPU state to
// be drawn back to back. The queue only compares group ids; it never inspects
// the concrete type a backend returns.
type RenderGroup interface {
	// GroupID returns the group identity. Equal ids mean no state change.
	GroupID() uint64
}

// RenderGroupFactory builds the sort key and render group for one (drawable, pass)
// pair. A backend supplies one per frame through Reset and may fold its own
// clustering hints, such as bound texture identity, into both.
type RenderGroupFactory interface {
	// PrepareRenderGroup computes the key and group for a drawable drawn with a pass.
	//
	// Parameters:
	//   - r: the drawable
	//   - pass: the material pass
	//   - cam: the frame camera (may be nil)
	//
	// Returns:
	//   - SortKey: the packed ordering key
	//   - RenderGroup: the state group
	PrepareRenderGroup(r *renderable.Renderable, pass material.Pass, cam camera.Camera) (SortKey, RenderGroup)
}

// Group is the generic RenderGroup produced by the default factory.
type Group struct {
	ID          uint64
	PipelineKey string
	TextureID   uint64
	Blend       material.BlendMode
}

var _ RenderGroup = Group{}

// GroupID returns the group identity.
func (g Group) GroupID() uint64 {
	return g.ID
}

// NewGroup builds a Group whose id hashes the pipeline key, texture and blend mode.
//
// Parameters:
//   - pipelineKey: the pipeline the group draws with
//   - textureID: the texture bound for the group
//   - blend: the blend mode
//
// Returns:
//   - Group: the group
func NewGroup(pipelineKey string, textureID uint64, blend material.BlendMode) Group {
	h := fnv.New64a()
	h.Write([]byte(pipelineKey))
	var buf [9]byte
	binary.LittleEndian.PutUint64(buf[:8], textureID)
	buf[8] = byte(blend)
	h.Write(buf[:])
	return Group{ID: h.Sum64(), PipelineKey: pipelineKey, TextureID: textureID, Blend: blend}
}

// defaultRenderGroupFactory is the backend-independent RenderGroupFactory.
type defaultRenderGroupFactory struct {
	distanceRange float32
}

var _ RenderGroupFactory = &defaultRenderGroupFactory{}

// NewDefaultRenderGroupFactory creates a factory that keys drawables by priority,
// pass, blend, camera distance of the centroid, precedence and the pass texture id,
// and groups them by pipeline, texture and blend mode.
//
// Parameters:
//   - options: variadic list of FactoryBuilderOption functions
//
// Returns:
//   - RenderGroupFactory: the factory
func NewDefaultRenderGroupFactory(options ...FactoryBuilderOption) RenderGroupFactory {
	f := &defaultRenderGroupFactory{distanceRange: DistanceRange}
	for _, opt := range options {
		opt(f)
	}
	return f
}

func (f *defaultRenderGroupFactory) PrepareRenderGroup(r *renderable.Renderable, pass material.Pass, cam camera.Camera) (SortKey, RenderGroup) {
	key := KeyFields(r, pass, cam, pass.TextureID()).Pack(f.distanceRange)
	return key, NewGroup(pass.PipelineKey(), pass.TextureID(), pass.Blend())
}

// KeyFields collects the generic sort key inputs for a drawable and pass. Backends
// use it to build keys with their own texture identity.
//
// Parameters:
//   - r: the drawable
//   - pass: the material pass
//   - cam: the frame camera (nil yields distance 0)
//   - textureID: the texture identity to cluster on
//
// Returns:
//   - SortKeyFields: the unpacked key
func KeyFields(r *renderable.Renderable, pass material.Pass, cam camera.Camera, textureID uint64) SortKeyFields {
	var distance float32
	if cam != nil {
		distance = cam.SignedDistance(r.Centroid)
	}
	return SortKeyFields{
		Priority:   r.Priority,
		Pass:       pass.Index(),
		Blended:    pass.Blended(),
		Distance:   distance,
		Precedence: int(r.Precedence),
		TextureID:  textureID,
	}
}
