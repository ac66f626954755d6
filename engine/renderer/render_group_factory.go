package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/renderable"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/render_queue"
)

// TextureBinder reports the texture bound for a material pass.
type TextureBinder interface {
	// BoundTexture returns the texture identity bound to the pass, if any.
	//
	// Parameters:
	//   - pass: the material pass
	//
	// Returns:
	//   - uint64: the bound texture identity
	//   - bool: false when nothing is bound
	BoundTexture(pass material.Pass) (uint64, bool)
}

// textureBindings is a concurrency-safe TextureBinder. Producers read it while building
// sort keys, so lookups take a read lock.
type textureBindings struct {
	mu       *sync.RWMutex
	bindings map[material.Pass]uint64
}

var _ TextureBinder = &textureBindings{}

func newTextureBindings() *textureBindings {
	return &textureBindings{
		mu:       &sync.RWMutex{},
		bindings: make(map[material.Pass]uint64),
	}
}

func (t *textureBindings) BoundTexture(pass material.Pass) (uint64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.bindings[pass]
	return id, ok
}

func (t *textureBindings) bind(pass material.Pass, textureID uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bindings[pass] = textureID
}

func (t *textureBindings) unbind(pass material.Pass) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.bindings, pass)
}

// textureRenderGroupFactory keys and groups drawables like the default factory, but uses the
// texture actually bound to the pass, falling back to the pass's own texture id.
type textureRenderGroupFactory struct {
	textures      TextureBinder
	distanceRange float32
}

var _ render_queue.RenderGroupFactory = &textureRenderGroupFactory{}

// NewTextureRenderGroupFactory creates a RenderGroupFactory that clusters on bound textures.
//
// Parameters:
//   - textures: the texture bindings to consult
//   - distanceRange: the camera distance mapped to the last quantization level
//
// Returns:
//   - render_queue.RenderGroupFactory: the factory
func NewTextureRenderGroupFactory(textures TextureBinder, distanceRange float32) render_queue.RenderGroupFactory {
	if distanceRange <= 0 {
		distanceRange = render_queue.DistanceRange
	}
	return &textureRenderGroupFactory{textures: textures, distanceRange: distanceRange}
}

func (f *textureRenderGroupFactory) PrepareRenderGroup(r *renderable.Renderable, pass material.Pass, cam camera.Camera) (render_queue.SortKey, render_queue.RenderGroup) {
	texture := pass.TextureID()
	if f.textures != nil {
		if bound, ok := f.textures.BoundTexture(pass); ok {
			texture = bound
		}
	}
	key := render_queue.KeyFields(r, pass, cam, texture).Pack(f.distanceRange)
	return key, render_queue.NewGroup(pass.PipelineKey(), texture, pass.Blend())
}
