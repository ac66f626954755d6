package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/oxy-render/engine/renderable"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/render_queue"
)

func TestTextureFactoryUsesBoundTexture(t *testing.T) {
	m := material.NewMaterial(
		material.WithPass(material.WithPipelineKey("lit"), material.WithTextureID(3)),
		material.WithPass(material.WithPipelineKey("lit"), material.WithTextureID(3)),
	)
	a, b := m.Passes()[0], m.Passes()[1]
	r := renderable.New(nil, m)

	textures := newTextureBindings()
	f := NewTextureRenderGroupFactory(textures, 0)

	keyA, groupA := f.PrepareRenderGroup(&r, a, nil)
	_, groupB := f.PrepareRenderGroup(&r, b, nil)
	assert.Equal(t, uint32(3), keyA.TextureID())
	assert.Equal(t, groupA.GroupID(), groupB.GroupID())

	textures.bind(b, 42)
	keyB, groupB := f.PrepareRenderGroup(&r, b, nil)
	assert.Equal(t, uint32(42), keyB.TextureID())
	assert.NotEqual(t, groupA.GroupID(), groupB.GroupID())
	assert.Equal(t, render_queue.NewGroup("lit", 42, material.BlendOpaque).GroupID(), groupB.GroupID())

	textures.unbind(b)
	keyB, _ = f.PrepareRenderGroup(&r, b, nil)
	assert.Equal(t, uint32(3), keyB.TextureID())
}

func TestDrawUniformLayout(t *testing.T) {
	assert.Equal(t, 608, DrawUniformSize)
	assert.Equal(t, 768, DrawUniformStride)
	assert.Equal(t, uint64(768*4), drawRingBytes(4))

	u := GPUDrawUniform{Material: material.GPUMaterialParams{BaseColor: [4]float32{1, 1, 1, 1}}}
	assert.Len(t, u.Marshal(), DrawUniformSize)
}
