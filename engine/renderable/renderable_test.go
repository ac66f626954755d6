package renderable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

func TestHasDrawData(t *testing.T) {
	ids := &geometry.IDSource{}
	m := material.NewMaterial()

	empty := New(geometry.NewGeometry(ids), m)
	assert.False(t, empty.HasDrawData())

	ranged := New(geometry.NewGeometry(ids, geometry.WithRanges(geometry.VertexRange{First: 0, Count: 3})), m)
	assert.True(t, ranged.HasDrawData())

	indexed := New(nil, m)
	indexed.IndexCount = 6
	assert.True(t, indexed.HasDrawData())

	plain := New(nil, m)
	plain.VertexCount = 3
	assert.True(t, plain.HasDrawData())
}

func TestNewTakesCountsFromGeometry(t *testing.T) {
	g := geometry.NewGeometry(&geometry.IDSource{},
		geometry.WithVertices(geometry.NewVertexData(
			geometry.VertexFormat{Attributes: geometry.AttributePosition},
			[]float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 1, 0},
		)),
		geometry.WithIndices(geometry.NewIndexData16([]uint16{0, 1, 2, 2, 1, 3})),
	)

	r := New(g, material.NewMaterial())
	assert.Equal(t, 4, r.VertexCount)
	assert.Equal(t, 6, r.IndexCount)
	assert.True(t, r.Visible)
	assert.Equal(t, float32(1), r.Transform[15])
}

func TestAddLightStopsAtMax(t *testing.T) {
	var r Renderable
	for i := 0; i < MaxLights; i++ {
		assert.True(t, r.AddLight(light.NewLight(light.LightTypePoint)))
	}
	assert.False(t, r.AddLight(light.NewLight(light.LightTypePoint)))
	assert.Len(t, r.LightSlice(), MaxLights)
}

func TestSetTranslationMovesCentroid(t *testing.T) {
	var r Renderable
	r.SetTranslation(1, 2, 3)
	assert.Equal(t, [3]float32{1, 2, 3}, r.Centroid)
	assert.Equal(t, float32(3), r.Transform[14])
}
