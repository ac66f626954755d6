package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReleaser struct {
	ids []uint64
}

func (r *recordingReleaser) ReleaseBuffer(id uint64) {
	r.ids = append(r.ids, id)
}

func TestIDSourceIsPerInstance(t *testing.T) {
	a := &IDSource{}
	b := &IDSource{}

	assert.Equal(t, uint64(1), a.Next())
	assert.Equal(t, uint64(2), a.Next())
	assert.Equal(t, uint64(1), b.Next())
}

func TestVertexFormatLayout(t *testing.T) {
	f := VertexFormat{Attributes: AttributePosition | AttributeUV | AttributeColor}

	assert.Equal(t, 36, f.Stride())
	assert.Equal(t, 0, f.Offset(AttributePosition))
	assert.Equal(t, -1, f.Offset(AttributeNormal))
	assert.Equal(t, 12, f.Offset(AttributeUV))
	assert.Equal(t, 20, f.Offset(AttributeColor))
	assert.Equal(t, "position+uv+color", f.String())

	var locations []uint32
	f.Each(func(_ Attribute, location uint32, _ int) {
		locations = append(locations, location)
	})
	assert.Equal(t, []uint32{0, 2, 3}, locations)
}

func TestNewGeometryStartsDirty(t *testing.T) {
	ids := &IDSource{}
	format := VertexFormat{Attributes: AttributePosition}
	g := NewGeometry(ids,
		WithVertices(NewVertexData(format, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0})),
		WithIndices(NewIndexData16([]uint16{0, 1, 2})),
	)

	assert.True(t, g.Dirty())
	assert.Equal(t, 3, g.Vertices().Count)
	assert.Equal(t, 36, g.VertexBytes())
	assert.Equal(t, 6, g.IndexBytes())
	assert.Equal(t, IndexWidthUint16, g.Indices().Width)

	g.ClearDirty()
	assert.False(t, g.Dirty())

	before := g.Version()
	g.SetIndices(NewIndexData32([]uint32{0, 1, 2}))
	assert.True(t, g.Dirty())
	assert.Equal(t, before+1, g.Version())
	assert.Equal(t, 12, g.IndexBytes())
}

func TestReleaseHandsBackOnce(t *testing.T) {
	g := NewGeometry(&IDSource{})
	r := &recordingReleaser{}

	g.Release(r)
	g.Release(r)

	require.Len(t, r.ids, 1)
	assert.Equal(t, g.ID(), r.ids[0])
	assert.True(t, g.Released())
}

func TestNewGeometryPanicsWithoutIDSource(t *testing.T) {
	assert.Panics(t, func() { NewGeometry(nil) })
}

func TestFanIndices(t *testing.T) {
	idx := FanIndices(VertexRange{First: 0, Count: 4}, VertexRange{First: 4, Count: 3})
	assert.Equal(t, IndexWidthUint32, idx.Width)
	assert.Equal(t, 9, idx.Count)
	assert.Len(t, idx.Data, 36)
}
