package renderer

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderable"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/render_queue"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/vbo_manager"
)

type testTarget string

func (t testTarget) Name() string { return string(t) }

// fakeEncoder records what a draw visitor asks of the render pass.
type fakeEncoder struct {
	device.RecordingBinder
	slots     int
	pipelines []string
	data      [][]byte
	draws     []string
}

var _ drawEncoder = &fakeEncoder{}

func (e *fakeEncoder) SetPipeline(p pipeline.Pipeline) {
	e.pipelines = append(e.pipelines, p.PipelineKey())
}

func (e *fakeEncoder) DrawSlots() int {
	return e.slots
}

func (e *fakeEncoder) SetDrawData(slot int, data []byte) error {
	if slot != len(e.data) {
		return fmt.Errorf("slot %d written out of order", slot)
	}
	e.data = append(e.data, data)
	return nil
}

func (e *fakeEncoder) Draw(vertexCount, firstVertex uint32) {
	e.draws = append(e.draws, fmt.Sprintf("draw:%d:%d", vertexCount, firstVertex))
}

func (e *fakeEncoder) DrawIndexed(indexCount, firstIndex uint32) {
	e.draws = append(e.draws, fmt.Sprintf("indexed:%d:%d", indexCount, firstIndex))
}

type visitorFixture struct {
	ids       *geometry.IDSource
	dev       *device.MemoryDevice
	pool      vbo_manager.VBOManager
	enc       *fakeEncoder
	pipelines map[string]pipeline.Pipeline
	queue     render_queue.RenderQueue
	visitor   DrawVisitor
}

func newVisitorFixture(t *testing.T, slots int, keys ...string) *visitorFixture {
	t.Helper()
	f := &visitorFixture{
		ids:       &geometry.IDSource{},
		dev:       device.NewMemoryDevice(),
		enc:       &fakeEncoder{slots: slots},
		pipelines: make(map[string]pipeline.Pipeline),
		queue:     render_queue.NewRenderQueue(),
	}
	f.pool = vbo_manager.NewVBOManager(f.dev)
	for _, key := range keys {
		f.pipelines[key] = pipeline.NewPipeline(key)
	}
	lookup := func(key string) pipeline.Pipeline { return f.pipelines[key] }
	f.visitor = newDrawVisitor(f.pool, lookup, func() drawEncoder { return f.enc })

	cam := camera.NewCamera(camera.WithPosition(0, 0, 0), camera.WithTarget(0, 0, -1))
	f.queue.Reset(testTarget("main"), NewTextureRenderGroupFactory(nil, 0), cam)
	return f
}

var trianglePositions = []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}

func (f *visitorFixture) indexedTriangle(m material.Material, d float32) renderable.Renderable {
	g := geometry.NewGeometry(f.ids,
		geometry.WithVertices(geometry.NewVertexData(geometry.VertexFormat{Attributes: geometry.AttributePosition}, trianglePositions)),
		geometry.WithIndices(geometry.NewIndexData16([]uint16{0, 1, 2})),
	)
	r := renderable.New(g, m)
	r.SetTranslation(0, 0, -d)
	return r
}

func flatMaterial(key string) material.Material {
	return material.NewMaterial(material.WithPass(material.WithPipelineKey(key)))
}

func TestDrawVisitorDrawsSortedQueue(t *testing.T) {
	f := newVisitorFixture(t, 8, "flat")
	m := flatMaterial("flat")
	f.queue.InsertRenderable(f.indexedTriangle(m, 5))
	f.queue.InsertRenderable(f.indexedTriangle(m, 1))

	f.queue.Traverse(f.visitor, 3)

	st := f.visitor.Stats()
	assert.Equal(t, VisitorStats{FrameID: 3, PipelineChanges: 1, Draws: 2, DrawCalls: 2}, st)
	assert.Equal(t, []string{"flat"}, f.enc.pipelines)
	assert.Equal(t, []string{"indexed:3:0", "indexed:3:0"}, f.enc.draws)
	require.Len(t, f.enc.data, 2)
	for _, d := range f.enc.data {
		assert.Len(t, d, DrawUniformSize)
	}

	// One vertex bind and one index bind per draw.
	require.Len(t, f.enc.Calls, 4)
	assert.False(t, f.enc.Calls[0].Index)
	assert.True(t, f.enc.Calls[1].Index)
	assert.Equal(t, geometry.IndexWidthUint16, f.enc.Calls[1].Width)

	// Nearest first: the translation lands in the model matrix's last column.
	z0 := binary.LittleEndian.Uint32(f.enc.data[0][14*4:])
	z1 := binary.LittleEndian.Uint32(f.enc.data[1][14*4:])
	assert.NotEqual(t, z0, z1)
	// Vertices and indices of two geometries.
	assert.Equal(t, 4, f.dev.Writes())
}

func TestDrawVisitorSwitchesPipelinesPerGroup(t *testing.T) {
	f := newVisitorFixture(t, 8, "a", "b")
	f.queue.InsertRenderable(f.indexedTriangle(flatMaterial("a"), 1))
	f.queue.InsertRenderable(f.indexedTriangle(flatMaterial("a"), 2))
	f.queue.InsertRenderable(f.indexedTriangle(flatMaterial("b"), 3))

	f.queue.Traverse(f.visitor, 1)

	st := f.visitor.Stats()
	assert.Equal(t, 3, st.Draws)
	assert.Equal(t, 2, st.PipelineChanges)
	assert.Equal(t, []string{"a", "b"}, f.enc.pipelines)
}

func TestDrawVisitorSkipsUnknownPipeline(t *testing.T) {
	f := newVisitorFixture(t, 8, "flat")
	f.queue.InsertRenderable(f.indexedTriangle(flatMaterial("missing"), 1))
	f.queue.InsertRenderable(f.indexedTriangle(flatMaterial("flat"), 2))

	f.queue.Traverse(f.visitor, 1)

	st := f.visitor.Stats()
	assert.Equal(t, 1, st.Skipped)
	assert.Equal(t, 1, st.Draws)
	assert.Equal(t, []string{"flat"}, f.enc.pipelines)
}

func TestDrawVisitorDropsPastCapacity(t *testing.T) {
	f := newVisitorFixture(t, 2, "flat")
	m := flatMaterial("flat")
	for i := 1; i <= 3; i++ {
		f.queue.InsertRenderable(f.indexedTriangle(m, float32(i)))
	}

	f.queue.Traverse(f.visitor, 1)

	st := f.visitor.Stats()
	assert.Equal(t, 2, st.Draws)
	assert.Equal(t, 1, st.Dropped)
	assert.Len(t, f.enc.data, 2)
}

func TestDrawVisitorDrawsRangesOneCallEach(t *testing.T) {
	f := newVisitorFixture(t, 8, "flat")
	positions := append(append([]float32{}, trianglePositions...), trianglePositions...)
	g := geometry.NewGeometry(f.ids,
		geometry.WithVertices(geometry.NewVertexData(geometry.VertexFormat{Attributes: geometry.AttributePosition}, positions)),
		geometry.WithRanges(geometry.VertexRange{First: 0, Count: 3}, geometry.VertexRange{First: 3, Count: 3}),
	)
	r := renderable.New(g, flatMaterial("flat"))
	r.SetTranslation(0, 0, -1)
	f.queue.InsertRenderable(r)

	f.queue.Traverse(f.visitor, 1)

	assert.Equal(t, []string{"draw:3:0", "draw:3:3"}, f.enc.draws)
	assert.Equal(t, 1, f.visitor.Stats().Draws)
	assert.Equal(t, 2, f.visitor.Stats().DrawCalls)
}

func TestDrawVisitorWithoutFrameSkips(t *testing.T) {
	f := newVisitorFixture(t, 8, "flat")
	lookup := func(key string) pipeline.Pipeline { return f.pipelines[key] }
	v := newDrawVisitor(f.pool, lookup, func() drawEncoder { return nil })
	f.queue.InsertRenderable(f.indexedTriangle(flatMaterial("flat"), 1))

	f.queue.Traverse(v, 1)

	assert.Equal(t, 1, v.Stats().Skipped)
	assert.Empty(t, f.enc.draws)
}

func TestDrawVisitorWritesOneLightPerIteration(t *testing.T) {
	f := newVisitorFixture(t, 8, "lit")
	m := material.NewMaterial(material.WithPass(material.WithPipelineKey("lit"), material.WithOncePerLight()))
	r := f.indexedTriangle(m, 1)
	require.True(t, r.AddLight(light.NewLight(light.LightTypePoint, light.WithColor(1, 0, 0))))
	require.True(t, r.AddLight(light.NewLight(light.LightTypePoint, light.WithColor(0, 0, 1))))
	f.queue.InsertRenderable(r)

	f.queue.Traverse(f.visitor, 1)

	require.Len(t, f.enc.data, 2)
	lightCountOffset := 64 + 16 + 12
	for _, d := range f.enc.data {
		assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(d[lightCountOffset:]))
	}
	assert.NotEqual(t, f.enc.data[0], f.enc.data[1])
	// Geometry uploads once even though it is drawn twice.
	assert.Equal(t, 2, f.dev.Writes())
}

func TestDrawVisitorClearsLightsBetweenDrawables(t *testing.T) {
	f := newVisitorFixture(t, 8, "flat")
	m := flatMaterial("flat")
	lit := f.indexedTriangle(m, 1)
	require.True(t, lit.AddLight(light.NewLight(light.LightTypePoint)))
	f.queue.InsertRenderable(lit)
	f.queue.InsertRenderable(f.indexedTriangle(m, 2))

	f.queue.Traverse(f.visitor, 1)

	require.Len(t, f.enc.data, 2)
	lightCountOffset := 64 + 16 + 12
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(f.enc.data[0][lightCountOffset:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(f.enc.data[1][lightCountOffset:]))
}

func TestNewDrawVisitorPanicsWithoutPool(t *testing.T) {
	assert.Panics(t, func() {
		newDrawVisitor(nil, nil, nil)
	})
}

func TestDrawVisitorSkipsArrangementThePipelineCannotDraw(t *testing.T) {
	f := newVisitorFixture(t, 8, "flat")
	f.pipelines["lines"] = pipeline.NewPipeline("lines", pipeline.WithArrangement(common.ArrangementLineList))

	strayLines := f.indexedTriangle(flatMaterial("flat"), 1)
	strayLines.Arrangement = common.ArrangementLineList
	lines := f.indexedTriangle(flatMaterial("lines"), 2)
	lines.Arrangement = common.ArrangementLineList
	fan := f.indexedTriangle(flatMaterial("flat"), 3)
	fan.Arrangement = common.ArrangementTriangleFan

	f.queue.InsertRenderable(strayLines)
	f.queue.InsertRenderable(lines)
	f.queue.InsertRenderable(fan)
	f.queue.Traverse(f.visitor, 1)

	st := f.visitor.Stats()
	assert.Equal(t, 1, st.Skipped)
	assert.Equal(t, 2, st.Draws)
	assert.Len(t, f.enc.data, 2)
	assert.Equal(t, []string{"indexed:3:0", "indexed:3:0"}, f.enc.draws)
}
