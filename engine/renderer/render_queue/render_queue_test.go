package render_queue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderable"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

type testTarget string

func (t testTarget) Name() string { return string(t) }

type visit struct {
	z         float32
	priority  int
	pass      int
	iteration int
}

// recordingVisitor logs every callback it receives.
type recordingVisitor struct {
	events  []string
	visits  []visit
	applied [][]light.Light
}

func (v *recordingVisitor) StartTraversal(frameID uint64) {
	v.events = append(v.events, fmt.Sprintf("start:%d", frameID))
}

func (v *recordingVisitor) ChangeRenderGroup(prev, next RenderGroup) {
	v.events = append(v.events, "group")
}

func (v *recordingVisitor) ChangeMaterialPass(prev, next material.Pass) {
	v.events = append(v.events, fmt.Sprintf("pass:%d", next.Index()))
}

func (v *recordingVisitor) ApplyLights(lights []light.Light) {
	v.events = append(v.events, fmt.Sprintf("lights:%d", len(lights)))
	v.applied = append(v.applied, lights)
}

func (v *recordingVisitor) Visit(r *renderable.Renderable, pass material.Pass, iteration int) {
	v.events = append(v.events, "visit")
	v.visits = append(v.visits, visit{z: r.Centroid[2], priority: r.Priority, pass: pass.Index(), iteration: iteration})
}

func (v *recordingVisitor) EndTraversal() {
	v.events = append(v.events, "end")
}

func (v *recordingVisitor) distances() []float32 {
	out := make([]float32, 0, len(v.visits))
	for _, vis := range v.visits {
		out = append(out, -vis.z)
	}
	return out
}

// drawable returns a visible drawable with index data at distance d in front of
// a camera at the origin looking down -Z.
func drawable(m material.Material, d float32) renderable.Renderable {
	r := renderable.New(nil, m)
	r.IndexCount = 3
	r.SetTranslation(0, 0, -d)
	return r
}

func newQueue(t *testing.T) RenderQueue {
	t.Helper()
	q := NewRenderQueue()
	cam := camera.NewCamera(camera.WithPosition(0, 0, 0), camera.WithTarget(0, 0, -1))
	q.Reset(testTarget("test"), NewDefaultRenderGroupFactory(), cam)
	return q
}

func TestOpaqueTraversesFrontToBack(t *testing.T) {
	q := newQueue(t)
	m := material.NewMaterial(material.WithPass(material.WithPipelineKey("opaque")))
	for _, d := range []float32{5, 1, 9} {
		q.InsertRenderable(drawable(m, d))
	}

	v := &recordingVisitor{}
	q.Traverse(v, 1)
	assert.Equal(t, []float32{1, 5, 9}, v.distances())
}

func TestBlendedTraversesBackToFront(t *testing.T) {
	q := newQueue(t)
	m := material.NewMaterial(material.WithPass(material.WithPipelineKey("glass"), material.WithBlend(material.BlendAlpha)))
	for _, d := range []float32{5, 1, 9} {
		q.InsertRenderable(drawable(m, d))
	}

	v := &recordingVisitor{}
	q.Traverse(v, 1)
	assert.Equal(t, []float32{9, 5, 1}, v.distances())
}

func TestOpaqueDrawsBeforeBlended(t *testing.T) {
	q := newQueue(t)
	glass := material.NewMaterial(material.WithPass(material.WithBlend(material.BlendAlpha)))
	stone := material.NewMaterial(material.WithPass())

	q.InsertRenderable(drawable(glass, 2))
	q.InsertRenderable(drawable(stone, 800))

	v := &recordingVisitor{}
	q.Traverse(v, 1)
	assert.Equal(t, []float32{800, 2}, v.distances())
}

func TestMultiPassMaterialYieldsOneEntryPerPass(t *testing.T) {
	q := newQueue(t)
	m := material.NewMaterial(
		material.WithPass(material.WithPipelineKey("depth")),
		material.WithPass(material.WithPipelineKey("color")),
		material.WithPass(material.WithPipelineKey("outline")),
	)
	q.InsertRenderable(drawable(m, 3))
	require.Equal(t, 3, q.Count())

	v := &recordingVisitor{}
	stats := q.Traverse(v, 1)

	passes := map[int]bool{}
	for _, vis := range v.visits {
		passes[vis.pass] = true
	}
	assert.Len(t, passes, 3)
	assert.Equal(t, 3, stats.Entries)
	assert.Equal(t, 3, stats.PassChanges)
}

func TestSkippedDrawables(t *testing.T) {
	q := newQueue(t)
	m := material.NewMaterial(material.WithPass())

	hidden := drawable(m, 1)
	hidden.Visible = false
	q.InsertRenderable(hidden)

	empty := drawable(m, 1)
	empty.IndexCount = 0
	q.InsertRenderable(empty)

	noPasses := drawable(material.NewMaterial(), 1)
	q.InsertRenderable(noPasses)

	noMaterial := drawable(nil, 1)
	q.InsertRenderable(noMaterial)

	assert.Equal(t, 0, q.Count())
}

func TestClearLeavesOnlyStartAndEnd(t *testing.T) {
	q := newQueue(t)
	m := material.NewMaterial(material.WithPass())
	q.InsertRenderable(drawable(m, 1))
	q.InsertRenderable(drawable(m, 2))
	require.Equal(t, 2, q.Count())

	q.Clear()
	assert.Equal(t, 0, q.Count())

	v := &recordingVisitor{}
	stats := q.Traverse(v, 7)
	assert.Equal(t, []string{"start:7", "end"}, v.events)
	assert.Equal(t, TraversalStats{FrameID: 7}, stats)
	assert.Equal(t, uint64(7), q.LastFrameID())
}

func TestResetClearsPriorContents(t *testing.T) {
	q := newQueue(t)
	q.InsertRenderable(drawable(material.NewMaterial(material.WithPass()), 1))
	require.Equal(t, 1, q.Count())

	q.Reset(testTarget("next"), NewDefaultRenderGroupFactory(), nil)
	assert.Equal(t, 0, q.Count())
	assert.Equal(t, "next", q.Target().Name())
	assert.Nil(t, q.Camera())
}

func TestStateChangesOnlyOnChange(t *testing.T) {
	q := newQueue(t)
	a := material.NewMaterial(material.WithPass(material.WithPipelineKey("a")))
	b := material.NewMaterial(material.WithPass(material.WithPipelineKey("b")))

	for i := 0; i < 3; i++ {
		r := drawable(a, float32(i+1))
		q.InsertRenderable(r)
	}
	late := drawable(b, 1)
	late.Priority = 10
	q.InsertRenderable(late)

	v := &recordingVisitor{}
	stats := q.Traverse(v, 3)

	assert.Equal(t, []string{
		"start:3",
		"group", "pass:0", "visit", "visit", "visit",
		"group", "pass:0", "visit",
		"end",
	}, v.events)
	assert.Equal(t, 2, stats.GroupChanges)
	assert.Equal(t, 2, stats.PassChanges)
	assert.Equal(t, 4, stats.Visits)
}

func TestOncePerLightIteratesLights(t *testing.T) {
	q := newQueue(t)
	m := material.NewMaterial(material.WithPass(material.WithOncePerLight()))

	r := drawable(m, 1)
	lights := []light.Light{
		light.NewLight(light.LightTypePoint),
		light.NewLight(light.LightTypeSpot),
		light.NewLight(light.LightTypeDirectional),
	}
	for _, l := range lights {
		require.True(t, r.AddLight(l))
	}
	q.InsertRenderable(r)

	v := &recordingVisitor{}
	stats := q.Traverse(v, 1)

	assert.Equal(t, []string{
		"start:1", "group", "pass:0",
		"lights:1", "visit", "lights:1", "visit", "lights:1", "visit",
		"end",
	}, v.events)
	require.Len(t, v.applied, 3)
	for i, applied := range v.applied {
		assert.Same(t, lights[i], applied[0])
	}
	for i, vis := range v.visits {
		assert.Equal(t, i, vis.iteration)
	}
	assert.Equal(t, 3, stats.LightApplications)
}

func TestOncePerLightWithoutLightsDrawsNothing(t *testing.T) {
	q := newQueue(t)
	q.InsertRenderable(drawable(material.NewMaterial(material.WithPass(material.WithOncePerLight())), 1))

	v := &recordingVisitor{}
	stats := q.Traverse(v, 1)
	assert.Equal(t, 0, stats.Visits)
	assert.Equal(t, 1, stats.Entries)
}

func TestOnceAppliesAllLightsTogether(t *testing.T) {
	q := newQueue(t)
	r := drawable(material.NewMaterial(material.WithPass()), 1)
	r.AddLight(light.NewLight(light.LightTypePoint))
	r.AddLight(light.NewLight(light.LightTypePoint))
	q.InsertRenderable(r)

	v := &recordingVisitor{}
	q.Traverse(v, 1)
	assert.Equal(t, []string{"start:1", "group", "pass:0", "lights:2", "visit", "end"}, v.events)
}

func TestFixedCountIterations(t *testing.T) {
	q := newQueue(t)
	q.InsertRenderable(drawable(material.NewMaterial(material.WithPass(material.WithFixedIterations(3))), 1))

	v := &recordingVisitor{}
	stats := q.Traverse(v, 1)
	require.Len(t, v.visits, 3)
	for i, vis := range v.visits {
		assert.Equal(t, i, vis.iteration)
	}
	assert.Equal(t, 3, stats.Visits)
	assert.Equal(t, 0, stats.LightApplications)
}

func TestPrecedenceBreaksTies(t *testing.T) {
	q := newQueue(t)
	m := material.NewMaterial(material.WithPass())

	a := drawable(m, 4)
	a.Precedence = 5
	a.Priority = 1
	b := drawable(m, 4)
	b.Precedence = -1
	b.Priority = 2 // priority wins over precedence
	c := drawable(m, 4)
	c.Precedence = -3
	c.Priority = 1

	q.InsertRenderable(a)
	q.InsertRenderable(b)
	q.InsertRenderable(c)

	v := &recordingVisitor{}
	q.Traverse(v, 1)
	require.Len(t, v.visits, 3)
	assert.Equal(t, []int{1, 1, 2}, []int{v.visits[0].priority, v.visits[1].priority, v.visits[2].priority})
}

func TestEqualKeysKeepInsertionOrder(t *testing.T) {
	q := NewRenderQueue(WithDegree(2))
	q.Reset(testTarget("t"), NewDefaultRenderGroupFactory(), nil)
	m := material.NewMaterial(material.WithPass())

	for i := 0; i < 20; i++ {
		r := drawable(m, 0)
		r.Centroid[2] = float32(-i)
		q.InsertRenderable(r)
	}

	v := &recordingVisitor{}
	q.Traverse(v, 1)
	for i, d := range v.distances() {
		assert.Equal(t, float32(i), d)
	}
}

func TestConcurrentInsert(t *testing.T) {
	q := newQueue(t)
	m := material.NewMaterial(material.WithPass())

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r := drawable(m, float32(i))
				r.Priority = (w*37 + i*11) % 200
				q.InsertRenderable(r)
			}
		}(w)
	}
	wg.Wait()
	require.Equal(t, 800, q.Count())

	v := &recordingVisitor{}
	q.Traverse(v, 1)
	require.Len(t, v.visits, 800)
	for i := 1; i < len(v.visits); i++ {
		assert.LessOrEqual(t, v.visits[i-1].priority, v.visits[i].priority)
	}
}

func TestProgrammerErrors(t *testing.T) {
	q := NewRenderQueue()
	assert.Panics(t, func() { q.Reset(testTarget("t"), nil, nil) })
	assert.Panics(t, func() {
		q.InsertRenderable(drawable(material.NewMaterial(material.WithPass()), 1))
	})
}

func TestDefaultFactoryGroups(t *testing.T) {
	m := material.NewMaterial(
		material.WithPass(material.WithPipelineKey("lit"), material.WithTextureID(4)),
		material.WithPass(material.WithPipelineKey("lit"), material.WithTextureID(4)),
		material.WithPass(material.WithPipelineKey("lit"), material.WithTextureID(5)),
		material.WithPass(material.WithPipelineKey("lit"), material.WithTextureID(4), material.WithBlend(material.BlendAdditive)),
	)
	f := NewDefaultRenderGroupFactory(WithDistanceRange(10))
	r := drawable(m, 5)
	cam := camera.NewCamera(camera.WithPosition(0, 0, 0), camera.WithTarget(0, 0, -1))

	passes := m.Passes()
	k0, g0 := f.PrepareRenderGroup(&r, passes[0], cam)
	_, g1 := f.PrepareRenderGroup(&r, passes[1], cam)
	_, g2 := f.PrepareRenderGroup(&r, passes[2], cam)
	_, g3 := f.PrepareRenderGroup(&r, passes[3], cam)

	assert.Equal(t, g0.GroupID(), g1.GroupID())
	assert.NotEqual(t, g0.GroupID(), g2.GroupID())
	assert.NotEqual(t, g0.GroupID(), g3.GroupID())

	assert.Equal(t, uint32(4), k0.TextureID())
	assert.Equal(t, uint32(511), k0.Distance())
}
