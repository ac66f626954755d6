package scene

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/renderable"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/render_queue"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/vbo_manager"
)

// distanceVisitor records the camera distance of every visited drawable.
type distanceVisitor struct {
	render_queue.BaseVisitor
	frames    []uint64
	distances []float32
}

func (v *distanceVisitor) StartTraversal(frameID uint64) {
	v.frames = append(v.frames, frameID)
}

func (v *distanceVisitor) Visit(r *renderable.Renderable, _ material.Pass, _ int) {
	v.distances = append(v.distances, -r.Centroid[2])
}

func newTestScene(t *testing.T, options ...SceneBuilderOption) Scene {
	t.Helper()
	cam := camera.NewCamera(camera.WithPosition(0, 0, 0), camera.WithTarget(0, 0, -1))
	s := NewScene("test", cam, append([]SceneBuilderOption{WithProducerWorkers(4)}, options...)...)
	t.Cleanup(s.Release)
	return s
}

func drawableAt(m material.Material, d float32) renderable.Renderable {
	r := renderable.New(nil, m)
	r.IndexCount = 3
	r.SetTranslation(0, 0, -d)
	return r
}

// rowProducer emits n drawables at distances base, base+step, ...
func rowProducer(m material.Material, base, step float32, n int) Producer {
	return func(emit func(renderable.Renderable)) {
		for i := range n {
			emit(drawableAt(m, base+step*float32(i)))
		}
	}
}

func TestRenderFrameTraversesAllProducersInKeyOrder(t *testing.T) {
	m := material.NewMaterial(material.WithPass(material.WithPipelineKey("flat")))
	s := newTestScene(t)
	for p := range 8 {
		s.AddProducer(rowProducer(m, float32(p)+0.5, 8, 10))
	}

	v := &distanceVisitor{}
	stats := s.RenderFrame(nil, render_queue.NewDefaultRenderGroupFactory(), v)

	assert.Equal(t, uint64(1), stats.FrameID)
	assert.Equal(t, 8, stats.Producers)
	assert.Equal(t, 80, stats.Produced)
	assert.Equal(t, 80, stats.Traversal.Entries)
	assert.Equal(t, 80, stats.Traversal.Visits)
	require.Len(t, v.distances, 80)
	for i := 1; i < len(v.distances); i++ {
		assert.LessOrEqual(t, v.distances[i-1], v.distances[i], "visit %d", i)
	}
	assert.Equal(t, 0, s.Queue().Count())
}

func TestRenderFrameIDsIncrease(t *testing.T) {
	s := newTestScene(t)
	v := &distanceVisitor{}
	f := render_queue.NewDefaultRenderGroupFactory()

	s.RenderFrame(nil, f, v)
	s.RenderFrame(nil, f, v)
	last := s.RenderFrame(nil, f, v)

	assert.Equal(t, []uint64{1, 2, 3}, v.frames)
	assert.Equal(t, uint64(3), last.FrameID)
	assert.Equal(t, uint64(3), s.LastFrameID())
}

func TestRenderFrameTargetsSceneByDefault(t *testing.T) {
	s := newTestScene(t)
	s.RenderFrame(nil, render_queue.NewDefaultRenderGroupFactory(), nil)
	require.NotNil(t, s.Queue().Target())
	assert.Equal(t, "test", s.Queue().Target().Name())
}

func TestRenderFrameCountsRejectedDrawables(t *testing.T) {
	m := material.NewMaterial(material.WithPass(material.WithPipelineKey("flat")))
	s := newTestScene(t, WithProducers(func(emit func(renderable.Renderable)) {
		hidden := drawableAt(m, 1)
		hidden.Visible = false
		emit(hidden)
		emit(drawableAt(m, 2))
	}))

	stats := s.RenderFrame(nil, render_queue.NewDefaultRenderGroupFactory(), nil)
	assert.Equal(t, 2, stats.Produced)
	assert.Equal(t, 1, stats.Traversal.Entries)
}

func TestPanickingProducerDoesNotStallFrame(t *testing.T) {
	m := material.NewMaterial(material.WithPass(material.WithPipelineKey("flat")))
	s := newTestScene(t,
		WithProducers(
			func(emit func(renderable.Renderable)) { panic("boom") },
			rowProducer(m, 1, 1, 3),
		),
	)

	stats := s.RenderFrame(nil, render_queue.NewDefaultRenderGroupFactory(), nil)
	assert.Equal(t, 3, stats.Traversal.Entries)

	// The workers survive for the next frame.
	stats = s.RenderFrame(nil, render_queue.NewDefaultRenderGroupFactory(), nil)
	assert.Equal(t, 3, stats.Traversal.Entries)
}

func TestRemoveProducer(t *testing.T) {
	m := material.NewMaterial(material.WithPass(material.WithPipelineKey("flat")))
	s := newTestScene(t)
	a := s.AddProducer(rowProducer(m, 1, 1, 2))
	s.AddProducer(rowProducer(m, 5, 1, 3))
	require.Equal(t, 2, s.ProducerCount())

	s.RemoveProducer(a)
	s.RemoveProducer(999)
	assert.Equal(t, 1, s.ProducerCount())

	stats := s.RenderFrame(nil, render_queue.NewDefaultRenderGroupFactory(), nil)
	assert.Equal(t, 3, stats.Produced)
}

func TestProducersRunConcurrently(t *testing.T) {
	const n = 4
	var started sync.WaitGroup
	started.Add(n)
	release := make(chan struct{})

	s := newTestScene(t)
	for range n {
		s.AddProducer(func(emit func(renderable.Renderable)) {
			started.Done()
			<-release
		})
	}

	go func() {
		// Every producer must be running at once before any can return.
		started.Wait()
		close(release)
	}()
	stats := s.RenderFrame(nil, render_queue.NewDefaultRenderGroupFactory(), nil)
	assert.Equal(t, n, stats.Producers)
}

func TestFrameStatsIncludePool(t *testing.T) {
	pool := vbo_manager.NewVBOManager(device.NewMemoryDevice())
	s := newTestScene(t, WithPool(pool))
	assert.Same(t, pool, s.Pool())

	stats := s.RenderFrame(nil, render_queue.NewDefaultRenderGroupFactory(), nil)
	assert.Equal(t, pool.Stats(), stats.Pool)
}

func TestNewScenePanicsWithoutCamera(t *testing.T) {
	assert.Panics(t, func() { NewScene("x", nil) })
}
