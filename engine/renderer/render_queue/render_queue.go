package render_queue

import (
	"sync"

	"github.com/google/btree"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/renderable"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// RenderTarget is whatever a frame is being drawn for, typically a scene.
type RenderTarget interface {
	Name() string
}

// TraversalStats summarizes one Traverse call.
type TraversalStats struct {
	FrameID           uint64
	Entries           int
	GroupChanges      int
	PassChanges       int
	LightApplications int
	Visits            int
}

// entry is one (drawable, pass) pair. seq orders entries with equal keys by arrival.
type entry struct {
	key        SortKey
	seq        uint64
	group      RenderGroup
	pass       material.Pass
	renderable renderable.Renderable
}

func entryLess(a, b *entry) bool {
	if a.key != b.key {
		return a.key < b.key
	}
	return a.seq < b.seq
}

// renderQueue is the implementation of the RenderQueue interface.
type renderQueue struct {
	mu *sync.Mutex

	degree  int
	entries *btree.BTreeG[*entry]
	seq     uint64

	target  RenderTarget
	factory RenderGroupFactory
	camera  camera.Camera

	lastFrameID uint64
}

// RenderQueue holds one frame's drawables sorted by sort key.
//
// A frame is Reset, filled by InsertRenderable (from any number of goroutines),
// drained once by Traverse on the render thread, and then cleared. The queue
// holds exactly one entry per (drawable, pass) inserted since the last clear.
type RenderQueue interface {
	// Reset binds the queue to a frame's target, factory and camera and clears
	// prior contents. Panics if factory is nil.
	//
	// Parameters:
	//   - target: the frame's render target
	//   - factory: builds sort keys and groups for the active backend
	//   - cam: the frame camera (may be nil)
	Reset(target RenderTarget, factory RenderGroupFactory, cam camera.Camera)

	// InsertRenderable adds one entry per material pass. Invisible drawables,
	// drawables with nothing to draw, and materials without passes are skipped.
	// Safe for concurrent use. Panics if called before Reset.
	//
	// Parameters:
	//   - r: the drawable, copied into the queue
	InsertRenderable(r renderable.Renderable)

	// Clear empties the queue.
	Clear()

	// Count returns the number of entries.
	//
	// Returns:
	//   - int: the entry count
	Count() int

	// Traverse visits every entry in ascending key order.
	//
	// Parameters:
	//   - v: the visitor receiving the draw stream
	//   - frameID: the frame identifier passed to StartTraversal
	//
	// Returns:
	//   - TraversalStats: counts of what the visitor was told
	Traverse(v Visitor, frameID uint64) TraversalStats

	// Target returns the target bound by the last Reset.
	Target() RenderTarget

	// Camera returns the camera bound by the last Reset.
	Camera() camera.Camera

	// LastFrameID returns the frame id of the last traversal.
	LastFrameID() uint64
}

var _ RenderQueue = &renderQueue{}

// NewRenderQueue creates an empty queue.
//
// Parameters:
//   - options: variadic list of RenderQueueBuilderOption functions
//
// Returns:
//   - RenderQueue: the queue
func NewRenderQueue(options ...RenderQueueBuilderOption) RenderQueue {
	q := &renderQueue{
		mu:     &sync.Mutex{},
		degree: 32,
	}
	for _, opt := range options {
		opt(q)
	}
	q.entries = btree.NewG[*entry](q.degree, entryLess)
	return q
}

func (q *renderQueue) Reset(target RenderTarget, factory RenderGroupFactory, cam camera.Camera) {
	if factory == nil {
		panic("render_queue: Reset requires a non-nil RenderGroupFactory")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.target = target
	q.factory = factory
	q.camera = cam
	q.clear()
}

func (q *renderQueue) InsertRenderable(r renderable.Renderable) {
	if !r.Visible || !r.HasDrawData() || r.Material == nil {
		return
	}
	passes := r.Material.Passes()
	if len(passes) == 0 {
		return
	}

	q.mu.Lock()
	factory, cam := q.factory, q.camera
	q.mu.Unlock()
	if factory == nil {
		panic("render_queue: InsertRenderable called before Reset")
	}

	batch := make([]*entry, 0, len(passes))
	for _, pass := range passes {
		key, group := factory.PrepareRenderGroup(&r, pass, cam)
		batch = append(batch, &entry{key: key, group: group, pass: pass, renderable: r})
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range batch {
		q.seq++
		e.seq = q.seq
		q.entries.ReplaceOrInsert(e)
	}
}

func (q *renderQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.clear()
}

func (q *renderQueue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.entries.Len()
}

func (q *renderQueue) Traverse(v Visitor, frameID uint64) TraversalStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := TraversalStats{FrameID: frameID}
	q.lastFrameID = frameID

	v.StartTraversal(frameID)

	var prevGroup RenderGroup
	var prevPass material.Pass
	q.entries.Ascend(func(e *entry) bool {
		stats.Entries++

		if prevGroup == nil || prevGroup.GroupID() != e.group.GroupID() {
			v.ChangeRenderGroup(prevGroup, e.group)
			stats.GroupChanges++
			prevGroup = e.group
		}
		if prevPass != e.pass {
			v.ChangeMaterialPass(prevPass, e.pass)
			stats.PassChanges++
			prevPass = e.pass
		}

		r := &e.renderable
		lights := r.LightSlice()
		switch e.pass.Iteration() {
		case material.IterationOncePerLight:
			for i := range lights {
				v.ApplyLights(lights[i : i+1])
				stats.LightApplications++
				v.Visit(r, e.pass, i)
				stats.Visits++
			}
		default:
			iterations := 1
			if e.pass.Iteration() == material.IterationFixed {
				iterations = e.pass.IterationCount()
			}
			if len(lights) > 0 && iterations > 0 {
				v.ApplyLights(lights)
				stats.LightApplications++
			}
			for i := 0; i < iterations; i++ {
				v.Visit(r, e.pass, i)
				stats.Visits++
			}
		}
		return true
	})

	v.EndTraversal()
	return stats
}

func (q *renderQueue) Target() RenderTarget {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.target
}

func (q *renderQueue) Camera() camera.Camera {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.camera
}

func (q *renderQueue) LastFrameID() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastFrameID
}

// clear must be called with mu held.
func (q *renderQueue) clear() {
	q.entries.Clear(false)
	q.seq = 0
}
