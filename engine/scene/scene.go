package scene

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/renderable"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/render_queue"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/vbo_manager"
)

// Producer emits the drawables of one part of the scene for the current frame. Producers run
// concurrently with each other and must not retain emit past their return.
type Producer func(emit func(r renderable.Renderable))

// FrameStats describes one rendered frame.
type FrameStats struct {
	FrameID   uint64
	Producers int
	// Produced counts every emitted drawable, including ones the queue rejected.
	Produced  int
	Traversal render_queue.TraversalStats
	// Pool is the VBO manager snapshot taken after traversal, zero when the scene has no pool.
	Pool     vbo_manager.Stats
	Duration time.Duration
}

type producerEntry struct {
	id uint64
	fn Producer
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu       *sync.RWMutex
	frameMu  *sync.Mutex
	name     string
	cam      camera.Camera
	queue    render_queue.RenderQueue
	pool     vbo_manager.VBOManager
	degree   int
	frameID  uint64
	released bool

	producers      []producerEntry
	nextProducerID uint64

	// producerPool runs producers on reusable goroutines. Workers persist across frames.
	producerPool    worker.DynamicWorkerPool
	producerWorkers int
}

// Scene drives a frame: it fans the registered producers out over a worker pool, collects their
// drawables into a render queue, and traverses the queue with a visitor.
type Scene interface {
	// Name returns the scene name. A Scene is usable as a render_queue.RenderTarget.
	//
	// Returns:
	//   - string: the scene name
	Name() string

	// Camera returns the camera drawables are keyed against.
	//
	// Returns:
	//   - camera.Camera: the scene camera
	Camera() camera.Camera

	// SetCamera replaces the scene camera. Takes effect on the next frame.
	//
	// Parameters:
	//   - cam: the new camera (must not be nil)
	SetCamera(cam camera.Camera)

	// Queue returns the scene's render queue.
	//
	// Returns:
	//   - render_queue.RenderQueue: the queue
	Queue() render_queue.RenderQueue

	// Pool returns the VBO manager attached with WithPool, or nil.
	//
	// Returns:
	//   - vbo_manager.VBOManager: the pool
	Pool() vbo_manager.VBOManager

	// AddProducer registers a producer run every frame.
	//
	// Parameters:
	//   - p: the producer (must not be nil)
	//
	// Returns:
	//   - uint64: an id for RemoveProducer
	AddProducer(p Producer) uint64

	// RemoveProducer unregisters a producer. Unknown ids are ignored.
	//
	// Parameters:
	//   - id: the id returned by AddProducer
	RemoveProducer(id uint64)

	// ProducerCount returns the number of registered producers.
	//
	// Returns:
	//   - int: the producer count
	ProducerCount() int

	// RenderFrame runs one frame. The queue is reset for target with factory and the scene
	// camera, every producer runs on the worker pool, and once all have returned the queue is
	// traversed with visitor on the calling goroutine and cleared.
	//
	// Parameters:
	//   - target: the render target, nil for the scene itself
	//   - factory: the group factory used to key drawables (must not be nil)
	//   - visitor: the traversal visitor, nil to build and discard the queue
	//
	// Returns:
	//   - FrameStats: the frame's statistics
	RenderFrame(target render_queue.RenderTarget, factory render_queue.RenderGroupFactory, visitor render_queue.Visitor) FrameStats

	// LastFrameID returns the id of the last rendered frame, 0 before the first.
	//
	// Returns:
	//   - uint64: the frame id
	LastFrameID() uint64

	// Release stops the producer workers. The scene must not render afterwards.
	Release()
}

var _ Scene = &scene{}
var _ render_queue.RenderTarget = &scene{}

// NewScene creates a new Scene with the given name and camera. The camera is required and NewScene
// panics if it is nil.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}

	s := &scene{
		mu:              &sync.RWMutex{},
		frameMu:         &sync.Mutex{},
		name:            name,
		cam:             cam,
		nextProducerID:  1,
		producerWorkers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	if s.queue == nil {
		var queueOpts []render_queue.RenderQueueBuilderOption
		if s.degree > 0 {
			queueOpts = append(queueOpts, render_queue.WithDegree(s.degree))
		}
		s.queue = render_queue.NewRenderQueue(queueOpts...)
	}

	// Initialize the pool after options so WithProducerWorkers can override the default.
	s.producerPool = worker.NewDynamicWorkerPool(s.producerWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	if cam == nil {
		panic("scene: SetCamera requires a non-nil Camera")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Queue() render_queue.RenderQueue {
	return s.queue
}

func (s *scene) Pool() vbo_manager.VBOManager {
	return s.pool
}

func (s *scene) AddProducer(p Producer) uint64 {
	if p == nil {
		panic("scene: AddProducer requires a non-nil Producer")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextProducerID
	s.nextProducerID++
	s.producers = append(s.producers, producerEntry{id: id, fn: p})
	return id
}

func (s *scene) RemoveProducer(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.producers {
		if p.id == id {
			s.producers = append(s.producers[:i], s.producers[i+1:]...)
			return
		}
	}
}

func (s *scene) ProducerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.producers)
}

func (s *scene) RenderFrame(target render_queue.RenderTarget, factory render_queue.RenderGroupFactory, visitor render_queue.Visitor) FrameStats {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	start := time.Now()

	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		panic("scene: RenderFrame called after Release")
	}
	s.frameID++
	frameID := s.frameID
	cam := s.cam
	producers := make([]producerEntry, len(s.producers))
	copy(producers, s.producers)
	s.mu.Unlock()

	if target == nil {
		target = s
	}
	if visitor == nil {
		visitor = render_queue.BaseVisitor{}
	}

	s.queue.Reset(target, factory, cam)

	var produced atomic.Int64
	emit := func(r renderable.Renderable) {
		produced.Add(1)
		s.queue.InsertRenderable(r)
	}

	// A WaitGroup gives the per-frame barrier; pool.Wait() is meant for draining the pool.
	var wg sync.WaitGroup
	for i, p := range producers {
		wg.Add(1)
		fn := p.fn
		id := p.id
		s.producerPool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				if err := runProducer(fn, emit); err != nil {
					log.Printf("[Scene] %s: producer %d: %v", s.name, id, err)
					return nil, err
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	traversal := s.queue.Traverse(visitor, frameID)
	s.queue.Clear()

	stats := FrameStats{
		FrameID:   frameID,
		Producers: len(producers),
		Produced:  int(produced.Load()),
		Traversal: traversal,
	}
	if s.pool != nil {
		stats.Pool = s.pool.Stats()
	}
	stats.Duration = time.Since(start)
	return stats
}

func (s *scene) LastFrameID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frameID
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	s.producerPool.Stop()
}

// runProducer keeps a panicking producer from taking its worker down with it.
func runProducer(p Producer, emit func(renderable.Renderable)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	p(emit)
	return nil
}
