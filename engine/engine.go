package engine

import (
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-render/engine/profiler"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/render_queue"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
)

// engine is the implementation of the Engine interface.
type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	renderer renderer.Renderer

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32, stats scene.FrameStats)

	scenes      map[int]scene.Scene
	visitors    map[int]renderer.DrawVisitor
	activeScene int

	// Headless frames key drawables with this factory.
	headlessFactory render_queue.RenderGroupFactory

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine runs the frame loop: a tick goroutine at a fixed rate for simulation callbacks, and a
// render loop on the calling goroutine that renders the active scene each frame.
//
// Without a window and renderer the engine runs headless: the active scene's queue is still
// built and traversed every frame, but nothing is drawn.
type Engine interface {
	// Window returns the engine window, or nil when headless.
	//
	// Returns:
	//   - window.Window: the window
	Window() window.Window

	// Renderer returns the engine renderer, or nil when headless.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// EnableProfiler turns on per-frame profiling.
	EnableProfiler()

	// DisableProfiler turns off per-frame profiling.
	DisableProfiler()

	// SetTickRate sets how often the tick callback runs.
	//
	// Parameters:
	//   - fps: ticks per second, 60 when not positive
	SetTickRate(fps float64)

	// SetTickCallback sets the callback run on the tick goroutine.
	//
	// Parameters:
	//   - callback: called with the seconds since the previous tick
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback sets the callback run on the render loop after each frame.
	//
	// Parameters:
	//   - callback: called with the seconds since the previous frame and the frame's stats
	SetRenderCallback(callback func(deltaTime float32, stats scene.FrameStats))

	// SetRenderFrameLimit caps the render loop's frame rate.
	//
	// Parameters:
	//   - fps: frames per second, uncapped when not positive
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene under key. Scenes drawn by a renderer need a pool (scene.WithPool).
	//
	// Parameters:
	//   - key: the scene key
	//   - s: the scene
	AddScene(key int, s scene.Scene)

	// RemoveScene unregisters and releases a scene.
	//
	// Parameters:
	//   - key: the scene key
	RemoveScene(key int)

	// Scene returns the scene registered under key, or nil.
	//
	// Parameters:
	//   - key: the scene key
	//
	// Returns:
	//   - scene.Scene: the scene
	Scene(key int) scene.Scene

	// Scenes returns a copy of the registered scenes.
	//
	// Returns:
	//   - map[int]scene.Scene: scenes by key
	Scenes() map[int]scene.Scene

	// SetActiveScene selects the scene rendered each frame.
	//
	// Parameters:
	//   - key: the scene key
	SetActiveScene(key int)

	// Run starts the tick goroutine and runs the render loop on the calling goroutine until the
	// window closes or Quit is called.
	Run()

	// Quit stops the engine.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine with the specified options.
//
// Parameters:
//   - options: functional options to configure the engine
//
// Returns:
//   - Engine: the configured engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:              &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		scenes:          make(map[int]scene.Scene),
		visitors:        make(map[int]renderer.DrawVisitor),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
		headlessFactory: render_queue.NewDefaultRenderGroupFactory(),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if e.renderer != nil {
				e.renderer.Resize(width, height)
			}
			for _, s := range e.Scenes() {
				s.Camera().SetAspect(float32(width) / float32(height))
			}
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Run() {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	e.wg.Add(1)
	go e.handleEngine()
	e.handleRender()

	e.signalQuit()
	e.wg.Wait()
}

func (e *engine) Quit() {
	e.signalQuit()
}

func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(e.quitChannel)
	})
}

// handleEngine runs the tick callback at the engine tick rate until quit.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	e.mu.Lock()
	rate := e.engineTickRate
	e.mu.Unlock()
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if cb := e.tick(); cb != nil {
				cb(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
		}
	}
}

// handleRender renders frames until quit or until the window closes.
func (e *engine) handleRender() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] render loop recovered from panic: %v", r)
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		if e.window != nil && !e.window.ProcessMessages() {
			return
		}

		frameStart := time.Now()
		dt := float32(frameStart.Sub(lastRender).Seconds())
		lastRender = frameStart

		stats, ok := e.renderFrame()

		e.mu.Lock()
		renderCallback := e.renderCallback
		profiling := e.profilingEnabled
		limit := e.renderFrameLimit
		e.mu.Unlock()

		if ok {
			if renderCallback != nil {
				renderCallback(dt, stats)
			}
			if profiling && e.profiler != nil {
				e.profiler.Tick(stats)
			}
		}

		if limit > 0 {
			if remaining := limit - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// renderFrame renders the active scene once. It reports false when there is nothing to render
// or the frame could not begin.
func (e *engine) renderFrame() (scene.FrameStats, bool) {
	e.mu.Lock()
	key := e.activeScene
	s := e.scenes[key]
	e.mu.Unlock()
	if s == nil {
		return scene.FrameStats{}, false
	}

	if e.renderer == nil {
		return s.RenderFrame(nil, e.headlessFactory, nil), true
	}

	visitor := e.visitor(key, s)
	if visitor == nil {
		return scene.FrameStats{}, false
	}
	if err := e.renderer.BeginFrame(s.Camera()); err != nil {
		log.Printf("[Engine] failed to begin frame: %v", err)
		return scene.FrameStats{}, false
	}
	stats := s.RenderFrame(nil, e.renderer.RenderGroupFactory(), visitor)
	e.renderer.EndFrame()
	e.renderer.Present()
	return stats, true
}

func (e *engine) visitor(key int, s scene.Scene) renderer.DrawVisitor {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.visitors[key]; ok {
		return v
	}
	if s.Pool() == nil {
		log.Printf("[Engine] scene %q has no pool and cannot be drawn", s.Name())
		e.visitors[key] = nil
		return nil
	}
	v := e.renderer.NewVisitor(s.Pool())
	e.visitors[key] = v
	return v
}

func (e *engine) tick() func(float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tickCallback
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	e.mu.Lock()
	running := e.running
	e.engineTickRate = newRate
	e.mu.Unlock()

	if running {
		// Replace any pending rate so the latest one wins.
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32, stats scene.FrameStats)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
	delete(e.visitors, key)
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	s, ok := e.scenes[key]
	delete(e.scenes, key)
	delete(e.visitors, key)
	e.mu.Unlock()
	if ok {
		s.Release()
	}
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}

func (e *engine) SetActiveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activeScene = key
}
