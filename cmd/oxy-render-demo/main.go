// Command oxy-render-demo draws a grid of opaque quads behind a grid of translucent quads and
// fans, all submitted through the render queue and drawn from pooled vertex buffers.
//
// Keys: Space pauses the wave, B toggles the translucent layer, P toggles vsync, W/S move the
// camera, Escape quits.
package main

import (
	"flag"
	"log"
	"math"
	"sync/atomic"

	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderable"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/vbo_manager"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
)

const (
	quadSpacing = 1.5
	fanSegments = 12
)

var (
	gridSize   = flag.Int("grid", 24, "quads per side of the opaque grid")
	poolConfig = flag.String("pool-config", "", "TOML file with the vertex buffer pool configuration")
	msaa       = flag.Bool("msaa", true, "enable 4x multisampling")
	vsync      = flag.Bool("vsync", true, "start with vsync enabled")
)

// demoState is shared between the tick goroutine, the key callback and the producers.
type demoState struct {
	time       atomic.Uint32 // float32 bits
	paused     atomic.Bool
	showGlass  atomic.Bool
	vsync      atomic.Bool
	camDist    atomic.Uint32 // float32 bits
	camChanged atomic.Bool
}

func (s *demoState) seconds() float32 {
	return math.Float32frombits(s.time.Load())
}

func (s *demoState) distance() float32 {
	return math.Float32frombits(s.camDist.Load())
}

func main() {
	flag.Parse()

	cfg := vbo_manager.DefaultConfig()
	if *poolConfig != "" {
		loaded, err := vbo_manager.LoadConfig(*poolConfig)
		if err != nil {
			log.Fatalf("[Demo] %v", err)
		}
		cfg = loaded
	}

	win, err := window.NewWindow(
		window.WithTitle("oxy-render demo"),
		window.WithSize(1280, 720),
	)
	if err != nil {
		log.Fatalf("[Demo] %v", err)
	}

	presentMode := renderer.PresentModeUncapped
	if *vsync {
		presentMode = renderer.PresentModeVSync
	}
	sampleCount := renderer.MSAAOff
	if *msaa {
		sampleCount = renderer.MSAA4x
	}
	n := max(*gridSize, 1)
	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
		renderer.WithPresentMode(presentMode),
		renderer.WithMSAA(sampleCount),
		renderer.WithMaxDrawsPerFrame(2*n*n+64),
		renderer.WithClearColor([4]float64{0.05, 0.06, 0.08, 1}),
	)
	if err != nil {
		log.Fatalf("[Demo] %v", err)
	}

	opaque := material.NewMaterial(
		material.WithName("tile"),
		material.WithBaseColor([4]float32{0.8, 0.8, 0.85, 1}),
		material.WithPass(material.WithPassName("base"), material.WithPipelineKey("opaque")),
	)
	glass := material.NewMaterial(
		material.WithName("glass"),
		material.WithBaseColor([4]float32{0.3, 0.6, 1.0, 0.45}),
		material.WithPass(material.WithPassName("glass"), material.WithPipelineKey("blended"), material.WithBlend(material.BlendAlpha)),
	)

	if err := r.RegisterPipelines(
		pipeline.NewPipeline("opaque", pipeline.WithShaderSource(renderer.DefaultShaderSource)),
		pipeline.NewPipeline("blended",
			pipeline.WithShaderSource(renderer.DefaultShaderSource),
			pipeline.ForPass(glass.Passes()[0]),
		),
	); err != nil {
		log.Fatalf("[Demo] %v", err)
	}

	pool := vbo_manager.NewVBOManager(r.BufferDevice(), vbo_manager.WithConfig(cfg))

	ids := &geometry.IDSource{}
	quad := newQuad(ids)
	fan := newFan(ids)

	state := &demoState{}
	state.showGlass.Store(true)
	state.vsync.Store(*vsync)
	state.camDist.Store(math.Float32bits(float32(n) * quadSpacing))

	cam := camera.NewCamera(
		camera.WithPosition(0, float32(n)*0.6, state.distance()),
		camera.WithTarget(0, 0, 0),
		camera.WithAspect(float32(win.Width())/float32(win.Height())),
		camera.WithClipPlanes(0.1, 500),
	)

	sun := light.NewLight(light.LightTypePoint,
		light.WithPosition(0, 6, 0),
		light.WithColor(1, 0.9, 0.7),
		light.WithIntensity(1.5),
		light.WithRange(float32(n)*quadSpacing),
	)

	producers := make([]scene.Producer, 0, n+1)
	for row := range n {
		producers = append(producers, tileRow(row, n, quad, opaque, sun, state))
	}
	producers = append(producers, glassLayer(n, quad, fan, glass, state))

	s := scene.NewScene("demo", cam, scene.WithPool(pool), scene.WithProducers(producers...))

	e := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithScene(0, s),
		engine.WithProfiling(true),
		engine.WithTickRate(60),
	)

	win.SetKeyCallback(func(key uint32, down bool) {
		if !down {
			return
		}
		switch key {
		case common.KeySpace:
			state.paused.Store(!state.paused.Load())
		case common.KeyB:
			state.showGlass.Store(!state.showGlass.Load())
		case common.KeyP:
			on := !state.vsync.Load()
			state.vsync.Store(on)
			mode := renderer.PresentModeUncapped
			if on {
				mode = renderer.PresentModeVSync
			}
			r.SetPresentMode(mode)
			r.Resize(win.Width(), win.Height())
		case common.KeyW:
			state.camDist.Store(math.Float32bits(max(state.distance()-1, 2)))
			state.camChanged.Store(true)
		case common.KeyS:
			state.camDist.Store(math.Float32bits(state.distance() + 1))
			state.camChanged.Store(true)
		}
	})

	e.SetTickCallback(func(dt float32) {
		if !state.paused.Load() {
			state.time.Store(math.Float32bits(state.seconds() + dt))
		}
		if state.camChanged.Swap(false) {
			cam.SetPosition(0, float32(n)*0.6, state.distance())
		}
	})

	e.Run()

	s.Release()
	pool.Destroy()
	r.Release()
	if err := win.Close(); err != nil {
		log.Printf("[Demo] %v", err)
	}
}

// tileRow emits one row of the opaque grid, waving along y over time.
func tileRow(row, n int, quad *geometry.Geometry, m material.Material, sun light.Light, state *demoState) scene.Producer {
	half := float32(n-1) * quadSpacing / 2
	return func(emit func(renderable.Renderable)) {
		t := state.seconds()
		z := float32(row)*quadSpacing - half
		for col := range n {
			x := float32(col)*quadSpacing - half
			y := 0.4 * math32.Sin(t*2+x*0.5+z*0.3)

			d := renderable.New(quad, m)
			d.SetTranslation(x, y, z)
			if sun.Affects(d.Centroid) {
				d.AddLight(sun)
			}
			emit(d)
		}
	}
}

// glassLayer emits translucent quads and fans floating above the grid.
func glassLayer(n int, quad, fan *geometry.Geometry, m material.Material, state *demoState) scene.Producer {
	half := float32(n-1) * quadSpacing / 2
	return func(emit func(renderable.Renderable)) {
		if !state.showGlass.Load() {
			return
		}
		t := state.seconds()
		for i := 0; i < n; i += 2 {
			for j := 0; j < n; j += 3 {
				x := float32(i)*quadSpacing - half
				z := float32(j)*quadSpacing - half

				g := quad
				if (i/2+j/3)%2 == 1 {
					g = fan
				}
				d := renderable.New(g, m)
				if g == fan {
					d.Arrangement = common.ArrangementTriangleFan
				}
				d.SetTranslation(x, 2+0.3*math32.Cos(t+float32(i+j)), z)
				emit(d)
			}
		}
	}
}

// newQuad builds a unit quad in the XZ plane with white vertex colors.
func newQuad(ids *geometry.IDSource) *geometry.Geometry {
	format := geometry.VertexFormat{Attributes: geometry.AttributePosition | geometry.AttributeColor}
	return geometry.NewGeometry(ids,
		geometry.WithVertices(geometry.NewVertexData(format, []float32{
			-0.5, 0, -0.5, 1, 1, 1, 1,
			0.5, 0, -0.5, 1, 1, 1, 1,
			0.5, 0, 0.5, 1, 1, 1, 1,
			-0.5, 0, 0.5, 1, 1, 1, 1,
		})),
		geometry.WithIndices(geometry.NewIndexData16([]uint16{0, 2, 1, 0, 3, 2})),
	)
}

// newFan builds a disc in the XZ plane as a triangle fan around its center vertex.
func newFan(ids *geometry.IDSource) *geometry.Geometry {
	format := geometry.VertexFormat{Attributes: geometry.AttributePosition | geometry.AttributeColor}
	components := []float32{0, 0, 0, 1, 1, 1, 1}
	for i := 0; i <= fanSegments; i++ {
		a := float32(i) / fanSegments * 2 * math32.Pi
		components = append(components, 0.6*math32.Cos(a), 0, 0.6*math32.Sin(a), 1, 1, 1, 0.8)
	}
	return geometry.NewGeometry(ids,
		geometry.WithVertices(geometry.NewVertexData(format, components)),
		geometry.WithIndices(geometry.FanIndices(geometry.VertexRange{First: 0, Count: fanSegments + 2})),
	)
}
