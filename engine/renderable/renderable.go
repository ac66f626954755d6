// Package renderable defines the per-frame drawable record handed from scene
// producers to the render queue.
package renderable

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/geometry"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

const (
	// MaxLights is the number of lights a single drawable can reference.
	MaxLights = light.MaxPerDraw

	// PriorityMin is the lowest render priority. Lower priorities draw first.
	PriorityMin = -250
	// PriorityMax is the highest render priority.
	PriorityMax = 250
)

// Renderable describes one potential draw call for one frame. It is built fresh by
// a producer each frame, copied by value into the render queue, and dropped when
// the queue is cleared. It does not own its geometry or material.
type Renderable struct {
	Arrangement common.Arrangement
	Geometry    *geometry.Geometry

	IndexCount  int
	VertexCount int

	Transform [16]float32
	Material  material.Material

	// Priority is clamped to [PriorityMin, PriorityMax] when the sort key is built.
	Priority int
	Visible  bool

	Lights     [MaxLights]light.Light
	LightCount int

	// Centroid is the world-space point used for camera distance sorting.
	Centroid [3]float32

	// Precedence breaks ties between drawables that share priority, pass and distance.
	Precedence int8
}

// New returns a visible Renderable drawing the full geometry with an identity transform.
// Index and vertex counts are taken from the geometry.
//
// Parameters:
//   - g: the geometry to draw (may be nil for a placeholder)
//   - m: the material to draw with
//
// Returns:
//   - Renderable: the drawable record
func New(g *geometry.Geometry, m material.Material) Renderable {
	r := Renderable{
		Arrangement: common.ArrangementTriangleList,
		Geometry:    g,
		Material:    m,
		Visible:     true,
	}
	common.Identity(r.Transform[:])
	if g != nil {
		r.IndexCount = g.Indices().Count
		r.VertexCount = g.Vertices().Count
	}
	return r
}

// HasDrawData reports whether the drawable has anything to draw: indices, vertex
// ranges, or plain vertices.
//
// Returns:
//   - bool: true if at least one of the counts is non-zero
func (r *Renderable) HasDrawData() bool {
	if r.IndexCount > 0 || r.VertexCount > 0 {
		return true
	}
	return r.Geometry != nil && len(r.Geometry.Ranges()) > 0
}

// LightSlice returns the lights in use.
//
// Returns:
//   - []light.Light: the first LightCount lights
func (r *Renderable) LightSlice() []light.Light {
	n := common.Clamp(r.LightCount, 0, MaxLights)
	return r.Lights[:n]
}

// AddLight appends a light if there is room.
//
// Parameters:
//   - l: the light to add
//
// Returns:
//   - bool: false if the drawable already references MaxLights lights
func (r *Renderable) AddLight(l light.Light) bool {
	if r.LightCount >= MaxLights {
		return false
	}
	r.Lights[r.LightCount] = l
	r.LightCount++
	return true
}

// SetTranslation writes a translation-only transform and moves the centroid to match.
//
// Parameters:
//   - x, y, z: the world-space position
func (r *Renderable) SetTranslation(x, y, z float32) {
	common.Translation(r.Transform[:], x, y, z)
	r.Centroid = [3]float32{x, y, z}
}
