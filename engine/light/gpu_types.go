package light

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// MaxPerDraw is the maximum number of lights a single drawable can reference in
// one frame. The per-draw light uniform is sized for exactly this many lights.
const MaxPerDraw = 8

// GPULightSource is the WGSL definition of the Light struct and the per-draw
// light block. Matches GPULight and GPULightHeader exactly.
const GPULightSource = `
struct Light {
    position: vec3<f32>,
    light_type: u32,
    color: vec3<f32>,
    intensity: f32,
    direction: vec3<f32>,
    range: f32,
    inner_cone: f32,
    outer_cone: f32,
    _pad0: u32,
    _pad1: u32,
};

struct LightBlock {
    ambient: vec3<f32>,
    count: u32,
    lights: array<Light, 8>,
};
`

// GPULight is the GPU-aligned representation of a single light source.
// Size: 64 bytes (WGSL uniform aligned).
type GPULight struct {
	Position   [3]float32 // offset  0
	LightType  uint32     // offset 12: 0 = directional, 1 = point, 2 = spot
	Color      [3]float32 // offset 16
	Intensity  float32    // offset 28
	Direction  [3]float32 // offset 32
	LightRange float32    // offset 44
	InnerCone  float32    // offset 48
	OuterCone  float32    // offset 52
	_pad       [2]uint32  // offset 56
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, 64)
	putVec3(buf[0:12], g.Position)
	binary.LittleEndian.PutUint32(buf[12:16], g.LightType)
	putVec3(buf[16:28], g.Color)
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Intensity))
	putVec3(buf[32:44], g.Direction)
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.LightRange))
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(g.InnerCone))
	binary.LittleEndian.PutUint32(buf[52:56], math.Float32bits(g.OuterCone))
	return buf
}

// GPULightHeader is the header at the start of the per-draw light block.
// Size: 16 bytes (vec3 + u32).
type GPULightHeader struct {
	AmbientColor [3]float32 // offset 0
	LightCount   uint32     // offset 12
}

// Size returns the size of the GPULightHeader struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (h *GPULightHeader) Size() int {
	return int(unsafe.Sizeof(*h))
}

// Marshal serializes the GPULightHeader struct into a byte buffer suitable for
// GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (h *GPULightHeader) Marshal() []byte {
	buf := make([]byte, 16)
	putVec3(buf[0:12], h.AmbientColor)
	binary.LittleEndian.PutUint32(buf[12:16], h.LightCount)
	return buf
}

// LightBlockSize is the byte size of the fixed per-draw light block produced by
// MarshalLightBuffer: one header followed by MaxPerDraw lights.
const LightBlockSize = 16 + MaxPerDraw*64

// ToGPULight converts a Light interface value into its GPU-aligned representation.
//
// Parameters:
//   - l: the Light to convert
//
// Returns:
//   - GPULight: the GPU-aligned representation
func ToGPULight(l Light) GPULight {
	return GPULight{
		Position:   l.Position(),
		LightType:  uint32(l.Type()),
		Color:      l.Color(),
		Intensity:  l.Intensity(),
		Direction:  l.Direction(),
		LightRange: l.Range(),
		InnerCone:  l.InnerCone(),
		OuterCone:  l.OuterCone(),
	}
}

// MarshalLightBuffer marshals the lights applied to one draw into a fixed-size
// block suitable for a uniform buffer write. The layout is:
//
//	[GPULightHeader (16 bytes)] [GPULight × MaxPerDraw (64 bytes each)]
//
// Disabled and nil lights are skipped. Lights beyond MaxPerDraw are dropped and
// unused light slots are zero-filled.
//
// Parameters:
//   - lights: the lights applied to the draw
//   - ambient: the ambient color as RGB
//
// Returns:
//   - []byte: a LightBlockSize byte buffer ready for GPU upload
func MarshalLightBuffer(lights []Light, ambient [3]float32) []byte {
	buf := make([]byte, LightBlockSize)
	headerSize := (&GPULightHeader{}).Size()
	lightSize := (&GPULight{}).Size()

	offset := headerSize
	written := 0
	for _, l := range lights {
		if written >= MaxPerDraw {
			break
		}
		if l == nil || !l.Enabled() {
			continue
		}
		gpu := ToGPULight(l)
		copy(buf[offset:offset+lightSize], gpu.Marshal())
		offset += lightSize
		written++
	}

	header := GPULightHeader{AmbientColor: ambient, LightCount: uint32(written)}
	copy(buf[0:headerSize], header.Marshal())
	return buf
}

func putVec3(dst []byte, v [3]float32) {
	binary.LittleEndian.PutUint32(dst[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(dst[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(dst[8:12], math.Float32bits(v[2]))
}
