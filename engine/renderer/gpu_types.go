package renderer

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

const (
	// DrawUniformSize is the byte size of one marshaled GPUDrawUniform.
	DrawUniformSize = 64 + 16 + light.LightBlockSize

	// uniformOffsetAlignment is the WebGPU default minUniformBufferOffsetAlignment.
	uniformOffsetAlignment = 256

	// DrawUniformStride is the distance between draw uniforms in the per-frame ring.
	DrawUniformStride = (DrawUniformSize + uniformOffsetAlignment - 1) / uniformOffsetAlignment * uniformOffsetAlignment
)

// GPUDrawUniformSource is the WGSL definition of the DrawUniform struct bound at group 1.
// It depends on the MaterialParams and LightBlock definitions.
const GPUDrawUniformSource = `
struct DrawUniform {
    model: mat4x4<f32>,
    material: MaterialParams,
    light_block: LightBlock,
};
`

// GPUDrawUniform is everything one draw reads besides the camera: the model transform, the
// material parameters, and the lights applied to the draw.
// Size: DrawUniformSize bytes.
type GPUDrawUniform struct {
	Model    [16]float32                // offset  0: mat4x4<f32>
	Material material.GPUMaterialParams // offset 64
	Lights   []light.Light              // offset 80: LightBlock
	Ambient  [3]float32
}

// Size returns the size of the marshaled uniform in bytes.
//
// Returns:
//   - int: DrawUniformSize
func (g *GPUDrawUniform) Size() int {
	return DrawUniformSize
}

// Marshal serializes the uniform into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: DrawUniformSize bytes
func (g *GPUDrawUniform) Marshal() []byte {
	buf := make([]byte, DrawUniformSize)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Model[i]))
	}
	copy(buf[64:80], g.Material.Marshal())
	copy(buf[80:], light.MarshalLightBuffer(g.Lights, g.Ambient))
	return buf
}

// drawRingBytes is the size of a draw uniform ring holding n draws.
func drawRingBytes(n int) uint64 {
	return uint64(common.AlignUp(n*DrawUniformStride, uniformOffsetAlignment))
}
