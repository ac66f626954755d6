package material

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUMaterialParamsSource is the WGSL definition of the MaterialParams struct.
// Matches GPUMaterialParams exactly (16 bytes).
const GPUMaterialParamsSource = `
struct MaterialParams {
    base_color: vec4<f32>,
};
`

// GPUMaterialParams is the GPU-aligned per-material uniform.
// Size: 16 bytes (one vec4<f32>).
type GPUMaterialParams struct {
	BaseColor [4]float32 // offset 0
}

// Size returns the size of the GPUMaterialParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMaterialParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterialParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUMaterialParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.BaseColor[i]))
	}
	return buf
}
