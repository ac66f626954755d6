package renderer

import (
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// frameBindingsSource declares the two bind groups every registered pipeline shares:
// group 0 holds the camera, group 1 holds the per-draw uniform.
const frameBindingsSource = `
@group(0) @binding(0) var<uniform> camera: CameraUniform;
@group(1) @binding(0) var<uniform> draw: DrawUniform;
`

// DefaultShaderSource is a vertex-colored shader for position+color vertices lit by the
// draw's light block. Point and spot lights attenuate linearly to their range.
var DefaultShaderSource = FrameShaderPrelude() + `
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(3) color: vec4<f32>,
};

struct VertexOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) world_position: vec3<f32>,
    @location(1) color: vec4<f32>,
};

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    let world = draw.model * vec4<f32>(in.position, 1.0);
    out.clip_position = camera.view_proj * world;
    out.world_position = world.xyz;
    out.color = in.color * draw.material.base_color;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    var lit = draw.light_block.ambient;
    for (var i = 0u; i < draw.light_block.count; i = i + 1u) {
        let l = draw.light_block.lights[i];
        var atten = 1.0;
        if (l.light_type != 0u) {
            let d = distance(l.position, in.world_position);
            atten = clamp(1.0 - d / max(l.range, 0.0001), 0.0, 1.0);
        }
        lit = lit + l.color * l.intensity * atten;
    }
    return vec4<f32>(in.color.rgb * lit, in.color.a);
}
`

// FrameShaderPrelude returns the struct definitions and bind group declarations a pipeline's
// WGSL must start with to match the renderer's frame layout.
//
// Returns:
//   - string: the WGSL prelude
func FrameShaderPrelude() string {
	return camera.GPUCameraUniformSource +
		material.GPUMaterialParamsSource +
		light.GPULightSource +
		GPUDrawUniformSource +
		frameBindingsSource
}
