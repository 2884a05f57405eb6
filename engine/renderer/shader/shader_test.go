package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUIShaderEntryPoints(t *testing.T) {
	s := UI()
	assert.Equal(t, UIShaderKey, s.Key())
	assert.Equal(t, "vs_main", s.EntryPoint(ShaderStageVertex))
	assert.Equal(t, "fs_main", s.EntryPoint(ShaderStageFragment))
}

func TestUIShaderBindGroupLayouts(t *testing.T) {
	s := UI()
	require.Len(t, s.BindGroupLayoutDescriptors(), 2)

	globals := s.BindGroupLayoutDescriptor(0).Entries
	require.Len(t, globals, 2)

	assert.Equal(t, uint32(0), globals[0].Binding)
	assert.Equal(t, wgpu.ShaderStageVertex, globals[0].Visibility)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, globals[0].Buffer.Type)
	assert.Equal(t, uint64(16), globals[0].Buffer.MinBindingSize)

	assert.Equal(t, uint32(1), globals[1].Binding)
	assert.Equal(t, wgpu.ShaderStageFragment, globals[1].Visibility)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, globals[1].Sampler.Type)

	textures := s.BindGroupLayoutDescriptor(1).Entries
	require.Len(t, textures, 1)
	assert.Equal(t, uint32(0), textures[0].Binding)
	assert.Equal(t, wgpu.ShaderStageFragment, textures[0].Visibility)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, textures[0].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, textures[0].Texture.ViewDimension)
	assert.False(t, textures[0].Texture.Multisampled)

	assert.Equal(t, "r_locals", s.BindGroupVarName(0, 0))
	assert.Equal(t, "r_tex_sampler", s.BindGroupVarName(0, 1))
	assert.Equal(t, "r_tex_color", s.BindGroupVarName(1, 0))
	assert.Empty(t, s.BindGroupVarName(2, 0))
}

func TestUIShaderVertexLayout(t *testing.T) {
	layouts := UI().VertexLayouts()
	require.Len(t, layouts, 1)

	layout := layouts[0]
	assert.Equal(t, uint64(20), layout.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, layout.StepMode)
	assert.Equal(t, []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
		{Format: wgpu.VertexFormatUint32, Offset: 16, ShaderLocation: 2},
	}, layout.Attributes)
}

func TestNewShaderMissingEntryPoint(t *testing.T) {
	_, err := NewShader("compute_only", `@compute @workgroup_size(1) fn main() {}`)
	assert.ErrorIs(t, err, ErrMissingEntryPoint)
}

func TestVisibilityFollowsHelperCalls(t *testing.T) {
	src := `
@group(0) @binding(0) var<uniform> u: vec4<f32>;
@group(0) @binding(1) var<storage, read> items: array<f32>;

fn helper() -> vec4<f32> {
    return u;
}

@vertex
fn vs(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
    return helper();
}

@fragment
fn fs() -> @location(0) vec4<f32> {
    // u is not referenced here
    return vec4<f32>(items[0]) * helper();
}
`
	s, err := NewShader("helpers", src)
	require.NoError(t, err)

	entries := s.BindGroupLayoutDescriptor(0).Entries
	require.Len(t, entries, 2)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, entries[0].Visibility)
	assert.Equal(t, uint64(16), entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageFragment, entries[1].Visibility)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, entries[1].Buffer.Type)
	assert.Empty(t, s.VertexLayouts())
}

func TestComputeStructSizes(t *testing.T) {
	sizes := computeStructSizes(parseStructBlocks(`
struct Inner { a: vec3<f32>, }
struct Outer { inner: Inner, b: f32, }
struct Unknown { x: atomic<u32>, }
`))
	assert.Equal(t, wgslTypeLayout{size: 16, align: 16}, sizes["Inner"])
	assert.Equal(t, wgslTypeLayout{size: 32, align: 16}, sizes["Outer"])
	assert.NotContains(t, sizes, "Unknown")
}

func TestStripComments(t *testing.T) {
	assert.Equal(t, "a \nb  c", stripComments("a // one\nb /* two\nlines */ c"))
}
