// Package backend defines the narrow slice of the graphics device the UI renderer talks to.
// The renderer only ever sees these interfaces; NewWGPUDevice and friends adapt a
// cogentcore/webgpu device to them, and the backendtest package provides a recording fake.
package backend

import "github.com/cogentcore/webgpu/wgpu"

// Resource is any GPU object whose lifetime the renderer manages.
type Resource interface {
	// Release drops the renderer's reference. The device defers destruction until
	// previously submitted work referencing the object has completed.
	Release()
}

// Buffer is a GPU buffer handle.
type Buffer interface {
	Resource

	// Size returns the allocated size of the buffer in bytes.
	Size() uint64
}

// Texture is a GPU texture handle.
type Texture interface {
	Resource
}

// TextureView is a view onto a texture, bindable in a bind group.
type TextureView interface {
	Resource
}

// Sampler is a GPU sampler handle.
type Sampler interface {
	Resource
}

// BindGroupLayout is a compiled bind group layout.
type BindGroupLayout interface {
	Resource
}

// BindGroup is a set of resources bound together for a draw call.
type BindGroup interface {
	Resource
}

// ShaderModule is a compiled shader module.
type ShaderModule interface {
	Resource
}

// RenderPipeline is a compiled render pipeline.
type RenderPipeline interface {
	Resource
}

// BufferDescriptor describes a buffer created with initial contents.
type BufferDescriptor struct {
	Label    string
	Contents []byte
	Usage    wgpu.BufferUsage
}

// TextureDescriptor describes a single-mip 2D texture.
type TextureDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	Format wgpu.TextureFormat
	Usage  wgpu.TextureUsage
}

// TextureDataLayout describes how pixel data passed to WriteTexture is laid out.
type TextureDataLayout struct {
	BytesPerRow  uint32
	RowsPerImage uint32
	Width        uint32
	Height       uint32
}

// SamplerDescriptor describes a sampler.
type SamplerDescriptor struct {
	Label        string
	AddressModeU wgpu.AddressMode
	AddressModeV wgpu.AddressMode
	AddressModeW wgpu.AddressMode
	MagFilter    wgpu.FilterMode
	MinFilter    wgpu.FilterMode
	MipmapFilter wgpu.MipmapFilterMode
}

// BindGroupEntry binds exactly one of Buffer, TextureView or Sampler at Binding.
type BindGroupEntry struct {
	Binding     uint32
	Buffer      Buffer
	TextureView TextureView
	Sampler     Sampler
}

// BindGroupDescriptor describes a bind group built against Layout.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// RenderPipelineDescriptor describes a render pipeline with a single color target and no depth.
type RenderPipelineDescriptor struct {
	Label              string
	BindGroupLayouts   []BindGroupLayout
	Module             ShaderModule
	VertexEntryPoint   string
	FragmentEntryPoint string
	VertexBuffers      []wgpu.VertexBufferLayout
	Primitive          wgpu.PrimitiveState
	Target             wgpu.ColorTargetState
	Multisample        wgpu.MultisampleState
}

// RenderPassDescriptor describes a render pass with one color attachment.
// ClearColor is only used when LoadOp is wgpu.LoadOpClear. Contents are always stored.
type RenderPassDescriptor struct {
	Label      string
	Target     TextureView
	LoadOp     wgpu.LoadOp
	ClearColor wgpu.Color
}

// Device creates GPU resources.
type Device interface {
	CreateBuffer(desc BufferDescriptor) (Buffer, error)
	CreateTexture(desc TextureDescriptor) (Texture, error)
	CreateTextureView(tex Texture) (TextureView, error)
	CreateSampler(desc SamplerDescriptor) (Sampler, error)
	CreateBindGroupLayout(desc wgpu.BindGroupLayoutDescriptor) (BindGroupLayout, error)
	CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error)
	CreateShaderModule(label, wgsl string) (ShaderModule, error)
	CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error)
}

// Queue submits transfers. Writes execute in submission order relative to draws on the same queue.
type Queue interface {
	WriteBuffer(buf Buffer, offset uint64, data []byte) error
	WriteTexture(tex Texture, data []byte, layout TextureDataLayout) error
}

// CommandEncoder records render passes.
type CommandEncoder interface {
	BeginRenderPass(desc RenderPassDescriptor) (RenderPassEncoder, error)
}

// RenderPassEncoder records draw state and draw calls inside a render pass.
type RenderPassEncoder interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(index uint32, bg BindGroup)
	SetScissorRect(x, y, width, height uint32)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer, format wgpu.IndexFormat)
	DrawIndexed(indexCount uint32)
	PushDebugGroup(label string)
	PopDebugGroup()
	End() error
}
