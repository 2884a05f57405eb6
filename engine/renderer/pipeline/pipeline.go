package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
// It holds the render state configured by the builder options and the GPU objects created by Build.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used as the label of its GPU objects
	pipelineKey string
	shader      shader.Shader

	outputFormat wgpu.TextureFormat
	cullMode     wgpu.CullMode
	topology     wgpu.PrimitiveTopology
	frontFace    wgpu.FrontFace
	writeMask    wgpu.ColorWriteMask
	blendState   *wgpu.BlendState

	module         backend.ShaderModule
	renderPipeline backend.RenderPipeline
}

// Pipeline defines the interface for the UI render pipeline: a single color target with no depth
// attachment, one vertex buffer, and premultiplied alpha blending.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader returns the shader the pipeline is built from.
	//
	// Returns:
	//   - shader.Shader: the pipeline's shader
	Shader() shader.Shader

	// OutputFormat returns the color target format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the color target format
	OutputFormat() wgpu.TextureFormat

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode, wgpu.CullModeNone by default
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology, wgpu.PrimitiveTopologyTriangleList by default
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face winding order, wgpu.FrontFaceCCW by default
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the color write mask, wgpu.ColorWriteMaskAll by default
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state, PremultipliedAlphaBlend by default
	BlendState() *wgpu.BlendState

	// Descriptor assembles the render pipeline descriptor for a shader module and bind group layouts.
	//
	// Parameters:
	//   - module: the compiled shader module
	//   - layouts: the bind group layouts in group order
	//
	// Returns:
	//   - backend.RenderPipelineDescriptor: the descriptor passed to the device
	Descriptor(module backend.ShaderModule, layouts []backend.BindGroupLayout) backend.RenderPipelineDescriptor

	// Build compiles the shader and creates the render pipeline. A pipeline already built is released first.
	//
	// Parameters:
	//   - device: the device to create the GPU objects on
	//   - layouts: the bind group layouts in group order
	//
	// Returns:
	//   - error: an error if the output format is unsupported or a GPU object could not be created
	Build(device backend.Device, layouts []backend.BindGroupLayout) error

	// RenderPipeline returns the pipeline created by Build, nil before Build succeeds.
	//
	// Returns:
	//   - backend.RenderPipeline: the render pipeline
	RenderPipeline() backend.RenderPipeline

	// Release releases the shader module and the render pipeline.
	Release()
}

var _ Pipeline = &pipeline{}

// PremultipliedAlphaBlend is the blend state for premultiplied color: color is src + dst*(1-srcA),
// alpha is src*(1-dstA) + dst.
var PremultipliedAlphaBlend = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOneMinusDstAlpha,
		DstFactor: wgpu.BlendFactorOne,
		Operation: wgpu.BlendOperationAdd,
	},
}

// ValidateOutputFormat reports whether format is a supported color target format.
// Only 8-bit sRGB formats are accepted because the shader outputs linear color.
//
// Parameters:
//   - format: the color target format
//
// Returns:
//   - error: common.ErrUnsupportedOutputFormat for anything except BGRA8UnormSrgb and RGBA8UnormSrgb
func ValidateOutputFormat(format wgpu.TextureFormat) error {
	switch format {
	case wgpu.TextureFormatBGRA8UnormSrgb, wgpu.TextureFormatRGBA8UnormSrgb:
		return nil
	default:
		return fmt.Errorf("%w: %v", common.ErrUnsupportedOutputFormat, format)
	}
}

// NewPipeline is the entry point to create a new Pipeline. Build must be called before drawing.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - s: the shader providing the entry points and the vertex layout
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, s shader.Shader, opts ...PipelineBuilderOption) Pipeline {
	blend := PremultipliedAlphaBlend
	p := &pipeline{
		pipelineKey:  pipelineKey,
		shader:       s,
		outputFormat: wgpu.TextureFormatBGRA8UnormSrgb,
		cullMode:     wgpu.CullModeNone,
		topology:     wgpu.PrimitiveTopologyTriangleList,
		frontFace:    wgpu.FrontFaceCCW,
		writeMask:    wgpu.ColorWriteMaskAll,
		blendState:   &blend,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) OutputFormat() wgpu.TextureFormat {
	return p.outputFormat
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) Descriptor(module backend.ShaderModule, layouts []backend.BindGroupLayout) backend.RenderPipelineDescriptor {
	return backend.RenderPipelineDescriptor{
		Label:              p.pipelineKey,
		BindGroupLayouts:   layouts,
		Module:             module,
		VertexEntryPoint:   p.shader.EntryPoint(shader.ShaderStageVertex),
		FragmentEntryPoint: p.shader.EntryPoint(shader.ShaderStageFragment),
		VertexBuffers:      p.shader.VertexLayouts(),
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Target: wgpu.ColorTargetState{
			Format:    p.outputFormat,
			Blend:     p.blendState,
			WriteMask: p.writeMask,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
}

func (p *pipeline) Build(device backend.Device, layouts []backend.BindGroupLayout) error {
	if err := ValidateOutputFormat(p.outputFormat); err != nil {
		return err
	}
	p.Release()

	module, err := device.CreateShaderModule(p.shader.Key(), p.shader.Source())
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", p.pipelineKey, err)
	}
	rp, err := device.CreateRenderPipeline(p.Descriptor(module, layouts))
	if err != nil {
		module.Release()
		return fmt.Errorf("pipeline %s: %w", p.pipelineKey, err)
	}
	p.module = module
	p.renderPipeline = rp
	return nil
}

func (p *pipeline) RenderPipeline() backend.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.module != nil {
		p.module.Release()
		p.module = nil
	}
}
