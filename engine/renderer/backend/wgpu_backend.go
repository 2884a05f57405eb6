package backend

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrForeignResource is returned when a resource created by a different backend is handed to the wgpu backend.
var ErrForeignResource = errors.New("resource was not created by the wgpu backend")

type wgpuBuffer struct {
	buf  *wgpu.Buffer
	size uint64
}

func (b *wgpuBuffer) Size() uint64 { return b.size }
func (b *wgpuBuffer) Release()     { b.buf.Release() }

type wgpuTexture struct{ tex *wgpu.Texture }

func (t *wgpuTexture) Release() { t.tex.Release() }

type wgpuTextureView struct{ view *wgpu.TextureView }

func (v *wgpuTextureView) Release() { v.view.Release() }

type wgpuSampler struct{ samp *wgpu.Sampler }

func (s *wgpuSampler) Release() { s.samp.Release() }

type wgpuBindGroupLayout struct{ layout *wgpu.BindGroupLayout }

func (l *wgpuBindGroupLayout) Release() { l.layout.Release() }

type wgpuBindGroup struct{ group *wgpu.BindGroup }

func (g *wgpuBindGroup) Release() { g.group.Release() }

type wgpuShaderModule struct{ module *wgpu.ShaderModule }

func (m *wgpuShaderModule) Release() { m.module.Release() }

type wgpuRenderPipeline struct {
	pipeline *wgpu.RenderPipeline
	layout   *wgpu.PipelineLayout
}

func (p *wgpuRenderPipeline) Release() {
	p.pipeline.Release()
	p.layout.Release()
}

// WrapTextureView adapts a raw wgpu texture view, such as the current surface view or an
// offscreen render target, for use as a render target or a native user texture.
// The caller keeps ownership; releasing the wrapper releases the view.
func WrapTextureView(view *wgpu.TextureView) TextureView {
	return &wgpuTextureView{view: view}
}

type wgpuDevice struct {
	device *wgpu.Device
}

var _ Device = &wgpuDevice{}

// NewWGPUDevice adapts a cogentcore/webgpu device to the Device interface.
//
// Parameters:
//   - device: the wgpu device to create resources on
//
// Returns:
//   - Device: the adapted device
func NewWGPUDevice(device *wgpu.Device) Device {
	return &wgpuDevice{device: device}
}

func (d *wgpuDevice) CreateBuffer(desc BufferDescriptor) (Buffer, error) {
	buf, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    desc.Label,
		Contents: desc.Contents,
		Usage:    desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}
	return &wgpuBuffer{buf: buf, size: uint64(len(desc.Contents))}, nil
}

func (d *wgpuDevice) CreateTexture(desc TextureDescriptor) (Texture, error) {
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     desc.Label,
		Usage:     desc.Usage,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        desc.Format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}
	return &wgpuTexture{tex: tex}, nil
}

func (d *wgpuDevice) CreateTextureView(tex Texture) (TextureView, error) {
	t, ok := tex.(*wgpuTexture)
	if !ok {
		return nil, ErrForeignResource
	}
	view, err := t.tex.CreateView(nil)
	if err != nil {
		return nil, fmt.Errorf("create texture view: %w", err)
	}
	return &wgpuTextureView{view: view}, nil
}

func (d *wgpuDevice) CreateSampler(desc SamplerDescriptor) (Sampler, error) {
	samp, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  desc.AddressModeU,
		AddressModeV:  desc.AddressModeV,
		AddressModeW:  desc.AddressModeW,
		MagFilter:     desc.MagFilter,
		MinFilter:     desc.MinFilter,
		MipmapFilter:  desc.MipmapFilter,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler %q: %w", desc.Label, err)
	}
	return &wgpuSampler{samp: samp}, nil
}

func (d *wgpuDevice) CreateBindGroupLayout(desc wgpu.BindGroupLayoutDescriptor) (BindGroupLayout, error) {
	layout, err := d.device.CreateBindGroupLayout(&desc)
	if err != nil {
		return nil, fmt.Errorf("create bind group layout %q: %w", desc.Label, err)
	}
	return &wgpuBindGroupLayout{layout: layout}, nil
}

func (d *wgpuDevice) CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error) {
	layout, ok := desc.Layout.(*wgpuBindGroupLayout)
	if !ok {
		return nil, ErrForeignResource
	}

	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			b, ok := e.Buffer.(*wgpuBuffer)
			if !ok {
				return nil, ErrForeignResource
			}
			entry.Buffer = b.buf
			entry.Offset = 0
			entry.Size = wgpu.WholeSize
		case e.TextureView != nil:
			v, ok := e.TextureView.(*wgpuTextureView)
			if !ok {
				return nil, ErrForeignResource
			}
			entry.TextureView = v.view
		case e.Sampler != nil:
			s, ok := e.Sampler.(*wgpuSampler)
			if !ok {
				return nil, ErrForeignResource
			}
			entry.Sampler = s.samp
		default:
			return nil, fmt.Errorf("bind group %q: entry %d binds nothing", desc.Label, e.Binding)
		}
		entries[i] = entry
	}

	group, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout.layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group %q: %w", desc.Label, err)
	}
	return &wgpuBindGroup{group: group}, nil
}

func (d *wgpuDevice) CreateShaderModule(label, wgsl string) (ShaderModule, error) {
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: wgsl,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module %q: %w", label, err)
	}
	return &wgpuShaderModule{module: module}, nil
}

func (d *wgpuDevice) CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error) {
	module, ok := desc.Module.(*wgpuShaderModule)
	if !ok {
		return nil, ErrForeignResource
	}

	layouts := make([]*wgpu.BindGroupLayout, len(desc.BindGroupLayouts))
	for i, l := range desc.BindGroupLayouts {
		raw, ok := l.(*wgpuBindGroupLayout)
		if !ok {
			return nil, ErrForeignResource
		}
		layouts[i] = raw.layout
	}

	pipelineLayout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout %q: %w", desc.Label, err)
	}

	created, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module.module,
			EntryPoint: desc.VertexEntryPoint,
			Buffers:    desc.VertexBuffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module.module,
			EntryPoint: desc.FragmentEntryPoint,
			Targets:    []wgpu.ColorTargetState{desc.Target},
		},
		Primitive:   desc.Primitive,
		Multisample: desc.Multisample,
	})
	if err != nil {
		pipelineLayout.Release()
		return nil, fmt.Errorf("create render pipeline %q: %w", desc.Label, err)
	}
	return &wgpuRenderPipeline{pipeline: created, layout: pipelineLayout}, nil
}

// rawQueue is the part of *wgpu.Queue the adapter uses.
type rawQueue interface {
	WriteBuffer(buffer *wgpu.Buffer, bufferOffset uint64, data []byte) error
	WriteTexture(destination *wgpu.ImageCopyTexture, data []byte, dataLayout *wgpu.TextureDataLayout, writeSize *wgpu.Extent3D) error
}

// rawRenderPass is the part of *wgpu.RenderPassEncoder the adapter uses.
type rawRenderPass interface {
	SetPipeline(pipeline *wgpu.RenderPipeline)
	SetBindGroup(groupIndex uint32, group *wgpu.BindGroup, dynamicOffsets []uint32)
	SetScissorRect(x, y, width, height uint32)
	SetVertexBuffer(slot uint32, buffer *wgpu.Buffer, offset uint64, size uint64)
	SetIndexBuffer(buffer *wgpu.Buffer, format wgpu.IndexFormat, offset uint64, size uint64)
	DrawIndexed(indexCount uint32, instanceCount uint32, firstIndex uint32, baseVertex int32, firstInstance uint32)
	PushDebugGroup(groupLabel string)
	PopDebugGroup()
	End() error
	Release()
}

var (
	_ rawQueue      = (*wgpu.Queue)(nil)
	_ rawRenderPass = (*wgpu.RenderPassEncoder)(nil)
)

type wgpuQueue struct {
	queue rawQueue
}

var _ Queue = &wgpuQueue{}

// NewWGPUQueue adapts a cogentcore/webgpu queue to the Queue interface.
//
// Parameters:
//   - queue: the wgpu queue transfers are submitted on
//
// Returns:
//   - Queue: the adapted queue
func NewWGPUQueue(queue *wgpu.Queue) Queue {
	return &wgpuQueue{queue: queue}
}

func (q *wgpuQueue) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	b, ok := buf.(*wgpuBuffer)
	if !ok {
		return ErrForeignResource
	}
	return q.queue.WriteBuffer(b.buf, offset, data)
}

func (q *wgpuQueue) WriteTexture(tex Texture, data []byte, layout TextureDataLayout) error {
	t, ok := tex.(*wgpuTexture)
	if !ok {
		return ErrForeignResource
	}
	return q.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  layout.BytesPerRow,
			RowsPerImage: layout.RowsPerImage,
		},
		&wgpu.Extent3D{
			Width:              layout.Width,
			Height:             layout.Height,
			DepthOrArrayLayers: 1,
		},
	)
}

type wgpuCommandEncoder struct {
	encoder *wgpu.CommandEncoder
}

// NewWGPUCommandEncoder adapts a cogentcore/webgpu command encoder. The caller still finishes and submits it.
func NewWGPUCommandEncoder(encoder *wgpu.CommandEncoder) CommandEncoder {
	return &wgpuCommandEncoder{encoder: encoder}
}

func (e *wgpuCommandEncoder) BeginRenderPass(desc RenderPassDescriptor) (RenderPassEncoder, error) {
	target, ok := desc.Target.(*wgpuTextureView)
	if !ok {
		return nil, ErrForeignResource
	}
	pass := e.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: desc.Label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       target.view,
				LoadOp:     desc.LoadOp,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: desc.ClearColor,
			},
		},
	})
	return &wgpuRenderPass{pass: pass}, nil
}

type wgpuRenderPass struct {
	pass rawRenderPass
}

func (p *wgpuRenderPass) SetPipeline(rp RenderPipeline) {
	if raw, ok := rp.(*wgpuRenderPipeline); ok {
		p.pass.SetPipeline(raw.pipeline)
	}
}

func (p *wgpuRenderPass) SetBindGroup(index uint32, bg BindGroup) {
	if raw, ok := bg.(*wgpuBindGroup); ok {
		p.pass.SetBindGroup(index, raw.group, nil)
	}
}

func (p *wgpuRenderPass) SetScissorRect(x, y, width, height uint32) {
	p.pass.SetScissorRect(x, y, width, height)
}

func (p *wgpuRenderPass) SetVertexBuffer(slot uint32, buf Buffer) {
	if raw, ok := buf.(*wgpuBuffer); ok {
		p.pass.SetVertexBuffer(slot, raw.buf, 0, wgpu.WholeSize)
	}
}

func (p *wgpuRenderPass) SetIndexBuffer(buf Buffer, format wgpu.IndexFormat) {
	if raw, ok := buf.(*wgpuBuffer); ok {
		p.pass.SetIndexBuffer(raw.buf, format, 0, wgpu.WholeSize)
	}
}

func (p *wgpuRenderPass) DrawIndexed(indexCount uint32) {
	p.pass.DrawIndexed(indexCount, 1, 0, 0, 0)
}

func (p *wgpuRenderPass) PushDebugGroup(label string) {
	p.pass.PushDebugGroup(label)
}

func (p *wgpuRenderPass) PopDebugGroup() {
	p.pass.PopDebugGroup()
}

func (p *wgpuRenderPass) End() error {
	err := p.pass.End()
	// must happen before the encoder is finished
	p.pass.Release()
	if err != nil {
		return fmt.Errorf("end render pass: %w", err)
	}
	return nil
}
