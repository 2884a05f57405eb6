// Package backendtest provides an in-memory recording implementation of the backend interfaces.
// Every created resource is a *Handle with a unique ID, every queue transfer and every
// render pass command is recorded in order so tests can assert on exact call sequences.
package backendtest

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/backend"
	"github.com/cogentcore/webgpu/wgpu"
)

// Handle is the fake resource type. It satisfies every backend resource interface.
type Handle struct {
	ID       int
	Kind     string
	Label    string
	Bytes    uint64
	Released bool
}

func (h *Handle) Size() uint64 { return h.Bytes }
func (h *Handle) Release()     { h.Released = true }

func (h *Handle) String() string {
	return fmt.Sprintf("%s#%d(%s)", h.Kind, h.ID, h.Label)
}

var (
	_ backend.Buffer         = &Handle{}
	_ backend.Texture        = &Handle{}
	_ backend.TextureView    = &Handle{}
	_ backend.BindGroup      = &Handle{}
	_ backend.RenderPipeline = &Handle{}
)

// Resource kinds recorded on Handle.Kind.
const (
	KindBuffer          = "buffer"
	KindTexture         = "texture"
	KindTextureView     = "texture_view"
	KindSampler         = "sampler"
	KindBindGroupLayout = "bind_group_layout"
	KindBindGroup       = "bind_group"
	KindShaderModule    = "shader_module"
	KindRenderPipeline  = "render_pipeline"
)

var nextTargetID = -1

// NewTarget returns a texture view usable as a render pass target.
// Target IDs are negative so they never collide with device-created handles.
func NewTarget() *Handle {
	h := &Handle{ID: nextTargetID, Kind: KindTextureView, Label: "target"}
	nextTargetID--
	return h
}

// Device records every resource it creates.
type Device struct {
	nextID int
	fail   map[string]error

	Created        []*Handle
	BufferDescs    []backend.BufferDescriptor
	TextureDescs   []backend.TextureDescriptor
	SamplerDescs   []backend.SamplerDescriptor
	LayoutDescs    []wgpu.BindGroupLayoutDescriptor
	BindGroupDescs []backend.BindGroupDescriptor
	ShaderSources  []string
	PipelineDescs  []backend.RenderPipelineDescriptor
}

var _ backend.Device = &Device{}

// NewDevice returns an empty recording device.
func NewDevice() *Device {
	return &Device{fail: make(map[string]error)}
}

// FailNext makes the next creation of the given kind return err.
func (d *Device) FailNext(kind string, err error) {
	d.fail[kind] = err
}

// Count returns how many resources of kind have been created.
func (d *Device) Count(kind string) int {
	n := 0
	for _, h := range d.Created {
		if h.Kind == kind {
			n++
		}
	}
	return n
}

func (d *Device) create(kind, label string, size uint64) (*Handle, error) {
	if err, ok := d.fail[kind]; ok {
		delete(d.fail, kind)
		return nil, err
	}
	d.nextID++
	h := &Handle{ID: d.nextID, Kind: kind, Label: label, Bytes: size}
	d.Created = append(d.Created, h)
	return h, nil
}

func (d *Device) CreateBuffer(desc backend.BufferDescriptor) (backend.Buffer, error) {
	h, err := d.create(KindBuffer, desc.Label, uint64(len(desc.Contents)))
	if err != nil {
		return nil, err
	}
	d.BufferDescs = append(d.BufferDescs, desc)
	return h, nil
}

func (d *Device) CreateTexture(desc backend.TextureDescriptor) (backend.Texture, error) {
	h, err := d.create(KindTexture, desc.Label, uint64(desc.Width)*uint64(desc.Height)*4)
	if err != nil {
		return nil, err
	}
	d.TextureDescs = append(d.TextureDescs, desc)
	return h, nil
}

func (d *Device) CreateTextureView(tex backend.Texture) (backend.TextureView, error) {
	label := ""
	if h, ok := tex.(*Handle); ok {
		label = h.Label
	}
	h, err := d.create(KindTextureView, label, 0)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (d *Device) CreateSampler(desc backend.SamplerDescriptor) (backend.Sampler, error) {
	h, err := d.create(KindSampler, desc.Label, 0)
	if err != nil {
		return nil, err
	}
	d.SamplerDescs = append(d.SamplerDescs, desc)
	return h, nil
}

func (d *Device) CreateBindGroupLayout(desc wgpu.BindGroupLayoutDescriptor) (backend.BindGroupLayout, error) {
	h, err := d.create(KindBindGroupLayout, desc.Label, 0)
	if err != nil {
		return nil, err
	}
	d.LayoutDescs = append(d.LayoutDescs, desc)
	return h, nil
}

func (d *Device) CreateBindGroup(desc backend.BindGroupDescriptor) (backend.BindGroup, error) {
	h, err := d.create(KindBindGroup, desc.Label, 0)
	if err != nil {
		return nil, err
	}
	d.BindGroupDescs = append(d.BindGroupDescs, desc)
	return h, nil
}

func (d *Device) CreateShaderModule(label, wgsl string) (backend.ShaderModule, error) {
	h, err := d.create(KindShaderModule, label, 0)
	if err != nil {
		return nil, err
	}
	d.ShaderSources = append(d.ShaderSources, wgsl)
	return h, nil
}

func (d *Device) CreateRenderPipeline(desc backend.RenderPipelineDescriptor) (backend.RenderPipeline, error) {
	h, err := d.create(KindRenderPipeline, desc.Label, 0)
	if err != nil {
		return nil, err
	}
	d.PipelineDescs = append(d.PipelineDescs, desc)
	return h, nil
}

// BufferWrite is a recorded Queue.WriteBuffer call.
type BufferWrite struct {
	Buffer *Handle
	Offset uint64
	Data   []byte
}

// TextureWrite is a recorded Queue.WriteTexture call.
type TextureWrite struct {
	Texture *Handle
	Data    []byte
	Layout  backend.TextureDataLayout
}

// Queue records transfers. Data is copied so later mutation by the caller does not leak into the record.
type Queue struct {
	failTexture error

	BufferWrites  []BufferWrite
	TextureWrites []TextureWrite
}

var _ backend.Queue = &Queue{}

// NewQueue returns an empty recording queue.
func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) WriteBuffer(buf backend.Buffer, offset uint64, data []byte) error {
	h, _ := buf.(*Handle)
	if h != nil && offset+uint64(len(data)) > h.Bytes {
		return fmt.Errorf("write of %d bytes at %d overflows %s", len(data), offset, h)
	}
	q.BufferWrites = append(q.BufferWrites, BufferWrite{Buffer: h, Offset: offset, Data: append([]byte(nil), data...)})
	return nil
}

// FailNextTextureWrite makes the next WriteTexture return err without recording it.
func (q *Queue) FailNextTextureWrite(err error) {
	q.failTexture = err
}

func (q *Queue) WriteTexture(tex backend.Texture, data []byte, layout backend.TextureDataLayout) error {
	if q.failTexture != nil {
		err := q.failTexture
		q.failTexture = nil
		return err
	}
	h, _ := tex.(*Handle)
	q.TextureWrites = append(q.TextureWrites, TextureWrite{Texture: h, Data: append([]byte(nil), data...), Layout: layout})
	return nil
}
