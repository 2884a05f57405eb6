package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/buffer_pool"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/texture_cache"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/user_texture"
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

const (
	uniformGroup = 0
	textureGroup = 1

	uniformBinding = 0
	samplerBinding = 1

	uniformBufferLabel = "egui_uniform_buffer"
	samplerLabel       = "egui_texture_sampler"
	renderPassLabel    = "egui_main_render_pass"
	debugGroupLabel    = "egui_pass"
	pipelineKey        = "egui_pipeline"
)

// uniforms mirrors the Locals struct in ui.wgsl.
type uniforms struct {
	ScreenSize [2]float32
	_          [2]uint32
}

// FrameStats counts what the last Execute did.
type FrameStats struct {
	// Meshes is the number of meshes submitted.
	Meshes int
	// Draws is the number of indexed draws recorded.
	Draws int
	// SkippedMeshes is the number of meshes whose scissor rectangle was empty.
	SkippedMeshes int
	// Allocations is the number of vertex and index slots added by the last UpdateBuffers.
	Allocations int
	// Reallocations is the number of buffers the last UpdateBuffers replaced with a larger one.
	Reallocations int
	// TextureRebuilds is the total number of system texture uploads so far.
	TextureRebuilds int
}

// TextureAllocator is the contract the UI library uses to hand over user image data.
type TextureAllocator interface {
	// Allocate queues premultiplied sRGBA pixels for upload and returns their texture reference.
	// The texture becomes drawable after the next UpdateUserTextures.
	Allocate(width, height int, pixels []byte) common.TextureID

	// Free releases a user texture. Unknown and system ids are ignored.
	Free(id common.TextureID)
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	id     uuid.UUID
	logger *log.Logger

	device backend.Device
	queue  backend.Queue

	// Pre-creation config collected from builder options
	outputFormat      wgpu.TextureFormat
	parallelThreshold int
	workers           int

	shader        shader.Shader
	pipeline      pipeline.Pipeline
	uniformLayout backend.BindGroupLayout
	textureLayout backend.BindGroupLayout
	uniform       bind_group_provider.BindGroupProvider

	buffers      buffer_pool.BufferPool
	textures     texture_cache.TextureCache
	userTextures user_texture.UserTextureTable

	stats FrameStats
}

// Renderer draws the clipped meshes produced by an immediate-mode UI into a caller provided
// render target. Per frame the calls are UpdateTexture, UpdateUserTextures, UpdateBuffers
// and finally Execute. A Renderer is not safe for concurrent use.
type Renderer interface {
	TextureAllocator

	// UpdateTexture uploads the system texture if its version changed since the last upload.
	//
	// Parameters:
	//   - tex: the system texture
	//
	// Returns:
	//   - error: common.ErrInvalidTexture for malformed pixel data, or a device error
	UpdateTexture(tex common.Texture) error

	// UpdateUserTextures uploads every user texture allocated since the last call.
	//
	// Returns:
	//   - error: the first device error, the failed allocation and the ones after it stay queued
	UpdateUserTextures() error

	// UpdateBuffers writes the screen uniform and the vertex and index data of every mesh.
	// The vertex and index buffers of mesh i live in slot i.
	//
	// Parameters:
	//   - meshes: the meshes of this frame
	//   - screen: the render target description
	//
	// Returns:
	//   - error: a device or queue error
	UpdateBuffers(meshes []common.ClippedMesh, screen common.ScreenDescriptor) error

	// Execute records one render pass drawing meshes into target. The target is cleared to
	// clearColor first when it is non-nil, otherwise its contents are kept.
	//
	// Parameters:
	//   - encoder: the command encoder to record into
	//   - target: the texture view to render into
	//   - meshes: the meshes passed to the preceding UpdateBuffers
	//   - screen: the render target description
	//   - clearColor: the clear color, or nil to load the existing contents
	//
	// Returns:
	//   - error: common.ErrBuffersNotUploaded, a texture resolve error, or an encoder error
	Execute(encoder backend.CommandEncoder, target backend.TextureView, meshes []common.ClippedMesh, screen common.ScreenDescriptor, clearColor *wgpu.Color) error

	// RegisterNative makes an externally owned texture view drawable under a new user texture id.
	// Freeing the id releases the bind group but never the view.
	//
	// Parameters:
	//   - view: the texture view, which must be sampleable as a float 2D texture
	//
	// Returns:
	//   - common.TextureID: the new user texture reference
	//   - error: a device error
	RegisterNative(view backend.TextureView) (common.TextureID, error)

	// OutputFormat returns the color target format the pipeline was built for.
	OutputFormat() wgpu.TextureFormat

	// Stats returns the counters of the last frame.
	Stats() FrameStats

	// Release releases every GPU resource owned by the renderer.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates the pipeline, the shared uniform resources and the texture stores.
//
// Parameters:
//   - device: the device to create resources on
//   - queue: the queue uploads are submitted on
//   - opts: a variadic list of RendererBuilderOption functions to configure the renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: common.ErrUnsupportedOutputFormat, or a device error
func NewRenderer(device backend.Device, queue backend.Queue, opts ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		id:                uuid.New(),
		logger:            common.Logger(),
		device:            device,
		queue:             queue,
		outputFormat:      wgpu.TextureFormatBGRA8UnormSrgb,
		parallelThreshold: texture_cache.DefaultParallelThreshold,
		shader:            shader.UI(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("renderer", r.id.String()[:8])

	if err := pipeline.ValidateOutputFormat(r.outputFormat); err != nil {
		return nil, err
	}
	if err := r.init(); err != nil {
		r.Release()
		return nil, err
	}
	r.logger.Debug("renderer created", "format", r.outputFormat)
	return r, nil
}

func (r *renderer) init() error {
	var err error
	if r.uniformLayout, err = r.createLayout(uniformGroup, "egui_uniform_bind_group_layout"); err != nil {
		return err
	}
	if r.textureLayout, err = r.createLayout(textureGroup, "egui_texture_bind_group_layout"); err != nil {
		return err
	}

	r.pipeline = pipeline.NewPipeline(pipelineKey, r.shader, pipeline.WithOutputFormat(r.outputFormat))
	if err = r.pipeline.Build(r.device, []backend.BindGroupLayout{r.uniformLayout, r.textureLayout}); err != nil {
		return err
	}

	if err = r.initUniform(); err != nil {
		return err
	}

	r.buffers = buffer_pool.NewBufferPool(r.device, r.queue, buffer_pool.WithLogger(r.logger))
	cacheOpts := []texture_cache.TextureCacheBuilderOption{
		texture_cache.WithParallelThreshold(r.parallelThreshold),
		texture_cache.WithLogger(r.logger),
	}
	if r.workers > 0 {
		cacheOpts = append(cacheOpts, texture_cache.WithWorkers(r.workers))
	}
	r.textures = texture_cache.NewTextureCache(r.device, r.queue, r.textureLayout, cacheOpts...)
	r.userTextures = user_texture.NewUserTextureTable(r.textureLayout, user_texture.WithLogger(r.logger))
	return nil
}

func (r *renderer) createLayout(group int, label string) (backend.BindGroupLayout, error) {
	desc := r.shader.BindGroupLayoutDescriptor(group)
	desc.Label = label
	layout, err := r.device.CreateBindGroupLayout(desc)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return layout, nil
}

// initUniform creates the uniform buffer, the sampler and the group 0 bind group tying them together.
func (r *renderer) initUniform() error {
	u := uniforms{}
	buf, err := r.device.CreateBuffer(backend.BufferDescriptor{
		Label:    uniformBufferLabel,
		Contents: common.StructToBytes(&u),
		Usage:    buffer_pool.BufferTypeUniform.Usage(),
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", uniformBufferLabel, err)
	}
	r.uniform = bind_group_provider.NewBindGroupProvider("egui_uniform", bind_group_provider.WithBuffer(uniformBinding, buf))

	sd := common.LinearSampler()
	sampler, err := r.device.CreateSampler(backend.SamplerDescriptor{
		Label:        samplerLabel,
		AddressModeU: sd.AddressModeU,
		AddressModeV: sd.AddressModeV,
		AddressModeW: sd.AddressModeW,
		MagFilter:    sd.MagFilter,
		MinFilter:    sd.MinFilter,
		MipmapFilter: sd.MipmapFilter,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", samplerLabel, err)
	}
	r.uniform.SetSampler(samplerBinding, sampler)

	bg, err := r.device.CreateBindGroup(backend.BindGroupDescriptor{
		Label:  "egui_uniform_bind_group",
		Layout: r.uniformLayout,
		Entries: []backend.BindGroupEntry{
			{Binding: uniformBinding, Buffer: buf},
			{Binding: samplerBinding, Sampler: sampler},
		},
	})
	if err != nil {
		return fmt.Errorf("create egui_uniform_bind_group: %w", err)
	}
	r.uniform.SetBindGroup(bg)
	return nil
}

func (r *renderer) Allocate(width, height int, pixels []byte) common.TextureID {
	return r.userTextures.Allocate(width, height, pixels)
}

func (r *renderer) Free(id common.TextureID) {
	r.userTextures.Free(id)
}

func (r *renderer) RegisterNative(view backend.TextureView) (common.TextureID, error) {
	return r.userTextures.RegisterNative(r.device, view)
}

func (r *renderer) UpdateTexture(tex common.Texture) error {
	_, err := r.textures.Update(tex)
	return err
}

func (r *renderer) UpdateUserTextures() error {
	if err := r.userTextures.Flush(r.device, r.queue); err != nil {
		return fmt.Errorf("update user textures: %w", err)
	}
	return nil
}

func (r *renderer) UpdateBuffers(meshes []common.ClippedMesh, screen common.ScreenDescriptor) error {
	w, h := screen.LogicalSize()
	u := uniforms{ScreenSize: [2]float32{float32(w), float32(h)}}
	if err := r.queue.WriteBuffer(r.uniform.Buffer(uniformBinding), 0, common.StructToBytes(&u)); err != nil {
		return fmt.Errorf("write %s: %w", uniformBufferLabel, err)
	}

	r.buffers.ResetStats()
	for i, m := range meshes {
		if _, err := r.buffers.Ensure(buffer_pool.BufferTypeVertex, i, common.SliceToBytes(m.Mesh.Vertices)); err != nil {
			return fmt.Errorf("mesh %d: %w", i, err)
		}
		if _, err := r.buffers.Ensure(buffer_pool.BufferTypeIndex, i, common.SliceToBytes(m.Mesh.Indices)); err != nil {
			return fmt.Errorf("mesh %d: %w", i, err)
		}
	}
	return nil
}

func (r *renderer) Execute(encoder backend.CommandEncoder, target backend.TextureView, meshes []common.ClippedMesh, screen common.ScreenDescriptor, clearColor *wgpu.Color) error {
	desc := backend.RenderPassDescriptor{
		Label:  renderPassLabel,
		Target: target,
		LoadOp: wgpu.LoadOpLoad,
	}
	if clearColor != nil {
		desc.LoadOp = wgpu.LoadOpClear
		desc.ClearColor = *clearColor
	}

	pass, err := encoder.BeginRenderPass(desc)
	if err != nil {
		return fmt.Errorf("begin %s: %w", renderPassLabel, err)
	}

	pass.PushDebugGroup(debugGroupLabel)
	pass.SetPipeline(r.pipeline.RenderPipeline())
	pass.SetBindGroup(uniformGroup, r.uniform.BindGroup())

	bs := r.buffers.Stats()
	stats := FrameStats{
		Meshes:          len(meshes),
		Allocations:     bs.Allocations,
		Reallocations:   bs.Reallocations,
		TextureRebuilds: r.textures.Rebuilds(),
	}
	drawErr := r.draw(pass, meshes, screen, &stats)

	pass.PopDebugGroup()
	endErr := pass.End()
	r.stats = stats

	if drawErr != nil {
		r.logger.Error("frame aborted", "err", drawErr)
		return drawErr
	}
	if endErr != nil {
		return fmt.Errorf("end %s: %w", renderPassLabel, endErr)
	}
	return nil
}

// draw records the draws of every mesh and stops at the first failure.
func (r *renderer) draw(pass backend.RenderPassEncoder, meshes []common.ClippedMesh, screen common.ScreenDescriptor, stats *FrameStats) error {
	for i, m := range meshes {
		rect, ok := PhysicalScissor(m.ClipRect, screen)
		if !ok {
			stats.SkippedMeshes++
			continue
		}

		vb, okV := r.buffers.Buffer(buffer_pool.BufferTypeVertex, i)
		ib, okI := r.buffers.Buffer(buffer_pool.BufferTypeIndex, i)
		if !okV || !okI {
			return fmt.Errorf("%w: mesh %d of %d", common.ErrBuffersNotUploaded, i, len(meshes))
		}

		bg, err := r.resolve(m.Mesh.Texture)
		if err != nil {
			return fmt.Errorf("mesh %d texture %s: %w", i, m.Mesh.Texture, err)
		}

		pass.SetScissorRect(rect.X, rect.Y, rect.Width, rect.Height)
		pass.SetBindGroup(textureGroup, bg)
		pass.SetVertexBuffer(0, vb)
		pass.SetIndexBuffer(ib, wgpu.IndexFormatUint32)
		pass.DrawIndexed(uint32(len(m.Mesh.Indices)))
		stats.Draws++
	}
	return nil
}

func (r *renderer) resolve(id common.TextureID) (backend.BindGroup, error) {
	switch id.Kind {
	case common.TextureKindSystem:
		return r.textures.BindGroup()
	case common.TextureKindUser:
		return r.userTextures.Resolve(id.ID)
	default:
		return nil, errors.New("unknown texture kind")
	}
}

func (r *renderer) OutputFormat() wgpu.TextureFormat {
	return r.outputFormat
}

func (r *renderer) Stats() FrameStats {
	return r.stats
}

func (r *renderer) Release() {
	if r.userTextures != nil {
		r.userTextures.Release()
	}
	if r.textures != nil {
		r.textures.Release()
	}
	if r.buffers != nil {
		r.buffers.Release()
	}
	if r.uniform != nil {
		r.uniform.Release()
		r.uniform = nil
	}
	if r.pipeline != nil {
		r.pipeline.Release()
	}
	if r.textureLayout != nil {
		r.textureLayout.Release()
		r.textureLayout = nil
	}
	if r.uniformLayout != nil {
		r.uniformLayout.Release()
		r.uniformLayout = nil
	}
}
