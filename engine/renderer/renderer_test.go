package renderer

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/backend/backendtest"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testScreen = common.ScreenDescriptor{PhysicalWidth: 800, PhysicalHeight: 600, ScaleFactor: 2}

func newTestRenderer(t *testing.T, opts ...RendererBuilderOption) (Renderer, *backendtest.Device, *backendtest.Queue) {
	t.Helper()
	device, queue := backendtest.NewDevice(), backendtest.NewQueue()
	r, err := NewRenderer(device, queue, opts...)
	require.NoError(t, err)
	return r, device, queue
}

func quad(tex common.TextureID, clip common.Rect) common.ClippedMesh {
	return common.ClippedMesh{
		ClipRect: clip,
		Mesh: common.Mesh{
			Indices: []uint32{0, 1, 2, 2, 3, 0},
			Vertices: []common.Vertex{
				{Pos: [2]float32{0, 0}, Color: 0xFFFFFFFF},
				{Pos: [2]float32{10, 0}, Color: 0xFFFFFFFF},
				{Pos: [2]float32{10, 10}, Color: 0xFFFFFFFF},
				{Pos: [2]float32{0, 10}, Color: 0xFFFFFFFF},
			},
			Texture: tex,
		},
	}
}

func systemTexture(version uint64) common.Texture {
	return common.Texture{Version: version, Width: 2, Height: 2, Pixels: []byte{0, 64, 128, 255}}
}

func lastPass(t *testing.T, enc *backendtest.Encoder) *backendtest.Pass {
	t.Helper()
	require.NotEmpty(t, enc.Passes)
	return enc.Passes[len(enc.Passes)-1]
}

func TestNewRendererCreatesSharedResources(t *testing.T) {
	_, device, _ := newTestRenderer(t)

	assert.Equal(t, 2, device.Count(backendtest.KindBindGroupLayout))
	assert.Equal(t, 1, device.Count(backendtest.KindShaderModule))
	assert.Equal(t, 1, device.Count(backendtest.KindRenderPipeline))
	assert.Equal(t, 1, device.Count(backendtest.KindSampler))
	assert.Equal(t, 1, device.Count(backendtest.KindBuffer))
	assert.Equal(t, 1, device.Count(backendtest.KindBindGroup))

	require.Len(t, device.LayoutDescs, 2)
	uniformLayout := device.LayoutDescs[0]
	require.Len(t, uniformLayout.Entries, 2)
	assert.Equal(t, wgpu.ShaderStageVertex, uniformLayout.Entries[0].Visibility)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, uniformLayout.Entries[0].Buffer.Type)
	assert.Equal(t, wgpu.ShaderStageFragment, uniformLayout.Entries[1].Visibility)
	textureLayout := device.LayoutDescs[1]
	require.Len(t, textureLayout.Entries, 1)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, textureLayout.Entries[0].Texture.SampleType)

	assert.Equal(t, "egui_uniform_buffer", device.BufferDescs[0].Label)
	assert.Len(t, device.BufferDescs[0].Contents, 16)
	assert.Equal(t, "egui_texture_sampler", device.SamplerDescs[0].Label)
	assert.Equal(t, wgpu.FilterModeLinear, device.SamplerDescs[0].MagFilter)

	desc := device.PipelineDescs[0]
	assert.Equal(t, wgpu.TextureFormatBGRA8UnormSrgb, desc.Target.Format)
	assert.Equal(t, uint64(20), desc.VertexBuffers[0].ArrayStride)
	assert.Equal(t, wgpu.BlendFactorOneMinusDstAlpha, desc.Target.Blend.Alpha.SrcFactor)
}

func TestNewRendererOutputFormats(t *testing.T) {
	r, _, _ := newTestRenderer(t, WithOutputFormat(wgpu.TextureFormatRGBA8UnormSrgb))
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb, r.OutputFormat())

	device := backendtest.NewDevice()
	_, err := NewRenderer(device, backendtest.NewQueue(), WithOutputFormat(wgpu.TextureFormatRGBA8Unorm))
	assert.ErrorIs(t, err, common.ErrUnsupportedOutputFormat)
	assert.Empty(t, device.Created)
}

func TestNewRendererFailureReleasesPartialState(t *testing.T) {
	device := backendtest.NewDevice()
	boom := errors.New("device lost")
	device.FailNext(backendtest.KindSampler, boom)

	_, err := NewRenderer(device, backendtest.NewQueue())
	assert.ErrorIs(t, err, boom)
	require.NotEmpty(t, device.Created)
	for _, h := range device.Created {
		assert.True(t, h.Released, h.String())
	}
}

func TestUpdateBuffersWritesLogicalSize(t *testing.T) {
	r, _, queue := newTestRenderer(t)
	require.NoError(t, r.UpdateBuffers(nil, testScreen))

	require.Len(t, queue.BufferWrites, 1)
	w := queue.BufferWrites[0]
	assert.Equal(t, "egui_uniform_buffer", w.Buffer.Label)
	require.Len(t, w.Data, 16)
	assert.Equal(t, float32(400), math.Float32frombits(binary.LittleEndian.Uint32(w.Data[0:4])))
	assert.Equal(t, float32(300), math.Float32frombits(binary.LittleEndian.Uint32(w.Data[4:8])))
}

func TestUpdateBuffersUploadsEveryMesh(t *testing.T) {
	r, device, _ := newTestRenderer(t)
	full := common.NewRect(0, 0, 400, 300)
	meshes := []common.ClippedMesh{quad(common.SystemTexture(), full), quad(common.SystemTexture(), full)}

	require.NoError(t, r.UpdateBuffers(meshes, testScreen))
	// uniform buffer plus a vertex and an index buffer per mesh
	assert.Equal(t, 5, device.Count(backendtest.KindBuffer))

	var sizes []uint64
	for _, desc := range device.BufferDescs[1:] {
		sizes = append(sizes, uint64(len(desc.Contents)))
	}
	assert.Equal(t, []uint64{80, 24, 80, 24}, sizes)

	// same sizes next frame reuse the buffers
	require.NoError(t, r.UpdateBuffers(meshes, testScreen))
	assert.Equal(t, 5, device.Count(backendtest.KindBuffer))
}

func TestExecuteSingleMesh(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	require.NoError(t, r.UpdateTexture(systemTexture(1)))
	meshes := []common.ClippedMesh{quad(common.SystemTexture(), common.NewRect(-10, -10, 50, 50))}
	require.NoError(t, r.UpdateBuffers(meshes, testScreen))

	enc := backendtest.NewEncoder()
	require.NoError(t, r.Execute(enc, backendtest.NewTarget(), meshes, testScreen, nil))

	pass := lastPass(t, enc)
	assert.True(t, pass.Ended)
	assert.Equal(t, []string{
		backendtest.OpPushDebugGroup,
		backendtest.OpSetPipeline,
		backendtest.OpSetBindGroup,
		backendtest.OpSetScissorRect,
		backendtest.OpSetBindGroup,
		backendtest.OpSetVertexBuffer,
		backendtest.OpSetIndexBuffer,
		backendtest.OpDrawIndexed,
		backendtest.OpPopDebugGroup,
		backendtest.OpEnd,
	}, pass.Ops())

	assert.Equal(t, "egui_pass", pass.Filter(backendtest.OpPushDebugGroup)[0].Label)
	assert.Equal(t, [4]uint32{0, 0, 100, 100}, pass.Filter(backendtest.OpSetScissorRect)[0].Rect)

	binds := pass.Filter(backendtest.OpSetBindGroup)
	assert.Equal(t, uint32(0), binds[0].Index)
	assert.Equal(t, uint32(1), binds[1].Index)

	assert.Equal(t, wgpu.IndexFormatUint32, pass.Filter(backendtest.OpSetIndexBuffer)[0].Format)
	assert.Equal(t, uint32(6), pass.Filter(backendtest.OpDrawIndexed)[0].Count)

	stats := r.Stats()
	assert.Equal(t, 1, stats.Meshes)
	assert.Equal(t, 1, stats.Draws)
	assert.Equal(t, 0, stats.SkippedMeshes)
	assert.Equal(t, 2, stats.Allocations)
	assert.Equal(t, 1, stats.TextureRebuilds)
}

func TestExecuteLoadOp(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	require.NoError(t, r.UpdateBuffers(nil, testScreen))

	enc := backendtest.NewEncoder()
	require.NoError(t, r.Execute(enc, backendtest.NewTarget(), nil, testScreen, nil))
	assert.Equal(t, wgpu.LoadOpLoad, lastPass(t, enc).Descriptor.LoadOp)
	assert.Equal(t, "egui_main_render_pass", lastPass(t, enc).Descriptor.Label)

	clear := wgpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}
	require.NoError(t, r.Execute(enc, backendtest.NewTarget(), nil, testScreen, &clear))
	assert.Equal(t, wgpu.LoadOpClear, lastPass(t, enc).Descriptor.LoadOp)
	assert.Equal(t, clear, lastPass(t, enc).Descriptor.ClearColor)
}

func TestExecuteSkipsDegenerateClip(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	// the system texture is never set: a lookup would fail the frame
	meshes := []common.ClippedMesh{quad(common.SystemTexture(), common.NewRect(500, 0, 600, 50))}
	require.NoError(t, r.UpdateBuffers(meshes, testScreen))

	enc := backendtest.NewEncoder()
	require.NoError(t, r.Execute(enc, backendtest.NewTarget(), meshes, testScreen, nil))

	pass := lastPass(t, enc)
	assert.Equal(t, 0, pass.Count(backendtest.OpSetScissorRect))
	assert.Equal(t, 0, pass.Count(backendtest.OpDrawIndexed))
	assert.Equal(t, 1, pass.Count(backendtest.OpSetBindGroup))
	assert.Equal(t, 1, r.Stats().SkippedMeshes)
}

func TestExecuteUserTexture(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	id := r.Allocate(2, 2, make([]byte, 16))
	require.NoError(t, r.UpdateUserTextures())

	meshes := []common.ClippedMesh{quad(id, common.NewRect(0, 0, 400, 300))}
	require.NoError(t, r.UpdateBuffers(meshes, testScreen))

	enc := backendtest.NewEncoder()
	require.NoError(t, r.Execute(enc, backendtest.NewTarget(), meshes, testScreen, nil))
	bg := lastPass(t, enc).Filter(backendtest.OpSetBindGroup)[1].Handle.(*backendtest.Handle)
	assert.Equal(t, "egui_user_texture_0_bind_group", bg.Label)

	r.Free(id)
	err := r.Execute(enc, backendtest.NewTarget(), meshes, testScreen, nil)
	assert.ErrorIs(t, err, common.ErrTextureFreed)
	assert.True(t, lastPass(t, enc).Ended)
}

func TestExecuteMissingBuffers(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	require.NoError(t, r.UpdateTexture(systemTexture(1)))
	full := common.NewRect(0, 0, 400, 300)
	meshes := []common.ClippedMesh{quad(common.SystemTexture(), full), quad(common.SystemTexture(), full)}
	require.NoError(t, r.UpdateBuffers(meshes[:1], testScreen))

	enc := backendtest.NewEncoder()
	err := r.Execute(enc, backendtest.NewTarget(), meshes, testScreen, nil)
	assert.ErrorIs(t, err, common.ErrBuffersNotUploaded)

	pass := lastPass(t, enc)
	assert.True(t, pass.Ended)
	assert.Equal(t, 1, pass.Count(backendtest.OpDrawIndexed))
}

func TestExecuteSystemTextureUnset(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	meshes := []common.ClippedMesh{quad(common.SystemTexture(), common.NewRect(0, 0, 400, 300))}
	require.NoError(t, r.UpdateBuffers(meshes, testScreen))

	err := r.Execute(backendtest.NewEncoder(), backendtest.NewTarget(), meshes, testScreen, nil)
	assert.ErrorIs(t, err, common.ErrSystemTextureUnset)
}

func TestExecuteBeginPassFailure(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	enc := backendtest.NewEncoder()
	boom := errors.New("surface lost")
	enc.FailNext(boom)

	err := r.Execute(enc, backendtest.NewTarget(), nil, testScreen, nil)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, enc.Passes)
}

func TestUpdateTextureRejectsInvalid(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	err := r.UpdateTexture(common.Texture{Version: 1, Width: 2, Height: 2, Pixels: []byte{1, 2, 3}})
	assert.ErrorIs(t, err, common.ErrInvalidTexture)
}

func TestRegisterNative(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	view := backendtest.NewTarget()
	id, err := r.RegisterNative(view)
	require.NoError(t, err)
	assert.True(t, id.IsUser())

	meshes := []common.ClippedMesh{quad(id, common.NewRect(0, 0, 400, 300))}
	require.NoError(t, r.UpdateBuffers(meshes, testScreen))
	require.NoError(t, r.Execute(backendtest.NewEncoder(), backendtest.NewTarget(), meshes, testScreen, nil))

	r.Release()
	assert.False(t, view.Released)
}

func TestRelease(t *testing.T) {
	r, device, _ := newTestRenderer(t)
	require.NoError(t, r.UpdateTexture(systemTexture(1)))
	r.Allocate(1, 1, make([]byte, 4))
	require.NoError(t, r.UpdateUserTextures())
	meshes := []common.ClippedMesh{quad(common.SystemTexture(), common.NewRect(0, 0, 400, 300))}
	require.NoError(t, r.UpdateBuffers(meshes, testScreen))

	r.Release()
	for _, h := range device.Created {
		assert.True(t, h.Released, h.String())
	}
}
