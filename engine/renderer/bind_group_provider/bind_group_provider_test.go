package bind_group_provider

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/backend/backendtest"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderReplaceReleasesPrevious(t *testing.T) {
	first := &backendtest.Handle{ID: 1}
	second := &backendtest.Handle{ID: 2}

	p := NewBindGroupProvider("p", WithBuffer(0, first))
	p.SetBuffer(0, first)
	assert.False(t, first.Released)

	p.SetBuffer(0, second)
	assert.True(t, first.Released)
	assert.Same(t, second, p.Buffer(0))

	p.SetBuffer(0, nil)
	assert.True(t, second.Released)
	assert.Nil(t, p.Buffer(0))
}

func TestProviderReleaseReleasesEverything(t *testing.T) {
	bg := &backendtest.Handle{ID: 1}
	tex := &backendtest.Handle{ID: 2}
	view := &backendtest.Handle{ID: 3}
	samp := &backendtest.Handle{ID: 4}

	p := NewBindGroupProvider("p", WithBindGroup(bg), WithTexture(0, tex, view), WithSampler(1, samp))
	p.Release()

	for _, h := range []*backendtest.Handle{bg, tex, view, samp} {
		assert.True(t, h.Released, h.String())
	}
	assert.Nil(t, p.BindGroup())
	assert.Nil(t, p.TextureView(0))
}

func TestInitTexture(t *testing.T) {
	device := backendtest.NewDevice()
	queue := backendtest.NewQueue()
	layout := &backendtest.Handle{ID: 100, Kind: backendtest.KindBindGroupLayout}

	pixels := make([]byte, 3*2*4)
	p, err := InitTexture(device, queue, layout, "egui_user_texture_0", common.TextureStagingData{Pixels: pixels, Width: 3, Height: 2})
	require.NoError(t, err)

	require.Len(t, device.TextureDescs, 1)
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb, device.TextureDescs[0].Format)
	assert.Equal(t, uint32(3), device.TextureDescs[0].Width)

	require.Len(t, queue.TextureWrites, 1)
	assert.Equal(t, uint32(12), queue.TextureWrites[0].Layout.BytesPerRow)
	assert.Equal(t, uint32(2), queue.TextureWrites[0].Layout.RowsPerImage)

	require.Len(t, device.BindGroupDescs, 1)
	desc := device.BindGroupDescs[0]
	assert.Same(t, layout, desc.Layout)
	require.Len(t, desc.Entries, 1)
	assert.Equal(t, uint32(TextureBinding), desc.Entries[0].Binding)
	assert.Same(t, p.TextureView(TextureBinding), desc.Entries[0].TextureView)
	assert.NotNil(t, p.BindGroup())
}

func TestInitTextureFailureReleases(t *testing.T) {
	device := backendtest.NewDevice()
	queue := backendtest.NewQueue()
	boom := errors.New("out of memory")
	device.FailNext(backendtest.KindBindGroup, boom)

	_, err := InitTexture(device, queue, &backendtest.Handle{}, "t", common.TextureStagingData{Pixels: make([]byte, 4), Width: 1, Height: 1})
	require.ErrorIs(t, err, boom)

	for _, h := range device.Created {
		assert.True(t, h.Released, h.String())
	}

	_, err = InitTexture(device, queue, &backendtest.Handle{}, "t", common.TextureStagingData{})
	assert.ErrorIs(t, err, common.ErrInvalidTexture)
}

func TestInitTextureRejectsMisSizedPayload(t *testing.T) {
	device := backendtest.NewDevice()
	queue := backendtest.NewQueue()

	_, err := InitTexture(device, queue, &backendtest.Handle{}, "t", common.TextureStagingData{Pixels: make([]byte, 10), Width: 4, Height: 4})
	assert.ErrorIs(t, err, common.ErrInvalidTexture)
	assert.Empty(t, device.Created)
	assert.Empty(t, queue.TextureWrites)
}

func TestInitTextureWriteFailureReleasesTexture(t *testing.T) {
	device := backendtest.NewDevice()
	queue := backendtest.NewQueue()
	boom := errors.New("write out of bounds")
	queue.FailNextTextureWrite(boom)

	_, err := InitTexture(device, queue, &backendtest.Handle{}, "t", common.TextureStagingData{Pixels: make([]byte, 4), Width: 1, Height: 1})
	require.ErrorIs(t, err, boom)

	require.Len(t, device.Created, 1)
	assert.True(t, device.Created[0].Released)
	assert.Equal(t, 0, device.Count(backendtest.KindTextureView))
	assert.Equal(t, 0, device.Count(backendtest.KindBindGroup))
}

func TestInitNativeTextureBorrowsView(t *testing.T) {
	device := backendtest.NewDevice()
	view := backendtest.NewTarget()

	p, err := InitNativeTexture(device, &backendtest.Handle{}, "native", view)
	require.NoError(t, err)
	require.Len(t, device.BindGroupDescs, 1)
	assert.Same(t, view, device.BindGroupDescs[0].Entries[0].TextureView)

	p.Release()
	assert.False(t, view.Released)
	assert.True(t, device.Created[0].Released)
}
