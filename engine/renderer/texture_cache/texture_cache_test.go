package texture_cache

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/backend/backendtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(options ...TextureCacheBuilderOption) (TextureCache, *backendtest.Device, *backendtest.Queue) {
	device := backendtest.NewDevice()
	queue := backendtest.NewQueue()
	layout := &backendtest.Handle{ID: 1000, Kind: backendtest.KindBindGroupLayout}
	return NewTextureCache(device, queue, layout, options...), device, queue
}

func coverage(w, h int, version uint64) common.Texture {
	pixels := make([]byte, w*h)
	for i := range pixels {
		pixels[i] = byte(i)
	}
	return common.Texture{Version: version, Width: w, Height: h, Pixels: pixels}
}

func TestBindGroupBeforeUpdate(t *testing.T) {
	cache, _, _ := newTestCache()

	_, err := cache.BindGroup()
	assert.ErrorIs(t, err, common.ErrSystemTextureUnset)

	_, set := cache.Version()
	assert.False(t, set)
}

func TestSameVersionDoesNotRebuild(t *testing.T) {
	cache, device, queue := newTestCache()

	rebuilt, err := cache.Update(coverage(4, 4, 7))
	require.NoError(t, err)
	assert.True(t, rebuilt)
	first, err := cache.BindGroup()
	require.NoError(t, err)

	rebuilt, err = cache.Update(coverage(4, 4, 7))
	require.NoError(t, err)
	assert.False(t, rebuilt)
	second, err := cache.BindGroup()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, device.Count(backendtest.KindTexture))
	assert.Len(t, queue.TextureWrites, 1)
	assert.Equal(t, 1, cache.Rebuilds())
}

func TestVersionZeroIsUploadedOnce(t *testing.T) {
	cache, device, _ := newTestCache()

	for i := 0; i < 3; i++ {
		_, err := cache.Update(coverage(2, 2, 0))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, device.Count(backendtest.KindTexture))

	v, set := cache.Version()
	assert.True(t, set)
	assert.Equal(t, uint64(0), v)
}

func TestNewVersionRebuildsAndReleasesOld(t *testing.T) {
	cache, device, _ := newTestCache()

	_, err := cache.Update(coverage(4, 4, 1))
	require.NoError(t, err)
	first, _ := cache.BindGroup()

	rebuilt, err := cache.Update(coverage(8, 2, 2))
	require.NoError(t, err)
	assert.True(t, rebuilt)
	second, _ := cache.BindGroup()

	assert.NotSame(t, first, second)
	assert.True(t, first.(*backendtest.Handle).Released)
	assert.Equal(t, 2, device.Count(backendtest.KindTexture))
	assert.Equal(t, uint32(8), device.TextureDescs[1].Width)
	assert.Equal(t, uint32(2), device.TextureDescs[1].Height)

	// going back to an older version is still a mismatch
	rebuilt, err = cache.Update(coverage(4, 4, 1))
	require.NoError(t, err)
	assert.True(t, rebuilt)
}

func TestCoverageIsExpandedToSRGBA(t *testing.T) {
	cache, _, queue := newTestCache()

	tex := common.Texture{Version: 1, Width: 2, Height: 1, Pixels: []byte{0x00, 0x80}}
	_, err := cache.Update(tex)
	require.NoError(t, err)

	require.Len(t, queue.TextureWrites, 1)
	w := queue.TextureWrites[0]
	assert.Equal(t, []byte{0, 0, 0, 0, 0x80, 0x80, 0x80, 0x80}, w.Data)
	assert.Equal(t, uint32(8), w.Layout.BytesPerRow)
	assert.Equal(t, uint32(1), w.Layout.RowsPerImage)
}

func TestSRGBAPassesThrough(t *testing.T) {
	cache, _, queue := newTestCache()

	pixels := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	_, err := cache.Update(common.Texture{Version: 1, Width: 1, Height: 2, Pixels: pixels})
	require.NoError(t, err)

	require.Len(t, queue.TextureWrites, 1)
	assert.Equal(t, pixels, queue.TextureWrites[0].Data)
	assert.Equal(t, uint32(4), queue.TextureWrites[0].Layout.BytesPerRow)
}

func TestParallelConversionMatchesSerial(t *testing.T) {
	serial, _, serialQueue := newTestCache()
	parallel, _, parallelQueue := newTestCache(WithParallelThreshold(1), WithWorkers(4))

	tex := coverage(37, 23, 1)
	_, err := serial.Update(tex)
	require.NoError(t, err)
	_, err = parallel.Update(tex)
	require.NoError(t, err)

	require.Len(t, parallelQueue.TextureWrites, 1)
	assert.Equal(t, serialQueue.TextureWrites[0].Data, parallelQueue.TextureWrites[0].Data)
}

func TestInvalidTextureKeepsPrevious(t *testing.T) {
	cache, _, _ := newTestCache()

	_, err := cache.Update(coverage(2, 2, 1))
	require.NoError(t, err)
	before, _ := cache.BindGroup()

	_, err = cache.Update(common.Texture{Version: 2, Width: 2, Height: 2, Pixels: make([]byte, 3)})
	assert.ErrorIs(t, err, common.ErrInvalidTexture)

	after, err := cache.BindGroup()
	require.NoError(t, err)
	assert.Same(t, before, after)
	v, _ := cache.Version()
	assert.Equal(t, uint64(1), v)
}

func TestDeviceFailureIsPropagated(t *testing.T) {
	cache, device, _ := newTestCache(WithLabel("fonts"), WithLogger(nil))
	boom := errors.New("allocation failed")
	device.FailNext(backendtest.KindTexture, boom)

	_, err := cache.Update(coverage(2, 2, 1))
	assert.ErrorIs(t, err, boom)

	_, err = cache.BindGroup()
	assert.ErrorIs(t, err, common.ErrSystemTextureUnset)

	_, err = cache.Update(coverage(2, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, "fonts", device.TextureDescs[0].Label)
}

func TestRelease(t *testing.T) {
	cache, device, _ := newTestCache()
	_, err := cache.Update(coverage(2, 2, 1))
	require.NoError(t, err)

	cache.Release()
	for _, h := range device.Created {
		assert.True(t, h.Released, h.String())
	}
	_, err = cache.BindGroup()
	assert.ErrorIs(t, err, common.ErrSystemTextureUnset)
}
