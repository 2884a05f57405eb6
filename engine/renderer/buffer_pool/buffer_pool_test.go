package buffer_pool

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/backend/backendtest"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool() (BufferPool, *backendtest.Device, *backendtest.Queue) {
	device := backendtest.NewDevice()
	queue := backendtest.NewQueue()
	return NewBufferPool(device, queue), device, queue
}

func TestEnsureCreatesExactSize(t *testing.T) {
	pool, device, queue := newTestPool()

	created, err := pool.Ensure(BufferTypeVertex, 0, make([]byte, 40))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint64(40), pool.Capacity(BufferTypeVertex, 0))
	assert.Equal(t, 1, pool.Len(BufferTypeVertex))
	assert.Equal(t, 0, pool.Len(BufferTypeIndex))

	require.Len(t, device.BufferDescs, 1)
	assert.Equal(t, wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst, device.BufferDescs[0].Usage)
	assert.Equal(t, "egui_vertex_buffer_0", device.BufferDescs[0].Label)
	assert.Empty(t, queue.BufferWrites)
}

func TestEnsureReusesCapacity(t *testing.T) {
	pool, device, queue := newTestPool()

	_, err := pool.Ensure(BufferTypeIndex, 0, make([]byte, 64))
	require.NoError(t, err)
	first, ok := pool.Buffer(BufferTypeIndex, 0)
	require.True(t, ok)

	for _, n := range []int{64, 4, 32, 60, 0} {
		created, err := pool.Ensure(BufferTypeIndex, 0, make([]byte, n))
		require.NoError(t, err)
		assert.False(t, created, "size %d", n)

		buf, _ := pool.Buffer(BufferTypeIndex, 0)
		assert.Same(t, first, buf)
		assert.Equal(t, uint64(64), pool.Capacity(BufferTypeIndex, 0))
	}

	assert.Equal(t, 1, device.Count(backendtest.KindBuffer))
	require.Len(t, queue.BufferWrites, 5)
	for _, w := range queue.BufferWrites {
		assert.Equal(t, uint64(0), w.Offset)
		assert.Same(t, first, w.Buffer)
	}
	assert.Equal(t, Stats{Allocations: 1, Writes: 5}, pool.Stats())
}

func TestEnsureGrowsAndReleasesOld(t *testing.T) {
	pool, _, _ := newTestPool()

	_, err := pool.Ensure(BufferTypeVertex, 0, make([]byte, 20))
	require.NoError(t, err)
	old, _ := pool.Buffer(BufferTypeVertex, 0)

	created, err := pool.Ensure(BufferTypeVertex, 0, make([]byte, 100))
	require.NoError(t, err)
	assert.True(t, created)

	grown, _ := pool.Buffer(BufferTypeVertex, 0)
	assert.NotSame(t, old, grown)
	assert.True(t, old.(*backendtest.Handle).Released)
	assert.Equal(t, uint64(100), pool.Capacity(BufferTypeVertex, 0))

	_, err = pool.Ensure(BufferTypeVertex, 0, make([]byte, 80))
	require.NoError(t, err)
	assert.Equal(t, uint64(100), pool.Capacity(BufferTypeVertex, 0))
	assert.Equal(t, Stats{Allocations: 1, Reallocations: 1, Writes: 1}, pool.Stats())

	pool.ResetStats()
	assert.Equal(t, Stats{}, pool.Stats())
}

func TestCapacityNeverShrinks(t *testing.T) {
	pool, _, _ := newTestPool()
	sizes := []int{8, 200, 16, 400, 4, 300, 401, 12}

	var last uint64
	for _, n := range sizes {
		_, err := pool.Ensure(BufferTypeVertex, 0, make([]byte, n))
		require.NoError(t, err)
		c := pool.Capacity(BufferTypeVertex, 0)
		assert.GreaterOrEqual(t, c, last)
		assert.GreaterOrEqual(t, c, uint64(n))
		last = c
	}
	assert.Equal(t, uint64(404), last)
}

func TestEnsurePadsUnalignedData(t *testing.T) {
	pool, device, queue := newTestPool()

	_, err := pool.Ensure(BufferTypeUniform, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), pool.Capacity(BufferTypeUniform, 0))

	_, err = pool.Ensure(BufferTypeUniform, 0, []byte{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, queue.BufferWrites, 1)
	assert.Equal(t, []byte{1, 2, 3, 0}, queue.BufferWrites[0].Data)
	assert.Equal(t, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst, device.BufferDescs[0].Usage)
}

func TestEnsureSlotOutOfRange(t *testing.T) {
	pool, _, _ := newTestPool()

	_, err := pool.Ensure(BufferTypeVertex, 1, make([]byte, 4))
	assert.ErrorIs(t, err, common.ErrSlotOutOfRange)

	_, err = pool.Ensure(BufferTypeVertex, -1, make([]byte, 4))
	assert.ErrorIs(t, err, common.ErrSlotOutOfRange)

	_, ok := pool.Buffer(BufferTypeVertex, 0)
	assert.False(t, ok)
	assert.Equal(t, uint64(0), pool.Capacity(BufferTypeVertex, 3))
}

func TestEnsurePropagatesDeviceErrors(t *testing.T) {
	pool, device, _ := newTestPool()
	boom := errors.New("device lost")
	device.FailNext(backendtest.KindBuffer, boom)

	_, err := pool.Ensure(BufferTypeIndex, 0, make([]byte, 4))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, pool.Len(BufferTypeIndex))
}

func TestRelease(t *testing.T) {
	pool, device, _ := newTestPool()
	for i := 0; i < 3; i++ {
		_, err := pool.Ensure(BufferTypeVertex, i, make([]byte, 4))
		require.NoError(t, err)
		_, err = pool.Ensure(BufferTypeIndex, i, make([]byte, 4))
		require.NoError(t, err)
	}

	pool.Release()
	assert.Equal(t, 0, pool.Len(BufferTypeVertex))
	for _, h := range device.Created {
		assert.True(t, h.Released)
	}
}

func TestWithLabelPrefix(t *testing.T) {
	device := backendtest.NewDevice()
	pool := NewBufferPool(device, backendtest.NewQueue(), WithLabelPrefix("overlay"), WithLogger(nil))

	_, err := pool.Ensure(BufferTypeIndex, 0, make([]byte, 4))
	require.NoError(t, err)
	assert.Equal(t, "overlay_index_buffer_0", device.BufferDescs[0].Label)
}
