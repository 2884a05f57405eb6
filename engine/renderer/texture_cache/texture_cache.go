package texture_cache

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/bind_group_provider"
	"github.com/charmbracelet/log"
)

// DefaultParallelThreshold is the coverage pixel count above which conversion is split across workers.
const DefaultParallelThreshold = 512 * 512

// textureCache is the implementation of the TextureCache interface.
type textureCache struct {
	device backend.Device
	queue  backend.Queue
	layout backend.BindGroupLayout
	logger *log.Logger
	label  string

	// set is false until the first successful Update.
	set      bool
	version  uint64
	provider bind_group_provider.BindGroupProvider
	rebuilds int

	parallelThreshold int
	workers           int
	pool              worker.DynamicWorkerPool
	poolStarted       bool
}

// TextureCache owns the GPU representation of the UI library's system texture.
// The texture and its bind group are rebuilt only when the incoming version differs
// from the cached one.
type TextureCache interface {
	// Update uploads the texture if its version differs from the cached version.
	// Coverage data is expanded to premultiplied white sRGBA before upload.
	//
	// Parameters:
	//   - tex: the system texture description
	//
	// Returns:
	//   - bool: true if the GPU texture was rebuilt
	//   - error: ErrInvalidTexture for malformed descriptions, or a device error; the previous texture stays bound on failure
	Update(tex common.Texture) (bool, error)

	// BindGroup returns the bind group of the cached texture.
	//
	// Returns:
	//   - backend.BindGroup: the texture bind group
	//   - error: ErrSystemTextureUnset before the first successful Update
	BindGroup() (backend.BindGroup, error)

	// Version returns the cached version and whether a texture has been set.
	Version() (uint64, bool)

	// Rebuilds returns how many times the GPU texture has been (re)built.
	Rebuilds() int

	// Release releases the GPU texture and bind group. The cache returns to the unset state.
	Release()
}

var _ TextureCache = &textureCache{}

// NewTextureCache creates an unset TextureCache.
//
// Parameters:
//   - device: the device textures are created on
//   - queue: the queue uploads are submitted on
//   - layout: the texture bind group layout the bind group is built against
//   - options: a variadic list of options to configure the cache
//
// Returns:
//   - TextureCache: the new cache
func NewTextureCache(device backend.Device, queue backend.Queue, layout backend.BindGroupLayout, options ...TextureCacheBuilderOption) TextureCache {
	c := &textureCache{
		device:            device,
		queue:             queue,
		layout:            layout,
		logger:            common.Logger(),
		label:             "egui_texture",
		parallelThreshold: DefaultParallelThreshold,
		workers:           max(runtime.NumCPU()-1, 1),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *textureCache) Update(tex common.Texture) (bool, error) {
	if c.set && c.version == tex.Version {
		return false, nil
	}

	pixels, err := c.toSRGBA(tex)
	if err != nil {
		return false, fmt.Errorf("update system texture: %w", err)
	}

	provider, err := bind_group_provider.InitTexture(c.device, c.queue, c.layout, c.label, common.TextureStagingData{
		Pixels: pixels,
		Width:  uint32(tex.Width),
		Height: uint32(tex.Height),
	})
	if err != nil {
		return false, fmt.Errorf("update system texture: %w", err)
	}

	if c.provider != nil {
		c.provider.Release()
	}
	c.provider = provider
	c.version = tex.Version
	c.set = true
	c.rebuilds++

	c.logger.Debug("rebuilt system texture", "version", tex.Version, "width", tex.Width, "height", tex.Height)
	return true, nil
}

func (c *textureCache) BindGroup() (backend.BindGroup, error) {
	if !c.set {
		return nil, common.ErrSystemTextureUnset
	}
	return c.provider.BindGroup(), nil
}

func (c *textureCache) Version() (uint64, bool) {
	return c.version, c.set
}

func (c *textureCache) Rebuilds() int {
	return c.rebuilds
}

func (c *textureCache) Release() {
	if c.provider != nil {
		c.provider.Release()
		c.provider = nil
	}
	c.set = false
	c.version = 0
}

// toSRGBA returns the texture's pixels as sRGBA8. Four-channel data is returned as-is.
func (c *textureCache) toSRGBA(tex common.Texture) ([]byte, error) {
	channels, err := tex.Channels()
	if err != nil {
		return nil, err
	}
	if channels == 4 {
		return tex.Pixels, nil
	}

	dst := make([]byte, len(tex.Pixels)*4)
	if len(tex.Pixels) < c.parallelThreshold || c.workers < 2 || tex.Height < 2 {
		common.CoverageToSRGBA(dst, tex.Pixels)
		return dst, nil
	}

	if !c.poolStarted {
		// workers idle-exit after a second, large uploads are rare
		c.pool = worker.NewDynamicWorkerPool(c.workers, 64, 1*time.Second)
		c.poolStarted = true
	}

	// split into row bands so each task touches a disjoint range of dst
	bands := common.Clamp(c.workers, 2, tex.Height)
	rowsPerBand := (tex.Height + bands - 1) / bands

	var wg sync.WaitGroup
	taskID := 0
	for row := 0; row < tex.Height; row += rowsPerBand {
		start := row * tex.Width
		end := min(row+rowsPerBand, tex.Height) * tex.Width

		wg.Add(1)
		id := taskID
		taskID++
		c.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				common.CoverageToSRGBA(dst[start*4:end*4], tex.Pixels[start:end])
				return nil, nil
			},
		})
	}
	wg.Wait()

	return dst, nil
}
