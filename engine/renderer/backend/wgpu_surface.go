package backend

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// SurfaceContext owns the wgpu instance, adapter, device, queue and presentation surface of one window.
// It hands the renderer adapted Device/Queue values and brackets every frame with BeginFrame and EndFrame.
type SurfaceContext struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	format      wgpu.TextureFormat
	presentMode wgpu.PresentMode

	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
	frameEncoder *wgpu.CommandEncoder
}

// Frame is the per-frame recording state handed out by BeginFrame.
type Frame struct {
	Encoder CommandEncoder
	Target  TextureView
}

// NewSurfaceContext creates the instance, surface, adapter and device for a window surface.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor, usually produced by the window package
//   - forceFallbackAdapter: whether to request the software fallback adapter
//   - vsync: true selects FIFO presentation, false selects immediate presentation
//
// Returns:
//   - *SurfaceContext: the initialized context
//   - error: if no adapter or device could be acquired
func NewSurfaceContext(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter, vsync bool) (*SurfaceContext, error) {
	runtime.LockOSThread()

	c := &SurfaceContext{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
	}
	if vsync {
		c.presentMode = wgpu.PresentModeFifo
	}
	c.surface = c.instance.CreateSurface(surfaceDescriptor)

	a, err := c.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    c.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	c.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "egui_device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	c.device = d
	c.queue = d.GetQueue()

	return c, nil
}

// Device returns the adapted device.
func (c *SurfaceContext) Device() Device {
	return NewWGPUDevice(c.device)
}

// Queue returns the adapted queue.
func (c *SurfaceContext) Queue() Queue {
	return NewWGPUQueue(c.queue)
}

// Format returns the surface format chosen by the last Configure call.
func (c *SurfaceContext) Format() wgpu.TextureFormat {
	return c.format
}

// Configure (re)configures the surface for the given framebuffer size. The preferred
// format is the first sRGB 8-bit format the surface supports, falling back to the first format.
//
// Parameters:
//   - width: framebuffer width in physical pixels
//   - height: framebuffer height in physical pixels
func (c *SurfaceContext) Configure(width, height uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	capabilities := c.surface.GetCapabilities(c.adapter)
	c.format = capabilities.Formats[0]
	for _, f := range capabilities.Formats {
		if f == wgpu.TextureFormatBGRA8UnormSrgb || f == wgpu.TextureFormatRGBA8UnormSrgb {
			c.format = f
			break
		}
	}

	c.surface.Configure(c.adapter, c.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      c.format,
		Width:       width,
		Height:      height,
		PresentMode: c.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

// BeginFrame acquires the next surface texture and opens a command encoder for it.
//
// Returns:
//   - Frame: the encoder and render target for this frame
//   - error: if a frame is already open or acquisition fails
func (c *SurfaceContext) BeginFrame() (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frameTexture != nil {
		return Frame{}, fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := c.surface.GetCurrentTexture()
	if err != nil {
		return Frame{}, err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return Frame{}, err
	}

	encoder, err := c.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return Frame{}, err
	}

	c.frameTexture = surfaceTexture
	c.frameView = view
	c.frameEncoder = encoder

	return Frame{Encoder: NewWGPUCommandEncoder(encoder), Target: WrapTextureView(view)}, nil
}

// EndFrame finishes and submits the frame's command buffer, then presents the surface.
//
// Returns:
//   - error: if the command buffer could not be finished
func (c *SurfaceContext) EndFrame() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frameTexture == nil {
		return nil
	}
	defer c.releaseFrame()

	commandBuffer, err := c.frameEncoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish frame: %w", err)
	}
	c.queue.Submit(commandBuffer)
	commandBuffer.Release()

	c.surface.Present()
	return nil
}

func (c *SurfaceContext) releaseFrame() {
	if c.frameEncoder != nil {
		c.frameEncoder.Release()
		c.frameEncoder = nil
	}
	if c.frameView != nil {
		c.frameView.Release()
		c.frameView = nil
	}
	if c.frameTexture != nil {
		c.frameTexture.Release()
		c.frameTexture = nil
	}
}

// Release drops all device-level objects.
func (c *SurfaceContext) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.releaseFrame()
	c.queue.Release()
	c.device.Release()
	c.adapter.Release()
	c.surface.Release()
	c.instance.Release()
}
