package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/Carmen-Shannon/oxy-ui/engine/profiler"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-ui/engine/window"
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoWindow is returned by Run when the engine was built without a window.
var ErrNoWindow = errors.New("engine has no window")

// Surface is the presentation target the engine records frames into.
// backend.SurfaceContext satisfies it.
type Surface interface {
	Configure(width, height uint32)
	BeginFrame() (backend.Frame, error)
	EndFrame() error
}

// FrameOutput is what the UI produced for one frame: the system texture deltas to apply
// in order, followed by the tessellated meshes in paint order.
type FrameOutput struct {
	Textures []common.Texture
	Meshes   []common.ClippedMesh
}

// FrameCallback builds one frame of UI.
//
// Parameters:
//   - deltaTime: seconds since the previous frame
//   - screen: the target size and scale of this frame
//
// Returns:
//   - FrameOutput: the textures and meshes to draw
type FrameCallback func(deltaTime float32, screen common.ScreenDescriptor) FrameOutput

// engine implements the Engine interface.
// Drives the renderer once per window update.
type engine struct {
	logger   *log.Logger
	window   window.Window
	surface  Surface
	renderer renderer.Renderer

	profiler         *profiler.Profiler
	profilingEnabled bool

	frameCallback    FrameCallback
	clearColor       atomic.Pointer[wgpu.Color]
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	now        func() time.Time
	sleep      func(time.Duration)
	lastRender time.Time
	frames     uint64

	quitChannel chan struct{}
	quitOnce    sync.Once
}

// Engine is the main entry point for an application.
// It owns the frame lifecycle: build UI, upload textures and buffers, record the pass and present.
type Engine interface {
	// Window returns the underlying window, nil for headless engines.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer frames are drawn with.
	Renderer() renderer.Renderer

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetFrameCallback registers the function that builds each frame.
	//
	// Parameters:
	//   - callback: called once per render frame
	SetFrameCallback(callback FrameCallback)

	// SetClearColor sets the color the target is cleared to before drawing.
	// Pass nil to draw on top of the existing contents. Safe to call from any goroutine.
	//
	// Parameters:
	//   - c: the clear color, or nil to load
	SetClearColor(c *wgpu.Color)

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// RenderFrame runs one full frame against the given screen.
	// A zero-sized screen is skipped. A frame whose surface texture cannot be acquired is
	// skipped with a warning.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous frame
	//   - screen: the target size and scale
	//
	// Returns:
	//   - error: the first texture, buffer or draw error of the frame
	RenderFrame(deltaTime float32, screen common.ScreenDescriptor) error

	// Frames returns the number of frames presented so far.
	Frames() uint64

	// Run drives RenderFrame from the window message loop. Blocks until the window closes
	// or Quit is called. A frame error stops the loop and is returned.
	//
	// Returns:
	//   - error: the frame error that stopped the loop, or ErrNoWindow
	Run() error

	// Quit signals the loop to stop after the current frame.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine drawing with r into s.
//
// Parameters:
//   - r: the renderer, already created on the surface's device
//   - s: the presentation surface
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(r renderer.Renderer, s Surface, options ...EngineBuilderOption) Engine {
	e := &engine{
		logger:      common.Logger().WithPrefix("engine"),
		surface:     s,
		renderer:    r,
		profiler:    profiler.NewProfiler(),
		now:         time.Now,
		sleep:       time.Sleep,
		quitChannel: make(chan struct{}),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if width > 0 && height > 0 {
				e.surface.Configure(uint32(width), uint32(height))
			}
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetFrameCallback(callback FrameCallback) {
	e.frameCallback = callback
}

func (e *engine) SetClearColor(c *wgpu.Color) {
	if c == nil {
		e.clearColor.Store(nil)
		return
	}
	v := *c
	e.clearColor.Store(&v)
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) Frames() uint64 {
	return e.frames
}

func (e *engine) RenderFrame(deltaTime float32, screen common.ScreenDescriptor) error {
	if screen.PhysicalWidth == 0 || screen.PhysicalHeight == 0 {
		return nil
	}

	var out FrameOutput
	if e.frameCallback != nil {
		out = e.frameCallback(deltaTime, screen)
	}

	for _, tex := range out.Textures {
		if err := e.renderer.UpdateTexture(tex); err != nil {
			return fmt.Errorf("update texture: %w", err)
		}
	}
	if err := e.renderer.UpdateUserTextures(); err != nil {
		return fmt.Errorf("update user textures: %w", err)
	}
	if err := e.renderer.UpdateBuffers(out.Meshes, screen); err != nil {
		return fmt.Errorf("update buffers: %w", err)
	}

	frame, err := e.surface.BeginFrame()
	if err != nil {
		e.logger.Warn("skipping frame", "err", err)
		return nil
	}

	drawErr := e.renderer.Execute(frame.Encoder, frame.Target, out.Meshes, screen, e.clearColor.Load())
	// the surface frame is always closed so the next BeginFrame can succeed
	if err := e.surface.EndFrame(); err != nil && drawErr == nil {
		drawErr = fmt.Errorf("end frame: %w", err)
	}
	if drawErr != nil {
		return drawErr
	}
	e.frames++

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick(e.renderer.Stats())
	}
	return nil
}

func (e *engine) Run() error {
	if e.window == nil {
		return ErrNoWindow
	}

	var runErr error
	e.lastRender = e.now()
	e.window.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			e.window.RequestClose()
			return
		default:
		}

		if err := e.step(e.window.ScreenDescriptor()); err != nil {
			e.logger.Error("frame failed", "err", err)
			runErr = err
			e.Quit()
			e.window.RequestClose()
		}
	})
	e.window.ProcessMessages()
	return runErr
}

// step renders one frame at the current time then applies the frame rate limit.
func (e *engine) step(screen common.ScreenDescriptor) error {
	start := e.now()
	dt := float32(start.Sub(e.lastRender).Seconds())
	e.lastRender = start

	if err := e.RenderFrame(dt, screen); err != nil {
		return err
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - e.now().Sub(start); remaining > 0 {
			e.sleep(remaining)
		}
	}
	return nil
}

// Quit closes the quit channel once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}
