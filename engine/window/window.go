package window

import (
	"runtime"

	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and the input events an immediate-mode UI consumes.
// Pointer positions are reported in logical points, sizes in physical pixels.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving the new framebuffer width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScaleCallback sets the function called when the window moves to a display with a different content scale.
	//
	// Parameters:
	//   - callback: function receiving the new scale factor
	SetScaleCallback(callback func(scale float32))

	// SetPointerMoveCallback sets the callback for pointer movement.
	//
	// Parameters:
	//   - callback: function receiving the pointer position in logical points
	SetPointerMoveCallback(callback func(x, y float32))

	// SetPointerButtonCallback sets the callback for pointer button presses and releases.
	//
	// Parameters:
	//   - callback: function receiving the button (common.PointerPrimary etc.) and its new state
	SetPointerButtonCallback(callback func(button int, pressed bool))

	// SetScrollCallback sets the callback for scroll wheel and trackpad events.
	//
	// Parameters:
	//   - callback: function receiving the horizontal and vertical scroll delta
	SetScrollCallback(callback func(dx, dy float32))

	// SetKeyCallback sets the callback for key events. Repeats are reported as presses.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code and whether it is down
	SetKeyCallback(callback func(keyCode uint32, pressed bool))

	// SetCharCallback sets the callback for text input.
	//
	// Parameters:
	//   - callback: function receiving each typed character
	SetCharCallback(callback func(r rune))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// ScreenDescriptor describes the current framebuffer for the renderer.
	//
	// Returns:
	//   - common.ScreenDescriptor: the framebuffer size and content scale
	ScreenDescriptor() common.ScreenDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// RequestClose stops the message loop after the current iteration without destroying the window.
	// Safe to call from inside callbacks.
	RequestClose()

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls OnUpdate callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int

	// Scale returns the current content scale, the number of pixels per logical point.
	Scale() float32
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// minWidth and minHeight bound the window size during resize.
	minWidth, minHeight int

	// width and height are the current framebuffer size in pixels.
	width, height int

	// scale is the current content scale.
	scale float32

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate        func()
	onResize        func(width, height int)
	onScale         func(scale float32)
	onPointerMove   func(x, y float32)
	onPointerButton func(button int, pressed bool)
	onScroll        func(dx, dy float32)
	onKey           func(keyCode uint32, pressed bool)
	onChar          func(r rune)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the spawned window
//   - error: if GLFW could not be initialized or the window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "oxy-ui",
		minWidth:  320,
		minHeight: 200,
		width:     1280,
		height:    720,
		scale:     1,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, err
	}
	return w, nil
}

// screenDescriptor builds a ScreenDescriptor, falling back to a scale of 1 when the platform reports none.
func screenDescriptor(width, height int, scale float32) common.ScreenDescriptor {
	if scale <= 0 {
		scale = 1
	}
	return common.ScreenDescriptor{
		PhysicalWidth:  uint32(max(width, 0)),
		PhysicalHeight: uint32(max(height, 0)),
		ScaleFactor:    scale,
	}
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScaleCallback(callback func(scale float32)) {
	w.onScale = callback
}

func (w *engineWindow) SetPointerMoveCallback(callback func(x, y float32)) {
	w.onPointerMove = callback
}

func (w *engineWindow) SetPointerButtonCallback(callback func(button int, pressed bool)) {
	w.onPointerButton = callback
}

func (w *engineWindow) SetScrollCallback(callback func(dx, dy float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyCallback(callback func(keyCode uint32, pressed bool)) {
	w.onKey = callback
}

func (w *engineWindow) SetCharCallback(callback func(r rune)) {
	w.onChar = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) ScreenDescriptor() common.ScreenDescriptor {
	return screenDescriptor(w.width, w.height, w.scale)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

func (w *engineWindow) Scale() float32 {
	return w.scale
}
