package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyA     = 65 // A key (ASCII)
	KeyC     = 67 // C key (ASCII)
	KeyV     = 86 // V key (ASCII)
	KeyX     = 88 // X key (ASCII)
	KeyZ     = 90 // Z key (ASCII)
	KeySpace = 32 // Spacebar (ASCII)
)

// Text editing and navigation keys
const (
	KeyEsc       = 256 // Escape key (GLFW)
	KeyEnter     = 257 // Enter key (GLFW)
	KeyTab       = 258 // Tab key (GLFW)
	KeyBackspace = 259 // Backspace key (GLFW)
	KeyDelete    = 261 // Delete key (GLFW)
	KeyRight     = 262 // Right arrow (GLFW)
	KeyLeft      = 263 // Left arrow (GLFW)
	KeyDown      = 264 // Down arrow (GLFW)
	KeyUp        = 265 // Up arrow (GLFW)
	KeyPageUp    = 266 // Page Up (GLFW)
	KeyPageDown  = 267 // Page Down (GLFW)
	KeyHome      = 268 // Home (GLFW)
	KeyEnd       = 269 // End (GLFW)
)

// Pointer buttons, matching GLFW mouse button indices.
const (
	PointerPrimary   = 0
	PointerSecondary = 1
	PointerMiddle    = 2
)
