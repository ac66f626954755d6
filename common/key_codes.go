package common

// Virtual key codes for input polled from the window.
// These values match GLFW key codes, which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeySpace  = 32  // Space key (ASCII)
	KeyB      = 66  // B key (ASCII)
	KeyP      = 80  // P key (ASCII)
	KeyS      = 83  // S key (ASCII)
	KeyW      = 87  // W key (ASCII)
	KeyEscape = 256 // Escape key
)
