package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Window is a GLFW window the renderer presents to. It creates no graphics context of its own;
// the renderer builds a wgpu surface from SurfaceDescriptor.
type Window interface {
	// SetResizeCallback sets the callback invoked with the new framebuffer size in pixels.
	//
	// Parameters:
	//   - callback: function to call on resize
	SetResizeCallback(callback func(width, height int))

	// SetKeyCallback sets the callback invoked on key presses, repeats and releases.
	//
	// Parameters:
	//   - callback: function called with the key code and whether it is down
	SetKeyCallback(callback func(keyCode uint32, down bool))

	// SetTitle replaces the title bar text.
	SetTitle(title string)

	// SurfaceDescriptor returns the platform-specific surface descriptor for WebGPU surface creation.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the surface descriptor, nil if the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	IsRunning() bool

	// Close destroys the window and terminates GLFW.
	//
	// Returns:
	//   - error: error if the window was already closed
	Close() error

	// ProcessMessages polls pending window events without blocking.
	//
	// Returns:
	//   - bool: true while the window is still running
	ProcessMessages() bool

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int
}

// glfwWindow is the implementation of the Window interface.
type glfwWindow struct {
	title     string
	width     int
	height    int
	minWidth  int
	minHeight int
	maxWidth  int
	maxHeight int
	resizable bool

	window  *glfw.Window
	running bool

	onResize func(width, height int)
	onKey    func(keyCode uint32, down bool)
}

var _ Window = &glfwWindow{}

// NewWindow creates and shows a new Window with the specified options.
// Applies default values first, then each option in order. Must be called from the main goroutine.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: an error if GLFW could not create the window
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &glfwWindow{
		title:     "oxy-render",
		width:     1280,
		height:    720,
		minWidth:  320,
		minHeight: 200,
		maxWidth:  glfw.DontCare,
		maxHeight: glfw.DontCare,
		resizable: true,
	}
	for _, opt := range options {
		opt(w)
	}

	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	// WebGPU provides its own graphics API, so disable OpenGL context creation.
	// Reference: https://www.glfw.org/docs/latest/window_guide.html#window_hints_ctx
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	if !w.resizable {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create GLFW window: %w", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)
	w.window = win
	w.running = true

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.Key(common.KeyEscape) && action == glfw.Press {
			w.running = false
			win.SetShouldClose(true)
			return
		}
		if w.onKey == nil {
			return
		}
		switch action {
		case glfw.Press, glfw.Repeat:
			w.onKey(uint32(key), true)
		case glfw.Release:
			w.onKey(uint32(key), false)
		}
	})

	// On high-DPI displays the framebuffer size differs from the window size, and the surface
	// must be configured in pixels.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if w.onResize != nil && width > 0 && height > 0 {
			w.onResize(width, height)
		}
	})
	w.width, w.height = win.GetFramebufferSize()

	return w, nil
}

func (w *glfwWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *glfwWindow) SetKeyCallback(callback func(keyCode uint32, down bool)) {
	w.onKey = callback
}

func (w *glfwWindow) SetTitle(title string) {
	w.title = title
	if w.window != nil {
		w.window.SetTitle(title)
	}
}

// SurfaceDescriptor uses the wgpuglfw bridge, which has per-platform implementations
// (Windows, X11, Wayland, macOS).
func (w *glfwWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.window == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.window)
}

func (w *glfwWindow) IsRunning() bool {
	return w.window != nil && w.running && !w.window.ShouldClose()
}

func (w *glfwWindow) Close() error {
	if w.window == nil {
		return fmt.Errorf("window is not initialized")
	}
	w.running = false
	w.window.SetShouldClose(true)
	w.window.Destroy()
	w.window = nil
	glfw.Terminate()
	return nil
}

func (w *glfwWindow) ProcessMessages() bool {
	glfw.PollEvents()
	return w.IsRunning()
}

func (w *glfwWindow) Width() int {
	return w.width
}

func (w *glfwWindow) Height() int {
	return w.height
}
