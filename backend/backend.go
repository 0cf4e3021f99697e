package backend

import "errors"

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrBadAttribute is returned for attribute queries the backend does not know.
	ErrBadAttribute = errors.New("backend: bad attribute")

	// ErrBadDrawable is returned when a drawable handle is not known to the backend.
	ErrBadDrawable = errors.New("backend: bad drawable")
)

// Handle types. These mirror the GLX handle taxonomy: drawables are X
// resource ids and therefore valid across any connection to the same
// server; contexts, configs and sync objects are client-side handles
// owned by the backend that issued them.
type (
	// Display identifies one connection to an X server, as opened by
	// OpenDisplay. Distinct backends never share Display values.
	Display uintptr

	// Context is a GL rendering context handle.
	Context uintptr

	// FBConfig is a framebuffer configuration handle.
	FBConfig uintptr

	// Drawable is an X resource id naming a window, pixmap, GLX pixmap,
	// GLX window or pbuffer.
	Drawable uint32

	// Sync is a GPU fence handle, waitable from any context in the same
	// share group as the context that inserted it.
	Sync uintptr
)

// VisualInfo describes an X visual. Native carries the backend's own
// representation (an XVisualInfo pointer for the vendor-library backend)
// and must be passed back unchanged to GetConfig and CreateGLXPixmap.
type VisualInfo struct {
	ID     uint32
	Screen int
	Depth  int
	Native uintptr
}

// Backend is one loaded GL implementation together with the GLX surface
// it exposes. The offload pipeline loads two of these: the accelerator
// backend, where all application rendering happens, and the display
// backend, which only ever uploads and blits the finished frames.
//
// Calls that create or destroy server-side resources follow GLX error
// semantics: they return zero handles on failure rather than errors, and
// the caller decides how fatal that is.
type Backend interface {
	// Name returns the backend identifier (e.g. "libgl", "software").
	Name() string

	// OpenDisplay opens a connection to the named X display.
	// An empty name selects the DISPLAY environment default.
	OpenDisplay(name string) (Display, error)

	// CloseDisplay closes a connection opened by OpenDisplay.
	CloseDisplay(dpy Display)

	// ChooseFBConfig returns the configs matching the attribute list,
	// best match first. Attributes are (name, value) pairs.
	ChooseFBConfig(dpy Display, screen int, attrs []int) []FBConfig

	// GetFBConfigAttrib queries a single attribute of a config.
	GetFBConfigAttrib(dpy Display, config FBConfig, attrib int) (int, error)

	// GetVisualFromFBConfig returns the visual associated with the
	// config, or nil if the config has none.
	GetVisualFromFBConfig(dpy Display, config FBConfig) *VisualInfo

	// ChooseVisual selects a visual matching the attribute list. The
	// list uses glXChooseVisual conventions: boolean attributes such as
	// RGBA and DoubleBuffer appear alone, valued attributes as pairs.
	ChooseVisual(dpy Display, screen int, attrs []int) *VisualInfo

	// GetConfig queries a single attribute of a visual.
	GetConfig(dpy Display, vis *VisualInfo, attrib int) (int, error)

	// CreateContext creates a GL context for the config. If share is
	// nonzero the new context joins its share group.
	CreateContext(dpy Display, config FBConfig, renderType int, share Context, direct bool) Context

	// DestroyContext destroys a context created by CreateContext.
	DestroyContext(dpy Display, ctx Context)

	// IsDirect reports whether the context is direct-rendering.
	IsDirect(dpy Display, ctx Context) bool

	// MakeCurrent binds the context to the calling OS thread with the
	// given draw and read drawables and returns a GL bound to that
	// current state. Passing a zero context releases the thread's
	// current context; the returned GL is then nil.
	MakeCurrent(dpy Display, draw, read Drawable, ctx Context) (GL, bool)

	// SwapBuffers swaps the buffers of the drawable. On a window this
	// presents; on a pbuffer it only defines the next back buffer.
	SwapBuffers(dpy Display, draw Drawable)

	// CreateWindow creates a GLX window on an existing X window.
	CreateWindow(dpy Display, config FBConfig, win Drawable, attrs []int) Drawable

	// DestroyWindow destroys a GLX window.
	DestroyWindow(dpy Display, win Drawable)

	// CreatePbuffer creates an off-screen pbuffer. Attributes are
	// (name, value) pairs; PbufferWidth and PbufferHeight size it.
	CreatePbuffer(dpy Display, config FBConfig, attrs []int) Drawable

	// DestroyPbuffer destroys a pbuffer.
	DestroyPbuffer(dpy Display, pbuf Drawable)

	// CreatePixmap creates a GLX pixmap from an X pixmap.
	CreatePixmap(dpy Display, config FBConfig, pixmap Drawable, attrs []int) Drawable

	// CreateGLXPixmap is the pre-1.3 visual-based pixmap constructor.
	CreateGLXPixmap(dpy Display, vis *VisualInfo, pixmap Drawable) Drawable

	// DestroyPixmap destroys a drawable made by CreatePixmap or
	// CreateGLXPixmap.
	DestroyPixmap(dpy Display, pixmap Drawable)

	// QueryDrawable queries a single attribute of a drawable.
	QueryDrawable(dpy Display, draw Drawable, attrib int) (uint32, error)

	// UseXFont builds display lists from an X font. The font id must be
	// open on the same server the backend's displays connect to.
	UseXFont(font uint32, first, count, listBase int)

	// GetProcAddress resolves a GL entry point in the loaded library.
	// Returns 0 for unknown names.
	GetProcAddress(name string) uintptr
}

// GL is the subset of OpenGL the offload pipeline needs, bound to the
// context that was current when MakeCurrent returned it. A GL remains
// usable across re-MakeCurrent of the same context; mutable state such
// as buffer bindings lives in the context, as in OpenGL proper.
//
// All operations must be called from the OS thread on which the context
// is current.
type GL interface {
	GenBuffers(n int) []uint32
	DeleteBuffers(bufs []uint32)
	BindBuffer(target uint32, buf uint32)

	// BufferData allocates size bytes of undefined storage for the
	// buffer bound to target, with the given usage hint.
	BufferData(target uint32, size int, usage uint32)

	// MapBuffer maps the buffer bound to target and returns its
	// contents. size is the mapped length in bytes. The slice is valid
	// until UnmapBuffer.
	MapBuffer(target uint32, access uint32, size int) []byte

	UnmapBuffer(target uint32)

	// ReadBuffer selects the color source for ReadPixels.
	ReadBuffer(src uint32)

	// ReadPixels starts a pixel read into the buffer bound to
	// PixelPackBuffer. With a pack buffer bound the read is
	// asynchronous; completion is observed by MapBuffer.
	ReadPixels(x, y, width, height int, format, xtype uint32)

	GenTextures(n int) []uint32
	DeleteTextures(texs []uint32)
	BindTexture(target uint32, tex uint32)

	// TexImage2D allocates texture storage with undefined contents.
	TexImage2D(target uint32, internalFormat int32, width, height int, format, xtype uint32)

	// TexSubImage2D uploads pixels into the bound texture.
	TexSubImage2D(target uint32, width, height int, format, xtype uint32, pixels []byte)

	Viewport(x, y, width, height int)
	ClearColor(r, g, b, a float32)
	Clear(mask uint32)

	// FenceSync inserts a fence after the commands issued so far.
	FenceSync() Sync

	// WaitSync makes the GPU wait for the fence without blocking the CPU.
	WaitSync(s Sync)

	DeleteSync(s Sync)

	// InitQuad sets up the fixed-function state for DrawQuad: a
	// screen-filling two-coordinate vertex array, a rectangle-texture
	// coordinate array and the rectangle texture target enable.
	InitQuad()

	// DrawQuad draws the screen-filling quad sampling the bound
	// rectangle texture with unnormalized coordinates up to
	// (texWidth, texHeight).
	DrawQuad(texWidth, texHeight float32)
}
