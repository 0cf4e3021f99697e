//go:build linux

// Package libgl is the vendor-library backend: it loads a real GL
// library (and libX11) at runtime with dlopen and resolves the GLX and
// GL entry points it needs into Go function values. No GL or X11
// headers are involved; the offloading library must be able to load two
// different vendor stacks into one process, which rules out linking
// against either.
package libgl

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/ralfjung-e/primus/backend"
)

// init registers the backend on package import.
func init() {
	backend.Register(backend.BackendLibGL, Open)
}

// dlopenAny tries each of the colon-separated library paths in order
// and returns the first that loads. Paths must be absolute. On total
// failure the error carries every loader message.
func dlopenAny(paths string, mode int) (uintptr, error) {
	var errs []string
	for _, p := range strings.Split(paths, ":") {
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			return 0, fmt.Errorf("libgl: need absolute library path: %s", p)
		}
		h, err := purego.Dlopen(p, mode)
		if err == nil && h != 0 {
			return h, nil
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return 0, fmt.Errorf("libgl: failed to load any of the libraries: %s\n%s",
		paths, strings.Join(errs, "\n"))
}

// LibGL is a backend.Backend over one dlopen'd vendor GL library.
type LibGL struct {
	handle uintptr
	path   string

	// libX11, for opening the display connections GLX calls need.
	xOpenDisplay  func(name *byte) uintptr
	xCloseDisplay func(dpy uintptr) int32
	xFree         func(p uintptr) int32

	// GLX entry points, resolved with dlsym.
	glXChooseFBConfig        func(dpy uintptr, screen int32, attrs *int32, n *int32) uintptr
	glXGetFBConfigAttrib     func(dpy, config uintptr, attrib int32, value *int32) int32
	glXGetVisualFromFBConfig func(dpy, config uintptr) uintptr
	glXChooseVisual          func(dpy uintptr, screen int32, attrs *int32) uintptr
	glXGetConfig             func(dpy, vis uintptr, attrib int32, value *int32) int32
	glXCreateNewContext      func(dpy, config uintptr, renderType int32, share uintptr, direct int32) uintptr
	glXDestroyContext        func(dpy, ctx uintptr)
	glXIsDirect              func(dpy, ctx uintptr) int32
	glXMakeContextCurrent    func(dpy, draw, read, ctx uintptr) int32
	glXSwapBuffers           func(dpy, draw uintptr)
	glXCreateWindow          func(dpy, config, win uintptr, attrs *int32) uintptr
	glXDestroyWindow         func(dpy, win uintptr)
	glXCreatePbuffer         func(dpy, config uintptr, attrs *int32) uintptr
	glXDestroyPbuffer        func(dpy, pbuf uintptr)
	glXCreatePixmap          func(dpy, config, pixmap uintptr, attrs *int32) uintptr
	glXCreateGLXPixmap       func(dpy, vis, pixmap uintptr) uintptr
	glXDestroyPixmap         func(dpy, pixmap uintptr)
	glXQueryDrawable         func(dpy, draw uintptr, attrib int32, value *uint32)
	glXUseXFont              func(font uintptr, first, count, listBase int32)
	glXGetProcAddress        func(name string) uintptr

	gl glFns
}

// Open loads the backend per the OpenConfig: the optional
// globally-visible helper first, then the first loadable GL library
// from the colon-separated path list.
func Open(cfg backend.OpenConfig) (backend.Backend, error) {
	if cfg.LoadGlobal != "" {
		if _, err := purego.Dlopen(cfg.LoadGlobal, purego.RTLD_LAZY|purego.RTLD_GLOBAL); err != nil {
			return nil, fmt.Errorf("libgl: failed to load global library %s: %w", cfg.LoadGlobal, err)
		}
	}
	handle, err := dlopenAny(cfg.LibPath, purego.RTLD_LAZY)
	if err != nil {
		return nil, err
	}
	x11h, err := purego.Dlopen("libX11.so.6", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("libgl: loading libX11: %w", err)
	}

	b := &LibGL{handle: handle, path: cfg.LibPath}

	purego.RegisterLibFunc(&b.xOpenDisplay, x11h, "XOpenDisplay")
	purego.RegisterLibFunc(&b.xCloseDisplay, x11h, "XCloseDisplay")
	purego.RegisterLibFunc(&b.xFree, x11h, "XFree")

	purego.RegisterLibFunc(&b.glXChooseFBConfig, handle, "glXChooseFBConfig")
	purego.RegisterLibFunc(&b.glXGetFBConfigAttrib, handle, "glXGetFBConfigAttrib")
	purego.RegisterLibFunc(&b.glXGetVisualFromFBConfig, handle, "glXGetVisualFromFBConfig")
	purego.RegisterLibFunc(&b.glXChooseVisual, handle, "glXChooseVisual")
	purego.RegisterLibFunc(&b.glXGetConfig, handle, "glXGetConfig")
	purego.RegisterLibFunc(&b.glXCreateNewContext, handle, "glXCreateNewContext")
	purego.RegisterLibFunc(&b.glXDestroyContext, handle, "glXDestroyContext")
	purego.RegisterLibFunc(&b.glXIsDirect, handle, "glXIsDirect")
	purego.RegisterLibFunc(&b.glXMakeContextCurrent, handle, "glXMakeContextCurrent")
	purego.RegisterLibFunc(&b.glXSwapBuffers, handle, "glXSwapBuffers")
	purego.RegisterLibFunc(&b.glXCreateWindow, handle, "glXCreateWindow")
	purego.RegisterLibFunc(&b.glXDestroyWindow, handle, "glXDestroyWindow")
	purego.RegisterLibFunc(&b.glXCreatePbuffer, handle, "glXCreatePbuffer")
	purego.RegisterLibFunc(&b.glXDestroyPbuffer, handle, "glXDestroyPbuffer")
	purego.RegisterLibFunc(&b.glXCreatePixmap, handle, "glXCreatePixmap")
	purego.RegisterLibFunc(&b.glXCreateGLXPixmap, handle, "glXCreateGLXPixmap")
	purego.RegisterLibFunc(&b.glXDestroyPixmap, handle, "glXDestroyPixmap")
	purego.RegisterLibFunc(&b.glXQueryDrawable, handle, "glXQueryDrawable")
	purego.RegisterLibFunc(&b.glXUseXFont, handle, "glXUseXFont")
	purego.RegisterLibFunc(&b.glXGetProcAddress, handle, "glXGetProcAddressARB")

	if err := b.gl.resolve(b.glXGetProcAddress); err != nil {
		return nil, err
	}
	return b, nil
}

// Name returns the backend identifier.
func (b *LibGL) Name() string { return backend.BackendLibGL }

// OpenDisplay opens an Xlib display connection.
func (b *LibGL) OpenDisplay(name string) (backend.Display, error) {
	var cname *byte
	if name != "" {
		bs := append([]byte(name), 0)
		cname = &bs[0]
	}
	d := b.xOpenDisplay(cname)
	if d == 0 {
		return 0, fmt.Errorf("libgl: cannot open display %q", name)
	}
	return backend.Display(d), nil
}

// CloseDisplay closes an Xlib display connection.
func (b *LibGL) CloseDisplay(dpy backend.Display) {
	b.xCloseDisplay(uintptr(dpy))
}

// attrList converts (name, value) pairs to a None-terminated C list.
func attrList(attrs []int) []int32 {
	out := make([]int32, 0, len(attrs)+1)
	for _, a := range attrs {
		out = append(out, int32(a))
	}
	return append(out, backend.None)
}

// ChooseFBConfig forwards to glXChooseFBConfig.
func (b *LibGL) ChooseFBConfig(dpy backend.Display, screen int, attrs []int) []backend.FBConfig {
	ca := attrList(attrs)
	var n int32
	ret := b.glXChooseFBConfig(uintptr(dpy), int32(screen), &ca[0], &n)
	if ret == 0 || n == 0 {
		return nil
	}
	raw := unsafe.Slice((*uintptr)(unsafe.Pointer(ret)), int(n))
	out := make([]backend.FBConfig, n)
	for i, c := range raw {
		out[i] = backend.FBConfig(c)
	}
	b.xFree(ret)
	return out
}

// GetFBConfigAttrib forwards to glXGetFBConfigAttrib.
func (b *LibGL) GetFBConfigAttrib(dpy backend.Display, config backend.FBConfig, attrib int) (int, error) {
	var v int32
	if r := b.glXGetFBConfigAttrib(uintptr(dpy), uintptr(config), int32(attrib), &v); r != 0 {
		return 0, backend.ErrBadAttribute
	}
	return int(v), nil
}

// GetVisualFromFBConfig forwards to glXGetVisualFromFBConfig.
func (b *LibGL) GetVisualFromFBConfig(dpy backend.Display, config backend.FBConfig) *backend.VisualInfo {
	vp := b.glXGetVisualFromFBConfig(uintptr(dpy), uintptr(config))
	return visualFromNative(vp)
}

// ChooseVisual forwards to glXChooseVisual.
func (b *LibGL) ChooseVisual(dpy backend.Display, screen int, attrs []int) *backend.VisualInfo {
	ca := attrList(attrs)
	vp := b.glXChooseVisual(uintptr(dpy), int32(screen), &ca[0])
	return visualFromNative(vp)
}

// GetConfig forwards to glXGetConfig; the visual must carry its native
// XVisualInfo pointer.
func (b *LibGL) GetConfig(dpy backend.Display, vis *backend.VisualInfo, attrib int) (int, error) {
	if vis == nil || vis.Native == 0 {
		return 0, backend.ErrBadAttribute
	}
	var v int32
	if r := b.glXGetConfig(uintptr(dpy), vis.Native, int32(attrib), &v); r != 0 {
		return 0, backend.ErrBadAttribute
	}
	return int(v), nil
}

// CreateContext forwards to glXCreateNewContext.
func (b *LibGL) CreateContext(dpy backend.Display, config backend.FBConfig, renderType int, share backend.Context, direct bool) backend.Context {
	d := int32(0)
	if direct {
		d = 1
	}
	return backend.Context(b.glXCreateNewContext(uintptr(dpy), uintptr(config), int32(renderType), uintptr(share), d))
}

// DestroyContext forwards to glXDestroyContext.
func (b *LibGL) DestroyContext(dpy backend.Display, ctx backend.Context) {
	b.glXDestroyContext(uintptr(dpy), uintptr(ctx))
}

// IsDirect forwards to glXIsDirect.
func (b *LibGL) IsDirect(dpy backend.Display, ctx backend.Context) bool {
	return b.glXIsDirect(uintptr(dpy), uintptr(ctx)) != 0
}

// MakeCurrent forwards to glXMakeContextCurrent and returns a GL whose
// calls go straight to the loaded library. Current-ness is the calling
// OS thread's, exactly as in GLX.
func (b *LibGL) MakeCurrent(dpy backend.Display, draw, read backend.Drawable, ctx backend.Context) (backend.GL, bool) {
	ok := b.glXMakeContextCurrent(uintptr(dpy), uintptr(draw), uintptr(read), uintptr(ctx)) != 0
	if ctx == 0 {
		return nil, ok
	}
	return &glCtx{b: b}, ok
}

// SwapBuffers forwards to glXSwapBuffers.
func (b *LibGL) SwapBuffers(dpy backend.Display, draw backend.Drawable) {
	b.glXSwapBuffers(uintptr(dpy), uintptr(draw))
}

// CreateWindow forwards to glXCreateWindow.
func (b *LibGL) CreateWindow(dpy backend.Display, config backend.FBConfig, win backend.Drawable, attrs []int) backend.Drawable {
	ca := attrList(attrs)
	return backend.Drawable(b.glXCreateWindow(uintptr(dpy), uintptr(config), uintptr(win), &ca[0]))
}

// DestroyWindow forwards to glXDestroyWindow.
func (b *LibGL) DestroyWindow(dpy backend.Display, win backend.Drawable) {
	b.glXDestroyWindow(uintptr(dpy), uintptr(win))
}

// CreatePbuffer forwards to glXCreatePbuffer.
func (b *LibGL) CreatePbuffer(dpy backend.Display, config backend.FBConfig, attrs []int) backend.Drawable {
	ca := attrList(attrs)
	return backend.Drawable(b.glXCreatePbuffer(uintptr(dpy), uintptr(config), &ca[0]))
}

// DestroyPbuffer forwards to glXDestroyPbuffer.
func (b *LibGL) DestroyPbuffer(dpy backend.Display, pbuf backend.Drawable) {
	b.glXDestroyPbuffer(uintptr(dpy), uintptr(pbuf))
}

// CreatePixmap forwards to glXCreatePixmap.
func (b *LibGL) CreatePixmap(dpy backend.Display, config backend.FBConfig, pixmap backend.Drawable, attrs []int) backend.Drawable {
	ca := attrList(attrs)
	return backend.Drawable(b.glXCreatePixmap(uintptr(dpy), uintptr(config), uintptr(pixmap), &ca[0]))
}

// CreateGLXPixmap forwards to glXCreateGLXPixmap.
func (b *LibGL) CreateGLXPixmap(dpy backend.Display, vis *backend.VisualInfo, pixmap backend.Drawable) backend.Drawable {
	if vis == nil || vis.Native == 0 {
		return 0
	}
	return backend.Drawable(b.glXCreateGLXPixmap(uintptr(dpy), vis.Native, uintptr(pixmap)))
}

// DestroyPixmap forwards to glXDestroyPixmap.
func (b *LibGL) DestroyPixmap(dpy backend.Display, pixmap backend.Drawable) {
	b.glXDestroyPixmap(uintptr(dpy), uintptr(pixmap))
}

// QueryDrawable forwards to glXQueryDrawable.
func (b *LibGL) QueryDrawable(dpy backend.Display, draw backend.Drawable, attrib int) (uint32, error) {
	var v uint32
	b.glXQueryDrawable(uintptr(dpy), uintptr(draw), int32(attrib), &v)
	return v, nil
}

// UseXFont forwards to glXUseXFont.
func (b *LibGL) UseXFont(font uint32, first, count, listBase int) {
	b.glXUseXFont(uintptr(font), int32(first), int32(count), int32(listBase))
}

// GetProcAddress resolves a symbol in the loaded library.
func (b *LibGL) GetProcAddress(name string) uintptr {
	if addr, err := purego.Dlsym(b.handle, name); err == nil && addr != 0 {
		return addr
	}
	return b.glXGetProcAddress(name)
}

// xVisualInfo mirrors Xlib's XVisualInfo layout on 64-bit Linux.
type xVisualInfo struct {
	Visual       uintptr
	VisualID     uint
	Screen       int32
	Depth        int32
	Class        int32
	RedMask      uint64
	GreenMask    uint64
	BlueMask     uint64
	ColormapSize int32
	BitsPerRGB   int32
}

// visualFromNative wraps a returned XVisualInfo*. The native pointer is
// kept so it can be handed back to GLX; it is never freed, matching the
// lifetime the original gives these.
func visualFromNative(vp uintptr) *backend.VisualInfo {
	if vp == 0 {
		return nil
	}
	xv := (*xVisualInfo)(unsafe.Pointer(vp))
	return &backend.VisualInfo{
		ID:     uint32(xv.VisualID),
		Screen: int(xv.Screen),
		Depth:  int(xv.Depth),
		Native: vp,
	}
}
