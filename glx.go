package primus

import (
	"fmt"

	"github.com/ralfjung-e/primus/backend"
	"github.com/ralfjung-e/primus/x11"
)

// The application sees primary-display visuals and window handles, but
// accelerator-side fbconfigs and contexts. The entry points below keep
// that split: anything that creates rendering state goes to the
// accelerator, anything that touches visible-window state goes to the
// primary display.

// CreateContext creates a rendering context for a primary-display
// visual. The context itself lives on the accelerator, against the
// closest matching accelerator fbconfig.
func (p *Primus) CreateContext(vis *backend.VisualInfo, share backend.Context, direct bool) backend.Context {
	acfgs := p.matchFBConfig(vis)
	if len(acfgs) == 0 {
		p.log.Warn("no matching accelerator fbconfig for visual", "visual", vis.ID)
		return 0
	}
	actx := p.abe.CreateContext(p.adpy, acfgs[0], backend.RGBAType, share, direct)
	if actx != 0 {
		p.recordContext(actx, acfgs[0], share)
	}
	return actx
}

// CreateNewContext creates a rendering context for an accelerator
// fbconfig.
func (p *Primus) CreateNewContext(config backend.FBConfig, renderType int, share backend.Context, direct bool) backend.Context {
	actx := p.abe.CreateContext(p.adpy, config, renderType, share, direct)
	if actx != 0 {
		p.recordContext(actx, config, share)
	}
	return actx
}

// DestroyContext destroys a context. Destroying the last context reaps
// every drawable's workers: worker threads hold live GL resources, and
// without this the library could never be unloaded cleanly.
func (p *Primus) DestroyContext(ctx backend.Context) {
	p.mu.Lock()
	delete(p.contexts, ctx)
	empty := len(p.contexts) == 0
	p.mu.Unlock()
	if empty {
		for _, di := range p.snapshotDrawables() {
			p.reapWorkers(di)
		}
	}
	p.abe.DestroyContext(p.adpy, ctx)
}

// MakeCurrent makes the context current on the calling OS thread with
// the same draw and read drawable. The caller must have locked its
// goroutine to the thread.
func (p *Primus) MakeCurrent(draw backend.Drawable, ctx backend.Context) (backend.GL, bool) {
	return p.MakeContextCurrent(draw, draw, ctx)
}

// MakeContextCurrent makes the context current with separate draw and
// read drawables. The application-visible handles go into the
// thread-local binding; the accelerator call gets the paired off-screen
// surfaces.
func (p *Primus) MakeContextCurrent(draw, read backend.Drawable, ctx backend.Context) (backend.GL, bool) {
	pb := p.lookupPbuffer(draw, ctx)
	pbRead := pb
	if read != draw {
		pbRead = p.lookupPbuffer(read, ctx)
	}
	gl, ok := p.abe.MakeCurrent(p.adpy, pb, pbRead, ctx)
	p.tls.set(draw, read, ctx, gl)
	return gl, ok
}

// CreateWindow wraps an existing X window for GL use. The returned
// handle comes from the primary display's GL; it is also the registry
// key. Rendering goes to an accelerator pbuffer created lazily at first
// make-current.
func (p *Primus) CreateWindow(config backend.FBConfig, win x11.Window, attrs []int) backend.Drawable {
	glxwin := p.dbe.CreateWindow(p.ddpy, p.dconfigs[0], backend.Drawable(win), attrs)
	if glxwin == 0 {
		return 0
	}
	di := &drawableInfo{kind: kindGLXWindow, fbconfig: config, window: win}
	p.noteGeometry(di, win)
	p.registerDrawable(glxwin, di)
	return glxwin
}

// DestroyWindow destroys a GLX window, reaping its workers and backing
// pbuffer.
func (p *Primus) DestroyWindow(win backend.Drawable) {
	p.destroyDrawable(win)
	p.dbe.DestroyWindow(p.ddpy, win)
}

// CreatePbuffer creates an application-visible pbuffer. The visible
// handle lives on the primary display; the accelerator-side surface is
// created lazily, like for windows.
func (p *Primus) CreatePbuffer(config backend.FBConfig, attrs []int) backend.Drawable {
	pbuf := p.dbe.CreatePbuffer(p.ddpy, p.dconfigs[0], attrs)
	if pbuf == 0 {
		return 0
	}
	di := &drawableInfo{kind: kindPbuffer, fbconfig: config}
	for i := 0; i+1 < len(attrs); i += 2 {
		switch attrs[i] {
		case backend.PbufferWidth:
			di.width.Store(int32(attrs[i+1]))
		case backend.PbufferHeight:
			di.height.Store(int32(attrs[i+1]))
		}
	}
	p.registerDrawable(pbuf, di)
	return pbuf
}

// DestroyPbuffer destroys an application-visible pbuffer.
func (p *Primus) DestroyPbuffer(pbuf backend.Drawable) {
	p.destroyDrawable(pbuf)
	p.dbe.DestroyPbuffer(p.ddpy, pbuf)
}

// CreatePixmap creates a GLX pixmap from an X pixmap.
func (p *Primus) CreatePixmap(config backend.FBConfig, pixmap backend.Drawable, attrs []int) backend.Drawable {
	glxpix := p.dbe.CreatePixmap(p.ddpy, p.dconfigs[0], pixmap, attrs)
	if glxpix == 0 {
		return 0
	}
	di := &drawableInfo{kind: kindPixmap, fbconfig: config}
	p.noteGeometry(di, x11.Window(pixmap))
	p.registerDrawable(glxpix, di)
	return glxpix
}

// DestroyPixmap destroys a GLX pixmap.
func (p *Primus) DestroyPixmap(pixmap backend.Drawable) {
	p.destroyDrawable(pixmap)
	p.dbe.DestroyPixmap(p.ddpy, pixmap)
}

// CreateGLXPixmap is the pre-1.3, visual-based pixmap constructor.
func (p *Primus) CreateGLXPixmap(vis *backend.VisualInfo, pixmap backend.Drawable) backend.Drawable {
	glxpix := p.dbe.CreateGLXPixmap(p.ddpy, vis, pixmap)
	if glxpix == 0 {
		return 0
	}
	di := &drawableInfo{kind: kindPixmap}
	p.noteGeometry(di, x11.Window(pixmap))
	if acfgs := p.matchFBConfig(vis); len(acfgs) > 0 {
		di.fbconfig = acfgs[0]
	}
	p.registerDrawable(glxpix, di)
	return glxpix
}

// DestroyGLXPixmap destroys a pixmap made by CreateGLXPixmap.
func (p *Primus) DestroyGLXPixmap(pixmap backend.Drawable) {
	p.DestroyPixmap(pixmap)
}

// QueryDrawable queries a drawable attribute from its backing
// accelerator surface.
func (p *Primus) QueryDrawable(draw backend.Drawable, attrib int) (uint32, error) {
	if p.drawableRecord(draw) == nil {
		return 0, fmt.Errorf("primus: QueryDrawable: unknown drawable %d", draw)
	}
	return p.abe.QueryDrawable(p.adpy, p.lookupPbuffer(draw, 0), attrib)
}

// ChooseVisual selects a visual on the primary display.
func (p *Primus) ChooseVisual(screen int, attrs []int) *backend.VisualInfo {
	return p.dbe.ChooseVisual(p.ddpy, screen, attrs)
}

// GetConfig queries a visual attribute on the primary display.
func (p *Primus) GetConfig(vis *backend.VisualInfo, attrib int) (int, error) {
	return p.dbe.GetConfig(p.ddpy, vis, attrib)
}

// ChooseFBConfig forwards to the accelerator; fbconfig handles the
// application holds are accelerator handles.
func (p *Primus) ChooseFBConfig(screen int, attrs []int) []backend.FBConfig {
	return p.abe.ChooseFBConfig(p.adpy, screen, attrs)
}

// IsDirect forwards to the accelerator.
func (p *Primus) IsDirect(ctx backend.Context) bool {
	return p.abe.IsDirect(p.adpy, ctx)
}

// UseXFont builds display lists from a primary-display font. The font
// is named via its XLFD and opened again on the accelerator's display,
// where the GL actually runs.
func (p *Primus) UseXFont(font x11.Font, first, count, listBase int) {
	name, err := p.dx.FontName(font)
	if err != nil {
		p.log.Warn("UseXFont: resolving font name", "error", err)
		return
	}
	afont, err := p.ax.OpenFont(name)
	if err != nil {
		p.log.Warn("UseXFont: opening font on accelerator", "font", name, "error", err)
		return
	}
	p.abe.UseXFont(uint32(afont), first, count, listBase)
	p.ax.CloseFont(afont)
}

// WaitGL is a no-op: the visible window never has pending GL.
func (p *Primus) WaitGL() {}

// WaitX is a no-op: the accelerator display has no visible output.
func (p *Primus) WaitX() {}

// SwapIntervalSGI reports failure; swap interval is meaningless when
// presentation is decoupled from rendering.
func (p *Primus) SwapIntervalSGI(interval int) int {
	return 1
}

const glxExtensions = "GLX_ARB_get_proc_address "

// GetClientString describes this GLX client.
func (p *Primus) GetClientString(name int) string {
	switch name {
	case backend.Vendor:
		return "primus"
	case backend.Version:
		return "1.4"
	case backend.Extensions:
		return glxExtensions
	default:
		return ""
	}
}

// QueryExtensionsString returns the supported GLX extensions.
func (p *Primus) QueryExtensionsString(screen int) string {
	return glxExtensions
}
