package backend

import (
	"sync"
)

// init registers the software backend on package import.
func init() {
	Register(BackendSoftware, func(cfg OpenConfig) (Backend, error) {
		return NewSoftware(), nil
	})
}

// Software is an in-memory Backend. It implements the full GLX surface
// and the GL subset semantically: pbuffers and windows are BGRA pixel
// stores, pixel-pack buffers are byte slices, fences complete
// immediately. One Software value models one X server, so drawable ids
// are valid across every Display opened from it, exactly as XIDs are.
//
// It exists so the whole pipeline can be exercised without a GPU, an X
// server or a vendor driver: the tests drive rendering, readback,
// upload and presentation end to end against it.
type Software struct {
	mu       sync.Mutex
	nextXID  uint32
	nextPtr  uintptr
	displays map[Display]string
	configs  []*swConfig
	surfaces map[Drawable]*swSurface
	contexts map[Context]*swContext
	fontUses []FontUse
	procs    map[string]uintptr
}

// FontUse records one UseXFont call, for tests.
type FontUse struct {
	Font     uint32
	First    int
	Count    int
	ListBase int
}

type swSurfaceKind int

const (
	swWindow swSurfaceKind = iota
	swPixmap
	swPbuffer
)

type swSurface struct {
	kind      swSurfaceKind
	width     int
	height    int
	preserved bool

	// back is the BGRA back buffer rendered into; present publishes it.
	back  []byte
	backW int
	backH int

	presented  []byte
	presentedW int
	presentedH int
	presents   int
}

type swConfig struct {
	handle FBConfig
	attrs  map[int]int
	visual VisualInfo
}

type swShare struct {
	mu       sync.Mutex
	nextName uint32
	buffers  map[uint32]*swBuffer
	textures map[uint32]*swTexture
	syncs    map[Sync]bool
}

type swBuffer struct {
	data   []byte
	usage  uint32
	mapped bool
}

type swTexture struct {
	data []byte
	w, h int
}

type swContext struct {
	config *swConfig
	share  *swShare

	// Context-resident GL state, as in OpenGL proper.
	packBuffer   uint32
	boundTexture uint32
	clearColor   [4]float32
	viewport     [4]int
	quadReady    bool
}

// NewSoftware creates an empty software backend.
func NewSoftware() *Software {
	b := &Software{
		nextXID:  0x400000,
		nextPtr:  0x1000,
		displays: make(map[Display]string),
		surfaces: make(map[Drawable]*swSurface),
		contexts: make(map[Context]*swContext),
		procs:    make(map[string]uintptr),
	}
	// Two fbconfigs: a plain double-buffered RGBA8888 one and a
	// multisampled variant, enough to exercise attribute matching.
	plain := map[int]int{
		DoubleBuffer: 1, Stereo: 0, AuxBuffers: 0,
		RedSize: 8, GreenSize: 8, BlueSize: 8, AlphaSize: 8,
		DepthSize: 24, StencilSize: 8,
		AccumRedSize: 0, AccumGreenSize: 0, AccumBlueSize: 0, AccumAlphaSize: 0,
		SampleBuffers: 0, Samples: 0,
	}
	msaa := make(map[int]int, len(plain))
	for k, v := range plain {
		msaa[k] = v
	}
	msaa[SampleBuffers] = 1
	msaa[Samples] = 4
	b.configs = []*swConfig{
		{handle: FBConfig(b.ptr()), attrs: plain, visual: VisualInfo{ID: 0x21, Depth: 24}},
		{handle: FBConfig(b.ptr()), attrs: msaa, visual: VisualInfo{ID: 0x22, Depth: 24}},
	}
	plain[VisualID] = 0x21
	msaa[VisualID] = 0x22
	return b
}

func (b *Software) ptr() uintptr {
	b.nextPtr += 0x10
	return b.nextPtr
}

func (b *Software) xid() Drawable {
	b.nextXID++
	return Drawable(b.nextXID)
}

// Name returns the backend identifier.
func (b *Software) Name() string { return BackendSoftware }

// OpenDisplay opens a connection token. All resources are server-global.
func (b *Software) OpenDisplay(name string) (Display, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := Display(b.ptr())
	b.displays[d] = name
	return d, nil
}

// CloseDisplay closes a connection token.
func (b *Software) CloseDisplay(dpy Display) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.displays, dpy)
}

// ChooseFBConfig filters the config list by the (name, value) pairs.
func (b *Software) ChooseFBConfig(dpy Display, screen int, attrs []int) []FBConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []FBConfig
	for _, c := range b.configs {
		if swConfigMatches(c, attrs) {
			out = append(out, c.handle)
		}
	}
	return out
}

func swConfigMatches(c *swConfig, attrs []int) bool {
	for i := 0; i+1 < len(attrs); i += 2 {
		name, want := attrs[i], attrs[i+1]
		if name == None {
			break
		}
		have, ok := c.attrs[name]
		if !ok {
			return false
		}
		switch name {
		case RedSize, GreenSize, BlueSize, AlphaSize, DepthSize, StencilSize,
			AccumRedSize, AccumGreenSize, AccumBlueSize, AccumAlphaSize,
			AuxBuffers, SampleBuffers, Samples:
			// Size-type attributes match "at least".
			if have < want {
				return false
			}
		default:
			if have != want {
				return false
			}
		}
	}
	return true
}

// GetFBConfigAttrib queries a single attribute of a config.
func (b *Software) GetFBConfigAttrib(dpy Display, config FBConfig, attrib int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.configByHandle(config)
	if c == nil {
		return 0, ErrBadAttribute
	}
	v, ok := c.attrs[attrib]
	if !ok {
		return 0, ErrBadAttribute
	}
	return v, nil
}

func (b *Software) configByHandle(config FBConfig) *swConfig {
	for _, c := range b.configs {
		if c.handle == config {
			return c
		}
	}
	return nil
}

func (b *Software) configByVisual(id uint32) *swConfig {
	for _, c := range b.configs {
		if c.visual.ID == id {
			return c
		}
	}
	return nil
}

// GetVisualFromFBConfig returns the visual of the config.
func (b *Software) GetVisualFromFBConfig(dpy Display, config FBConfig) *VisualInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.configByHandle(config)
	if c == nil {
		return nil
	}
	vis := c.visual
	return &vis
}

// ChooseVisual selects a visual using glXChooseVisual attribute
// conventions: RGBA, DoubleBuffer and Stereo are flags, the rest pairs.
func (b *Software) ChooseVisual(dpy Display, screen int, attrs []int) *VisualInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	pairs := make([]int, 0, len(attrs))
	for i := 0; i < len(attrs); i++ {
		switch attrs[i] {
		case None:
			i = len(attrs)
		case RGBA:
			// Implied: every software config is RGBA.
		case DoubleBuffer, Stereo:
			pairs = append(pairs, attrs[i], 1)
		default:
			if i+1 < len(attrs) {
				pairs = append(pairs, attrs[i], attrs[i+1])
				i++
			}
		}
	}
	for _, c := range b.configs {
		if swConfigMatches(c, pairs) {
			vis := c.visual
			return &vis
		}
	}
	return nil
}

// GetConfig queries a single attribute of a visual.
func (b *Software) GetConfig(dpy Display, vis *VisualInfo, attrib int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if vis == nil {
		return 0, ErrBadAttribute
	}
	c := b.configByVisual(vis.ID)
	if c == nil {
		return 0, ErrBadAttribute
	}
	v, ok := c.attrs[attrib]
	if !ok {
		return 0, ErrBadAttribute
	}
	return v, nil
}

// CreateContext creates a context, joining share's share group if given.
func (b *Software) CreateContext(dpy Display, config FBConfig, renderType int, share Context, direct bool) Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.configByHandle(config)
	if c == nil {
		return 0
	}
	ctx := &swContext{config: c}
	if sc, ok := b.contexts[share]; share != 0 && ok {
		ctx.share = sc.share
	} else {
		ctx.share = &swShare{
			buffers:  make(map[uint32]*swBuffer),
			textures: make(map[uint32]*swTexture),
			syncs:    make(map[Sync]bool),
		}
	}
	h := Context(b.ptr())
	b.contexts[h] = ctx
	return h
}

// DestroyContext destroys a context.
func (b *Software) DestroyContext(dpy Display, ctx Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.contexts, ctx)
}

// IsDirect reports direct rendering; the software backend always is.
func (b *Software) IsDirect(dpy Display, ctx Context) bool { return true }

// MakeCurrent binds the context and returns a GL for it.
func (b *Software) MakeCurrent(dpy Display, draw, read Drawable, ctx Context) (GL, bool) {
	if ctx == 0 {
		return nil, true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.contexts[ctx]
	if !ok {
		return nil, false
	}
	// A raw X window seen here for the first time becomes a window
	// surface; its size is defined by what gets drawn into it.
	if draw != 0 {
		b.lookupSurfaceLocked(draw)
	}
	if read != 0 && read != draw {
		b.lookupSurfaceLocked(read)
	}
	return &swGL{b: b, ctx: c, draw: draw, read: read}, true
}

func (b *Software) lookupSurfaceLocked(d Drawable) *swSurface {
	s, ok := b.surfaces[d]
	if !ok {
		s = &swSurface{kind: swWindow}
		b.surfaces[d] = s
	}
	return s
}

// SwapBuffers presents a window's back buffer, or defines the next back
// buffer of a pbuffer.
func (b *Software) SwapBuffers(dpy Display, draw Drawable) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.surfaces[draw]
	if !ok {
		return
	}
	if s.kind != swWindow {
		// Pbuffer swap: with preserved contents the back buffer
		// carries over; nothing to publish.
		return
	}
	s.presented = append(s.presented[:0], s.back...)
	s.presentedW = s.backW
	s.presentedH = s.backH
	s.presents++
}

// CreateWindow creates a GLX window on an existing X window.
func (b *Software) CreateWindow(dpy Display, config FBConfig, win Drawable, attrs []int) Drawable {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.xid()
	b.surfaces[id] = &swSurface{kind: swWindow}
	return id
}

// DestroyWindow destroys a GLX window.
func (b *Software) DestroyWindow(dpy Display, win Drawable) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.surfaces, win)
}

// CreatePbuffer creates an off-screen pbuffer sized by the attribute list.
func (b *Software) CreatePbuffer(dpy Display, config FBConfig, attrs []int) Drawable {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &swSurface{kind: swPbuffer}
	for i := 0; i+1 < len(attrs); i += 2 {
		switch attrs[i] {
		case PbufferWidth:
			s.width = attrs[i+1]
		case PbufferHeight:
			s.height = attrs[i+1]
		case PreservedContents:
			s.preserved = attrs[i+1] != 0
		}
	}
	s.back = make([]byte, s.width*s.height*4)
	s.backW = s.width
	s.backH = s.height
	id := b.xid()
	b.surfaces[id] = s
	return id
}

// DestroyPbuffer destroys a pbuffer.
func (b *Software) DestroyPbuffer(dpy Display, pbuf Drawable) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.surfaces, pbuf)
}

// CreatePixmap creates a GLX pixmap.
func (b *Software) CreatePixmap(dpy Display, config FBConfig, pixmap Drawable, attrs []int) Drawable {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.xid()
	b.surfaces[id] = &swSurface{kind: swPixmap}
	return id
}

// CreateGLXPixmap is the visual-based pixmap constructor.
func (b *Software) CreateGLXPixmap(dpy Display, vis *VisualInfo, pixmap Drawable) Drawable {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.xid()
	b.surfaces[id] = &swSurface{kind: swPixmap}
	return id
}

// DestroyPixmap destroys a GLX pixmap.
func (b *Software) DestroyPixmap(dpy Display, pixmap Drawable) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.surfaces, pixmap)
}

// QueryDrawable answers Width and Height (and their pbuffer variants) from
// the surface's size and PreservedContents from its creation attributes;
// any other attribute yields ErrBadAttribute.
func (b *Software) QueryDrawable(dpy Display, draw Drawable, attrib int) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.surfaces[draw]
	if !ok {
		return 0, ErrBadDrawable
	}
	switch attrib {
	case Width, PbufferWidth:
		return uint32(s.width), nil
	case Height, PbufferHeight:
		return uint32(s.height), nil
	case PreservedContents:
		if s.preserved {
			return 1, nil
		}
		return 0, nil
	}
	return 0, ErrBadAttribute
}

// UseXFont records the call; the software backend renders no glyphs.
func (b *Software) UseXFont(font uint32, first, count, listBase int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fontUses = append(b.fontUses, FontUse{Font: font, First: first, Count: count, ListBase: listBase})
}

// GetProcAddress fabricates stable nonzero addresses for GL names.
func (b *Software) GetProcAddress(name string) uintptr {
	if len(name) < 2 || name[0] != 'g' || name[1] != 'l' {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.procs[name]
	if !ok {
		p = b.ptr()
		b.procs[name] = p
	}
	return p
}

// Test accessors. These inspect server-side state the way a test harness
// would inspect a real X server with a compositor's eyes.

// Presents returns how many times the drawable has been presented.
func (b *Software) Presents(d Drawable) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.surfaces[d]; ok {
		return s.presents
	}
	return 0
}

// LastPresentSize returns the dimensions of the most recent presentation.
func (b *Software) LastPresentSize(d Drawable) (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.surfaces[d]; ok {
		return s.presentedW, s.presentedH
	}
	return 0, 0
}

// LastPresentPixels returns a copy of the most recent presented frame.
func (b *Software) LastPresentPixels(d Drawable) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.surfaces[d]; ok {
		return append([]byte(nil), s.presented...)
	}
	return nil
}

// SurfaceSize returns a drawable's current dimensions.
func (b *Software) SurfaceSize(d Drawable) (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.surfaces[d]; ok {
		return s.width, s.height
	}
	return 0, 0
}

// PbufferCount returns the number of live pbuffers.
func (b *Software) PbufferCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, s := range b.surfaces {
		if s.kind == swPbuffer {
			n++
		}
	}
	return n
}

// ContextCount returns the number of live contexts.
func (b *Software) ContextCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.contexts)
}

// DisplayCount returns the number of open display connections.
func (b *Software) DisplayCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.displays)
}

// PackBufferSizes returns the allocated size of every live buffer object
// with stream-read usage, in no particular order.
func (b *Software) PackBufferSizes() []int {
	b.mu.Lock()
	shares := make(map[*swShare]bool)
	for _, c := range b.contexts {
		shares[c.share] = true
	}
	b.mu.Unlock()
	var out []int
	for sh := range shares {
		sh.mu.Lock()
		for _, buf := range sh.buffers {
			if buf.usage == GLStreamRead {
				out = append(out, len(buf.data))
			}
		}
		sh.mu.Unlock()
	}
	return out
}

// FontUses returns the recorded UseXFont calls.
func (b *Software) FontUses() []FontUse {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]FontUse(nil), b.fontUses...)
}
