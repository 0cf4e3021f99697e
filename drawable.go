package primus

import (
	"sync/atomic"
	"time"

	"github.com/ralfjung-e/primus/backend"
	"github.com/ralfjung-e/primus/x11"
)

// drawableKind classifies an application-visible drawable.
type drawableKind int

const (
	// kindRawWindow is an X window the application created directly and
	// made current without a glXCreateWindow call.
	kindRawWindow drawableKind = iota
	kindGLXWindow
	kindPixmap
	kindPbuffer
)

// String returns the kind name.
func (k drawableKind) String() string {
	switch k {
	case kindRawWindow:
		return "XWindow"
	case kindGLXWindow:
		return "Window"
	case kindPixmap:
		return "Pixmap"
	case kindPbuffer:
		return "Pbuffer"
	default:
		return "Unknown"
	}
}

// visible reports whether the drawable presents on the primary display.
func (k drawableKind) visible() bool {
	return k == kindRawWindow || k == kindGLXWindow
}

// reinitOp is a pending pipeline transition, propagated application →
// readback → display.
type reinitOp int32

const (
	reinitNone reinitOp = iota
	reinitResize
	reinitShutdown
)

// String returns the transition name.
func (r reinitOp) String() string {
	switch r {
	case reinitNone:
		return "none"
	case reinitResize:
		return "resize"
	case reinitShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// sem is a counting semaphore. The pipeline's protocol is strictly
// turn-taking, so a small buffered channel is enough; the capacity only
// needs to cover the pretend-completion posts of the reinit handshake.
type sem chan struct{}

func newSem() sem { return make(sem, 8) }

func (s sem) post() { s <- struct{}{} }

func (s sem) wait() { <-s }

// waitTimeout waits up to d; it reports whether the semaphore was
// acquired.
func (s sem) waitTimeout(d time.Duration) bool {
	select {
	case <-s:
		return true
	case <-time.After(d):
		return false
	}
}

// semTimeout bounds every wait that could form a cycle.
const semTimeout = time.Second

// workerState is the per-worker record of a drawable: the two counting
// semaphores, the pending transition, and the goroutine's lifetime.
type workerState struct {
	running bool
	acqsem  sem
	relsem  sem
	reinit  reinitOp
	done    chan struct{}
}

// spawn starts the worker. It begins with a pending resize so that its
// first iteration allocates buffers at the current size.
func (w *workerState) spawn(work func()) {
	w.reinit = reinitResize
	w.acqsem = newSem()
	w.relsem = newSem()
	w.done = make(chan struct{})
	w.running = true
	go func() {
		defer close(w.done)
		work()
	}()
}

// join waits for the worker goroutine to exit.
func (w *workerState) join() {
	if w.done != nil {
		<-w.done
	}
	w.running = false
}

// drawableInfo is the registry record of an application-visible
// drawable and the shared state of its pipeline. Fields written by one
// participant and read by another are either ordered by the semaphore
// protocol (pixeldata, sync, the worker reinit fields) or atomic
// (reinit, width, height, which the display worker writes mid-frame).
type drawableInfo struct {
	kind     drawableKind
	fbconfig backend.FBConfig

	// pbuffer backs this drawable on the accelerator; 0 until first use.
	pbuffer backend.Drawable

	// window is the primary-display window, for visible kinds only.
	window x11.Window

	width  atomic.Int32
	height atomic.Int32
	reinit atomic.Int32 // reinitOp

	// pixeldata is the currently mapped pack buffer, handed from the
	// readback worker to the display worker.
	pixeldata []byte

	// sync is the fence the application inserted before signalling.
	sync backend.Sync

	// actx is the context that was current when the workers were
	// spawned; the readback context is created sharing with it.
	actx backend.Context

	r workerState // readback
	d workerState // display
}

func (di *drawableInfo) size() (int, int) {
	return int(di.width.Load()), int(di.height.Load())
}

func (di *drawableInfo) setSize(w, h int) {
	di.width.Store(int32(w))
	di.height.Store(int32(h))
}

func (di *drawableInfo) pendingReinit() reinitOp {
	return reinitOp(di.reinit.Load())
}

func (di *drawableInfo) setReinit(op reinitOp) {
	di.reinit.Store(int32(op))
}

// drawableRecord returns the registry entry, or nil.
func (p *Primus) drawableRecord(draw backend.Drawable) *drawableInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.drawables[draw]
}

// registerDrawable inserts a fresh entry.
func (p *Primus) registerDrawable(draw backend.Drawable, di *drawableInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drawables[draw] = di
}

// dropDrawable removes the registry entry and returns it, or nil.
func (p *Primus) dropDrawable(draw backend.Drawable) *drawableInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	di := p.drawables[draw]
	delete(p.drawables, draw)
	return di
}

// reapWorkers shuts down the drawable's worker pair, if running. The
// shutdown always travels through the readback worker, which hands it to
// the display worker; this is the only path that tears workers down.
func (p *Primus) reapWorkers(di *drawableInfo) {
	if !di.r.running {
		return
	}
	di.r.reinit = reinitShutdown
	di.r.acqsem.post()
	di.r.relsem.wait()
	di.r.join()
	di.d.join()
}

// destroyDrawable reaps workers and releases the backing pbuffer; it is
// the registry-side half of every destroy-drawable entry point.
func (p *Primus) destroyDrawable(draw backend.Drawable) {
	di := p.dropDrawable(draw)
	if di == nil {
		p.log.Warn("destroying unknown drawable", "drawable", draw)
		return
	}
	p.reapWorkers(di)
	if di.pbuffer != 0 {
		p.abe.DestroyPbuffer(p.adpy, di.pbuffer)
		di.pbuffer = 0
	}
}

// createPbuffer makes the backing off-screen surface at the drawable's
// current size. Contents are preserved across accelerator swaps so that
// a frame survives until the readback worker has pulled it.
func (p *Primus) createPbuffer(di *drawableInfo) backend.Drawable {
	w, h := di.size()
	attrs := []int{
		backend.PbufferWidth, w,
		backend.PbufferHeight, h,
		backend.PreservedContents, 1,
	}
	return p.abe.CreatePbuffer(p.adpy, di.fbconfig, attrs)
}

// noteGeometry refreshes the drawable's size from the primary display.
func (p *Primus) noteGeometry(di *drawableInfo, d x11.Window) {
	w, h, err := p.dx.Geometry(d)
	if err != nil {
		p.log.Warn("querying drawable geometry", "error", err)
		return
	}
	di.setSize(w, h)
}

// blockCompositingAtom is set on the window and every ancestor below the
// root so the compositor does not double-buffer our output.
const blockCompositingAtom = "_KDE_NET_WM_BLOCK_COMPOSITING"

func (p *Primus) blockCompositing(win x11.Window) {
	cur := win
	for {
		parent, err := p.dx.Parent(cur)
		if err != nil || parent == 0 {
			return
		}
		if err := p.dx.SetAtomProperty(cur, blockCompositingAtom); err != nil {
			p.log.Warn("setting compositing hint", "error", err)
			return
		}
		cur = parent
	}
}

// lookupPbuffer creates or recalls the backing pbuffer for a drawable.
// A drawable not in the registry is a plain X window the application
// created itself; it is adopted with the fbconfig of the context being
// made current. A known drawable whose fbconfig no longer matches the
// context's gets its pbuffer (and workers) recreated.
func (p *Primus) lookupPbuffer(draw backend.Drawable, ctx backend.Context) backend.Drawable {
	if draw == 0 {
		return 0
	}

	p.mu.Lock()
	di, known := p.drawables[draw]
	if !known {
		di = &drawableInfo{kind: kindRawWindow, window: x11.Window(draw)}
		if ci := p.contexts[ctx]; ci != nil {
			di.fbconfig = ci.fbconfig
		}
		p.drawables[draw] = di
	}
	var newConfig backend.FBConfig
	if known && ctx != 0 {
		if ci := p.contexts[ctx]; ci != nil && ci.fbconfig != di.fbconfig {
			newConfig = ci.fbconfig
		}
	}
	p.mu.Unlock()

	if !known {
		p.noteGeometry(di, di.window)
		p.blockCompositing(di.window)
	}

	if newConfig != 0 {
		if di.pbuffer != 0 {
			p.log.Warn("recreating incompatible pbuffer")
			p.reapWorkers(di)
			p.abe.DestroyPbuffer(p.adpy, di.pbuffer)
			di.pbuffer = 0
		}
		di.fbconfig = newConfig
	}

	if di.pbuffer == 0 {
		di.pbuffer = p.createPbuffer(di)
	}
	return di.pbuffer
}
