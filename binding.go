package primus

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/ralfjung-e/primus/backend"
)

// currentBinding records what the application believes is current on one
// OS thread: the application-visible drawables and context. The actual
// A-side call used the paired off-screen surfaces instead.
type currentBinding struct {
	draw backend.Drawable
	read backend.Drawable
	ctx  backend.Context
	gl   backend.GL
}

// bindings is the thread-local store for current bindings, keyed by
// kernel thread id. GL current-ness is a per-OS-thread affair, so
// callers of MakeCurrent must have locked their goroutine to its thread
// with runtime.LockOSThread; under that discipline the thread id is a
// stable key.
type bindings struct {
	mu sync.Mutex
	m  map[int]*currentBinding
}

// current returns this thread's binding, creating an empty one.
func (b *bindings) current() *currentBinding {
	tid := unix.Gettid()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.m == nil {
		b.m = make(map[int]*currentBinding)
	}
	cb, ok := b.m[tid]
	if !ok {
		cb = &currentBinding{}
		b.m[tid] = cb
	}
	return cb
}

// set records a make-current on this thread.
func (b *bindings) set(draw, read backend.Drawable, ctx backend.Context, gl backend.GL) {
	cb := b.current()
	cb.draw = draw
	cb.read = read
	cb.ctx = ctx
	cb.gl = gl
}

// GetCurrentContext returns the context current on the calling thread.
func (p *Primus) GetCurrentContext() backend.Context {
	return p.tls.current().ctx
}

// GetCurrentDrawable returns the drawable current on the calling thread.
func (p *Primus) GetCurrentDrawable() backend.Drawable {
	return p.tls.current().draw
}

// GetCurrentReadDrawable returns the read drawable current on the
// calling thread.
func (p *Primus) GetCurrentReadDrawable() backend.Drawable {
	return p.tls.current().read
}

// GetCurrentDisplay returns the display of the current binding. The
// application only ever sees the primary display.
func (p *Primus) GetCurrentDisplay() backend.Display {
	if p.tls.current().ctx == 0 {
		return 0
	}
	return p.ddpy
}

// CurrentGL returns the GL bound by the most recent MakeCurrent on the
// calling thread, or nil.
func (p *Primus) CurrentGL() backend.GL {
	return p.tls.current().gl
}
