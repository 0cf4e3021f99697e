package primus

import "github.com/ralfjung-e/primus/backend"

// SwapBuffers finishes a frame. For visible drawables this is where the
// pipeline is driven from: a fence marks the end of the frame's GL
// commands, the readback worker is signalled, and depending on the sync
// mode the call returns as soon as the asynchronous pixel read has been
// issued (mode 0), once the previous frame has been displayed (mode 1),
// or once this frame has been displayed (mode 2).
func (p *Primus) SwapBuffers(draw backend.Drawable) {
	di := p.drawableRecord(draw)
	if di == nil {
		p.log.Warn("glXSwapBuffers: unknown drawable", "drawable", draw)
		return
	}
	if di.kind == kindPbuffer || di.kind == kindPixmap {
		// Nothing visible to present; swap the accelerator surface.
		p.abe.SwapBuffers(p.adpy, di.pbuffer)
		return
	}

	cb := p.tls.current()
	ctx := cb.ctx
	if ctx == 0 {
		p.log.Warn("glXSwapBuffers: no current context")
		return
	}

	// Workers spawned against a context from another share group cannot
	// wait on this context's fences.
	if di.r.running && di.actx != 0 && p.sharegroupOf(di.actx) != p.sharegroupOf(ctx) {
		p.log.Warn("glXSwapBuffers: respawning threads after context change")
		p.reapWorkers(di)
	}
	if !di.r.running {
		di.actx = ctx
		di.d.spawn(func() { p.displayWork(di) })
		di.r.spawn(func() { p.readbackWork(di) })
	}

	// The readback worker waits on this fence so it never reads an
	// incomplete frame.
	gl := cb.gl
	if gl == nil {
		p.log.Warn("glXSwapBuffers: context has no GL binding")
		return
	}
	di.sync = gl.FenceSync()
	di.r.acqsem.post()
	di.r.relsem.wait()
	gl.DeleteSync(di.sync)

	// Define the next frame's back buffer.
	p.abe.SwapBuffers(p.adpy, di.pbuffer)

	if di.pendingReinit() == reinitResize {
		p.abe.DestroyPbuffer(p.adpy, di.pbuffer)
		di.pbuffer = p.createPbuffer(di)
		// Keep the freshly created surface current on this thread.
		p.MakeContextCurrent(cb.draw, cb.read, ctx)
		di.r.reinit = reinitResize
		di.setReinit(reinitNone)
	}
}
