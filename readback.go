package primus

import (
	"runtime"

	"github.com/ralfjung-e/primus/backend"
)

// readbackWork is the readback worker: it owns an accelerator context
// sharing the application's share group (so the application's fences are
// waitable here) and two pixel-pack buffers, and pulls finished frames
// off the backing pbuffer asynchronously.
//
// The pack buffer bound at ReadPixels time is the target of the read;
// the buffer being mapped and handed to the display worker is the
// previous one when lagging (sync mode 1), which overlaps GPU readback
// of frame N with the upload of frame N-1.
func (p *Primus) readbackWork(di *drawableInfo) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var width, height int
	cbuf := 0
	prof := p.newProfiler("readback", []string{"app", "map", "wait"})

	if p.syncMode == 0 {
		di.d.relsem.post() // no pbo is mapped initially
	}

	ctx := p.abe.CreateContext(p.adpy, di.fbconfig, backend.RGBAType, di.actx, true)
	if !p.abe.IsDirect(p.adpy, ctx) {
		panic("primus: failed to acquire direct rendering context for readback thread")
	}
	gl, _ := p.abe.MakeCurrent(p.adpy, di.pbuffer, di.pbuffer, ctx)
	pbos := gl.GenBuffers(2)
	gl.ReadBuffer(backend.GLBack)

	for {
		di.r.acqsem.wait()
		prof.tick(true)

		if di.r.reinit != reinitNone {
			op := di.r.reinit
			// In mode 0 the display worker may still hold the mapped
			// pbo; wait for it before handing over the transition.
			if p.syncMode == 0 && !di.d.relsem.waitTimeout(semTimeout) {
				// Goroutines cannot be cancelled; post the completion
				// the display worker should have posted and abandon it.
				di.d.relsem.post()
				p.log.Warn("timeout waiting for display worker")
				if op != reinitShutdown {
					panic("primus: killed worker on resize")
				}
			}
			di.d.reinit = op
			di.d.acqsem.post() // signal the display worker to reinit
			di.d.relsem.wait() // wait until it completed
			if p.syncMode == 0 {
				di.d.relsem.post() // no pbo is currently mapped
			}
			if op == reinitShutdown {
				gl.BindBuffer(backend.GLPixelPackBuffer, pbos[cbuf^1])
				gl.UnmapBuffer(backend.GLPixelPackBuffer)
				gl.DeleteBuffers(pbos)
				p.abe.MakeCurrent(p.adpy, 0, 0, 0)
				p.abe.DestroyContext(p.adpy, ctx)
				di.r.relsem.post()
				return
			}
			di.r.reinit = reinitNone
			width, height = di.size()
			gl, _ = p.abe.MakeCurrent(p.adpy, di.pbuffer, di.pbuffer, ctx)
			gl.BindBuffer(backend.GLPixelPackBuffer, pbos[cbuf^1])
			gl.BufferData(backend.GLPixelPackBuffer, width*height*4, backend.GLStreamRead)
			gl.BindBuffer(backend.GLPixelPackBuffer, pbos[cbuf])
			gl.BufferData(backend.GLPixelPackBuffer, width*height*4, backend.GLStreamRead)
		}

		gl.WaitSync(di.sync)
		gl.ReadPixels(0, 0, width, height, backend.GLBGRA, backend.GLUnsignedInt8888Rev)
		if p.syncMode == 0 {
			di.r.relsem.post() // unblock the application as soon as possible
		}
		if p.syncMode == 1 {
			// Map the buffer read one swap earlier.
			gl.BindBuffer(backend.GLPixelPackBuffer, pbos[cbuf^1])
		}
		pixeldata := gl.MapBuffer(backend.GLPixelPackBuffer, backend.GLReadOnly, width*height*4)
		prof.tick(false)

		if p.syncMode == 0 && !di.d.relsem.waitTimeout(semTimeout) {
			p.log.Warn("dropping a frame to avoid deadlock")
		} else {
			di.pixeldata = pixeldata
			di.d.acqsem.post()
			if p.syncMode != 0 {
				di.d.relsem.wait()
				di.r.relsem.post() // unblock the application only after display
			}
			cbuf ^= 1
			gl.BindBuffer(backend.GLPixelPackBuffer, pbos[cbuf])
		}
		gl.UnmapBuffer(backend.GLPixelPackBuffer)
		prof.tick(false)
	}
}
