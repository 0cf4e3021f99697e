package primus

import (
	"runtime"

	"github.com/ralfjung-e/primus/backend"
)

// displayWork is the display worker: it owns a direct-rendering context
// on the primary display, made current on the visible window, and two
// rectangle textures it alternates between. Each iteration uploads the
// mapped pack buffer into the current texture and draws it as a
// screen-filling quad.
//
// It is also the only participant that sees X events for the visible
// window, on its own private connection; a ConfigureNotify turns into a
// pending resize that the application thread acts on at its next swap.
func (p *Primus) displayWork(di *drawableInfo) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var width, height int
	ctex := 0
	prof := p.newProfiler("display", []string{"wait", "upload", "draw+swap"})

	if !di.kind.visible() {
		panic("primus: display worker spawned on a non-window drawable")
	}

	// Private connections, separate from the application's: one for the
	// presentation context, one for the event stream.
	ddpy, err := p.dbe.OpenDisplay("")
	if err != nil {
		panic("primus: failed to open display connection for display thread")
	}
	xc, err := p.xdial("")
	if err != nil {
		panic("primus: failed to open X connection for display thread")
	}
	if err := xc.SelectStructure(di.window); err != nil {
		p.log.Warn("display: selecting structure events", "error", err)
	}

	ctx := p.dbe.CreateContext(ddpy, p.dconfigs[0], backend.RGBAType, 0, true)
	if !p.dbe.IsDirect(ddpy, ctx) {
		panic("primus: failed to acquire direct rendering context for display thread")
	}
	gl, _ := p.dbe.MakeCurrent(ddpy, backend.Drawable(di.window), backend.Drawable(di.window), ctx)
	gl.InitQuad()
	textures := gl.GenTextures(2)

	for {
		di.d.acqsem.wait()
		prof.tick(true)

		if di.d.reinit != reinitNone {
			if di.d.reinit == reinitShutdown {
				gl.DeleteTextures(textures)
				p.dbe.MakeCurrent(ddpy, 0, 0, 0)
				p.dbe.DestroyContext(ddpy, ctx)
				xc.Close()
				p.dbe.CloseDisplay(ddpy)
				di.d.relsem.post()
				return
			}
			di.d.reinit = reinitNone
			width, height = di.size()
			gl.Viewport(0, 0, width, height)
			gl.BindTexture(backend.GLTextureRectangle, textures[ctex^1])
			gl.TexImage2D(backend.GLTextureRectangle, backend.GLRGBA, width, height,
				backend.GLBGRA, backend.GLUnsignedInt8888Rev)
			gl.BindTexture(backend.GLTextureRectangle, textures[ctex])
			gl.TexImage2D(backend.GLTextureRectangle, backend.GLRGBA, width, height,
				backend.GLBGRA, backend.GLUnsignedInt8888Rev)
			di.d.relsem.post()
			continue
		}

		gl.TexSubImage2D(backend.GLTextureRectangle, width, height,
			backend.GLBGRA, backend.GLUnsignedInt8888Rev, di.pixeldata)
		if p.syncMode == 0 {
			di.d.relsem.post() // release the pbo as soon as possible
		}
		prof.tick(false)

		for {
			ev, ok := xc.PollConfigure()
			if !ok {
				break
			}
			di.setSize(ev.Width, ev.Height)
			di.setReinit(reinitResize)
		}

		gl.DrawQuad(float32(width), float32(height))
		p.dbe.SwapBuffers(ddpy, backend.Drawable(di.window))
		ctex ^= 1
		gl.BindTexture(backend.GLTextureRectangle, textures[ctex])
		if p.syncMode != 0 {
			di.d.relsem.post() // release only after presenting
		}
		prof.tick(false)
	}
}
