package primus

import (
	"testing"
	"time"

	"github.com/ralfjung-e/primus/backend"
)

func TestSteadyStateRendering(t *testing.T) {
	tp := newTestPipeline(t, 0, 640, 480)

	const frames = 200
	for i := 0; i < frames; i++ {
		tp.renderFrame(1, 0, 0)
	}
	// Flush the pipeline before counting.
	tp.p.DestroyContext(tp.ctx)

	presents := tp.gpu.Presents(backend.Drawable(tp.win))
	if presents < frames-10 {
		t.Errorf("presents = %d, want >= %d", presents, frames-10)
	}
	if w, h := tp.gpu.LastPresentSize(backend.Drawable(tp.win)); w != 640 || h != 480 {
		t.Errorf("last present %dx%d, want 640x480", w, h)
	}
	// BGRA: cleared to opaque red.
	px := tp.gpu.LastPresentPixels(backend.Drawable(tp.win))
	if len(px) < 4 {
		t.Fatal("no presented pixels")
	}
	if px[0] != 0 || px[1] != 0 || px[2] != 255 || px[3] != 255 {
		t.Errorf("presented pixel = %v, want BGRA red", px[:4])
	}
	if n := tp.logs.count("dropping a frame"); n > 10 {
		t.Errorf("dropped %d frames in an unloaded pipeline", n)
	}
}

func TestSyncModes(t *testing.T) {
	for _, mode := range []int{0, 1, 2} {
		t.Run(map[int]string{0: "NoSync", 1: "Lag", 2: "Strict"}[mode], func(t *testing.T) {
			tp := newTestPipeline(t, mode, 320, 240)
			const frames = 50
			for i := 0; i < frames; i++ {
				tp.renderFrame(0, 1, 0)
			}
			tp.p.DestroyContext(tp.ctx)

			presents := tp.gpu.Presents(backend.Drawable(tp.win))
			if mode == 2 {
				// Strict mode never drops: one presentation per swap.
				if presents != frames {
					t.Errorf("mode 2 presents = %d, want exactly %d", presents, frames)
				}
			} else if presents < frames-5 {
				t.Errorf("mode %d presents = %d, want >= %d", mode, presents, frames-5)
			}
		})
	}
}

func TestSwapReturnsPromptly(t *testing.T) {
	tp := newTestPipeline(t, 2, 320, 240)
	for i := 0; i < 10; i++ {
		start := time.Now()
		tp.renderFrame(0, 0, 1)
		if d := time.Since(start); d > 3*time.Second {
			t.Fatalf("swap %d took %v", i, d)
		}
	}
}

func TestResize(t *testing.T) {
	tp := newTestPipeline(t, 0, 256, 256)

	for i := 0; i < 5; i++ {
		tp.renderFrame(1, 1, 0)
	}
	if w, h := tp.gpu.LastPresentSize(backend.Drawable(tp.win)); w != 256 || h != 256 {
		t.Fatalf("pre-resize present %dx%d, want 256x256", w, h)
	}

	tp.xsrv.Resize(tp.win, 512, 384)

	// The display worker notices the ConfigureNotify while processing a
	// frame, the application thread reacts at its next swap, and the
	// workers reinitialize one swap later.
	for i := 0; i < 4; i++ {
		tp.renderFrame(1, 1, 0)
	}

	if w, err := tp.p.QueryDrawable(tp.glxwin, backend.Width); err != nil || w != 512 {
		t.Errorf("backing surface width = %d (%v), want 512", w, err)
	}
	if h, err := tp.p.QueryDrawable(tp.glxwin, backend.Height); err != nil || h != 384 {
		t.Errorf("backing surface height = %d (%v), want 384", h, err)
	}
	if w, h := tp.gpu.LastPresentSize(backend.Drawable(tp.win)); w != 512 || h != 384 {
		t.Errorf("post-resize present %dx%d, want 512x384", w, h)
	}
	for _, sz := range tp.gpu.PackBufferSizes() {
		if sz != 512*384*4 {
			t.Errorf("pack buffer size = %d, want %d", sz, 512*384*4)
		}
	}
	// Readback and upload sizes stayed consistent: the frame is intact.
	px := tp.gpu.LastPresentPixels(backend.Drawable(tp.win))
	if len(px) != 512*384*4 {
		t.Fatalf("presented %d bytes, want %d", len(px), 512*384*4)
	}
	if px[0] != 0 || px[1] != 255 || px[2] != 255 {
		t.Errorf("presented pixel = %v, want BGRA yellow", px[:4])
	}
}

func TestShareGroupChange(t *testing.T) {
	tp := newTestPipeline(t, 0, 128, 128)

	// Two contexts with distinct share lists on the same drawable.
	ctx2 := tp.p.CreateNewContext(tp.cfg, backend.RGBAType, 0, true)
	if ctx2 == 0 {
		t.Fatal("CreateNewContext failed")
	}

	tp.renderFrame(1, 0, 0) // spawns workers against tp.ctx

	if _, ok := tp.p.MakeCurrent(tp.glxwin, ctx2); !ok {
		t.Fatal("MakeCurrent(ctx2) failed")
	}
	tp.renderFrame(1, 0, 0) // respawn: ctx2 is in another share group
	tp.renderFrame(1, 0, 0) // same group now: no respawn

	if n := tp.logs.count("respawning"); n != 1 {
		t.Errorf("respawn warnings = %d, want exactly 1", n)
	}

	// Contexts sharing a group must not trigger a respawn.
	ctx3 := tp.p.CreateNewContext(tp.cfg, backend.RGBAType, ctx2, true)
	if _, ok := tp.p.MakeCurrent(tp.glxwin, ctx3); !ok {
		t.Fatal("MakeCurrent(ctx3) failed")
	}
	tp.renderFrame(1, 0, 0)
	if n := tp.logs.count("respawning"); n != 1 {
		t.Errorf("respawn warnings after shared context = %d, want 1", n)
	}
}

func TestShutdown(t *testing.T) {
	tp := newTestPipeline(t, 0, 64, 64)
	for i := 0; i < 3; i++ {
		tp.renderFrame(0, 0, 1)
	}

	// Destroying the last context reaps all workers.
	done := make(chan struct{})
	go func() {
		tp.p.DestroyContext(tp.ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("DestroyContext did not reap workers within 1s")
	}

	// Worker teardown released its contexts and private connections.
	tp.p.DestroyWindow(tp.glxwin)
	if n := tp.gpu.PbufferCount(); n != 0 {
		t.Errorf("live pbuffers after destroy = %d, want 0", n)
	}
	if n := tp.gpu.ContextCount(); n != 0 {
		t.Errorf("live contexts after destroy = %d, want 0", n)
	}

	tp.p.Close()
	if n := tp.gpu.DisplayCount(); n != 0 {
		t.Errorf("open GL displays after close = %d, want 0", n)
	}
	if n := tp.xsrv.OpenConns(); n != 0 {
		t.Errorf("open X connections after close = %d, want 0", n)
	}
}

func TestSwapWithoutContext(t *testing.T) {
	tp := newTestPipeline(t, 0, 64, 64)

	// Release the current context, then swap.
	tp.p.MakeCurrent(0, 0)
	tp.p.SwapBuffers(tp.glxwin)

	if n := tp.logs.count("no current context"); n != 1 {
		t.Errorf("no-context warnings = %d, want 1", n)
	}
	if n := tp.gpu.Presents(backend.Drawable(tp.win)); n != 0 {
		t.Errorf("presents without context = %d, want 0", n)
	}
}

func TestRawWindowAdoption(t *testing.T) {
	tp := newTestPipeline(t, 0, 64, 64)

	parent := tp.xsrv.CreateWindow(0, 300, 200)
	raw := tp.xsrv.CreateWindow(parent, 300, 200)

	if _, ok := tp.p.MakeCurrent(backend.Drawable(raw), tp.ctx); !ok {
		t.Fatal("MakeCurrent on raw window failed")
	}

	di := tp.p.drawableRecord(backend.Drawable(raw))
	if di == nil {
		t.Fatal("raw window not adopted into the registry")
	}
	if di.kind != kindRawWindow {
		t.Errorf("kind = %v, want %v", di.kind, kindRawWindow)
	}
	if w, h := di.size(); w != 300 || h != 200 {
		t.Errorf("size = %dx%d, want 300x200", w, h)
	}

	// The compositing hint is set on the window and every ancestor
	// below the root, and never on the root itself.
	if !tp.xsrv.HasProperty(raw, blockCompositingAtom) {
		t.Error("compositing hint missing on the window")
	}
	if !tp.xsrv.HasProperty(parent, blockCompositingAtom) {
		t.Error("compositing hint missing on the parent")
	}
	if tp.xsrv.HasProperty(tp.xsrv.Root(), blockCompositingAtom) {
		t.Error("compositing hint set on the root")
	}

	// The raw window renders and presents like any other drawable.
	gl := tp.p.CurrentGL()
	gl.ClearColor(0, 1, 1, 1)
	gl.Clear(backend.GLColorBufferBit)
	tp.p.SwapBuffers(backend.Drawable(raw))
	tp.p.DestroyContext(tp.ctx)
	if n := tp.gpu.Presents(backend.Drawable(raw)); n < 1 {
		t.Errorf("raw window presents = %d, want >= 1", n)
	}
}

func TestPbufferSwapStaysOffscreen(t *testing.T) {
	tp := newTestPipeline(t, 0, 64, 64)

	pb := tp.p.CreatePbuffer(tp.cfg, []int{backend.PbufferWidth, 32, backend.PbufferHeight, 16})
	if pb == 0 {
		t.Fatal("CreatePbuffer failed")
	}
	if _, ok := tp.p.MakeCurrent(pb, tp.ctx); !ok {
		t.Fatal("MakeCurrent on pbuffer failed")
	}
	tp.p.SwapBuffers(pb)

	if w, err := tp.p.QueryDrawable(pb, backend.Width); err != nil || w != 32 {
		t.Errorf("pbuffer width = %d (%v), want 32", w, err)
	}
	// No workers, no presentations for off-screen drawables.
	di := tp.p.drawableRecord(pb)
	if di.r.running {
		t.Error("workers spawned for a pbuffer drawable")
	}
	tp.p.DestroyPbuffer(pb)
}

func TestPbufferMatchesDrawableSize(t *testing.T) {
	tp := newTestPipeline(t, 1, 200, 100)
	tp.renderFrame(1, 0, 1)

	if w, err := tp.p.QueryDrawable(tp.glxwin, backend.Width); err != nil || w != 200 {
		t.Errorf("backing width = %d (%v), want 200", w, err)
	}
	if h, err := tp.p.QueryDrawable(tp.glxwin, backend.Height); err != nil || h != 100 {
		t.Errorf("backing height = %d (%v), want 100", h, err)
	}
}
