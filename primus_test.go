package primus

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/ralfjung-e/primus/backend"
	"github.com/ralfjung-e/primus/x11"
)

// logRecorder captures log messages so tests can assert on warnings.
type logRecorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *logRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *logRecorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, rec.Message)
	return nil
}

func (r *logRecorder) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *logRecorder) WithGroup(string) slog.Handler      { return r }

func (r *logRecorder) count(substr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if strings.Contains(m, substr) {
			n++
		}
	}
	return n
}

// testPipeline wires a Primus to the software backend and fake X server.
type testPipeline struct {
	p      *Primus
	gpu    *backend.Software
	xsrv   *x11.FakeServer
	win    x11.Window
	glxwin backend.Drawable
	cfg    backend.FBConfig
	ctx    backend.Context
	gl     backend.GL
	logs   *logRecorder
}

// newTestPipeline builds the pipeline, makes a context current on a
// fresh GLX window, and locks the test goroutine to its OS thread (GL
// current-ness is per thread).
func newTestPipeline(t *testing.T, mode, width, height int) *testPipeline {
	t.Helper()
	tp := &testPipeline{
		gpu:  backend.NewSoftware(),
		xsrv: x11.NewFakeServer(),
		logs: &logRecorder{},
	}
	tp.win = tp.xsrv.CreateWindow(0, width, height)

	var err error
	tp.p, err = New(
		WithoutDaemon(),
		WithBackends(tp.gpu, tp.gpu),
		WithXDialer(tp.xsrv.Dial),
		WithSync(mode),
		WithLogger(slog.New(tp.logs)),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { tp.p.Close() })

	cfgs := tp.p.ChooseFBConfig(0, []int{backend.DoubleBuffer, 1})
	if len(cfgs) == 0 {
		t.Fatal("ChooseFBConfig returned no configs")
	}
	tp.cfg = cfgs[0]

	tp.ctx = tp.p.CreateNewContext(tp.cfg, backend.RGBAType, 0, true)
	if tp.ctx == 0 {
		t.Fatal("CreateNewContext failed")
	}
	tp.glxwin = tp.p.CreateWindow(tp.cfg, tp.win, nil)
	if tp.glxwin == 0 {
		t.Fatal("CreateWindow failed")
	}

	runtime.LockOSThread()
	t.Cleanup(runtime.UnlockOSThread)

	var ok bool
	tp.gl, ok = tp.p.MakeCurrent(tp.glxwin, tp.ctx)
	if !ok || tp.gl == nil {
		t.Fatal("MakeCurrent failed")
	}
	return tp
}

// renderFrame clears the frame to a color and swaps. It renders through
// the thread's current GL binding: after a resize, SwapBuffers has
// re-made the recreated surface current on this thread.
func (tp *testPipeline) renderFrame(r, g, b float32) {
	gl := tp.p.CurrentGL()
	gl.ClearColor(r, g, b, 1)
	gl.Clear(backend.GLColorBufferBit)
	tp.p.SwapBuffers(tp.glxwin)
}
