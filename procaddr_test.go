package primus

import (
	"testing"

	"github.com/ralfjung-e/primus/backend"
)

func TestGetProcAddress(t *testing.T) {
	tp := newTestPipeline(t, 0, 64, 64)

	// Non-GLX names forward to the accelerator library.
	if addr, ok := tp.p.GetProcAddress("glFoo").(uintptr); !ok || addr == 0 {
		t.Errorf("GetProcAddress(glFoo) = %v, want nonzero accelerator address", addr)
	}

	// Reimplemented GLX names return their stub.
	fn := tp.p.GetProcAddress("glXMakeCurrent")
	if fn == nil {
		t.Fatal("GetProcAddress(glXMakeCurrent) = nil, want the reimplemented stub")
	}
	mc, ok := fn.(func(backend.Drawable, backend.Context) (backend.GL, bool))
	if !ok {
		t.Fatalf("GetProcAddress(glXMakeCurrent) has type %T", fn)
	}
	if _, ok := mc(tp.glxwin, tp.ctx); !ok {
		t.Error("stub MakeCurrent failed")
	}

	// Unknown GLX names are not available.
	if fn := tp.p.GetProcAddress("glXNotAThing"); fn != nil {
		t.Errorf("GetProcAddress(glXNotAThing) = %v, want nil", fn)
	}

	// The ARB alias behaves identically.
	if fn := tp.p.GetProcAddressARB("glXSwapBuffers"); fn == nil {
		t.Error("GetProcAddressARB(glXSwapBuffers) = nil")
	}
}

func TestProcTableCoversClientStrings(t *testing.T) {
	tp := newTestPipeline(t, 0, 64, 64)
	for _, name := range []string{
		"glXGetClientString", "glXQueryExtensionsString", "glXGetProcAddress",
		"glXCreateContext", "glXDestroyContext", "glXSwapBuffers",
		"glXCreateWindow", "glXCreatePbuffer", "glXUseXFont",
		"glXGetCurrentContext", "glXGetCurrentDrawable", "glXWaitGL", "glXWaitX",
		"glXSwapIntervalSGI", "glXMakeContextCurrent", "glXGetProcAddressARB",
	} {
		if tp.p.GetProcAddress(name) == nil {
			t.Errorf("GetProcAddress(%s) = nil, want stub", name)
		}
	}
}
