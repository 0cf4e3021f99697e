package primus

import (
	"testing"
	"time"
)

func TestDrawableKindString(t *testing.T) {
	tests := []struct {
		kind drawableKind
		want string
	}{
		{kindRawWindow, "XWindow"},
		{kindGLXWindow, "Window"},
		{kindPixmap, "Pixmap"},
		{kindPbuffer, "Pbuffer"},
		{drawableKind(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
	if !kindRawWindow.visible() || !kindGLXWindow.visible() {
		t.Error("window kinds must be visible")
	}
	if kindPixmap.visible() || kindPbuffer.visible() {
		t.Error("off-screen kinds must not be visible")
	}
}

func TestSemTimeout(t *testing.T) {
	s := newSem()
	s.post()
	if !s.waitTimeout(time.Second) {
		t.Error("waitTimeout missed a posted token")
	}
	start := time.Now()
	if s.waitTimeout(20 * time.Millisecond) {
		t.Error("waitTimeout acquired an empty semaphore")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("waitTimeout returned before the deadline")
	}
}

func TestWorkerSpawnJoin(t *testing.T) {
	var w workerState
	ran := make(chan struct{})
	w.spawn(func() {
		w.acqsem.wait()
		close(ran)
	})
	if !w.running {
		t.Fatal("worker not marked running after spawn")
	}
	if w.reinit != reinitResize {
		t.Errorf("fresh worker reinit = %v, want resize", w.reinit)
	}
	w.acqsem.post()
	<-ran
	w.join()
	if w.running {
		t.Error("worker still marked running after join")
	}
}
