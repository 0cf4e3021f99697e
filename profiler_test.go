package primus

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newRecordedProfiler(name string, states []string) (*profiler, *logRecorder) {
	logs := &logRecorder{}
	pr := &profiler{
		log:       slog.New(logs),
		name:      name,
		states:    states,
		stateTime: make([]time.Duration, len(states)),
		prev:      time.Now(),
		printed:   time.Now(),
	}
	return pr, logs
}

func TestProfilerStateCycle(t *testing.T) {
	pr, logs := newRecordedProfiler("readback", []string{"app", "map", "wait"})

	for i := 0; i < 6; i++ {
		pr.tick(i%3 == 0)
	}
	if pr.frames != 2 {
		t.Errorf("frames = %d, want 2", pr.frames)
	}
	// Nothing printed before the period elapses.
	if n := len(logs.msgs); n != 0 {
		t.Errorf("premature profiler output: %v", logs.msgs)
	}
}

func TestProfilerEmitsAfterPeriod(t *testing.T) {
	pr, logs := newRecordedProfiler("display", []string{"wait", "upload", "draw+swap"})

	// Backdate the counters so the period has already elapsed.
	pr.printed = pr.printed.Add(-6 * time.Second)
	pr.prev = pr.prev.Add(-6 * time.Second)

	pr.tick(true)
	pr.tick(false)
	pr.tick(false) // frame boundary: state wraps to 0, period exceeded

	logs.mu.Lock()
	defer logs.mu.Unlock()
	if len(logs.msgs) != 1 {
		t.Fatalf("profiler lines = %d, want 1", len(logs.msgs))
	}
	msg := logs.msgs[0]
	for _, want := range []string{"profiling: display", "fps", "wait", "upload", "draw+swap"} {
		if !strings.Contains(msg, want) {
			t.Errorf("profiler line %q missing %q", msg, want)
		}
	}
	if pr.frames != 0 {
		t.Errorf("frame counter not reset: %d", pr.frames)
	}
	for i, d := range pr.stateTime {
		if d != 0 {
			t.Errorf("stateTime[%d] not reset: %v", i, d)
		}
	}
}

func TestProfilerOnlyPrintsAtFrameBoundary(t *testing.T) {
	pr, logs := newRecordedProfiler("readback", []string{"app", "map", "wait"})
	pr.printed = pr.printed.Add(-6 * time.Second)

	pr.tick(true)
	pr.tick(false) // mid-frame, despite the period being over
	if len(logs.msgs) != 0 {
		t.Errorf("profiler printed mid-frame: %v", logs.msgs)
	}
}
