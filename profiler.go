package primus

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// profilerPeriod is how often each worker reports, at minimum.
const profilerPeriod = 5 * time.Second

// profiler tracks how a worker's time splits across its named states.
// tick credits the elapsed time to the current state and advances;
// tick(true) starts a new frame. Once per period, at frame boundaries,
// it emits one line with fps and per-state percentages.
type profiler struct {
	log    *slog.Logger
	name   string
	states []string

	state     int
	stateTime []time.Duration
	prev      time.Time
	printed   time.Time
	frames    int
}

func (p *Primus) newProfiler(name string, states []string) *profiler {
	now := time.Now()
	return &profiler{
		log:       p.log,
		name:      name,
		states:    states,
		stateTime: make([]time.Duration, len(states)),
		prev:      now,
		printed:   now,
	}
}

func (pr *profiler) tick(frameReset bool) {
	now := time.Now()
	if frameReset {
		pr.state = 0
	}
	pr.stateTime[pr.state] += now.Sub(pr.prev)
	pr.state = (pr.state + 1) % len(pr.states)
	pr.prev = now
	if pr.state == 0 {
		pr.frames++
	}

	period := now.Sub(pr.printed)
	if pr.state != 0 || period < profilerPeriod {
		return
	}
	var b strings.Builder
	for i, name := range pr.states {
		fmt.Fprintf(&b, ", %.1f%% %s", 100*pr.stateTime[i].Seconds()/period.Seconds(), name)
	}
	pr.log.Info(fmt.Sprintf("profiling: %s: %.1f fps%s", pr.name, float64(pr.frames)/period.Seconds(), b.String()))

	pr.printed = now
	pr.frames = 0
	for i := range pr.stateTime {
		pr.stateTime[i] = 0
	}
}
