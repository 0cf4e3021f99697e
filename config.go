package primus

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/ralfjung-e/primus/backend"
	"github.com/ralfjung-e/primus/x11"
)

// Compile-time defaults, each overridable by the environment variable of
// the same name.
const (
	defaultSync       = "0"
	defaultVerbose    = "1"
	defaultDisplay    = ":8"
	defaultLibGLa     = "/usr/lib/nvidia/libGL.so.1:/usr/lib/libGL.so.1"
	defaultLibGLd     = "/usr/lib/libGL.so.1"
	defaultLoadGlobal = ""
	defaultSocket     = "/var/run/bumblebee.socket"
)

// getconf returns the environment value of name, or the compiled-in
// default when the variable is unset or empty.
func getconf(name, compiled string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return compiled
}

func getconfInt(name, compiled string) int {
	n, err := strconv.Atoi(getconf(name, compiled))
	if err != nil {
		return 0
	}
	return n
}

// options holds optional configuration for New.
type options struct {
	sync       *int
	verbose    *int
	adisplay   *string
	libGLa     *string
	libGLd     *string
	loadGlobal *string
	socketPath *string
	skipDaemon bool
	abe        backend.Backend
	dbe        backend.Backend
	xdial      x11.Dialer
	logger     *slog.Logger
}

// Option configures a Primus during creation. Every knob defaults to the
// PRIMUS_* environment, so a plain New() behaves like the preloaded
// original.
type Option func(*options)

// WithSync selects the readback-display synchronization mode:
// 0 no sync, 1 the display lags one frame behind, 2 fully synced.
// Defaults to PRIMUS_SYNC.
func WithSync(mode int) Option {
	return func(o *options) { o.sync = &mode }
}

// WithVerbose selects log verbosity: 0 only errors, 1 adds warnings,
// 2 adds profiling. Defaults to PRIMUS_VERBOSE.
func WithVerbose(v int) Option {
	return func(o *options) { o.verbose = &v }
}

// WithAccelDisplay names the X display of the accelerator.
// Defaults to PRIMUS_DISPLAY.
func WithAccelDisplay(name string) Option {
	return func(o *options) { o.adisplay = &name }
}

// WithLibGL sets the colon-separated library path lists for the
// accelerator and display GL libraries. Defaults to PRIMUS_libGLa and
// PRIMUS_libGLd.
func WithLibGL(accel, display string) Option {
	return func(o *options) {
		o.libGLa = &accel
		o.libGLd = &display
	}
}

// WithLoadGlobal sets the library loaded with global symbol visibility
// before the accelerator GL. Defaults to PRIMUS_LOAD_GLOBAL.
func WithLoadGlobal(path string) Option {
	return func(o *options) { o.loadGlobal = &path }
}

// WithSocketPath sets the auxiliary daemon socket path.
// Defaults to BUMBLEBEE_SOCKET.
func WithSocketPath(path string) Option {
	return func(o *options) { o.socketPath = &path }
}

// WithoutDaemon skips the auxiliary daemon handshake entirely. Use this
// when the secondary display is known to be up already, and in tests.
func WithoutDaemon() Option {
	return func(o *options) { o.skipDaemon = true }
}

// WithBackends injects the two GL backends directly, bypassing the
// registry and the library loader. The first is the accelerator side,
// the second the display side. They may be the same instance.
func WithBackends(accel, display backend.Backend) Option {
	return func(o *options) {
		o.abe = accel
		o.dbe = display
	}
}

// WithXDialer injects the dialer used for the X protocol connections
// (the primary-display connection, the secondary-display connection and
// every display worker's private connection). Defaults to x11.Dial.
func WithXDialer(dial x11.Dialer) Option {
	return func(o *options) { o.xdial = dial }
}

// WithLogger overrides the logger for this instance.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func intConf(override *int, env, compiled string) int {
	if override != nil {
		return *override
	}
	return getconfInt(env, compiled)
}

func strConf(override *string, env, compiled string) string {
	if override != nil {
		return *override
	}
	return getconf(env, compiled)
}
