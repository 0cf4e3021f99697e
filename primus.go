package primus

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/ralfjung-e/primus/backend"
	// Register the vendor-library backend; it is what New loads when no
	// backends are injected.
	_ "github.com/ralfjung-e/primus/backend/libgl"
	"github.com/ralfjung-e/primus/x11"
)

// Primus redirects GL rendering to a secondary GPU while presenting the
// output on the primary display. One instance holds the process-wide
// state: the two loaded GL implementations, the display connections, and
// the registries of application-visible drawables and contexts.
//
// The exported methods mirror the GLX entry points the original library
// interposes, minus the glX prefix.
type Primus struct {
	syncMode int
	log      *slog.Logger

	// abe renders, dbe displays.
	abe backend.Backend
	dbe backend.Backend

	// adpy is the accelerator's display, shared by application threads
	// and readback workers (the readback context must be share-list
	// compatible with the application's). ddpy is our own private
	// connection to the primary display.
	adpy backend.Display
	ddpy backend.Display

	// dx and ax are X protocol connections to the primary and secondary
	// displays, for the non-GLX calls.
	dx x11.Conn
	ax x11.Conn

	// xdial opens the display workers' private connections.
	xdial    x11.Dialer
	xdisplay string

	// dconfigs are the double-buffered configs of the primary display;
	// every visible drawable is created against dconfigs[0].
	dconfigs []backend.FBConfig

	// daemon stays open for the process lifetime; closing it tells the
	// daemon to tear down the secondary display.
	daemon net.Conn

	// mu guards the two registries and the share-group counter. It is
	// never held across a GL or X call.
	mu           sync.Mutex
	drawables    map[backend.Drawable]*drawableInfo
	contexts     map[backend.Context]*contextInfo
	nsharegroups int

	tls bindings
}

// New loads the two GL implementations and connects to both displays.
// With no options, everything is configured from the PRIMUS_* environment
// and the auxiliary daemon is contacted first to bring up the secondary
// display.
func New(opts ...Option) (*Primus, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var daemon net.Conn
	if !o.skipDaemon {
		var err error
		daemon, err = daemonHandshake(strConf(o.socketPath, "BUMBLEBEE_SOCKET", defaultSocket))
		if err != nil {
			return nil, err
		}
	}

	p := &Primus{
		syncMode:  intConf(o.sync, "PRIMUS_SYNC", defaultSync),
		daemon:    daemon,
		xdisplay:  strConf(o.adisplay, "PRIMUS_DISPLAY", defaultDisplay),
		drawables: make(map[backend.Drawable]*drawableInfo),
		contexts:  make(map[backend.Context]*contextInfo),
	}

	switch {
	case o.logger != nil:
		p.log = o.logger
	case Logger() != nil:
		p.log = Logger()
	default:
		p.log = newVerbosityLogger(intConf(o.verbose, "PRIMUS_VERBOSE", defaultVerbose))
	}

	var err error
	p.abe, p.dbe = o.abe, o.dbe
	if p.abe == nil {
		p.abe, err = backend.OpenDefault(backend.OpenConfig{
			LibPath:    strConf(o.libGLa, "PRIMUS_libGLa", defaultLibGLa),
			LoadGlobal: strConf(o.loadGlobal, "PRIMUS_LOAD_GLOBAL", defaultLoadGlobal),
		})
		if err != nil {
			return nil, fmt.Errorf("primus: loading accelerator GL: %w", err)
		}
	}
	if p.dbe == nil {
		p.dbe, err = backend.OpenDefault(backend.OpenConfig{
			LibPath: strConf(o.libGLd, "PRIMUS_libGLd", defaultLibGLd),
		})
		if err != nil {
			return nil, fmt.Errorf("primus: loading display GL: %w", err)
		}
	}

	p.adpy, err = p.abe.OpenDisplay(p.xdisplay)
	if err != nil {
		return nil, fmt.Errorf("primus: failed to open secondary X display: %w", err)
	}
	p.ddpy, err = p.dbe.OpenDisplay("")
	if err != nil {
		return nil, fmt.Errorf("primus: failed to open primary X display: %w", err)
	}

	p.dconfigs = p.dbe.ChooseFBConfig(p.ddpy, 0, []int{backend.DoubleBuffer, 1})
	if len(p.dconfigs) == 0 {
		return nil, fmt.Errorf("primus: no double-buffered fbconfigs on the primary display")
	}

	p.xdial = o.xdial
	if p.xdial == nil {
		p.xdial = x11.Dial
	}
	p.dx, err = p.xdial("")
	if err != nil {
		return nil, fmt.Errorf("primus: X connection to primary display: %w", err)
	}
	p.ax, err = p.xdial(p.xdisplay)
	if err != nil {
		p.dx.Close()
		return nil, fmt.Errorf("primus: X connection to secondary display: %w", err)
	}

	return p, nil
}

// Close reaps every worker, destroys remaining backing pbuffers, and
// closes all connections, including the daemon's (which tears down the
// secondary display).
func (p *Primus) Close() error {
	for _, di := range p.snapshotDrawables() {
		p.reapWorkers(di)
		if di.pbuffer != 0 {
			p.abe.DestroyPbuffer(p.adpy, di.pbuffer)
			di.pbuffer = 0
		}
	}
	p.mu.Lock()
	p.drawables = make(map[backend.Drawable]*drawableInfo)
	p.mu.Unlock()

	p.ax.Close()
	p.dx.Close()
	p.abe.CloseDisplay(p.adpy)
	p.dbe.CloseDisplay(p.ddpy)
	if p.daemon != nil {
		return p.daemon.Close()
	}
	return nil
}

// snapshotDrawables copies the registry's values so callers can iterate
// without holding the registry lock across GL calls.
func (p *Primus) snapshotDrawables() []*drawableInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*drawableInfo, 0, len(p.drawables))
	for _, di := range p.drawables {
		out = append(out, di)
	}
	return out
}
