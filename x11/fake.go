package x11

import (
	"fmt"
	"sync"
)

// FakeServer is an in-memory X server for tests: a window tree with
// geometry, properties, fonts and ConfigureNotify delivery. Its Dial
// method is a Dialer, so a pipeline under test can open any number of
// private connections to it the way the real thing opens connections to
// the primary display.
type FakeServer struct {
	mu      sync.Mutex
	nextID  uint32
	root    Window
	windows map[Window]*fakeWindow
	fonts   map[Font]string
	conns   map[*FakeConn]bool
}

type fakeWindow struct {
	parent Window
	width  int
	height int
	props  map[string]bool
}

// NewFakeServer creates a server with a single root window.
func NewFakeServer() *FakeServer {
	s := &FakeServer{
		nextID:  0x100,
		windows: make(map[Window]*fakeWindow),
		fonts:   make(map[Font]string),
		conns:   make(map[*FakeConn]bool),
	}
	s.root = s.newWindowLocked(0, 1920, 1080)
	return s
}

func (s *FakeServer) newWindowLocked(parent Window, w, h int) Window {
	s.nextID++
	id := Window(s.nextID)
	s.windows[id] = &fakeWindow{parent: parent, width: w, height: h, props: make(map[string]bool)}
	return id
}

// Root returns the root window.
func (s *FakeServer) Root() Window {
	return s.root
}

// CreateWindow creates a window. A zero parent means the root.
func (s *FakeServer) CreateWindow(parent Window, w, h int) Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	if parent == 0 {
		parent = s.root
	}
	return s.newWindowLocked(parent, w, h)
}

// Resize changes a window's geometry and delivers ConfigureNotify to
// every connection that selected StructureNotify on it.
func (s *FakeServer) Resize(w Window, width, height int) {
	s.mu.Lock()
	win := s.windows[w]
	if win == nil {
		s.mu.Unlock()
		return
	}
	win.width = width
	win.height = height
	ev := ConfigureEvent{Window: w, Width: width, Height: height}
	var targets []*FakeConn
	for c := range s.conns {
		if c.selected[w] {
			targets = append(targets, c)
		}
	}
	s.mu.Unlock()
	for _, c := range targets {
		c.deliver(ev)
	}
}

// HasProperty reports whether the named property is set on the window.
func (s *FakeServer) HasProperty(w Window, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	win := s.windows[w]
	return win != nil && win.props[name]
}

// NewFont registers a server-side font with the given XLFD name and
// returns its id, as if some client had opened it.
func (s *FakeServer) NewFont(name string) Font {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	f := Font(s.nextID)
	s.fonts[f] = name
	return f
}

// OpenConns returns the number of live connections, for leak checks.
func (s *FakeServer) OpenConns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Dial opens a connection. The display name is ignored; the fake server
// serves every display. Dial is an x11.Dialer.
func (s *FakeServer) Dial(display string) (Conn, error) {
	c := &FakeConn{
		s:        s,
		selected: make(map[Window]bool),
	}
	s.mu.Lock()
	s.conns[c] = true
	s.mu.Unlock()
	return c, nil
}

// FakeConn is one connection to a FakeServer.
type FakeConn struct {
	s        *FakeServer
	mu       sync.Mutex
	selected map[Window]bool
	events   []ConfigureEvent
	closed   bool
}

func (c *FakeConn) deliver(ev ConfigureEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.events = append(c.events, ev)
}

func (c *FakeConn) Geometry(d Window) (int, int, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	win := c.s.windows[d]
	if win == nil {
		return 0, 0, fmt.Errorf("x11: bad drawable %d", d)
	}
	return win.width, win.height, nil
}

func (c *FakeConn) Parent(w Window) (Window, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	win := c.s.windows[w]
	if win == nil {
		return 0, fmt.Errorf("x11: bad window %d", w)
	}
	return win.parent, nil
}

func (c *FakeConn) SetAtomProperty(w Window, name string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	win := c.s.windows[w]
	if win == nil {
		return fmt.Errorf("x11: bad window %d", w)
	}
	win.props[name] = true
	return nil
}

func (c *FakeConn) SelectStructure(w Window) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected[w] = true
	return nil
}

func (c *FakeConn) PollConfigure() (ConfigureEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return ConfigureEvent{}, false
	}
	ev := c.events[0]
	c.events = c.events[1:]
	return ev, true
}

func (c *FakeConn) FontName(f Font) (string, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	name, ok := c.s.fonts[f]
	if !ok {
		return "", fmt.Errorf("x11: bad font %d", f)
	}
	return name, nil
}

func (c *FakeConn) OpenFont(name string) (Font, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.nextID++
	f := Font(c.s.nextID)
	c.s.fonts[f] = name
	return f, nil
}

func (c *FakeConn) CloseFont(f Font) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	delete(c.s.fonts, f)
}

func (c *FakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.s.mu.Lock()
	delete(c.s.conns, c)
	c.s.mu.Unlock()
}
