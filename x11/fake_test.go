package x11

import "testing"

func TestFakeGeometryAndTree(t *testing.T) {
	s := NewFakeServer()
	parent := s.CreateWindow(0, 800, 600)
	child := s.CreateWindow(parent, 400, 300)

	c, err := s.Dial("")
	if err != nil {
		t.Fatalf("Dial error = %v", err)
	}
	defer c.Close()

	if w, h, err := c.Geometry(child); err != nil || w != 400 || h != 300 {
		t.Errorf("Geometry = %dx%d (%v), want 400x300", w, h, err)
	}
	if p, err := c.Parent(child); err != nil || p != parent {
		t.Errorf("Parent(child) = %d (%v), want %d", p, err, parent)
	}
	if p, err := c.Parent(parent); err != nil || p != s.Root() {
		t.Errorf("Parent(parent) = %d (%v), want root %d", p, err, s.Root())
	}
	if p, err := c.Parent(s.Root()); err != nil || p != 0 {
		t.Errorf("Parent(root) = %d (%v), want 0", p, err)
	}
	if _, _, err := c.Geometry(Window(0xdead)); err == nil {
		t.Error("Geometry of bad drawable did not error")
	}
}

func TestFakeProperties(t *testing.T) {
	s := NewFakeServer()
	win := s.CreateWindow(0, 10, 10)
	c, _ := s.Dial("")
	defer c.Close()

	const prop = "_KDE_NET_WM_BLOCK_COMPOSITING"
	if s.HasProperty(win, prop) {
		t.Fatal("property set before SetAtomProperty")
	}
	if err := c.SetAtomProperty(win, prop); err != nil {
		t.Fatalf("SetAtomProperty error = %v", err)
	}
	if !s.HasProperty(win, prop) {
		t.Error("property not visible after SetAtomProperty")
	}
}

func TestFakeConfigureDelivery(t *testing.T) {
	s := NewFakeServer()
	win := s.CreateWindow(0, 100, 100)

	watcher, _ := s.Dial("")
	defer watcher.Close()
	bystander, _ := s.Dial("")
	defer bystander.Close()

	if err := watcher.SelectStructure(win); err != nil {
		t.Fatalf("SelectStructure error = %v", err)
	}

	s.Resize(win, 200, 150)

	ev, ok := watcher.PollConfigure()
	if !ok {
		t.Fatal("watcher received no ConfigureNotify")
	}
	if ev.Window != win || ev.Width != 200 || ev.Height != 150 {
		t.Errorf("event = %+v, want {%d 200 150}", ev, win)
	}
	if _, ok := watcher.PollConfigure(); ok {
		t.Error("spurious second event")
	}
	if _, ok := bystander.PollConfigure(); ok {
		t.Error("event delivered to a connection that did not select")
	}

	// Geometry reflects the resize for everyone.
	if w, h, _ := bystander.Geometry(win); w != 200 || h != 150 {
		t.Errorf("Geometry after resize = %dx%d, want 200x150", w, h)
	}
}

func TestFakeFonts(t *testing.T) {
	s := NewFakeServer()
	c, _ := s.Dial("")
	defer c.Close()

	const xlfd = "-misc-fixed-medium-r-normal--13-120-75-75-c-70-iso8859-1"
	server := s.NewFont(xlfd)
	if name, err := c.FontName(server); err != nil || name != xlfd {
		t.Errorf("FontName = %q (%v), want %q", name, err, xlfd)
	}

	f, err := c.OpenFont(xlfd)
	if err != nil {
		t.Fatalf("OpenFont error = %v", err)
	}
	if f == server {
		t.Error("OpenFont reused an existing font id")
	}
	c.CloseFont(f)
	if _, err := c.FontName(f); err == nil {
		t.Error("FontName of closed font did not error")
	}
}

func TestFakeConnAccounting(t *testing.T) {
	s := NewFakeServer()
	c1, _ := s.Dial(":0")
	c2, _ := s.Dial(":8")
	if n := s.OpenConns(); n != 2 {
		t.Errorf("OpenConns = %d, want 2", n)
	}
	c1.Close()
	c2.Close()
	if n := s.OpenConns(); n != 0 {
		t.Errorf("OpenConns after close = %d, want 0", n)
	}
}
