// Package x11 provides the small slice of the X11 protocol the offload
// pipeline needs besides GLX itself: drawable geometry, the window-tree
// walk for the compositing hint, structure-notify watching, and font
// name translation.
//
// The real implementation speaks the wire protocol through
// github.com/BurntSushi/xgb on its own connection, deliberately separate
// from whatever connection the vendor GL library holds, so the two never
// interleave replies. X resource ids are server-global, which is what
// makes this split workable: a font opened here is usable by a GLX call
// made on another connection to the same server.
package x11

// Window is an X window id.
type Window uint32

// Font is an X font id.
type Font uint32

// ConfigureEvent reports a window's new geometry.
type ConfigureEvent struct {
	Window Window
	Width  int
	Height int
}

// Conn is one connection to an X server.
type Conn interface {
	// Geometry returns the drawable's current width and height.
	Geometry(d Window) (width, height int, err error)

	// Parent returns the window's parent, or 0 for the root window.
	Parent(w Window) (Window, error)

	// SetAtomProperty sets an empty ATOM-typed property of the given
	// name on the window.
	SetAtomProperty(w Window, name string) error

	// SelectStructure subscribes this connection to StructureNotify
	// events on the window.
	SelectStructure(w Window) error

	// PollConfigure drains one pending ConfigureNotify event, if any.
	PollConfigure() (ConfigureEvent, bool)

	// FontName returns the XLFD name of an open font.
	FontName(f Font) (string, error)

	// OpenFont opens the named font on this connection's server.
	OpenFont(name string) (Font, error)

	// CloseFont closes a font opened by OpenFont.
	CloseFont(f Font)

	// Close closes the connection.
	Close()
}

// Dialer opens a connection to the named display. An empty name selects
// the DISPLAY environment default.
type Dialer func(display string) (Conn, error)
