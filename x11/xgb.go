package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// Dial opens an xgb connection to the named display.
func Dial(display string) (Conn, error) {
	c, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("x11: connecting to display %q: %w", display, err)
	}
	return &xgbConn{c: c}, nil
}

type xgbConn struct {
	c        *xgb.Conn
	fontAtom xproto.Atom
}

func (x *xgbConn) Geometry(d Window) (int, int, error) {
	g, err := xproto.GetGeometry(x.c, xproto.Drawable(d)).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("x11: GetGeometry: %w", err)
	}
	return int(g.Width), int(g.Height), nil
}

func (x *xgbConn) Parent(w Window) (Window, error) {
	t, err := xproto.QueryTree(x.c, xproto.Window(w)).Reply()
	if err != nil {
		return 0, fmt.Errorf("x11: QueryTree: %w", err)
	}
	// The root window reports no parent.
	return Window(t.Parent), nil
}

func (x *xgbConn) SetAtomProperty(w Window, name string) error {
	a, err := xproto.InternAtom(x.c, false, uint16(len(name)), name).Reply()
	if err != nil {
		return fmt.Errorf("x11: InternAtom %q: %w", name, err)
	}
	err = xproto.ChangePropertyChecked(x.c, xproto.PropModeReplace, xproto.Window(w),
		a.Atom, xproto.AtomAtom, 32, 0, nil).Check()
	if err != nil {
		return fmt.Errorf("x11: ChangeProperty: %w", err)
	}
	return nil
}

func (x *xgbConn) SelectStructure(w Window) error {
	err := xproto.ChangeWindowAttributesChecked(x.c, xproto.Window(w),
		xproto.CwEventMask, []uint32{xproto.EventMaskStructureNotify}).Check()
	if err != nil {
		return fmt.Errorf("x11: selecting StructureNotify: %w", err)
	}
	return nil
}

func (x *xgbConn) PollConfigure() (ConfigureEvent, bool) {
	for {
		ev, xerr := x.c.PollForEvent()
		if ev == nil && xerr == nil {
			return ConfigureEvent{}, false
		}
		if xerr != nil {
			continue
		}
		if cn, ok := ev.(xproto.ConfigureNotifyEvent); ok {
			return ConfigureEvent{
				Window: Window(cn.Window),
				Width:  int(cn.Width),
				Height: int(cn.Height),
			}, true
		}
	}
}

func (x *xgbConn) FontName(f Font) (string, error) {
	if x.fontAtom == 0 {
		a, err := xproto.InternAtom(x.c, true, uint16(len("FONT")), "FONT").Reply()
		if err != nil {
			return "", fmt.Errorf("x11: InternAtom FONT: %w", err)
		}
		x.fontAtom = a.Atom
	}
	q, err := xproto.QueryFont(x.c, xproto.Fontable(f)).Reply()
	if err != nil {
		return "", fmt.Errorf("x11: QueryFont: %w", err)
	}
	for _, prop := range q.Properties {
		if prop.Name != x.fontAtom {
			continue
		}
		n, err := xproto.GetAtomName(x.c, xproto.Atom(prop.Value)).Reply()
		if err != nil {
			return "", fmt.Errorf("x11: GetAtomName: %w", err)
		}
		return n.Name, nil
	}
	return "", fmt.Errorf("x11: font %d has no FONT property", f)
}

func (x *xgbConn) OpenFont(name string) (Font, error) {
	id, err := x.c.NewId()
	if err != nil {
		return 0, fmt.Errorf("x11: allocating font id: %w", err)
	}
	err = xproto.OpenFontChecked(x.c, xproto.Font(id), uint16(len(name)), name).Check()
	if err != nil {
		return 0, fmt.Errorf("x11: OpenFont %q: %w", name, err)
	}
	return Font(id), nil
}

func (x *xgbConn) CloseFont(f Font) {
	xproto.CloseFont(x.c, xproto.Font(f))
}

func (x *xgbConn) Close() {
	x.c.Close()
}
