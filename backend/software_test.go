package backend

import "testing"

func TestSoftwareName(t *testing.T) {
	b := NewSoftware()
	if b.Name() != BackendSoftware {
		t.Errorf("Name() = %q, want %q", b.Name(), BackendSoftware)
	}
}

func TestSoftwareRegistered(t *testing.T) {
	if !IsRegistered(BackendSoftware) {
		t.Fatal("software backend not registered on import")
	}
	b, err := Open(BackendSoftware, OpenConfig{})
	if err != nil {
		t.Fatalf("Open(software) error = %v", err)
	}
	if b.Name() != BackendSoftware {
		t.Errorf("opened backend = %q", b.Name())
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("no-such-backend", OpenConfig{}); err != ErrBackendNotAvailable {
		t.Errorf("Open(unknown) error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestSoftwareDisplays(t *testing.T) {
	b := NewSoftware()
	d1, err := b.OpenDisplay(":8")
	if err != nil {
		t.Fatalf("OpenDisplay error = %v", err)
	}
	d2, _ := b.OpenDisplay("")
	if d1 == d2 {
		t.Error("display handles collide")
	}
	if n := b.DisplayCount(); n != 2 {
		t.Errorf("DisplayCount = %d, want 2", n)
	}
	b.CloseDisplay(d1)
	b.CloseDisplay(d2)
	if n := b.DisplayCount(); n != 0 {
		t.Errorf("DisplayCount after close = %d, want 0", n)
	}
}

func TestSoftwareChooseFBConfig(t *testing.T) {
	b := NewSoftware()
	d, _ := b.OpenDisplay("")

	all := b.ChooseFBConfig(d, 0, nil)
	if len(all) != 2 {
		t.Fatalf("unfiltered configs = %d, want 2", len(all))
	}
	db := b.ChooseFBConfig(d, 0, []int{DoubleBuffer, 1})
	if len(db) != 2 {
		t.Errorf("double-buffered configs = %d, want 2", len(db))
	}
	msaa := b.ChooseFBConfig(d, 0, []int{Samples, 4})
	if len(msaa) != 1 {
		t.Fatalf("multisampled configs = %d, want 1", len(msaa))
	}
	if v, err := b.GetFBConfigAttrib(d, msaa[0], Samples); err != nil || v != 4 {
		t.Errorf("Samples = %d (%v), want 4", v, err)
	}
	if _, err := b.GetFBConfigAttrib(d, msaa[0], 0x9999); err == nil {
		t.Error("unknown attribute did not error")
	}
}

func TestSoftwarePbufferReadback(t *testing.T) {
	b := NewSoftware()
	d, _ := b.OpenDisplay("")
	cfg := b.ChooseFBConfig(d, 0, nil)[0]

	pb := b.CreatePbuffer(d, cfg, []int{PbufferWidth, 4, PbufferHeight, 2, PreservedContents, 1})
	if pb == 0 {
		t.Fatal("CreatePbuffer failed")
	}
	ctx := b.CreateContext(d, cfg, RGBAType, 0, true)
	gl, ok := b.MakeCurrent(d, pb, pb, ctx)
	if !ok || gl == nil {
		t.Fatal("MakeCurrent failed")
	}

	gl.ClearColor(1, 0, 0, 1)
	gl.Clear(GLColorBufferBit)

	pbos := gl.GenBuffers(1)
	gl.BindBuffer(GLPixelPackBuffer, pbos[0])
	gl.BufferData(GLPixelPackBuffer, 4*2*4, GLStreamRead)
	gl.ReadBuffer(GLBack)
	gl.ReadPixels(0, 0, 4, 2, GLBGRA, GLUnsignedInt8888Rev)

	px := gl.MapBuffer(GLPixelPackBuffer, GLReadOnly, 4*2*4)
	if len(px) != 4*2*4 {
		t.Fatalf("mapped %d bytes, want %d", len(px), 4*2*4)
	}
	// BGRA red.
	if px[0] != 0 || px[1] != 0 || px[2] != 255 || px[3] != 255 {
		t.Errorf("readback pixel = %v, want [0 0 255 255]", px[:4])
	}
	gl.UnmapBuffer(GLPixelPackBuffer)
	gl.DeleteBuffers(pbos)
}

func TestSoftwareTextureBlitPresent(t *testing.T) {
	b := NewSoftware()
	d, _ := b.OpenDisplay("")
	cfg := b.ChooseFBConfig(d, 0, nil)[0]

	const win = Drawable(0x900001) // raw X window id
	ctx := b.CreateContext(d, cfg, RGBAType, 0, true)
	gl, ok := b.MakeCurrent(d, win, win, ctx)
	if !ok {
		t.Fatal("MakeCurrent on raw window failed")
	}
	gl.InitQuad()

	texs := gl.GenTextures(2)
	gl.BindTexture(GLTextureRectangle, texs[0])
	gl.TexImage2D(GLTextureRectangle, GLRGBA, 2, 2, GLBGRA, GLUnsignedInt8888Rev)

	src := []byte{
		1, 2, 3, 4, 5, 6, 7, 8,
		9, 10, 11, 12, 13, 14, 15, 16,
	}
	gl.TexSubImage2D(GLTextureRectangle, 2, 2, GLBGRA, GLUnsignedInt8888Rev, src)
	gl.DrawQuad(2, 2)
	b.SwapBuffers(d, win)

	if n := b.Presents(win); n != 1 {
		t.Fatalf("Presents = %d, want 1", n)
	}
	if w, h := b.LastPresentSize(win); w != 2 || h != 2 {
		t.Errorf("present size %dx%d, want 2x2", w, h)
	}
	got := b.LastPresentPixels(win)
	if len(got) != len(src) {
		t.Fatalf("presented %d bytes, want %d", len(got), len(src))
	}
	for i := range src {
		if got[i] != src[i] {
			t.Fatalf("presented[%d] = %d, want %d", i, got[i], src[i])
		}
	}
}

func TestSoftwareShareGroups(t *testing.T) {
	b := NewSoftware()
	d, _ := b.OpenDisplay("")
	cfg := b.ChooseFBConfig(d, 0, nil)[0]
	pb := b.CreatePbuffer(d, cfg, []int{PbufferWidth, 1, PbufferHeight, 1})

	ctx1 := b.CreateContext(d, cfg, RGBAType, 0, true)
	ctx2 := b.CreateContext(d, cfg, RGBAType, ctx1, true)

	gl1, _ := b.MakeCurrent(d, pb, pb, ctx1)
	s := gl1.FenceSync()

	// A sharing context sees the fence; waiting and deleting works.
	gl2, _ := b.MakeCurrent(d, pb, pb, ctx2)
	gl2.WaitSync(s)
	gl2.DeleteSync(s)

	// Buffer names are visible across the share group.
	bufs := gl1.GenBuffers(1)
	gl2.BindBuffer(GLPixelPackBuffer, bufs[0])
	gl2.BufferData(GLPixelPackBuffer, 16, GLStreamRead)
	if sizes := b.PackBufferSizes(); len(sizes) != 1 || sizes[0] != 16 {
		t.Errorf("PackBufferSizes = %v, want [16]", sizes)
	}
}

func TestSoftwareGetProcAddress(t *testing.T) {
	b := NewSoftware()
	if b.GetProcAddress("glDrawElements") == 0 {
		t.Error("GetProcAddress(gl name) = 0")
	}
	if a1, a2 := b.GetProcAddress("glFoo"), b.GetProcAddress("glFoo"); a1 != a2 {
		t.Error("GetProcAddress not stable across calls")
	}
	if b.GetProcAddress("XOpenDisplay") != 0 {
		t.Error("GetProcAddress(non-GL name) != 0")
	}
}

func TestSoftwareQueryDrawable(t *testing.T) {
	b := NewSoftware()
	d, _ := b.OpenDisplay("")
	cfg := b.ChooseFBConfig(d, 0, nil)[0]
	pb := b.CreatePbuffer(d, cfg, []int{PbufferWidth, 7, PbufferHeight, 9, PreservedContents, 1})

	if v, err := b.QueryDrawable(d, pb, Width); err != nil || v != 7 {
		t.Errorf("Width = %d (%v), want 7", v, err)
	}
	if v, err := b.QueryDrawable(d, pb, Height); err != nil || v != 9 {
		t.Errorf("Height = %d (%v), want 9", v, err)
	}
	if v, err := b.QueryDrawable(d, pb, PreservedContents); err != nil || v != 1 {
		t.Errorf("PreservedContents = %d (%v), want 1", v, err)
	}
	if _, err := b.QueryDrawable(d, Drawable(0xdead), Width); err == nil {
		t.Error("unknown drawable did not error")
	}
}
