package backend

// swGL is the GL implementation handed out by Software.MakeCurrent.
// Surfaces are resolved by id on every call, so a handle stays correct
// across re-MakeCurrent of its context. A recreated pbuffer has a new id:
// a handle made for the old one finds no surface and its drawing and
// reading calls do nothing until MakeCurrent is called on the new id.
type swGL struct {
	b    *Software
	ctx  *swContext
	draw Drawable
	read Drawable
}

func (g *swGL) surface(d Drawable) *swSurface {
	g.b.mu.Lock()
	defer g.b.mu.Unlock()
	return g.b.surfaces[d]
}

func (g *swGL) GenBuffers(n int) []uint32 {
	sh := g.ctx.share
	sh.mu.Lock()
	defer sh.mu.Unlock()
	out := make([]uint32, n)
	for i := range out {
		sh.nextName++
		sh.buffers[sh.nextName] = &swBuffer{}
		out[i] = sh.nextName
	}
	return out
}

func (g *swGL) DeleteBuffers(bufs []uint32) {
	sh := g.ctx.share
	sh.mu.Lock()
	defer sh.mu.Unlock()
	for _, b := range bufs {
		delete(sh.buffers, b)
	}
}

func (g *swGL) BindBuffer(target uint32, buf uint32) {
	if target == GLPixelPackBuffer {
		g.ctx.packBuffer = buf
	}
}

func (g *swGL) packBuffer() *swBuffer {
	sh := g.ctx.share
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.buffers[g.ctx.packBuffer]
}

func (g *swGL) BufferData(target uint32, size int, usage uint32) {
	if target != GLPixelPackBuffer {
		return
	}
	if buf := g.packBuffer(); buf != nil {
		sh := g.ctx.share
		sh.mu.Lock()
		buf.data = make([]byte, size)
		buf.usage = usage
		sh.mu.Unlock()
	}
}

func (g *swGL) MapBuffer(target uint32, access uint32, size int) []byte {
	if target != GLPixelPackBuffer {
		return nil
	}
	buf := g.packBuffer()
	if buf == nil {
		return nil
	}
	sh := g.ctx.share
	sh.mu.Lock()
	defer sh.mu.Unlock()
	buf.mapped = true
	if size > len(buf.data) {
		size = len(buf.data)
	}
	return buf.data[:size]
}

func (g *swGL) UnmapBuffer(target uint32) {
	if target != GLPixelPackBuffer {
		return
	}
	if buf := g.packBuffer(); buf != nil {
		sh := g.ctx.share
		sh.mu.Lock()
		buf.mapped = false
		sh.mu.Unlock()
	}
}

func (g *swGL) ReadBuffer(src uint32) {}

// ReadPixels copies from the read surface's back buffer into the bound
// pack buffer. The real thing is asynchronous; here the copy completes
// immediately, which satisfies the same observable contract (the data is
// there once the buffer is mapped).
func (g *swGL) ReadPixels(x, y, width, height int, format, xtype uint32) {
	src := g.surface(g.read)
	if src == nil {
		src = g.surface(g.draw)
	}
	buf := g.packBuffer()
	if src == nil || buf == nil {
		return
	}
	// Lock order: server before share group, everywhere.
	n := width * height * 4
	g.b.mu.Lock()
	sh := g.ctx.share
	sh.mu.Lock()
	if n > len(src.back) {
		n = len(src.back)
	}
	if n > len(buf.data) {
		n = len(buf.data)
	}
	copy(buf.data[:n], src.back[:n])
	sh.mu.Unlock()
	g.b.mu.Unlock()
}

func (g *swGL) GenTextures(n int) []uint32 {
	sh := g.ctx.share
	sh.mu.Lock()
	defer sh.mu.Unlock()
	out := make([]uint32, n)
	for i := range out {
		sh.nextName++
		sh.textures[sh.nextName] = &swTexture{}
		out[i] = sh.nextName
	}
	return out
}

func (g *swGL) DeleteTextures(texs []uint32) {
	sh := g.ctx.share
	sh.mu.Lock()
	defer sh.mu.Unlock()
	for _, t := range texs {
		delete(sh.textures, t)
	}
}

func (g *swGL) BindTexture(target uint32, tex uint32) {
	g.ctx.boundTexture = tex
}

func (g *swGL) boundTex() *swTexture {
	sh := g.ctx.share
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.textures[g.ctx.boundTexture]
}

func (g *swGL) TexImage2D(target uint32, internalFormat int32, width, height int, format, xtype uint32) {
	if tex := g.boundTex(); tex != nil {
		sh := g.ctx.share
		sh.mu.Lock()
		tex.data = make([]byte, width*height*4)
		tex.w = width
		tex.h = height
		sh.mu.Unlock()
	}
}

func (g *swGL) TexSubImage2D(target uint32, width, height int, format, xtype uint32, pixels []byte) {
	tex := g.boundTex()
	if tex == nil {
		return
	}
	sh := g.ctx.share
	sh.mu.Lock()
	n := width * height * 4
	if n > len(tex.data) {
		n = len(tex.data)
	}
	if n > len(pixels) {
		n = len(pixels)
	}
	copy(tex.data[:n], pixels[:n])
	sh.mu.Unlock()
}

func (g *swGL) Viewport(x, y, width, height int) {
	g.ctx.viewport = [4]int{x, y, width, height}
}

func (g *swGL) ClearColor(r, gr, b, a float32) {
	g.ctx.clearColor = [4]float32{r, gr, b, a}
}

func byteOf(f float32) byte {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return byte(f*255 + 0.5)
}

// Clear fills the draw surface's back buffer with the clear color,
// stored BGRA as everything else here.
func (g *swGL) Clear(mask uint32) {
	if mask&GLColorBufferBit == 0 {
		return
	}
	s := g.surface(g.draw)
	if s == nil {
		return
	}
	c := g.ctx.clearColor
	px := [4]byte{byteOf(c[2]), byteOf(c[1]), byteOf(c[0]), byteOf(c[3])}
	g.b.mu.Lock()
	for i := 0; i+3 < len(s.back); i += 4 {
		copy(s.back[i:i+4], px[:])
	}
	g.b.mu.Unlock()
}

func (g *swGL) FenceSync() Sync {
	g.b.mu.Lock()
	s := Sync(g.b.ptr())
	g.b.mu.Unlock()
	sh := g.ctx.share
	sh.mu.Lock()
	sh.syncs[s] = true
	sh.mu.Unlock()
	return s
}

// WaitSync is immediate: software commands complete synchronously.
func (g *swGL) WaitSync(s Sync) {}

func (g *swGL) DeleteSync(s Sync) {
	sh := g.ctx.share
	sh.mu.Lock()
	delete(sh.syncs, s)
	sh.mu.Unlock()
}

func (g *swGL) InitQuad() {
	g.ctx.quadReady = true
}

// DrawQuad blits the bound texture into the draw surface's back buffer.
func (g *swGL) DrawQuad(texWidth, texHeight float32) {
	if !g.ctx.quadReady {
		return
	}
	tex := g.boundTex()
	s := g.surface(g.draw)
	if tex == nil || s == nil {
		return
	}
	sh := g.ctx.share
	sh.mu.Lock()
	data := append([]byte(nil), tex.data...)
	w, h := tex.w, tex.h
	sh.mu.Unlock()
	g.b.mu.Lock()
	s.back = data
	s.backW = w
	s.backH = h
	g.b.mu.Unlock()
}
