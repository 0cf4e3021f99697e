//go:build linux

package libgl

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/ralfjung-e/primus/backend"
)

// glFns holds the GL entry points the pipeline needs. Per the OpenGL
// ABI everything past 1.2 must come through glXGetProcAddress, and the
// rest may as well, so all of them do.
type glFns struct {
	genBuffers        func(n int32, bufs *uint32)
	deleteBuffers     func(n int32, bufs *uint32)
	bindBuffer        func(target, buf uint32)
	bufferData        func(target uint32, size uintptr, data uintptr, usage uint32)
	mapBuffer         func(target, access uint32) uintptr
	unmapBuffer       func(target uint32) uint8
	readBuffer        func(src uint32)
	readPixels        func(x, y, w, h int32, format, xtype uint32, data uintptr)
	genTextures       func(n int32, texs *uint32)
	deleteTextures    func(n int32, texs *uint32)
	bindTexture       func(target, tex uint32)
	texImage2D        func(target uint32, level, internal, w, h, border int32, format, xtype uint32, data uintptr)
	texSubImage2D     func(target uint32, level, x, y, w, h int32, format, xtype uint32, data unsafe.Pointer)
	viewport          func(x, y, w, h int32)
	clearColor        func(r, g, b, a float32)
	clear             func(mask uint32)
	fenceSync         func(condition, flags uint32) uintptr
	waitSync          func(s uintptr, flags uint32, timeout uint64)
	deleteSync        func(s uintptr)
	vertexPointer     func(size int32, xtype uint32, stride int32, ptr unsafe.Pointer)
	texCoordPointer   func(size int32, xtype uint32, stride int32, ptr unsafe.Pointer)
	enableClientState func(array uint32)
	enable            func(cap uint32)
	drawArrays        func(mode uint32, first, count int32)
}

// resolve looks every entry point up through the library's
// glXGetProcAddress.
func (g *glFns) resolve(getProc func(string) uintptr) error {
	reg := func(fptr any, name string) error {
		addr := getProc(name)
		if addr == 0 {
			return fmt.Errorf("libgl: missing GL entry point %s", name)
		}
		purego.RegisterFunc(fptr, addr)
		return nil
	}
	for _, e := range []struct {
		fptr any
		name string
	}{
		{&g.genBuffers, "glGenBuffers"},
		{&g.deleteBuffers, "glDeleteBuffers"},
		{&g.bindBuffer, "glBindBuffer"},
		{&g.bufferData, "glBufferData"},
		{&g.mapBuffer, "glMapBuffer"},
		{&g.unmapBuffer, "glUnmapBuffer"},
		{&g.readBuffer, "glReadBuffer"},
		{&g.readPixels, "glReadPixels"},
		{&g.genTextures, "glGenTextures"},
		{&g.deleteTextures, "glDeleteTextures"},
		{&g.bindTexture, "glBindTexture"},
		{&g.texImage2D, "glTexImage2D"},
		{&g.texSubImage2D, "glTexSubImage2D"},
		{&g.viewport, "glViewport"},
		{&g.clearColor, "glClearColor"},
		{&g.clear, "glClear"},
		{&g.fenceSync, "glFenceSync"},
		{&g.waitSync, "glWaitSync"},
		{&g.deleteSync, "glDeleteSync"},
		{&g.vertexPointer, "glVertexPointer"},
		{&g.texCoordPointer, "glTexCoordPointer"},
		{&g.enableClientState, "glEnableClientState"},
		{&g.enable, "glEnable"},
		{&g.drawArrays, "glDrawArrays"},
	} {
		if err := reg(e.fptr, e.name); err != nil {
			return err
		}
	}
	return nil
}

// glCtx is the backend.GL of the vendor library. It carries no state of
// its own: GL state lives in whatever context is current on the calling
// thread, which is exactly the contract backend.GL documents.
type glCtx struct {
	b *LibGL
}

func (g *glCtx) GenBuffers(n int) []uint32 {
	out := make([]uint32, n)
	g.b.gl.genBuffers(int32(n), &out[0])
	return out
}

func (g *glCtx) DeleteBuffers(bufs []uint32) {
	if len(bufs) == 0 {
		return
	}
	g.b.gl.deleteBuffers(int32(len(bufs)), &bufs[0])
}

func (g *glCtx) BindBuffer(target uint32, buf uint32) {
	g.b.gl.bindBuffer(target, buf)
}

func (g *glCtx) BufferData(target uint32, size int, usage uint32) {
	g.b.gl.bufferData(target, uintptr(size), 0, usage)
}

func (g *glCtx) MapBuffer(target uint32, access uint32, size int) []byte {
	p := g.b.gl.mapBuffer(target, access)
	if p == 0 || size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), size)
}

func (g *glCtx) UnmapBuffer(target uint32) {
	g.b.gl.unmapBuffer(target)
}

func (g *glCtx) ReadBuffer(src uint32) {
	g.b.gl.readBuffer(src)
}

func (g *glCtx) ReadPixels(x, y, width, height int, format, xtype uint32) {
	// Destination 0 is an offset into the bound pack buffer.
	g.b.gl.readPixels(int32(x), int32(y), int32(width), int32(height), format, xtype, 0)
}

func (g *glCtx) GenTextures(n int) []uint32 {
	out := make([]uint32, n)
	g.b.gl.genTextures(int32(n), &out[0])
	return out
}

func (g *glCtx) DeleteTextures(texs []uint32) {
	if len(texs) == 0 {
		return
	}
	g.b.gl.deleteTextures(int32(len(texs)), &texs[0])
}

func (g *glCtx) BindTexture(target uint32, tex uint32) {
	g.b.gl.bindTexture(target, tex)
}

func (g *glCtx) TexImage2D(target uint32, internalFormat int32, width, height int, format, xtype uint32) {
	g.b.gl.texImage2D(target, 0, internalFormat, int32(width), int32(height), 0, format, xtype, 0)
}

func (g *glCtx) TexSubImage2D(target uint32, width, height int, format, xtype uint32, pixels []byte) {
	if len(pixels) == 0 {
		return
	}
	g.b.gl.texSubImage2D(target, 0, 0, 0, int32(width), int32(height), format, xtype, unsafe.Pointer(&pixels[0]))
	runtime.KeepAlive(pixels)
}

func (g *glCtx) Viewport(x, y, width, height int) {
	g.b.gl.viewport(int32(x), int32(y), int32(width), int32(height))
}

func (g *glCtx) ClearColor(r, gr, b, a float32) {
	g.b.gl.clearColor(r, gr, b, a)
}

func (g *glCtx) Clear(mask uint32) {
	g.b.gl.clear(mask)
}

func (g *glCtx) FenceSync() backend.Sync {
	return backend.Sync(g.b.gl.fenceSync(backend.GLSyncGPUCommandsComplete, 0))
}

func (g *glCtx) WaitSync(s backend.Sync) {
	g.b.gl.waitSync(uintptr(s), 0, backend.GLTimeoutIgnored)
}

func (g *glCtx) DeleteSync(s backend.Sync) {
	g.b.gl.deleteSync(uintptr(s))
}

func (g *glCtx) InitQuad() {
	g.b.gl.enableClientState(backend.GLVertexArray)
	g.b.gl.enableClientState(backend.GLTextureCoordArray)
	g.b.gl.enable(backend.GLTextureRectangle)
}

// DrawQuad draws the screen-filling quad. The client array pointers are
// re-specified on every draw so the arrays only have to live for the
// duration of this call.
func (g *glCtx) DrawQuad(texWidth, texHeight float32) {
	verts := [8]float32{-1, -1, -1, 1, 1, 1, 1, -1}
	texc := [8]float32{0, 0, 0, texHeight, texWidth, texHeight, texWidth, 0}
	g.b.gl.vertexPointer(2, backend.GLFloat, 0, unsafe.Pointer(&verts[0]))
	g.b.gl.texCoordPointer(2, backend.GLFloat, 0, unsafe.Pointer(&texc[0]))
	g.b.gl.drawArrays(backend.GLQuads, 0, 4)
	runtime.KeepAlive(&verts)
	runtime.KeepAlive(&texc)
}
