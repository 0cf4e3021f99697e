package primus

import "strings"

// glxProc pairs a GLX entry point name with its reimplementation.
type glxProc struct {
	name string
	fn   any
}

// procTable lists every GLX entry point this library provides, in the
// shape GetProcAddress hands back: the bound method value.
func (p *Primus) procTable() []glxProc {
	return []glxProc{
		{"glXChooseVisual", p.ChooseVisual},
		{"glXGetConfig", p.GetConfig},
		{"glXCreateContext", p.CreateContext},
		{"glXCreateNewContext", p.CreateNewContext},
		{"glXDestroyContext", p.DestroyContext},
		{"glXMakeCurrent", p.MakeCurrent},
		{"glXMakeContextCurrent", p.MakeContextCurrent},
		{"glXSwapBuffers", p.SwapBuffers},
		{"glXCreateWindow", p.CreateWindow},
		{"glXDestroyWindow", p.DestroyWindow},
		{"glXCreatePbuffer", p.CreatePbuffer},
		{"glXDestroyPbuffer", p.DestroyPbuffer},
		{"glXCreatePixmap", p.CreatePixmap},
		{"glXDestroyPixmap", p.DestroyPixmap},
		{"glXCreateGLXPixmap", p.CreateGLXPixmap},
		{"glXDestroyGLXPixmap", p.DestroyGLXPixmap},
		{"glXChooseFBConfig", p.ChooseFBConfig},
		{"glXGetFBConfigAttrib", p.GetFBConfigAttrib},
		{"glXGetVisualFromFBConfig", p.GetVisualFromFBConfig},
		{"glXQueryDrawable", p.QueryDrawable},
		{"glXIsDirect", p.IsDirect},
		{"glXUseXFont", p.UseXFont},
		{"glXGetCurrentContext", p.GetCurrentContext},
		{"glXGetCurrentDrawable", p.GetCurrentDrawable},
		{"glXGetCurrentReadDrawable", p.GetCurrentReadDrawable},
		{"glXGetCurrentDisplay", p.GetCurrentDisplay},
		{"glXWaitGL", p.WaitGL},
		{"glXWaitX", p.WaitX},
		{"glXGetClientString", p.GetClientString},
		{"glXQueryExtensionsString", p.QueryExtensionsString},
		{"glXSwapIntervalSGI", p.SwapIntervalSGI},
		{"glXGetProcAddress", p.GetProcAddress},
		{"glXGetProcAddressARB", p.GetProcAddressARB},
	}
}

// GetProcAddress resolves an entry point by name. Non-GLX names are
// forwarded to the accelerator library (a uintptr symbol address); GLX
// names are either reimplemented here, returned as the bound method
// value, or not available at all (nil).
func (p *Primus) GetProcAddress(name string) any {
	if !strings.HasPrefix(name, "glX") {
		return p.abe.GetProcAddress(name)
	}
	for _, e := range p.procTable() {
		if e.name == name {
			return e.fn
		}
	}
	return nil
}

// GetProcAddressARB is the ARB alias of GetProcAddress.
func (p *Primus) GetProcAddressARB(name string) any {
	return p.GetProcAddress(name)
}
