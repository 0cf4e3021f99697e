package primus

import "github.com/ralfjung-e/primus/backend"

// fbMatchAttribs is the attribute vector copied from a primary-display
// visual to select the accelerator fbconfig backing it.
var fbMatchAttribs = []int{
	backend.DoubleBuffer, backend.Stereo, backend.AuxBuffers,
	backend.RedSize, backend.GreenSize, backend.BlueSize, backend.AlphaSize,
	backend.DepthSize, backend.StencilSize,
	backend.AccumRedSize, backend.AccumGreenSize, backend.AccumBlueSize, backend.AccumAlphaSize,
	backend.SampleBuffers, backend.Samples,
}

// matchFBConfig finds accelerator fbconfigs equivalent to a
// primary-display visual.
func (p *Primus) matchFBConfig(vis *backend.VisualInfo) []backend.FBConfig {
	attrs := make([]int, 0, 2*len(fbMatchAttribs))
	for _, a := range fbMatchAttribs {
		v, err := p.dbe.GetConfig(p.ddpy, vis, a)
		if err != nil {
			v = 0
		}
		attrs = append(attrs, a, v)
	}
	return p.abe.ChooseFBConfig(p.adpy, 0, attrs)
}

// matchVisual finds a primary-display visual whose attributes equal the
// request exactly; near-misses accepted by ChooseVisual are rejected.
func (p *Primus) matchVisual(attrs []int) *backend.VisualInfo {
	vis := p.dbe.ChooseVisual(p.ddpy, 0, attrs)
	for i := 2; i+1 < len(attrs) && vis != nil; i += 2 {
		if attrs[i] == backend.None {
			break
		}
		v, err := p.dbe.GetConfig(p.ddpy, vis, attrs[i])
		if err != nil || v != attrs[i+1] {
			vis = nil
		}
	}
	return vis
}

// GetVisualFromFBConfig maps an accelerator fbconfig to a
// primary-display visual. When no exact equivalent exists the attribute
// list is retried with attributes stripped from the tail, stopping at
// the first success.
func (p *Primus) GetVisualFromFBConfig(config backend.FBConfig) *backend.VisualInfo {
	if p.abe.GetVisualFromFBConfig(p.adpy, config) == nil {
		return nil
	}
	attrs := []int{
		backend.RGBA, backend.DoubleBuffer,
		backend.RedSize, 0, backend.GreenSize, 0, backend.BlueSize, 0,
		backend.AlphaSize, 0, backend.DepthSize, 0, backend.StencilSize, 0,
		backend.SampleBuffers, 0, backend.Samples, 0,
	}
	for i := 2; i+1 < len(attrs); i += 2 {
		if v, err := p.abe.GetFBConfigAttrib(p.adpy, config, attrs[i]); err == nil {
			attrs[i+1] = v
		}
	}
	var vis *backend.VisualInfo
	for i := len(attrs) - 2; i >= 0 && vis == nil; i -= 2 {
		vis = p.matchVisual(attrs)
		attrs[i] = backend.None
	}
	return vis
}

// GetFBConfigAttrib queries an accelerator fbconfig attribute. The
// visual id is the one attribute whose accelerator value would be
// meaningless to the application, so it is cross-translated to the
// primary display's.
func (p *Primus) GetFBConfigAttrib(config backend.FBConfig, attrib int) (int, error) {
	v, err := p.abe.GetFBConfigAttrib(p.adpy, config, attrib)
	if attrib == backend.VisualID && v != 0 {
		vis := p.GetVisualFromFBConfig(config)
		if vis == nil {
			return 0, backend.ErrBadAttribute
		}
		return p.dbe.GetConfig(p.ddpy, vis, attrib)
	}
	return v, err
}
