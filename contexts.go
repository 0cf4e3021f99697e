package primus

import "github.com/ralfjung-e/primus/backend"

// contextInfo is the registry record of an application-visible context.
// The share group is a dense integer: contexts created with a share list
// inherit the group of the shared context, everything else gets a fresh
// one. Share groups decide whether a readback worker's context can wait
// on fences inserted by the application's context.
type contextInfo struct {
	fbconfig   backend.FBConfig
	sharegroup int
}

// recordContext registers a freshly created context.
func (p *Primus) recordContext(ctx backend.Context, config backend.FBConfig, share backend.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	group := p.nsharegroups
	if sc, ok := p.contexts[share]; share != 0 && ok {
		group = sc.sharegroup
	} else {
		p.nsharegroups++
	}
	p.contexts[ctx] = &contextInfo{fbconfig: config, sharegroup: group}
}

// contextRecord returns the registry record for ctx, or nil.
func (p *Primus) contextRecord(ctx backend.Context) *contextInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.contexts[ctx]
}

// sharegroupOf returns the context's share group, or -1 if unknown.
func (p *Primus) sharegroupOf(ctx backend.Context) int {
	if ci := p.contextRecord(ctx); ci != nil {
		return ci.sharegroup
	}
	return -1
}
