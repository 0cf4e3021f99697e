// Package backend abstracts one loaded GL implementation together with
// its GLX surface.
//
// The offload pipeline needs two GL implementations side by side: the
// accelerator one, where the application's rendering actually runs, and
// the display one, which uploads and blits finished frames into the
// visible window. Both are instances of the Backend interface.
//
// # Backend Registration
//
// Backends are registered via init() functions and opened at runtime.
// The software backend is automatically registered on import:
//
//	import "github.com/ralfjung-e/primus/backend"
//
// The vendor-library backend registers itself when its package is
// imported (linux only):
//
//	import _ "github.com/ralfjung-e/primus/backend/libgl"
//
// # Backend Selection
//
// Use OpenDefault to get the best available backend, or Open to request
// a specific one by name:
//
//	b, err := backend.Open("libgl", backend.OpenConfig{
//		LibPath: "/usr/lib/nvidia/libGL.so.1",
//	})
//
// # The software backend
//
// Software models a whole X server in memory: windows and pbuffers are
// BGRA pixel stores, buffer objects are byte slices, fences are
// immediate. It exists so the pipeline can be driven end to end in
// tests, with presentation counts and frame contents observable through
// its accessor methods.
package backend
