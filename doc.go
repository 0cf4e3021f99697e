// Package primus makes OpenGL applications render on a secondary GPU
// while presenting their output on a window of the primary display.
//
// # Overview
//
// Two GL implementations are loaded side by side: the accelerator one,
// connected to the secondary X display, owns every application context
// and renders into off-screen pbuffers; the display one, connected to
// the primary X display, only uploads finished frames and blits them
// into the visible window. Per visible drawable, two workers cooperate
// with the application thread:
//
//   - the readback worker pulls rendered pixels off the accelerator
//     asynchronously through a pair of pixel-pack buffers;
//   - the display worker uploads the mapped pixels into one of two
//     textures and draws a textured quad into the visible window.
//
// The three are coupled by counting semaphores in a strictly
// turn-taking protocol, with three selectable latency/throughput modes
// (PRIMUS_SYNC).
//
// # Quick Start
//
//	p, err := primus.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close()
//
//	ctx := p.CreateNewContext(cfg, backend.RGBAType, 0, true)
//	runtime.LockOSThread()
//	gl, _ := p.MakeCurrent(drawable, ctx)
//	for rendering {
//		// ... issue GL through gl / GetProcAddress ...
//		p.SwapBuffers(drawable)
//	}
//	p.DestroyContext(ctx)
//
// # Configuration
//
// With no options, New configures itself from the environment the same
// way the preloaded C library does: PRIMUS_SYNC, PRIMUS_VERBOSE,
// PRIMUS_DISPLAY, PRIMUS_libGLa, PRIMUS_libGLd, PRIMUS_LOAD_GLOBAL and
// BUMBLEBEE_SOCKET. The auxiliary daemon is contacted once, before
// anything else, to bring up the secondary display.
//
// # Threading
//
// GL current-ness is per OS thread. Goroutines that call MakeCurrent or
// SwapBuffers must be locked to their thread with runtime.LockOSThread.
// A drawable current in more than one application thread at once is
// undefined behavior, as it is in the original.
//
// This package is Linux-only, like GLX offloading itself.
package primus
