package backend

import (
	"sync"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the in-memory reference backend.
	BackendSoftware = "software"
	// BackendLibGL is the name of the dynamically loaded vendor-library
	// backend (package backend/libgl, linux only).
	BackendLibGL = "libgl"
)

// OpenConfig carries the parameters a backend may need at open time.
type OpenConfig struct {
	// LibPath is a colon-separated list of absolute library paths; the
	// first loadable one wins. Ignored by backends that load nothing.
	LibPath string

	// LoadGlobal is the path of a library to load with global symbol
	// visibility before the GL library itself. Mesa's dispatch table
	// lives in such a library.
	LoadGlobal string
}

// Factory opens a backend instance.
type Factory func(cfg OpenConfig) (Backend, error)

// registry holds registered backend factories.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first registered wins).
	// The vendor-library backend is the real thing; software is the
	// reference implementation and test vehicle.
	backendPriority = []string{BackendLibGL, BackendSoftware}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns a list of registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Open opens a backend instance by name.
// Returns ErrBackendNotAvailable if the backend is not registered.
func Open(name string, cfg OpenConfig) (Backend, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, ErrBackendNotAvailable
	}
	return factory(cfg)
}

// OpenDefault opens the best available backend based on priority.
// Returns ErrBackendNotAvailable if no backend is registered.
func OpenDefault(cfg OpenConfig) (Backend, error) {
	registryMu.RLock()
	var factory Factory
	for _, name := range backendPriority {
		if f, ok := backends[name]; ok {
			factory = f
			break
		}
	}
	if factory == nil {
		for _, f := range backends {
			factory = f
			break
		}
	}
	registryMu.RUnlock()

	if factory == nil {
		return nil, ErrBackendNotAvailable
	}
	return factory(cfg)
}
