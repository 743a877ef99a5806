package scraper

import (
	"newsroom/core/port/out"
)

// Registry is a simple name -> Adapter map, grounded on the teacher's
// provider factory switch-dispatch idiom (adapter/out/provider), reduced
// here to registration-by-key since scraper adapters have no runtime
// OAuth-token parameter to switch on.
type Registry struct {
	adapters map[string]out.Adapter
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]out.Adapter)}
}

// Register adds an adapter under its source.ScriptPath locator (§9
// "source.key -> adapter" is resolved via script_path, not key, so that
// distinct Source rows can share one adapter implementation).
func (r *Registry) Register(scriptPath string, adapter out.Adapter) {
	r.adapters[scriptPath] = adapter
}

// Lookup implements out.Registry.
func (r *Registry) Lookup(scriptPath string) (out.Adapter, bool) {
	a, ok := r.adapters[scriptPath]
	return a, ok
}

var _ out.Registry = (*Registry)(nil)
