// Package registry implements the name-keyed module factory: a
// registration table populated at module-file load time (Go init()) and
// an Instantiate entry point that dispatches to the registered builder.
package registry

import (
	"fmt"
	"sync"

	"github.com/jmylchreest/signalgraph/internal/dataflow/dferrors"
	"github.com/jmylchreest/signalgraph/internal/dataflow/module"
)

// Config is an opaque, module-specific configuration value passed through
// to a Constructor unexamined by the registry.
type Config any

// Constructor builds a Module instance given a Host and a Config.
type Constructor func(host module.Host, cfg Config) (module.Module, error)

// Factory is a name -> Constructor registry. The zero value is usable.
// NewFactory returns an empty one; the package-level Default is the one
// module packages populate with Register calls from their init() functions.
type Factory struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewFactory creates an empty Factory.
func NewFactory() *Factory {
	return &Factory{ctors: make(map[string]Constructor)}
}

// Register adds a named Constructor. It fails with
// dferrors.DuplicateRegistration if name is already registered.
func (f *Factory) Register(name string, ctor Constructor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ctors == nil {
		f.ctors = make(map[string]Constructor)
	}
	if _, exists := f.ctors[name]; exists {
		return fmt.Errorf("%w: %s", dferrors.DuplicateRegistration, name)
	}
	f.ctors[name] = ctor
	return nil
}

// MustRegister is Register for use in package-level init() calls, where a
// duplicate registration is a programming error that should panic rather
// than propagate.
func (f *Factory) MustRegister(name string, ctor Constructor) {
	if err := f.Register(name, ctor); err != nil {
		panic(err)
	}
}

// Instantiate dispatches to the registered builder for name. It fails with
// dferrors.UnknownModule if no builder was registered.
func (f *Factory) Instantiate(name string, host module.Host, cfg Config) (module.Module, error) {
	f.mu.RLock()
	ctor, ok := f.ctors[name]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", dferrors.UnknownModule, name)
	}
	return ctor(host, cfg)
}

// Names returns the currently registered module names.
func (f *Factory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.ctors))
	for n := range f.ctors {
		names = append(names, n)
	}
	return names
}

// Default is the process-wide Factory module packages register
// themselves into from their init() functions.
var Default = NewFactory()
