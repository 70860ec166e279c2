package behavior

import (
	"fmt"
	"sort"
	"sync"
)

// Factory mints a fresh, unconfigured action.
type Factory func() Action

// Registry maps description type names to action and decorator factories.
// It is filled by the host before any tree is parsed.
type Registry struct {
	mu         sync.RWMutex
	actions    map[string]Factory
	decorators map[string]Factory
}

// NewRegistry returns a registry that already knows the success, failure and
// running terminals.
func NewRegistry() *Registry {
	r := &Registry{
		actions:    make(map[string]Factory),
		decorators: make(map[string]Factory),
	}
	r.RegisterAction(NameSuccess, constant(NameSuccess, StateSuccess))
	r.RegisterAction(NameFailure, constant(NameFailure, StateFailure))
	r.RegisterAction(NameRunning, constant(NameRunning, StateRunning))
	return r
}

// RegisterAction makes name available as a leaf type. It panics if name is
// empty or reserved.
func (r *Registry) RegisterAction(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	checkName(name)
	delete(r.decorators, name)
	r.actions[name] = f
}

// RegisterDecorator makes name available as a decorator type. It panics if
// name is empty or reserved.
func (r *Registry) RegisterDecorator(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	checkName(name)
	delete(r.actions, name)
	r.decorators[name] = f
}

func checkName(name string) {
	switch name {
	case "", childKey, NameSequence, NameSelector, NameParallel, NameDynamic:
		panic(fmt.Sprintf("behavior: invalid registration name %q", name))
	}
}

func (r *Registry) action(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.actions[name]
	return f, ok
}

func (r *Registry) decorator(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.decorators[name]
	return f, ok
}

// Names returns the registered action and decorator names, sorted.
func (r *Registry) Names() (actions, decorators []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for k := range r.actions {
		actions = append(actions, k)
	}
	for k := range r.decorators {
		decorators = append(decorators, k)
	}
	sort.Strings(actions)
	sort.Strings(decorators)
	return actions, decorators
}
