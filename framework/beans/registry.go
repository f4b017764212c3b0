package beans

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ── SingletonRegistry ────────────────────────────────────────────────────────

// SingletonRegistry is the three-tier singleton cache.
//
// Per name it holds an entry in at most one of three tiers:
//
//	factories  — a zero-arg factory able to expose an early reference
//	early      — the early reference actually handed out, cached exactly once
//	singletons — the fully built object, the single source of truth
//
// plus the set of names currently in creation. Every tier transition happens
// under one registry-wide mutex, making the promotion protocol atomic with
// respect to other construction goroutines. The creation callback itself runs
// outside the lock, since it recursively triggers construction of other names.
//
// Spring: DefaultSingletonBeanRegistry.
type SingletonRegistry struct {
	mu   sync.Mutex
	cond *sync.Cond

	singletons map[string]any
	early      map[string]any
	factories  map[string]func() any

	// name → id of the goroutine currently building it
	inCreation map[string]int64

	// names built only provisionally, e.g. forced during type inspection
	provisional map[string]bool

	// dependency edges, kept in both directions
	dependents   map[string]map[string]bool // name → names depending on it
	dependencies map[string]map[string]bool // name → names it depends on

	disposables map[string]func() error
	order       []string // built-tier registration order, drives teardown
}

// NewSingletonRegistry creates an empty registry.
func NewSingletonRegistry() *SingletonRegistry {
	r := &SingletonRegistry{
		singletons:   make(map[string]any),
		early:        make(map[string]any),
		factories:    make(map[string]func() any),
		inCreation:   make(map[string]int64),
		provisional:  make(map[string]bool),
		dependents:   make(map[string]map[string]bool),
		dependencies: make(map[string]map[string]bool),
		disposables:  make(map[string]func() error),
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// ── Lookup ───────────────────────────────────────────────────────────────────

// Singleton returns the cached object for name, consulting the built tier
// first and, only for names currently in creation, the early tiers. The first
// lookup that reaches the factory tier invokes the factory exactly once,
// caches its result as the early reference and discards the factory; every
// later consumer observes that same reference. With allowEarly false the
// factory is left untouched and only an already exposed early reference is
// returned.
//
// Spring: DefaultSingletonBeanRegistry#getSingleton(String, boolean).
func (r *SingletonRegistry) Singleton(name string, allowEarly bool) any {
	r.mu.Lock()
	defer r.mu.Unlock()

	if obj, ok := r.singletons[name]; ok {
		// A real consumer reached the finished object; it is no longer a
		// provisional, type-check-only creation.
		delete(r.provisional, name)
		return obj
	}
	if _, creating := r.inCreation[name]; !creating {
		return nil
	}
	if obj, ok := r.early[name]; ok {
		return obj
	}
	if !allowEarly {
		return nil
	}
	if fn, ok := r.factories[name]; ok {
		obj := fn()
		r.early[name] = obj
		delete(r.factories, name)
		return obj
	}
	return nil
}

// Early returns the early reference for name only if one was actually handed
// out to some consumer — the reconciliation lookup of the creation sequence.
func (r *SingletonRegistry) Early(name string) any {
	return r.Singleton(name, false)
}

// Contains reports whether name is in the fully-built tier.
func (r *SingletonRegistry) Contains(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.singletons[name]
	return ok
}

// IsInCreation reports whether name is currently being constructed.
func (r *SingletonRegistry) IsInCreation(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inCreation[name]
	return ok
}

// Built returns a snapshot of the fully-built tier. Unlike Singleton it does
// not count as real consumption, so provisional markers stay intact.
func (r *SingletonRegistry) Built() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]any, len(r.singletons))
	for k, v := range r.singletons {
		out[k] = v
	}
	return out
}

// Names returns the built singleton names in registration order.
func (r *SingletonRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// ── Creation ─────────────────────────────────────────────────────────────────

// GetOrCreate returns the singleton for name, invoking build on a miss and
// promoting the result to the built tier. Name is marked in-creation for the
// duration of build, which runs outside the registry lock. Concurrent callers
// for the same name block until the builder finishes; a re-entrant call from
// the goroutine that is already building name is a circular creation. On
// failure every factory and early-reference entry for name is evicted so a
// later call can attempt construction again from scratch.
//
// Spring: DefaultSingletonBeanRegistry#getSingleton(String, ObjectFactory).
func (r *SingletonRegistry) GetOrCreate(name string, build func() (any, error)) (any, error) {
	id := goid()

	r.mu.Lock()
	for {
		if obj, ok := r.singletons[name]; ok {
			delete(r.provisional, name)
			r.mu.Unlock()
			return obj, nil
		}
		owner, creating := r.inCreation[name]
		if !creating {
			break
		}
		if owner == id {
			r.mu.Unlock()
			return nil, &CircularCreationError{Name: name}
		}
		r.cond.Wait()
	}
	r.inCreation[name] = id
	r.mu.Unlock()

	obj, err := build()

	r.mu.Lock()
	delete(r.inCreation, name)
	delete(r.factories, name)
	delete(r.early, name)
	if err == nil {
		r.addLocked(name, obj)
	}
	r.cond.Broadcast()
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Add registers an externally supplied, fully built object — a promotion from
// any tier straight to built. A built entry is never silently replaced.
func (r *SingletonRegistry) Add(name string, obj any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.singletons[name]; ok {
		return fmt.Errorf("beans: singleton %q is already registered", name)
	}
	r.addLocked(name, obj)
	return nil
}

// addLocked must run while holding mu.
func (r *SingletonRegistry) addLocked(name string, obj any) {
	if _, ok := r.singletons[name]; !ok {
		r.order = append(r.order, name)
	}
	r.singletons[name] = obj
	delete(r.factories, name)
	delete(r.early, name)
}

// AddFactory registers the early-reference factory for a name in creation:
// the absent → factory-only transition of the promotion protocol.
func (r *SingletonRegistry) AddFactory(name string, fn func() any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.singletons[name]; ok {
		return
	}
	r.factories[name] = fn
}

// Remove evicts every tier entry for name. Used on construction failure and
// by explicit eviction; a later lookup starts from scratch.
func (r *SingletonRegistry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(name)
}

// removeLocked must run while holding mu.
func (r *SingletonRegistry) removeLocked(name string) {
	if _, ok := r.singletons[name]; ok {
		for i, n := range r.order {
			if n == name {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	delete(r.singletons, name)
	delete(r.early, name)
	delete(r.factories, name)
	delete(r.provisional, name)
	delete(r.disposables, name)
}

// ── Provisional creations ────────────────────────────────────────────────────

// MarkProvisional flags name as created only provisionally — forced into
// existence to inspect its type rather than requested by a real consumer.
func (r *SingletonRegistry) MarkProvisional(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.singletons[name]; ok {
		r.provisional[name] = true
	}
}

// ClearProvisional evicts name if it was only provisionally created and
// reports whether it did. The consistency check uses this to filter recorded
// dependents down to the ones that really hold a reference.
func (r *SingletonRegistry) ClearProvisional(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.provisional[name] {
		return false
	}
	r.removeLocked(name)
	return true
}

// ── Dependency edges ─────────────────────────────────────────────────────────

// RegisterDependent records that dependent's construction required the object
// registered under name.
func (r *SingletonRegistry) RegisterDependent(name, dependent string) {
	if name == dependent || dependent == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dependents[name] == nil {
		r.dependents[name] = make(map[string]bool)
	}
	r.dependents[name][dependent] = true
	if r.dependencies[dependent] == nil {
		r.dependencies[dependent] = make(map[string]bool)
	}
	r.dependencies[dependent][name] = true
}

// IsDependent reports whether dependent is recorded, directly or
// transitively, as depending on name. The DependsOn loop consults this before
// recursing, so a cyclic depends-on relationship fails instead of recursing
// forever.
func (r *SingletonRegistry) IsDependent(name, dependent string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isDependentLocked(name, dependent, make(map[string]bool))
}

// isDependentLocked must run while holding mu.
func (r *SingletonRegistry) isDependentLocked(name, dependent string, seen map[string]bool) bool {
	if seen[name] {
		return false
	}
	seen[name] = true
	deps := r.dependents[name]
	if deps[dependent] {
		return true
	}
	for d := range deps {
		if r.isDependentLocked(d, dependent, seen) {
			return true
		}
	}
	return false
}

// DependentsOf returns, sorted, the names recorded as depending on name.
func (r *SingletonRegistry) DependentsOf(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedKeys(r.dependents[name])
}

// DependenciesOf returns, sorted, the names that name's construction required.
func (r *SingletonRegistry) DependenciesOf(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedKeys(r.dependencies[name])
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ── Teardown ─────────────────────────────────────────────────────────────────

// RegisterDisposable registers a teardown callback for name, run during
// DestroySingletons. A later registration for the same name replaces the
// earlier one.
func (r *SingletonRegistry) RegisterDisposable(name string, fn func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disposables[name] = fn
}

// DestroySingletons tears down every cached singleton in reverse registration
// order, destroying the recorded dependents of each name before the name
// itself. Teardown errors are collected and joined; destruction continues
// past failures.
func (r *SingletonRegistry) DestroySingletons() error {
	r.mu.Lock()
	names := append([]string(nil), r.order...)
	r.mu.Unlock()

	var errs []error
	destroyed := make(map[string]bool)

	var destroy func(name string)
	destroy = func(name string) {
		if destroyed[name] {
			return
		}
		destroyed[name] = true
		for _, dep := range r.DependentsOf(name) {
			destroy(dep)
		}

		r.mu.Lock()
		fn := r.disposables[name]
		r.removeLocked(name)
		r.mu.Unlock()

		if fn != nil {
			if err := fn(); err != nil {
				errs = append(errs, &LifecycleError{Name: name, Stage: "destroy", Err: err})
			}
		}
	}

	for i := len(names) - 1; i >= 0; i-- {
		destroy(names[i])
	}

	r.mu.Lock()
	r.order = nil
	r.dependents = make(map[string]map[string]bool)
	r.dependencies = make(map[string]map[string]bool)
	r.mu.Unlock()

	return errors.Join(errs...)
}
