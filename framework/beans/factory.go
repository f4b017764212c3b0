package beans

import (
	"fmt"
	"reflect"
	"strconv"
	"sync"
)

// ── Factory ──────────────────────────────────────────────────────────────────

// Factory is the object-graph engine: it holds definitions, builds fully
// wired instances from them and caches singletons in a three-tier registry
// that keeps reference cycles between singletons safe.
// Spring: DefaultListableBeanFactory.
//
//	f := beans.New()
//	f.Register("userService", &beans.Definition{...})
//	svc, err := beans.Resolve[*UserService](f, "userService")
type Factory struct {
	mu          sync.RWMutex
	parent      *Factory
	definitions map[string]*Definition
	aliases     map[string]string
	order       []string // definition registration order, drives eager boot
	chain       chain
	fallback    func(name string) bool

	allowCircularReferences bool
	allowRawInjection       bool

	registry *SingletonRegistry

	// goroutine id → names being created by that goroutine, outermost first.
	// Detects prototype self-cycles and names the chain in error messages.
	creating sync.Map
}

// New creates an empty Factory with circular references allowed.
func New() *Factory {
	return &Factory{
		definitions:             make(map[string]*Definition),
		aliases:                 make(map[string]string),
		registry:                NewSingletonRegistry(),
		allowCircularReferences: true,
	}
}

// NewWithParent creates a Factory that falls back to parent for names it does
// not know. Spring: a child bean factory with a parent.
func NewWithParent(parent *Factory) *Factory {
	f := New()
	f.parent = parent
	return f
}

// Parent returns the parent factory, or nil.
func (f *Factory) Parent() *Factory { return f.parent }

// Registry returns the factory's singleton registry.
func (f *Factory) Registry() *SingletonRegistry { return f.registry }

// ── Configuration ────────────────────────────────────────────────────────────

// SetAllowCircularReferences toggles early-reference exposure, the mechanism
// that resolves property-wired cycles between singletons. Default true; with
// false any cycle fails with a CircularCreationError.
func (f *Factory) SetAllowCircularReferences(allow bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allowCircularReferences = allow
}

// AllowsCircularReferences reports the current cycle policy.
func (f *Factory) AllowsCircularReferences() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.allowCircularReferences
}

// SetAllowRawInjection disables the consistency check that fails construction
// when an object is wrapped during initialization after its unwrapped early
// reference was already injected elsewhere. Enabling it trades correctness
// (some consumers keep the raw object while others see the wrapper) for
// avoiding the failure. Default false.
func (f *Factory) SetAllowRawInjection(allow bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allowRawInjection = allow
}

// AllowsRawInjection reports the current raw-injection policy.
func (f *Factory) AllowsRawInjection() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.allowRawInjection
}

// SetFallback installs a hook invoked when no definition exists for a name,
// before the parent is consulted. Returning true means definitions were
// registered and the lookup is retried — deferred service providers hang off
// this hook.
func (f *Factory) SetFallback(fn func(name string) bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = fn
}

// ── Registration ─────────────────────────────────────────────────────────────

// Register adds a definition under name. Registering the same name again
// overwrites the previous definition; once an object has been created from a
// definition it is frozen and must not be re-registered.
// Spring: BeanDefinitionRegistry#registerBeanDefinition.
func (f *Factory) Register(name string, def *Definition) error {
	if name == "" {
		return &DefinitionError{Name: name, Reason: "empty name"}
	}
	if def == nil {
		return &DefinitionError{Name: name, Reason: "nil definition"}
	}
	switch def.Scope {
	case "", ScopeSingleton, ScopePrototype:
	default:
		return &InvalidScopeError{Name: name, Scope: def.Scope}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.definitions[name]; !ok {
		f.order = append(f.order, name)
	}
	f.definitions[name] = def
	return nil
}

// RegisterInstance registers an externally supplied object as a fully built
// singleton. It participates in by-type resolution and teardown like any
// other singleton. Spring: ConfigurableListableBeanFactory#registerSingleton.
func (f *Factory) RegisterInstance(name string, instance any) error {
	if name == "" {
		return &DefinitionError{Name: name, Reason: "empty name"}
	}
	if instance == nil {
		return &DefinitionError{Name: name, Reason: "nil instance"}
	}
	return f.registry.Add(name, instance)
}

// Alias registers an alternative name for a definition.
// Spring: BeanDefinitionRegistry#registerAlias.
func (f *Factory) Alias(name, alias string) error {
	if name == alias {
		return &DefinitionError{Name: name, Reason: "aliased to itself"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aliases[alias] = name
	return nil
}

// AddProcessor appends an entry to the extension-point chain. The entry must
// implement at least one of the capability interfaces; it is filed once per
// capability, preserving registration order within each phase.
func (f *Factory) AddProcessor(p any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.chain.add(p) {
		return fmt.Errorf("beans: processor %T implements no extension-point capability", p)
	}
	return nil
}

// ── Introspection ────────────────────────────────────────────────────────────

// canonical resolves an alias to its definition name.
func (f *Factory) canonical(name string) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if target, ok := f.aliases[name]; ok {
		return target
	}
	return name
}

// Definition returns the definition registered under name (aliases resolved),
// without consulting the parent.
func (f *Factory) Definition(name string) (*Definition, bool) {
	key := f.canonical(name)
	f.mu.RLock()
	defer f.mu.RUnlock()
	def, ok := f.definitions[key]
	return def, ok
}

// ContainsDefinition reports whether name (or an alias of it) is registered
// in this factory or any parent.
func (f *Factory) ContainsDefinition(name string) bool {
	if _, ok := f.Definition(name); ok {
		return true
	}
	if f.parent != nil {
		return f.parent.ContainsDefinition(name)
	}
	return false
}

// IsInCreation reports whether name is currently being constructed, either as
// a singleton in the registry's in-creation set or anywhere on the calling
// goroutine's creation chain.
func (f *Factory) IsInCreation(name string) bool {
	key := f.canonical(name)
	return f.registry.IsInCreation(key) || f.inCreationChain(key)
}

// RegisterDisposable registers a teardown callback for name, invoked during
// Close.
func (f *Factory) RegisterDisposable(name string, fn func() error) {
	f.registry.RegisterDisposable(f.canonical(name), fn)
}

// ── Resolution ───────────────────────────────────────────────────────────────

// Get returns the fully initialized object registered under name, building it
// and its dependency graph on first use. Spring: BeanFactory#getBean.
func (f *Factory) Get(name string) (any, error) {
	return f.get(f.canonical(name), nil)
}

// GetWithArgs builds a prototype-scoped object with explicit constructor
// arguments overriding the declared ones. Explicit arguments are incompatible
// with singleton caching. Spring: BeanFactory#getBean(String, Object...).
func (f *Factory) GetWithArgs(name string, args ...any) (any, error) {
	return f.get(f.canonical(name), args)
}

func (f *Factory) get(key string, args []any) (any, error) {
	// Fast path: fully built, or the early reference of an in-creation
	// singleton — the latter is how cycles resolve. Explicit arguments must
	// not be satisfied from the cache.
	if args == nil {
		if shared := f.registry.Singleton(key, true); shared != nil {
			return shared, nil
		}
	}

	// A name already on this goroutine's creation chain that could not be
	// served by an early reference is an unresolvable cycle: a prototype, a
	// constructor-argument cycle, or cycles disabled.
	if f.inCreationChain(key) {
		return nil, &CircularCreationError{Name: key, Chain: append(f.creationChain(), key)}
	}

	f.mu.RLock()
	def, ok := f.definitions[key]
	fallback := f.fallback
	f.mu.RUnlock()
	if !ok && fallback != nil && fallback(key) {
		f.mu.RLock()
		def, ok = f.definitions[key]
		f.mu.RUnlock()
	}
	if !ok {
		if f.parent != nil {
			return f.parent.get(key, args)
		}
		return nil, &DefinitionNotFoundError{Name: key}
	}

	f.freeze(key, def)

	for _, dep := range def.DependsOn {
		depKey := f.canonical(dep)
		// A depends-on edge pointing back at us (directly, transitively, or
		// at ourselves) can never be built first; recursing would never
		// terminate.
		if depKey == key || f.registry.IsDependent(key, depKey) {
			return nil, &CircularCreationError{Name: key, Chain: []string{key, depKey, key}}
		}
		f.registry.RegisterDependent(depKey, key)
		if _, err := f.Get(dep); err != nil {
			return nil, &UnsatisfiedDependencyError{
				Name:      key,
				Injection: "dependsOn " + strconv.Quote(dep),
				Err:       err,
			}
		}
	}

	switch def.scope() {
	case ScopeSingleton:
		if len(args) > 0 {
			return nil, &DefinitionError{Name: key, Reason: "explicit arguments are only supported for prototype scope"}
		}
		return f.registry.GetOrCreate(key, func() (any, error) {
			return f.create(key, def, nil)
		})
	case ScopePrototype:
		return f.create(key, def, args)
	default:
		return nil, &InvalidScopeError{Name: key, Scope: def.Scope}
	}
}

// freeze runs definition-level extension points exactly once per definition;
// afterwards the metadata is treated as immutable.
func (f *Factory) freeze(name string, def *Definition) {
	def.frozen.Do(func() {
		if def.Synthetic {
			return
		}
		for _, p := range f.defProcessors() {
			p.ProcessDefinition(def, name)
		}
	})
}

// ── Creation sequence ────────────────────────────────────────────────────────

// create runs the full construction sequence for one definition: chain
// short-circuit, instantiation, early-reference exposure, population,
// initialization, reconciliation and disposable registration.
// Spring: AbstractAutowireCapableBeanFactory#doCreateBean.
func (f *Factory) create(name string, def *Definition, args []any) (any, error) {
	f.pushCreation(name)
	defer f.popCreation(name)

	// Offer the chain a chance to supply the object outright. A replacement
	// counts as externally supplied: it skips instantiation and population,
	// and only the after-init phase of the chain applies.
	if !def.Synthetic {
		for _, p := range f.instProcessors() {
			obj, err := p.BeforeInstantiation(def, name)
			if err != nil {
				return nil, &LifecycleError{Name: name, Stage: "before-instantiation", Err: err}
			}
			if obj != nil {
				return f.applyAfterInit(obj, name)
			}
		}
	}

	raw, err := f.instantiate(name, def, args)
	if err != nil {
		return nil, err
	}

	// Expose an early-reference factory before population begins, so objects
	// created while wiring our properties can point back at us.
	earlyExposure := def.scope() == ScopeSingleton &&
		f.AllowsCircularReferences() &&
		f.registry.IsInCreation(name)
	if earlyExposure {
		f.registry.AddFactory(name, func() any {
			return f.exposeEarlyReference(raw, name, def)
		})
	}

	if err := f.populate(name, def, raw); err != nil {
		return nil, err
	}

	exposed, err := f.initialize(name, def, raw)
	if err != nil {
		return nil, err
	}

	if earlyExposure {
		if earlyRef := f.registry.Early(name); earlyRef != nil {
			if exposed == raw {
				// Nothing wrapped the instance during initialization; hand
				// every consumer the one reference that already escaped.
				exposed = earlyRef
			} else if !f.AllowsRawInjection() {
				// Late wrapping happened. That is only acceptable if nothing
				// real consumed the unwrapped early reference: filter out
				// dependents that exist merely as provisional, type-check
				// creations.
				var actual []string
				for _, dep := range f.registry.DependentsOf(name) {
					if !f.registry.ClearProvisional(dep) {
						actual = append(actual, dep)
					}
				}
				if len(actual) > 0 {
					return nil, &ConsistencyError{Name: name, Dependents: actual}
				}
			}
		}
	}

	f.registerDisposable(name, def, raw)

	return exposed, nil
}

// instantiate obtains a raw, unpopulated instance for name.
//
// Constructor selection order: explicit arguments from GetWithArgs, then a
// previously resolved constructor, then a chain-supplied candidate, then the
// definition's declared constructor, then zero-value construction of the
// resolved type. No viable selection is fatal.
func (f *Factory) instantiate(name string, def *Definition, args []any) (any, error) {
	ctor := def.constructor()
	if ctor == nil && !def.Synthetic {
		for _, p := range f.ctorProviders() {
			c, err := p.DetermineConstructor(def, name)
			if err != nil {
				return nil, &DefinitionError{Name: name, Reason: "constructor selection: " + err.Error()}
			}
			if c != nil {
				ctor = c
				break
			}
		}
	}
	if ctor == nil {
		ctor = def.Constructor
	}
	if ctor == nil {
		if def.Type == nil {
			return nil, &DefinitionError{Name: name, Reason: "no constructor and no resolved type"}
		}
		ctor = defaultConstructor(def.Type)
	}
	def.storeConstructor(ctor)

	if args == nil {
		args = make([]any, len(ctor.Args))
		for i, a := range ctor.Args {
			if a.Ref != "" {
				v, err := f.getDependency(f.canonical(a.Ref), name)
				if err != nil {
					return nil, &UnsatisfiedDependencyError{
						Name:      name,
						Injection: fmt.Sprintf("constructor argument %d (ref %q)", i, a.Ref),
						Err:       err,
					}
				}
				args[i] = v
			} else {
				args[i] = a.Value
			}
		}
	}

	obj, err := ctor.New(&Creation{factory: f, name: name, args: args})
	if err != nil {
		return nil, &LifecycleError{Name: name, Stage: "instantiation", Err: err}
	}
	if obj == nil {
		return nil, &DefinitionError{Name: name, Reason: "constructor returned nil"}
	}
	return obj, nil
}

// defaultConstructor zero-constructs t — the no-arg path.
func defaultConstructor(t reflect.Type) *Constructor {
	return &Constructor{New: func(*Creation) (any, error) {
		if t.Kind() == reflect.Pointer {
			return reflect.New(t.Elem()).Interface(), nil
		}
		return reflect.New(t).Elem().Interface(), nil
	}}
}

// exposeEarlyReference runs the expose-early-reference phase of the chain on
// the raw instance. Identity when no entry implements the capability.
func (f *Factory) exposeEarlyReference(raw any, name string, def *Definition) any {
	exposed := raw
	if !def.Synthetic {
		for _, p := range f.earlyExposers() {
			exposed = p.ExposeEarlyReference(exposed, name)
		}
	}
	return exposed
}

// getDependency resolves a named dependency on behalf of requesting and
// records the dependency edge used by destroy ordering and the consistency
// check.
func (f *Factory) getDependency(name, requesting string) (any, error) {
	f.registry.RegisterDependent(name, requesting)
	return f.get(name, nil)
}

// registerDisposable arranges teardown for singletons that declare a destroy
// callback or implement Disposable. The raw instance is destroyed; a wrapper
// produced during initialization owns its own teardown.
func (f *Factory) registerDisposable(name string, def *Definition, raw any) {
	if def.scope() != ScopeSingleton {
		return
	}
	d, disposable := raw.(Disposable)
	destroy := def.Destroy
	if destroy == nil && !disposable {
		return
	}
	f.registry.RegisterDisposable(name, func() error {
		if disposable {
			if err := d.Destroy(); err != nil {
				return err
			}
		}
		if destroy != nil {
			return destroy(raw)
		}
		return nil
	})
}

// ── Eager boot & teardown ────────────────────────────────────────────────────

// PreInstantiateSingletons eagerly builds every non-lazy singleton definition
// in registration order, so wiring mistakes surface at boot instead of on
// first request. Spring: ConfigurableListableBeanFactory#preInstantiateSingletons.
func (f *Factory) PreInstantiateSingletons() error {
	f.mu.RLock()
	names := append([]string(nil), f.order...)
	f.mu.RUnlock()

	for _, name := range names {
		f.mu.RLock()
		def := f.definitions[name]
		f.mu.RUnlock()
		if def == nil || def.Lazy || def.scope() != ScopeSingleton {
			continue
		}
		if _, err := f.Get(name); err != nil {
			return err
		}
	}
	return nil
}

// Close destroys every cached singleton, dependents before the objects they
// depend on, in reverse registration order. Definitions stay registered; the
// factory is reusable afterwards.
func (f *Factory) Close() error {
	return f.registry.DestroySingletons()
}

// ── Creation context ─────────────────────────────────────────────────────────

// Creation is handed to constructor functions. It carries the resolved
// declared arguments and attributes any nested lookup to the object under
// creation, so dependency edges are recorded correctly even when a supplier
// callback triggers them.
type Creation struct {
	factory *Factory
	name    string
	args    []any
}

// Name returns the name of the object being created.
func (c *Creation) Name() string { return c.name }

// Args returns the resolved declared constructor arguments.
func (c *Creation) Args() []any { return c.args }

// Arg returns the i-th resolved argument, or nil when out of range.
func (c *Creation) Arg(i int) any {
	if i < 0 || i >= len(c.args) {
		return nil
	}
	return c.args[i]
}

// Get resolves another managed object, recording a dependency edge from the
// object under creation to it.
func (c *Creation) Get(name string) (any, error) {
	return c.factory.getDependency(c.factory.canonical(name), c.name)
}

// Factory returns the owning factory.
func (c *Creation) Factory() *Factory { return c.factory }

// ── Per-goroutine creation chains ────────────────────────────────────────────

func (f *Factory) pushCreation(name string) {
	id := goid()
	v, _ := f.creating.LoadOrStore(id, &[]string{})
	names := v.(*[]string)
	*names = append(*names, name)
}

func (f *Factory) popCreation(string) {
	id := goid()
	v, ok := f.creating.Load(id)
	if !ok {
		return
	}
	names := v.(*[]string)
	*names = (*names)[:len(*names)-1]
	if len(*names) == 0 {
		f.creating.Delete(id)
	}
}

func (f *Factory) inCreationChain(name string) bool {
	v, ok := f.creating.Load(goid())
	if !ok {
		return false
	}
	for _, n := range *v.(*[]string) {
		if n == name {
			return true
		}
	}
	return false
}

func (f *Factory) creationChain() []string {
	v, ok := f.creating.Load(goid())
	if !ok {
		return nil
	}
	return append([]string(nil), *v.(*[]string)...)
}

// ── Chain accessors ──────────────────────────────────────────────────────────
//
// Each accessor copies its phase slice under the read lock, so a concurrent
// AddProcessor never appends into a backing array a resolution is iterating.

func (f *Factory) instProcessors() []InstantiationProcessor {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]InstantiationProcessor(nil), f.chain.instantiation...)
}

func (f *Factory) initProcessors() []InitProcessor {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]InitProcessor(nil), f.chain.init...)
}

func (f *Factory) ctorProviders() []ConstructorProvider {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]ConstructorProvider(nil), f.chain.constructors...)
}

func (f *Factory) earlyExposers() []EarlyReferenceExposer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]EarlyReferenceExposer(nil), f.chain.early...)
}

func (f *Factory) defProcessors() []DefinitionProcessor {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]DefinitionProcessor(nil), f.chain.definitions...)
}

// ── Generic helpers ──────────────────────────────────────────────────────────

// Resolve is a generic helper around Get that type-asserts the result.
//
//	svc, err := beans.Resolve[*UserService](f, "userService")
func Resolve[T any](f *Factory, name string) (T, error) {
	var zero T
	obj, err := f.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("beans: %q resolved to %T, want %T", name, obj, zero)
	}
	return typed, nil
}

// MustResolve is Resolve for wiring code where a failure is fatal.
func MustResolve[T any](f *Factory, name string) T {
	v, err := Resolve[T](f, name)
	if err != nil {
		panic(err)
	}
	return v
}
