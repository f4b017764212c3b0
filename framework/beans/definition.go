package beans

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// ── Scopes ───────────────────────────────────────────────────────────────────

// Scope controls how many instances a definition yields.
type Scope string

const (
	// ScopeSingleton caches one instance per factory for the lifetime of the
	// process. The zero value of Definition.Scope means singleton.
	ScopeSingleton Scope = "singleton"

	// ScopePrototype builds a fresh instance on every Get and never caches it.
	// Spring: prototype scope.
	ScopePrototype Scope = "prototype"
)

// ── Autowire modes ───────────────────────────────────────────────────────────

// Autowire selects how properties without an explicit ref or value are
// satisfied during population.
type Autowire int

const (
	// AutowireNone injects only explicitly declared refs and values.
	AutowireNone Autowire = iota

	// AutowireByName matches a property's name against a definition name and
	// skips the property silently when no such name is registered.
	AutowireByName

	// AutowireByType matches a property's declared type against candidate
	// definitions, applying the Primary marker and Order hint on ties.
	AutowireByType
)

// ── Constructor descriptors ──────────────────────────────────────────────────

// Arg is one declared constructor argument: a reference to another managed
// object, or a literal value.
type Arg struct {
	Ref   string
	Value any
}

// Constructor is a pre-resolved constructor descriptor. The metadata stage
// (or wiring code) supplies New; the factory resolves Args and passes them in
// through the Creation context.
type Constructor struct {
	Args []Arg
	New  func(c *Creation) (any, error)
}

// ── Property descriptors ─────────────────────────────────────────────────────

// Property describes one settable property of a managed object.
//
// Exactly one of Ref, Value, or an autowire match (driven by the definition's
// Autowire mode together with Name and Type) supplies the injected value.
// When Set is nil the factory assigns the exported struct field called Name.
type Property struct {
	Name     string
	Ref      string       // inject the object registered under this name
	Value    any          // inject this literal value
	Type     reflect.Type // required type for by-type autowiring
	Optional bool         // leave unset instead of failing when unresolvable

	// Set overrides the default field assignment. It receives the instance
	// under construction and the resolved value.
	Set func(target, value any) error
}

// ── Definition ───────────────────────────────────────────────────────────────

// Definition is the static metadata describing how to build one named object.
// Spring: BeanDefinition.
//
// A definition may be mutated by DefinitionProcessor entries until the first
// object is created from it; it is frozen implicitly afterwards.
type Definition struct {
	// Type is the resolved concrete type, usually a pointer type. It drives
	// by-type autowiring and the default no-arg construction path. May be nil
	// when a Constructor is declared; such definitions are lazily typed.
	Type reflect.Type

	// Scope is ScopeSingleton or ScopePrototype; empty means singleton.
	Scope Scope

	// Constructor builds the raw instance. When nil, the chain may supply one,
	// and failing that the factory zero-constructs Type.
	Constructor *Constructor

	// Properties are applied in order after instantiation.
	Properties []Property

	// Autowire controls how undeclared property values are found.
	Autowire Autowire

	// Init is the declared initializer callback, run after the Initializer
	// interface and before the post-init chain.
	Init func(instance any) error

	// Destroy is the declared destroy callback, run on Factory.Close for
	// singletons. It receives the raw instance.
	Destroy func(instance any) error

	// Primary breaks by-type ties in favour of this definition.
	Primary bool

	// Order is a tie-break hint for by-type resolution; the unique lowest
	// order among ambiguous candidates wins.
	Order int

	// Lazy excludes the definition from eager singleton pre-instantiation.
	Lazy bool

	// Synthetic marks internal definitions that skip the extension-point
	// chain entirely.
	Synthetic bool

	// DependsOn forces the named objects to be built first, recording
	// dependency edges for destroy ordering.
	DependsOn []string

	frozen   sync.Once
	resolved atomic.Pointer[Constructor]
}

// scope normalizes the zero value to singleton.
func (d *Definition) scope() Scope {
	if d.Scope == "" {
		return ScopeSingleton
	}
	return d.Scope
}

// constructor returns the cached resolved constructor, if any.
func (d *Definition) constructor() *Constructor { return d.resolved.Load() }

// storeConstructor caches the selected constructor for subsequent creations.
func (d *Definition) storeConstructor(c *Constructor) { d.resolved.Store(c) }
