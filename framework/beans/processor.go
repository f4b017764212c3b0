package beans

// ── Extension-point capabilities ─────────────────────────────────────────────

// InstantiationProcessor intercepts an object around instantiation, before
// its lifecycle proper begins.
// Spring: InstantiationAwareBeanPostProcessor.
type InstantiationProcessor interface {
	// BeforeInstantiation may return a replacement object before the normal
	// constructor path runs. A non-nil result short-circuits creation: the
	// object is treated as externally supplied, skips population, and only
	// the after-init phase of the chain is applied to it.
	BeforeInstantiation(def *Definition, name string) (any, error)

	// AfterInstantiation runs on the raw instance before any property is
	// set. Returning false skips property population entirely.
	AfterInstantiation(instance any, name string) (bool, error)

	// ProcessProperties may replace the property set about to be applied.
	// Returning nil keeps the current set.
	ProcessProperties(props []Property, instance any, name string) ([]Property, error)
}

// InitProcessor intercepts an object around its declared initializer. Either
// method may return a replacement (for example a proxy); returning nil keeps
// the current instance.
// Spring: BeanPostProcessor.
type InitProcessor interface {
	BeforeInit(instance any, name string) (any, error)
	AfterInit(instance any, name string) (any, error)
}

// ConstructorProvider supplies a constructor for definitions that declare
// none. The first non-nil result wins.
// Spring: SmartInstantiationAwareBeanPostProcessor#determineCandidateConstructors.
type ConstructorProvider interface {
	DetermineConstructor(def *Definition, name string) (*Constructor, error)
}

// EarlyReferenceExposer wraps an object at the moment its early reference
// escapes to another object under construction. Identity is the default; the
// hook cannot fail — a wrapper that needs a fallible build should be applied
// from BeforeInit or AfterInit instead, where errors propagate.
// Spring: SmartInstantiationAwareBeanPostProcessor#getEarlyBeanReference.
type EarlyReferenceExposer interface {
	ExposeEarlyReference(instance any, name string) any
}

// DefinitionProcessor mutates definition metadata exactly once, before the
// first object is created from it; the definition is frozen afterwards.
// Spring: MergedBeanDefinitionPostProcessor.
type DefinitionProcessor interface {
	ProcessDefinition(def *Definition, name string)
}

// ── BaseProcessor ────────────────────────────────────────────────────────────

// BaseProcessor is an embeddable no-op implementation of
// InstantiationProcessor and InitProcessor.
// Embed it in your processor and only override what you need.
//
//	type auditProcessor struct{ beans.BaseProcessor }
//	func (auditProcessor) AfterInit(instance any, name string) (any, error) { ... }
type BaseProcessor struct{}

func (BaseProcessor) BeforeInstantiation(*Definition, string) (any, error) { return nil, nil }
func (BaseProcessor) AfterInstantiation(any, string) (bool, error)         { return true, nil }
func (BaseProcessor) ProcessProperties([]Property, any, string) ([]Property, error) {
	return nil, nil
}
func (BaseProcessor) BeforeInit(instance any, _ string) (any, error) { return instance, nil }
func (BaseProcessor) AfterInit(instance any, _ string) (any, error)  { return instance, nil }

// ── Chain bookkeeping ────────────────────────────────────────────────────────

// chain holds the ordered extension-point entries, filed once at registration
// time into one slice per capability so each phase iterates only the entries
// that implement it. Relative order within a phase follows registration order.
type chain struct {
	instantiation []InstantiationProcessor
	init          []InitProcessor
	constructors  []ConstructorProvider
	early         []EarlyReferenceExposer
	definitions   []DefinitionProcessor
}

// add files p under every capability it implements and reports whether it
// implements at least one.
func (c *chain) add(p any) bool {
	known := false
	if v, ok := p.(InstantiationProcessor); ok {
		c.instantiation = append(c.instantiation, v)
		known = true
	}
	if v, ok := p.(InitProcessor); ok {
		c.init = append(c.init, v)
		known = true
	}
	if v, ok := p.(ConstructorProvider); ok {
		c.constructors = append(c.constructors, v)
		known = true
	}
	if v, ok := p.(EarlyReferenceExposer); ok {
		c.early = append(c.early, v)
		known = true
	}
	if v, ok := p.(DefinitionProcessor); ok {
		c.definitions = append(c.definitions, v)
		known = true
	}
	return known
}
