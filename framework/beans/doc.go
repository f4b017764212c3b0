// Package beans provides a Spring-compatible managed-object runtime for Go:
// a definition-driven object factory that constructs object graphs, resolves
// inter-object dependencies (including cyclic ones) and drives every object
// through a fixed lifecycle with third-party interception at each stage.
//
// # Overview
//
// A Definition is the static metadata describing how to build one named
// object: its resolved type, scope, constructor descriptor, property wiring
// and lifecycle callbacks. The Factory turns definitions into live, fully
// wired instances and caches singletons in a three-tier registry that makes
// reference cycles between singletons safe.
//
// It mirrors the behaviour of Spring's BeanFactory stack as closely as Go
// allows. Because Go has no annotation scanning, definitions are supplied as
// pre-resolved descriptors instead of being parsed from metadata.
//
// # Factory Lifecycle
//
//  1. Create: f := beans.New()
//  2. Register definitions: f.Register("userService", &beans.Definition{...})
//  3. Resolve: svc, err := beans.Resolve[*UserService](f, "userService")
//  4. Tear down: f.Close() — destroys singletons, dependents first
//
// # Definitions
//
//	// Singleton with a constructor and a property reference
//	// Spring: <bean id="userService" class="UserService">
//	//           <property name="Repo" ref="userRepository"/>
//	//         </bean>
//	f.Register("userService", &beans.Definition{
//	    Type: reflect.TypeOf((*UserService)(nil)),
//	    Constructor: &beans.Constructor{
//	        New: func(c *beans.Creation) (any, error) { return &UserService{}, nil },
//	    },
//	    Properties: []beans.Property{{Name: "Repo", Ref: "userRepository"}},
//	})
//
//	// Pre-built value
//	// Spring: ConfigurableListableBeanFactory#registerSingleton
//	f.RegisterInstance("config", cfg)
//
//	// Alias
//	// Spring: BeanDefinitionRegistry#registerAlias
//	f.Alias("userService", "users")
//
// # Object Lifecycle
//
// Every object passes through a linear sequence:
//
//	raw instance → aware callbacks → pre-init chain → declared initializer →
//	post-init chain → exposed object
//
// Any stage may replace the instance (for example with a proxy); the factory
// tracks the exposed object separately from the raw one and reconciles the
// two against any early reference that escaped during construction.
//
// # Circular Dependencies
//
// Two singletons that reference each other through property wiring resolve
// cleanly: while A is being populated, a lookup of A from inside B's
// construction yields A's early reference — the raw instance, optionally
// wrapped by the chain's expose-early-reference hook — and both end up
// pointing at the same object. Cycles through constructor arguments, through
// prototypes, or with SetAllowCircularReferences(false) fail with a
// CircularCreationError naming the offending chain.
//
// # Extension Points
//
// The chain is an ordered list of processor entries; each entry implements
// one or more of the capability interfaces (InstantiationProcessor,
// InitProcessor, ConstructorProvider, EarlyReferenceExposer,
// DefinitionProcessor). Spring: BeanPostProcessor and friends.
//
//	type tracingProcessor struct{ beans.BaseProcessor }
//
//	func (tracingProcessor) AfterInit(instance any, name string) (any, error) {
//	    return wrapWithTracing(instance), nil
//	}
//
//	f.AddProcessor(tracingProcessor{})
//
// Definitions marked Synthetic are internal and skip the chain entirely.
package beans
