package beans_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/km-arc/go-spring/framework/beans"
)

// ── fixtures ─────────────────────────────────────────────────────────────────

// tracedService records every lifecycle callback it receives.
type tracedService struct {
	events  *[]string
	name    string
	factory *beans.Factory
}

func (s *tracedService) SetObjectName(name string) {
	s.name = name
	*s.events = append(*s.events, "name-aware")
}

func (s *tracedService) SetFactory(f *beans.Factory) {
	s.factory = f
	*s.events = append(*s.events, "factory-aware")
}

func (s *tracedService) Init() error {
	*s.events = append(*s.events, "interface-init")
	return nil
}

// recordingProcessor traces the init phases of the chain.
type recordingProcessor struct {
	beans.BaseProcessor
	events *[]string
}

func (p *recordingProcessor) BeforeInit(instance any, _ string) (any, error) {
	*p.events = append(*p.events, "before-init")
	return instance, nil
}

func (p *recordingProcessor) AfterInit(instance any, _ string) (any, error) {
	*p.events = append(*p.events, "after-init")
	return instance, nil
}

// supplierProcessor short-circuits creation for one name.
type supplierProcessor struct {
	beans.BaseProcessor
	supplied *engine
}

func (p *supplierProcessor) BeforeInstantiation(_ *beans.Definition, name string) (any, error) {
	if name == "engine" {
		return p.supplied, nil
	}
	return nil, nil
}

// vetoProcessor skips property population entirely.
type vetoProcessor struct{ beans.BaseProcessor }

func (vetoProcessor) AfterInstantiation(any, string) (bool, error) { return false, nil }

// relabelProcessor swaps the property set for its own.
type relabelProcessor struct{ beans.BaseProcessor }

func (relabelProcessor) ProcessProperties(_ []beans.Property, _ any, name string) ([]beans.Property, error) {
	if name != "car" {
		return nil, nil
	}
	return []beans.Property{{Name: "Label", Value: "relabeled"}}, nil
}

// ordersProxy stands in for a wrapped orderService.
type ordersProxy struct{ inner *orderService }

// wrappingProcessor wraps one name during the post-init phase — deliberately
// too late for consumers of the early reference.
type wrappingProcessor struct{ beans.BaseProcessor }

func (wrappingProcessor) AfterInit(instance any, name string) (any, error) {
	if o, ok := instance.(*orderService); ok && name == "orders" {
		return &ordersProxy{inner: o}, nil
	}
	return instance, nil
}

// holder types wire a cycle through untyped fields, so wrapped references
// still assign.
type holderX struct{ Dep any }
type holderY struct{ Dep any }

type holderProxy struct{ inner *holderX }

// earlyWrapProcessor wraps holderX at the moment its early reference escapes.
type earlyWrapProcessor struct{}

func (earlyWrapProcessor) ExposeEarlyReference(instance any, name string) any {
	if x, ok := instance.(*holderX); ok && name == "x" {
		return &holderProxy{inner: x}
	}
	return instance
}

// passthroughProcessor changes nothing; it only occupies chain slots.
type passthroughProcessor struct{ beans.BaseProcessor }

// countingDefProcessor counts definition-metadata passes.
type countingDefProcessor struct{ count int }

func (p *countingDefProcessor) ProcessDefinition(_ *beans.Definition, _ string) { p.count++ }

// ── Lifecycle ordering ───────────────────────────────────────────────────────

func TestLifecycle_CallbackOrder(t *testing.T) {
	var events []string
	f := newFactoryWith(t, map[string]*beans.Definition{
		"svc": {
			Constructor: ctorOf(func() any { return &tracedService{events: &events} }),
			Init: func(any) error {
				events = append(events, "declared-init")
				return nil
			},
		},
	})
	require.NoError(t, f.AddProcessor(&recordingProcessor{events: &events}))

	obj, err := f.Get("svc")
	require.NoError(t, err)

	svc := obj.(*tracedService)
	assert.Equal(t, "svc", svc.name)
	assert.Same(t, f, svc.factory)
	assert.Equal(t, []string{
		"name-aware",
		"factory-aware",
		"before-init",
		"interface-init",
		"declared-init",
		"after-init",
	}, events)
}

func TestLifecycle_SyntheticSkipsChain(t *testing.T) {
	var events []string
	f := newFactoryWith(t, map[string]*beans.Definition{
		"svc": {
			Synthetic:   true,
			Constructor: ctorOf(func() any { return &engine{} }),
		},
	})
	require.NoError(t, f.AddProcessor(&recordingProcessor{events: &events}))

	_, err := f.Get("svc")
	require.NoError(t, err)
	assert.Empty(t, events)
}

// ── Instantiation interception ───────────────────────────────────────────────

func TestChain_BeforeInstantiation_ShortCircuits(t *testing.T) {
	var events []string
	supplied := &engine{Started: true}
	ctorCalled := false

	f := newFactoryWith(t, map[string]*beans.Definition{
		"engine": {
			Constructor: ctorOf(func() any {
				ctorCalled = true
				return &engine{}
			}),
		},
	})
	require.NoError(t, f.AddProcessor(&supplierProcessor{supplied: supplied}))
	require.NoError(t, f.AddProcessor(&recordingProcessor{events: &events}))

	obj, err := f.Get("engine")
	require.NoError(t, err)

	assert.Same(t, supplied, obj)
	assert.False(t, ctorCalled, "a supplied object must skip the constructor")
	// A supplied object skips population and pre-init, but still passes
	// through the post-init phase.
	assert.Equal(t, []string{"after-init"}, events)
}

func TestChain_AfterInstantiation_VetoSkipsPopulation(t *testing.T) {
	f := newFactoryWith(t, map[string]*beans.Definition{
		"car": {
			Constructor: ctorOf(func() any { return &car{} }),
			// Would fail: nothing named "engine" is registered.
			Properties: []beans.Property{{Name: "Engine", Ref: "engine"}},
		},
	})
	require.NoError(t, f.AddProcessor(&vetoProcessor{}))

	obj, err := f.Get("car")
	require.NoError(t, err)
	assert.Nil(t, obj.(*car).Engine)
}

func TestChain_ProcessProperties_ReplacesPropertySet(t *testing.T) {
	f := newFactoryWith(t, map[string]*beans.Definition{
		"car": {
			Constructor: ctorOf(func() any { return &car{} }),
			Properties:  []beans.Property{{Name: "Label", Value: "declared"}},
		},
	})
	require.NoError(t, f.AddProcessor(&relabelProcessor{}))

	obj, err := f.Get("car")
	require.NoError(t, err)
	assert.Equal(t, "relabeled", obj.(*car).Label)
}

func TestChain_RejectsNonProcessor(t *testing.T) {
	f := beans.New()
	assert.Error(t, f.AddProcessor(struct{}{}))
}

func TestChain_ConcurrentRegistrationAndResolution(t *testing.T) {
	f := newFactoryWith(t, map[string]*beans.Definition{
		"engine": {
			Scope:       beans.ScopePrototype,
			Constructor: ctorOf(func() any { return &engine{} }),
		},
	})

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := f.Get("engine")
			return err
		})
		g.Go(func() error {
			return f.AddProcessor(&passthroughProcessor{})
		})
	}
	require.NoError(t, g.Wait())
}

// ── Definition metadata pass ─────────────────────────────────────────────────

func TestChain_ProcessDefinition_RunsOncePerDefinition(t *testing.T) {
	p := &countingDefProcessor{}
	f := newFactoryWith(t, map[string]*beans.Definition{
		"engine": {
			Scope:       beans.ScopePrototype,
			Constructor: ctorOf(func() any { return &engine{} }),
		},
	})
	require.NoError(t, f.AddProcessor(p))

	_, err := f.Get("engine")
	require.NoError(t, err)
	_, err = f.Get("engine")
	require.NoError(t, err)
	assert.Equal(t, 1, p.count, "definitions freeze after the first pass")
}

// ── Early-reference consistency ──────────────────────────────────────────────

func TestConsistency_LateWrapWithDistributedEarlyRefFails(t *testing.T) {
	f := newFactoryWith(t, map[string]*beans.Definition{
		"orders": {
			Constructor: ctorOf(func() any { return &orderService{} }),
			Properties:  []beans.Property{{Name: "Audit", Ref: "audit"}},
		},
		"audit": {
			Constructor: ctorOf(func() any { return &auditLog{} }),
			Properties:  []beans.Property{{Name: "Orders", Ref: "orders"}},
		},
	})
	require.NoError(t, f.AddProcessor(&wrappingProcessor{}))

	_, err := f.Get("orders")
	var inconsistent *beans.ConsistencyError
	require.ErrorAs(t, err, &inconsistent)
	assert.Equal(t, "orders", inconsistent.Name)
	assert.Equal(t, []string{"audit"}, inconsistent.Dependents)
}

func TestConsistency_RawInjectionToleranceAcceptsLateWrap(t *testing.T) {
	f := newFactoryWith(t, map[string]*beans.Definition{
		"orders": {
			Constructor: ctorOf(func() any { return &orderService{} }),
			Properties:  []beans.Property{{Name: "Audit", Ref: "audit"}},
		},
		"audit": {
			Constructor: ctorOf(func() any { return &auditLog{} }),
			Properties:  []beans.Property{{Name: "Orders", Ref: "orders"}},
		},
	})
	require.NoError(t, f.AddProcessor(&wrappingProcessor{}))
	f.SetAllowRawInjection(true)

	obj, err := f.Get("orders")
	require.NoError(t, err)

	proxy, ok := obj.(*ordersProxy)
	require.True(t, ok, "the cache must hold the wrapper")
	// The admitted inconsistency: the dependent keeps the raw instance.
	assert.Same(t, proxy.inner, proxy.inner.Audit.Orders)
}

func TestConsistency_LateWrapWithoutConsumersSucceeds(t *testing.T) {
	f := newFactoryWith(t, map[string]*beans.Definition{
		"orders": {Constructor: ctorOf(func() any { return &orderService{} })},
	})
	require.NoError(t, f.AddProcessor(&wrappingProcessor{}))

	obj, err := f.Get("orders")
	require.NoError(t, err)
	assert.IsType(t, &ordersProxy{}, obj)
}

func TestConsistency_EarlyExposerWrapsForEveryConsumer(t *testing.T) {
	f := newFactoryWith(t, map[string]*beans.Definition{
		"x": {
			Constructor: ctorOf(func() any { return &holderX{} }),
			Properties:  []beans.Property{{Name: "Dep", Ref: "y"}},
		},
		"y": {
			Constructor: ctorOf(func() any { return &holderY{} }),
			Properties:  []beans.Property{{Name: "Dep", Ref: "x"}},
		},
	})
	require.NoError(t, f.AddProcessor(earlyWrapProcessor{}))

	obj, err := f.Get("x")
	require.NoError(t, err)

	proxy, ok := obj.(*holderProxy)
	require.True(t, ok, "the distributed early reference becomes the cached object")
	y := proxy.inner.Dep.(*holderY)
	assert.Same(t, obj, y.Dep, "cycle consumer and cache observe one reference")

	cached, err := f.Get("x")
	require.NoError(t, err)
	assert.Same(t, obj, cached)
}
