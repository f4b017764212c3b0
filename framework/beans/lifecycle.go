package beans

// ── Aware & lifecycle interfaces ─────────────────────────────────────────────

// NameAware objects are told their registered name before initialization.
// Spring: BeanNameAware.
type NameAware interface {
	SetObjectName(name string)
}

// FactoryAware objects receive the owning factory before initialization.
// Spring: BeanFactoryAware.
type FactoryAware interface {
	SetFactory(f *Factory)
}

// Initializer runs after every property is set, before the post-init phase of
// the chain and before the definition's declared Init callback.
// Spring: InitializingBean#afterPropertiesSet.
type Initializer interface {
	Init() error
}

// Disposable is implemented by managed objects holding releasable resources;
// Destroy runs during Factory.Close, before the definition's declared Destroy
// callback. Spring: DisposableBean.
type Disposable interface {
	Destroy() error
}

// ── Lifecycle driver ─────────────────────────────────────────────────────────

// initialize drives the linear initialization sequence:
//
//	raw → aware callbacks → pre-init chain → declared initializer →
//	post-init chain → exposed
//
// Chain entries may replace the instance; the returned object is the exposed
// one, which need not be the raw instance. Failures abort the whole
// construction, wrapped with the object's name and the failing stage.
func (f *Factory) initialize(name string, def *Definition, raw any) (any, error) {
	if a, ok := raw.(NameAware); ok {
		a.SetObjectName(name)
	}
	if a, ok := raw.(FactoryAware); ok {
		a.SetFactory(f)
	}

	exposed := raw
	if !def.Synthetic {
		var err error
		exposed, err = f.applyBeforeInit(exposed, name)
		if err != nil {
			return nil, err
		}
	}

	if i, ok := exposed.(Initializer); ok {
		if err := i.Init(); err != nil {
			return nil, &LifecycleError{Name: name, Stage: "init", Err: err}
		}
	}
	if def.Init != nil {
		if err := def.Init(exposed); err != nil {
			return nil, &LifecycleError{Name: name, Stage: "init", Err: err}
		}
	}

	if !def.Synthetic {
		var err error
		exposed, err = f.applyAfterInit(exposed, name)
		if err != nil {
			return nil, err
		}
	}
	return exposed, nil
}

// applyBeforeInit runs the pre-init phase of the chain.
func (f *Factory) applyBeforeInit(obj any, name string) (any, error) {
	for _, p := range f.initProcessors() {
		next, err := p.BeforeInit(obj, name)
		if err != nil {
			return nil, &LifecycleError{Name: name, Stage: "before-init", Err: err}
		}
		if next != nil {
			obj = next
		}
	}
	return obj, nil
}

// applyAfterInit runs the post-init phase of the chain.
func (f *Factory) applyAfterInit(obj any, name string) (any, error) {
	for _, p := range f.initProcessors() {
		next, err := p.AfterInit(obj, name)
		if err != nil {
			return nil, &LifecycleError{Name: name, Stage: "after-init", Err: err}
		}
		if next != nil {
			obj = next
		}
	}
	return obj, nil
}
