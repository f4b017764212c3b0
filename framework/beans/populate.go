package beans

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// populate fills the raw instance's properties, invoking the dependency
// resolver for each unsatisfied one. The recursion into Get happens here —
// this is where cyclic graphs are traversed and broken by early references.
// Spring: AbstractAutowireCapableBeanFactory#populateBean.
func (f *Factory) populate(name string, def *Definition, instance any) error {
	if !def.Synthetic {
		for _, p := range f.instProcessors() {
			cont, err := p.AfterInstantiation(instance, name)
			if err != nil {
				return &LifecycleError{Name: name, Stage: "after-instantiation", Err: err}
			}
			if !cont {
				return nil
			}
		}
	}

	props := def.Properties
	if !def.Synthetic {
		for _, p := range f.instProcessors() {
			replaced, err := p.ProcessProperties(props, instance, name)
			if err != nil {
				return &LifecycleError{Name: name, Stage: "process-properties", Err: err}
			}
			if replaced != nil {
				props = replaced
			}
		}
	}

	for _, prop := range props {
		if err := f.applyProperty(name, def, instance, prop); err != nil {
			return err
		}
	}
	return nil
}

// applyProperty resolves and sets a single property. An explicit ref wins
// over a literal value; with neither, the definition's autowire mode decides.
func (f *Factory) applyProperty(name string, def *Definition, instance any, prop Property) error {
	var value any

	switch {
	case prop.Ref != "":
		v, err := f.getDependency(f.canonical(prop.Ref), name)
		if err != nil {
			var notFound *DefinitionNotFoundError
			if prop.Optional && errors.As(err, &notFound) {
				return nil
			}
			return &UnsatisfiedDependencyError{
				Name:      name,
				Injection: "property " + strconv.Quote(prop.Name),
				Err:       err,
			}
		}
		value = v

	case prop.Value != nil:
		value = prop.Value

	default:
		switch def.Autowire {
		case AutowireByName:
			// Silent miss: an unmatched name simply leaves the property unset.
			if !f.ContainsDefinition(prop.Name) && !f.registry.Contains(prop.Name) {
				return nil
			}
			v, err := f.getDependency(f.canonical(prop.Name), name)
			if err != nil {
				return &UnsatisfiedDependencyError{
					Name:      name,
					Injection: "property " + strconv.Quote(prop.Name),
					Err:       err,
				}
			}
			value = v

		case AutowireByType:
			if prop.Type == nil {
				return &DefinitionError{
					Name:   name,
					Reason: fmt.Sprintf("property %q declares no type for by-type autowiring", prop.Name),
				}
			}
			v, err := f.ResolveDependency(Requirement{
				Type:     prop.Type,
				Required: !prop.Optional,
				Eager:    true,
			}, name)
			if err != nil {
				return &UnsatisfiedDependencyError{
					Name:      name,
					Injection: "property " + strconv.Quote(prop.Name),
					Err:       err,
				}
			}
			if v == nil {
				return nil
			}
			value = v

		default:
			return nil
		}
	}

	return f.setProperty(name, instance, prop, value)
}

// setProperty writes value into the instance through the descriptor's setter,
// falling back to assigning the exported struct field named like the property.
func (f *Factory) setProperty(name string, instance any, prop Property, value any) error {
	if prop.Set != nil {
		if err := prop.Set(instance, value); err != nil {
			return &UnsatisfiedDependencyError{
				Name:      name,
				Injection: "property " + strconv.Quote(prop.Name),
				Err:       err,
			}
		}
		return nil
	}

	rv := reflect.ValueOf(instance)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return &DefinitionError{
			Name:   name,
			Reason: fmt.Sprintf("cannot set property %q on %T without a setter", prop.Name, instance),
		}
	}
	field := rv.Elem().FieldByName(prop.Name)
	if !field.IsValid() || !field.CanSet() {
		return &DefinitionError{
			Name:   name,
			Reason: fmt.Sprintf("no settable field %q on %T", prop.Name, instance),
		}
	}
	v := reflect.ValueOf(value)
	if !v.Type().AssignableTo(field.Type()) {
		return &UnsatisfiedDependencyError{
			Name:      name,
			Injection: "property " + strconv.Quote(prop.Name),
			Err:       fmt.Errorf("%T is not assignable to %s", value, field.Type()),
		}
	}
	field.Set(v)
	return nil
}
