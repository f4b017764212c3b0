package beans

import (
	"errors"
	"fmt"
	"reflect"
)

// ── Dependency resolution ────────────────────────────────────────────────────

// Requirement describes a capability needed at an injection point.
type Requirement struct {
	// Type is the required type; candidate objects must be assignable to it.
	Type reflect.Type

	// Name pins the requirement to a single definition name. When set, Type
	// is ignored.
	Name string

	// Required turns a zero-candidate result into an error instead of nil.
	Required bool

	// Eager permits constructing a lazily-typed singleton candidate purely to
	// learn its type. Ordering-sensitive callers disable it to avoid
	// premature instantiation side effects; such forced creations are marked
	// provisional in the registry.
	Eager bool
}

// ResolveDependency finds the single object satisfying req on behalf of
// requesting, recording a dependency edge when it resolves one. Zero matches
// yield nil (or an error when Required). Several matches are narrowed by the
// Primary marker, then by a unique lowest Order hint, and otherwise fail as
// ambiguous. Spring: DefaultListableBeanFactory#resolveDependency.
func (f *Factory) ResolveDependency(req Requirement, requesting string) (any, error) {
	if req.Name != "" {
		key := f.canonical(req.Name)
		if !req.Required && !f.ContainsDefinition(key) && !f.registry.Contains(key) {
			return nil, nil
		}
		return f.getDependency(key, requesting)
	}
	if req.Type == nil {
		return nil, errors.New("beans: requirement declares neither a type nor a name")
	}

	candidates := f.CandidatesByType(req.Type, req.Eager)
	switch len(candidates) {
	case 0:
		if req.Required {
			return nil, &UnsatisfiedDependencyError{
				Name:      requesting,
				Injection: "type " + req.Type.String(),
				Err:       errors.New("no matching definitions"),
			}
		}
		return nil, nil
	case 1:
		return f.getDependency(candidates[0], requesting)
	default:
		if name, ok := f.primaryCandidate(candidates); ok {
			return f.getDependency(name, requesting)
		}
		if name, ok := f.orderedCandidate(candidates); ok {
			return f.getDependency(name, requesting)
		}
		return nil, &AmbiguityError{Type: req.Type.String(), Candidates: candidates}
	}
}

// CandidatesByType returns the definition and manual-singleton names whose
// resolved type is assignable to t, in registration order. Definitions whose
// type is not yet known are skipped unless eager allows a provisional
// construction to inspect it.
func (f *Factory) CandidatesByType(t reflect.Type, eager bool) []string {
	f.mu.RLock()
	names := append([]string(nil), f.order...)
	f.mu.RUnlock()

	var out []string
	seen := make(map[string]bool)
	for _, name := range names {
		f.mu.RLock()
		def := f.definitions[name]
		f.mu.RUnlock()
		if def == nil {
			continue
		}
		dt, ok := f.typeOf(name, def, eager)
		if !ok {
			continue
		}
		if dt.AssignableTo(t) {
			out = append(out, name)
			seen[name] = true
		}
	}

	// Manually registered singletons participate too.
	built := f.registry.Built()
	for _, name := range f.registry.Names() {
		if seen[name] {
			continue
		}
		if _, hasDef := f.Definition(name); hasDef {
			continue
		}
		obj, ok := built[name]
		if !ok || obj == nil {
			continue
		}
		if reflect.TypeOf(obj).AssignableTo(t) {
			out = append(out, name)
		}
	}
	return out
}

// typeOf reports the resolvable type of a definition. Lazily-typed singleton
// definitions are, with eager set, built provisionally just to inspect the
// result; the consistency check may later discard such creations.
func (f *Factory) typeOf(name string, def *Definition, eager bool) (reflect.Type, bool) {
	if def.Type != nil {
		return def.Type, true
	}
	if obj, ok := f.registry.Built()[name]; ok && obj != nil {
		return reflect.TypeOf(obj), true
	}
	if !eager || def.scope() != ScopeSingleton {
		return nil, false
	}
	if f.registry.IsInCreation(name) || f.inCreationChain(name) {
		return nil, false
	}
	obj, err := f.Get(name)
	if err != nil {
		return nil, false
	}
	f.registry.MarkProvisional(name)
	return reflect.TypeOf(obj), true
}

// primaryCandidate returns the one candidate marked Primary, if exactly one is.
func (f *Factory) primaryCandidate(names []string) (string, bool) {
	var found string
	count := 0
	for _, n := range names {
		if def, ok := f.Definition(n); ok && def.Primary {
			found = n
			count++
		}
	}
	return found, count == 1
}

// orderedCandidate returns the candidate carrying the unique lowest Order
// hint. Candidates without a definition cannot be ordered, so their presence
// leaves the tie unresolved.
func (f *Factory) orderedCandidate(names []string) (string, bool) {
	best := ""
	bestOrder := 0
	unique := false
	for _, n := range names {
		def, ok := f.Definition(n)
		if !ok {
			return "", false
		}
		switch {
		case best == "" || def.Order < bestOrder:
			best, bestOrder, unique = n, def.Order, true
		case def.Order == bestOrder:
			unique = false
		}
	}
	return best, unique
}

// ResolveByType resolves the single object assignable to T, applying the same
// narrowing rules as ResolveDependency.
//
//	repo, err := beans.ResolveByType[Repository](f)
func ResolveByType[T any](f *Factory) (T, error) {
	var zero T
	t := reflect.TypeOf((*T)(nil)).Elem()
	obj, err := f.ResolveDependency(Requirement{Type: t, Required: true, Eager: true}, "")
	if err != nil {
		return zero, err
	}
	typed, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("beans: object of type %T does not satisfy %s", obj, t)
	}
	return typed, nil
}
