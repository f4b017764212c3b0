package beans

import (
	"fmt"
	"strings"
)

// DefinitionNotFoundError reports a lookup for a name with no definition in
// the factory or any parent.
type DefinitionNotFoundError struct {
	Name string
}

func (e *DefinitionNotFoundError) Error() string {
	return fmt.Sprintf("beans: no definition registered for %q", e.Name)
}

// DefinitionError reports malformed or unresolvable definition metadata.
type DefinitionError struct {
	Name   string
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("beans: invalid definition %q: %s", e.Name, e.Reason)
}

// CircularCreationError reports that a name was re-entered while already in
// creation through a path that cannot be satisfied by an early reference.
type CircularCreationError struct {
	Name  string
	Chain []string
}

func (e *CircularCreationError) Error() string {
	if len(e.Chain) > 0 {
		return fmt.Sprintf("beans: circular creation of %q (chain: %s)",
			e.Name, strings.Join(e.Chain, " -> "))
	}
	return fmt.Sprintf("beans: circular creation of %q", e.Name)
}

// ConsistencyError reports that an object was wrapped during initialization
// after its unwrapped early reference had already been injected into other
// objects. Dependents lists the names still holding the stale reference.
type ConsistencyError struct {
	Name       string
	Dependents []string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf(
		"beans: object %q was wrapped during initialization, but its raw early reference was already injected into [%s]; "+
			"wire the wrapper earlier or enable raw injection tolerance",
		e.Name, strings.Join(e.Dependents, ", "))
}

// UnsatisfiedDependencyError reports that a required injection point of an
// object could not be satisfied.
type UnsatisfiedDependencyError struct {
	Name      string // object under construction
	Injection string // property or argument description
	Err       error
}

func (e *UnsatisfiedDependencyError) Error() string {
	return fmt.Sprintf("beans: unsatisfied dependency of %q at %s: %v", e.Name, e.Injection, e.Err)
}

func (e *UnsatisfiedDependencyError) Unwrap() error { return e.Err }

// AmbiguityError reports a by-type resolution with several equally good
// candidates.
type AmbiguityError struct {
	Type       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("beans: %d candidates match type %s (%s); mark one Primary or give it a unique lowest Order",
		len(e.Candidates), e.Type, strings.Join(e.Candidates, ", "))
}

// LifecycleError wraps a failure from one lifecycle stage with the object's
// name and the stage that raised it.
type LifecycleError struct {
	Name  string
	Stage string
	Err   error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("beans: %s of %q failed: %v", e.Stage, e.Name, e.Err)
}

func (e *LifecycleError) Unwrap() error { return e.Err }

// InvalidScopeError reports a definition carrying an unknown scope, or an
// operation that is illegal for the definition's scope.
type InvalidScopeError struct {
	Name  string
	Scope Scope
}

func (e *InvalidScopeError) Error() string {
	return fmt.Sprintf("beans: invalid scope %q for %q", e.Scope, e.Name)
}
