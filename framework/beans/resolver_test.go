package beans_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-spring/framework/beans"
)

// ── fixtures ─────────────────────────────────────────────────────────────────

type store interface{ Kind() string }

type memStore struct{}

func (*memStore) Kind() string { return "mem" }

type diskStore struct{}

func (*diskStore) Kind() string { return "disk" }

// ── By-type resolution ───────────────────────────────────────────────────────

func TestResolver_ByType_SingleCandidate(t *testing.T) {
	f := beans.New()
	require.NoError(t, f.Register("mem", &beans.Definition{
		Type:        typeOf[*memStore](),
		Constructor: ctorOf(func() any { return &memStore{} }),
	}))

	s, err := beans.ResolveByType[store](f)
	require.NoError(t, err)
	assert.Equal(t, "mem", s.Kind())
}

func TestResolver_ByType_NoCandidate(t *testing.T) {
	f := beans.New()

	_, err := beans.ResolveByType[store](f)
	var unsatisfied *beans.UnsatisfiedDependencyError
	require.ErrorAs(t, err, &unsatisfied)

	// Not required: zero candidates resolve to nil without error.
	obj, err := f.ResolveDependency(beans.Requirement{Type: typeOf[store]()}, "")
	require.NoError(t, err)
	assert.Nil(t, obj)
}

func TestResolver_ByType_AmbiguityFails(t *testing.T) {
	f := beans.New()
	require.NoError(t, f.Register("mem", &beans.Definition{
		Type:        typeOf[*memStore](),
		Constructor: ctorOf(func() any { return &memStore{} }),
	}))
	require.NoError(t, f.Register("disk", &beans.Definition{
		Type:        typeOf[*diskStore](),
		Constructor: ctorOf(func() any { return &diskStore{} }),
	}))

	_, err := beans.ResolveByType[store](f)
	var ambiguous *beans.AmbiguityError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, []string{"mem", "disk"}, ambiguous.Candidates)
}

func TestResolver_ByType_PrimaryBreaksTie(t *testing.T) {
	f := beans.New()
	require.NoError(t, f.Register("mem", &beans.Definition{
		Type:        typeOf[*memStore](),
		Constructor: ctorOf(func() any { return &memStore{} }),
	}))
	require.NoError(t, f.Register("disk", &beans.Definition{
		Type:        typeOf[*diskStore](),
		Constructor: ctorOf(func() any { return &diskStore{} }),
		Primary:     true,
	}))

	s, err := beans.ResolveByType[store](f)
	require.NoError(t, err)
	assert.Equal(t, "disk", s.Kind())
}

func TestResolver_ByType_UniqueLowestOrderBreaksTie(t *testing.T) {
	f := beans.New()
	require.NoError(t, f.Register("mem", &beans.Definition{
		Type:        typeOf[*memStore](),
		Constructor: ctorOf(func() any { return &memStore{} }),
		Order:       2,
	}))
	require.NoError(t, f.Register("disk", &beans.Definition{
		Type:        typeOf[*diskStore](),
		Constructor: ctorOf(func() any { return &diskStore{} }),
		Order:       1,
	}))

	s, err := beans.ResolveByType[store](f)
	require.NoError(t, err)
	assert.Equal(t, "disk", s.Kind())
}

func TestResolver_ByType_EqualOrdersStayAmbiguous(t *testing.T) {
	f := beans.New()
	require.NoError(t, f.Register("mem", &beans.Definition{
		Type:        typeOf[*memStore](),
		Constructor: ctorOf(func() any { return &memStore{} }),
		Order:       1,
	}))
	require.NoError(t, f.Register("disk", &beans.Definition{
		Type:        typeOf[*diskStore](),
		Constructor: ctorOf(func() any { return &diskStore{} }),
		Order:       1,
	}))

	_, err := beans.ResolveByType[store](f)
	var ambiguous *beans.AmbiguityError
	require.ErrorAs(t, err, &ambiguous)
}

func TestResolver_ByType_ManualSingletonParticipates(t *testing.T) {
	f := beans.New()
	require.NoError(t, f.RegisterInstance("mem", &memStore{}))

	s, err := beans.ResolveByType[store](f)
	require.NoError(t, err)
	assert.Equal(t, "mem", s.Kind())
}

func TestResolver_ByType_LazilyTypedNeedsEager(t *testing.T) {
	f := beans.New()
	// No declared type: only construction reveals it.
	require.NoError(t, f.Register("mem", &beans.Definition{
		Constructor: ctorOf(func() any { return &memStore{} }),
	}))

	// Non-eager resolution must not force the construction.
	obj, err := f.ResolveDependency(beans.Requirement{Type: typeOf[store]()}, "")
	require.NoError(t, err)
	assert.Nil(t, obj)
	assert.False(t, f.Registry().Contains("mem"))

	s, err := beans.ResolveByType[store](f)
	require.NoError(t, err)
	assert.Equal(t, "mem", s.Kind())
}

func TestResolver_ByName_PinnedRequirement(t *testing.T) {
	f := beans.New()
	require.NoError(t, f.Register("mem", &beans.Definition{
		Constructor: ctorOf(func() any { return &memStore{} }),
	}))

	obj, err := f.ResolveDependency(beans.Requirement{Name: "mem", Required: true}, "")
	require.NoError(t, err)
	assert.IsType(t, &memStore{}, obj)

	// An optional pinned name that is unregistered resolves to nil.
	obj, err = f.ResolveDependency(beans.Requirement{Name: "ghost"}, "")
	require.NoError(t, err)
	assert.Nil(t, obj)
}

// ── Autowiring during population ─────────────────────────────────────────────

func TestPopulate_AutowireByName(t *testing.T) {
	f := beans.New()
	require.NoError(t, f.Register("Engine", &beans.Definition{
		Constructor: ctorOf(func() any { return &engine{} }),
	}))
	require.NoError(t, f.Register("car", &beans.Definition{
		Constructor: ctorOf(func() any { return &car{} }),
		Autowire:    beans.AutowireByName,
		Properties: []beans.Property{
			{Name: "Engine"},
			{Name: "Missing"}, // unmatched names are skipped silently
		},
	}))

	obj, err := f.Get("car")
	require.NoError(t, err)
	assert.NotNil(t, obj.(*car).Engine)
}

func TestPopulate_AutowireByType(t *testing.T) {
	f := beans.New()
	require.NoError(t, f.Register("theEngine", &beans.Definition{
		Constructor: ctorOf(func() any { return &engine{} }),
	}))
	require.NoError(t, f.Register("car", &beans.Definition{
		Constructor: ctorOf(func() any { return &car{} }),
		Autowire:    beans.AutowireByType,
		Properties:  []beans.Property{{Name: "Engine", Type: typeOf[*engine]()}},
	}))

	obj, err := f.Get("car")
	require.NoError(t, err)

	eng, err := f.Get("theEngine")
	require.NoError(t, err)
	assert.Same(t, eng, obj.(*car).Engine)
}

func TestPopulate_AutowireByType_MissingTypeFails(t *testing.T) {
	f := beans.New()
	require.NoError(t, f.Register("car", &beans.Definition{
		Constructor: ctorOf(func() any { return &car{} }),
		Autowire:    beans.AutowireByType,
		Properties:  []beans.Property{{Name: "Engine"}},
	}))

	_, err := f.Get("car")
	var defErr *beans.DefinitionError
	require.ErrorAs(t, err, &defErr)
}

func TestPopulate_SetterOverridesFieldAssignment(t *testing.T) {
	var received any
	f := beans.New()
	require.NoError(t, f.Register("car", &beans.Definition{
		Constructor: ctorOf(func() any { return &car{} }),
		Properties: []beans.Property{{
			Name:  "Label",
			Value: "custom",
			Set: func(target, value any) error {
				received = value
				target.(*car).Label = value.(string) + "-set"
				return nil
			},
		}},
	}))

	obj, err := f.Get("car")
	require.NoError(t, err)
	assert.Equal(t, "custom", received)
	assert.Equal(t, "custom-set", obj.(*car).Label)
}

func TestPopulate_UnassignableValueFails(t *testing.T) {
	f := beans.New()
	require.NoError(t, f.Register("car", &beans.Definition{
		Constructor: ctorOf(func() any { return &car{} }),
		Properties:  []beans.Property{{Name: "Label", Value: 42}},
	}))

	_, err := f.Get("car")
	var unsatisfied *beans.UnsatisfiedDependencyError
	require.ErrorAs(t, err, &unsatisfied)
}
