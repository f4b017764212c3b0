package beans

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups related definition registrations and their boot
// logic, the way a Spring @Configuration class groups @Bean methods.
//
// Every provider must implement at minimum Register().
// Boot() is called after ALL providers have been registered, making it safe
// to resolve other definitions inside Boot().
//
//	type AppServiceProvider struct{ beans.BaseProvider }
//
//	func (p *AppServiceProvider) Register(f *beans.Factory) {
//	    f.Register("mailer", &beans.Definition{
//	        Constructor: &beans.Constructor{New: func(c *beans.Creation) (any, error) {
//	            cfg, err := c.Get("config")
//	            if err != nil {
//	                return nil, err
//	            }
//	            return mail.NewSMTP(cfg.(*config.Config).Mail), nil
//	        }},
//	    })
//	}
//
//	func (p *AppServiceProvider) Boot(f *beans.Factory) {
//	    mailer := beans.MustResolve[*mail.SMTP](f, "mailer")
//	    mailer.Warm()
//	}
type ServiceProvider interface {
	// Register binds definitions into the factory.
	// Do NOT resolve other definitions here — use Boot() for that.
	Register(f *Factory)

	// Boot is called after all providers are registered.
	// Safe to resolve and use any definition here.
	Boot(f *Factory)

	// Provides returns the list of names this provider registers.
	// Used for deferred (lazy) provider loading.
	// Return nil / empty slice if the provider is always eager.
	Provides() []string

	// IsDeferred returns true if this provider should be loaded lazily —
	// only when one of its Provides() names is first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct that provides no-op implementations
// of Boot(), Provides(), and IsDeferred().
// Embed it in your provider and only override what you need.
//
//	type MyProvider struct{ beans.BaseProvider }
//	func (p *MyProvider) Register(f *beans.Factory) { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Factory)    {}
func (p *BaseProvider) Provides() []string { return nil }
func (p *BaseProvider) IsDeferred() bool   { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred (lazy) providers. Deferred loading rides on the
// factory's definition-fallback hook: the first lookup of a deferred name
// registers — and, once the registry is booted, boots — the provider that
// owns it.
type ProviderRegistry struct {
	factory    *Factory
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider // name → provider
	booted     bool
	registered map[ServiceProvider]bool
}

// NewProviderRegistry creates a registry bound to f and installs the deferred
// loading hook.
func NewProviderRegistry(f *Factory) *ProviderRegistry {
	r := &ProviderRegistry{
		factory:    f,
		deferred:   make(map[string]ServiceProvider),
		registered: make(map[ServiceProvider]bool),
	}
	f.SetFallback(r.loadDeferred)
	return r
}

// Register adds a provider and calls its Register() method (unless deferred).
func (r *ProviderRegistry) Register(provider ServiceProvider) {
	if r.registered[provider] {
		return
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		for _, name := range provider.Provides() {
			r.deferred[name] = provider
		}
		return
	}

	provider.Register(r.factory)
	r.eager = append(r.eager, provider)

	// If already booted, boot this provider immediately
	if r.booted {
		provider.Boot(r.factory)
	}
}

// loadDeferred is the factory's definition-fallback hook. It reports whether
// a deferred provider registered definitions for name.
func (r *ProviderRegistry) loadDeferred(name string) bool {
	provider, ok := r.deferred[name]
	if !ok {
		return false
	}
	for _, n := range provider.Provides() {
		delete(r.deferred, n)
	}
	provider.Register(r.factory)
	r.eager = append(r.eager, provider)
	if r.booted {
		provider.Boot(r.factory)
	}
	return true
}

// Boot calls Boot() on all eager providers.
// Must be called after ALL providers have been registered.
func (r *ProviderRegistry) Boot() {
	if r.booted {
		return
	}
	r.booted = true
	for _, provider := range r.eager {
		provider.Boot(r.factory)
	}
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.eager }
