package app

import (
	"fmt"
	"log"
	"net/http"

	"github.com/km-arc/go-spring/framework/beans"
	"github.com/km-arc/go-spring/framework/config"
	"github.com/km-arc/go-spring/framework/providers"
	"github.com/km-arc/go-spring/framework/routing"
)

// Application is the top-level runtime. It embeds the bean Factory and the
// ProviderRegistry so wiring code can call app.Register(), app.Get(),
// app.AddProcessor() directly — the shape of Spring's ApplicationContext over
// its internal BeanFactory.
type Application struct {
	*beans.Factory
	Providers *beans.ProviderRegistry
}

// New creates and bootstraps the application: it builds the factory, installs
// the provider registry and registers the framework core providers.
func New(envFiles ...string) *Application {
	f := beans.New()
	registry := beans.NewProviderRegistry(f)

	app := &Application{
		Factory:   f,
		Providers: registry,
	}

	registry.Register(&providers.ConfigServiceProvider{EnvFiles: envFiles})
	registry.Register(&providers.RoutingServiceProvider{})

	return app
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider beans.ServiceProvider) {
	a.Providers.Register(provider)
}

// Boot applies the container tuning knobs from configuration, runs the Boot()
// phase on all providers and, when configured, eagerly pre-instantiates every
// non-lazy singleton so wiring mistakes surface here rather than on first
// request.
func (a *Application) Boot() error {
	cfg := a.Config()
	a.SetAllowCircularReferences(cfg.Container.AllowCycles)
	a.SetAllowRawInjection(cfg.Container.AllowRawInjection)

	a.Providers.Boot()

	if cfg.Container.EagerBoot {
		if err := a.PreInstantiateSingletons(); err != nil {
			return err
		}
	}
	return nil
}

// Config resolves *config.Config from the factory.
func (a *Application) Config() *config.Config {
	return beans.MustResolve[*config.Config](a.Factory, "config")
}

// Router resolves *routing.Router from the factory.
func (a *Application) Router() *routing.Router {
	return beans.MustResolve[*routing.Router](a.Factory, "router")
}

// Run boots the application (if needed) and starts the HTTP server.
func (a *Application) Run() {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			log.Fatalf("boot error: %v", err)
		}
	}
	cfg := a.Config()
	router := a.Router()
	addr := ":" + cfg.App.Port
	fmt.Printf("🚀  %s running on http://localhost%s  [%s]\n",
		cfg.App.Name, addr, cfg.App.Env)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown destroys all cached singletons, dependents first.
func (a *Application) Shutdown() error {
	return a.Close()
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config().App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config().App.Debug }
func (a *Application) Version() string     { return "0.1.0" }
