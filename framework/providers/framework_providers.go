package providers

import (
	"github.com/km-arc/go-spring/framework/beans"
	"github.com/km-arc/go-spring/framework/config"
	"github.com/km-arc/go-spring/framework/routing"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider loads the application configuration from .env and
// registers it as the "config" singleton.
//
// Registered names:
//   - "config"  → *config.Config
//   - "configuration" (alias)
//
// The definition is synthetic: framework internals skip the extension-point
// chain.
type ConfigServiceProvider struct {
	beans.BaseProvider
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(f *beans.Factory) {
	envFiles := p.EnvFiles
	f.Register("config", &beans.Definition{
		Scope:     beans.ScopeSingleton,
		Synthetic: true,
		Lazy:      true,
		Constructor: &beans.Constructor{New: func(*beans.Creation) (any, error) {
			return config.Load(envFiles...), nil
		}},
	})
	f.Alias("config", "configuration")
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router.
//
// Registered names:
//   - "router"  → *routing.Router
type RoutingServiceProvider struct {
	beans.BaseProvider
}

func (p *RoutingServiceProvider) Register(f *beans.Factory) {
	f.Register("router", &beans.Definition{
		Scope:     beans.ScopeSingleton,
		Synthetic: true,
		Constructor: &beans.Constructor{New: func(*beans.Creation) (any, error) {
			return routing.New(), nil
		}},
	})
}
