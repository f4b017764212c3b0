package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/km-arc/go-spring/framework/app"
	"github.com/km-arc/go-spring/framework/beans"
	"github.com/km-arc/go-spring/framework/config"
	"github.com/km-arc/go-spring/framework/routing"
)

// ── Demo services ────────────────────────────────────────────────────────────

// GreetingService is a plain singleton built by constructor injection.
type GreetingService struct {
	AppName string
}

func (s *GreetingService) Greet(name string) string {
	return fmt.Sprintf("Hello %s, welcome to %s!", name, s.AppName)
}

// UserService and AuditService reference each other through property wiring.
// The factory resolves the cycle by handing one of them an early reference
// while the other is still under construction.
type UserService struct {
	Audit *AuditService
}

func (s *UserService) Find(id string) map[string]any {
	s.Audit.Record("users.find " + id)
	return map[string]any{"id": id, "name": "Alice"}
}

type AuditService struct {
	Users   *UserService
	entries []string
}

func (s *AuditService) Record(event string) { s.entries = append(s.entries, event) }
func (s *AuditService) Entries() []string   { return s.entries }

func (s *AuditService) Destroy() error {
	log.Printf("audit: flushing %d entries", len(s.entries))
	return nil
}

// ── Wiring ───────────────────────────────────────────────────────────────────

// AppServiceProvider registers the demo services.
type AppServiceProvider struct{ beans.BaseProvider }

func (p *AppServiceProvider) Register(f *beans.Factory) {
	f.Register("greeter", &beans.Definition{
		Constructor: &beans.Constructor{New: func(c *beans.Creation) (any, error) {
			cfg, err := c.Get("config")
			if err != nil {
				return nil, err
			}
			return &GreetingService{AppName: cfg.(*config.Config).App.Name}, nil
		}},
	})

	f.Register("users", &beans.Definition{
		Constructor: &beans.Constructor{New: func(*beans.Creation) (any, error) {
			return &UserService{}, nil
		}},
		Properties: []beans.Property{{Name: "Audit", Ref: "audit"}},
	})

	f.Register("audit", &beans.Definition{
		Constructor: &beans.Constructor{New: func(*beans.Creation) (any, error) {
			return &AuditService{}, nil
		}},
		Properties: []beans.Property{{Name: "Users", Ref: "users"}},
	})
}

func (p *AppServiceProvider) Boot(f *beans.Factory) {
	router := beans.MustResolve[*routing.Router](f, "router")
	greeter := beans.MustResolve[*GreetingService](f, "greeter")
	users := beans.MustResolve[*UserService](f, "users")
	audit := beans.MustResolve[*AuditService](f, "audit")

	router.Get("/", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": greeter.Greet("stranger"),
		})
	})

	router.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/users/{id}", func(w http.ResponseWriter, req *http.Request) {
			id := routing.Param(req, "id")
			writeJSON(w, http.StatusOK, users.Find(id))
		})

		api.Get("/audit", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"entries": audit.Entries()})
		})
	})
}

func main() {
	application := app.New() // loads .env automatically
	application.Register(&AppServiceProvider{})
	defer application.Shutdown()

	application.Run()
}

// ── helpers ──────────────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
