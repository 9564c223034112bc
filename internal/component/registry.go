// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  cmd/web calls Init(deps)
// once at boot with the shared services, then mounts every component's
// Routes() at “/”.

package component

import (
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/contact"
	"github.com/yanizio/contactform/internal/form"
	"github.com/yanizio/contactform/internal/session"
)

// Deps exposes shared services to Components during Init.
type Deps struct {
	Form   *form.Definition
	Tokens *form.Tokens
	Flags  *session.Flags
	Sender contact.Sender
	Logger *zap.SugaredLogger
}

// Component contract.
//
// Init is called once before Routes.  Routes() should mount BOTH page and
// API endpoints, e.g:
//
//	r := chi.NewRouter()
//	r.Get("/contact", getForm)
//	r.Post("/contact/validate", postValidate)
//	return r
type Component interface {
	Name() string
	Init(Deps) error
	Routes() chi.Router
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
