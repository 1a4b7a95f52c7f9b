// Package registry holds the components shared by every generation run.
// A registry is filled once at start-up and sealed; after that it is
// read-only and safe for concurrent use.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ppiankov/reporter/internal/model"
	"github.com/ppiankov/reporter/internal/realize"
	"github.com/ppiankov/reporter/internal/templates"
	"github.com/ppiankov/reporter/internal/vocabulary"
)

// Well-known component names
const (
	Templates     = "templates"
	Vocabulary    = "vocabulary"
	SlotRealizers = "slot-realizers"
)

var (
	// ErrNameCollision is returned when a name is registered twice
	ErrNameCollision = errors.New("component name collision")
	// ErrUnknownComponent is returned for names that were never registered
	ErrUnknownComponent = errors.New("unknown component")
	// ErrSealed is returned when registering into a sealed registry
	ErrSealed = errors.New("registry is sealed")
)

// Registry maps component names to components
type Registry struct {
	mu         sync.RWMutex
	components map[string]any
	sealed     bool
}

// New creates an empty registry
func New() *Registry {
	return &Registry{components: make(map[string]any)}
}

// Register adds a component under name
func (r *Registry) Register(name string, component any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register %q: %w", name, ErrSealed)
	}
	if _, exists := r.components[name]; exists {
		return fmt.Errorf("a component of name %q already exists: %w", name, ErrNameCollision)
	}
	r.components[name] = component
	return nil
}

// Get returns the component registered under name
func (r *Registry) Get(name string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.components[name]
	if !ok {
		return nil, fmt.Errorf("no component named %q: %w", name, ErrUnknownComponent)
	}
	return c, nil
}

// Seal makes the registry read-only
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether Seal has been called
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Names returns the registered component names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TemplateSet returns the registered template set, or an empty set
func (r *Registry) TemplateSet() templates.Set {
	c, err := r.Get(Templates)
	if err != nil {
		return templates.Set{}
	}
	set, _ := c.(templates.Set)
	return set
}

// Templates returns the templates of lang
func (r *Registry) Templates(lang string) []*model.Template {
	return r.TemplateSet()[lang]
}

// Vocabulary returns the registered vocabulary, or nil
func (r *Registry) Vocabulary() vocabulary.Vocabulary {
	c, err := r.Get(Vocabulary)
	if err != nil {
		return nil
	}
	v, _ := c.(vocabulary.Vocabulary)
	return v
}

// Conjunctions returns the conjunctions of the base language of lang
func (r *Registry) Conjunctions(lang string) (vocabulary.Conjunctions, bool) {
	return r.Vocabulary().Conjunctions(lang)
}

// ErrorMessage returns the canned error text for id in lang
func (r *Registry) ErrorMessage(lang, id string) string {
	return r.Vocabulary().ErrorMessage(lang, id)
}

// SlotRealizers returns the registered slot realizer components
func (r *Registry) SlotRealizers() []realize.SlotRealizerComponent {
	c, err := r.Get(SlotRealizers)
	if err != nil {
		return nil
	}
	components, _ := c.([]realize.SlotRealizerComponent)
	return components
}
