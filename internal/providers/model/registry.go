package model

import (
	"fmt"
	"sort"
	"strings"

	"sceneforge/internal/domain"
)

// Binding attaches one adapter to every alias that should reach it.
type Binding struct {
	Aliases []string
	Adapter Adapter
}

// Registry resolves model hints to adapters.
type Registry struct {
	adapters    map[string]Adapter
	defaultHint string
}

// NewRegistry validates the bindings and the default hint.
func NewRegistry(defaultHint string, bindings ...Binding) (*Registry, error) {
	r := &Registry{adapters: map[string]Adapter{}}
	for _, b := range bindings {
		if b.Adapter == nil {
			return nil, fmt.Errorf("model registry: nil adapter for %v", b.Aliases)
		}
		for _, alias := range b.Aliases {
			key := normalizeHint(alias)
			if key == "" {
				return nil, fmt.Errorf("model registry: empty alias")
			}
			if _, dup := r.adapters[key]; dup {
				return nil, fmt.Errorf("model registry: alias %q registered twice", key)
			}
			r.adapters[key] = b.Adapter
		}
	}
	r.defaultHint = normalizeHint(defaultHint)
	if _, ok := r.adapters[r.defaultHint]; !ok {
		return nil, fmt.Errorf("model registry: default hint %q is not registered", defaultHint)
	}
	return r, nil
}

// Lookup returns the adapter and the canonical hint. An empty hint selects the default.
func (r *Registry) Lookup(hint string) (Adapter, string, error) {
	key := normalizeHint(hint)
	if key == "" {
		key = r.defaultHint
	}
	adapter, ok := r.adapters[key]
	if !ok {
		return nil, "", domain.NewValidationError("model", fmt.Sprintf("unsupported model %q", hint))
	}
	return adapter, key, nil
}

// DefaultHint returns the hint used when a scene names none.
func (r *Registry) DefaultHint() string {
	return r.defaultHint
}

// Hints lists every registered alias in sorted order.
func (r *Registry) Hints() []string {
	out := make([]string, 0, len(r.adapters))
	for k := range r.adapters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalizeHint(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
