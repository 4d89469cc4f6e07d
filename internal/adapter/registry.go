package adapter

import (
	apperrors "vdir/internal/errors"
)

// Registry maps scheme names to adapters and resolves scheme
// aliases. It is configured once at startup and read-only afterward,
// so lookups need no locking.
type Registry struct {
	adapters map[string]Adapter
	aliases  map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
		aliases:  make(map[string]string),
	}
}

// Register adds an adapter under its canonical scheme.
func (r *Registry) Register(a Adapter) error {
	scheme := a.Scheme()
	if scheme == "" {
		return apperrors.NewConfigError("register", "adapter has empty scheme", nil)
	}
	if _, exists := r.adapters[scheme]; exists {
		return apperrors.NewConfigError("register", "scheme already registered: "+scheme, nil)
	}
	if _, exists := r.aliases[scheme]; exists {
		return apperrors.NewConfigError("register", "scheme already aliased: "+scheme, nil)
	}
	r.adapters[scheme] = a
	return nil
}

// Alias maps an alternate scheme name onto target. Chains are
// allowed; a chain that loops back on itself is a configuration
// error and is rejected here, at setup time.
func (r *Registry) Alias(alias, target string) error {
	if alias == target {
		return apperrors.NewConfigError("alias", "alias cycle: "+alias, nil)
	}
	if _, exists := r.adapters[alias]; exists {
		return apperrors.NewConfigError("alias", "scheme already registered: "+alias, nil)
	}
	if _, exists := r.aliases[alias]; exists {
		return apperrors.NewConfigError("alias", "scheme already aliased: "+alias, nil)
	}
	// Walk the chain from target; finding alias again means a cycle.
	seen := map[string]bool{alias: true}
	for cur := target; ; {
		if seen[cur] {
			return apperrors.NewConfigError("alias", "alias cycle through "+cur, nil)
		}
		seen[cur] = true
		next, ok := r.aliases[cur]
		if !ok {
			break
		}
		cur = next
	}
	r.aliases[alias] = target
	return nil
}

// Get resolves scheme (following aliases) to its adapter and the
// canonical scheme name. ok=false is a normal outcome for addresses
// outside any registered scheme; callers fall through to default
// host behavior.
func (r *Registry) Get(scheme string) (a Adapter, canonical string, ok bool) {
	for {
		if a, found := r.adapters[scheme]; found {
			return a, scheme, true
		}
		next, found := r.aliases[scheme]
		if !found {
			return nil, "", false
		}
		scheme = next
	}
}

// Schemes returns all registered canonical schemes.
func (r *Registry) Schemes() []string {
	out := make([]string, 0, len(r.adapters))
	for s := range r.adapters {
		out = append(out, s)
	}
	return out
}
