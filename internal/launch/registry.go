package launch

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAssociationNotFound is returned when no association matches.
var ErrAssociationNotFound = errors.New("association not found")

// Association maps a content type to the launch descriptor that serves it.
type Association struct {
	ContentType string `yaml:"contentType"`
	LaunchName  string `yaml:"launch"`
	Modes       []Mode `yaml:"modes"`
	Enabled     bool   `yaml:"enabled"`
}

func (a Association) supports(mode Mode) bool {
	for _, m := range a.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// Registry holds content-type associations. It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	associations []Association
}

// NewRegistry returns a registry seeded with associations.
func NewRegistry(associations ...Association) *Registry {
	r := &Registry{}
	for _, a := range associations {
		r.Register(a)
	}
	return r
}

// Register adds a, replacing any association between the same content type
// and launch.
func (r *Registry) Register(a Association) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.associations {
		if existing.ContentType == a.ContentType && existing.LaunchName == a.LaunchName {
			r.associations[i] = a
			return
		}
	}
	r.associations = append(r.associations, a)
}

// Lookup returns the first enabled association for contentType that supports
// mode.
func (r *Registry) Lookup(contentType string, mode Mode) (Association, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.associations {
		if a.ContentType == contentType && a.Enabled && a.supports(mode) {
			return a, true
		}
	}
	return Association{}, false
}

// SetEnabled enables or disables the association between contentType and
// launchName.
func (r *Registry) SetEnabled(contentType, launchName string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.associations {
		a := &r.associations[i]
		if a.ContentType == contentType && a.LaunchName == launchName {
			a.Enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("%s -> %s: %w", contentType, launchName, ErrAssociationNotFound)
}

// Associations returns a copy of every association in registration order.
func (r *Registry) Associations() []Association {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Association, len(r.associations))
	copy(out, r.associations)
	return out
}
