package detector

import (
	"fmt"
	"strings"
)

// Factory builds a fresh detector instance.
type Factory func() Detector

type entry struct {
	id      string
	factory Factory
}

// Registry maps detector ids to factories and remembers registration order.
type Registry struct {
	entries []entry
	index   map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: map[string]int{}}
}

// Register adds the detector built by f under its own id.
func (r *Registry) Register(f Factory) error {
	if f == nil {
		return fmt.Errorf("nil detector factory")
	}
	id := strings.TrimSpace(f().ID())
	if id == "" {
		return fmt.Errorf("detector registered with an empty id")
	}
	if _, ok := r.index[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDetector, id)
	}
	r.index[id] = len(r.entries)
	r.entries = append(r.entries, entry{id: id, factory: f})
	return nil
}

// MustRegister is Register for package-level tables of built-in detectors.
func (r *Registry) MustRegister(fs ...Factory) *Registry {
	for _, f := range fs {
		if err := r.Register(f); err != nil {
			panic(err)
		}
	}
	return r
}

// IDs returns every registered id in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.id
	}
	return out
}

func (r *Registry) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

func (r *Registry) Len() int { return len(r.entries) }

// Validate returns ErrUnknownDetector naming every id that is not registered.
func (r *Registry) Validate(ids []string) error {
	var unknown []string
	for _, id := range ids {
		if !r.Has(id) {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownDetector, strings.Join(unknown, ", "))
	}
	return nil
}

// Build instantiates the named detectors in the order given, skipping
// repeats. An empty list builds every registered detector.
func (r *Registry) Build(ids []string) ([]Detector, error) {
	if len(ids) == 0 {
		ids = r.IDs()
	}
	if err := r.Validate(ids); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(ids))
	out := make([]Detector, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, r.entries[r.index[id]].factory())
	}
	return out, nil
}

// Describe lists the metadata of every registered detector.
func (r *Registry) Describe() []Info {
	out := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, Describe(e.factory()))
	}
	return out
}
