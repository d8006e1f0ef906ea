package registry

import (
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/ethereum-optimism/infra/op-runrun/runner"
)

var (
	ErrDuplicateSuite = errors.New("suite already registered")
	ErrUnknownSuite   = errors.New("unknown suite")
)

// Definition is a named suite declared in Go code
type Definition struct {
	Name        string
	Description string
	Options     []runner.Option
	Define      func(s *runner.Scope)
}

// Selection picks a registered suite for a run and overrides its modifiers
type Selection struct {
	Name     string
	Skip     bool
	Sequence bool
	Story    bool
	Timeout  time.Duration
}

// Options returns the modifiers requested by the selection
func (s Selection) Options() []runner.Option {
	var opts []runner.Option
	if s.Skip {
		opts = append(opts, runner.Skip())
	}
	if s.Sequence {
		opts = append(opts, runner.Sequence())
	}
	if s.Story {
		opts = append(opts, runner.Story())
	}
	if s.Timeout > 0 {
		opts = append(opts, runner.Timeout(s.Timeout))
	}
	return opts
}

// Registry holds suite definitions in registration order
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	order []string
}

// New creates an empty registry
func New() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds a definition. Names are unique within a registry.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return errors.New("suite definition has no name")
	}
	if def.Define == nil {
		return errors.Errorf("suite %q has no definition", def.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[def.Name]; ok {
		return errors.Wrapf(ErrDuplicateSuite, "registering %q", def.Name)
	}
	r.defs[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// MustRegister is Register for package-level catalogs; it panics on error
func (r *Registry) MustRegister(defs ...Definition) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
}

// Get returns the definition registered under name
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Names returns the registered names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Select resolves selections against the registry. No selections means every
// registered suite, in registration order.
func (r *Registry) Select(selections []Selection) ([]Selection, error) {
	if len(selections) == 0 {
		names := r.Names()
		all := make([]Selection, 0, len(names))
		for _, name := range names {
			all = append(all, Selection{Name: name})
		}
		return all, nil
	}
	var missing []string
	for _, sel := range selections {
		if _, ok := r.Get(sel.Name); !ok {
			missing = append(missing, sel.Name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Wrapf(ErrUnknownSuite, "%v (registered: %v)", missing, r.Names())
	}
	return selections, nil
}

// Declare declares the selected suites on rn, in selection order
func (r *Registry) Declare(rn *runner.Runner, selections []Selection, logger log.Logger) error {
	selected, err := r.Select(selections)
	if err != nil {
		return err
	}
	for _, sel := range selected {
		def, _ := r.Get(sel.Name)
		opts := append(slices.Clone(def.Options), sel.Options()...)
		logger.Debug("Declaring suite", "suite", def.Name, "options", len(opts))
		if _, err := rn.Describe(def.Name, def.Define, opts...); err != nil {
			return errors.Wrapf(err, "declaring suite %q", def.Name)
		}
	}
	return nil
}
