package scoring

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/chrisdamba/dealradar/internal/history"
)

var ErrUnknownStrategy = errors.New("unknown scoring strategy")

// Factory builds a Scorer bound to an interaction history.
type Factory func(h history.Reader) (Scorer, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"weighted": func(h history.Reader) (Scorer, error) { return NewWeightedScorer(h), nil },
	}
)

// Register makes a strategy selectable by name. Registering an existing name replaces it.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// New builds the named strategy.
func New(name string, h history.Reader) (Scorer, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownStrategy, name, Strategies())
	}
	return f(h)
}

func Strategies() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
