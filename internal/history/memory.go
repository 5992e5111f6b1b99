// Package history keeps the per-deal engagement signal read by the scorer.
package history

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/chrisdamba/dealradar/internal/models"
)

// DefaultWeight is returned for deals nobody has interacted with yet, so new deals start
// with a small positive signal instead of zero.
const DefaultWeight = 0.1

var ErrInvalidWeight = errors.New("interaction weight must be within [0,1]")

// KindDeltas is how much each interaction kind adds to a deal's weight.
var KindDeltas = map[string]float64{
	models.InteractionView:   0.05,
	models.InteractionClick:  0.15,
	models.InteractionRedeem: 0.30,
}

// Reader is the read side the scorer depends on.
type Reader interface {
	Weight(dealID string) float64
}

// Memory is a process-lifetime interaction store safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	weights map[string]float64
}

func NewMemory() *Memory {
	return &Memory{weights: make(map[string]float64)}
}

func (m *Memory) Weight(dealID string) float64 {
	if w, ok := m.Lookup(dealID); ok {
		return w
	}
	return DefaultWeight
}

func (m *Memory) Lookup(dealID string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.weights[dealID]
	return w, ok
}

func (m *Memory) Set(dealID string, weight float64) error {
	if err := validWeight(weight); err != nil {
		return fmt.Errorf("deal %s: %w", dealID, err)
	}
	m.mu.Lock()
	m.weights[dealID] = weight
	m.mu.Unlock()
	return nil
}

// Record applies an interaction and returns the deal's new weight.
func (m *Memory) Record(in models.Interaction) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.weights[in.DealID]
	if !ok {
		current = DefaultWeight
	}
	next := Apply(current, in.Kind)
	m.weights[in.DealID] = next
	return next, nil
}

// Replace swaps the full contents, e.g. after loading from a backing store.
func (m *Memory) Replace(weights map[string]float64) error {
	next := make(map[string]float64, len(weights))
	for id, w := range weights {
		if err := validWeight(w); err != nil {
			return fmt.Errorf("deal %s: %w", id, err)
		}
		next[id] = w
	}
	m.mu.Lock()
	m.weights = next
	m.mu.Unlock()
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.weights)
}

// Snapshot copies the current weights into an immutable Reader.
func (m *Memory) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]float64, len(m.weights))
	for id, w := range m.weights {
		out[id] = w
	}
	return Snapshot{weights: out}
}

// Snapshot is a frozen view of the history. The zero value reports DefaultWeight for every deal.
type Snapshot struct {
	weights map[string]float64
}

func (s Snapshot) Weight(dealID string) float64 {
	if w, ok := s.weights[dealID]; ok {
		return w
	}
	return DefaultWeight
}

func (s Snapshot) Len() int { return len(s.weights) }

// Each calls fn for every stored weight in unspecified order.
func (s Snapshot) Each(fn func(dealID string, weight float64)) {
	for id, w := range s.weights {
		fn(id, w)
	}
}

// Apply returns the weight after an interaction of the given kind, capped at 1.
func Apply(current float64, kind string) float64 {
	return math.Min(1, current+KindDeltas[kind])
}

func validWeight(w float64) error {
	if math.IsNaN(w) || w < 0 || w > 1 {
		return fmt.Errorf("%w (got %v)", ErrInvalidWeight, w)
	}
	return nil
}
