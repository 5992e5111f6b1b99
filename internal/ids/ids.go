// Package ids provides the identifier generators used for seeded stores, deals and profiles.
package ids

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/lucsky/cuid"
)

const (
	KindCUID     = "cuid"
	KindUUID     = "uuid"
	KindSequence = "sequence"
)

var ErrUnknownGenerator = errors.New("unknown id generator")

type Generator interface {
	NewID() string
}

type CUID struct{}

func (CUID) NewID() string { return cuid.New() }

type UUID struct{}

func (UUID) NewID() string { return uuid.NewString() }

// Sequence yields Prefix-000001, Prefix-000002, ... and is safe for concurrent use.
type Sequence struct {
	Prefix string
	n      atomic.Uint64
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{Prefix: prefix}
}

func (s *Sequence) NewID() string {
	n := s.n.Add(1)
	if s.Prefix == "" {
		return fmt.Sprintf("%06d", n)
	}
	return fmt.Sprintf("%s-%06d", s.Prefix, n)
}

// New returns the generator configured under name. An empty name selects CUID.
func New(name string) (Generator, error) {
	switch name {
	case "", KindCUID:
		return CUID{}, nil
	case KindUUID:
		return UUID{}, nil
	case KindSequence:
		return NewSequence("id"), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGenerator, name)
	}
}
