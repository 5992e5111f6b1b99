// Package proximity filters and orders stores by distance from a reference point.
package proximity

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/chrisdamba/dealradar/internal/geo"
	"github.com/chrisdamba/dealradar/internal/models"
	"golang.org/x/sync/errgroup"
)

// DefaultRadiusKm applies when the caller does not choose a radius.
const DefaultRadiusKm = models.DefaultRadiusKm

// parallelThreshold is the batch size below which fanning out costs more than it saves.
const parallelThreshold = 256

var ErrInvalidRadius = errors.New("max distance must be greater than zero")

// StoreError reports a store that could not be ranked.
type StoreError struct {
	StoreID string `json:"store_id"`
	Err     error  `json:"-"`
	Reason  string `json:"reason"`
}

func (e StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.StoreID, e.Err)
}

func (e StoreError) Unwrap() error { return e.Err }

// Result is the outcome of a nearby query. Skipped lists stores that were rejected for bad
// data; stores that are merely too far away are not reported.
type Result struct {
	Stores  []models.RankedStore `json:"stores"`
	Skipped []StoreError         `json:"skipped,omitempty"`
}

type Ranker struct {
	workers int
}

// NewRanker returns a ranker that computes distances on up to workers goroutines.
func NewRanker(workers int) *Ranker {
	if workers < 1 {
		workers = 1
	}
	return &Ranker{workers: workers}
}

// NearbyDefault ranks stores within DefaultRadiusKm of origin.
func (r *Ranker) NearbyDefault(origin models.Location, stores []models.Store) (*Result, error) {
	return r.Nearby(origin, stores, DefaultRadiusKm)
}

// Nearby returns the stores within maxDistanceKm of origin (inclusive), closest first with
// ties ordered by store ID. A store with invalid coordinates is reported in Skipped and does
// not fail the call.
func (r *Ranker) Nearby(origin models.Location, stores []models.Store, maxDistanceKm float64) (*Result, error) {
	if math.IsNaN(maxDistanceKm) || maxDistanceKm <= 0 {
		return nil, fmt.Errorf("%w (got %v)", ErrInvalidRadius, maxDistanceKm)
	}
	if err := geo.Validate(origin); err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}

	distances := make([]float64, len(stores))
	errs := make([]error, len(stores))
	measure := func(i int) {
		distances[i], errs[i] = geo.Distance(origin, stores[i].Location)
	}

	if r.workers > 1 && len(stores) >= parallelThreshold {
		var g errgroup.Group
		g.SetLimit(r.workers)
		for i := range stores {
			i := i
			g.Go(func() error {
				measure(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range stores {
			measure(i)
		}
	}

	res := &Result{Stores: make([]models.RankedStore, 0, len(stores))}
	for i, store := range stores {
		if errs[i] != nil {
			res.Skipped = append(res.Skipped, StoreError{StoreID: store.ID, Err: errs[i], Reason: errs[i].Error()})
			continue
		}
		if distances[i] > maxDistanceKm {
			continue
		}
		res.Stores = append(res.Stores, models.RankedStore{Store: store, DistanceKm: distances[i]})
	}

	sort.SliceStable(res.Stores, func(i, j int) bool {
		if res.Stores[i].DistanceKm != res.Stores[j].DistanceKm {
			return res.Stores[i].DistanceKm < res.Stores[j].DistanceKm
		}
		return res.Stores[i].Store.ID < res.Stores[j].Store.ID
	})
	return res, nil
}

// Chains returns the distinct chain names among the ranked stores.
func (r *Result) Chains() map[string]struct{} {
	chains := make(map[string]struct{}, len(r.Stores))
	for _, rs := range r.Stores {
		chains[rs.Store.Chain] = struct{}{}
	}
	return chains
}
