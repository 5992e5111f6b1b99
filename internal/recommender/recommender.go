// Package recommender combines proximity filtering and personalized scoring into one ranked
// list of deals for a user.
package recommender

import (
	"fmt"
	"sort"
	"time"

	"github.com/chrisdamba/dealradar/internal/logger"
	"github.com/chrisdamba/dealradar/internal/metrics"
	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/chrisdamba/dealradar/internal/proximity"
	"github.com/chrisdamba/dealradar/internal/scoring"
	"golang.org/x/sync/errgroup"
)

// scoreChunk is the number of deals one goroutine scores when Workers > 1.
const scoreChunk = 128

// LocationFilter restricts recommendations to chains with a store near Origin. A zero
// RadiusKm means the default radius.
type LocationFilter struct {
	Origin   models.Location `json:"origin"`
	RadiusKm float64         `json:"radius_km"`
	Stores   []models.Store  `json:"stores"`
}

type Options struct {
	// Limit caps the number of returned deals; 0 returns all.
	Limit int
	// ActiveAt drops deals outside their validity window at that instant when non-zero.
	ActiveAt time.Time
	Workers  int
}

type Result struct {
	Deals         []models.Deal          `json:"deals"`
	NearbyStores  []models.RankedStore   `json:"nearby_stores,omitempty"`
	SkippedStores []proximity.StoreError `json:"skipped_stores,omitempty"`

	// Breakdowns holds the score components of each returned deal, keyed by deal ID, when
	// the scorer implements scoring.Explainer.
	Breakdowns map[string]scoring.Breakdown `json:"breakdowns,omitempty"`
}

type Recommender struct {
	scorer  scoring.Scorer
	ranker  *proximity.Ranker
	opts    Options
	log     logger.Logger
	metrics *metrics.Collector
}

// New builds a Recommender. log and m may be nil.
func New(scorer scoring.Scorer, opts Options, log logger.Logger, m *metrics.Collector) *Recommender {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Recommender{
		scorer:  scorer,
		ranker:  proximity.NewRanker(opts.Workers),
		opts:    opts,
		log:     log,
		metrics: m,
	}
}

// Nearby exposes the underlying ranker so callers share one worker setting. A zero
// maxDistanceKm uses proximity.DefaultRadiusKm.
func (r *Recommender) Nearby(origin models.Location, stores []models.Store, maxDistanceKm float64) (*proximity.Result, error) {
	var (
		res *proximity.Result
		err error
	)
	if maxDistanceKm == 0 {
		res, err = r.ranker.NearbyDefault(origin, stores)
	} else {
		res, err = r.ranker.Nearby(origin, stores, maxDistanceKm)
	}
	if err != nil {
		return nil, err
	}
	r.metrics.ObserveStores(len(res.Stores), len(res.Skipped))
	r.logSkipped(res.Skipped)
	return res, nil
}

// Recommend scores deals for profile and returns copies ordered by score descending, ties by
// deal ID. With a filter, only deals of chains that have a store within the radius survive.
// The input slice and profile are never modified.
func (r *Recommender) Recommend(deals []models.Deal, profile *models.UserProfile, filter *LocationFilter) (*Result, error) {
	start := time.Now()

	var nearby *proximity.Result
	if filter != nil {
		var err error
		nearby, err = r.Nearby(filter.Origin, filter.Stores, filter.RadiusKm)
		if err != nil {
			return nil, fmt.Errorf("location filter: %w", err)
		}
	}
	return r.rank(start, deals, profile, nearby), nil
}

// RecommendNear is Recommend with the nearby stores already ranked, so one Nearby result can
// serve many profiles. A nil nearby applies no location filter.
func (r *Recommender) RecommendNear(deals []models.Deal, profile *models.UserProfile, nearby *proximity.Result) *Result {
	return r.rank(time.Now(), deals, profile, nearby)
}

func (r *Recommender) rank(start time.Time, deals []models.Deal, profile *models.UserProfile, nearby *proximity.Result) *Result {
	defer r.metrics.ObserveRecommend(start)

	res := &Result{Deals: []models.Deal{}}

	var chains map[string]struct{}
	if nearby != nil {
		res.NearbyStores = nearby.Stores
		res.SkippedStores = nearby.Skipped
		chains = nearby.Chains()
	}

	if profile != nil {
		if bad := profile.OutOfRangeAffinities(); len(bad) > 0 {
			r.log.Warn("store affinity outside [0,1], using raw value", map[string]interface{}{
				"user_id": profile.UserID,
				"chains":  bad,
			})
		}
	}

	candidates := make([]models.Deal, 0, len(deals))
	seen := make(map[string]struct{}, len(deals))
	var duplicates, inactive, outOfRange int
	for i := range deals {
		d := deals[i]
		if _, ok := seen[d.ID]; ok {
			duplicates++
			continue
		}
		seen[d.ID] = struct{}{}
		if !r.opts.ActiveAt.IsZero() && !d.IsActive(r.opts.ActiveAt) {
			inactive++
			continue
		}
		if chains != nil {
			if _, ok := chains[d.StoreChain]; !ok {
				outOfRange++
				continue
			}
		}
		d.Categories = append([]string(nil), d.Categories...)
		candidates = append(candidates, d)
	}
	r.metrics.ObserveFiltered("duplicate", duplicates)
	r.metrics.ObserveFiltered("inactive", inactive)
	r.metrics.ObserveFiltered("location", outOfRange)

	breakdowns := r.score(candidates, profile)
	r.metrics.ObserveScored(len(candidates))

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})
	if r.opts.Limit > 0 && len(candidates) > r.opts.Limit {
		candidates = candidates[:r.opts.Limit]
	}
	res.Deals = candidates

	if breakdowns != nil {
		res.Breakdowns = make(map[string]scoring.Breakdown, len(candidates))
		for _, d := range candidates {
			res.Breakdowns[d.ID] = breakdowns[d.ID]
		}
	}

	r.log.Debug("recommendation complete", map[string]interface{}{
		"input":      len(deals),
		"returned":   len(res.Deals),
		"duplicates": duplicates,
		"inactive":   inactive,
		"filtered":   outOfRange,
		"took":       time.Since(start).String(),
	})
	return res
}

// score sets Score on every deal. When the scorer is an Explainer it also returns the
// breakdown of each deal keyed by ID.
func (r *Recommender) score(deals []models.Deal, profile *models.UserProfile) map[string]scoring.Breakdown {
	explainer, _ := r.scorer.(scoring.Explainer)
	var parts []scoring.Breakdown
	if explainer != nil {
		parts = make([]scoring.Breakdown, len(deals))
	}
	scoreOne := func(i int) {
		if explainer != nil {
			parts[i] = explainer.Explain(&deals[i], profile)
			deals[i].Score = parts[i].Total
			return
		}
		deals[i].Score = r.scorer.Score(&deals[i], profile)
	}

	if r.opts.Workers <= 1 || len(deals) <= scoreChunk {
		for i := range deals {
			scoreOne(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(r.opts.Workers)
		for lo := 0; lo < len(deals); lo += scoreChunk {
			lo := lo
			hi := min(lo+scoreChunk, len(deals))
			g.Go(func() error {
				for i := lo; i < hi; i++ {
					scoreOne(i)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	if explainer == nil {
		return nil
	}
	out := make(map[string]scoring.Breakdown, len(deals))
	for i, d := range deals {
		out[d.ID] = parts[i]
	}
	return out
}

func (r *Recommender) logSkipped(skipped []proximity.StoreError) {
	for _, s := range skipped {
		r.log.Warn("store skipped", map[string]interface{}{
			"store_id": s.StoreID,
			"reason":   s.Reason,
		})
	}
}
