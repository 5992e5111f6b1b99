// Package scoring turns a (deal, profile) pair into a relevance score.
package scoring

import (
	"github.com/chrisdamba/dealradar/internal/history"
	"github.com/chrisdamba/dealradar/internal/models"
)

const (
	CategoryWeight    = 0.4
	StoreWeight       = 0.3
	InteractionWeight = 0.3
)

// Scorer is implemented by every scoring strategy. Implementations must be deterministic
// for identical inputs and history contents.
type Scorer interface {
	Score(deal *models.Deal, profile *models.UserProfile) float64
}

// Explainer is implemented by scorers that can report the components of a score.
type Explainer interface {
	Explain(deal *models.Deal, profile *models.UserProfile) Breakdown
}

// Breakdown exposes the components behind a weighted score.
type Breakdown struct {
	CategoryMatch         float64 `json:"category_match"`
	StorePreference       float64 `json:"store_preference"`
	HistoricalInteraction float64 `json:"historical_interaction"`
	Total                 float64 `json:"total"`
}

// WeightedScorer is the fixed linear blend of category match, store affinity and past
// interaction.
type WeightedScorer struct {
	history history.Reader
}

func NewWeightedScorer(h history.Reader) *WeightedScorer {
	if h == nil {
		h = history.Snapshot{}
	}
	return &WeightedScorer{history: h}
}

func (s *WeightedScorer) Score(deal *models.Deal, profile *models.UserProfile) float64 {
	return s.Explain(deal, profile).Total
}

func (s *WeightedScorer) Explain(deal *models.Deal, profile *models.UserProfile) Breakdown {
	b := Breakdown{
		CategoryMatch:         CategoryMatch(deal, profile),
		StorePreference:       StorePreference(deal, profile),
		HistoricalInteraction: s.history.Weight(deal.ID),
	}
	b.Total = CategoryWeight*b.CategoryMatch + StoreWeight*b.StorePreference + InteractionWeight*b.HistoricalInteraction
	return b
}

// CategoryMatch is the share of the deal's distinct tags that the user prefers, 0 for an
// untagged deal.
func CategoryMatch(deal *models.Deal, profile *models.UserProfile) float64 {
	tags := deal.CategorySet()
	if len(tags) == 0 {
		return 0
	}
	matched := 0
	for tag := range tags {
		if profile.Prefers(tag) {
			matched++
		}
	}
	return float64(matched) / float64(len(tags))
}

// StorePreference is the profile's raw affinity for the deal's chain. Values outside [0,1]
// are passed through unchanged.
func StorePreference(deal *models.Deal, profile *models.UserProfile) float64 {
	return profile.Affinity(deal.StoreChain)
}
