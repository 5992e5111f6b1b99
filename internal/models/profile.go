package models

import (
	"encoding/json"
	"sort"
)

// UserProfile holds the per-request personalization inputs. StoreVisitHistory maps a chain
// name to a visit-affinity weight that is nominally within [0,1]; producers of profiles are
// expected to enforce that range.
type UserProfile struct {
	UserID              string
	PreferredCategories map[string]struct{}
	StoreVisitHistory   map[string]float64
}

type userProfileJSON struct {
	UserID              string             `json:"user_id"`
	PreferredCategories []string           `json:"preferred_categories"`
	StoreVisitHistory   map[string]float64 `json:"store_visit_history"`
}

func NewUserProfile(userID string, categories []string, visits map[string]float64) *UserProfile {
	p := &UserProfile{
		UserID:              userID,
		PreferredCategories: make(map[string]struct{}, len(categories)),
		StoreVisitHistory:   make(map[string]float64, len(visits)),
	}
	for _, c := range categories {
		p.PreferredCategories[c] = struct{}{}
	}
	for chain, w := range visits {
		p.StoreVisitHistory[chain] = w
	}
	return p
}

func (p *UserProfile) Prefers(category string) bool {
	if p == nil {
		return false
	}
	_, ok := p.PreferredCategories[category]
	return ok
}

// Affinity returns the raw visit weight for a chain, 0 when the chain is unknown.
func (p *UserProfile) Affinity(chain string) float64 {
	if p == nil {
		return 0
	}
	return p.StoreVisitHistory[chain]
}

// Categories returns the preferred categories in sorted order.
func (p *UserProfile) Categories() []string {
	out := make([]string, 0, len(p.PreferredCategories))
	for c := range p.PreferredCategories {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// OutOfRangeAffinities lists chains whose weight lies outside [0,1].
func (p *UserProfile) OutOfRangeAffinities() []string {
	var chains []string
	for chain, w := range p.StoreVisitHistory {
		if w < 0 || w > 1 {
			chains = append(chains, chain)
		}
	}
	sort.Strings(chains)
	return chains
}

func (p *UserProfile) MarshalJSON() ([]byte, error) {
	return json.Marshal(userProfileJSON{
		UserID:              p.UserID,
		PreferredCategories: p.Categories(),
		StoreVisitHistory:   p.StoreVisitHistory,
	})
}

func (p *UserProfile) UnmarshalJSON(data []byte) error {
	var raw userProfileJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = *NewUserProfile(raw.UserID, raw.PreferredCategories, raw.StoreVisitHistory)
	return nil
}
