package factories

import (
	"math"

	"github.com/chrisdamba/dealradar/internal/ids"
	"github.com/chrisdamba/dealradar/internal/models"
)

// visitRatio is the share of chains a generated user has visited.
const visitRatio = 0.6

type ProfileFactory struct {
	ids ids.Generator
	src source
}

func NewProfileFactory(gen ids.Generator, seed int64) *ProfileFactory {
	return &ProfileFactory{ids: gen, src: newSource(seed)}
}

// CreateProfile draws one to four preferred categories and an affinity in [0,1] for a subset
// of the configured chains.
func (pf *ProfileFactory) CreateProfile(cfg *models.SeedConfig) *models.UserProfile {
	visits := make(map[string]float64, len(cfg.Chains))
	for _, chain := range cfg.Chains {
		if pf.src.rng.Float64() < visitRatio {
			visits[chain] = math.Round(pf.src.rng.Float64()*100) / 100
		}
	}
	return models.NewUserProfile(pf.ids.NewID(), pf.src.pick(cfg.Categories, 1, 4), visits)
}
