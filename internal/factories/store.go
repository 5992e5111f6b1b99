package factories

import (
	"fmt"
	"math"

	"github.com/chrisdamba/dealradar/internal/geo"
	"github.com/chrisdamba/dealradar/internal/ids"
	"github.com/chrisdamba/dealradar/internal/models"
)

type StoreFactory struct {
	ids ids.Generator
	src source
}

func NewStoreFactory(gen ids.Generator, seed int64) *StoreFactory {
	return &StoreFactory{ids: gen, src: newSource(seed)}
}

// CreateStore places a store of a random configured chain uniformly inside the urban radius
// around the city centre.
func (sf *StoreFactory) CreateStore(cfg *models.SeedConfig) models.Store {
	center := models.Location{Lat: cfg.CityLat, Lon: cfg.CityLon}
	r := cfg.UrbanRadius * math.Sqrt(sf.src.rng.Float64())
	theta := sf.src.rng.Float64() * 2 * math.Pi

	chain := cfg.Chains[sf.src.rng.Intn(len(cfg.Chains))]
	suburb := sf.src.fake.Address().City()

	return models.Store{
		ID:       sf.ids.NewID(),
		Name:     fmt.Sprintf("%s %s", chain, suburb),
		Chain:    chain,
		Location: geo.Offset(center, r*math.Cos(theta), r*math.Sin(theta)),
		Address:  sf.src.fake.Address().StreetAddress() + ", " + suburb,
		Contact:  sf.src.fake.Phone().Number(),
		CardIDs:  []string{slugify(chain) + "-rewards"},
	}
}
