package factories

import (
	"fmt"
	"time"

	"github.com/chrisdamba/dealradar/internal/ids"
	"github.com/chrisdamba/dealradar/internal/models"
)

var dealTemplates = []string{
	"%.0f%% off %s",
	"Save %.0f%% on %s",
	"%s: %.0f%% member discount",
}

type DealFactory struct {
	ids ids.Generator
	src source
}

func NewDealFactory(gen ids.Generator, seed int64) *DealFactory {
	return &DealFactory{ids: gen, src: newSource(seed)}
}

// CreateDeal builds a valid deal for chain. Validity starts within a week either side of the
// configured start date and lasts one to three weeks.
func (df *DealFactory) CreateDeal(cfg *models.SeedConfig, chain string) (*models.Deal, error) {
	categories := df.src.pick(cfg.Categories, 1, 3)
	headline := "selected items"
	if len(categories) > 0 {
		headline = categories[0]
	}
	discount := df.src.fake.Float64(0, 5, 60)

	validFrom := df.src.fake.Time().TimeBetween(cfg.StartDate.AddDate(0, 0, -7), cfg.StartDate.AddDate(0, 0, 7)).Truncate(time.Hour)
	validTo := validFrom.AddDate(0, 0, df.src.fake.IntBetween(7, 21))

	return models.NewDeal(
		df.ids.NewID(),
		df.title(discount, headline),
		df.src.fake.Lorem().Sentence(10),
		chain,
		validFrom.UTC(),
		validTo.UTC(),
		discount,
		categories,
	)
}

func (df *DealFactory) title(discount float64, category string) string {
	switch i := df.src.rng.Intn(len(dealTemplates)); i {
	case 2:
		return fmt.Sprintf(dealTemplates[i], category, discount)
	default:
		return fmt.Sprintf(dealTemplates[i], discount, category)
	}
}
