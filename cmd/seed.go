package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrisdamba/dealradar/internal/factories"
	"github.com/chrisdamba/dealradar/internal/ids"
	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/chrisdamba/dealradar/internal/repositories/postgres"
	"github.com/chrisdamba/dealradar/internal/request"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Fixtures is the file form of a seeded data set.
type Fixtures struct {
	Stores   []*models.Store       `json:"stores"`
	Deals    []*models.Deal        `json:"deals"`
	Profiles []*models.UserProfile `json:"profiles"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate fake stores, deals and shopper profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		target, _ := cmd.Flags().GetString("target")
		out, _ := cmd.Flags().GetString("out")
		reset, _ := cmd.Flags().GetBool("reset")
		categoriesFile, _ := cmd.Flags().GetString("categories-file")

		if categoriesFile != "" {
			if err := env.cfg.LoadCategoryData(categoriesFile); err != nil {
				return fmt.Errorf("error loading categories: %w", err)
			}
		}

		fixtures, err := generateFixtures(&env.cfg.Seed, env.cfg.IDs.Generator)
		if err != nil {
			return err
		}

		switch target {
		case "file":
			return writeFixtures(out, &env.cfg.Seed, fixtures)
		case "postgres":
			return storeFixtures(cmd.Context(), fixtures, reset)
		default:
			return fmt.Errorf("unsupported seed target: %s", target)
		}
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	flags := seedCmd.Flags()
	flags.String("target", "file", "Where to write fixtures: file or postgres")
	flags.String("out", "fixtures", "Directory for file fixtures")
	flags.Bool("reset", false, "Delete existing rows before inserting (postgres target)")
	flags.String("categories-file", "", "CSV file of deal categories, first column, with a header row")
	flags.Int64("seed", 42, "Random seed")
	flags.Int("stores", 50, "Number of stores")
	flags.Int("deals", 200, "Number of deals")
	flags.Int("profiles", 10, "Number of shopper profiles")

	for key, flag := range map[string]string{
		"seed.seed":     "seed",
		"seed.stores":   "stores",
		"seed.deals":    "deals",
		"seed.profiles": "profiles",
	} {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(flag)))
	}
}

func generateFixtures(cfg *models.SeedConfig, generator string) (*Fixtures, error) {
	gen, err := ids.New(generator)
	if err != nil {
		return nil, err
	}
	if len(cfg.Chains) == 0 {
		return nil, fmt.Errorf("seed.chains must not be empty")
	}

	storeFactory := factories.NewStoreFactory(gen, cfg.Seed)
	dealFactory := factories.NewDealFactory(gen, cfg.Seed+1)
	profileFactory := factories.NewProfileFactory(gen, cfg.Seed+2)

	f := &Fixtures{
		Stores:   make([]*models.Store, 0, cfg.Stores),
		Deals:    make([]*models.Deal, 0, cfg.Deals),
		Profiles: make([]*models.UserProfile, 0, cfg.Profiles),
	}

	bar := newProgressBar(cfg.Stores+cfg.Deals+cfg.Profiles, "generating fixtures")
	for i := 0; i < cfg.Stores; i++ {
		store := storeFactory.CreateStore(cfg)
		f.Stores = append(f.Stores, &store)
		_ = bar.Add(1)
	}
	for i := 0; i < cfg.Deals; i++ {
		deal, err := dealFactory.CreateDeal(cfg, cfg.Chains[i%len(cfg.Chains)])
		if err != nil {
			return nil, err
		}
		f.Deals = append(f.Deals, deal)
		_ = bar.Add(1)
	}
	for i := 0; i < cfg.Profiles; i++ {
		f.Profiles = append(f.Profiles, profileFactory.CreateProfile(cfg))
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return f, nil
}

// writeFixtures writes the full data set plus one ready-to-use request document for the first
// profile, centred on the configured city.
func writeFixtures(dir string, cfg *models.SeedConfig, f *Fixtures) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "fixtures.json"), f); err != nil {
		return err
	}

	if len(f.Profiles) > 0 {
		req := request.Request{
			Profile:  f.Profiles[0],
			Deals:    make([]models.Deal, 0, len(f.Deals)),
			Stores:   make([]models.Store, 0, len(f.Stores)),
			Origin:   &models.Location{Lat: cfg.CityLat, Lon: cfg.CityLon},
			RadiusKm: env.cfg.Engine.DefaultRadiusKm,
		}
		for _, d := range f.Deals {
			req.Deals = append(req.Deals, *d)
		}
		for _, s := range f.Stores {
			req.Stores = append(req.Stores, *s)
		}
		if err := writeJSON(filepath.Join(dir, "request.json"), req); err != nil {
			return err
		}
	}

	env.log.Info("fixtures written", map[string]interface{}{
		"dir":      dir,
		"stores":   len(f.Stores),
		"deals":    len(f.Deals),
		"profiles": len(f.Profiles),
	})
	return nil
}

func storeFixtures(ctx context.Context, f *Fixtures, reset bool) error {
	pool, err := postgres.NewPool(ctx, env.cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	stores := postgres.NewStoreRepository(pool)
	deals := postgres.NewDealRepository(pool)
	profiles := postgres.NewProfileRepository(pool)

	if reset {
		for name, del := range map[string]func(context.Context) error{
			"stores":   stores.DeleteAll,
			"deals":    deals.DeleteAll,
			"profiles": profiles.DeleteAll,
		} {
			if err := del(ctx); err != nil {
				return fmt.Errorf("error clearing %s: %w", name, err)
			}
		}
	}

	if err := stores.BulkCreate(ctx, f.Stores); err != nil {
		return fmt.Errorf("error inserting stores: %w", err)
	}
	if err := deals.BulkCreate(ctx, f.Deals); err != nil {
		return fmt.Errorf("error inserting deals: %w", err)
	}
	if err := profiles.BulkCreate(ctx, f.Profiles); err != nil {
		return fmt.Errorf("error inserting profiles: %w", err)
	}

	count, err := deals.Count(ctx)
	if err != nil {
		return err
	}
	env.log.Info("fixtures stored", map[string]interface{}{
		"stores":      len(f.Stores),
		"deals":       len(f.Deals),
		"profiles":    len(f.Profiles),
		"total_deals": count,
	})
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func newProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
