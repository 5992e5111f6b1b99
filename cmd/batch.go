package cmd

import (
	"fmt"
	"time"

	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/chrisdamba/dealradar/internal/proximity"
	"github.com/chrisdamba/dealradar/internal/repositories/postgres"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Recommend deals for every stored shopper profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		lat, _ := flags.GetFloat64("lat")
		lon, _ := flags.GetFloat64("lon")
		radius, _ := flags.GetFloat64("radius")
		userID, _ := flags.GetString("user")
		useOrigin := flags.Changed("lat") || flags.Changed("lon")
		if radius == 0 {
			radius = env.cfg.Engine.DefaultRadiusKm
		}

		ctx := cmd.Context()
		pool, err := postgres.NewPool(ctx, env.cfg.Database.Postgres)
		if err != nil {
			return err
		}
		defer pool.Close()

		dealRepo := postgres.NewDealRepository(pool)
		var dealPtrs []*models.Deal
		if env.cfg.Engine.ActiveOnly {
			dealPtrs, err = dealRepo.GetActive(ctx, time.Now())
		} else {
			dealPtrs, err = dealRepo.GetAll(ctx)
		}
		if err != nil {
			return fmt.Errorf("error loading deals: %w", err)
		}
		profileRepo := postgres.NewProfileRepository(pool)
		var profiles []*models.UserProfile
		if userID != "" {
			p, err := profileRepo.GetByUserID(ctx, userID)
			if err != nil {
				return fmt.Errorf("error loading profile: %w", err)
			}
			profiles = []*models.UserProfile{p}
		} else {
			profiles, err = profileRepo.GetAll(ctx)
			if err != nil {
				return fmt.Errorf("error loading profiles: %w", err)
			}
		}
		deals := deref(dealPtrs)

		mem, err := env.loadHistory(ctx, nil)
		if err != nil {
			return err
		}
		// history is shared read-only across profiles
		rec, err := env.newRecommender(mem.Snapshot(), time.Time{})
		if err != nil {
			return err
		}

		// stores are ranked once and the result shared by every profile
		var nearby *proximity.Result
		if useOrigin {
			storePtrs, err := postgres.NewStoreRepository(pool).GetAll(ctx)
			if err != nil {
				return fmt.Errorf("error loading stores: %w", err)
			}
			nearby, err = rec.Nearby(models.Location{Lat: lat, Lon: lon}, deref(storePtrs), radius)
			if err != nil {
				return fmt.Errorf("location filter: %w", err)
			}
		}

		pub, closeFn, err := env.publisher(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		bar := newProgressBar(len(profiles), "recommending")
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(env.cfg.Engine.Workers)
		for _, profile := range profiles {
			profile := profile
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				res := rec.RecommendNear(deals, profile, nearby)
				if err := pub.PublishRecommendations(profile.UserID, res.Deals, res.Breakdowns); err != nil {
					return fmt.Errorf("profile %s: %w", profile.UserID, err)
				}
				_ = bar.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		_ = bar.Finish()

		env.log.Info("batch complete", map[string]interface{}{
			"profiles": len(profiles),
			"deals":    len(deals),
		})
		return closeFn()
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().Float64("lat", 0, "Latitude of the location filter origin")
	batchCmd.Flags().Float64("lon", 0, "Longitude of the location filter origin")
	batchCmd.Flags().Float64("radius", 0, "Location filter radius in km (0 for the default)")
	batchCmd.Flags().String("user", "", "Only recommend for this stored profile")
}

func deref[T any](ptrs []*T) []T {
	out := make([]T, 0, len(ptrs))
	for _, p := range ptrs {
		out = append(out, *p)
	}
	return out
}
