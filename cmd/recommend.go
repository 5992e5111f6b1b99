package cmd

import (
	"fmt"
	"time"

	"github.com/chrisdamba/dealradar/internal/request"
	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank the deals in a request document for its shopper",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		path, _ := flags.GetString("request")
		limit, _ := flags.GetInt("limit")
		activeAtStr, _ := flags.GetString("active-at")

		req, err := request.Load(path)
		if err != nil {
			return err
		}
		if req.Profile == nil {
			return fmt.Errorf("%w: recommend needs a profile", request.ErrInvalidRequest)
		}

		var activeAt time.Time
		if activeAtStr != "" {
			activeAt, err = time.Parse(time.RFC3339, activeAtStr)
			if err != nil {
				return fmt.Errorf("invalid --active-at: %w", err)
			}
		}
		if flags.Changed("limit") {
			env.cfg.Engine.Limit = limit
		}

		ctx := cmd.Context()
		mem, err := env.loadHistory(ctx, req.Interactions)
		if err != nil {
			return err
		}

		rec, err := env.newRecommender(mem.Snapshot(), activeAt)
		if err != nil {
			return err
		}
		filter := req.LocationFilter()
		if filter != nil && filter.RadiusKm == 0 {
			filter.RadiusKm = env.cfg.Engine.DefaultRadiusKm
		}
		res, err := rec.Recommend(req.Deals, req.Profile, filter)
		if err != nil {
			return err
		}

		pub, closeFn, err := env.publisher(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := pub.PublishRecommendations(req.Profile.UserID, res.Deals, res.Breakdowns); err != nil {
			return err
		}
		if len(res.NearbyStores) > 0 {
			if err := pub.PublishNearby(req.Profile.UserID, res.NearbyStores); err != nil {
				return err
			}
		}

		env.log.Info("recommendations published", map[string]interface{}{
			"user_id":        req.Profile.UserID,
			"deals":          len(res.Deals),
			"nearby_stores":  len(res.NearbyStores),
			"skipped_stores": len(res.SkippedStores),
		})
		return closeFn()
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().StringP("request", "r", "", "Request document (JSON)")
	recommendCmd.Flags().Int("limit", 0, "Maximum number of deals to return (0 for all)")
	recommendCmd.Flags().String("active-at", "", "Only rank deals valid at this RFC3339 instant")
	_ = recommendCmd.MarkFlagRequired("request")
}
