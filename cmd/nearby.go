package cmd

import (
	"fmt"
	"time"

	"github.com/chrisdamba/dealradar/internal/request"
	"github.com/spf13/cobra"
)

var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "List the stores in a request document closest to its origin",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("request")
		radius, _ := cmd.Flags().GetFloat64("radius")

		req, err := request.Load(path)
		if err != nil {
			return err
		}
		if req.Origin == nil {
			return fmt.Errorf("%w: nearby needs an origin", request.ErrInvalidRequest)
		}
		if !cmd.Flags().Changed("radius") {
			radius = req.RadiusKm
		}
		if radius == 0 {
			radius = env.cfg.Engine.DefaultRadiusKm
		}

		rec, err := env.newRecommender(nil, time.Time{})
		if err != nil {
			return err
		}
		res, err := rec.Nearby(*req.Origin, req.Stores, radius)
		if err != nil {
			return err
		}

		pub, closeFn, err := env.publisher(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		var userID string
		if req.Profile != nil {
			userID = req.Profile.UserID
		}
		if err := pub.PublishNearby(userID, res.Stores); err != nil {
			return err
		}
		env.log.Info("nearby stores published", map[string]interface{}{
			"origin":    req.Origin.String(),
			"radius_km": radius,
			"stores":    len(res.Stores),
			"skipped":   len(res.Skipped),
		})
		return closeFn()
	},
}

func init() {
	rootCmd.AddCommand(nearbyCmd)
	nearbyCmd.Flags().StringP("request", "r", "", "Request document (JSON) with origin and stores")
	nearbyCmd.Flags().Float64("radius", 0, "Search radius in km (defaults to the request value, then the configured default)")
	_ = nearbyCmd.MarkFlagRequired("request")
}
