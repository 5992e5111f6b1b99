package cmd

import (
	"fmt"
	"time"

	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/spf13/cobra"
)

var interactCmd = &cobra.Command{
	Use:   "interact",
	Short: "Record a view, click or redeem against the shared interaction history",
	RunE: func(cmd *cobra.Command, args []string) error {
		dealID, _ := cmd.Flags().GetString("deal")
		kind, _ := cmd.Flags().GetString("kind")

		if err := env.requireRedis("interact"); err != nil {
			return err
		}

		in := models.Interaction{DealID: dealID, Kind: kind, At: time.Now().UTC()}
		if err := in.Validate(); err != nil {
			return err
		}

		store, closeFn := env.redisStore()
		defer closeFn()

		weight, err := store.Record(cmd.Context(), in)
		if err != nil {
			return err
		}
		env.log.Info("interaction recorded", map[string]interface{}{
			"deal_id": dealID,
			"kind":    kind,
			"weight":  weight,
		})
		fmt.Fprintf(cmd.OutOrStdout(), "%s %.4f\n", dealID, weight)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(interactCmd)
	interactCmd.Flags().String("deal", "", "Deal ID")
	interactCmd.Flags().String("kind", models.InteractionView, "Interaction kind: view, click or redeem")
	_ = interactCmd.MarkFlagRequired("deal")
}
