package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chrisdamba/dealradar/internal/history"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Import or export the shared interaction history",
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every stored deal weight to a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("out")
		if err := env.requireRedis("history export"); err != nil {
			return err
		}

		store, closeFn := env.redisStore()
		defer closeFn()

		mem, err := store.Load(cmd.Context())
		if err != nil {
			return err
		}
		weights := make(map[string]float64, mem.Len())
		mem.Snapshot().Each(func(dealID string, w float64) {
			weights[dealID] = w
		})
		if err := writeJSON(path, weights); err != nil {
			return fmt.Errorf("error writing history: %w", err)
		}
		env.log.Info("history exported", map[string]interface{}{"deals": len(weights), "path": path})
		return nil
	},
}

var historyImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the stored history with the deal weights in a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		if err := env.requireRedis("history import"); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("error reading history: %w", err)
		}
		var weights map[string]float64
		if err := json.Unmarshal(data, &weights); err != nil {
			return fmt.Errorf("error decoding history: %w", err)
		}

		mem := history.NewMemory()
		for dealID, w := range weights {
			if err := mem.Set(dealID, w); err != nil {
				return err
			}
		}

		store, closeFn := env.redisStore()
		defer closeFn()

		if err := store.Save(cmd.Context(), mem.Snapshot()); err != nil {
			return err
		}
		env.log.Info("history imported", map[string]interface{}{"deals": mem.Len(), "path": path})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyExportCmd, historyImportCmd)

	historyExportCmd.Flags().String("out", "history.json", "File to write")
	historyImportCmd.Flags().String("file", "", "JSON object of deal ID to weight in [0,1]")
	_ = historyImportCmd.MarkFlagRequired("file")
}
