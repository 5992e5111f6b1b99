package cmd

import (
	"fmt"
	"os"

	"github.com/chrisdamba/dealradar/internal/logger"
	"github.com/chrisdamba/dealradar/internal/metrics"
	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// env is the state shared by every subcommand for one invocation.
var env *app

var rootCmd = &cobra.Command{
	Use:   "dealradar",
	Short: "Ranks retail deals and nearby stores for a shopper",
	Long: `dealradar scores promotional deals against a shopper's category preferences, store
affinities and past interactions, and orders candidate stores by distance from the shopper.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		log, err := logger.NewStructured(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return fmt.Errorf("error creating logger: %w", err)
		}
		registry := prometheus.NewRegistry()
		env = &app{
			cfg:      cfg,
			log:      log.WithFields(map[string]interface{}{"command": cmd.Name()}),
			registry: registry,
			metrics:  metrics.New(registry),
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if env == nil {
			return nil
		}
		defer env.log.Sync()
		if env.cfg.MetricsFile == "" {
			return nil
		}
		if err := metrics.WriteTextfile(env.cfg.MetricsFile, env.registry); err != nil {
			return fmt.Errorf("error writing metrics: %w", err)
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./configs/dealradar.yaml)")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", "console", "Log format: console or json")
	flags.String("scorer", models.DefaultScorer, "Scoring strategy")
	flags.Int("workers", 1, "Goroutines used for scoring and ranking")
	flags.String("history-backend", "memory", "Interaction history backend: memory or redis")
	flags.String("redis-address", "localhost:6379", "Redis address for the redis history backend")
	flags.String("output", "console", "Output destination: console, file, kafka, parquet or sns")
	flags.String("output-path", ".", "Base path for file and parquet outputs")
	flags.String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file on exit")

	bindFlag("log.level", "log-level")
	bindFlag("log.format", "log-format")
	bindFlag("engine.scorer", "scorer")
	bindFlag("engine.workers", "workers")
	bindFlag("history.backend", "history-backend")
	bindFlag("history.redis.address", "redis-address")
	bindFlag("output.destination", "output")
	bindFlag("output.output_path", "output-path")
	bindFlag("output.kafka_broker_list", "kafka-broker-list")
	bindFlag("metrics_file", "metrics-file")
}

func bindFlag(key, flag string) {
	cobra.CheckErr(viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
