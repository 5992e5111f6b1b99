package models

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	DefaultRadiusKm       = 10.0
	DefaultScorer         = "weighted"
	DefaultIDGenerator    = "cuid"
	DefaultHistoryKey     = "dealradar:interactions"
	DefaultRecommendTopic = "deal-recommendations"
	DefaultNearbyTopic    = "nearby-stores"
)

type Config struct {
	Log         LogConfig      `mapstructure:"log"`
	Engine      EngineConfig   `mapstructure:"engine"`
	History     HistoryConfig  `mapstructure:"history"`
	IDs         IDConfig       `mapstructure:"ids"`
	Database    DatabaseConfig `mapstructure:"database"`
	Output      OutputConfig   `mapstructure:"output"`
	Seed        SeedConfig     `mapstructure:"seed"`
	MetricsFile string         `mapstructure:"metrics_file"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type EngineConfig struct {
	Scorer          string  `mapstructure:"scorer"`
	DefaultRadiusKm float64 `mapstructure:"default_radius_km"`
	Workers         int     `mapstructure:"workers"`
	Limit           int     `mapstructure:"limit"`
	ActiveOnly      bool    `mapstructure:"active_only"`
}

type HistoryConfig struct {
	Backend string      `mapstructure:"backend"` // memory or redis
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Key      string        `mapstructure:"key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type IDConfig struct {
	Generator string `mapstructure:"generator"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"sslmode"`
	MaxConnections int32  `mapstructure:"max_connections"`
}

// DSN returns the connection string in pgx keyword/value form.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode, p.MaxConnections,
	)
}

type OutputConfig struct {
	Destination     string             `mapstructure:"destination"` // console, file, kafka, parquet, sns
	OutputPath      string             `mapstructure:"output_path"`
	OutputFolder    string             `mapstructure:"output_folder"`
	KafkaBrokerList string             `mapstructure:"kafka_broker_list"`
	RecommendTopic  string             `mapstructure:"recommend_topic"`
	NearbyTopic     string             `mapstructure:"nearby_topic"`
	CloudStorage    CloudStorageConfig `mapstructure:"cloud_storage"`
	SNS             SNSConfig          `mapstructure:"sns"`
}

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"` // empty for local files, s3
	Region     string `mapstructure:"region"`
	BucketName string `mapstructure:"bucket_name"`
}

type SNSConfig struct {
	Region   string `mapstructure:"region"`
	TopicARN string `mapstructure:"topic_arn"`
}

type SeedConfig struct {
	Seed        int64     `mapstructure:"seed"`
	Stores      int       `mapstructure:"stores"`
	Deals       int       `mapstructure:"deals"`
	Profiles    int       `mapstructure:"profiles"`
	CityLat     float64   `mapstructure:"city_latitude"`
	CityLon     float64   `mapstructure:"city_longitude"`
	UrbanRadius float64   `mapstructure:"urban_radius"`
	StartDate   time.Time `mapstructure:"start_date"`
	Chains      []string  `mapstructure:"chains"`
	Categories  []string  `mapstructure:"categories"`
}

// LoadConfig initializes and reads the configuration using Viper
func LoadConfig(cfgFile string) (*Config, error) {
	return loadConfig(viper.GetViper(), cfgFile)
}

func loadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	// a missing .env is fine, the process environment still applies
	_ = godotenv.Load()

	setDefaults(v)

	v.SetEnvPrefix("DEALRADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
		v.SetConfigName("dealradar")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	applyDefaults(&config)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("engine.scorer", DefaultScorer)
	v.SetDefault("engine.default_radius_km", DefaultRadiusKm)
	v.SetDefault("engine.workers", 1)
	v.SetDefault("engine.limit", 0)
	v.SetDefault("engine.active_only", false)
	v.SetDefault("history.backend", "memory")
	v.SetDefault("history.redis.address", "localhost:6379")
	v.SetDefault("history.redis.key", DefaultHistoryKey)
	v.SetDefault("history.redis.timeout", "3s")
	v.SetDefault("ids.generator", DefaultIDGenerator)
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "dealradar")
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.postgres.max_connections", 10)
	v.SetDefault("output.destination", "console")
	v.SetDefault("output.output_path", ".")
	v.SetDefault("output.output_folder", "output")
	v.SetDefault("output.kafka_broker_list", "localhost:9092")
	v.SetDefault("output.recommend_topic", DefaultRecommendTopic)
	v.SetDefault("output.nearby_topic", DefaultNearbyTopic)
	v.SetDefault("seed.seed", 42)
	v.SetDefault("seed.stores", 50)
	v.SetDefault("seed.deals", 200)
	v.SetDefault("seed.profiles", 10)
	v.SetDefault("seed.city_latitude", -33.9249)
	v.SetDefault("seed.city_longitude", 18.4241)
	v.SetDefault("seed.urban_radius", 15.0)
	v.SetDefault("seed.start_date", time.Now().UTC().Format(time.RFC3339))
	v.SetDefault("metrics_file", "")
}

func applyDefaults(cfg *Config) {
	if cfg.Engine.DefaultRadiusKm == 0 {
		cfg.Engine.DefaultRadiusKm = DefaultRadiusKm
	}
	if cfg.Engine.Workers < 1 {
		cfg.Engine.Workers = 1
	}
	if cfg.History.Redis.Key == "" {
		cfg.History.Redis.Key = DefaultHistoryKey
	}
	if len(cfg.Seed.Chains) == 0 {
		cfg.Seed.Chains = DefaultChains
	}
	if len(cfg.Seed.Categories) == 0 {
		cfg.Seed.Categories = DefaultCategories
	}
}

func (cfg *Config) Validate() error {
	if cfg.Engine.DefaultRadiusKm <= 0 {
		return fmt.Errorf("engine.default_radius_km must be > 0")
	}
	if cfg.Engine.Limit < 0 {
		return fmt.Errorf("engine.limit must be >= 0")
	}
	switch cfg.History.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("history.backend %q is not supported", cfg.History.Backend)
	}
	switch cfg.Output.Destination {
	case "console", "file", "kafka", "parquet", "sns":
	default:
		return fmt.Errorf("output.destination %q is not supported", cfg.Output.Destination)
	}
	if cfg.Output.Destination == "sns" && cfg.Output.SNS.TopicARN == "" {
		return fmt.Errorf("output.sns.topic_arn is required for the sns destination")
	}
	return nil
}

// LoadCategoryData reads deal categories from a CSV file with a header row; the first column
// holds the category name.
func (cfg *Config) LoadCategoryData(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	var categories []string
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if name := strings.TrimSpace(fields[0]); name != "" {
			categories = append(categories, name)
		}
	}
	if len(categories) > 0 {
		cfg.Seed.Categories = categories
	}
	return nil
}
