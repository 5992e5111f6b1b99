package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/chrisdamba/dealradar/internal/history"
	"github.com/chrisdamba/dealradar/internal/logger"
	"github.com/chrisdamba/dealradar/internal/metrics"
	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/chrisdamba/dealradar/internal/output"
	"github.com/chrisdamba/dealradar/internal/recommender"
	"github.com/chrisdamba/dealradar/internal/scoring"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

type app struct {
	cfg      *models.Config
	log      logger.Logger
	registry *prometheus.Registry
	metrics  *metrics.Collector
}

func (a *app) redisStore() (*history.RedisStore, func() error) {
	rc := a.cfg.History.Redis
	client := redis.NewClient(&redis.Options{
		Addr:         rc.Address,
		Password:     rc.Password,
		DB:           rc.DB,
		DialTimeout:  rc.Timeout,
		ReadTimeout:  rc.Timeout,
		WriteTimeout: rc.Timeout,
	})
	return history.NewRedisStore(client, rc.Key), client.Close
}

func (a *app) requireRedis(command string) error {
	if a.cfg.History.Backend != "redis" {
		return fmt.Errorf("%s needs history.backend=redis, got %q", command, a.cfg.History.Backend)
	}
	return nil
}

// loadHistory returns the interaction history for this run with interactions applied. The
// memory backend starts empty. The redis backend records each interaction on the server
// first, then loads every persisted weight.
func (a *app) loadHistory(ctx context.Context, interactions []models.Interaction) (*history.Memory, error) {
	if a.cfg.History.Backend != "redis" {
		mem := history.NewMemory()
		for _, in := range interactions {
			if _, err := mem.Record(in); err != nil {
				return nil, err
			}
		}
		return mem, nil
	}
	store, closeFn := a.redisStore()
	defer closeFn()

	for _, in := range interactions {
		if _, err := store.Record(ctx, in); err != nil {
			return nil, err
		}
	}
	mem, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	a.log.Debug("loaded interaction history", map[string]interface{}{
		"deals":    mem.Len(),
		"recorded": len(interactions),
	})
	return mem, nil
}

func (a *app) newRecommender(h history.Reader, activeAt time.Time) (*recommender.Recommender, error) {
	scorer, err := scoring.New(a.cfg.Engine.Scorer, h)
	if err != nil {
		return nil, err
	}
	opts := recommender.Options{
		Limit:    a.cfg.Engine.Limit,
		ActiveAt: activeAt,
		Workers:  a.cfg.Engine.Workers,
	}
	if opts.ActiveAt.IsZero() && a.cfg.Engine.ActiveOnly {
		opts.ActiveAt = time.Now()
	}
	return recommender.New(scorer, opts, a.log, a.metrics), nil
}

func (a *app) publisher(ctx context.Context) (*output.ResultPublisher, func() error, error) {
	dest, err := output.NewDestination(ctx, &a.cfg.Output, a.log)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating output destination: %w", err)
	}
	return output.NewResultPublisher(dest, &a.cfg.Output), dest.Close, nil
}
