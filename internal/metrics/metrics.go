package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector groups the engine's instruments. A nil *Collector is valid and records nothing.
type Collector struct {
	DealsScored       prometheus.Counter
	DealsFiltered     *prometheus.CounterVec
	StoresRanked      prometheus.Counter
	StoresSkipped     prometheus.Counter
	RecommendDuration prometheus.Histogram
}

func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		DealsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dealradar_deals_scored_total",
			Help: "Total number of deals scored by the recommender",
		}),
		DealsFiltered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dealradar_deals_filtered_total",
			Help: "Deals dropped before scoring, by reason",
		}, []string{"reason"}),
		StoresRanked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dealradar_stores_ranked_total",
			Help: "Stores returned by nearby queries",
		}),
		StoresSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dealradar_stores_skipped_total",
			Help: "Stores rejected for invalid coordinates",
		}),
		RecommendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dealradar_recommend_duration_seconds",
			Help:    "Duration of recommend calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(c.DealsScored, c.DealsFiltered, c.StoresRanked, c.StoresSkipped, c.RecommendDuration)
	}
	return c
}

func (c *Collector) ObserveScored(n int) {
	if c == nil {
		return
	}
	c.DealsScored.Add(float64(n))
}

func (c *Collector) ObserveFiltered(reason string, n int) {
	if c == nil || n == 0 {
		return
	}
	c.DealsFiltered.WithLabelValues(reason).Add(float64(n))
}

func (c *Collector) ObserveStores(ranked, skipped int) {
	if c == nil {
		return
	}
	c.StoresRanked.Add(float64(ranked))
	c.StoresSkipped.Add(float64(skipped))
}

func (c *Collector) ObserveRecommend(start time.Time) {
	if c == nil {
		return
	}
	c.RecommendDuration.Observe(time.Since(start).Seconds())
}

// WriteTextfile dumps every metric in g to path in the Prometheus text format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
