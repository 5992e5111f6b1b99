package recommender

import (
	"fmt"
	"testing"
	"time"

	"github.com/chrisdamba/dealradar/internal/geo"
	"github.com/chrisdamba/dealradar/internal/history"
	"github.com/chrisdamba/dealradar/internal/logger"
	"github.com/chrisdamba/dealradar/internal/metrics"
	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/chrisdamba/dealradar/internal/proximity"
	"github.com/chrisdamba/dealradar/internal/scoring"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	capeTown  = models.Location{Lat: -33.9249, Lon: 18.4241}
	weekStart = time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
)

func deal(id, chain string, categories ...string) models.Deal {
	return models.Deal{
		ID:                 id,
		Title:              "Deal " + id,
		StoreChain:         chain,
		ValidFrom:          weekStart,
		ValidTo:            weekStart.AddDate(0, 0, 7),
		DiscountPercentage: 15,
		Categories:         categories,
	}
}

func newTestRecommender(t *testing.T, h history.Reader, opts Options) *Recommender {
	t.Helper()
	return New(scoring.NewWeightedScorer(h), opts, logger.NewTestLogger(t), nil)
}

func TestRecommend_GroceriesScenario(t *testing.T) {
	profile := models.NewUserProfile("u1", []string{"Groceries"}, map[string]float64{models.ChainPickNPay: 0.7})
	deals := []models.Deal{deal("d1", models.ChainPickNPay, "Groceries", "Household")}

	res, err := newTestRecommender(t, history.NewMemory(), Options{}).Recommend(deals, profile, nil)
	require.NoError(t, err)
	require.Len(t, res.Deals, 1)
	assert.InDelta(t, 0.44, res.Deals[0].Score, 1e-9)
	assert.Zero(t, deals[0].Score, "input must not be modified")
}

func TestRecommend_EmptyInput(t *testing.T) {
	profile := models.NewUserProfile("u1", []string{"Groceries"}, nil)

	for _, deals := range [][]models.Deal{nil, {}} {
		res, err := newTestRecommender(t, nil, Options{}).Recommend(deals, profile, nil)
		require.NoError(t, err)
		assert.NotNil(t, res.Deals)
		assert.Empty(t, res.Deals)
	}
}

func TestRecommend_OrderedByScoreThenID(t *testing.T) {
	profile := models.NewUserProfile("u1", []string{"Dairy", "Bakery"}, map[string]float64{
		models.ChainCheckers:   0.9,
		models.ChainWoolworths: 0.2,
	})
	deals := []models.Deal{
		deal("z-tie", models.ChainSpar, "Toys"),
		deal("low", models.ChainWoolworths, "Toys"),
		deal("top", models.ChainCheckers, "Dairy", "Bakery"),
		deal("a-tie", models.ChainSpar, "Toys"),
		deal("mid", models.ChainCheckers, "Dairy", "Toys"),
	}

	res, err := newTestRecommender(t, nil, Options{}).Recommend(deals, profile, nil)
	require.NoError(t, err)

	ids := make([]string, 0, len(res.Deals))
	for i, d := range res.Deals {
		ids = append(ids, d.ID)
		if i > 0 {
			assert.GreaterOrEqual(t, res.Deals[i-1].Score, d.Score)
		}
	}
	assert.Equal(t, []string{"top", "mid", "low", "a-tie", "z-tie"}, ids)
}

func TestRecommend_DeduplicatesByID(t *testing.T) {
	first := deal("dup", models.ChainSpar, "Dairy")
	second := deal("dup", models.ChainSpar, "Bakery")
	profile := models.NewUserProfile("u1", []string{"Dairy"}, nil)

	res, err := newTestRecommender(t, nil, Options{}).Recommend([]models.Deal{first, second, deal("other", models.ChainSpar)}, profile, nil)
	require.NoError(t, err)
	require.Len(t, res.Deals, 2)

	seen := map[string]int{}
	for _, d := range res.Deals {
		seen[d.ID]++
	}
	assert.Equal(t, 1, seen["dup"])
	assert.Equal(t, []string{"Dairy"}, res.Deals[0].Categories)
}

func TestRecommend_LocationFilter(t *testing.T) {
	profile := models.NewUserProfile("u1", []string{"Groceries"}, nil)
	deals := []models.Deal{
		deal("pnp", models.ChainPickNPay, "Groceries"),
		deal("checkers", models.ChainCheckers, "Groceries"),
		deal("unknown", "Corner Cafe", "Groceries"),
	}
	filter := &LocationFilter{
		Origin: capeTown,
		Stores: []models.Store{
			{ID: "s-near", Chain: models.ChainPickNPay, Location: geo.Offset(capeTown, 3, 0)},
			{ID: "s-far", Chain: models.ChainCheckers, Location: geo.Offset(capeTown, 12, 0)},
			{ID: "s-bad", Chain: models.ChainCheckers, Location: models.Location{Lat: 91}},
		},
	}

	res, err := newTestRecommender(t, nil, Options{}).Recommend(deals, profile, filter)
	require.NoError(t, err)

	require.Len(t, res.Deals, 1)
	assert.Equal(t, "pnp", res.Deals[0].ID)
	require.Len(t, res.NearbyStores, 1)
	assert.Equal(t, "s-near", res.NearbyStores[0].Store.ID)
	require.Len(t, res.SkippedStores, 1)
	assert.Equal(t, "s-bad", res.SkippedStores[0].StoreID)

	filter.RadiusKm = 15
	res, err = newTestRecommender(t, nil, Options{}).Recommend(deals, profile, filter)
	require.NoError(t, err)
	assert.Len(t, res.Deals, 2)
}

func TestRecommend_LocationFilterErrors(t *testing.T) {
	profile := models.NewUserProfile("u1", nil, nil)
	deals := []models.Deal{deal("d", models.ChainSpar)}
	r := newTestRecommender(t, nil, Options{})

	_, err := r.Recommend(deals, profile, &LocationFilter{Origin: capeTown, RadiusKm: -1})
	assert.ErrorIs(t, err, proximity.ErrInvalidRadius)

	_, err = r.Recommend(deals, profile, &LocationFilter{Origin: models.Location{Lat: 0, Lon: 200}})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
}

func TestRecommend_LimitAndActiveAt(t *testing.T) {
	profile := models.NewUserProfile("u1", []string{"Dairy"}, nil)
	expired := deal("expired", models.ChainSpar, "Dairy")
	expired.ValidFrom = weekStart.AddDate(0, -1, 0)
	expired.ValidTo = weekStart.AddDate(0, 0, -1)
	deals := []models.Deal{expired, deal("b", models.ChainSpar, "Dairy"), deal("a", models.ChainSpar, "Dairy"), deal("c", models.ChainSpar)}

	res, err := newTestRecommender(t, nil, Options{Limit: 2}).Recommend(deals, profile, nil)
	require.NoError(t, err)
	require.Len(t, res.Deals, 2)
	assert.Equal(t, "a", res.Deals[0].ID)
	assert.Equal(t, "b", res.Deals[1].ID)

	res, err = newTestRecommender(t, nil, Options{ActiveAt: weekStart.Add(time.Hour)}).Recommend(deals, profile, nil)
	require.NoError(t, err)
	require.Len(t, res.Deals, 3)
	for _, d := range res.Deals {
		assert.NotEqual(t, "expired", d.ID)
	}
}

func TestRecommend_UsesHistory(t *testing.T) {
	h := history.NewMemory()
	_, err := h.Record(models.Interaction{DealID: "clicked", Kind: models.InteractionRedeem})
	require.NoError(t, err)

	profile := models.NewUserProfile("u1", nil, nil)
	res, err := newTestRecommender(t, h, Options{}).Recommend([]models.Deal{deal("plain", models.ChainSpar), deal("clicked", models.ChainSpar)}, profile, nil)
	require.NoError(t, err)
	require.Len(t, res.Deals, 2)
	assert.Equal(t, "clicked", res.Deals[0].ID)
	assert.InDelta(t, 0.12, res.Deals[0].Score, 1e-9)
	assert.InDelta(t, 0.03, res.Deals[1].Score, 1e-9)
}

func TestRecommend_ParallelMatchesSequential(t *testing.T) {
	profile := models.NewUserProfile("u1", []string{"Dairy", "Snacks"}, map[string]float64{models.ChainSpar: 0.4, models.ChainShoprite: 0.8})
	categories := []string{"Dairy", "Snacks", "Toys", "Household"}
	deals := make([]models.Deal, 0, 1000)
	for i := 0; i < 1000; i++ {
		chain := models.DefaultChains[i%len(models.DefaultChains)]
		deals = append(deals, deal(fmt.Sprintf("deal-%04d", i), chain, categories[i%4], categories[(i/4)%4]))
	}

	seq, err := newTestRecommender(t, nil, Options{Workers: 1}).Recommend(deals, profile, nil)
	require.NoError(t, err)
	par, err := newTestRecommender(t, nil, Options{Workers: 8}).Recommend(deals, profile, nil)
	require.NoError(t, err)
	assert.Equal(t, seq.Deals, par.Deals)
}

func TestRecommend_NilProfileAndOutOfRangeAffinity(t *testing.T) {
	r := newTestRecommender(t, nil, Options{})

	res, err := r.Recommend([]models.Deal{deal("d", models.ChainSpar, "Dairy")}, nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.03, res.Deals[0].Score, 1e-9)

	profile := models.NewUserProfile("u1", nil, map[string]float64{models.ChainSpar: 5})
	res, err = r.Recommend([]models.Deal{deal("d", models.ChainSpar)}, profile, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.53, res.Deals[0].Score, 1e-9)
}

func TestRecommend_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	r := New(scoring.NewWeightedScorer(nil), Options{}, nil, m)

	deals := []models.Deal{deal("a", models.ChainSpar), deal("a", models.ChainSpar), deal("b", models.ChainCheckers)}
	filter := &LocationFilter{
		Origin: capeTown,
		Stores: []models.Store{{ID: "s", Chain: models.ChainSpar, Location: capeTown}},
	}
	_, err := r.Recommend(deals, nil, filter)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DealsScored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DealsFiltered.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DealsFiltered.WithLabelValues("location")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoresRanked))
}

type flatScorer struct{}

func (flatScorer) Score(*models.Deal, *models.UserProfile) float64 { return 0.5 }

func TestRecommend_Breakdowns(t *testing.T) {
	profile := models.NewUserProfile("u1", []string{"Groceries"}, map[string]float64{models.ChainPickNPay: 0.7})
	deals := []models.Deal{
		deal("d1", models.ChainPickNPay, "Groceries", "Household"),
		deal("d2", models.ChainSpar, "Toys"),
	}

	res, err := newTestRecommender(t, nil, Options{Limit: 1}).Recommend(deals, profile, nil)
	require.NoError(t, err)
	require.Len(t, res.Breakdowns, 1)
	b := res.Breakdowns["d1"]
	assert.InDelta(t, 0.5, b.CategoryMatch, 1e-9)
	assert.InDelta(t, 0.7, b.StorePreference, 1e-9)
	assert.InDelta(t, 0.1, b.HistoricalInteraction, 1e-9)
	assert.Equal(t, res.Deals[0].Score, b.Total)

	res, err = New(flatScorer{}, Options{}, nil, nil).Recommend(deals, profile, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Breakdowns)
	assert.Equal(t, 0.5, res.Deals[0].Score)
}

func TestRecommendNear_SharesOneRanking(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	r := New(scoring.NewWeightedScorer(nil), Options{}, nil, m)

	stores := []models.Store{
		{ID: "s-near", Chain: models.ChainPickNPay, Location: geo.Offset(capeTown, 3, 0)},
		{ID: "s-far", Chain: models.ChainCheckers, Location: geo.Offset(capeTown, 12, 0)},
		{ID: "s-bad", Chain: models.ChainCheckers, Location: models.Location{Lat: 91}},
	}
	deals := []models.Deal{deal("pnp", models.ChainPickNPay), deal("checkers", models.ChainCheckers)}

	nearby, err := r.Nearby(capeTown, stores, 0)
	require.NoError(t, err)
	require.Len(t, nearby.Stores, 1)

	for _, user := range []string{"u1", "u2", "u3"} {
		res := r.RecommendNear(deals, models.NewUserProfile(user, nil, nil), nearby)
		require.Len(t, res.Deals, 1)
		assert.Equal(t, "pnp", res.Deals[0].ID)
		assert.Len(t, res.SkippedStores, 1)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoresRanked))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoresSkipped))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DealsFiltered.WithLabelValues("location")))

	res := r.RecommendNear(deals, nil, nil)
	assert.Len(t, res.Deals, 2)
}
