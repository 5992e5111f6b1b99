package request

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRequest = `{
  "profile": {
    "user_id": "u1",
    "preferred_categories": ["Groceries"],
    "store_visit_history": {"Pick n Pay": 0.7}
  },
  "deals": [
    {
      "id": "d1",
      "title": "20% off Groceries",
      "store_chain": "Pick n Pay",
      "valid_from": "2026-10-12T00:00:00Z",
      "valid_to": "2026-10-19T00:00:00Z",
      "discount_percentage": 20,
      "categories": ["Groceries", "Household"]
    }
  ],
  "stores": [
    {"id": "s1", "name": "Pick n Pay Gardens", "chain": "Pick n Pay", "location": {"lat": -33.93, "lon": 18.41}},
    {"id": "s2", "chain": "Checkers", "location": {"lat": 123, "lon": 18.41}}
  ],
  "origin": {"lat": -33.9249, "lon": 18.4241},
  "radius_km": 5,
  "interactions": [{"deal_id": "d1", "kind": "click"}]
}`

func TestParse_Valid(t *testing.T) {
	req, err := Parse([]byte(validRequest))
	require.NoError(t, err)

	assert.Equal(t, "u1", req.Profile.UserID)
	assert.True(t, req.Profile.Prefers("Groceries"))
	assert.Equal(t, 0.7, req.Profile.Affinity(models.ChainPickNPay))
	require.Len(t, req.Deals, 1)
	assert.Equal(t, []string{"Groceries", "Household"}, req.Deals[0].Categories)
	require.Len(t, req.Stores, 2)
	require.Len(t, req.Interactions, 1)
	assert.Equal(t, models.InteractionClick, req.Interactions[0].Kind)

	filter := req.LocationFilter()
	require.NotNil(t, filter)
	assert.Equal(t, 5.0, filter.RadiusKm)
	assert.Equal(t, -33.9249, filter.Origin.Lat)
	assert.Len(t, filter.Stores, 2)
}

func TestParse_NoOriginMeansNoFilter(t *testing.T) {
	req, err := Parse([]byte(`{"profile": {"user_id": "u1"}}`))
	require.NoError(t, err)
	assert.Nil(t, req.LocationFilter())
	assert.Empty(t, req.Deals)
}

func TestParse_ProfileOptional(t *testing.T) {
	req, err := Parse([]byte(`{"origin": {"lat": -33.9249, "lon": 18.4241}, "stores": []}`))
	require.NoError(t, err)
	assert.Nil(t, req.Profile)
	assert.NotNil(t, req.LocationFilter())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"null profile", `{"profile": null}`},
		{"empty user id", `{"profile": {"user_id": ""}}`},
		{"unknown field", `{"profile": {"user_id": "u1"}, "extra": true}`},
		{"negative radius", `{"profile": {"user_id": "u1"}, "radius_km": -2}`},
		{"bad kind", `{"profile": {"user_id": "u1"}, "interactions": [{"deal_id": "d", "kind": "like"}]}`},
		{"discount range", `{"profile": {"user_id": "u1"}, "deals": [{"id": "d", "store_chain": "Spar", "valid_from": "2026-10-01T00:00:00Z", "valid_to": "2026-10-02T00:00:00Z", "discount_percentage": 150}]}`},
		{"affinity type", `{"profile": {"user_id": "u1", "store_visit_history": {"Spar": "high"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestParse_DealValidityWindow(t *testing.T) {
	doc := `{"profile": {"user_id": "u1"}, "deals": [{"id": "d", "store_chain": "Spar", "valid_from": "2026-10-02T00:00:00Z", "valid_to": "2026-10-01T00:00:00Z"}]}`
	_, err := Parse([]byte(doc))
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.ErrorIs(t, err, models.ErrInvalidValidity)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "request.json")
	require.NoError(t, os.WriteFile(path, []byte(validRequest), 0o644))

	req, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "u1", req.Profile.UserID)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
