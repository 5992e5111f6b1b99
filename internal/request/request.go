// Package request loads recommendation request documents for the CLI.
package request

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chrisdamba/dealradar/internal/models"
	"github.com/chrisdamba/dealradar/internal/recommender"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var ErrInvalidRequest = errors.New("invalid request")

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Request is everything one recommend or nearby call needs. Origin is optional; without it
// no location filter is applied.
type Request struct {
	Profile      *models.UserProfile  `json:"profile"`
	Deals        []models.Deal        `json:"deals"`
	Stores       []models.Store       `json:"stores"`
	Origin       *models.Location     `json:"origin,omitempty"`
	RadiusKm     float64              `json:"radius_km,omitempty"`
	Interactions []models.Interaction `json:"interactions,omitempty"`
}

func Load(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates data against the request schema and decodes it. Deals must also satisfy
// the model rules (validity window, discount range).
func Parse(data []byte) (*Request, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(errs, "; "))
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	for i := range req.Deals {
		if err := req.Deals[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	return &req, nil
}

// LocationFilter returns the filter described by the request, or nil when it has no origin.
func (r *Request) LocationFilter() *recommender.LocationFilter {
	if r.Origin == nil {
		return nil
	}
	return &recommender.LocationFilter{
		Origin:   *r.Origin,
		RadiusKm: r.RadiusKm,
		Stores:   r.Stores,
	}
}
