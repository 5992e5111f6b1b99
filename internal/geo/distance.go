// Package geo computes great-circle distances between validated coordinates.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/chrisdamba/dealradar/internal/models"
)

const earthRadiusKm = 6371.0 // Earth's radius in kilometers

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Validate checks latitude is within [-90,90] and longitude within [-180,180].
func Validate(loc models.Location) error {
	if math.IsNaN(loc.Lat) || loc.Lat < -90 || loc.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinate, loc.Lat)
	}
	if math.IsNaN(loc.Lon) || loc.Lon < -180 || loc.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinate, loc.Lon)
	}
	return nil
}

// Distance returns the haversine distance in kilometers between two points.
func Distance(a, b models.Location) (float64, error) {
	if err := Validate(a); err != nil {
		return 0, err
	}
	if err := Validate(b); err != nil {
		return 0, err
	}
	return haversine(a, b), nil
}

func haversine(loc1, loc2 models.Location) float64 {
	if samePoint(loc1, loc2) {
		return 0
	}
	// Convert latitude and longitude from degrees to radians
	lat1 := degreesToRadians(loc1.Lat)
	lon1 := degreesToRadians(loc1.Lon)
	lat2 := degreesToRadians(loc2.Lat)
	lon2 := degreesToRadians(loc2.Lon)

	dlat := lat2 - lat1
	dlon := lon2 - lon1
	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	// rounding can push a marginally past 1 for antipodal points
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// samePoint reports whether two valid coordinates name the same place. Longitudes 180 and
// -180 coincide, and longitude is irrelevant at either pole.
func samePoint(a, b models.Location) bool {
	if a.Lat != b.Lat {
		return false
	}
	if math.Abs(a.Lat) == 90 {
		return true
	}
	return normalizeLon(a.Lon) == normalizeLon(b.Lon)
}

func normalizeLon(lon float64) float64 {
	if lon == -180 {
		return 180
	}
	return lon
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// Offset returns the point reached by travelling northKm and eastKm from origin on a local
// flat approximation. Used to place fixtures at a known distance.
func Offset(origin models.Location, northKm, eastKm float64) models.Location {
	kmPerDegree := earthRadiusKm * math.Pi / 180
	latRange := northKm / kmPerDegree
	lonRange := eastKm / (kmPerDegree * math.Cos(degreesToRadians(origin.Lat)))
	return models.Location{Lat: origin.Lat + latRange, Lon: origin.Lon + lonRange}
}
