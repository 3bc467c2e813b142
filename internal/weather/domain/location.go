// Package domain holds weather observations, the training-level minimums
// table and the ports through which observations are cached and fetched.
package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLocation is returned for coordinates outside the valid range.
var ErrInvalidLocation = errors.New("invalid location")

// Location is a named point. Two locations are the same cache entry when
// their coordinates agree to four decimal places (about 11 m).
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewLocation validates the coordinates.
func NewLocation(name string, lat, lon float64) (Location, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Location{}, fmt.Errorf("%w: latitude %v", ErrInvalidLocation, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return Location{}, fmt.Errorf("%w: longitude %v", ErrInvalidLocation, lon)
	}
	return Location{Name: name, Latitude: lat, Longitude: lon}, nil
}

// Key is the cache index key, e.g. "40.7128,-74.0060".
func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f", round4(l.Latitude), round4(l.Longitude))
}

// SameAs reports whether both locations map to the same cache key.
func (l Location) SameAs(other Location) bool {
	return l.Key() == other.Key()
}

func (l Location) String() string {
	if l.Name != "" {
		return l.Name
	}
	return l.Key()
}

func round4(v float64) float64 {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		// avoid "-0.0000" keys
		return 0
	}
	return r
}
