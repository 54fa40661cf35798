package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EarthRadiusMeters is the mean radius of Earth used for haversine distance.
const EarthRadiusMeters = 6_371_000.0

// DefaultMaxDistanceMeters bounds a near search when the caller gives none.
const DefaultMaxDistanceMeters = 10_000

// Point is a (longitude, latitude) pair in degrees, in GeoJSON order.
type Point struct {
	Lng float64
	Lat float64
}

// NewPoint validates the ranges of a coordinate pair.
func NewPoint(lng, lat float64) (Point, error) {
	if math.IsNaN(lng) || math.IsNaN(lat) || math.IsInf(lng, 0) || math.IsInf(lat, 0) {
		return Point{}, fmt.Errorf("%w: coordinates must be finite", ErrInvalidQuery)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Point{}, fmt.Errorf("%w: coordinates out of range lng=%v lat=%v", ErrInvalidQuery, lng, lat)
	}
	return Point{Lng: lng, Lat: lat}, nil
}

// ParsePoint parses raw longitude and latitude strings as given in a query
// string. Non-numeric input is an invalid query, like out-of-range input.
func ParsePoint(lngRaw, latRaw string) (Point, error) {
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: longitude %q is not a number", ErrInvalidQuery, lngRaw)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: latitude %q is not a number", ErrInvalidQuery, latRaw)
	}
	return NewPoint(lng, lat)
}

// Valid reports whether the point lies within longitude/latitude bounds.
func (p Point) Valid() bool {
	_, err := NewPoint(p.Lng, p.Lat)
	return err == nil
}

// Coordinates returns the GeoJSON [lng, lat] order.
func (p Point) Coordinates() []float64 {
	return []float64{p.Lng, p.Lat}
}

// DistanceTo returns the great-circle distance in meters.
func (p Point) DistanceTo(other Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// Location is a GeoJSON point plus a postal address.
type Location struct {
	// Coordinates is nil when the store has no usable position.
	Coordinates *Point
	Address     string
}

// HasPoint reports whether the location can take part in geo queries.
func (l Location) HasPoint() bool {
	return l.Coordinates != nil && l.Coordinates.Valid()
}

// NewLocation validates the address and coordinate pair of a store.
func NewLocation(address string, coordinates []float64) (Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Location{}, NewValidationError("location.address", "address is required")
	}
	if len(coordinates) != 2 {
		return Location{}, NewValidationError("location.coordinates", "coordinates must be a [longitude, latitude] pair")
	}
	point, err := NewPoint(coordinates[0], coordinates[1])
	if err != nil {
		return Location{}, NewValidationError("location.coordinates", err.Error())
	}
	return Location{Coordinates: &point, Address: address}, nil
}
