package sorting

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultGeoField is the geo-point field path geo-distance sorts are computed on.
const DefaultGeoField = "location"

// Order is a sort direction.
type Order string

// Sort directions.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// IsValid reports whether o is a known direction.
func (o Order) IsValid() bool { return o == Asc || o == Desc }

// Unit is a distance unit for geo-distance sorting.
type Unit string

// Supported distance units.
const (
	Meters     Unit = "m"
	Kilometers Unit = "km"
	Miles      Unit = "mi"
	Yards      Unit = "yd"
	Feet       Unit = "ft"
)

// IsValid reports whether u is a supported unit.
func (u Unit) IsValid() bool {
	switch u {
	case Meters, Kilometers, Miles, Yards, Feet:
		return true
	}
	return false
}

// Kind tells which sort criterion a Spec or Clause describes.
type Kind int

const (
	// KindScore orders by relevance score.
	KindScore Kind = iota + 1
	// KindField orders by a document field.
	KindField
	// KindGeoDistance orders by distance from a point.
	KindGeoDistance
)

// Spec is the caller's additional sort criterion: a field sort or a geo-distance sort.
type Spec struct {
	kind  Kind
	field string
	order Order
	lat   float64
	lon   float64
	unit  Unit
}

// ByField sorts by a document field. An empty order means ascending.
func ByField(field string, order Order) Spec {
	return Spec{kind: KindField, field: field, order: order}
}

// ByDistance sorts by distance from (lat, lon). Empty order means ascending, empty unit kilometers.
func ByDistance(lat, lon float64, order Order, unit Unit) Spec {
	return Spec{kind: KindGeoDistance, lat: lat, lon: lon, order: order, unit: unit}
}

// Kind returns the criterion kind.
func (s Spec) Kind() Kind { return s.kind }

// Clause is one resolved entry of a request's sort list.
type Clause struct {
	Kind  Kind
	Field string
	Order Order
	Lat   float64
	Lon   float64
	Unit  Unit
}

// Score is the relevance clause every search sorts by first.
func Score() Clause {
	return Clause{Kind: KindScore, Field: "_score", Order: Desc}
}

// Clause validates s and resolves it into a sort clause.
// geoField is the geo-point path used for distance sorts.
func (s Spec) Clause(geoField string) (Clause, error) {
	order := s.order
	if order == "" {
		order = Asc
	}
	if !order.IsValid() {
		return Clause{}, fmt.Errorf("invalid sort order %q", s.order)
	}

	switch s.kind {
	case KindField:
		field := strings.TrimSpace(s.field)
		if field == "" {
			return Clause{}, errors.New("sort field is required")
		}
		return Clause{Kind: KindField, Field: field, Order: order}, nil
	case KindGeoDistance:
		if s.lat < -90 || s.lat > 90 {
			return Clause{}, fmt.Errorf("latitude %f out of range", s.lat)
		}
		if s.lon < -180 || s.lon > 180 {
			return Clause{}, fmt.Errorf("longitude %f out of range", s.lon)
		}
		unit := s.unit
		if unit == "" {
			unit = Kilometers
		}
		if !unit.IsValid() {
			return Clause{}, fmt.Errorf("invalid distance unit %q", s.unit)
		}
		if geoField == "" {
			geoField = DefaultGeoField
		}
		return Clause{
			Kind: KindGeoDistance, Field: geoField, Order: order,
			Lat: s.lat, Lon: s.lon, Unit: unit,
		}, nil
	default:
		return Clause{}, fmt.Errorf("unknown sort kind %d", s.kind)
	}
}
