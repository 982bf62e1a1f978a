package geometry

import (
	"math"

	"github.com/mmcloughlin/geohash"
	"github.com/paulmach/orb"
)

// Kind discriminates the two geometry shapes a lot may carry.
type Kind string

const (
	KindPoint   Kind = "Point"
	KindPolygon Kind = "Polygon"
)

// Geometry is the normalized internal geometry record for a lot.
// Coordinates use orb conventions: orb.Point is (lon, lat) with Lat()/Lon()
// accessors, so callers never deal with raw axis ordering themselves.
type Geometry struct {
	Kind Kind

	// Point holds the location for KindPoint geometries.
	Point orb.Point

	// Ring holds the outer boundary for KindPolygon geometries.
	// Holes from the wire payload are discarded at parse time.
	Ring orb.Ring
}

// Anchor returns the single point used for marker placement: the point
// itself for KindPoint, the centroid for KindPolygon.
func (g *Geometry) Anchor() orb.Point {
	if g.Kind == KindPolygon {
		return g.Centroid()
	}
	return g.Point
}

// Centroid returns the arithmetic mean of the ring vertices. This is a
// deliberate simplification: no area weighting, no triangulation, O(n) in
// ring size. For KindPoint it returns the point itself.
func (g *Geometry) Centroid() orb.Point {
	if g.Kind != KindPolygon || len(g.Ring) == 0 {
		return g.Point
	}

	var sumLat, sumLon float64
	for _, v := range g.Ring {
		sumLat += v.Lat()
		sumLon += v.Lon()
	}
	n := float64(len(g.Ring))
	return orb.Point{sumLon / n, sumLat / n}
}

// Bound returns the bounding box of the geometry. For a point this is a
// degenerate box at the point itself.
func (g *Geometry) Bound() orb.Bound {
	if g.Kind == KindPolygon && len(g.Ring) > 0 {
		return g.Ring.Bound()
	}
	return orb.Bound{Min: g.Point, Max: g.Point}
}

// Geohash returns the geohash of the anchor point, used as a coarse
// spatial index key for proximity queries and log context.
func (g *Geometry) Geohash() string {
	a := g.Anchor()
	return geohash.Encode(a.Lat(), a.Lon())
}

// earthRadiusMeters is the mean Earth radius used by the planar distance
// approximation below.
const earthRadiusMeters = 6371000.0

// PlanarDistance returns the approximate distance in meters between two
// points using an equirectangular projection. Accurate enough at the scale
// of a lot catalog; this system intentionally does no geodesic math.
func PlanarDistance(a, b orb.Point) float64 {
	latRad := (a.Lat() + b.Lat()) / 2 * math.Pi / 180
	dLat := (b.Lat() - a.Lat()) * math.Pi / 180
	dLon := (b.Lon() - a.Lon()) * math.Pi / 180 * math.Cos(latRad)
	return earthRadiusMeters * math.Sqrt(dLat*dLat+dLon*dLon)
}
