package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareRing() orb.Ring {
	return orb.Ring{
		{-71.06, -17.64},
		{-71.04, -17.64},
		{-71.04, -17.62},
		{-71.06, -17.62},
	}
}

func TestCentroid_IsVertexMean(t *testing.T) {
	g := &Geometry{Kind: KindPolygon, Ring: squareRing()}

	c := g.Centroid()
	assert.InDelta(t, -17.63, c.Lat(), 1e-9)
	assert.InDelta(t, -71.05, c.Lon(), 1e-9)
}

func TestCentroid_WithinRingBounds(t *testing.T) {
	rings := []orb.Ring{
		squareRing(),
		{{-71.1, -17.7}, {-71.0, -17.65}, {-71.05, -17.6}},
		{{10, 50}, {10.001, 50}, {10.002, 50.003}, {10, 50.002}, {9.999, 50.001}},
	}

	for _, ring := range rings {
		g := &Geometry{Kind: KindPolygon, Ring: ring}
		c := g.Centroid()
		b := ring.Bound()

		assert.GreaterOrEqual(t, c.Lat(), b.Min.Lat())
		assert.LessOrEqual(t, c.Lat(), b.Max.Lat())
		assert.GreaterOrEqual(t, c.Lon(), b.Min.Lon())
		assert.LessOrEqual(t, c.Lon(), b.Max.Lon())
	}
}

func TestAnchor(t *testing.T) {
	point := &Geometry{Kind: KindPoint, Point: orb.Point{-71.05, -17.63}}
	assert.Equal(t, point.Point, point.Anchor())

	polygon := &Geometry{Kind: KindPolygon, Ring: squareRing()}
	assert.Equal(t, polygon.Centroid(), polygon.Anchor())
}

func TestBound(t *testing.T) {
	point := &Geometry{Kind: KindPoint, Point: orb.Point{-71.05, -17.63}}
	b := point.Bound()
	assert.Equal(t, point.Point, b.Min)
	assert.Equal(t, point.Point, b.Max)

	polygon := &Geometry{Kind: KindPolygon, Ring: squareRing()}
	pb := polygon.Bound()
	assert.InDelta(t, -17.64, pb.Min.Lat(), 1e-9)
	assert.InDelta(t, -17.62, pb.Max.Lat(), 1e-9)
}

func TestGeohash_StableForAnchor(t *testing.T) {
	g := &Geometry{Kind: KindPoint, Point: orb.Point{-71.05, -17.63}}
	h := g.Geohash()
	require.NotEmpty(t, h)
	assert.Equal(t, h, g.Geohash())
}

func TestPlanarDistance(t *testing.T) {
	a := orb.Point{-71.05, -17.63}

	assert.InDelta(t, 0, PlanarDistance(a, a), 1e-9)

	// One degree of latitude is about 111km regardless of longitude.
	b := orb.Point{-71.05, -16.63}
	d := PlanarDistance(a, b)
	assert.InDelta(t, 111000, d, 1500)

	assert.InDelta(t, d, PlanarDistance(b, a), 1e-6)
}
