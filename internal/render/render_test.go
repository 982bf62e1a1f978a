package render

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solterra/lotmap/internal/access"
	"github.com/solterra/lotmap/internal/geometry"
	"github.com/solterra/lotmap/internal/models"
	"github.com/solterra/lotmap/internal/style"
)

func pointLot(uid, codigo string, estado models.Estado) models.Lot {
	return models.Lot{
		UID:    uid,
		Codigo: codigo,
		Estado: estado,
		Geometry: &geometry.Geometry{
			Kind:  geometry.KindPoint,
			Point: orb.Point{-71.05, -17.63},
		},
	}
}

func polygonLot(uid, codigo string, estado models.Estado) models.Lot {
	return models.Lot{
		UID:    uid,
		Codigo: codigo,
		Estado: estado,
		Geometry: &geometry.Geometry{
			Kind: geometry.KindPolygon,
			Ring: orb.Ring{
				{-71.06, -17.64},
				{-71.04, -17.64},
				{-71.04, -17.62},
				{-71.06, -17.62},
			},
		},
	}
}

func TestFeature_PointLotHasMarkerOnly(t *testing.T) {
	var adapter Adapter
	lot := pointLot("l1", "MZ-A-01", models.EstadoAvailable)

	f, err := adapter.Feature(lot, access.Viewer{})
	require.NoError(t, err)

	assert.Equal(t, "l1", f.LotUID)
	assert.Nil(t, f.Shape)
	assert.Equal(t, lot.Geometry.Point, f.Marker.Position)
	assert.Equal(t, "MZ-A-01", f.Marker.Label)
	assert.Equal(t, style.ColorAvailable, f.Marker.Color)
}

func TestFeature_PolygonLotHasShapeAndAnchorMarker(t *testing.T) {
	var adapter Adapter
	lot := polygonLot("l2", "MZ-A-02", models.EstadoSold)

	f, err := adapter.Feature(lot, access.Viewer{})
	require.NoError(t, err)

	require.NotNil(t, f.Shape)
	assert.Equal(t, lot.Geometry.Ring, f.Shape.Ring)
	assert.Equal(t, style.ColorSold, f.Shape.Fill)
	assert.Equal(t, lot.Geometry.Centroid(), f.Marker.Position)
}

func TestFeature_OwnerHighlight(t *testing.T) {
	var adapter Adapter
	lot := polygonLot("l2", "MZ-A-02", models.EstadoSold)
	lot.Owner = &models.OwnerRef{ClientID: "c1"}

	f, err := adapter.Feature(lot, access.Viewer{ID: "c1"})
	require.NoError(t, err)

	assert.Equal(t, style.ColorHighlight, f.Marker.Color)
	assert.Equal(t, style.ColorHighlight, f.Shape.Fill)
}

func TestFeature_NoGeometry(t *testing.T) {
	var adapter Adapter

	_, err := adapter.Feature(models.Lot{UID: "l9"}, access.Viewer{})
	assert.ErrorIs(t, err, ErrNoGeometry)
}

func TestScene_CountsAndSkips(t *testing.T) {
	var adapter Adapter
	lots := []models.Lot{
		pointLot("l1", "MZ-A-01", models.EstadoAvailable),
		{UID: "broken", Codigo: "MZ-X-99"}, // no geometry
		polygonLot("l3", "MZ-B-01", models.EstadoInstallment),
	}

	scene := adapter.Scene(lots, access.Viewer{}, 5)

	assert.Len(t, scene.Features, 2)
	assert.Equal(t, 3, scene.Shown)
	assert.Equal(t, 5, scene.Total)
}
