package render

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/solterra/lotmap/internal/access"
	"github.com/solterra/lotmap/internal/geometry"
	"github.com/solterra/lotmap/internal/models"
	"github.com/solterra/lotmap/internal/style"
)

// ErrNoGeometry is returned for lots whose geometry failed to parse; such
// lots have no drawable representation and are skipped upstream.
var ErrNoGeometry = errors.New("lot has no usable geometry")

// Marker is a point primitive placed at a geometry's anchor.
type Marker struct {
	LotUID   string
	Position orb.Point
	Color    style.Color
	Icon     string
	Label    string
}

// Shape is a polygon primitive for lots with boundary geometry.
type Shape struct {
	LotUID      string
	Ring        orb.Ring
	Fill        style.Color
	Stroke      style.Color
	FillOpacity float64
}

// Feature pairs the marker with its optional shape for one lot. Point
// lots render as a marker only.
type Feature struct {
	LotUID string
	Marker Marker
	Shape  *Shape
}

// Scene is everything the host map surface needs to draw one frame of the
// lot layer, plus the "N of M" counts for display.
type Scene struct {
	Features []Feature
	Shown    int
	Total    int
}

const shapeFillOpacity = 0.35

// Adapter converts normalized lots into drawable primitives. It owns the
// contract boundary with the host map surface and nothing else.
type Adapter struct{}

// Feature builds the drawable primitives for a single lot. The viewer is
// used to decide owner highlighting.
func (Adapter) Feature(lot models.Lot, viewer access.Viewer) (Feature, error) {
	if lot.Geometry == nil {
		return Feature{}, fmt.Errorf("%w: %s", ErrNoGeometry, lot.Codigo)
	}

	st := style.For(lot.Estado, access.OwnedBy(lot, viewer))

	f := Feature{
		LotUID: lot.UID,
		Marker: Marker{
			LotUID:   lot.UID,
			Position: lot.Geometry.Anchor(),
			Color:    st.Fill,
			Icon:     st.Icon,
			Label:    lot.Codigo,
		},
	}

	if lot.Geometry.Kind == geometry.KindPolygon {
		f.Shape = &Shape{
			LotUID:      lot.UID,
			Ring:        lot.Geometry.Ring,
			Fill:        st.Fill,
			Stroke:      st.Stroke,
			FillOpacity: shapeFillOpacity,
		}
	}

	return f, nil
}

// Scene builds the full drawable scene for the filtered lots. total is the
// size of the visible set before filtering, for the "N of M" display.
func (a Adapter) Scene(lots []models.Lot, viewer access.Viewer, total int) Scene {
	features := make([]Feature, 0, len(lots))
	for _, lot := range lots {
		f, err := a.Feature(lot, viewer)
		if err != nil {
			// Geometry-less lots were already warned about at parse time.
			continue
		}
		features = append(features, f)
	}

	return Scene{Features: features, Shown: len(lots), Total: total}
}
