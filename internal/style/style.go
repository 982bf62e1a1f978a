package style

import "github.com/solterra/lotmap/internal/models"

// Color is a hex RGB color for map primitives.
type Color string

// Colors per estado, plus the owner-highlight override. Values mirror the
// sales map legend.
const (
	ColorAvailable   Color = "#2e7d32"
	ColorInstallment Color = "#f9a825"
	ColorSold        Color = "#c62828"
	ColorHighlight   Color = "#1565c0"
	ColorUnknown     Color = "#9e9e9e"
)

// Style bundles the drawable attributes for one lot.
type Style struct {
	Fill   Color
	Stroke Color
	Icon   string
}

// ColorFor maps a lot's estado to its color. When ownerHighlighted is true
// (the lot belongs to the viewer) the highlight color wins regardless of
// estado. Pure lookup, no randomness or animation state.
func ColorFor(estado models.Estado, ownerHighlighted bool) Color {
	if ownerHighlighted {
		return ColorHighlight
	}
	switch estado {
	case models.EstadoAvailable:
		return ColorAvailable
	case models.EstadoInstallment:
		return ColorInstallment
	case models.EstadoSold:
		return ColorSold
	default:
		return ColorUnknown
	}
}

// IconFor maps a lot's estado to a marker icon identifier.
func IconFor(estado models.Estado) string {
	switch estado {
	case models.EstadoInstallment:
		return "lot-installment"
	case models.EstadoSold:
		return "lot-sold"
	default:
		return "lot-available"
	}
}

// For resolves the full style for a lot.
func For(estado models.Estado, ownerHighlighted bool) Style {
	c := ColorFor(estado, ownerHighlighted)
	return Style{Fill: c, Stroke: c, Icon: IconFor(estado)}
}
