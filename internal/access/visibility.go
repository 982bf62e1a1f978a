package access

import (
	"strings"

	"github.com/solterra/lotmap/internal/models"
)

// VisibilityPolicy decides which lots a role may see and which attributes
// are redacted. The policy is pure and total: every lot is classified.
type VisibilityPolicy struct{}

// VisibleSet returns the lots the viewer may see.
//
// Rules: guest sees only available lots; owner sees available lots plus
// any lot they own; admin sees everything. The input slice is never
// mutated, and owner references are redacted on the returned copies per
// Redact, so a downstream display bug cannot leak redacted fields.
func (VisibilityPolicy) VisibleSet(lots []models.Lot, role Role, viewer Viewer) []models.Lot {
	visible := make([]models.Lot, 0, len(lots))
	for _, lot := range lots {
		if !visibleTo(lot, role, viewer) {
			continue
		}
		visible = append(visible, Redact(lot, role))
	}
	return visible
}

// Redact returns a copy of the lot with attributes the role may not see
// removed. Guests never receive an owner reference, regardless of estado.
func Redact(lot models.Lot, role Role) models.Lot {
	if role == RoleGuest {
		lot.Owner = nil
	}
	return lot
}

func visibleTo(lot models.Lot, role Role, viewer Viewer) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleOwner:
		return lot.Estado == models.EstadoAvailable || OwnedBy(lot, viewer)
	default:
		return lot.Estado == models.EstadoAvailable
	}
}

// OwnedBy reports whether the lot belongs to the viewer. The primary
// check is the identity reference. When the identity linkage is absent a
// name+document substring match is used as a fallback; this heuristic can
// both under- and over-match (shared name substrings, formatting
// differences in documents) and is kept deliberately, pending an explicit
// identity linkage field on legacy records.
func OwnedBy(lot models.Lot, viewer Viewer) bool {
	if lot.Owner == nil {
		return false
	}

	if lot.Owner.ClientID != "" && viewer.ID != "" {
		return lot.Owner.ClientID == viewer.ID
	}

	if viewer.Name != "" && containsFold(lot.Owner.DisplayName, viewer.Name) {
		return true
	}
	if viewer.Document != "" && strings.Contains(lot.Owner.DocumentID, viewer.Document) {
		return true
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
