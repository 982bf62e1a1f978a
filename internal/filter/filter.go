package filter

import (
	"strings"

	"github.com/solterra/lotmap/internal/access"
	"github.com/solterra/lotmap/internal/models"
)

// State holds the active filter values for the map screen. Nil numeric
// bounds and empty strings mean "predicate passes unconditionally".
//
// Min/max ordering is deliberately not enforced: an inverted range yields
// an empty result set, which is correct, not an error.
type State struct {
	CodeQuery    string
	PriceMin     *int64
	PriceMax     *int64
	AreaMin      *float64
	AreaMax      *float64
	StateToggles map[models.Estado]bool
	OwnerQuery   string
}

// predicate is a single independent filter condition over a lot.
type predicate func(models.Lot) bool

// Engine applies a composable predicate chain over the visible set.
// It performs no caching; it is cheap enough to run on every render
// against realistic catalog sizes.
type Engine struct{}

// Apply filters the visible lots with an ordered conjunction of
// predicates, short-circuiting left to right. Estado toggles and the
// owner query are only evaluated for admin; other roles cannot see
// restricted states or foreign owners anyway.
func (Engine) Apply(lots []models.Lot, st State, role access.Role) []models.Lot {
	preds := buildChain(st, role)

	out := make([]models.Lot, 0, len(lots))
	for _, lot := range lots {
		if matchesAll(lot, preds) {
			out = append(out, lot)
		}
	}
	return out
}

func matchesAll(lot models.Lot, preds []predicate) bool {
	for _, p := range preds {
		if !p(lot) {
			return false
		}
	}
	return true
}

func buildChain(st State, role access.Role) []predicate {
	var preds []predicate

	if q := strings.TrimSpace(st.CodeQuery); q != "" {
		needle := strings.ToLower(q)
		preds = append(preds, func(l models.Lot) bool {
			return strings.Contains(strings.ToLower(l.Codigo), needle)
		})
	}

	if st.PriceMin != nil {
		min := *st.PriceMin
		preds = append(preds, func(l models.Lot) bool { return l.Price >= min })
	}
	if st.PriceMax != nil {
		max := *st.PriceMax
		preds = append(preds, func(l models.Lot) bool { return l.Price <= max })
	}

	if st.AreaMin != nil {
		min := *st.AreaMin
		preds = append(preds, func(l models.Lot) bool { return l.AreaM2 >= min })
	}
	if st.AreaMax != nil {
		max := *st.AreaMax
		preds = append(preds, func(l models.Lot) bool { return l.AreaM2 <= max })
	}

	if role == access.RoleAdmin && len(st.StateToggles) > 0 {
		toggles := st.StateToggles
		preds = append(preds, func(l models.Lot) bool { return toggles[l.Estado] })
	}

	if q := strings.TrimSpace(st.OwnerQuery); q != "" && role == access.RoleAdmin {
		needle := strings.ToLower(q)
		preds = append(preds, func(l models.Lot) bool {
			if l.Owner == nil {
				return false
			}
			return strings.Contains(strings.ToLower(l.Owner.DisplayName), needle) ||
				strings.Contains(strings.ToLower(l.Owner.DocumentID), needle)
		})
	}

	return preds
}
