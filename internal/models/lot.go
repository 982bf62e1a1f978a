package models

import (
	"fmt"
	"time"

	"github.com/solterra/lotmap/internal/geometry"
)

// Estado is the sale status of a lot.
type Estado string

const (
	EstadoAvailable   Estado = "available"
	EstadoInstallment Estado = "installment"
	EstadoSold        Estado = "sold"
)

// AllEstados lists every valid estado, in display order.
var AllEstados = []Estado{EstadoAvailable, EstadoInstallment, EstadoSold}

// ParseEstado validates a raw estado string.
func ParseEstado(s string) (Estado, error) {
	switch Estado(s) {
	case EstadoAvailable, EstadoInstallment, EstadoSold:
		return Estado(s), nil
	}
	return "", fmt.Errorf("invalid estado %q", s)
}

// Valid reports whether the estado is one of the known values.
func (e Estado) Valid() bool {
	_, err := ParseEstado(string(e))
	return err == nil
}

// OwnerRef identifies the client that owns a sold or installment lot.
// Whether it is exposed to a viewer is decided by the visibility policy,
// never by the display layer.
type OwnerRef struct {
	ClientID    string
	DisplayName string
	DocumentID  string
	Phone       string
}

// HouseModelRef describes the house model associated with a lot, if any.
type HouseModelRef struct {
	Name        string
	BasePrice   int64
	Description string
}

// Lot is a sellable land lot record.
//
// RawGeometry carries the wire payload as stored; Geometry is derived from
// it once per fetch and cached alongside the lot for the screen's lifetime.
// Lots are never mutated locally: edits go through the CRUD subsystem and
// trigger a full refetch.
type Lot struct {
	UID         string
	Codigo      string
	Estado      Estado
	RawGeometry []byte
	Geometry    *geometry.Geometry
	AreaM2      float64
	Price       int64
	Address     string
	Owner       *OwnerRef
	HouseModel  *HouseModelRef
	ImageURLs   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
