package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/paulmach/orb"

	"github.com/solterra/lotmap/internal/access"
	"github.com/solterra/lotmap/internal/geometry"
	"github.com/solterra/lotmap/internal/logger"
	"github.com/solterra/lotmap/internal/models"
	"github.com/solterra/lotmap/internal/repository"
)

// Coordinate validation bounds.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Radius validation bounds for proximity queries.
const (
	MinRadiusMeters = 1
	MaxRadiusMeters = 50000
)

// Service-level errors.
var (
	ErrLotNotFound        = errors.New("lot not found")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidRadius      = errors.New("radius must be between 1 and 50000 meters")
	ErrNotAuthorized      = errors.New("viewer role is not authorized for this operation")
)

// LotWithDistance pairs a lot with its distance from a query point.
type LotWithDistance struct {
	Lot            models.Lot
	DistanceMeters float64
}

// LotService is the business-logic layer for the lot map: it fetches lot
// records, derives geometry, and applies the visibility policy so that
// redaction is enforced at the data layer.
type LotService interface {
	// VisibleLots returns the role-gated, redacted, geometry-decorated
	// visible set. Lots with unparsable geometry are skipped with a
	// warning, never surfaced as an error.
	VisibleLots(ctx context.Context, role access.Role, viewer access.Viewer) ([]models.Lot, error)

	// LotsByState returns all lots in the given estado. Admin only;
	// returns ErrNotAuthorized for other roles.
	LotsByState(ctx context.Context, estado models.Estado, role access.Role) ([]models.Lot, error)

	// NearbyLots returns visible lots whose anchor lies within the radius
	// of the given point, closest first.
	NearbyLots(ctx context.Context, lat, lng float64, radiusMeters int, role access.Role, viewer access.Viewer) ([]LotWithDistance, error)

	// LotByUID returns a single lot, redacted for the role. Lots the role
	// may not see report ErrLotNotFound rather than revealing existence.
	LotByUID(ctx context.Context, uid string, role access.Role, viewer access.Viewer) (*models.Lot, error)
}

type lotService struct {
	repo   repository.LotRepository
	policy access.VisibilityPolicy
	log    *logger.Logger
}

// NewLotService creates the LotService implementation.
func NewLotService(repo repository.LotRepository, log *logger.Logger) LotService {
	return &lotService{repo: repo, log: log}
}

func (s *lotService) VisibleLots(ctx context.Context, role access.Role, viewer access.Viewer) ([]models.Lot, error) {
	records, err := s.repo.FindAll(ctx)
	if err != nil {
		s.log.Error("Failed to fetch lots", err, map[string]interface{}{"role": role})
		return nil, fmt.Errorf("failed to fetch lots: %w", err)
	}

	lots := s.decorate(records)
	visible := s.policy.VisibleSet(lots, role, viewer)

	s.log.Info("Computed visible set", map[string]interface{}{
		"role":    role,
		"total":   len(records),
		"visible": len(visible),
	})
	return visible, nil
}

func (s *lotService) LotsByState(ctx context.Context, estado models.Estado, role access.Role) ([]models.Lot, error) {
	if role != access.RoleAdmin {
		return nil, ErrNotAuthorized
	}
	if !estado.Valid() {
		return nil, fmt.Errorf("invalid estado %q", estado)
	}

	records, err := s.repo.FindByEstado(ctx, estado)
	if err != nil {
		s.log.Error("Failed to fetch lots by estado", err, map[string]interface{}{"estado": estado})
		return nil, fmt.Errorf("failed to fetch lots by estado: %w", err)
	}

	return s.decorate(records), nil
}

func (s *lotService) NearbyLots(ctx context.Context, lat, lng float64, radiusMeters int, role access.Role, viewer access.Viewer) ([]LotWithDistance, error) {
	if lat < MinLatitude || lat > MaxLatitude {
		return nil, fmt.Errorf("%w: latitude must be between %.0f and %.0f, got %f",
			ErrInvalidCoordinates, MinLatitude, MaxLatitude, lat)
	}
	if lng < MinLongitude || lng > MaxLongitude {
		return nil, fmt.Errorf("%w: longitude must be between %.0f and %.0f, got %f",
			ErrInvalidCoordinates, MinLongitude, MaxLongitude, lng)
	}
	if radiusMeters < MinRadiusMeters || radiusMeters > MaxRadiusMeters {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRadius, radiusMeters)
	}

	records, err := s.repo.FindNear(ctx, lat, lng, radiusMeters)
	if err != nil {
		s.log.Error("Failed to fetch nearby lots", err, map[string]interface{}{
			"lat": lat, "lng": lng, "radius": radiusMeters,
		})
		return nil, fmt.Errorf("failed to fetch nearby lots: %w", err)
	}

	visible := s.policy.VisibleSet(s.decorate(records), role, viewer)
	origin := orb.Point{lng, lat}

	// The geohash pre-filter over-selects; refine by actual distance.
	results := make([]LotWithDistance, 0, len(visible))
	for _, lot := range visible {
		d := geometry.PlanarDistance(origin, lot.Geometry.Anchor())
		if d <= float64(radiusMeters) {
			results = append(results, LotWithDistance{Lot: lot, DistanceMeters: d})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].DistanceMeters < results[j].DistanceMeters
	})

	s.log.Info("Nearby lots found", map[string]interface{}{
		"lat": lat, "lng": lng, "radius": radiusMeters, "count": len(results),
	})
	return results, nil
}

func (s *lotService) LotByUID(ctx context.Context, uid string, role access.Role, viewer access.Viewer) (*models.Lot, error) {
	record, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		s.log.Error("Failed to fetch lot", err, map[string]interface{}{"uid": uid})
		return nil, fmt.Errorf("failed to fetch lot: %w", err)
	}
	if record == nil {
		return nil, ErrLotNotFound
	}

	lot := *record
	if geom, perr := geometry.Parse(lot.RawGeometry); perr == nil {
		lot.Geometry = geom
	} else {
		// The detail panel can still show attribute data for a lot whose
		// geometry is broken; only the map placement is lost.
		s.warnBadGeometry(lot, perr)
	}

	visible := s.policy.VisibleSet([]models.Lot{lot}, role, viewer)
	if len(visible) == 0 {
		// Not visible to this role; do not reveal that the lot exists.
		return nil, ErrLotNotFound
	}
	return &visible[0], nil
}

// decorate parses raw geometry for each record, skipping lots whose
// payload is unusable. A skipped lot is logged and dropped; it never
// aborts the whole set.
func (s *lotService) decorate(records []models.Lot) []models.Lot {
	lots := make([]models.Lot, 0, len(records))
	for _, record := range records {
		geom, err := geometry.Parse(record.RawGeometry)
		if err != nil {
			s.warnBadGeometry(record, err)
			continue
		}
		record.Geometry = geom
		lots = append(lots, record)
	}
	return lots
}

func (s *lotService) warnBadGeometry(lot models.Lot, err error) {
	if s.log == nil {
		return
	}
	s.log.Warn("Skipping lot with unusable geometry", map[string]interface{}{
		"uid":    lot.UID,
		"codigo": lot.Codigo,
		"error":  err.Error(),
	})
}
