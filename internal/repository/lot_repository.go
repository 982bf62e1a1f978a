package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mmcloughlin/geohash"

	"github.com/solterra/lotmap/internal/database"
	"github.com/solterra/lotmap/internal/models"
)

// LotRepository defines data access for lot records. Geometry comes back
// as the raw wire payload; parsing happens at the service boundary so a
// bad payload degrades per lot, not per query.
type LotRepository interface {
	// FindAll returns every lot record, newest first.
	FindAll(ctx context.Context) ([]models.Lot, error)

	// FindByEstado returns all lots in the given sale state.
	FindByEstado(ctx context.Context, estado models.Estado) ([]models.Lot, error)

	// FindNear returns candidate lots near the given point using a geohash
	// prefix pre-filter. Candidates may exceed the radius; the caller
	// refines by actual distance after parsing geometry.
	FindNear(ctx context.Context, lat, lng float64, radiusMeters int) ([]models.Lot, error)

	// FindByUID returns a single lot. Returns nil, nil when not found.
	FindByUID(ctx context.Context, uid string) (*models.Lot, error)
}

// lotRepository is the pgx-backed implementation of LotRepository.
type lotRepository struct {
	db *database.Database
}

// NewLotRepository creates a LotRepository backed by the given pool.
func NewLotRepository(db *database.Database) LotRepository {
	return &lotRepository{db: db}
}

const lotColumns = `
	uid,
	codigo,
	estado,
	geometry,
	area_m2,
	price,
	address,
	owner_client_id,
	owner_name,
	owner_document,
	owner_phone,
	house_model_name,
	house_model_price,
	house_model_description,
	image_urls,
	created_at,
	updated_at
`

func (r *lotRepository) FindAll(ctx context.Context) ([]models.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots: %w", err)
	}
	defer rows.Close()

	return collectLots(rows)
}

func (r *lotRepository) FindByEstado(ctx context.Context, estado models.Estado) ([]models.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE estado = $1 ORDER BY codigo`

	rows, err := r.db.Pool.Query(ctx, query, string(estado))
	if err != nil {
		return nil, fmt.Errorf("failed to query lots by estado %q: %w", estado, err)
	}
	defer rows.Close()

	return collectLots(rows)
}

func (r *lotRepository) FindNear(ctx context.Context, lat, lng float64, radiusMeters int) ([]models.Lot, error) {
	precision := geohashPrecisionFor(radiusMeters)
	center := geohash.EncodeWithPrecision(lat, lng, precision)

	// The center cell plus its 8 neighbors cover every point within one
	// cell width of the query, which is at least the radius at the chosen
	// precision.
	prefixes := append(geohash.Neighbors(center), center)

	query := `SELECT ` + lotColumns + ` FROM lots WHERE left(geohash, $1) = ANY($2)`

	rows, err := r.db.Pool.Query(ctx, query, int(precision), prefixes)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots near (lat=%f, lng=%f): %w", lat, lng, err)
	}
	defer rows.Close()

	return collectLots(rows)
}

func (r *lotRepository) FindByUID(ctx context.Context, uid string) (*models.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE uid = $1`

	row := r.db.Pool.QueryRow(ctx, query, uid)
	lot, err := scanLot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query lot %s: %w", uid, err)
	}
	return &lot, nil
}

// geohashPrecisionFor picks the coarsest geohash length whose cell size
// still covers the radius from a center cell plus neighbors.
func geohashPrecisionFor(radiusMeters int) uint {
	switch {
	case radiusMeters <= 500:
		return 6 // ~0.6km cell height
	case radiusMeters <= 4000:
		return 5 // ~4.9km cells
	case radiusMeters <= 19000:
		return 4 // ~19.5km cell height
	default:
		return 3
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLot(row rowScanner) (models.Lot, error) {
	var (
		lot         models.Lot
		rawGeometry *string
		ownerID     *string
		ownerName   *string
		ownerDoc    *string
		ownerPhone  *string
		houseName   *string
		housePrice  *int64
		houseDesc   *string
		imageURLs   []string
	)

	err := row.Scan(
		&lot.UID,
		&lot.Codigo,
		&lot.Estado,
		&rawGeometry,
		&lot.AreaM2,
		&lot.Price,
		&lot.Address,
		&ownerID,
		&ownerName,
		&ownerDoc,
		&ownerPhone,
		&houseName,
		&housePrice,
		&houseDesc,
		&imageURLs,
		&lot.CreatedAt,
		&lot.UpdatedAt,
	)
	if err != nil {
		return models.Lot{}, err
	}

	if rawGeometry != nil {
		lot.RawGeometry = []byte(*rawGeometry)
	}
	lot.ImageURLs = imageURLs

	// Owner columns are all-or-nothing in practice; any present column
	// produces a reference so the visibility policy can reason about it.
	if ownerID != nil || ownerName != nil || ownerDoc != nil {
		lot.Owner = &models.OwnerRef{
			ClientID:    deref(ownerID),
			DisplayName: deref(ownerName),
			DocumentID:  deref(ownerDoc),
			Phone:       deref(ownerPhone),
		}
	}

	if houseName != nil {
		lot.HouseModel = &models.HouseModelRef{
			Name:        *houseName,
			BasePrice:   derefInt(housePrice),
			Description: deref(houseDesc),
		}
	}

	return lot, nil
}

func collectLots(rows pgx.Rows) ([]models.Lot, error) {
	lots := []models.Lot{}
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lot row: %w", err)
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lot rows: %w", err)
	}
	return lots, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}
