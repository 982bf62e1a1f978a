package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/solterra/lotmap/internal/access"
	apierrors "github.com/solterra/lotmap/internal/errors"
	"github.com/solterra/lotmap/internal/geometry"
	"github.com/solterra/lotmap/internal/middleware"
	"github.com/solterra/lotmap/internal/models"
	"github.com/solterra/lotmap/internal/services"
)

// Viewer identity headers. Authentication itself lives outside this
// service; these carry the already-authenticated identity for owner
// matching.
const (
	HeaderViewerID       = "X-Viewer-ID"
	HeaderViewerName     = "X-Viewer-Name"
	HeaderViewerDocument = "X-Viewer-Document"
)

// LotHandler handles lot-related HTTP requests.
type LotHandler struct {
	service services.LotService
}

// NewLotHandler creates a new LotHandler instance.
func NewLotHandler(service services.LotService) *LotHandler {
	return &LotHandler{service: service}
}

// VisibleRequest represents the query parameters for the visible endpoint.
type VisibleRequest struct {
	Role string `form:"role" binding:"omitempty,oneof=guest owner admin"`
}

// NearRequest represents the query parameters for the near endpoint.
// Lat/Lng bind through pointers: required on a plain float64 rejects the
// zero value, and lat=0 or lng=0 are valid coordinates.
type NearRequest struct {
	Lat    *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lng    *float64 `form:"lng" binding:"required,min=-180,max=180"`
	Radius int      `form:"radius" binding:"omitempty,min=1,max=50000"`
}

// GeometryData is the normalized geometry in API responses. All vertex
// pairs are latitude-first; the longitude-first wire order never leaves
// the parser.
type GeometryData struct {
	Kind    string       `json:"kind"`
	Anchor  [2]float64   `json:"anchor"`
	Point   *[2]float64  `json:"point,omitempty"`
	Ring    [][2]float64 `json:"ring,omitempty"`
	Geohash string       `json:"geohash"`
}

// OwnerData is the owner reference in API responses. Present only when
// the visibility policy allows it for the requesting role.
type OwnerData struct {
	ClientID    string `json:"client_id,omitempty"`
	DisplayName string `json:"display_name"`
	DocumentID  string `json:"document_id,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// HouseModelData is the associated house model in API responses.
type HouseModelData struct {
	Name        string `json:"name"`
	BasePrice   int64  `json:"base_price"`
	Description string `json:"description,omitempty"`
}

// LotData represents one lot in API responses.
type LotData struct {
	UID        string          `json:"uid"`
	Codigo     string          `json:"codigo"`
	Estado     string          `json:"estado"`
	Geometry   *GeometryData   `json:"geometry,omitempty"`
	AreaM2     float64         `json:"area_m2"`
	Price      int64           `json:"price"`
	Address    string          `json:"address,omitempty"`
	Owner      *OwnerData      `json:"owner,omitempty"`
	HouseModel *HouseModelData `json:"house_model,omitempty"`
	ImageURLs  []string        `json:"image_urls,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// LotListResponse is the envelope for list endpoints, with counts for the
// "N of M lots" display.
type LotListResponse struct {
	Lots  []LotData `json:"lots"`
	Count int       `json:"count"`
}

// LotWithDistanceData is a lot with its distance from the query point.
type LotWithDistanceData struct {
	LotData
	DistanceMeters float64 `json:"distance_meters"`
}

// NearResponse is the envelope for the near endpoint.
type NearResponse struct {
	Lots  []LotWithDistanceData `json:"lots"`
	Count int                   `json:"count"`
}

// Visible handles GET /api/v1/lots/visible.
// It returns the role-gated visible set with normalized geometry.
func (h *LotHandler) Visible(c *gin.Context) {
	var req VisibleRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	role := access.RoleGuest
	if req.Role != "" {
		role, _ = access.ParseRole(req.Role)
	}
	viewer := viewerFrom(c)

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Processing visible-set request", map[string]interface{}{
			"role":   role,
			"viewer": viewer.ID,
		})
	}

	lots, err := h.service.VisibleLots(c.Request.Context(), role, viewer)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to compute visible set", err)
		return
	}

	c.JSON(http.StatusOK, mapLotList(lots))
}

// ByState handles GET /api/v1/lots/by-state/:estado. Admin only.
func (h *LotHandler) ByState(c *gin.Context) {
	estado, err := models.ParseEstado(c.Param("estado"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid estado", map[string]interface{}{
			"estado": c.Param("estado"),
		})
		return
	}

	role := roleFrom(c)

	lots, err := h.service.LotsByState(c.Request.Context(), estado, role)
	if err != nil {
		if errors.Is(err, services.ErrNotAuthorized) {
			apierrors.Forbidden(c, "This operation requires the admin role")
			return
		}
		apierrors.InternalServerError(c, "Failed to query lots by estado", err)
		return
	}

	c.JSON(http.StatusOK, mapLotList(lots))
}

// Near handles GET /api/v1/lots/near.
// It returns visible lots within the radius, closest first.
func (h *LotHandler) Near(c *gin.Context) {
	var req NearRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	const defaultRadiusMeters = 1000
	if req.Radius == 0 {
		req.Radius = defaultRadiusMeters
	}

	role := roleFrom(c)
	viewer := viewerFrom(c)

	results, err := h.service.NearbyLots(c.Request.Context(), *req.Lat, *req.Lng, req.Radius, role, viewer)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCoordinates) || errors.Is(err, services.ErrInvalidRadius) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to query nearby lots", err)
		return
	}

	lots := make([]LotWithDistanceData, 0, len(results))
	for _, r := range results {
		lots = append(lots, LotWithDistanceData{
			LotData:        mapLot(r.Lot),
			DistanceMeters: r.DistanceMeters,
		})
	}

	c.JSON(http.StatusOK, NearResponse{Lots: lots, Count: len(lots)})
}

// ByUID handles GET /api/v1/lots/:uid.
func (h *LotHandler) ByUID(c *gin.Context) {
	uid := c.Param("uid")
	role := roleFrom(c)
	viewer := viewerFrom(c)

	lot, err := h.service.LotByUID(c.Request.Context(), uid, role, viewer)
	if err != nil {
		if errors.Is(err, services.ErrLotNotFound) {
			apierrors.NotFound(c, "No lot found for this identifier")
			return
		}
		apierrors.InternalServerError(c, "Failed to query lot", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lot": mapLot(*lot)})
}

// roleFrom reads the role query parameter, defaulting to guest. Unknown
// values also degrade to guest rather than erroring.
func roleFrom(c *gin.Context) access.Role {
	role, err := access.ParseRole(c.Query("role"))
	if err != nil {
		return access.RoleGuest
	}
	return role
}

func viewerFrom(c *gin.Context) access.Viewer {
	return access.Viewer{
		ID:       c.GetHeader(HeaderViewerID),
		Name:     c.GetHeader(HeaderViewerName),
		Document: c.GetHeader(HeaderViewerDocument),
	}
}

func mapLotList(lots []models.Lot) LotListResponse {
	data := make([]LotData, 0, len(lots))
	for _, lot := range lots {
		data = append(data, mapLot(lot))
	}
	return LotListResponse{Lots: data, Count: len(data)}
}

func mapLot(lot models.Lot) LotData {
	data := LotData{
		UID:       lot.UID,
		Codigo:    lot.Codigo,
		Estado:    string(lot.Estado),
		AreaM2:    lot.AreaM2,
		Price:     lot.Price,
		Address:   lot.Address,
		ImageURLs: lot.ImageURLs,
		CreatedAt: lot.CreatedAt,
		UpdatedAt: lot.UpdatedAt,
	}

	if lot.Owner != nil {
		data.Owner = &OwnerData{
			ClientID:    lot.Owner.ClientID,
			DisplayName: lot.Owner.DisplayName,
			DocumentID:  lot.Owner.DocumentID,
			Phone:       lot.Owner.Phone,
		}
	}
	if lot.HouseModel != nil {
		data.HouseModel = &HouseModelData{
			Name:        lot.HouseModel.Name,
			BasePrice:   lot.HouseModel.BasePrice,
			Description: lot.HouseModel.Description,
		}
	}
	if lot.Geometry != nil {
		data.Geometry = mapGeometry(lot.Geometry)
	}

	return data
}

func mapGeometry(g *geometry.Geometry) *GeometryData {
	anchor := g.Anchor()
	data := &GeometryData{
		Kind:    string(g.Kind),
		Anchor:  [2]float64{anchor.Lat(), anchor.Lon()},
		Geohash: g.Geohash(),
	}

	switch g.Kind {
	case geometry.KindPoint:
		p := [2]float64{g.Point.Lat(), g.Point.Lon()}
		data.Point = &p
	case geometry.KindPolygon:
		ring := make([][2]float64, 0, len(g.Ring))
		for _, v := range g.Ring {
			ring = append(ring, [2]float64{v.Lat(), v.Lon()})
		}
		data.Ring = ring
	}

	return data
}
