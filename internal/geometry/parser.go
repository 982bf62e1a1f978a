package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Parse failure sentinels. Callers are expected to treat any error from
// Parse as a per-lot condition: skip the lot and log a warning, never
// abort the whole screen.
var (
	ErrEmptyPayload    = errors.New("geometry payload is empty")
	ErrMalformed       = errors.New("geometry payload is malformed")
	ErrUnsupportedKind = errors.New("unsupported geometry kind")
	ErrRingTooSmall    = errors.New("polygon ring has fewer than 3 vertices")
	ErrBadCoordinate   = errors.New("non-numeric or out-of-range coordinate")
)

// wireGeometry is the structured wire form. Coordinates are stored
// longitude-first on the wire, matching the backend contract.
type wireGeometry struct {
	Kind        string          `json:"kind"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Parse converts a raw geometry payload into a normalized Geometry.
//
// Three input forms are accepted:
//   - absent/blank payload: returns ErrEmptyPayload
//   - legacy "<lat>,<lng>" string (latitude first, unlike the structured form)
//   - structured JSON {"kind": "Point"|"Polygon", "coordinates": ...} with
//     (lng, lat) vertex order
//
// For polygons only the first ring is kept; holes are ignored. Parse never
// panics on malformed input.
func Parse(raw []byte) (*Geometry, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil, ErrEmptyPayload
	}

	if strings.HasPrefix(s, "{") {
		return parseStructured([]byte(s))
	}

	// A JSON-quoted string carries the legacy form.
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformed, s)
		}
		s = unquoted
	}

	return parseLegacy(s)
}

// parseLegacy handles the historical "<lat>,<lng>" string format.
func parseLegacy(s string) (*Geometry, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: expected \"lat,lng\", got %q", ErrMalformed, s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: latitude %q", ErrBadCoordinate, parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: longitude %q", ErrBadCoordinate, parts[1])
	}
	if err := checkLatLng(lat, lng); err != nil {
		return nil, err
	}

	return &Geometry{Kind: KindPoint, Point: orb.Point{lng, lat}}, nil
}

func parseStructured(raw []byte) (*Geometry, error) {
	var wire wireGeometry
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch Kind(wire.Kind) {
	case KindPoint:
		return parseWirePoint(wire.Coordinates)
	case KindPolygon:
		return parseWirePolygon(wire.Coordinates)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, wire.Kind)
	}
}

func parseWirePoint(coords json.RawMessage) (*Geometry, error) {
	// Wire order is (lng, lat). Decoding into a slice rather than a fixed
	// array so a short pair fails instead of zero-filling.
	var pair []float64
	if err := json.Unmarshal(coords, &pair); err != nil {
		return nil, fmt.Errorf("%w: point coordinates: %v", ErrBadCoordinate, err)
	}
	if len(pair) != 2 {
		return nil, fmt.Errorf("%w: point has %d coordinates, want 2", ErrMalformed, len(pair))
	}
	if err := checkLatLng(pair[1], pair[0]); err != nil {
		return nil, err
	}

	return &Geometry{Kind: KindPoint, Point: orb.Point{pair[0], pair[1]}}, nil
}

func parseWirePolygon(coords json.RawMessage) (*Geometry, error) {
	// Wire shape is [rings][vertices][lng, lat]. Only the outer ring is kept.
	var rings [][][]float64
	if err := json.Unmarshal(coords, &rings); err != nil {
		return nil, fmt.Errorf("%w: polygon coordinates: %v", ErrBadCoordinate, err)
	}
	if len(rings) == 0 {
		return nil, fmt.Errorf("%w: polygon has no rings", ErrMalformed)
	}

	outer := rings[0]
	if len(outer) < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrRingTooSmall, len(outer))
	}

	ring := make(orb.Ring, 0, len(outer))
	for _, pair := range outer {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: vertex has %d coordinates, want 2", ErrMalformed, len(pair))
		}
		if err := checkLatLng(pair[1], pair[0]); err != nil {
			return nil, err
		}
		ring = append(ring, orb.Point{pair[0], pair[1]})
	}

	return &Geometry{Kind: KindPolygon, Ring: ring}, nil
}

func checkLatLng(lat, lng float64) error {
	// NaN compares false against every bound, so non-finite values must be
	// rejected explicitly; strconv.ParseFloat happily accepts "NaN" and "Inf".
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %f", ErrBadCoordinate, lat)
	}
	if math.IsNaN(lng) || math.IsInf(lng, 0) || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %f", ErrBadCoordinate, lng)
	}
	return nil
}
