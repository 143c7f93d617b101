package domain

import (
	"fmt"
	"strconv"

	"github.com/golang/geo/s2"
)

// KindCountry is the place-kind tag that triggers a fit-to-bounds transition
// instead of a point fly-to.
const KindCountry = "country"

// LocationSuggestion is one geocoding search result. The set is transient:
// replaced wholesale on every debounced search, discarded when the query is
// cleared or shortened below the minimum length.
type LocationSuggestion struct {
	PlaceID     int64    `json:"place_id"`
	DisplayName string   `json:"display_name"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	Kind        string   `json:"type"`
	BoundingBox []string `json:"boundingbox"` // [south, north, west, east]
}

// Point parses the suggestion's coordinates into an s2 lat/lng pair.
func (s LocationSuggestion) Point() (s2.LatLng, error) {
	lat, err := strconv.ParseFloat(s.Lat, 64)
	if err != nil {
		return s2.LatLng{}, fmt.Errorf("parse suggestion latitude %q: %w", s.Lat, err)
	}
	lon, err := strconv.ParseFloat(s.Lon, 64)
	if err != nil {
		return s2.LatLng{}, fmt.Errorf("parse suggestion longitude %q: %w", s.Lon, err)
	}
	return s2.LatLngFromDegrees(lat, lon), nil
}

// Bounds parses the bounding box into an s2 rect spanning the southwest and
// northeast corners. The second return is false when the box is absent or
// malformed.
func (s LocationSuggestion) Bounds() (s2.Rect, bool) {
	if len(s.BoundingBox) != 4 {
		return s2.Rect{}, false
	}
	vals := make([]float64, 4)
	for i, raw := range s.BoundingBox {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return s2.Rect{}, false
		}
		vals[i] = v
	}
	south, north, west, east := vals[0], vals[1], vals[2], vals[3]
	rect := s2.RectFromLatLng(s2.LatLngFromDegrees(south, west))
	rect = rect.AddPoint(s2.LatLngFromDegrees(north, east))
	return rect, true
}
