package domain

import (
	"fmt"
	"strconv"

	"github.com/golang/geo/s2"
)

// UnknownPlace is the display fallback for events without a place description.
const UnknownPlace = "Unknown location"

// FeatureCollection mirrors the USGS GeoJSON summary feed shape.
type FeatureCollection struct {
	Features []Feature `json:"features"`
}

// Feature is one earthquake record as delivered by the feed.
type Feature struct {
	ID         string            `json:"id"`
	Properties FeatureProperties `json:"properties"`
	Geometry   FeatureGeometry   `json:"geometry"`
}

// FeatureProperties holds the event attributes the view cares about.
type FeatureProperties struct {
	Mag   *float64 `json:"mag"` // may be null before a magnitude is assigned
	Place string   `json:"place"`
	Time  int64    `json:"time"` // epoch milliseconds
	URL   string   `json:"url"`
}

// FeatureGeometry carries the GeoJSON coordinate triple [lon, lat, depth].
type FeatureGeometry struct {
	Coordinates []float64 `json:"coordinates"`
}

// SeismicEvent is the domain representation of one earthquake. Immutable once
// fetched; the full set is replaced wholesale on each load.
type SeismicEvent struct {
	ID        string   `json:"id"`
	Magnitude *float64 `json:"magnitude"`
	Place     string   `json:"place"`
	Time      int64    `json:"time"` // epoch milliseconds
	URL       string   `json:"url"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Depth     float64  `json:"depth"`
}

// Events maps the raw feature collection to domain events, inverting the
// GeoJSON [lon, lat, depth] ordering into named fields.
func (fc FeatureCollection) Events() []SeismicEvent {
	events := make([]SeismicEvent, 0, len(fc.Features))
	for _, f := range fc.Features {
		events = append(events, f.toEvent())
	}
	return events
}

func (f Feature) toEvent() SeismicEvent {
	e := SeismicEvent{
		ID:        f.ID,
		Magnitude: f.Properties.Mag,
		Place:     f.Properties.Place,
		Time:      f.Properties.Time,
		URL:       f.Properties.URL,
	}
	if len(f.Geometry.Coordinates) >= 2 {
		e.Lon = f.Geometry.Coordinates[0]
		e.Lat = f.Geometry.Coordinates[1]
	}
	if len(f.Geometry.Coordinates) >= 3 {
		e.Depth = f.Geometry.Coordinates[2]
	}
	return e
}

// LatLng returns the event position as an s2 lat/lng pair.
func (e SeismicEvent) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(e.Lat, e.Lon)
}

// DisplayPlace returns the place description, or a fixed placeholder when the
// feed omitted it.
func (e SeismicEvent) DisplayPlace() string {
	if e.Place == "" {
		return UnknownPlace
	}
	return e.Place
}

// DisplayMagnitude formats the magnitude for text display. Null magnitudes
// render as "N/A".
func (e SeismicEvent) DisplayMagnitude() string {
	if e.Magnitude == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*e.Magnitude, 'f', 1, 64)
}

// String implements fmt.Stringer for log output.
func (e SeismicEvent) String() string {
	return fmt.Sprintf("%s M%s %s", e.ID, e.DisplayMagnitude(), e.DisplayPlace())
}
