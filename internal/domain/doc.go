// Package domain models the data a seismic map view works with.
//
// # Data Sources
//
// Earthquake events come from the USGS real-time GeoJSON summary feed
// (https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/), which covers
// a rolling window of the past 24 hours across all magnitudes. Each feature
// carries an identifier, a properties object (magnitude, place, time, report
// URL), and a geometry whose coordinates follow the GeoJSON convention of
// [longitude, latitude, depth]. The feed is re-read wholesale; events are
// never merged or patched.
//
// Location suggestions come from a Nominatim-style geocoding search. Latitude
// and longitude arrive as decimal strings, and the bounding box is four
// decimal strings in the fixed order [south, north, west, east].
//
// # Data Conventions
//
// Magnitude may be null in the upstream feed (some networks report events
// before a magnitude is assigned). A missing magnitude is treated as zero for
// styling and rendered as "N/A" in text. A missing place description falls
// back to a fixed placeholder.
//
// Severity classification is a three-level scale for marker styling:
//
//	>= 5.0          high
//	>= 3.0, < 5.0   medium
//	otherwise       low
//
// Marker size scales linearly with magnitude (6 px per unit) and is floored
// at 18 px so weak or unmeasured events remain visible.
package domain
