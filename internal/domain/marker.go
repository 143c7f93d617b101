package domain

// Severity is the three-level marker class derived from magnitude.
type Severity string

const (
	SeverityHigh   Severity = "high"   // magnitude >= 5.0
	SeverityMedium Severity = "medium" // 3.0 <= magnitude < 5.0
	SeverityLow    Severity = "low"
)

const (
	markerSizePerMagnitude = 6.0
	markerMinSize          = 18.0
)

// ClassifySeverity maps a nullable magnitude to a severity class. A missing
// magnitude is treated as zero.
func ClassifySeverity(magnitude *float64) Severity {
	m := 0.0
	if magnitude != nil {
		m = *magnitude
	}
	switch {
	case m >= 5.0:
		return SeverityHigh
	case m >= 3.0:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// MarkerSize returns the marker diameter in pixels: linear in magnitude,
// floored so zero, negative, and missing magnitudes remain visible.
func MarkerSize(magnitude *float64) float64 {
	m := 0.0
	if magnitude != nil && *magnitude > 0 {
		m = *magnitude
	}
	size := markerSizePerMagnitude * m
	if size < markerMinSize {
		return markerMinSize
	}
	return size
}
