package viewstate

import (
	"context"
	"time"

	"github.com/golang/geo/s2"

	"github.com/seismoscope/quakeview/internal/domain"
)

// Animation holds the fixed parameters applied to every camera transition.
type Animation struct {
	Duration time.Duration
	Easing   string
}

// DefaultAnimation is used for all fly-to and fit-bounds commands.
var DefaultAnimation = Animation{
	Duration: 1500 * time.Millisecond,
	Easing:   "ease-in-out",
}

// Zoom levels for the two fly-to cases.
const (
	ZoomPlace = 12.0 // camera target for a selected location suggestion
	ZoomEvent = 8.0  // camera target for a selected seismic event
)

// Viewport is the map camera surface the controller commands. It becomes
// available only after the map surface mounts; until then camera commands are
// dropped. Both methods return once the transition has been accepted (or
// failed), giving callers that need to sequence transitions a completion
// signal.
type Viewport interface {
	FlyTo(ctx context.Context, target s2.LatLng, zoom float64, anim Animation) error
	FitBounds(ctx context.Context, bounds s2.Rect, anim Animation) error
}

// ThemeApplier receives the theme whenever it changes, so dependent visual
// elements re-render consistently without reading controller state.
type ThemeApplier interface {
	ApplyTheme(theme domain.Theme)
}
