// Package viewstate owns the map view state: the loaded event set, the search
// text and its debounced suggestion fetches, the current selection, and the
// theme. All mutation goes through the Controller's command methods; readers
// get consistent copies via Snapshot.
package viewstate

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/golang/geo/s2"
	"github.com/jonboulle/clockwork"

	"github.com/seismoscope/quakeview/internal/domain"
	"github.com/seismoscope/quakeview/internal/observability"
)

// FeedSource delivers the full seismic event set.
type FeedSource interface {
	FetchEvents(ctx context.Context) ([]domain.SeismicEvent, error)
}

// SuggestionSearcher performs a free-text location lookup.
type SuggestionSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.LocationSuggestion, error)
}

// EventPublisher mirrors a loaded event set to a downstream stream.
type EventPublisher interface {
	PublishEvents(ctx context.Context, events []domain.SeismicEvent) error
}

const genericLoadError = "failed to load earthquake data"

// Config tunes the controller. Zero values select the defaults.
type Config struct {
	DebounceInterval time.Duration   // default 300ms
	MinQueryRunes    int             // default 3; shorter queries clear suggestions
	SuggestionLimit  int             // default 5
	SearchTimeout    time.Duration   // default 5s, applied per suggestion fetch
	Clock            clockwork.Clock // default real clock; tests inject a fake
	Stream           EventPublisher  // optional mirror of loaded events
	Themes           ThemeApplier    // optional global theme sink
}

// Controller is the single owner of the view state. It mediates between the
// seismic feed, the geocoding search, the map viewport, and the presentational
// surfaces.
type Controller struct {
	feed     FeedSource
	searcher SuggestionSearcher
	stream   EventPublisher
	themes   ThemeApplier
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock

	debounceInterval time.Duration
	minQueryRunes    int
	suggestionLimit  int
	searchTimeout    time.Duration

	mu       sync.Mutex
	state    domain.ViewState
	viewport Viewport
	debounce clockwork.Timer
	// searchSeq orders suggestion fetches. Each issued fetch takes the next
	// value; a response only applies while its value is still the latest, so
	// a slow stale response can never clobber a newer one.
	searchSeq uint64
	loaded    bool
}

// New creates a Controller in the Loading state with no viewport attached.
func New(feed FeedSource, searcher SuggestionSearcher, cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = 300 * time.Millisecond
	}
	if cfg.MinQueryRunes <= 0 {
		cfg.MinQueryRunes = 3
	}
	if cfg.SuggestionLimit <= 0 {
		cfg.SuggestionLimit = 5
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = 5 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return &Controller{
		feed:             feed,
		searcher:         searcher,
		stream:           cfg.Stream,
		themes:           cfg.Themes,
		logger:           logger,
		metrics:          metrics,
		clock:            cfg.Clock,
		debounceInterval: cfg.DebounceInterval,
		minQueryRunes:    cfg.MinQueryRunes,
		suggestionLimit:  cfg.SuggestionLimit,
		searchTimeout:    cfg.SearchTimeout,
		state: domain.ViewState{
			Loading:     true,
			Events:      []domain.SeismicEvent{},
			Suggestions: []domain.LocationSuggestion{},
			Theme:       domain.ThemeDark,
		},
	}
}

// Load performs the one-shot initial feed fetch. On success the event set is
// replaced wholesale; on failure the error is stored and surfaced as a
// blocking message. No retry is attempted; failure is terminal for the
// session.
func (c *Controller) Load(ctx context.Context) error {
	events, err := c.feed.FetchEvents(ctx)

	c.mu.Lock()
	c.state.Loading = false
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = genericLoadError
		}
		c.state.Error = msg
		c.mu.Unlock()
		c.logger.Error("initial event load failed", "error", err)
		return err
	}
	c.state.Events = events
	c.state.Error = ""
	c.loaded = true
	c.mu.Unlock()

	c.metrics.EventsLoaded.Set(float64(len(events)))
	c.logger.Info("event feed loaded", "events", len(events))

	if c.stream != nil {
		if err := c.stream.PublishEvents(ctx, events); err != nil {
			c.metrics.StreamErrors.Inc()
			c.logger.Warn("mirror publish failed", "error", err)
		} else {
			c.metrics.StreamPublished.Add(float64(len(events)))
		}
	}
	return nil
}

// CheckReadiness reports whether the initial load has completed successfully.
func (c *Controller) CheckReadiness(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}
	if c.state.Error != "" {
		return errors.New(c.state.Error)
	}
	return errors.New("initial event load has not completed")
}

// Snapshot returns a copy of the current view state. Slices and the selected
// event are cloned so callers cannot mutate controller state.
func (c *Controller) Snapshot() domain.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.state
	snap.Events = slices.Clone(c.state.Events)
	snap.Suggestions = slices.Clone(c.state.Suggestions)
	if c.state.Selected != nil {
		sel := *c.state.Selected
		snap.Selected = &sel
	}
	return snap
}

// SetSearchText updates the search text immediately and debounces the
// downstream suggestion fetch. A query of fewer than MinQueryRunes runes
// clears the suggestion set synchronously, cancels any pending fetch, and
// invalidates in-flight responses.
func (c *Controller) SetSearchText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.SearchText = text
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}

	query := strings.TrimSpace(text)
	if utf8.RuneCountInString(query) < c.minQueryRunes {
		c.state.Suggestions = []domain.LocationSuggestion{}
		c.searchSeq++ // any in-flight response is now stale
		return
	}

	c.debounce = c.clock.AfterFunc(c.debounceInterval, func() {
		c.fetchSuggestions(query)
	})
}

// fetchSuggestions runs on debounce expiry. The prior suggestion set is kept
// on failure; suggestion errors are never surfaced to the user.
func (c *Controller) fetchSuggestions(query string) {
	c.mu.Lock()
	c.searchSeq++
	seq := c.searchSeq
	limit := c.suggestionLimit
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.searchTimeout)
	defer cancel()

	results, err := c.searcher.Search(ctx, query, limit)
	if err != nil {
		c.metrics.SuggestionRequests.WithLabelValues("error").Inc()
		c.logger.Warn("suggestion search failed", "query", query, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.searchSeq {
		c.metrics.SuggestionStaleDrops.Inc()
		c.logger.Debug("stale suggestion response discarded", "query", query)
		return
	}
	if results == nil {
		results = []domain.LocationSuggestion{}
	}
	c.state.Suggestions = results
	c.metrics.SuggestionRequests.WithLabelValues("success").Inc()
}

// SelectSuggestion applies a chosen suggestion: the search text becomes its
// display label, the suggestion set is cleared, and the camera moves. A
// country with a usable bounding box gets a fit-to-bounds; everything else a
// point fly-to at the place zoom level.
func (c *Controller) SelectSuggestion(s domain.LocationSuggestion) {
	c.mu.Lock()
	c.state.SearchText = s.DisplayName
	c.state.Suggestions = []domain.LocationSuggestion{}
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	c.searchSeq++
	vp := c.viewport
	c.mu.Unlock()

	if vp == nil {
		return
	}

	if s.Kind == domain.KindCountry {
		if bounds, ok := s.Bounds(); ok {
			c.fitBounds(vp, bounds)
			return
		}
	}

	target, err := s.Point()
	if err != nil {
		c.logger.Warn("suggestion has unusable coordinates", "place_id", s.PlaceID, "error", err)
		return
	}
	c.flyTo(vp, target, ZoomPlace)
}

// SelectSuggestionByID selects the suggestion with the given place ID from the
// current set. Returns false if it is not present.
func (c *Controller) SelectSuggestionByID(placeID int64) bool {
	c.mu.Lock()
	var found *domain.LocationSuggestion
	for i := range c.state.Suggestions {
		if c.state.Suggestions[i].PlaceID == placeID {
			s := c.state.Suggestions[i]
			found = &s
			break
		}
	}
	c.mu.Unlock()

	if found == nil {
		return false
	}
	c.SelectSuggestion(*found)
	return true
}

// SelectEvent marks the event as selected (revealing the detail panel) and
// flies the camera to it.
func (c *Controller) SelectEvent(e domain.SeismicEvent) {
	c.mu.Lock()
	sel := e
	c.state.Selected = &sel
	vp := c.viewport
	c.mu.Unlock()

	if vp != nil {
		c.flyTo(vp, e.LatLng(), ZoomEvent)
	}
}

// SelectEventByID selects the loaded event with the given ID. Returns false
// if no such event is loaded.
func (c *Controller) SelectEventByID(id string) bool {
	c.mu.Lock()
	var found *domain.SeismicEvent
	for i := range c.state.Events {
		if c.state.Events[i].ID == id {
			e := c.state.Events[i]
			found = &e
			break
		}
	}
	c.mu.Unlock()

	if found == nil {
		return false
	}
	c.SelectEvent(*found)
	return true
}

// ClearSelection drops the selected event, hiding the detail panel.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Selected = nil
}

// AttachViewport connects the map camera. If an event is already selected the
// fly-to is issued now, so a selection made before the surface mounted still
// moves the camera.
func (c *Controller) AttachViewport(vp Viewport) {
	c.mu.Lock()
	c.viewport = vp
	var sel *domain.SeismicEvent
	if c.state.Selected != nil {
		s := *c.state.Selected
		sel = &s
	}
	c.mu.Unlock()

	if vp != nil && sel != nil {
		c.flyTo(vp, sel.LatLng(), ZoomEvent)
	}
}

// ToggleTheme flips the theme and pushes it to the global theme sink.
func (c *Controller) ToggleTheme() domain.Theme {
	c.mu.Lock()
	c.state.Theme = c.state.Theme.Toggle()
	theme := c.state.Theme
	c.mu.Unlock()

	c.metrics.ThemeToggles.Inc()
	if c.themes != nil {
		c.themes.ApplyTheme(theme)
	}
	return theme
}

// Camera commands are fire-and-forget from the controller's point of view: a
// later transition simply overrides an earlier one, so failures are only
// logged.

func (c *Controller) flyTo(vp Viewport, target s2.LatLng, zoom float64) {
	c.metrics.CameraCommands.WithLabelValues("fly_to").Inc()
	if err := vp.FlyTo(context.Background(), target, zoom, DefaultAnimation); err != nil {
		c.logger.Warn("fly-to failed", "error", err)
	}
}

func (c *Controller) fitBounds(vp Viewport, bounds s2.Rect) {
	c.metrics.CameraCommands.WithLabelValues("fit_bounds").Inc()
	if err := vp.FitBounds(context.Background(), bounds, DefaultAnimation); err != nil {
		c.logger.Warn("fit-bounds failed", "error", err)
	}
}
