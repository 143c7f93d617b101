package viewstate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/golang/geo/s2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seismoscope/quakeview/internal/domain"
	"github.com/seismoscope/quakeview/internal/observability"
)

// --- fakes ---

type fakeFeed struct {
	events []domain.SeismicEvent
	err    error
	calls  int
}

func (f *fakeFeed) FetchEvents(_ context.Context) ([]domain.SeismicEvent, error) {
	f.calls++
	return f.events, f.err
}

type fakeSearcher struct {
	mu      sync.Mutex
	results []domain.LocationSuggestion
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]domain.LocationSuggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.results, f.err
}

func (f *fakeSearcher) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeSearcher) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return ""
	}
	return f.queries[len(f.queries)-1]
}

type cameraCall struct {
	kind   string // "fly_to" or "fit_bounds"
	target s2.LatLng
	bounds s2.Rect
	zoom   float64
	anim   Animation
}

type fakeViewport struct {
	mu    sync.Mutex
	calls []cameraCall
	err   error
}

func (v *fakeViewport) FlyTo(_ context.Context, target s2.LatLng, zoom float64, anim Animation) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, cameraCall{kind: "fly_to", target: target, zoom: zoom, anim: anim})
	return v.err
}

func (v *fakeViewport) FitBounds(_ context.Context, bounds s2.Rect, anim Animation) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, cameraCall{kind: "fit_bounds", bounds: bounds, anim: anim})
	return v.err
}

func (v *fakeViewport) snapshot() []cameraCall {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]cameraCall, len(v.calls))
	copy(out, v.calls)
	return out
}

type fakeThemes struct {
	mu      sync.Mutex
	applied []domain.Theme
}

func (f *fakeThemes) ApplyTheme(theme domain.Theme) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, theme)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mag(v float64) *float64 { return &v }

func newController(feed FeedSource, searcher SuggestionSearcher, cfg Config) *Controller {
	return New(feed, searcher, cfg, discardLogger(), observability.NewMetricsForTesting())
}

// --- initial load ---

func TestLoad_Success(t *testing.T) {
	feed := &fakeFeed{events: []domain.SeismicEvent{
		{ID: "a", Magnitude: mag(4.2), Lat: 35.6, Lon: 139.7},
		{ID: "b", Magnitude: nil, Lat: -4.7, Lon: 152.1},
	}}
	c := newController(feed, &fakeSearcher{}, Config{})

	assert.True(t, c.Snapshot().Loading)

	require.NoError(t, c.Load(context.Background()))

	snap := c.Snapshot()
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)
	assert.Len(t, snap.Events, 2)
	assert.NoError(t, c.CheckReadiness(context.Background()))
}

func TestLoad_Failure_IsTerminal(t *testing.T) {
	feed := &fakeFeed{err: errors.New("seismic feed: status 500: upstream unavailable")}
	c := newController(feed, &fakeSearcher{}, Config{})

	require.Error(t, c.Load(context.Background()))

	snap := c.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, "seismic feed: status 500: upstream unavailable", snap.Error)
	assert.Empty(t, snap.Events, "no events rendered after a failed load")

	err := c.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestLoad_ReplacesEventsWholesale(t *testing.T) {
	feed := &fakeFeed{events: []domain.SeismicEvent{{ID: "a"}, {ID: "b"}}}
	c := newController(feed, &fakeSearcher{}, Config{})
	require.NoError(t, c.Load(context.Background()))

	feed.events = []domain.SeismicEvent{{ID: "c"}}
	require.NoError(t, c.Load(context.Background()))

	snap := c.Snapshot()
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "c", snap.Events[0].ID)
}

func TestCheckReadiness_BeforeLoad(t *testing.T) {
	c := newController(&fakeFeed{}, &fakeSearcher{}, Config{})
	err := c.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not completed")
}

// --- mirror stream ---

type fakeStream struct {
	mu        sync.Mutex
	published [][]domain.SeismicEvent
	err       error
}

func (f *fakeStream) PublishEvents(_ context.Context, events []domain.SeismicEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, events)
	return f.err
}

func TestLoad_MirrorsEventsToStream(t *testing.T) {
	stream := &fakeStream{}
	feed := &fakeFeed{events: []domain.SeismicEvent{{ID: "a"}, {ID: "b"}}}
	c := newController(feed, &fakeSearcher{}, Config{Stream: stream})

	require.NoError(t, c.Load(context.Background()))
	require.Len(t, stream.published, 1)
	assert.Len(t, stream.published[0], 2)
}

func TestLoad_StreamFailureDoesNotAffectState(t *testing.T) {
	stream := &fakeStream{err: errors.New("broker down")}
	feed := &fakeFeed{events: []domain.SeismicEvent{{ID: "a"}}}
	c := newController(feed, &fakeSearcher{}, Config{Stream: stream})

	require.NoError(t, c.Load(context.Background()))

	snap := c.Snapshot()
	assert.Empty(t, snap.Error)
	assert.Len(t, snap.Events, 1)
	assert.NoError(t, c.CheckReadiness(context.Background()))
}

// --- event selection ---

func TestSelectEvent_FliesToInvertedCoordinates(t *testing.T) {
	c := newController(&fakeFeed{}, &fakeSearcher{}, Config{})
	vp := &fakeViewport{}
	c.AttachViewport(vp)

	// Geometry arrived as [139.7, 35.6, 10] = [lon, lat, depth].
	c.SelectEvent(domain.SeismicEvent{ID: "a", Lat: 35.6, Lon: 139.7, Depth: 10})

	calls := vp.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "fly_to", calls[0].kind)
	assert.InDelta(t, 35.6, calls[0].target.Lat.Degrees(), 1e-9)
	assert.InDelta(t, 139.7, calls[0].target.Lng.Degrees(), 1e-9)
	assert.Equal(t, ZoomEvent, calls[0].zoom)
	assert.Equal(t, DefaultAnimation, calls[0].anim)

	snap := c.Snapshot()
	require.NotNil(t, snap.Selected)
	assert.Equal(t, "a", snap.Selected.ID)
}

func TestSelectEvent_NoViewportAttached(t *testing.T) {
	c := newController(&fakeFeed{}, &fakeSearcher{}, Config{})

	c.SelectEvent(domain.SeismicEvent{ID: "a"})

	snap := c.Snapshot()
	require.NotNil(t, snap.Selected, "selection is recorded even without a viewport")
}

func TestAttachViewport_ReplaysPendingSelection(t *testing.T) {
	c := newController(&fakeFeed{}, &fakeSearcher{}, Config{})
	c.SelectEvent(domain.SeismicEvent{ID: "a", Lat: 10, Lon: 20})

	vp := &fakeViewport{}
	c.AttachViewport(vp)

	calls := vp.snapshot()
	require.Len(t, calls, 1, "attaching after selection still performs the transition")
	assert.Equal(t, "fly_to", calls[0].kind)
	assert.InDelta(t, 10, calls[0].target.Lat.Degrees(), 1e-9)
	assert.InDelta(t, 20, calls[0].target.Lng.Degrees(), 1e-9)
	assert.Equal(t, ZoomEvent, calls[0].zoom)
}

func TestSelectEventByID(t *testing.T) {
	feed := &fakeFeed{events: []domain.SeismicEvent{{ID: "a"}, {ID: "b", Lat: 1, Lon: 2}}}
	c := newController(feed, &fakeSearcher{}, Config{})
	require.NoError(t, c.Load(context.Background()))

	assert.False(t, c.SelectEventByID("missing"))
	assert.Nil(t, c.Snapshot().Selected)

	assert.True(t, c.SelectEventByID("b"))
	snap := c.Snapshot()
	require.NotNil(t, snap.Selected)
	assert.Equal(t, "b", snap.Selected.ID)
}

func TestClearSelection(t *testing.T) {
	c := newController(&fakeFeed{}, &fakeSearcher{}, Config{})
	c.SelectEvent(domain.SeismicEvent{ID: "a"})
	require.NotNil(t, c.Snapshot().Selected)

	c.ClearSelection()
	assert.Nil(t, c.Snapshot().Selected)
}

// --- suggestion selection ---

func TestSelectSuggestion_CountryFitsBounds(t *testing.T) {
	c := newController(&fakeFeed{}, &fakeSearcher{}, Config{})
	vp := &fakeViewport{}
	c.AttachViewport(vp)

	c.SelectSuggestion(domain.LocationSuggestion{
		PlaceID:     1,
		DisplayName: "Japan",
		Kind:        domain.KindCountry,
		Lat:         "36.5",
		Lon:         "139.2",
		BoundingBox: []string{"10", "20", "30", "40"},
	})

	calls := vp.snapshot()
	require.Len(t, calls, 1)
	require.Equal(t, "fit_bounds", calls[0].kind, "countries with a box fit bounds, not fly")
	assert.InDelta(t, 10, calls[0].bounds.Lo().Lat.Degrees(), 1e-9)
	assert.InDelta(t, 30, calls[0].bounds.Lo().Lng.Degrees(), 1e-9)
	assert.InDelta(t, 20, calls[0].bounds.Hi().Lat.Degrees(), 1e-9)
	assert.InDelta(t, 40, calls[0].bounds.Hi().Lng.Degrees(), 1e-9)

	snap := c.Snapshot()
	assert.Equal(t, "Japan", snap.SearchText)
	assert.Empty(t, snap.Suggestions)
}

func TestSelectSuggestion_CityFliesToPoint(t *testing.T) {
	c := newController(&fakeFeed{}, &fakeSearcher{}, Config{})
	vp := &fakeViewport{}
	c.AttachViewport(vp)

	c.SelectSuggestion(domain.LocationSuggestion{
		PlaceID:     2,
		DisplayName: "Tokyo, Japan",
		Kind:        "city",
		Lat:         "35.6",
		Lon:         "139.7",
	})

	calls := vp.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "fly_to", calls[0].kind)
	assert.InDelta(t, 35.6, calls[0].target.Lat.Degrees(), 1e-9)
	assert.InDelta(t, 139.7, calls[0].target.Lng.Degrees(), 1e-9)
	assert.Equal(t, ZoomPlace, calls[0].zoom)
}

func TestSelectSuggestion_CountryWithoutBoxFliesToPoint(t *testing.T) {
	c := newController(&fakeFeed{}, &fakeSearcher{}, Config{})
	vp := &fakeViewport{}
	c.AttachViewport(vp)

	c.SelectSuggestion(domain.LocationSuggestion{
		PlaceID:     3,
		DisplayName: "Japan",
		Kind:        domain.KindCountry,
		Lat:         "36.5",
		Lon:         "139.2",
	})

	calls := vp.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "fly_to", calls[0].kind)
	assert.Equal(t, ZoomPlace, calls[0].zoom)
}

func TestSelectSuggestion_NoViewportIsNoOp(t *testing.T) {
	c := newController(&fakeFeed{}, &fakeSearcher{}, Config{})

	c.SelectSuggestion(domain.LocationSuggestion{PlaceID: 4, DisplayName: "Tokyo, Japan", Lat: "35.6", Lon: "139.7"})

	snap := c.Snapshot()
	assert.Equal(t, "Tokyo, Japan", snap.SearchText, "text and suggestions still update without a viewport")
	assert.Empty(t, snap.Suggestions)
}

func TestSelectSuggestionByID(t *testing.T) {
	clock := clockwork.NewFakeClock()
	searcher := &fakeSearcher{results: []domain.LocationSuggestion{
		{PlaceID: 7, DisplayName: "Tokyo, Japan", Lat: "35.6", Lon: "139.7"},
	}}
	c := newController(&fakeFeed{}, searcher, Config{Clock: clock})
	vp := &fakeViewport{}
	c.AttachViewport(vp)

	c.SetSearchText("Tokyo")
	clock.Advance(300 * time.Millisecond)
	require.Eventually(t, func() bool {
		return len(c.Snapshot().Suggestions) == 1
	}, time.Second, 5*time.Millisecond)

	assert.False(t, c.SelectSuggestionByID(99))
	assert.True(t, c.SelectSuggestionByID(7))

	snap := c.Snapshot()
	assert.Equal(t, "Tokyo, Japan", snap.SearchText)
	assert.Empty(t, snap.Suggestions)
	require.Len(t, vp.snapshot(), 1)
}

// --- theme ---

func TestToggleTheme(t *testing.T) {
	themes := &fakeThemes{}
	c := newController(&fakeFeed{}, &fakeSearcher{}, Config{Themes: themes})

	assert.Equal(t, domain.ThemeDark, c.Snapshot().Theme)

	assert.Equal(t, domain.ThemeLight, c.ToggleTheme())
	assert.Equal(t, domain.ThemeDark, c.ToggleTheme())

	assert.Equal(t, []domain.Theme{domain.ThemeLight, domain.ThemeDark}, themes.applied)
}

func TestToggleTheme_DoesNotTouchData(t *testing.T) {
	feed := &fakeFeed{events: []domain.SeismicEvent{{ID: "a"}}}
	c := newController(feed, &fakeSearcher{}, Config{})
	require.NoError(t, c.Load(context.Background()))

	before := c.Snapshot()
	c.ToggleTheme()
	after := c.Snapshot()

	assert.Equal(t, before.Events, after.Events)
	assert.Equal(t, before.Suggestions, after.Suggestions)
	assert.NotEqual(t, before.Theme, after.Theme)
}

// --- snapshot isolation ---

func TestSnapshot_IsACopy(t *testing.T) {
	feed := &fakeFeed{events: []domain.SeismicEvent{{ID: "a", Place: "original"}}}
	c := newController(feed, &fakeSearcher{}, Config{})
	require.NoError(t, c.Load(context.Background()))
	c.SelectEvent(feed.events[0])

	snap := c.Snapshot()
	snap.Events[0].Place = "mutated"
	snap.Selected.Place = "mutated"

	fresh := c.Snapshot()
	assert.Equal(t, "original", fresh.Events[0].Place)
	assert.Equal(t, "original", fresh.Selected.Place)
}
