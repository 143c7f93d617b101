// Package usgs fetches earthquake events from the USGS GeoJSON summary feed.
package usgs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/seismoscope/quakeview/internal/domain"
	"github.com/seismoscope/quakeview/internal/observability"
)

// Client implements viewstate.FeedSource against the USGS summary feed.
type Client struct {
	feedURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a feed client for the given feed URL (the complete
// summary document, e.g. .../summary/all_day.geojson).
func NewClient(feedURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		metrics: metrics,
		logger:  logger,
	}
}

// FetchEvents performs one feed request and maps the result to domain events.
// Any transport error or non-2xx status is returned as an error; the caller
// treats load failure as terminal for the session.
func (c *Client) FetchEvents(ctx context.Context) ([]domain.SeismicEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.FeedFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch seismic feed: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.FeedFetchSeconds.Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.FeedFetches.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("seismic feed: status %d: %s", resp.StatusCode, body)
	}

	var fc domain.FeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		c.metrics.FeedFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode seismic feed: %w", err)
	}

	events := fc.Events()
	c.metrics.FeedFetches.WithLabelValues("success").Inc()
	c.logger.Debug("seismic feed fetched", "events", len(events))
	return events, nil
}
