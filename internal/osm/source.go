package osm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"transitline/internal/geo"
)

// RelationSource fetches the raw relation document for a relation id. It is
// a collaborator per spec.md §1 — HTTP fetching is out of this module's
// core scope, but a default implementation is still wired so the repo runs
// end to end.
type RelationSource interface {
	Fetch(ctx context.Context, relationID string) (string, error)
}

// HTTPSource fetches relations from an OSM API-compatible endpoint, the
// same way internal/nextrip/client.go fetched Metro Transit's NexTrip API:
// a timeout-bounded *http.Client and context-scoped requests.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPSource creates a RelationSource against baseURL, e.g.
// "https://api.openstreetmap.org/api/0.6".
func NewHTTPSource(baseURL string, logger *slog.Logger) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// Fetch retrieves "<baseURL>/relation/<relationID>/full" as raw XML text.
func (s *HTTPSource) Fetch(ctx context.Context, relationID string) (string, error) {
	url := fmt.Sprintf("%s/relation/%s/full", s.baseURL, relationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("osm: build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("osm: fetch relation %s: %w", relationID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("osm: relation %s: HTTP %d", relationID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("osm: read relation %s body: %w", relationID, err)
	}

	s.logger.Info("relation fetched", "relation_id", relationID, "bytes", len(body))
	return string(body), nil
}

// FetchBBox retrieves "<baseURL>/map?bbox=..." for the square bounding box of
// radiusMeters around center, as raw XML text. Used to pull the raw ways
// around a single stop (e.g. to diagnose a relation's endpoint stop without
// fetching the full relation) rather than the whole route.
func (s *HTTPSource) FetchBBox(ctx context.Context, center geo.Coordinate, radiusMeters float64) (string, error) {
	latDeg, lonDeg := geo.BoundingBoxRadius(center.Lat, radiusMeters)
	url := fmt.Sprintf("%s/map?bbox=%f,%f,%f,%f", s.baseURL,
		center.Lon-lonDeg, center.Lat-latDeg, center.Lon+lonDeg, center.Lat+latDeg)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("osm: build bbox request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("osm: fetch bbox around %v: %w", center, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("osm: bbox around %v: HTTP %d", center, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("osm: read bbox body: %w", err)
	}

	s.logger.Info("bbox fetched", "center", center, "radius_m", radiusMeters, "bytes", len(body))
	return string(body), nil
}
